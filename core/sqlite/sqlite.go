// Package sqlite opens SQLite databases through either the pure Go
// (modernc.org/sqlite) or the CGO (mattn/go-sqlite3) driver.
//
// Build modes:
//   - Default (CGO_ENABLED=0): uses modernc.org/sqlite
//   - CGO mode (CGO_ENABLED=1 -tags "cgo_sqlite sqlite_fts5"): uses
//     mattn/go-sqlite3 via contrib/sqlite-external
//
// The full-text index needs FTS5, which modernc.org/sqlite always ships and
// mattn/go-sqlite3 compiles in only with the sqlite_fts5 tag.
//
// Use Open() instead of sql.Open() to ensure the correct driver is used.
package sqlite

import (
	"context"
	"database/sql"
	"strings"
)

// DriverName returns the SQL driver name to use.
func DriverName() string {
	return driverName
}

// DriverType returns a string identifying the underlying implementation.
// Returns "cgo" for mattn/go-sqlite3, "purego" for modernc.org/sqlite.
func DriverType() string {
	return driverType
}

// IsCGO returns true if the CGO implementation is being used.
func IsCGO() bool {
	return driverType == "cgo"
}

// Open opens a SQLite database using the appropriate driver.
func Open(dataSourceName string) (*sql.DB, error) {
	return sql.Open(driverName, dataSourceName)
}

// OpenReadOnly opens an existing SQLite database in read-only mode.
func OpenReadOnly(path string) (*sql.DB, error) {
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}
	return Open(path + "?mode=ro")
}

// HasFTS5 reports whether the driver was built with the FTS5 extension.
func HasFTS5(ctx context.Context, db *sql.DB) bool {
	var enabled int
	err := db.QueryRowContext(ctx, `SELECT sqlite_compileoption_used('ENABLE_FTS5')`).Scan(&enabled)
	return err == nil && enabled == 1
}

// Info contains information about the SQLite driver configuration.
type Info struct {
	DriverName string `json:"driver_name"`
	DriverType string `json:"driver_type"`
	IsCGO      bool   `json:"is_cgo"`
	Package    string `json:"package"`
}

// GetInfo returns information about the current SQLite configuration.
func GetInfo() Info {
	return Info{
		DriverName: driverName,
		DriverType: driverType,
		IsCGO:      IsCGO(),
		Package:    driverPackage,
	}
}
