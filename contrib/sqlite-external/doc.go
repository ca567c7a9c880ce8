// Package sqliteexternal provides the optional CGO SQLite driver.
//
// To use the CGO driver (github.com/mattn/go-sqlite3):
//
//	import _ "github.com/FocuswithJustin/writings/contrib/sqlite-external"
//
// Build with:
//
//	CGO_ENABLED=1 go build -tags "cgo_sqlite sqlite_fts5"
//
// The sqlite_fts5 tag is required for the search index.
//
// # Default Pure Go Driver
//
// By default the search index is built with modernc.org/sqlite, which
// needs no CGO. See github.com/FocuswithJustin/writings/core/sqlite.
package sqliteexternal
