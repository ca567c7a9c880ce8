package sqlite

import (
	"context"
	"path/filepath"
	"testing"
)

func TestDriverInfo(t *testing.T) {
	info := GetInfo()

	if info.DriverName == "" {
		t.Error("DriverName should not be empty")
	}
	if info.DriverType == "" {
		t.Error("DriverType should not be empty")
	}
	if info.Package == "" {
		t.Error("Package should not be empty")
	}
	if info.DriverName != DriverName() {
		t.Errorf("DriverName mismatch: info=%s, func=%s", info.DriverName, DriverName())
	}
	if info.DriverType != DriverType() {
		t.Errorf("DriverType mismatch: info=%s, func=%s", info.DriverType, DriverType())
	}
	if info.IsCGO != IsCGO() {
		t.Errorf("IsCGO mismatch: info=%v, func=%v", info.IsCGO, IsCGO())
	}

	t.Logf("SQLite driver: %s (%s) from %s", info.DriverName, info.DriverType, info.Package)
}

func createTestDB(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE TABLE paragraphs (ref_id TEXT PRIMARY KEY, text TEXT)`); err != nil {
		t.Fatalf("failed to create table: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO paragraphs (ref_id, text) VALUES (?, ?)`, "857137774", "O Son of Being!"); err != nil {
		t.Fatalf("failed to insert: %v", err)
	}
	return dbPath
}

func TestOpen(t *testing.T) {
	db, err := Open(createTestDB(t))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	var text string
	if err := db.QueryRow(`SELECT text FROM paragraphs WHERE ref_id = ?`, "857137774").Scan(&text); err != nil {
		t.Fatalf("failed to query: %v", err)
	}
	if text != "O Son of Being!" {
		t.Errorf("text = %q, want %q", text, "O Son of Being!")
	}
}

func TestOpenReadOnly(t *testing.T) {
	rodb, err := OpenReadOnly(createTestDB(t))
	if err != nil {
		t.Fatalf("failed to open read-only: %v", err)
	}
	defer rodb.Close()

	var n int
	if err := rodb.QueryRow(`SELECT COUNT(*) FROM paragraphs`).Scan(&n); err != nil {
		t.Fatalf("failed to query: %v", err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}

	if _, err := rodb.Exec(`INSERT INTO paragraphs (ref_id, text) VALUES ('x', 'y')`); err == nil {
		t.Error("write to a read-only database should fail")
	}
}

func TestHasFTS5(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "fts.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if !HasFTS5(context.Background(), db) {
		t.Skip("driver built without FTS5")
	}
	if _, err := db.Exec(`CREATE VIRTUAL TABLE probe USING fts5(text)`); err != nil {
		t.Errorf("HasFTS5 reported true but fts5 table failed: %v", err)
	}
}

func TestDriverTypeConsistency(t *testing.T) {
	switch DriverType() {
	case "purego":
		if IsCGO() {
			t.Error("IsCGO() should be false for purego driver")
		}
		if DriverName() != "sqlite" {
			t.Errorf("purego driver should use 'sqlite' name, got '%s'", DriverName())
		}
	case "cgo":
		if !IsCGO() {
			t.Error("IsCGO() should be true for cgo driver")
		}
		if DriverName() != "sqlite3" {
			t.Errorf("cgo driver should use 'sqlite3' name, got '%s'", DriverName())
		}
	default:
		t.Errorf("unknown driver type: %s", DriverType())
	}
}
