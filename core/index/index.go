// Package index keeps a SQLite FTS5 copy of the corpus text. The search
// engine uses it to narrow the records it scores; the CLI queries it
// directly.
package index

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/FocuswithJustin/writings/core/errors"
	"github.com/FocuswithJustin/writings/core/snapshot"
	"github.com/FocuswithJustin/writings/core/sqlite"
	"github.com/FocuswithJustin/writings/core/writings"
)

// Store is an FTS5 index in a SQLite database.
type Store struct {
	db *sql.DB
}

// Hit is one full-text match.
type Hit struct {
	RefID   string  `json:"ref_id"`
	Title   string  `json:"title"`
	Snippet string  `json:"snippet"`
	Rank    float64 `json:"rank"`
}

// Open opens or creates the index database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, errors.NewIO("open index", path, err)
	}
	if !sqlite.HasFTS5(ctx, db) {
		db.Close()
		return nil, errors.NewUnsupported("full-text index", sqlite.GetInfo().Package+" built without FTS5")
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply index schema: %w", err)
	}
	return &Store{db: db}, nil
}

// OpenReadOnly opens an existing index for querying only.
func OpenReadOnly(ctx context.Context, path string) (*Store, error) {
	db, err := sqlite.OpenReadOnly(path)
	if err != nil {
		return nil, errors.NewIO("open index", path, err)
	}
	if !sqlite.HasFTS5(ctx, db) {
		db.Close()
		return nil, errors.NewUnsupported("full-text index", sqlite.GetInfo().Package+" built without FTS5")
	}
	s := &Store{db: db}
	if _, err := s.Count(ctx); err != nil {
		db.Close()
		return nil, errors.NewIO("read index", path, err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Build replaces the indexed content with records.
func (s *Store) Build(ctx context.Context, records []writings.Writing) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM writings`); err != nil {
		return fmt.Errorf("clear index: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO writings (ref_id, type, title, text, digest) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		h := writings.HeaderOf(r)
		if _, err := stmt.ExecContext(ctx, h.RefID, string(h.Type), h.Title, h.Text, snapshot.Digest([]byte(h.Text))); err != nil {
			return fmt.Errorf("index %s: %w", h.RefID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO writings_fts(writings_fts) VALUES('rebuild')`); err != nil {
		return fmt.Errorf("rebuild fts: %w", err)
	}
	meta := map[string]string{
		"built_at": time.Now().UTC().Format(time.RFC3339),
		"records":  strconv.Itoa(len(records)),
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO index_meta (key, value) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, k, v); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Count returns the number of indexed records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM writings`).Scan(&n)
	return n, err
}

// BuiltAt returns when Build last ran, or the zero time.
func (s *Store) BuiltAt(ctx context.Context) (time.Time, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM index_meta WHERE key = 'built_at'`).Scan(&v)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, v)
}

// matchExpr turns terms into an FTS5 expression requiring every term as a
// word prefix.
func matchExpr(terms []string) string {
	parts := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		parts = append(parts, `"`+strings.ReplaceAll(t, `"`, `""`)+`"*`)
	}
	return strings.Join(parts, " AND ")
}

// Candidates returns the ref_ids of records containing every term as a word
// prefix, best ranked first. A limit <= 0 means no limit.
func (s *Store) Candidates(ctx context.Context, terms []string, limit int) ([]string, error) {
	expr := matchExpr(terms)
	if expr == "" {
		return nil, errors.NewValidation("terms", "no search terms")
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT ref_id FROM writings_fts WHERE writings_fts MATCH ? ORDER BY rank LIMIT ?`, expr, limit)
	if err != nil {
		return nil, fmt.Errorf("candidates: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Match runs a raw FTS5 query and returns ranked hits with snippets.
func (s *Store) Match(ctx context.Context, query string, limit int) ([]Hit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.NewValidation("query", "empty query")
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT ref_id, title, snippet(writings_fts, 2, '[', ']', '…', 12), rank
		FROM writings_fts
		WHERE writings_fts MATCH ?
		ORDER BY rank
		LIMIT ?`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("match: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var h Hit
		if err := rows.Scan(&h.RefID, &h.Title, &h.Snippet, &h.Rank); err != nil {
			return nil, fmt.Errorf("scan hit: %w", err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}
