// Package store persists document records in SQLite with a full-text index
// over page text.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgallion1/docnav/internal/document"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no document has the requested id.
var ErrNotFound = errors.New("document not found")

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	size         INTEGER NOT NULL,
	kind         TEXT NOT NULL,
	status       TEXT NOT NULL,
	page_count   INTEGER NOT NULL DEFAULT 0,
	content_hash TEXT NOT NULL DEFAULT '',
	created_at   TEXT NOT NULL,
	completed_at TEXT NOT NULL DEFAULT '',
	record       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_name_size ON documents(name, size);
CREATE INDEX IF NOT EXISTS idx_documents_created ON documents(created_at);

CREATE VIRTUAL TABLE IF NOT EXISTS page_text USING fts5(
	doc_id UNINDEXED,
	page UNINDEXED,
	text
);
`

// Store is a SQLite-backed document store.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection serializes writers and keeps :memory: databases shared.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{"PRAGMA foreign_keys = ON", "PRAGMA busy_timeout = 5000"} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	s, err := New(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database, creating the schema if needed.
func New(db *sql.DB) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save writes the full record and replaces its page text index in one
// transaction.
func (s *Store) Save(ctx context.Context, doc *document.Document) error {
	record, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document %s: %w", doc.ID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (id, name, size, kind, status, page_count, content_hash, created_at, completed_at, record)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, size = excluded.size, kind = excluded.kind,
			status = excluded.status, page_count = excluded.page_count,
			content_hash = excluded.content_hash, created_at = excluded.created_at,
			completed_at = excluded.completed_at, record = excluded.record`,
		doc.ID, doc.Name, doc.Size, string(doc.Kind), string(doc.Status), doc.PageCount,
		doc.ContentHash, formatTime(doc.CreatedAt), formatTime(doc.CompletedAt), string(record),
	)
	if err != nil {
		return fmt.Errorf("upsert document %s: %w", doc.ID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM page_text WHERE doc_id = ?`, doc.ID); err != nil {
		return fmt.Errorf("clear page text %s: %w", doc.ID, err)
	}
	for _, p := range doc.Pages {
		if strings.TrimSpace(p.OCR.Text) == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO page_text (doc_id, page, text) VALUES (?, ?, ?)`,
			doc.ID, p.Number, p.OCR.Text); err != nil {
			return fmt.Errorf("index page %d of %s: %w", p.Number, doc.ID, err)
		}
	}
	return tx.Commit()
}

// Get loads a full document record.
func (s *Store) Get(ctx context.Context, id string) (*document.Document, error) {
	var record string
	err := s.db.QueryRowContext(ctx, `SELECT record FROM documents WHERE id = ?`, id).Scan(&record)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", id, err)
	}
	return decode(record)
}

// Delete removes a document and its text index.
func (s *Store) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM page_text WHERE doc_id = ?`, id); err != nil {
		return fmt.Errorf("delete page text %s: %w", id, err)
	}
	return tx.Commit()
}

// Summary is the list view of a document.
type Summary struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Size        int64           `json:"size"`
	Kind        document.Kind   `json:"kind"`
	Status      document.Status `json:"status"`
	PageCount   int             `json:"page_count"`
	CreatedAt   time.Time       `json:"created_at"`
	CompletedAt time.Time       `json:"completed_at,omitempty"`
}

// List returns documents newest first along with the total count.
func (s *Store) List(ctx context.Context, limit, offset int) ([]Summary, int, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count documents: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, size, kind, status, page_count, created_at, completed_at
		FROM documents ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var (
			sum                Summary
			kind, status       string
			created, completed string
		)
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.Size, &kind, &status, &sum.PageCount, &created, &completed); err != nil {
			return nil, 0, fmt.Errorf("scan document: %w", err)
		}
		sum.Kind = document.Kind(kind)
		sum.Status = document.Status(status)
		sum.CreatedAt = parseTime(created)
		sum.CompletedAt = parseTime(completed)
		out = append(out, sum)
	}
	return out, total, rows.Err()
}

// FindByNameSize returns the newest completed document with the given name
// and size, or nil when there is none.
func (s *Store) FindByNameSize(ctx context.Context, name string, size int64) (*document.Document, error) {
	var record string
	err := s.db.QueryRowContext(ctx, `
		SELECT record FROM documents
		WHERE name = ? AND size = ? AND status = ?
		ORDER BY created_at DESC LIMIT 1`, name, size, string(document.StatusCompleted)).Scan(&record)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by name/size: %w", err)
	}
	return decode(record)
}

func decode(record string) (*document.Document, error) {
	var doc document.Document
	if err := json.Unmarshal([]byte(record), &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &doc, nil
}

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}
