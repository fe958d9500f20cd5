package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const archiveSeparator = "@"

// SQLiteDocumentStore keeps the document as one row of a documents table, so
// several named documents (and their archives) can share one database file.
type SQLiteDocumentStore struct {
	db   *sql.DB
	name string
}

func NewSQLiteDocumentStore(path string, name string) (*SQLiteDocumentStore, error) {
	if err := ValidateIdentifier("document", name); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS documents (
			name        TEXT PRIMARY KEY,
			body        BLOB NOT NULL,
			updated_at  TEXT NOT NULL
		);
	`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating documents table: %w", err)
	}

	return &SQLiteDocumentStore{db: db, name: name}, nil
}

func (s *SQLiteDocumentStore) Read(ctx context.Context) ([]byte, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, `SELECT body FROM documents WHERE name = ?`, s.name).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading document %q: %w", s.name, err)
	}
	return body, nil
}

func (s *SQLiteDocumentStore) Write(ctx context.Context, data []byte) error {
	return s.upsert(ctx, s.name, data)
}

func (s *SQLiteDocumentStore) WriteArchive(ctx context.Context, label string, data []byte) error {
	if err := ValidateIdentifier("archive", label); err != nil {
		return err
	}
	return s.upsert(ctx, s.name+archiveSeparator+label, data)
}

func (s *SQLiteDocumentStore) upsert(ctx context.Context, name string, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (name, body, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at
	`, name, data, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("writing document %q: %w", name, err)
	}
	return nil
}

func (s *SQLiteDocumentStore) Close() error {
	return s.db.Close()
}
