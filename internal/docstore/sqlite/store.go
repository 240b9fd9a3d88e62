// Package sqlite implements docstore.Store on an embedded SQLite database,
// storing each document as JSON text and querying it with the JSON1 functions.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/rallyops/designops/internal/docstore"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS documents (
    collection TEXT NOT NULL,
    id TEXT NOT NULL,
    data TEXT NOT NULL DEFAULT '{}',
    PRIMARY KEY (collection, id)
);
`

const nowExpr = `strftime('%Y-%m-%dT%H:%M:%fZ', 'now')`

// Store implements docstore.Store using sqlx over modernc.org/sqlite.
type Store struct {
	db *sqlx.DB
}

var _ docstore.Store = (*Store)(nil)

type documentRow struct {
	ID   string `db:"id"`
	Data string `db:"data"`
}

// New opens the database file at path (or MemoryPath) and ensures the
// documents table exists.
func New(ctx context.Context, path string) (*Store, error) {
	dsn := path
	if path != MemoryPath {
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	}

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// A single connection keeps in-memory databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: creating documents table: %w", err)
	}

	return &Store{db: db}, nil
}

// Get retrieves a single document.
func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	var row documentRow
	err := s.db.GetContext(ctx, &row, `SELECT id, data FROM documents WHERE collection = ? AND id = ?`, collection, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return docstore.Document{}, docstore.ErrNotFound
		}
		return docstore.Document{}, fmt.Errorf("sqlite: querying %s/%s: %w", collection, id, err)
	}
	return decodeRow(collection, row)
}

// List returns the documents of a collection matching every filter, sorted
// by the binary collation of the OrderBy field when one is given.
func (s *Store) List(ctx context.Context, collection string, q docstore.Query) ([]docstore.Document, error) {
	if err := docstore.CheckQuery(q); err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString(`SELECT id, data FROM documents WHERE collection = ?`)
	args := []any{collection}

	for _, f := range q.Where {
		b.WriteString(` AND json_extract(data, ?) = ?`)
		args = append(args, "$."+f.Field, f.Value)
	}

	if q.OrderBy != "" {
		path := "$." + q.OrderBy
		b.WriteString(` AND json_extract(data, ?) IS NOT NULL ORDER BY json_extract(data, ?) COLLATE BINARY ASC, id ASC`)
		args = append(args, path, path)
	} else {
		b.WriteString(` ORDER BY id ASC`)
	}

	var rows []documentRow
	if err := s.db.SelectContext(ctx, &rows, b.String(), args...); err != nil {
		return nil, fmt.Errorf("sqlite: listing %s: %w", collection, err)
	}

	docs := make([]docstore.Document, 0, len(rows))
	for _, row := range rows {
		doc, err := decodeRow(collection, row)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Insert writes a new document under a generated id.
func (s *Store) Insert(ctx context.Context, collection string, fields docstore.Fields) (string, error) {
	id := uuid.NewString()

	expr, args, err := dataExpr(fields)
	if err != nil {
		return "", err
	}

	query := `INSERT INTO documents (collection, id, data) VALUES (?, ?, ` + expr + `)`
	if _, err := s.db.ExecContext(ctx, query, append([]any{collection, id}, args...)...); err != nil {
		return "", fmt.Errorf("sqlite: inserting into %s: %w", collection, err)
	}
	return id, nil
}

// Set creates or fully replaces the document with the given id.
func (s *Store) Set(ctx context.Context, collection, id string, fields docstore.Fields) error {
	expr, args, err := dataExpr(fields)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO documents (collection, id, data) VALUES (?, ?, ` + expr + `)
		ON CONFLICT (collection, id) DO UPDATE SET data = excluded.data`
	if _, err := s.db.ExecContext(ctx, query, append([]any{collection, id}, args...)...); err != nil {
		return fmt.Errorf("sqlite: setting %s/%s: %w", collection, id, err)
	}
	return nil
}

// MergeUpdate overwrites the given top-level keys of an existing document.
// json_patch merges nested objects recursively, so the overlay is done here
// inside a transaction instead.
func (s *Store) MergeUpdate(ctx context.Context, collection, id string, fields docstore.Fields) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var raw string
	err = tx.GetContext(ctx, &raw, `SELECT data FROM documents WHERE collection = ? AND id = ?`, collection, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return docstore.ErrNotFound
		}
		return fmt.Errorf("sqlite: reading %s/%s: %w", collection, id, err)
	}

	current := docstore.Fields{}
	if err := json.Unmarshal([]byte(raw), &current); err != nil {
		return fmt.Errorf("sqlite: decoding %s/%s: %w", collection, id, err)
	}
	for k, v := range fields {
		current[k] = v
	}

	expr, args, err := dataExpr(current)
	if err != nil {
		return err
	}

	query := `UPDATE documents SET data = ` + expr + ` WHERE collection = ? AND id = ?`
	if _, err := tx.ExecContext(ctx, query, append(args, collection, id)...); err != nil {
		return fmt.Errorf("sqlite: updating %s/%s: %w", collection, id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing %s/%s: %w", collection, id, err)
	}
	return nil
}

// Remove deletes a document if it exists.
func (s *Store) Remove(ctx context.Context, collection, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id); err != nil {
		return fmt.Errorf("sqlite: deleting %s/%s: %w", collection, id, err)
	}
	return nil
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// dataExpr returns a SQL expression producing the document JSON, with
// server timestamp keys set from SQLite's clock, and its arguments.
func dataExpr(fields docstore.Fields) (string, []any, error) {
	plain, stampKeys := fields.Split()

	raw, err := json.Marshal(plain)
	if err != nil {
		return "", nil, fmt.Errorf("sqlite: encoding document: %w", err)
	}

	if len(stampKeys) == 0 {
		return `json(?)`, []any{string(raw)}, nil
	}

	var b strings.Builder
	b.WriteString(`json_set(json(?)`)
	args := []any{string(raw)}
	for _, k := range stampKeys {
		b.WriteString(`, ?, ` + nowExpr)
		args = append(args, "$."+k)
	}
	b.WriteString(`)`)
	return b.String(), args, nil
}

func decodeRow(collection string, row documentRow) (docstore.Document, error) {
	data := map[string]any{}
	if err := json.Unmarshal([]byte(row.Data), &data); err != nil {
		return docstore.Document{}, fmt.Errorf("sqlite: decoding %s/%s: %w", collection, row.ID, err)
	}
	return docstore.Document{ID: row.ID, Data: data}, nil
}
