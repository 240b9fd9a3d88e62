// Package postgres implements docstore.Store on a single Postgres table of
// JSONB documents keyed by (collection, id).
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rallyops/designops/internal/docstore"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS documents (
    collection TEXT NOT NULL,
    id TEXT NOT NULL,
    data JSONB NOT NULL DEFAULT '{}'::jsonb,
    PRIMARY KEY (collection, id)
);
`

// Store implements docstore.Store using pgxpool.
type Store struct {
	pool *pgxpool.Pool
}

var _ docstore.Store = (*Store)(nil)

// New parses the database URL, opens a connection pool, verifies it and
// ensures the documents table exists.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	s := NewWithPool(pool)
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewWithPool wraps an existing pool. The caller owns schema setup.
func NewWithPool(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// EnsureSchema creates the documents table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("creating documents table: %w", err)
	}
	return nil
}

// Get retrieves a single document.
func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	query := `SELECT data FROM documents WHERE collection = $1 AND id = $2`

	var raw []byte
	err := s.pool.QueryRow(ctx, query, collection, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return docstore.Document{}, docstore.ErrNotFound
		}
		return docstore.Document{}, fmt.Errorf("querying %s/%s: %w", collection, id, err)
	}

	data := map[string]any{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return docstore.Document{}, fmt.Errorf("decoding %s/%s: %w", collection, id, err)
	}
	return docstore.Document{ID: id, Data: data}, nil
}

// List returns the documents of a collection matching every filter. When
// OrderBy is set, documents lacking that field are excluded and the rest are
// sorted by the field's byte order.
func (s *Store) List(ctx context.Context, collection string, q docstore.Query) ([]docstore.Document, error) {
	if err := docstore.CheckQuery(q); err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString(`SELECT id, data FROM documents WHERE collection = $1`)
	args := []any{collection}

	for _, f := range q.Where {
		args = append(args, f.Field, f.Value)
		fmt.Fprintf(&b, ` AND data->>$%d = $%d`, len(args)-1, len(args))
	}

	if q.OrderBy != "" {
		args = append(args, q.OrderBy)
		n := len(args)
		fmt.Fprintf(&b, ` AND data->>$%d IS NOT NULL ORDER BY data->>$%d COLLATE "C" ASC, id ASC`, n, n)
	} else {
		b.WriteString(` ORDER BY id ASC`)
	}

	rows, err := s.pool.Query(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", collection, err)
	}
	defer rows.Close()

	docs := []docstore.Document{}
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", collection, err)
		}
		data := map[string]any{}
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("decoding %s/%s: %w", collection, id, err)
		}
		docs = append(docs, docstore.Document{ID: id, Data: data})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s rows: %w", collection, err)
	}

	return docs, nil
}

// Insert writes a new document under a generated id.
func (s *Store) Insert(ctx context.Context, collection string, fields docstore.Fields) (string, error) {
	id := uuid.NewString()

	body, stamps, args, err := writeArgs(fields, collection, id)
	if err != nil {
		return "", err
	}

	query := `INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3::jsonb || ` + stamps + `)`
	if _, err := s.pool.Exec(ctx, query, append([]any{collection, id, body}, args...)...); err != nil {
		return "", fmt.Errorf("inserting into %s: %w", collection, err)
	}
	return id, nil
}

// Set creates or fully replaces the document with the given id.
func (s *Store) Set(ctx context.Context, collection, id string, fields docstore.Fields) error {
	body, stamps, args, err := writeArgs(fields, collection, id)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3::jsonb || ` + stamps + `)
		ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data`
	if _, err := s.pool.Exec(ctx, query, append([]any{collection, id, body}, args...)...); err != nil {
		return fmt.Errorf("setting %s/%s: %w", collection, id, err)
	}
	return nil
}

// MergeUpdate overwrites the given top-level keys of an existing document.
func (s *Store) MergeUpdate(ctx context.Context, collection, id string, fields docstore.Fields) error {
	body, stamps, args, err := writeArgs(fields, collection, id)
	if err != nil {
		return err
	}

	query := `UPDATE documents SET data = data || $3::jsonb || ` + stamps + ` WHERE collection = $1 AND id = $2`
	result, err := s.pool.Exec(ctx, query, append([]any{collection, id, body}, args...)...)
	if err != nil {
		return fmt.Errorf("updating %s/%s: %w", collection, id, err)
	}
	if result.RowsAffected() == 0 {
		return docstore.ErrNotFound
	}
	return nil
}

// Remove deletes a document if it exists.
func (s *Store) Remove(ctx context.Context, collection, id string) error {
	query := `DELETE FROM documents WHERE collection = $1 AND id = $2`
	if _, err := s.pool.Exec(ctx, query, collection, id); err != nil {
		return fmt.Errorf("deleting %s/%s: %w", collection, id, err)
	}
	return nil
}

// Ping verifies the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// writeArgs encodes the plain fields as a JSON string and builds a
// jsonb_build_object expression that stamps the remaining keys with now().
// Placeholders for the stamp keys start at $4.
func writeArgs(fields docstore.Fields, collection, id string) (string, string, []any, error) {
	plain, stampKeys := fields.Split()

	raw, err := json.Marshal(plain)
	if err != nil {
		return "", "", nil, fmt.Errorf("encoding %s/%s: %w", collection, id, err)
	}

	if len(stampKeys) == 0 {
		return string(raw), `'{}'::jsonb`, nil, nil
	}

	parts := make([]string, 0, len(stampKeys))
	args := make([]any, 0, len(stampKeys))
	for i, k := range stampKeys {
		parts = append(parts, fmt.Sprintf("$%d::text, now()", i+4))
		args = append(args, k)
	}
	return string(raw), "jsonb_build_object(" + strings.Join(parts, ", ") + ")", args, nil
}
