// Package backend selects a docstore.Store implementation from a database URL.
package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rallyops/designops/internal/docstore"
	"github.com/rallyops/designops/internal/docstore/postgres"
	"github.com/rallyops/designops/internal/docstore/sqlite"
)

// ErrUnsupportedScheme is returned for database URLs with an unknown scheme.
var ErrUnsupportedScheme = errors.New("unsupported database URL scheme")

const sqlitePrefix = "sqlite://"

// Open connects to the store named by databaseURL: postgres:// and
// postgresql:// URLs open Postgres, sqlite://<path> opens a SQLite file and
// sqlite://:memory: an in-memory database.
func Open(ctx context.Context, databaseURL string) (docstore.Store, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return postgres.New(ctx, databaseURL)
	case strings.HasPrefix(databaseURL, sqlitePrefix):
		path := strings.TrimPrefix(databaseURL, sqlitePrefix)
		if path == "" {
			return nil, fmt.Errorf("%w: sqlite URL has no path", ErrUnsupportedScheme)
		}
		return sqlite.New(ctx, path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, scheme(databaseURL))
	}
}

func scheme(databaseURL string) string {
	if i := strings.Index(databaseURL, "://"); i >= 0 {
		return databaseURL[:i]
	}
	return ""
}
