package access

import (
	"context"
	"errors"
)

// ErrRecordNotFound is returned when an identity has no authorization record.
var ErrRecordNotFound = errors.New("authorization record not found")

// ErrNoStore is returned by a repository without a backing store.
var ErrNoStore = errors.New("database not initialized")

// Repository provides lookups and management of authorization records.
type Repository interface {
	Lookup(ctx context.Context, uid string) (*Record, error)
	List(ctx context.Context) ([]Record, error)
	Put(ctx context.Context, uid, email string, role Role) (*Record, error)
	Delete(ctx context.Context, uid string) error
}
