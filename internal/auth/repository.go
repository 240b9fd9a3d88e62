package auth

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned when an API key record is not found.
var ErrKeyNotFound = errors.New("api key not found")

// ErrKeyRevoked is returned when attempting to revoke an already revoked key.
var ErrKeyRevoked = errors.New("api key is revoked")

// KeyRepository provides operations on stored API keys.
type KeyRepository interface {
	Create(ctx context.Context, key *APIKey) error
	GetByID(ctx context.Context, id string) (*APIKey, error)
	FindByPrefix(ctx context.Context, prefix string) ([]APIKey, error)
	List(ctx context.Context) ([]APIKey, error)
	Revoke(ctx context.Context, id string) error
}
