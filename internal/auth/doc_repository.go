package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/rallyops/designops/internal/docstore"
)

// KeyCollection holds one document per issued API key.
const KeyCollection = "apiKeys"

// DocKeyRepository implements KeyRepository on a document store.
type DocKeyRepository struct {
	store docstore.Store
}

// NewKeyRepository creates a new KeyRepository backed by the given store.
func NewKeyRepository(store docstore.Store) KeyRepository {
	return &DocKeyRepository{store: store}
}

// Create inserts a new key record and fills in its id and createdAt.
func (r *DocKeyRepository) Create(ctx context.Context, key *APIKey) error {
	id, err := r.store.Insert(ctx, KeyCollection, docstore.Fields{
		"name":      key.Name,
		"prefix":    key.Prefix,
		"hash":      key.Hash,
		"role":      string(key.Role),
		"createdAt": docstore.ServerTimestamp,
	})
	if err != nil {
		return fmt.Errorf("inserting api key: %w", err)
	}

	stored, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	*key = *stored
	return nil
}

// GetByID retrieves a single key.
func (r *DocKeyRepository) GetByID(ctx context.Context, id string) (*APIKey, error) {
	doc, err := r.store.Get(ctx, KeyCollection, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("querying api key: %w", err)
	}

	var k APIKey
	if err := doc.Decode(&k); err != nil {
		return nil, err
	}
	return &k, nil
}

// FindByPrefix returns the active keys sharing prefix.
func (r *DocKeyRepository) FindByPrefix(ctx context.Context, prefix string) ([]APIKey, error) {
	keys, err := r.list(ctx, docstore.Query{Where: []docstore.Filter{{Field: "prefix", Value: prefix}}})
	if err != nil {
		return nil, err
	}

	active := keys[:0]
	for _, k := range keys {
		if !k.Revoked() {
			active = append(active, k)
		}
	}
	return active, nil
}

// List returns every key, revoked ones included, ordered by name.
func (r *DocKeyRepository) List(ctx context.Context) ([]APIKey, error) {
	return r.list(ctx, docstore.Query{OrderBy: "name"})
}

// Revoke stamps revokedAt on an active key.
func (r *DocKeyRepository) Revoke(ctx context.Context, id string) error {
	k, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if k.Revoked() {
		return ErrKeyRevoked
	}

	err = r.store.MergeUpdate(ctx, KeyCollection, id, docstore.Fields{"revokedAt": docstore.ServerTimestamp})
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrKeyNotFound
		}
		return fmt.Errorf("revoking api key: %w", err)
	}
	return nil
}

func (r *DocKeyRepository) list(ctx context.Context, q docstore.Query) ([]APIKey, error) {
	docs, err := r.store.List(ctx, KeyCollection, q)
	if err != nil {
		return nil, fmt.Errorf("listing api keys: %w", err)
	}

	keys := make([]APIKey, 0, len(docs))
	for _, d := range docs {
		var k APIKey
		if err := d.Decode(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, nil
}
