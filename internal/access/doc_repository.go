package access

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rallyops/designops/internal/docstore"
)

// Collection holds one document per authorized identity.
const Collection = "admins"

// DocRepository implements Repository on a document store.
type DocRepository struct {
	store docstore.Store
}

// NewRepository creates a new Repository backed by the given store. With a
// nil store every operation fails with ErrNoStore.
func NewRepository(store docstore.Store) Repository {
	return &DocRepository{store: store}
}

// Lookup returns the record for uid. A stored record with a missing or
// unknown role is treated as a viewer.
func (r *DocRepository) Lookup(ctx context.Context, uid string) (*Record, error) {
	if r.store == nil {
		return nil, ErrNoStore
	}

	doc, err := r.store.Get(ctx, Collection, uid)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("looking up admin %s: %w", uid, err)
	}

	rec, err := toRecord(doc)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// List returns every record ordered by email.
func (r *DocRepository) List(ctx context.Context) ([]Record, error) {
	if r.store == nil {
		return nil, ErrNoStore
	}

	docs, err := r.store.List(ctx, Collection, docstore.Query{OrderBy: "email"})
	if err != nil {
		return nil, fmt.Errorf("listing admins: %w", err)
	}

	records := make([]Record, 0, len(docs))
	for _, d := range docs {
		rec, err := toRecord(d)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Put grants role to uid. An existing record keeps its createdAt, and its
// email when email is empty.
func (r *DocRepository) Put(ctx context.Context, uid, email string, role Role) (*Record, error) {
	if r.store == nil {
		return nil, ErrNoStore
	}

	fields := docstore.Fields{"role": string(role)}
	if email != "" {
		fields["email"] = email
	}

	err := r.store.MergeUpdate(ctx, Collection, uid, fields)
	if errors.Is(err, docstore.ErrNotFound) {
		fields["email"] = email
		fields["createdAt"] = docstore.ServerTimestamp
		err = r.store.Set(ctx, Collection, uid, fields)
	}
	if err != nil {
		return nil, fmt.Errorf("saving admin %s: %w", uid, err)
	}

	return r.Lookup(ctx, uid)
}

// Delete revokes all access for uid.
func (r *DocRepository) Delete(ctx context.Context, uid string) error {
	if r.store == nil {
		return ErrNoStore
	}

	if _, err := r.store.Get(ctx, Collection, uid); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrRecordNotFound
		}
		return fmt.Errorf("looking up admin %s: %w", uid, err)
	}
	if err := r.store.Remove(ctx, Collection, uid); err != nil {
		return fmt.Errorf("deleting admin %s: %w", uid, err)
	}
	return nil
}

func toRecord(doc docstore.Document) (Record, error) {
	var stored struct {
		Email     string    `json:"email"`
		Role      string    `json:"role"`
		CreatedAt time.Time `json:"createdAt"`
	}
	if err := doc.Decode(&stored); err != nil {
		return Record{}, fmt.Errorf("decoding admin %s: %w", doc.ID, err)
	}

	role, err := ParseRole(stored.Role)
	if err != nil {
		role = Viewer
	}

	return Record{
		UID:       doc.ID,
		Email:     stored.Email,
		Role:      role,
		CreatedAt: stored.CreatedAt,
	}, nil
}
