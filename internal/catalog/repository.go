// Package catalog provides the generic list/create/update/delete repository
// shared by the league, team and product record kinds.
//
// A Repository keeps an in-memory list that mirrors the store. Every
// mutation is written first and then followed by a full re-fetch; the list
// is never patched locally. A failed re-fetch keeps the previous list and
// records the error message alongside it.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rallyops/designops/internal/docstore"
	"github.com/rallyops/designops/internal/slug"
)

// ErrNotInitialized is returned when a repository has no backing store.
var ErrNotInitialized = errors.New("database not initialized")

// NotInitializedMessage is the error message recorded by a repository
// without a backing store.
const NotInitializedMessage = "Database not initialized"

// Kind describes one record kind.
type Kind struct {
	Collection string
	// Noun names a single record in error messages.
	Noun string
	// Sluggable kinds carry a slug derived from their name.
	Sluggable bool
}

// Snapshot is the list state left behind by one refresh. Err is the message
// of a failed re-fetch, in which case Items is the previous list.
type Snapshot[T any] struct {
	Items []T
	Err   string
}

// Repository manages the records of one kind. It is safe for concurrent use;
// mutations and their refresh are serialized. A refresh that started before
// the most recently stored one is discarded, so the list never moves back to
// a state older than one already observed.
type Repository[T any] struct {
	store docstore.Store
	kind  Kind
	where []docstore.Filter

	mu sync.Mutex

	stateMu   sync.RWMutex
	items     []T
	err       error
	errMsg    string
	started   uint64
	committed uint64
	inflight  int
}

// New returns a repository for kind. Optional filters restrict every list
// to documents whose fields equal the given values.
func New[T any](store docstore.Store, kind Kind, where ...docstore.Filter) *Repository[T] {
	return &Repository[T]{
		store: store,
		kind:  kind,
		where: where,
		items: []T{},
	}
}

// Kind returns the record kind this repository manages.
func (r *Repository[T]) Kind() Kind {
	return r.kind
}

// List re-fetches the records ordered by name. On failure the previous list
// is kept, the error message is recorded and the previous list is returned
// together with the error. A fetch overtaken by a newer refresh returns the
// newer state instead of its own.
func (r *Repository[T]) List(ctx context.Context) ([]T, error) {
	if r.store == nil {
		r.stateMu.Lock()
		r.err = ErrNotInitialized
		r.errMsg = NotInitializedMessage
		r.stateMu.Unlock()
		return []T{}, ErrNotInitialized
	}

	r.stateMu.Lock()
	r.started++
	gen := r.started
	r.inflight++
	r.stateMu.Unlock()

	items, err := r.fetch(ctx)

	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	r.inflight--
	if gen < r.committed {
		return cloneSlice(r.items), r.err
	}
	r.committed = gen
	if err != nil {
		r.err = err
		r.errMsg = err.Error()
		return cloneSlice(r.items), err
	}
	r.items = items
	r.err = nil
	r.errMsg = ""
	return cloneSlice(items), nil
}

// Items returns the last successfully fetched list.
func (r *Repository[T]) Items() []T {
	r.stateMu.RLock()
	defer r.stateMu.RUnlock()
	return cloneSlice(r.items)
}

// Err returns the message of the last failed list, or "" after a success.
func (r *Repository[T]) Err() string {
	r.stateMu.RLock()
	defer r.stateMu.RUnlock()
	return r.errMsg
}

// Loading reports whether a list is in flight.
func (r *Repository[T]) Loading() bool {
	r.stateMu.RLock()
	defer r.stateMu.RUnlock()
	return r.inflight > 0
}

// Create writes a new record and refreshes the list. The slug of sluggable
// kinds is derived from the name; createdAt and updatedAt are stamped by the
// store. Write errors are returned unmodified. The returned snapshot comes
// from the refresh that followed the write.
func (r *Repository[T]) Create(ctx context.Context, fields docstore.Fields) (string, Snapshot[T], error) {
	if r.store == nil {
		return "", Snapshot[T]{}, ErrNotInitialized
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	doc := fields.Clone()
	delete(doc, "id")
	delete(doc, "slug")
	if r.kind.Sluggable {
		name, _ := doc["name"].(string)
		doc["slug"] = slug.Make(name)
	}
	doc["createdAt"] = docstore.ServerTimestamp
	doc["updatedAt"] = docstore.ServerTimestamp

	id, err := r.store.Insert(ctx, r.kind.Collection, doc)
	if err != nil {
		return "", Snapshot[T]{}, err
	}

	return id, r.refresh(ctx), nil
}

// Update merges the given fields into an existing record and refreshes the
// list. The slug is re-derived only when the patch carries a non-empty name;
// updatedAt is always re-stamped. Unknown ids fail with docstore.ErrNotFound.
func (r *Repository[T]) Update(ctx context.Context, id string, fields docstore.Fields) (Snapshot[T], error) {
	if r.store == nil {
		return Snapshot[T]{}, ErrNotInitialized
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	patch := fields.Clone()
	delete(patch, "id")
	delete(patch, "slug")
	delete(patch, "createdAt")
	if r.kind.Sluggable {
		if name, ok := patch["name"].(string); ok && name != "" {
			patch["slug"] = slug.Make(name)
		}
	}
	patch["updatedAt"] = docstore.ServerTimestamp

	if err := r.store.MergeUpdate(ctx, r.kind.Collection, id, patch); err != nil {
		return Snapshot[T]{}, err
	}

	return r.refresh(ctx), nil
}

// Delete removes a record and refreshes the list. Nothing referencing the
// record is touched.
func (r *Repository[T]) Delete(ctx context.Context, id string) (Snapshot[T], error) {
	if r.store == nil {
		return Snapshot[T]{}, ErrNotInitialized
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.store.Remove(ctx, r.kind.Collection, id); err != nil {
		return Snapshot[T]{}, err
	}

	return r.refresh(ctx), nil
}

func (r *Repository[T]) refresh(ctx context.Context) Snapshot[T] {
	items, err := r.List(ctx)
	snap := Snapshot[T]{Items: items}
	if err != nil {
		snap.Err = err.Error()
	}
	return snap
}

func (r *Repository[T]) fetch(ctx context.Context) ([]T, error) {
	docs, err := r.store.List(ctx, r.kind.Collection, docstore.Query{
		Where:   r.where,
		OrderBy: "name",
	})
	if err != nil {
		return nil, fmt.Errorf("loading %ss: %w", r.kind.Noun, err)
	}

	items := make([]T, 0, len(docs))
	for _, d := range docs {
		var item T
		if err := d.Decode(&item); err != nil {
			slog.Warn("skipping undecodable record", "collection", r.kind.Collection, "id", d.ID, "error", err)
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func cloneSlice[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}
