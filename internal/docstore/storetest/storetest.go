// Package storetest holds the behavioural checks every docstore.Store
// backend must pass.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rallyops/designops/internal/docstore"
)

// Run exercises a backend. newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) docstore.Store) {
	t.Helper()

	t.Run("InsertAndGet", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		id, err := s.Insert(ctx, "leagues", docstore.Fields{
			"name":      "NFL",
			"active":    true,
			"createdAt": docstore.ServerTimestamp,
		})
		require.NoError(t, err)
		require.NotEmpty(t, id)

		doc, err := s.Get(ctx, "leagues", id)
		require.NoError(t, err)
		assert.Equal(t, id, doc.ID)
		assert.Equal(t, "NFL", doc.Data["name"])
		assert.Equal(t, true, doc.Data["active"])

		var got struct {
			CreatedAt time.Time `json:"createdAt"`
		}
		require.NoError(t, doc.Decode(&got))
		assert.WithinDuration(t, time.Now(), got.CreatedAt, time.Minute)
	})

	t.Run("GetMissing", func(t *testing.T) {
		s := newStore(t)

		_, err := s.Get(context.Background(), "leagues", "missing")
		assert.ErrorIs(t, err, docstore.ErrNotFound)
	})

	t.Run("InsertAssignsDistinctIDs", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		a, err := s.Insert(ctx, "leagues", docstore.Fields{"name": "A"})
		require.NoError(t, err)
		b, err := s.Insert(ctx, "leagues", docstore.Fields{"name": "A"})
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("ListOrdersByByteOrder", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		for _, name := range []string{"nhl", "NFL", "MLB", "b"} {
			_, err := s.Insert(ctx, "leagues", docstore.Fields{"name": name})
			require.NoError(t, err)
		}

		docs, err := s.List(ctx, "leagues", docstore.Query{OrderBy: "name"})
		require.NoError(t, err)

		names := make([]any, 0, len(docs))
		for _, d := range docs {
			names = append(names, d.Data["name"])
		}
		assert.Equal(t, []any{"MLB", "NFL", "b", "nhl"}, names)
	})

	t.Run("ListExcludesDocumentsMissingOrderField", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.Insert(ctx, "leagues", docstore.Fields{"name": "NFL"})
		require.NoError(t, err)
		_, err = s.Insert(ctx, "leagues", docstore.Fields{"active": true})
		require.NoError(t, err)

		docs, err := s.List(ctx, "leagues", docstore.Query{OrderBy: "name"})
		require.NoError(t, err)
		assert.Len(t, docs, 1)

		all, err := s.List(ctx, "leagues", docstore.Query{})
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("ListAppliesEqualityFilters", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.Insert(ctx, "teams", docstore.Fields{"name": "Bears", "leagueId": "nfl"})
		require.NoError(t, err)
		_, err = s.Insert(ctx, "teams", docstore.Fields{"name": "Cubs", "leagueId": "mlb"})
		require.NoError(t, err)
		_, err = s.Insert(ctx, "teams", docstore.Fields{"name": "Packers", "leagueId": "nfl"})
		require.NoError(t, err)

		docs, err := s.List(ctx, "teams", docstore.Query{
			Where:   []docstore.Filter{{Field: "leagueId", Value: "nfl"}},
			OrderBy: "name",
		})
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "Bears", docs[0].Data["name"])
		assert.Equal(t, "Packers", docs[1].Data["name"])
	})

	t.Run("ListIsScopedToCollection", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.Insert(ctx, "leagues", docstore.Fields{"name": "NFL"})
		require.NoError(t, err)

		docs, err := s.List(ctx, "products", docstore.Query{OrderBy: "name"})
		require.NoError(t, err)
		assert.Empty(t, docs)
	})

	t.Run("ListRejectsInvalidField", func(t *testing.T) {
		s := newStore(t)

		_, err := s.List(context.Background(), "leagues", docstore.Query{OrderBy: "name; drop"})
		assert.ErrorIs(t, err, docstore.ErrInvalidField)
	})

	t.Run("MergeUpdateIsShallow", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		id, err := s.Insert(ctx, "teams", docstore.Fields{
			"name":   "Bears",
			"city":   "Chicago",
			"colors": map[string]any{"primary": "#0B162A", "secondary": "#C83803"},
		})
		require.NoError(t, err)

		err = s.MergeUpdate(ctx, "teams", id, docstore.Fields{
			"colors":    map[string]any{"primary": "#000000"},
			"updatedAt": docstore.ServerTimestamp,
		})
		require.NoError(t, err)

		doc, err := s.Get(ctx, "teams", id)
		require.NoError(t, err)
		assert.Equal(t, "Chicago", doc.Data["city"])
		assert.Equal(t, map[string]any{"primary": "#000000"}, doc.Data["colors"])
		assert.NotNil(t, doc.Data["updatedAt"])
	})

	t.Run("MergeUpdateMissing", func(t *testing.T) {
		s := newStore(t)

		err := s.MergeUpdate(context.Background(), "teams", "missing", docstore.Fields{"name": "x"})
		assert.ErrorIs(t, err, docstore.ErrNotFound)
	})

	t.Run("SetUpserts", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Set(ctx, "admins", "uid-1", docstore.Fields{"email": "a@example.com", "role": "viewer"}))
		require.NoError(t, s.Set(ctx, "admins", "uid-1", docstore.Fields{"role": "admin"}))

		doc, err := s.Get(ctx, "admins", "uid-1")
		require.NoError(t, err)
		assert.Equal(t, "admin", doc.Data["role"])
		_, hasEmail := doc.Data["email"]
		assert.False(t, hasEmail, "set replaces the whole document")
	})

	t.Run("RemoveIsIdempotent", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		id, err := s.Insert(ctx, "leagues", docstore.Fields{"name": "NFL"})
		require.NoError(t, err)

		require.NoError(t, s.Remove(ctx, "leagues", id))
		require.NoError(t, s.Remove(ctx, "leagues", id))

		_, err = s.Get(ctx, "leagues", id)
		assert.ErrorIs(t, err, docstore.ErrNotFound)
	})

	t.Run("Ping", func(t *testing.T) {
		s := newStore(t)
		assert.NoError(t, s.Ping(context.Background()))
	})
}
