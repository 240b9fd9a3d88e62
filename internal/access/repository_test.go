package access_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rallyops/designops/internal/access"
	"github.com/rallyops/designops/internal/docstore"
	"github.com/rallyops/designops/internal/docstore/sqlite"
)

func setupAccessRepo(t *testing.T) (access.Repository, docstore.Store) {
	t.Helper()

	store, err := sqlite.New(context.Background(), sqlite.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return access.NewRepository(store), store
}

// --- Lookup Tests ---

func TestLookup_Found(t *testing.T) {
	repo, store := setupAccessRepo(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, access.Collection, "uid-1", docstore.Fields{
		"email":     "ops@example.com",
		"role":      "editor",
		"createdAt": docstore.ServerTimestamp,
	}))

	rec, err := repo.Lookup(ctx, "uid-1")
	require.NoError(t, err)

	assert.Equal(t, "uid-1", rec.UID)
	assert.Equal(t, "ops@example.com", rec.Email)
	assert.Equal(t, access.Editor, rec.Role)
	assert.False(t, rec.CreatedAt.IsZero())
}

func TestLookup_NotFound(t *testing.T) {
	repo, _ := setupAccessRepo(t)

	_, err := repo.Lookup(context.Background(), "nobody")
	assert.ErrorIs(t, err, access.ErrRecordNotFound)
}

func TestLookup_MissingRoleDefaultsToViewer(t *testing.T) {
	repo, store := setupAccessRepo(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, access.Collection, "uid-2", docstore.Fields{"email": "x@example.com"}))
	require.NoError(t, store.Set(ctx, access.Collection, "uid-3", docstore.Fields{"role": "superuser"}))

	rec, err := repo.Lookup(ctx, "uid-2")
	require.NoError(t, err)
	assert.Equal(t, access.Viewer, rec.Role)

	rec, err = repo.Lookup(ctx, "uid-3")
	require.NoError(t, err)
	assert.Equal(t, access.Viewer, rec.Role)
	assert.True(t, rec.CreatedAt.IsZero())
}

// --- Put Tests ---

func TestPut_CreatesThenUpdatesRole(t *testing.T) {
	repo, _ := setupAccessRepo(t)
	ctx := context.Background()

	created, err := repo.Put(ctx, "uid-1", "ops@example.com", access.Viewer)
	require.NoError(t, err)
	assert.Equal(t, access.Viewer, created.Role)
	assert.False(t, created.CreatedAt.IsZero())

	updated, err := repo.Put(ctx, "uid-1", "", access.Admin)
	require.NoError(t, err)

	assert.Equal(t, access.Admin, updated.Role)
	assert.Equal(t, "ops@example.com", updated.Email, "empty email keeps the stored one")
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
}

// --- List Tests ---

func TestList_OrderedByEmail(t *testing.T) {
	repo, _ := setupAccessRepo(t)
	ctx := context.Background()

	_, err := repo.Put(ctx, "b", "zed@example.com", access.Viewer)
	require.NoError(t, err)
	_, err = repo.Put(ctx, "a", "amy@example.com", access.Admin)
	require.NoError(t, err)

	records, err := repo.List(ctx)
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "amy@example.com", records[0].Email)
	assert.Equal(t, "zed@example.com", records[1].Email)
}

// --- Delete Tests ---

func TestDelete(t *testing.T) {
	repo, _ := setupAccessRepo(t)
	ctx := context.Background()

	_, err := repo.Put(ctx, "uid-1", "ops@example.com", access.Editor)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, "uid-1"))

	_, err = repo.Lookup(ctx, "uid-1")
	assert.ErrorIs(t, err, access.ErrRecordNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, "uid-1"), access.ErrRecordNotFound)
}

func TestNilStore(t *testing.T) {
	repo := access.NewRepository(nil)
	ctx := context.Background()

	_, err := repo.Lookup(ctx, "uid")
	assert.ErrorIs(t, err, access.ErrNoStore)
	_, err = repo.List(ctx)
	assert.ErrorIs(t, err, access.ErrNoStore)
	_, err = repo.Put(ctx, "uid", "", access.Admin)
	assert.ErrorIs(t, err, access.ErrNoStore)
	assert.ErrorIs(t, repo.Delete(ctx, "uid"), access.ErrNoStore)
}
