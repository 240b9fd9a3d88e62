package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/rallyops/designops/internal/access"
	"github.com/rallyops/designops/internal/api/middleware"
	"github.com/rallyops/designops/internal/auth"
	"github.com/rallyops/designops/internal/docstore"
	"github.com/rallyops/designops/internal/docstore/sqlite"
	"github.com/rallyops/designops/internal/session"
)

// --- Store wrappers ---

// flakyStore fails selected operations once armed.
type flakyStore struct {
	docstore.Store

	mu        sync.Mutex
	listErr   error
	insertErr error
}

func (s *flakyStore) failLists(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listErr = err
}

func (s *flakyStore) failInserts(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertErr = err
}

func (s *flakyStore) List(ctx context.Context, collection string, q docstore.Query) ([]docstore.Document, error) {
	s.mu.Lock()
	err := s.listErr
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s.Store.List(ctx, collection, q)
}

func (s *flakyStore) Insert(ctx context.Context, collection string, fields docstore.Fields) (string, error) {
	s.mu.Lock()
	err := s.insertErr
	s.mu.Unlock()
	if err != nil {
		return "", err
	}
	return s.Store.Insert(ctx, collection, fields)
}

var errUnavailable = errors.New("store unavailable")

func newStore(t *testing.T) *flakyStore {
	t.Helper()

	store, err := sqlite.New(context.Background(), sqlite.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return &flakyStore{Store: store}
}

// --- Sessions ---

type mockRecords struct {
	listFn   func(ctx context.Context) ([]access.Record, error)
	putFn    func(ctx context.Context, uid, email string, role access.Role) (*access.Record, error)
	deleteFn func(ctx context.Context, uid string) error
}

func (m *mockRecords) Lookup(_ context.Context, _ string) (*access.Record, error) {
	return nil, access.ErrRecordNotFound
}

func (m *mockRecords) List(ctx context.Context) ([]access.Record, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockRecords) Put(ctx context.Context, uid, email string, role access.Role) (*access.Record, error) {
	if m.putFn != nil {
		return m.putFn(ctx, uid, email, role)
	}
	return &access.Record{UID: uid, Email: email, Role: role}, nil
}

func (m *mockRecords) Delete(ctx context.Context, uid string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, uid)
	}
	return nil
}

func newManager(t *testing.T, store docstore.Store) *session.Manager {
	t.Helper()

	mgr := session.NewManager(store, &mockRecords{}, auth.NewBroker(), time.Hour)
	t.Cleanup(mgr.Close)
	return mgr
}

// asEditor returns a request context carrying an editor session.
func asEditor(mgr *session.Manager) context.Context {
	id := auth.Identity{UID: "uid-editor", Email: "editor@example.com"}
	return asSession(mgr.Ephemeral(id, &access.Record{UID: id.UID, Role: access.Editor}))
}

func asSession(s *session.Session) context.Context {
	return middleware.WithSession(context.Background(), s)
}

// --- Requests ---

func makeChiRequest(ctx context.Context, method, path string, body []byte, params map[string]string) (*http.Request, *httptest.ResponseRecorder) {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Content-Type", "application/json")

	if ctx == nil {
		ctx = context.Background()
	}
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}

	return req.WithContext(ctx), httptest.NewRecorder()
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func parseEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var env map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &env)
	require.NoError(t, err, "failed to parse response body")
	return env
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	env := parseEnvelope(t, w)
	require.NotNil(t, env["error"], "expected an error envelope")
	return env["error"].(map[string]interface{})["code"].(string)
}

func dataItems(t *testing.T, w *httptest.ResponseRecorder) []interface{} {
	t.Helper()
	env := parseEnvelope(t, w)
	items, ok := env["data"].([]interface{})
	require.True(t, ok, "data should be a list")
	return items
}
