// Package session holds the per-operator session context: the signed-in
// identity, its authorization record, and the operator's repository views.
// Sessions are created on sign-in and torn down on sign-out.
package session

import (
	"sync"
	"time"

	"github.com/rallyops/designops/internal/access"
	"github.com/rallyops/designops/internal/auth"
	"github.com/rallyops/designops/internal/docstore"
	"github.com/rallyops/designops/internal/league"
	"github.com/rallyops/designops/internal/product"
	"github.com/rallyops/designops/internal/team"
)

// Session is one operator's context.
type Session struct {
	ID        string
	Identity  auth.Identity
	ExpiresAt time.Time

	store docstore.Store

	mu       sync.RWMutex
	loading  bool
	record   *access.Record
	leagues  *league.Repository
	teams    *team.Repository
	filtered *team.Repository
	filterID string
	products *product.Repository
}

func newSession(id string, identity auth.Identity, store docstore.Store, expiresAt time.Time) *Session {
	return &Session{
		ID:        id,
		Identity:  identity,
		ExpiresAt: expiresAt,
		store:     store,
		loading:   true,
	}
}

// Loading reports whether the authorization lookup is still in flight.
func (s *Session) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Record returns the identity's authorization record, or nil when it has none.
func (s *Session) Record() *access.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.record
}

func (s *Session) resolve(rec *access.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record = rec
	s.loading = false
}

// Gate evaluates the access gate for required against this session.
func (s *Session) Gate(required access.Role) access.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return access.Decide(access.Input{
		Loading:  s.loading,
		Identity: s.Identity.UID,
		Record:   s.record,
		Required: required,
	})
}

// Expired reports whether the session has outlived its expiry at now.
// Sessions without an expiry never expire.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// Leagues returns the session's league repository view.
func (s *Session) Leagues() *league.Repository {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.leagues == nil {
		s.leagues = league.NewRepository(s.store)
	}
	return s.leagues
}

// Teams returns the session's team repository view for leagueID. An empty
// leagueID selects every team. Only the unfiltered view and the most recent
// league view are kept; switching leagues replaces the latter.
func (s *Session) Teams(leagueID string) *team.Repository {
	s.mu.Lock()
	defer s.mu.Unlock()
	if leagueID == "" {
		if s.teams == nil {
			s.teams = team.NewRepository(s.store, "")
		}
		return s.teams
	}
	if s.filtered == nil || s.filterID != leagueID {
		s.filtered = team.NewRepository(s.store, leagueID)
		s.filterID = leagueID
	}
	return s.filtered
}

// Products returns the session's product repository view.
func (s *Session) Products() *product.Repository {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.products == nil {
		s.products = product.NewRepository(s.store)
	}
	return s.products
}
