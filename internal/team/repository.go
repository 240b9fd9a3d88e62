package team

import (
	"github.com/rallyops/designops/internal/catalog"
	"github.com/rallyops/designops/internal/docstore"
)

// Kind describes the teams collection.
var Kind = catalog.Kind{Collection: "teams", Noun: "team", Sluggable: true}

// Repository lists and mutates teams.
type Repository = catalog.Repository[Team]

// NewRepository creates a team Repository backed by the given store. A
// non-empty leagueID restricts every list to that league's teams.
func NewRepository(store docstore.Store, leagueID string) *Repository {
	if leagueID == "" {
		return catalog.New[Team](store, Kind)
	}
	return catalog.New[Team](store, Kind, docstore.Filter{Field: "leagueId", Value: leagueID})
}

// FilterByLeague returns the teams belonging to leagueID, keeping their
// order. An empty leagueID returns every team.
func FilterByLeague(teams []Team, leagueID string) []Team {
	out := make([]Team, 0, len(teams))
	for _, t := range teams {
		if leagueID == "" || t.LeagueID == leagueID {
			out = append(out, t)
		}
	}
	return out
}
