package league

import (
	"github.com/rallyops/designops/internal/catalog"
	"github.com/rallyops/designops/internal/docstore"
)

// Kind describes the leagues collection.
var Kind = catalog.Kind{Collection: "leagues", Noun: "league", Sluggable: true}

// Repository lists and mutates leagues.
type Repository = catalog.Repository[League]

// NewRepository creates a league Repository backed by the given store.
func NewRepository(store docstore.Store) *Repository {
	return catalog.New[League](store, Kind)
}
