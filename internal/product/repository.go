package product

import (
	"github.com/rallyops/designops/internal/catalog"
	"github.com/rallyops/designops/internal/docstore"
)

// Kind describes the products collection. Products carry no slug.
var Kind = catalog.Kind{Collection: "products", Noun: "product"}

// Repository lists and mutates products.
type Repository = catalog.Repository[Product]

// NewRepository creates a product Repository backed by the given store.
func NewRepository(store docstore.Store) *Repository {
	return catalog.New[Product](store, Kind)
}
