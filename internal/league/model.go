package league

import (
	"time"

	"github.com/rallyops/designops/internal/docstore"
)

// League represents a document in the leagues collection.
type League struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Input holds the fields of a new league.
type Input struct {
	Name   string
	Active bool
}

// Fields converts the input to document fields.
func (in Input) Fields() docstore.Fields {
	return docstore.Fields{
		"name":   in.Name,
		"active": in.Active,
	}
}

// Patch holds user-updatable fields. Nil fields are not updated.
type Patch struct {
	Name   *string
	Active *bool
}

// Fields converts the patch to document fields, omitting nil fields.
func (p Patch) Fields() docstore.Fields {
	f := docstore.Fields{}
	if p.Name != nil {
		f["name"] = *p.Name
	}
	if p.Active != nil {
		f["active"] = *p.Active
	}
	return f
}
