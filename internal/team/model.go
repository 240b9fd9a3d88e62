package team

import (
	"time"

	"github.com/rallyops/designops/internal/docstore"
)

// Colors holds a team's palette as #RRGGBB hex strings.
type Colors struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
	Accent    string `json:"accent,omitempty"`
}

// Team represents a document in the teams collection. LeagueID refers to a
// league by id but is never checked for existence.
type Team struct {
	ID          string    `json:"id"`
	LeagueID    string    `json:"leagueId"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	City        string    `json:"city"`
	Colors      Colors    `json:"colors"`
	Keywords    []string  `json:"keywords"`
	BannedTerms []string  `json:"bannedTerms"`
	Notes       string    `json:"notes,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Input holds the fields of a new team.
type Input struct {
	LeagueID    string
	Name        string
	City        string
	Colors      Colors
	Keywords    []string
	BannedTerms []string
	Notes       string
	Active      bool
}

// Fields converts the input to document fields. Nil tag lists are stored as
// empty lists.
func (in Input) Fields() docstore.Fields {
	f := docstore.Fields{
		"leagueId":    in.LeagueID,
		"name":        in.Name,
		"city":        in.City,
		"colors":      in.Colors,
		"keywords":    nonNil(in.Keywords),
		"bannedTerms": nonNil(in.BannedTerms),
		"active":      in.Active,
	}
	if in.Notes != "" {
		f["notes"] = in.Notes
	}
	return f
}

// Patch holds user-updatable fields. Nil fields are not updated; Colors
// replaces the whole palette.
type Patch struct {
	LeagueID    *string
	Name        *string
	City        *string
	Colors      *Colors
	Keywords    *[]string
	BannedTerms *[]string
	Notes       *string
	Active      *bool
}

// Fields converts the patch to document fields, omitting nil fields.
func (p Patch) Fields() docstore.Fields {
	f := docstore.Fields{}
	if p.LeagueID != nil {
		f["leagueId"] = *p.LeagueID
	}
	if p.Name != nil {
		f["name"] = *p.Name
	}
	if p.City != nil {
		f["city"] = *p.City
	}
	if p.Colors != nil {
		f["colors"] = *p.Colors
	}
	if p.Keywords != nil {
		f["keywords"] = nonNil(*p.Keywords)
	}
	if p.BannedTerms != nil {
		f["bannedTerms"] = nonNil(*p.BannedTerms)
	}
	if p.Notes != nil {
		f["notes"] = *p.Notes
	}
	if p.Active != nil {
		f["active"] = *p.Active
	}
	return f
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
