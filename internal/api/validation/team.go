package validation

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

var hexColorRegex = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// ValidHexColor reports whether s is a #RRGGBB color.
func ValidHexColor(s string) bool {
	return hexColorRegex.MatchString(s)
}

// SplitTags splits a comma-separated tag string. Tags are trimmed and empty
// tags dropped; order and duplicates are kept.
func SplitTags(s string) []string {
	return cleanTags(strings.Split(s, ","))
}

func cleanTags(in []string) []string {
	out := []string{}
	for _, t := range in {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Tags is a tag list accepted either as a comma-separated string or as a
// JSON array of strings.
type Tags []string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Tags) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = SplitTags(s)
		return nil
	}

	var list []string
	if err := json.Unmarshal(b, &list); err != nil {
		return errors.New("tags must be a string or an array of strings")
	}
	*t = cleanTags(list)
	return nil
}

// Colors mirrors a team palette.
type Colors struct {
	Primary   string
	Secondary string
	Accent    string
}

func validateColors(c Colors) []FieldError {
	var errs []FieldError
	if !ValidHexColor(c.Primary) {
		errs = append(errs, FieldError{Field: "colors.primary", Message: "colors.primary must be a hex color like #1A2B3C"})
	}
	if !ValidHexColor(c.Secondary) {
		errs = append(errs, FieldError{Field: "colors.secondary", Message: "colors.secondary must be a hex color like #1A2B3C"})
	}
	if c.Accent != "" && !ValidHexColor(c.Accent) {
		errs = append(errs, FieldError{Field: "colors.accent", Message: "colors.accent must be a hex color like #1A2B3C"})
	}
	return errs
}

// CreateTeamRequest mirrors the fields needed for create team validation.
type CreateTeamRequest struct {
	LeagueID string
	Name     string
	City     string
	Colors   Colors
}

// ValidateCreateTeamRequest validates the fields of a create team request.
// LeagueID must be present but is not checked against existing leagues.
func ValidateCreateTeamRequest(req CreateTeamRequest) []FieldError {
	var errs []FieldError
	errs = append(errs, required("leagueId", req.LeagueID)...)
	errs = append(errs, required("name", req.Name)...)
	errs = append(errs, maxLen("name", req.Name, 255)...)
	errs = append(errs, required("city", req.City)...)
	errs = append(errs, validateColors(req.Colors)...)
	return errs
}

// UpdateTeamRequest mirrors the fields of a team patch. Nil fields are not
// validated.
type UpdateTeamRequest struct {
	LeagueID *string
	Name     *string
	City     *string
	Colors   *Colors
}

// ValidateUpdateTeamRequest validates only non-nil fields on an update request.
func ValidateUpdateTeamRequest(req UpdateTeamRequest) []FieldError {
	var errs []FieldError
	if req.LeagueID != nil {
		errs = append(errs, required("leagueId", *req.LeagueID)...)
	}
	if req.Name != nil {
		errs = append(errs, required("name", *req.Name)...)
		errs = append(errs, maxLen("name", *req.Name, 255)...)
	}
	if req.City != nil {
		errs = append(errs, required("city", *req.City)...)
	}
	if req.Colors != nil {
		errs = append(errs, validateColors(*req.Colors)...)
	}
	return errs
}
