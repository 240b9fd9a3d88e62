package access

import (
	"errors"
	"fmt"
)

// ErrInvalidRole is returned when parsing a string that names no role.
var ErrInvalidRole = errors.New("invalid role")

// Role is an authorization level. Roles are totally ordered by Rank.
type Role string

const (
	Viewer Role = "viewer"
	Editor Role = "editor"
	Admin  Role = "admin"
)

// Roles lists every role in ascending rank.
var Roles = []Role{Viewer, Editor, Admin}

// Rank returns the role's position in the order viewer(1) < editor(2) <
// admin(3), or 0 for an unknown role.
func (r Role) Rank() int {
	switch r {
	case Viewer:
		return 1
	case Editor:
		return 2
	case Admin:
		return 3
	default:
		return 0
	}
}

// Satisfies reports whether r meets the required minimum. Equal rank passes.
func (r Role) Satisfies(required Role) bool {
	return !(r.Rank() < required.Rank())
}

// ParseRole converts s to a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if r.Rank() == 0 {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
	return r, nil
}
