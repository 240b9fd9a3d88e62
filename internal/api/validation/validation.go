package validation

import (
	"fmt"
	"strings"

	"github.com/rallyops/designops/internal/access"
)

// FieldError represents a validation error on a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func required(field, value string) []FieldError {
	if strings.TrimSpace(value) == "" {
		return []FieldError{{Field: field, Message: field + " is required"}}
	}
	return nil
}

func maxLen(field, value string, n int) []FieldError {
	if len(value) > n {
		return []FieldError{{Field: field, Message: fmt.Sprintf("%s must be at most %d characters", field, n)}}
	}
	return nil
}

func validRole(field, value string) []FieldError {
	if value == "" {
		return []FieldError{{Field: field, Message: field + " is required"}}
	}
	if _, err := access.ParseRole(value); err != nil {
		return []FieldError{{Field: field, Message: field + ` must be one of: "admin", "editor", "viewer"`}}
	}
	return nil
}
