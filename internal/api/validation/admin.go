package validation

import "strings"

// PutAdminRequest mirrors the fields needed to grant a role.
type PutAdminRequest struct {
	Email string
	Role  string
}

// ValidatePutAdminRequest validates a role grant.
func ValidatePutAdminRequest(req PutAdminRequest) []FieldError {
	var errs []FieldError
	if req.Email != "" && !strings.Contains(req.Email, "@") {
		errs = append(errs, FieldError{Field: "email", Message: "email must be a valid email address"})
	}
	errs = append(errs, validRole("role", req.Role)...)
	return errs
}

// CreateKeyRequest mirrors the fields needed to issue an API key.
type CreateKeyRequest struct {
	Name string
	Role string
}

// ValidateCreateKeyRequest validates an API key request.
func ValidateCreateKeyRequest(req CreateKeyRequest) []FieldError {
	var errs []FieldError
	errs = append(errs, required("name", req.Name)...)
	errs = append(errs, maxLen("name", req.Name, 100)...)
	errs = append(errs, validRole("role", req.Role)...)
	return errs
}
