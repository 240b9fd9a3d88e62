package validation

// CreateLeagueRequest mirrors the fields needed for create league validation.
type CreateLeagueRequest struct {
	Name string
}

// ValidateCreateLeagueRequest validates the fields of a create league request.
func ValidateCreateLeagueRequest(req CreateLeagueRequest) []FieldError {
	var errs []FieldError
	errs = append(errs, required("name", req.Name)...)
	errs = append(errs, maxLen("name", req.Name, 255)...)
	return errs
}

// UpdateLeagueRequest mirrors the fields of a league patch. Nil fields are
// not validated.
type UpdateLeagueRequest struct {
	Name *string
}

// ValidateUpdateLeagueRequest validates only non-nil fields on an update request.
func ValidateUpdateLeagueRequest(req UpdateLeagueRequest) []FieldError {
	if req.Name == nil {
		return nil
	}
	return ValidateCreateLeagueRequest(CreateLeagueRequest{Name: *req.Name})
}
