package validation

import (
	"fmt"
	"math"

	"github.com/rallyops/designops/internal/product"
)

// PrintArea mirrors a print area. Nil fields were absent from the request.
type PrintArea struct {
	WidthIn  *float64
	HeightIn *float64
	DPI      *float64
	X        *float64
	Y        *float64
}

// Variant mirrors one product variant.
type Variant struct {
	Name string
	Type string
}

func validatePrintArea(p *PrintArea) []FieldError {
	if p == nil {
		return []FieldError{{Field: "printArea", Message: "printArea is required"}}
	}

	var errs []FieldError
	errs = append(errs, positive("printArea.widthIn", p.WidthIn)...)
	errs = append(errs, positive("printArea.heightIn", p.HeightIn)...)

	if p.DPI != nil {
		switch {
		case math.IsNaN(*p.DPI) || *p.DPI <= 0 || *p.DPI != math.Trunc(*p.DPI):
			errs = append(errs, FieldError{Field: "printArea.dpi", Message: "printArea.dpi must be a positive integer"})
		case *p.DPI > product.MaxDPI:
			errs = append(errs, FieldError{Field: "printArea.dpi", Message: fmt.Sprintf("printArea.dpi must be at most %d", product.MaxDPI)})
		}
	}
	errs = append(errs, finite("printArea.x", p.X)...)
	errs = append(errs, finite("printArea.y", p.Y)...)
	return errs
}

func positive(field string, v *float64) []FieldError {
	if v == nil {
		return []FieldError{{Field: field, Message: field + " is required"}}
	}
	if *v <= 0 || math.IsInf(*v, 0) || math.IsNaN(*v) {
		return []FieldError{{Field: field, Message: field + " must be greater than 0"}}
	}
	return nil
}

func finite(field string, v *float64) []FieldError {
	if v != nil && (math.IsInf(*v, 0) || math.IsNaN(*v)) {
		return []FieldError{{Field: field, Message: field + " must be a finite number"}}
	}
	return nil
}

func validateVariants(variants []Variant) []FieldError {
	var errs []FieldError
	for i, v := range variants {
		prefix := fmt.Sprintf("variants[%d]", i)
		errs = append(errs, required(prefix+".name", v.Name)...)
		if v.Type != "color" && v.Type != "size" {
			errs = append(errs, FieldError{Field: prefix + ".type", Message: prefix + `.type must be "color" or "size"`})
		}
	}
	return errs
}

// CreateProductRequest mirrors the fields needed for create product validation.
type CreateProductRequest struct {
	Name      string
	SKUPrefix string
	PrintArea *PrintArea
	Variants  []Variant
}

// ValidateCreateProductRequest validates the fields of a create product request.
func ValidateCreateProductRequest(req CreateProductRequest) []FieldError {
	var errs []FieldError
	errs = append(errs, required("name", req.Name)...)
	errs = append(errs, maxLen("name", req.Name, 255)...)
	errs = append(errs, required("skuPrefix", req.SKUPrefix)...)
	errs = append(errs, maxLen("skuPrefix", req.SKUPrefix, 32)...)
	errs = append(errs, validatePrintArea(req.PrintArea)...)
	errs = append(errs, validateVariants(req.Variants)...)
	return errs
}

// UpdateProductRequest mirrors the fields of a product patch. Nil fields
// are not validated; a non-nil PrintArea is validated as a whole.
type UpdateProductRequest struct {
	Name      *string
	SKUPrefix *string
	PrintArea *PrintArea
	Variants  []Variant
}

// ValidateUpdateProductRequest validates only non-nil fields on an update request.
func ValidateUpdateProductRequest(req UpdateProductRequest) []FieldError {
	var errs []FieldError
	if req.Name != nil {
		errs = append(errs, required("name", *req.Name)...)
		errs = append(errs, maxLen("name", *req.Name, 255)...)
	}
	if req.SKUPrefix != nil {
		errs = append(errs, required("skuPrefix", *req.SKUPrefix)...)
		errs = append(errs, maxLen("skuPrefix", *req.SKUPrefix, 32)...)
	}
	if req.PrintArea != nil {
		errs = append(errs, validatePrintArea(req.PrintArea)...)
	}
	errs = append(errs, validateVariants(req.Variants)...)
	return errs
}
