package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/rallyops/designops/internal/api/middleware"
	"github.com/rallyops/designops/internal/api/response"
	"github.com/rallyops/designops/internal/api/validation"
	"github.com/rallyops/designops/internal/product"
)

type printAreaRequest struct {
	WidthIn  *float64 `json:"widthIn"`
	HeightIn *float64 `json:"heightIn"`
	DPI      *float64 `json:"dpi"`
	X        *float64 `json:"x"`
	Y        *float64 `json:"y"`
}

func (p *printAreaRequest) toValidation() *validation.PrintArea {
	if p == nil {
		return nil
	}
	return &validation.PrintArea{WidthIn: p.WidthIn, HeightIn: p.HeightIn, DPI: p.DPI, X: p.X, Y: p.Y}
}

// toPrintArea converts a validated request. Missing dpi defaults to
// DefaultDPI and missing offsets to 0.
func (p *printAreaRequest) toPrintArea() product.PrintArea {
	area := product.PrintArea{WidthIn: *p.WidthIn, HeightIn: *p.HeightIn, DPI: product.DefaultDPI}
	if p.DPI != nil {
		area.DPI = int(*p.DPI)
	}
	if p.X != nil {
		area.X = *p.X
	}
	if p.Y != nil {
		area.Y = *p.Y
	}
	return area
}

type variantRequest struct {
	Name   string          `json:"name"`
	Type   string          `json:"type"`
	Values validation.Tags `json:"values"`
}

func toVariants(in []variantRequest) []product.Variant {
	out := make([]product.Variant, 0, len(in))
	for _, v := range in {
		values := []string(v.Values)
		if values == nil {
			values = []string{}
		}
		out = append(out, product.Variant{
			Name:   strings.TrimSpace(v.Name),
			Type:   product.VariantType(v.Type),
			Values: values,
		})
	}
	return out
}

func toValidationVariants(in []variantRequest) []validation.Variant {
	out := make([]validation.Variant, 0, len(in))
	for _, v := range in {
		out = append(out, validation.Variant{Name: v.Name, Type: v.Type})
	}
	return out
}

type createProductRequest struct {
	Name             string              `json:"name"`
	SKUPrefix        string              `json:"skuPrefix"`
	PrintArea        *printAreaRequest   `json:"printArea"`
	BasePhotos       *product.BasePhotos `json:"basePhotos"`
	MockupTemplateID string              `json:"mockupTemplateId"`
	Variants         []variantRequest    `json:"variants"`
	Active           *bool               `json:"active"`
}

type updateProductRequest struct {
	Name             *string             `json:"name"`
	SKUPrefix        *string             `json:"skuPrefix"`
	PrintArea        *printAreaRequest   `json:"printArea"`
	BasePhotos       *product.BasePhotos `json:"basePhotos"`
	MockupTemplateID *string             `json:"mockupTemplateId"`
	Variants         *[]variantRequest   `json:"variants"`
	Active           *bool               `json:"active"`
}

type productResponse struct {
	ID               string              `json:"id"`
	Name             string              `json:"name"`
	SKUPrefix        string              `json:"skuPrefix"`
	PrintArea        product.PrintArea   `json:"printArea"`
	BasePhotos       *product.BasePhotos `json:"basePhotos,omitempty"`
	MockupTemplateID string              `json:"mockupTemplateId,omitempty"`
	Variants         []product.Variant   `json:"variants"`
	Active           bool                `json:"active"`
	CreatedAt        string              `json:"createdAt"`
	UpdatedAt        string              `json:"updatedAt"`
}

func toProductResponse(p *product.Product) productResponse {
	variants := p.Variants
	if variants == nil {
		variants = []product.Variant{}
	}
	return productResponse{
		ID:               p.ID,
		Name:             p.Name,
		SKUPrefix:        p.SKUPrefix,
		PrintArea:        p.PrintArea,
		BasePhotos:       p.BasePhotos,
		MockupTemplateID: p.MockupTemplateID,
		Variants:         variants,
		Active:           p.Active,
		CreatedAt:        p.CreatedAt.UTC().Format(timeFormat),
		UpdatedAt:        p.UpdatedAt.UTC().Format(timeFormat),
	}
}

func normalizeSKUPrefix(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ProductHandler handles product endpoints against the caller's session view.
type ProductHandler struct{}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler() *ProductHandler {
	return &ProductHandler{}
}

// List handles GET /api/products.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	s := requireSession(w, r)
	if s == nil {
		return
	}

	items, err := s.Products().List(r.Context())
	writeList(w, items, err, toProductResponse, middleware.GetRequestID(r.Context()))
}

// Create handles POST /api/products.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	s := requireSession(w, r)
	if s == nil {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateCreateProductRequest(validation.CreateProductRequest{
		Name:      req.Name,
		SKUPrefix: req.SKUPrefix,
		PrintArea: req.PrintArea.toValidation(),
		Variants:  toValidationVariants(req.Variants),
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	in := product.Input{
		Name:             strings.TrimSpace(req.Name),
		SKUPrefix:        normalizeSKUPrefix(req.SKUPrefix),
		PrintArea:        req.PrintArea.toPrintArea(),
		BasePhotos:       req.BasePhotos,
		MockupTemplateID: strings.TrimSpace(req.MockupTemplateID),
		Variants:         toVariants(req.Variants),
		Active:           true,
	}
	if req.Active != nil {
		in.Active = *req.Active
	}

	repo := s.Products()
	id, snap, err := repo.Create(r.Context(), in.Fields())
	if err != nil {
		writeMutationError(w, err, "product", "create", requestID)
		return
	}

	writeMutation(w, http.StatusCreated, id, snap, toProductResponse, requestID)
}

// Update handles PATCH /api/products/{id}. A print area replaces the whole
// stored print area.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	s := requireSession(w, r)
	if s == nil {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req updateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	vreq := validation.UpdateProductRequest{
		Name:      req.Name,
		SKUPrefix: req.SKUPrefix,
		PrintArea: req.PrintArea.toValidation(),
	}
	if req.Variants != nil {
		vreq.Variants = toValidationVariants(*req.Variants)
	}
	if fieldErrors := validation.ValidateUpdateProductRequest(vreq); len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	patch := product.Patch{
		Name:             trimmed(req.Name),
		BasePhotos:       req.BasePhotos,
		MockupTemplateID: trimmed(req.MockupTemplateID),
		Active:           req.Active,
	}
	if req.SKUPrefix != nil {
		sku := normalizeSKUPrefix(*req.SKUPrefix)
		patch.SKUPrefix = &sku
	}
	if req.PrintArea != nil {
		area := req.PrintArea.toPrintArea()
		patch.PrintArea = &area
	}
	if req.Variants != nil {
		v := toVariants(*req.Variants)
		patch.Variants = &v
	}

	repo := s.Products()
	snap, err := repo.Update(r.Context(), chi.URLParam(r, "id"), patch.Fields())
	if err != nil {
		writeMutationError(w, err, "product", "update", requestID)
		return
	}

	writeMutation(w, http.StatusOK, "", snap, toProductResponse, requestID)
}

// Delete handles DELETE /api/products/{id}.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	s := requireSession(w, r)
	if s == nil {
		return
	}

	repo := s.Products()
	snap, err := repo.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeMutationError(w, err, "product", "delete", requestID)
		return
	}

	writeMutation(w, http.StatusOK, "", snap, toProductResponse, requestID)
}
