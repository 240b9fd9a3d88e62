package product

import (
	"time"

	"github.com/rallyops/designops/internal/docstore"
)

// DefaultDPI is the print resolution used when none is given.
const DefaultDPI = 300

// MaxDPI is the highest print resolution accepted.
const MaxDPI = 10000

// VariantType is the axis a product variant varies along.
type VariantType string

const (
	VariantColor VariantType = "color"
	VariantSize  VariantType = "size"
)

// Valid reports whether t is a known variant type.
func (t VariantType) Valid() bool {
	return t == VariantColor || t == VariantSize
}

// PrintArea locates the printable region on a product, in inches. X and Y
// are offsets and may be negative.
type PrintArea struct {
	WidthIn  float64 `json:"widthIn"`
	HeightIn float64 `json:"heightIn"`
	DPI      int     `json:"dpi"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// BasePhotos holds blank product photography used for mockups.
type BasePhotos struct {
	FlatLayURL string `json:"flatLayUrl,omitempty"`
	HangerURL  string `json:"hangerUrl,omitempty"`
}

// Variant is one purchasable option axis, e.g. sizes S through XL.
type Variant struct {
	Name   string      `json:"name"`
	Type   VariantType `json:"type"`
	Values []string    `json:"values"`
}

// Product represents a document in the products collection.
type Product struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	SKUPrefix        string      `json:"skuPrefix"`
	PrintArea        PrintArea   `json:"printArea"`
	BasePhotos       *BasePhotos `json:"basePhotos,omitempty"`
	MockupTemplateID string      `json:"mockupTemplateId,omitempty"`
	Variants         []Variant   `json:"variants"`
	Active           bool        `json:"active"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`
}

// Input holds the fields of a new product.
type Input struct {
	Name             string
	SKUPrefix        string
	PrintArea        PrintArea
	BasePhotos       *BasePhotos
	MockupTemplateID string
	Variants         []Variant
	Active           bool
}

// Fields converts the input to document fields. Nil variants are stored as
// an empty list.
func (in Input) Fields() docstore.Fields {
	variants := in.Variants
	if variants == nil {
		variants = []Variant{}
	}
	f := docstore.Fields{
		"name":      in.Name,
		"skuPrefix": in.SKUPrefix,
		"printArea": in.PrintArea,
		"variants":  variants,
		"active":    in.Active,
	}
	if in.BasePhotos != nil {
		f["basePhotos"] = *in.BasePhotos
	}
	if in.MockupTemplateID != "" {
		f["mockupTemplateId"] = in.MockupTemplateID
	}
	return f
}

// Patch holds user-updatable fields. Nil fields are not updated; PrintArea
// and BasePhotos replace the whole object.
type Patch struct {
	Name             *string
	SKUPrefix        *string
	PrintArea        *PrintArea
	BasePhotos       *BasePhotos
	MockupTemplateID *string
	Variants         *[]Variant
	Active           *bool
}

// Fields converts the patch to document fields, omitting nil fields.
func (p Patch) Fields() docstore.Fields {
	f := docstore.Fields{}
	if p.Name != nil {
		f["name"] = *p.Name
	}
	if p.SKUPrefix != nil {
		f["skuPrefix"] = *p.SKUPrefix
	}
	if p.PrintArea != nil {
		f["printArea"] = *p.PrintArea
	}
	if p.BasePhotos != nil {
		f["basePhotos"] = *p.BasePhotos
	}
	if p.MockupTemplateID != nil {
		f["mockupTemplateId"] = *p.MockupTemplateID
	}
	if p.Variants != nil {
		v := *p.Variants
		if v == nil {
			v = []Variant{}
		}
		f["variants"] = v
	}
	if p.Active != nil {
		f["active"] = *p.Active
	}
	return f
}
