// Package seed loads reference data from a YAML file into the store.
//
// A seed file lists admins, leagues with their teams nested underneath, and
// products. Records that already exist are skipped, so a file can be applied
// repeatedly: leagues match by slug, teams by league and slug, products by
// SKU prefix and admins by uid.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"sigs.k8s.io/yaml"

	"github.com/rallyops/designops/internal/access"
	"github.com/rallyops/designops/internal/api/validation"
	"github.com/rallyops/designops/internal/docstore"
	"github.com/rallyops/designops/internal/league"
	"github.com/rallyops/designops/internal/product"
	"github.com/rallyops/designops/internal/slug"
	"github.com/rallyops/designops/internal/team"
)

// ErrInvalid wraps every validation failure in a seed file.
var ErrInvalid = errors.New("invalid seed file")

// File is the parsed seed document.
type File struct {
	Admins   []Admin   `json:"admins"`
	Leagues  []League  `json:"leagues"`
	Products []Product `json:"products"`
}

// Admin grants a role to an identity.
type Admin struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// League is a league and its teams.
type League struct {
	Name   string `json:"name"`
	Active *bool  `json:"active"`
	Teams  []Team `json:"teams"`
}

// Team is a team of the enclosing league.
type Team struct {
	Name        string          `json:"name"`
	City        string          `json:"city"`
	Colors      team.Colors     `json:"colors"`
	Keywords    validation.Tags `json:"keywords"`
	BannedTerms validation.Tags `json:"bannedTerms"`
	Notes       string          `json:"notes"`
	Active      *bool           `json:"active"`
}

// PrintArea mirrors product.PrintArea with optional fields.
type PrintArea struct {
	WidthIn  *float64 `json:"widthIn"`
	HeightIn *float64 `json:"heightIn"`
	DPI      *float64 `json:"dpi"`
	X        *float64 `json:"x"`
	Y        *float64 `json:"y"`
}

// Variant is a product variant.
type Variant struct {
	Name   string          `json:"name"`
	Type   string          `json:"type"`
	Values validation.Tags `json:"values"`
}

// Product is a blank garment.
type Product struct {
	Name             string              `json:"name"`
	SKUPrefix        string              `json:"skuPrefix"`
	PrintArea        *PrintArea          `json:"printArea"`
	BasePhotos       *product.BasePhotos `json:"basePhotos"`
	MockupTemplateID string              `json:"mockupTemplateId"`
	Variants         []Variant           `json:"variants"`
	Active           *bool               `json:"active"`
}

// Result counts what Apply wrote and skipped.
type Result struct {
	Admins   int
	Leagues  int
	Teams    int
	Products int
	Skipped  int
}

// Load reads and parses a seed file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML (or JSON) seed document and validates it.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.UnmarshalStrict(data, &f); err != nil {
		return nil, fmt.Errorf("parsing seed file: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate applies the same field rules as the API. All problems are
// reported together.
func (f *File) Validate() error {
	var problems []string
	add := func(prefix string, errs []validation.FieldError) {
		for _, fe := range errs {
			problems = append(problems, prefix+": "+fe.Message)
		}
	}

	for i, a := range f.Admins {
		prefix := fmt.Sprintf("admins[%d]", i)
		if strings.TrimSpace(a.UID) == "" {
			problems = append(problems, prefix+": uid is required")
		}
		add(prefix, validation.ValidatePutAdminRequest(validation.PutAdminRequest{Email: a.Email, Role: a.Role}))
	}

	for i, l := range f.Leagues {
		prefix := fmt.Sprintf("leagues[%d]", i)
		add(prefix, validation.ValidateCreateLeagueRequest(validation.CreateLeagueRequest{Name: strings.TrimSpace(l.Name)}))
		for j, t := range l.Teams {
			add(fmt.Sprintf("%s.teams[%d]", prefix, j), validation.ValidateCreateTeamRequest(validation.CreateTeamRequest{
				// The league id is assigned on apply.
				LeagueID: slug.Make(l.Name),
				Name:     strings.TrimSpace(t.Name),
				City:     strings.TrimSpace(t.City),
				Colors:   validation.Colors{Primary: t.Colors.Primary, Secondary: t.Colors.Secondary, Accent: t.Colors.Accent},
			}))
		}
	}

	for i, p := range f.Products {
		add(fmt.Sprintf("products[%d]", i), validation.ValidateCreateProductRequest(validation.CreateProductRequest{
			Name:      strings.TrimSpace(p.Name),
			SKUPrefix: strings.TrimSpace(p.SKUPrefix),
			PrintArea: p.PrintArea.toValidation(),
			Variants:  toValidationVariants(p.Variants),
		}))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w:\n  %s", ErrInvalid, strings.Join(problems, "\n  "))
	}
	return nil
}

// Apply writes the file's records. A nil records repository skips admins.
func Apply(ctx context.Context, store docstore.Store, records access.Repository, f *File) (*Result, error) {
	res := &Result{}

	if records != nil {
		for _, a := range f.Admins {
			if _, err := records.Lookup(ctx, a.UID); err == nil {
				res.Skipped++
				continue
			} else if !errors.Is(err, access.ErrRecordNotFound) {
				return res, fmt.Errorf("looking up admin %s: %w", a.UID, err)
			}
			if _, err := records.Put(ctx, a.UID, strings.TrimSpace(a.Email), access.Role(a.Role)); err != nil {
				return res, fmt.Errorf("seeding admin %s: %w", a.UID, err)
			}
			res.Admins++
		}
	}

	if err := applyLeagues(ctx, store, f.Leagues, res); err != nil {
		return res, err
	}
	if err := applyProducts(ctx, store, f.Products, res); err != nil {
		return res, err
	}

	slog.Info("seed applied",
		"admins", res.Admins,
		"leagues", res.Leagues,
		"teams", res.Teams,
		"products", res.Products,
		"skipped", res.Skipped,
	)
	return res, nil
}

func applyLeagues(ctx context.Context, store docstore.Store, leagues []League, res *Result) error {
	repo := league.NewRepository(store)
	existing, err := repo.List(ctx)
	if err != nil {
		return fmt.Errorf("listing leagues: %w", err)
	}
	bySlug := make(map[string]string, len(existing))
	for _, l := range existing {
		bySlug[l.Slug] = l.ID
	}

	for _, l := range leagues {
		name := strings.TrimSpace(l.Name)
		id, ok := bySlug[slug.Make(name)]
		if ok {
			res.Skipped++
		} else {
			id, _, err = repo.Create(ctx, league.Input{Name: name, Active: active(l.Active)}.Fields())
			if err != nil {
				return fmt.Errorf("seeding league %q: %w", name, err)
			}
			bySlug[slug.Make(name)] = id
			res.Leagues++
		}

		if err := applyTeams(ctx, store, id, l.Teams, res); err != nil {
			return err
		}
	}
	return nil
}

func applyTeams(ctx context.Context, store docstore.Store, leagueID string, teams []Team, res *Result) error {
	if len(teams) == 0 {
		return nil
	}

	repo := team.NewRepository(store, leagueID)
	existing, err := repo.List(ctx)
	if err != nil {
		return fmt.Errorf("listing teams: %w", err)
	}
	seen := make(map[string]bool, len(existing))
	for _, t := range existing {
		seen[t.Slug] = true
	}

	for _, t := range teams {
		name := strings.TrimSpace(t.Name)
		if seen[slug.Make(name)] {
			res.Skipped++
			continue
		}
		in := team.Input{
			LeagueID:    leagueID,
			Name:        name,
			City:        strings.TrimSpace(t.City),
			Colors:      t.Colors,
			Keywords:    t.Keywords,
			BannedTerms: t.BannedTerms,
			Notes:       t.Notes,
			Active:      active(t.Active),
		}
		if _, _, err := repo.Create(ctx, in.Fields()); err != nil {
			return fmt.Errorf("seeding team %q: %w", name, err)
		}
		seen[slug.Make(name)] = true
		res.Teams++
	}
	return nil
}

func applyProducts(ctx context.Context, store docstore.Store, products []Product, res *Result) error {
	repo := product.NewRepository(store)
	existing, err := repo.List(ctx)
	if err != nil {
		return fmt.Errorf("listing products: %w", err)
	}
	seen := make(map[string]bool, len(existing))
	for _, p := range existing {
		seen[p.SKUPrefix] = true
	}

	for _, p := range products {
		sku := strings.ToUpper(strings.TrimSpace(p.SKUPrefix))
		if seen[sku] {
			res.Skipped++
			continue
		}
		in := product.Input{
			Name:             strings.TrimSpace(p.Name),
			SKUPrefix:        sku,
			PrintArea:        p.PrintArea.toPrintArea(),
			BasePhotos:       p.BasePhotos,
			MockupTemplateID: p.MockupTemplateID,
			Variants:         toVariants(p.Variants),
			Active:           active(p.Active),
		}
		if _, _, err := repo.Create(ctx, in.Fields()); err != nil {
			return fmt.Errorf("seeding product %q: %w", in.Name, err)
		}
		seen[sku] = true
		res.Products++
	}
	return nil
}

func active(b *bool) bool {
	return b == nil || *b
}

func (p *PrintArea) toValidation() *validation.PrintArea {
	if p == nil {
		return nil
	}
	return &validation.PrintArea{WidthIn: p.WidthIn, HeightIn: p.HeightIn, DPI: p.DPI, X: p.X, Y: p.Y}
}

// toPrintArea assumes a validated print area.
func (p *PrintArea) toPrintArea() product.PrintArea {
	area := product.PrintArea{
		WidthIn:  *p.WidthIn,
		HeightIn: *p.HeightIn,
		DPI:      product.DefaultDPI,
	}
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

func toValidationVariants(in []Variant) []validation.Variant {
	out := make([]validation.Variant, 0, len(in))
	for _, v := range in {
		out = append(out, validation.Variant{Name: v.Name, Type: v.Type})
	}
	return out
}

func toVariants(in []Variant) []product.Variant {
	out := make([]product.Variant, 0, len(in))
	for _, v := range in {
		values := []string(v.Values)
		if values == nil {
			values = []string{}
		}
		out = append(out, product.Variant{Name: strings.TrimSpace(v.Name), Type: product.VariantType(v.Type), Values: values})
	}
	return out
}
