// Package nutrition contains the nutrition calculation engine: amino-acid
// scoring, recipe aggregation and supplementation recommendations.
// Every calculation is a pure function of a Recipe and a ReferenceStore.
package nutrition

import (
	"fmt"
)

// IngredientID uniquely identifies an ingredient in the reference store
type IngredientID string

// IngredientProfile holds the per-100 g reference values of an ingredient
type IngredientProfile struct {
	ID          IngredientID
	DisplayName string
	Category    string

	CaloriesPer100g float64
	ProteinPer100g  float64
	FatPer100g      float64
	CarbsPer100g    float64

	AminoAcidsPer100g AminoAcidProfile

	// GlycemicIndex is nil when not applicable (e.g. zero-carb items)
	GlycemicIndex *int

	// UnitPrice is currency per gram, not per 100 g
	UnitPrice float64
}

// HasGlycemicIndex reports whether the profile defines a GI value
func (p IngredientProfile) HasGlycemicIndex() bool {
	return p.GlycemicIndex != nil
}

// Validate checks the profile's numeric invariants
func (p IngredientProfile) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("%w: ingredient id is required", ErrInvalidProfile)
	}

	macros := map[string]float64{
		"calories":   p.CaloriesPer100g,
		"protein":    p.ProteinPer100g,
		"fat":        p.FatPer100g,
		"carbs":      p.CarbsPer100g,
		"unit_price": p.UnitPrice,
	}
	for name, value := range macros {
		if value < 0 {
			return fmt.Errorf("%w: %s of %q must not be negative", ErrInvalidProfile, name, p.ID)
		}
	}

	for acid, mg := range p.AminoAcidsPer100g {
		if mg < 0 {
			return fmt.Errorf("%w: %s of %q must not be negative", ErrInvalidProfile, acid, p.ID)
		}
	}

	if p.GlycemicIndex != nil && (*p.GlycemicIndex < 0 || *p.GlycemicIndex > 100) {
		return fmt.Errorf("%w: glycemic index of %q must be within 0-100", ErrInvalidProfile, p.ID)
	}

	return nil
}

// GI is a helper for building profiles with a defined glycemic index
func GI(value int) *int {
	return &value
}

// ReferenceStore is the read-only lookup the engine calculates against
type ReferenceStore interface {
	Profile(id IngredientID) (IngredientProfile, bool)
	Ingredients() []IngredientProfile
}

// Category groups catalog ingredients for browsing
type Category struct {
	Name        string
	Ingredients []IngredientID
}

// Catalog is an immutable, validated ReferenceStore keyed by ingredient id.
// Declaration order is preserved for listing and recommendation ranking.
type Catalog struct {
	profiles   map[IngredientID]IngredientProfile
	order      []IngredientID
	categories []Category
}

// NewCatalog validates profiles and builds a catalog
func NewCatalog(profiles []IngredientProfile) (*Catalog, error) {
	c := &Catalog{
		profiles: make(map[IngredientID]IngredientProfile, len(profiles)),
		order:    make([]IngredientID, 0, len(profiles)),
	}

	categoryIndex := make(map[string]int)
	for _, profile := range profiles {
		if err := profile.Validate(); err != nil {
			return nil, err
		}
		if _, exists := c.profiles[profile.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateIngredient, profile.ID)
		}

		profile.AminoAcidsPer100g = copyAminoAcids(profile.AminoAcidsPer100g)
		c.profiles[profile.ID] = profile
		c.order = append(c.order, profile.ID)

		if profile.Category == "" {
			continue
		}
		idx, seen := categoryIndex[profile.Category]
		if !seen {
			idx = len(c.categories)
			categoryIndex[profile.Category] = idx
			c.categories = append(c.categories, Category{Name: profile.Category})
		}
		c.categories[idx].Ingredients = append(c.categories[idx].Ingredients, profile.ID)
	}

	return c, nil
}

// Profile looks up an ingredient by id
func (c *Catalog) Profile(id IngredientID) (IngredientProfile, bool) {
	profile, ok := c.profiles[id]
	return profile, ok
}

// Ingredients returns all profiles in declaration order
func (c *Catalog) Ingredients() []IngredientProfile {
	out := make([]IngredientProfile, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.profiles[id])
	}
	return out
}

// Len returns the number of ingredients
func (c *Catalog) Len() int {
	return len(c.order)
}

// Categories returns categories in first-seen order
func (c *Catalog) Categories() []Category {
	out := make([]Category, len(c.categories))
	for i, category := range c.categories {
		out[i] = Category{
			Name:        category.Name,
			Ingredients: append([]IngredientID(nil), category.Ingredients...),
		}
	}
	return out
}

// IngredientsInCategory returns the profiles of one category. An empty name
// returns every ingredient.
func (c *Catalog) IngredientsInCategory(name string) []IngredientProfile {
	if name == "" {
		return c.Ingredients()
	}

	for _, category := range c.categories {
		if category.Name != name {
			continue
		}
		out := make([]IngredientProfile, 0, len(category.Ingredients))
		for _, id := range category.Ingredients {
			out = append(out, c.profiles[id])
		}
		return out
	}

	return nil
}

func copyAminoAcids(in AminoAcidProfile) AminoAcidProfile {
	out := make(AminoAcidProfile, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
