// Package testutils provides test data factories for consistent test data generation
package testutils

import (
	"fmt"
	"time"

	"github.com/alchemorsel/nutrilab/internal/domain/nutrition"
	"github.com/alchemorsel/nutrilab/internal/ports/inbound"
	"github.com/brianvoe/gofakeit/v6"
)

// ProfileFactory provides methods to create test ingredient profiles
type ProfileFactory struct {
	faker *gofakeit.Faker
}

// NewProfileFactory creates a new profile factory with seeded faker
func NewProfileFactory(seed int64) *ProfileFactory {
	return &ProfileFactory{
		faker: gofakeit.New(seed),
	}
}

// Faker exposes the underlying seeded faker
func (f *ProfileFactory) Faker() *gofakeit.Faker {
	return f.faker
}

// Profile creates a random, valid ingredient profile
func (f *ProfileFactory) Profile(id nutrition.IngredientID) nutrition.IngredientProfile {
	aminoAcids := make(nutrition.AminoAcidProfile, len(nutrition.RawAminoAcids))
	for _, acid := range nutrition.RawAminoAcids {
		aminoAcids[acid] = f.faker.Float64Range(0, 3000)
	}

	profile := nutrition.IngredientProfile{
		ID:                id,
		DisplayName:       f.faker.Noun(),
		Category:          f.faker.RandomString([]string{"grains", "nuts", "spices", "sweeteners", "liquids"}),
		CaloriesPer100g:   f.faker.Float64Range(0, 900),
		ProteinPer100g:    f.faker.Float64Range(0, 60),
		FatPer100g:        f.faker.Float64Range(0, 100),
		CarbsPer100g:      f.faker.Float64Range(0, 100),
		AminoAcidsPer100g: aminoAcids,
		UnitPrice:         f.faker.Float64Range(0, 20),
	}
	if f.faker.Bool() {
		profile.GlycemicIndex = nutrition.GI(f.faker.Number(0, 100))
	}
	return profile
}

// Profiles creates n random profiles with ids ing-0 .. ing-(n-1)
func (f *ProfileFactory) Profiles(n int) []nutrition.IngredientProfile {
	out := make([]nutrition.IngredientProfile, n)
	for i := range out {
		out[i] = f.Profile(nutrition.IngredientID(fmt.Sprintf("ing-%d", i)))
	}
	return out
}

// Catalog creates a catalog of n random profiles
func (f *ProfileFactory) Catalog(n int) *nutrition.Catalog {
	catalog, err := nutrition.NewCatalog(f.Profiles(n))
	if err != nil {
		panic(fmt.Sprintf("testutils: random catalog is invalid: %v", err))
	}
	return catalog
}

// Recipe picks up to n distinct ingredients from store with random amounts
func (f *ProfileFactory) Recipe(store nutrition.ReferenceStore, n int) nutrition.Recipe {
	profiles := store.Ingredients()
	f.faker.ShuffleAnySlice(profiles)
	if n > len(profiles) {
		n = len(profiles)
	}

	lines := make([]nutrition.RecipeLine, 0, n)
	for _, profile := range profiles[:n] {
		lines = append(lines, nutrition.RecipeLine{
			ID:          profile.ID,
			DisplayName: profile.DisplayName,
			AmountGrams: float64(f.faker.Number(1, 200)),
		})
	}
	return nutrition.NewRecipe(lines...)
}

// ProfileBuilder provides a fluent interface for building test profiles
type ProfileBuilder struct {
	profile nutrition.IngredientProfile
}

// NewProfileBuilder creates a profile builder with all values zero
func NewProfileBuilder(id nutrition.IngredientID) *ProfileBuilder {
	return &ProfileBuilder{
		profile: nutrition.IngredientProfile{
			ID:                id,
			DisplayName:       string(id),
			AminoAcidsPer100g: nutrition.AminoAcidProfile{},
		},
	}
}

// WithName sets the display name
func (b *ProfileBuilder) WithName(name string) *ProfileBuilder {
	b.profile.DisplayName = name
	return b
}

// WithCategory sets the category
func (b *ProfileBuilder) WithCategory(category string) *ProfileBuilder {
	b.profile.Category = category
	return b
}

// WithMacros sets calories, protein, fat and carbs per 100 g
func (b *ProfileBuilder) WithMacros(calories, protein, fat, carbs float64) *ProfileBuilder {
	b.profile.CaloriesPer100g = calories
	b.profile.ProteinPer100g = protein
	b.profile.FatPer100g = fat
	b.profile.CarbsPer100g = carbs
	return b
}

// WithProtein sets protein per 100 g
func (b *ProfileBuilder) WithProtein(protein float64) *ProfileBuilder {
	b.profile.ProteinPer100g = protein
	return b
}

// WithAminoAcid sets one raw amino acid in mg per 100 g
func (b *ProfileBuilder) WithAminoAcid(acid nutrition.AminoAcid, mg float64) *ProfileBuilder {
	b.profile.AminoAcidsPer100g[acid] = mg
	return b
}

// WithAllAminoAcids sets every raw amino acid to mg per 100 g
func (b *ProfileBuilder) WithAllAminoAcids(mg float64) *ProfileBuilder {
	for _, acid := range nutrition.RawAminoAcids {
		b.profile.AminoAcidsPer100g[acid] = mg
	}
	return b
}

// WithGI sets the glycemic index
func (b *ProfileBuilder) WithGI(gi int) *ProfileBuilder {
	b.profile.GlycemicIndex = nutrition.GI(gi)
	return b
}

// WithUnitPrice sets price per gram
func (b *ProfileBuilder) WithUnitPrice(price float64) *ProfileBuilder {
	b.profile.UnitPrice = price
	return b
}

// Build returns the profile
func (b *ProfileBuilder) Build() nutrition.IngredientProfile {
	return b.profile
}

// MustCatalog builds a catalog and panics on invalid input
func MustCatalog(profiles ...nutrition.IngredientProfile) *nutrition.Catalog {
	catalog, err := nutrition.NewCatalog(profiles)
	if err != nil {
		panic(fmt.Sprintf("testutils: invalid catalog: %v", err))
	}
	return catalog
}

// Line is shorthand for a recipe line
func Line(id string, grams float64) nutrition.RecipeLine {
	return nutrition.RecipeLine{ID: nutrition.IngredientID(id), DisplayName: id, AmountGrams: grams}
}

// LineDTO is shorthand for a wire recipe line
func LineDTO(id string, grams float64) inbound.RecipeLineDTO {
	return inbound.RecipeLineDTO{IngredientID: id, Name: id, AmountGrams: grams}
}

// SampleCatalog returns a small fixed catalog covering the common cases:
// a complete protein, a lysine-poor grain, a lysine-rich legume, a
// zero-protein sweetener and a zero-carb fat.
func SampleCatalog() *nutrition.Catalog {
	return MustCatalog(
		NewProfileBuilder("grain").WithName("Grain").WithCategory("grains").
			WithMacros(370, 10, 3, 75).WithGI(70).WithUnitPrice(0.5).
			WithAllAminoAcids(500).WithAminoAcid(nutrition.Lysine, 200).Build(),
		NewProfileBuilder("legume").WithName("Legume").WithCategory("grains").
			WithMacros(340, 20, 2, 60).WithGI(30).WithUnitPrice(1).
			WithAllAminoAcids(900).WithAminoAcid(nutrition.Lysine, 1500).Build(),
		NewProfileBuilder("seed").WithName("Seed").WithCategory("nuts").
			WithMacros(560, 20, 50, 10).WithGI(15).WithUnitPrice(3).
			WithAllAminoAcids(1000).WithAminoAcid(nutrition.Lysine, 700).Build(),
		NewProfileBuilder("sugar").WithName("Sugar").WithCategory("sweeteners").
			WithMacros(390, 0, 0, 99).WithGI(65).WithUnitPrice(0.75).Build(),
		NewProfileBuilder("oil").WithName("Oil").WithCategory("liquids").
			WithMacros(900, 0, 100, 0).WithGI(0).WithUnitPrice(2).Build(),
	)
}

// NewSeed returns a seed for factories
func NewSeed() int64 {
	return time.Now().UnixNano()
}
