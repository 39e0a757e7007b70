// Package seed provides the bundled nutrient reference data and a
// ReferenceRepository backed by it
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"sync"

	"github.com/alchemorsel/nutrilab/internal/domain/nutrition"
	"github.com/alchemorsel/nutrilab/internal/ports/outbound"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var embeddedCatalog []byte

//go:embed presets.yaml
var embeddedPresets []byte

type catalogDocument struct {
	Ingredients []ingredientRecord `yaml:"ingredients"`
}

type ingredientRecord struct {
	ID            string             `yaml:"id"`
	Name          string             `yaml:"name"`
	Category      string             `yaml:"category"`
	Calories      float64            `yaml:"calories"`
	Protein       float64            `yaml:"protein"`
	Fat           float64            `yaml:"fat"`
	Carbs         float64            `yaml:"carbs"`
	GlycemicIndex *int               `yaml:"glycemic_index"`
	Pack          packRecord         `yaml:"pack"`
	AminoAcids    map[string]float64 `yaml:"amino_acids"`
}

// packRecord is a retail pack; unit price is Price / Grams
type packRecord struct {
	Price float64 `yaml:"price"`
	Grams float64 `yaml:"grams"`
}

type presetDocument struct {
	Presets []presetRecord `yaml:"presets"`
}

type presetRecord struct {
	ID            string       `yaml:"id"`
	Name          string       `yaml:"name"`
	GlycemicIndex int          `yaml:"glycemic_index"`
	Lines         []lineRecord `yaml:"lines"`
}

type lineRecord struct {
	ID    string  `yaml:"id"`
	Name  string  `yaml:"name"`
	Grams float64 `yaml:"grams"`
}

var knownAminoAcids = func() map[string]nutrition.AminoAcid {
	m := make(map[string]nutrition.AminoAcid, len(nutrition.RawAminoAcids))
	for _, acid := range nutrition.RawAminoAcids {
		m[string(acid)] = acid
	}
	return m
}()

// ParseCatalog decodes a catalog YAML document into ingredient profiles
func ParseCatalog(data []byte) ([]nutrition.IngredientProfile, error) {
	var doc catalogDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	profiles := make([]nutrition.IngredientProfile, 0, len(doc.Ingredients))
	for i, rec := range doc.Ingredients {
		if rec.Pack.Grams <= 0 {
			return nil, fmt.Errorf("catalog entry %d (%s): pack grams must be positive", i, rec.ID)
		}

		aminoAcids := make(nutrition.AminoAcidProfile, len(rec.AminoAcids))
		for name, mg := range rec.AminoAcids {
			acid, ok := knownAminoAcids[name]
			if !ok {
				return nil, fmt.Errorf("catalog entry %d (%s): unknown amino acid %q", i, rec.ID, name)
			}
			aminoAcids[acid] = mg
		}

		profiles = append(profiles, nutrition.IngredientProfile{
			ID:                nutrition.IngredientID(rec.ID),
			DisplayName:       rec.Name,
			Category:          rec.Category,
			CaloriesPer100g:   rec.Calories,
			ProteinPer100g:    rec.Protein,
			FatPer100g:        rec.Fat,
			CarbsPer100g:      rec.Carbs,
			AminoAcidsPer100g: aminoAcids,
			GlycemicIndex:     rec.GlycemicIndex,
			UnitPrice:         rec.Pack.Price / rec.Pack.Grams,
		})
	}

	return profiles, nil
}

// ParsePresets decodes a presets YAML document
func ParsePresets(data []byte) ([]nutrition.Preset, error) {
	var doc presetDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse presets: %w", err)
	}

	presets := make([]nutrition.Preset, 0, len(doc.Presets))
	for _, rec := range doc.Presets {
		lines := make([]nutrition.RecipeLine, 0, len(rec.Lines))
		for _, line := range rec.Lines {
			lines = append(lines, nutrition.RecipeLine{
				ID:          nutrition.IngredientID(line.ID),
				DisplayName: line.Name,
				AmountGrams: line.Grams,
			})
		}
		presets = append(presets, nutrition.Preset{
			ID:         rec.ID,
			Name:       rec.Name,
			DeclaredGI: rec.GlycemicIndex,
			Lines:      lines,
		})
	}

	return presets, nil
}

// Repository serves reference data decoded from YAML. File-backed
// repositories can re-read their files with Reload.
type Repository struct {
	catalogPath string
	presetsPath string

	mu          sync.RWMutex
	ingredients []nutrition.IngredientProfile
	presets     []nutrition.Preset
}

var _ outbound.ReferenceRepository = (*Repository)(nil)

// NewEmbeddedRepository returns a repository over the bundled data set
func NewEmbeddedRepository() (*Repository, error) {
	return newRepository(embeddedCatalog, embeddedPresets)
}

// NewFileRepository reads catalog and presets from YAML files. An empty
// presetsPath falls back to the bundled presets.
func NewFileRepository(catalogPath, presetsPath string) (*Repository, error) {
	catalog, presets, err := readFiles(catalogPath, presetsPath)
	if err != nil {
		return nil, err
	}

	r, err := newRepository(catalog, presets)
	if err != nil {
		return nil, err
	}
	r.catalogPath = catalogPath
	r.presetsPath = presetsPath
	return r, nil
}

func readFiles(catalogPath, presetsPath string) ([]byte, []byte, error) {
	catalog, err := os.ReadFile(catalogPath)
	if err != nil {
		return nil, nil, fmt.Errorf("read catalog file: %w", err)
	}

	presets := embeddedPresets
	if presetsPath != "" {
		presets, err = os.ReadFile(presetsPath)
		if err != nil {
			return nil, nil, fmt.Errorf("read presets file: %w", err)
		}
	}
	return catalog, presets, nil
}

func newRepository(catalogData, presetData []byte) (*Repository, error) {
	ingredients, presets, err := parse(catalogData, presetData)
	if err != nil {
		return nil, err
	}
	return &Repository{ingredients: ingredients, presets: presets}, nil
}

func parse(catalogData, presetData []byte) ([]nutrition.IngredientProfile, []nutrition.Preset, error) {
	ingredients, err := ParseCatalog(catalogData)
	if err != nil {
		return nil, nil, err
	}
	presets, err := ParsePresets(presetData)
	if err != nil {
		return nil, nil, err
	}
	return ingredients, presets, nil
}

// Paths returns the files backing the repository, or nil for the embedded
// data set
func (r *Repository) Paths() []string {
	var paths []string
	if r.catalogPath != "" {
		paths = append(paths, r.catalogPath)
	}
	if r.presetsPath != "" {
		paths = append(paths, r.presetsPath)
	}
	return paths
}

// Reload re-reads the backing files. The current data is kept when a file
// cannot be read or parsed. It is a no-op for the embedded data set.
func (r *Repository) Reload() error {
	if r.catalogPath == "" {
		return nil
	}

	catalog, presets, err := readFiles(r.catalogPath, r.presetsPath)
	if err != nil {
		return err
	}
	ingredients, parsedPresets, err := parse(catalog, presets)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.ingredients, r.presets = ingredients, parsedPresets
	r.mu.Unlock()
	return nil
}

// LoadIngredients returns the ingredient profiles in catalog order
func (r *Repository) LoadIngredients(ctx context.Context) ([]nutrition.IngredientProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]nutrition.IngredientProfile, len(r.ingredients))
	copy(out, r.ingredients)
	return out, nil
}

// LoadPresets returns the presets in display order
func (r *Repository) LoadPresets(ctx context.Context) ([]nutrition.Preset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]nutrition.Preset, len(r.presets))
	copy(out, r.presets)
	return out, nil
}
