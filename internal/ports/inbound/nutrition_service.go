// Package inbound defines the interfaces for inbound ports (primary/driving adapters)
// These are the interfaces that the application exposes to the outside world
package inbound

import (
	"bytes"
	"context"
	"encoding/json"
)

// NutritionService defines the nutrition use cases.
// This is the primary port that HTTP handlers and the CLI use.
type NutritionService interface {
	// Reference data queries
	ListIngredients(ctx context.Context, category string) ([]IngredientDTO, error)
	ListCategories(ctx context.Context) ([]CategoryDTO, error)
	ListPresets(ctx context.Context) ([]PresetDTO, error)
	GetPreset(ctx context.Context, presetID string) (*PresetDTO, error)

	// Calculations
	Calculate(ctx context.Context, cmd CalculateCommand) (*NutritionReportDTO, error)
	CalculatePreset(ctx context.Context, presetID string) (*NutritionReportDTO, error)
	Recommend(ctx context.Context, cmd CalculateCommand) ([]RecommendationDTO, error)

	// Recipe editing
	MutateRecipe(ctx context.Context, cmd MutateRecipeCommand) (*NutritionReportDTO, error)
	ExportRecipe(ctx context.Context, cmd CalculateCommand) (string, error)
}

// Recipe operation names
const (
	OpAdd    = "add"
	OpRemove = "remove"
	OpAdjust = "adjust"
	OpSet    = "set"
	OpMove   = "move"
)

// Command objects for operations

// RecipeLineDTO is one recipe line on the wire. Negative amounts are
// accepted and clamp to zero in the recipe.
type RecipeLineDTO struct {
	IngredientID string  `json:"ingredient_id" yaml:"ingredient_id" validate:"required,max=64"`
	Name         string  `json:"name,omitempty" yaml:"name,omitempty" validate:"max=200"`
	AmountGrams  float64 `json:"amount_grams" yaml:"amount_grams"`
}

// CalculateCommand carries a recipe snapshot to compute
type CalculateCommand struct {
	Lines []RecipeLineDTO `json:"lines" yaml:"lines" validate:"max=200,dive"`
}

// AmountText is user-entered amount input. It accepts either a JSON number
// or a JSON string so malformed text can reach the recipe boundary and be
// coerced there.
type AmountText string

// UnmarshalJSON implements json.Unmarshaler
func (a *AmountText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = AmountText(s)
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	*a = AmountText(data)
	return nil
}

// RecipeOperation is a single edit applied to a recipe snapshot
type RecipeOperation struct {
	Op           string     `json:"op" validate:"required,oneof=add remove adjust set move"`
	IngredientID string     `json:"ingredient_id,omitempty" validate:"required_if=Op add"`
	Index        int        `json:"index,omitempty"`
	Delta        float64    `json:"delta,omitempty"`
	Amount       AmountText `json:"amount,omitempty"`
	From         int        `json:"from,omitempty"`
	To           int        `json:"to,omitempty"`
}

// MutateRecipeCommand applies operations in order to a recipe snapshot
type MutateRecipeCommand struct {
	Lines      []RecipeLineDTO   `json:"lines" validate:"max=200,dive"`
	Operations []RecipeOperation `json:"operations" validate:"required,min=1,max=50,dive"`
}

// Response DTOs

// IngredientDTO represents an ingredient profile
type IngredientDTO struct {
	ID              string             `json:"id"`
	Name            string             `json:"name"`
	Category        string             `json:"category"`
	CaloriesPer100g float64            `json:"calories_per_100g"`
	ProteinPer100g  float64            `json:"protein_per_100g"`
	FatPer100g      float64            `json:"fat_per_100g"`
	CarbsPer100g    float64            `json:"carbs_per_100g"`
	GlycemicIndex   *int               `json:"glycemic_index,omitempty"`
	UnitPrice       float64            `json:"unit_price"`
	PricePer100g    float64            `json:"price_per_100g"`
	AminoAcids      map[string]float64 `json:"amino_acids_per_100g"`
}

// CategoryDTO represents an ingredient category
type CategoryDTO struct {
	Name          string   `json:"name"`
	IngredientIDs []string `json:"ingredient_ids"`
}

// PresetDTO represents a preset recipe
type PresetDTO struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	DeclaredGI int             `json:"declared_gi"`
	Price      float64         `json:"price"`
	Lines      []RecipeLineDTO `json:"lines"`
}

// PerServingDTO holds per-serving figures
type PerServingDTO struct {
	Servings int     `json:"servings"`
	Weight   float64 `json:"weight"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Price    float64 `json:"price"`
}

// MacroRatioDTO holds the energy split in percent
type MacroRatioDTO struct {
	Protein float64 `json:"protein"`
	Fat     float64 `json:"fat"`
	Carbs   float64 `json:"carbs"`
	Defined bool    `json:"defined"`
}

// AminoAcidScoreDTO holds the protein-quality score
type AminoAcidScoreDTO struct {
	TotalScore        float64            `json:"total_score"`
	DisplayScore      int                `json:"display_score"`
	Scores            map[string]float64 `json:"scores"`
	LimitingAminoAcid string             `json:"limiting_amino_acid,omitempty"`
	Status            string             `json:"status"`
}

// LineBreakdownDTO is the contribution of one recipe line
type LineBreakdownDTO struct {
	IngredientID  string  `json:"ingredient_id"`
	Name          string  `json:"name"`
	AmountGrams   float64 `json:"amount_grams"`
	Known         bool    `json:"known"`
	Calories      float64 `json:"calories"`
	Protein       float64 `json:"protein"`
	Fat           float64 `json:"fat"`
	Carbs         float64 `json:"carbs"`
	GlycemicIndex *int    `json:"glycemic_index,omitempty"`
	Price         float64 `json:"price"`
}

// NutritionDTO is the derived nutrition of a recipe
type NutritionDTO struct {
	TotalWeight    float64            `json:"total_weight"`
	Calories       float64            `json:"calories"`
	Protein        float64            `json:"protein"`
	Fat            float64            `json:"fat"`
	Carbs          float64            `json:"carbs"`
	Price          float64            `json:"price"`
	GlycemicIndex  int                `json:"glycemic_index"`
	GIBand         string             `json:"gi_band"`
	PerServing     PerServingDTO      `json:"per_serving"`
	MacroRatio     MacroRatioDTO      `json:"macro_ratio"`
	AminoAcidScore AminoAcidScoreDTO  `json:"amino_acid_score"`
	Lines          []LineBreakdownDTO `json:"lines"`
}

// RecommendationDTO is a suggested ingredient
type RecommendationDTO struct {
	IngredientID      string  `json:"ingredient_id"`
	Name              string  `json:"name"`
	Category          string  `json:"category"`
	GlycemicIndex     *int    `json:"glycemic_index,omitempty"`
	PricePer100g      float64 `json:"price_per_100g"`
	LimitingAminoAcid string  `json:"limiting_amino_acid"`
	ContentMg         float64 `json:"content_mg_per_100g"`
	Efficiency        float64 `json:"efficiency"`
}

// NutritionReportDTO is a full recompute of a recipe snapshot
type NutritionReportDTO struct {
	Lines           []RecipeLineDTO     `json:"lines"`
	Nutrition       NutritionDTO        `json:"nutrition"`
	Recommendations []RecommendationDTO `json:"recommendations"`
	Preset          *PresetDTO          `json:"preset,omitempty"`
}
