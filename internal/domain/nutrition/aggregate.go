package nutrition

import "math"

// ServingCount is the fixed number of servings a recipe is divided into
const ServingCount = 8

// Energy factors in kcal per gram
const (
	ProteinKcalPerGram = 4
	FatKcalPerGram     = 9
	CarbsKcalPerGram   = 4
)

// GIBand classifies an aggregated glycemic index
type GIBand string

// GI bands
const (
	GIBandLow    GIBand = "low"
	GIBandMedium GIBand = "medium"
	GIBandHigh   GIBand = "high"
)

// BandForGI returns the band of a glycemic index value
func BandForGI(gi int) GIBand {
	switch {
	case gi < 40:
		return GIBandLow
	case gi < 70:
		return GIBandMedium
	default:
		return GIBandHigh
	}
}

// Totals are the unrounded sums behind a NutritionResult
type Totals struct {
	Weight   float64
	Calories float64
	Protein  float64
	Fat      float64
	Carbs    float64
	Price    float64
}

// PerServing holds whole-recipe figures divided by ServingCount
type PerServing struct {
	Weight   float64
	Calories float64
	Protein  float64
	Price    float64
}

// MacroRatio is the percentage of energy from protein, fat and carbs.
// Defined is false when the recipe has no calories; the percentages are
// then zero.
type MacroRatio struct {
	Protein float64
	Fat     float64
	Carbs   float64
	Defined bool
}

// LineBreakdown is the contribution of a single recipe line
type LineBreakdown struct {
	ID            IngredientID
	DisplayName   string
	AmountGrams   float64
	Known         bool
	Calories      float64
	Protein       float64
	Fat           float64
	Carbs         float64
	Price         float64
	GlycemicIndex *int
}

// NutritionResult is the derived nutrition of a recipe snapshot. Display
// fields are rounded; Totals and AminoAcidScore keep full precision.
type NutritionResult struct {
	TotalWeight   float64
	Calories      float64
	Protein       float64
	Fat           float64
	Carbs         float64
	Price         float64
	GlycemicIndex int

	PerServing     PerServing
	MacroRatio     MacroRatio
	AminoAcidScore AminoAcidScoreResult

	Lines  []LineBreakdown
	Totals Totals
}

// GIBand returns the band of the result's glycemic index
func (r NutritionResult) GIBand() GIBand {
	return BandForGI(r.GlycemicIndex)
}

// Aggregate computes the nutrition of recipe against store. Lines whose
// ingredient is unknown count toward weight only.
func Aggregate(recipe Recipe, store ReferenceStore) NutritionResult {
	var (
		totals     Totals
		weightedGI float64
		carbsForGI float64
	)
	breakdown := make([]LineBreakdown, 0, len(recipe.lines))

	for _, line := range recipe.lines {
		totals.Weight += line.AmountGrams

		entry := LineBreakdown{
			ID:          line.ID,
			DisplayName: line.DisplayName,
			AmountGrams: line.AmountGrams,
		}

		profile, ok := store.Profile(line.ID)
		if !ok {
			breakdown = append(breakdown, entry)
			continue
		}

		ratio := line.AmountGrams / 100
		calories := profile.CaloriesPer100g * ratio
		protein := profile.ProteinPer100g * ratio
		fat := profile.FatPer100g * ratio
		carbs := profile.CarbsPer100g * ratio
		price := profile.UnitPrice * line.AmountGrams

		totals.Calories += calories
		totals.Protein += protein
		totals.Fat += fat
		totals.Carbs += carbs
		totals.Price += price

		if profile.GlycemicIndex != nil && profile.CarbsPer100g > 0 {
			carbsInLine := profile.CarbsPer100g * line.AmountGrams / 100
			weightedGI += float64(*profile.GlycemicIndex) * carbsInLine
			carbsForGI += carbsInLine
		}

		entry.Known = true
		entry.Calories = math.Round(calories)
		entry.Protein = roundTenth(protein)
		entry.Fat = roundTenth(fat)
		entry.Carbs = roundTenth(carbs)
		entry.Price = math.Round(price)
		entry.GlycemicIndex = profile.GlycemicIndex
		breakdown = append(breakdown, entry)
	}

	result := NutritionResult{
		TotalWeight: math.Round(totals.Weight),
		Calories:    math.Round(totals.Calories),
		Protein:     roundTenth(totals.Protein),
		Fat:         roundTenth(totals.Fat),
		Carbs:       roundTenth(totals.Carbs),
		Price:       math.Round(totals.Price),
		PerServing: PerServing{
			Weight:   math.Round(totals.Weight / ServingCount),
			Calories: math.Round(totals.Calories / ServingCount),
			Protein:  roundTenth(totals.Protein / ServingCount),
			Price:    math.Round(totals.Price / ServingCount),
		},
		MacroRatio:     macroRatio(totals),
		AminoAcidScore: ScoreAminoAcids(recipe, store),
		Lines:          breakdown,
		Totals:         totals,
	}

	if carbsForGI > 0 {
		result.GlycemicIndex = int(math.Round(weightedGI / carbsForGI))
	}

	return result
}

func macroRatio(totals Totals) MacroRatio {
	if totals.Calories <= 0 {
		return MacroRatio{}
	}
	return MacroRatio{
		Protein: math.Round(totals.Protein * ProteinKcalPerGram / totals.Calories * 100),
		Fat:     math.Round(totals.Fat * FatKcalPerGram / totals.Calories * 100),
		Carbs:   math.Round(totals.Carbs * CarbsKcalPerGram / totals.Calories * 100),
		Defined: true,
	}
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
