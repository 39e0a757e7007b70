package nutrition

import (
	"math"

	"github.com/alchemorsel/nutrilab/internal/domain/nutrition"
	"github.com/alchemorsel/nutrilab/internal/ports/inbound"
)

func linesFromDTO(lines []inbound.RecipeLineDTO) []nutrition.RecipeLine {
	out := make([]nutrition.RecipeLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, nutrition.RecipeLine{
			ID:          nutrition.IngredientID(line.IngredientID),
			DisplayName: line.Name,
			AmountGrams: line.AmountGrams,
		})
	}
	return out
}

// withCatalogNames fills missing display names from the catalog. Lines with
// unknown ids keep whatever name the caller sent.
func withCatalogNames(lines []nutrition.RecipeLine, store nutrition.ReferenceStore) []nutrition.RecipeLine {
	out := make([]nutrition.RecipeLine, len(lines))
	for i, line := range lines {
		if line.DisplayName == "" {
			if profile, ok := store.Profile(line.ID); ok {
				line.DisplayName = profile.DisplayName
			}
		}
		out[i] = line
	}
	return out
}

func linesToDTO(lines []nutrition.RecipeLine) []inbound.RecipeLineDTO {
	out := make([]inbound.RecipeLineDTO, 0, len(lines))
	for _, line := range lines {
		out = append(out, inbound.RecipeLineDTO{
			IngredientID: string(line.ID),
			Name:         line.DisplayName,
			AmountGrams:  line.AmountGrams,
		})
	}
	return out
}

func ingredientToDTO(p nutrition.IngredientProfile) inbound.IngredientDTO {
	aminoAcids := make(map[string]float64, len(p.AminoAcidsPer100g))
	for acid, mg := range p.AminoAcidsPer100g {
		aminoAcids[string(acid)] = mg
	}

	return inbound.IngredientDTO{
		ID:              string(p.ID),
		Name:            p.DisplayName,
		Category:        p.Category,
		CaloriesPer100g: p.CaloriesPer100g,
		ProteinPer100g:  p.ProteinPer100g,
		FatPer100g:      p.FatPer100g,
		CarbsPer100g:    p.CarbsPer100g,
		GlycemicIndex:   p.GlycemicIndex,
		UnitPrice:       p.UnitPrice,
		PricePer100g:    math.Round(p.UnitPrice * 100),
		AminoAcids:      aminoAcids,
	}
}

// presetToDTO includes the preset's whole-recipe price, the one figure
// the preset list shows before a recipe is loaded
func presetToDTO(preset nutrition.Preset, store nutrition.ReferenceStore) inbound.PresetDTO {
	var price float64
	for _, line := range preset.Lines {
		if profile, ok := store.Profile(line.ID); ok {
			price += profile.UnitPrice * line.AmountGrams
		}
	}

	return inbound.PresetDTO{
		ID:         preset.ID,
		Name:       preset.Name,
		DeclaredGI: preset.DeclaredGI,
		Price:      math.Round(price),
		Lines:      linesToDTO(preset.Lines),
	}
}

func scoreToDTO(score nutrition.AminoAcidScoreResult) inbound.AminoAcidScoreDTO {
	scores := make(map[string]float64, len(score.Scores))
	for key, value := range score.Scores {
		scores[string(key)] = value
	}

	return inbound.AminoAcidScoreDTO{
		TotalScore:        score.TotalScore,
		DisplayScore:      int(math.Round(score.TotalScore)),
		Scores:            scores,
		LimitingAminoAcid: string(score.LimitingAminoAcid),
		Status:            string(nutrition.StatusOf(score)),
	}
}

func resultToDTO(r nutrition.NutritionResult) inbound.NutritionDTO {
	lines := make([]inbound.LineBreakdownDTO, 0, len(r.Lines))
	for _, line := range r.Lines {
		lines = append(lines, inbound.LineBreakdownDTO{
			IngredientID:  string(line.ID),
			Name:          line.DisplayName,
			AmountGrams:   line.AmountGrams,
			Known:         line.Known,
			Calories:      line.Calories,
			Protein:       line.Protein,
			Fat:           line.Fat,
			Carbs:         line.Carbs,
			GlycemicIndex: line.GlycemicIndex,
			Price:         line.Price,
		})
	}

	return inbound.NutritionDTO{
		TotalWeight:   r.TotalWeight,
		Calories:      r.Calories,
		Protein:       r.Protein,
		Fat:           r.Fat,
		Carbs:         r.Carbs,
		Price:         r.Price,
		GlycemicIndex: r.GlycemicIndex,
		GIBand:        string(r.GIBand()),
		PerServing: inbound.PerServingDTO{
			Servings: nutrition.ServingCount,
			Weight:   r.PerServing.Weight,
			Calories: r.PerServing.Calories,
			Protein:  r.PerServing.Protein,
			Price:    r.PerServing.Price,
		},
		MacroRatio: inbound.MacroRatioDTO{
			Protein: r.MacroRatio.Protein,
			Fat:     r.MacroRatio.Fat,
			Carbs:   r.MacroRatio.Carbs,
			Defined: r.MacroRatio.Defined,
		},
		AminoAcidScore: scoreToDTO(r.AminoAcidScore),
		Lines:          lines,
	}
}

func recommendationsToDTO(recs []nutrition.Recommendation, limiting nutrition.ScoringKey) []inbound.RecommendationDTO {
	out := make([]inbound.RecommendationDTO, 0, len(recs))
	for _, rec := range recs {
		out = append(out, inbound.RecommendationDTO{
			IngredientID:      string(rec.Profile.ID),
			Name:              rec.Profile.DisplayName,
			Category:          rec.Profile.Category,
			GlycemicIndex:     rec.Profile.GlycemicIndex,
			PricePer100g:      math.Round(rec.Profile.UnitPrice * 100),
			LimitingAminoAcid: string(limiting),
			ContentMg:         rec.Content,
			Efficiency:        rec.Efficiency,
		})
	}
	return out
}

func reportToDTO(report nutrition.Report) *inbound.NutritionReportDTO {
	return &inbound.NutritionReportDTO{
		Lines:     linesToDTO(report.Recipe.Lines()),
		Nutrition: resultToDTO(report.Result),
		Recommendations: recommendationsToDTO(
			report.Recommendations,
			report.Result.AminoAcidScore.LimitingAminoAcid,
		),
	}
}
