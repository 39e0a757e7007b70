package nutrition

import "sort"

// MaxRecommendations caps the number of suggested ingredients
const MaxRecommendations = 3

// Recommendation is a candidate ingredient that supplies the limiting amino acid
type Recommendation struct {
	Profile IngredientProfile
	// Content is mg of the limiting key per 100 g of the candidate
	Content float64
	// Efficiency is mg of the limiting key per gram of candidate protein
	Efficiency float64
}

// Recommend ranks ingredients not yet in recipe by how densely they supply
// the limiting amino acid of score. It returns nil when every requirement is
// met or no limiting key exists. Candidates without the limiting key are
// skipped. Candidates without protein are skipped too; dividing by their zero
// protein would give an infinite efficiency and rank them first, ahead of any
// real protein source. Ties keep store order.
func Recommend(recipe Recipe, store ReferenceStore, score AminoAcidScoreResult) []Recommendation {
	if score.Complete() || !score.HasLimitingAminoAcid() {
		return nil
	}

	key := score.LimitingAminoAcid
	var candidates []Recommendation
	for _, profile := range store.Ingredients() {
		if recipe.Contains(profile.ID) {
			continue
		}

		content := profile.AminoAcidsPer100g.Content(key)
		if content <= 0 || profile.ProteinPer100g <= 0 {
			continue
		}

		candidates = append(candidates, Recommendation{
			Profile:    profile,
			Content:    content,
			Efficiency: content / profile.ProteinPer100g,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Efficiency > candidates[j].Efficiency
	})

	if len(candidates) > MaxRecommendations {
		candidates = candidates[:MaxRecommendations]
	}
	return candidates
}
