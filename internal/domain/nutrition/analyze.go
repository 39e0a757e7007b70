package nutrition

// ScoreStatus reports whether a recipe meets every amino-acid requirement
type ScoreStatus string

// Score statuses
const (
	ScoreComplete   ScoreStatus = "complete"
	ScoreIncomplete ScoreStatus = "incomplete"
)

// StatusOf classifies an amino-acid score using the unrounded total
func StatusOf(score AminoAcidScoreResult) ScoreStatus {
	if score.Complete() {
		return ScoreComplete
	}
	return ScoreIncomplete
}

// Report is a full recompute of one recipe snapshot
type Report struct {
	Recipe          Recipe
	Result          NutritionResult
	Recommendations []Recommendation
}

// Status returns the amino-acid score status of the report
func (r Report) Status() ScoreStatus {
	return StatusOf(r.Result.AminoAcidScore)
}

// Analyze aggregates recipe and, when the amino-acid score is below 100,
// ranks supplementation candidates.
func Analyze(recipe Recipe, store ReferenceStore) Report {
	result := Aggregate(recipe, store)
	return Report{
		Recipe:          recipe,
		Result:          result,
		Recommendations: Recommend(recipe, store, result.AminoAcidScore),
	}
}
