package nutrition

// AminoAcid is a raw amino-acid component as listed in an ingredient profile.
type AminoAcid string

// Raw amino-acid components tracked per 100 g of an ingredient
const (
	Isoleucine    AminoAcid = "isoleucine"
	Leucine       AminoAcid = "leucine"
	Lysine        AminoAcid = "lysine"
	Methionine    AminoAcid = "methionine"
	Cystine       AminoAcid = "cystine"
	Phenylalanine AminoAcid = "phenylalanine"
	Tyrosine      AminoAcid = "tyrosine"
	Threonine     AminoAcid = "threonine"
	Tryptophan    AminoAcid = "tryptophan"
	Valine        AminoAcid = "valine"
	Histidine     AminoAcid = "histidine"
)

// RawAminoAcids lists every raw component in a stable order.
var RawAminoAcids = []AminoAcid{
	Isoleucine, Leucine, Lysine, Methionine, Cystine,
	Phenylalanine, Tyrosine, Threonine, Tryptophan, Valine, Histidine,
}

// AminoAcidProfile maps a raw component to milligrams per 100 g.
// Missing components count as zero.
type AminoAcidProfile map[AminoAcid]float64

// ScoringKey identifies one of the nine essential amino-acid requirements.
// Two keys combine a pair of raw components.
type ScoringKey string

// Scoring keys
const (
	KeyIsoleucine            ScoringKey = "isoleucine"
	KeyLeucine               ScoringKey = "leucine"
	KeyLysine                ScoringKey = "lysine"
	KeyMethionineCystine     ScoringKey = "methionine_cystine"
	KeyPhenylalanineTyrosine ScoringKey = "phenylalanine_tyrosine"
	KeyThreonine             ScoringKey = "threonine"
	KeyTryptophan            ScoringKey = "tryptophan"
	KeyValine                ScoringKey = "valine"
	KeyHistidine             ScoringKey = "histidine"
)

// ScoringKeys is the canonical key order. Limiting-amino-acid ties resolve
// to the earliest key in this order.
var ScoringKeys = []ScoringKey{
	KeyIsoleucine,
	KeyLeucine,
	KeyLysine,
	KeyMethionineCystine,
	KeyPhenylalanineTyrosine,
	KeyThreonine,
	KeyTryptophan,
	KeyValine,
	KeyHistidine,
}

// referencePattern is the FAO/WHO 2007 requirement in mg per gram of protein.
var referencePattern = map[ScoringKey]float64{
	KeyIsoleucine:            30,
	KeyLeucine:               61,
	KeyLysine:                48,
	KeyMethionineCystine:     23,
	KeyPhenylalanineTyrosine: 41,
	KeyThreonine:             25,
	KeyTryptophan:            6.6,
	KeyValine:                40,
	KeyHistidine:             16,
}

// ReferenceRequirement returns the mg-per-gram-of-protein requirement for key.
func ReferenceRequirement(key ScoringKey) float64 {
	return referencePattern[key]
}

// Components returns the raw amino acids that make up a scoring key.
func (k ScoringKey) Components() []AminoAcid {
	switch k {
	case KeyMethionineCystine:
		return []AminoAcid{Methionine, Cystine}
	case KeyPhenylalanineTyrosine:
		return []AminoAcid{Phenylalanine, Tyrosine}
	default:
		return []AminoAcid{AminoAcid(k)}
	}
}

// IsCombined reports whether the key sums two raw components.
func (k ScoringKey) IsCombined() bool {
	return len(k.Components()) > 1
}

// Valid reports whether k is one of the nine scoring keys.
func (k ScoringKey) Valid() bool {
	_, ok := referencePattern[k]
	return ok
}

// Content returns the mg per 100 g supplied for key, summing combined pairs.
func (p AminoAcidProfile) Content(key ScoringKey) float64 {
	var total float64
	for _, component := range key.Components() {
		total += p[component]
	}
	return total
}

// AminoAcidScoreResult is the protein-quality score of a recipe.
type AminoAcidScoreResult struct {
	// TotalScore is the minimum per-key score in percent, not clamped at 100.
	TotalScore float64
	Scores     map[ScoringKey]float64
	// LimitingAminoAcid is empty when the recipe supplies no protein.
	LimitingAminoAcid ScoringKey
}

// HasLimitingAminoAcid reports whether a limiting key was identified.
func (r AminoAcidScoreResult) HasLimitingAminoAcid() bool {
	return r.LimitingAminoAcid != ""
}

// Complete reports whether every requirement is met.
func (r AminoAcidScoreResult) Complete() bool {
	return r.TotalScore >= 100
}

func zeroScoreResult() AminoAcidScoreResult {
	scores := make(map[ScoringKey]float64, len(ScoringKeys))
	for _, key := range ScoringKeys {
		scores[key] = 0
	}
	return AminoAcidScoreResult{Scores: scores}
}

// ScoreAminoAcids computes the amino-acid score of recipe against the
// reference pattern scaled to the recipe's protein mass. Lines whose
// ingredient is not in store are skipped.
func ScoreAminoAcids(recipe Recipe, store ReferenceStore) AminoAcidScoreResult {
	var totalProtein float64
	for _, line := range recipe.lines {
		profile, ok := store.Profile(line.ID)
		if !ok {
			continue
		}
		totalProtein += profile.ProteinPer100g * line.AmountGrams / 100
	}

	if totalProtein == 0 {
		return zeroScoreResult()
	}

	supplied := make(map[ScoringKey]float64, len(ScoringKeys))
	for _, line := range recipe.lines {
		profile, ok := store.Profile(line.ID)
		if !ok {
			continue
		}
		for _, key := range ScoringKeys {
			// combined keys are summed per line before scaling
			supplied[key] += profile.AminoAcidsPer100g.Content(key) * line.AmountGrams / 100
		}
	}

	result := AminoAcidScoreResult{Scores: make(map[ScoringKey]float64, len(ScoringKeys))}
	for i, key := range ScoringKeys {
		required := referencePattern[key] * totalProtein
		var score float64
		if supplied[key] > 0 {
			score = supplied[key] / required * 100
		}
		result.Scores[key] = score

		if i == 0 || score < result.TotalScore {
			result.TotalScore = score
			result.LimitingAminoAcid = key
		}
	}

	return result
}
