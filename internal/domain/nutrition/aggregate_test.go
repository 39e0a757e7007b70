package nutrition_test

import (
	"math"
	"testing"

	"github.com/alchemorsel/nutrilab/internal/domain/nutrition"
	"github.com/alchemorsel/nutrilab/test/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate_GrainAndLegume(t *testing.T) {
	catalog := testutils.SampleCatalog()
	recipe := nutrition.NewRecipe(testutils.Line("grain", 100), testutils.Line("legume", 50))

	result := nutrition.Aggregate(recipe, catalog)

	assert.Equal(t, 150.0, result.TotalWeight)
	assert.Equal(t, 540.0, result.Calories)
	assert.Equal(t, 20.0, result.Protein)
	assert.Equal(t, 4.0, result.Fat)
	assert.Equal(t, 105.0, result.Carbs)
	assert.Equal(t, 100.0, result.Price)

	// (70*75 + 30*30) / 105 = 58.57
	assert.Equal(t, 59, result.GlycemicIndex)
	assert.Equal(t, nutrition.GIBandMedium, result.GIBand())

	assert.Equal(t, nutrition.PerServing{Weight: 19, Calories: 68, Protein: 2.5, Price: 13}, result.PerServing)
	assert.Equal(t, nutrition.MacroRatio{Protein: 15, Fat: 7, Carbs: 78, Defined: true}, result.MacroRatio)

	score := result.AminoAcidScore
	assert.Equal(t, nutrition.KeyLeucine, score.LimitingAminoAcid)
	assert.InDelta(t, 950.0/1220*100, score.TotalScore, 1e-9)
	assert.InDelta(t, 950.0/960*100, score.Scores[nutrition.KeyLysine], 1e-9)
	assert.InDelta(t, 1900.0/460*100, score.Scores[nutrition.KeyMethionineCystine], 1e-9)

	require.Len(t, result.Lines, 2)
	assert.Equal(t, nutrition.LineBreakdown{
		ID:            "grain",
		DisplayName:   "grain",
		AmountGrams:   100,
		Known:         true,
		Calories:      370,
		Protein:       10,
		Fat:           3,
		Carbs:         75,
		Price:         50,
		GlycemicIndex: nutrition.GI(70),
	}, result.Lines[0])
}

func TestAggregate_UnknownIngredientCountsWeightOnly(t *testing.T) {
	catalog := testutils.SampleCatalog()
	known := nutrition.NewRecipe(testutils.Line("grain", 100), testutils.Line("legume", 50))
	withUnknown := known.Add("mystery", "Mystery")
	withUnknown, err := withUnknown.SetAmount(2, 30)
	require.NoError(t, err)

	base := nutrition.Aggregate(known, catalog)
	result := nutrition.Aggregate(withUnknown, catalog)

	assert.Equal(t, 180.0, result.TotalWeight)
	assert.Equal(t, base.Calories, result.Calories)
	assert.Equal(t, base.Protein, result.Protein)
	assert.Equal(t, base.GlycemicIndex, result.GlycemicIndex)
	assert.Equal(t, base.AminoAcidScore, result.AminoAcidScore)

	require.Len(t, result.Lines, 3)
	assert.False(t, result.Lines[2].Known)
	assert.Zero(t, result.Lines[2].Calories)
	assert.Nil(t, result.Lines[2].GlycemicIndex)
}

func TestAggregate_EmptyRecipe(t *testing.T) {
	assertions := testutils.NewNutritionAssertions(t)

	result := nutrition.Aggregate(nutrition.NewRecipe(), testutils.SampleCatalog())

	assert.Zero(t, result.TotalWeight)
	assert.Zero(t, result.Calories)
	assert.Zero(t, result.Price)
	assert.Zero(t, result.GlycemicIndex)
	assert.Equal(t, nutrition.GIBandLow, result.GIBand())
	assert.Equal(t, nutrition.PerServing{}, result.PerServing)
	assert.False(t, result.MacroRatio.Defined)
	assert.Empty(t, result.Lines)
	assertions.ZeroScore(result.AminoAcidScore)
	assertions.Finite(result)
}

func TestAggregate_GlycemicIndex(t *testing.T) {
	catalog := testutils.SampleCatalog()

	tests := []struct {
		name   string
		recipe nutrition.Recipe
		want   int
	}{
		{
			name:   "no carbohydrate lines",
			recipe: nutrition.NewRecipe(testutils.Line("oil", 50)),
			want:   0,
		},
		{
			name:   "single line reports its own index",
			recipe: nutrition.NewRecipe(testutils.Line("sugar", 10)),
			want:   65,
		},
		{
			name:   "zero grams contributes nothing",
			recipe: nutrition.NewRecipe(testutils.Line("sugar", 0), testutils.Line("legume", 100)),
			want:   30,
		},
		{
			name:   "zero-carb lines do not dilute",
			recipe: nutrition.NewRecipe(testutils.Line("sugar", 40), testutils.Line("oil", 200)),
			want:   65,
		},
		{
			name:   "weighted by carbohydrate mass",
			recipe: nutrition.NewRecipe(testutils.Line("grain", 100), testutils.Line("seed", 100)),
			// (70*75 + 15*10) / 85 = 63.53
			want: 64,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := nutrition.Aggregate(tt.recipe, catalog)
			assert.Equal(t, tt.want, result.GlycemicIndex)
		})
	}
}

func TestAggregate_MissingGlycemicIndexIsSkipped(t *testing.T) {
	catalog := testutils.MustCatalog(
		testutils.NewProfileBuilder("flour").WithMacros(360, 8, 1, 80).WithGI(80).Build(),
		testutils.NewProfileBuilder("fiber").WithMacros(200, 2, 0, 80).Build(),
	)
	recipe := nutrition.NewRecipe(testutils.Line("flour", 50), testutils.Line("fiber", 500))

	result := nutrition.Aggregate(recipe, catalog)

	assert.Equal(t, 80, result.GlycemicIndex)
	assert.Equal(t, nutrition.GIBandHigh, result.GIBand())
}

func TestAggregate_MacroRatioWithoutCalories(t *testing.T) {
	catalog := testutils.MustCatalog(
		testutils.NewProfileBuilder("water").Build(),
	)

	result := nutrition.Aggregate(nutrition.NewRecipe(testutils.Line("water", 500)), catalog)

	assert.Equal(t, 500.0, result.TotalWeight)
	assert.Equal(t, nutrition.MacroRatio{}, result.MacroRatio)
	testutils.NewNutritionAssertions(t).Finite(result)
}

func TestAggregate_RoundsIndependently(t *testing.T) {
	catalog := testutils.MustCatalog(
		testutils.NewProfileBuilder("a").WithMacros(101, 1.04, 0, 0).WithUnitPrice(0.013).Build(),
	)

	result := nutrition.Aggregate(nutrition.NewRecipe(testutils.Line("a", 33)), catalog)

	// totals keep full precision; display figures and servings round separately
	assert.InDelta(t, 33.33, result.Totals.Calories, 1e-9)
	assert.Equal(t, 33.0, result.Calories)
	assert.Equal(t, 4.0, result.PerServing.Calories)
	assert.Equal(t, 0.3, result.Protein)
	assert.InDelta(t, 0.429, result.Totals.Price, 1e-9)
	assert.Equal(t, 0.0, result.Price)
}

func TestBandForGI(t *testing.T) {
	tests := map[int]nutrition.GIBand{
		0:   nutrition.GIBandLow,
		39:  nutrition.GIBandLow,
		40:  nutrition.GIBandMedium,
		69:  nutrition.GIBandMedium,
		70:  nutrition.GIBandHigh,
		100: nutrition.GIBandHigh,
	}
	for gi, want := range tests {
		assert.Equal(t, want, nutrition.BandForGI(gi), "gi=%d", gi)
	}
}

func TestAggregate_LineOrderDoesNotChangeFigures(t *testing.T) {
	factory := testutils.NewProfileFactory(testutils.NewSeed())
	assertions := testutils.NewNutritionAssertions(t)
	catalog := factory.Catalog(15)

	for i := 0; i < 25; i++ {
		recipe := factory.Recipe(catalog, 2+i%5)
		lines := recipe.Lines()
		factory.Faker().ShuffleAnySlice(lines)
		shuffled := nutrition.NewRecipe(lines...)

		expected := nutrition.Aggregate(recipe, catalog)
		actual := nutrition.Aggregate(shuffled, catalog)

		assertions.SameFigures(expected, actual, "iteration %d", i)
		assertions.Finite(actual)
	}
}

func TestAggregate_IsIdempotent(t *testing.T) {
	factory := testutils.NewProfileFactory(testutils.NewSeed())
	catalog := factory.Catalog(10)
	recipe := factory.Recipe(catalog, 6)

	first := nutrition.Aggregate(recipe, catalog)
	second := nutrition.Aggregate(recipe, catalog)

	assert.Equal(t, first, second)
}

func TestAggregate_MoreOfAnIngredientNeverLowersTotals(t *testing.T) {
	factory := testutils.NewProfileFactory(testutils.NewSeed())
	catalog := factory.Catalog(10)

	for i := 0; i < 25; i++ {
		recipe := factory.Recipe(catalog, 4)
		index := i % recipe.Len()
		more, err := recipe.AdjustAmount(index, float64(factory.Faker().Number(1, 100)))
		require.NoError(t, err)

		before := nutrition.Aggregate(recipe, catalog).Totals
		after := nutrition.Aggregate(more, catalog).Totals

		assert.Greater(t, after.Weight, before.Weight)
		assert.GreaterOrEqual(t, after.Calories, before.Calories)
		assert.GreaterOrEqual(t, after.Protein, before.Protein)
		assert.GreaterOrEqual(t, after.Fat, before.Fat)
		assert.GreaterOrEqual(t, after.Carbs, before.Carbs)
		assert.GreaterOrEqual(t, after.Price, before.Price)
	}
}

func TestAggregate_NonFiniteAmountsAreZero(t *testing.T) {
	catalog := testutils.SampleCatalog()
	recipe := nutrition.NewRecipe(
		testutils.Line("grain", math.NaN()),
		testutils.Line("legume", math.Inf(1)),
		testutils.Line("seed", -40),
	)

	result := nutrition.Aggregate(recipe, catalog)

	assert.Zero(t, result.TotalWeight)
	assert.Zero(t, result.Calories)
	testutils.NewNutritionAssertions(t).Finite(result)
}
