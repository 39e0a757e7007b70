package nutrition_test

import (
	"math"
	"testing"

	"github.com/alchemorsel/nutrilab/internal/domain/nutrition"
	"github.com/alchemorsel/nutrilab/test/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lineIDs(r nutrition.Recipe) []nutrition.IngredientID {
	lines := r.Lines()
	ids := make([]nutrition.IngredientID, len(lines))
	for i, line := range lines {
		ids[i] = line.ID
	}
	return ids
}

func sampleRecipe() nutrition.Recipe {
	return nutrition.NewRecipe(
		testutils.Line("a", 10),
		testutils.Line("b", 20),
		testutils.Line("c", 30),
		testutils.Line("d", 40),
	)
}

func TestNewRecipe(t *testing.T) {
	t.Run("clamps invalid amounts", func(t *testing.T) {
		recipe := nutrition.NewRecipe(
			testutils.Line("neg", -5),
			testutils.Line("nan", math.NaN()),
			testutils.Line("inf", math.Inf(-1)),
			testutils.Line("ok", 12.5),
		)

		for i, want := range []float64{0, 0, 0, 12.5} {
			line, err := recipe.Line(i)
			require.NoError(t, err)
			assert.Equal(t, want, line.AmountGrams)
		}
	})

	t.Run("does not alias the caller's slice", func(t *testing.T) {
		lines := []nutrition.RecipeLine{testutils.Line("a", 10)}
		recipe := nutrition.NewRecipe(lines...)
		lines[0].AmountGrams = 99

		line, _ := recipe.Line(0)
		assert.Equal(t, 10.0, line.AmountGrams)
	})

	t.Run("lines are a copy", func(t *testing.T) {
		recipe := sampleRecipe()
		lines := recipe.Lines()
		lines[0].ID = "zzz"

		assert.True(t, recipe.Contains("a"))
		assert.False(t, recipe.Contains("zzz"))
	})
}

func TestRecipe_Add(t *testing.T) {
	recipe := nutrition.NewRecipe()
	assert.True(t, recipe.IsEmpty())

	next := recipe.Add("oat", "Oatmeal").Add("oat", "Oatmeal")

	assert.True(t, recipe.IsEmpty(), "receiver must stay unchanged")
	require.Equal(t, 2, next.Len())
	line, err := next.Line(1)
	require.NoError(t, err)
	assert.Equal(t, nutrition.RecipeLine{ID: "oat", DisplayName: "Oatmeal"}, line)
}

func TestRecipe_Remove(t *testing.T) {
	recipe := sampleRecipe()

	next, err := recipe.Remove(1)

	require.NoError(t, err)
	assert.Equal(t, []nutrition.IngredientID{"a", "c", "d"}, lineIDs(next))
	assert.Equal(t, 4, recipe.Len())

	_, err = recipe.Remove(4)
	assert.ErrorIs(t, err, nutrition.ErrLineIndexOutOfRange)
	_, err = recipe.Remove(-1)
	assert.ErrorIs(t, err, nutrition.ErrLineIndexOutOfRange)
}

func TestRecipe_AdjustAmount(t *testing.T) {
	recipe := sampleRecipe()

	tests := []struct {
		name  string
		delta float64
		want  float64
	}{
		{name: "increase", delta: 5, want: 25},
		{name: "decrease", delta: -5, want: 15},
		{name: "clamps at zero", delta: -100, want: 0},
		{name: "fractional", delta: 0.5, want: 20.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, err := recipe.AdjustAmount(1, tt.delta)
			require.NoError(t, err)

			line, _ := next.Line(1)
			assert.Equal(t, tt.want, line.AmountGrams)
			original, _ := recipe.Line(1)
			assert.Equal(t, 20.0, original.AmountGrams)
		})
	}

	_, err := recipe.AdjustAmount(9, 1)
	assert.ErrorIs(t, err, nutrition.ErrLineIndexOutOfRange)
}

func TestRecipe_SetAmount(t *testing.T) {
	recipe := sampleRecipe()

	next, err := recipe.SetAmount(2, 75)
	require.NoError(t, err)
	line, _ := next.Line(2)
	assert.Equal(t, 75.0, line.AmountGrams)

	next, err = recipe.SetAmount(2, -3)
	require.NoError(t, err)
	line, _ = next.Line(2)
	assert.Zero(t, line.AmountGrams)

	_, err = recipe.SetAmount(4, 1)
	assert.ErrorIs(t, err, nutrition.ErrLineIndexOutOfRange)
}

func TestRecipe_SetAmountText(t *testing.T) {
	recipe := sampleRecipe()

	tests := map[string]float64{
		"42":     42,
		" 7.5 ":  7.5,
		"":       0,
		"abc":    0,
		"-10":    0,
		"NaN":    0,
		"1e2":    100,
		"12g":    0,
		"+Inf":   0,
		"0.0001": 0.0001,
	}

	for text, want := range tests {
		next, err := recipe.SetAmountText(0, text)
		require.NoError(t, err)
		line, _ := next.Line(0)
		assert.Equal(t, want, line.AmountGrams, "input %q", text)
		assert.Equal(t, want, nutrition.ParseAmount(text), "input %q", text)
	}
}

func TestRecipe_Move(t *testing.T) {
	tests := []struct {
		name     string
		from, to int
		want     []nutrition.IngredientID
	}{
		{name: "forward", from: 0, to: 2, want: []nutrition.IngredientID{"b", "c", "a", "d"}},
		{name: "backward", from: 3, to: 1, want: []nutrition.IngredientID{"a", "d", "b", "c"}},
		{name: "to end", from: 1, to: 3, want: []nutrition.IngredientID{"a", "c", "d", "b"}},
		{name: "to front", from: 2, to: 0, want: []nutrition.IngredientID{"c", "a", "b", "d"}},
		{name: "same index", from: 2, to: 2, want: []nutrition.IngredientID{"a", "b", "c", "d"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recipe := sampleRecipe()

			next, err := recipe.Move(tt.from, tt.to)

			require.NoError(t, err)
			assert.Equal(t, tt.want, lineIDs(next))
			assert.Equal(t, []nutrition.IngredientID{"a", "b", "c", "d"}, lineIDs(recipe))
		})
	}

	t.Run("out of range", func(t *testing.T) {
		recipe := sampleRecipe()
		_, err := recipe.Move(0, 4)
		assert.ErrorIs(t, err, nutrition.ErrLineIndexOutOfRange)
		_, err = recipe.Move(-1, 0)
		assert.ErrorIs(t, err, nutrition.ErrLineIndexOutOfRange)
	})

	t.Run("amounts travel with their line", func(t *testing.T) {
		next, err := sampleRecipe().Move(3, 0)
		require.NoError(t, err)
		line, _ := next.Line(0)
		assert.Equal(t, testutils.Line("d", 40), line)
	})
}

func TestRecipe_MutationsDoNotChangeFiguresOfUntouchedLines(t *testing.T) {
	catalog := testutils.SampleCatalog()
	recipe := nutrition.NewRecipe(testutils.Line("grain", 100), testutils.Line("seed", 30), testutils.Line("sugar", 20))

	moved, err := recipe.Move(0, 2)
	require.NoError(t, err)

	testutils.NewNutritionAssertions(t).SameFigures(
		nutrition.Aggregate(recipe, catalog),
		nutrition.Aggregate(moved, catalog),
	)
}
