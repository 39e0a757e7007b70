package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/alchemorsel/nutrilab/internal/ports/inbound"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestIngredients(t *testing.T) {
	out, err := execute(t, "ingredients")
	require.NoError(t, err)
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "oatmeal")
}

func TestPresets(t *testing.T) {
	out, err := execute(t, "presets")
	require.NoError(t, err)
	assert.Contains(t, out, "banana")
}

func TestCalc_PresetJSON(t *testing.T) {
	out, err := execute(t, "calc", "--preset", "banana", "--format", "json")
	require.NoError(t, err)

	var report inbound.NutritionReportDTO
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.NotNil(t, report.Preset)
	assert.Equal(t, report.Preset.DeclaredGI, report.Nutrition.GlycemicIndex)
}

func TestCalc_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recipe.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`lines:
  - ingredient_id: oatmeal
    amount_grams: 50
  - ingredient_id: soy_milk
    amount_grams: 80
`), 0o600))

	out, err := execute(t, "calc", "--file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Amino acid score")
	assert.Contains(t, out, "Total weight")
	assert.Contains(t, out, "130 g")
}

func TestCalc_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no source", []string{"calc"}, "exactly one of --preset or --file"},
		{"both sources", []string{"calc", "--preset", "banana", "--file", "x.yaml"}, "exactly one of --preset or --file"},
		{"bad format", []string{"calc", "--preset", "banana", "--format", "xml"}, `unknown format "xml"`},
		{"missing file", []string{"calc", "--file", filepath.Join(t.TempDir(), "none.yaml")}, "failed to read recipe"},
		{"unknown preset", []string{"calc", "--preset", "missing"}, "missing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
