// Package testutils provides custom assertions and testing utilities
package testutils

import (
	"encoding/json"
	"math"
	"net/http"
	"strings"
	"testing"

	"github.com/alchemorsel/nutrilab/internal/domain/nutrition"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NutritionAssertions provides nutrition-specific assertion methods
type NutritionAssertions struct {
	t *testing.T
}

// NewNutritionAssertions creates a new nutrition assertions helper
func NewNutritionAssertions(t *testing.T) *NutritionAssertions {
	return &NutritionAssertions{t: t}
}

// Finite asserts that no figure of a result is NaN or infinite
func (na *NutritionAssertions) Finite(r nutrition.NutritionResult, msgAndArgs ...interface{}) {
	values := []float64{
		r.TotalWeight, r.Calories, r.Protein, r.Fat, r.Carbs, r.Price,
		r.PerServing.Weight, r.PerServing.Calories, r.PerServing.Protein, r.PerServing.Price,
		r.MacroRatio.Protein, r.MacroRatio.Fat, r.MacroRatio.Carbs,
		r.AminoAcidScore.TotalScore,
	}
	for _, score := range r.AminoAcidScore.Scores {
		values = append(values, score)
	}
	for _, v := range values {
		assert.False(na.t, math.IsNaN(v) || math.IsInf(v, 0), msgAndArgs...)
	}
}

// ZeroScore asserts the defined zero-protein result
func (na *NutritionAssertions) ZeroScore(score nutrition.AminoAcidScoreResult, msgAndArgs ...interface{}) {
	assert.Zero(na.t, score.TotalScore, msgAndArgs...)
	assert.False(na.t, score.HasLimitingAminoAcid(), msgAndArgs...)
	require.Len(na.t, score.Scores, len(nutrition.ScoringKeys), msgAndArgs...)
	for _, key := range nutrition.ScoringKeys {
		assert.Zero(na.t, score.Scores[key], msgAndArgs...)
	}
}

// SameFigures asserts two results agree on every order-independent figure
func (na *NutritionAssertions) SameFigures(expected, actual nutrition.NutritionResult, msgAndArgs ...interface{}) {
	const delta = 1e-9

	assert.Equal(na.t, expected.TotalWeight, actual.TotalWeight, msgAndArgs...)
	assert.Equal(na.t, expected.Calories, actual.Calories, msgAndArgs...)
	assert.Equal(na.t, expected.Protein, actual.Protein, msgAndArgs...)
	assert.Equal(na.t, expected.Fat, actual.Fat, msgAndArgs...)
	assert.Equal(na.t, expected.Carbs, actual.Carbs, msgAndArgs...)
	assert.Equal(na.t, expected.Price, actual.Price, msgAndArgs...)
	assert.Equal(na.t, expected.GlycemicIndex, actual.GlycemicIndex, msgAndArgs...)
	assert.Equal(na.t, expected.PerServing, actual.PerServing, msgAndArgs...)
	assert.Equal(na.t, expected.MacroRatio, actual.MacroRatio, msgAndArgs...)

	assert.InDelta(na.t, expected.Totals.Calories, actual.Totals.Calories, delta, msgAndArgs...)
	assert.InDelta(na.t, expected.Totals.Protein, actual.Totals.Protein, delta, msgAndArgs...)
	assert.InDelta(na.t, expected.Totals.Fat, actual.Totals.Fat, delta, msgAndArgs...)
	assert.InDelta(na.t, expected.Totals.Carbs, actual.Totals.Carbs, delta, msgAndArgs...)
	assert.InDelta(na.t, expected.Totals.Price, actual.Totals.Price, delta, msgAndArgs...)

	assert.InDelta(na.t, expected.AminoAcidScore.TotalScore, actual.AminoAcidScore.TotalScore, delta, msgAndArgs...)
	for _, key := range nutrition.ScoringKeys {
		assert.InDelta(na.t, expected.AminoAcidScore.Scores[key], actual.AminoAcidScore.Scores[key], delta, msgAndArgs...)
	}
}

// HTTPAssertions provides HTTP-specific assertion methods
type HTTPAssertions struct {
	t *testing.T
}

// NewHTTPAssertions creates a new HTTP assertions helper
func NewHTTPAssertions(t *testing.T) *HTTPAssertions {
	return &HTTPAssertions{t: t}
}

// StatusCode asserts the HTTP status code
func (ha *HTTPAssertions) StatusCode(resp *http.Response, expectedCode int, msgAndArgs ...interface{}) {
	require.NotNil(ha.t, resp, "Response should not be nil")
	assert.Equal(ha.t, expectedCode, resp.StatusCode, msgAndArgs...)
}

// JSONResponse asserts that the response is valid JSON and unmarshals it
func (ha *HTTPAssertions) JSONResponse(resp *http.Response, target interface{}, msgAndArgs ...interface{}) {
	require.NotNil(ha.t, resp, "Response should not be nil")

	contentType := resp.Header.Get("Content-Type")
	assert.True(ha.t, strings.Contains(contentType, "application/json"),
		"Response should have JSON content type, got: %s", contentType)

	decoder := json.NewDecoder(resp.Body)
	err := decoder.Decode(target)
	require.NoError(ha.t, err, "Response should be valid JSON")
}

// ErrorCode asserts that an API envelope carries the expected error code
func (ha *HTTPAssertions) ErrorCode(resp *http.Response, expectedCode string, msgAndArgs ...interface{}) {
	var envelope struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
		Code    string `json:"code"`
	}
	ha.JSONResponse(resp, &envelope)

	assert.False(ha.t, envelope.Success, "Response should not be successful")
	assert.NotEmpty(ha.t, envelope.Error, "Response should contain error field")
	assert.Equal(ha.t, expectedCode, envelope.Code, msgAndArgs...)
}

// HasHeader asserts that a header exists
func (ha *HTTPAssertions) HasHeader(resp *http.Response, headerName string, msgAndArgs ...interface{}) {
	require.NotNil(ha.t, resp, "Response should not be nil")

	_, exists := resp.Header[http.CanonicalHeaderKey(headerName)]
	assert.True(ha.t, exists, "Response should have header %s", headerName)
}

// SecurityHeaders asserts that security headers are present
func (ha *HTTPAssertions) SecurityHeaders(resp *http.Response, msgAndArgs ...interface{}) {
	require.NotNil(ha.t, resp, "Response should not be nil")

	securityHeaders := []string{
		"X-Content-Type-Options",
		"X-Frame-Options",
		"Referrer-Policy",
	}

	for _, header := range securityHeaders {
		ha.HasHeader(resp, header, "Security header %s should be present", header)
	}
}
