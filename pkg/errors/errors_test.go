package errors

import (
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_StatusCode(t *testing.T) {
	tests := []struct {
		err  *AppError
		want int
	}{
		{NewBadRequestError("bad"), http.StatusBadRequest},
		{NewValidationError("amount"), http.StatusBadRequest},
		{NewInvalidRecipeOperationError("move", 2, nil), http.StatusBadRequest},
		{NewAppError(CodeNotFound, "Route not found", ""), http.StatusNotFound},
		{NewIngredientNotFoundError("kinako"), http.StatusNotFound},
		{NewPresetNotFoundError("simple"), http.StatusNotFound},
		{NewAppError(CodeTooManyRequests, "slow down", ""), http.StatusTooManyRequests},
		{NewReferenceDataUnavailableError(nil), http.StatusServiceUnavailable},
		{NewDatabaseError("load ingredients", nil), http.StatusInternalServerError},
		{NewExternalServiceError("redis", nil), http.StatusInternalServerError},
		{NewInternalError(""), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.StatusCode())
		})
	}
}

func TestDatabaseError_KeepsCause(t *testing.T) {
	cause := stderrors.New("database is closed")
	err := NewReferenceDataUnavailableError(NewDatabaseError("load ingredients", cause))

	assert.ErrorIs(t, err, cause)
	assert.True(t, Is(err, CodeReferenceDataUnavailable))
	assert.True(t, Is(err.Cause, CodeDatabaseError))
	assert.Equal(t, CodeReferenceDataUnavailable, GetCode(err))
	assert.Equal(t, "DATABASE_ERROR: Database operation failed (Failed to load ingredients)", err.Cause.Error())
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, "ignored"))

	preset := NewPresetNotFoundError("simple")
	assert.Same(t, preset, Wrap(preset, "ignored"))

	wrapped := Wrap(stderrors.New("boom"), "Request failed")
	require.NotNil(t, wrapped)
	assert.Equal(t, CodeInternal, wrapped.Code)
	assert.Equal(t, "Request failed", wrapped.Message)
	assert.Equal(t, CodeInternal, GetCode(stderrors.New("plain")))
}

func TestNewValidationErrors(t *testing.T) {
	err := NewValidationErrors([]ValidationError{
		{Field: "lines[0].ingredient_id", Tag: "required", Message: "ingredient_id is required"},
		{Field: "lines[1].name", Tag: "max", Message: "name is too long"},
	})

	assert.Equal(t, CodeValidationFailed, err.Code)
	assert.Equal(t, "ingredient_id is required; name is too long", err.Details)
	assert.Len(t, err.Metadata["validation_errors"], 2)
	assert.NotEmpty(t, err.StackTrace)
}
