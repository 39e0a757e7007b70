// Package handlers provides HTTP handlers for the REST API
package handlers

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/alchemorsel/nutrilab/internal/ports/inbound"
	"github.com/alchemorsel/nutrilab/pkg/errors"
	"github.com/alchemorsel/nutrilab/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// APIHandlers handles REST API requests
type APIHandlers struct {
	service  inbound.NutritionService
	validate *validator.Validate
	logger   *zap.Logger
}

// NewAPIHandlers creates a new API handlers instance
func NewAPIHandlers(
	service inbound.NutritionService,
	logger *zap.Logger,
) *APIHandlers {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &APIHandlers{
		service:  service,
		validate: validate,
		logger:   logger,
	}
}

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
}

// Routes mounts the nutrition endpoints on r
func (h *APIHandlers) Routes(r chi.Router) {
	r.Get("/ingredients", h.ListIngredients)
	r.Get("/categories", h.ListCategories)

	r.Route("/presets", func(r chi.Router) {
		r.Get("/", h.ListPresets)
		r.Get("/{id}", h.GetPreset)
		r.Get("/{id}/nutrition", h.PresetNutrition)
	})

	r.Post("/nutrition/calculate", h.Calculate)
	r.Post("/nutrition/recommendations", h.Recommend)
	r.Post("/recipes/mutate", h.MutateRecipe)
	r.Post("/recipes/export", h.ExportRecipe)
}

// ListIngredients handles GET /api/v1/ingredients
func (h *APIHandlers) ListIngredients(w http.ResponseWriter, r *http.Request) {
	category := strings.TrimSpace(r.URL.Query().Get("category"))

	ingredients, err := h.service.ListIngredients(r.Context(), category)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, APIResponse{
		Success: true,
		Data:    ingredients,
		Message: fmt.Sprintf("%d ingredients", len(ingredients)),
	})
}

// ListCategories handles GET /api/v1/categories
func (h *APIHandlers) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, APIResponse{Success: true, Data: categories})
}

// ListPresets handles GET /api/v1/presets
func (h *APIHandlers) ListPresets(w http.ResponseWriter, r *http.Request) {
	presets, err := h.service.ListPresets(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, APIResponse{Success: true, Data: presets})
}

// GetPreset handles GET /api/v1/presets/{id}
func (h *APIHandlers) GetPreset(w http.ResponseWriter, r *http.Request) {
	preset, err := h.service.GetPreset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, APIResponse{Success: true, Data: preset})
}

// PresetNutrition handles GET /api/v1/presets/{id}/nutrition
func (h *APIHandlers) PresetNutrition(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.CalculatePreset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, APIResponse{Success: true, Data: report})
}

// Calculate handles POST /api/v1/nutrition/calculate
func (h *APIHandlers) Calculate(w http.ResponseWriter, r *http.Request) {
	var cmd inbound.CalculateCommand
	if !h.bind(w, r, &cmd) {
		return
	}

	report, err := h.service.Calculate(r.Context(), cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, APIResponse{Success: true, Data: report})
}

// Recommend handles POST /api/v1/nutrition/recommendations
func (h *APIHandlers) Recommend(w http.ResponseWriter, r *http.Request) {
	var cmd inbound.CalculateCommand
	if !h.bind(w, r, &cmd) {
		return
	}

	recommendations, err := h.service.Recommend(r.Context(), cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, APIResponse{Success: true, Data: recommendations})
}

// MutateRecipe handles POST /api/v1/recipes/mutate
func (h *APIHandlers) MutateRecipe(w http.ResponseWriter, r *http.Request) {
	var cmd inbound.MutateRecipeCommand
	if !h.bind(w, r, &cmd) {
		return
	}

	report, err := h.service.MutateRecipe(r.Context(), cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, APIResponse{Success: true, Data: report})
}

// ExportRecipe handles POST /api/v1/recipes/export. The body is plain text.
func (h *APIHandlers) ExportRecipe(w http.ResponseWriter, r *http.Request) {
	var cmd inbound.CalculateCommand
	if !h.bind(w, r, &cmd) {
		return
	}

	text, err := h.service.ExportRecipe(r.Context(), cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="recipe.txt"`)
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, text); err != nil {
		logger.FromContext(r.Context(), h.logger).Warn("Failed to write export", zap.Error(err))
	}
}

// bind decodes and validates a JSON body, writing the error response on
// failure
func (h *APIHandlers) bind(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			h.writeJSON(w, r, http.StatusRequestEntityTooLarge, APIResponse{
				Error: "Request body too large",
				Code:  string(errors.CodeBadRequest),
			})
			return false
		}
		h.writeError(w, r, errors.NewBadRequestError("Invalid JSON body").WithCause(err))
		return false
	}

	if err := h.validate.Struct(dst); err != nil {
		h.writeError(w, r, validationError(err))
		return false
	}
	return true
}

func validationError(err error) *errors.AppError {
	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) {
		return errors.NewValidationError(err.Error())
	}

	details := make([]errors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := fe.Namespace()
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[i+1:]
		}
		details = append(details, errors.ValidationError{
			Field:   field,
			Value:   fe.Value(),
			Tag:     fe.Tag(),
			Message: fmt.Sprintf("%s failed on '%s'", field, fe.Tag()),
		})
	}
	return errors.NewValidationErrors(details)
}

// writeError maps an error onto the response envelope. Unknown errors are
// logged and reported as 500 without detail.
func (h *APIHandlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := errors.Wrap(err, "Request failed")
	status := appErr.StatusCode()

	log := logger.FromContext(r.Context(), h.logger)
	if status >= http.StatusInternalServerError {
		log.Error("Request failed", zap.Error(err), zap.String("code", string(appErr.Code)))
	} else {
		log.Debug("Request rejected", zap.Error(err))
	}

	response := APIResponse{
		Error: appErr.Message,
		Code:  string(appErr.Code),
	}
	if status < http.StatusInternalServerError {
		response.Message = appErr.Details
	}
	if fields, ok := appErr.Metadata["validation_errors"]; ok {
		response.Data = fields
	}

	h.writeJSON(w, r, status, response)
}

// writeJSON writes a JSON response
func (h *APIHandlers) writeJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.FromContext(r.Context(), h.logger).Error("Failed to encode JSON response", zap.Error(err))
	}
}
