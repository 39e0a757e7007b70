// Package apiserver provides OpenAPI documentation handling
package apiserver

import (
	"embed"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed openapi.yaml
var openAPISpec embed.FS

// OpenAPIHandler serves the API description
type OpenAPIHandler struct {
	logger   *zap.Logger
	spec     []byte
	specJSON []byte
}

// NewOpenAPIHandler loads the embedded document and pre-renders its JSON form
func NewOpenAPIHandler(logger *zap.Logger) *OpenAPIHandler {
	h := &OpenAPIHandler{logger: logger}

	specData, err := openAPISpec.ReadFile("openapi.yaml")
	if err != nil {
		logger.Error("Failed to read OpenAPI spec", zap.Error(err))
		return h
	}
	h.spec = specData

	var doc map[string]interface{}
	if err := yaml.Unmarshal(specData, &doc); err != nil {
		logger.Error("Failed to parse OpenAPI spec", zap.Error(err))
		return h
	}
	if h.specJSON, err = json.Marshal(doc); err != nil {
		logger.Error("Failed to render OpenAPI spec as JSON", zap.Error(err))
	}

	return h
}

// ServeOpenAPISpec serves the OpenAPI specification in YAML format
func (h *OpenAPIHandler) ServeOpenAPISpec(w http.ResponseWriter, r *http.Request) {
	if len(h.spec) == 0 {
		http.Error(w, "OpenAPI spec not available", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/x-yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.spec)
}

// ServeOpenAPIJSON serves the OpenAPI specification in JSON format
func (h *OpenAPIHandler) ServeOpenAPIJSON(w http.ResponseWriter, r *http.Request) {
	if len(h.specJSON) == 0 {
		http.Error(w, "OpenAPI spec not available", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.specJSON)
}
