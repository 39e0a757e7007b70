// Package testutils provides mock implementations for testing
package testutils

import (
	"context"
	"sync"
	"time"

	"github.com/alchemorsel/nutrilab/internal/domain/nutrition"
	"github.com/alchemorsel/nutrilab/internal/ports/inbound"
	"github.com/alchemorsel/nutrilab/internal/ports/outbound"
	"github.com/stretchr/testify/mock"
)

// MockReferenceRepository provides a mock implementation of ReferenceRepository
type MockReferenceRepository struct {
	mock.Mock
}

// LoadIngredients loads ingredient profiles
func (m *MockReferenceRepository) LoadIngredients(ctx context.Context) ([]nutrition.IngredientProfile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]nutrition.IngredientProfile), args.Error(1)
}

// LoadPresets loads presets
func (m *MockReferenceRepository) LoadPresets(ctx context.Context) ([]nutrition.Preset, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]nutrition.Preset), args.Error(1)
}

// MockCacheRepository provides a mock implementation of CacheRepository
// backed by a map, so tests can assert calls and still observe stored data
type MockCacheRepository struct {
	mock.Mock
	data map[string][]byte
	mu   sync.RWMutex
}

// NewMockCacheRepository creates a new mock cache repository
func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		data: make(map[string][]byte),
	}
}

// Get retrieves a value
func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if err := args.Error(1); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	if v := args.Get(0); v != nil {
		return v.([]byte), nil
	}
	return nil, outbound.ErrCacheMiss
}

// Set stores a value
func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	if args.Error(0) == nil {
		m.mu.Lock()
		m.data[key] = value
		m.mu.Unlock()
	}
	return args.Error(0)
}

// Delete removes a value
func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return args.Error(0)
}

// Exists reports whether a key is stored
func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	m.mu.RLock()
	_, ok := m.data[key]
	m.mu.RUnlock()
	return ok || args.Bool(0), args.Error(1)
}

// Keys returns the stored keys
func (m *MockCacheRepository) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for key := range m.data {
		keys = append(keys, key)
	}
	return keys
}

// MockNutritionService provides a mock implementation of NutritionService
type MockNutritionService struct {
	mock.Mock
}

// ListIngredients lists ingredients
func (m *MockNutritionService) ListIngredients(ctx context.Context, category string) ([]inbound.IngredientDTO, error) {
	args := m.Called(ctx, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inbound.IngredientDTO), args.Error(1)
}

// ListCategories lists categories
func (m *MockNutritionService) ListCategories(ctx context.Context) ([]inbound.CategoryDTO, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inbound.CategoryDTO), args.Error(1)
}

// ListPresets lists presets
func (m *MockNutritionService) ListPresets(ctx context.Context) ([]inbound.PresetDTO, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inbound.PresetDTO), args.Error(1)
}

// GetPreset returns a preset
func (m *MockNutritionService) GetPreset(ctx context.Context, presetID string) (*inbound.PresetDTO, error) {
	args := m.Called(ctx, presetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inbound.PresetDTO), args.Error(1)
}

// Calculate computes a report
func (m *MockNutritionService) Calculate(ctx context.Context, cmd inbound.CalculateCommand) (*inbound.NutritionReportDTO, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inbound.NutritionReportDTO), args.Error(1)
}

// CalculatePreset computes a preset report
func (m *MockNutritionService) CalculatePreset(ctx context.Context, presetID string) (*inbound.NutritionReportDTO, error) {
	args := m.Called(ctx, presetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inbound.NutritionReportDTO), args.Error(1)
}

// Recommend returns recommendations
func (m *MockNutritionService) Recommend(ctx context.Context, cmd inbound.CalculateCommand) ([]inbound.RecommendationDTO, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inbound.RecommendationDTO), args.Error(1)
}

// MutateRecipe applies operations
func (m *MockNutritionService) MutateRecipe(ctx context.Context, cmd inbound.MutateRecipeCommand) (*inbound.NutritionReportDTO, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inbound.NutritionReportDTO), args.Error(1)
}

// ExportRecipe renders export text
func (m *MockNutritionService) ExportRecipe(ctx context.Context, cmd inbound.CalculateCommand) (string, error) {
	args := m.Called(ctx, cmd)
	return args.String(0), args.Error(1)
}

var (
	_ outbound.ReferenceRepository = (*MockReferenceRepository)(nil)
	_ outbound.CacheRepository     = (*MockCacheRepository)(nil)
	_ inbound.NutritionService     = (*MockNutritionService)(nil)
)
