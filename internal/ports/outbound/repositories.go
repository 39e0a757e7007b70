// Package outbound defines the interfaces for outbound ports (secondary/driven adapters)
// These are the interfaces that the application uses to interact with external systems
package outbound

import (
	"context"
	"errors"
	"time"

	"github.com/alchemorsel/nutrilab/internal/domain/nutrition"
)

// ErrCacheMiss is returned by CacheRepository.Get for absent or expired keys
var ErrCacheMiss = errors.New("cache miss")

// ReferenceRepository supplies the nutrient reference data.
// It is read once at startup; the engine never writes through it.
type ReferenceRepository interface {
	// LoadIngredients returns every ingredient profile in catalog order
	LoadIngredients(ctx context.Context) ([]nutrition.IngredientProfile, error)
	// LoadPresets returns the preset recipes in display order
	LoadPresets(ctx context.Context) ([]nutrition.Preset, error)
}

// ReferenceWriter seeds reference data into a backing store
type ReferenceWriter interface {
	SaveIngredients(ctx context.Context, profiles []nutrition.IngredientProfile) error
	SavePresets(ctx context.Context, presets []nutrition.Preset) error
	Count(ctx context.Context) (int64, error)
}

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
