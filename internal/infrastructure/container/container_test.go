package container

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alchemorsel/nutrilab/internal/infrastructure/config"
	"github.com/alchemorsel/nutrilab/internal/ports/inbound"
	"github.com/alchemorsel/nutrilab/internal/ports/outbound"
	"github.com/alchemorsel/nutrilab/pkg/healthcheck"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
)

func coreConfig(cacheProvider string) *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:      "nutrilab-test",
			Version:   "test",
			LogLevel:  "error",
			LogFormat: "json",
		},
		Reference: config.ReferenceConfig{Source: config.ReferenceSourceEmbedded},
		Cache: config.CacheConfig{
			Provider:        cacheProvider,
			TTL:             time.Minute,
			MaxEntries:      100,
			CleanupInterval: time.Minute,
		},
	}
}

func startCore(t *testing.T, cfg *config.Config, targets ...interface{}) {
	t.Helper()
	app := fx.New(
		fx.NopLogger,
		fx.Supply(cfg),
		CoreModule,
		fx.Populate(targets...),
	)
	require.NoError(t, app.Err())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, app.Start(ctx))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = app.Stop(ctx)
	})
}

func TestCoreModule_MemoryCache(t *testing.T) {
	var (
		service inbound.NutritionService
		cache   outbound.CacheRepository
		health  *healthcheck.HealthCheck
	)
	startCore(t, coreConfig(config.CacheProviderMemory), &service, &cache, &health)

	require.NotNil(t, cache)
	ctx := context.Background()

	report, err := service.CalculatePreset(ctx, "banana")
	require.NoError(t, err)
	assert.Equal(t, report.Preset.DeclaredGI, report.Nutrition.GlycemicIndex)

	// The second run is served from the cache and must be identical
	again, err := service.CalculatePreset(ctx, "banana")
	require.NoError(t, err)
	assert.Equal(t, report.Nutrition, again.Nutrition)

	health.SetCacheTTL(0)
	result := health.Check(ctx)
	assert.Equal(t, healthcheck.StatusHealthy, result.Status)
}

func TestCoreModule_CacheDisabled(t *testing.T) {
	var (
		service inbound.NutritionService
		cache   outbound.CacheRepository
	)
	startCore(t, coreConfig(config.CacheProviderNone), &service, &cache)

	assert.Nil(t, cache)

	presets, err := service.ListPresets(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, presets)
}

func TestCoreModule_UnknownReferenceSource(t *testing.T) {
	cfg := coreConfig(config.CacheProviderNone)
	cfg.Reference.Source = "ftp"

	var service inbound.NutritionService
	app := fx.New(
		fx.NopLogger,
		fx.Supply(cfg),
		CoreModule,
		fx.Populate(&service),
	)

	require.Error(t, app.Err())
	assert.Contains(t, app.Err().Error(), `unknown reference source "ftp"`)
}

func TestCoreModule_WatchesReferenceFiles(t *testing.T) {
	original, err := os.ReadFile(filepath.Join("..", "persistence", "seed", "catalog.yaml"))
	require.NoError(t, err)
	catalogPath := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(catalogPath, original, 0o600))

	cfg := coreConfig(config.CacheProviderMemory)
	cfg.Reference = config.ReferenceConfig{
		Source:        config.ReferenceSourceFile,
		CatalogPath:   catalogPath,
		Watch:         true,
		WatchDebounce: 20 * time.Millisecond,
	}

	var service inbound.NutritionService
	startCore(t, cfg, &service)
	ctx := context.Background()

	calories := func() float64 {
		ingredients, err := service.ListIngredients(ctx, "")
		require.NoError(t, err)
		for _, ing := range ingredients {
			if ing.ID == "oatmeal" {
				return ing.CaloriesPer100g
			}
		}
		t.Fatal("oatmeal missing from catalog")
		return 0
	}
	require.Equal(t, 350.0, calories())

	updated := strings.Replace(string(original), "calories: 350", "calories: 360", 1)
	require.NoError(t, os.WriteFile(catalogPath, []byte(updated), 0o600))

	assert.Eventually(t, func() bool { return calories() == 360 }, 3*time.Second, 20*time.Millisecond)
}

func TestModule_ServerLifecycle(t *testing.T) {
	cfg := coreConfig(config.CacheProviderMemory)
	cfg.Server = config.ServerConfig{Host: "127.0.0.1", Port: 0, ShutdownTimeout: time.Second}
	cfg.Monitoring = config.MonitoringConfig{
		EnableMetrics:   true,
		MetricsPath:     "/metrics",
		HealthCheckPath: "/health",
		ReadinessPath:   "/ready",
	}

	app := fx.New(
		fx.NopLogger,
		fx.Supply(cfg),
		CoreModule,
		HTTPModule,
		LifecycleModule,
	)
	require.NoError(t, app.Err())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, app.Start(ctx))
	assert.NoError(t, app.Stop(ctx))
}
