// Package container provides dependency injection using Uber FX
// This implements the Dependency Inversion Principle from SOLID
package container

import (
	"context"
	"fmt"
	"time"

	nutritionapp "github.com/alchemorsel/nutrilab/internal/application/nutrition"
	"github.com/alchemorsel/nutrilab/internal/infrastructure/config"
	"github.com/alchemorsel/nutrilab/internal/infrastructure/hotreload"
	"github.com/alchemorsel/nutrilab/internal/infrastructure/http/apiserver"
	"github.com/alchemorsel/nutrilab/internal/infrastructure/http/middleware"
	"github.com/alchemorsel/nutrilab/internal/infrastructure/monitoring"
	"github.com/alchemorsel/nutrilab/internal/infrastructure/persistence/database"
	gormRepo "github.com/alchemorsel/nutrilab/internal/infrastructure/persistence/gorm"
	"github.com/alchemorsel/nutrilab/internal/infrastructure/persistence/memory"
	redisRepo "github.com/alchemorsel/nutrilab/internal/infrastructure/persistence/redis"
	"github.com/alchemorsel/nutrilab/internal/infrastructure/persistence/seed"
	"github.com/alchemorsel/nutrilab/internal/ports/inbound"
	"github.com/alchemorsel/nutrilab/internal/ports/outbound"
	"github.com/alchemorsel/nutrilab/pkg/healthcheck"
	"github.com/alchemorsel/nutrilab/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module provides everything the API server needs
func Module(configPath string) fx.Option {
	return fx.Options(
		ConfigModule(configPath),
		CoreModule,
		HTTPModule,
		LifecycleModule,
	)
}

// CoreModule provides the nutrition service and its infrastructure. The
// CLI uses it without the HTTP server.
var CoreModule = fx.Options(
	LoggerModule,
	MonitoringModule,
	ReferenceModule,
	CacheModule,
	ServiceModule,
)

// ConfigModule provides configuration loaded from configPath, or from the
// default search paths when it is empty
func ConfigModule(configPath string) fx.Option {
	return fx.Provide(func() (*config.Config, error) {
		return config.Load(configPath)
	})
}

// LoggerModule provides logging
var LoggerModule = fx.Provide(
	func(cfg *config.Config) (*zap.Logger, error) {
		return logger.New(logger.Config{
			Level:       cfg.App.LogLevel,
			Format:      cfg.App.LogFormat,
			Development: cfg.App.Debug,
		})
	},
)

// MonitoringModule provides the metrics registry, collectors, tracing and
// the health check registry
var MonitoringModule = fx.Provide(
	NewRegistry,
	func(reg *prometheus.Registry) *monitoring.MetricsCollector {
		return monitoring.NewMetricsCollector(reg)
	},
	func(reg *prometheus.Registry) *healthcheck.HealthMetrics {
		return healthcheck.NewHealthMetrics(reg)
	},
	NewTracing,
	NewHealthCheck,
)

// ReferenceModule provides the nutrient reference data source
var ReferenceModule = fx.Provide(NewReferenceRepository)

// CacheModule provides the report cache
var CacheModule = fx.Provide(NewCacheRepository)

// ServiceModule provides application services and reloads file-backed
// reference data when it changes
var ServiceModule = fx.Options(
	fx.Provide(
		NewNutritionService,
		func(s *nutritionapp.NutritionService) inbound.NutritionService { return s },
	),
	fx.Invoke(WatchReferenceFiles),
)

// HTTPModule provides the HTTP server
var HTTPModule = fx.Provide(
	NewRateLimiter,
	NewAPIServer,
)

// LifecycleModule provides lifecycle hooks
var LifecycleModule = fx.Invoke(
	RegisterLifecycleHooks,
)

// NewRegistry creates a Prometheus registry with the Go runtime and
// process collectors
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// NewTracing configures OpenTelemetry and flushes spans on stop
func NewTracing(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*monitoring.TracingProvider, error) {
	tp, err := monitoring.NewTracingProvider(monitoring.TracingConfig{
		ServiceName:    cfg.App.Name,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		OTLPEndpoint:   cfg.Monitoring.OTLPEndpoint,
		Insecure:       cfg.Monitoring.OTLPInsecure,
		SamplingRate:   cfg.Monitoring.SamplingRate,
		Enabled:        cfg.Monitoring.EnableTracing,
	}, log)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{OnStop: tp.Shutdown})
	return tp, nil
}

// NewHealthCheck creates the health check registry. Checkers are
// registered by the components they probe.
func NewHealthCheck(cfg *config.Config, log *zap.Logger, metrics *healthcheck.HealthMetrics) *healthcheck.HealthCheck {
	h := healthcheck.New(cfg.App.Version, log)
	h.SetMetrics(metrics)
	return h
}

// NewReferenceRepository selects the reference data source. The database
// source opens the connection, optionally seeds it from the embedded data
// and registers a database health check.
func NewReferenceRepository(
	lc fx.Lifecycle,
	cfg *config.Config,
	log *zap.Logger,
	health *healthcheck.HealthCheck,
	metrics *monitoring.MetricsCollector,
) (outbound.ReferenceRepository, error) {
	switch cfg.Reference.Source {
	case config.ReferenceSourceEmbedded:
		log.Info("Using embedded reference data")
		return seed.NewEmbeddedRepository()

	case config.ReferenceSourceFile:
		log.Info("Using reference data files",
			zap.String("catalog", cfg.Reference.CatalogPath),
			zap.String("presets", cfg.Reference.PresetsPath),
		)
		return seed.NewFileRepository(cfg.Reference.CatalogPath, cfg.Reference.PresetsPath)

	case config.ReferenceSourceDatabase:
		db, err := database.Open(cfg.Database, log, database.WithQueryRecorder(metrics))
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{OnStop: func(ctx context.Context) error {
			return database.Close(db)
		}})

		repo := gormRepo.NewReferenceRepository(db)
		health.Register("database", healthcheck.NewDatabaseChecker(sqlDB))

		if cfg.Reference.SeedOnStart {
			embedded, err := seed.NewEmbeddedRepository()
			if err != nil {
				return nil, err
			}
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := database.Seed(ctx, repo, embedded, log); err != nil {
				return nil, fmt.Errorf("failed to seed reference data: %w", err)
			}
		}
		return repo, nil

	default:
		return nil, fmt.Errorf("unknown reference source %q", cfg.Reference.Source)
	}
}

// NewCacheRepository selects the report cache. A nil repository disables
// caching. Redis calls go through a circuit breaker whose state is
// exported as a health check and as metrics.
func NewCacheRepository(
	lc fx.Lifecycle,
	cfg *config.Config,
	log *zap.Logger,
	health *healthcheck.HealthCheck,
	metrics *healthcheck.HealthMetrics,
) (outbound.CacheRepository, error) {
	switch cfg.Cache.Provider {
	case config.CacheProviderNone:
		log.Info("Report cache disabled")
		return nil, nil

	case config.CacheProviderMemory:
		cache := memory.NewCacheRepository(cfg.Cache.CleanupInterval, memory.WithMaxEntries(cfg.Cache.MaxEntries))
		lc.Append(fx.Hook{OnStop: func(ctx context.Context) error {
			return cache.Close()
		}})
		log.Info("Using in-memory report cache", zap.Int("max_entries", cfg.Cache.MaxEntries))
		return cache, nil

	case config.CacheProviderRedis:
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		client, err := redisRepo.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{OnStop: func(ctx context.Context) error {
			return client.Close()
		}})

		breakerConfig := healthcheck.DefaultCircuitBreakerConfig()
		breakerConfig.OnStateChange = func(name string, from, to healthcheck.CircuitBreakerState) {
			metrics.OnStateChange(name, from, to)
			log.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to),
			)
		}
		breaker := healthcheck.NewCircuitBreaker("redis", breakerConfig)

		health.Register("redis", healthcheck.NewRedisChecker(client))
		health.Register("redis_breaker", healthcheck.NewCircuitChecker(breaker))

		return redisRepo.NewCacheRepository(client, cfg.Cache.KeyPrefix, breaker, log), nil

	default:
		return nil, fmt.Errorf("unknown cache provider %q", cfg.Cache.Provider)
	}
}

// NewNutritionService creates the nutrition service and registers its
// readiness check
func NewNutritionService(
	cfg *config.Config,
	log *zap.Logger,
	reference outbound.ReferenceRepository,
	cache outbound.CacheRepository,
	metrics *monitoring.MetricsCollector,
	health *healthcheck.HealthCheck,
) *nutritionapp.NutritionService {
	service := nutritionapp.NewNutritionService(reference, cache, nutritionapp.Options{
		CacheTTL: cfg.Cache.TTL,
		Metrics:  metrics,
	}, log)

	health.Register("reference", healthcheck.NewCustomChecker("reference",
		func(ctx context.Context) (healthcheck.Status, string, interface{}) {
			if err := service.Ready(ctx); err != nil {
				return healthcheck.StatusUnhealthy, err.Error(), nil
			}
			return healthcheck.StatusHealthy, "reference data loaded", nil
		},
	))

	return service
}

// reloadableReference is a reference source that can re-read its files
type reloadableReference interface {
	Paths() []string
	Reload() error
}

// WatchReferenceFiles reloads the file reference source and the service's
// catalog whenever the files change. It does nothing unless the file source
// is selected with watching enabled.
func WatchReferenceFiles(
	lc fx.Lifecycle,
	cfg *config.Config,
	log *zap.Logger,
	reference outbound.ReferenceRepository,
	service *nutritionapp.NutritionService,
) error {
	if cfg.Reference.Source != config.ReferenceSourceFile || !cfg.Reference.Watch {
		return nil
	}
	source, ok := reference.(reloadableReference)
	if !ok || len(source.Paths()) == 0 {
		return nil
	}

	watcher, err := hotreload.NewFileWatcher(source.Paths(),
		func(ctx context.Context, changed []string) error {
			if err := source.Reload(); err != nil {
				return fmt.Errorf("failed to re-read reference files: %w", err)
			}
			return service.Reload(ctx)
		},
		log.Named("reference-watcher"),
		hotreload.WithDebounce(cfg.Reference.WatchDebounce),
	)
	if err != nil {
		return err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			watcher.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return watcher.Stop()
		},
	})
	return nil
}

// NewRateLimiter creates the per-client rate limiter, or nil when rate
// limiting is disabled
func NewRateLimiter(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) *middleware.RateLimiter {
	if !cfg.RateLimit.Enable {
		return nil
	}
	limiter := middleware.NewRateLimiter(cfg.RateLimit, log)
	lc.Append(fx.Hook{OnStop: func(ctx context.Context) error {
		limiter.Stop()
		return nil
	}})
	return limiter
}

// NewAPIServer creates the HTTP server
func NewAPIServer(
	cfg *config.Config,
	log *zap.Logger,
	service inbound.NutritionService,
	health *healthcheck.HealthCheck,
	metrics *monitoring.MetricsCollector,
	reg *prometheus.Registry,
	limiter *middleware.RateLimiter,
) *apiserver.APIServer {
	return apiserver.NewAPIServer(cfg, log, apiserver.Dependencies{
		Service:     service,
		Health:      health,
		Metrics:     metrics,
		Gatherer:    reg,
		RateLimiter: limiter,
	})
}

// RegisterLifecycleHooks registers application lifecycle hooks
func RegisterLifecycleHooks(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	cfg *config.Config,
	log *zap.Logger,
	service *nutritionapp.NutritionService,
	server *apiserver.APIServer,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting nutrilab",
				zap.String("version", cfg.App.Version),
				zap.String("environment", cfg.App.Environment),
				zap.String("reference_source", cfg.Reference.Source),
				zap.String("cache_provider", cfg.Cache.Provider),
			)

			// Reference data is retried lazily and reported by /ready
			if err := service.Warmup(ctx); err != nil {
				log.Warn("Reference data not loaded at startup", zap.Error(err))
			}

			go func() {
				if err := server.Start(); err != nil {
					log.Error("HTTP server failed", zap.Error(err))
					_ = shutdowner.Shutdown()
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down nutrilab")

			shutdownCtx := ctx
			if cfg.Server.ShutdownTimeout > 0 {
				var cancel context.CancelFunc
				shutdownCtx, cancel = context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
				defer cancel()
			}
			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Error("Failed to shutdown HTTP server", zap.Error(err))
			}

			_ = log.Sync()
			return nil
		},
	})
}
