// Package database opens the reference-data database and prepares its schema
package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alchemorsel/nutrilab/internal/infrastructure/config"
	gormModels "github.com/alchemorsel/nutrilab/internal/infrastructure/persistence/gorm"
	"github.com/alchemorsel/nutrilab/internal/infrastructure/persistence/migrations"
	"github.com/alchemorsel/nutrilab/internal/ports/outbound"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Option configures Open
type Option func(*options)

type options struct {
	recorder QueryRecorder
	monitor  **QueryMonitor
}

// WithQueryRecorder forwards per-statement timings to r
func WithQueryRecorder(r QueryRecorder) Option {
	return func(o *options) { o.recorder = r }
}

// WithQueryMonitor stores the installed query monitor in m
func WithQueryMonitor(m **QueryMonitor) Option {
	return func(o *options) { o.monitor = m }
}

// Open connects to the configured database, applies pool settings and, when
// AutoMigrate is set, brings the schema up to date. SQLite uses GORM
// auto-migration; PostgreSQL runs the embedded SQL migrations.
func Open(cfg config.DatabaseConfig, log *zap.Logger, opts ...Option) (*gorm.DB, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	gormConfig := &gorm.Config{
		Logger: logger.New(zapWriter{logger: log.Named("gorm")}, logger.Config{
			SlowThreshold:             cfg.SlowQueryThreshold,
			LogLevel:                  LogLevel(cfg.LogLevel),
			IgnoreRecordNotFoundError: true,
		}),
	}

	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Driver {
	case "sqlite":
		path := cfg.Path
		// Use in-memory database if no path provided
		if path == "" {
			path = ":memory:"
		}
		db, err = gorm.Open(sqlite.Open(path), gormConfig)
	case "postgres":
		db, err = gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	configurePool(sqlDB, cfg)

	monitor := NewQueryMonitor(log.Named("query-monitor"), cfg.SlowQueryThreshold, o.recorder)
	if err := db.Use(monitor); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to install query monitor: %w", err)
	}
	if o.monitor != nil {
		*o.monitor = monitor
	}

	if cfg.AutoMigrate {
		if err := Migrate(db, cfg, log); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
	}

	log.Info("Database connected",
		zap.String("driver", cfg.Driver),
		zap.Bool("auto_migrate", cfg.AutoMigrate),
	)

	return db, nil
}

// Migrate creates or updates the reference tables
func Migrate(db *gorm.DB, cfg config.DatabaseConfig, log *zap.Logger) error {
	if cfg.Driver != "postgres" {
		if err := db.AutoMigrate(&gormModels.IngredientModel{}, &gormModels.PresetModel{}); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		return nil
	}

	// The migrator closes the handle it is given, so it gets its own
	migrationDB, err := sql.Open("pgx", cfg.DSN())
	if err != nil {
		return fmt.Errorf("failed to open migration connection: %w", err)
	}
	migrator, err := migrations.New(migrationDB, cfg.Database, log)
	if err != nil {
		_ = migrationDB.Close()
		return err
	}
	defer func() {
		if err := migrator.Close(); err != nil {
			log.Warn("Failed to close migrator", zap.Error(err))
		}
	}()

	return migrator.Up()
}

// Seed copies the reference data from source into an empty store. It is a
// no-op when the store already holds ingredients.
func Seed(ctx context.Context, store outbound.ReferenceWriter, source outbound.ReferenceRepository, log *zap.Logger) error {
	count, err := store.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		log.Debug("Reference data already seeded", zap.Int64("ingredients", count))
		return nil
	}

	profiles, err := source.LoadIngredients(ctx)
	if err != nil {
		return fmt.Errorf("failed to load seed ingredients: %w", err)
	}
	presets, err := source.LoadPresets(ctx)
	if err != nil {
		return fmt.Errorf("failed to load seed presets: %w", err)
	}

	if err := store.SaveIngredients(ctx, profiles); err != nil {
		return err
	}
	if err := store.SavePresets(ctx, presets); err != nil {
		return err
	}

	log.Info("Reference data seeded",
		zap.Int("ingredients", len(profiles)),
		zap.Int("presets", len(presets)),
	)
	return nil
}

// LogLevel maps a configured level name to a GORM log level
func LogLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

func configurePool(db *sql.DB, cfg config.DatabaseConfig) {
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
}

// Close closes the underlying connection pool
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
