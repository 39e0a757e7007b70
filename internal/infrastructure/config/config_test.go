package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "app:\n  name: NutriLab\n"))

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, ReferenceSourceEmbedded, cfg.Reference.Source)
	assert.Equal(t, CacheProviderMemory, cfg.Cache.Provider)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/metrics", cfg.Monitoring.MetricsPath)
	assert.True(t, cfg.RateLimit.Enable)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "localhost:6379", cfg.RedisAddr())
}

func TestLoad_FileOverrides(t *testing.T) {
	path := writeConfig(t, `
app:
  environment: production
server:
  port: 9000
reference:
  source: database
database:
  driver: postgres
  host: db
  database: nutrition
  username: app
  password: secret
cache:
  provider: redis
  ttl: 30s
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, ReferenceSourceDatabase, cfg.Reference.Source)
	assert.Equal(t, CacheProviderRedis, cfg.Cache.Provider)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Equal(t, "host=db port=5432 user=app password=secret dbname=nutrition sslmode=disable", cfg.Database.DSN())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("NUTRILAB_SERVER_PORT", "7070")
	t.Setenv("NUTRILAB_CACHE_PROVIDER", "none")

	cfg, err := Load(writeConfig(t, "{}\n"))

	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, CacheProviderNone, cfg.Cache.Provider)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))

	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			App:        AppConfig{Name: "NutriLab"},
			Server:     ServerConfig{Port: 8080},
			Reference:  ReferenceConfig{Source: ReferenceSourceEmbedded},
			Database:   DatabaseConfig{Driver: "sqlite", Path: "x.db"},
			Cache:      CacheConfig{Provider: CacheProviderMemory},
			Monitoring: MonitoringConfig{SamplingRate: 0.5},
			RateLimit:  RateLimitConfig{Enable: true, RequestsPerMin: 60},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing name", mutate: func(c *Config) { c.App.Name = "" }, wantErr: "app.name"},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: "server.port"},
		{name: "bad source", mutate: func(c *Config) { c.Reference.Source = "s3" }, wantErr: "reference.source"},
		{
			name:    "file source without path",
			mutate:  func(c *Config) { c.Reference.Source = ReferenceSourceFile },
			wantErr: "reference.catalog_path",
		},
		{
			name: "database source with unknown driver",
			mutate: func(c *Config) {
				c.Reference.Source = ReferenceSourceDatabase
				c.Database.Driver = "mysql"
			},
			wantErr: "database.driver",
		},
		{name: "bad cache", mutate: func(c *Config) { c.Cache.Provider = "memcached" }, wantErr: "cache.provider"},
		{name: "bad sampling", mutate: func(c *Config) { c.Monitoring.SamplingRate = 2 }, wantErr: "sampling_rate"},
		{name: "zero rate limit", mutate: func(c *Config) { c.RateLimit.RequestsPerMin = 0 }, wantErr: "rate_limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			err := cfg.Validate()

			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
