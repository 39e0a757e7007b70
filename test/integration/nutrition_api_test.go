// Package integration provides API integration tests against real
// PostgreSQL and Redis containers
//go:build integration
// +build integration

package integration

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alchemorsel/nutrilab/internal/infrastructure/config"
	"github.com/alchemorsel/nutrilab/internal/infrastructure/container"
	"github.com/alchemorsel/nutrilab/internal/infrastructure/http/apiserver"
	"github.com/alchemorsel/nutrilab/test/testutils"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/fx"
)

// NutritionAPITestSuite runs the HTTP API over the database reference
// source and the Redis report cache
type NutritionAPITestSuite struct {
	suite.Suite
	app    *fx.App
	server *httptest.Server
	redis  *redis.Client
	config *config.Config
	http   *testutils.HTTPAssertions
	ctx    context.Context
}

// SetupSuite starts the containers and the application
func (suite *NutritionAPITestSuite) SetupSuite() {
	suite.ctx = context.Background()
	t := suite.T()

	pg := testutils.StartPostgres(t)
	redisAddr := testutils.StartRedis(t)
	redisHost, redisPortText, err := net.SplitHostPort(redisAddr)
	require.NoError(t, err)
	redisPort, err := strconv.Atoi(redisPortText)
	require.NoError(t, err)

	suite.config = &config.Config{
		App: config.AppConfig{Name: "nutrilab-integration", Version: "test", LogLevel: "error"},
		Server: config.ServerConfig{
			WriteTimeout: 10 * time.Second,
			MaxBodyBytes: 1 << 20,
		},
		Reference: config.ReferenceConfig{
			Source:      config.ReferenceSourceDatabase,
			SeedOnStart: true,
		},
		Database: config.DatabaseConfig{
			Driver:      "postgres",
			Host:        pg.Host,
			Port:        pg.Port,
			Database:    pg.Config.Database,
			Username:    pg.Config.Username,
			Password:    pg.Config.Password,
			SSLMode:     "disable",
			LogLevel:    "silent",
			AutoMigrate: true,
		},
		Cache: config.CacheConfig{
			Provider:  config.CacheProviderRedis,
			TTL:       time.Minute,
			KeyPrefix: "nutrilab-it:",
		},
		Redis: config.RedisConfig{
			Host:         redisHost,
			Port:         redisPort,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			PoolSize:     5,
		},
		Monitoring: config.MonitoringConfig{
			EnableMetrics:   true,
			MetricsPath:     "/metrics",
			HealthCheckPath: "/health",
			ReadinessPath:   "/ready",
		},
	}

	var server *apiserver.APIServer
	suite.app = fx.New(
		fx.NopLogger,
		fx.Supply(suite.config),
		container.CoreModule,
		container.HTTPModule,
		fx.Populate(&server),
	)
	require.NoError(t, suite.app.Err())
	require.NoError(t, suite.app.Start(suite.ctx))

	suite.server = httptest.NewServer(server.Handler())
	suite.redis = redis.NewClient(&redis.Options{Addr: redisAddr})
	suite.http = testutils.NewHTTPAssertions(t)
}

// TearDownSuite stops the application
func (suite *NutritionAPITestSuite) TearDownSuite() {
	if suite.server != nil {
		suite.server.Close()
	}
	if suite.redis != nil {
		_ = suite.redis.Close()
	}
	if suite.app != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = suite.app.Stop(ctx)
	}
}

func (suite *NutritionAPITestSuite) get(path string) *http.Response {
	resp, err := http.Get(suite.server.URL + path)
	require.NoError(suite.T(), err)
	suite.T().Cleanup(func() { resp.Body.Close() })
	return resp
}

func (suite *NutritionAPITestSuite) post(path, body string) *http.Response {
	resp, err := http.Post(suite.server.URL+path, "application/json", strings.NewReader(body))
	require.NoError(suite.T(), err)
	suite.T().Cleanup(func() { resp.Body.Close() })
	return resp
}

func (suite *NutritionAPITestSuite) TestReadiness() {
	resp := suite.get("/ready")
	suite.http.StatusCode(resp, http.StatusOK)

	var body struct {
		Status string `json:"status"`
		Checks []struct {
			Name   string `json:"name"`
			Status string `json:"status"`
		} `json:"checks"`
	}
	suite.http.JSONResponse(resp, &body)

	names := make([]string, 0, len(body.Checks))
	for _, c := range body.Checks {
		names = append(names, c.Name)
		assert.Equal(suite.T(), "healthy", c.Status, c.Name)
	}
	assert.Subset(suite.T(), names, []string{"database", "redis", "reference"})
}

func (suite *NutritionAPITestSuite) TestSeededPresets() {
	resp := suite.get("/api/v1/presets")
	suite.http.StatusCode(resp, http.StatusOK)

	var envelope struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	suite.http.JSONResponse(resp, &envelope)
	require.NotEmpty(suite.T(), envelope.Data)

	resp = suite.get("/api/v1/presets/banana/nutrition")
	suite.http.StatusCode(resp, http.StatusOK)

	var report struct {
		Data struct {
			Nutrition struct {
				GlycemicIndex int `json:"glycemic_index"`
			} `json:"nutrition"`
			Preset struct {
				DeclaredGI int `json:"declared_gi"`
			} `json:"preset"`
		} `json:"data"`
	}
	suite.http.JSONResponse(resp, &report)
	assert.Equal(suite.T(), report.Data.Preset.DeclaredGI, report.Data.Nutrition.GlycemicIndex)
}

func (suite *NutritionAPITestSuite) TestCalculateIsCachedInRedis() {
	body := `{"lines":[{"ingredient_id":"oatmeal","amount_grams":40},{"ingredient_id":"kinako","amount_grams":15}]}`

	first := suite.post("/api/v1/nutrition/calculate", body)
	suite.http.StatusCode(first, http.StatusOK)
	suite.http.SecurityHeaders(first)
	var a map[string]json.RawMessage
	suite.http.JSONResponse(first, &a)

	keys, err := suite.redis.Keys(suite.ctx, suite.config.Cache.KeyPrefix+"*").Result()
	require.NoError(suite.T(), err)
	assert.NotEmpty(suite.T(), keys)

	second := suite.post("/api/v1/nutrition/calculate", body)
	suite.http.StatusCode(second, http.StatusOK)
	var b map[string]json.RawMessage
	suite.http.JSONResponse(second, &b)

	assert.JSONEq(suite.T(), string(a["data"]), string(b["data"]))
}

func (suite *NutritionAPITestSuite) TestErrors() {
	suite.http.ErrorCode(suite.get("/api/v1/presets/unknown"), "PRESET_NOT_FOUND")

	resp := suite.post("/api/v1/recipes/mutate", `{"operations":[{"op":"add","ingredient_id":"unobtainium"}]}`)
	suite.http.StatusCode(resp, http.StatusNotFound)
}

func TestNutritionAPITestSuite(t *testing.T) {
	suite.Run(t, new(NutritionAPITestSuite))
}
