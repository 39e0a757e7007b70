package testutils

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// IntegrationEnv enables tests that start Docker containers
const IntegrationEnv = "NUTRILAB_INTEGRATION"

// RequireIntegration skips the test unless container tests are enabled
func RequireIntegration(t *testing.T) {
	t.Helper()
	if testing.Short() || os.Getenv(IntegrationEnv) == "" {
		t.Skipf("set %s=1 to run container tests", IntegrationEnv)
	}
}

// PostgresConfig holds test database configuration
type PostgresConfig struct {
	Image    string
	Database string
	Username string
	Password string
}

// DefaultPostgresConfig returns the default test database configuration
func DefaultPostgresConfig() PostgresConfig {
	return PostgresConfig{
		Image:    "postgres:15-alpine",
		Database: "nutrilab_test",
		Username: "test_user",
		Password: "test_password",
	}
}

// PostgresContainer is a running PostgreSQL instance
type PostgresContainer struct {
	Container testcontainers.Container
	Config    PostgresConfig
	Host      string
	Port      int
}

// DSN returns a key/value connection string for the container
func (p *PostgresContainer) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		p.Host, p.Port, p.Config.Username, p.Config.Password, p.Config.Database)
}

// URL returns a postgres:// URL for the container
func (p *PostgresContainer) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		p.Config.Username, p.Config.Password, p.Host, p.Port, p.Config.Database)
}

// StartPostgres starts a PostgreSQL container that is terminated when the
// test finishes
func StartPostgres(t *testing.T) *PostgresContainer {
	t.Helper()
	RequireIntegration(t)
	cfg := DefaultPostgresConfig()
	ctx := context.Background()

	port := nat.Port("5432/tcp")
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        cfg.Image,
			ExposedPorts: []string{string(port)},
			Env: map[string]string{
				"POSTGRES_DB":       cfg.Database,
				"POSTGRES_USER":     cfg.Username,
				"POSTGRES_PASSWORD": cfg.Password,
			},
			WaitingFor: wait.ForAll(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second),
				wait.ForListeningPort(port),
			),
			Tmpfs: map[string]string{
				"/var/lib/postgresql/data": "rw",
			},
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start postgres container")
	terminateOnCleanup(t, container)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	mapped, err := container.MappedPort(ctx, port)
	require.NoError(t, err)

	return &PostgresContainer{
		Container: container,
		Config:    cfg,
		Host:      host,
		Port:      mapped.Int(),
	}
}

// StartRedis starts a Redis container and returns its host:port address
func StartRedis(t *testing.T) string {
	t.Helper()
	RequireIntegration(t)
	ctx := context.Background()

	port := nat.Port("6379/tcp")
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{string(port)},
			WaitingFor: wait.ForAll(
				wait.ForLog("Ready to accept connections"),
				wait.ForListeningPort(port),
			),
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start redis container")
	terminateOnCleanup(t, container)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	mapped, err := container.MappedPort(ctx, port)
	require.NoError(t, err)

	return fmt.Sprintf("%s:%s", host, mapped.Port())
}

func terminateOnCleanup(t *testing.T, container testcontainers.Container) {
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})
}
