package redis

import (
	"context"
	"errors"
	"time"

	"github.com/alchemorsel/nutrilab/internal/ports/outbound"
	apperrors "github.com/alchemorsel/nutrilab/pkg/errors"
	"github.com/alchemorsel/nutrilab/pkg/healthcheck"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CacheRepository implements outbound.CacheRepository on Redis. Calls go
// through a circuit breaker so an unreachable server fails fast; a cache
// miss is not a failure.
type CacheRepository struct {
	client  redis.UniversalClient
	prefix  string
	breaker *healthcheck.CircuitBreaker
	logger  *zap.Logger
}

// NewCacheRepository creates a Redis cache repository. Keys are stored
// under prefix. breaker may be nil.
func NewCacheRepository(client redis.UniversalClient, prefix string, breaker *healthcheck.CircuitBreaker, logger *zap.Logger) *CacheRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheRepository{
		client:  client,
		prefix:  prefix,
		breaker: breaker,
		logger:  logger.Named("redis-cache"),
	}
}

var _ outbound.CacheRepository = (*CacheRepository)(nil)

// Get retrieves a value from cache
func (r *CacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	miss := false
	err := r.execute(func() error {
		var err error
		data, err = r.client.Get(ctx, r.key(key)).Bytes()
		if errors.Is(err, redis.Nil) {
			miss = true
			return nil
		}
		return err
	})
	if err != nil {
		r.logger.Debug("Cache get failed", zap.String("key", key), zap.Error(err))
		return nil, err
	}
	if miss {
		return nil, outbound.ErrCacheMiss
	}
	return data, nil
}

// Set stores a value in cache with TTL. A zero TTL stores without expiry.
func (r *CacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := r.execute(func() error {
		return r.client.Set(ctx, r.key(key), value, ttl).Err()
	})
	if err != nil {
		r.logger.Error("Cache set failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

// Delete removes a value from cache
func (r *CacheRepository) Delete(ctx context.Context, key string) error {
	err := r.execute(func() error {
		return r.client.Del(ctx, r.key(key)).Err()
	})
	if err != nil {
		r.logger.Error("Cache delete failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

// Exists checks if a key exists in cache
func (r *CacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	var n int64
	err := r.execute(func() error {
		var err error
		n, err = r.client.Exists(ctx, r.key(key)).Result()
		return err
	})
	if err != nil {
		r.logger.Error("Cache exists check failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
	return n > 0, nil
}

func (r *CacheRepository) key(key string) string {
	return r.prefix + key
}

func (r *CacheRepository) execute(fn func() error) error {
	if r.breaker == nil {
		return fn()
	}
	err := r.breaker.Execute(fn)
	if errors.Is(err, healthcheck.ErrCircuitOpen) {
		return apperrors.NewExternalServiceError("redis", err)
	}
	return err
}
