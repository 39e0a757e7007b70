// Package memory provides in-memory cache repository implementation
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/alchemorsel/nutrilab/internal/ports/outbound"
)

// DefaultTTL applies when Set is called with a zero TTL
const DefaultTTL = 24 * time.Hour

// CacheItem represents a cached item
type CacheItem struct {
	Value     []byte
	ExpiresAt time.Time
}

// CacheRepository implements in-memory cache repository
type CacheRepository struct {
	data  map[string]CacheItem
	mutex sync.RWMutex

	maxEntries int
	now        func() time.Time
	stop       chan struct{}
	stopOnce   sync.Once
}

// Option configures a CacheRepository
type Option func(*CacheRepository)

// WithMaxEntries bounds the number of stored keys. When full, expired
// entries are evicted first, then the entry closest to expiry.
func WithMaxEntries(n int) Option {
	return func(r *CacheRepository) {
		r.maxEntries = n
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(r *CacheRepository) {
		r.now = now
	}
}

// NewCacheRepository creates a new in-memory cache repository. The cleanup
// goroutine runs until Close is called.
func NewCacheRepository(cleanupInterval time.Duration, opts ...Option) *CacheRepository {
	repo := &CacheRepository{
		data: make(map[string]CacheItem),
		now:  time.Now,
		stop: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(repo)
	}

	if cleanupInterval > 0 {
		go repo.cleanup(cleanupInterval)
	}

	return repo
}

var _ outbound.CacheRepository = (*CacheRepository)(nil)

// Get retrieves a value from cache
func (r *CacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	r.mutex.RLock()
	item, exists := r.data[key]
	r.mutex.RUnlock()

	if !exists {
		return nil, outbound.ErrCacheMiss
	}

	if r.now().After(item.ExpiresAt) {
		r.evictIfExpired(key)
		return nil, outbound.ErrCacheMiss
	}

	return item.Value, nil
}

// Set stores a value in cache with TTL
func (r *CacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	stored := make([]byte, len(value))
	copy(stored, value)

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.data[key]; !exists && r.maxEntries > 0 && len(r.data) >= r.maxEntries {
		r.evictOneLocked()
	}

	r.data[key] = CacheItem{
		Value:     stored,
		ExpiresAt: r.now().Add(ttl),
	}

	return nil
}

// Delete removes a key from cache
func (r *CacheRepository) Delete(ctx context.Context, key string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	delete(r.data, key)
	return nil
}

// Exists checks if a key exists in cache
func (r *CacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	r.mutex.RLock()
	item, exists := r.data[key]
	r.mutex.RUnlock()

	if !exists {
		return false, nil
	}

	if r.now().After(item.ExpiresAt) {
		r.evictIfExpired(key)
		return false, nil
	}

	return true, nil
}

// Len returns the number of stored entries, including expired ones not yet
// collected
func (r *CacheRepository) Len() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.data)
}

// Close stops the cleanup goroutine
func (r *CacheRepository) Close() error {
	r.stopOnce.Do(func() {
		close(r.stop)
	})
	return nil
}

// evictIfExpired deletes key under the write lock if it is still expired;
// a concurrent Set may have refreshed it in between.
func (r *CacheRepository) evictIfExpired(key string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if item, ok := r.data[key]; ok && r.now().After(item.ExpiresAt) {
		delete(r.data, key)
	}
}

func (r *CacheRepository) evictOneLocked() {
	now := r.now()
	var (
		victim   string
		earliest time.Time
	)
	for key, item := range r.data {
		if now.After(item.ExpiresAt) {
			delete(r.data, key)
			return
		}
		if victim == "" || item.ExpiresAt.Before(earliest) {
			victim = key
			earliest = item.ExpiresAt
		}
	}
	delete(r.data, victim)
}

// cleanup removes expired items
func (r *CacheRepository) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.mutex.Lock()
			now := r.now()
			for key, item := range r.data {
				if now.After(item.ExpiresAt) {
					delete(r.data, key)
				}
			}
			r.mutex.Unlock()
		case <-r.stop:
			return
		}
	}
}
