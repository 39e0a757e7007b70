package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alchemorsel/nutrilab/internal/ports/outbound"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestRepo(t *testing.T, opts ...Option) (*CacheRepository, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	repo := NewCacheRepository(0, append([]Option{WithClock(clock.Now)}, opts...)...)
	t.Cleanup(func() { _ = repo.Close() })
	return repo, clock
}

func TestCacheRepository_SetGet(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	value := []byte("report")
	require.NoError(t, repo.Set(ctx, "k", value, time.Minute))
	value[0] = 'X'

	got, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("report"), got)

	exists, err := repo.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCacheRepository_Miss(t *testing.T) {
	repo, _ := newTestRepo(t)

	_, err := repo.Get(context.Background(), "missing")

	assert.ErrorIs(t, err, outbound.ErrCacheMiss)
}

func TestCacheRepository_Expiry(t *testing.T) {
	ctx := context.Background()
	repo, clock := newTestRepo(t)

	require.NoError(t, repo.Set(ctx, "short", []byte("a"), time.Second))
	require.NoError(t, repo.Set(ctx, "default", []byte("b"), 0))

	clock.Advance(2 * time.Second)

	_, err := repo.Get(ctx, "short")
	assert.ErrorIs(t, err, outbound.ErrCacheMiss)
	exists, err := repo.Exists(ctx, "short")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, 1, repo.Len())

	clock.Advance(DefaultTTL)
	_, err = repo.Get(ctx, "default")
	assert.ErrorIs(t, err, outbound.ErrCacheMiss)
}

func TestCacheRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	require.NoError(t, repo.Set(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, repo.Delete(ctx, "k"))
	require.NoError(t, repo.Delete(ctx, "never-set"))

	_, err := repo.Get(ctx, "k")
	assert.ErrorIs(t, err, outbound.ErrCacheMiss)
}

func TestCacheRepository_MaxEntries(t *testing.T) {
	ctx := context.Background()
	repo, clock := newTestRepo(t, WithMaxEntries(2))

	require.NoError(t, repo.Set(ctx, "first", []byte("1"), time.Minute))
	clock.Advance(time.Second)
	require.NoError(t, repo.Set(ctx, "second", []byte("2"), time.Minute))
	clock.Advance(time.Second)
	require.NoError(t, repo.Set(ctx, "third", []byte("3"), time.Minute))

	assert.Equal(t, 2, repo.Len())
	_, err := repo.Get(ctx, "first")
	assert.ErrorIs(t, err, outbound.ErrCacheMiss)

	// overwriting an existing key does not evict
	require.NoError(t, repo.Set(ctx, "third", []byte("3b"), time.Minute))
	assert.Equal(t, 2, repo.Len())
}

func TestCacheRepository_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	repo := NewCacheRepository(time.Millisecond)
	defer repo.Close()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("key-%d", j%10)
				_ = repo.Set(ctx, key, []byte{byte(worker)}, time.Millisecond)
				_, _ = repo.Get(ctx, key)
				_, _ = repo.Exists(ctx, key)
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, repo.Len(), 10)
}

func TestCacheRepository_CloseIsIdempotent(t *testing.T) {
	repo := NewCacheRepository(time.Minute)

	assert.NoError(t, repo.Close())
	assert.NoError(t, repo.Close())
}
