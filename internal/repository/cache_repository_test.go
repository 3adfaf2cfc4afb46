package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/teachers-portal-api/pkg/errors"
)

func TestCacheRepositoryWithoutClientDegrades(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	var dest map[string]string
	assert.ErrorIs(t, repo.Get(ctx, "report:weekly:2026-10-18", &dest), appErrors.ErrCacheMiss)
	require.NoError(t, repo.Set(ctx, "report:weekly:2026-10-18", map[string]string{"a": "b"}, time.Minute))
	require.NoError(t, repo.Delete(ctx, "report:weekly:2026-10-18"))

	ok, err := repo.Lock(ctx, "run:2026-10-18", "run-a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, repo.Unlock(ctx, "run:2026-10-18", "run-a"))
	assert.NoError(t, repo.Close())
}

func TestLockKeyPrefix(t *testing.T) {
	assert.Equal(t, "lock:run:2026-10-18", lockKey("run:2026-10-18"))
}

func newRedisCacheRepository(t *testing.T) (*CacheRepository, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCacheRepository(client, nil), srv
}

func TestCacheRepositoryRoundTrip(t *testing.T) {
	repo, srv := newRedisCacheRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "report:weekly:2026-10-18", map[string]int{"total": 5}, time.Minute))
	assert.Equal(t, time.Minute, srv.TTL("report:weekly:2026-10-18"))

	var dest map[string]int
	require.NoError(t, repo.Get(ctx, "report:weekly:2026-10-18", &dest))
	assert.Equal(t, 5, dest["total"])

	require.NoError(t, repo.Delete(ctx, "report:weekly:2026-10-18"))
	assert.ErrorIs(t, repo.Get(ctx, "report:weekly:2026-10-18", &dest), appErrors.ErrCacheMiss)
}

func TestCacheRepositoryLockIsHeldUntilReleased(t *testing.T) {
	repo, srv := newRedisCacheRepository(t)
	ctx := context.Background()

	ok, err := repo.Lock(ctx, "run:2026-10-18", "run-a", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "run-a", mustGet(t, srv, "lock:run:2026-10-18"))

	ok, err = repo.Lock(ctx, "run:2026-10-18", "run-b", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Unlock(ctx, "run:2026-10-18", "run-a"))
	assert.False(t, srv.Exists("lock:run:2026-10-18"))
}

func TestCacheRepositoryUnlockKeepsAnotherHoldersLock(t *testing.T) {
	repo, srv := newRedisCacheRepository(t)
	ctx := context.Background()

	ok, err := repo.Lock(ctx, "run:2026-10-18", "run-a", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	// run-a outlives its TTL and run-b takes over
	srv.FastForward(2 * time.Minute)
	ok, err = repo.Lock(ctx, "run:2026-10-18", "run-b", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	err = repo.Unlock(ctx, "run:2026-10-18", "run-a")
	assert.ErrorIs(t, err, ErrLockNotHeld)
	assert.Equal(t, "run-b", mustGet(t, srv, "lock:run:2026-10-18"))

	require.NoError(t, repo.Unlock(ctx, "run:2026-10-18", "run-b"))
	assert.False(t, srv.Exists("lock:run:2026-10-18"))
}

func mustGet(t *testing.T, srv *miniredis.Miniredis, key string) string {
	t.Helper()
	value, err := srv.Get(key)
	require.NoError(t, err)
	return value
}
