package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCacheServiceRoundTripAndMetrics(t *testing.T) {
	repo := newFakeCacheRepo()
	metrics := NewMetricsService()
	cache := NewCacheService(repo, metrics, time.Minute, zap.NewNop(), true)

	var out []string
	hit, err := cache.Get(context.Background(), "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, cache.Set(context.Background(), "k", []string{"a"}, 0))
	hit, err = cache.Get(context.Background(), "k", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"a"}, out)

	snapshot := metrics.Snapshot()
	assert.Equal(t, uint64(1), snapshot.CacheHits)
	assert.Equal(t, uint64(1), snapshot.CacheMisses)
}

func TestCacheServiceDisabledIsNoop(t *testing.T) {
	repo := newFakeCacheRepo()
	cache := NewCacheService(repo, nil, 0, zap.NewNop(), false)

	require.NoError(t, cache.Set(context.Background(), "k", "v", 0))
	assert.Equal(t, 0, repo.size())

	var nilCache *CacheService
	hit, err := nilCache.Get(context.Background(), "k", new(string))
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, nilCache.Invalidate(context.Background(), "k*"))
}

func TestCacheServiceSurfacesBackendErrors(t *testing.T) {
	repo := newFakeCacheRepo()
	repo.err = errors.New("redis down")
	cache := NewCacheService(repo, nil, 0, zap.NewNop(), true)

	hit, err := cache.Get(context.Background(), "k", new(string))
	assert.Error(t, err)
	assert.False(t, hit)
}
