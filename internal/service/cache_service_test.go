package service

import (
	"context"
	"errors"
	"path"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/result-ledger-api/internal/models"
	appErrors "github.com/noah-isme/result-ledger-api/pkg/errors"
)

type memoryCache struct {
	entries  map[string]interface{}
	getErr   error
	patterns []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string]interface{}{}}
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	if m.getErr != nil {
		return m.getErr
	}
	value, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	switch d := dest.(type) {
	case *models.GradesMap:
		*d = value.(models.GradesMap)
	case *models.MarkLedger:
		*d = value.(models.MarkLedger)
	case *models.GradeLedger:
		*d = value.(models.GradeLedger)
	case *int:
		*d = value.(int)
	default:
		return errors.New("unsupported cache type")
	}
	return nil
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.entries[key] = value
	return nil
}

func (m *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.patterns = append(m.patterns, pattern)
	for key := range m.entries {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.entries, key)
		}
	}
	return nil
}

func TestCacheKeys(t *testing.T) {
	scope := models.ResultScope{SchoolID: "s1", AcademicYear: "2081", Grade: 11}
	assert.Equal(t, "grades:s1:2081:11", GradesKey(scope))
	assert.Equal(t, "grades:s1:2081:11:ledger:marks", LedgerKey(scope, models.LedgerModeMarks))
}

func TestCachedLoadsOnceAndInvalidatesBySchool(t *testing.T) {
	repo := newMemoryCache()
	cache := NewCacheService(repo, NewMetricsService(), time.Minute, nil, true)
	ctx := context.Background()

	loads := 0
	load := func() (int, error) {
		loads++
		return 42, nil
	}

	value, hit, err := cached(ctx, cache, "grades:s1:2081:11", load)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 42, value)

	value, hit, err = cached(ctx, cache, "grades:s1:2081:11", load)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 42, value)
	assert.Equal(t, 1, loads)

	repo.entries["grades:s2:2081:11"] = 7
	cache.InvalidateSchool(ctx, "s1")
	assert.NotContains(t, repo.entries, "grades:s1:2081:11")
	assert.Contains(t, repo.entries, "grades:s2:2081:11")
}

func TestCachedFallsBackOnCacheError(t *testing.T) {
	repo := newMemoryCache()
	repo.getErr = errors.New("redis down")
	cache := NewCacheService(repo, nil, 0, nil, true)

	value, hit, err := cached(context.Background(), cache, "k", func() (int, error) { return 1, nil })
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 1, value)
}

func TestCacheServiceDisabled(t *testing.T) {
	repo := newMemoryCache()
	cache := NewCacheService(repo, nil, 0, nil, false)
	require.NoError(t, cache.Set(context.Background(), "k", 1, 0))
	assert.Empty(t, repo.entries)

	hit, err := cache.Get(context.Background(), "k", new(int))
	require.NoError(t, err)
	assert.False(t, hit)
}
