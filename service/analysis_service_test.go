package service

import (
	"context"
	"testing"
	"time"

	"github.com/devspace/skills-analyzer/cache"
	"github.com/devspace/skills-analyzer/config"
	"github.com/devspace/skills-analyzer/limiter"
	"github.com/devspace/skills-analyzer/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAnalyzer counts calls and returns a fixed result or error
type stubAnalyzer struct {
	calls     int
	languages []model.LanguageStat
	err       error
}

func (s *stubAnalyzer) AnalyzeUserLanguages(_ context.Context, _ string) ([]model.LanguageStat, error) {
	s.calls++

	if s.err != nil {
		return nil, s.err
	}

	return s.languages, nil
}

func newTestAnalysisService(analyzer *stubAnalyzer, store cache.Store) (*analysisService, *time.Time) {
	current := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	svc := NewAnalysisService(
		*config.GetDefault(),
		analyzer,
		store,
		limiter.NewFixedWindow(10, time.Minute),
	).(*analysisService)

	svc.now = func() time.Time { return current }
	return svc, &current
}

// TestAnalyzeCachesResult will test that a second call within the ttl is a cache hit
func TestAnalyzeCachesResult(t *testing.T) {
	analyzer := &stubAnalyzer{
		languages: []model.LanguageStat{
			{Name: "TypeScript", Bytes: 1000, Percentage: 83.3},
			{Name: "CSS", Bytes: 200, Percentage: 16.7},
		},
	}

	svc, _ := newTestAnalysisService(analyzer, cache.NewMemoryStore())

	first, err := svc.Analyze(context.Background(), "10.0.0.1", "devuser")
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, analyzer.languages, first.Skills)

	second, err := svc.Analyze(context.Background(), "10.0.0.1", "devuser")
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Skills, second.Skills)

	assert.Equal(t, 1, analyzer.calls, "the second call must not reach the aggregator")
}

// TestAnalyzeCacheKeyCaseInsensitive will test that Alice and alice share one record
func TestAnalyzeCacheKeyCaseInsensitive(t *testing.T) {
	analyzer := &stubAnalyzer{languages: []model.LanguageStat{{Name: "Go", Bytes: 10, Percentage: 100}}}
	svc, _ := newTestAnalysisService(analyzer, cache.NewMemoryStore())

	first, err := svc.Analyze(context.Background(), "10.0.0.1", "Alice")
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := svc.Analyze(context.Background(), "10.0.0.1", "alice")
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, 1, analyzer.calls)
}

// TestAnalyzeStaleRecordIsRecomputed will test that records past the ttl trigger a recompute
func TestAnalyzeStaleRecordIsRecomputed(t *testing.T) {
	analyzer := &stubAnalyzer{languages: []model.LanguageStat{{Name: "Go", Bytes: 10, Percentage: 100}}}
	store := cache.NewMemoryStore()
	svc, current := newTestAnalysisService(analyzer, store)

	require.NoError(t, store.Upsert(context.Background(), model.CacheRecord{
		Username:  "devuser",
		Languages: []model.LanguageStat{{Name: "Java", Bytes: 5, Percentage: 100}},
		CachedAt:  current.Add(-25 * time.Hour),
	}))

	result, err := svc.Analyze(context.Background(), "10.0.0.1", "devuser")
	require.NoError(t, err)
	assert.False(t, result.Cached)
	assert.Equal(t, analyzer.languages, result.Skills)
	assert.Equal(t, 1, analyzer.calls)

	// the recomputed record replaced the stale one
	record, err := store.Get(context.Background(), "devuser")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, analyzer.languages, record.Languages)
	assert.True(t, record.CachedAt.Equal(*current))
}

// TestAnalyzeFailedRefreshKeepsStaleRecord will test that a failed recompute does not evict the cache
func TestAnalyzeFailedRefreshKeepsStaleRecord(t *testing.T) {
	analyzer := &stubAnalyzer{err: model.ErrFetch}
	store := cache.NewMemoryStore()
	svc, current := newTestAnalysisService(analyzer, store)

	staleLanguages := []model.LanguageStat{{Name: "Java", Bytes: 5, Percentage: 100}}

	require.NoError(t, store.Upsert(context.Background(), model.CacheRecord{
		Username:  "devuser",
		Languages: staleLanguages,
		CachedAt:  current.Add(-25 * time.Hour),
	}))

	_, err := svc.Analyze(context.Background(), "10.0.0.1", "devuser")
	assert.ErrorIs(t, err, model.ErrFetch)

	// the stale record is untouched, not served and not evicted
	record, err := store.Get(context.Background(), "devuser")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, staleLanguages, record.Languages)
}

// TestAnalyzeRateLimited will test the per-caller limit
func TestAnalyzeRateLimited(t *testing.T) {
	analyzer := &stubAnalyzer{languages: []model.LanguageStat{}}
	svc, _ := newTestAnalysisService(analyzer, cache.NewMemoryStore())

	for i := 0; i < 10; i++ {
		_, err := svc.Analyze(context.Background(), "10.0.0.1", "devuser")
		require.NoError(t, err)
	}

	_, err := svc.Analyze(context.Background(), "10.0.0.1", "devuser")
	assert.ErrorIs(t, err, model.ErrRateLimited)

	// another caller identity is unaffected
	_, err = svc.Analyze(context.Background(), "10.0.0.2", "devuser")
	assert.NoError(t, err)
}

// TestAnalyzeInvalidInput will test input validation
func TestAnalyzeInvalidInput(t *testing.T) {
	analyzer := &stubAnalyzer{}
	svc, _ := newTestAnalysisService(analyzer, cache.NewMemoryStore())

	for _, input := range []string{"", "   ", "https://gitlab.com/someone", "not a user"} {
		_, err := svc.Analyze(context.Background(), "10.0.0.1", input)
		assert.ErrorIs(t, err, model.ErrInvalidUsername, "input %q", input)
	}

	assert.Equal(t, 0, analyzer.calls)
}

// TestAnalyzeAcceptsProfileURL will test that a profile URL resolves to its handle
func TestAnalyzeAcceptsProfileURL(t *testing.T) {
	analyzer := &stubAnalyzer{languages: []model.LanguageStat{{Name: "Go", Bytes: 10, Percentage: 100}}}
	store := cache.NewMemoryStore()
	svc, _ := newTestAnalysisService(analyzer, store)

	result, err := svc.Analyze(context.Background(), "10.0.0.1", "https://github.com/DevUser")
	require.NoError(t, err)
	assert.False(t, result.Cached)

	record, err := store.Get(context.Background(), "devuser")
	require.NoError(t, err)
	assert.NotNil(t, record, "the cache key is the lowercased extracted handle")
}
