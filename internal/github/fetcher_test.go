package github

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/rohankatakam/internhub/internal/errors"
	"github.com/rohankatakam/internhub/internal/logging"
)

type fakeAPI struct {
	mu        sync.Mutex
	commits   []CommitSummary
	stats     map[string]CommitStats
	listErr   error
	statsErr  error
	statCalls int
}

func (f *fakeAPI) ListAuthorCommits(ctx context.Context, owner, repo, author string, since time.Time) ([]CommitSummary, error) {
	return f.commits, f.listErr
}

func (f *fakeAPI) GetCommitStats(ctx context.Context, owner, repo, sha string) (CommitStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statCalls++
	if f.statsErr != nil {
		return CommitStats{}, f.statsErr
	}
	return f.stats[sha], nil
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		commits: []CommitSummary{{SHA: "a"}, {SHA: "b"}, {SHA: "c"}},
		stats: map[string]CommitStats{
			"a": {Additions: 10, Deletions: 1},
			"b": {Additions: 5, Deletions: 5},
			"c": {Additions: 0, Deletions: 2},
		},
	}
}

func TestFetchRepository_WithLineStats(t *testing.T) {
	api := newFakeAPI()
	fetcher := NewFetcher(api, NewMemoryStatsCache(time.Hour), logging.Discard())

	got, err := fetcher.FetchRepository(context.Background(), "acme", "api", "alice", FetchOptions{LineStats: true, Concurrency: 2})
	require.NoError(t, err)
	assert.Equal(t, "acme/api", got.Repository)
	assert.Equal(t, 3, got.CommitCount)
	assert.Equal(t, 15, got.LinesAdded)
	assert.Equal(t, 8, got.LinesDeleted)
	assert.Equal(t, 3, api.statCalls)

	// Second fetch is served from the stats cache
	_, err = fetcher.FetchRepository(context.Background(), "acme", "api", "alice", FetchOptions{LineStats: true})
	require.NoError(t, err)
	assert.Equal(t, 3, api.statCalls)

	snapshot := got.Snapshot()
	assert.Equal(t, "alice", snapshot["author"])
	assert.Len(t, snapshot["commits"], 3)
}

func TestFetchRepository_WithoutLineStats(t *testing.T) {
	api := newFakeAPI()
	fetcher := NewFetcher(api, nil, logging.Discard())

	got, err := fetcher.FetchRepository(context.Background(), "acme", "api", "alice", FetchOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, got.CommitCount)
	assert.Zero(t, got.LinesAdded)
	assert.Zero(t, api.statCalls)
}

func TestFetchRepository_Errors(t *testing.T) {
	api := newFakeAPI()
	api.listErr = apperrors.NotFound("repository acme/api not found")
	fetcher := NewFetcher(api, nil, logging.Discard())

	_, err := fetcher.FetchRepository(context.Background(), "acme", "api", "alice", FetchOptions{LineStats: true})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))

	api = newFakeAPI()
	api.statsErr = apperrors.InternalError(nil, "boom")
	fetcher = NewFetcher(api, nil, logging.Discard())
	_, err = fetcher.FetchRepository(context.Background(), "acme", "api", "alice", FetchOptions{LineStats: true})
	assert.Error(t, err)
}

func TestStatsCaches(t *testing.T) {
	dir := t.TempDir()
	bolt, err := NewBoltStatsCache(filepath.Join(dir, "stats.db"))
	require.NoError(t, err)

	caches := map[string]StatsCache{
		"memory": NewMemoryStatsCache(0),
		"bolt":   bolt,
	}
	for name, cache := range caches {
		t.Run(name, func(t *testing.T) {
			defer cache.Close()
			key := StatsKey("acme/api", "abc")

			_, ok := cache.Get(key)
			assert.False(t, ok)

			require.NoError(t, cache.Set(key, CommitStats{Additions: 3, Deletions: 1}))
			got, ok := cache.Get(key)
			require.True(t, ok)
			assert.Equal(t, CommitStats{Additions: 3, Deletions: 1}, got)

			_, ok = cache.Get(StatsKey("acme/api", "def"))
			assert.False(t, ok)
		})
	}
}

func TestBoltStatsCache_SetReportsWriteErrors(t *testing.T) {
	cache, err := NewBoltStatsCache(filepath.Join(t.TempDir(), "stats.db"))
	require.NoError(t, err)
	require.NoError(t, cache.Close())

	err = cache.Set(StatsKey("acme/api", "abc"), CommitStats{Additions: 1})
	assert.Error(t, err)
	_, ok := cache.Get(StatsKey("acme/api", "abc"))
	assert.False(t, ok)
}
