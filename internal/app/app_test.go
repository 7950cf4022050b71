package app

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/internhub/internal/config"
	"github.com/rohankatakam/internhub/internal/github"
	"github.com/rohankatakam/internhub/internal/logging"
	"github.com/rohankatakam/internhub/internal/nlp"
	"github.com/rohankatakam/internhub/internal/testutil"
)

type nounTagger struct{}

func (nounTagger) Tag(text string) ([]nlp.Token, error) {
	var out []nlp.Token
	for _, f := range strings.Fields(text) {
		out = append(out, nlp.Token{Text: f, Tag: "NN"})
	}
	return out, nil
}

type oneCommitAPI struct{}

func (oneCommitAPI) ListAuthorCommits(ctx context.Context, owner, repo, author string, since time.Time) ([]github.CommitSummary, error) {
	return []github.CommitSummary{{SHA: "abc"}}, nil
}

func (oneCommitAPI) GetCommitStats(ctx context.Context, owner, repo, sha string) (github.CommitStats, error) {
	return github.CommitStats{Additions: 10, Deletions: 2}, nil
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Storage.LocalPath = ":memory:"
	cfg.Metrics.Repositories = []string{"acme/api"}
	cfg.Cache.StatsBackend = "none"
	return cfg
}

func TestNew_WiresServices(t *testing.T) {
	ctx := context.Background()
	scorer, err := nlp.NewLexiconScorer()
	require.NoError(t, err)
	analyzer := nlp.NewAnalyzer(nounTagger{}, scorer, config.Default().NLP)

	a, err := New(ctx, testConfig(), logging.Discard(), Options{Analyzer: analyzer, GitHub: oneCommitAPI{}})
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.Redis)
	assert.False(t, a.LLM.IsEnabled())

	intern := testutil.CreateIntern(t, a.Store, "alice", "alice")
	result, err := a.Insights.GetInsights(ctx, intern.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.GitHub.TotalCommits)
	assert.Equal(t, 10, result.GitHub.TotalAdditions)

	svc := a.Services()
	assert.NotNil(t, svc.Drafts)
	assert.Same(t, a.Analyzer, svc.Analyzer)

	scheduler, err := a.Scheduler()
	require.NoError(t, err)
	stats, err := scheduler.RefreshAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Interns)
}

func TestNew_BadStatsBackend(t *testing.T) {
	cfg := testConfig()
	cfg.Cache.StatsBackend = "memcached"
	_, err := New(context.Background(), cfg, logging.Discard(), Options{GitHub: oneCommitAPI{}})
	assert.Error(t, err)
}
