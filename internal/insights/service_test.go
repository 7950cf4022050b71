package insights

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/internhub/internal/config"
	apperrors "github.com/rohankatakam/internhub/internal/errors"
	"github.com/rohankatakam/internhub/internal/github"
	"github.com/rohankatakam/internhub/internal/logging"
	"github.com/rohankatakam/internhub/internal/metrics"
	"github.com/rohankatakam/internhub/internal/models"
	"github.com/rohankatakam/internhub/internal/nlp"
	"github.com/rohankatakam/internhub/internal/storage"
	"github.com/rohankatakam/internhub/internal/tasks"
	"github.com/rohankatakam/internhub/internal/testutil"
)

type wordTagger struct{}

func (wordTagger) Tag(text string) ([]nlp.Token, error) {
	var out []nlp.Token
	for _, f := range strings.Fields(text) {
		out = append(out, nlp.Token{Text: strings.Trim(f, ".,"), Tag: "NN"})
	}
	return out, nil
}

type countingFetcher struct {
	calls int
}

func (f *countingFetcher) FetchRepository(ctx context.Context, owner, repo, author string, opts github.FetchOptions) (*github.RepoContributions, error) {
	f.calls++
	return &github.RepoContributions{Repository: owner + "/" + repo, CommitCount: 2, LinesAdded: 30, LinesDeleted: 5}, nil
}

type harness struct {
	store   *storage.SQLStore
	fetcher *countingFetcher
	svc     *Service
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := testutil.OpenTestStore(t)
	logger := logging.Discard()

	scorer, err := nlp.NewLexiconScorer()
	require.NoError(t, err)
	analyzer := nlp.NewAnalyzer(wordTagger{}, scorer, config.Default().NLP)

	fetcher := &countingFetcher{}
	mcfg := config.Default().Metrics
	mcfg.Repositories = []string{"acme/api", "acme/web"}

	svc := NewService(store,
		metrics.NewService(store, fetcher, nil, mcfg, logger),
		nlp.NewSummaryService(store, analyzer, logger),
		tasks.NewCalculator(store, logger),
		logger)
	return &harness{store: store, fetcher: fetcher, svc: svc}
}

func TestGetInsights_FullIntern(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	intern := testutil.CreateIntern(t, h.store, "alice", "alice")
	mentor := testutil.CreateMentor(t, h.store, "bea")

	// acme/api is cached and fresh, acme/web is a miss
	require.NoError(t, h.store.InsertMetrics(ctx, &models.MetricsRecord{
		InternID: intern.ID, Repository: "acme/api", FetchDate: time.Now().UTC().Add(-5 * time.Minute),
		CommitCount: 7, LinesAdded: 70, LinesDeleted: 7,
	}))
	testutil.AddFeedback(t, h.store, intern.ID, mentor.ID, "Excellent code reviews", time.Hour)
	require.NoError(t, h.store.CreateEvaluation(ctx, &models.Evaluation{
		InternID: intern.ID, EvaluatorID: mentor.ID, Type: models.EvaluationTypeMentor,
	}))
	testutil.AddProjectTasks(t, h.store, intern.ID, models.TaskStatusDone, models.TaskStatusTodo)

	result, err := h.svc.GetInsights(ctx, intern.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, h.fetcher.calls)
	assert.Equal(t, StatusAvailable, result.GitHub.Status)
	assert.Equal(t, metrics.Totals{TotalCommits: 9, TotalAdditions: 100, TotalDeletions: 12}, result.GitHub.Totals)

	assert.Equal(t, StatusAvailable, result.NLP.Status)
	assert.Equal(t, nlp.LabelPositive, result.NLP.SentimentScore)
	assert.Contains(t, result.NLP.KeyThemes, "code")

	assert.Equal(t, StatusAvailable, result.Tasks.Status)
	assert.Equal(t, 2, result.Tasks.Total)
	assert.InDelta(t, 50.0, result.Tasks.CompletionRate, 1e-9)

	assert.Equal(t, 1, result.EvaluationsDue)
}

func TestGetInsights_NoFeedbackNoGitHub(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	intern := testutil.CreateIntern(t, h.store, "carl", "")

	result, err := h.svc.GetInsights(ctx, intern.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusUnavailable, result.GitHub.Status)
	assert.Zero(t, result.GitHub.TotalCommits)
	assert.Zero(t, h.fetcher.calls)

	placeholder := nlp.PlaceholderSummary()
	assert.Equal(t, placeholder.SentimentScore, result.NLP.SentimentScore)
	assert.Equal(t, placeholder.KeyThemes, result.NLP.KeyThemes)
	assert.Equal(t, placeholder.SentimentSummary, result.NLP.SentimentSummary)

	// every placeholder key survives into the nlp section, empty collections included
	want := jsonKeys(t, placeholder)
	got := jsonKeys(t, result.NLP)
	for key, value := range want {
		require.Contains(t, got, key)
		assert.JSONEq(t, string(value), string(got[key]), key)
	}

	count, err := h.store.CountSummaries(ctx, intern.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	assert.Equal(t, TaskSection{Status: StatusAvailable}, result.Tasks)
}

func jsonKeys(t *testing.T, v interface{}) map[string]json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	var out map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestGetInsights_UnknownIntern(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.GetInsights(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))

	count, err := h.store.CountSummaries(context.Background(), "missing")
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Zero(t, h.fetcher.calls)
}

type fakeStore struct {
	user *models.User
	due  int
}

func (f *fakeStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	if f.user == nil || f.user.ID != id {
		return nil, storage.ErrNotFound
	}
	return f.user, nil
}

func (f *fakeStore) CountPendingEvaluations(ctx context.Context, internID string) (int, error) {
	return f.due, nil
}

type failingSources struct{}

func (failingSources) FetchContributions(ctx context.Context, internID string) ([]*models.MetricsRecord, error) {
	return nil, apperrors.ExternalError(errors.New("timeout"), "github unavailable")
}

func (failingSources) GenerateAndStoreSummary(ctx context.Context, internID string) (*models.NlpSummary, error) {
	return nil, apperrors.InternalError(errors.New("tagger crashed"), "analyze feedback")
}

func (failingSources) CompletionRate(ctx context.Context, internID string) (*tasks.Completion, error) {
	return nil, apperrors.DatabaseError(errors.New("connection reset"), "load tasks")
}

func TestGetInsights_SectionsFailIndependently(t *testing.T) {
	gh := "dora"
	store := &fakeStore{user: &models.User{ID: "i1", Name: "Dora", GitHubUsername: &gh}, due: 3}
	svc := NewService(store, failingSources{}, failingSources{}, failingSources{}, logging.Discard())

	result, err := svc.GetInsights(context.Background(), "i1")
	require.NoError(t, err)

	assert.Equal(t, StatusError, result.GitHub.Status)
	assert.Equal(t, "github unavailable", result.GitHub.Error)
	assert.Zero(t, result.GitHub.TotalCommits)

	assert.Equal(t, StatusError, result.NLP.Status)
	assert.Equal(t, "N/A", result.NLP.SentimentScore)
	assert.Equal(t, []string{}, result.NLP.KeyThemes)

	assert.Equal(t, StatusError, result.Tasks.Status)
	assert.Equal(t, "internal server error", result.Tasks.Error)
	assert.Zero(t, result.Tasks.CompletionRate)

	assert.Equal(t, 3, result.EvaluationsDue)
}

func TestResult_JSONShape(t *testing.T) {
	result := &Result{
		GitHub: GitHubSection{Totals: metrics.Totals{TotalCommits: 1}, Status: StatusAvailable},
		NLP:    nlpFallback("boom"),
		Tasks:  TaskSection{Total: 2, Completed: 1, CompletionRate: 50, Status: StatusAvailable},
	}
	raw, err := json.Marshal(result)
	require.NoError(t, err)

	var top map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &top))
	doc := map[string]map[string]interface{}{}
	for _, key := range []string{"github", "nlp", "tasks"} {
		var section map[string]interface{}
		require.NoError(t, json.Unmarshal(top[key], &section))
		doc[key] = section
	}

	assert.Contains(t, doc["github"], "totalCommits")
	assert.Contains(t, doc["github"], "totalAdditions")
	assert.Contains(t, doc["github"], "totalDeletions")
	assert.Contains(t, doc["nlp"], "sentimentScore")
	assert.Contains(t, doc["nlp"], "keyThemes")
	assert.Contains(t, doc["nlp"], "keywords")
	assert.Equal(t, []interface{}{}, doc["nlp"]["sentimentTimeline"])
	assert.Equal(t, map[string]interface{}{}, doc["nlp"]["emotions"])
	assert.Contains(t, doc["tasks"], "completionRate")
	assert.Contains(t, top, "evaluationsDue")
}
