package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/internhub/internal/config"
	"github.com/rohankatakam/internhub/internal/github"
	"github.com/rohankatakam/internhub/internal/insights"
	"github.com/rohankatakam/internhub/internal/logging"
	"github.com/rohankatakam/internhub/internal/metrics"
	"github.com/rohankatakam/internhub/internal/models"
	"github.com/rohankatakam/internhub/internal/nlp"
	"github.com/rohankatakam/internhub/internal/report"
	"github.com/rohankatakam/internhub/internal/storage"
	"github.com/rohankatakam/internhub/internal/tasks"
	"github.com/rohankatakam/internhub/internal/testutil"
)

type nounTagger struct{}

func (nounTagger) Tag(text string) ([]nlp.Token, error) {
	var out []nlp.Token
	for _, f := range strings.Fields(text) {
		out = append(out, nlp.Token{Text: strings.Trim(f, ".,!"), Tag: "NN"})
	}
	return out, nil
}

type stubFetcher struct{}

func (stubFetcher) FetchRepository(ctx context.Context, owner, repo, author string, opts github.FetchOptions) (*github.RepoContributions, error) {
	return &github.RepoContributions{Repository: owner + "/" + repo, Author: author, CommitCount: 3, LinesAdded: 40, LinesDeleted: 4}, nil
}

func newTestRouter(t *testing.T) (http.Handler, *storage.SQLStore) {
	t.Helper()
	store := testutil.OpenTestStore(t)
	logger := logging.Discard()

	scorer, err := nlp.NewLexiconScorer()
	require.NoError(t, err)
	analyzer := nlp.NewAnalyzer(nounTagger{}, scorer, config.Default().NLP)

	mcfg := config.Default().Metrics
	mcfg.Repositories = []string{"acme/api"}
	contributions := metrics.NewService(store, stubFetcher{}, nil, mcfg, logger)
	summaries := nlp.NewSummaryService(store, analyzer, logger)
	completion := tasks.NewCalculator(store, logger)
	insightSvc := insights.NewService(store, contributions, summaries, completion, logger)

	router := NewRouter(Services{
		Users:         store,
		Contributions: contributions,
		Summaries:     summaries,
		Analyzer:      analyzer,
		Completion:    completion,
		Insights:      insightSvc,
		Reports:       report.NewGenerator(insightSvc),
	}, false, logger)
	return router, store
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealthz(t *testing.T) {
	h, _ := newTestRouter(t)
	rec := do(t, h, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUsers(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/api/users", map[string]interface{}{
		"name": "Alice", "email": "alice@example.com", "role": "Intern",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decode(t, rec)["id"].(string)

	rec = do(t, h, http.MethodPost, "/api/users", map[string]interface{}{
		"name": "Alice again", "email": "alice@example.com", "role": "Intern",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/users", map[string]interface{}{
		"name": "Bob", "email": "bob@example.com", "role": "Wizard",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPut, "/api/users/"+id+"/github-username", map[string]interface{}{"githubUsername": " alice-dev "})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "alice-dev", decode(t, rec)["githubUsername"])

	rec = do(t, h, http.MethodPut, "/api/users/"+id+"/github-username", map[string]interface{}{"githubUsername": "-bad name"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPut, "/api/users/missing/github-username", map[string]interface{}{"githubUsername": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/users/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "user missing not found", decode(t, rec)["error"])
}

func TestInternEndpoints(t *testing.T) {
	h, store := newTestRouter(t)
	intern := testutil.CreateIntern(t, store, "cara", "cara")
	mentor := testutil.CreateMentor(t, store, "dev")
	evaluation := testutil.AddFeedback(t, store, intern.ID, mentor.ID, "Great testing and clean docs", time.Hour)
	testutil.AddProjectTasks(t, store, intern.ID, models.TaskStatusDone, models.TaskStatusTodo, models.TaskStatusTodo, models.TaskStatusDone)
	base := "/api/interns/" + intern.ID

	rec := do(t, h, http.MethodGet, base+"/insights", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	gh := body["github"].(map[string]interface{})
	assert.Equal(t, float64(3), gh["totalCommits"])
	assert.Equal(t, "available", gh["status"])
	assert.Equal(t, "Positive", body["nlp"].(map[string]interface{})["sentimentScore"])
	assert.Equal(t, float64(50), body["tasks"].(map[string]interface{})["completionRate"])
	assert.Equal(t, float64(0), body["evaluationsDue"])

	rec = do(t, h, http.MethodGet, base+"/github-metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(40), decode(t, rec)["totals"].(map[string]interface{})["totalAdditions"])

	rec = do(t, h, http.MethodGet, base+"/github-metrics/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode(t, rec)["records"].([]interface{})
	require.Len(t, history, 1, "the cached record is reused, not appended")
	assert.Equal(t, "acme/api", history[0].(map[string]interface{})["repository"])

	rec = do(t, h, http.MethodGet, "/api/interns/nobody/github-metrics/history", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/evaluations/"+evaluation.ID+"/nlp-summary", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, evaluation.ID, decode(t, rec)["evaluationId"])

	rec = do(t, h, http.MethodPost, "/api/evaluations/missing/nlp-summary", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPost, base+"/nlp-summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, h, http.MethodGet, base+"/nlp-summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode(t, rec)["summary"].(map[string]interface{})
	assert.Equal(t, summary["overallSentiment"], summary["sentimentScore"])

	rec = do(t, h, http.MethodGet, base+"/task-completion", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(4), decode(t, rec)["total"])

	rec = do(t, h, http.MethodGet, base+"/report?format=html", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "<h1>Intern report: cara</h1>")

	rec = do(t, h, http.MethodGet, base+"/report?format=pdf", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, base+"/review-draft", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestInsights_UnknownIntern(t *testing.T) {
	h, store := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/api/interns/nobody/insights", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	count, err := store.CountSummaries(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestAnalyzeEndpoint(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/api/nlp/analyze", map[string]interface{}{"text": "   "})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "N/A", body["sentimentLabel"])
	assert.Equal(t, []interface{}{}, body["keyThemes"])

	rec = do(t, h, http.MethodPost, "/api/nlp/analyze", map[string]interface{}{"text": "terrible bugs everywhere", "topK": 2})
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, "Negative", body["sentimentLabel"])
	assert.Len(t, body["keyThemes"], 2)

	rec = do(t, h, http.MethodPost, "/api/nlp/analyze", map[string]interface{}{"text": "x", "topK": 500})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
