package nlp

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/rohankatakam/internhub/internal/errors"
	"github.com/rohankatakam/internhub/internal/logging"
	"github.com/rohankatakam/internhub/internal/testutil"
)

func TestGenerateAndStoreSummary_NoFeedback(t *testing.T) {
	store := testutil.OpenTestStore(t)
	ctx := context.Background()
	intern := testutil.CreateIntern(t, store, "gail", "")
	analyzer, tagger := newTestAnalyzer(t, nil)
	svc := NewSummaryService(store, analyzer, logging.Discard())

	summary, err := svc.GenerateAndStoreSummary(ctx, intern.ID)
	require.NoError(t, err)
	assert.Nil(t, summary.EvaluationID)
	assert.Equal(t, LabelNone, summary.SentimentLabel)
	assert.Equal(t, PlaceholderSummary(), summary.Summary)
	assert.Equal(t, int32(0), tagger.calls.Load())

	count, err := store.CountSummaries(ctx, intern.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestGenerateAndStoreSummary_UpdatesInPlace(t *testing.T) {
	store := testutil.OpenTestStore(t)
	ctx := context.Background()
	intern := testutil.CreateIntern(t, store, "hana", "hana")
	mentor := testutil.CreateMentor(t, store, "ivan")
	testutil.AddFeedback(t, store, intern.ID, mentor.ID, "Great code", 48*time.Hour)
	testutil.AddFeedback(t, store, intern.ID, mentor.ID, "Bad tests", time.Hour)

	analyzer, _ := newTestAnalyzer(t, nil)
	svc := NewSummaryService(store, analyzer, logging.Discard())

	first, err := svc.GenerateAndStoreSummary(ctx, intern.ID)
	require.NoError(t, err)
	second, err := svc.GenerateAndStoreSummary(ctx, intern.ID)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "same aggregate row")
	count, err := store.CountSummaries(ctx, intern.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	s := second.Summary
	assert.Equal(t, s.OverallSentiment, s.SentimentScore)
	assert.Equal(t, s.Keywords, s.KeyThemes)
	assert.Equal(t, []string(second.Keywords), s.KeyThemes)
	assert.Contains(t, s.KeyThemes, "code")
	assert.Contains(t, s.SentimentSummary, "2 evaluations")

	// timeline is oldest first
	require.Len(t, s.SentimentTimeline, 2)
	assert.Equal(t, LabelPositive, s.SentimentTimeline[0].Sentiment)
	assert.Equal(t, LabelNegative, s.SentimentTimeline[1].Sentiment)
}

func TestGenerateAndStoreSummary_NewestFeedbackFirst(t *testing.T) {
	store := testutil.OpenTestStore(t)
	ctx := context.Background()
	intern := testutil.CreateIntern(t, store, "ivy", "")
	mentor := testutil.CreateMentor(t, store, "jay")
	// inserted oldest first so storage order differs from recency order
	testutil.AddFeedback(t, store, intern.ID, mentor.ID, "Architecture", 72*time.Hour)
	testutil.AddFeedback(t, store, intern.ID, mentor.ID, "Testing", time.Hour)

	analyzer, _ := newTestAnalyzer(t, nil)
	svc := NewSummaryService(store, analyzer, logging.Discard())

	summary, err := svc.GenerateAndStoreSummary(ctx, intern.ID)
	require.NoError(t, err)

	// equal frequencies keep corpus order, so the newer evaluation's term leads
	assert.Equal(t, []string{"testing", "architecture"}, summary.Summary.KeyThemes)
	assert.Equal(t, []string{"testing", "architecture"}, []string(summary.Keywords))
}

func TestGenerateAndStoreSummary_Concurrent(t *testing.T) {
	store := testutil.OpenTestStore(t)
	ctx := context.Background()
	intern := testutil.CreateIntern(t, store, "jon", "")
	mentor := testutil.CreateMentor(t, store, "kim")
	testutil.AddFeedback(t, store, intern.ID, mentor.ID, "Excellent progress", time.Hour)

	analyzer, _ := newTestAnalyzer(t, nil)
	svc := NewSummaryService(store, analyzer, logging.Discard())

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.GenerateAndStoreSummary(ctx, intern.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	count, err := store.CountSummaries(ctx, intern.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestGenerateAndStoreSummary_UnknownIntern(t *testing.T) {
	store := testutil.OpenTestStore(t)
	analyzer, _ := newTestAnalyzer(t, nil)
	svc := NewSummaryService(store, analyzer, logging.Discard())

	_, err := svc.GenerateAndStoreSummary(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))

	count, err := store.CountSummaries(context.Background(), "missing")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestAnalyzeEvaluation(t *testing.T) {
	store := testutil.OpenTestStore(t)
	ctx := context.Background()
	intern := testutil.CreateIntern(t, store, "lee", "")
	mentor := testutil.CreateMentor(t, store, "max")
	evaluation := testutil.AddFeedback(t, store, intern.ID, mentor.ID, "Helpful reviews", time.Hour)

	analyzer, _ := newTestAnalyzer(t, nil)
	svc := NewSummaryService(store, analyzer, logging.Discard())

	summary, err := svc.AnalyzeEvaluation(ctx, evaluation.ID)
	require.NoError(t, err)
	require.NotNil(t, summary.EvaluationID)
	assert.Equal(t, evaluation.ID, *summary.EvaluationID)
	assert.Equal(t, LabelPositive, summary.SentimentLabel)

	_, err = svc.AnalyzeEvaluation(ctx, evaluation.ID)
	require.NoError(t, err)
	_, err = svc.GenerateAndStoreSummary(ctx, intern.ID)
	require.NoError(t, err)

	count, err := store.CountSummaries(ctx, intern.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count, "one evaluation row and one aggregate row")

	_, err = svc.AnalyzeEvaluation(ctx, "missing")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestStoredSummary(t *testing.T) {
	store := testutil.OpenTestStore(t)
	ctx := context.Background()
	intern := testutil.CreateIntern(t, store, "ned", "")
	analyzer, _ := newTestAnalyzer(t, nil)
	svc := NewSummaryService(store, analyzer, logging.Discard())

	_, err := svc.StoredSummary(ctx, intern.ID)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))

	_, err = svc.GenerateAndStoreSummary(ctx, intern.ID)
	require.NoError(t, err)
	stored, err := svc.StoredSummary(ctx, intern.ID)
	require.NoError(t, err)
	assert.Equal(t, NoFeedbackSummary, stored.Summary.SentimentSummary)
}
