package nlp

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	apperrors "github.com/rohankatakam/internhub/internal/errors"
	"github.com/rohankatakam/internhub/internal/models"
	"github.com/rohankatakam/internhub/internal/storage"
)

// NoFeedbackSummary is stored when an intern has no feedback text yet
const NoFeedbackSummary = "No feedback available yet."

// Store is the storage the summary service needs
type Store interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetEvaluation(ctx context.Context, id string) (*models.Evaluation, error)
	ListEvaluations(ctx context.Context, internID string) ([]*models.Evaluation, error)
	GetAggregateSummary(ctx context.Context, internID string) (*models.NlpSummary, error)
	UpsertAggregateSummary(ctx context.Context, summary *models.NlpSummary) (*models.NlpSummary, error)
	UpsertEvaluationSummary(ctx context.Context, summary *models.NlpSummary) (*models.NlpSummary, error)
}

// SummaryService analyzes an intern's feedback and persists the result
type SummaryService struct {
	store    Store
	analyzer *Analyzer
	logger   *logrus.Entry
}

func NewSummaryService(store Store, analyzer *Analyzer, logger *logrus.Logger) *SummaryService {
	return &SummaryService{
		store:    store,
		analyzer: analyzer,
		logger:   logger.WithField("component", "nlp"),
	}
}

// Analyzer returns the analyzer the service was built with
func (s *SummaryService) Analyzer() *Analyzer {
	return s.analyzer
}

// GenerateAndStoreSummary analyzes all of the intern's feedback and upserts
// the aggregate summary row. With no feedback the placeholder is stored, so
// the row exists after every successful call.
func (s *SummaryService) GenerateAndStoreSummary(ctx context.Context, internID string) (*models.NlpSummary, error) {
	if _, err := s.store.GetUser(ctx, internID); err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.NotFoundf("intern %s not found", internID)
		}
		return nil, apperrors.DatabaseError(err, "load intern")
	}

	evaluations, err := s.store.ListEvaluations(ctx, internID)
	if err != nil {
		return nil, apperrors.DatabaseError(err, "load evaluations")
	}

	withText := make([]*models.Evaluation, 0, len(evaluations))
	texts := make([]string, 0, len(evaluations))
	for _, e := range evaluations {
		if t := strings.TrimSpace(e.FeedbackText); t != "" {
			withText = append(withText, e)
			texts = append(texts, t)
		}
	}

	summary := &models.NlpSummary{InternID: internID}
	if len(texts) == 0 {
		summary.SentimentLabel = LabelNone
		summary.Keywords = models.StringArray{}
		summary.Summary = PlaceholderSummary()
	} else {
		analysis, err := s.analyzer.Analyze(strings.Join(texts, ". "), 0)
		if err != nil {
			return nil, apperrors.InternalError(err, "analyze feedback")
		}
		timeline, err := s.timeline(withText)
		if err != nil {
			return nil, apperrors.InternalError(err, "analyze feedback timeline")
		}
		summary.SentimentLabel = analysis.SentimentLabel
		summary.Keywords = models.StringArray(analysis.KeyThemes)
		summary.Summary = summaryJSON(analysis, timeline, len(texts))
	}

	stored, err := s.store.UpsertAggregateSummary(ctx, summary)
	if err != nil {
		return nil, apperrors.DatabaseError(err, "store nlp summary")
	}

	s.logger.WithFields(logrus.Fields{
		"intern_id":   internID,
		"evaluations": len(texts),
		"sentiment":   stored.SentimentLabel,
	}).Info("nlp summary stored")
	return stored, nil
}

// AnalyzeEvaluation analyzes one evaluation's feedback and upserts its own
// summary row
func (s *SummaryService) AnalyzeEvaluation(ctx context.Context, evaluationID string) (*models.NlpSummary, error) {
	evaluation, err := s.store.GetEvaluation(ctx, evaluationID)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.NotFoundf("evaluation %s not found", evaluationID)
		}
		return nil, apperrors.DatabaseError(err, "load evaluation")
	}

	summary := &models.NlpSummary{InternID: evaluation.InternID, EvaluationID: &evaluation.ID}
	if strings.TrimSpace(evaluation.FeedbackText) == "" {
		summary.SentimentLabel = LabelNone
		summary.Keywords = models.StringArray{}
		summary.Summary = PlaceholderSummary()
	} else {
		analysis, err := s.analyzer.Analyze(evaluation.FeedbackText, 0)
		if err != nil {
			return nil, apperrors.InternalError(err, "analyze evaluation")
		}
		point := models.TimelinePoint{Date: evaluation.CreatedAt, Sentiment: analysis.SentimentLabel, Score: analysis.Score}
		summary.SentimentLabel = analysis.SentimentLabel
		summary.Keywords = models.StringArray(analysis.KeyThemes)
		summary.Summary = summaryJSON(analysis, []models.TimelinePoint{point}, 1)
	}

	stored, err := s.store.UpsertEvaluationSummary(ctx, summary)
	if err != nil {
		return nil, apperrors.DatabaseError(err, "store evaluation summary")
	}
	return stored, nil
}

// StoredSummary returns the aggregate summary without recomputing it
func (s *SummaryService) StoredSummary(ctx context.Context, internID string) (*models.NlpSummary, error) {
	summary, err := s.store.GetAggregateSummary(ctx, internID)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.NotFoundf("no nlp summary for intern %s", internID)
		}
		return nil, apperrors.DatabaseError(err, "load nlp summary")
	}
	return summary, nil
}

// PlaceholderSummary is the summary payload for an intern without feedback
func PlaceholderSummary() models.SummaryJSON {
	return models.SummaryJSON{
		OverallSentiment:  LabelNone,
		SentimentSummary:  NoFeedbackSummary,
		SentimentTimeline: []models.TimelinePoint{},
		Keywords:          []string{},
		Topics:            []models.TopicCount{},
		Emotions:          map[string]float64{},
		SentimentScore:    LabelNone,
		KeyThemes:         []string{},
	}
}

// timeline scores each evaluation separately, oldest first.
// evaluations arrive newest first.
func (s *SummaryService) timeline(evaluations []*models.Evaluation) ([]models.TimelinePoint, error) {
	points := make([]models.TimelinePoint, 0, len(evaluations))
	for i := len(evaluations) - 1; i >= 0; i-- {
		e := evaluations[i]
		a, err := s.analyzer.Analyze(e.FeedbackText, 0)
		if err != nil {
			return nil, err
		}
		points = append(points, models.TimelinePoint{Date: e.CreatedAt, Sentiment: a.SentimentLabel, Score: a.Score})
	}
	return points, nil
}

func summaryJSON(a *Analysis, timeline []models.TimelinePoint, count int) models.SummaryJSON {
	return models.SummaryJSON{
		OverallSentiment:  a.SentimentLabel,
		SentimentSummary:  describe(a, count),
		SentimentTimeline: timeline,
		Keywords:          a.KeyThemes,
		Topics:            a.Topics,
		Emotions:          a.Emotions,
		SentimentScore:    a.SentimentLabel,
		KeyThemes:         a.KeyThemes,
	}
}

func describe(a *Analysis, count int) string {
	noun := "evaluations"
	if count == 1 {
		noun = "evaluation"
	}
	text := fmt.Sprintf("Feedback across %d %s is %s overall (score %.2f).",
		count, noun, strings.ToLower(a.SentimentLabel), a.Score)
	if len(a.KeyThemes) > 0 {
		text += " Recurring themes: " + strings.Join(a.KeyThemes, ", ") + "."
	}
	return text
}
