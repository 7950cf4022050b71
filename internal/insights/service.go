package insights

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/sirupsen/logrus"

	apperrors "github.com/rohankatakam/internhub/internal/errors"
	"github.com/rohankatakam/internhub/internal/metrics"
	"github.com/rohankatakam/internhub/internal/models"
	"github.com/rohankatakam/internhub/internal/storage"
	"github.com/rohankatakam/internhub/internal/tasks"
)

// Store is the storage the aggregator reads directly
type Store interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	CountPendingEvaluations(ctx context.Context, internID string) (int, error)
}

// ContributionSource yields per-repository metrics for an intern
type ContributionSource interface {
	FetchContributions(ctx context.Context, internID string) ([]*models.MetricsRecord, error)
}

// SummaryGenerator refreshes and returns the intern's NLP summary
type SummaryGenerator interface {
	GenerateAndStoreSummary(ctx context.Context, internID string) (*models.NlpSummary, error)
}

// CompletionSource computes task completion
type CompletionSource interface {
	CompletionRate(ctx context.Context, internID string) (*tasks.Completion, error)
}

// Service assembles the insight document from the other services. Each
// section fails independently; only an unknown intern fails the whole call.
type Service struct {
	store         Store
	contributions ContributionSource
	summaries     SummaryGenerator
	completion    CompletionSource
	logger        *logrus.Entry
	now           func() time.Time
}

func NewService(store Store, contributions ContributionSource, summaries SummaryGenerator, completion CompletionSource, logger *logrus.Logger) *Service {
	return &Service{
		store:         store,
		contributions: contributions,
		summaries:     summaries,
		completion:    completion,
		logger:        logger.WithField("component", "insights"),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// GetInsights runs the GitHub, NLP, task and evaluation steps in order
func (s *Service) GetInsights(ctx context.Context, internID string) (*Result, error) {
	intern, err := s.store.GetUser(ctx, internID)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.NotFoundf("intern %s not found", internID)
		}
		return nil, apperrors.DatabaseError(err, "load intern")
	}

	log := s.logger.WithField("intern_id", internID)
	result := &Result{
		InternID:    intern.ID,
		InternName:  intern.Name,
		GitHub:      s.github(ctx, intern, log),
		NLP:         s.nlp(ctx, internID, log),
		Tasks:       s.tasks(ctx, internID, log),
		GeneratedAt: s.now(),
	}

	due, err := s.store.CountPendingEvaluations(ctx, internID)
	if err != nil {
		log.WithError(err).Warn("counting pending evaluations failed")
	}
	result.EvaluationsDue = due

	log.WithFields(logrus.Fields{
		"github": result.GitHub.Status,
		"nlp":    result.NLP.Status,
		"tasks":  result.Tasks.Status,
	}).Debug("insights assembled")
	return result, nil
}

func (s *Service) github(ctx context.Context, intern *models.User, log *logrus.Entry) GitHubSection {
	if !intern.HasGitHub() {
		return GitHubSection{Status: StatusUnavailable}
	}
	records, err := s.contributions.FetchContributions(ctx, intern.ID)
	if err != nil {
		log.WithError(err).Warn("github section unavailable")
		return GitHubSection{Status: StatusError, Error: apperrors.PublicMessage(err)}
	}
	return GitHubSection{
		Totals:       metrics.Sum(records),
		Repositories: len(records),
		Status:       StatusAvailable,
	}
}

func (s *Service) nlp(ctx context.Context, internID string, log *logrus.Entry) NLPSection {
	summary, err := s.summaries.GenerateAndStoreSummary(ctx, internID)
	if err != nil {
		log.WithError(err).Warn("nlp section unavailable")
		return nlpFallback(apperrors.PublicMessage(err))
	}
	return nlpFromSummary(summary)
}

func (s *Service) tasks(ctx context.Context, internID string, log *logrus.Entry) TaskSection {
	completion, err := s.completion.CompletionRate(ctx, internID)
	if err != nil {
		log.WithError(err).Warn("task section unavailable")
		return TaskSection{Status: StatusError, Error: apperrors.PublicMessage(err)}
	}
	return TaskSection{
		Total:          completion.Total,
		Completed:      completion.Completed,
		CompletionRate: completion.CompletionRate,
		Status:         StatusAvailable,
	}
}
