package metrics

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/internhub/internal/config"
	apperrors "github.com/rohankatakam/internhub/internal/errors"
	"github.com/rohankatakam/internhub/internal/github"
	"github.com/rohankatakam/internhub/internal/models"
	"github.com/rohankatakam/internhub/internal/storage"
)

// Store is the storage the contribution service reads and appends to
type Store interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	LatestMetrics(ctx context.Context, internID, repository string) (*models.MetricsRecord, error)
	InsertMetrics(ctx context.Context, record *models.MetricsRecord) error
	ListMetrics(ctx context.Context, internID string) ([]*models.MetricsRecord, error)
}

// RepoFetcher fetches one repository's contributions from GitHub
type RepoFetcher interface {
	FetchRepository(ctx context.Context, owner, repo, author string, opts github.FetchOptions) (*github.RepoContributions, error)
}

// FailureQueue records repositories that could not be fetched
type FailureQueue interface {
	Enqueue(ctx context.Context, internID, repository string, cause error) error
	MarkResolved(ctx context.Context, internID, repository string) error
}

// Service serves contribution metrics through a time-bounded read-through
// cache of metrics records.
type Service struct {
	store   Store
	fetcher RepoFetcher
	queue   FailureQueue
	cfg     config.MetricsConfig
	logger  *logrus.Entry
	now     func() time.Time
}

// NewService creates the contribution service. queue may be nil.
func NewService(store Store, fetcher RepoFetcher, queue FailureQueue, cfg config.MetricsConfig, logger *logrus.Logger) *Service {
	return &Service{
		store:   store,
		fetcher: fetcher,
		queue:   queue,
		cfg:     cfg,
		logger:  logger.WithField("component", "metrics"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the time source. Used by tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Repositories returns the monitored repository list
func (s *Service) Repositories() []string {
	return s.cfg.Repositories
}

// FetchContributions returns one metrics record per monitored repository for
// the intern. Fresh cached records are returned as-is; stale or missing ones
// are fetched from GitHub and appended as new records.
//
// A failing repository is logged, queued for retry and skipped, unless
// AbortOnError is set, in which case its error is returned.
func (s *Service) FetchContributions(ctx context.Context, internID string) ([]*models.MetricsRecord, error) {
	user, err := s.resolveIntern(ctx, internID)
	if err != nil {
		return nil, err
	}

	records := make([]*models.MetricsRecord, 0, len(s.cfg.Repositories))
	for _, repository := range s.cfg.Repositories {
		record, err := s.fetchRepository(ctx, user, repository)
		if err != nil {
			s.recordFailure(ctx, internID, repository, err)
			if s.cfg.AbortOnError {
				return nil, err
			}
			continue
		}
		records = append(records, record)
	}

	return records, nil
}

// FetchRepository runs the cache check and fetch for a single repository.
// Failures are queued the same way as in FetchContributions.
func (s *Service) FetchRepository(ctx context.Context, internID, repository string) (*models.MetricsRecord, error) {
	user, err := s.resolveIntern(ctx, internID)
	if err != nil {
		return nil, err
	}
	record, err := s.fetchRepository(ctx, user, repository)
	if err != nil {
		s.recordFailure(ctx, internID, repository, err)
		return nil, err
	}
	return record, nil
}

// History returns every stored record for the intern, newest first, without
// contacting GitHub
func (s *Service) History(ctx context.Context, internID string) ([]*models.MetricsRecord, error) {
	if _, err := s.store.GetUser(ctx, internID); err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.NotFoundf("intern %s not found", internID)
		}
		return nil, apperrors.DatabaseError(err, "load intern")
	}
	records, err := s.store.ListMetrics(ctx, internID)
	if err != nil {
		return nil, apperrors.DatabaseError(err, "list metrics")
	}
	if records == nil {
		records = []*models.MetricsRecord{}
	}
	return records, nil
}

func (s *Service) recordFailure(ctx context.Context, internID, repository string, err error) {
	s.logger.WithError(err).WithFields(logrus.Fields{
		"intern_id":  internID,
		"repository": repository,
	}).Warn("contribution fetch failed")

	if s.queue == nil {
		return
	}
	if qerr := s.queue.Enqueue(ctx, internID, repository, err); qerr != nil {
		s.logger.WithError(qerr).Error("failed to record fetch failure")
	}
}

func (s *Service) resolveIntern(ctx context.Context, internID string) (*models.User, error) {
	user, err := s.store.GetUser(ctx, internID)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.NotFoundf("intern %s not found", internID)
		}
		return nil, apperrors.DatabaseError(err, "load intern")
	}
	if !user.HasGitHub() {
		return nil, apperrors.NotFoundf("intern %s has no GitHub username", internID)
	}
	return user, nil
}

// IsFresh reports whether a record fetched at fetchDate is still usable at now
func IsFresh(fetchDate, now time.Time, window time.Duration) bool {
	return now.Sub(fetchDate) < window
}

func (s *Service) fetchRepository(ctx context.Context, user *models.User, repository string) (*models.MetricsRecord, error) {
	now := s.now()

	cached, err := s.store.LatestMetrics(ctx, user.ID, repository)
	switch {
	case err == nil && IsFresh(cached.FetchDate, now, s.cfg.Freshness):
		return cached, nil
	case err != nil && !stderrors.Is(err, storage.ErrNotFound):
		return nil, apperrors.DatabaseErrorf(err, "read cached metrics for %s", repository)
	}

	owner, name, err := config.SplitRepository(repository)
	if err != nil {
		return nil, apperrors.ValidationError(err.Error())
	}

	contributions, err := s.fetcher.FetchRepository(ctx, owner, name, *user.GitHubUsername, github.FetchOptions{
		Since:       now.Add(-s.cfg.Lookback),
		LineStats:   s.cfg.LineStats,
		Concurrency: s.cfg.StatsConcurrency,
	})
	if err != nil {
		return nil, err
	}

	record := &models.MetricsRecord{
		InternID:     user.ID,
		Repository:   repository,
		FetchDate:    now,
		CommitCount:  contributions.CommitCount,
		LinesAdded:   contributions.LinesAdded,
		LinesDeleted: contributions.LinesDeleted,
		RawResponse:  models.JSONMap(contributions.Snapshot()),
	}
	if err := s.store.InsertMetrics(ctx, record); err != nil {
		return nil, apperrors.DatabaseErrorf(err, "store metrics for %s", repository)
	}

	if s.queue != nil {
		if err := s.queue.MarkResolved(ctx, user.ID, repository); err != nil {
			s.logger.WithError(err).Warn("failed to clear fetch failure")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"intern_id":  user.ID,
		"repository": repository,
		"commits":    record.CommitCount,
	}).Info("contribution metrics refreshed")

	return record, nil
}
