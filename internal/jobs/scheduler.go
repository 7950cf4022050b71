package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/internhub/internal/config"
	"github.com/rohankatakam/internhub/internal/dlq"
	apperrors "github.com/rohankatakam/internhub/internal/errors"
	"github.com/rohankatakam/internhub/internal/models"
)

// refreshLockKey guards the nightly refresh across server replicas
const refreshLockKey int64 = 0x1a7e4b

// Interns lists the interns whose contributions are refreshed
type Interns interface {
	ListInternsWithGitHub(ctx context.Context) ([]*models.User, error)
}

// Refresher fetches contributions
type Refresher interface {
	FetchContributions(ctx context.Context, internID string) ([]*models.MetricsRecord, error)
	FetchRepository(ctx context.Context, internID, repository string) (*models.MetricsRecord, error)
}

// Retries exposes queued fetch failures
type Retries interface {
	PendingRetries(ctx context.Context, maxRetries int) ([]dlq.Entry, error)
	PurgeOld(ctx context.Context, olderThan time.Duration) (int, error)
	GetStats(ctx context.Context, maxRetries int) (*dlq.Stats, error)
}

// Locker takes a non-blocking advisory lock
type Locker interface {
	TryLock(ctx context.Context, key int64) (unlock func(), ok bool, err error)
}

// RunStats summarizes one refresh run
type RunStats struct {
	Interns        int `json:"interns"`
	InternFailures int `json:"internFailures"`
	Retried        int `json:"retried"`
	RetryFailures  int `json:"retryFailures"`
	// Deferred counts queued failures recorded during this run. They wait
	// for the next run so one run spends at most one attempt per repository.
	Deferred       int `json:"deferred"`
	Purged         int `json:"purged"`
	Exhausted      int `json:"exhausted"`
}

// Scheduler runs the periodic contribution refresh
type Scheduler struct {
	cfg       config.JobsConfig
	interns   Interns
	refresher Refresher
	retries   Retries
	locker    Locker
	cron      *cron.Cron
	logger    *logrus.Entry
	timeout   time.Duration
	now       func() time.Time
}

// NewScheduler registers the refresh job on cfg.MetricsRefreshCron.
// retries and locker may be nil.
func NewScheduler(cfg config.JobsConfig, interns Interns, refresher Refresher, retries Retries, locker Locker, logger *logrus.Logger) (*Scheduler, error) {
	loc := time.UTC
	if cfg.Timezone != "" {
		l, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, apperrors.ConfigErrorf("invalid jobs.timezone %q: %v", cfg.Timezone, err)
		}
		loc = l
	}

	s := &Scheduler{
		cfg:       cfg,
		interns:   interns,
		refresher: refresher,
		retries:   retries,
		locker:    locker,
		logger:    logger.WithField("component", "jobs"),
		timeout:   30 * time.Minute,
		now:       time.Now,
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithParser(cron.NewParser(cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow|cron.Descriptor)),
		),
	}

	if _, err := s.cron.AddFunc(cfg.MetricsRefreshCron, s.scheduled); err != nil {
		return nil, apperrors.ConfigErrorf("invalid jobs.metrics_refresh_cron %q: %v", cfg.MetricsRefreshCron, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.logger.WithField("schedule", s.cfg.MetricsRefreshCron).Info("scheduler started")
	s.cron.Start()
}

// Stop stops the scheduler and waits for a running job up to ctx's deadline
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out with a job still running")
	}
}

func (s *Scheduler) scheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if s.locker != nil {
		unlock, ok, err := s.locker.TryLock(ctx, refreshLockKey)
		if err != nil {
			s.logger.WithError(err).Error("cron: lock error")
			return
		}
		if !ok {
			s.logger.Info("cron: refresh already running elsewhere")
			return
		}
		defer unlock()
	}

	if _, err := s.RefreshAll(ctx); err != nil {
		s.logger.WithError(err).Error("cron: refresh failed")
	}
}

// RefreshAll fetches contributions for every intern with a GitHub username,
// then retries queued failures that still have attempts left and purges
// failures older than the retention window. Per-intern failures are
// counted, not returned.
func (s *Scheduler) RefreshAll(ctx context.Context) (*RunStats, error) {
	start := s.now()
	stats := &RunStats{}

	interns, err := s.interns.ListInternsWithGitHub(ctx)
	if err != nil {
		return nil, apperrors.DatabaseError(err, "list interns")
	}

	for _, intern := range interns {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Interns++
		if _, err := s.refresher.FetchContributions(ctx, intern.ID); err != nil {
			stats.InternFailures++
			s.logger.WithError(err).WithField("intern_id", intern.ID).Warn("refresh failed")
		}
	}

	if s.retries != nil {
		if err := s.retryFailures(ctx, start, stats); err != nil {
			return stats, err
		}
	}

	s.logger.WithFields(logrus.Fields{
		"interns":         stats.Interns,
		"intern_failures": stats.InternFailures,
		"retried":         stats.Retried,
		"retry_failures":  stats.RetryFailures,
		"deferred":        stats.Deferred,
		"purged":          stats.Purged,
		"exhausted":       stats.Exhausted,
		"duration":        s.now().Sub(start).String(),
	}).Info("contribution refresh complete")
	return stats, nil
}

func (s *Scheduler) retryFailures(ctx context.Context, start time.Time, stats *RunStats) error {
	pending, err := s.retries.PendingRetries(ctx, s.cfg.MaxRetries)
	if err != nil {
		return apperrors.DatabaseError(err, "load pending retries")
	}
	for _, entry := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !entry.UpdatedAt.Before(start) {
			stats.Deferred++
			continue
		}
		stats.Retried++
		if _, err := s.refresher.FetchRepository(ctx, entry.InternID, entry.Repository); err != nil {
			stats.RetryFailures++
			s.logger.WithError(err).WithFields(logrus.Fields{
				"intern_id":  entry.InternID,
				"repository": entry.Repository,
				"attempt":    entry.RetryCount + 1,
			}).Warn("retry failed")
		}
	}

	if s.cfg.FailureRetention > 0 {
		purged, err := s.retries.PurgeOld(ctx, s.cfg.FailureRetention)
		if err != nil {
			return apperrors.DatabaseError(err, "purge fetch failures")
		}
		stats.Purged = purged
	}

	queue, err := s.retries.GetStats(ctx, s.cfg.MaxRetries)
	if err != nil {
		return apperrors.DatabaseError(err, "fetch failure stats")
	}
	stats.Exhausted = queue.ExhaustedRetries
	return nil
}
