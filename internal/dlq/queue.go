package dlq

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	apperrors "github.com/rohankatakam/internhub/internal/errors"
)

// Entry is a contribution fetch that failed for one (intern, repository)
type Entry struct {
	ID           int64      `db:"id"`
	InternID     string     `db:"intern_id"`
	Repository   string     `db:"repository"`
	ErrorMessage string     `db:"error_message"`
	ErrorType    string     `db:"error_type"`
	RetryCount   int        `db:"retry_count"`
	LastRetryAt  *time.Time `db:"last_retry_at"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

// Stats contains queue statistics
type Stats struct {
	TotalEntries     int `db:"total"`
	RetryableEntries int `db:"retryable"`
	ExhaustedRetries int `db:"exhausted"`
}

// Queue records failed repository fetches so the scheduler can retry them.
// It lives in the fetch_failures table of the main database.
type Queue struct {
	db     *sqlx.DB
	logger *logrus.Entry
	now    func() time.Time
}

// NewQueue creates a new queue manager
func NewQueue(db *sqlx.DB, logger *logrus.Logger) *Queue {
	return &Queue{
		db:     db,
		logger: logger.WithField("component", "dlq"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Enqueue records a failed fetch. If the pair is already queued, its
// retry_count is incremented.
func (q *Queue) Enqueue(ctx context.Context, internID, repository string, cause error) error {
	now := q.now()
	errorMsg := cause.Error()
	errorType := apperrors.GetType(cause).String()

	_, err := q.db.ExecContext(ctx, q.db.Rebind(`
		INSERT INTO fetch_failures (intern_id, repository, error_message, error_type, retry_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, 0, ?, ?)
		ON CONFLICT (intern_id, repository) DO UPDATE
		SET retry_count = fetch_failures.retry_count + 1,
		    error_message = excluded.error_message,
		    error_type = excluded.error_type,
		    updated_at = excluded.updated_at,
		    last_retry_at = excluded.updated_at
	`), internID, repository, errorMsg, errorType, now, now)
	if err != nil {
		return fmt.Errorf("failed to enqueue fetch failure: %w", err)
	}

	q.logger.WithFields(logrus.Fields{
		"intern_id":  internID,
		"repository": repository,
		"error":      errorMsg,
	}).Warn("fetch failure enqueued")
	return nil
}

// PendingRetries returns entries with retry_count below maxRetries, oldest first
func (q *Queue) PendingRetries(ctx context.Context, maxRetries int) ([]Entry, error) {
	var entries []Entry
	err := q.db.SelectContext(ctx, &entries, q.db.Rebind(`
		SELECT id, intern_id, repository, error_message, error_type, retry_count,
		       last_retry_at, created_at, updated_at
		FROM fetch_failures
		WHERE retry_count < ?
		ORDER BY created_at ASC, id ASC
	`), maxRetries)
	if err != nil {
		return nil, fmt.Errorf("failed to query fetch failures: %w", err)
	}
	return entries, nil
}

// MarkResolved removes the entry after a successful fetch
func (q *Queue) MarkResolved(ctx context.Context, internID, repository string) error {
	result, err := q.db.ExecContext(ctx, q.db.Rebind(`
		DELETE FROM fetch_failures WHERE intern_id = ? AND repository = ?
	`), internID, repository)
	if err != nil {
		return fmt.Errorf("failed to delete fetch failure: %w", err)
	}

	if rows, _ := result.RowsAffected(); rows > 0 {
		q.logger.WithFields(logrus.Fields{
			"intern_id":  internID,
			"repository": repository,
		}).Info("fetch failure resolved")
	}
	return nil
}

// GetStats returns queue statistics
func (q *Queue) GetStats(ctx context.Context, maxRetries int) (*Stats, error) {
	var stats Stats
	err := q.db.GetContext(ctx, &stats, q.db.Rebind(`
		SELECT
			COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN retry_count < ? THEN 1 ELSE 0 END), 0) AS retryable,
			COALESCE(SUM(CASE WHEN retry_count >= ? THEN 1 ELSE 0 END), 0) AS exhausted
		FROM fetch_failures
	`), maxRetries, maxRetries)
	if err != nil {
		return nil, fmt.Errorf("failed to get fetch failure stats: %w", err)
	}
	return &stats, nil
}

// PurgeOld removes entries created before now-olderThan
func (q *Queue) PurgeOld(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := q.now().Add(-olderThan)

	result, err := q.db.ExecContext(ctx, q.db.Rebind(`DELETE FROM fetch_failures WHERE created_at < ?`), cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge old fetch failures: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows > 0 {
		q.logger.WithFields(logrus.Fields{
			"count":      rows,
			"older_than": olderThan,
		}).Info("purged old fetch failures")
	}
	return int(rows), nil
}
