package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/rohankatakam/internhub/internal/models"
)

// Metrics cache operations. Records are never updated in place.

// LatestMetrics returns the newest record for (intern, repository)
func (s *SQLStore) LatestMetrics(ctx context.Context, internID, repository string) (*models.MetricsRecord, error) {
	var record models.MetricsRecord
	err := s.db.GetContext(ctx, &record, s.rebind(`
		SELECT * FROM metrics_records
		WHERE intern_id = ? AND repository = ?
		ORDER BY fetch_date DESC, created_at DESC
		LIMIT 1
	`), internID, repository)
	if err != nil {
		if notFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("latest metrics: %w", err)
	}
	return &record, nil
}

func (s *SQLStore) InsertMetrics(ctx context.Context, record *models.MetricsRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := s.now()
	if record.FetchDate.IsZero() {
		record.FetchDate = now
	}
	record.FetchDate = record.FetchDate.UTC()
	record.CreatedAt, record.UpdatedAt = now, now

	query := `
		INSERT INTO metrics_records (id, intern_id, repository, fetch_date, commit_count,
			lines_added, lines_deleted, raw_response, created_at, updated_at)
		VALUES (:id, :intern_id, :repository, :fetch_date, :commit_count,
			:lines_added, :lines_deleted, :raw_response, :created_at, :updated_at)
	`
	if _, err := s.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("insert metrics: %w", err)
	}
	return nil
}

// ListMetrics returns every stored record for the intern, newest first
func (s *SQLStore) ListMetrics(ctx context.Context, internID string) ([]*models.MetricsRecord, error) {
	var records []*models.MetricsRecord
	err := s.db.SelectContext(ctx, &records, s.rebind(`
		SELECT * FROM metrics_records WHERE intern_id = ? ORDER BY fetch_date DESC, repository
	`), internID)
	if err != nil {
		return nil, fmt.Errorf("list metrics: %w", err)
	}
	return records, nil
}
