package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/rohankatakam/internhub/internal/models"
)

// NLP summary operations

// GetAggregateSummary returns the intern's aggregate (evaluation_id IS NULL) row
func (s *SQLStore) GetAggregateSummary(ctx context.Context, internID string) (*models.NlpSummary, error) {
	var summary models.NlpSummary
	err := s.db.GetContext(ctx, &summary, s.rebind(`
		SELECT * FROM nlp_summaries WHERE intern_id = ? AND evaluation_id IS NULL
	`), internID)
	if err != nil {
		if notFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get aggregate summary: %w", err)
	}
	return &summary, nil
}

func (s *SQLStore) getEvaluationSummary(ctx context.Context, evaluationID string) (*models.NlpSummary, error) {
	var summary models.NlpSummary
	err := s.db.GetContext(ctx, &summary, s.rebind(`
		SELECT * FROM nlp_summaries WHERE evaluation_id = ?
	`), evaluationID)
	if err != nil {
		if notFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get evaluation summary: %w", err)
	}
	return &summary, nil
}

// UpsertAggregateSummary replaces the intern's aggregate row or creates it.
// A concurrent insert that wins the unique index turns our insert into an
// update, so the row count stays at one.
func (s *SQLStore) UpsertAggregateSummary(ctx context.Context, summary *models.NlpSummary) (*models.NlpSummary, error) {
	summary.EvaluationID = nil
	where := `intern_id = ? AND evaluation_id IS NULL`

	if err := s.upsertSummary(ctx, summary, where, summary.InternID); err != nil {
		return nil, err
	}
	return s.GetAggregateSummary(ctx, summary.InternID)
}

// UpsertEvaluationSummary does the same for a single evaluation's row
func (s *SQLStore) UpsertEvaluationSummary(ctx context.Context, summary *models.NlpSummary) (*models.NlpSummary, error) {
	if summary.EvaluationID == nil || *summary.EvaluationID == "" {
		return nil, fmt.Errorf("upsert evaluation summary: evaluation id is required")
	}
	if err := s.upsertSummary(ctx, summary, `evaluation_id = ?`, *summary.EvaluationID); err != nil {
		return nil, err
	}
	return s.getEvaluationSummary(ctx, *summary.EvaluationID)
}

func (s *SQLStore) upsertSummary(ctx context.Context, summary *models.NlpSummary, where string, key string) error {
	now := s.now()
	summary.AnalysisDate = now
	summary.UpdatedAt = now

	for attempt := 0; attempt < 3; attempt++ {
		res, err := s.db.ExecContext(ctx, s.rebind(`
			UPDATE nlp_summaries
			SET sentiment_label = ?, keywords = ?, analysis_date = ?, summary_json = ?, updated_at = ?
			WHERE `+where),
			summary.SentimentLabel, summary.Keywords, summary.AnalysisDate, summary.Summary, summary.UpdatedAt, key)
		if err != nil {
			return fmt.Errorf("update nlp summary: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			return nil
		}

		summary.ID = uuid.NewString()
		summary.CreatedAt = now
		_, err = s.db.NamedExecContext(ctx, `
			INSERT INTO nlp_summaries (id, intern_id, evaluation_id, sentiment_label, keywords,
				analysis_date, summary_json, created_at, updated_at)
			VALUES (:id, :intern_id, :evaluation_id, :sentiment_label, :keywords,
				:analysis_date, :summary_json, :created_at, :updated_at)
		`, summary)
		if err == nil {
			return nil
		}
		if !IsUniqueViolation(err) {
			return fmt.Errorf("insert nlp summary: %w", err)
		}
		s.logger.WithField("intern_id", summary.InternID).Debug("nlp summary insert lost race, retrying as update")
	}
	return fmt.Errorf("upsert nlp summary for intern %s: %w", summary.InternID, ErrConflict)
}

func (s *SQLStore) CountSummaries(ctx context.Context, internID string) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, s.rebind(`SELECT COUNT(*) FROM nlp_summaries WHERE intern_id = ?`), internID)
	if err != nil {
		return 0, fmt.Errorf("count nlp summaries: %w", err)
	}
	return count, nil
}
