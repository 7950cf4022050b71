package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/rohankatakam/internhub/internal/models"
)

// Evaluation operations

func (s *SQLStore) CreateEvaluation(ctx context.Context, evaluation *models.Evaluation) error {
	if evaluation.ID == "" {
		evaluation.ID = uuid.NewString()
	}
	if evaluation.Status == "" {
		evaluation.Status = models.EvaluationStatusPending
	}
	if evaluation.CreatedAt.IsZero() {
		evaluation.CreatedAt = s.now()
	}
	evaluation.CreatedAt = evaluation.CreatedAt.UTC()

	query := `
		INSERT INTO evaluations (id, intern_id, evaluator_id, type, status, score, feedback_text, due_date, created_at)
		VALUES (:id, :intern_id, :evaluator_id, :type, :status, :score, :feedback_text, :due_date, :created_at)
	`
	if _, err := s.db.NamedExecContext(ctx, query, evaluation); err != nil {
		return fmt.Errorf("create evaluation: %w", err)
	}
	return nil
}

func (s *SQLStore) GetEvaluation(ctx context.Context, id string) (*models.Evaluation, error) {
	var evaluation models.Evaluation
	err := s.db.GetContext(ctx, &evaluation, s.rebind(`SELECT * FROM evaluations WHERE id = ?`), id)
	if err != nil {
		if notFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get evaluation: %w", err)
	}
	return &evaluation, nil
}

// ListEvaluations returns the intern's evaluations newest first
func (s *SQLStore) ListEvaluations(ctx context.Context, internID string) ([]*models.Evaluation, error) {
	var evaluations []*models.Evaluation
	err := s.db.SelectContext(ctx, &evaluations, s.rebind(`
		SELECT * FROM evaluations WHERE intern_id = ? ORDER BY created_at DESC, id DESC
	`), internID)
	if err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}
	return evaluations, nil
}

func (s *SQLStore) CountPendingEvaluations(ctx context.Context, internID string) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, s.rebind(`
		SELECT COUNT(*) FROM evaluations WHERE intern_id = ? AND status = ?
	`), internID, models.EvaluationStatusPending)
	if err != nil {
		return 0, fmt.Errorf("count pending evaluations: %w", err)
	}
	return count, nil
}
