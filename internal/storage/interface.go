package storage

import (
	"context"
	"errors"

	"github.com/rohankatakam/internhub/internal/models"
)

// Common errors
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// Store defines the storage interface
type Store interface {
	// User operations
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	SetGitHubUsername(ctx context.Context, id string, username *string) error
	ListInternsWithGitHub(ctx context.Context) ([]*models.User, error)
	DeleteUser(ctx context.Context, id string) error

	// Project, milestone and task operations
	CreateProject(ctx context.Context, project *models.Project) error
	AddProjectIntern(ctx context.Context, projectID, internID string) error
	ListInternProjects(ctx context.Context, internID string) ([]*models.Project, error)
	CreateMilestone(ctx context.Context, milestone *models.Milestone) error
	ListMilestones(ctx context.Context, projectIDs []string) ([]*models.Milestone, error)
	CreateTask(ctx context.Context, task *models.Task) error
	UpdateTaskStatus(ctx context.Context, id, status string) error
	ListTasks(ctx context.Context, milestoneIDs []string) ([]*models.Task, error)

	// Evaluation operations
	CreateEvaluation(ctx context.Context, evaluation *models.Evaluation) error
	GetEvaluation(ctx context.Context, id string) (*models.Evaluation, error)
	ListEvaluations(ctx context.Context, internID string) ([]*models.Evaluation, error)
	CountPendingEvaluations(ctx context.Context, internID string) (int, error)

	// Metrics cache operations
	LatestMetrics(ctx context.Context, internID, repository string) (*models.MetricsRecord, error)
	InsertMetrics(ctx context.Context, record *models.MetricsRecord) error
	ListMetrics(ctx context.Context, internID string) ([]*models.MetricsRecord, error)

	// NLP summary operations
	GetAggregateSummary(ctx context.Context, internID string) (*models.NlpSummary, error)
	UpsertAggregateSummary(ctx context.Context, summary *models.NlpSummary) (*models.NlpSummary, error)
	UpsertEvaluationSummary(ctx context.Context, summary *models.NlpSummary) (*models.NlpSummary, error)
	CountSummaries(ctx context.Context, internID string) (int, error)

	// Close connection
	Close() error
}

var _ Store = (*SQLStore)(nil)
