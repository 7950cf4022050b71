package tasks

import (
	"context"
	stderrors "errors"

	"github.com/sirupsen/logrus"

	apperrors "github.com/rohankatakam/internhub/internal/errors"
	"github.com/rohankatakam/internhub/internal/models"
	"github.com/rohankatakam/internhub/internal/storage"
)

// Store is the storage the completion calculator reads
type Store interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	ListInternProjects(ctx context.Context, internID string) ([]*models.Project, error)
	ListMilestones(ctx context.Context, projectIDs []string) ([]*models.Milestone, error)
	ListTasks(ctx context.Context, milestoneIDs []string) ([]*models.Task, error)
}

// Completion summarizes the tasks under an intern's projects
type Completion struct {
	Total          int     `json:"total"`
	Completed      int     `json:"completed"`
	CompletionRate float64 `json:"completionRate"`
}

// Calculator computes task completion for interns
type Calculator struct {
	store  Store
	logger *logrus.Entry
}

func NewCalculator(store Store, logger *logrus.Logger) *Calculator {
	return &Calculator{store: store, logger: logger.WithField("component", "tasks")}
}

// CompletionRate walks the intern's projects, their milestones and their
// tasks. A project counts when the intern is its primary intern or a member.
func (c *Calculator) CompletionRate(ctx context.Context, internID string) (*Completion, error) {
	if _, err := c.store.GetUser(ctx, internID); err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.NotFoundf("intern %s not found", internID)
		}
		return nil, apperrors.DatabaseError(err, "load intern")
	}

	projects, err := c.store.ListInternProjects(ctx, internID)
	if err != nil {
		return nil, apperrors.DatabaseError(err, "load projects")
	}
	projectIDs := make([]string, 0, len(projects))
	seen := make(map[string]bool, len(projects))
	for _, p := range projects {
		if !seen[p.ID] {
			seen[p.ID] = true
			projectIDs = append(projectIDs, p.ID)
		}
	}

	milestones, err := c.store.ListMilestones(ctx, projectIDs)
	if err != nil {
		return nil, apperrors.DatabaseError(err, "load milestones")
	}
	milestoneIDs := make([]string, 0, len(milestones))
	for _, m := range milestones {
		milestoneIDs = append(milestoneIDs, m.ID)
	}

	tasks, err := c.store.ListTasks(ctx, milestoneIDs)
	if err != nil {
		return nil, apperrors.DatabaseError(err, "load tasks")
	}

	completed := 0
	for _, t := range tasks {
		if t.Status == models.TaskStatusDone {
			completed++
		}
	}

	c.logger.WithFields(logrus.Fields{
		"intern_id": internID,
		"projects":  len(projectIDs),
		"tasks":     len(tasks),
	}).Debug("task completion computed")

	return &Completion{
		Total:          len(tasks),
		Completed:      completed,
		CompletionRate: Rate(completed, len(tasks)),
	}, nil
}

// Rate returns completed/total as a percentage, 0 when total is 0
func Rate(completed, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(completed) / float64(total) * 100
}
