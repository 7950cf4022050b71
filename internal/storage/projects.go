package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/rohankatakam/internhub/internal/models"
)

// Project operations

func (s *SQLStore) CreateProject(ctx context.Context, project *models.Project) error {
	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	if project.Status == "" {
		project.Status = "Active"
	}
	project.CreatedAt = s.now()

	query := `
		INSERT INTO projects (id, name, description, status, primary_intern_id, mentor_id, created_at)
		VALUES (:id, :name, :description, :status, :primary_intern_id, :mentor_id, :created_at)
	`
	if _, err := s.db.NamedExecContext(ctx, query, project); err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

// AddProjectIntern links an intern as a project member. Re-adding is a no-op.
func (s *SQLStore) AddProjectIntern(ctx context.Context, projectID, internID string) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO project_interns (project_id, intern_id) VALUES (?, ?)
		ON CONFLICT (project_id, intern_id) DO NOTHING
	`), projectID, internID)
	if err != nil {
		return fmt.Errorf("add project intern: %w", err)
	}
	return nil
}

// ListInternProjects returns projects where the intern is primary intern or
// member, each project once.
func (s *SQLStore) ListInternProjects(ctx context.Context, internID string) ([]*models.Project, error) {
	var projects []*models.Project
	err := s.db.SelectContext(ctx, &projects, s.rebind(`
		SELECT * FROM projects
		WHERE primary_intern_id = ?
		   OR id IN (SELECT project_id FROM project_interns WHERE intern_id = ?)
		ORDER BY created_at, id
	`), internID, internID)
	if err != nil {
		return nil, fmt.Errorf("list intern projects: %w", err)
	}
	return projects, nil
}

// Milestone operations

func (s *SQLStore) CreateMilestone(ctx context.Context, milestone *models.Milestone) error {
	if milestone.ID == "" {
		milestone.ID = uuid.NewString()
	}
	milestone.CreatedAt = s.now()

	query := `
		INSERT INTO milestones (id, project_id, title, due_date, created_at)
		VALUES (:id, :project_id, :title, :due_date, :created_at)
	`
	if _, err := s.db.NamedExecContext(ctx, query, milestone); err != nil {
		return fmt.Errorf("create milestone: %w", err)
	}
	return nil
}

func (s *SQLStore) ListMilestones(ctx context.Context, projectIDs []string) ([]*models.Milestone, error) {
	if len(projectIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT * FROM milestones WHERE project_id IN (?) ORDER BY created_at, id`, projectIDs)
	if err != nil {
		return nil, fmt.Errorf("build milestones query: %w", err)
	}

	var milestones []*models.Milestone
	if err := s.db.SelectContext(ctx, &milestones, s.rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list milestones: %w", err)
	}
	return milestones, nil
}

// Task operations

func (s *SQLStore) CreateTask(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.Status == "" {
		task.Status = models.TaskStatusTodo
	}
	task.CreatedAt = s.now()

	query := `
		INSERT INTO tasks (id, milestone_id, title, status, assignee_id, created_at)
		VALUES (:id, :milestone_id, :title, :status, :assignee_id, :created_at)
	`
	if _, err := s.db.NamedExecContext(ctx, query, task); err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (s *SQLStore) UpdateTaskStatus(ctx context.Context, id, status string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE tasks SET status = ? WHERE id = ?`), status, id)
	if err != nil {
		return fmt.Errorf("update task status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) ListTasks(ctx context.Context, milestoneIDs []string) ([]*models.Task, error) {
	if len(milestoneIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT * FROM tasks WHERE milestone_id IN (?) ORDER BY created_at, id`, milestoneIDs)
	if err != nil {
		return nil, fmt.Errorf("build tasks query: %w", err)
	}

	var tasks []*models.Task
	if err := s.db.SelectContext(ctx, &tasks, s.rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}
