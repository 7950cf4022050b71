package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rohankatakam/internhub/internal/logging"
	"github.com/rohankatakam/internhub/internal/models"
	"github.com/rohankatakam/internhub/internal/storage"
)

// OpenTestStore opens an in-memory SQLite store with the full schema applied
func OpenTestStore(t *testing.T) *storage.SQLStore {
	t.Helper()

	store, err := storage.NewSQLiteStore(context.Background(), ":memory:", logging.Discard())
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// CreateIntern inserts an intern with an optional GitHub username
func CreateIntern(t *testing.T, store storage.Store, name, githubUsername string) *models.User {
	t.Helper()

	user := &models.User{
		Name:  name,
		Email: name + "@example.com",
		Role:  models.RoleIntern,
	}
	if githubUsername != "" {
		user.GitHubUsername = &githubUsername
	}
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("create intern: %v", err)
	}
	return user
}

// CreateMentor inserts a mentor
func CreateMentor(t *testing.T, store storage.Store, name string) *models.User {
	t.Helper()

	user := &models.User{Name: name, Email: name + "@example.com", Role: models.RoleMentor}
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("create mentor: %v", err)
	}
	return user
}

// AddFeedback inserts a submitted evaluation with the given text and age
func AddFeedback(t *testing.T, store storage.Store, internID, evaluatorID, text string, age time.Duration) *models.Evaluation {
	t.Helper()

	evaluation := &models.Evaluation{
		InternID:     internID,
		EvaluatorID:  evaluatorID,
		Type:         models.EvaluationTypeMentor,
		Status:       models.EvaluationStatusSubmitted,
		FeedbackText: text,
		CreatedAt:    time.Now().UTC().Add(-age),
	}
	if err := store.CreateEvaluation(context.Background(), evaluation); err != nil {
		t.Fatalf("create evaluation: %v", err)
	}
	return evaluation
}

// AddProjectTasks creates a project with the intern as primary intern, one
// milestone, and one task per status
func AddProjectTasks(t *testing.T, store storage.Store, internID string, statuses ...string) *models.Project {
	t.Helper()
	ctx := context.Background()

	project := &models.Project{Name: "project for " + internID, PrimaryInternID: &internID}
	if err := store.CreateProject(ctx, project); err != nil {
		t.Fatalf("create project: %v", err)
	}
	milestone := &models.Milestone{ProjectID: project.ID, Title: "milestone"}
	if err := store.CreateMilestone(ctx, milestone); err != nil {
		t.Fatalf("create milestone: %v", err)
	}
	for i, status := range statuses {
		task := &models.Task{MilestoneID: milestone.ID, Title: fmt.Sprintf("task %d", i+1), Status: status}
		if err := store.CreateTask(ctx, task); err != nil {
			t.Fatalf("create task: %v", err)
		}
	}
	return project
}
