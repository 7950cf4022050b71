package storage_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/internhub/internal/models"
	"github.com/rohankatakam/internhub/internal/storage"
	"github.com/rohankatakam/internhub/internal/testutil"
)

func TestUsers(t *testing.T) {
	store := testutil.OpenTestStore(t)
	ctx := context.Background()

	intern := testutil.CreateIntern(t, store, "dana", "")
	got, err := store.GetUser(ctx, intern.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleIntern, got.Role)
	assert.False(t, got.HasGitHub())

	username := "dana-gh"
	require.NoError(t, store.SetGitHubUsername(ctx, intern.ID, &username))
	got, err = store.GetUser(ctx, intern.ID)
	require.NoError(t, err)
	assert.True(t, got.HasGitHub())

	interns, err := store.ListInternsWithGitHub(ctx)
	require.NoError(t, err)
	require.Len(t, interns, 1)
	assert.Equal(t, intern.ID, interns[0].ID)

	_, err = store.GetUser(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, store.SetGitHubUsername(ctx, "missing", &username), storage.ErrNotFound)

	dup := &models.User{Name: "x", Email: intern.Email, Role: models.RoleIntern}
	assert.ErrorIs(t, store.CreateUser(ctx, dup), storage.ErrConflict)
}

func TestDeleteUserCascades(t *testing.T) {
	store := testutil.OpenTestStore(t)
	ctx := context.Background()

	intern := testutil.CreateIntern(t, store, "eve", "eve")
	require.NoError(t, store.InsertMetrics(ctx, &models.MetricsRecord{InternID: intern.ID, Repository: "acme/api"}))
	_, err := store.UpsertAggregateSummary(ctx, &models.NlpSummary{InternID: intern.ID, SentimentLabel: "Neutral"})
	require.NoError(t, err)

	require.NoError(t, store.DeleteUser(ctx, intern.ID))

	records, err := store.ListMetrics(ctx, intern.ID)
	require.NoError(t, err)
	assert.Empty(t, records)
	count, err := store.CountSummaries(ctx, intern.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestLatestMetrics(t *testing.T) {
	store := testutil.OpenTestStore(t)
	ctx := context.Background()
	intern := testutil.CreateIntern(t, store, "finn", "finn")

	_, err := store.LatestMetrics(ctx, intern.ID, "acme/api")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, commits := range []int{3, 7, 5} {
		require.NoError(t, store.InsertMetrics(ctx, &models.MetricsRecord{
			InternID:    intern.ID,
			Repository:  "acme/api",
			FetchDate:   base.Add(time.Duration(i) * time.Hour),
			CommitCount: commits,
			RawResponse: models.JSONMap{"commits": commits},
		}))
	}
	require.NoError(t, store.InsertMetrics(ctx, &models.MetricsRecord{
		InternID: intern.ID, Repository: "acme/web", FetchDate: base.Add(5 * time.Hour), CommitCount: 1,
	}))

	latest, err := store.LatestMetrics(ctx, intern.ID, "acme/api")
	require.NoError(t, err)
	assert.Equal(t, 5, latest.CommitCount)
	assert.True(t, latest.FetchDate.Equal(base.Add(2*time.Hour)))
	assert.Equal(t, float64(5), latest.RawResponse["commits"])

	all, err := store.ListMetrics(ctx, intern.ID)
	require.NoError(t, err)
	assert.Len(t, all, 4, "records are appended, never replaced")
}

func TestProjectsMilestonesTasks(t *testing.T) {
	store := testutil.OpenTestStore(t)
	ctx := context.Background()
	intern := testutil.CreateIntern(t, store, "gail", "")
	other := testutil.CreateIntern(t, store, "hank", "")

	primary := &models.Project{Name: "primary", PrimaryInternID: &intern.ID}
	member := &models.Project{Name: "member"}
	both := &models.Project{Name: "both", PrimaryInternID: &intern.ID}
	unrelated := &models.Project{Name: "unrelated", PrimaryInternID: &other.ID}
	for _, p := range []*models.Project{primary, member, both, unrelated} {
		require.NoError(t, store.CreateProject(ctx, p))
	}
	require.NoError(t, store.AddProjectIntern(ctx, member.ID, intern.ID))
	require.NoError(t, store.AddProjectIntern(ctx, both.ID, intern.ID))
	require.NoError(t, store.AddProjectIntern(ctx, both.ID, intern.ID))

	projects, err := store.ListInternProjects(ctx, intern.ID)
	require.NoError(t, err)
	names := []string{}
	for _, p := range projects {
		names = append(names, p.Name)
	}
	assert.ElementsMatch(t, []string{"primary", "member", "both"}, names)

	ms := &models.Milestone{ProjectID: primary.ID, Title: "M1"}
	require.NoError(t, store.CreateMilestone(ctx, ms))
	task := &models.Task{MilestoneID: ms.ID, Title: "T1"}
	require.NoError(t, store.CreateTask(ctx, task))
	assert.Equal(t, models.TaskStatusTodo, task.Status)
	require.NoError(t, store.UpdateTaskStatus(ctx, task.ID, models.TaskStatusDone))

	milestones, err := store.ListMilestones(ctx, []string{primary.ID, member.ID})
	require.NoError(t, err)
	require.Len(t, milestones, 1)

	tasks, err := store.ListTasks(ctx, []string{ms.ID})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, models.TaskStatusDone, tasks[0].Status)

	empty, err := store.ListTasks(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestEvaluations(t *testing.T) {
	store := testutil.OpenTestStore(t)
	ctx := context.Background()
	intern := testutil.CreateIntern(t, store, "ivy", "")
	mentor := testutil.CreateMentor(t, store, "mona")

	testutil.AddFeedback(t, store, intern.ID, mentor.ID, "older", 48*time.Hour)
	testutil.AddFeedback(t, store, intern.ID, mentor.ID, "newer", time.Hour)
	pending := &models.Evaluation{InternID: intern.ID, EvaluatorID: mentor.ID, Type: models.EvaluationTypePeer}
	require.NoError(t, store.CreateEvaluation(ctx, pending))

	evaluations, err := store.ListEvaluations(ctx, intern.ID)
	require.NoError(t, err)
	require.Len(t, evaluations, 3)
	assert.Equal(t, "newer", evaluations[1].FeedbackText)
	assert.Equal(t, "older", evaluations[2].FeedbackText)

	count, err := store.CountPendingEvaluations(ctx, intern.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUpsertAggregateSummary_SingleRow(t *testing.T) {
	store := testutil.OpenTestStore(t)
	ctx := context.Background()
	intern := testutil.CreateIntern(t, store, "jo", "")

	first, err := store.UpsertAggregateSummary(ctx, &models.NlpSummary{
		InternID:       intern.ID,
		SentimentLabel: "Positive",
		Keywords:       models.StringArray{"api"},
		Summary:        models.SummaryJSON{OverallSentiment: "Positive", SentimentScore: "Positive"},
	})
	require.NoError(t, err)

	second, err := store.UpsertAggregateSummary(ctx, &models.NlpSummary{
		InternID:       intern.ID,
		SentimentLabel: "Negative",
		Summary:        models.SummaryJSON{OverallSentiment: "Negative", SentimentScore: "Negative"},
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "aggregate row is updated in place")
	assert.Equal(t, "Negative", second.SentimentLabel)
	assert.Equal(t, "Negative", second.Summary.SentimentScore)
	assert.Nil(t, second.EvaluationID)

	count, err := store.CountSummaries(ctx, intern.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUpsertAggregateSummary_Concurrent(t *testing.T) {
	store := testutil.OpenTestStore(t)
	ctx := context.Background()
	intern := testutil.CreateIntern(t, store, "kai", "")

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.UpsertAggregateSummary(ctx, &models.NlpSummary{
				InternID:       intern.ID,
				SentimentLabel: fmt.Sprintf("run-%d", i),
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	count, err := store.CountSummaries(ctx, intern.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUpsertEvaluationSummary(t *testing.T) {
	store := testutil.OpenTestStore(t)
	ctx := context.Background()
	intern := testutil.CreateIntern(t, store, "lee", "")
	mentor := testutil.CreateMentor(t, store, "max")
	evaluation := testutil.AddFeedback(t, store, intern.ID, mentor.ID, "great work", time.Hour)

	for i := 0; i < 2; i++ {
		got, err := store.UpsertEvaluationSummary(ctx, &models.NlpSummary{
			InternID:       intern.ID,
			EvaluationID:   &evaluation.ID,
			SentimentLabel: "Positive",
		})
		require.NoError(t, err)
		require.NotNil(t, got.EvaluationID)
	}
	_, err := store.UpsertAggregateSummary(ctx, &models.NlpSummary{InternID: intern.ID, SentimentLabel: "Positive"})
	require.NoError(t, err)

	count, err := store.CountSummaries(ctx, intern.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count, "one per-evaluation row plus one aggregate row")

	_, err = store.UpsertEvaluationSummary(ctx, &models.NlpSummary{InternID: intern.ID})
	assert.Error(t, err)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, storage.IsUniqueViolation(nil))
	assert.False(t, storage.IsUniqueViolation(fmt.Errorf("plain")))
}
