package httpapi

import (
	"context"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/internhub/internal/draft"
	apperrors "github.com/rohankatakam/internhub/internal/errors"
	"github.com/rohankatakam/internhub/internal/insights"
	"github.com/rohankatakam/internhub/internal/models"
	"github.com/rohankatakam/internhub/internal/nlp"
	"github.com/rohankatakam/internhub/internal/report"
	"github.com/rohankatakam/internhub/internal/tasks"
)

// UserStore is the user storage the API writes to directly
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	SetGitHubUsername(ctx context.Context, id string, username *string) error
}

type ContributionService interface {
	FetchContributions(ctx context.Context, internID string) ([]*models.MetricsRecord, error)
	History(ctx context.Context, internID string) ([]*models.MetricsRecord, error)
}

type SummaryService interface {
	GenerateAndStoreSummary(ctx context.Context, internID string) (*models.NlpSummary, error)
	StoredSummary(ctx context.Context, internID string) (*models.NlpSummary, error)
	AnalyzeEvaluation(ctx context.Context, evaluationID string) (*models.NlpSummary, error)
}

type CompletionService interface {
	CompletionRate(ctx context.Context, internID string) (*tasks.Completion, error)
}

type InsightsService interface {
	GetInsights(ctx context.Context, internID string) (*insights.Result, error)
}

type DraftService interface {
	GenerateDraft(ctx context.Context, internID string) (*draft.Draft, error)
}

type ReportService interface {
	Generate(ctx context.Context, internID string, f report.Format, w io.Writer) error
}

// Services bundles everything the handlers call. Drafts may be nil.
type Services struct {
	Users         UserStore
	Contributions ContributionService
	Summaries     SummaryService
	Analyzer      *nlp.Analyzer
	Completion    CompletionService
	Insights      InsightsService
	Drafts        DraftService
	Reports       ReportService
}

// NewRouter builds the gin engine with every API route registered
func NewRouter(svc Services, debug bool, logger *logrus.Logger) *gin.Engine {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(logger.WithField("component", "http")))
	r.Use(errorHandler(logger.WithField("component", "http")))

	h := &handlers{svc: svc}

	r.GET("/healthz", h.healthz)

	api := r.Group("/api")
	api.POST("/users", h.createUser)
	api.GET("/users/:id", h.getUser)
	api.PUT("/users/:id/github-username", h.setGitHubUsername)

	interns := api.Group("/interns/:id")
	interns.GET("/insights", h.insights)
	interns.GET("/github-metrics", h.githubMetrics)
	interns.GET("/github-metrics/history", h.githubHistory)
	interns.POST("/nlp-summary", h.generateSummary)
	interns.GET("/nlp-summary", h.storedSummary)
	interns.GET("/task-completion", h.taskCompletion)
	interns.POST("/review-draft", h.reviewDraft)
	interns.GET("/report", h.report)

	api.POST("/evaluations/:id/nlp-summary", h.evaluationSummary)
	api.POST("/nlp/analyze", h.analyze)

	return r
}

func requestLogger(log *logrus.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		}).Info("http")
	}
}

// errorHandler turns the last handler error into a JSON response. Internal
// details are logged, never returned.
func errorHandler(log *logrus.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		status := apperrors.HTTPStatus(err)
		if status >= 500 {
			log.WithError(err).WithField("path", c.FullPath()).Error("request failed")
		}
		c.JSON(status, gin.H{"error": apperrors.PublicMessage(err)})
	}
}
