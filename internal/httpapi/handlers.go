package httpapi

import (
	"bytes"
	stderrors "errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/rohankatakam/internhub/internal/errors"
	"github.com/rohankatakam/internhub/internal/metrics"
	"github.com/rohankatakam/internhub/internal/models"
	"github.com/rohankatakam/internhub/internal/report"
	"github.com/rohankatakam/internhub/internal/storage"
)

var githubUsername = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9]|-[A-Za-z0-9]){0,38}$`)

type handlers struct {
	svc Services
}

func (h *handlers) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type createUserRequest struct {
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	Role           string  `json:"role"`
	GitHubUsername *string `json:"githubUsername"`
	MentorID       *string `json:"mentorId"`
}

func (h *handlers) createUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.ValidationErrorf("invalid request body: %v", err))
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" {
		c.Error(apperrors.ValidationError("name and email are required"))
		return
	}
	role := models.Role(req.Role)
	if !role.Valid() {
		c.Error(apperrors.ValidationErrorf("unknown role %q", req.Role))
		return
	}
	if err := validateUsername(req.GitHubUsername); err != nil {
		c.Error(err)
		return
	}

	user := &models.User{
		Name:           strings.TrimSpace(req.Name),
		Email:          strings.TrimSpace(req.Email),
		Role:           role,
		GitHubUsername: req.GitHubUsername,
		MentorID:       req.MentorID,
	}
	if err := h.svc.Users.CreateUser(c.Request.Context(), user); err != nil {
		if stderrors.Is(err, storage.ErrConflict) {
			c.Error(apperrors.Conflict(err, "a user with this email already exists"))
			return
		}
		c.Error(apperrors.DatabaseError(err, "create user"))
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *handlers) getUser(c *gin.Context) {
	user, err := h.svc.Users.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(userError(err, c.Param("id")))
		return
	}
	c.JSON(http.StatusOK, user)
}

type githubUsernameRequest struct {
	GitHubUsername *string `json:"githubUsername"`
}

func (h *handlers) setGitHubUsername(c *gin.Context) {
	var req githubUsernameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.ValidationErrorf("invalid request body: %v", err))
		return
	}
	if err := validateUsername(req.GitHubUsername); err != nil {
		c.Error(err)
		return
	}

	ctx := c.Request.Context()
	id := c.Param("id")
	if err := h.svc.Users.SetGitHubUsername(ctx, id, req.GitHubUsername); err != nil {
		c.Error(userError(err, id))
		return
	}
	user, err := h.svc.Users.GetUser(ctx, id)
	if err != nil {
		c.Error(userError(err, id))
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *handlers) insights(c *gin.Context) {
	result, err := h.svc.Insights.GetInsights(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *handlers) githubMetrics(c *gin.Context) {
	records, err := h.svc.Contributions.FetchContributions(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"records": records,
		"totals":  metrics.Sum(records),
	})
}

func (h *handlers) githubHistory(c *gin.Context) {
	records, err := h.svc.Contributions.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

func (h *handlers) generateSummary(c *gin.Context) {
	summary, err := h.svc.Summaries.GenerateAndStoreSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *handlers) storedSummary(c *gin.Context) {
	summary, err := h.svc.Summaries.StoredSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *handlers) evaluationSummary(c *gin.Context) {
	summary, err := h.svc.Summaries.AnalyzeEvaluation(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *handlers) taskCompletion(c *gin.Context) {
	completion, err := h.svc.Completion.CompletionRate(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, completion)
}

func (h *handlers) reviewDraft(c *gin.Context) {
	if h.svc.Drafts == nil {
		c.Error(apperrors.ConfigError("review drafts are not configured"))
		return
	}
	d, err := h.svc.Drafts.GenerateDraft(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *handlers) report(c *gin.Context) {
	format, err := report.ParseFormat(c.Query("format"))
	if err != nil {
		c.Error(err)
		return
	}

	var buf bytes.Buffer
	if err := h.svc.Reports.Generate(c.Request.Context(), c.Param("id"), format, &buf); err != nil {
		c.Error(err)
		return
	}
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

type analyzeRequest struct {
	Text string `json:"text"`
	TopK int    `json:"topK"`
}

func (h *handlers) analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.ValidationErrorf("invalid request body: %v", err))
		return
	}
	if req.TopK < 0 || req.TopK > 50 {
		c.Error(apperrors.ValidationError("topK must be between 0 and 50"))
		return
	}
	result, err := h.svc.Analyzer.Analyze(req.Text, req.TopK)
	if err != nil {
		c.Error(apperrors.InternalError(err, "analyze text"))
		return
	}
	c.JSON(http.StatusOK, result)
}

func validateUsername(username *string) error {
	if username == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*username)
	if trimmed != "" && !githubUsername.MatchString(trimmed) {
		return apperrors.ValidationErrorf("invalid GitHub username %q", *username)
	}
	*username = trimmed
	return nil
}

func userError(err error, id string) error {
	if stderrors.Is(err, storage.ErrNotFound) {
		return apperrors.NotFoundf("user %s not found", id)
	}
	return apperrors.DatabaseError(err, "load user")
}
