package draft

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/internhub/internal/cache"
	apperrors "github.com/rohankatakam/internhub/internal/errors"
	"github.com/rohankatakam/internhub/internal/insights"
	"github.com/rohankatakam/internhub/internal/llm"
	"github.com/rohankatakam/internhub/internal/models"
	"github.com/rohankatakam/internhub/internal/storage"
)

const systemPrompt = "You are an experienced engineering mentor writing a fair, specific and encouraging " +
	"performance review for an intern. Use only the facts provided. Write plain prose in three short paragraphs: " +
	"contributions, feedback themes, and next steps."

var promptTemplate = template.Must(template.New("review").Parse(`Draft a performance review for {{.Intern}}, mentored by {{.Mentor}}.

GitHub activity: {{.Commits}} commits, {{.Additions}} lines added, {{.Deletions}} lines deleted{{if .GitHubNote}} ({{.GitHubNote}}){{end}}.
Task completion: {{.Completed}} of {{.Total}} tasks done ({{printf "%.1f" .Rate}}%).
Feedback sentiment: {{.Sentiment}}.
Key themes from feedback: {{.Themes}}.
Evaluations still pending: {{.Due}}.
`))

// Store loads the users named in the prompt
type Store interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// InsightsSource produces the insight document the prompt is built from
type InsightsSource interface {
	GetInsights(ctx context.Context, internID string) (*insights.Result, error)
}

// Cache stores generated drafts so repeated requests within the TTL do not
// spend provider quota
type Cache interface {
	Get(ctx context.Context, key string, target interface{}) (bool, error)
	SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Draft is a generated review draft
type Draft struct {
	InternID    string       `json:"internId"`
	Provider    llm.Provider `json:"provider"`
	Prompt      string       `json:"prompt"`
	Text        string       `json:"text"`
	GeneratedAt time.Time    `json:"generatedAt"`
}

// Service generates AI review drafts
type Service struct {
	store    Store
	insights InsightsSource
	client   *llm.Client
	cache    Cache
	cacheTTL time.Duration
	logger   *logrus.Entry
}

func NewService(store Store, source InsightsSource, client *llm.Client, logger *logrus.Logger) *Service {
	return &Service{
		store:    store,
		insights: source,
		client:   client,
		logger:   logger.WithField("component", "draft"),
	}
}

// WithCache enables draft caching for ttl
func (s *Service) WithCache(c Cache, ttl time.Duration) *Service {
	s.cache = c
	s.cacheTTL = ttl
	return s
}

// GenerateDraft builds the review prompt from the intern's insights and
// sends it to the configured LLM provider
func (s *Service) GenerateDraft(ctx context.Context, internID string) (*Draft, error) {
	if !s.client.IsEnabled() {
		return nil, apperrors.ConfigError("review drafts need an llm provider (set llm.provider and its API key)")
	}

	intern, err := s.store.GetUser(ctx, internID)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.NotFoundf("intern %s not found", internID)
		}
		return nil, apperrors.DatabaseError(err, "load intern")
	}

	mentorName := "their mentor"
	if intern.MentorID != nil {
		mentor, err := s.store.GetUser(ctx, *intern.MentorID)
		switch {
		case err == nil:
			mentorName = mentor.Name
		case !stderrors.Is(err, storage.ErrNotFound):
			return nil, apperrors.DatabaseError(err, "load mentor")
		}
	}

	key := cache.Key("draft", string(s.client.GetProvider()), internID)
	if s.cache != nil {
		var cached Draft
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.logger.WithError(err).Warn("draft cache read failed")
		} else if found {
			return &cached, nil
		}
	}

	result, err := s.insights.GetInsights(ctx, internID)
	if err != nil {
		return nil, err
	}

	prompt, err := BuildPrompt(intern.Name, mentorName, result)
	if err != nil {
		return nil, apperrors.InternalError(err, "build review prompt")
	}

	text, err := s.client.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"intern_id": internID,
		"provider":  s.client.GetProvider(),
	}).Info("review draft generated")

	draft := &Draft{
		InternID:    internID,
		Provider:    s.client.GetProvider(),
		Prompt:      prompt,
		Text:        strings.TrimSpace(text),
		GeneratedAt: time.Now().UTC(),
	}
	if s.cache != nil {
		if err := s.cache.SetWithTTL(ctx, key, draft, s.cacheTTL); err != nil {
			s.logger.WithError(err).Warn("draft cache write failed")
		}
	}
	return draft, nil
}

// BuildPrompt renders the review prompt for an insight document
func BuildPrompt(internName, mentorName string, r *insights.Result) (string, error) {
	themes := "none recorded"
	if len(r.NLP.KeyThemes) > 0 {
		themes = strings.Join(r.NLP.KeyThemes, ", ")
	}

	var note string
	switch r.GitHub.Status {
	case insights.StatusUnavailable:
		note = "no GitHub account linked"
	case insights.StatusError:
		note = "GitHub data could not be loaded"
	}

	var buf bytes.Buffer
	err := promptTemplate.Execute(&buf, map[string]interface{}{
		"Intern":     internName,
		"Mentor":     mentorName,
		"Commits":    r.GitHub.TotalCommits,
		"Additions":  r.GitHub.TotalAdditions,
		"Deletions":  r.GitHub.TotalDeletions,
		"GitHubNote": note,
		"Completed":  r.Tasks.Completed,
		"Total":      r.Tasks.Total,
		"Rate":       r.Tasks.CompletionRate,
		"Sentiment":  r.NLP.SentimentScore,
		"Themes":     themes,
		"Due":        r.EvaluationsDue,
	})
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return buf.String(), nil
}
