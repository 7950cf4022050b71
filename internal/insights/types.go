package insights

import (
	"time"

	"github.com/rohankatakam/internhub/internal/metrics"
	"github.com/rohankatakam/internhub/internal/models"
)

// Status tags how a section of the result was produced
type Status string

const (
	StatusAvailable   Status = "available"
	StatusUnavailable Status = "unavailable"
	StatusError       Status = "error"
)

// GitHubSection holds contribution totals across monitored repositories
type GitHubSection struct {
	metrics.Totals
	Repositories int    `json:"repositories"`
	Status       Status `json:"status"`
	Error        string `json:"error,omitempty"`
}

// NLPSection mirrors the stored summary payload and always carries every
// summary key. On failure only SentimentScore ("N/A") and KeyThemes ([])
// are meaningful.
type NLPSection struct {
	SentimentScore    string                 `json:"sentimentScore"`
	KeyThemes         []string               `json:"keyThemes"`
	OverallSentiment  string                 `json:"overallSentiment"`
	SentimentSummary  string                 `json:"sentimentSummary"`
	SentimentTimeline []models.TimelinePoint `json:"sentimentTimeline"`
	Keywords          []string               `json:"keywords"`
	Topics            []models.TopicCount    `json:"topics"`
	Emotions          map[string]float64     `json:"emotions"`
	AnalysisDate      *time.Time             `json:"analysisDate,omitempty"`
	Status            Status                 `json:"status"`
	Error             string                 `json:"error,omitempty"`
}

// TaskSection holds task completion
type TaskSection struct {
	Total          int     `json:"total"`
	Completed      int     `json:"completed"`
	CompletionRate float64 `json:"completionRate"`
	Status         Status  `json:"status"`
	Error          string  `json:"error,omitempty"`
}

// Result is the composite insight document for one intern. Field names are
// read by the dashboard, report export and review draft prompt.
type Result struct {
	InternID       string        `json:"internId"`
	InternName     string        `json:"internName"`
	GitHub         GitHubSection `json:"github"`
	NLP            NLPSection    `json:"nlp"`
	Tasks          TaskSection   `json:"tasks"`
	EvaluationsDue int           `json:"evaluationsDue"`
	GeneratedAt    time.Time     `json:"generatedAt"`
}

func nlpFromSummary(summary *models.NlpSummary) NLPSection {
	s := summary.Summary
	date := summary.AnalysisDate
	return NLPSection{
		SentimentScore:    s.SentimentScore,
		KeyThemes:         s.KeyThemes,
		OverallSentiment:  s.OverallSentiment,
		SentimentSummary:  s.SentimentSummary,
		SentimentTimeline: s.SentimentTimeline,
		Keywords:          s.Keywords,
		Topics:            s.Topics,
		Emotions:          s.Emotions,
		AnalysisDate:      &date,
		Status:            StatusAvailable,
	}.normalized()
}

func nlpFallback(message string) NLPSection {
	return NLPSection{
		SentimentScore: "N/A",
		Status:         StatusError,
		Error:          message,
	}.normalized()
}

// normalized replaces nil collections so they encode as [] and {}
func (n NLPSection) normalized() NLPSection {
	if n.KeyThemes == nil {
		n.KeyThemes = []string{}
	}
	if n.SentimentTimeline == nil {
		n.SentimentTimeline = []models.TimelinePoint{}
	}
	if n.Keywords == nil {
		n.Keywords = []string{}
	}
	if n.Topics == nil {
		n.Topics = []models.TopicCount{}
	}
	if n.Emotions == nil {
		n.Emotions = map[string]float64{}
	}
	return n
}
