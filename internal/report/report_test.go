package report

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/rohankatakam/internhub/internal/errors"
	"github.com/rohankatakam/internhub/internal/insights"
	"github.com/rohankatakam/internhub/internal/metrics"
	"github.com/rohankatakam/internhub/internal/models"
)

func sample() *insights.Result {
	return &insights.Result{
		InternID:   "i-1",
		InternName: "Alice",
		GitHub: insights.GitHubSection{
			Totals:       metrics.Totals{TotalCommits: 12, TotalAdditions: 340, TotalDeletions: 20},
			Repositories: 2,
			Status:       insights.StatusAvailable,
		},
		NLP: insights.NLPSection{
			SentimentScore:   "Positive",
			SentimentSummary: "Feedback is positive overall.",
			KeyThemes:        []string{"testing", "docs"},
			SentimentTimeline: []models.TimelinePoint{
				{Date: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), Sentiment: "Positive", Score: 1.25},
			},
			Status: insights.StatusAvailable,
		},
		Tasks:          insights.TaskSection{Total: 4, Completed: 3, CompletionRate: 75, Status: insights.StatusAvailable},
		EvaluationsDue: 2,
	}
}

func TestMarkdown(t *testing.T) {
	out := Markdown(sample())

	assert.Contains(t, out, "# Intern report: Alice")
	assert.Contains(t, out, "| Commits | 12 |")
	assert.Contains(t, out, "- testing\n- docs")
	assert.Contains(t, out, "| 2026-03-01 | Positive | 1.25 |")
	assert.Contains(t, out, "3 of 4 tasks done (75.0%).")
	assert.Contains(t, out, "2 evaluation(s) pending.")

	r := sample()
	r.GitHub = insights.GitHubSection{Status: insights.StatusUnavailable}
	assert.Contains(t, Markdown(r), "No GitHub account linked.")
}

func TestRenderHTML(t *testing.T) {
	html, err := RenderHTML(Markdown(sample()))
	require.NoError(t, err)
	assert.Contains(t, html, "<h1>Intern report: Alice</h1>")
	assert.Contains(t, html, "<table>")
	assert.Contains(t, html, "<li>testing</li>")
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatMarkdown, "MD": FormatMarkdown, "markdown": FormatMarkdown, "html": FormatHTML, "json": FormatJSON} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("pdf")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

type fixedSource struct{ result *insights.Result }

func (f fixedSource) GetInsights(ctx context.Context, internID string) (*insights.Result, error) {
	if internID != f.result.InternID {
		return nil, apperrors.NotFoundf("intern %s not found", internID)
	}
	return f.result, nil
}

func TestGenerator(t *testing.T) {
	gen := NewGenerator(fixedSource{result: sample()})

	var buf bytes.Buffer
	require.NoError(t, gen.Generate(context.Background(), "i-1", FormatHTML, &buf))
	assert.Contains(t, buf.String(), "<!DOCTYPE html>")

	buf.Reset()
	require.NoError(t, gen.Generate(context.Background(), "i-1", FormatJSON, &buf))
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Contains(t, doc, "evaluationsDue")

	err := gen.Generate(context.Background(), "nope", FormatMarkdown, &buf)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}
