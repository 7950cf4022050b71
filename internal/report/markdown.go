package report

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/rohankatakam/internhub/internal/insights"
)

// MarkdownFormatter writes the report as Markdown
type MarkdownFormatter struct{}

func (f *MarkdownFormatter) Format(result *insights.Result, w io.Writer) error {
	_, err := io.WriteString(w, Markdown(result))
	return err
}

// Markdown renders the insight document as a Markdown report
func Markdown(r *insights.Result) string {
	var b strings.Builder

	name := r.InternName
	if name == "" {
		name = r.InternID
	}
	fmt.Fprintf(&b, "# Intern report: %s\n\n", name)
	if !r.GeneratedAt.IsZero() {
		fmt.Fprintf(&b, "_Generated %s_\n\n", r.GeneratedAt.Format("2006-01-02 15:04 MST"))
	}

	b.WriteString("## GitHub contributions\n\n")
	switch r.GitHub.Status {
	case insights.StatusUnavailable:
		b.WriteString("No GitHub account linked.\n\n")
	case insights.StatusError:
		fmt.Fprintf(&b, "GitHub data could not be loaded: %s\n\n", r.GitHub.Error)
	default:
		b.WriteString("| Metric | Value |\n|---|---|\n")
		fmt.Fprintf(&b, "| Commits | %d |\n", r.GitHub.TotalCommits)
		fmt.Fprintf(&b, "| Lines added | %d |\n", r.GitHub.TotalAdditions)
		fmt.Fprintf(&b, "| Lines deleted | %d |\n", r.GitHub.TotalDeletions)
		fmt.Fprintf(&b, "| Repositories | %d |\n\n", r.GitHub.Repositories)
	}

	b.WriteString("## Feedback analysis\n\n")
	fmt.Fprintf(&b, "**Overall sentiment:** %s\n\n", r.NLP.SentimentScore)
	if r.NLP.SentimentSummary != "" {
		b.WriteString(r.NLP.SentimentSummary + "\n\n")
	}
	if len(r.NLP.KeyThemes) > 0 {
		b.WriteString("Key themes:\n\n")
		for _, theme := range r.NLP.KeyThemes {
			fmt.Fprintf(&b, "- %s\n", theme)
		}
		b.WriteString("\n")
	}
	if len(r.NLP.SentimentTimeline) > 0 {
		b.WriteString("| Date | Sentiment | Score |\n|---|---|---|\n")
		for _, p := range r.NLP.SentimentTimeline {
			fmt.Fprintf(&b, "| %s | %s | %.2f |\n", p.Date.Format("2006-01-02"), p.Sentiment, p.Score)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Tasks\n\n")
	if r.Tasks.Status == insights.StatusError {
		fmt.Fprintf(&b, "Task data could not be loaded: %s\n\n", r.Tasks.Error)
	} else {
		fmt.Fprintf(&b, "%d of %d tasks done (%.1f%%).\n\n", r.Tasks.Completed, r.Tasks.Total, r.Tasks.CompletionRate)
	}

	b.WriteString("## Evaluations\n\n")
	fmt.Fprintf(&b, "%d evaluation(s) pending.\n", r.EvaluationsDue)
	return b.String()
}

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// RenderHTML converts Markdown to an HTML fragment
func RenderHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

// HTMLFormatter writes a standalone HTML page
type HTMLFormatter struct{}

func (f *HTMLFormatter) Format(result *insights.Result, w io.Writer) error {
	body, err := RenderHTML(Markdown(result))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, htmlPage, result.InternID, body)
	return err
}

const htmlPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Intern report %s</title>
<style>
body { font-family: sans-serif; max-width: 48rem; margin: 2rem auto; }
table { border-collapse: collapse; }
td, th { border: 1px solid #ccc; padding: 0.25rem 0.75rem; }
</style>
</head>
<body>
%s</body>
</html>
`
