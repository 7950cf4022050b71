package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	apperrors "github.com/rohankatakam/internhub/internal/errors"
	"github.com/rohankatakam/internhub/internal/insights"
)

// Format selects the report encoding
type Format string

const (
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
	FormatJSON     Format = "json"
)

// ParseFormat accepts md, markdown, html and json. Empty means markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "md", "markdown":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", apperrors.ValidationErrorf("unknown report format %q (want md, html or json)", s)
	}
}

// ContentType returns the HTTP content type for f
func (f Format) ContentType() string {
	switch f {
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatJSON:
		return "application/json"
	default:
		return "text/markdown; charset=utf-8"
	}
}

// Formatter writes an insight document in one encoding
type Formatter interface {
	Format(result *insights.Result, w io.Writer) error
}

// NewFormatter creates the formatter for f
func NewFormatter(f Format) Formatter {
	switch f {
	case FormatHTML:
		return &HTMLFormatter{}
	case FormatJSON:
		return &JSONFormatter{}
	default:
		return &MarkdownFormatter{}
	}
}

// JSONFormatter writes the raw insight document
type JSONFormatter struct{}

func (f *JSONFormatter) Format(result *insights.Result, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// InsightsSource produces insight documents
type InsightsSource interface {
	GetInsights(ctx context.Context, internID string) (*insights.Result, error)
}

// Generator renders reports from freshly computed insights
type Generator struct {
	source InsightsSource
}

func NewGenerator(source InsightsSource) *Generator {
	return &Generator{source: source}
}

// Generate computes the intern's insights and writes them to w in format f
func (g *Generator) Generate(ctx context.Context, internID string, f Format, w io.Writer) error {
	result, err := g.source.GetInsights(ctx, internID)
	if err != nil {
		return err
	}
	if err := NewFormatter(f).Format(result, w); err != nil {
		return apperrors.InternalError(err, fmt.Sprintf("render %s report", f))
	}
	return nil
}
