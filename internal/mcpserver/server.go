package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/internhub/internal/insights"
	"github.com/rohankatakam/internhub/internal/nlp"
)

const (
	ToolGetInternInsights = "internhub.get_intern_insights"
	ToolAnalyzeText       = "internhub.analyze_text"
)

// InsightsSource produces insight documents
type InsightsSource interface {
	GetInsights(ctx context.Context, internID string) (*insights.Result, error)
}

// InsightsArgs are the arguments of internhub.get_intern_insights
type InsightsArgs struct {
	InternID string `json:"intern_id" jsonschema:"id of the intern to summarize"`
}

// AnalyzeArgs are the arguments of internhub.analyze_text
type AnalyzeArgs struct {
	Text string `json:"text" jsonschema:"free text such as review feedback"`
	TopK int    `json:"top_k,omitempty" jsonschema:"number of key themes to return, default 5"`
}

// NewServer creates the MCP server exposing intern insights to assistants
func NewServer(source InsightsSource, analyzer *nlp.Analyzer, version string, logger *logrus.Logger) *mcp.Server {
	log := logger.WithField("component", "mcp")
	server := mcp.NewServer(&mcp.Implementation{Name: "internhub", Version: version}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolGetInternInsights,
		Description: "Returns GitHub contribution totals, feedback sentiment and key themes, task completion and pending evaluations for one intern.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args InsightsArgs) (*mcp.CallToolResult, any, error) {
		internID := strings.TrimSpace(args.InternID)
		if internID == "" {
			return nil, nil, fmt.Errorf("intern_id is required")
		}
		result, err := source.GetInsights(ctx, internID)
		if err != nil {
			log.WithError(err).WithField("intern_id", internID).Warn("insights tool failed")
			return nil, nil, err
		}
		return textResult(result)
	})

	if analyzer != nil {
		mcp.AddTool(server, &mcp.Tool{
			Name:        ToolAnalyzeText,
			Description: "Scores the sentiment of a text and extracts its key themes and topics.",
		}, func(ctx context.Context, req *mcp.CallToolRequest, args AnalyzeArgs) (*mcp.CallToolResult, any, error) {
			analysis, err := analyzer.Analyze(args.Text, args.TopK)
			if err != nil {
				return nil, nil, err
			}
			return textResult(analysis)
		})
	}

	return server
}

func textResult(v interface{}) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("encode result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}
