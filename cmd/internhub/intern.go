package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/internhub/internal/app"
	"github.com/rohankatakam/internhub/internal/config"
	"github.com/rohankatakam/internhub/internal/metrics"
)

var (
	fetchRepo    string
	analyzeTopK  int
)

var insightsCmd = &cobra.Command{
	Use:   "insights <intern-id>",
	Short: "Compute and print an intern's insights",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, config.ValidationContextServe)
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.Insights.GetInsights(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), result)
	},
}

var fetchCmd = &cobra.Command{
	Use:   "fetch <intern-id>",
	Short: "Fetch GitHub contributions through the metrics cache",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, config.ValidationContextFetch)
		if err != nil {
			return err
		}
		defer a.Close()

		if fetchRepo != "" {
			record, err := a.Contributions.FetchRepository(cmd.Context(), args[0], fetchRepo)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), record)
		}

		records, err := a.Contributions.FetchContributions(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), map[string]interface{}{
			"records": records,
			"totals":  metrics.Sum(records),
		})
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [intern-id]",
	Short: "Analyze feedback sentiment and themes",
	Long: `With an intern id, analyzes all of the intern's feedback and stores the
aggregate summary. Without one, analyzes text read from stdin.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, config.ValidationContextServe)
		if err != nil {
			return err
		}
		defer a.Close()

		if len(args) == 1 {
			summary, err := a.Summaries.GenerateAndStoreSummary(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), summary)
		}

		text, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		analysis, err := a.Analyzer.Analyze(strings.TrimSpace(string(text)), analyzeTopK)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), analysis)
	},
}

var draftCmd = &cobra.Command{
	Use:   "draft <intern-id>",
	Short: "Generate an AI performance review draft",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, config.ValidationContextDraft)
		if err != nil {
			return err
		}
		defer a.Close()

		d, err := a.Drafts.GenerateDraft(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), d.Text)
		return nil
	},
}

func init() {
	fetchCmd.Flags().StringVar(&fetchRepo, "repo", "", "fetch one owner/name repository, bypassing the cache")
	analyzeCmd.Flags().IntVar(&analyzeTopK, "top", 5, "number of key themes for stdin text")
}

// openApp validates cfg for vctx and builds the services
func openApp(cmd *cobra.Command, vctx config.ValidationContext) (*app.App, error) {
	result := cfg.Validate(vctx)
	for _, w := range result.Warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}
	if err := cfg.Require(vctx); err != nil {
		return nil, err
	}
	return app.New(cmd.Context(), cfg, logger, app.Options{})
}
