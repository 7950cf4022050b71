package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/rohankatakam/internhub/internal/config"
	"github.com/rohankatakam/internhub/internal/report"
)

var (
	reportFormat string
	reportOutput string
	reportOpen   bool
)

var reportCmd = &cobra.Command{
	Use:   "report <intern-id>",
	Short: "Export an intern report as Markdown, HTML or JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := report.ParseFormat(reportFormat)
		if err != nil {
			return err
		}
		if reportOpen {
			format = report.FormatHTML
			if reportOutput == "" {
				reportOutput = filepath.Join(os.TempDir(), fmt.Sprintf("internhub-report-%s.html", args[0]))
			}
		}

		a, err := openApp(cmd, config.ValidationContextServe)
		if err != nil {
			return err
		}
		defer a.Close()

		var w io.Writer = cmd.OutOrStdout()
		if reportOutput != "" {
			f, err := os.Create(reportOutput)
			if err != nil {
				return fmt.Errorf("create report file: %w", err)
			}
			defer f.Close()
			w = f
		}

		if err := a.Reports.Generate(cmd.Context(), args[0], format, w); err != nil {
			return err
		}

		if reportOutput != "" {
			fmt.Fprintf(os.Stderr, "✓ Report written to %s\n", reportOutput)
		}
		if reportOpen {
			if err := browser.OpenFile(reportOutput); err != nil {
				return fmt.Errorf("open browser: %w", err)
			}
		}
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVarP(&reportFormat, "format", "f", "md", "md, html or json")
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "write to file instead of stdout")
	reportCmd.Flags().BoolVar(&reportOpen, "open", false, "render HTML and open it in the browser")
}
