package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rohankatakam/internhub/internal/app"
	"github.com/rohankatakam/internhub/internal/config"
	"github.com/rohankatakam/internhub/internal/logging"
	"github.com/rohankatakam/internhub/internal/mcpserver"
)

// Version is set by build flags
var Version = "dev"

func main() {
	configPath := flag.String("config", "", "config file (default: .internhub/config.yaml)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	// stdout is the MCP transport
	cfg.Logging.Console = os.Stderr
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	if err := cfg.Require(config.ValidationContextServe); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()

	logger.WithField("version", Version).Info("internhub MCP server starting on stdio")
	server := mcpserver.NewServer(a.Insights, a.Analyzer, Version, logger)
	return server.Run(ctx, &mcp.StdioTransport{})
}
