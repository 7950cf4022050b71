// Package app assembles the services from configuration. Both binaries and
// the scheduler share it.
package app

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/internhub/internal/cache"
	"github.com/rohankatakam/internhub/internal/config"
	"github.com/rohankatakam/internhub/internal/dlq"
	"github.com/rohankatakam/internhub/internal/draft"
	"github.com/rohankatakam/internhub/internal/github"
	"github.com/rohankatakam/internhub/internal/httpapi"
	"github.com/rohankatakam/internhub/internal/insights"
	"github.com/rohankatakam/internhub/internal/jobs"
	"github.com/rohankatakam/internhub/internal/llm"
	"github.com/rohankatakam/internhub/internal/metrics"
	"github.com/rohankatakam/internhub/internal/nlp"
	"github.com/rohankatakam/internhub/internal/report"
	"github.com/rohankatakam/internhub/internal/storage"
	"github.com/rohankatakam/internhub/internal/tasks"
)

// App holds every wired service
type App struct {
	Config *config.Config
	Logger *logrus.Logger

	Store         *storage.SQLStore
	Queue         *dlq.Queue
	Contributions *metrics.Service
	Analyzer      *nlp.Analyzer
	Summaries     *nlp.SummaryService
	Completion    *tasks.Calculator
	Insights      *insights.Service
	LLM           *llm.Client
	Drafts        *draft.Service
	Reports       *report.Generator

	// Redis is nil unless cache.redis_url is set and reachable
	Redis *cache.Client

	closers []func() error
}

// Options select the optional parts to build
type Options struct {
	// Analyzer overrides the prose-backed analyzer
	Analyzer *nlp.Analyzer
	// GitHub overrides the go-github API client
	GitHub github.API
}

// New opens storage and builds the service graph
func New(ctx context.Context, cfg *config.Config, logger *logrus.Logger, opts Options) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	store, err := storage.Open(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	a.Store = store
	a.closers = append(a.closers, store.Close)

	api := opts.GitHub
	if api == nil {
		client, err := github.NewClient(cfg.GitHub, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		api = client
	}
	stats, err := github.NewStatsCache(cfg.Cache)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, stats.Close)

	a.Queue = dlq.NewQueue(store.DB(), logger)
	a.Contributions = metrics.NewService(store, github.NewFetcher(api, stats, logger), a.Queue, cfg.Metrics, logger)

	a.Analyzer = opts.Analyzer
	if a.Analyzer == nil {
		if a.Analyzer, err = nlp.NewDefaultAnalyzer(cfg.NLP); err != nil {
			a.Close()
			return nil, fmt.Errorf("load nlp models: %w", err)
		}
	}
	a.Summaries = nlp.NewSummaryService(store, a.Analyzer, logger)
	a.Completion = tasks.NewCalculator(store, logger)
	a.Insights = insights.NewService(store, a.Contributions, a.Summaries, a.Completion, logger)
	a.Reports = report.NewGenerator(a.Insights)

	a.connectRedis(ctx)

	var quota *llm.RateLimiter
	if a.Redis != nil && cfg.LLM.DailyLimit > 0 {
		quota = llm.NewRateLimiterWithClient(a.Redis.Redis(), cfg.LLM.DailyLimit)
	}
	if a.LLM, err = llm.NewClient(ctx, cfg.LLM, quota, logger); err != nil {
		a.Close()
		return nil, err
	}
	a.Drafts = draft.NewService(store, a.Insights, a.LLM, logger)
	if a.Redis != nil {
		a.Drafts.WithCache(a.Redis, cfg.Cache.DraftTTL)
	}

	return a, nil
}

// connectRedis is best effort: without Redis the quota and draft cache are off
func (a *App) connectRedis(ctx context.Context) {
	if a.Config.Cache.RedisURL == "" {
		return
	}
	client, err := cache.NewClient(ctx, a.Config.Cache.RedisURL, a.Config.Cache.DraftTTL, a.Logger)
	if err != nil {
		a.Logger.WithError(err).Warn("redis unavailable; llm quota and draft cache disabled")
		return
	}
	a.Redis = client
	a.closers = append(a.closers, client.Close)
}

// Services returns the handler dependencies for the HTTP API
func (a *App) Services() httpapi.Services {
	return httpapi.Services{
		Users:         a.Store,
		Contributions: a.Contributions,
		Summaries:     a.Summaries,
		Analyzer:      a.Analyzer,
		Completion:    a.Completion,
		Insights:      a.Insights,
		Drafts:        a.Drafts,
		Reports:       a.Reports,
	}
}

// Scheduler builds the metrics refresh scheduler
func (a *App) Scheduler() (*jobs.Scheduler, error) {
	return jobs.NewScheduler(a.Config.Jobs, a.Store, a.Contributions, a.Queue, a.Store, a.Logger)
}

// Close releases everything New opened, last opened first
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return stderrors.Join(errs...)
}
