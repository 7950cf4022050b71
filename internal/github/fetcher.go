package github

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// API is the subset of the GitHub client the fetcher needs
type API interface {
	ListAuthorCommits(ctx context.Context, owner, repo, author string, since time.Time) ([]CommitSummary, error)
	GetCommitStats(ctx context.Context, owner, repo, sha string) (CommitStats, error)
}

// FetchOptions controls one repository fetch
type FetchOptions struct {
	Since     time.Time
	LineStats bool
	// Parallel commit detail calls; <= 0 means 4
	Concurrency int
}

// CommitDetail is one commit in the raw snapshot
type CommitDetail struct {
	SHA       string    `json:"sha"`
	Date      time.Time `json:"date"`
	Additions int       `json:"additions"`
	Deletions int       `json:"deletions"`
}

// RepoContributions is the aggregated result for (author, repository)
type RepoContributions struct {
	Repository   string         `json:"repository"`
	Author       string         `json:"author"`
	Since        time.Time      `json:"since"`
	CommitCount  int            `json:"commitCount"`
	LinesAdded   int            `json:"linesAdded"`
	LinesDeleted int            `json:"linesDeleted"`
	LineStats    bool           `json:"lineStats"`
	Commits      []CommitDetail `json:"commits"`
}

// Snapshot renders the result as the raw JSON object stored with a metrics record
func (r *RepoContributions) Snapshot() map[string]interface{} {
	commits := make([]interface{}, 0, len(r.Commits))
	for _, c := range r.Commits {
		commits = append(commits, map[string]interface{}{
			"sha":       c.SHA,
			"date":      c.Date.UTC().Format(time.RFC3339),
			"additions": c.Additions,
			"deletions": c.Deletions,
		})
	}
	return map[string]interface{}{
		"repository": r.Repository,
		"author":     r.Author,
		"since":      r.Since.UTC().Format(time.RFC3339),
		"lineStats":  r.LineStats,
		"commits":    commits,
	}
}

// Fetcher computes commit and line totals for one author in one repository
type Fetcher struct {
	api    API
	stats  StatsCache
	logger *logrus.Entry
}

// NewFetcher creates a fetcher; stats may be nil to disable memoisation
func NewFetcher(api API, stats StatsCache, logger *logrus.Logger) *Fetcher {
	if stats == nil {
		stats = noopStatsCache{}
	}
	return &Fetcher{
		api:    api,
		stats:  stats,
		logger: logger.WithField("component", "github_fetcher"),
	}
}

// FetchRepository lists the author's commits and, when opts.LineStats is
// set, enriches each with additions/deletions.
func (f *Fetcher) FetchRepository(ctx context.Context, owner, repo, author string, opts FetchOptions) (*RepoContributions, error) {
	repository := owner + "/" + repo

	commits, err := f.api.ListAuthorCommits(ctx, owner, repo, author, opts.Since)
	if err != nil {
		return nil, err
	}

	result := &RepoContributions{
		Repository:  repository,
		Author:      author,
		Since:       opts.Since,
		CommitCount: len(commits),
		LineStats:   opts.LineStats,
		Commits:     make([]CommitDetail, len(commits)),
	}
	for i, c := range commits {
		result.Commits[i] = CommitDetail{SHA: c.SHA, Date: c.Date}
	}

	if !opts.LineStats || len(commits) == 0 {
		return result, nil
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	var mu sync.Mutex
	cacheHits := 0
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i := range result.Commits {
		i := i
		g.Go(func() error {
			sha := result.Commits[i].SHA
			key := StatsKey(repository, sha)
			stats, ok := f.stats.Get(key)
			if ok {
				mu.Lock()
				cacheHits++
				mu.Unlock()
			} else {
				fetched, err := f.api.GetCommitStats(gctx, owner, repo, sha)
				if err != nil {
					return err
				}
				stats = fetched
				if err := f.stats.Set(key, stats); err != nil {
					f.logger.WithError(err).WithField("commit", sha).Warn("failed to cache commit stats")
				}
			}
			result.Commits[i].Additions = stats.Additions
			result.Commits[i].Deletions = stats.Deletions
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, c := range result.Commits {
		result.LinesAdded += c.Additions
		result.LinesDeleted += c.Deletions
	}

	f.logger.WithFields(logrus.Fields{
		"repository":   repository,
		"author":       author,
		"commits":      result.CommitCount,
		"stats_cached": cacheHits,
	}).Debug("fetched repository contributions")

	return result, nil
}
