package github

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v57/github"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/rohankatakam/internhub/internal/config"
	apperrors "github.com/rohankatakam/internhub/internal/errors"
)

// CommitSummary is one commit authored by the intern
type CommitSummary struct {
	SHA  string    `json:"sha"`
	Date time.Time `json:"date"`
}

// CommitStats holds per-commit line counts from the commit detail endpoint
type CommitStats struct {
	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
}

// Client wraps the GitHub API client with rate limiting
type Client struct {
	client      *github.Client
	rateLimiter *rate.Limiter
	logger      *logrus.Entry
}

// NewClient creates a new GitHub client with rate limiting
func NewClient(cfg config.GitHubConfig, logger *logrus.Logger) (*Client, error) {
	client := github.NewClient(nil)
	if cfg.Token != "" {
		client = client.WithAuthToken(cfg.Token)
	}
	if cfg.BaseURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(cfg.BaseURL, cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("github base url: %w", err)
		}
	}

	rateLimit := cfg.RateLimit
	if rateLimit <= 0 {
		rateLimit = 10
	}

	return &Client{
		client:      client,
		rateLimiter: rate.NewLimiter(rate.Limit(rateLimit), 1),
		logger:      logger.WithField("component", "github"),
	}, nil
}

// NewClientWithBaseURL points the client at an arbitrary API root (httptest servers)
func NewClientWithBaseURL(httpClient *http.Client, baseURL string, logger *logrus.Logger) (*Client, error) {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	client := github.NewClient(httpClient)
	client.BaseURL = u

	return &Client{
		client:      client,
		rateLimiter: rate.NewLimiter(rate.Inf, 1),
		logger:      logger.WithField("component", "github"),
	}, nil
}

// ListAuthorCommits lists commits by author since the given time, following
// pagination with 100 commits per page.
func (c *Client) ListAuthorCommits(ctx context.Context, owner, repo, author string, since time.Time) ([]CommitSummary, error) {
	opts := &github.CommitsListOptions{
		Author: author,
		Since:  since,
		ListOptions: github.ListOptions{
			PerPage: 100,
		},
	}

	var all []CommitSummary
	for {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		commits, resp, err := c.client.Repositories.ListCommits(ctx, owner, repo, opts)
		if err != nil {
			return nil, classifyError(err, owner+"/"+repo)
		}
		c.logRateLimit(resp)

		for _, commit := range commits {
			all = append(all, CommitSummary{
				SHA:  commit.GetSHA(),
				Date: commit.GetCommit().GetAuthor().GetDate().Time,
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}

// GetCommitStats fetches additions/deletions for one commit
func (c *Client) GetCommitStats(ctx context.Context, owner, repo, sha string) (CommitStats, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return CommitStats{}, fmt.Errorf("rate limiter: %w", err)
	}

	commit, resp, err := c.client.Repositories.GetCommit(ctx, owner, repo, sha, nil)
	if err != nil {
		return CommitStats{}, classifyError(err, owner+"/"+repo)
	}
	c.logRateLimit(resp)

	return CommitStats{
		Additions: commit.GetStats().GetAdditions(),
		Deletions: commit.GetStats().GetDeletions(),
	}, nil
}

// classifyError maps GitHub failures onto the service error taxonomy:
// 404 -> NotFound, 401 -> Unauthorized, everything else -> Internal.
func classifyError(err error, repository string) error {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return apperrors.InternalErrorf(err, "github request for %s cancelled", repository).
			WithContext("repository", repository)
	}

	var errResp *github.ErrorResponse
	if stderrors.As(err, &errResp) && errResp.Response != nil {
		switch errResp.Response.StatusCode {
		case http.StatusNotFound:
			return apperrors.NotFoundf("repository %s not found", repository).
				WithContext("repository", repository)
		case http.StatusUnauthorized:
			return apperrors.Unauthorized(err, "github rejected the configured token").
				WithContext("repository", repository)
		}
	}

	return apperrors.InternalErrorf(err, "github request for %s failed", repository).
		WithContext("repository", repository)
}

// logRateLimit logs GitHub API rate limit info
func (c *Client) logRateLimit(resp *github.Response) {
	if resp == nil {
		return
	}
	if resp.Rate.Limit > 0 && resp.Rate.Remaining < 100 {
		c.logger.WithFields(logrus.Fields{
			"remaining": resp.Rate.Remaining,
			"limit":     resp.Rate.Limit,
			"reset":     resp.Rate.Reset.Time,
		}).Warn("github rate limit low")
	}
}
