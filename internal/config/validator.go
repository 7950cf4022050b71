package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
	apperrors "github.com/rohankatakam/internhub/internal/errors"
)

// ValidationContext specifies what configuration is required
type ValidationContext string

const (
	// ValidationContextServe - the HTTP API needs storage; GitHub and LLM are optional
	ValidationContextServe ValidationContext = "serve"
	// ValidationContextFetch - contribution fetching needs a token and repositories
	ValidationContextFetch ValidationContext = "fetch"
	// ValidationContextDraft - review drafts need a configured LLM provider
	ValidationContextDraft ValidationContext = "draft"
	// ValidationContextAll - validate all configuration
	ValidationContextAll ValidationContext = "all"
)

// ValidationResult holds validation results
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// AddError adds an error to the validation result
func (vr *ValidationResult) AddError(format string, args ...interface{}) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, fmt.Sprintf(format, args...))
}

// AddWarning adds a warning to the validation result
func (vr *ValidationResult) AddWarning(format string, args ...interface{}) {
	vr.Warnings = append(vr.Warnings, fmt.Sprintf(format, args...))
}

// HasErrors returns true if there are any errors
func (vr *ValidationResult) HasErrors() bool {
	return !vr.Valid || len(vr.Errors) > 0
}

// Error returns a formatted error message
func (vr *ValidationResult) Error() string {
	if !vr.HasErrors() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Configuration validation failed:\n")
	for _, err := range vr.Errors {
		sb.WriteString(fmt.Sprintf("  ❌ %s\n", err))
	}
	if len(vr.Warnings) > 0 {
		sb.WriteString("\nWarnings:\n")
		for _, warn := range vr.Warnings {
			sb.WriteString(fmt.Sprintf("  ⚠️  %s\n", warn))
		}
	}
	return sb.String()
}

// Validate validates configuration for the given context
func (c *Config) Validate(ctx ValidationContext) *ValidationResult {
	result := &ValidationResult{Valid: true}

	switch ctx {
	case ValidationContextServe:
		c.validateStorage(result)
		c.validateMetrics(result)
		c.validateGitHub(result, false)
		c.validateJobs(result)
	case ValidationContextFetch:
		c.validateStorage(result)
		c.validateMetrics(result)
		c.validateGitHub(result, true)
	case ValidationContextDraft:
		c.validateStorage(result)
		c.validateLLM(result, true)
	case ValidationContextAll:
		c.validateStorage(result)
		c.validateMetrics(result)
		c.validateGitHub(result, false)
		c.validateLLM(result, false)
		c.validateJobs(result)
	}

	return result
}

// Require returns a Config error when validation for ctx fails
func (c *Config) Require(ctx ValidationContext) error {
	result := c.Validate(ctx)
	if result.HasErrors() {
		return apperrors.ConfigError(result.Error())
	}
	return nil
}

func (c *Config) validateStorage(result *ValidationResult) {
	switch c.Storage.Type {
	case "sqlite":
		if c.Storage.LocalPath == "" {
			result.AddError("storage.local_path is required for sqlite storage")
		}
	case "postgres":
		if c.Storage.DSN == "" {
			result.AddError("DATABASE_URL is required for postgres storage")
		} else if !strings.HasPrefix(c.Storage.DSN, "postgres://") && !strings.HasPrefix(c.Storage.DSN, "postgresql://") {
			result.AddError("DATABASE_URL must start with postgres:// or postgresql://")
		}
		if c.Storage.Driver != "pgx" && c.Storage.Driver != "postgres" {
			result.AddError("storage.driver must be pgx or postgres, got %q", c.Storage.Driver)
		}
	default:
		result.AddError("storage.type must be sqlite or postgres, got %q", c.Storage.Type)
	}
}

func (c *Config) validateGitHub(result *ValidationResult, required bool) {
	if c.GitHub.Token == "" {
		if required {
			result.AddError("GITHUB_TOKEN is required but not set")
		} else {
			result.AddWarning("GITHUB_TOKEN is not set. Requests are limited to 60/hour and private repositories are unavailable.")
		}
	}
	if c.GitHub.RateLimit <= 0 {
		result.AddWarning("GITHUB_RATE_LIMIT is invalid, will use default (10 req/s)")
	}
	if c.GitHub.BaseURL != "" {
		if _, err := url.Parse(c.GitHub.BaseURL); err != nil {
			result.AddError("github.base_url is invalid: %v", err)
		}
	}
}

func (c *Config) validateMetrics(result *ValidationResult) {
	if len(c.Metrics.Repositories) == 0 {
		result.AddWarning("metrics.repositories is empty; contribution totals will always be zero")
	}
	for _, repo := range c.Metrics.Repositories {
		if _, _, err := SplitRepository(repo); err != nil {
			result.AddError("%v", err)
		}
	}
	if c.Metrics.Freshness <= 0 {
		result.AddError("metrics.freshness must be positive, got %s", c.Metrics.Freshness)
	}
	if c.Metrics.Lookback <= 0 {
		result.AddError("metrics.lookback must be positive, got %s", c.Metrics.Lookback)
	}
}

func (c *Config) validateLLM(result *ValidationResult, required bool) {
	switch c.LLM.Provider {
	case "openai":
		if c.LLM.OpenAIKey == "" {
			result.AddError("OPENAI_API_KEY is required for the openai provider")
		}
	case "gemini":
		if c.LLM.GeminiKey == "" {
			result.AddError("GEMINI_API_KEY is required for the gemini provider")
		}
	case "openai-compatible":
		if c.LLM.CustomLLMURL == "" {
			result.AddError("CUSTOM_LLM_URL is required for the openai-compatible provider")
		} else if _, err := url.Parse(c.LLM.CustomLLMURL); err != nil {
			result.AddError("CUSTOM_LLM_URL is invalid: %v", err)
		}
	case "none", "":
		if required {
			result.AddError("llm.provider is not configured; review drafts are disabled")
		}
	default:
		result.AddError("unknown llm.provider %q", c.LLM.Provider)
	}
	if c.LLM.DailyLimit > 0 && c.Cache.RedisURL == "" {
		result.AddWarning("llm.daily_limit is set but REDIS_URL is not; the limit will not be enforced")
	}
}

func (c *Config) validateJobs(result *ValidationResult) {
	if !c.Jobs.Enabled {
		return
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(c.Jobs.MetricsRefreshCron); err != nil {
		result.AddError("jobs.metrics_refresh_cron is invalid: %v", err)
	}
}

// SplitRepository splits "owner/name"
func SplitRepository(fullName string) (owner, name string, err error) {
	parts := strings.Split(fullName, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("repository %q must be in owner/name form", fullName)
	}
	return parts[0], parts[1], nil
}
