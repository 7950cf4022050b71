package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rohankatakam/internhub/internal/logging"
	"github.com/spf13/viper"
)

// Config holds all configuration settings
type Config struct {
	// Storage configuration
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`

	// GitHub configuration
	GitHub GitHubConfig `yaml:"github" mapstructure:"github"`

	// Contribution metrics cache policy
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`

	// Feedback analysis limits
	NLP NLPConfig `yaml:"nlp" mapstructure:"nlp"`

	// Generative-text provider for review drafts
	LLM LLMConfig `yaml:"llm" mapstructure:"llm"`

	// Commit stats and quota caches
	Cache CacheConfig `yaml:"cache" mapstructure:"cache"`

	// HTTP server
	Server ServerConfig `yaml:"server" mapstructure:"server"`

	// Scheduled jobs
	Jobs JobsConfig `yaml:"jobs" mapstructure:"jobs"`

	Logging logging.Config `yaml:"logging" mapstructure:"logging"`
}

type StorageConfig struct {
	Type      string `yaml:"type" mapstructure:"type"`       // "postgres", "sqlite"
	Driver    string `yaml:"driver" mapstructure:"driver"`   // postgres only: "pgx" or "postgres" (lib/pq)
	DSN       string `yaml:"dsn" mapstructure:"dsn"`         // postgres connection string
	LocalPath string `yaml:"local_path" mapstructure:"local_path"`
}

type GitHubConfig struct {
	Token     string `yaml:"token" mapstructure:"token"`
	RateLimit int    `yaml:"rate_limit" mapstructure:"rate_limit"` // Requests per second
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`     // GitHub Enterprise API root
}

type MetricsConfig struct {
	// Monitored repositories as "owner/name"
	Repositories []string `yaml:"repositories" mapstructure:"repositories"`
	// A cached record younger than this is served without calling GitHub
	Freshness time.Duration `yaml:"freshness" mapstructure:"freshness"`
	// Commit history window passed as `since`
	Lookback time.Duration `yaml:"lookback" mapstructure:"lookback"`
	// One extra API call per commit for additions/deletions
	LineStats bool `yaml:"line_stats" mapstructure:"line_stats"`
	// Stop at the first failing repository instead of skipping it
	AbortOnError bool `yaml:"abort_on_error" mapstructure:"abort_on_error"`
	// Parallel per-commit detail calls
	StatsConcurrency int `yaml:"stats_concurrency" mapstructure:"stats_concurrency"`
}

type NLPConfig struct {
	KeywordLimit int `yaml:"keyword_limit" mapstructure:"keyword_limit"`
	TopicLimit   int `yaml:"topic_limit" mapstructure:"topic_limit"`
}

type LLMConfig struct {
	Provider       string `yaml:"provider" mapstructure:"provider"` // "openai", "openai-compatible", "gemini", "none"
	OpenAIKey      string `yaml:"openai_key" mapstructure:"openai_key"`
	OpenAIModel    string `yaml:"openai_model" mapstructure:"openai_model"`
	GeminiKey      string `yaml:"gemini_key" mapstructure:"gemini_key"`
	GeminiModel    string `yaml:"gemini_model" mapstructure:"gemini_model"`
	CustomLLMURL   string `yaml:"custom_llm_url" mapstructure:"custom_llm_url"`
	CustomLLMKey   string `yaml:"custom_llm_key" mapstructure:"custom_llm_key"`
	CustomLLMModel string `yaml:"custom_llm_model" mapstructure:"custom_llm_model"`
	UseKeychain    bool   `yaml:"use_keychain" mapstructure:"use_keychain"`
	DailyLimit     int    `yaml:"daily_limit" mapstructure:"daily_limit"` // 0 = unlimited; enforced through Redis
}

type CacheConfig struct {
	StatsBackend string        `yaml:"stats_backend" mapstructure:"stats_backend"` // "memory", "bolt", "none"
	Directory    string        `yaml:"directory" mapstructure:"directory"`
	StatsTTL     time.Duration `yaml:"stats_ttl" mapstructure:"stats_ttl"`
	RedisURL     string        `yaml:"redis_url" mapstructure:"redis_url"`
	DraftTTL     time.Duration `yaml:"draft_ttl" mapstructure:"draft_ttl"` // review drafts, Redis only
}

type ServerConfig struct {
	Addr            string        `yaml:"addr" mapstructure:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	Debug           bool          `yaml:"debug" mapstructure:"debug"`
}

type JobsConfig struct {
	Enabled            bool   `yaml:"enabled" mapstructure:"enabled"`
	MetricsRefreshCron string `yaml:"metrics_refresh_cron" mapstructure:"metrics_refresh_cron"`
	Timezone           string `yaml:"timezone" mapstructure:"timezone"`
	MaxRetries         int    `yaml:"max_retries" mapstructure:"max_retries"`

	// FailureRetention is how long queued fetch failures are kept before
	// the refresh job purges them
	FailureRetention time.Duration `yaml:"failure_retention" mapstructure:"failure_retention"`
}

// Default returns default configuration
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Storage: StorageConfig{
			Type:      "sqlite",
			Driver:    "pgx",
			LocalPath: filepath.Join(homeDir, ".internhub", "internhub.db"),
		},
		GitHub: GitHubConfig{
			RateLimit: 10,
		},
		Metrics: MetricsConfig{
			Freshness:        time.Hour,
			Lookback:         30 * 24 * time.Hour,
			LineStats:        true,
			StatsConcurrency: 4,
		},
		NLP: NLPConfig{
			KeywordLimit: 5,
			TopicLimit:   12,
		},
		LLM: LLMConfig{
			Provider:    "none",
			OpenAIModel: "gpt-4o-mini",
			GeminiModel: "gemini-2.0-flash",
		},
		Cache: CacheConfig{
			StatsBackend: "memory",
			Directory:    filepath.Join(homeDir, ".internhub", "cache"),
			StatsTTL:     24 * time.Hour,
			DraftTTL:     15 * time.Minute,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Jobs: JobsConfig{
			Enabled:            false,
			MetricsRefreshCron: "0 2 * * *",
			Timezone:           "UTC",
			MaxRetries:         5,
			FailureRetention:   30 * 24 * time.Hour,
		},
		Logging: logging.DefaultConfig(false),
	}
}

// defaults flattens Default() into viper keys so AutomaticEnv can see them
func defaults(cfg *Config) map[string]interface{} {
	return map[string]interface{}{
		"storage.type":               cfg.Storage.Type,
		"storage.driver":             cfg.Storage.Driver,
		"storage.dsn":                cfg.Storage.DSN,
		"storage.local_path":         cfg.Storage.LocalPath,
		"github.rate_limit":          cfg.GitHub.RateLimit,
		"github.base_url":            cfg.GitHub.BaseURL,
		"metrics.repositories":       cfg.Metrics.Repositories,
		"metrics.freshness":          cfg.Metrics.Freshness,
		"metrics.lookback":           cfg.Metrics.Lookback,
		"metrics.line_stats":         cfg.Metrics.LineStats,
		"metrics.abort_on_error":     cfg.Metrics.AbortOnError,
		"metrics.stats_concurrency":  cfg.Metrics.StatsConcurrency,
		"nlp.keyword_limit":          cfg.NLP.KeywordLimit,
		"nlp.topic_limit":            cfg.NLP.TopicLimit,
		"llm.provider":               cfg.LLM.Provider,
		"llm.openai_model":           cfg.LLM.OpenAIModel,
		"llm.gemini_model":           cfg.LLM.GeminiModel,
		"llm.daily_limit":            cfg.LLM.DailyLimit,
		"cache.stats_backend":        cfg.Cache.StatsBackend,
		"cache.directory":            cfg.Cache.Directory,
		"cache.stats_ttl":            cfg.Cache.StatsTTL,
		"cache.redis_url":            cfg.Cache.RedisURL,
		"cache.draft_ttl":            cfg.Cache.DraftTTL,
		"server.addr":                cfg.Server.Addr,
		"server.shutdown_timeout":    cfg.Server.ShutdownTimeout,
		"server.debug":               cfg.Server.Debug,
		"jobs.enabled":               cfg.Jobs.Enabled,
		"jobs.metrics_refresh_cron":  cfg.Jobs.MetricsRefreshCron,
		"jobs.timezone":              cfg.Jobs.Timezone,
		"jobs.max_retries":           cfg.Jobs.MaxRetries,
		"jobs.failure_retention":     cfg.Jobs.FailureRetention,
		"logging.level":              cfg.Logging.Level,
		"logging.format":             cfg.Logging.Format,
		"logging.output_file":        cfg.Logging.OutputFile,
		"logging.max_size":           cfg.Logging.MaxSize,
		"logging.max_backups":        cfg.Logging.MaxBackups,
	}
}

// Load loads configuration from file
func Load(path string) (*Config, error) {
	// Load .env files first (in order of precedence)
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")

	cfg := Default()
	for key, value := range defaults(cfg) {
		v.SetDefault(key, value)
	}

	// INTERNHUB_METRICS_FRESHNESS=2h etc.
	v.SetEnvPrefix("INTERNHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".internhub")
		v.AddConfigPath(".")
		homeDir, _ := os.UserHomeDir()
		v.AddConfigPath(filepath.Join(homeDir, ".internhub"))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// loadEnvFiles loads .env files in order of precedence
func loadEnvFiles() {
	// godotenv.Load never overrides variables that are already set, so the
	// first file to define a key wins.
	for _, file := range []string{".env.local", ".env"} {
		if _, err := os.Stat(file); err == nil {
			godotenv.Load(file)
		}
	}

	homeDir, _ := os.UserHomeDir()
	homeEnvFile := filepath.Join(homeDir, ".internhub", ".env")
	if _, err := os.Stat(homeEnvFile); err == nil {
		godotenv.Load(homeEnvFile)
	}
}

// applyEnvOverrides applies conventional (unprefixed) environment variables
func applyEnvOverrides(cfg *Config) {
	// Precedence: 1. Env var (highest) 2. Keychain 3. Config file (lowest)
	km := NewKeyringManager()

	if token := firstEnv("GITHUB_TOKEN", "GH_TOKEN"); token != "" {
		cfg.GitHub.Token = token
	} else if cfg.GitHub.Token == "" && km.IsAvailable() {
		if token, err := km.GetGitHubToken(); err == nil && token != "" {
			cfg.GitHub.Token = token
		}
	}
	if rateLimit := os.Getenv("GITHUB_RATE_LIMIT"); rateLimit != "" {
		if rate, err := strconv.Atoi(rateLimit); err == nil {
			cfg.GitHub.RateLimit = rate
		}
	}
	if repos := os.Getenv("GITHUB_REPOSITORIES"); repos != "" {
		cfg.Metrics.Repositories = splitList(repos)
	}

	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.LLM.OpenAIKey = key
	} else if cfg.LLM.OpenAIKey == "" && km.IsAvailable() {
		if key, err := km.GetAPIKey(KeyringOpenAIKeyItem); err == nil && key != "" {
			cfg.LLM.OpenAIKey = key
		}
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		cfg.LLM.GeminiKey = key
	} else if cfg.LLM.GeminiKey == "" && km.IsAvailable() {
		if key, err := km.GetAPIKey(KeyringGeminiKeyItem); err == nil && key != "" {
			cfg.LLM.GeminiKey = key
		}
	}
	if model := os.Getenv("OPENAI_MODEL"); model != "" {
		cfg.LLM.OpenAIModel = model
	}
	if url := os.Getenv("CUSTOM_LLM_URL"); url != "" {
		cfg.LLM.CustomLLMURL = url
	}
	if key := os.Getenv("CUSTOM_LLM_KEY"); key != "" {
		cfg.LLM.CustomLLMKey = key
	}
	if provider := os.Getenv("LLM_PROVIDER"); provider != "" {
		cfg.LLM.Provider = provider
	}

	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		cfg.Storage.Type = "postgres"
		cfg.Storage.DSN = dsn
	}
	if path := os.Getenv("LOCAL_DB_PATH"); path != "" {
		cfg.Storage.LocalPath = expandPath(path)
	}
	cfg.Storage.LocalPath = expandPath(cfg.Storage.LocalPath)
	cfg.Cache.Directory = expandPath(cfg.Cache.Directory)

	if url := os.Getenv("REDIS_URL"); url != "" {
		cfg.Cache.RedisURL = url
	}
	if addr := os.Getenv("PORT"); addr != "" {
		cfg.Server.Addr = ":" + addr
	}
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}
	return path
}

// Save saves configuration to file. Secrets are never written.
func (c *Config) Save(path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	clean := *c
	clean.GitHub.Token = ""
	clean.LLM.OpenAIKey = ""
	clean.LLM.GeminiKey = ""
	clean.LLM.CustomLLMKey = ""
	for key, value := range defaults(&clean) {
		v.Set(key, value)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
