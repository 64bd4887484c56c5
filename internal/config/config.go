package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for offerradar.
type Config struct {
	API          APIConfig
	ProfilePath  string
	Store        StoreConfig
	Matching     MatchingConfig
	AI           AIConfig
	Report       ReportConfig
	Notification NotificationConfig
	Schedule     ScheduleConfig
}

// APIConfig controls the paginated offers API client.
type APIConfig struct {
	BaseURL     string
	Days        int           // look-back window passed as ?days=
	MaxPages    int           // hard stop for pagination
	Timeout     time.Duration // per-request timeout
	MinDelay    time.Duration // minimum gap between page requests
	Concurrency int           // pages fetched in parallel once the page count is known
	Retry       RetryConfig
}

// RetryConfig is the shared retry/backoff policy shape.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
}

// StoreConfig locates the persisted match set and the run ledger.
type StoreConfig struct {
	Path            string
	LedgerPath      string
	LedgerRetention time.Duration // runs older than this are pruned by the daemon
}

// MatchingConfig controls batching of offers sent to the matching service.
type MatchingConfig struct {
	BatchSize        int
	Concurrency      int
	ExcludeLocations []string
	DebugDir         string // raw response artifacts; empty disables them
	Retry            RetryConfig
}

// AIConfig selects and configures the generative matching service.
type AIConfig struct {
	Provider string        // "gemini" or "openai"
	BaseURL  string        // openai-compatible endpoint; ignored by gemini
	Model    string        // model identifier, e.g. "gemini-2.0-flash-lite"
	APIKey   string        // expanded from env var by Load
	Timeout  time.Duration // per-attempt timeout
}

// ReportConfig controls where the HTML report is written.
type ReportConfig struct {
	Path string `yaml:"path"`
}

// NotificationConfig controls which notifier is used and its settings.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "log" or "slack"
	WebhookURL string `yaml:"webhook_url"` // required if type is "slack"
}

// ScheduleConfig controls the `start` daemon.
type ScheduleConfig struct {
	Interval time.Duration
}

const (
	defaultAPIBaseURL    = "https://job-offers-api-ujjz.onrender.com/job-offers"
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultGeminiModel   = "gemini-2.0-flash-lite"
)

// rawConfig is used for YAML unmarshaling (snake_case fields and duration as string).
type rawConfig struct {
	API          rawAPIConfig       `yaml:"api"`
	ProfilePath  string             `yaml:"profile_path"`
	Store        rawStoreConfig     `yaml:"store"`
	Matching     rawMatchingConfig  `yaml:"matching"`
	AI           rawAIConfig        `yaml:"ai"`
	Report       ReportConfig       `yaml:"report"`
	Notification NotificationConfig `yaml:"notification"`
	Schedule     rawScheduleConfig  `yaml:"schedule"`
}

type rawAPIConfig struct {
	BaseURL     string         `yaml:"base_url"`
	Days        *int           `yaml:"days"`
	MaxPages    int            `yaml:"max_pages"`
	Timeout     string         `yaml:"timeout"`
	MinDelay    string         `yaml:"min_delay"`
	Concurrency int            `yaml:"concurrency"`
	Retry       rawRetryConfig `yaml:"retry"`
}

type rawRetryConfig struct {
	MaxAttempts int     `yaml:"max_attempts"`
	BaseDelay   string  `yaml:"base_delay"`
	Multiplier  float64 `yaml:"multiplier"`
}

type rawStoreConfig struct {
	Path            string `yaml:"path"`
	LedgerPath      string `yaml:"ledger_path"`
	LedgerRetention string `yaml:"ledger_retention"`
}

type rawMatchingConfig struct {
	BatchSize        int            `yaml:"batch_size"`
	Concurrency      int            `yaml:"concurrency"`
	ExcludeLocations []string       `yaml:"exclude_locations"`
	DebugDir         *string        `yaml:"debug_dir"`
	Retry            rawRetryConfig `yaml:"retry"`
}

type rawAIConfig struct {
	Provider string `yaml:"provider"`
	BaseURL  string `yaml:"base_url"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
	Timeout  string `yaml:"timeout"`
}

type rawScheduleConfig struct {
	Interval string `yaml:"interval"`
}

// RequireAI checks the settings only commands that call the matching service need.
// Read-only commands (matches, runs, browse) work without an API key.
func (c *Config) RequireAI() error {
	if c.AI.APIKey == "" {
		return fmt.Errorf("ai.api_key is required (set it in the config or via ${GEMINI_API_KEY})")
	}
	return nil
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	apiTimeout, err := parseDurationOr(raw.API.Timeout, 60*time.Second, "api.timeout")
	if err != nil {
		return nil, err
	}
	minDelay, err := parseDurationOr(raw.API.MinDelay, 300*time.Millisecond, "api.min_delay")
	if err != nil {
		return nil, err
	}
	apiRetry, err := parseRetry(raw.API.Retry, "api.retry")
	if err != nil {
		return nil, err
	}
	matchRetry, err := parseRetry(raw.Matching.Retry, "matching.retry")
	if err != nil {
		return nil, err
	}
	aiTimeout, err := parseDurationOr(raw.AI.Timeout, 60*time.Second, "ai.timeout")
	if err != nil {
		return nil, err
	}
	retention, err := parseDurationOr(raw.Store.LedgerRetention, 90*24*time.Hour, "store.ledger_retention")
	if err != nil {
		return nil, err
	}
	interval, err := parseDurationOr(raw.Schedule.Interval, 24*time.Hour, "schedule.interval")
	if err != nil {
		return nil, err
	}

	days := 7
	if raw.API.Days != nil {
		days = *raw.API.Days
	}

	debugDir := "data/debug"
	if raw.Matching.DebugDir != nil {
		debugDir = *raw.Matching.DebugDir
	}

	provider := strings.ToLower(raw.AI.Provider)
	if provider == "" {
		provider = "gemini"
	}
	aiModel := raw.AI.Model
	if aiModel == "" && provider == "gemini" {
		aiModel = defaultGeminiModel
	}
	aiBaseURL := raw.AI.BaseURL
	if aiBaseURL == "" && provider == "openai" {
		aiBaseURL = defaultOpenAIBaseURL
	}

	cfg := &Config{
		API: APIConfig{
			BaseURL:     orDefault(raw.API.BaseURL, defaultAPIBaseURL),
			Days:        days,
			MaxPages:    intOr(raw.API.MaxPages, 50),
			Timeout:     apiTimeout,
			MinDelay:    minDelay,
			Concurrency: intOr(raw.API.Concurrency, 3),
			Retry:       apiRetry,
		},
		ProfilePath: orDefault(raw.ProfilePath, "profile.yaml"),
		Store: StoreConfig{
			Path:            orDefault(raw.Store.Path, "data/matches.json"),
			LedgerPath:      orDefault(raw.Store.LedgerPath, "data/runs.db"),
			LedgerRetention: retention,
		},
		Matching: MatchingConfig{
			BatchSize:        intOr(raw.Matching.BatchSize, 25),
			Concurrency:      intOr(raw.Matching.Concurrency, 2),
			ExcludeLocations: raw.Matching.ExcludeLocations,
			DebugDir:         debugDir,
			Retry:            matchRetry,
		},
		AI: AIConfig{
			Provider: provider,
			BaseURL:  aiBaseURL,
			Model:    aiModel,
			APIKey:   raw.AI.APIKey,
			Timeout:  aiTimeout,
		},
		Report: ReportConfig{
			Path: orDefault(raw.Report.Path, "data/email_body.html"),
		},
		Notification: raw.Notification,
		Schedule:     ScheduleConfig{Interval: interval},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseRetry(raw rawRetryConfig, key string) (RetryConfig, error) {
	base, err := parseDurationOr(raw.BaseDelay, time.Second, key+".base_delay")
	if err != nil {
		return RetryConfig{}, err
	}
	mult := raw.Multiplier
	if mult == 0 {
		mult = 2
	}
	return RetryConfig{
		MaxAttempts: intOr(raw.MaxAttempts, 3),
		BaseDelay:   base,
		Multiplier:  mult,
	}, nil
}

func parseDurationOr(s string, def time.Duration, key string) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", key, s, err)
	}
	return d, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func intOr(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func validate(cfg *Config) error {
	if cfg.API.Days < 0 {
		return fmt.Errorf("api.days must be >= 0, got %d", cfg.API.Days)
	}
	if cfg.API.MaxPages < 1 {
		return fmt.Errorf("api.max_pages must be >= 1, got %d", cfg.API.MaxPages)
	}
	if cfg.API.Concurrency < 1 || cfg.API.Concurrency > 8 {
		return fmt.Errorf("api.concurrency must be between 1 and 8, got %d", cfg.API.Concurrency)
	}
	if cfg.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive, got %v", cfg.API.Timeout)
	}
	for key, r := range map[string]RetryConfig{"api.retry": cfg.API.Retry, "matching.retry": cfg.Matching.Retry} {
		if r.MaxAttempts < 1 {
			return fmt.Errorf("%s.max_attempts must be >= 1, got %d", key, r.MaxAttempts)
		}
		if r.Multiplier < 1 {
			return fmt.Errorf("%s.multiplier must be >= 1, got %v", key, r.Multiplier)
		}
	}
	if cfg.Matching.BatchSize < 1 || cfg.Matching.BatchSize > 100 {
		return fmt.Errorf("matching.batch_size must be between 1 and 100, got %d", cfg.Matching.BatchSize)
	}
	if cfg.Matching.Concurrency < 1 || cfg.Matching.Concurrency > 8 {
		return fmt.Errorf("matching.concurrency must be between 1 and 8, got %d", cfg.Matching.Concurrency)
	}
	if cfg.Store.LedgerRetention < 0 {
		return fmt.Errorf("store.ledger_retention must not be negative, got %v", cfg.Store.LedgerRetention)
	}
	if cfg.Schedule.Interval <= 0 {
		return fmt.Errorf("schedule.interval must be positive, got %v", cfg.Schedule.Interval)
	}

	switch cfg.AI.Provider {
	case "gemini", "openai":
	default:
		return fmt.Errorf("ai.provider must be \"gemini\" or \"openai\", got %q", cfg.AI.Provider)
	}
	if cfg.AI.Model == "" {
		return fmt.Errorf("ai.model is required")
	}
	if cfg.AI.Timeout <= 0 {
		return fmt.Errorf("ai.timeout must be positive, got %v", cfg.AI.Timeout)
	}

	if cfg.Notification.Type == "slack" {
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, "https://hooks.slack.com/") {
			return fmt.Errorf("notification.webhook_url must start with https://hooks.slack.com/")
		}
	}
	return nil
}
