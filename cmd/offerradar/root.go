package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/amishk599/offerradar/internal/adapter"
	"github.com/amishk599/offerradar/internal/ai"
	"github.com/amishk599/offerradar/internal/config"
	"github.com/amishk599/offerradar/internal/filter"
	"github.com/amishk599/offerradar/internal/model"
	"github.com/amishk599/offerradar/internal/notifier"
	"github.com/amishk599/offerradar/internal/pipeline"
	"github.com/amishk599/offerradar/internal/ratelimit"
	"github.com/amishk599/offerradar/internal/retry"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "offerradar",
	Short: "Job offer radar",
	Long:  "offerradar pulls recent job offers, asks a language model which ones fit your profile, and keeps the matches.",
	// Bare `offerradar` does a single run so cron entries can invoke the binary directly.
	RunE: runOnce,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		loadDotEnv()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: OFFERRADAR_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadDotEnv loads ./.env into the environment. Existing variables win.
func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: reading .env: %v\n", err)
	}
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > OFFERRADAR_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if env := os.Getenv("OFFERRADAR_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

func setupNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.Notifier {
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack notifier")
		return notifier.NewSlackNotifier(cfg.Notification.WebhookURL, httpClient, logger)
	default:
		return notifier.NewLogNotifier(logger)
	}
}

func retryPolicy(rc config.RetryConfig) retry.Policy {
	return retry.Policy{
		MaxAttempts: rc.MaxAttempts,
		BaseDelay:   rc.BaseDelay,
		Multiplier:  rc.Multiplier,
		Jitter:      0.3,
	}
}

// buildFetcher stacks the offers API client: pacing sits under retry so every
// attempt, retries included, respects the minimum gap.
func buildFetcher(cfg *config.Config, logger *slog.Logger) model.PageFetcher {
	httpClient := &http.Client{Timeout: cfg.API.Timeout}
	var fetcher model.PageFetcher = adapter.NewOffersAdapter(cfg.API.BaseURL, httpClient)
	fetcher = ratelimit.NewRateLimitedFetcher(fetcher, cfg.API.MinDelay)
	return retry.NewRetryFetcher(fetcher, retryPolicy(cfg.API.Retry), logger)
}

func setupProvider(ctx context.Context, cfg *config.Config, httpClient *http.Client) (ai.LLMProvider, error) {
	switch cfg.AI.Provider {
	case "openai":
		return ai.NewOpenAIProvider(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model, httpClient), nil
	case "gemini":
		return ai.NewGeminiProvider(ctx, cfg.AI.APIKey, cfg.AI.Model, httpClient)
	default:
		return nil, fmt.Errorf("unsupported ai.provider %q", cfg.AI.Provider)
	}
}

func buildMatcher(ctx context.Context, cfg *config.Config, logger *slog.Logger) (model.BatchMatcher, error) {
	if err := cfg.RequireAI(); err != nil {
		return nil, err
	}
	// Per-attempt deadlines come from the matcher; the client only guards against hung connections.
	httpClient := &http.Client{Timeout: cfg.AI.Timeout + cfg.AI.Timeout/2}
	provider, err := setupProvider(ctx, cfg, httpClient)
	if err != nil {
		return nil, err
	}
	logger.Info("matching service configured", "provider", cfg.AI.Provider, "model", cfg.AI.Model)

	var artifacts ai.ArtifactWriter = ai.NewNopArtifactWriter()
	if cfg.Matching.DebugDir != "" {
		artifacts = ai.NewFileArtifactWriter(cfg.Matching.DebugDir)
	}
	return ai.NewLLMBatchMatcher(provider, ai.BatchMatchTemplate, retryPolicy(cfg.Matching.Retry), cfg.AI.Timeout, artifacts, logger), nil
}

// buildPipeline wires every stage except the store and ledger, which differ
// between run, check and start.
func buildPipeline(ctx context.Context, cfg *config.Config, st pipeline.Store, ledger pipeline.Ledger, n model.Notifier, dryRun bool, logger *slog.Logger) (*pipeline.Pipeline, error) {
	profile, err := config.LoadProfile(cfg.ProfilePath)
	if err != nil {
		return nil, err
	}
	matcher, err := buildMatcher(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	deps := pipeline.Deps{
		Fetcher:  buildFetcher(cfg, logger),
		Matcher:  matcher,
		Filter:   filter.NewExclusionFilter(profile.ExcludeKeywords, cfg.Matching.ExcludeLocations),
		Store:    st,
		Ledger:   ledger,
		Notifier: n,
		Profile:  profile,
	}
	opts := pipeline.Options{
		Days:             cfg.API.Days,
		MaxPages:         cfg.API.MaxPages,
		PageConcurrency:  cfg.API.Concurrency,
		BatchSize:        cfg.Matching.BatchSize,
		BatchConcurrency: cfg.Matching.Concurrency,
		ReportPath:       cfg.Report.Path,
		DryRun:           dryRun,
	}
	return pipeline.New(deps, opts, logger), nil
}
