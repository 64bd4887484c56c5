package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/offerradar/internal/pipeline"
	"github.com/amishk599/offerradar/internal/scheduler"
	"github.com/amishk599/offerradar/internal/store"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the scheduling daemon",
	Long:  "Run the pipeline every schedule.interval; blocks until SIGINT/SIGTERM.",
	RunE:  runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

// lockedRunner holds the store lock for the duration of each run so a manual
// `run` can still happen between cycles.
type lockedRunner struct {
	store *store.FileStore
	p     *pipeline.Pipeline
}

func (r lockedRunner) Run(ctx context.Context) (pipeline.Summary, error) {
	if err := r.store.Lock(); err != nil {
		return pipeline.Summary{}, fmt.Errorf("locking match store: %w", err)
	}
	defer r.store.Unlock()
	return r.p.Run(ctx)
}

func runStart(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("config loaded",
		"interval", cfg.Schedule.Interval.String(),
		"days", cfg.API.Days,
		"batch_size", cfg.Matching.BatchSize,
		"provider", cfg.AI.Provider,
	)

	ledger, err := store.NewSQLiteLedger(cfg.Store.LedgerPath)
	if err != nil {
		logger.Error("failed to open run ledger", "error", err)
		os.Exit(1)
	}
	defer ledger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fileStore := store.NewFileStore(cfg.Store.Path)
	n := setupNotifier(cfg, &http.Client{Timeout: 30 * time.Second}, logger)
	p, err := buildPipeline(ctx, cfg, fileStore, ledger, n, false, logger)
	if err != nil {
		logger.Error("failed to set up pipeline", "error", err)
		os.Exit(1)
	}

	sched := scheduler.NewScheduler(lockedRunner{store: fileStore, p: p}, cfg.Schedule.Interval, ledger, cfg.Store.LedgerRetention, logger)
	if err := sched.Run(ctx); err != nil {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}

	logger.Info("goodbye")
	return nil
}
