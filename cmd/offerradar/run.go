package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/offerradar/internal/config"
	"github.com/amishk599/offerradar/internal/pipeline"
	"github.com/amishk599/offerradar/internal/store"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline once",
	Long:  "Fetch recent offers, match the new ones against the profile, save matches and write the report.",
	RunE:  runOnce,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runOnce(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := executeRun(ctx, cfg, logger); err != nil {
		stop()
		os.Exit(1)
	}
	return nil
}

// executeRun holds the store lock and the ledger for one run and releases both
// on every return path. Errors are logged here.
func executeRun(ctx context.Context, cfg *config.Config, logger *slog.Logger) (pipeline.Summary, error) {
	fileStore := store.NewFileStore(cfg.Store.Path)
	if err := fileStore.Lock(); err != nil {
		logger.Error("match store is busy", "path", cfg.Store.Path, "error", err)
		return pipeline.Summary{}, err
	}
	defer fileStore.Unlock()

	ledger, err := store.NewSQLiteLedger(cfg.Store.LedgerPath)
	if err != nil {
		logger.Error("failed to open run ledger", "error", err)
		return pipeline.Summary{}, err
	}
	defer ledger.Close()

	n := setupNotifier(cfg, &http.Client{Timeout: 30 * time.Second}, logger)
	p, err := buildPipeline(ctx, cfg, fileStore, ledger, n, false, logger)
	if err != nil {
		logger.Error("failed to set up pipeline", "error", err)
		return pipeline.Summary{}, err
	}

	sum, err := p.Run(ctx)
	if err != nil {
		logger.Error("run failed", "run_id", sum.RunID, "error", err)
		return sum, err
	}
	return sum, nil
}
