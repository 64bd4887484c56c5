package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/offerradar/internal/notifier"
	"github.com/amishk599/offerradar/internal/store"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Dry run: match once, print matches, exit",
	Long:  "One-shot run that fetches and matches like `run` but writes nothing: no store, ledger or report changes.",
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Matches go to the log, never to Slack.
	p, err := buildPipeline(ctx, cfg, store.NewFileStore(cfg.Store.Path), store.NewNopLedger(), notifier.NewLogNotifier(logger), true, logger)
	if err != nil {
		logger.Error("failed to set up pipeline", "error", err)
		os.Exit(1)
	}

	sum, err := p.Run(ctx)
	if err != nil {
		logger.Error("check failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("\n%d new offers, %d matched, %d rejected, %d deferred (nothing was saved)\n",
		sum.New, sum.Matched, sum.Rejected, sum.Deferred)
	return nil
}
