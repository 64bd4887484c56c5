package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/offerradar/internal/report"
	"github.com/amishk599/offerradar/internal/store"
)

var (
	reportSince time.Duration
	reportOut   string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Re-render the HTML report from the match store",
	Long:  "Builds the report from stored matches without fetching or matching. Matches older than --since are left out; --since 0 includes all.",
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().DurationVar(&reportSince, "since", 24*time.Hour, "include matches stored within this window")
	reportCmd.Flags().StringVarP(&reportOut, "out", "o", "", "output path (default: report.path from config)")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	st, err := store.NewFileStore(cfg.Store.Path).Load()
	if err != nil {
		logger.Error("failed to load match store", "error", err)
		os.Exit(1)
	}

	now := time.Now()
	var ids []string
	for _, r := range st.Records() {
		if reportSince > 0 && r.MatchedAt.Before(now.Add(-reportSince)) {
			continue
		}
		ids = append(ids, r.Offer.ID)
	}

	doc, err := report.Render(report.Input{
		State:       st,
		NewIDs:      ids,
		RunID:       "manual",
		GeneratedAt: now,
	})
	if err != nil {
		logger.Error("failed to render report", "error", err)
		os.Exit(1)
	}

	out := reportOut
	if out == "" {
		out = cfg.Report.Path
	}
	if err := report.WriteFile(out, doc); err != nil {
		logger.Error("failed to write report", "error", err)
		os.Exit(1)
	}
	logger.Info("report written", "path", out, "matches", len(ids))
	return nil
}
