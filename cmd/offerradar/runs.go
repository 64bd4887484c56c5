package main

import (
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/amishk599/offerradar/internal/normalize"
	"github.com/amishk599/offerradar/internal/store"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show recent runs and offers still awaiting a verdict",
	RunE:  runRuns,
}

func init() {
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 10, "number of runs to show")
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ledger, err := store.NewSQLiteLedger(cfg.Store.LedgerPath)
	if err != nil {
		logger.Error("failed to open run ledger", "error", err)
		os.Exit(1)
	}
	defer ledger.Close()

	runs, err := ledger.RecentRuns(runsLimit)
	if err != nil {
		logger.Error("failed to read runs", "error", err)
		os.Exit(1)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Run", "Started At", "Duration", "Status", "Fetched", "New", "Matched", "Rejected", "Deferred", "Error"})
	for _, r := range runs {
		t.AppendRow(table.Row{
			r.RunID,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String(),
			r.Status,
			r.Fetched,
			r.New,
			r.Matched,
			r.Rejected,
			r.Deferred,
			normalize.Truncate(r.Error, 60),
		})
	}
	t.Render()

	pending, err := ledger.PendingDeferred()
	if err != nil {
		logger.Error("failed to read deferred offers", "error", err)
		os.Exit(1)
	}
	if len(pending) == 0 {
		return nil
	}

	fmt.Printf("\n%d offers awaiting a verdict:\n", len(pending))
	d := table.NewWriter()
	d.SetOutputMirror(os.Stdout)
	d.SetStyle(table.StyleLight)
	d.AppendHeader(table.Row{"Offer", "Run", "Deferred At", "Reason"})
	for _, p := range pending {
		d.AppendRow(table.Row{p.OfferID, p.RunID, p.DeferredAt.Local().Format("2006-01-02 15:04"), normalize.Truncate(p.Reason, 80)})
	}
	d.Render()
	return nil
}
