package main

import (
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/offerradar/internal/model"
	"github.com/amishk599/offerradar/internal/notifier"
	"github.com/amishk599/offerradar/internal/store"
)

var notifyLatest bool

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Notification subcommands",
}

var notifyTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Send a test notification",
	Long:  "Sends a sample match through the configured notifier. With --latest the most recent stored match is sent instead.",
	RunE:  runNotifyTest,
}

func init() {
	notifyTestCmd.Flags().BoolVar(&notifyLatest, "latest", false, "send the most recent stored match")
	rootCmd.AddCommand(notifyCmd)
	notifyCmd.AddCommand(notifyTestCmd)
}

func runNotifyTest(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	n := setupNotifier(cfg, &http.Client{Timeout: 30 * time.Second}, logger)

	if notifyLatest {
		st, err := store.NewFileStore(cfg.Store.Path).Load()
		if err != nil {
			logger.Error("failed to load match store", "error", err)
			os.Exit(1)
		}
		records := st.Records()
		if len(records) == 0 {
			logger.Error("match store is empty, nothing to send", "path", cfg.Store.Path)
			os.Exit(1)
		}
		err = n.Notify([]model.MatchRecord{records[len(records)-1]})
	} else {
		err = notifier.SendTestMessage(n)
	}
	if err != nil {
		logger.Error("test notification failed", "error", err)
		os.Exit(1)
	}
	logger.Info("test notification sent")
	return nil
}
