package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/offerradar/internal/browse"
	"github.com/amishk599/offerradar/internal/store"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse stored matches in a terminal UI",
	RunE:  runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
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

	if err := browse.Run(st.Records()); err != nil {
		logger.Error("browser error", "error", err)
		os.Exit(1)
	}
	return nil
}
