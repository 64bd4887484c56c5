package main

import (
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/amishk599/offerradar/internal/normalize"
	"github.com/amishk599/offerradar/internal/store"
)

var notableOnly bool

var matchesCmd = &cobra.Command{
	Use:   "matches",
	Short: "List stored matches",
	RunE:  runMatches,
}

func init() {
	matchesCmd.Flags().BoolVar(&notableOnly, "notable", false, "only show matches at notable companies")
	rootCmd.AddCommand(matchesCmd)
}

func runMatches(cmd *cobra.Command, args []string) error {
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

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Matched", "Company", "Title", "Location", "Notable", "URL"})

	shown := 0
	for _, r := range st.Records() {
		if notableOnly && !r.Verdict.IsNotableCompany {
			continue
		}
		notable := ""
		if r.Verdict.IsNotableCompany {
			notable = "★"
		}
		t.AppendRow(table.Row{
			r.MatchedAt.Local().Format("2006-01-02"),
			r.Offer.Company,
			normalize.Truncate(r.Offer.Title, 60),
			r.Offer.Location,
			notable,
			r.Offer.URL,
		})
		shown++
	}
	t.AppendFooter(table.Row{"", "", "", "", "Total", shown})
	t.Render()
	return nil
}
