// Package report renders stored matches into the HTML document handed to
// the mail-sending side.
package report

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"time"

	"github.com/amishk599/offerradar/internal/model"
	"github.com/amishk599/offerradar/internal/store"
)

//go:embed templates/report.html.tmpl
var reportTemplateRaw string

var reportTemplate = template.Must(template.New("report").Parse(reportTemplateRaw))

// Input is everything a report is built from.
type Input struct {
	State       store.State
	NewIDs      []string // offer IDs merged by this run
	Deferred    int
	RunID       string
	GeneratedAt time.Time
}

type view struct {
	Matches     []model.MatchRecord
	Notable     []model.MatchRecord
	Deferred    int
	RunID       string
	GeneratedAt string
	Total       int
}

// Render builds the report for the new matches of one run, listed in store
// order. It fails with *model.ReportRenderError when a new ID is not in the
// state or a record lacks the title or URL needed to show it.
func Render(in Input) ([]byte, error) {
	fresh := make(map[string]bool, len(in.NewIDs))
	for _, id := range in.NewIDs {
		if !in.State.Has(id) {
			return nil, &model.ReportRenderError{Err: fmt.Errorf("offer %s is not in the match store", id)}
		}
		fresh[id] = true
	}

	v := view{
		Deferred:    in.Deferred,
		RunID:       in.RunID,
		GeneratedAt: in.GeneratedAt.UTC().Format("2006-01-02 15:04 MST"),
		Total:       in.State.Len(),
	}
	for _, r := range in.State.Records() {
		if !fresh[r.Offer.ID] {
			continue
		}
		if r.Offer.Title == "" || r.Offer.URL == "" {
			return nil, &model.ReportRenderError{Err: fmt.Errorf("offer %s has no title or url", r.Offer.ID)}
		}
		v.Matches = append(v.Matches, r)
		if r.Verdict.IsNotableCompany {
			v.Notable = append(v.Notable, r)
		}
	}

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, v); err != nil {
		return nil, &model.ReportRenderError{Err: err}
	}
	return buf.Bytes(), nil
}

// WriteFile replaces the report at path atomically.
func WriteFile(path string, doc []byte) error {
	if err := store.WriteFileAtomic(path, doc); err != nil {
		return &model.ReportRenderError{Err: fmt.Errorf("write %s: %w", path, err)}
	}
	return nil
}
