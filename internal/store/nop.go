package store

import (
	"time"

	"github.com/amishk599/offerradar/internal/model"
)

// NopLedger is a no-op ledger used in check mode, so a dry run leaves no trace.
type NopLedger struct{}

func NewNopLedger() *NopLedger { return &NopLedger{} }

func (NopLedger) RecordRun(RunRecord) error                               { return nil }
func (NopLedger) RecordDeferred(string, []model.Outcome, time.Time) error { return nil }
func (NopLedger) ResolveDeferred([]string) error                          { return nil }
