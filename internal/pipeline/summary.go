package pipeline

import (
	"time"

	"github.com/amishk599/offerradar/internal/model"
	"github.com/amishk599/offerradar/internal/store"
)

// Summary describes one run. Outcomes holds one entry per new offer that
// passed deduplication, in offer order.
type Summary struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time

	Pages      int
	Fetched    int // raw offers across all pages
	Malformed  int
	Duplicates int // same offer on more than one page
	Known      int // already in the store
	New        int
	Excluded   int // rejected by the pre-filter, never sent to the matcher

	Matched         int
	Rejected        int // includes Excluded
	Deferred        int
	DeferredBatches int

	Outcomes   []model.Outcome
	NewMatches []model.MatchRecord

	Err error
}

func (s *Summary) tally() {
	s.Matched, s.Rejected, s.Deferred = 0, 0, 0
	for _, o := range s.Outcomes {
		switch o.Kind {
		case model.Matched:
			s.Matched++
		case model.Rejected:
			s.Rejected++
		case model.Deferred:
			s.Deferred++
		}
	}
}

// Degraded reports whether some offers were deferred.
func (s Summary) Degraded() bool { return s.Deferred > 0 }

// Status is "failed", "degraded" or "ok".
func (s Summary) Status() string {
	switch {
	case s.Err != nil:
		return "failed"
	case s.Degraded():
		return "degraded"
	default:
		return "ok"
	}
}

// RunRecord converts the summary into a ledger row.
func (s Summary) RunRecord() store.RunRecord {
	r := store.RunRecord{
		RunID:      s.RunID,
		StartedAt:  s.StartedAt,
		FinishedAt: s.FinishedAt,
		Status:     s.Status(),
		Fetched:    s.Fetched,
		New:        s.New,
		Matched:    s.Matched,
		Rejected:   s.Rejected,
		Deferred:   s.Deferred,
		Malformed:  s.Malformed,
	}
	if s.Err != nil {
		r.Error = s.Err.Error()
	}
	return r
}
