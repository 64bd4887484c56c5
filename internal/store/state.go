package store

import (
	"fmt"

	"github.com/amishk599/offerradar/internal/model"
)

// State is the ordered set of persisted matches, keyed by offer ID.
// It is a value: Merge returns a new State and never touches its input.
type State struct {
	records []model.MatchRecord
	index   map[string]int
}

// NewState builds a State from records in order. Duplicate offer IDs are an error.
func NewState(records []model.MatchRecord) (State, error) {
	s := State{
		records: make([]model.MatchRecord, 0, len(records)),
		index:   make(map[string]int, len(records)),
	}
	for _, r := range records {
		if r.Offer.ID == "" {
			return State{}, fmt.Errorf("match record with empty offer id")
		}
		if _, ok := s.index[r.Offer.ID]; ok {
			return State{}, fmt.Errorf("duplicate offer id %s", r.Offer.ID)
		}
		s.index[r.Offer.ID] = len(s.records)
		s.records = append(s.records, r)
	}
	return s, nil
}

// Has reports whether a match for offerID is persisted.
func (s State) Has(offerID string) bool {
	_, ok := s.index[offerID]
	return ok
}

// Get returns the record for offerID.
func (s State) Get(offerID string) (model.MatchRecord, bool) {
	i, ok := s.index[offerID]
	if !ok {
		return model.MatchRecord{}, false
	}
	return s.records[i], true
}

// Len returns the number of records.
func (s State) Len() int { return len(s.records) }

// Records returns a copy of the records in insertion order.
func (s State) Records() []model.MatchRecord {
	out := make([]model.MatchRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Merge appends the records of newMatches whose key is not present yet,
// in the order given, after all prior records. Merging the same records twice
// yields the same state as merging once.
func Merge(s State, newMatches []model.MatchRecord) State {
	out := State{
		records: make([]model.MatchRecord, len(s.records), len(s.records)+len(newMatches)),
		index:   make(map[string]int, len(s.records)+len(newMatches)),
	}
	copy(out.records, s.records)
	for id, i := range s.index {
		out.index[id] = i
	}

	for _, r := range newMatches {
		if _, ok := out.index[r.Offer.ID]; ok {
			continue
		}
		out.index[r.Offer.ID] = len(out.records)
		out.records = append(out.records, r)
	}
	return out
}
