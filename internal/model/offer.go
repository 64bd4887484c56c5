package model

import (
	"context"
	"time"
)

// RawOffer is one listing exactly as the offers API returned it.
// Only the normalizer looks inside.
type RawOffer map[string]any

// Offer is the canonical shape of a job offer.
type Offer struct {
	ID          string `json:"id"` // deterministic, see normalize.OfferID
	Title       string `json:"title"`
	Company     string `json:"company"`
	URL         string `json:"url"`
	Location    string `json:"location,omitempty"`
	PostedDate  string `json:"posted_date,omitempty"`
	Description string `json:"description,omitempty"`
	SourcePage  int    `json:"source_page"`
}

// MatchVerdict is the matching service's decision for one offer.
type MatchVerdict struct {
	OfferID          string `json:"offer_id"`
	IsMatch          bool   `json:"is_match"`
	Reason           string `json:"reason"`
	IsNotableCompany bool   `json:"is_notable_company"`
}

// MatchRecord is a persisted match. Records are never mutated once created.
type MatchRecord struct {
	Offer     Offer        `json:"offer"`
	Verdict   MatchVerdict `json:"verdict"`
	MatchedAt time.Time    `json:"matched_at"`
}

// Page is one page of raw offers.
type Page struct {
	Number     int
	Offers     []RawOffer
	HasMore    bool
	TotalPages int // 0 when the API did not say
}

// Batch is a bounded group of offers submitted to the matching service in one call.
type Batch struct {
	RunID  string
	Index  int // 1-based
	Total  int
	Offers []Offer
}

// IDs returns the offer IDs of the batch in order.
func (b Batch) IDs() []string {
	ids := make([]string, len(b.Offers))
	for i, o := range b.Offers {
		ids[i] = o.ID
	}
	return ids
}

// OutcomeKind tags what happened to one offer during a run.
type OutcomeKind int

const (
	Matched OutcomeKind = iota
	Rejected
	Deferred
)

func (k OutcomeKind) String() string {
	switch k {
	case Matched:
		return "matched"
	case Rejected:
		return "rejected"
	case Deferred:
		return "deferred"
	default:
		return "unknown"
	}
}

// Outcome is the per-offer result of a run. Deferred outcomes carry the reason
// so nothing is dropped without a trace.
type Outcome struct {
	OfferID string
	Kind    OutcomeKind
	Reason  string
	Verdict *MatchVerdict
}

// PageFetcher retrieves one page of raw offers from the offers API.
type PageFetcher interface {
	FetchPage(ctx context.Context, days, page int) (Page, error)
}

// BatchMatcher evaluates a batch of offers against a profile and returns
// exactly one verdict per offer, in batch order.
type BatchMatcher interface {
	MatchBatch(ctx context.Context, batch Batch, profile Profile) ([]MatchVerdict, error)
}

// Notifier sends notifications for new matches.
type Notifier interface {
	Notify(matches []MatchRecord) error
}

// OfferFilter decides whether an offer is worth sending to the matching service.
type OfferFilter interface {
	Match(offer Offer) bool
}
