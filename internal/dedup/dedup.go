package dedup

import "github.com/amishk599/offerradar/internal/model"

// KeySet is the read-only view of persisted offer IDs the deduplicator needs.
type KeySet interface {
	Has(offerID string) bool
}

// FilterNew drops offers whose ID is already in known. Relative order is kept
// and known is never modified.
func FilterNew(offers []model.Offer, known KeySet) []model.Offer {
	out := make([]model.Offer, 0, len(offers))
	for _, o := range offers {
		if known.Has(o.ID) {
			continue
		}
		out = append(out, o)
	}
	return out
}

// Unique drops repeated IDs within one run (the API may list an offer on two
// pages while it paginates), keeping the first occurrence.
func Unique(offers []model.Offer) []model.Offer {
	seen := make(map[string]struct{}, len(offers))
	out := make([]model.Offer, 0, len(offers))
	for _, o := range offers {
		if _, ok := seen[o.ID]; ok {
			continue
		}
		seen[o.ID] = struct{}{}
		out = append(out, o)
	}
	return out
}
