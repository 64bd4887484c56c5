package filter

import (
	"strings"
	"unicode"

	"github.com/amishk599/offerradar/internal/model"
)

// ExclusionFilter rejects offers before they reach the matching service.
// An offer is excluded when its title contains any exclude keyword as whole
// words, or its location contains any excluded location. Matching is
// case-insensitive. Empty lists exclude nothing.
type ExclusionFilter struct {
	keywords  []string
	locations []string
}

// NewExclusionFilter returns a filter over title keywords and location substrings.
func NewExclusionFilter(keywords []string, locations []string) *ExclusionFilter {
	f := &ExclusionFilter{}
	for _, kw := range keywords {
		if w := words(kw); w != "" {
			f.keywords = append(f.keywords, w)
		}
	}
	for _, loc := range locations {
		if l := strings.ToLower(strings.TrimSpace(loc)); l != "" {
			f.locations = append(f.locations, l)
		}
	}
	return f
}

// Match returns true if the offer should be evaluated, false if it is excluded.
func (f *ExclusionFilter) Match(offer model.Offer) bool {
	if len(f.keywords) > 0 {
		// Padding makes "intern" miss "international".
		title := " " + words(offer.Title) + " "
		for _, kw := range f.keywords {
			if strings.Contains(title, " "+kw+" ") {
				return false
			}
		}
	}

	if len(f.locations) > 0 {
		locationLower := strings.ToLower(offer.Location)
		for _, loc := range f.locations {
			if strings.Contains(locationLower, loc) {
				return false
			}
		}
	}

	return true
}

// words lower-cases s and collapses every run of non-alphanumerics to one space.
func words(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(fields, " ")
}
