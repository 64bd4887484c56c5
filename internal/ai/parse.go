package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/amishk599/offerradar/internal/model"
)

// stripFences removes a surrounding markdown code fence, with or without a
// language tag. Structured outputs never produce one, but plain completions do.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.ContainsAny(s[:nl], "[{") {
		s = s[nl+1:]
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// wireVerdict is one verdict as sent by the matching service. Pointer fields
// tell an absent field from a zero value.
type wireVerdict struct {
	OfferID          *string `json:"offer_id"`
	IsMatch          *bool   `json:"is_match"`
	Reason           *string `json:"reason"`
	IsNotableCompany *bool   `json:"is_notable_company"`
}

// missingField names the first required field absent from v, or "".
func (v wireVerdict) missingField() string {
	switch {
	case v.OfferID == nil:
		return "offer_id"
	case v.IsMatch == nil:
		return "is_match"
	case v.Reason == nil:
		return "reason"
	case v.IsNotableCompany == nil:
		return "is_notable_company"
	}
	return ""
}

// parseVerdicts decodes a matching-service response and checks it against the
// batch: one complete verdict per offer, no unknown and no repeated ids. The
// result is in batch order. Every violation is a *model.MatchingProtocolError.
func parseVerdicts(raw string, batch model.Batch) ([]model.MatchVerdict, error) {
	protoErr := func(reason string, err error) error {
		return &model.MatchingProtocolError{Batch: batch.Index, Reason: reason, Err: err}
	}

	body := stripFences(raw)
	if body == "" {
		return nil, protoErr("empty response", nil)
	}

	var verdicts []wireVerdict
	switch body[0] {
	case '[':
		if err := json.Unmarshal([]byte(body), &verdicts); err != nil {
			return nil, protoErr("unparseable response", err)
		}
	case '{':
		var wrapped struct {
			Verdicts *[]wireVerdict `json:"verdicts"`
		}
		if err := json.Unmarshal([]byte(body), &wrapped); err != nil {
			return nil, protoErr("unparseable response", err)
		}
		if wrapped.Verdicts == nil {
			return nil, protoErr("response object has no verdicts list", nil)
		}
		verdicts = *wrapped.Verdicts
	default:
		return nil, protoErr("response is not JSON", nil)
	}

	if len(verdicts) != len(batch.Offers) {
		return nil, protoErr(fmt.Sprintf("got %d verdicts for %d offers", len(verdicts), len(batch.Offers)), nil)
	}

	want := make(map[string]bool, len(batch.Offers))
	for _, o := range batch.Offers {
		want[o.ID] = true
	}

	// Ids first, so a wrong or repeated id is reported as such even when the
	// verdict is also incomplete.
	ids := make([]string, len(verdicts))
	seen := make(map[string]bool, len(verdicts))
	for i, v := range verdicts {
		if v.OfferID == nil {
			return nil, protoErr(fmt.Sprintf("verdict %d missing field offer_id", i+1), nil)
		}
		id := strings.TrimSpace(*v.OfferID)
		if !want[id] {
			return nil, protoErr(fmt.Sprintf("unknown offer id %q", id), nil)
		}
		if seen[id] {
			return nil, protoErr(fmt.Sprintf("offer %q answered twice", id), nil)
		}
		seen[id] = true
		ids[i] = id
	}

	byID := make(map[string]model.MatchVerdict, len(verdicts))
	for i, v := range verdicts {
		if field := v.missingField(); field != "" {
			return nil, protoErr(fmt.Sprintf("verdict for %q missing field %s", ids[i], field), nil)
		}
		byID[ids[i]] = model.MatchVerdict{
			OfferID:          ids[i],
			IsMatch:          *v.IsMatch,
			Reason:           strings.TrimSpace(*v.Reason),
			IsNotableCompany: *v.IsNotableCompany,
		}
	}

	ordered := make([]model.MatchVerdict, len(batch.Offers))
	for i, o := range batch.Offers {
		v, ok := byID[o.ID]
		if !ok {
			return nil, protoErr(fmt.Sprintf("no verdict for offer %q", o.ID), nil)
		}
		ordered[i] = v
	}
	return ordered, nil
}
