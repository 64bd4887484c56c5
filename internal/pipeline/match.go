package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/amishk599/offerradar/internal/model"
)

type batchResult struct {
	verdicts []model.MatchVerdict
	err      error
}

// matchAll matches batches with bounded concurrency. Each batch fails on its
// own: a failed batch never cancels the others. Results are indexed like batches.
func (p *Pipeline) matchAll(ctx context.Context, batches []model.Batch, logger *slog.Logger) []batchResult {
	results := make([]batchResult, len(batches))

	var g errgroup.Group
	g.SetLimit(p.opts.BatchConcurrency)
	for i, b := range batches {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = batchResult{err: err}
				return nil
			}
			verdicts, err := p.deps.Matcher.MatchBatch(ctx, b, p.deps.Profile)
			if err == nil {
				verdicts, err = alignVerdicts(b, verdicts)
			}
			results[i] = batchResult{verdicts: verdicts, err: err}
			if err == nil {
				logger.Debug("batch matched", "batch", b.Index, "of", b.Total, "offers", len(b.Offers))
			}
			return nil
		})
	}
	g.Wait()
	return results
}

// alignVerdicts keys verdicts by offer id and returns them in batch order, so
// verdicts[i] always belongs to b.Offers[i]. A wrong count, a repeated id or
// an offer left without a verdict is a protocol error; with equal counts an
// unknown id always leaves some offer without one.
func alignVerdicts(b model.Batch, verdicts []model.MatchVerdict) ([]model.MatchVerdict, error) {
	protoErr := func(format string, args ...any) error {
		return &model.MatchingProtocolError{Batch: b.Index, Reason: fmt.Sprintf(format, args...)}
	}
	if len(verdicts) != len(b.Offers) {
		return nil, protoErr("matcher returned %d verdicts for %d offers", len(verdicts), len(b.Offers))
	}

	byID := make(map[string]model.MatchVerdict, len(verdicts))
	for _, v := range verdicts {
		if _, dup := byID[v.OfferID]; dup {
			return nil, protoErr("offer %q answered twice", v.OfferID)
		}
		byID[v.OfferID] = v
	}

	aligned := make([]model.MatchVerdict, len(b.Offers))
	for i, o := range b.Offers {
		v, ok := byID[o.ID]
		if !ok {
			return nil, protoErr("no verdict for offer %q", o.ID)
		}
		aligned[i] = v
	}
	return aligned, nil
}
