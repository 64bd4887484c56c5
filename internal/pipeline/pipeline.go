// Package pipeline runs one ingestion cycle: fetch every page, normalize,
// drop known offers, match the rest in batches, merge, save, report, notify.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/amishk599/offerradar/internal/dedup"
	"github.com/amishk599/offerradar/internal/model"
	"github.com/amishk599/offerradar/internal/normalize"
	"github.com/amishk599/offerradar/internal/report"
	"github.com/amishk599/offerradar/internal/store"
)

// excludedReason is the Rejected reason for offers dropped by the pre-filter.
const excludedReason = "excluded by keyword or location filter"

// Store is the persistence the pipeline needs from the match store.
type Store interface {
	Load() (store.State, error)
	Save(st store.State) error
}

// Ledger records run diagnostics. Ledger failures never fail a run.
type Ledger interface {
	RecordRun(r store.RunRecord) error
	RecordDeferred(runID string, deferred []model.Outcome, at time.Time) error
	ResolveDeferred(offerIDs []string) error
}

// Options holds the tunables of a run.
type Options struct {
	Days             int
	MaxPages         int
	PageConcurrency  int
	BatchSize        int
	BatchConcurrency int
	ReportPath       string // empty disables the report
	DryRun           bool   // no store, ledger or report writes
}

// Deps are the collaborators of a Pipeline. Filter, Ledger and Notifier are optional.
type Deps struct {
	Fetcher  model.PageFetcher
	Matcher  model.BatchMatcher
	Filter   model.OfferFilter
	Store    Store
	Ledger   Ledger
	Notifier model.Notifier
	Profile  model.Profile
}

// Pipeline owns one ingestion-and-matching cycle. Run it again for the next cycle.
type Pipeline struct {
	deps   Deps
	opts   Options
	logger *slog.Logger

	now   func() time.Time
	runID func() string
}

// New creates a pipeline wired with all its dependencies.
func New(deps Deps, opts Options, logger *slog.Logger) *Pipeline {
	opts.MaxPages = max(opts.MaxPages, 1)
	opts.PageConcurrency = max(opts.PageConcurrency, 1)
	opts.BatchSize = max(opts.BatchSize, 1)
	opts.BatchConcurrency = max(opts.BatchConcurrency, 1)
	return &Pipeline{
		deps:   deps,
		opts:   opts,
		logger: logger,
		now:    time.Now,
		runID:  func() string { return uuid.New().String()[:8] },
	}
}

// Run executes one cycle. Fetch and store failures abort the run before
// anything is saved. Failed batches are deferred: the run still succeeds and
// the summary counts them. A report failure is returned after the store has
// been saved.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	sum := Summary{RunID: p.runID(), StartedAt: p.now().UTC()}
	logger := p.logger.With("run_id", sum.RunID)
	logger.Info("run started", "days", p.opts.Days, "dry_run", p.opts.DryRun)

	fail := func(err error) (Summary, error) {
		sum.FinishedAt = p.now().UTC()
		sum.Err = err
		p.recordRun(logger, sum)
		logger.Error("run failed", "error", err)
		return sum, err
	}

	state, err := p.deps.Store.Load()
	if err != nil {
		return fail(fmt.Errorf("loading match store: %w", err))
	}

	pages, err := p.fetchAll(ctx, logger)
	if err != nil {
		return fail(err)
	}
	sum.Pages = len(pages)

	offers := p.normalizeAll(pages, logger, &sum)
	unique := dedup.Unique(offers)
	sum.Duplicates = len(offers) - len(unique)
	fresh := dedup.FilterNew(unique, state)
	sum.Known = len(unique) - len(fresh)
	sum.New = len(fresh)

	var candidates []model.Offer
	for _, o := range fresh {
		if p.deps.Filter != nil && !p.deps.Filter.Match(o) {
			sum.Outcomes = append(sum.Outcomes, model.Outcome{OfferID: o.ID, Kind: model.Rejected, Reason: excludedReason})
			sum.Excluded++
			continue
		}
		candidates = append(candidates, o)
	}

	logger.Info("offers ready for matching",
		"pages", sum.Pages,
		"fetched", sum.Fetched,
		"malformed", sum.Malformed,
		"known", sum.Known,
		"excluded", sum.Excluded,
		"candidates", len(candidates),
	)

	batches := split(sum.RunID, candidates, p.opts.BatchSize)
	results := p.matchAll(ctx, batches, logger)
	if err := ctx.Err(); err != nil {
		return fail(fmt.Errorf("run cancelled: %w", err))
	}

	matchedAt := p.now().UTC()
	for i, b := range batches {
		res := results[i]
		if res.err != nil {
			sum.DeferredBatches++
			logger.Warn("batch deferred",
				"batch", b.Index,
				"offers", len(b.Offers),
				"error", res.err,
			)
			for _, o := range b.Offers {
				sum.Outcomes = append(sum.Outcomes, model.Outcome{OfferID: o.ID, Kind: model.Deferred, Reason: res.err.Error()})
			}
			continue
		}
		// matchAll aligned the verdicts to the batch by offer id.
		for j, o := range b.Offers {
			v := res.verdicts[j]
			kind := model.Rejected
			if v.IsMatch {
				kind = model.Matched
				sum.NewMatches = append(sum.NewMatches, model.MatchRecord{Offer: o, Verdict: v, MatchedAt: matchedAt})
			}
			sum.Outcomes = append(sum.Outcomes, model.Outcome{OfferID: o.ID, Kind: kind, Reason: v.Reason, Verdict: &v})
		}
	}
	sum.tally()

	next := store.Merge(state, sum.NewMatches)
	if !p.opts.DryRun {
		if err := p.deps.Store.Save(next); err != nil {
			return fail(fmt.Errorf("saving match store: %w", err))
		}
	}
	p.recordDeferred(logger, sum)

	if p.opts.ReportPath != "" {
		if err := p.writeReport(next, sum); err != nil {
			return fail(err)
		}
	}

	if p.deps.Notifier != nil && len(sum.NewMatches) > 0 {
		if err := p.deps.Notifier.Notify(sum.NewMatches); err != nil {
			logger.Warn("notification failed", "error", err)
		}
	}

	sum.FinishedAt = p.now().UTC()
	p.recordRun(logger, sum)

	attrs := []any{
		"new", sum.New,
		"matched", sum.Matched,
		"rejected", sum.Rejected,
		"deferred", sum.Deferred,
		"stored", next.Len(),
		"duration", sum.FinishedAt.Sub(sum.StartedAt).Round(time.Millisecond),
	}
	if sum.Degraded() {
		logger.Warn(fmt.Sprintf("run finished degraded: %d offers deferred, they will be retried next run", sum.Deferred), attrs...)
	} else {
		logger.Info("run finished", attrs...)
	}
	return sum, nil
}

func (p *Pipeline) normalizeAll(pages []model.Page, logger *slog.Logger, sum *Summary) []model.Offer {
	var offers []model.Offer
	for _, pg := range pages {
		for _, raw := range pg.Offers {
			sum.Fetched++
			o, err := normalize.Normalize(raw, pg.Number)
			if err != nil {
				sum.Malformed++
				logger.Warn("skipping malformed offer", "page", pg.Number, "error", err)
				continue
			}
			offers = append(offers, o)
		}
	}
	return offers
}

func (p *Pipeline) writeReport(st store.State, sum Summary) error {
	ids := make([]string, len(sum.NewMatches))
	for i, r := range sum.NewMatches {
		ids[i] = r.Offer.ID
	}
	doc, err := report.Render(report.Input{
		State:       st,
		NewIDs:      ids,
		Deferred:    sum.Deferred,
		RunID:       sum.RunID,
		GeneratedAt: p.now(),
	})
	if err != nil {
		return err
	}
	if p.opts.DryRun {
		return nil
	}
	if err := report.WriteFile(p.opts.ReportPath, doc); err != nil {
		return err
	}
	p.logger.Info("report written", "path", p.opts.ReportPath, "bytes", len(doc))
	return nil
}

func (p *Pipeline) recordDeferred(logger *slog.Logger, sum Summary) {
	if p.deps.Ledger == nil || p.opts.DryRun {
		return
	}
	var deferred []model.Outcome
	var resolved []string
	for _, o := range sum.Outcomes {
		if o.Kind == model.Deferred {
			deferred = append(deferred, o)
		} else {
			resolved = append(resolved, o.OfferID)
		}
	}
	if err := p.deps.Ledger.ResolveDeferred(resolved); err != nil {
		logger.Warn("ledger: resolving deferred offers failed", "error", err)
	}
	if err := p.deps.Ledger.RecordDeferred(sum.RunID, deferred, sum.StartedAt); err != nil {
		logger.Warn("ledger: recording deferred offers failed", "error", err)
	}
}

func (p *Pipeline) recordRun(logger *slog.Logger, sum Summary) {
	if p.deps.Ledger == nil || p.opts.DryRun {
		return
	}
	if err := p.deps.Ledger.RecordRun(sum.RunRecord()); err != nil {
		logger.Warn("ledger: recording run failed", "error", err)
	}
}

// asFetchError makes sure a page failure names its page.
func asFetchError(page int, err error) error {
	var fe *model.FetchError
	if errors.As(err, &fe) {
		return err
	}
	return &model.FetchError{Page: page, Err: err}
}

// split cuts offers into batches of at most size, numbered from 1.
func split(runID string, offers []model.Offer, size int) []model.Batch {
	total := (len(offers) + size - 1) / size
	batches := make([]model.Batch, 0, total)
	for i := 0; i < len(offers); i += size {
		end := min(i+size, len(offers))
		batches = append(batches, model.Batch{
			RunID:  runID,
			Index:  len(batches) + 1,
			Total:  total,
			Offers: offers[i:end],
		})
	}
	return batches
}
