package pipeline

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/amishk599/offerradar/internal/model"
)

// fetchAll returns every page of the window in page order. Page 1 is fetched
// alone to learn the page count; the rest are fetched concurrently when the
// count is known and one by one otherwise. Pagination ends at the first page
// that reports no more results. Any failure up to that page fails the whole fetch.
func (p *Pipeline) fetchAll(ctx context.Context, logger *slog.Logger) ([]model.Page, error) {
	first, err := p.deps.Fetcher.FetchPage(ctx, p.opts.Days, 1)
	if err != nil {
		return nil, asFetchError(1, err)
	}
	first.Number = 1
	pages := []model.Page{first}
	if !first.HasMore {
		return pages, nil
	}

	if first.TotalPages > 1 {
		last := min(first.TotalPages, p.opts.MaxPages)
		if first.TotalPages > p.opts.MaxPages {
			logger.Warn("page count exceeds max_pages, truncating", "total_pages", first.TotalPages, "max_pages", p.opts.MaxPages)
		}
		rest, err := p.fetchRange(ctx, 2, last)
		if err != nil {
			return nil, err
		}
		return append(pages, rest...), nil
	}

	for n := 2; ; n++ {
		if n > p.opts.MaxPages {
			logger.Warn("max_pages reached before the last page", "max_pages", p.opts.MaxPages)
			break
		}
		pg, err := p.deps.Fetcher.FetchPage(ctx, p.opts.Days, n)
		if err != nil {
			return nil, asFetchError(n, err)
		}
		pg.Number = n
		pages = append(pages, pg)
		if !pg.HasMore {
			break
		}
	}
	return pages, nil
}

// fetchRange fetches pages from..to with bounded concurrency and returns them
// in page order, ending at the first page that reports no more results. A page
// that ends the results or fails cancels every page above it, and failures
// above the last page are ignored.
func (p *Pipeline) fetchRange(ctx context.Context, from, to int) ([]model.Page, error) {
	n := to - from + 1
	pages := make([]model.Page, n)
	errs := make([]error, n)
	ctxs := make([]context.Context, n)
	cancels := make([]context.CancelFunc, n)
	for i := range n {
		ctxs[i], cancels[i] = context.WithCancel(ctx)
	}
	defer func() {
		for _, cancel := range cancels {
			cancel()
		}
	}()

	var mu sync.Mutex
	cutoff := to // highest page still needed
	stopAbove := func(page int) {
		mu.Lock()
		defer mu.Unlock()
		for q := page + 1; q <= cutoff; q++ {
			cancels[q-from]()
		}
		cutoff = min(cutoff, page)
	}
	needed := func(page int) bool {
		mu.Lock()
		defer mu.Unlock()
		return page <= cutoff
	}

	var g errgroup.Group
	g.SetLimit(p.opts.PageConcurrency)
	for page := from; page <= to; page++ {
		g.Go(func() error {
			i := page - from
			if !needed(page) {
				return nil
			}
			pg, err := p.deps.Fetcher.FetchPage(ctxs[i], p.opts.Days, page)
			if err != nil {
				errs[i] = asFetchError(page, err)
				stopAbove(page)
				return nil
			}
			pg.Number = page
			pages[i] = pg
			if !pg.HasMore {
				stopAbove(page)
			}
			return nil
		})
	}
	g.Wait()

	var out []model.Page
	for i := range pages {
		if errs[i] != nil {
			return nil, errs[i]
		}
		out = append(out, pages[i])
		if !pages[i].HasMore {
			break
		}
	}
	return out, nil
}
