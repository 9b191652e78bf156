package scraper

import (
	"context"
	"iter"
	"log/slog"
)

// PageWalker enumerates the pages of a paginated listing.
type PageWalker struct {
	accessor *PageAccessor
	logger   *slog.Logger
}

func NewPageWalker(accessor *PageAccessor, logger *slog.Logger) *PageWalker {
	return &PageWalker{accessor: accessor, logger: logger}
}

// Pages lazily yields the listing at path page by page, first page first,
// following the "next page" control until there is none. A listing showing
// the no-results marker yields nothing. A fetch error is yielded once and
// ends the sequence. Each range over the sequence walks from the first page
// again.
func (w *PageWalker) Pages(ctx context.Context, path string, layout Layout) iter.Seq2[*ListingPage, error] {
	return func(yield func(*ListingPage, error) bool) {
		page, err := w.accessor.Fetch(ctx, path)
		if err != nil {
			yield(nil, err)
			return
		}
		if hasNoResults(page, layout) {
			w.logger.DebugContext(ctx, "listing is empty", "path", path)
			return
		}
		if !hasPagination(page) {
			w.logger.DebugContext(ctx, "single page listing", "path", path)
			yield(NewListingPage(page, layout), nil)
			return
		}

		visited := map[string]struct{}{page.URL: {}}
		for n := 1; ; n++ {
			w.logger.DebugContext(ctx, "listing page", "path", path, "page", n, "url", page.URL)
			if !yield(NewListingPage(page, layout), nil) {
				return
			}
			next, ok := nextPagePath(page)
			if !ok {
				return
			}
			page, err = w.accessor.Fetch(ctx, next)
			if err != nil {
				yield(nil, err)
				return
			}
			if _, seen := visited[page.URL]; seen {
				w.logger.WarnContext(ctx, "pagination loops back, stopping", "path", path, "url", page.URL)
				return
			}
			visited[page.URL] = struct{}{}
		}
	}
}
