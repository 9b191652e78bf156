package scraper

import (
	"context"
	"fmt"
	"io"
)

// DebugListing writes the slot table of every page of a book list, without
// visiting any book page.
func (s *Scraper) DebugListing(ctx context.Context, w io.Writer, userID string, kind ListingKind) error {
	userID, err := s.resolveUserID(userID)
	if err != nil {
		return err
	}
	path, err := ListingPath(userID, kind)
	if err != nil {
		return err
	}
	if s.session == nil {
		return ErrSession
	}

	fmt.Fprintf(w, "=== LISTING %s ===\n", path)
	pages := 0
	for page, err := range s.walker.Pages(ctx, path, BookShelfLayout) {
		if err != nil {
			return fmt.Errorf("failed to walk listing: %w", err)
		}
		pages++
		fmt.Fprintf(w, "\n--- page %d: %s ---\n", pages, page.Page.URL)
		fmt.Fprintf(w, "Paginated: %t\n", hasPagination(page.Page))
		for i := 1; i <= page.Capacity(); i++ {
			if page.Link(i) == "" {
				continue
			}
			fmt.Fprintf(w, "Slot %2d: %s | %s\n", i, page.Name(i), page.Link(i))
		}
		fmt.Fprintf(w, "Occupied prefix: %d\n", page.Occupied())
		if next, ok := nextPagePath(page.Page); ok {
			fmt.Fprintf(w, "Next: %s\n", next)
		}
	}

	fmt.Fprintf(w, "\n=== SUMMARY ===\n")
	fmt.Fprintf(w, "Pages found: %d\n", pages)
	return nil
}
