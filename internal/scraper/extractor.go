package scraper

import (
	"context"
	"fmt"
	"regexp"
)

var userLinkPattern = regexp.MustCompile(`/u/(\d+)$`)

// RecordExtractor turns the slots of a listing page into records, reading
// each book's own page through the accessor.
type RecordExtractor struct {
	accessor *PageAccessor
	root     string
}

func NewRecordExtractor(accessor *PageAccessor, root string) *RecordExtractor {
	return &RecordExtractor{accessor: accessor, root: root}
}

// Books extracts the books of a listing page in slot order, stopping at the
// first empty slot.
func (e *RecordExtractor) Books(ctx context.Context, l *ListingPage) ([]Book, error) {
	var books []Book
	for i := 1; i <= l.Capacity(); i++ {
		link := l.Link(i)
		if link == "" {
			break
		}
		d, err := e.detail(ctx, link)
		if err != nil {
			return nil, err
		}
		books = append(books, d.book(joinRoot(e.root, link)))
	}
	return books, nil
}

// BooksReadIn extracts the books of a listing page read or reread in target.
// Matching books carry all of their read dates.
func (e *RecordExtractor) BooksReadIn(ctx context.Context, l *ListingPage, target YearMonth) ([]Book, error) {
	books, err := e.Books(ctx, l)
	if err != nil {
		return nil, err
	}
	matched := books[:0]
	for _, b := range books {
		if b.ReadIn(target) {
			matched = append(matched, b)
		}
	}
	return matched, nil
}

// DateWindow returns the primary read month of the first and of the last
// dated slot on the page. ok is false when no slot carries a read date.
func (e *RecordExtractor) DateWindow(ctx context.Context, l *ListingPage) (first, last YearMonth, ok bool, err error) {
	n := l.Occupied()
	firstAt := 0
	for i := 1; i <= n; i++ {
		d, err := e.detail(ctx, l.Link(i))
		if err != nil {
			return YearMonth{}, YearMonth{}, false, err
		}
		if ym, dated := d.readYearMonth(); dated {
			first, firstAt = ym, i
			break
		}
	}
	if firstAt == 0 {
		return YearMonth{}, YearMonth{}, false, nil
	}
	for i := n; i >= firstAt; i-- {
		d, err := e.detail(ctx, l.Link(i))
		if err != nil {
			return YearMonth{}, YearMonth{}, false, err
		}
		if ym, dated := d.readYearMonth(); dated {
			return first, ym, true, nil
		}
	}
	return first, first, true, nil
}

// Users extracts the users of a listing page in slot order, stopping at the
// first slot without a name.
func (e *RecordExtractor) Users(l *ListingPage) ([]User, error) {
	var users []User
	for i := 1; i <= l.Capacity(); i++ {
		name := l.Name(i)
		if name == "" {
			break
		}
		link := l.Link(i)
		m := userLinkPattern.FindStringSubmatch(link)
		if m == nil {
			return nil, fmt.Errorf("%w: slot %d link %q carries no user id", ErrExtraction, i, link)
		}
		users = append(users, User{
			Name: name,
			ID:   m[1],
			URI:  joinRoot(e.root, "/u/"+m[1]),
		})
	}
	return users, nil
}

func (e *RecordExtractor) detail(ctx context.Context, link string) (bookDetail, error) {
	page, err := e.accessor.Get(ctx, link)
	if err != nil {
		return bookDetail{}, err
	}
	return parseBookDetail(page), nil
}
