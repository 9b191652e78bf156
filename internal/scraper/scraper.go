package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

var errNotDescending = errors.New("listing is not in descending read-date order")

// Scraper collects a user's books, users and profile from bookmeter. It
// owns one page cache, so an instance should serve one logical scraping
// session and must not be used concurrently.
type Scraper struct {
	session   Session
	accessor  *PageAccessor
	walker    *PageWalker
	extractor *RecordExtractor
	logger    *slog.Logger
}

// NewScraper creates a new bookmeter scraper over session
func NewScraper(session Session) *Scraper {
	logger := slog.Default().With("component", "scraper")
	accessor := NewPageAccessor(session)
	root := DefaultRoot
	if session != nil {
		root = session.Root()
	}
	return &Scraper{
		session:   session,
		accessor:  accessor,
		walker:    NewPageWalker(accessor, logger),
		extractor: NewRecordExtractor(accessor, root),
		logger:    logger,
	}
}

// FetchBooks returns every book of one of a user's lists. An empty userID
// means the logged-in user. Without a login the result is empty.
func (s *Scraper) FetchBooks(ctx context.Context, userID string, kind ListingKind) (*BookCollection, error) {
	userID, err := s.resolveUserID(userID)
	if err != nil {
		return nil, err
	}
	path, err := ListingPath(userID, kind)
	if err != nil {
		return nil, err
	}
	if s.session == nil {
		return nil, ErrSession
	}
	if !s.session.LoggedIn() {
		return NewBookCollection(), nil
	}

	s.logger.InfoContext(ctx, "scraping books", "user_id", userID, "kind", kind)
	books := NewBookCollection()
	for page, err := range s.walker.Pages(ctx, path, BookShelfLayout) {
		if err != nil {
			return nil, err
		}
		extracted, err := s.extractor.Books(ctx, page)
		if err != nil {
			return nil, err
		}
		books.Add(extracted...)
	}
	return books, nil
}

// ReadBooksIn returns the books a user read or reread in the given month.
func (s *Scraper) ReadBooksIn(ctx context.Context, year, month int, userID string) (*BookCollection, error) {
	target, err := NewYearMonth(year, month)
	if err != nil {
		return nil, err
	}
	return s.FetchReadBooksIn(ctx, userID, target)
}

// FetchReadBooksIn returns the books of the read list whose primary or
// reread date falls in target.
//
// The read list is ordered by primary read date, newest first, so pages
// entirely newer than target are skipped without reading their books and
// the walk stops as soon as a page is entirely older. If a page breaks that
// order the search falls back to filtering every page.
func (s *Scraper) FetchReadBooksIn(ctx context.Context, userID string, target YearMonth) (*BookCollection, error) {
	userID, err := s.resolveUserID(userID)
	if err != nil {
		return nil, err
	}
	if target.Month < 1 || target.Month > 12 {
		return nil, fmt.Errorf("%w: month %d out of range", ErrInvalidArgument, target.Month)
	}
	path, err := ListingPath(userID, KindRead)
	if err != nil {
		return nil, err
	}
	if s.session == nil {
		return nil, ErrSession
	}
	if !s.session.LoggedIn() {
		return NewBookCollection(), nil
	}

	s.logger.InfoContext(ctx, "searching read books", "user_id", userID, "month", target)
	books, err := s.searchMonth(ctx, path, target)
	if errors.Is(err, errNotDescending) {
		s.logger.WarnContext(ctx, "falling back to a full scan", "user_id", userID, "err", err)
		return s.scanMonth(ctx, path, target)
	}
	return books, err
}

func (s *Scraper) searchMonth(ctx context.Context, path string, target YearMonth) (*BookCollection, error) {
	books := NewBookCollection()
	var prevLast YearMonth
	havePrev := false

	for page, err := range s.walker.Pages(ctx, path, BookShelfLayout) {
		if err != nil {
			return nil, err
		}
		first, last, dated, err := s.extractor.DateWindow(ctx, page)
		if err != nil {
			return nil, err
		}
		if !dated {
			matched, err := s.extractor.BooksReadIn(ctx, page, target)
			if err != nil {
				return nil, err
			}
			books.Add(matched...)
			continue
		}
		if first.Before(last) || (havePrev && first.After(prevLast)) {
			return nil, fmt.Errorf("%w: page %s spans %s..%s", errNotDescending, page.Page.URL, last, first)
		}
		prevLast, havePrev = last, true

		switch {
		case target.Before(last):
			s.logger.DebugContext(ctx, "page newer than target, skipping", "url", page.Page.URL, "first", first, "last", last)
			continue
		case target.After(first):
			s.logger.DebugContext(ctx, "page older than target, stopping", "url", page.Page.URL, "first", first, "last", last)
			return books, nil
		}

		matched, err := s.extractor.BooksReadIn(ctx, page, target)
		if err != nil {
			return nil, err
		}
		books.Add(matched...)

		// last < target <= first: no later page can hold the target month.
		if target.After(last) {
			return books, nil
		}
	}
	return books, nil
}

func (s *Scraper) scanMonth(ctx context.Context, path string, target YearMonth) (*BookCollection, error) {
	books := NewBookCollection()
	for page, err := range s.walker.Pages(ctx, path, BookShelfLayout) {
		if err != nil {
			return nil, err
		}
		matched, err := s.extractor.BooksReadIn(ctx, page, target)
		if err != nil {
			return nil, err
		}
		books.Add(matched...)
	}
	return books, nil
}

// FetchFollowings returns the users a user follows. The logged-in user's own
// followings page has a different layout from everybody else's.
func (s *Scraper) FetchFollowings(ctx context.Context, userID string) (*UserCollection, error) {
	userID, err := s.resolveUserID(userID)
	if err != nil {
		return nil, err
	}
	path, err := FollowingsPath(userID)
	if err != nil {
		return nil, err
	}
	if s.session == nil {
		return nil, ErrSession
	}
	if !s.session.LoggedIn() {
		return NewUserCollection(), nil
	}

	layout := UserListLayout
	if userID == s.session.UserID() {
		layout = MyFollowingsLayout
	}
	return s.collectUsers(ctx, path, layout)
}

// FetchFollowers returns the users following a user.
func (s *Scraper) FetchFollowers(ctx context.Context, userID string) (*UserCollection, error) {
	userID, err := s.resolveUserID(userID)
	if err != nil {
		return nil, err
	}
	path, err := FollowersPath(userID)
	if err != nil {
		return nil, err
	}
	if s.session == nil {
		return nil, ErrSession
	}
	if !s.session.LoggedIn() {
		return NewUserCollection(), nil
	}
	return s.collectUsers(ctx, path, UserListLayout)
}

func (s *Scraper) collectUsers(ctx context.Context, path string, layout Layout) (*UserCollection, error) {
	s.logger.InfoContext(ctx, "scraping users", "path", path, "layout", layout)
	users := NewUserCollection()
	for page, err := range s.walker.Pages(ctx, path, layout) {
		if err != nil {
			return nil, err
		}
		extracted, err := s.extractor.Users(page)
		if err != nil {
			return nil, err
		}
		users.Add(extracted...)
	}
	return users, nil
}

// FetchProfile reads a user's profile page. It does not need a login.
func (s *Scraper) FetchProfile(ctx context.Context, userID string) (*Profile, error) {
	userID, err := s.resolveUserID(userID)
	if err != nil {
		return nil, err
	}
	path, err := MypagePath(userID)
	if err != nil {
		return nil, err
	}
	if s.session == nil {
		return nil, ErrSession
	}

	s.logger.InfoContext(ctx, "scraping profile", "user_id", userID)
	page, err := s.accessor.Fetch(ctx, path)
	if err != nil {
		return nil, err
	}
	return parseProfile(page), nil
}

// resolveUserID substitutes the logged-in user for an empty id and validates
// the result.
func (s *Scraper) resolveUserID(userID string) (string, error) {
	if userID == "" && s.session != nil {
		userID = s.session.UserID()
	}
	if userID == "" {
		return "", fmt.Errorf("%w: no user id given and nobody is logged in", ErrInvalidArgument)
	}
	if err := ValidateUserID(userID); err != nil {
		return "", err
	}
	return userID, nil
}
