package scraper

import "context"

// Fresh runs every call on a new Scraper over Session, so pages are cached
// only while one call lasts. Long-running servers use it to avoid serving
// pages fetched hours ago.
type Fresh struct {
	Session Session
}

func (f Fresh) FetchBooks(ctx context.Context, userID string, kind ListingKind) (*BookCollection, error) {
	return NewScraper(f.Session).FetchBooks(ctx, userID, kind)
}

func (f Fresh) FetchReadBooksIn(ctx context.Context, userID string, target YearMonth) (*BookCollection, error) {
	return NewScraper(f.Session).FetchReadBooksIn(ctx, userID, target)
}

func (f Fresh) FetchFollowings(ctx context.Context, userID string) (*UserCollection, error) {
	return NewScraper(f.Session).FetchFollowings(ctx, userID)
}

func (f Fresh) FetchFollowers(ctx context.Context, userID string) (*UserCollection, error) {
	return NewScraper(f.Session).FetchFollowers(ctx, userID)
}

func (f Fresh) FetchProfile(ctx context.Context, userID string) (*Profile, error) {
	return NewScraper(f.Session).FetchProfile(ctx, userID)
}
