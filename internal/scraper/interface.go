package scraper

import "context"

// Interface defines the contract for bookmeter scraping operations
type Interface interface {
	FetchBooks(ctx context.Context, userID string, kind ListingKind) (*BookCollection, error)
	FetchReadBooksIn(ctx context.Context, userID string, target YearMonth) (*BookCollection, error)
	FetchFollowings(ctx context.Context, userID string) (*UserCollection, error)
	FetchFollowers(ctx context.Context, userID string) (*UserCollection, error)
	FetchProfile(ctx context.Context, userID string) (*Profile, error)
}
