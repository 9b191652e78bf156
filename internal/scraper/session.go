package scraper

import (
	"context"

	"github.com/PuerkitoBio/goquery"
)

// Page is one fetched HTML page.
type Page struct {
	// URL is the absolute URL the page was served from, after redirects.
	URL string
	Doc *goquery.Document
}

// Session is the transport the scraper reads pages through. Paths are
// relative to Root.
type Session interface {
	Get(ctx context.Context, path string) (*Page, error)
	LoggedIn() bool
	// UserID is the logged-in user's id, empty when not logged in.
	UserID() string
	Root() string
}
