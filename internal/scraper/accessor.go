package scraper

import (
	"context"
	"fmt"
	"net/url"

	"github.com/PuerkitoBio/purell"
)

const cacheKeyFlags = purell.FlagsSafe |
	purell.FlagsUsuallySafeNonGreedy |
	purell.FlagRemoveDirectoryIndex |
	purell.FlagRemoveFragment |
	purell.FlagSortQuery

// PageAccessor fetches pages through a session and remembers every page it
// returned from Get, keyed by normalized absolute URL. The cache is never
// invalidated and is not safe for concurrent use.
type PageAccessor struct {
	session Session
	pages   map[string]*Page
}

func NewPageAccessor(session Session) *PageAccessor {
	return &PageAccessor{
		session: session,
		pages:   make(map[string]*Page),
	}
}

// Get returns the page at path, fetching it only the first time.
func (a *PageAccessor) Get(ctx context.Context, path string) (*Page, error) {
	if a.session == nil {
		return nil, ErrSession
	}
	key, err := a.key(path)
	if err != nil {
		return nil, err
	}
	if page, ok := a.pages[key]; ok {
		return page, nil
	}
	page, err := a.Fetch(ctx, path)
	if err != nil {
		return nil, err
	}
	a.pages[key] = page
	return page, nil
}

// Fetch always goes to the session, bypassing the cache.
func (a *PageAccessor) Fetch(ctx context.Context, path string) (*Page, error) {
	if a.session == nil {
		return nil, ErrSession
	}
	page, err := a.session.Get(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", path, err)
	}
	return page, nil
}

// Cached returns the number of pages held by the cache.
func (a *PageAccessor) Cached() int { return len(a.pages) }

func (a *PageAccessor) key(path string) (string, error) {
	root, err := url.Parse(a.session.Root())
	if err != nil {
		return "", fmt.Errorf("%w: bad site root: %v", ErrInvalidArgument, err)
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("%w: bad path %q: %v", ErrInvalidArgument, path, err)
	}
	return purell.NormalizeURL(root.ResolveReference(ref), cacheKeyFlags), nil
}
