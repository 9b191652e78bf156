package api

import (
	"time"

	"bookmeter-scraper/internal/cache"
	"bookmeter-scraper/internal/scraper"
)

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	// ErrorID matches the log line recording the failure.
	ErrorID string `json:"error_id,omitempty"`
}

type HealthResponse struct {
	Status    string      `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	Cache     cache.Stats `json:"cache"`
}

// BooksResponse lists one of a user's book lists or the books read in a
// month. Month is set only for the latter.
type BooksResponse struct {
	UserID string                  `json:"user_id"`
	Kind   scraper.ListingKind     `json:"kind"`
	Month  string                  `json:"month,omitempty"`
	Count  int                     `json:"count"`
	Books  *scraper.BookCollection `json:"books"`
}

type UsersResponse struct {
	UserID string                  `json:"user_id"`
	Count  int                     `json:"count"`
	Users  *scraper.UserCollection `json:"users"`
}
