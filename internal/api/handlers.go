package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bookmeter-scraper/internal/cache"
	"bookmeter-scraper/internal/middleware"
	"bookmeter-scraper/internal/scraper"
	"bookmeter-scraper/pkg/config"
)

// selfAlias in place of a user id means the logged-in user.
const selfAlias = "me"

// Handler holds dependencies for API handlers
type Handler struct {
	scraper scraper.Interface
	cache   *cache.ResponseCache
	logger  *slog.Logger

	// DebugMode puts the underlying error text into 500 responses.
	DebugMode bool

	// Scrapes run one at a time so bookmeter sees a single request stream
	// and a plain Scraper with its unsynchronized page cache can be used.
	mu sync.Mutex
}

// NewHandler creates a new API handler
func NewHandler(s scraper.Interface, c *cache.ResponseCache, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		scraper: s,
		cache:   c,
		logger:  logger.With("component", "api"),
	}
}

// SetupRoutes configures the API routes
func (h *Handler) SetupRoutes(cfg *config.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(h.logger))

	if err := r.SetTrustedProxies(cfg.TrustedProxyList()); err != nil {
		h.logger.Warn("ignoring invalid trusted proxies", "proxies", cfg.TrustedProxies, "err", err)
	}

	// CORS for browser clients
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	r.GET("/health", h.healthCheck)

	v1 := r.Group("/api/v1", middleware.RateLimit(middleware.GeneralPolicy(cfg.RateLimitPerMinute)))

	users := v1.Group("/users/:id", middleware.RateLimit(middleware.ScrapePolicy(cfg.ScrapeRateLimit)))
	{
		users.GET("/profile", h.getProfile)
		users.GET("/books/:kind", h.getBooks)
		users.GET("/read/:year/:month", h.getReadBooks)
		users.GET("/followings", h.getFollowings)
		users.GET("/followers", h.getFollowers)
	}

	return r
}

func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Cache:     h.cache.Stats(),
	})
}

func (h *Handler) getProfile(c *gin.Context) {
	id := c.Param("id")
	h.serveCached(c, "profile:"+id, func(ctx context.Context) (any, error) {
		return h.scraper.FetchProfile(ctx, userID(id))
	})
}

func (h *Handler) getBooks(c *gin.Context) {
	id := c.Param("id")
	kind, err := scraper.ParseListingKind(c.Param("kind"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.serveCached(c, fmt.Sprintf("books:%s:%s", id, kind), func(ctx context.Context) (any, error) {
		books, err := h.scraper.FetchBooks(ctx, userID(id), kind)
		if err != nil {
			return nil, err
		}
		return BooksResponse{UserID: id, Kind: kind, Count: books.Len(), Books: books}, nil
	})
}

func (h *Handler) getReadBooks(c *gin.Context) {
	id := c.Param("id")
	year, yErr := strconv.Atoi(c.Param("year"))
	month, mErr := strconv.Atoi(c.Param("month"))
	if yErr != nil || mErr != nil {
		h.respondError(c, fmt.Errorf("%w: year and month must be numbers", scraper.ErrInvalidArgument))
		return
	}
	target, err := scraper.NewYearMonth(year, month)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.serveCached(c, fmt.Sprintf("read:%s:%s", id, target), func(ctx context.Context) (any, error) {
		books, err := h.scraper.FetchReadBooksIn(ctx, userID(id), target)
		if err != nil {
			return nil, err
		}
		return BooksResponse{UserID: id, Kind: scraper.KindRead, Month: target.String(), Count: books.Len(), Books: books}, nil
	})
}

func (h *Handler) getFollowings(c *gin.Context) {
	id := c.Param("id")
	h.serveCached(c, "followings:"+id, func(ctx context.Context) (any, error) {
		users, err := h.scraper.FetchFollowings(ctx, userID(id))
		if err != nil {
			return nil, err
		}
		return UsersResponse{UserID: id, Count: users.Len(), Users: users}, nil
	})
}

func (h *Handler) getFollowers(c *gin.Context) {
	id := c.Param("id")
	h.serveCached(c, "followers:"+id, func(ctx context.Context) (any, error) {
		users, err := h.scraper.FetchFollowers(ctx, userID(id))
		if err != nil {
			return nil, err
		}
		return UsersResponse{UserID: id, Count: users.Len(), Users: users}, nil
	})
}

// serveCached answers from the response cache or runs fetch and caches what
// it returns. Failures are never cached.
func (h *Handler) serveCached(c *gin.Context, key string, fetch func(ctx context.Context) (any, error)) {
	if entry, found := h.cache.Get(key); found {
		c.Header("X-Cache", "HIT")
		c.Header("Age", strconv.Itoa(int(entry.Age(time.Now()).Seconds())))
		c.JSON(http.StatusOK, entry.Payload)
		return
	}

	h.mu.Lock()
	payload, err := fetch(c.Request.Context())
	h.mu.Unlock()
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.cache.Set(key, payload)
	c.Header("X-Cache", "MISS")
	c.JSON(http.StatusOK, payload)
}

func (h *Handler) respondError(c *gin.Context, err error) {
	if errors.Is(err, scraper.ErrInvalidArgument) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_argument",
			Message: err.Error(),
		})
		return
	}

	errID := uuid.NewString()
	h.logger.ErrorContext(c.Request.Context(), "scraping failed",
		"err", err,
		"error_id", errID,
		"path", c.Request.URL.Path,
		"request_id", c.GetString(middleware.RequestIDKey),
	)

	message := "Failed to scrape bookmeter. Error ID: " + errID
	if h.DebugMode {
		message = err.Error()
	}
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "scraping_failed",
		Message: message,
		ErrorID: errID,
	})
}

func userID(param string) string {
	if param == selfAlias {
		return ""
	}
	return param
}
