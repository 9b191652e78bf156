package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"bookmeter-scraper/internal/api"
	"bookmeter-scraper/internal/cache"
	"bookmeter-scraper/internal/scraper"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serves the scraper over an HTTP API.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			session, err := a.openSession(ctx, false)
			if err != nil {
				return err
			}

			respCache := cache.NewResponseCache(a.cfg.CacheTTL)
			defer respCache.Close()

			if a.cfg.LogLevel != "debug" {
				gin.SetMode(gin.ReleaseMode)
			}
			handler := api.NewHandler(scraper.Fresh{Session: session}, respCache, a.logger)
			handler.DebugMode = a.cfg.DebugMode

			srv := &http.Server{
				Addr:              ":" + a.cfg.Port,
				Handler:           handler.SetupRoutes(a.cfg),
				ReadHeaderTimeout: 10 * time.Second,
			}

			a.logger.Info("starting bookmeter scraper",
				"port", a.cfg.Port,
				"root", session.Root(),
				"logged_in", session.LoggedIn(),
				"cache_ttl", a.cfg.CacheTTL,
				"scrape_timeout", a.cfg.ScrapeTimeout,
			)

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			a.logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}
