// Package cli implements the bookmeter command line.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"bookmeter-scraper/internal/agent"
	"bookmeter-scraper/pkg/config"
)

// app is the state shared by every command of one invocation.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	jsonOutput bool
	user       string
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "bookmeter",
		Short:         "bookmeter scrapes a user's books, followings and profile from bookmeter.com.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.cfg = config.Load()
			logger, err := newLogger(cmd.ErrOrStderr(), a.cfg.LogLevel, a.cfg.LogFormat)
			if err != nil {
				return err
			}
			slog.SetDefault(logger)
			a.logger = logger
			return nil
		},
	}
	root.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "print JSON instead of a table")
	root.PersistentFlags().StringVarP(&a.user, "user", "u", "", "user id to scrape (default: the logged-in user)")

	root.AddCommand(
		newServeCmd(a),
		newBooksCmd(a),
		newReadCmd(a),
		newFollowingsCmd(a),
		newFollowersCmd(a),
		newProfileCmd(a),
		newDebugCmd(a),
	)
	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openSession creates an agent and logs it in with the configured
// credentials. Without credentials it fails when requireLogin is set and
// otherwise continues anonymously.
func (a *app) openSession(ctx context.Context, requireLogin bool) (*agent.Agent, error) {
	session, err := agent.New(agent.Options{
		Root:      a.cfg.Root,
		UserAgent: a.cfg.UserAgent,
		Timeout:   a.cfg.ScrapeTimeout,
		Logger:    a.logger,
	})
	if err != nil {
		return nil, err
	}

	creds, err := a.cfg.Credentials()
	if err != nil {
		if requireLogin {
			return nil, fmt.Errorf("cannot log in: %w", err)
		}
		a.logger.WarnContext(ctx, "continuing without login", "err", err)
		return session, nil
	}
	if _, err := session.LogIn(ctx, creds.Mail, creds.Password); err != nil {
		return nil, err
	}
	return session, nil
}
