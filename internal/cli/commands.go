package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"bookmeter-scraper/internal/scraper"
)

func newBooksCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "books <read|reading|stockpiled|wishlist>",
		Short: "Prints every book of one of a user's lists.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := scraper.ParseListingKind(args[0])
			if err != nil {
				return err
			}
			session, err := a.openSession(cmd.Context(), true)
			if err != nil {
				return err
			}
			books, err := scraper.NewScraper(session).FetchBooks(cmd.Context(), a.user, kind)
			if err != nil {
				return err
			}
			return a.printBooks(cmd.OutOrStdout(), books)
		},
	}
}

func newReadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "read <year> <month>",
		Short: "Prints the books a user read or reread in one month.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, yErr := strconv.Atoi(args[0])
			month, mErr := strconv.Atoi(args[1])
			if yErr != nil || mErr != nil {
				return fmt.Errorf("%w: year and month must be numbers", scraper.ErrInvalidArgument)
			}
			if _, err := scraper.NewYearMonth(year, month); err != nil {
				return err
			}
			session, err := a.openSession(cmd.Context(), true)
			if err != nil {
				return err
			}
			books, err := scraper.NewScraper(session).ReadBooksIn(cmd.Context(), year, month, a.user)
			if err != nil {
				return err
			}
			return a.printBooks(cmd.OutOrStdout(), books)
		},
	}
}

func newFollowingsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "followings",
		Short: "Prints the users a user follows.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := a.openSession(cmd.Context(), true)
			if err != nil {
				return err
			}
			users, err := scraper.NewScraper(session).FetchFollowings(cmd.Context(), a.user)
			if err != nil {
				return err
			}
			return a.printUsers(cmd.OutOrStdout(), users)
		},
	}
}

func newFollowersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "followers",
		Short: "Prints the users following a user.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := a.openSession(cmd.Context(), true)
			if err != nil {
				return err
			}
			users, err := scraper.NewScraper(session).FetchFollowers(cmd.Context(), a.user)
			if err != nil {
				return err
			}
			return a.printUsers(cmd.OutOrStdout(), users)
		},
	}
}

func newProfileCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "profile [user id]",
		Short: "Prints a user's profile. Logging in is only needed for your own.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID := a.user
			if len(args) == 1 {
				userID = args[0]
			}
			if userID != "" {
				if err := scraper.ValidateUserID(userID); err != nil {
					return err
				}
			}
			session, err := a.openSession(cmd.Context(), userID == "")
			if err != nil {
				return err
			}
			profile, err := scraper.NewScraper(session).FetchProfile(cmd.Context(), userID)
			if err != nil {
				return err
			}
			return a.printProfile(cmd.OutOrStdout(), profile)
		},
	}
}

func newDebugCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "debug <read|reading|stockpiled|wishlist>",
		Short: "Prints the slot table of every page of a book list without visiting the books.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := scraper.ParseListingKind(args[0])
			if err != nil {
				return err
			}
			session, err := a.openSession(cmd.Context(), true)
			if err != nil {
				return err
			}
			return scraper.NewScraper(session).DebugListing(cmd.Context(), cmd.OutOrStdout(), a.user, kind)
		},
	}
}
