package scraper

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultRoot is the site root used when none is configured.
const DefaultRoot = "https://bookmeter.com"

var userIDPattern = regexp.MustCompile(`^\d+$`)

// ListingKind selects one of a user's book lists.
type ListingKind string

const (
	KindRead       ListingKind = "read"
	KindReading    ListingKind = "reading"
	KindStockpiled ListingKind = "stockpiled"
	KindWishlist   ListingKind = "wishlist"
)

// ListingKinds is the fixed set of book lists, in display order.
var ListingKinds = []ListingKind{KindRead, KindReading, KindStockpiled, KindWishlist}

var listingSuffixes = map[ListingKind]string{
	KindRead:       "booklist",
	KindReading:    "booklistnow",
	KindStockpiled: "booklisttun",
	KindWishlist:   "booklistpre",
}

var listingAliases = map[string]ListingKind{
	"read_books":    KindRead,
	"reading_books": KindReading,
	"tsundoku":      KindStockpiled,
	"wish_list":     KindWishlist,
}

// ParseListingKind accepts a listing kind name, including the legacy aliases
// read_books, reading_books, tsundoku and wish_list.
func ParseListingKind(s string) (ListingKind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if kind, ok := listingAliases[name]; ok {
		return kind, nil
	}
	kind := ListingKind(name)
	if _, ok := listingSuffixes[kind]; !ok {
		return "", fmt.Errorf("%w: unknown listing kind %q", ErrInvalidArgument, s)
	}
	return kind, nil
}

// ValidateUserID checks that userID is a non-empty string of digits.
func ValidateUserID(userID string) error {
	if !userIDPattern.MatchString(userID) {
		return fmt.Errorf("%w: malformed user id %q", ErrInvalidArgument, userID)
	}
	return nil
}

// MypagePath returns the path of a user's profile page.
func MypagePath(userID string) (string, error) {
	if err := ValidateUserID(userID); err != nil {
		return "", err
	}
	return "/u/" + userID, nil
}

// MypageURI returns the absolute profile URI of a user under root.
func MypageURI(root, userID string) (string, error) {
	path, err := MypagePath(userID)
	if err != nil {
		return "", err
	}
	return joinRoot(root, path), nil
}

// ListingPath returns the path of one of a user's book lists.
func ListingPath(userID string, kind ListingKind) (string, error) {
	mypage, err := MypagePath(userID)
	if err != nil {
		return "", err
	}
	suffix, ok := listingSuffixes[kind]
	if !ok {
		return "", fmt.Errorf("%w: unknown listing kind %q", ErrInvalidArgument, kind)
	}
	return mypage + "/" + suffix, nil
}

// FollowingsPath returns the path of the users a user follows.
func FollowingsPath(userID string) (string, error) {
	mypage, err := MypagePath(userID)
	if err != nil {
		return "", err
	}
	return mypage + "/favorite_user", nil
}

// FollowersPath returns the path of the users following a user.
func FollowersPath(userID string) (string, error) {
	mypage, err := MypagePath(userID)
	if err != nil {
		return "", err
	}
	return mypage + "/favorited_user", nil
}

func joinRoot(root, path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimSuffix(root, "/") + path
}
