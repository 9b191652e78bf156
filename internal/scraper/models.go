package scraper

import (
	"fmt"
	"time"
)

// Book represents a shelved book with its metadata
type Book struct {
	Name   string `json:"name"`
	Author string `json:"author"`
	// ReadDates holds the primary read date first, then every reread date.
	ReadDates []time.Time `json:"read_dates"`
	URI       string      `json:"uri"`
	ImageURI  string      `json:"image_uri,omitempty"`
}

// ReadIn reports whether any of the book's read dates falls in ym.
func (b Book) ReadIn(ym YearMonth) bool {
	for _, d := range b.ReadDates {
		if YearMonthOf(d) == ym {
			return true
		}
	}
	return false
}

// User represents a following or follower
type User struct {
	Name string `json:"name"`
	ID   string `json:"id"`
	URI  string `json:"uri"`
}

// Profile holds the fields of a user's profile page. Every field but Name is
// nil when the page does not show it.
type Profile struct {
	Name           string  `json:"name"`
	Gender         *string `json:"gender"`
	Age            *string `json:"age"`
	BloodType      *string `json:"blood_type"`
	Job            *string `json:"job"`
	Address        *string `json:"address"`
	URL            *string `json:"url"`
	Description    *string `json:"description"`
	FirstDay       *string `json:"first_day"`
	ElapsedDays    *string `json:"elapsed_days"`
	ReadBooksCount *string `json:"read_books_count"`
	ReadPagesCount *string `json:"read_pages_count"`
	ReviewsCount   *string `json:"reviews_count"`
	BookshelfCount *string `json:"bookshelf_count"`
}

// YearMonth is a calendar month, the unit the month search compares by.
type YearMonth struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// NewYearMonth validates month and builds a YearMonth.
func NewYearMonth(year, month int) (YearMonth, error) {
	if month < 1 || month > 12 {
		return YearMonth{}, fmt.Errorf("%w: month %d out of range", ErrInvalidArgument, month)
	}
	if year < 1 {
		return YearMonth{}, fmt.Errorf("%w: year %d out of range", ErrInvalidArgument, year)
	}
	return YearMonth{Year: year, Month: time.Month(month)}, nil
}

// YearMonthOf truncates t to its calendar month.
func YearMonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// Compare returns -1, 0 or +1 as ym is before, equal to or after o.
func (ym YearMonth) Compare(o YearMonth) int {
	switch {
	case ym.Year < o.Year:
		return -1
	case ym.Year > o.Year:
		return 1
	case ym.Month < o.Month:
		return -1
	case ym.Month > o.Month:
		return 1
	}
	return 0
}

func (ym YearMonth) Before(o YearMonth) bool { return ym.Compare(o) < 0 }

func (ym YearMonth) After(o YearMonth) bool { return ym.Compare(o) > 0 }

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}
