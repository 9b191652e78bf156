package scraper

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	BooksPerPage = 40
	UsersPerPage = 20
)

const (
	// The listing footer link is missing when nothing is shelved at all.
	listingFooterSelector = "#main_left > div > center > a"
	currentPageSelector   = "span.now_page"
	nextPageSelector      = "span.now_page ~ span > a"

	titleSelector       = "#title"
	authorSelector      = "#author_name"
	imageSelector       = "#book_image"
	readYearSelector    = "#read_date_y option"
	readMonthSelector   = "#read_date_m option"
	readDaySelector     = "#read_date_d option"
	rereadBoxSelector   = "div.reread_box"
	profileListSelector = "#side_left > div.inner > div.profile > dl"
	profileNameSelector = "#side_left > div.inner > h3"
)

// Layout describes where the record slots of a listing page live.
type Layout struct {
	name     string
	capacity int
	// anchor is a selector pattern for the record link of the slot whose
	// position among its siblings is the formatted number.
	anchor string
	offset int
	// nameAttr holds the record name; empty means the anchor text.
	nameAttr string
	footer   bool
}

var (
	BookShelfLayout = Layout{
		name:     "books",
		capacity: BooksPerPage,
		anchor:   "#main_left > div > div:nth-of-type(%d) > div:nth-of-type(2) > a",
		offset:   1,
		footer:   true,
	}
	// MyFollowingsLayout is the logged-in user's own followings page.
	MyFollowingsLayout = Layout{
		name:     "my-followings",
		capacity: UsersPerPage,
		anchor:   "#main_left > div > div:nth-of-type(%d) > a",
		nameAttr: "title",
	}
	UserListLayout = Layout{
		name:     "users",
		capacity: UsersPerPage,
		anchor:   "#main_left > div > div:nth-of-type(%d) > div > div:nth-of-type(2) > a",
		nameAttr: "title",
	}
)

func (l Layout) String() string { return l.name }

type slot struct {
	name string
	link string
}

// ListingPage is a listing page with its record slots read once.
type ListingPage struct {
	Page   *Page
	layout Layout
	slots  []slot
}

// NewListingPage reads every slot of p according to layout.
func NewListingPage(p *Page, layout Layout) *ListingPage {
	lp := &ListingPage{
		Page:   p,
		layout: layout,
		slots:  make([]slot, layout.capacity),
	}
	for i := 1; i <= layout.capacity; i++ {
		a := p.Doc.Find(fmt.Sprintf(layout.anchor, i+layout.offset)).First()
		if a.Length() == 0 {
			continue
		}
		name := normalizeSpace(a.Text())
		if layout.nameAttr != "" {
			name = normalizeSpace(a.AttrOr(layout.nameAttr, ""))
		}
		lp.slots[i-1] = slot{
			name: name,
			link: strings.TrimSpace(a.AttrOr("href", "")),
		}
	}
	return lp
}

func (l *ListingPage) Capacity() int { return len(l.slots) }

// Name returns the record name of slot i (1-based), empty if unoccupied.
func (l *ListingPage) Name(i int) string {
	if i < 1 || i > len(l.slots) {
		return ""
	}
	return l.slots[i-1].name
}

// Link returns the record link path of slot i (1-based), empty if unoccupied.
func (l *ListingPage) Link(i int) string {
	if i < 1 || i > len(l.slots) {
		return ""
	}
	return l.slots[i-1].link
}

// Occupied counts the dense prefix of slots that carry a link.
func (l *ListingPage) Occupied() int {
	n := 0
	for n < len(l.slots) && l.slots[n].link != "" {
		n++
	}
	return n
}

func hasNoResults(p *Page, layout Layout) bool {
	return layout.footer && p.Doc.Find(listingFooterSelector).Length() == 0
}

func hasPagination(p *Page) bool {
	return p.Doc.Find(currentPageSelector).Length() > 0
}

// nextPagePath returns the path behind the "next page" control, if any.
func nextPagePath(p *Page) (string, bool) {
	href := strings.TrimSpace(p.Doc.Find(nextPageSelector).First().AttrOr("href", ""))
	if href == "" {
		return "", false
	}
	return requestPath(p.URL, href), true
}

// requestPath resolves href against pageURL and keeps only path and query.
func requestPath(pageURL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	if base, err := url.Parse(pageURL); err == nil {
		ref = base.ResolveReference(ref)
	}
	return ref.RequestURI()
}

type bookDetail struct {
	name     string
	author   string
	imageURI string
	read     time.Time
	hasRead  bool
	rereads  []time.Time
}

func (d bookDetail) readYearMonth() (YearMonth, bool) {
	if !d.hasRead {
		return YearMonth{}, false
	}
	return YearMonthOf(d.read), true
}

func (d bookDetail) book(uri string) Book {
	dates := make([]time.Time, 0, len(d.rereads)+1)
	if d.hasRead {
		dates = append(dates, d.read)
	}
	dates = append(dates, d.rereads...)
	return Book{
		Name:      d.name,
		Author:    d.author,
		ReadDates: dates,
		URI:       uri,
		ImageURI:  d.imageURI,
	}
}

// parseBookDetail reads a book's own page.
func parseBookDetail(p *Page) bookDetail {
	doc := p.Doc
	d := bookDetail{
		name:     normalizeSpace(doc.Find(titleSelector).Text()),
		author:   normalizeSpace(doc.Find(authorSelector).Text()),
		imageURI: strings.TrimSpace(doc.Find(imageSelector).First().AttrOr("src", "")),
	}
	d.read, d.hasRead = dateFromFields(
		doc.Find(readYearSelector).First().Text(),
		doc.Find(readMonthSelector).First().Text(),
		doc.Find(readDaySelector).First().Text(),
	)
	doc.Find(rereadBoxSelector).Each(func(_ int, box *goquery.Selection) {
		selects := box.Find("form").First().ChildrenFiltered("div").Eq(1).ChildrenFiltered("select")
		date, ok := dateFromFields(
			selects.Eq(0).Find("option").First().Text(),
			selects.Eq(1).Find("option").First().Text(),
			selects.Eq(2).Find("option").First().Text(),
		)
		if ok {
			d.rereads = append(d.rereads, date)
		}
	})
	return d
}

var digitsPattern = regexp.MustCompile(`\d+`)

// firstNumber extracts the first run of digits from text
func firstNumber(text string) (int, bool) {
	match := digitsPattern.FindString(text)
	if match == "" {
		return 0, false
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return 0, false
	}
	return n, true
}

// dateFromFields builds a date from year, month and day option texts such as
// "2016年", "2月", "6日". A field without digits makes the date absent.
func dateFromFields(year, month, day string) (time.Time, bool) {
	y, ok := firstNumber(year)
	if !ok {
		return time.Time{}, false
	}
	m, ok := firstNumber(month)
	if !ok || m < 1 || m > 12 {
		return time.Time{}, false
	}
	d, ok := firstNumber(day)
	if !ok || d < 1 || d > 31 {
		return time.Time{}, false
	}
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC), true
}

// Profile labels as shown on the site.
const (
	labelGender         = "性別"
	labelAge            = "年齢"
	labelBloodType      = "血液型"
	labelJob            = "職業"
	labelAddress        = "現住所"
	labelURL            = "URL / ブログ"
	labelDescription    = "自己紹介"
	labelFirstDay       = "記録初日"
	labelElapsedDays    = "経過日数"
	labelReadBooks      = "読んだ本"
	labelReadPages      = "読んだページ"
	labelReviews        = "感想/レビュー"
	labelBookshelfCount = "本棚"
)

// parseProfile maps the profile's label/value pairs onto a Profile.
func parseProfile(p *Page) *Profile {
	pairs := make(map[string]string)
	p.Doc.Find(profileListSelector).Each(func(_ int, dl *goquery.Selection) {
		children := dl.Children()
		if children.Length() < 2 {
			return
		}
		pairs[normalizeSpace(children.Eq(0).Text())] = strings.TrimSpace(children.Eq(1).Text())
	})

	lookup := func(label string) *string {
		if v, ok := pairs[label]; ok {
			return &v
		}
		return nil
	}

	return &Profile{
		Name:           normalizeSpace(p.Doc.Find(profileNameSelector).First().Text()),
		Gender:         lookup(labelGender),
		Age:            lookup(labelAge),
		BloodType:      lookup(labelBloodType),
		Job:            lookup(labelJob),
		Address:        lookup(labelAddress),
		URL:            lookup(labelURL),
		Description:    lookup(labelDescription),
		FirstDay:       lookup(labelFirstDay),
		ElapsedDays:    lookup(labelElapsedDays),
		ReadBooksCount: lookup(labelReadBooks),
		ReadPagesCount: lookup(labelReadPages),
		ReviewsCount:   lookup(labelReviews),
		BookshelfCount: lookup(labelBookshelfCount),
	}
}

// normalizeSpace trims text and collapses inner whitespace
func normalizeSpace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
