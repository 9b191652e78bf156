package scraper

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const testRoot = "http://bookmeter.test"

// fakeSession serves canned pages and counts every Get per path.
type fakeSession struct {
	root     string
	pages    map[string]string
	gets     map[string]int
	loggedIn bool
	userID   string
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		root:     testRoot,
		pages:    make(map[string]string),
		gets:     make(map[string]int),
		loggedIn: true,
		userID:   "000000",
	}
}

func (f *fakeSession) Get(_ context.Context, path string) (*Page, error) {
	f.gets[path]++
	body, ok := f.pages[path]
	if !ok {
		return nil, fmt.Errorf("unexpected status code: 404")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	return &Page{URL: f.root + path, Doc: doc}, nil
}

func (f *fakeSession) LoggedIn() bool { return f.loggedIn }
func (f *fakeSession) UserID() string { return f.userID }
func (f *fakeSession) Root() string   { return f.root }

func (f *fakeSession) totalGets() int {
	n := 0
	for _, c := range f.gets {
		n += c
	}
	return n
}

func (f *fakeSession) bookGets() int {
	n := 0
	for path, c := range f.gets {
		if strings.HasPrefix(path, "/b/") {
			n += c
		}
	}
	return n
}

type testBook struct {
	path    string
	title   string
	author  string
	image   string
	read    []string
	rereads [][]string
}

func (b testBook) html() string {
	var sb strings.Builder
	sb.WriteString(`<html><body>`)
	fmt.Fprintf(&sb, `<h1 id="title">%s</h1>`, b.title)
	fmt.Fprintf(&sb, `<div id="author_name"><a href="/a/1">%s</a></div>`, b.author)
	if b.image != "" {
		fmt.Fprintf(&sb, `<img id="book_image" src="%s">`, b.image)
	}
	sb.WriteString(`<div id="book_edit_area"><form action="/b/edit"><div>読了日</div><div>`)
	if b.read != nil {
		fmt.Fprintf(&sb, `<select id="read_date_y"><option>%s</option><option>2010</option></select>`, b.read[0])
		fmt.Fprintf(&sb, `<select id="read_date_m"><option>%s</option><option>1</option></select>`, b.read[1])
		fmt.Fprintf(&sb, `<select id="read_date_d"><option>%s</option><option>1</option></select>`, b.read[2])
	}
	sb.WriteString(`</div></form>`)
	for _, r := range b.rereads {
		sb.WriteString(`<div class="reread_box"><form action="/b/reread"><div>再読日</div><div>`)
		for _, field := range r {
			fmt.Fprintf(&sb, `<select><option>%s</option><option>1</option></select>`, field)
		}
		sb.WriteString(`</div></form></div>`)
	}
	sb.WriteString(`</div></body></html>`)
	return sb.String()
}

// date builds the option texts for a read date.
func date(y, m, d int) []string {
	return []string{fmt.Sprintf("%d年", y), fmt.Sprintf("%d月", m), fmt.Sprintf("%d日", d)}
}

// bookListingHTML renders a shelf page; pager is inserted verbatim.
func bookListingHTML(books []testBook, pager string) string {
	var sb strings.Builder
	sb.WriteString(`<html><body><div id="main_left"><div><div class="book_list_header">本棚</div>`)
	for _, b := range books {
		fmt.Fprintf(&sb,
			`<div class="book"><div class="thumb"><img src="%s"></div><div class="detail"><a href="%s">%s</a></div></div>`,
			b.image, b.path, b.title)
	}
	sb.WriteString(pager)
	sb.WriteString(`<center><a href="#top">ページの先頭へ</a></center></div></div></body></html>`)
	return sb.String()
}

const emptyListingHTML = `<html><body><div id="main_left"><div><p>登録されている本はありません</p></div></div></body></html>`

// pagerHTML renders a pagination control for page current of total under path.
func pagerHTML(path string, current, total int) string {
	var sb strings.Builder
	for i := 1; i <= total; i++ {
		if i == current {
			fmt.Fprintf(&sb, `<span class="now_page"><a href="%s?page=%d">%d</a></span>`, path, i, i)
			continue
		}
		fmt.Fprintf(&sb, `<span><a href="%s?page=%d">%d</a></span>`, path, i, i)
	}
	return sb.String()
}

type testUser struct {
	name string
	link string
}

func userListHTML(users []testUser, pager string) string {
	var sb strings.Builder
	sb.WriteString(`<html><body><div id="main_left"><div>`)
	for _, u := range users {
		fmt.Fprintf(&sb,
			`<div class="user"><div><div class="icon"><img src="/i.png"></div><div><a href="%s" title="%s"><img src="/i.png"></a></div></div></div>`,
			u.link, u.name)
	}
	sb.WriteString(pager)
	sb.WriteString(`</div></div></body></html>`)
	return sb.String()
}

func myFollowingsHTML(users []testUser) string {
	var sb strings.Builder
	sb.WriteString(`<html><body><div id="main_left"><div>`)
	for _, u := range users {
		fmt.Fprintf(&sb, `<div class="user"><a href="%s" title="%s"><img src="/i.png"></a></div>`, u.link, u.name)
	}
	sb.WriteString(`</div></div></body></html>`)
	return sb.String()
}

var (
	webAPIBook = testBook{
		path:   "/b/4873116864",
		title:  "Web API: The Good Parts",
		author: "水野貴明",
		image:  "http://ecx.images-amazon.com/images/I/51GHwTNJgSL._SX230_.jpg",
		read:   date(2016, 2, 6),
	}
	metaprogrammingBook = testBook{
		path:   "/b/4873117437",
		title:  "メタプログラミングRuby 第2版",
		author: "PaoloPerrotta",
		image:  "http://ecx.images-amazon.com/images/I/5102wwx0VzL._SX230_.jpg",
		read:   date(2016, 2, 2),
	}
	designBook = testBook{
		path:    "/b/4839928401",
		title:   "ノンデザイナーズ・デザインブック [フルカラー新装増補版]",
		author:  "RobinWilliams",
		image:   "http://ecx.images-amazon.com/images/I/41nvddaG9BL._SX230_.jpg",
		read:    date(2015, 4, 28),
		rereads: [][]string{date(2016, 1, 10)},
	}
)

// serveBooks registers the detail pages of books on the session.
func (f *fakeSession) serveBooks(books ...testBook) {
	for _, b := range books {
		f.pages[b.path] = b.html()
	}
}
