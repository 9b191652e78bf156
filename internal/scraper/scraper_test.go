package scraper

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func bookNames(c *BookCollection) []string {
	var names []string
	for _, b := range c.Books() {
		names = append(names, b.Name)
	}
	return names
}

// threeBookSession serves a single-page read list of three books.
func threeBookSession() *fakeSession {
	fs := newFakeSession()
	fs.pages[shelfPath] = bookListingHTML([]testBook{webAPIBook, metaprogrammingBook, designBook}, "")
	fs.serveBooks(webAPIBook, metaprogrammingBook, designBook)
	return fs
}

// datedBook builds a book whose primary read date is y-m-d.
func datedBook(id string, y, m, d int) testBook {
	return testBook{
		path:   "/b/" + id,
		title:  "Book " + id,
		author: "Author " + id,
		read:   date(y, m, d),
	}
}

// servePagedShelf registers pages of books as a paginated read list.
func servePagedShelf(fs *fakeSession, pages ...[]testBook) {
	for i, books := range pages {
		path := shelfPath
		if i > 0 {
			path = fmt.Sprintf("%s?page=%d", shelfPath, i+1)
		}
		fs.pages[path] = bookListingHTML(books, pagerHTML(shelfPath, i+1, len(pages)))
		fs.serveBooks(books...)
	}
}

func TestScraper_FetchBooks(t *testing.T) {
	fs := threeBookSession()
	s := NewScraper(fs)

	books, err := s.FetchBooks(context.Background(), "", KindRead)

	require.NoError(t, err)
	require.Equal(t, 3, books.Len())
	got := books.Books()

	assert.Equal(t, Book{
		Name:      "Web API: The Good Parts",
		Author:    "水野貴明",
		ReadDates: []time.Time{day(2016, 2, 6)},
		URI:       testRoot + "/b/4873116864",
		ImageURI:  "http://ecx.images-amazon.com/images/I/51GHwTNJgSL._SX230_.jpg",
	}, got[0])
	assert.Equal(t, "メタプログラミングRuby 第2版", got[1].Name)
	assert.Equal(t, []time.Time{day(2015, 4, 28), day(2016, 1, 10)}, got[2].ReadDates)
	assert.Equal(t, 1, fs.gets[shelfPath])
	assert.Equal(t, 3, fs.bookGets())
}

func TestScraper_FetchBooks_Idempotent(t *testing.T) {
	ctx := context.Background()
	first, err := NewScraper(threeBookSession()).FetchBooks(ctx, "", KindRead)
	require.NoError(t, err)
	second, err := NewScraper(threeBookSession()).FetchBooks(ctx, "", KindRead)
	require.NoError(t, err)

	if diff := cmp.Diff(first.Books(), second.Books()); diff != "" {
		t.Fatal(diff)
	}
}

func TestScraper_FetchBooks_MonthSubset(t *testing.T) {
	ctx := context.Background()
	all, err := NewScraper(threeBookSession()).FetchBooks(ctx, "", KindRead)
	require.NoError(t, err)
	feb, err := NewScraper(threeBookSession()).ReadBooksIn(ctx, 2016, 2, "")
	require.NoError(t, err)

	// Every month match is a book of the full list, unchanged.
	diff := cmp.Diff(
		feb.Books(),
		all.Books(),
		cmpopts.IgnoreSliceElements(func(b Book) bool {
			return !b.ReadIn(YearMonth{Year: 2016, Month: time.February})
		}),
	)
	if diff != "" {
		t.Fatal(diff)
	}
}

func TestScraper_FetchBooks_OtherLists(t *testing.T) {
	fs := newFakeSession()
	fs.pages["/u/000000/booklisttun"] = bookListingHTML([]testBook{designBook}, "")
	fs.serveBooks(designBook)
	s := NewScraper(fs)

	books, err := s.FetchBooks(context.Background(), "000000", KindStockpiled)

	require.NoError(t, err)
	assert.Equal(t, []string{designBook.title}, bookNames(books))
	assert.Equal(t, 0, fs.gets[shelfPath])
}

func TestScraper_ReadBooksIn(t *testing.T) {
	ctx := context.Background()

	t.Run("two books in february", func(t *testing.T) {
		s := NewScraper(threeBookSession())
		books, err := s.ReadBooksIn(ctx, 2016, 2, "")
		require.NoError(t, err)
		assert.Equal(t, []string{webAPIBook.title, metaprogrammingBook.title}, bookNames(books))
	})

	t.Run("reread counts", func(t *testing.T) {
		s := NewScraper(threeBookSession())
		books, err := s.ReadBooksIn(ctx, 2016, 1, "")
		require.NoError(t, err)
		require.Equal(t, 1, books.Len())
		b := books.Books()[0]
		assert.Equal(t, designBook.title, b.Name)
		assert.Equal(t, []time.Time{day(2015, 4, 28), day(2016, 1, 10)}, b.ReadDates)
	})

	t.Run("nothing read", func(t *testing.T) {
		s := NewScraper(threeBookSession())
		books, err := s.ReadBooksIn(ctx, 2016, 3, "")
		require.NoError(t, err)
		assert.Equal(t, 0, books.Len())
	})

	t.Run("invalid month", func(t *testing.T) {
		fs := threeBookSession()
		_, err := NewScraper(fs).ReadBooksIn(ctx, 2016, 13, "")
		assert.ErrorIs(t, err, ErrInvalidArgument)
		assert.Equal(t, 0, fs.totalGets())
	})
}

func TestScraper_FetchReadBooksIn_MatchesFilter(t *testing.T) {
	ctx := context.Background()
	all, err := NewScraper(threeBookSession()).FetchBooks(ctx, "", KindRead)
	require.NoError(t, err)

	for year := 2015; year <= 2016; year++ {
		for month := time.January; month <= time.December; month++ {
			target := YearMonth{Year: year, Month: month}
			t.Run(target.String(), func(t *testing.T) {
				var want []string
				for _, b := range all.Books() {
					if b.ReadIn(target) {
						want = append(want, b.Name)
					}
				}

				got, err := NewScraper(threeBookSession()).FetchReadBooksIn(ctx, "", target)

				require.NoError(t, err)
				assert.Equal(t, want, bookNames(got))
			})
		}
	}
}

func TestScraper_FetchReadBooksIn_Idempotent(t *testing.T) {
	fs := threeBookSession()
	s := NewScraper(fs)
	ctx := context.Background()
	target := YearMonth{Year: 2016, Month: time.February}

	first, err := s.FetchReadBooksIn(ctx, "", target)
	require.NoError(t, err)
	bookGets := fs.bookGets()
	second, err := s.FetchReadBooksIn(ctx, "", target)
	require.NoError(t, err)

	assert.Equal(t, first.Books(), second.Books())
	assert.Equal(t, bookGets, fs.bookGets(), "book pages come from the cache")
	assert.Equal(t, 2, fs.gets[shelfPath], "listing pages are always refetched")
}

func TestScraper_FetchReadBooksIn_SkipsAndStops(t *testing.T) {
	newer := []testBook{
		datedBook("p1a", 2016, 5, 30), datedBook("p1b", 2016, 5, 1),
		datedBook("p1c", 2016, 4, 20), datedBook("p1d", 2016, 4, 2),
	}
	target := []testBook{
		datedBook("p2a", 2016, 3, 20), datedBook("p2b", 2016, 2, 15),
		datedBook("p2c", 2016, 2, 10), datedBook("p2d", 2016, 2, 1),
	}
	older := []testBook{
		datedBook("p3a", 2016, 1, 30), datedBook("p3b", 2016, 1, 10),
		datedBook("p3c", 2015, 12, 25), datedBook("p3d", 2015, 12, 1),
	}
	ctx := context.Background()

	t.Run("target on middle page", func(t *testing.T) {
		fs := newFakeSession()
		servePagedShelf(fs, newer, target, older)

		books, err := NewScraper(fs).ReadBooksIn(ctx, 2016, 2, "")

		require.NoError(t, err)
		assert.Equal(t, []string{"Book p2b", "Book p2c", "Book p2d"}, bookNames(books))
		assert.Equal(t, 1, fs.gets["/b/p1a"])
		assert.Equal(t, 0, fs.gets["/b/p1b"], "skipped page reads only its boundary slots")
		assert.Equal(t, 0, fs.gets["/b/p1c"])
		assert.Equal(t, 1, fs.gets["/b/p1d"])
		assert.Equal(t, 1, fs.gets["/b/p3a"])
		assert.Equal(t, 0, fs.gets["/b/p3b"])
		assert.Equal(t, 2+4+2, fs.bookGets())
	})

	t.Run("target on first page", func(t *testing.T) {
		fs := newFakeSession()
		servePagedShelf(fs, newer, target, older)

		books, err := NewScraper(fs).ReadBooksIn(ctx, 2016, 4, "")

		require.NoError(t, err)
		assert.Equal(t, []string{"Book p1c", "Book p1d"}, bookNames(books))
		assert.Equal(t, 0, fs.gets[shelfPath+"?page=3"])
	})

	t.Run("target newer than everything", func(t *testing.T) {
		fs := newFakeSession()
		servePagedShelf(fs, newer, target, older)

		books, err := NewScraper(fs).ReadBooksIn(ctx, 2017, 1, "")

		require.NoError(t, err)
		assert.Equal(t, 0, books.Len())
		assert.Equal(t, 0, fs.gets[shelfPath+"?page=2"])
		assert.Equal(t, 2, fs.bookGets())
	})

	t.Run("target older than everything", func(t *testing.T) {
		fs := newFakeSession()
		servePagedShelf(fs, newer, target, older)

		books, err := NewScraper(fs).ReadBooksIn(ctx, 2010, 1, "")

		require.NoError(t, err)
		assert.Equal(t, 0, books.Len())
		assert.Equal(t, 2*3, fs.bookGets())
	})
}

func TestScraper_FetchReadBooksIn_UndatedLeadingSlots(t *testing.T) {
	undated := testBook{path: "/b/undated", title: "Undated", author: "Nobody"}
	fs := newFakeSession()
	servePagedShelf(fs,
		[]testBook{undated, datedBook("a", 2016, 2, 6), datedBook("b", 2016, 1, 3)},
	)

	books, err := NewScraper(fs).ReadBooksIn(context.Background(), 2016, 1, "")

	require.NoError(t, err)
	assert.Equal(t, []string{"Book b"}, bookNames(books))
}

func TestScraper_FetchReadBooksIn_FallsBackOnDisorder(t *testing.T) {
	ctx := context.Background()

	t.Run("ascending page", func(t *testing.T) {
		fs := newFakeSession()
		servePagedShelf(fs,
			[]testBook{datedBook("a", 2015, 1, 1), datedBook("b", 2016, 2, 3)},
		)

		books, err := NewScraper(fs).ReadBooksIn(ctx, 2016, 2, "")

		require.NoError(t, err)
		assert.Equal(t, []string{"Book b"}, bookNames(books))
	})

	t.Run("later page newer than earlier", func(t *testing.T) {
		late := datedBook("late", 2016, 5, 2)
		late.rereads = [][]string{date(2016, 1, 20)}

		fs := newFakeSession()
		servePagedShelf(fs,
			[]testBook{datedBook("a", 2016, 2, 3), datedBook("b", 2016, 1, 5)},
			[]testBook{late, datedBook("c", 2016, 4, 1)},
		)

		books, err := NewScraper(fs).ReadBooksIn(ctx, 2016, 1, "")

		require.NoError(t, err)
		assert.Equal(t, []string{"Book b", "Book late"}, bookNames(books))
	})
}

func TestScraper_DeduplicatesAcrossPages(t *testing.T) {
	fs := newFakeSession()
	servePagedShelf(fs,
		[]testBook{webAPIBook, metaprogrammingBook},
		[]testBook{metaprogrammingBook, designBook},
	)

	books, err := NewScraper(fs).FetchBooks(context.Background(), "", KindRead)

	require.NoError(t, err)
	assert.Equal(t, []string{webAPIBook.title, metaprogrammingBook.title, designBook.title}, bookNames(books))
	assert.Equal(t, 3, fs.bookGets())
}

func TestScraper_NoResults(t *testing.T) {
	fs := newFakeSession()
	fs.pages[shelfPath] = emptyListingHTML
	s := NewScraper(fs)
	ctx := context.Background()

	books, err := s.FetchBooks(ctx, "", KindRead)
	require.NoError(t, err)
	assert.Equal(t, 0, books.Len())

	books, err = s.ReadBooksIn(ctx, 2016, 2, "")
	require.NoError(t, err)
	assert.Equal(t, 0, books.Len())

	assert.Equal(t, 0, fs.bookGets())
}

func TestScraper_NotLoggedIn(t *testing.T) {
	fs := threeBookSession()
	fs.loggedIn = false
	fs.userID = ""
	s := NewScraper(fs)
	ctx := context.Background()

	books, err := s.FetchBooks(ctx, "000000", KindRead)
	require.NoError(t, err)
	assert.Equal(t, 0, books.Len())

	books, err = s.ReadBooksIn(ctx, 2016, 2, "000000")
	require.NoError(t, err)
	assert.Equal(t, 0, books.Len())

	users, err := s.FetchFollowers(ctx, "000000")
	require.NoError(t, err)
	assert.Equal(t, 0, users.Len())

	users, err = s.FetchFollowings(ctx, "000000")
	require.NoError(t, err)
	assert.Equal(t, 0, users.Len())

	assert.Equal(t, 0, fs.totalGets())

	_, err = s.FetchBooks(ctx, "", KindRead)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestScraper_InvalidArguments(t *testing.T) {
	fs := threeBookSession()
	s := NewScraper(fs)
	ctx := context.Background()

	_, err := s.FetchBooks(ctx, "00a000", KindRead)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = s.FetchBooks(ctx, "000000", ListingKind("favorites"))
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = s.ReadBooksIn(ctx, 2016, 0, "000000")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = s.FetchReadBooksIn(ctx, "000000", YearMonth{Year: 2016})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = s.FetchFollowings(ctx, "abc")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = s.FetchFollowers(ctx, "abc")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = s.FetchProfile(ctx, "abc")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	assert.Equal(t, 0, fs.totalGets())
}

func TestScraper_NoSession(t *testing.T) {
	s := NewScraper(nil)
	ctx := context.Background()

	_, err := s.FetchBooks(ctx, "000000", KindRead)
	assert.ErrorIs(t, err, ErrSession)
	_, err = s.ReadBooksIn(ctx, 2016, 2, "000000")
	assert.ErrorIs(t, err, ErrSession)
	_, err = s.FetchFollowers(ctx, "000000")
	assert.ErrorIs(t, err, ErrSession)
	_, err = s.FetchProfile(ctx, "000000")
	assert.ErrorIs(t, err, ErrSession)

	_, err = s.FetchBooks(ctx, "", KindRead)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestScraper_FetchFollowers(t *testing.T) {
	var users []testUser
	for i := 1; i <= 5; i++ {
		users = append(users, testUser{name: fmt.Sprintf("test_user_%d", i), link: fmt.Sprintf("/u/00000%d", i)})
	}
	fs := newFakeSession()
	fs.pages["/u/000000/favorited_user"] = userListHTML(users, "")

	got, err := NewScraper(fs).FetchFollowers(context.Background(), "")

	require.NoError(t, err)
	require.Equal(t, 5, got.Len())
	for i, u := range got.Users() {
		id := fmt.Sprintf("00000%d", i+1)
		assert.Equal(t, User{Name: fmt.Sprintf("test_user_%d", i+1), ID: id, URI: testRoot + "/u/" + id}, u)
	}
}

func TestScraper_FetchFollowings_Layouts(t *testing.T) {
	users := []testUser{{"test_user_2", "/u/000001"}, {"test_user_3", "/u/000002"}}
	fs := newFakeSession()
	fs.pages["/u/000000/favorite_user"] = myFollowingsHTML(users)
	fs.pages["/u/000001/favorite_user"] = userListHTML(users[1:], "")
	s := NewScraper(fs)
	ctx := context.Background()

	mine, err := s.FetchFollowings(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []User{
		{Name: "test_user_2", ID: "000001", URI: testRoot + "/u/000001"},
		{Name: "test_user_3", ID: "000002", URI: testRoot + "/u/000002"},
	}, mine.Users())

	theirs, err := s.FetchFollowings(ctx, "000001")
	require.NoError(t, err)
	assert.Equal(t, []User{{Name: "test_user_3", ID: "000002", URI: testRoot + "/u/000002"}}, theirs.Users())
}

func TestScraper_FetchFollowers_Paginated(t *testing.T) {
	path := "/u/000000/favorited_user"
	fs := newFakeSession()
	fs.pages[path] = userListHTML([]testUser{{"a", "/u/1"}, {"b", "/u/2"}}, pagerHTML(path, 1, 2))
	fs.pages[path+"?page=2"] = userListHTML([]testUser{{"b", "/u/2"}, {"c", "/u/3"}}, pagerHTML(path, 2, 2))

	got, err := NewScraper(fs).FetchFollowers(context.Background(), "")

	require.NoError(t, err)
	assert.Equal(t, 3, got.Len())
}

func TestScraper_FetchFollowers_BadLink(t *testing.T) {
	fs := newFakeSession()
	fs.pages["/u/000000/favorited_user"] = userListHTML([]testUser{{"broken", "/users/abc"}}, "")

	_, err := NewScraper(fs).FetchFollowers(context.Background(), "")

	assert.ErrorIs(t, err, ErrExtraction)
}

func TestScraper_FetchProfile(t *testing.T) {
	fs := newFakeSession()
	fs.loggedIn = false
	fs.pages["/u/000001"] = `<html><body><div id="side_left"><div class="inner"><h3>someone</h3>
		<div class="profile"><dl><dt>現住所</dt><dd>大阪府</dd></dl></div></div></div></body></html>`
	s := NewScraper(fs)
	ctx := context.Background()

	p, err := s.FetchProfile(ctx, "000001")
	require.NoError(t, err)
	assert.Equal(t, "someone", p.Name)
	require.NotNil(t, p.Address)
	assert.Equal(t, "大阪府", *p.Address)
	assert.Nil(t, p.Job)

	_, err = s.FetchProfile(ctx, "000001")
	require.NoError(t, err)
	assert.Equal(t, 2, fs.gets["/u/000001"], "profiles are never cached")
}

func TestScraper_ImplementsInterface(t *testing.T) {
	var _ Interface = NewScraper(nil)
}
