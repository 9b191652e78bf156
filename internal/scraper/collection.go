package scraper

import "encoding/json"

type bookKey struct {
	name   string
	author string
}

// BookCollection keeps books in first-seen order, dropping any later book
// with the same name and author.
type BookCollection struct {
	books []Book
	seen  map[bookKey]struct{}
}

func NewBookCollection() *BookCollection {
	return &BookCollection{seen: make(map[bookKey]struct{})}
}

// Add appends the books not already present and returns how many were added.
func (c *BookCollection) Add(books ...Book) int {
	added := 0
	for _, b := range books {
		key := bookKey{name: b.Name, author: b.Author}
		if _, dup := c.seen[key]; dup {
			continue
		}
		c.seen[key] = struct{}{}
		c.books = append(c.books, b)
		added++
	}
	return added
}

func (c *BookCollection) Len() int { return len(c.books) }

// Books returns a copy of the contained books.
func (c *BookCollection) Books() []Book {
	out := make([]Book, len(c.books))
	copy(out, c.books)
	return out
}

func (c *BookCollection) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Books())
}

// UserCollection keeps users in first-seen order, unique by id.
type UserCollection struct {
	users []User
	seen  map[string]struct{}
}

func NewUserCollection() *UserCollection {
	return &UserCollection{seen: make(map[string]struct{})}
}

// Add appends the users not already present and returns how many were added.
func (c *UserCollection) Add(users ...User) int {
	added := 0
	for _, u := range users {
		if _, dup := c.seen[u.ID]; dup {
			continue
		}
		c.seen[u.ID] = struct{}{}
		c.users = append(c.users, u)
		added++
	}
	return added
}

func (c *UserCollection) Len() int { return len(c.users) }

// Users returns a copy of the contained users.
func (c *UserCollection) Users() []User {
	out := make([]User, len(c.users))
	copy(out, c.users)
	return out
}

func (c *UserCollection) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Users())
}
