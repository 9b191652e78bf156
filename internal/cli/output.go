package cli

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"bookmeter-scraper/internal/scraper"
)

const dateLayout = "2006-01-02"

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func (a *app) printBooks(w io.Writer, books *scraper.BookCollection) error {
	if a.jsonOutput {
		return printJSON(w, books)
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"#", "Name", "Author", "Read", "URI"})
	for i, b := range books.Books() {
		dates := make([]string, len(b.ReadDates))
		for j, d := range b.ReadDates {
			dates[j] = d.Format(dateLayout)
		}
		t.AppendRow(table.Row{i + 1, b.Name, b.Author, strings.Join(dates, ", "), b.URI})
	}
	t.AppendFooter(table.Row{"", "", "", "Total", books.Len()})
	t.Render()
	return nil
}

func (a *app) printUsers(w io.Writer, users *scraper.UserCollection) error {
	if a.jsonOutput {
		return printJSON(w, users)
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"#", "Name", "ID", "URI"})
	for i, u := range users.Users() {
		t.AppendRow(table.Row{i + 1, u.Name, u.ID, u.URI})
	}
	t.AppendFooter(table.Row{"", "", "Total", users.Len()})
	t.Render()
	return nil
}

func (a *app) printProfile(w io.Writer, p *scraper.Profile) error {
	if a.jsonOutput {
		return printJSON(w, p)
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"Field", "Value"})
	t.AppendRow(table.Row{"Name", p.Name})
	for _, f := range []struct {
		label string
		value *string
	}{
		{"Gender", p.Gender},
		{"Age", p.Age},
		{"Blood type", p.BloodType},
		{"Job", p.Job},
		{"Address", p.Address},
		{"URL", p.URL},
		{"Description", p.Description},
		{"First day", p.FirstDay},
		{"Elapsed days", p.ElapsedDays},
		{"Read books", p.ReadBooksCount},
		{"Read pages", p.ReadPagesCount},
		{"Reviews", p.ReviewsCount},
		{"Bookshelf", p.BookshelfCount},
	} {
		if f.value != nil {
			t.AppendRow(table.Row{f.label, *f.value})
		}
	}
	t.Render()
	return nil
}
