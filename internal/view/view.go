// Package view turns a session State into the HTML page.
package view

import (
	"strconv"

	"github.com/Sternrassler/artic-browser/internal/app"
	"github.com/Sternrassler/artic-browser/pkg/bulk"
	"github.com/Sternrassler/artic-browser/pkg/pagination"
)

// Columns are the table headers after the checkbox column.
var Columns = []string{"Title", "Place of Origin", "Artist", "Inscriptions", "Start Date", "End Date"}

// Row is one table row.
type Row struct {
	ID            int
	Title         string
	PlaceOfOrigin string
	ArtistDisplay string
	Inscriptions  string
	DateStart     string
	DateEnd       string
	Selected      bool
}

// Summary is the selection summary panel.
type Summary struct {
	Count  int
	OnPage int
	IDs    []int
}

// BulkForm is the custom selection form.
type BulkForm struct {
	Open     bool
	Count    int
	Min      int
	Max      int
	Strategy bulk.Strategy
	Options  []bulk.Option
}

// Page is the view model of the whole screen.
type Page struct {
	Columns        []string
	Rows           []Row
	Loading        bool
	AllSelected    bool
	HeaderDisabled bool
	HasPagination  bool
	Controls       pagination.Controls
	SelectedCount  int
	ShowSummary    bool
	Summary        Summary
	Bulk           BulkForm
}

// Build derives the view model from s.
func Build(s app.State) Page {
	p := Page{
		Columns:        Columns,
		Loading:        s.Loading,
		AllSelected:    s.IsAllCurrentPageSelected(),
		HeaderDisabled: s.Loading || len(s.Records) == 0,
		HasPagination:  s.Pagination.Known(),
		SelectedCount:  s.CountSelected(),
		ShowSummary:    s.ShowSummary,
		Bulk: BulkForm{
			Open:     s.ShowBulkForm,
			Count:    s.BulkCount,
			Min:      1,
			Max:      pagination.PageSize,
			Strategy: s.BulkStrategy,
			Options:  bulk.Options(),
		},
	}
	if p.HasPagination {
		p.Controls = s.Pagination.Controls()
	}
	if p.ShowSummary {
		p.Summary = Summary{
			Count:  s.CountSelected(),
			OnPage: len(s.SelectedOnCurrentPage()),
			IDs:    s.Selected.IDs(),
		}
	}

	p.Rows = make([]Row, len(s.Records))
	for i, r := range s.Records {
		p.Rows[i] = Row{
			ID:            r.ID,
			Title:         r.Title,
			PlaceOfOrigin: r.PlaceOfOrigin,
			ArtistDisplay: r.ArtistDisplay,
			Inscriptions:  r.Inscriptions,
			DateStart:     year(r.DateStart),
			DateEnd:       year(r.DateEnd),
			Selected:      s.IsSelected(r.ID),
		}
	}
	return p
}

// year renders a year; the API's null decodes to 0 and shows as blank.
func year(y int) string {
	if y == 0 {
		return ""
	}
	return strconv.Itoa(y)
}
