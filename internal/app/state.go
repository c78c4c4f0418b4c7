package app

import (
	"github.com/Sternrassler/artic-browser/pkg/artwork"
	"github.com/Sternrassler/artic-browser/pkg/bulk"
	"github.com/Sternrassler/artic-browser/pkg/pagination"
	"github.com/Sternrassler/artic-browser/pkg/selection"
)

// State is everything one session shows.
type State struct {
	// Records of the page last loaded successfully
	Records []artwork.Artwork `json:"records"`

	// Pagination describes Records; zero until the first load succeeds
	Pagination pagination.Descriptor `json:"pagination"`

	// Page is the page most recently requested
	Page int `json:"page"`

	Loading bool `json:"loading"`

	// Selected ids across every page
	Selected selection.Set `json:"selected"`

	// Seen holds every id that has been rendered to this session
	Seen selection.Set `json:"seen"`

	ShowSummary  bool          `json:"show_summary"`
	ShowBulkForm bool          `json:"show_bulk_form"`
	BulkCount    int           `json:"bulk_count"`
	BulkStrategy bulk.Strategy `json:"bulk_strategy"`
}

// NewState returns the state of a fresh session.
func NewState() State {
	return State{
		Page:         1,
		BulkCount:    bulk.DefaultCount,
		BulkStrategy: bulk.StrategyFromCurrent,
	}
}

// CurrentIDs returns the ids of the loaded records in display order.
func (s State) CurrentIDs() []int {
	return artwork.IDs(s.Records)
}

func (s State) IsSelected(id int) bool {
	return s.Selected.Has(id)
}

func (s State) CountSelected() int {
	return s.Selected.Len()
}

// IsAllCurrentPageSelected drives the header checkbox. It is false for an empty page.
func (s State) IsAllCurrentPageSelected() bool {
	return s.Selected.AllOf(s.CurrentIDs())
}

// SelectedOnCurrentPage returns the selected ids of the loaded page in display order.
func (s State) SelectedOnCurrentPage() []int {
	return s.Selected.Filter(s.CurrentIDs())
}

func (s State) ToggleRow(id int, selected bool) State {
	s.Selected = s.Selected.Toggle(id, selected)
	return s
}

// ToggleAllOnCurrentPage adds or removes the loaded page's ids and leaves other pages alone.
func (s State) ToggleAllOnCurrentPage(selected bool) State {
	s.Selected = s.Selected.ToggleAll(s.CurrentIDs(), selected)
	return s
}

func (s State) ClearAll() State {
	s.Selected = s.Selected.Clear()
	return s
}

// ApplyBulkSelection replaces the selection with the strategy's pick from the
// loaded page and closes the bulk form.
func (s State) ApplyBulkSelection(count int, strategy bulk.Strategy) State {
	s = s.SetBulkOptions(count, strategy)
	s.Selected = selection.Of(bulk.Select(s.CurrentIDs(), count, strategy)...)
	s.ShowBulkForm = false
	return s
}

// SetPage records a requested page and marks the session loading.
func (s State) SetPage(page int) State {
	s.Page = page
	s.Loading = true
	return s
}

// SetFetchResult replaces records and descriptor together.
func (s State) SetFetchResult(p *pagination.Page) State {
	s.Records = p.Records
	s.Pagination = p.Descriptor
	s.Seen = s.Seen.ToggleAll(artwork.IDs(p.Records), true)
	s.Loading = false
	return s
}

// FetchFailed ends loading and keeps the previous records and descriptor.
func (s State) FetchFailed() State {
	s.Loading = false
	return s
}

func (s State) ToggleSummary() State {
	s.ShowSummary = !s.ShowSummary
	return s
}

func (s State) ToggleBulkForm() State {
	s.ShowBulkForm = !s.ShowBulkForm
	return s
}

func (s State) CloseBulkForm() State {
	s.ShowBulkForm = false
	return s
}

// SetBulkOptions remembers the form inputs.
func (s State) SetBulkOptions(count int, strategy bulk.Strategy) State {
	s.BulkCount = count
	s.BulkStrategy = strategy
	return s
}
