package pagination

import "fmt"

const (
	// PageSize is the fixed number of records per page.
	PageSize = 12

	// PageLinkSize is the number of numbered page links shown at once.
	PageLinkSize = 5
)

// Descriptor holds the pagination metadata of the currently loaded page.
type Descriptor struct {
	Total       int `json:"total"`
	Limit       int `json:"limit"`
	CurrentPage int `json:"current_page"`
	TotalPages  int `json:"total_pages"`
}

// NewDescriptor builds a Descriptor for total records, positioned on currentPage (1-based).
// currentPage is clamped into [1, TotalPages], so a total that shrank under a
// late page lands on the new last page.
func NewDescriptor(total, currentPage int) Descriptor {
	if total < 0 {
		total = 0
	}
	d := Descriptor{
		Total:      total,
		Limit:      PageSize,
		TotalPages: TotalPages(total, PageSize),
	}
	d.CurrentPage = d.clamp(currentPage)
	return d
}

func (d Descriptor) clamp(page int) int {
	if page > d.TotalPages {
		page = d.TotalPages
	}
	if page < 1 {
		page = 1
	}
	return page
}

// Current is CurrentPage bounded to the reachable range.
func (d Descriptor) Current() int {
	return d.clamp(d.CurrentPage)
}

// TotalPages is the ceiling of total / size.
func TotalPages(total, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// Known reports whether the descriptor came from a response.
func (d Descriptor) Known() bool {
	return d.Limit > 0
}

// Contains reports whether page is a reachable page number.
func (d Descriptor) Contains(page int) bool {
	return page >= 1 && page <= d.TotalPages
}

// First is the 1-based index of the first record on the current page, 0 when empty.
func (d Descriptor) First() int {
	if d.Total == 0 {
		return 0
	}
	return (d.Current()-1)*d.Limit + 1
}

// Last is the 1-based index of the last record on the current page.
func (d Descriptor) Last() int {
	if d.Total == 0 {
		return 0
	}
	last := d.Current() * d.Limit
	if last > d.Total {
		last = d.Total
	}
	return last
}

// Report renders the current-page report line.
func (d Descriptor) Report() string {
	return fmt.Sprintf("Showing %d to %d of %d entries", d.First(), d.Last(), d.Total)
}

// PageLinks returns the window of numbered pages around the current page.
func (d Descriptor) PageLinks() []int {
	if d.TotalPages == 0 {
		return nil
	}
	size := PageLinkSize
	if size > d.TotalPages {
		size = d.TotalPages
	}
	start := d.Current() - size/2
	if start > d.TotalPages-size+1 {
		start = d.TotalPages - size + 1
	}
	if start < 1 {
		start = 1
	}
	links := make([]int, size)
	for i := range links {
		links[i] = start + i
	}
	return links
}
