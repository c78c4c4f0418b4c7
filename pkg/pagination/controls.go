package pagination

import "strconv"

// Link is one control of the pagination bar.
// Disabled links carry no target and render inert.
type Link struct {
	Label    string
	Page     int
	Current  bool
	Disabled bool
}

// Controls is the full pagination bar: first, prev, page links, next, last,
// the current-page report and the page-size options.
type Controls struct {
	First       Link
	Prev        Link
	Pages       []Link
	Next        Link
	Last        Link
	Report      string
	PageSizes   []int
	CurrentSize int
}

// Controls builds the pagination bar. Every enabled link targets a page in
// [1, TotalPages].
func (d Descriptor) Controls() Controls {
	current := d.Current()
	atStart := current <= 1 || d.TotalPages == 0
	atEnd := current >= d.TotalPages

	c := Controls{
		First:       edge("«", 1, atStart),
		Prev:        edge("‹", current-1, atStart),
		Next:        edge("›", current+1, atEnd),
		Last:        edge("»", d.TotalPages, atEnd),
		Report:      d.Report(),
		PageSizes:   []int{PageSize},
		CurrentSize: PageSize,
	}
	for _, p := range d.PageLinks() {
		c.Pages = append(c.Pages, Link{
			Label:   strconv.Itoa(p),
			Page:    p,
			Current: p == current,
		})
	}
	return c
}

// Targets lists every page an enabled control points at.
func (c Controls) Targets() []int {
	var out []int
	links := []Link{c.First, c.Prev}
	links = append(links, c.Pages...)
	links = append(links, c.Next, c.Last)
	for _, l := range links {
		if !l.Disabled {
			out = append(out, l.Page)
		}
	}
	return out
}

func edge(label string, page int, disabled bool) Link {
	if disabled {
		return Link{Label: label, Disabled: true}
	}
	return Link{Label: label, Page: page}
}

