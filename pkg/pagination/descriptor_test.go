package pagination

import (
	"reflect"
	"testing"
)

func TestTotalPages(t *testing.T) {
	tests := []struct {
		name  string
		total int
		want  int
	}{
		{name: "empty", total: 0, want: 0},
		{name: "single partial page", total: 5, want: 1},
		{name: "exact multiple", total: 24, want: 2},
		{name: "ceiling division", total: 133, want: 12},
		{name: "negative total", total: -1, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TotalPages(tt.total, PageSize); got != tt.want {
				t.Errorf("TotalPages(%d) = %d, want %d", tt.total, got, tt.want)
			}
		})
	}
}

func TestDescriptor_Contains(t *testing.T) {
	d := NewDescriptor(133, 1)

	if d.TotalPages != 12 {
		t.Fatalf("TotalPages = %d, want 12", d.TotalPages)
	}
	for _, page := range []int{1, 6, 12} {
		if !d.Contains(page) {
			t.Errorf("Contains(%d) = false, want true", page)
		}
	}
	for _, page := range []int{0, -1, 13} {
		if d.Contains(page) {
			t.Errorf("Contains(%d) = true, want false", page)
		}
	}
}

func TestDescriptor_Report(t *testing.T) {
	tests := []struct {
		name string
		d    Descriptor
		want string
	}{
		{name: "first page", d: NewDescriptor(133, 1), want: "Showing 1 to 12 of 133 entries"},
		{name: "middle page", d: NewDescriptor(133, 2), want: "Showing 13 to 24 of 133 entries"},
		{name: "last partial page", d: NewDescriptor(133, 12), want: "Showing 133 to 133 of 133 entries"},
		{name: "no records", d: NewDescriptor(0, 1), want: "Showing 0 to 0 of 0 entries"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.d.Report(); got != tt.want {
				t.Errorf("Report() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDescriptor_PageLinks(t *testing.T) {
	tests := []struct {
		name    string
		total   int
		current int
		want    []int
	}{
		{name: "start of range", total: 133, current: 1, want: []int{1, 2, 3, 4, 5}},
		{name: "centred", total: 133, current: 6, want: []int{4, 5, 6, 7, 8}},
		{name: "end of range", total: 133, current: 12, want: []int{8, 9, 10, 11, 12}},
		{name: "fewer pages than links", total: 30, current: 2, want: []int{1, 2, 3}},
		{name: "no pages", total: 0, current: 1, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewDescriptor(tt.total, tt.current).PageLinks()
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("PageLinks() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewDescriptor_ClampsPage(t *testing.T) {
	d := NewDescriptor(10, 0)
	if d.CurrentPage != 1 {
		t.Errorf("CurrentPage = %d, want 1", d.CurrentPage)
	}
	if !d.Known() {
		t.Error("descriptor built from a response should be known")
	}
	if (Descriptor{}).Known() {
		t.Error("zero descriptor should not be known")
	}
}

func TestNewDescriptor_ClampsPastLastPage(t *testing.T) {
	d := NewDescriptor(133, 20)
	if d.CurrentPage != 12 {
		t.Errorf("CurrentPage = %d, want 12", d.CurrentPage)
	}
	if got, want := d.Report(), "Showing 133 to 133 of 133 entries"; got != want {
		t.Errorf("Report() = %q, want %q", got, want)
	}
	if d.First() > d.Last() {
		t.Errorf("First() = %d after Last() = %d", d.First(), d.Last())
	}
}

func TestDescriptor_Current(t *testing.T) {
	tests := []struct {
		name string
		d    Descriptor
		want int
	}{
		{name: "in range", d: Descriptor{Total: 133, Limit: PageSize, CurrentPage: 5, TotalPages: 12}, want: 5},
		{name: "past the end", d: Descriptor{Total: 133, Limit: PageSize, CurrentPage: 20, TotalPages: 12}, want: 12},
		{name: "below one", d: Descriptor{Total: 133, Limit: PageSize, CurrentPage: -3, TotalPages: 12}, want: 1},
		{name: "empty", d: Descriptor{Limit: PageSize, CurrentPage: 4}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.d.Current(); got != tt.want {
				t.Errorf("Current() = %d, want %d", got, tt.want)
			}
		})
	}
}
