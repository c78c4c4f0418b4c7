// Package selection implements the session-wide set of selected artwork IDs.
//
// A Set is immutable: every mutation returns a new Set and leaves the
// receiver untouched, so a render holding the previous value can never
// observe a half-applied update.
package selection

import (
	"encoding/json"
	"sort"
)

// Set is a set of artwork identifiers. The zero value is an empty set.
type Set struct {
	ids map[int]struct{}
}

// Of returns a Set holding ids.
func Of(ids ...int) Set {
	m := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return Set{ids: m}
}

func (s Set) clone(extra int) map[int]struct{} {
	m := make(map[int]struct{}, len(s.ids)+extra)
	for id := range s.ids {
		m[id] = struct{}{}
	}
	return m
}

// Toggle sets or clears membership of id. id need not be on the loaded page.
func (s Set) Toggle(id int, selected bool) Set {
	m := s.clone(1)
	if selected {
		m[id] = struct{}{}
	} else {
		delete(m, id)
	}
	return Set{ids: m}
}

// ToggleAll sets or clears membership of every id uniformly.
func (s Set) ToggleAll(ids []int, selected bool) Set {
	m := s.clone(len(ids))
	for _, id := range ids {
		if selected {
			m[id] = struct{}{}
		} else {
			delete(m, id)
		}
	}
	return Set{ids: m}
}

// Clear returns the empty set, whatever pages the ids came from.
func (s Set) Clear() Set {
	return Set{}
}

// Has reports whether id is selected.
func (s Set) Has(id int) bool {
	_, ok := s.ids[id]
	return ok
}

// Len is the number of selected ids across all pages.
func (s Set) Len() int {
	return len(s.ids)
}

// AllOf reports whether every id is selected. It is false for no ids.
func (s Set) AllOf(ids []int) bool {
	if len(ids) == 0 {
		return false
	}
	for _, id := range ids {
		if !s.Has(id) {
			return false
		}
	}
	return true
}

// Filter returns the ids, in their given order, that are selected.
func (s Set) Filter(ids []int) []int {
	var out []int
	for _, id := range ids {
		if s.Has(id) {
			out = append(out, id)
		}
	}
	return out
}

// IDs returns the members in ascending order.
func (s Set) IDs() []int {
	out := make([]int, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

// MarshalJSON encodes the set as a sorted array.
func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.IDs())
}

// UnmarshalJSON decodes an array of ids.
func (s *Set) UnmarshalJSON(data []byte) error {
	var ids []int
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = Of(ids...)
	return nil
}
