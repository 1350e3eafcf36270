package ui

import "sort"

// Selection tracks the selected rows of the listing by index. The anchor is
// the last row clicked without shift and starts range selections.
type Selection struct {
	set    map[int]bool
	anchor int
}

// Click applies a click on row index. toggle flips the row in and out of the
// selection (ctrl/cmd); extend selects the range from the anchor (shift).
// A plain click selects only index.
func (s *Selection) Click(index int, toggle, extend bool) {
	if s.set == nil {
		s.set = make(map[int]bool)
	}
	switch {
	case extend && len(s.set) > 0:
		lo, hi := s.anchor, index
		if lo > hi {
			lo, hi = hi, lo
		}
		if !toggle {
			clear(s.set)
		}
		for i := lo; i <= hi; i++ {
			s.set[i] = true
		}
	case toggle:
		if s.set[index] {
			delete(s.set, index)
		} else {
			s.set[index] = true
		}
		s.anchor = index
	default:
		clear(s.set)
		s.set[index] = true
		s.anchor = index
	}
}

func (s *Selection) Has(index int) bool {
	return s.set[index]
}

func (s *Selection) Len() int {
	return len(s.set)
}

func (s *Selection) SelectAll(n int) {
	if s.set == nil {
		s.set = make(map[int]bool, n)
	}
	for i := 0; i < n; i++ {
		s.set[i] = true
	}
}

func (s *Selection) Clear() {
	clear(s.set)
	s.anchor = 0
}

// Indices returns the selected rows in ascending order
func (s *Selection) Indices() []int {
	out := make([]int, 0, len(s.set))
	for i := range s.set {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// Paths returns the paths of the selected rows in listing order
func (s *Selection) Paths(entries []UIEntry) []string {
	var paths []string
	for _, i := range s.Indices() {
		if i >= 0 && i < len(entries) {
			paths = append(paths, entries[i].Path)
		}
	}
	return paths
}

// ForDrag returns the paths a drag starting on row index carries. Dragging
// an unselected row selects it alone first.
func (s *Selection) ForDrag(index int, entries []UIEntry) []string {
	if !s.Has(index) {
		s.Click(index, false, false)
	}
	return s.Paths(entries)
}

// Reselect rebuilds the selection from paths after the listing changed.
func (s *Selection) Reselect(entries []UIEntry, paths []string) {
	s.Clear()
	if len(paths) == 0 {
		return
	}
	want := make(map[string]bool, len(paths))
	for _, p := range paths {
		want[p] = true
	}
	if s.set == nil {
		s.set = make(map[int]bool, len(paths))
	}
	for i, e := range entries {
		if want[e.Path] {
			s.set[i] = true
		}
	}
}
