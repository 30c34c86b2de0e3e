package selection

import (
	"filegrip/internal/domain"
	"filegrip/internal/numrange"
)

// Select applies a click on a range of group g.
//
// Without extend the click replaces the selection with exactly {g: r}, unless
// that is already the whole selection, in which case nothing stays selected.
// With extend a single already-selected index is deselected (splitting its
// range if needed) and anything else is merged into the group's ranges.
// The focus moves to r.To.
func (s Selection) Select(g domain.Group, r numrange.Range, extend bool) Selection {
	return s.selectRange(g, r, extend, r.To)
}

// SelectIndex is Select for a single position
func (s Selection) SelectIndex(g domain.Group, index int, extend bool) Selection {
	return s.Select(g, numrange.Of(index), extend)
}

// ExtendTo handles a shift-click at index. When the focus is in the same group
// the span between focus and index is added; otherwise it acts like an extending
// click on index alone. The focus moves to index.
func (s Selection) ExtendTo(g domain.Group, index int) Selection {
	if !s.hasFocus || s.focus.Group.Key != g.Key {
		return s.selectRange(g, numrange.Of(index), true, index)
	}
	span := numrange.MustNew(min(s.focus.Index, index), max(s.focus.Index, index))
	return s.selectRange(g, span, true, index)
}

// Deselect removes r from group g. The focus is left where it is.
func (s Selection) Deselect(g domain.Group, r numrange.Range) Selection {
	current := s.ranges(g.Key)
	if !overlapsAny(current, r) {
		return s
	}
	return s.withRanges(g, removeRange(current, r))
}

// FocusByGroup moves the focus without touching selected ranges
func (s Selection) FocusByGroup(g domain.Group, index int) Selection {
	next := s
	next.focus = Position{Group: g, Index: index}
	next.hasFocus = true
	return next
}

func (s Selection) selectRange(g domain.Group, r numrange.Range, extend bool, focusIndex int) Selection {
	if !extend {
		if s.isSole(g.Key, r) {
			return New().FocusByGroup(g, focusIndex)
		}
		return Selection{
			entries:  []Entry{{Group: g, Ranges: []numrange.Range{r}}},
			focus:    Position{Group: g, Index: focusIndex},
			hasFocus: true,
		}
	}

	current := s.ranges(g.Key)
	if r.IsSingle() && containsIndex(current, r.From) {
		return s.withRanges(g, removeRange(current, r)).FocusByGroup(g, focusIndex)
	}
	if containsRange(current, r) {
		// already fully selected
		return s
	}
	return s.withRanges(g, addRange(current, r)).FocusByGroup(g, focusIndex)
}

// isSole reports whether the selection is exactly {key: r}
func (s Selection) isSole(key domain.GroupKey, r numrange.Range) bool {
	return len(s.entries) == 1 &&
		s.entries[0].Group.Key == key &&
		len(s.entries[0].Ranges) == 1 &&
		s.entries[0].Ranges[0] == r
}

// withRanges returns a copy with g's ranges replaced. An empty set drops the
// entry; other entries are shared, not copied.
func (s Selection) withRanges(g domain.Group, ranges []numrange.Range) Selection {
	entries := make([]Entry, 0, len(s.entries)+1)
	for _, e := range s.entries {
		if e.Group.Key != g.Key {
			entries = append(entries, e)
		}
	}

	if len(ranges) > 0 {
		at := len(entries)
		for i, e := range entries {
			if g.Less(e.Group) {
				at = i
				break
			}
		}
		entries = append(entries, Entry{})
		copy(entries[at+1:], entries[at:])
		entries[at] = Entry{Group: g, Ranges: ranges}
	}

	next := s
	next.entries = entries
	return next
}
