// Package selection tracks which file positions are selected across groups.
//
// A Selection stores, per group, a sorted set of disjoint inclusive ranges plus
// an optional focus position. It is an immutable value: every mutating method
// returns a new Selection and leaves the receiver untouched, so a Selection can
// be shared freely and compared with Equals. The zero value is an empty selection.
package selection

import (
	"slices"

	"filegrip/internal/domain"
	"filegrip/internal/numrange"
)

// Position identifies one file position within a group
type Position struct {
	Group domain.Group
	Index int
}

// Entry is the set of selected ranges for one group
type Entry struct {
	Group  domain.Group
	Ranges []numrange.Range // sorted, disjoint, non-adjacent
}

// Selection is an immutable set of selected ranges grouped by file group
type Selection struct {
	entries  []Entry // ordered by group sort order
	focus    Position
	hasFocus bool
}

// New returns an empty selection
func New() Selection {
	return Selection{}
}

// Count returns the number of selected positions across all groups.
// It walks ranges, not positions.
func (s Selection) Count() int {
	total := 0
	for _, e := range s.entries {
		total += setSize(e.Ranges)
	}
	return total
}

// CountFor returns the number of selected positions within one group
func (s Selection) CountFor(key domain.GroupKey) int {
	return setSize(s.ranges(key))
}

// CountUnder returns the number of selected positions in every group at or
// below the hierarchy prefix, i.e. the count shown on a collapsed parent node
func (s Selection) CountUnder(prefix []string) int {
	total := 0
	for _, e := range s.entries {
		if e.Group.Under(prefix) {
			total += setSize(e.Ranges)
		}
	}
	return total
}

// Len returns the number of groups with at least one selected position
func (s Selection) Len() int {
	return len(s.entries)
}

// IsEmpty reports whether nothing is selected
func (s Selection) IsEmpty() bool {
	return len(s.entries) == 0
}

// IsSelected reports whether the position is selected
func (s Selection) IsSelected(key domain.GroupKey, index int) bool {
	return containsIndex(s.ranges(key), index)
}

// Focus returns the focused position, if any
func (s Selection) Focus() (Position, bool) {
	return s.focus, s.hasFocus
}

// IsFocused reports whether the position is the focused one
func (s Selection) IsFocused(key domain.GroupKey, index int) bool {
	return s.hasFocus && s.focus.Group.Key == key && s.focus.Index == index
}

// Entries returns a copy of the per-group entries in group sort order
func (s Selection) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	for i, e := range s.entries {
		out[i] = Entry{Group: e.Group, Ranges: slices.Clone(e.Ranges)}
	}
	return out
}

// Groups returns the groups that have a selection, in sort order
func (s Selection) Groups() []domain.Group {
	out := make([]domain.Group, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Group
	}
	return out
}

// Ranges returns a copy of the selected ranges of one group
func (s Selection) Ranges(key domain.GroupKey) []numrange.Range {
	return slices.Clone(s.ranges(key))
}

// Equals compares selected ranges (by group key) and focus
func (s Selection) Equals(other Selection) bool {
	if len(s.entries) != len(other.entries) || s.hasFocus != other.hasFocus {
		return false
	}
	if s.hasFocus && (s.focus.Group.Key != other.focus.Group.Key || s.focus.Index != other.focus.Index) {
		return false
	}
	for i := range s.entries {
		if s.entries[i].Group.Key != other.entries[i].Group.Key {
			return false
		}
		if !slices.Equal(s.entries[i].Ranges, other.entries[i].Ranges) {
			return false
		}
	}
	return true
}

func (s Selection) ranges(key domain.GroupKey) []numrange.Range {
	if i := s.indexOf(key); i >= 0 {
		return s.entries[i].Ranges
	}
	return nil
}

func (s Selection) indexOf(key domain.GroupKey) int {
	for i, e := range s.entries {
		if e.Group.Key == key {
			return i
		}
	}
	return -1
}
