package selection

import (
	"sort"

	"filegrip/internal/numrange"
)

// The helpers below operate on a sorted slice of disjoint, non-adjacent ranges.
// They never modify their input so slices can be shared between selections.

// addRange returns set with r merged in
func addRange(set []numrange.Range, r numrange.Range) []numrange.Range {
	out := make([]numrange.Range, 0, len(set)+1)
	merged := r
	inserted := false

	for _, existing := range set {
		switch {
		case inserted:
			out = append(out, existing)
		case existing.To+1 < merged.From:
			out = append(out, existing)
		case merged.To+1 < existing.From:
			out = append(out, merged, existing)
			inserted = true
		default:
			merged = merged.Union(existing)
		}
	}
	if !inserted {
		out = append(out, merged)
	}
	return out
}

// removeRange returns set without any index of r
func removeRange(set []numrange.Range, r numrange.Range) []numrange.Range {
	out := make([]numrange.Range, 0, len(set)+1)
	for _, existing := range set {
		out = append(out, existing.Without(r)...)
	}
	return out
}

// search returns the position of the first range ending at or after index
func search(set []numrange.Range, index int) int {
	return sort.Search(len(set), func(i int) bool {
		return set[i].To >= index
	})
}

func containsIndex(set []numrange.Range, index int) bool {
	i := search(set, index)
	return i < len(set) && set[i].From <= index
}

// containsRange relies on ranges being maximally merged: a fully selected
// range always lies inside a single stored range
func containsRange(set []numrange.Range, r numrange.Range) bool {
	i := search(set, r.From)
	return i < len(set) && set[i].From <= r.From && set[i].To >= r.To
}

func overlapsAny(set []numrange.Range, r numrange.Range) bool {
	i := search(set, r.From)
	return i < len(set) && set[i].From <= r.To
}

func setSize(set []numrange.Range) int {
	total := 0
	for _, r := range set {
		total += r.Size()
	}
	return total
}
