package numrange

import (
	"fmt"
)

// Range is an inclusive span of positions within one group's ordering.
// A single index is a Range with From == To.
type Range struct {
	From int
	To   int
}

// InvalidRangeError is returned when a range would violate 0 <= From <= To
type InvalidRangeError struct {
	From int
	To   int
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range [%d,%d]: from must be >= 0 and <= to", e.From, e.To)
}

// New creates a range covering from..to inclusive
func New(from, to int) (Range, error) {
	if from < 0 || from > to {
		return Range{}, &InvalidRangeError{From: from, To: to}
	}
	return Range{From: from, To: to}, nil
}

// MustNew is like New but panics on an invalid range.
// Use it only for values known to be valid.
func MustNew(from, to int) Range {
	r, err := New(from, to)
	if err != nil {
		panic(err)
	}
	return r
}

// Of creates a single-index range
func Of(index int) Range {
	return MustNew(index, index)
}

// Contains reports whether index falls inside the range
func (r Range) Contains(index int) bool {
	return r.From <= index && index <= r.To
}

// Size returns the number of positions covered
func (r Range) Size() int {
	return r.To - r.From + 1
}

// IsSingle reports whether the range covers exactly one index
func (r Range) IsSingle() bool {
	return r.From == r.To
}

// Overlaps reports whether the two ranges share at least one index
func (r Range) Overlaps(other Range) bool {
	return r.From <= other.To && other.From <= r.To
}

// Mergeable reports whether the ranges overlap or sit directly next to each other
func (r Range) Mergeable(other Range) bool {
	return r.Overlaps(other) || r.To+1 == other.From || other.To+1 == r.From
}

// Union returns the smallest range covering both. Callers check Mergeable first;
// for non-mergeable ranges the gap between them is included.
func (r Range) Union(other Range) Range {
	return Range{From: min(r.From, other.From), To: max(r.To, other.To)}
}

// Subtract removes a single index, returning zero, one or two ranges
func (r Range) Subtract(index int) []Range {
	return r.Without(Range{From: index, To: index})
}

// Without removes every index of other from r.
// The result has zero, one or two ranges in ascending order.
func (r Range) Without(other Range) []Range {
	if !r.Overlaps(other) {
		return []Range{r}
	}

	var out []Range
	if r.From < other.From {
		out = append(out, Range{From: r.From, To: other.From - 1})
	}
	if r.To > other.To {
		out = append(out, Range{From: other.To + 1, To: r.To})
	}
	return out
}

// String renders the range as [from,to]
func (r Range) String() string {
	return fmt.Sprintf("[%d,%d]", r.From, r.To)
}
