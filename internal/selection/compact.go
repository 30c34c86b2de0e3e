package selection

import (
	"fmt"

	"filegrip/internal/domain"
	"filegrip/internal/numrange"
)

// Descriptor tells a bulk operation which group a set of ranges belongs to
type Descriptor struct {
	Key  domain.GroupKey `json:"key"`
	Name string          `json:"name,omitempty"`
	Path []string        `json:"path,omitempty"`
}

// CompactSelection is the range-based description of one group's selection
type CompactSelection struct {
	Group  Descriptor `json:"group"`
	Ranges [][2]int   `json:"ranges"`
}

// ToCompactSelectionList describes the selection without enumerating positions.
// Groups come out in sort order, so equal selections always serialize identically.
func (s Selection) ToCompactSelectionList() []CompactSelection {
	out := make([]CompactSelection, 0, len(s.entries))
	for _, e := range s.entries {
		ranges := make([][2]int, len(e.Ranges))
		for i, r := range e.Ranges {
			ranges[i] = [2]int{r.From, r.To}
		}
		var path []string
		if len(e.Group.Path) > 0 {
			path = append(path, e.Group.Path...)
		}
		out = append(out, CompactSelection{
			Group: Descriptor{
				Key:  e.Group.Key,
				Name: e.Group.Name,
				Path: path,
			},
			Ranges: ranges,
		})
	}
	return out
}

// FromCompactSelectionList rebuilds a selection from its compact description.
// lookup resolves each key to the current group; unknown keys and malformed
// ranges are errors. The result has no focus.
func FromCompactSelectionList(list []CompactSelection, lookup func(domain.GroupKey) (domain.Group, bool)) (Selection, error) {
	s := New()
	for _, item := range list {
		g, ok := lookup(item.Group.Key)
		if !ok {
			return New(), fmt.Errorf("unknown group %s", item.Group.Key)
		}
		current := s.ranges(g.Key)
		for _, pair := range item.Ranges {
			r, err := numrange.New(pair[0], pair[1])
			if err != nil {
				return New(), fmt.Errorf("group %s: %w", g.Key, err)
			}
			current = addRange(current, r)
		}
		s = s.withRanges(g, current)
	}
	return s, nil
}
