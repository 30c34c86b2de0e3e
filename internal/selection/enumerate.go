package selection

// At resolves the i-th selected position, counting across groups in sort order
// and ascending index within each group
func (s Selection) At(i int) (Position, bool) {
	if i < 0 {
		return Position{}, false
	}
	for _, e := range s.entries {
		for _, r := range e.Ranges {
			if i < r.Size() {
				return Position{Group: e.Group, Index: r.From + i}, true
			}
			i -= r.Size()
		}
	}
	return Position{}, false
}

// FocusByIndex focuses the i-th selected position. Out of range is a no-op.
func (s Selection) FocusByIndex(i int) Selection {
	pos, ok := s.At(i)
	if !ok {
		return s
	}
	return s.FocusByGroup(pos.Group, pos.Index)
}

// FocusedSelectionIndex returns the ordinal of the focused position among all
// selected positions, or -1 when there is no focus or it is not selected
func (s Selection) FocusedSelectionIndex() int {
	if !s.hasFocus {
		return -1
	}

	offset := 0
	for _, e := range s.entries {
		if e.Group.Key != s.focus.Group.Key {
			offset += setSize(e.Ranges)
			continue
		}
		for _, r := range e.Ranges {
			if r.Contains(s.focus.Index) {
				return offset + s.focus.Index - r.From
			}
			offset += r.Size()
		}
		return -1
	}
	return -1
}
