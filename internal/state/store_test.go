package state

import (
	"testing"

	"github.com/stretchr/testify/require"

	"filegrip/internal/domain"
	"filegrip/internal/numrange"
	"filegrip/internal/selection"
)

var docs = domain.Group{Key: "/docs", SortOrder: 0}

func TestApplyBumpsRevisionOnlyOnChange(t *testing.T) {
	s := NewStore(nil)
	require.Equal(t, uint64(0), s.Revision())

	s.Apply(func(cur selection.Selection) selection.Selection {
		return cur.Select(docs, numrange.MustNew(0, 4), false)
	})
	require.Equal(t, uint64(1), s.Revision())
	require.Equal(t, 5, s.Current().Count())

	// equal but freshly built selection: not a change
	s.Apply(func(selection.Selection) selection.Selection {
		return selection.New().Select(docs, numrange.MustNew(0, 4), false)
	})
	require.Equal(t, uint64(1), s.Revision())
}

func TestApplyIfRejectsStaleRevision(t *testing.T) {
	s := NewStore(nil)
	_, rev := s.Snapshot()

	s.Apply(func(cur selection.Selection) selection.Selection {
		return cur.SelectIndex(docs, 3, false)
	})

	result, ok := s.ApplyIf(rev, func(cur selection.Selection) selection.Selection {
		return cur.SelectIndex(docs, 9, false)
	})
	require.False(t, ok)
	require.True(t, result.IsSelected(docs.Key, 3))
	require.False(t, s.Current().IsSelected(docs.Key, 9))

	_, rev = s.Snapshot()
	result, ok = s.ApplyIf(rev, func(cur selection.Selection) selection.Selection {
		return cur.SelectIndex(docs, 9, false)
	})
	require.True(t, ok)
	require.True(t, result.IsSelected(docs.Key, 9))
}

func TestApplyWhenGuardLeavesRevision(t *testing.T) {
	s := NewStore(nil)
	_, rev := s.Snapshot()

	ran := false
	result, ok := s.ApplyWhen(rev, func() bool { return false }, func(cur selection.Selection) selection.Selection {
		ran = true
		return cur.SelectIndex(docs, 2, false)
	})
	require.False(t, ok)
	require.False(t, ran)
	require.True(t, result.IsEmpty())
	require.Equal(t, rev, s.Revision())

	result, ok = s.ApplyWhen(rev, func() bool { return true }, func(cur selection.Selection) selection.Selection {
		return cur.SelectIndex(docs, 2, false)
	})
	require.True(t, ok)
	require.True(t, result.IsSelected(docs.Key, 2))
}

func TestResetAlwaysBumpsRevision(t *testing.T) {
	s := NewStore(nil)
	s.Reset("filters changed")
	require.Equal(t, uint64(1), s.Revision())

	s.Apply(func(cur selection.Selection) selection.Selection {
		return cur.SelectIndex(docs, 1, false)
	})
	s.Reset("hierarchy changed")
	require.True(t, s.Current().IsEmpty())
	require.Equal(t, uint64(3), s.Revision())
}
