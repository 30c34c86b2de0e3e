package details

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filegrip/internal/domain"
	"filegrip/internal/numrange"
	"filegrip/internal/selection"
)

var (
	docs   = domain.Group{Key: "/docs", Name: "docs", SortOrder: 1}
	images = domain.Group{Key: "/images", Name: "images", SortOrder: 0}
)

// recordProvider serves synthetic records named after their group and index
type recordProvider struct {
	mu       sync.Mutex
	requests []numrange.Range
	failOn   *numrange.Range
	short    bool
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (p *recordProvider) Details(ctx context.Context, g domain.Group, r numrange.Range) ([]domain.FileDetail, error) {
	n := p.inFlight.Add(1)
	defer p.inFlight.Add(-1)
	for {
		old := p.peak.Load()
		if n <= old || p.peak.CompareAndSwap(old, n) {
			break
		}
	}

	p.mu.Lock()
	p.requests = append(p.requests, r)
	p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.failOn != nil && *p.failOn == r {
		return nil, errors.New("backend unavailable")
	}

	to := r.To
	if p.short {
		to--
	}
	var out []domain.FileDetail
	for i := r.From; i <= to; i++ {
		out = append(out, domain.FileDetail{ID: fmt.Sprintf("%s#%d", g.Key, i), Name: fmt.Sprintf("%s-%d", g.Name, i)})
	}
	return out, nil
}

type fixedSnapshots struct {
	sel  selection.Selection
	revs []uint64
	n    int
}

func (f *fixedSnapshots) Snapshot() (selection.Selection, uint64) {
	rev := f.revs[min(f.n, len(f.revs)-1)]
	f.n++
	return f.sel, rev
}

func ids(records []domain.FileDetail) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestFetchAllOrdersByGroupThenIndex(t *testing.T) {
	sel := selection.New().
		Select(docs, numrange.MustNew(4, 5), true).
		SelectIndex(images, 9, true).
		SelectIndex(docs, 0, true)

	f := NewFetcher(&recordProvider{}, 0, 0)
	records, err := f.FetchAll(context.Background(), sel)
	require.NoError(t, err)

	assert.Equal(t, []string{"/images#9", "/docs#0", "/docs#4", "/docs#5"}, ids(records))
}

func TestFetchAllSplitsIntoBatches(t *testing.T) {
	sel := selection.New().Select(docs, numrange.MustNew(0, 1199), false)
	p := &recordProvider{}

	f := NewFetcher(p, 500, 2)
	assert.Equal(t, []numrange.Range{
		numrange.MustNew(0, 499),
		numrange.MustNew(500, 999),
		numrange.MustNew(1000, 1199),
	}, f.Batches(sel))

	records, err := f.FetchAll(context.Background(), sel)
	require.NoError(t, err)
	require.Len(t, records, 1200)
	assert.Equal(t, "/docs#0", records[0].ID)
	assert.Equal(t, "/docs#1199", records[1199].ID)
	assert.Len(t, p.requests, 3)
	assert.LessOrEqual(t, p.peak.Load(), int32(2))
}

func TestFetchAllEmptySelection(t *testing.T) {
	p := &recordProvider{}
	records, err := NewFetcher(p, 10, 1).FetchAll(context.Background(), selection.New())
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Empty(t, p.requests)
}

func TestFetchAllFailsAsAWhole(t *testing.T) {
	bad := numrange.MustNew(10, 19)
	p := &recordProvider{failOn: &bad}
	sel := selection.New().Select(docs, numrange.MustNew(0, 29), false)

	records, err := NewFetcher(p, 10, 1).FetchAll(context.Background(), sel)
	require.Error(t, err)
	assert.Nil(t, records)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, docs.Key, fetchErr.Group)
	assert.Equal(t, bad, fetchErr.Range)
	assert.Contains(t, err.Error(), "backend unavailable")
}

func TestShortPageIsAFetchError(t *testing.T) {
	sel := selection.New().Select(images, numrange.MustNew(0, 4), false)

	_, err := NewFetcher(&recordProvider{short: true}, 10, 1).FetchAll(context.Background(), sel)
	require.ErrorIs(t, err, ErrShortPage)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, numrange.MustNew(0, 4), fetchErr.Range)
}

func TestFetchAllHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sel := selection.New().SelectIndex(docs, 3, false)
	_, err := NewFetcher(&recordProvider{}, 10, 1).FetchAll(ctx, sel)
	require.ErrorIs(t, err, context.Canceled)
}

func TestFetchCurrent(t *testing.T) {
	sel := selection.New().SelectIndex(docs, 2, false)

	t.Run("unchanged revision", func(t *testing.T) {
		src := &fixedSnapshots{sel: sel, revs: []uint64{7}}
		records, rev, err := NewFetcher(&recordProvider{}, 0, 0).FetchCurrent(context.Background(), src)
		require.NoError(t, err)
		assert.Equal(t, uint64(7), rev)
		assert.Equal(t, []string{"/docs#2"}, ids(records))
	})

	t.Run("selection moved", func(t *testing.T) {
		src := &fixedSnapshots{sel: sel, revs: []uint64{7, 8}}
		records, rev, err := NewFetcher(&recordProvider{}, 0, 0).FetchCurrent(context.Background(), src)
		require.ErrorIs(t, err, ErrSelectionChanged)
		assert.Nil(t, records)
		assert.Equal(t, uint64(8), rev)
	})
}
