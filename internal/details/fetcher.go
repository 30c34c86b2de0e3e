package details

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"filegrip/internal/domain"
	"filegrip/internal/numrange"
	"filegrip/internal/selection"
)

const (
	// DefaultBatchSize is the number of positions requested per call
	DefaultBatchSize = 500
	// DefaultConcurrency is the number of batches in flight at once
	DefaultConcurrency = 4
)

// Provider loads the records of a bounded range of positions within a group
type Provider interface {
	Details(ctx context.Context, g domain.Group, r numrange.Range) ([]domain.FileDetail, error)
}

// Snapshotter exposes the current selection with its revision
type Snapshotter interface {
	Snapshot() (selection.Selection, uint64)
}

// Fetcher loads full records for every selected position
type Fetcher struct {
	provider    Provider
	batchSize   int
	concurrency int
}

// NewFetcher creates a fetcher. Non-positive sizes fall back to the defaults.
func NewFetcher(provider Provider, batchSize, concurrency int) *Fetcher {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Fetcher{
		provider:    provider,
		batchSize:   batchSize,
		concurrency: concurrency,
	}
}

type batch struct {
	group domain.Group
	r     numrange.Range
}

// Batches splits the selection into the requests FetchAll will issue, in
// result order
func (f *Fetcher) Batches(sel selection.Selection) []numrange.Range {
	planned := f.plan(sel)
	out := make([]numrange.Range, len(planned))
	for i, b := range planned {
		out[i] = b.r
	}
	return out
}

// FetchAll returns the record of every selected position, ordered by group
// sort order then index. If any batch fails the whole fetch fails with a
// *FetchError and no records are returned.
func (f *Fetcher) FetchAll(ctx context.Context, sel selection.Selection) ([]domain.FileDetail, error) {
	batches := f.plan(sel)
	if len(batches) == 0 {
		return nil, nil
	}

	pages := make([][]domain.FileDetail, len(batches))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)

	for i, b := range batches {
		g.Go(func() error {
			records, err := f.provider.Details(ctx, b.group, b.r)
			if err != nil {
				return &FetchError{Group: b.group.Key, Range: b.r, Err: err}
			}
			if len(records) < b.r.Size() {
				return &FetchError{
					Group: b.group.Key,
					Range: b.r,
					Err:   fmt.Errorf("%w: got %d of %d", ErrShortPage, len(records), b.r.Size()),
				}
			}
			pages[i] = records[:b.r.Size()]
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Printf("Detail fetch of %d positions failed: %v", sel.Count(), err)
		return nil, err
	}

	out := make([]domain.FileDetail, 0, sel.Count())
	for _, page := range pages {
		out = append(out, page...)
	}
	return out, nil
}

// FetchCurrent fetches the details of src's current selection and returns the
// revision they belong to. If src moved to another revision in the meantime
// the records are dropped and ErrSelectionChanged is returned.
func (f *Fetcher) FetchCurrent(ctx context.Context, src Snapshotter) ([]domain.FileDetail, uint64, error) {
	sel, rev := src.Snapshot()
	records, err := f.FetchAll(ctx, sel)
	if err != nil {
		return nil, rev, err
	}
	if _, now := src.Snapshot(); now != rev {
		return nil, now, ErrSelectionChanged
	}
	return records, rev, nil
}

func (f *Fetcher) plan(sel selection.Selection) []batch {
	var batches []batch
	for _, e := range sel.Entries() {
		for _, r := range e.Ranges {
			for from := r.From; from <= r.To; from += f.batchSize {
				to := min(from+f.batchSize-1, r.To)
				batches = append(batches, batch{group: e.Group, r: numrange.Range{From: from, To: to}})
			}
		}
	}
	return batches
}
