package manifest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"filegrip/internal/domain"
	"filegrip/internal/numrange"
	"filegrip/internal/selection"
)

// ErrStaleRequest reports a request that no longer fits the catalog it is
// replayed against
var ErrStaleRequest = errors.New("request does not match the catalog")

// GroupSource lists the current groups and their sizes
type GroupSource interface {
	Groups(ctx context.Context) ([]domain.Group, error)
	Count(ctx context.Context, g domain.Group) (int, error)
}

// ReadRequest decodes a request written by WriteRequest
func ReadRequest(r io.Reader) (Request, error) {
	var req Request
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return Request{}, fmt.Errorf("failed to decode request: %w", err)
	}
	return req, nil
}

// Resolve rebuilds the selection of req against the groups src has now.
// Unknown groups, ranges past a group's end and a count that disagrees with
// the ranges all fail with ErrStaleRequest.
func (req Request) Resolve(ctx context.Context, src GroupSource) (selection.Selection, error) {
	counts, byKey, err := load(ctx, src)
	if err != nil {
		return selection.New(), err
	}

	for _, item := range req.Selection {
		total, ok := counts[item.Group.Key]
		if !ok {
			return selection.New(), fmt.Errorf("%w: unknown group %s", ErrStaleRequest, item.Group.Key)
		}
		for _, pair := range item.Ranges {
			if pair[1] >= total {
				return selection.New(), fmt.Errorf("%w: group %s has %d files, range ends at %d",
					ErrStaleRequest, item.Group.Key, total, pair[1])
			}
		}
	}

	sel, err := selection.FromCompactSelectionList(req.Selection, func(key domain.GroupKey) (domain.Group, bool) {
		g, ok := byKey[key]
		return g, ok
	})
	if err != nil {
		return selection.New(), err
	}
	if sel.Count() != req.Count {
		return selection.New(), fmt.Errorf("%w: ranges cover %d files, request says %d", ErrStaleRequest, sel.Count(), req.Count)
	}
	return sel, nil
}

// SelectGroups selects every file of the listed groups, or of all groups
// when keys is empty
func SelectGroups(ctx context.Context, src GroupSource, keys ...domain.GroupKey) (selection.Selection, error) {
	counts, byKey, err := load(ctx, src)
	if err != nil {
		return selection.New(), err
	}

	var targets []domain.Group
	if len(keys) == 0 {
		for _, g := range byKey {
			targets = append(targets, g)
		}
	}
	for _, key := range keys {
		g, ok := byKey[key]
		if !ok {
			return selection.New(), fmt.Errorf("unknown group %s", key)
		}
		targets = append(targets, g)
	}

	sel := selection.New()
	for _, g := range targets {
		if total := counts[g.Key]; total > 0 {
			sel = sel.Select(g, numrange.MustNew(0, total-1), true)
		}
	}
	return sel, nil
}

func load(ctx context.Context, src GroupSource) (map[domain.GroupKey]int, map[domain.GroupKey]domain.Group, error) {
	groups, err := src.Groups(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list groups: %w", err)
	}
	counts := make(map[domain.GroupKey]int, len(groups))
	byKey := make(map[domain.GroupKey]domain.Group, len(groups))
	for _, g := range groups {
		n, err := src.Count(ctx, g)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to count %s: %w", g.Key, err)
		}
		counts[g.Key] = n
		byKey[g.Key] = g
	}
	return counts, byKey, nil
}
