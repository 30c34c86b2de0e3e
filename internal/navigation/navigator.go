package navigation

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"filegrip/internal/domain"
	"filegrip/internal/eventbus"
	"filegrip/internal/selection"
)

// DefaultCountCacheSize is the number of group counts kept in memory
const DefaultCountCacheSize = 1024

// Navigator resolves arrow-key movement of the focus, crossing into the
// neighbouring open group at either end of a group.
//
// Group sizes come from an async count provider, so a request can resolve
// after a newer one was issued. Every request takes a token; only the latest
// token may update the store, and only if the store has not moved on since
// the request started. Both checks happen atomically in the store.
type Navigator struct {
	counts   CountProvider
	registry GroupRegistry
	store    SelectionStore
	bus      eventbus.EventBus
	cache    *lru.Cache[domain.GroupKey, int]
	latest   atomic.Uint64
}

// NewNavigator creates a navigator. cacheSize <= 0 uses DefaultCountCacheSize.
func NewNavigator(counts CountProvider, registry GroupRegistry, store SelectionStore, bus eventbus.EventBus, cacheSize int) (*Navigator, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCountCacheSize
	}
	cache, err := lru.New[domain.GroupKey, int](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create count cache: %w", err)
	}
	return &Navigator{
		counts:   counts,
		registry: registry,
		store:    store,
		bus:      bus,
		cache:    cache,
	}, nil
}

// SelectNearby moves the focus one position up or down and selects it.
// With extend the existing selection is kept and toggled/extended, otherwise
// it is replaced. Without a focus, or at the outer edge of the first or last
// group, the current selection is returned unchanged. A result that went
// stale while counts were resolving is dropped and the current state returned.
func (n *Navigator) SelectNearby(ctx context.Context, dir Direction, extend bool) (selection.Selection, error) {
	if dir != DirectionUp && dir != DirectionDown {
		current, _ := n.store.Snapshot()
		return current, fmt.Errorf("unsupported direction %q", dir)
	}

	token := n.latest.Add(1)
	current, rev := n.store.Snapshot()

	focus, ok := current.Focus()
	if !ok {
		return current, nil
	}

	target, found, err := n.resolve(ctx, focus, dir)
	if err != nil {
		return current, err
	}
	if latest := n.latest.Load(); latest != token {
		n.discard(token, latest)
		now, _ := n.store.Snapshot()
		return now, nil
	}
	if !found {
		return current, nil
	}

	// The token is checked again under the store lock so a request issued
	// after this one always sees either this result or the old revision.
	superseded := false
	next, applied := n.store.ApplyWhen(rev, func() bool {
		superseded = n.latest.Load() != token
		return !superseded
	}, func(cur selection.Selection) selection.Selection {
		return cur.SelectIndex(target.Group, target.Index, extend)
	})
	switch {
	case superseded:
		n.discard(token, n.latest.Load())
	case !applied:
		log.Printf("Navigation %d discarded: selection changed while resolving", token)
		n.publishDiscarded(token, token)
	}
	return next, nil
}

// Invalidate forgets every memoized count, e.g. after the hierarchy changed
func (n *Navigator) Invalidate() {
	n.cache.Purge()
}

// Forget drops the memoized count of one group
func (n *Navigator) Forget(key domain.GroupKey) {
	n.cache.Remove(key)
}

func (n *Navigator) resolve(ctx context.Context, focus selection.Position, dir Direction) (selection.Position, bool, error) {
	candidate := focus.Index + dir.step()

	total, err := n.count(ctx, focus.Group)
	if err != nil {
		return selection.Position{}, false, err
	}
	if candidate >= 0 && candidate < total {
		return selection.Position{Group: focus.Group, Index: candidate}, true, nil
	}

	neighbor, ok := neighborOf(n.registry.Ordered(), focus.Group.Key, dir)
	if !ok {
		return selection.Position{}, false, nil
	}
	neighborTotal, err := n.count(ctx, neighbor)
	if err != nil {
		return selection.Position{}, false, err
	}
	if neighborTotal == 0 {
		return selection.Position{}, false, nil
	}

	if dir == DirectionUp {
		return selection.Position{Group: neighbor, Index: neighborTotal - 1}, true, nil
	}
	return selection.Position{Group: neighbor, Index: 0}, true, nil
}

func (n *Navigator) count(ctx context.Context, g domain.Group) (int, error) {
	if total, ok := n.cache.Get(g.Key); ok {
		return total, nil
	}
	total, err := n.counts.Count(ctx, g)
	if err != nil {
		return 0, fmt.Errorf("failed to count group %s: %w", g.Key, err)
	}
	n.cache.Add(g.Key, total)
	return total, nil
}

func (n *Navigator) discard(token, latest uint64) {
	log.Printf("Navigation %d discarded: superseded by %d", token, latest)
	n.publishDiscarded(token, latest)
}

func (n *Navigator) publishDiscarded(token, latest uint64) {
	if n.bus != nil {
		n.bus.Publish(eventbus.NavigationDiscardedEvent{Token: token, Latest: latest})
	}
}

// neighborOf finds the group directly before (up) or after (down) key
func neighborOf(ordered []domain.Group, key domain.GroupKey, dir Direction) (domain.Group, bool) {
	for i, g := range ordered {
		if g.Key != key {
			continue
		}
		j := i + dir.step()
		if j < 0 || j >= len(ordered) {
			return domain.Group{}, false
		}
		return ordered[j], true
	}
	return domain.Group{}, false
}
