package groups

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"filegrip/internal/domain"
	"filegrip/internal/eventbus"
)

// ErrUnknownGroup is returned when a key is not part of the current hierarchy
var ErrUnknownGroup = errors.New("unknown group")

// Registry holds the groups of the current hierarchy and which of them are open.
// Open groups, in sort order, are what keyboard navigation moves across.
//
// Opening and closing nodes never invalidates a selection. Replacing the
// hierarchy does: group keys may now point at a different file ordering, so
// change listeners are told to drop whatever they derived from the old groups.
type Registry struct {
	bus       eventbus.EventBus
	mu        sync.RWMutex
	groups    map[domain.GroupKey]domain.Group
	open      map[domain.GroupKey]bool
	listeners []func()
}

// NewRegistry creates a registry with all initial groups open
func NewRegistry(bus eventbus.EventBus, initial []domain.Group) *Registry {
	r := &Registry{
		bus:    bus,
		groups: make(map[domain.GroupKey]domain.Group),
		open:   make(map[domain.GroupKey]bool),
	}
	for _, g := range initial {
		r.groups[g.Key] = g
		r.open[g.Key] = true
	}
	return r
}

// OnChange registers fn to run synchronously whenever the hierarchy is replaced
func (r *Registry) OnChange(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// Replace swaps in a new hierarchy, e.g. after a filter, sort or hierarchy change.
// All new groups start open.
func (r *Registry) Replace(groups []domain.Group) {
	r.mu.Lock()
	r.groups = make(map[domain.GroupKey]domain.Group, len(groups))
	r.open = make(map[domain.GroupKey]bool, len(groups))
	for _, g := range groups {
		r.groups[g.Key] = g
		r.open[g.Key] = true
	}
	listeners := make([]func(), len(r.listeners))
	copy(listeners, r.listeners)
	r.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}

	if r.bus != nil {
		r.bus.Publish(eventbus.GroupsChangedEvent{Count: len(groups)})
	}
}

// Get returns a group by key
func (r *Registry) Get(key domain.GroupKey) (domain.Group, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.groups[key]
	return g, ok
}

// All returns every group of the hierarchy in sort order, open or not
func (r *Registry) All() []domain.Group {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Group, 0, len(r.groups))
	for _, g := range r.groups {
		out = append(out, g)
	}
	sortGroups(out)
	return out
}

// Ordered returns the open groups in sort order
func (r *Registry) Ordered() []domain.Group {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Group, 0, len(r.groups))
	for key, g := range r.groups {
		if r.open[key] {
			out = append(out, g)
		}
	}
	sortGroups(out)
	return out
}

// IsOpen reports whether a group is expanded
func (r *Registry) IsOpen(key domain.GroupKey) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.open[key]
}

// Open expands a group
func (r *Registry) Open(key domain.GroupKey) error {
	return r.setOpen(key, true)
}

// Close collapses a group
func (r *Registry) Close(key domain.GroupKey) error {
	return r.setOpen(key, false)
}

// Toggle flips a group between open and closed
func (r *Registry) Toggle(key domain.GroupKey) error {
	return r.setOpen(key, !r.IsOpen(key))
}

// SetOpenUnder opens or closes every group at or below a hierarchy prefix,
// which is how a parent node in the tree expands or collapses
func (r *Registry) SetOpenUnder(prefix []string, open bool) {
	r.mu.Lock()
	var changed []domain.GroupKey
	for key, g := range r.groups {
		if g.Under(prefix) && r.open[key] != open {
			r.open[key] = open
			changed = append(changed, key)
		}
	}
	r.mu.Unlock()

	for _, key := range changed {
		r.publishOpen(key, open)
	}
}

func (r *Registry) setOpen(key domain.GroupKey, open bool) error {
	r.mu.Lock()
	if _, exists := r.groups[key]; !exists {
		r.mu.Unlock()
		return fmt.Errorf("group %s: %w", key, ErrUnknownGroup)
	}
	changed := r.open[key] != open
	r.open[key] = open
	r.mu.Unlock()

	if changed {
		r.publishOpen(key, open)
	}
	return nil
}

func (r *Registry) publishOpen(key domain.GroupKey, open bool) {
	if r.bus == nil {
		return
	}
	if open {
		r.bus.Publish(eventbus.GroupOpenedEvent{Key: key})
	} else {
		r.bus.Publish(eventbus.GroupClosedEvent{Key: key})
	}
}

// Neighbor returns the open group directly before (before=true) or after key
func (r *Registry) Neighbor(key domain.GroupKey, before bool) (domain.Group, bool) {
	ordered := r.Ordered()
	for i, g := range ordered {
		if g.Key != key {
			continue
		}
		if before && i > 0 {
			return ordered[i-1], true
		}
		if !before && i < len(ordered)-1 {
			return ordered[i+1], true
		}
		return domain.Group{}, false
	}
	return domain.Group{}, false
}

func sortGroups(groups []domain.Group) {
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Less(groups[j])
	})
}
