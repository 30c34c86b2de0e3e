package ui

import (
	"time"

	"filegrip/internal/domain"
	"filegrip/internal/eventbus"
	"filegrip/internal/selection"
)

// EventMsg wraps a domain event for the UI
type EventMsg struct {
	Event eventbus.DomainEvent
}

// tickMsg is sent on a timer for animations
type tickMsg time.Time

// populatedMsg reports that the catalog finished loading its files
type populatedMsg struct {
	err error
}

// groupsLoadedMsg carries a freshly built hierarchy with per-group counts
type groupsLoadedMsg struct {
	groups []domain.Group
	counts map[domain.GroupKey]int
	err    error
}

// namesLoadedMsg carries the names of the first positions of a group
type namesLoadedMsg struct {
	generation int
	key        domain.GroupKey
	names      []string
	err        error
}

// navigatedMsg is the result of an arrow-key navigation
type navigatedMsg struct {
	selection selection.Selection
	err       error
}

// detailsMsg is the result of loading every selected record
type detailsMsg struct {
	records  []domain.FileDetail
	revision uint64
	err      error
}

// exportedMsg reports a written manifest or request file
type exportedMsg struct {
	path string
	rows int
	err  error
}

// pagerMsg reports that the pager was closed
type pagerMsg struct {
	err error
}
