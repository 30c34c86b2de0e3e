package navigation

import (
	"context"

	"filegrip/internal/domain"
	"filegrip/internal/selection"
)

// Direction represents movement directions
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

func (d Direction) step() int {
	if d == DirectionUp {
		return -1
	}
	return 1
}

// CountProvider reports how many positions a group holds
type CountProvider interface {
	Count(ctx context.Context, g domain.Group) (int, error)
}

// GroupRegistry lists the currently navigable groups in sort order
type GroupRegistry interface {
	Ordered() []domain.Group
}

// SelectionStore is the application state the navigator reads and updates
type SelectionStore interface {
	Snapshot() (selection.Selection, uint64)
	ApplyWhen(rev uint64, guard func() bool, fn func(selection.Selection) selection.Selection) (selection.Selection, bool)
}
