package domain

// EventType represents the type of domain event
type EventType string

// Event types
const (
	EventSelectionChanged    EventType = "SelectionChanged"
	EventSelectionReset      EventType = "SelectionReset"
	EventNavigationDiscarded EventType = "NavigationDiscarded"
	EventGroupsChanged       EventType = "GroupsChanged"
	EventGroupOpened         EventType = "GroupOpened"
	EventGroupClosed         EventType = "GroupClosed"
	EventDetailsFetched      EventType = "DetailsFetched"
	EventError               EventType = "Error"
	EventConfigLoaded        EventType = "ConfigLoaded"
	EventConfigSaved         EventType = "ConfigSaved"
	EventScanStarted         EventType = "ScanStarted"
	EventScanCompleted       EventType = "ScanCompleted"
)

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	Type() EventType
}

// SelectionChangedEvent is emitted when the stored selection is replaced by a different one
type SelectionChangedEvent struct {
	Revision uint64
	Count    int
}

func (e SelectionChangedEvent) Type() EventType { return EventSelectionChanged }

// SelectionResetEvent is emitted when the selection is discarded because groups became invalid
type SelectionResetEvent struct {
	Revision uint64
	Reason   string
}

func (e SelectionResetEvent) Type() EventType { return EventSelectionReset }

// NavigationDiscardedEvent is emitted when an arrow-key result resolved after a newer request
type NavigationDiscardedEvent struct {
	Token  uint64
	Latest uint64
}

func (e NavigationDiscardedEvent) Type() EventType { return EventNavigationDiscarded }

// GroupsChangedEvent is emitted when the registry replaces its hierarchy
type GroupsChangedEvent struct {
	Count int
}

func (e GroupsChangedEvent) Type() EventType { return EventGroupsChanged }

// GroupOpenedEvent is emitted when a hierarchy node becomes visible for navigation
type GroupOpenedEvent struct {
	Key GroupKey
}

func (e GroupOpenedEvent) Type() EventType { return EventGroupOpened }

// GroupClosedEvent is emitted when a hierarchy node is collapsed
type GroupClosedEvent struct {
	Key GroupKey
}

func (e GroupClosedEvent) Type() EventType { return EventGroupClosed }

// DetailsFetchedEvent is emitted when all records of a selection were loaded
type DetailsFetchedEvent struct {
	Revision uint64
	Records  int
}

func (e DetailsFetchedEvent) Type() EventType { return EventDetailsFetched }

// ErrorEvent is emitted when an error occurs
type ErrorEvent struct {
	Message string
	Err     error
}

func (e ErrorEvent) Type() EventType { return EventError }

// ConfigLoadedEvent is emitted when configuration is loaded
type ConfigLoadedEvent struct {
	Path string
}

func (e ConfigLoadedEvent) Type() EventType { return EventConfigLoaded }

// ConfigSavedEvent is emitted when configuration is saved
type ConfigSavedEvent struct {
	Path string
}

func (e ConfigSavedEvent) Type() EventType { return EventConfigSaved }

// ScanStartedEvent is emitted when a filesystem scan begins
type ScanStartedEvent struct {
	Roots []string
}

func (e ScanStartedEvent) Type() EventType { return EventScanStarted }

// ScanCompletedEvent is emitted when a filesystem scan finishes
type ScanCompletedEvent struct {
	Files int
}

func (e ScanCompletedEvent) Type() EventType { return EventScanCompleted }
