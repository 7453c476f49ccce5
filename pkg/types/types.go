package types

import "strings"

const (
	// NoneValue is the literal the metadata server returns when no
	// maintenance is scheduled. It is also the persisted form of None.
	NoneValue = "NONE"

	// InitialETag is the continuation token sent on the first request
	InitialETag = "0"
)

// Known maintenance event names
const (
	EventMigrate   = "MIGRATE_ON_HOST_MAINTENANCE"
	EventTerminate = "TERMINATE_ON_HOST_MAINTENANCE"
)

// MaintenanceEvent is either no event or a named event reported by the
// metadata server. The zero value is None.
type MaintenanceEvent struct {
	name string
}

// None is the canonical "not under maintenance" value
var None = MaintenanceEvent{}

// Event returns the event with the given name. Blank names and NONE
// collapse to None.
func Event(name string) MaintenanceEvent {
	return Normalize(name)
}

// Normalize maps raw event text (a response body or persisted value) to a
// MaintenanceEvent. Surrounding whitespace is ignored; empty text and NONE
// both mean None. Anything else is kept verbatim, including names this
// package does not know about.
func Normalize(raw string) MaintenanceEvent {
	s := strings.TrimSpace(raw)
	if s == "" || s == NoneValue {
		return None
	}
	return MaintenanceEvent{name: s}
}

// IsNone reports whether e is the no-event value
func (e MaintenanceEvent) IsNone() bool {
	return e.name == ""
}

// Name returns the event name, or "" for None
func (e MaintenanceEvent) Name() string {
	return e.name
}

// IsKnown reports whether e is None or one of the documented event names
func (e MaintenanceEvent) IsKnown() bool {
	switch e.name {
	case "", EventMigrate, EventTerminate:
		return true
	}
	return false
}

// String returns the wire form: NONE or the event name
func (e MaintenanceEvent) String() string {
	if e.IsNone() {
		return NoneValue
	}
	return e.name
}

// Transition records a change between two observed events
type Transition struct {
	Previous MaintenanceEvent
	Current  MaintenanceEvent
}

// Entering reports whether the transition moves into maintenance
func (t Transition) Entering() bool {
	return !t.Current.IsNone()
}
