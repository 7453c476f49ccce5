/*
Package types defines the values shared by every maintwatch component.

MaintenanceEvent is a two-variant value: None, or a named event such as
MIGRATE_ON_HOST_MAINTENANCE. Raw text coming from the metadata server or the
state file is turned into a MaintenanceEvent with Normalize, which treats an
empty string and the literal NONE as the same value. Comparing two events with
== is therefore enough to decide whether a transition happened:

	prev := types.Normalize("")
	next := types.Normalize("NONE")
	prev == next // true

Unrecognized event names are passed through untouched so future event kinds
still trigger a drain; IsKnown only exists for logging.
*/
package types
