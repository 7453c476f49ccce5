// Package tracker deduplicates maintenance notifications. It holds the last
// observed event, optionally mirrored in a storage.Store, and turns each poll
// result into at most one types.Transition.
package tracker
