// Package action runs the external control commands that drain, undrain and
// rebalance the local database node. Results are returned as values, never
// as errors, so a failing command cannot stop the watch loop.
package action
