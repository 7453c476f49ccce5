/*
Package metrics exposes Prometheus metrics and health endpoints for maintwatch.

Collectors are package-level and registered at init, so any component can
record into them without wiring:

	maintwatch_polls_total{outcome}             success, retry, fatal
	maintwatch_poll_duration_seconds            time spent in one hanging GET
	maintwatch_transitions_total{direction}     enter, leave
	maintwatch_in_maintenance                   1 while an event is active
	maintwatch_actions_total{action,result}     drain, undrain, recluster
	maintwatch_action_duration_seconds{action}

NewMux serves /metrics alongside /health (aggregate component state),
/ready (the watcher has started and is not terminated) and /live.
The server is optional; the watch loop records metrics whether or not
anything scrapes them.
*/
package metrics
