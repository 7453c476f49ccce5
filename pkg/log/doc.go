/*
Package log provides structured logging for maintwatch using zerolog.

The base Logger is configured once at start-up with Init and tagged with the
process run id. Components never log through the package directly; they are
handed a child logger built by WithComponent, which keeps them testable with
zerolog.Nop():

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})
	w := watcher.New(client, tracker, orch, cfg, log.WithComponent("watcher"))

Console output is the default and is meant for journald; JSON output is meant
for log shippers.
*/
package log
