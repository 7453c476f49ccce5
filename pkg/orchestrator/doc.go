/*
Package orchestrator turns maintenance transitions into control commands for
the local database node.

Entering maintenance runs

	asinfo -v quiesce: <options...>
	asinfo -v recluster: <options...>

and leaving it runs

	asinfo -v quiesce-undo: <options...>
	asinfo -v recluster: <options...>

in that order. The rebalance always runs, even when the first command fails,
and no failure is ever returned to the caller: results are logged, counted,
and handed back for inspection.
*/
package orchestrator
