/*
Package watcher runs the maintenance watch loop.

The loop is a small state machine:

	Polling      --success, same event-->  Polling
	Polling      --success, new event--->  Dispatching
	Polling      --503 / transport----->   Backoff
	Polling      --any other error----->   Terminated
	Backoff      --after RetryDelay---->   Polling   (same etag)
	Dispatching  --actions finished---->   Polling

The etag returned by every successful poll is sent on the next one; a retry
re-sends the previous etag. Terminated is final and Run returns the error
that caused it. Cancelling the context passed to Run aborts the hanging GET
or the backoff wait and also terminates the loop; actions already dispatched
run to completion.
*/
package watcher
