/*
Package metadata is a client for the compute metadata server's
maintenance-event endpoint.

The endpoint supports a hanging GET: the request carries the last etag seen
and wait_for_change=true, and the server holds the connection until the value
changes or timeout_sec elapses. Every answer carries a fresh etag to send on
the next request.

	client := metadata.NewClient(metadata.Config{TimeoutSec: 3600})
	resp, err := client.Poll(ctx, etag)
	switch metadata.Classify(err) {
	case metadata.OutcomeSuccess:
		etag = resp.ETag
	case metadata.OutcomeRetry:
		// same etag, after a short pause
	case metadata.OutcomeFatal:
		return err
	}

The server answers 503 while the host is being serviced, so 503 and network
failures are retryable. Any other error status or a redirect loop points at
a configuration problem and is fatal.
*/
package metadata
