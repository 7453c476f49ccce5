package metadata

import (
	"errors"
	"net/http"
)

// Outcome is how the watch loop should react to a poll
type Outcome int

const (
	// OutcomeSuccess means a new etag and body are available
	OutcomeSuccess Outcome = iota

	// OutcomeRetry means wait briefly and poll again with the same etag
	OutcomeRetry

	// OutcomeFatal means stop watching and surface the error
	OutcomeFatal
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeRetry:
		return "retry"
	case OutcomeFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Classify maps an error returned by Client.Poll to an Outcome.
//
// Transport failures and 503 (returned while the host is actually being
// serviced) are retried. Redirect loops, every other HTTP error status, a
// missing etag and caller cancellation are fatal.
func Classify(err error) Outcome {
	if err == nil {
		return OutcomeSuccess
	}

	if errors.Is(err, ErrTooManyRedirects) {
		return OutcomeFatal
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		if statusErr.Code == http.StatusServiceUnavailable {
			return OutcomeRetry
		}
		return OutcomeFatal
	}

	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return OutcomeRetry
	}

	return OutcomeFatal
}
