package metadata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the metadata server root on GCE
	DefaultBaseURL = "http://metadata.google.internal/computeMetadata/v1/"

	// MaintenanceEventPath is appended to the base URL
	MaintenanceEventPath = "instance/maintenance-event"

	HeaderFlavor = "Metadata-Flavor"
	FlavorGoogle = "Google"

	// MaxTimeoutSec is the longest wait the metadata server accepts
	MaxTimeoutSec = 3600

	// maxRedirects matches net/http's own limit
	maxRedirects = 10

	// clientSlack is added to the server-side wait so the HTTP client never
	// gives up before the server answers a hanging GET
	clientSlack = 30 * time.Second
)

var (
	// ErrTooManyRedirects is returned when the server keeps redirecting.
	// It is never retried.
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrMissingETag is returned for a 2xx response without an ETag header
	ErrMissingETag = errors.New("response has no etag header")
)

// StatusError is returned for an HTTP error response (4xx or 5xx)
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("metadata server returned %s", e.Status)
}

// TransportError wraps a failure below HTTP: dial, DNS, reset, timeout,
// or a body that could not be read
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("metadata request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Config configures a Client
type Config struct {
	// BaseURL is the metadata root (default DefaultBaseURL)
	BaseURL string

	// Headers are sent on every request in addition to Metadata-Flavor
	Headers map[string]string

	// TimeoutSec is the server-side wait passed as timeout_sec
	TimeoutSec int
}

// Response is a successful poll
type Response struct {
	// ETag is the continuation token for the next poll
	ETag string

	// Body is the raw event text
	Body string

	StatusCode int
}

// Client issues hanging GETs against the maintenance-event endpoint
type Client struct {
	endpoint   string
	headers    map[string]string
	timeoutSec int
	httpClient *http.Client
}

// NewClient creates a long-poll client
func NewClient(cfg Config) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}

	timeoutSec := cfg.TimeoutSec
	if timeoutSec <= 0 || timeoutSec > MaxTimeoutSec {
		timeoutSec = MaxTimeoutSec
	}

	headers := make(map[string]string, len(cfg.Headers))
	for k, v := range cfg.Headers {
		headers[k] = v
	}

	return &Client{
		endpoint:   strings.TrimRight(base, "/") + "/" + MaintenanceEventPath,
		headers:    headers,
		timeoutSec: timeoutSec,
		httpClient: &http.Client{
			Timeout: time.Duration(timeoutSec)*time.Second + clientSlack,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return ErrTooManyRedirects
				}
				return nil
			},
		},
	}
}

// Endpoint returns the URL polled, without query parameters
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Poll issues one hanging GET carrying etag and blocks until the server
// reports a change, its wait times out, or the request fails. Use Classify
// on the returned error to decide whether to retry.
func (c *Client) Poll(ctx context.Context, etag string) (Response, error) {
	query := url.Values{}
	query.Set("last_etag", etag)
	query.Set("wait_for_change", "true")
	query.Set("timeout_sec", strconv.Itoa(c.timeoutSec))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return Response{}, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	req.Header.Set(HeaderFlavor, FlavorGoogle)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, ErrTooManyRedirects) {
			return Response{}, fmt.Errorf("metadata request to %s: %w", c.endpoint, ErrTooManyRedirects)
		}
		if ctx.Err() != nil {
			return Response{}, fmt.Errorf("metadata request cancelled: %w", ctx.Err())
		}
		return Response{}, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	// Unfollowed 1xx and 3xx replies are read like a 200; the ETag check
	// below still applies
	if resp.StatusCode >= http.StatusBadRequest {
		// Drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		return Response{}, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return Response{}, fmt.Errorf("metadata request cancelled: %w", ctx.Err())
		}
		return Response{}, &TransportError{Err: err}
	}

	etagHeader := resp.Header.Get("ETag")
	if etagHeader == "" {
		return Response{}, ErrMissingETag
	}

	return Response{
		ETag:       etagHeader,
		Body:       string(body),
		StatusCode: resp.StatusCode,
	}, nil
}
