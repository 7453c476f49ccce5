package watcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cuemby/maintwatch/pkg/action"
	"github.com/cuemby/maintwatch/pkg/metadata"
	"github.com/cuemby/maintwatch/pkg/metrics"
	"github.com/cuemby/maintwatch/pkg/types"
	"github.com/rs/zerolog"
)

// State is a watch loop state
type State int

const (
	StatePolling State = iota
	StateBackoff
	StateDispatching
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StatePolling:
		return "polling"
	case StateBackoff:
		return "backoff"
	case StateDispatching:
		return "dispatching"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// healthComponent is the name the loop reports under in /health
const healthComponent = "watcher"

// Poller issues one long-poll request
type Poller interface {
	Poll(ctx context.Context, etag string) (metadata.Response, error)
}

// Observer deduplicates events
type Observer interface {
	Observe(raw string) (*types.Transition, bool)
	Current() types.MaintenanceEvent
}

// Dispatcher reacts to a transition
type Dispatcher interface {
	OnTransition(ctx context.Context, tr types.Transition) []action.Result
}

// Config configures the watch loop
type Config struct {
	// RetryDelay is the pause before re-polling after a 503 or a
	// transport failure (default 1s)
	RetryDelay time.Duration
}

// Watcher drives the poll, observe, dispatch cycle. It is not safe for
// concurrent use; Run is the only entry point in production.
type Watcher struct {
	poller     Poller
	observer   Observer
	dispatcher Dispatcher
	retryDelay time.Duration
	retry      backoff.BackOff
	logger     zerolog.Logger

	// sleep waits for d or until ctx is done; replaced in tests
	sleep func(ctx context.Context, d time.Duration) error

	state   State
	token   string
	pending *types.Transition
	err     error
	lastErr error
}

// New creates a watcher in the polling state with the initial etag
func New(poller Poller, observer Observer, dispatcher Dispatcher, cfg Config, logger zerolog.Logger) *Watcher {
	delay := cfg.RetryDelay
	if delay <= 0 {
		delay = time.Second
	}
	return &Watcher{
		poller:     poller,
		observer:   observer,
		dispatcher: dispatcher,
		retryDelay: delay,
		retry:      backoff.NewConstantBackOff(delay),
		logger:     logger,
		sleep:      sleepContext,
		state:      StatePolling,
		token:      types.InitialETag,
	}
}

// State returns the current loop state
func (w *Watcher) State() State {
	return w.state
}

// Token returns the etag that the next poll will send
func (w *Watcher) Token() string {
	return w.token
}

// Run watches until a fatal error or ctx is cancelled, and returns the
// error that ended the loop. It never returns nil.
func (w *Watcher) Run(ctx context.Context) error {
	current := w.observer.Current()
	setMaintenanceGauge(current)
	metrics.SetComponent(healthComponent, metrics.StateHealthy, "starting")

	w.logger.Info().
		Str("event", current.String()).
		Str("etag", w.token).
		Dur("retry_delay", w.retryDelay).
		Msg("Watching for host maintenance events")

	for w.state != StateTerminated {
		w.state = w.Step(ctx)
	}

	metrics.SetComponent(healthComponent, metrics.StateUnhealthy, w.err.Error())
	if errors.Is(w.err, context.Canceled) {
		w.logger.Info().Str("etag", w.token).Msg("Watch loop stopped")
	} else {
		w.logger.Error().Err(w.err).Str("etag", w.token).Msg("Watch loop terminated")
	}
	return w.err
}

// Step performs the work of the current state and returns the next one
func (w *Watcher) Step(ctx context.Context) State {
	switch w.state {
	case StatePolling:
		return w.poll(ctx)
	case StateBackoff:
		return w.backoff(ctx)
	case StateDispatching:
		return w.dispatch(ctx)
	default:
		return StateTerminated
	}
}

func (w *Watcher) poll(ctx context.Context) State {
	timer := metrics.NewTimer()
	resp, err := w.poller.Poll(ctx, w.token)
	timer.ObserveDuration(metrics.PollDuration)

	outcome := metadata.Classify(err)
	metrics.PollsTotal.WithLabelValues(outcome.String()).Inc()

	switch outcome {
	case metadata.OutcomeRetry:
		w.lastErr = err
		w.logger.Warn().Err(err).
			Str("etag", w.token).
			Msg("Metadata server unavailable, retrying")
		metrics.SetComponent(healthComponent, metrics.StateDegraded, err.Error())
		return StateBackoff

	case metadata.OutcomeFatal:
		w.err = fmt.Errorf("watching maintenance events: %w", err)
		return StateTerminated
	}

	if w.lastErr != nil {
		w.logger.Info().Msg("Metadata server reachable again")
		w.lastErr = nil
	}
	w.retry.Reset()
	metrics.SetComponent(healthComponent, metrics.StateHealthy, "")

	w.token = resp.ETag
	w.logger.Debug().
		Str("etag", resp.ETag).
		Str("body", resp.Body).
		Dur("waited", timer.Duration()).
		Msg("Received maintenance event")

	tr, changed := w.observer.Observe(resp.Body)
	if !changed {
		return StatePolling
	}
	w.pending = tr
	return StateDispatching
}

func (w *Watcher) backoff(ctx context.Context) State {
	d := backoff.WithContext(w.retry, ctx).NextBackOff()
	if d == backoff.Stop {
		w.err = fmt.Errorf("watching maintenance events: %w", ctx.Err())
		return StateTerminated
	}

	w.logger.Debug().Dur("retry_in", d).Str("etag", w.token).Msg("Backing off")
	if err := w.sleep(ctx, d); err != nil {
		w.err = fmt.Errorf("watching maintenance events: %w", err)
		return StateTerminated
	}
	return StatePolling
}

func (w *Watcher) dispatch(ctx context.Context) State {
	tr := w.pending
	w.pending = nil
	if tr == nil {
		return StatePolling
	}

	direction := "leave"
	if tr.Entering() {
		direction = "enter"
	}
	metrics.TransitionsTotal.WithLabelValues(direction).Inc()
	setMaintenanceGauge(tr.Current)

	w.logger.Info().
		Str("previous", tr.Previous.String()).
		Str("event", tr.Current.String()).
		Msg("Maintenance state changed")

	w.dispatcher.OnTransition(ctx, *tr)
	return StatePolling
}

func setMaintenanceGauge(event types.MaintenanceEvent) {
	if event.IsNone() {
		metrics.InMaintenance.Set(0)
	} else {
		metrics.InMaintenance.Set(1)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
