package orchestrator

import (
	"context"
	"strings"

	"github.com/cuemby/maintwatch/pkg/action"
	"github.com/cuemby/maintwatch/pkg/metrics"
	"github.com/cuemby/maintwatch/pkg/types"
	"github.com/rs/zerolog"
)

// DefaultAsinfoPath is where the database info tool is installed
const DefaultAsinfoPath = "/usr/bin/asinfo"

// Info commands sent with asinfo -v
const (
	VerbQuiesce     = "quiesce:"
	VerbQuiesceUndo = "quiesce-undo:"
	VerbRecluster   = "recluster:"
)

// Action names used in logs and metrics
const (
	ActionDrain     = "drain"
	ActionUndrain   = "undrain"
	ActionRecluster = "recluster"
)

// Config configures the orchestrator
type Config struct {
	// AsinfoPath is the control program (default DefaultAsinfoPath)
	AsinfoPath string

	// Options is an operator-supplied string, split on whitespace and
	// appended to every command (e.g. "-h 10.0.0.5 -U admin -P secret")
	Options string
}

// Orchestrator drains or undrains the local node on each transition and
// then asks the cluster to rebalance
type Orchestrator struct {
	runner  action.Runner
	asinfo  string
	options []string
	logger  zerolog.Logger
}

// New creates an orchestrator
func New(runner action.Runner, cfg Config, logger zerolog.Logger) *Orchestrator {
	asinfo := cfg.AsinfoPath
	if asinfo == "" {
		asinfo = DefaultAsinfoPath
	}
	return &Orchestrator{
		runner:  runner,
		asinfo:  asinfo,
		options: strings.Fields(cfg.Options),
		logger:  logger,
	}
}

// Command builds the argument vector for an info verb
func (o *Orchestrator) Command(verb string) []string {
	argv := make([]string, 0, 3+len(o.options))
	argv = append(argv, o.asinfo, "-v", verb)
	return append(argv, o.options...)
}

// OnTransition runs drain (entering maintenance) or undrain (leaving it),
// followed by recluster. Recluster runs whatever the first command's
// outcome. Results are returned in execution order.
//
// Cancellation of ctx does not interrupt the sequence: the event has already
// been recorded as seen, so a half-run sequence would never be retried. Each
// command is still bounded by the runner's own timeout.
func (o *Orchestrator) OnTransition(ctx context.Context, tr types.Transition) []action.Result {
	ctx = context.WithoutCancel(ctx)
	logger := o.logger.With().
		Str("previous", tr.Previous.String()).
		Str("event", tr.Current.String()).
		Logger()

	name, verb := ActionUndrain, VerbQuiesceUndo
	if tr.Entering() {
		name, verb = ActionDrain, VerbQuiesce
		if !tr.Current.IsKnown() {
			logger.Warn().Msg("Unrecognized maintenance event, draining anyway")
		}
		logger.Info().Msg("Host maintenance starting, draining node")
	} else {
		logger.Info().Msg("Host maintenance finished, undraining node")
	}

	results := make([]action.Result, 0, 2)
	results = append(results, o.run(ctx, logger, name, verb))
	results = append(results, o.run(ctx, logger, ActionRecluster, VerbRecluster))
	return results
}

func (o *Orchestrator) run(ctx context.Context, logger zerolog.Logger, name, verb string) action.Result {
	timer := metrics.NewTimer()
	result := o.runner.Run(ctx, o.Command(verb))
	timer.ObserveDurationVec(metrics.ActionDuration, name)

	outcome := "success"
	if !result.Success() {
		outcome = "failure"
	}
	metrics.ActionsTotal.WithLabelValues(name, outcome).Inc()

	evt := logger.Info()
	if !result.Success() {
		evt = logger.Error().Err(result.Err)
	}
	evt.Str("action", name).
		Int("exit_code", result.ExitCode).
		Str("stdout", result.Stdout).
		Str("stderr", result.Stderr).
		Time("started_at", result.StartedAt).
		Dur("duration", result.Duration).
		Msg("Control command finished")

	return result
}
