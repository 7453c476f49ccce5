package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cuemby/maintwatch/pkg/action"
	"github.com/cuemby/maintwatch/pkg/metrics"
	"github.com/cuemby/maintwatch/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingRunner records every command and fails the ones listed in fail
type recordingRunner struct {
	calls [][]string
	fail  map[string]bool
}

func (r *recordingRunner) Run(ctx context.Context, argv []string) action.Result {
	r.calls = append(r.calls, argv)
	if r.fail[argv[2]] {
		return action.Result{Command: argv, ExitCode: 1, Stderr: "ERROR::not authorized"}
	}
	return action.Result{Command: argv, ExitCode: 0, Stdout: "ok"}
}

func newTestOrchestrator(runner action.Runner, options string) *Orchestrator {
	return New(runner, Config{AsinfoPath: "/opt/bin/asinfo", Options: options}, zerolog.Nop())
}

func TestOnTransition_EnteringDrainsThenReclusters(t *testing.T) {
	runner := &recordingRunner{}
	orch := newTestOrchestrator(runner, "-h 10.0.0.5  -U admin")

	results := orch.OnTransition(context.Background(), types.Transition{
		Previous: types.None,
		Current:  types.Event(types.EventMigrate),
	})

	require.Len(t, runner.calls, 2)
	assert.Equal(t, []string{"/opt/bin/asinfo", "-v", "quiesce:", "-h", "10.0.0.5", "-U", "admin"}, runner.calls[0])
	assert.Equal(t, []string{"/opt/bin/asinfo", "-v", "recluster:", "-h", "10.0.0.5", "-U", "admin"}, runner.calls[1])
	assert.Len(t, results, 2)
}

func TestOnTransition_LeavingUndrainsThenReclusters(t *testing.T) {
	runner := &recordingRunner{}
	orch := newTestOrchestrator(runner, "")

	orch.OnTransition(context.Background(), types.Transition{
		Previous: types.Event(types.EventTerminate),
		Current:  types.None,
	})

	require.Len(t, runner.calls, 2)
	assert.Equal(t, []string{"/opt/bin/asinfo", "-v", "quiesce-undo:"}, runner.calls[0])
	assert.Equal(t, []string{"/opt/bin/asinfo", "-v", "recluster:"}, runner.calls[1])
}

func TestOnTransition_UnknownEventDrains(t *testing.T) {
	runner := &recordingRunner{}
	orch := newTestOrchestrator(runner, "")

	orch.OnTransition(context.Background(), types.Transition{
		Previous: types.None,
		Current:  types.Event("SOMETHING_NEW"),
	})

	require.Len(t, runner.calls, 2)
	assert.Equal(t, VerbQuiesce, runner.calls[0][2])
}

// TestOnTransition_ReclusterIsUnconditional tests that a failing drain or
// undrain never skips the rebalance
func TestOnTransition_ReclusterIsUnconditional(t *testing.T) {
	tests := []struct {
		name  string
		tr    types.Transition
		first string
	}{
		{
			name:  "drain fails",
			tr:    types.Transition{Previous: types.None, Current: types.Event(types.EventMigrate)},
			first: VerbQuiesce,
		},
		{
			name:  "undrain fails",
			tr:    types.Transition{Previous: types.Event(types.EventMigrate), Current: types.None},
			first: VerbQuiesceUndo,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &recordingRunner{fail: map[string]bool{tt.first: true}}
			orch := newTestOrchestrator(runner, "")

			results := orch.OnTransition(context.Background(), tt.tr)

			require.Len(t, results, 2)
			assert.False(t, results[0].Success())
			assert.Equal(t, VerbRecluster, runner.calls[1][2])
			assert.True(t, results[1].Success())
		})
	}
}

func TestOnTransition_RealRunnerMissingBinary(t *testing.T) {
	orch := New(action.NewExecRunner(0), Config{AsinfoPath: "/nonexistent/asinfo"}, zerolog.Nop())

	results := orch.OnTransition(context.Background(), types.Transition{
		Previous: types.None,
		Current:  types.Event(types.EventMigrate),
	})

	require.Len(t, results, 2)
	for _, r := range results {
		assert.False(t, r.Success())
	}
}

func TestCommand_DefaultPath(t *testing.T) {
	orch := New(&recordingRunner{}, Config{}, zerolog.Nop())
	assert.Equal(t, []string{DefaultAsinfoPath, "-v", VerbRecluster}, orch.Command(VerbRecluster))
}

// TestOnTransition_CancelDuringDrainStillReclusters tests that a shutdown
// arriving while drain runs lets the drain finish and recluster follow
func TestOnTransition_CancelDuringDrainStillReclusters(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "calls.log")
	script := filepath.Join(dir, "asinfo")
	body := "#!/bin/sh\n" +
		"if [ \"$2\" = \"quiesce:\" ]; then sleep 0.3; fi\n" +
		"echo \"$2\" >> " + logPath + "\n"
	require.NoError(t, os.WriteFile(script, []byte(body), 0755))

	orch := New(action.NewExecRunner(5*time.Second), Config{AsinfoPath: script}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	defer cancel()

	results := orch.OnTransition(ctx, types.Transition{
		Previous: types.None,
		Current:  types.Event(types.EventMigrate),
	})

	require.Len(t, results, 2)
	assert.True(t, results[0].Success(), "drain was interrupted: %v", results[0].Err)
	assert.True(t, results[1].Success(), "recluster did not run: %v", results[1].Err)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Equal(t, "quiesce:\nrecluster:\n", string(data))
}

func actionSamples(t *testing.T, name string) uint64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, metrics.ActionDuration.WithLabelValues(name).(prometheus.Metric).Write(m))
	return m.GetHistogram().GetSampleCount()
}

func TestOnTransition_ObservesActionDuration(t *testing.T) {
	undrain := actionSamples(t, ActionUndrain)
	recluster := actionSamples(t, ActionRecluster)
	orch := newTestOrchestrator(&recordingRunner{}, "")

	orch.OnTransition(context.Background(), types.Transition{
		Previous: types.Event(types.EventMigrate),
		Current:  types.None,
	})

	assert.Equal(t, undrain+1, actionSamples(t, ActionUndrain))
	assert.Equal(t, recluster+1, actionSamples(t, ActionRecluster))
}
