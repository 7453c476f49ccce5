package action

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Result is the outcome of one command invocation
type Result struct {
	// Command is the argument vector that was run
	Command []string

	// ExitCode is the process exit status, or -1 if it never ran
	ExitCode int

	Stdout string
	Stderr string

	// Err is set when the command could not be started or did not exit
	// cleanly. A plain non-zero exit is reported through ExitCode only.
	Err error

	StartedAt time.Time
	Duration  time.Duration
}

// Success reports whether the command ran and exited 0
func (r Result) Success() bool {
	return r.Err == nil && r.ExitCode == 0
}

// Runner executes external commands. Run never fails: every outcome is
// reported through Result.
type Runner interface {
	Run(ctx context.Context, argv []string) Result
}

// ExecRunner runs commands on the host with os/exec
type ExecRunner struct {
	// Timeout bounds a single invocation. Zero means no limit.
	Timeout time.Duration
}

// NewExecRunner creates a runner with the given per-command timeout
func NewExecRunner(timeout time.Duration) *ExecRunner {
	return &ExecRunner{Timeout: timeout}
}

// Run executes argv and captures its output
func (e *ExecRunner) Run(ctx context.Context, argv []string) Result {
	start := time.Now()
	result := Result{
		Command:   argv,
		ExitCode:  -1,
		StartedAt: start,
	}

	if len(argv) == 0 {
		result.Err = errors.New("no command specified")
		return result
	}

	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result.Duration = time.Since(start)
	result.Stdout = strings.TrimSpace(stdout.String())
	result.Stderr = strings.TrimSpace(stderr.String())

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		result.ExitCode = 0
	case errors.As(err, &exitErr) && exitErr.Exited():
		result.ExitCode = exitErr.ExitCode()
	default:
		// Not started, killed by a signal, or timed out
		result.Err = fmt.Errorf("command %q failed: %w", argv[0], err)
		if exitErr != nil {
			result.ExitCode = exitErr.ExitCode()
		}
	}

	return result
}
