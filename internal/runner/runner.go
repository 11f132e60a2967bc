// Package runner executes external commands on behalf of the resolver and
// the install engine.
//
// Every probe and install goes through the single Runner interface so tests
// can substitute a simulated environment. Command lines are plain strings;
// Join quotes arguments and ExecRunner splits them back into argv with
// POSIX shell rules, without ever starting a shell.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"mvdan.cc/sh/v3/shell"
	"mvdan.cc/sh/v3/syntax"
)

// Runner runs one command line to completion and returns its standard output.
//
// A non-nil error means no usable result was obtained: the command could not
// be started, exited non-zero, or timed out. A command that exits zero but
// reports an application-level problem in its output is not an error.
type Runner interface {
	Run(ctx context.Context, cmdline string) (string, error)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, cmdline string) (string, error)

// Run calls f(ctx, cmdline).
func (f RunnerFunc) Run(ctx context.Context, cmdline string) (string, error) {
	return f(ctx, cmdline)
}

// CommandError reports a command that ran but did not succeed.
type CommandError struct {
	Cmdline  string
	ExitCode int // -1 when the process never started or was killed
	Stdout   string
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("command failed (exit %d): %s", e.ExitCode, e.Cmdline)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + lastLine(s)
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ExecRunner runs commands as child processes.
type ExecRunner struct {
	// Timeout bounds each command. Zero means no timeout.
	Timeout time.Duration

	// Env is the child environment. Nil inherits the current process env.
	Env []string

	// Dir is the working directory. Empty means the current directory.
	Dir string

	Logger *slog.Logger
}

// NewExecRunner creates an ExecRunner logging to logger.
func NewExecRunner(logger *slog.Logger, timeout time.Duration) *ExecRunner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &ExecRunner{Timeout: timeout, Logger: logger}
}

// Run splits cmdline into fields and executes it.
func (r *ExecRunner) Run(ctx context.Context, cmdline string) (string, error) {
	argv, err := Split(cmdline)
	if err != nil {
		return "", &CommandError{Cmdline: cmdline, ExitCode: -1, Err: err}
	}
	if len(argv) == 0 {
		return "", &CommandError{Cmdline: cmdline, ExitCode: -1, Err: errors.New("empty command")}
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Env = r.Env
	cmd.Dir = r.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger().Debug("running command", "cmd", cmdline)
	runErr := cmd.Run()
	if runErr != nil {
		code := -1
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			code = exitErr.ExitCode()
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			runErr = fmt.Errorf("%w: %w", ctxErr, runErr)
		}
		r.logger().Debug("command failed", "cmd", cmdline, "exit", code, "stderr", stderr.String())
		return stdout.String(), &CommandError{
			Cmdline:  cmdline,
			ExitCode: code,
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
			Err:      runErr,
		}
	}
	return stdout.String(), nil
}

func (r *ExecRunner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return r.Logger
}

// Join quotes each argument for a POSIX shell and joins them with spaces.
func Join(args ...string) (string, error) {
	quoted := make([]string, len(args))
	for i, a := range args {
		q, err := syntax.Quote(a, syntax.LangPOSIX)
		if err != nil {
			return "", fmt.Errorf("quote argument %q: %w", a, err)
		}
		quoted[i] = q
	}
	return strings.Join(quoted, " "), nil
}

// MustJoin is like Join but panics on error. Use it only for fixed arguments
// and paths; dependency URIs go through Join.
func MustJoin(args ...string) string {
	s, err := Join(args...)
	if err != nil {
		panic(err)
	}
	return s
}

// Split parses a command line into argv using POSIX shell field rules.
// Variables are not expanded.
func Split(cmdline string) ([]string, error) {
	return shell.Fields(cmdline, func(string) string { return "" })
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	return lines[len(lines)-1]
}
