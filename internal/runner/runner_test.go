package runner

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinSplitRoundTrip(t *testing.T) {
	args := []string{
		"/tmp/venv dir/bin/python",
		"-m", "pip", "install",
		"uvicorn[standard]>=0.30",
		"git+https://github.com/pallets/flask.git@2.3.0#egg=flask",
		"it's",
		"$HOME",
		"",
	}
	line, err := Join(args...)
	require.NoError(t, err)

	got, err := Split(line)
	require.NoError(t, err)
	assert.Equal(t, args, got)
}

func TestSplitDoesNotExpandVariables(t *testing.T) {
	t.Setenv("PIPINSTALL_TEST_VAR", "expanded")
	got, err := Split(`echo $PIPINSTALL_TEST_VAR plain`)
	require.NoError(t, err)
	assert.Equal(t, []string{"echo", "plain"}, got)
}

func TestSplitRejectsUnterminatedQuote(t *testing.T) {
	_, err := Split(`python -c 'print(1)`)
	assert.Error(t, err)
}

func TestMustJoinPanicsOnNUL(t *testing.T) {
	assert.Panics(t, func() { MustJoin("a\x00b") })
}

func TestRunnerFunc(t *testing.T) {
	var seen string
	r := RunnerFunc(func(_ context.Context, cmdline string) (string, error) {
		seen = cmdline
		return "ok", nil
	})
	out, err := r.Run(context.Background(), "python -V")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, "python -V", seen)
}

func TestExecRunnerCapturesStdout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses POSIX sh")
	}
	r := NewExecRunner(nil, 0)
	out, err := r.Run(context.Background(), MustJoin("sh", "-c", "echo hello; echo world"))
	require.NoError(t, err)
	assert.Equal(t, "hello\nworld\n", out)
}

func TestExecRunnerNonZeroExit(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses POSIX sh")
	}
	r := NewExecRunner(nil, 0)
	out, err := r.Run(context.Background(), MustJoin("sh", "-c", "echo partial; echo boom >&2; exit 3"))
	require.Error(t, err)

	var ce *CommandError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, 3, ce.ExitCode)
	assert.Equal(t, "partial\n", out)
	assert.Contains(t, ce.Error(), "exit 3")
	assert.Contains(t, ce.Error(), "boom")
}

func TestExecRunnerMissingExecutable(t *testing.T) {
	r := NewExecRunner(nil, 0)
	_, err := r.Run(context.Background(), "pipinstall-definitely-not-a-real-binary --flag")
	require.Error(t, err)

	var ce *CommandError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, -1, ce.ExitCode)
}

func TestExecRunnerEmptyCommand(t *testing.T) {
	r := NewExecRunner(nil, 0)
	_, err := r.Run(context.Background(), "   ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty command")
}

func TestExecRunnerTimeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses POSIX sleep")
	}
	r := NewExecRunner(nil, 50*time.Millisecond)
	_, err := r.Run(context.Background(), "sleep 5")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
