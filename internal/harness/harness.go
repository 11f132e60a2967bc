package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/stuartofmt/pipInstall/internal/engine"
	"github.com/stuartofmt/pipInstall/internal/pyenv"
	"github.com/stuartofmt/pipInstall/internal/report"
	"github.com/stuartofmt/pipInstall/internal/testutil"
)

// Harness is the scenario execution environment: a prepared venv
// directory, the simulated interpreter behind it and a deterministic
// engine.
type Harness struct {
	env    *pyenv.Env
	python *testutil.FakePython
	engine *engine.Engine
	logger *slog.Logger
}

// New prepares a venv under dir and seeds the simulated interpreter from
// the scenario environment.
func New(ctx context.Context, scenario *Scenario, dir string) (*Harness, error) {
	opts := pyenv.DefaultOptions()
	opts.GOOS = "linux"
	env := pyenv.New(dir, opts)

	py := testutil.NewFakePython(env.Root())
	if err := py.MkdirSite(); err != nil {
		return nil, fmt.Errorf("failed to create site-packages: %w", err)
	}
	if _, err := env.PrepareSite(ctx, py); err != nil {
		return nil, fmt.Errorf("failed to prepare site-packages: %w", err)
	}
	seed(py, scenario.Environment)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests
	eng := engine.New(py, env, logger,
		engine.WithClock(testutil.NewDeterministicClock()),
		engine.WithIDGenerator(engine.NewFixedGenerator(scenario.RunID)),
		engine.WithNow(testutil.FixedNow),
		engine.WithVerify(scenario.Environment.Verify),
	)

	return &Harness{env: env, python: py, engine: eng, logger: logger}, nil
}

func seed(py *testutil.FakePython, e Environment) {
	py.SetBuiltins(e.Builtins...)
	for module, version := range e.Imports {
		py.AddImport(module, version)
	}
	for _, module := range e.Broken {
		py.AddBroken(module)
	}
	for dist, version := range e.Frozen {
		py.AddFrozen(dist, version)
	}
	for uri, step := range e.Installs {
		py.OnInstall(uri, step.effect())
	}
	py.FailFreeze = e.FailFreeze
}

// Run executes a scenario in a fresh venv under dir and evaluates its
// assertions.
//
// A runtime error from the engine is recorded on the result rather than
// returned; only failures to set up the harness are returned as errors.
func Run(ctx context.Context, scenario *Scenario, dir string) (*Result, error) {
	h, err := New(ctx, scenario, dir)
	if err != nil {
		return nil, err
	}
	return h.Execute(ctx, scenario)
}

// Execute runs the scenario manifest through the engine.
func (h *Harness) Execute(ctx context.Context, scenario *Scenario) (*Result, error) {
	// calls made while preparing the venv are not part of the run
	baseInstalls := len(h.python.Installs())
	baseProbes := len(h.python.Probes())
	baseFreezes := h.python.FreezeCount()

	result := NewResult()
	res, err := h.engine.Run(ctx, scenario.Manifest)
	var re *engine.RuntimeError
	switch {
	case err == nil:
		result.RunID = res.RunID
		result.Requests = res.Requests
		result.Warnings = res.Warnings
	case errors.As(err, &re):
		result.Err = err
	default:
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}
	result.Buckets = report.Aggregate(result.Requests)

	result.Installs = h.python.Installs()[baseInstalls:]
	result.Probes = h.python.Probes()[baseProbes:]
	result.FreezeCount = h.python.FreezeCount() - baseFreezes

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	h.logger.Debug("scenario finished", "name", scenario.Name, "pass", result.Pass)
	return result, nil
}
