package engine

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/stuartofmt/pipInstall/internal/ir"
	"github.com/stuartofmt/pipInstall/internal/parser"
	"github.com/stuartofmt/pipInstall/internal/resolver"
	"github.com/stuartofmt/pipInstall/internal/runner"
)

// Environment is what the engine needs from the target environment: the
// resolver's queries plus the install command. *pyenv.Env implements it.
type Environment interface {
	resolver.Environment
	InstallCommand(dep ir.Dependency) (string, error)
}

// Engine decides, installs and re-checks dependencies in one environment.
//
// All collaborator calls are synchronous and issued from the calling
// goroutine in manifest order. An Engine is not safe for concurrent Runs.
type Engine struct {
	runner   runner.Runner
	env      Environment
	resolver *resolver.Resolver
	logger   *slog.Logger
	clock    Sequencer
	ids      IDGenerator
	now      func() time.Time
	verify   bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the sequencer that stamps requests.
func WithClock(c Sequencer) Option {
	return func(e *Engine) { e.clock = c }
}

// WithIDGenerator sets the run id generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) { e.ids = g }
}

// WithNow sets the wall clock used for run timestamps.
func WithNow(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithVerify toggles the post-install constraint check (default on).
func WithVerify(verify bool) Option {
	return func(e *Engine) { e.verify = verify }
}

// New creates an Engine running commands through r against env.
func New(r runner.Runner, env Environment, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	e := &Engine{
		runner:   r,
		env:      env,
		resolver: resolver.New(r, logger),
		logger:   logger,
		clock:    NewClock(),
		ids:      UUIDv7Generator{},
		now:      time.Now,
		verify:   true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Resolver returns the engine's state resolver.
func (e *Engine) Resolver() *resolver.Resolver {
	return e.resolver
}

// ParseAll parses every manifest entry before anything else happens. The
// first unparsable entry aborts with a SPEC_SYNTAX RuntimeError.
func (e *Engine) ParseAll(lines []string) ([]ir.Dependency, error) {
	deps := make([]ir.Dependency, 0, len(lines))
	for i, line := range lines {
		dep, err := parser.Parse(line)
		if err != nil {
			return nil, NewSpecSyntaxError(i+1, line, err)
		}
		e.logger.Debug("parsed dependency",
			"entry", i+1,
			"package", dep.Package,
			"comparator", dep.Comparator.Label(),
			"version", dep.Version,
			"kind", dep.Kind.String())
		deps = append(deps, dep)
	}
	return deps, nil
}

// Action is the decision for one dependency.
type Action int

const (
	ActionIgnore Action = iota // builtin; never installed
	ActionSkip                 // already installed, no constraint requested
	ActionInstall
)

func (a Action) String() string {
	switch a {
	case ActionIgnore:
		return "ignore"
	case ActionSkip:
		return "skip"
	default:
		return "install"
	}
}

// MarshalText encodes the action by name for JSON output.
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// Decide applies the decision table to dep in state before.
//
// Builtins are ignored whatever was requested. Source control URIs are
// always installed. A registry dependency already present is skipped unless
// a version constraint was requested.
func Decide(dep ir.Dependency, before ir.ModuleState) Action {
	switch before.Classification {
	case ir.Builtin:
		return ActionIgnore
	case ir.InstalledWithVersion, ir.InstalledNoVersion:
		if dep.Kind == ir.KindRegistry && !dep.HasConstraint() {
			return ActionSkip
		}
		return ActionInstall
	case ir.NotInstalled:
		return ActionInstall
	default:
		return ActionInstall
	}
}

// Process handles one dependency end to end: decide, install if needed,
// refresh the frozen listing and resolve the state after install.
//
// An install failure is recorded on the returned request, not returned as
// an error. The error is non-nil only when the refreshed listing cannot be
// obtained.
func (e *Engine) Process(ctx context.Context, seq int, dep ir.Dependency, before ir.ModuleState, builtins map[string]bool) (ir.InstallRequest, error) {
	req := ir.NewInstallRequest(seq, dep, before)
	switch Decide(dep, before) {
	case ActionIgnore:
		return e.resolve(req, ir.OutcomeBuiltin, nil, "")
	case ActionSkip:
		return e.resolve(req, ir.OutcomeSkipped, nil, "")
	}

	if err := e.install(ctx, dep); err != nil {
		return e.resolve(req, ir.OutcomeFailed, nil, err.Error())
	}

	listing, err := e.resolver.Listing(ctx, e.env)
	if err != nil {
		return req, NewEnvironmentQueryError("", err)
	}
	after := e.resolver.Resolve(ctx, dep, e.env, builtins, listing)
	return e.resolve(req, ir.OutcomeSucceeded, &after, "")
}

// install runs the force-reinstall command for dep.
func (e *Engine) install(ctx context.Context, dep ir.Dependency) error {
	e.logger.Info("attempting install", "uri", dep.URI())
	cmd, err := e.env.InstallCommand(dep)
	if err != nil {
		return err
	}
	out, err := e.runner.Run(ctx, cmd)
	if err != nil {
		e.logger.Debug("install failed", "uri", dep.URI(), "error", err)
		return err
	}
	e.logger.Debug("install command finished", "cmd", cmd, "output", out)
	return nil
}

func (e *Engine) resolve(req ir.InstallRequest, outcome ir.Outcome, after *ir.ModuleState, detail string) (ir.InstallRequest, error) {
	resolved, err := req.Resolve(outcome, after, detail)
	if err != nil {
		return req, &RuntimeError{Code: ErrCodeInvalidTransition, Message: "cannot resolve request", Entry: req.Seq, Err: err}
	}
	return resolved, nil
}
