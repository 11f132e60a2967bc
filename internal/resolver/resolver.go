// Package resolver classifies the installation state of a module inside a
// Python environment.
//
// Resolution short-circuits in a fixed order: builtin membership, then an
// import probe run by the venv interpreter, then a lookup in the frozen
// package listing. The import probe is authoritative whenever it reports the
// module installed; the listing only answers when the import probe could
// not.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/stuartofmt/pipInstall/internal/ir"
	"github.com/stuartofmt/pipInstall/internal/pyenv"
	"github.com/stuartofmt/pipInstall/internal/runner"
)

// Environment phrases the queries the resolver issues. *pyenv.Env
// implements it.
type Environment interface {
	ImportProbeCommand(module string) (string, error)
	FreezeCommand() string
	BuiltinsCommand() string
}

// QueryError reports an environment query whose result is required but
// could not be obtained.
type QueryError struct {
	Query string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("failed to query %s: %v", e.Query, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// IsQueryError returns true if err is a QueryError.
// Uses errors.As to handle wrapped errors.
func IsQueryError(err error) bool {
	var qe *QueryError
	return errors.As(err, &qe)
}

// Resolver runs probes through a runner.
type Resolver struct {
	runner runner.Runner
	logger *slog.Logger
}

// New creates a Resolver. A nil logger discards output.
func New(r runner.Runner, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Resolver{runner: r, logger: logger}
}

// Builtins returns the names of modules compiled into the venv interpreter.
func (r *Resolver) Builtins(ctx context.Context, env Environment) (map[string]bool, error) {
	out, err := r.runner.Run(ctx, env.BuiltinsCommand())
	if err != nil {
		return nil, &QueryError{Query: "builtin modules", Err: err}
	}
	return pyenv.ParseBuiltins(out), nil
}

// Listing captures a fresh frozen package listing. Failure is fatal to a
// run: without the listing no safe determination can be made.
func (r *Resolver) Listing(ctx context.Context, env Environment) (Listing, error) {
	out, err := r.runner.Run(ctx, env.FreezeCommand())
	if err != nil {
		return nil, &QueryError{Query: "frozen package listing", Err: err}
	}
	listing := ParseListing(out)
	r.logger.Debug("captured frozen listing", "packages", len(listing))
	return listing, nil
}

// Resolve classifies dep using its probe name.
func (r *Resolver) Resolve(ctx context.Context, dep ir.Dependency, env Environment, builtins map[string]bool, listing Listing) ir.ModuleState {
	return r.ResolveName(ctx, dep.ProbeName(), env, builtins, listing)
}

// ResolveName classifies the module called name.
func (r *Resolver) ResolveName(ctx context.Context, name string, env Environment, builtins map[string]bool, listing Listing) ir.ModuleState {
	importName := ir.ImportName(ir.CanonicalName(name))
	if builtins[name] || builtins[importName] {
		r.logger.Debug("module is built-in", "module", name)
		return ir.StateBuiltin()
	}

	if state, ok := r.importProbe(ctx, importName, env); ok {
		return state
	}

	if version, ok := listing.Lookup(name); ok {
		if version != "" {
			r.logger.Debug("listing has version", "module", name, "version", version)
		} else {
			r.logger.Debug("listing has module without version", "module", name)
		}
		return ir.StateInstalled(version)
	}
	r.logger.Debug("module is not available", "module", name)
	return ir.StateNotInstalled()
}

// importProbe returns ok=false when the probe is inconclusive or reports
// the module not importable.
func (r *Resolver) importProbe(ctx context.Context, module string, env Environment) (ir.ModuleState, bool) {
	cmd, err := env.ImportProbeCommand(module)
	if err != nil {
		r.logger.Debug("import probe unavailable", "module", module, "error", err)
		return ir.ModuleState{}, false
	}
	out, err := r.runner.Run(ctx, cmd)
	if err != nil {
		r.logger.Debug("import probe failed", "module", module, "error", err)
		return ir.ModuleState{}, false
	}

	detail, kind, ok := ParseProbeOutput(out)
	if !ok {
		r.logger.Info("unexpected import test result", "module", module, "output", out)
		return ir.ModuleState{}, false
	}
	switch kind {
	case pyenv.ProbeInstalledWithVersion:
		r.logger.Debug("module is installed with version", "module", module, "version", detail)
		return ir.StateInstalled(detail), true
	case pyenv.ProbeInstalledNoVersion:
		r.logger.Debug("module is installed without version", "module", module)
		return ir.ModuleState{Classification: ir.InstalledNoVersion}, true
	default:
		r.logger.Debug("module is not importable", "module", module, "reason", detail)
		return ir.ModuleState{}, false
	}
}

// ParseProbeOutput reads the last non-blank line of import test output as
// "<detail>, <TYPE>". ok is false when the line has no recognized TYPE.
func ParseProbeOutput(out string) (detail, kind string, ok bool) {
	lines := strings.Split(strings.TrimRight(out, "\r\n\t "), "\n")
	last := strings.TrimSpace(lines[len(lines)-1])
	i := strings.LastIndex(last, ",")
	if i < 0 {
		return "", "", false
	}
	detail = strings.TrimSpace(last[:i])
	kind = strings.TrimSpace(last[i+1:])
	switch kind {
	case pyenv.ProbeInstalledWithVersion, pyenv.ProbeInstalledNoVersion, pyenv.ProbeNotInstalled:
		return detail, kind, true
	}
	return "", "", false
}
