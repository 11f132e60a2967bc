package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/stuartofmt/pipInstall/internal/ir"
	"github.com/stuartofmt/pipInstall/internal/resolver"
)

// Result is the outcome of one Run.
type Result struct {
	RunID      string              `json:"run_id"`
	Digest     string              `json:"manifest_digest"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt time.Time           `json:"finished_at"`
	Requests   []ir.InstallRequest `json:"requests"`

	// Warnings are post-install constraint mismatches. They never change
	// an outcome.
	Warnings []string `json:"warnings,omitempty"`
}

// Failed returns the number of failed requests.
func (r *Result) Failed() int {
	n := 0
	for _, req := range r.Requests {
		if req.Outcome == ir.OutcomeFailed {
			n++
		}
	}
	return n
}

// OK reports whether every request avoided failure.
func (r *Result) OK() bool {
	return r.Failed() == 0
}

// Run processes a flat manifest list.
//
// Every entry is parsed before any environment query, so a syntax error
// aborts before anything is installed. Pre-install state is resolved for
// all entries against one frozen listing, then each entry is decided and
// installed in order. If anything was installed the listing is refreshed
// once and every succeeded request gets its after-state from it.
//
// Install failures are recorded per request. Parse failures and failed
// environment queries abort with a RuntimeError.
func (e *Engine) Run(ctx context.Context, lines []string) (*Result, error) {
	deps, err := e.ParseAll(lines)
	if err != nil {
		return nil, err
	}
	digest, err := ir.ManifestDigest(deps)
	if err != nil {
		return nil, fmt.Errorf("digest manifest: %w", err)
	}

	res := &Result{RunID: e.ids.Generate(), Digest: digest, StartedAt: e.now()}
	e.logger.Debug("run started", "run", res.RunID, "entries", len(deps))

	builtins, listing, err := e.snapshot(ctx, res.RunID)
	if err != nil {
		return nil, err
	}

	e.logger.Info("checking installed versions before install")
	befores := make([]ir.ModuleState, len(deps))
	for i, dep := range deps {
		befores[i] = e.resolver.Resolve(ctx, dep, e.env, builtins, listing)
	}

	requests := make([]ir.InstallRequest, len(deps))
	var installed []int
	for i, dep := range deps {
		req := ir.NewInstallRequest(int(e.clock.Next()), dep, befores[i])
		switch Decide(dep, befores[i]) {
		case ActionIgnore:
			req, err = e.resolve(req, ir.OutcomeBuiltin, nil, "")
		case ActionSkip:
			req, err = e.resolve(req, ir.OutcomeSkipped, nil, "")
		case ActionInstall:
			if ierr := e.install(ctx, dep); ierr != nil {
				req, err = e.resolve(req, ir.OutcomeFailed, nil, ierr.Error())
			} else {
				installed = append(installed, i)
			}
		}
		if err != nil {
			return nil, err
		}
		requests[i] = req
	}

	if len(installed) > 0 {
		e.logger.Info("checking installed versions after install")
		listing, err = e.resolver.Listing(ctx, e.env)
		if err != nil {
			return nil, NewEnvironmentQueryError(res.RunID, err)
		}
		for _, i := range installed {
			after := e.resolver.Resolve(ctx, deps[i], e.env, builtins, listing)
			requests[i], err = e.resolve(requests[i], ir.OutcomeSucceeded, &after, "")
			if err != nil {
				return nil, err
			}
			if e.verify {
				if w := VerifyConstraint(deps[i], after); w != "" {
					e.logger.Warn(w)
					res.Warnings = append(res.Warnings, w)
				}
			}
		}
	}

	res.Requests = requests
	res.FinishedAt = e.now()
	return res, nil
}

// snapshot captures the builtins set and the initial frozen listing.
func (e *Engine) snapshot(ctx context.Context, runID string) (map[string]bool, resolver.Listing, error) {
	builtins, err := e.resolver.Builtins(ctx, e.env)
	if err != nil {
		return nil, nil, NewEnvironmentQueryError(runID, err)
	}
	listing, err := e.resolver.Listing(ctx, e.env)
	if err != nil {
		return nil, nil, NewEnvironmentQueryError(runID, err)
	}
	return builtins, listing, nil
}

// PlannedAction is one line of a dry run.
type PlannedAction struct {
	Entry      int            `json:"entry"`
	Dependency ir.Dependency  `json:"dependency"`
	Before     ir.ModuleState `json:"before"`
	Action     Action         `json:"action"`
	Command    string         `json:"command,omitempty"`
}

// Plan resolves pre-install state and reports what Run would do, without
// installing anything.
func (e *Engine) Plan(ctx context.Context, lines []string) ([]PlannedAction, error) {
	deps, err := e.ParseAll(lines)
	if err != nil {
		return nil, err
	}
	builtins, listing, err := e.snapshot(ctx, "")
	if err != nil {
		return nil, err
	}
	plan := make([]PlannedAction, len(deps))
	for i, dep := range deps {
		before := e.resolver.Resolve(ctx, dep, e.env, builtins, listing)
		p := PlannedAction{Entry: i + 1, Dependency: dep, Before: before, Action: Decide(dep, before)}
		if p.Action == ActionInstall {
			if p.Command, err = e.env.InstallCommand(dep); err != nil {
				return nil, NewSpecSyntaxError(i+1, lines[i], err)
			}
		}
		plan[i] = p
	}
	return plan, nil
}
