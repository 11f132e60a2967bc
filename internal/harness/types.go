package harness

import (
	"github.com/stuartofmt/pipInstall/internal/ir"
	"github.com/stuartofmt/pipInstall/internal/report"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every assertion held.
	Pass bool `json:"pass"`

	RunID    string              `json:"run_id,omitempty"`
	Requests []ir.InstallRequest `json:"requests"`
	Buckets  report.Buckets      `json:"buckets"`
	Warnings []string            `json:"warnings,omitempty"`

	// Installs, Probes and FreezeCount record what the simulated
	// environment was asked to do.
	Installs    []string `json:"installs"`
	Probes      []string `json:"probes"`
	FreezeCount int      `json:"freeze_count"`

	// Err is the runtime error that aborted the run, if any. Aborting is
	// not a harness failure; error assertions check it.
	Err error `json:"-"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		Requests: []ir.InstallRequest{},
		Errors:   []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Request returns the request for a 1-based manifest entry.
func (r *Result) Request(entry int) (ir.InstallRequest, bool) {
	if entry < 1 || entry > len(r.Requests) {
		return ir.InstallRequest{}, false
	}
	return r.Requests[entry-1], true
}
