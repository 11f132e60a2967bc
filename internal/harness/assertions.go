package harness

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/stuartofmt/pipInstall/internal/engine"
	"github.com/stuartofmt/pipInstall/internal/report"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Requests []string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if len(e.Requests) > 0 {
		fmt.Fprintf(&buf, "\nRequests:\n")
		for i, r := range e.Requests {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, r)
		}
	}
	return buf.String()
}

// EvaluateAssertions runs every assertion and returns the failure
// messages. Once the run aborted only error assertions are meaningful;
// the others still run against the empty result.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string
	for _, a := range assertions {
		if err := evaluate(result, a); err != nil {
			failures = append(failures, err.Error())
		}
	}
	if result.Err != nil && !slices.ContainsFunc(assertions, func(a Assertion) bool { return a.Type == AssertError }) {
		failures = append(failures, fmt.Sprintf("run aborted unexpectedly: %v", result.Err))
	}
	return failures
}

func evaluate(result *Result, a Assertion) error {
	switch a.Type {
	case AssertOutcome:
		return assertOutcome(result, a)
	case AssertLine:
		return assertLine(result, a)
	case AssertInstalls:
		return assertInstalls(result, a)
	case AssertNotProbed:
		if slices.Contains(result.Probes, a.Module) {
			return &AssertionError{Type: a.Type, Expected: a.Module + " never probed", Actual: "probed " + strings.Join(result.Probes, ", ")}
		}
		return nil
	case AssertFreezeCount:
		if result.FreezeCount != a.Count {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%d freeze queries", a.Count), Actual: fmt.Sprintf("%d", result.FreezeCount)}
		}
		return nil
	case AssertSummary:
		return assertSummary(result, a)
	case AssertError:
		return assertError(result, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func describe(result *Result) []string {
	out := make([]string, len(result.Requests))
	for i, r := range result.Requests {
		out[i] = fmt.Sprintf("%s %s", r.Outcome, report.Line(r))
	}
	return out
}

func assertOutcome(result *Result, a Assertion) error {
	req, ok := result.Request(a.Entry)
	if !ok {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("entry %d %s", a.Entry, a.Outcome), Actual: "no such request", Requests: describe(result)}
	}
	if req.Outcome.String() != a.Outcome {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("entry %d %s", a.Entry, a.Outcome),
			Actual:   req.Outcome.String(),
			Requests: describe(result),
		}
	}
	return nil
}

func assertLine(result *Result, a Assertion) error {
	req, ok := result.Request(a.Entry)
	if !ok {
		return &AssertionError{Type: a.Type, Expected: a.Text, Actual: "no such request", Requests: describe(result)}
	}
	if got := report.Line(req); got != a.Text {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%q", a.Text), Actual: fmt.Sprintf("%q", got)}
	}
	return nil
}

func assertInstalls(result *Result, a Assertion) error {
	if slices.Equal(result.Installs, a.URIs) || (len(result.Installs) == 0 && len(a.URIs) == 0) {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: "[" + strings.Join(a.URIs, ", ") + "]",
		Actual:   "[" + strings.Join(result.Installs, ", ") + "]",
	}
}

func assertSummary(result *Result, a Assertion) error {
	got := result.Buckets.Summary()
	want := a.Summary
	if got.Builtin == want.Builtin && got.Skipped == want.Skipped && got.Succeeded == want.Succeeded && got.Failed == want.Failed {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("builtin=%d skipped=%d succeeded=%d failed=%d", want.Builtin, want.Skipped, want.Succeeded, want.Failed),
		Actual:   fmt.Sprintf("builtin=%d skipped=%d succeeded=%d failed=%d", got.Builtin, got.Skipped, got.Succeeded, got.Failed),
		Requests: describe(result),
	}
}

func assertError(result *Result, a Assertion) error {
	var re *engine.RuntimeError
	if !errors.As(result.Err, &re) {
		return &AssertionError{Type: a.Type, Expected: "run aborted with " + a.Code, Actual: "run completed", Requests: describe(result)}
	}
	if string(re.Code) != a.Code || (a.Entry != 0 && re.Entry != a.Entry) {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s at entry %d", a.Code, a.Entry),
			Actual:   fmt.Sprintf("%s at entry %d", re.Code, re.Entry),
		}
	}
	return nil
}
