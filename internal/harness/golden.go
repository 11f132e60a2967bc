package harness

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/stuartofmt/pipInstall/internal/engine"
	"github.com/stuartofmt/pipInstall/internal/report"
)

// Snapshot renders a result as deterministic text: the install commands
// followed by the uncolored report, or the abort reason.
func Snapshot(name string, result *Result) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "scenario: %s\n", name)

	var re *engine.RuntimeError
	if errors.As(result.Err, &re) {
		if re.Entry > 0 {
			fmt.Fprintf(&b, "aborted: %s at entry %d\n", re.Code, re.Entry)
		} else {
			fmt.Fprintf(&b, "aborted: %s\n", re.Code)
		}
		return b.String(), nil
	}

	if len(result.Installs) == 0 {
		b.WriteString("installs: none\n")
	} else {
		b.WriteString("installs:\n")
		for _, uri := range result.Installs {
			fmt.Fprintf(&b, "\t%s\n", uri)
		}
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(&b, "warning: %s\n", w)
	}
	if err := (report.Renderer{}).Render(&b, result.Buckets); err != nil {
		return "", err
	}
	return b.String(), nil
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can check Pass; a mismatch against the
// golden file fails t through goldie.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario, t.TempDir())
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	snap, err := Snapshot(name, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(snap))
	return nil
}
