package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/stuartofmt/pipInstall/internal/ir"
	"github.com/stuartofmt/pipInstall/internal/testutil"
)

// Scenario defines one end-to-end install run.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// RunID is the fixed run identifier. Defaults to "run-1".
	RunID string `yaml:"run_id,omitempty"`

	// Environment is the simulated venv state before the run.
	Environment Environment `yaml:"environment"`

	// Manifest is the flat list of specification strings.
	Manifest []string `yaml:"manifest"`

	// Assertions validate the run.
	Assertions []Assertion `yaml:"assertions"`
}

// Environment describes the simulated interpreter and pip.
type Environment struct {
	Builtins []string               `yaml:"builtins,omitempty"`
	Imports  map[string]string      `yaml:"imports,omitempty"`
	Broken   []string               `yaml:"broken,omitempty"`
	Frozen   map[string]string      `yaml:"frozen,omitempty"`
	Installs map[string]InstallStep `yaml:"installs,omitempty"`

	// FailFreeze makes every pip freeze fail.
	FailFreeze bool `yaml:"fail_freeze,omitempty"`

	// Verify enables post-install constraint warnings.
	Verify bool `yaml:"verify,omitempty"`
}

// InstallStep is the effect of installing one URI. URIs not listed fail.
type InstallStep struct {
	Fail    bool   `yaml:"fail,omitempty"`
	Version string `yaml:"version,omitempty"`
	Dist    string `yaml:"dist,omitempty"`
	Import  string `yaml:"import,omitempty"`
}

func (s InstallStep) effect() testutil.InstallEffect {
	return testutil.InstallEffect{Fail: s.Fail, Version: s.Version, Dist: s.Dist, Import: s.Import}
}

// Assertion validates one property of the run.
type Assertion struct {
	// Type specifies the assertion type:
	// - "outcome": entry ended with Outcome
	// - "line": entry renders as Text
	// - "installs": installer received exactly URIs, in order
	// - "not_probed": Module was never import-probed
	// - "freeze_count": frozen listing was queried Count times
	// - "summary": bucket counts equal Summary
	// - "error": run aborted with Code (and at Entry, when set)
	Type string `yaml:"type"`

	// Entry is the 1-based manifest position (outcome, line, error).
	Entry int `yaml:"entry,omitempty"`

	// Outcome is the expected outcome name (outcome).
	Outcome string `yaml:"outcome,omitempty"`

	// Text is the expected report line (line).
	Text string `yaml:"text,omitempty"`

	// URIs are the expected install URIs (installs).
	URIs []string `yaml:"uris,omitempty"`

	// Module is the import name (not_probed).
	Module string `yaml:"module,omitempty"`

	// Count is the expected query count (freeze_count).
	Count int `yaml:"count,omitempty"`

	// Summary is the expected bucket counts (summary).
	Summary *SummaryCounts `yaml:"summary,omitempty"`

	// Code is the expected runtime error code (error).
	Code string `yaml:"code,omitempty"`
}

// SummaryCounts are expected bucket sizes.
type SummaryCounts struct {
	Builtin   int `yaml:"builtin"`
	Skipped   int `yaml:"skipped"`
	Succeeded int `yaml:"succeeded"`
	Failed    int `yaml:"failed"`
}

// Assertion type constants.
const (
	AssertOutcome     = "outcome"
	AssertLine        = "line"
	AssertInstalls    = "installs"
	AssertNotProbed   = "not_probed"
	AssertFreezeCount = "freeze_count"
	AssertSummary     = "summary"
	AssertError       = "error"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	if scenario.RunID == "" {
		scenario.RunID = "run-1"
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Manifest) == 0 {
		return fmt.Errorf("manifest list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a, len(s.Manifest)); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, entries int) error {
	needEntry := func() error {
		if a.Entry < 1 || a.Entry > entries {
			return fmt.Errorf("assertions[%d]: entry must be between 1 and %d for %s", index, entries, a.Type)
		}
		return nil
	}

	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertOutcome:
		if err := needEntry(); err != nil {
			return err
		}
		if _, err := ir.ParseOutcome(a.Outcome); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	case AssertLine:
		if err := needEntry(); err != nil {
			return err
		}
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for line", index)
		}
	case AssertInstalls:
		// an empty list asserts nothing was installed
	case AssertNotProbed:
		if a.Module == "" {
			return fmt.Errorf("assertions[%d]: module is required for not_probed", index)
		}
	case AssertFreezeCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for freeze_count", index)
		}
	case AssertSummary:
		if a.Summary == nil {
			return fmt.Errorf("assertions[%d]: summary is required for summary", index)
		}
	case AssertError:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for error", index)
		}
		if a.Entry != 0 {
			if err := needEntry(); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
