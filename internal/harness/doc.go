// Package harness runs end-to-end install scenarios against a simulated
// Python environment.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	run_id: run-1
//	environment:
//	  builtins: [os, sys]
//	  imports: { requests: "2.31.0" }
//	  frozen: { requests: "2.31.0" }
//	  installs:
//	    "flask>=2.0": { version: "3.0.0" }
//	manifest:
//	  - requests
//	  - flask>=2.0
//	assertions:
//	  - type: outcome
//	    entry: 2
//	    outcome: Succeeded
//	  - type: installs
//	    uris: ["flask>=2.0"]
//
// # Assertion Types
//
//   - outcome: the request for a 1-based manifest entry ended with an outcome
//   - line: the report line for an entry matches exactly
//   - installs: the exact ordered list of URIs passed to the installer
//   - not_probed: a module was never import-probed
//   - freeze_count: the frozen listing was queried exactly N times
//   - summary: bucket counts
//   - error: the run aborted with a runtime error code, optionally at an entry
//
// # Deterministic Testing
//
// Every scenario runs in a fresh temporary venv directory with a fixed run
// ID, a fixed wall clock and a deterministic sequence clock, so rendered
// reports are byte-stable for golden file comparison.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/skip_installed.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(ctx, scenario, t.TempDir())
package harness
