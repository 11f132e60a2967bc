package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stuartofmt/pipInstall/internal/ir"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var testStart = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// createTestRun creates a run with one request per outcome bucket.
func createTestRun(id string, started time.Time) Run {
	after := ir.StateInstalled("3.0.0")
	return Run{
		ID:             id,
		Plugin:         "MyPlugin",
		PluginDir:      "/opt/dsf/plugins/MyPlugin",
		ManifestPath:   "/opt/dsf/plugins/MyPlugin/plugin.json",
		ManifestDigest: "digest-abc",
		StartedAt:      started,
		FinishedAt:     started.Add(3 * time.Second),
		ExitCode:       10,
		Warnings:       []string{"flask>=2.0: installed 1.1 does not satisfy >= 2.0"},
		Requests: []ir.InstallRequest{
			{
				Seq:        1,
				Dependency: ir.Dependency{Package: "os", Kind: ir.KindRegistry, Source: "os"},
				Before:     ir.StateBuiltin(),
				Outcome:    ir.OutcomeBuiltin,
			},
			{
				Seq:        2,
				Dependency: ir.Dependency{Package: "flask", Comparator: ir.ComparatorGe, Version: "2.0", Kind: ir.KindRegistry, Source: "Flask>=2.0"},
				Before:     ir.StateNotInstalled(),
				Outcome:    ir.OutcomeSucceeded,
				After:      &after,
			},
			{
				Seq:        3,
				Dependency: ir.Dependency{Package: "git+https://example.com/x.git", Kind: ir.KindSourceControl, Source: "git+https://example.com/x.git"},
				Before:     ir.StateNotInstalled(),
				Outcome:    ir.OutcomeFailed,
				Detail:     "command failed (exit 1)",
			},
		},
	}
}
