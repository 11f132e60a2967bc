package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stuartofmt/pipInstall/internal/report"
	"github.com/stuartofmt/pipInstall/internal/store"
	"github.com/stuartofmt/pipInstall/internal/testutil"
)

const mixedManifest = `{
  "name": "MyPlugin",
  "sbcPythonDependencies": ["os", "requests", "flask>=2.0", "nosuch"]
}`

func setupMixed(t *testing.T) *pluginFixture {
	t.Helper()
	f := newPluginFixture(t, mixedManifest)
	f.py.AddImport("requests", "2.31.0")
	f.py.AddFrozen("requests", "2.31.0")
	f.py.OnInstall("flask>=2.0", testutil.InstallEffect{Version: "3.0.0"})
	return f
}

func TestInstallMixedOutcomes(t *testing.T) {
	f := setupMixed(t)

	stdout, stderr, err := f.install("text")
	require.Error(t, err)
	assert.Equal(t, ExitFailedToInstallModule, GetExitCode(err))

	assert.Equal(t, []string{"flask>=2.0", "nosuch"}, f.py.Installs())

	assert.Contains(t, stdout, report.TitleBuiltin+"\n\tos ==> Ignored")
	assert.Contains(t, stdout, report.TitleSkipped+"\n\trequests ==> InstalledWithVersion 2.31.0")
	assert.Contains(t, stdout, report.TitleSucceeded+"\n\tflask>=2.0 ==> was NotInstalled , now 3.0.0")
	assert.Contains(t, stdout, report.TitleFailed+"\n\tnosuch ==> NotInstalled ")
	assert.Contains(t, stdout, "Some modules failed to install")

	assert.Contains(t, stderr, "is attempting to install python modules")
	assert.Contains(t, stderr, "Plugin name is : MyPlugin")
	assert.Contains(t, stderr, "Creating Python Virtual Environment at: "+filepath.Join(f.plugin, "venv"))
	assert.Contains(t, stderr, "Exiting with code 10")
}

func TestInstallWritesLogFile(t *testing.T) {
	f := setupMixed(t)
	_, _, _ = f.install("text")

	data, err := os.ReadFile(filepath.Join(f.plugin, "venv", "pipInstall2.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Exiting with code 10")
	assert.NotContains(t, string(data), "Plugin name is", "lines before the venv exists stay on the console")

	assert.Contains(t, string(data), "Result Summary")
	assert.Contains(t, string(data), report.TitleSucceeded)
	assert.Contains(t, string(data), "flask>=2.0 ==> was NotInstalled , now 3.0.0")
	assert.Contains(t, string(data), "nosuch ==> NotInstalled")
	assert.Contains(t, string(data), "Some modules failed to install")
}

func TestInstallSummaryNotDuplicatedOnConsole(t *testing.T) {
	f := setupMixed(t)
	stdout, stderr, _ := f.install("text")

	assert.Equal(t, 1, strings.Count(stdout, "Result Summary"))
	assert.NotContains(t, stderr, "Result Summary")
}

func TestInstallJSONStillLogsSummary(t *testing.T) {
	f := setupMixed(t)
	_, _, _ = f.install("json")

	data, err := os.ReadFile(filepath.Join(f.plugin, "venv", "pipInstall2.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "requests ==> InstalledWithVersion 2.31.0")
}

func TestInstallRecordsHistory(t *testing.T) {
	f := setupMixed(t)
	_, _, _ = f.install("text")

	st, err := store.Open(filepath.Join(f.plugin, "venv", "pipinstall-history.db"))
	require.NoError(t, err)
	defer st.Close()

	run, err := st.ReadRun(t.Context(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, "MyPlugin", run.Plugin)
	assert.Equal(t, ExitFailedToInstallModule, run.ExitCode)
	assert.True(t, run.StartedAt.Equal(testutil.FixedTime))
	require.Len(t, run.Requests, 4)
	assert.Equal(t, "nosuch", run.Requests[3].Dependency.Package)
}

func TestInstallHistoryDisabled(t *testing.T) {
	t.Setenv("PIPINSTALL_HISTORY_DB", "off")
	f := setupMixed(t)
	_, _, _ = f.install("text")

	_, err := os.Stat(filepath.Join(f.plugin, "venv", "pipinstall-history.db"))
	assert.True(t, os.IsNotExist(err))
}

func TestInstallAllSucceed(t *testing.T) {
	f := newPluginFixture(t, `{"name": "P", "sbcPythonDependencies": ["six"]}`)
	f.py.OnInstall("six", testutil.InstallEffect{Version: "1.16.0"})

	stdout, stderr, err := f.install("text")
	require.NoError(t, err)
	assert.Contains(t, stdout, "six ==> was NotInstalled , now 1.16.0")
	assert.Contains(t, stdout, "All modules were successfully installed")
	assert.Contains(t, stderr, "Exiting with code 0")
}

func TestInstallJSON(t *testing.T) {
	f := setupMixed(t)

	stdout, _, err := f.install("json")
	require.Error(t, err)

	var resp struct {
		Status string        `json:"status"`
		RunID  string        `json:"run_id"`
		Data   InstallResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "run-1", resp.RunID)
	assert.Equal(t, "MyPlugin", resp.Data.Plugin)
	assert.Equal(t, report.Summary{Builtin: 1, Skipped: 1, Succeeded: 1, Failed: 1}, resp.Data.Summary)
	assert.Equal(t, ExitFailedToInstallModule, resp.Data.ExitCode)
	require.Len(t, resp.Data.Sections, 4)
}

func TestInstallVerboseMarker(t *testing.T) {
	f := newPluginFixture(t, `{"sbcPythonDependencies": ["--verbose", "six"]}`)
	f.py.OnInstall("six", testutil.InstallEffect{Version: "1.16.0"})

	_, stderr, err := f.install("text")
	require.NoError(t, err)
	assert.Contains(t, stderr, "parsed dependency")
	for _, c := range f.py.Calls() {
		assert.NotContains(t, c, "-qq", "verbose runs keep pip output")
	}
}

func TestInstallRequirementsFile(t *testing.T) {
	f := newPluginFixture(t, `{"sbcPythonDependencies": ["reqs.txt"]}`)
	require.NoError(t, os.MkdirAll(filepath.Join(f.plugin, "dsf"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(f.plugin, "dsf", "reqs.txt"), []byte("six\n# comment\n"), 0o644))
	f.py.OnInstall("six", testutil.InstallEffect{Version: "1.16.0"})

	_, _, err := f.install("text")
	require.NoError(t, err)
	assert.Equal(t, []string{"six"}, f.py.Installs())
}

func TestInstallExitCodes(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
		setup    func(f *pluginFixture)
		args     func(f *pluginFixture) []string
		want     int
	}{
		{
			name: "no manifest",
			args: func(f *pluginFixture) []string { return []string{"-p", f.plugin} },
			want: ExitNoManifestProvided,
		},
		{
			name: "manifest does not exist",
			args: func(f *pluginFixture) []string {
				return []string{"-m", filepath.Join(f.plugin, "missing.json"), "-p", f.plugin}
			},
			want: ExitManifestDoesNotExist,
		},
		{
			name: "no plugin",
			args: func(f *pluginFixture) []string { return []string{"-m", f.manifest} },
			want: ExitNoPluginProvided,
		},
		{
			name: "plugin does not exist",
			args: func(f *pluginFixture) []string {
				return []string{"-m", f.manifest, "-p", filepath.Join(f.plugin, "nope")}
			},
			want: ExitPluginDoesNotExist,
		},
		{
			name:     "unsupported conditional",
			manifest: `{"sbcPythonDependencies": ["six", "pkg>=1.0,<2.0"]}`,
			want:     ExitUnsupportedConditional,
		},
		{
			name:  "venv creation prints output",
			setup: func(f *pluginFixture) { f.py.CreateOutput = "Error: ensurepip failed" },
			want:  ExitProblemCreatingVenv,
		},
		{
			name:     "manifest not json",
			manifest: `{"sbcPythonDependencies": [`,
			want:     ExitManifestError,
		},
		{
			name:     "manifest missing key",
			manifest: `{"name": "P"}`,
			want:     ExitManifestError,
		},
		{
			name:     "missing requirements file",
			manifest: `{"sbcPythonDependencies": ["absent.txt"]}`,
			want:     ExitManifestError,
		},
		{
			name:  "pip list fails",
			setup: func(f *pluginFixture) { f.py.FailFreeze = true },
			want:  ExitPipListError,
		},
		{
			name:     "invalid dependency",
			manifest: `{"sbcPythonDependencies": ["pkg!=1.0"]}`,
			want:     ExitInvalidDependency,
		},
		{
			name:  "site unavailable",
			setup: func(f *pluginFixture) { f.py.FailSite = true },
			want:  ExitPythonSiteError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manifest := tt.manifest
			if manifest == "" {
				manifest = `{"sbcPythonDependencies": ["six"]}`
			}
			f := newPluginFixture(t, manifest)
			f.py.OnInstall("six", testutil.InstallEffect{Version: "1.16.0"})
			if tt.setup != nil {
				tt.setup(f)
			}
			args := []string{"-m", f.manifest, "-p", f.plugin}
			if tt.args != nil {
				args = tt.args(f)
			}

			_, stderr, err := execute(newInstallCommand(f.options("text")), args...)
			require.Error(t, err)
			assert.Equal(t, tt.want, GetExitCode(err), "error: %v", err)
			assert.Contains(t, stderr, "Exiting with code")
			assert.Empty(t, f.py.Installs(), "nothing is installed when a run aborts")
		})
	}
}
