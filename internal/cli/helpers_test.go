package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/stuartofmt/pipInstall/internal/testutil"
)

// pluginFixture is a plugin directory with a manifest and a simulated venv.
type pluginFixture struct {
	plugin   string
	manifest string
	py       *testutil.FakePython
}

func newPluginFixture(t *testing.T, manifestJSON string) *pluginFixture {
	t.Helper()
	plugin := t.TempDir()
	path := filepath.Join(plugin, "plugin.json")
	require.NoError(t, os.WriteFile(path, []byte(manifestJSON), 0o644))

	py := testutil.NewFakePython(filepath.Join(plugin, "venv"))
	require.NoError(t, py.MkdirSite())
	py.SetBuiltins("os", "sys")
	return &pluginFixture{plugin: plugin, manifest: path, py: py}
}

func (f *pluginFixture) options(format string) *PluginOptions {
	return &PluginOptions{
		RootOptions: &RootOptions{Format: format, NoColor: true},
		Runner:      f.py,
		IDs:         testutil.NewFixedRunIDGenerator("run-1"),
		Now:         testutil.FixedNow,
	}
}

// execute runs cmd with args and returns stdout, stderr and the error.
func execute(cmd *cobra.Command, args ...string) (string, string, error) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func (f *pluginFixture) install(format string, extra ...string) (string, string, error) {
	args := append([]string{"-m", f.manifest, "-p", f.plugin}, extra...)
	return execute(newInstallCommand(f.options(format)), args...)
}
