package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stuartofmt/pipInstall/internal/parser"
	"github.com/stuartofmt/pipInstall/internal/pyenv"
	"github.com/stuartofmt/pipInstall/internal/runner"
)

func newEnv(t *testing.T) (*pyenv.Env, *FakePython) {
	t.Helper()
	opts := pyenv.DefaultOptions()
	opts.GOOS = "linux"
	env := pyenv.New(t.TempDir(), opts)
	py := NewFakePython(env.Root())
	require.NoError(t, py.MkdirSite())
	return env, py
}

func TestFakePythonSatisfiesRunner(t *testing.T) {
	var _ runner.Runner = NewFakePython("/tmp/venv")
}

func TestFakePythonEnvironmentBootstrap(t *testing.T) {
	ctx := context.Background()
	env, py := newEnv(t)

	require.NoError(t, env.Create(ctx, py))
	site, err := env.PrepareSite(ctx, py)
	require.NoError(t, err)
	assert.Equal(t, py.SitePackages(), site)

	py.CreateOutput = "Error: boom"
	assert.Error(t, env.Create(ctx, py))
}

func TestFakePythonProbeAndFreeze(t *testing.T) {
	ctx := context.Background()
	env, py := newEnv(t)
	_, err := env.PrepareSite(ctx, py)
	require.NoError(t, err)

	py.AddImport("requests", "2.31.0")
	py.AddImport("six", "")
	py.AddBroken("brokenmod")
	py.AddFrozen("PyYAML", "6.0.1")

	probe := func(module string) string {
		cmd, err := env.ImportProbeCommand(module)
		require.NoError(t, err)
		out, err := py.Run(ctx, cmd)
		require.NoError(t, err)
		return out
	}
	assert.Equal(t, "2.31.0, INSTALLEDWITHVERSION\n", probe("requests"))
	assert.Equal(t, "No version information, INSTALLEDNOVERSION\n", probe("six"))
	assert.Contains(t, probe("brokenmod"), "NOTINSTALLED")
	assert.Contains(t, probe("missing"), "NOTINSTALLED")
	assert.Equal(t, []string{"requests", "six", "brokenmod", "missing"}, py.Probes())

	out, err := py.Run(ctx, env.FreezeCommand())
	require.NoError(t, err)
	assert.Equal(t, "PyYAML==6.0.1\n", out)
	assert.Equal(t, 1, py.FreezeCount())

	py.FailFreeze = true
	_, err = py.Run(ctx, env.FreezeCommand())
	assert.Error(t, err)
}

func TestFakePythonInstall(t *testing.T) {
	ctx := context.Background()
	env, py := newEnv(t)

	py.OnInstall("flask>=2.0", InstallEffect{Version: "3.0.0"})
	install := func(spec string) error {
		cmd, err := env.InstallCommand(parser.MustParse(spec))
		require.NoError(t, err)
		_, err = py.Run(ctx, cmd)
		return err
	}
	require.NoError(t, install("flask>=2.0"))

	err := install("nosuchpkg")
	require.Error(t, err)
	var ce *runner.CommandError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 1, ce.ExitCode)

	assert.Equal(t, []string{"flask>=2.0", "nosuchpkg"}, py.Installs())

	out, err := py.Run(ctx, env.FreezeCommand())
	require.NoError(t, err)
	assert.Equal(t, "flask==3.0.0\n", out)
}

func TestFakePythonBuiltins(t *testing.T) {
	env, py := newEnv(t)
	py.SetBuiltins("sys", "_abc", "os")
	out, err := py.Run(context.Background(), env.BuiltinsCommand())
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"sys": true, "_abc": true, "os": true}, pyenv.ParseBuiltins(out))
}

func TestFakePythonUnknownCommand(t *testing.T) {
	py := NewFakePython("/tmp/venv")
	_, err := py.Run(context.Background(), "/tmp/venv/bin/python --version")
	assert.Error(t, err)
}
