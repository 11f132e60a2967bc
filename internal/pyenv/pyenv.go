// Package pyenv manages the plugin's isolated Python environment.
//
// An Env knows where the virtual environment lives and how to phrase every
// command the tool issues against it: venv creation, site-packages
// discovery, the import probe, the frozen listing, the builtins query and
// the install itself. Commands are returned as quoted command lines for a
// runner.Runner; Env never executes anything except in Create and
// PrepareSite.
package pyenv

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/stuartofmt/pipInstall/internal/ir"
	"github.com/stuartofmt/pipInstall/internal/runner"
)

// Options control where and how the environment is created.
type Options struct {
	// Python is the interpreter used to create the venv.
	Python string

	// VenvFolder is the venv directory name under the plugin directory.
	VenvFolder string

	Clear              bool
	SystemSitePackages bool
	UpgradeDeps        bool

	// GOOS selects the venv bin layout. Empty means runtime.GOOS.
	GOOS string
}

// DefaultOptions returns the options the installer uses by default.
func DefaultOptions() Options {
	return Options{
		Python:             "python3",
		VenvFolder:         "venv",
		Clear:              true,
		SystemSitePackages: true,
		UpgradeDeps:        true,
	}
}

// Env is a handle to one plugin's virtual environment.
type Env struct {
	pluginDir    string
	root         string
	opts         Options
	quiet        bool
	sitePackages string
}

// New returns a handle for the venv under pluginDir. Nothing is created.
func New(pluginDir string, opts Options) *Env {
	if opts.Python == "" {
		opts.Python = DefaultOptions().Python
	}
	if opts.VenvFolder == "" {
		opts.VenvFolder = DefaultOptions().VenvFolder
	}
	if opts.GOOS == "" {
		opts.GOOS = runtime.GOOS
	}
	return &Env{
		pluginDir: filepath.Clean(pluginDir),
		root:      filepath.Join(pluginDir, opts.VenvFolder),
		opts:      opts,
		quiet:     true,
	}
}

// PluginDir returns the plugin directory the venv belongs to.
func (e *Env) PluginDir() string { return e.pluginDir }

// Root returns the venv directory.
func (e *Env) Root() string { return e.root }

// PythonPath returns the venv interpreter.
func (e *Env) PythonPath() string {
	if e.opts.GOOS == "windows" {
		return filepath.Join(e.root, "Scripts", "python.exe")
	}
	return filepath.Join(e.root, "bin", "python")
}

// LogPath returns the path of a file named name inside the venv.
func (e *Env) LogPath(name string) string {
	return filepath.Join(e.root, name)
}

// SitePackages returns the site-packages directory found by PrepareSite,
// or "" before it has run.
func (e *Env) SitePackages() string { return e.sitePackages }

// SetVerbose switches pip between quiet (-qq) and normal output.
func (e *Env) SetVerbose(verbose bool) { e.quiet = !verbose }

// Quiet reports whether pip commands carry -qq.
func (e *Env) Quiet() bool { return e.quiet }

// CreateCommand returns the venv creation command line.
func (e *Env) CreateCommand() string {
	args := []string{e.opts.Python, "-m", "venv", e.root}
	if e.opts.Clear {
		args = append(args, "--clear")
	}
	if e.opts.SystemSitePackages {
		args = append(args, "--system-site-packages")
	}
	if e.opts.UpgradeDeps {
		args = append(args, "--upgrade-deps")
	}
	return runner.MustJoin(args...)
}

// Create builds (or rebuilds, with Clear) the virtual environment.
// venv prints nothing on success, so any output is treated as failure.
func (e *Env) Create(ctx context.Context, r runner.Runner) error {
	out, err := r.Run(ctx, e.CreateCommand())
	if err != nil {
		return &EnvError{Op: OpCreate, Path: e.root, Err: err}
	}
	if s := strings.TrimSpace(out); s != "" {
		return &EnvError{Op: OpCreate, Path: e.root, Output: s}
	}
	return nil
}

// SiteCommand returns the command that prints the interpreter's sys.path.
func (e *Env) SiteCommand() string {
	return runner.MustJoin(e.PythonPath(), "-m", "site")
}

// ImportProbeCommand returns the command that tries to import module inside
// the venv. PrepareSite must have run.
func (e *Env) ImportProbeCommand(module string) (string, error) {
	if e.sitePackages == "" {
		return "", &EnvError{Op: OpSite, Path: e.root, Err: errSiteNotPrepared}
	}
	return runner.Join(e.PythonPath(), filepath.Join(e.sitePackages, ImportTestFile), module)
}

// FreezeCommand returns the command listing every installed distribution.
func (e *Env) FreezeCommand() string {
	return runner.MustJoin(e.pip("freeze", "--all")...)
}

// InstallCommand returns the force-reinstall command for dep. Unconstrained
// requests also pass --upgrade so the newest release is chosen. It fails
// when the URI cannot be quoted as a single argument.
func (e *Env) InstallCommand(dep ir.Dependency) (string, error) {
	args := []string{"install", dep.URI(), "--no-cache-dir"}
	if !dep.HasConstraint() {
		args = append(args, "--upgrade")
	}
	args = append(args, "--force-reinstall")
	return runner.Join(e.pip(args...)...)
}

// BuiltinsCommand returns the command printing one builtin module per line.
func (e *Env) BuiltinsCommand() string {
	return runner.MustJoin(e.PythonPath(), "-c", builtinsScript)
}

func (e *Env) pip(args ...string) []string {
	cmd := append([]string{e.PythonPath(), "-m", "pip"}, args...)
	if e.quiet {
		cmd = append(cmd, "-qq")
	}
	return cmd
}

func (e *Env) String() string {
	return fmt.Sprintf("venv %s", e.root)
}
