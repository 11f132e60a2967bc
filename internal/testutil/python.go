package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/stuartofmt/pipInstall/internal/ir"
	"github.com/stuartofmt/pipInstall/internal/parser"
	"github.com/stuartofmt/pipInstall/internal/pyenv"
	"github.com/stuartofmt/pipInstall/internal/runner"
)

// InstallEffect is what a simulated "pip install <uri>" does.
type InstallEffect struct {
	// Fail makes the install command exit non-zero.
	Fail bool

	// Version is the version installed. Empty installs a distribution
	// without version metadata.
	Version string

	// Dist is the distribution name added to the frozen listing. Defaults
	// to the probe name of the parsed URI.
	Dist string

	// Import is the importable module name. Defaults to the import form of
	// Dist. "-" installs nothing importable.
	Import string
}

// FakePython simulates a venv interpreter and pip by dispatching on the
// shape of command lines built by pyenv.Env. It implements runner.Runner.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type FakePython struct {
	mu sync.Mutex

	root string
	site string

	builtins []string
	imports  map[string]string // import name -> __version__ ("" = none)
	frozen   map[string]string // dist name -> version ("" = direct reference)
	installs map[string]InstallEffect
	broken   map[string]bool // import name -> probe raises during import

	// CreateOutput is printed by venv creation; non-empty means failure.
	CreateOutput string
	FailFreeze   bool
	FailSite     bool

	calls []string
}

// NewFakePython creates a simulated interpreter for the venv at root.
// Site-packages is root/lib/python3.11/site-packages.
func NewFakePython(root string) *FakePython {
	return &FakePython{
		root:     root,
		site:     filepath.Join(root, "lib", "python3.11", "site-packages"),
		imports:  make(map[string]string),
		frozen:   make(map[string]string),
		installs: make(map[string]InstallEffect),
		broken:   make(map[string]bool),
	}
}

// SitePackages returns the simulated site-packages directory.
func (f *FakePython) SitePackages() string { return f.site }

// MkdirSite creates the site-packages directory on disk so PrepareSite can
// write into it.
func (f *FakePython) MkdirSite() error {
	return os.MkdirAll(f.site, 0o755)
}

// SetBuiltins replaces the builtin module names.
func (f *FakePython) SetBuiltins(names ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.builtins = append([]string(nil), names...)
}

// AddImport makes module importable with the given __version__.
func (f *FakePython) AddImport(module, version string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.imports[module] = version
}

// AddBroken makes importing module raise an unrelated exception.
func (f *FakePython) AddBroken(module string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.broken[module] = true
}

// AddFrozen lists dist in pip freeze output at version.
func (f *FakePython) AddFrozen(dist, version string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frozen[dist] = version
}

// OnInstall registers the effect of installing uri. Installing an
// unregistered URI fails.
func (f *FakePython) OnInstall(uri string, effect InstallEffect) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.installs[uri] = effect
}

// Calls returns every command line run so far.
func (f *FakePython) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// Installs returns the URIs passed to pip install, in order.
func (f *FakePython) Installs() []string {
	return f.argsOf(func(argv []string) (string, bool) {
		if len(argv) > 4 && argv[1] == "-m" && argv[2] == "pip" && argv[3] == "install" {
			return argv[4], true
		}
		return "", false
	})
}

// Probes returns the module names passed to the import test, in order.
func (f *FakePython) Probes() []string {
	return f.argsOf(func(argv []string) (string, bool) {
		if len(argv) > 2 && strings.HasSuffix(argv[1], pyenv.ImportTestFile) {
			return argv[2], true
		}
		return "", false
	})
}

// FreezeCount returns how many times the frozen listing was queried.
func (f *FakePython) FreezeCount() int {
	return len(f.argsOf(func(argv []string) (string, bool) {
		return "", len(argv) > 3 && argv[1] == "-m" && argv[2] == "pip" && argv[3] == "freeze"
	}))
}

func (f *FakePython) argsOf(match func([]string) (string, bool)) []string {
	var out []string
	for _, c := range f.Calls() {
		argv, err := runner.Split(c)
		if err != nil {
			continue
		}
		if arg, ok := match(argv); ok {
			out = append(out, arg)
		}
	}
	return out
}

// Run implements runner.Runner.
func (f *FakePython) Run(_ context.Context, cmdline string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, cmdline)

	argv, err := runner.Split(cmdline)
	if err != nil || len(argv) < 2 {
		return "", f.fail(cmdline, 2, "cannot parse command")
	}

	switch {
	case argv[1] == "-m" && len(argv) > 2 && argv[2] == "venv":
		return f.CreateOutput, nil
	case argv[1] == "-m" && len(argv) > 2 && argv[2] == "site":
		if f.FailSite {
			return "", f.fail(cmdline, 1, "site unavailable")
		}
		return fmt.Sprintf("sys.path = [\n    '/usr/lib/python311.zip',\n    '%s',\n]\nENABLE_USER_SITE: False\n", f.site), nil
	case argv[1] == "-c":
		names := append([]string(nil), f.builtins...)
		sort.Strings(names)
		return strings.Join(names, "\n") + "\n", nil
	case strings.HasSuffix(argv[1], pyenv.ImportTestFile) && len(argv) > 2:
		return f.probe(argv[2]), nil
	case argv[1] == "-m" && len(argv) > 3 && argv[2] == "pip" && argv[3] == "freeze":
		if f.FailFreeze {
			return "", f.fail(cmdline, 1, "pip is broken")
		}
		return f.freeze(), nil
	case argv[1] == "-m" && len(argv) > 4 && argv[2] == "pip" && argv[3] == "install":
		return f.install(cmdline, argv[4])
	}
	return "", f.fail(cmdline, 127, "unknown command")
}

func (f *FakePython) probe(module string) string {
	if f.broken[module] {
		return "Exception trying to import module: boom, NOTINSTALLED\n"
	}
	version, ok := f.imports[module]
	switch {
	case !ok:
		return "Module not able to be imported, NOTINSTALLED\n"
	case version == "":
		return "No version information, INSTALLEDNOVERSION\n"
	default:
		return version + ", INSTALLEDWITHVERSION\n"
	}
}

func (f *FakePython) freeze() string {
	dists := make([]string, 0, len(f.frozen))
	for d := range f.frozen {
		dists = append(dists, d)
	}
	sort.Strings(dists)
	var b strings.Builder
	for _, d := range dists {
		if v := f.frozen[d]; v != "" {
			fmt.Fprintf(&b, "%s==%s\n", d, v)
		} else {
			fmt.Fprintf(&b, "%s @ file:///tmp/%s\n", d, d)
		}
	}
	return b.String()
}

func (f *FakePython) install(cmdline, uri string) (string, error) {
	effect, ok := f.installs[uri]
	if !ok || effect.Fail {
		return "", f.fail(cmdline, 1, "ERROR: No matching distribution found for "+uri)
	}
	dist := effect.Dist
	if dist == "" {
		if dep, err := parser.Parse(uri); err == nil {
			dist = dep.ProbeName()
		} else {
			dist = uri
		}
	}
	f.frozen[dist] = effect.Version
	switch effect.Import {
	case "-":
	case "":
		f.imports[ir.ImportName(ir.CanonicalName(dist))] = effect.Version
	default:
		f.imports[effect.Import] = effect.Version
	}
	return "", nil
}

func (f *FakePython) fail(cmdline string, code int, stderr string) error {
	return &runner.CommandError{Cmdline: cmdline, ExitCode: code, Stderr: stderr}
}
