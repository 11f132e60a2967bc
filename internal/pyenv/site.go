package pyenv

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/stuartofmt/pipInstall/internal/runner"
)

// Files written into site-packages.
const (
	PathChangeModule = "plugin_path_change"
	ImportTestFile   = "import_test.py"
)

// Result types printed by the import test script.
const (
	ProbeInstalledWithVersion = "INSTALLEDWITHVERSION"
	ProbeInstalledNoVersion   = "INSTALLEDNOVERSION"
	ProbeNotInstalled         = "NOTINSTALLED"
)

const builtinsScript = "import sys; print(chr(10).join(sorted(sys.builtin_module_names)))"

// importTestScript prints "<detail>, <TYPE>" on its last line.
const importTestScript = `import sys


def probe(name):
    try:
        mod = __import__(name)
    except ImportError:
        return "Module not able to be imported", "NOTINSTALLED"
    except Exception as e:
        return "Exception trying to import module: %s" % e, "NOTINSTALLED"
    version = getattr(mod, "__version__", None)
    if version is not None:
        return str(version), "INSTALLEDWITHVERSION"
    if getattr(mod, "__name__", None) == name:
        return "No version information", "INSTALLEDNOVERSION"
    return "Attribute error with no name match", "NOTINSTALLED"


result, kind = probe(sys.argv[1])
print("%s, %s" % (result, kind))
`

const pathChangeTemplate = `import sys
_site = %s
if _site in sys.path:
    sys.path.remove(_site)
sys.path.insert(0, _site)
`

// PrepareSite locates the venv's site-packages directory, puts it at the
// front of sys.path for every interpreter start, and installs the import
// test script. It returns the site-packages path.
func (e *Env) PrepareSite(ctx context.Context, r runner.Runner) (string, error) {
	return e.site(ctx, r, true)
}

// LocateSite is PrepareSite for an environment that is only inspected:
// files already present in site-packages are left untouched and only
// missing ones are written.
func (e *Env) LocateSite(ctx context.Context, r runner.Runner) (string, error) {
	return e.site(ctx, r, false)
}

func (e *Env) site(ctx context.Context, r runner.Runner, overwrite bool) (string, error) {
	out, err := r.Run(ctx, e.SiteCommand())
	if err != nil {
		return "", &EnvError{Op: OpSite, Path: e.root, Err: err}
	}
	site := FindSitePackages(out, e.root)
	if site == "" {
		return "", &EnvError{Op: OpSite, Path: e.root, Output: out, Err: errSiteNotFound}
	}

	literal, err := json.Marshal(site)
	if err != nil {
		return "", &EnvError{Op: OpWrite, Path: site, Err: err}
	}
	files := []struct {
		name    string
		content string
	}{
		{PathChangeModule + ".py", fmt.Sprintf(pathChangeTemplate, literal)},
		{PathChangeModule + ".pth", "import " + PathChangeModule + "\n"},
		{ImportTestFile, importTestScript},
	}
	for _, f := range files {
		path := filepath.Join(site, f.name)
		if !overwrite {
			if _, err := os.Stat(path); err == nil {
				continue
			}
		}
		if err := os.WriteFile(path, []byte(f.content), 0o644); err != nil {
			return "", &EnvError{Op: OpWrite, Path: path, Err: err}
		}
	}

	e.sitePackages = site
	return site, nil
}

// FindSitePackages picks the site-packages entry under root from the
// output of "python -m site". It returns "" when there is none.
func FindSitePackages(siteOutput, root string) string {
	for _, line := range strings.Split(siteOutput, "\n") {
		if !strings.Contains(line, "site-packages") || !strings.Contains(line, root) {
			continue
		}
		cleaned := strings.Map(func(r rune) rune {
			switch r {
			case '(', ')', '\'', ',':
				return -1
			}
			return r
		}, strings.TrimSpace(line))
		return strings.TrimSpace(cleaned)
	}
	return ""
}

// ParseBuiltins turns BuiltinsCommand output into a set.
func ParseBuiltins(out string) map[string]bool {
	set := make(map[string]bool)
	for _, line := range strings.Split(out, "\n") {
		if name := strings.TrimSpace(line); name != "" {
			set[name] = true
		}
	}
	return set
}
