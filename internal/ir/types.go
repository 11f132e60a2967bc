package ir

import (
	"fmt"
	"path"
	"strings"
)

// Kind distinguishes installable-by-name dependencies from opaque VCS URIs.
type Kind int

const (
	// KindRegistry is a dependency installable by name from a package index.
	KindRegistry Kind = iota
	// KindSourceControl is an opaque version-control install URI (git+...).
	KindSourceControl
)

func (k Kind) String() string {
	switch k {
	case KindRegistry:
		return "Registry"
	case KindSourceControl:
		return "SourceControl"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// MarshalText encodes the kind by name for JSON output.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	for _, k := range []Kind{KindRegistry, KindSourceControl} {
		if k.String() == s {
			return k, nil
		}
	}
	return KindRegistry, fmt.Errorf("unknown kind %q", s)
}

// Comparator is a requested version comparison operator.
// ComparatorNone means no constraint was requested.
type Comparator string

const (
	ComparatorNone  Comparator = ""
	ComparatorEq    Comparator = "=="
	ComparatorGe    Comparator = ">="
	ComparatorLe    Comparator = "<="
	ComparatorGt    Comparator = ">"
	ComparatorLt    Comparator = "<"
	ComparatorTilde Comparator = "~=" // compatible release; rewritten to >= at parse time
)

// ValidComparators lists the comparators a parsed Dependency may carry.
var ValidComparators = map[Comparator]bool{
	ComparatorEq: true,
	ComparatorGe: true,
	ComparatorLe: true,
	ComparatorGt: true,
	ComparatorLt: true,
}

// IsNone reports whether no comparator was requested.
func (c Comparator) IsNone() bool {
	return c == ComparatorNone
}

// Label returns the comparator for display, with "None" for no constraint.
func (c Comparator) Label() string {
	if c.IsNone() {
		return "None"
	}
	return string(c)
}

// Dependency is a parsed, normalized dependency descriptor.
//
// For KindRegistry, Package is the canonical name with any extras suffix
// preserved. For KindSourceControl, Package is the full opaque URI and
// Comparator/Version are always empty.
type Dependency struct {
	Package    string     `json:"package"`
	Comparator Comparator `json:"comparator"`
	Version    string     `json:"version"`
	Kind       Kind       `json:"kind"`

	// Source is the raw text the dependency was parsed from.
	Source string `json:"source,omitempty"`
}

// URI reconstructs the install argument accepted by pip.
func (d Dependency) URI() string {
	return d.Package + string(d.Comparator) + d.Version
}

// HasConstraint reports whether a version constraint was requested.
func (d Dependency) HasConstraint() bool {
	return !d.Comparator.IsNone()
}

// Validate checks the comparator/version pairing and kind invariants.
func (d Dependency) Validate() error {
	if d.Package == "" {
		return fmt.Errorf("dependency has empty package")
	}
	switch d.Kind {
	case KindRegistry:
		if d.Comparator.IsNone() != (d.Version == "") {
			return fmt.Errorf("dependency %q: comparator and version must be set together", d.Package)
		}
		if !d.Comparator.IsNone() && !ValidComparators[d.Comparator] {
			return fmt.Errorf("dependency %q: unsupported comparator %q", d.Package, d.Comparator)
		}
	case KindSourceControl:
		if !d.Comparator.IsNone() || d.Version != "" {
			return fmt.Errorf("source control dependency %q carries a version constraint", d.Package)
		}
	default:
		return fmt.Errorf("dependency %q: unknown kind %v", d.Package, d.Kind)
	}
	return nil
}

// BaseName returns the package name without any extras suffix.
// For source control dependencies it returns the project name taken from an
// #egg= fragment, or failing that the repository basename.
func (d Dependency) BaseName() string {
	if d.Kind == KindSourceControl {
		return sourceControlName(d.Package)
	}
	if i := strings.IndexByte(d.Package, '['); i >= 0 {
		return d.Package[:i]
	}
	return d.Package
}

// ProbeName returns the canonical name used for state lookups.
func (d Dependency) ProbeName() string {
	return CanonicalName(d.BaseName())
}

func sourceControlName(uri string) string {
	if i := strings.Index(uri, "#egg="); i >= 0 {
		name := uri[i+len("#egg="):]
		if j := strings.IndexAny(name, "&["); j >= 0 {
			name = name[:j]
		}
		return name
	}
	trimmed := uri
	if i := strings.IndexAny(trimmed, "#?"); i >= 0 {
		trimmed = trimmed[:i]
	}
	if i := strings.LastIndex(trimmed, "@"); i > strings.LastIndex(trimmed, "/") {
		trimmed = trimmed[:i] // strip @ref
	}
	base := path.Base(strings.TrimRight(trimmed, "/"))
	return strings.TrimSuffix(base, ".git")
}

// Classification is the installation status of a module in an environment.
type Classification int

const (
	NotInstalled Classification = iota
	Builtin
	InstalledWithVersion
	InstalledNoVersion
)

func (c Classification) String() string {
	switch c {
	case NotInstalled:
		return "NotInstalled"
	case Builtin:
		return "Builtin"
	case InstalledWithVersion:
		return "InstalledWithVersion"
	case InstalledNoVersion:
		return "InstalledNoVersion"
	default:
		return fmt.Sprintf("Classification(%d)", int(c))
	}
}

// UnmarshalText decodes a classification name.
func (c *Classification) UnmarshalText(text []byte) error {
	parsed, err := ParseClassification(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// MarshalText encodes the classification by name for JSON output.
func (c Classification) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// ParseClassification is the inverse of Classification.String.
func ParseClassification(s string) (Classification, error) {
	for _, c := range []Classification{NotInstalled, Builtin, InstalledWithVersion, InstalledNoVersion} {
		if c.String() == s {
			return c, nil
		}
	}
	return NotInstalled, fmt.Errorf("unknown classification %q", s)
}

// IsInstalled reports whether the module is present and installable-managed.
func (c Classification) IsInstalled() bool {
	return c == InstalledWithVersion || c == InstalledNoVersion
}

// ModuleState is a point-in-time snapshot of a module's installation status.
// Version is non-empty only for InstalledWithVersion.
type ModuleState struct {
	Classification Classification `json:"classification"`
	Version        string         `json:"version,omitempty"`
}

// StateBuiltin returns the state of a module compiled into the interpreter.
func StateBuiltin() ModuleState {
	return ModuleState{Classification: Builtin}
}

// StateNotInstalled returns the state of a module that cannot be found.
func StateNotInstalled() ModuleState {
	return ModuleState{Classification: NotInstalled}
}

// StateInstalled returns InstalledWithVersion for a non-empty version and
// InstalledNoVersion otherwise.
func StateInstalled(version string) ModuleState {
	if version == "" {
		return ModuleState{Classification: InstalledNoVersion}
	}
	return ModuleState{Classification: InstalledWithVersion, Version: version}
}

// String renders the state as "<classification> <version>".
// The version part is blank when absent, keeping the separating space.
func (s ModuleState) String() string {
	return s.Classification.String() + " " + s.Version
}

// Outcome is the terminal result of processing one manifest entry.
type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomeBuiltin
	OutcomeSkipped
	OutcomeSucceeded
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "Pending"
	case OutcomeBuiltin:
		return "Builtin"
	case OutcomeSkipped:
		return "Skipped"
	case OutcomeSucceeded:
		return "Succeeded"
	case OutcomeFailed:
		return "Failed"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// MarshalText encodes the outcome by name for JSON output.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText decodes an outcome name.
func (o *Outcome) UnmarshalText(text []byte) error {
	parsed, err := ParseOutcome(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// ParseOutcome is the inverse of Outcome.String.
func ParseOutcome(s string) (Outcome, error) {
	for _, o := range []Outcome{OutcomePending, OutcomeBuiltin, OutcomeSkipped, OutcomeSucceeded, OutcomeFailed} {
		if o.String() == s {
			return o, nil
		}
	}
	return OutcomePending, fmt.Errorf("unknown outcome %q", s)
}

// IsTerminal reports whether the outcome is final.
func (o Outcome) IsTerminal() bool {
	return o != OutcomePending
}

// InstallRequest records the processing of one manifest entry.
//
// A request is created pending with NewInstallRequest and becomes terminal
// through exactly one call to Resolve. Both return new values; a request is
// never updated field by field.
type InstallRequest struct {
	Seq        int          `json:"seq"` // position in the expanded manifest
	Dependency Dependency   `json:"dependency"`
	Before     ModuleState  `json:"before"`
	Outcome    Outcome      `json:"outcome"`
	After      *ModuleState `json:"after,omitempty"` // set only for OutcomeSucceeded
	Detail     string       `json:"detail,omitempty"`
}

// NewInstallRequest starts a pending request for a dependency.
func NewInstallRequest(seq int, dep Dependency, before ModuleState) InstallRequest {
	return InstallRequest{
		Seq:        seq,
		Dependency: dep,
		Before:     before,
		Outcome:    OutcomePending,
	}
}

// Resolve returns a terminal copy of a pending request.
// after must be non-nil exactly when outcome is OutcomeSucceeded.
func (r InstallRequest) Resolve(outcome Outcome, after *ModuleState, detail string) (InstallRequest, error) {
	if r.Outcome.IsTerminal() {
		return r, fmt.Errorf("request %d (%s) already resolved as %s", r.Seq, r.Dependency.URI(), r.Outcome)
	}
	if !outcome.IsTerminal() {
		return r, fmt.Errorf("request %d (%s): cannot resolve to %s", r.Seq, r.Dependency.URI(), outcome)
	}
	if (outcome == OutcomeSucceeded) != (after != nil) {
		return r, fmt.Errorf("request %d (%s): after-state must be present only for %s", r.Seq, r.Dependency.URI(), OutcomeSucceeded)
	}
	resolved := r
	resolved.Outcome = outcome
	if after != nil {
		state := *after
		resolved.After = &state
	}
	resolved.Detail = detail
	return resolved, nil
}

// ReinstalledSameVersion reports whether a successful install left the
// module in the state it was found in.
func (r InstallRequest) ReinstalledSameVersion() bool {
	return r.Outcome == OutcomeSucceeded && r.After != nil && *r.After == r.Before
}
