package engine

import (
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/stuartofmt/pipInstall/internal/ir"
)

// VerifyConstraint checks a succeeded install against the requested
// constraint and returns a warning, or "" when the constraint holds or
// cannot be judged. Versions that are not semver-shaped (2.0rc1, 1!2.0)
// are not judged.
func VerifyConstraint(dep ir.Dependency, after ir.ModuleState) string {
	if !dep.HasConstraint() || after.Classification != ir.InstalledWithVersion {
		return ""
	}
	op := string(dep.Comparator)
	if dep.Comparator == ir.ComparatorEq {
		op = "="
	}
	c, err := semver.NewConstraint(op + " " + dep.Version)
	if err != nil {
		return ""
	}
	v, err := semver.NewVersion(after.Version)
	if err != nil {
		return ""
	}
	if c.Check(v) {
		return ""
	}
	return fmt.Sprintf("%s: installed version %s does not satisfy %s%s",
		dep.URI(), after.Version, dep.Comparator, dep.Version)
}
