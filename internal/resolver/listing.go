package resolver

import (
	"sort"
	"strings"

	"github.com/stuartofmt/pipInstall/internal/ir"
)

// Listing is a parsed frozen package listing, keyed by canonical name.
// A present key with an empty version is a distribution installed from a
// direct reference or in editable mode.
type Listing map[string]string

// ParseListing normalizes "pip freeze --all" output.
//
// Recognized lines:
//
//	name==version
//	name===version
//	name @ file:///path/to/dist.whl
//	-e git+https://host/repo.git@ref#egg=name
//
// Comment and blank lines are ignored, as are editable lines with no
// #egg= fragment.
func ParseListing(out string) Listing {
	listing := make(Listing)
	for _, raw := range strings.Split(out, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, version := splitFreezeLine(line)
		if name == "" {
			continue
		}
		listing[ir.CanonicalName(name)] = version
	}
	return listing
}

func splitFreezeLine(line string) (name, version string) {
	if rest, ok := strings.CutPrefix(line, "-e "); ok {
		i := strings.Index(rest, "#egg=")
		if i < 0 {
			return "", ""
		}
		egg := rest[i+len("#egg="):]
		if j := strings.IndexAny(egg, "&[ "); j >= 0 {
			egg = egg[:j]
		}
		return egg, ""
	}
	if before, _, ok := strings.Cut(line, " @ "); ok {
		return strings.TrimSpace(before), ""
	}
	if before, after, ok := strings.Cut(line, "==="); ok {
		return before, strings.TrimSpace(after)
	}
	if before, after, ok := strings.Cut(line, "=="); ok {
		return before, strings.TrimSpace(after)
	}
	return line, ""
}

// Lookup returns the listed version of name, canonicalizing it first.
func (l Listing) Lookup(name string) (version string, ok bool) {
	version, ok = l[ir.CanonicalName(name)]
	return version, ok
}

// Names returns the listed canonical names in sorted order.
func (l Listing) Names() []string {
	names := make([]string, 0, len(l))
	for n := range l {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
