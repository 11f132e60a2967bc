package parser

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/stuartofmt/pipInstall/internal/ir"
)

// SourceControlPrefixes are the reserved prefixes of version-control URIs
// that pip installs as-is.
var SourceControlPrefixes = []string{"git+", "hg+", "svn+", "bzr+"}

// releaseVersion admits an optional epoch, numeric release segments and
// optional pre-release, post-release and dev tags.
var releaseVersion = regexp.MustCompile(`^(\d+!)?\d+(\.\d+)*(-?(a|b|rc)\d+)?(\.post\d+)?(\.dev\d+)?$`)

// Parse converts one specification line into a Dependency.
//
// Surrounding whitespace is ignored, as is whitespace around a comparator.
// The returned Dependency always satisfies ir.Dependency.Validate.
func Parse(text string) (ir.Dependency, error) {
	line := strings.TrimSpace(text)
	if line == "" {
		return ir.Dependency{}, syntaxError(text, -1, "empty dependency")
	}

	// Rejected before grammar matching so the failure is distinct.
	if i := strings.IndexByte(line, ','); i >= 0 {
		return ir.Dependency{}, &ParseError{
			Code:    ErrCodeUnsupportedConditional,
			Input:   line,
			Pos:     i,
			Message: "multiple constraints, extras lists and environment markers are not supported",
		}
	}

	if hasSourceControlPrefix(line) {
		return parseSourceControl(line)
	}
	return parseRegistry(line)
}

// MustParse is like Parse but panics on error. Intended for tests and
// static tables.
func MustParse(text string) ir.Dependency {
	dep, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return dep
}

func hasSourceControlPrefix(line string) bool {
	lower := strings.ToLower(line)
	for _, p := range SourceControlPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

func parseSourceControl(line string) (ir.Dependency, error) {
	if i := strings.IndexAny(line, " \t"); i >= 0 {
		return ir.Dependency{}, syntaxError(line, i, "source control URI must not contain whitespace")
	}
	plus := strings.IndexByte(line, '+')
	if plus == len(line)-1 {
		return ir.Dependency{}, syntaxError(line, plus, "source control URI is empty")
	}
	for i, r := range line {
		if r == utf8.RuneError || !unicode.IsPrint(r) {
			return ir.Dependency{}, syntaxError(line, i, "source control URI contains a non-printable character")
		}
	}
	return ir.Dependency{
		Package: line,
		Kind:    ir.KindSourceControl,
		Source:  line,
	}, nil
}

type registryParser struct {
	input string
	toks  []token
	pos   int
}

func (p *registryParser) peek() token {
	return p.toks[p.pos]
}

func (p *registryParser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *registryParser) expect(kind tokenKind) (token, error) {
	t := p.next()
	if t.kind != kind {
		return t, syntaxError(p.input, t.pos, "expected %s, found %s", kind, describe(t))
	}
	return t, nil
}

func describe(t token) string {
	if t.kind == tokEOF {
		return t.kind.String()
	}
	return t.kind.String() + " " + `"` + t.text + `"`
}

// parseRegistry implements NAME ( "[" EXTRAS "]" )? ( OP VERSION )? EOF.
func parseRegistry(line string) (ir.Dependency, error) {
	toks, err := lex(line)
	if err != nil {
		return ir.Dependency{}, err
	}
	p := &registryParser{input: line, toks: toks}

	name, err := p.expect(tokName)
	if err != nil {
		return ir.Dependency{}, err
	}
	if !strings.ContainsFunc(name.text, func(r rune) bool { return r < 128 && isAlnum(byte(r)) }) {
		return ir.Dependency{}, syntaxError(line, name.pos, "package name %q has no letters or digits", name.text)
	}
	pkg := ir.CanonicalName(name.text)

	if p.peek().kind == tokLBracket {
		p.next()
		extras, err := p.expect(tokName)
		if err != nil {
			return ir.Dependency{}, err
		}
		if _, err := p.expect(tokRBracket); err != nil {
			return ir.Dependency{}, err
		}
		pkg += "[" + extras.text + "]"
	}

	dep := ir.Dependency{Package: pkg, Kind: ir.KindRegistry, Source: line}

	if p.peek().kind == tokOp {
		op := p.next()
		version, err := p.expect(tokVersion)
		if err != nil {
			return ir.Dependency{}, err
		}
		if !releaseVersion.MatchString(version.text) {
			return ir.Dependency{}, syntaxError(line, version.pos, "%q is not a release version", version.text)
		}
		dep.Comparator = ir.Comparator(op.text)
		dep.Version = version.text
	}

	if _, err := p.expect(tokEOF); err != nil {
		return ir.Dependency{}, err
	}

	// Compatible-release upper bounds are not enforced.
	if dep.Comparator == ir.ComparatorTilde {
		dep.Comparator = ir.ComparatorGe
	}
	return dep, nil
}
