package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stuartofmt/pipInstall/internal/ir"
)

func TestParseRegistry(t *testing.T) {
	tests := []struct {
		in      string
		pkg     string
		op      ir.Comparator
		version string
	}{
		{"requests", "requests", ir.ComparatorNone, ""},
		{"flask>=2.0", "flask", ir.ComparatorGe, "2.0"},
		{"Flask==3.0.0", "flask", ir.ComparatorEq, "3.0.0"},
		{"numpy<2", "numpy", ir.ComparatorLt, "2"},
		{"numpy>1.26.4", "numpy", ir.ComparatorGt, "1.26.4"},
		{"pyserial<=3.5", "pyserial", ir.ComparatorLe, "3.5"},
		{"Typing_Extensions", "typing-extensions", ir.ComparatorNone, ""},
		{"zope.interface==6.0", "zope-interface", ir.ComparatorEq, "6.0"},
		{"uvicorn[standard]==0.30.1", "uvicorn[standard]", ir.ComparatorEq, "0.30.1"},
		{"Fast_API[All]", "fast-api[All]", ir.ComparatorNone, ""},
		{"  requests  ", "requests", ir.ComparatorNone, ""},
		{"flask >= 2.0", "flask", ir.ComparatorGe, "2.0"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			dep, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, ir.KindRegistry, dep.Kind)
			assert.Equal(t, tt.pkg, dep.Package)
			assert.Equal(t, tt.op, dep.Comparator)
			assert.Equal(t, tt.version, dep.Version)
			assert.NoError(t, dep.Validate())
		})
	}
}

func TestParseTildeRewritten(t *testing.T) {
	dep, err := Parse("requests~=2.31")
	require.NoError(t, err)
	assert.Equal(t, ir.ComparatorGe, dep.Comparator)
	assert.Equal(t, "2.31", dep.Version)
	assert.Equal(t, "requests>=2.31", dep.URI())
}

func TestParseReleaseVersions(t *testing.T) {
	valid := []string{
		"1", "1.0", "1.2.3.4", "1!2.0", "2.0a1", "2.0-b2", "2.0rc1",
		"1.0.post1", "1.0.dev3", "1!1.0rc2.post3.dev4",
	}
	for _, v := range valid {
		t.Run(v, func(t *testing.T) {
			dep, err := Parse("pkg==" + v)
			require.NoError(t, err)
			assert.Equal(t, v, dep.Version)
		})
	}

	invalid := []string{"abc", "1.0-final", "v1.0", "1.0+local", "1.*", ".1"}
	for _, v := range invalid {
		t.Run("invalid "+v, func(t *testing.T) {
			_, err := Parse("pkg==" + v)
			require.Error(t, err)
			assert.True(t, IsParseError(err))
			assert.False(t, IsUnsupportedConditional(err))
		})
	}
}

func TestParseSourceControl(t *testing.T) {
	tests := []string{
		"git+https://example.com/x.git",
		"git+https://github.com/pallets/flask.git@2.3.0#egg=flask",
		"hg+https://hg.example.com/repo",
	}
	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			dep, err := Parse(in)
			require.NoError(t, err)
			assert.Equal(t, ir.KindSourceControl, dep.Kind)
			assert.Equal(t, in, dep.Package)
			assert.True(t, dep.Comparator.IsNone())
			assert.Empty(t, dep.Version)
			assert.Equal(t, in, dep.URI())
		})
	}
}

func TestParseRejectsComma(t *testing.T) {
	inputs := []string{
		"badpkg==1,badpkg==2",
		"pkg>=1.0,<2.0",
		"pkg[a,b]",
		"git+https://example.com/x.git,y",
		",",
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			_, err := Parse(in)
			require.Error(t, err)
			assert.True(t, IsUnsupportedConditional(err))

			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, ErrCodeUnsupportedConditional, pe.Code)
		})
	}
}

func TestParseInvalidSyntax(t *testing.T) {
	tests := []struct {
		in      string
		message string
	}{
		{"", "empty"},
		{"   ", "empty"},
		{"pkg; python_version<'3.8'", "environment markers"},
		{"pkg @ https://example.com/pkg.whl", "direct references"},
		{"pkg!=1.0", "exclusion"},
		{"pkg===1.0", "arbitrary equality"},
		{"pkg=1.0", "incomplete comparator"},
		{"pkg>=", "expected version"},
		{"pkg[]", "expected name"},
		{"pkg[extra", "expected ']'"},
		{"pkg another", "expected end of input"},
		{">=1.0", "expected name"},
		{"---", "no letters or digits"},
		{"git+", "empty"},
		{"git+https://x y", "whitespace"},
		{"git+https://example.com/x\x01y.git", "non-printable"},
		{"git+https://example.com/x\x00", "non-printable"},
		{"git+https://example.com/\x7f", "non-printable"},
		{"git+https://example.com/\xff.git", "non-printable"},
		{"pkg$", "unexpected character"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, err := Parse(tt.in)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
			assert.Contains(t, err.Error(), string(ErrCodeInvalidSyntax))
		})
	}
}

func TestParseDottedNames(t *testing.T) {
	// dots are accepted and folded into the canonical separator
	for _, in := range []string{"zope.interface", "Zope_Interface", "zope-interface", "zope..interface"} {
		t.Run(in, func(t *testing.T) {
			dep, err := Parse(in)
			require.NoError(t, err)
			assert.Equal(t, "zope-interface", dep.Package)
			assert.Equal(t, "zope_interface", ir.ImportName(dep.ProbeName()))
		})
	}
}

func TestParseURIIdempotent(t *testing.T) {
	inputs := []string{
		"requests",
		"Flask ~= 2.0",
		"A-B_C.D==1.0",
		"uvicorn[standard]>=0.30",
		"git+https://example.com/x.git",
		"numpy < 2",
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			first, err := Parse(in)
			require.NoError(t, err)
			second, err := Parse(first.URI())
			require.NoError(t, err)
			assert.Equal(t, first.URI(), second.URI())
			assert.Equal(t, first.Package, second.Package)
		})
	}
}

func TestParseErrorPosition(t *testing.T) {
	_, err := Parse("pkg==1,pkg==2")
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 6, pe.Pos)
	assert.Contains(t, pe.Error(), "column 7")
}

func TestMustParsePanics(t *testing.T) {
	assert.NotPanics(t, func() { MustParse("requests") })
	assert.Panics(t, func() { MustParse("a,b") })
}
