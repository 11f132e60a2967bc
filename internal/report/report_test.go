package report

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stuartofmt/pipInstall/internal/ir"
	"github.com/stuartofmt/pipInstall/internal/parser"
)

func request(t *testing.T, seq int, spec string, before ir.ModuleState, outcome ir.Outcome, after *ir.ModuleState) ir.InstallRequest {
	t.Helper()
	req, err := ir.NewInstallRequest(seq, parser.MustParse(spec), before).Resolve(outcome, after, "")
	require.NoError(t, err)
	return req
}

func state(s ir.ModuleState) *ir.ModuleState { return &s }

func TestAggregatePartitionsInOrder(t *testing.T) {
	reqs := []ir.InstallRequest{
		request(t, 1, "os", ir.StateBuiltin(), ir.OutcomeBuiltin, nil),
		request(t, 2, "flask>=2.0", ir.StateNotInstalled(), ir.OutcomeSucceeded, state(ir.StateInstalled("3.0.0"))),
		request(t, 3, "requests", ir.StateInstalled("2.31.0"), ir.OutcomeSkipped, nil),
		request(t, 4, "nosuch", ir.StateNotInstalled(), ir.OutcomeFailed, nil),
		request(t, 5, "numpy", ir.StateNotInstalled(), ir.OutcomeSucceeded, state(ir.StateInstalled("1.26.4"))),
	}
	b := Aggregate(reqs)

	assert.Equal(t, len(reqs), b.Total())
	require.Len(t, b.Succeeded, 2)
	assert.Equal(t, 2, b.Succeeded[0].Seq)
	assert.Equal(t, 5, b.Succeeded[1].Seq)
	assert.Len(t, b.Builtin, 1)
	assert.Len(t, b.Skipped, 1)
	assert.Len(t, b.Failed, 1)
	assert.False(t, b.OK())
	assert.Equal(t, Summary{Builtin: 1, Skipped: 1, Succeeded: 2, Failed: 1}, b.Summary())
}

func TestAggregatePendingCountsAsFailed(t *testing.T) {
	pending := ir.NewInstallRequest(1, parser.MustParse("x"), ir.StateNotInstalled())
	b := Aggregate([]ir.InstallRequest{pending})
	assert.Len(t, b.Failed, 1)
	assert.Equal(t, 1, b.Total())
}

func TestAggregateEmpty(t *testing.T) {
	b := Aggregate(nil)
	assert.Equal(t, 0, b.Total())
	assert.True(t, b.OK())
	assert.Empty(t, b.Sections())
}

func TestLine(t *testing.T) {
	tests := []struct {
		name string
		req  ir.InstallRequest
		want string
	}{
		{
			"builtin",
			request(t, 1, "os>=1.0", ir.StateBuiltin(), ir.OutcomeBuiltin, nil),
			"os>=1.0 ==> Ignored",
		},
		{
			"skipped with version",
			request(t, 1, "requests", ir.StateInstalled("2.31.0"), ir.OutcomeSkipped, nil),
			"requests ==> InstalledWithVersion 2.31.0",
		},
		{
			"skipped without version",
			request(t, 1, "six", ir.StateInstalled(""), ir.OutcomeSkipped, nil),
			"six ==> InstalledNoVersion ",
		},
		{
			"succeeded from not installed",
			request(t, 1, "flask>=2.0", ir.StateNotInstalled(), ir.OutcomeSucceeded, state(ir.StateInstalled("3.0.0"))),
			"flask>=2.0 ==> was NotInstalled , now 3.0.0",
		},
		{
			"succeeded same version",
			request(t, 1, "pkgX>=1.0", ir.StateInstalled("1.0"), ir.OutcomeSucceeded, state(ir.StateInstalled("1.0"))),
			"pkgx>=1.0 ==> was InstalledWithVersion 1.0, now Reinstalled with current version",
		},
		{
			"succeeded upgrade",
			request(t, 1, "numpy==1.26.4", ir.StateInstalled("1.24.0"), ir.OutcomeSucceeded, state(ir.StateInstalled("1.26.4"))),
			"numpy==1.26.4 ==> was InstalledWithVersion 1.24.0, now 1.26.4",
		},
		{
			"succeeded no version",
			request(t, 1, "git+https://example.com/x.git", ir.StateNotInstalled(), ir.OutcomeSucceeded, state(ir.StateInstalled(""))),
			"git+https://example.com/x.git ==> was NotInstalled , now no Version",
		},
		{
			"succeeded but still not found",
			request(t, 1, "ghost", ir.StateNotInstalled(), ir.OutcomeSucceeded, state(ir.StateNotInstalled())),
			"ghost ==> was NotInstalled , now Reinstalled with current version",
		},
		{
			"succeeded same state without version",
			request(t, 1, "six==1.16.0", ir.StateInstalled(""), ir.OutcomeSucceeded, state(ir.StateInstalled(""))),
			"six==1.16.0 ==> was InstalledNoVersion , now Reinstalled with current version",
		},
		{
			"succeeded now without version",
			request(t, 1, "six==1.16.0", ir.StateNotInstalled(), ir.OutcomeSucceeded, state(ir.StateInstalled(""))),
			"six==1.16.0 ==> was NotInstalled , now no Version",
		},
		{
			"failed",
			request(t, 1, "numpy==9.9", ir.StateInstalled("1.26.4"), ir.OutcomeFailed, nil),
			"numpy==9.9 ==> InstalledWithVersion 1.26.4",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Line(tt.req))
		})
	}
}

func TestRenderPlain(t *testing.T) {
	reqs := []ir.InstallRequest{
		request(t, 1, "os", ir.StateBuiltin(), ir.OutcomeBuiltin, nil),
		request(t, 2, "flask>=2.0", ir.StateNotInstalled(), ir.OutcomeSucceeded, state(ir.StateInstalled("3.0.0"))),
	}
	var buf bytes.Buffer
	require.NoError(t, Renderer{}.Render(&buf, Aggregate(reqs)))

	want := Rule + "\n" +
		"Result Summary\n" +
		Rule + "\n" +
		"\n" + TitleBuiltin + "\n" +
		"\tos ==> Ignored\n" +
		"\n" + TitleSucceeded + "\n" +
		"\tflask>=2.0 ==> was NotInstalled , now 3.0.0\n" +
		"\n" + Rule + "\n" +
		"All modules were successfully installed\n" +
		Rule + "\n"
	assert.Equal(t, want, buf.String())
}

func TestRenderFailureAndColor(t *testing.T) {
	reqs := []ir.InstallRequest{
		request(t, 1, "nosuch", ir.StateNotInstalled(), ir.OutcomeFailed, nil),
	}
	var plain, colored bytes.Buffer
	require.NoError(t, Renderer{}.Render(&plain, Aggregate(reqs)))
	require.NoError(t, Renderer{Color: true}.Render(&colored, Aggregate(reqs)))

	assert.Contains(t, plain.String(), "Some modules failed to install")
	assert.NotContains(t, plain.String(), "\x1b[")
	assert.Contains(t, colored.String(), "\x1b[")
	assert.Contains(t, colored.String(), TitleFailed)
}

func TestLogSummary(t *testing.T) {
	reqs := []ir.InstallRequest{
		request(t, 1, "os", ir.StateBuiltin(), ir.OutcomeBuiltin, nil),
		request(t, 2, "nosuch", ir.StateNotInstalled(), ir.OutcomeFailed, nil),
	}
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	Renderer{}.Log(logger, Aggregate(reqs))

	out := buf.String()
	assert.Contains(t, out, "Result Summary")
	assert.Contains(t, out, TitleFailed)
	assert.Contains(t, out, "os ==> Ignored")
	assert.Contains(t, out, "Some modules failed to install")

	// rules, banner, two titles, two lines and the result line; no blanks
	assert.Equal(t, 10, strings.Count(out, "level=INFO"))
}
