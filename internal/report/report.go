// Package report partitions processed install requests by outcome and
// renders the end-of-run summary.
package report

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/fatih/color"

	"github.com/stuartofmt/pipInstall/internal/ir"
)

// Section titles, in rendering order.
const (
	TitleBuiltin   = "These modules were Ignored (built-in):"
	TitleSkipped   = "These modules were Skipped (Already installed - no version requested):"
	TitleSucceeded = "These modules were successfully installed / updated:"
	TitleFailed    = "These modules failed to install / update:"
)

// Rule separates the summary banner from surrounding log output.
const Rule = "---------------------------------------"

// Buckets holds every request in exactly one outcome bucket, each in
// manifest order.
type Buckets struct {
	Builtin   []ir.InstallRequest `json:"builtin"`
	Skipped   []ir.InstallRequest `json:"skipped"`
	Succeeded []ir.InstallRequest `json:"succeeded"`
	Failed    []ir.InstallRequest `json:"failed"`
}

// Aggregate partitions requests by outcome. A request still pending is a
// programming error and is reported as failed so it is never lost.
func Aggregate(requests []ir.InstallRequest) Buckets {
	var b Buckets
	for _, r := range requests {
		switch r.Outcome {
		case ir.OutcomeBuiltin:
			b.Builtin = append(b.Builtin, r)
		case ir.OutcomeSkipped:
			b.Skipped = append(b.Skipped, r)
		case ir.OutcomeSucceeded:
			b.Succeeded = append(b.Succeeded, r)
		default:
			b.Failed = append(b.Failed, r)
		}
	}
	return b
}

// Total returns the number of requests across all buckets.
func (b Buckets) Total() int {
	return len(b.Builtin) + len(b.Skipped) + len(b.Succeeded) + len(b.Failed)
}

// OK reports whether the failed bucket is empty.
func (b Buckets) OK() bool {
	return len(b.Failed) == 0
}

// Summary counts requests per bucket.
type Summary struct {
	Builtin   int  `json:"builtin"`
	Skipped   int  `json:"skipped"`
	Succeeded int  `json:"succeeded"`
	Failed    int  `json:"failed"`
	OK        bool `json:"ok"`
}

// Summary returns the bucket counts.
func (b Buckets) Summary() Summary {
	return Summary{
		Builtin:   len(b.Builtin),
		Skipped:   len(b.Skipped),
		Succeeded: len(b.Succeeded),
		Failed:    len(b.Failed),
		OK:        b.OK(),
	}
}

// Section is one titled, non-empty bucket.
type Section struct {
	Title string   `json:"title"`
	Lines []string `json:"lines"`
}

// Sections returns the non-empty buckets with their rendered lines.
func (b Buckets) Sections() []Section {
	var out []Section
	add := func(title string, reqs []ir.InstallRequest) {
		if len(reqs) == 0 {
			return
		}
		lines := make([]string, len(reqs))
		for i, r := range reqs {
			lines[i] = Line(r)
		}
		out = append(out, Section{Title: title, Lines: lines})
	}
	add(TitleBuiltin, b.Builtin)
	add(TitleSkipped, b.Skipped)
	add(TitleSucceeded, b.Succeeded)
	add(TitleFailed, b.Failed)
	return out
}

// Line renders one request for its bucket.
func Line(r ir.InstallRequest) string {
	uri := r.Dependency.URI()
	switch r.Outcome {
	case ir.OutcomeBuiltin:
		return uri + " ==> Ignored"
	case ir.OutcomeSkipped:
		return r.Dependency.Package + " ==> " + r.Before.String()
	case ir.OutcomeSucceeded:
		return fmt.Sprintf("%s ==> was %s, now %s", uri, r.Before, Now(r))
	default:
		return uri + " ==> " + r.Before.String()
	}
}

// Now describes the state after a successful install. Any after-state equal
// to the before-state is a reinstall, including one still not found.
func Now(r ir.InstallRequest) string {
	switch {
	case r.After == nil:
		return "no Version"
	case r.ReinstalledSameVersion():
		return "Reinstalled with current version"
	case r.After.Version == "":
		return "no Version"
	default:
		return r.After.Version
	}
}

// Renderer writes the summary as text.
type Renderer struct {
	// Color enables colored section headers.
	Color bool
}

// Render writes the banner, every non-empty section and the result line.
func (rd Renderer) Render(w io.Writer, b Buckets) error {
	var sb strings.Builder
	sb.WriteString(Rule + "\n")
	sb.WriteString("Result Summary\n")
	sb.WriteString(Rule + "\n")
	for _, s := range b.Sections() {
		sb.WriteString("\n" + rd.header(s.Title) + "\n")
		for _, l := range s.Lines {
			sb.WriteString("\t" + l + "\n")
		}
	}
	sb.WriteString("\n" + Rule + "\n")
	if b.OK() {
		sb.WriteString(rd.paint(color.FgGreen, "All modules were successfully installed") + "\n")
	} else {
		sb.WriteString(rd.paint(color.FgRed, "Some modules failed to install") + "\n")
	}
	sb.WriteString(Rule + "\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

// Log writes the rendered summary to logger one Info record per line.
// Blank separator lines are dropped.
func (rd Renderer) Log(logger *slog.Logger, b Buckets) {
	var sb strings.Builder
	_ = rd.Render(&sb, b) // a strings.Builder never fails
	for _, line := range strings.Split(sb.String(), "\n") {
		if strings.TrimSpace(line) != "" {
			logger.Info(line)
		}
	}
}

func (rd Renderer) header(title string) string {
	switch title {
	case TitleSucceeded:
		return rd.paint(color.FgGreen, title)
	case TitleFailed:
		return rd.paint(color.FgRed, title)
	case TitleSkipped:
		return rd.paint(color.FgYellow, title)
	default:
		return rd.paint(color.FgCyan, title)
	}
}

func (rd Renderer) paint(fg color.Attribute, s string) string {
	if !rd.Color {
		return s
	}
	c := color.New(fg, color.Bold)
	c.EnableColor()
	return c.Sprint(s)
}
