package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/stuartofmt/pipInstall/internal/ir"
)

// timeLayout stores timestamps as sortable UTC text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

// marshalWarnings converts warnings to canonical JSON TEXT for storage.
func marshalWarnings(warnings []string) (string, error) {
	if warnings == nil {
		warnings = []string{}
	}
	data, err := ir.MarshalCanonical(warnings)
	if err != nil {
		return "", fmt.Errorf("marshal warnings: %w", err)
	}
	return string(data), nil
}

// unmarshalWarnings parses stored warnings. Returns an empty slice, never nil.
func unmarshalWarnings(data string) ([]string, error) {
	out := []string{}
	if data == "" || data == "[]" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return nil, fmt.Errorf("unmarshal warnings: %w", err)
	}
	return out, nil
}

// requestRow is the flat column form of an ir.InstallRequest.
type requestRow struct {
	Seq           int
	Source        string
	Package       string
	Comparator    string
	Version       string
	Kind          string
	BeforeClass   string
	BeforeVersion string
	Outcome       string
	AfterClass    *string
	AfterVersion  *string
	Detail        string
}

func toRow(r ir.InstallRequest) requestRow {
	row := requestRow{
		Seq:           r.Seq,
		Source:        r.Dependency.Source,
		Package:       r.Dependency.Package,
		Comparator:    string(r.Dependency.Comparator),
		Version:       r.Dependency.Version,
		Kind:          r.Dependency.Kind.String(),
		BeforeClass:   r.Before.Classification.String(),
		BeforeVersion: r.Before.Version,
		Outcome:       r.Outcome.String(),
		Detail:        r.Detail,
	}
	if r.After != nil {
		class := r.After.Classification.String()
		version := r.After.Version
		row.AfterClass = &class
		row.AfterVersion = &version
	}
	return row
}

func (row requestRow) request() (ir.InstallRequest, error) {
	kind, err := ir.ParseKind(row.Kind)
	if err != nil {
		return ir.InstallRequest{}, fmt.Errorf("request %d: %w", row.Seq, err)
	}
	before, err := ir.ParseClassification(row.BeforeClass)
	if err != nil {
		return ir.InstallRequest{}, fmt.Errorf("request %d: %w", row.Seq, err)
	}
	outcome, err := ir.ParseOutcome(row.Outcome)
	if err != nil {
		return ir.InstallRequest{}, fmt.Errorf("request %d: %w", row.Seq, err)
	}
	req := ir.InstallRequest{
		Seq: row.Seq,
		Dependency: ir.Dependency{
			Package:    row.Package,
			Comparator: ir.Comparator(row.Comparator),
			Version:    row.Version,
			Kind:       kind,
			Source:     row.Source,
		},
		Before:  ir.ModuleState{Classification: before, Version: row.BeforeVersion},
		Outcome: outcome,
		Detail:  row.Detail,
	}
	if row.AfterClass != nil {
		after, err := ir.ParseClassification(*row.AfterClass)
		if err != nil {
			return ir.InstallRequest{}, fmt.Errorf("request %d: %w", row.Seq, err)
		}
		state := ir.ModuleState{Classification: after}
		if row.AfterVersion != nil {
			state.Version = *row.AfterVersion
		}
		req.After = &state
	}
	return req, nil
}
