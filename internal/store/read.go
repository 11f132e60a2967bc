package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/stuartofmt/pipInstall/internal/ir"
)

const runColumns = `id, plugin, plugin_dir, manifest_path, manifest_digest, started_at, finished_at,
	exit_code, warnings, tool_version, record_version`

// ListRuns returns recorded runs, newest first, without their requests.
// A limit of zero or less returns every run.
//
// Returns empty slice (not nil) if no runs exist.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs
		ORDER BY started_at DESC, id COLLATE BINARY DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// ReadRun returns one run with its requests in manifest order.
// Returns ErrRunNotFound (wrapped) if the id is unknown.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("read run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", id, err)
	}

	run.Requests, err = s.readRequests(ctx, id)
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", id, err)
	}
	return run, nil
}

// readRequests returns a run's requests ordered by seq.
func (s *Store) readRequests(ctx context.Context, runID string) ([]ir.InstallRequest, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, source, package, comparator, version, kind,
		       before_class, before_version, outcome, after_class, after_version, detail
		FROM requests
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query requests: %w", err)
	}
	defer rows.Close()

	reqs := []ir.InstallRequest{}
	for rows.Next() {
		var row requestRow
		var afterClass, afterVersion sql.NullString
		if err := rows.Scan(
			&row.Seq,
			&row.Source,
			&row.Package,
			&row.Comparator,
			&row.Version,
			&row.Kind,
			&row.BeforeClass,
			&row.BeforeVersion,
			&row.Outcome,
			&afterClass,
			&afterVersion,
			&row.Detail,
		); err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		if afterClass.Valid {
			row.AfterClass = &afterClass.String
		}
		if afterVersion.Valid {
			row.AfterVersion = &afterVersion.String
		}
		req, err := row.request()
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate requests: %w", err)
	}
	return reqs, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(sc rowScanner) (Run, error) {
	var run Run
	var started, finished, warnings string
	if err := sc.Scan(
		&run.ID,
		&run.Plugin,
		&run.PluginDir,
		&run.ManifestPath,
		&run.ManifestDigest,
		&started,
		&finished,
		&run.ExitCode,
		&warnings,
		&run.ToolVersion,
		&run.RecordVersion,
	); err != nil {
		return Run{}, err
	}
	var err error
	if run.StartedAt, err = parseTime(started); err != nil {
		return Run{}, err
	}
	if run.FinishedAt, err = parseTime(finished); err != nil {
		return Run{}, err
	}
	if run.Warnings, err = unmarshalWarnings(warnings); err != nil {
		return Run{}, err
	}
	return run, nil
}
