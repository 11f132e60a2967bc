package store

import (
	"context"
	"fmt"

	"github.com/stuartofmt/pipInstall/internal/ir"
)

// WriteRun records a run and its requests in one transaction.
// Uses ON CONFLICT DO NOTHING for idempotency - writing the same run id
// twice keeps the first record.
//
// Empty ToolVersion and RecordVersion default to the current versions.
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	if run.ID == "" {
		return fmt.Errorf("write run: empty id")
	}
	warnings, err := marshalWarnings(run.Warnings)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	if run.ToolVersion == "" {
		run.ToolVersion = ir.ToolVersion
	}
	if run.RecordVersion == "" {
		run.RecordVersion = ir.RecordVersion
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write run: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, plugin, plugin_dir, manifest_path, manifest_digest, started_at, finished_at,
		 exit_code, warnings, tool_version, record_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Plugin,
		run.PluginDir,
		run.ManifestPath,
		run.ManifestDigest,
		formatTime(run.StartedAt),
		formatTime(run.FinishedAt),
		run.ExitCode,
		warnings,
		run.ToolVersion,
		run.RecordVersion,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return tx.Commit()
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO requests
		(run_id, seq, source, package, comparator, version, kind,
		 before_class, before_version, outcome, after_class, after_version, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, seq) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("write run: prepare: %w", err)
	}
	defer stmt.Close()

	for _, req := range run.Requests {
		row := toRow(req)
		if _, err := stmt.ExecContext(ctx,
			run.ID,
			row.Seq,
			row.Source,
			row.Package,
			row.Comparator,
			row.Version,
			row.Kind,
			row.BeforeClass,
			row.BeforeVersion,
			row.Outcome,
			row.AfterClass,
			row.AfterVersion,
			row.Detail,
		); err != nil {
			return fmt.Errorf("write run: request %d: %w", req.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write run: commit: %w", err)
	}
	return nil
}
