package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/stuartofmt/pipInstall/internal/config"
	"github.com/stuartofmt/pipInstall/internal/pyenv"
	"github.com/stuartofmt/pipInstall/internal/report"
	"github.com/stuartofmt/pipInstall/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Plugin   string
	Limit    int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recorded install runs, or show one run's report",
		Long: `List the install runs recorded for a plugin, newest first, or print the
report of a single run.

The history database is found from the plugin directory (-p) and the
configured history_db, or given directly with --db.

Example:
  pipinstall history -p ./MyPlugin
  pipinstall history -p ./MyPlugin 01920000-0000-7000-8000-000000000000`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			runID := ""
			if len(args) == 1 {
				runID = args[0]
			}
			return runHistory(opts, runID, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the history database")
	cmd.Flags().StringVarP(&opts.Plugin, "plugin", "p", "", "path to the plugin directory")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "maximum runs to list (0 = all)")

	return cmd
}

// historyPath finds the database from flags and configuration.
func historyPath(opts *HistoryOptions) (string, error) {
	if opts.Database != "" {
		return opts.Database, nil
	}
	if opts.Plugin == "" {
		return "", NewExitError(ExitNoPluginProvided, "Exiting: No plugin path (-p) or --db was provided")
	}
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return "", WrapExitError(ExitUnexpectedError, "Failed to load configuration", err)
	}
	env := pyenv.New(opts.Plugin, cfg.EnvOptions())
	path, ok := cfg.HistoryPath(env.Root())
	if !ok {
		return "", NewExitError(ExitUnexpectedError, "Run history is disabled (history_db = off)")
	}
	return path, nil
}

func runHistory(opts *HistoryOptions, runID string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	path, err := historyPath(opts)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		if runID != "" {
			return WrapExitError(ExitUnexpectedError, "no run history", err)
		}
		formatter.VerboseLog("no history database at %s", path)
		if formatter.IsJSON() {
			return formatter.Success([]store.Run{})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")
		return nil
	}

	st, err := store.Open(path)
	if err != nil {
		return WrapExitError(ExitUnexpectedError, "failed to open run history", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if runID == "" {
		runs, err := st.ListRuns(ctx, opts.Limit)
		if err != nil {
			return WrapExitError(ExitUnexpectedError, "failed to list runs", err)
		}
		if formatter.IsJSON() {
			return formatter.Success(runs)
		}
		if len(runs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")
			return nil
		}
		for _, run := range runs {
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %-20s exit=%d\n",
				run.ID, run.StartedAt.Local().Format(time.RFC3339), run.Plugin, run.ExitCode)
		}
		return nil
	}

	run, err := st.ReadRun(ctx, runID)
	if errors.Is(err, store.ErrRunNotFound) {
		return WrapExitError(ExitUnexpectedError, fmt.Sprintf("run %s not found in %s", runID, filepath.Base(path)), err)
	}
	if err != nil {
		return WrapExitError(ExitUnexpectedError, "failed to read run", err)
	}
	if formatter.IsJSON() {
		return formatter.Success(run)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run:      %s\n", run.ID)
	fmt.Fprintf(out, "Plugin:   %s (%s)\n", run.Plugin, run.PluginDir)
	fmt.Fprintf(out, "Manifest: %s\n", run.ManifestPath)
	fmt.Fprintf(out, "Started:  %s\n", run.StartedAt.Local().Format(time.RFC3339))
	fmt.Fprintf(out, "Duration: %s\n", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	fmt.Fprintf(out, "Exit:     %d\n", run.ExitCode)
	for _, w := range run.Warnings {
		fmt.Fprintf(out, "Warning:  %s\n", w)
	}
	return renderer(opts.RootOptions).Render(out, report.Aggregate(run.Requests))
}
