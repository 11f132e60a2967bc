package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/stuartofmt/pipInstall/internal/engine"
	"github.com/stuartofmt/pipInstall/internal/report"
	"github.com/stuartofmt/pipInstall/internal/store"
)

// InstallResult is the JSON payload of the install command.
type InstallResult struct {
	Plugin   string           `json:"plugin"`
	Venv     string           `json:"venv"`
	Digest   string           `json:"manifest_digest"`
	Summary  report.Summary   `json:"summary"`
	Sections []report.Section `json:"sections"`
	Warnings []string         `json:"warnings,omitempty"`
	ExitCode int              `json:"exit_code"`
}

// NewInstallCommand creates the install command.
func NewInstallCommand(rootOpts *RootOptions) *cobra.Command {
	return newInstallCommand(&PluginOptions{RootOptions: rootOpts})
}

func newInstallCommand(opts *PluginOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install -m <manifest> -p <plugin-dir>",
		Short: "Create the plugin's venv and install its dependencies",
		Long: `Create (or recreate) the plugin's virtual environment and install every
dependency listed in the manifest.

Built-in modules are ignored. Modules that are already installed are skipped
unless the manifest asks for a specific version. Everything else is installed
with pip, and the environment is checked again afterwards. The run ends with
a summary and, when anything failed, exit code 10.

Example:
  pipinstall install -m ./MyPlugin/plugin.json -p ./MyPlugin
  pipinstall install -m plugin.json -p . --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(cmd, opts)
		},
	}
	opts.bindFlags(cmd)
	return cmd
}

func runInstall(cmd *cobra.Command, opts *PluginOptions) (err error) {
	logger := newLogger(cmd, opts.RootOptions)
	defer func() {
		logExit(logger, err)
		if closeErr := logger.Close(); closeErr != nil && err == nil {
			err = WrapExitError(ExitUnexpectedError, "failed to close log file", closeErr)
		}
	}()

	ctx, cancel := signalContext(cmd)
	defer cancel()

	logStart(logger)
	s, err := openSession(logger, opts)
	if err != nil {
		return err
	}

	logger.Info("Creating Python Virtual Environment at: " + s.env.Root())
	if err := s.env.Create(ctx, s.runner); err != nil {
		return classify(err)
	}
	if path, err := logger.AttachFile(s.env.Root(), s.cfg.LogName); err != nil {
		logger.Warn("log file unavailable", "error", err)
	} else {
		logger.Debug("logging to file", "path", path)
	}
	if _, err := s.env.PrepareSite(ctx, s.runner); err != nil {
		return classify(err)
	}

	res, err := s.engine(opts).Run(ctx, s.entries)
	if err != nil {
		return classify(err)
	}

	buckets := report.Aggregate(res.Requests)
	code := ExitSuccess
	if !buckets.OK() {
		code = ExitFailedToInstallModule
	}

	// the console gets the report on stdout; the log file keeps its own copy
	report.Renderer{}.Log(logger.File(), buckets)
	if err := writeInstallOutput(cmd, opts, s, res, buckets, code); err != nil {
		return WrapExitError(ExitUnexpectedError, "failed to write report", err)
	}
	recordHistory(ctx, s, res, code)

	if code != ExitSuccess {
		return NewExitError(code, "Some modules failed to install")
	}
	return nil
}

func writeInstallOutput(cmd *cobra.Command, opts *PluginOptions, s *session, res *engine.Result, b report.Buckets, code int) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	if formatter.IsJSON() {
		sections := b.Sections()
		if sections == nil {
			sections = []report.Section{}
		}
		return formatter.Result(res.RunID, code == ExitSuccess, InstallResult{
			Plugin:   s.pluginName(),
			Venv:     s.env.Root(),
			Digest:   res.Digest,
			Summary:  b.Summary(),
			Sections: sections,
			Warnings: res.Warnings,
			ExitCode: code,
		})
	}
	return renderer(opts.RootOptions).Render(cmd.OutOrStdout(), b)
}

// recordHistory appends the run to the history database. Failures are
// logged and never change the exit code.
func recordHistory(ctx context.Context, s *session, res *engine.Result, code int) {
	path, ok := s.cfg.HistoryPath(s.env.Root())
	if !ok {
		return
	}
	st, err := store.Open(path)
	if err != nil {
		s.logger.Warn("run history unavailable", "path", path, "error", err)
		return
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			s.logger.Warn("error closing run history", "error", closeErr)
		}
	}()

	manifestPath, err := filepath.Abs(s.manifest.Path)
	if err != nil {
		manifestPath = s.manifest.Path
	}
	run := store.Run{
		ID:             res.RunID,
		Plugin:         s.pluginName(),
		PluginDir:      s.env.PluginDir(),
		ManifestPath:   manifestPath,
		ManifestDigest: res.Digest,
		StartedAt:      res.StartedAt,
		FinishedAt:     res.FinishedAt,
		ExitCode:       code,
		Warnings:       res.Warnings,
		Requests:       res.Requests,
	}
	if err := st.WriteRun(ctx, run); err != nil {
		s.logger.Warn("failed to record run", "run", res.RunID, "error", err)
		return
	}
	s.logger.Debug(fmt.Sprintf("run %s recorded", res.RunID), "path", path)
}
