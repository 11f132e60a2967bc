package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/stuartofmt/pipInstall/internal/config"
	"github.com/stuartofmt/pipInstall/internal/engine"
	"github.com/stuartofmt/pipInstall/internal/ir"
	"github.com/stuartofmt/pipInstall/internal/logging"
	"github.com/stuartofmt/pipInstall/internal/manifest"
	"github.com/stuartofmt/pipInstall/internal/pyenv"
	"github.com/stuartofmt/pipInstall/internal/report"
	"github.com/stuartofmt/pipInstall/internal/runner"
)

// bannerRule frames the start and end of a run in the log.
const bannerRule = "---------------------------------------------------"

// PluginOptions holds the flags shared by commands that act on a plugin.
type PluginOptions struct {
	*RootOptions
	Manifest string
	Plugin   string

	// Runner overrides command execution (for testing).
	// If nil, commands run as real processes.
	Runner runner.Runner

	// IDs overrides the run id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDs engine.IDGenerator

	// Now overrides the wall clock (for testing).
	Now func() time.Time
}

func (o *PluginOptions) bindFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.Manifest, "manifest", "m", "", "path to the plugin manifest (JSON)")
	cmd.Flags().StringVarP(&o.Plugin, "plugin", "p", "", "path to the plugin directory")
}

// session is everything a plugin command needs once its arguments check out.
type session struct {
	cfg      *config.Config
	logger   *logging.Logger
	manifest *manifest.Manifest
	entries  []string
	env      *pyenv.Env
	runner   runner.Runner
}

// newLogger builds the console logger for a command.
func newLogger(cmd *cobra.Command, opts *RootOptions) *logging.Logger {
	return logging.New(logging.Options{
		Console: cmd.ErrOrStderr(),
		Verbose: opts.Verbose,
	})
}

// validatePaths checks the manifest and plugin arguments in the order the
// exit codes are numbered.
func validatePaths(manifestPath, pluginDir string) error {
	if manifestPath == "" {
		return NewExitError(ExitNoManifestProvided, "Exiting: No manifest file (-m) was provided")
	}
	if info, err := os.Stat(manifestPath); err != nil || info.IsDir() {
		return NewExitError(ExitManifestDoesNotExist, fmt.Sprintf("Exiting: Manifest file %s does not exist", manifestPath))
	}
	if pluginDir == "" {
		return NewExitError(ExitNoPluginProvided, "Exiting: No plugin path (-p) was provided")
	}
	if info, err := os.Stat(pluginDir); err != nil || !info.IsDir() {
		return NewExitError(ExitPluginDoesNotExist, fmt.Sprintf("Exiting: Plugin directory %s does not exist", pluginDir))
	}
	return nil
}

// openSession validates arguments, loads configuration and the manifest,
// and builds the environment handle. Nothing is executed.
func openSession(logger *logging.Logger, opts *PluginOptions) (*session, error) {
	if err := validatePaths(opts.Manifest, opts.Plugin); err != nil {
		return nil, err
	}

	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, WrapExitError(ExitUnexpectedError, "Failed to load configuration", err)
	}

	m, err := manifest.Load(opts.Manifest, cfg.ManifestOptions())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, WrapExitError(ExitManifestDoesNotExist, "Manifest file does not exist", err)
		}
		return nil, classify(err)
	}
	if m.Verbose {
		logger.SetVerbose(true)
	}
	if m.Name != "" {
		logger.Info("Plugin name is : " + m.Name)
	}

	entries, err := manifest.Expand(m.Entries, opts.Plugin, cfg.ManifestOptions())
	if err != nil {
		return nil, classify(err)
	}

	env := pyenv.New(opts.Plugin, cfg.EnvOptions())
	env.SetVerbose(logger.Verbose())

	r := opts.Runner
	if r == nil {
		r = runner.NewExecRunner(logger.Logger, cfg.CommandTimeout)
	}

	return &session{
		cfg:      cfg,
		logger:   logger,
		manifest: m,
		entries:  entries,
		env:      env,
		runner:   r,
	}, nil
}

// engine builds the decision engine for this session.
func (s *session) engine(opts *PluginOptions) *engine.Engine {
	var engOpts []engine.Option
	if opts.IDs != nil {
		engOpts = append(engOpts, engine.WithIDGenerator(opts.IDs))
	}
	if opts.Now != nil {
		engOpts = append(engOpts, engine.WithNow(opts.Now))
	}
	return engine.New(s.runner, s.env, s.logger.Logger, engOpts...)
}

// pluginName is the manifest name, or the plugin directory name when the
// manifest has none.
func (s *session) pluginName() string {
	if s.manifest.Name != "" {
		return s.manifest.Name
	}
	return filepath.Base(s.env.PluginDir())
}

// logStart writes the opening banner.
func logStart(logger *logging.Logger) {
	logger.Info(bannerRule)
	logger.Info(fmt.Sprintf("%s Version %s is attempting to install python modules", ProgramName, ir.ToolVersion))
}

// logExit writes the closing trailer for err's exit code.
func logExit(logger *logging.Logger, err error) {
	code := GetExitCode(err)
	if err != nil && code != ExitFailedToInstallModule {
		logger.Error(err.Error())
	}
	logger.Info(bannerRule)
	logger.Info(fmt.Sprintf("Exiting with code %d", code))
	logger.Info(bannerRule)
}

// renderer returns the report renderer for the command's output.
func renderer(opts *RootOptions) report.Renderer {
	return report.Renderer{Color: !opts.NoColor && !color.NoColor}
}

// signalContext returns the command context, cancelled on SIGINT or
// SIGTERM so a running pip command is killed instead of orphaned.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
