package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stuartofmt/pipInstall/internal/engine"
)

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	return newCheckCommand(&PluginOptions{RootOptions: rootOpts})
}

func newCheckCommand(opts *PluginOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check -m <manifest> -p <plugin-dir>",
		Short: "Show what install would do, without installing",
		Long: `Resolve the current state of every manifest dependency in the plugin's
existing virtual environment and print the action install would take.
The environment is not recreated and nothing is installed. Helper files
missing from site-packages (plugin_path_change.py/.pth, import_test.py)
are written so the import test can run; existing ones are left as they are.

Example:
  pipinstall check -m ./MyPlugin/plugin.json -p ./MyPlugin`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, opts)
		},
	}
	opts.bindFlags(cmd)
	return cmd
}

func runCheck(cmd *cobra.Command, opts *PluginOptions) (err error) {
	logger := newLogger(cmd, opts.RootOptions)
	defer func() {
		if closeErr := logger.Close(); closeErr != nil && err == nil {
			err = WrapExitError(ExitUnexpectedError, "failed to close log file", closeErr)
		}
	}()

	ctx, cancel := signalContext(cmd)
	defer cancel()

	s, err := openSession(logger, opts)
	if err != nil {
		return err
	}
	if info, err := os.Stat(s.env.Root()); err != nil || !info.IsDir() {
		return NewExitError(ExitProblemCreatingVenv,
			fmt.Sprintf("Virtual environment %s does not exist: run install first", s.env.Root()))
	}
	if _, err := s.env.LocateSite(ctx, s.runner); err != nil {
		return classify(err)
	}

	plan, err := s.engine(opts).Plan(ctx, s.entries)
	if err != nil {
		return classify(err)
	}

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	if formatter.IsJSON() {
		return formatter.Success(plan)
	}
	for _, p := range plan {
		fmt.Fprintln(cmd.OutOrStdout(), planLine(p))
	}
	return nil
}

// planLine renders one planned action.
func planLine(p engine.PlannedAction) string {
	before := strings.TrimSpace(p.Before.String())
	line := fmt.Sprintf("%d. %s ==> %s: %s", p.Entry, p.Dependency.URI(), before, p.Action)
	if p.Command != "" {
		line += "\n\t" + p.Command
	}
	return line
}
