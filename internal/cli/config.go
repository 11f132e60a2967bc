package cli

import (
	"github.com/spf13/cobra"

	"github.com/stuartofmt/pipInstall/internal/config"
)

// NewConfigCommand creates the config command group.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect pipinstall configuration",
	}
	cmd.AddCommand(newConfigShowCommand(rootOpts))
	return cmd
}

func newConfigShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: `Print the configuration after defaults, the --config file and
PIPINSTALL_* environment variables have been applied. Text output is TOML
that can be saved and passed back with --config.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(rootOpts.Config)
			if err != nil {
				return WrapExitError(ExitUnexpectedError, "Failed to load configuration", err)
			}
			formatter := &OutputFormatter{
				Format:  rootOpts.Format,
				Writer:  cmd.OutOrStdout(),
				Verbose: rootOpts.Verbose,
			}
			if formatter.IsJSON() {
				return formatter.Success(cfg)
			}
			data, err := cfg.MarshalTOML()
			if err != nil {
				return WrapExitError(ExitUnexpectedError, "failed to render configuration", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
