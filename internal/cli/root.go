package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stuartofmt/pipInstall/internal/ir"
)

// ProgramName is the binary name used in banners.
const ProgramName = "pipinstall"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  string // optional TOML config file
	NoColor bool
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the pipinstall CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     ProgramName,
		Short:   "Install a plugin's Python dependencies into its own virtual environment",
		Version: ir.ToolVersion,
		Long: `pipinstall creates a Python virtual environment for a plugin and installs
the dependencies listed in the plugin's manifest, skipping modules that are
built in or already installed, then reports what happened to each one.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitUnexpectedError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "path to a TOML config file")
	cmd.PersistentFlags().BoolVar(&opts.NoColor, "no-color", false, "disable colored report headers")

	cmd.AddCommand(NewInstallCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewParseCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewConfigCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
