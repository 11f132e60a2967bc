package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stuartofmt/pipInstall/internal/ir"
	"github.com/stuartofmt/pipInstall/internal/parser"
)

// ParseResult is the outcome of parsing one specification string.
type ParseResult struct {
	Input      string         `json:"input"`
	Dependency *ir.Dependency `json:"dependency,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <spec>...",
		Short: "Parse dependency specifications without touching any environment",
		Long: `Parse one or more dependency specification strings and print the
normalized descriptor for each: package, comparator, version and kind.

Every argument is parsed even if an earlier one fails. The exit code is 5
when any argument uses an unsupported conditional and 11 for any other
syntax error.

Example:
  pipinstall parse "Flask>=2.0" "numpy~=1.26" "git+https://github.com/org/repo.git"`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runParse(opts *RootOptions, specs []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	results := make([]ParseResult, 0, len(specs))
	var firstErr error
	code := ExitSuccess
	for _, spec := range specs {
		dep, err := parser.Parse(spec)
		if err != nil {
			results = append(results, ParseResult{Input: spec, Error: err.Error()})
			if firstErr == nil {
				firstErr = err
			}
			if parser.IsUnsupportedConditional(err) {
				code = ExitUnsupportedConditional
			} else if code == ExitSuccess {
				code = ExitInvalidDependency
			}
			continue
		}
		formatter.VerboseLog("parsed %q", spec)
		results = append(results, ParseResult{Input: spec, Dependency: &dep})
	}

	if formatter.IsJSON() {
		if firstErr != nil {
			if err := formatter.Error(code, firstErr.Error(), results); err != nil {
				return err
			}
		} else if err := formatter.Success(results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			fmt.Fprintln(cmd.OutOrStdout(), parseLine(r))
		}
	}

	if firstErr != nil {
		return WrapExitError(code, "invalid dependency specification", firstErr)
	}
	return nil
}

// parseLine renders one result as text.
func parseLine(r ParseResult) string {
	if r.Dependency == nil {
		return fmt.Sprintf("✗ %s: %s", r.Input, r.Error)
	}
	d := r.Dependency
	return fmt.Sprintf("✓ %s ==> package=%s comparator=%s version=%s kind=%s",
		r.Input, d.Package, d.Comparator.Label(), d.Version, d.Kind)
}
