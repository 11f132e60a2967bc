package cli

import (
	"errors"

	"github.com/stuartofmt/pipInstall/internal/engine"
	"github.com/stuartofmt/pipInstall/internal/manifest"
	"github.com/stuartofmt/pipInstall/internal/parser"
	"github.com/stuartofmt/pipInstall/internal/pyenv"
	"github.com/stuartofmt/pipInstall/internal/resolver"
)

// classify attaches the process exit code to an error from the install
// pipeline. ExitErrors pass through unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}

	switch {
	case parser.IsUnsupportedConditional(err):
		return WrapExitError(ExitUnsupportedConditional, "Unsupported conditional", err)
	case engine.IsSpecSyntaxError(err), parser.IsParseError(err):
		return WrapExitError(ExitInvalidDependency, "Invalid dependency", err)
	case manifest.IsFormatError(err):
		return WrapExitError(ExitManifestError, "Manifest error", err)
	case engine.IsEnvironmentQueryError(err), resolver.IsQueryError(err):
		return WrapExitError(ExitPipListError, "Aborting: failed to query the environment", err)
	case pyenv.IsEnvError(err, pyenv.OpCreate):
		return WrapExitError(ExitProblemCreatingVenv, "Problem creating Virtual Environment", err)
	case pyenv.IsEnvError(err, pyenv.OpSite), pyenv.IsEnvError(err, pyenv.OpWrite):
		return WrapExitError(ExitPythonSiteError, "Problem preparing site-packages", err)
	default:
		return WrapExitError(ExitUnexpectedError, "An unexpected error occurred", err)
	}
}
