package pyenv

import (
	"errors"
	"fmt"
)

// Op names the environment step that failed.
type Op string

const (
	OpCreate Op = "create venv"
	OpSite   Op = "locate site-packages"
	OpWrite  Op = "write site files"
)

var (
	errSiteNotFound    = errors.New("no site-packages entry under the venv")
	errSiteNotPrepared = errors.New("site-packages has not been prepared")
)

// EnvError reports a failure to set up the environment.
type EnvError struct {
	Op     Op
	Path   string
	Output string // unexpected command output, if any
	Err    error
}

func (e *EnvError) Error() string {
	msg := fmt.Sprintf("%s at %s", e.Op, e.Path)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Output != "" {
		msg += "\n" + e.Output
	}
	return msg
}

func (e *EnvError) Unwrap() error {
	return e.Err
}

// IsEnvError returns true if err is an EnvError for op.
// Uses errors.As to handle wrapped errors.
func IsEnvError(err error, op Op) bool {
	var ee *EnvError
	if errors.As(err, &ee) {
		return ee.Op == op
	}
	return false
}
