package cli

import (
	"context"
	"errors"

	apperrors "github.com/matzehuels/manifestcheck/pkg/errors"
)

// Process exit codes.
const (
	ExitOK          = 0
	ExitMismatch    = 1   // a mismatch in any examined package
	ExitNotFound    = 2   // the requested package has no resolvable latest version
	ExitFailure     = 3   // any other fatal error
	ExitInterrupted = 130 // SIGINT/SIGTERM
)

// errMismatch is the cause of the exit error returned for a failed verdict.
var errMismatch = errors.New("manifest mismatch detected")

// ExitError carries an explicit exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }

func (e *ExitError) Unwrap() error { return e.Err }

// ExitCode maps an error returned by a command to the process exit code.
func ExitCode(err error) int {
	var exit *ExitError
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &exit):
		return exit.Code
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	case apperrors.GetCode(err) == apperrors.ErrCodePackageNotFound:
		return ExitNotFound
	default:
		return ExitFailure
	}
}

// Quiet reports whether err needs no message: the verdict was already
// printed, or the user interrupted.
func Quiet(err error) bool {
	code := ExitCode(err)
	return code == ExitOK || code == ExitMismatch || code == ExitInterrupted
}
