package cli

import (
	"errors"
	"fmt"

	"github.com/rshade/bytecarbon/internal/export"
)

// Process exit codes.
const (
	ExitOK        = 0
	ExitInput     = 1
	ExitConsent   = 2
	ExitTransport = 3
)

// ExitError carries the process exit code for a command failure.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

func inputError(err error) error {
	if err == nil {
		return nil
	}
	return &ExitError{Code: ExitInput, Err: err}
}

// ExitCode maps a command error to the process exit code. Errors without
// an explicit code are classified by cause: missing consent exits 2,
// transport failures exit 3, anything else exits 1.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if errors.Is(err, export.ErrConsentRequired) {
		return ExitConsent
	}
	var transportErr *export.TransportError
	if errors.As(err, &transportErr) {
		return ExitTransport
	}
	return ExitInput
}
