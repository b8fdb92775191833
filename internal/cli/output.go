package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/dalemusser/larder/internal/app/household"
)

// Exit codes for larderctl.
const (
	ExitSuccess      = 0 // operation applied
	ExitFailure      = 1 // engine refused the operation (not found, not owner, ...)
	ExitCommandError = 2 // bad flags or no database
	ExitRetry        = 3 // store unavailable or partial failure; rerun the same command
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// WrapExitError wraps err with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// engineError maps an engine failure to the exit code a script can act on.
func engineError(message string, err error) *ExitError {
	if household.KindOf(err).Retryable() {
		return WrapExitError(ExitRetry, message, err)
	}
	return WrapExitError(ExitFailure, message, err)
}

// GetExitCode extracts the exit code from an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// output writes data as indented JSON, or through text for the text format.
func output(w io.Writer, format string, data any, text func(io.Writer)) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	}
	text(w)
	return nil
}
