package errors

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Exit codes returned to the hosting installer framework.
const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess = 0

	// ExitUser indicates a user-related error (invalid flags, bad profile, etc.).
	ExitUser = 1

	// ExitEnvironment indicates the device environment is incompatible
	// (API level too low, API drift without root, missing provenance).
	ExitEnvironment = 2

	// ExitSystem indicates a system-related error (I/O, permissions, exec).
	ExitSystem = 3
)

// Sentinel errors for the installer's fatal conditions.
var (
	// ErrAPITooLow indicates the device API level is below the supported minimum.
	ErrAPITooLow = errors.New("api level below supported minimum")

	// ErrAPIMismatch indicates the API level changed since the last install and
	// no privileged helper is available to migrate the backups safely.
	ErrAPIMismatch = errors.New("api level changed since last install")

	// ErrMissingProvenance indicates module output exists on disk but the backup
	// store that should have produced it does not.
	ErrMissingProvenance = errors.New("module output exists without a backup store")

	// ErrNotInstalled indicates no backup store exists to restore from.
	ErrNotInstalled = errors.New("no backup store found")

	// ErrInvalidProfile indicates the font profile failed validation.
	ErrInvalidProfile = errors.New("invalid font profile")
)

// ExitError wraps an error with an exit code and optional suggestion.
// It implements the error interface and supports unwrapping via errors.Unwrap.
type ExitError struct {
	// Err is the underlying error that caused the exit.
	Err error

	// Code is the exit code to return to the operating system.
	Code int

	// Suggestion is an optional actionable suggestion for the user.
	Suggestion string
}

// NewExitError creates an ExitError with the given underlying error and exit code.
func NewExitError(err error, code int) *ExitError {
	return &ExitError{Err: err, Code: code}
}

// NewUserError creates an ExitError with ExitUser code and a suggestion.
func NewUserError(err error, suggestion string) *ExitError {
	return &ExitError{Err: err, Code: ExitUser, Suggestion: suggestion}
}

// NewEnvironmentError creates an ExitError with ExitEnvironment code and a
// suggestion. Environment errors abort the install before any mutation.
func NewEnvironmentError(err error, suggestion string) *ExitError {
	return &ExitError{Err: err, Code: ExitEnvironment, Suggestion: suggestion}
}

// NewSystemError creates an ExitError with ExitSystem code and a suggestion.
func NewSystemError(err error, suggestion string) *ExitError {
	return &ExitError{Err: err, Code: ExitSystem, Suggestion: suggestion}
}

// Error returns the error message from the underlying error.
// If the underlying error is nil, it returns a generic message with the exit code.
func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit code %d", e.Code)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error, enabling errors.Is and errors.As
// to examine the error chain.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// bannerWidth is the width of the abort banner border.
const bannerWidth = 52

// PrintAbort writes a bordered abort banner to w. The hosting installer
// framework surfaces fatal conditions the same way, so manual runs match it.
func PrintAbort(w io.Writer, err error) {
	red := color.New(color.FgRed, color.Bold)
	border := strings.Repeat("*", bannerWidth)

	red.Fprintln(w, border)
	red.Fprintln(w, "! Installation aborted")
	for _, line := range strings.Split(err.Error(), "\n") {
		red.Fprintf(w, "! %s\n", line)
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Suggestion != "" {
		red.Fprintf(w, "! %s\n", exitErr.Suggestion)
	}
	red.Fprintln(w, border)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}
