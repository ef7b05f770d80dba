// Package errors provides error handling conventions for the cjkvf CLI.
//
// This package defines sentinel errors for the installer's fatal conditions,
// an ExitError type for CLI exit code handling, and the bordered abort banner
// used to surface fatal environment checks.
//
// # Sentinel Errors
//
// Sentinel errors allow callers to check for specific error conditions
// using [errors.Is]:
//
//	if errors.Is(err, cjkerrors.ErrAPIMismatch) {
//	    // handle the uninstall/reinstall case
//	}
//
// # Exit Codes
//
//   - ExitSuccess (0): Command completed successfully
//   - ExitUser (1): User-related error (flags, profile, config)
//   - ExitEnvironment (2): Incompatible device environment
//   - ExitSystem (3): System-related error (I/O, permissions, exec)
//
// Environment errors abort the install: they are raised before any filesystem
// mutation, or immediately after detection, and are printed through
// [PrintAbort].
package errors
