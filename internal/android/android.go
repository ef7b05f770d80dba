// Package android detects and validates the device environment.
package android

import (
	"context"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	cjkerrors "cjkvf/internal/errors"
)

// APIEnvVar is the environment variable the hosting installer framework sets
// to the device API level.
const APIEnvVar = "API"

// ModPathEnvVar is the environment variable the hosting installer framework
// sets to the module's install root.
const ModPathEnvVar = "MODPATH"

// apiProp is the system property holding the SDK version.
const apiProp = "ro.build.version.sdk"

// DetectAPILevel resolves the device API level.
// Precedence: explicit override > API environment variable > getprop.
func DetectAPILevel(ctx context.Context, override int) (int, error) {
	if override > 0 {
		return override, nil
	}

	if v, ok := os.LookupEnv(APIEnvVar); ok && v != "" {
		api, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, errors.Wrapf(err, "parsing %s environment variable %q", APIEnvVar, v)
		}
		return api, nil
	}

	out, err := exec.CommandContext(ctx, "getprop", apiProp).Output()
	if err != nil {
		return 0, errors.Wrap(err, "reading ro.build.version.sdk")
	}
	api, err := strconv.Atoi(strings.TrimSpace(string(out)))
	if err != nil {
		return 0, errors.Wrapf(err, "parsing getprop output %q", strings.TrimSpace(string(out)))
	}
	return api, nil
}

// ModPath resolves the module install root from the environment.
// Returns an empty string when the variable is unset.
func ModPath() string {
	return os.Getenv(ModPathEnvVar)
}

// Gate verifies the API level meets the minimum. It must run before any
// filesystem mutation; a failure aborts the whole install.
func Gate(api, minAPI int) error {
	if api >= minAPI {
		return nil
	}
	return cjkerrors.NewEnvironmentError(
		errors.Wrapf(cjkerrors.ErrAPITooLow, "device API level %d, need %d or newer", api, minAPI),
		"This module requires a newer Android release",
	)
}
