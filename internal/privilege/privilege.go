// Package privilege detects an elevated-execution helper and wraps privileged
// file reads behind it.
//
// Protected system files (notably under /product) may not be readable by the
// installer process directly. When a su-style helper is present, reads fall
// back to running cat through it. When no helper is available all operations
// run unprivileged, and the caller must enforce the stricter compatibility
// checks the migration requires in that mode.
package privilege

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"

	"github.com/cockroachdb/errors"

	"cjkvf/internal/logging"
)

// Helper identifies the invocation style of the elevated-execution wrapper.
type Helper int

const (
	// HelperNone means no elevated-execution wrapper is available.
	HelperNone Helper = iota

	// HelperDashC invokes the wrapper as `su -c "<command>"`.
	HelperDashC

	// HelperUIDZero invokes the wrapper as `su 0 <command> <args...>`.
	HelperUIDZero
)

// String returns a human-readable name for the helper style.
func (h Helper) String() string {
	switch h {
	case HelperDashC:
		return "su -c"
	case HelperUIDZero:
		return "su 0"
	default:
		return "none"
	}
}

// suBinary is the wrapper command probed for. Overridable in tests.
var suBinary = "su"

// Detect probes for an available helper by listing probeDir through each
// invocation style. The first style that succeeds is adopted; if neither
// works the result is HelperNone.
func Detect(ctx context.Context, probeDir string, logger *slog.Logger) Helper {
	probes := []struct {
		helper Helper
		args   []string
	}{
		{HelperDashC, []string{"-c", "ls " + probeDir}},
		{HelperUIDZero, []string{"0", "ls", probeDir}},
	}

	for _, p := range probes {
		cmd := exec.CommandContext(ctx, suBinary, p.args...)
		cmd.Stdout = nil
		cmd.Stderr = nil
		if err := cmd.Run(); err == nil {
			logger.Debug("privilege helper detected", "style", p.helper.String())
			return p.helper
		}
		logger.Log(ctx, logging.LevelTrace, "privilege probe failed", "style", p.helper.String())
	}

	logger.Debug("no privilege helper available")
	return HelperNone
}

// Runner performs file reads, escalating through the detected helper when
// direct access is denied.
type Runner struct {
	helper Helper
	logger *slog.Logger
}

// NewRunner creates a Runner using the given helper style.
func NewRunner(helper Helper, logger *slog.Logger) *Runner {
	return &Runner{helper: helper, logger: logger}
}

// Helper returns the helper style this runner escalates through.
func (r *Runner) Helper() Helper {
	return r.helper
}

// ReadFile reads a file, first directly and then through the helper.
// A missing file is reported with an error satisfying errors.Is(err, fs.ErrNotExist)
// so callers can distinguish "absent" (skip) from "unreadable" (fatal).
func (r *Runner) ReadFile(ctx context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		return data, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	if r.helper == HelperNone {
		return nil, errors.Wrapf(err, "reading %s without a privilege helper", path)
	}

	r.logger.Debug("escalating read", "path", path, "style", r.helper.String())

	var cmd *exec.Cmd
	switch r.helper {
	case HelperDashC:
		cmd = exec.CommandContext(ctx, suBinary, "-c", fmt.Sprintf("cat %s", path))
	case HelperUIDZero:
		cmd = exec.CommandContext(ctx, suBinary, "0", "cat", path)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, errors.Wrapf(err, "privileged read of %s: %s", path, stderr.String())
	}
	return stdout.Bytes(), nil
}

// Exists reports whether a path exists, using a plain stat. Existence checks
// do not need escalation: the parent directories of the target files are
// world-traversable even when the files themselves are not readable.
func (r *Runner) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, errors.Wrapf(err, "stat %s", path)
}
