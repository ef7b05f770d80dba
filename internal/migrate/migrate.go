// Package migrate orchestrates the install pipeline: compatibility checks,
// backup bookkeeping, and the per-file copy-and-transform passes.
package migrate

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"

	"cjkvf/internal/backup"
	cjkerrors "cjkvf/internal/errors"
	"cjkvf/internal/fontxml"
	"cjkvf/internal/privilege"
	"cjkvf/internal/profile"
	"cjkvf/pkg/fileutil"
)

// systemPrefix is the canonical root of the module's mirrored output tree.
const systemPrefix = "/system"

// Migrator runs the migration over a device's font configuration files.
type Migrator struct {
	p      *profile.Profile
	store  *backup.Store
	runner *privilege.Runner
	logger *slog.Logger

	// modRoot is the module install root the transformed copies go under.
	modRoot string

	// installedDir is the persisted module directory from a prior install,
	// used only for the provenance check.
	installedDir string

	dryRun bool
}

// Options configures a Migrator.
type Options struct {
	Profile      *profile.Profile
	Store        *backup.Store
	Runner       *privilege.Runner
	Logger       *slog.Logger
	ModRoot      string
	InstalledDir string
	DryRun       bool
}

// New creates a Migrator.
func New(opts Options) *Migrator {
	return &Migrator{
		p:            opts.Profile,
		store:        opts.Store,
		runner:       opts.Runner,
		logger:       opts.Logger,
		modRoot:      opts.ModRoot,
		installedDir: opts.InstalledDir,
		dryRun:       opts.DryRun,
	}
}

// Report summarizes what a run did (or, under dry-run, would do).
type Report struct {
	// Migrated lists source paths that were copied and transformed.
	Migrated []string `yaml:"migrated"`

	// Skipped lists candidate paths that do not exist on this device.
	Skipped []string `yaml:"skipped"`

	// CustomizationApplied is true when the vendor pass fired.
	CustomizationApplied bool `yaml:"customization_applied"`
}

// EnsureCompatible enforces the backup provenance rules and persists the API
// level marker. It must run after privilege detection and before any file
// migration.
//
// Two conditions abort the install:
//
//   - Without a privilege helper, an API level change since the recorded
//     marker means the unprivileged copy cannot safely migrate across the OS
//     upgrade.
//
//   - A prior install's output existing without a backup store means the
//     pristine originals are gone.
func (m *Migrator) EnsureCompatible(api int) error {
	recorded, err := m.store.ReadAPILevel(api)
	if err != nil {
		return err
	}

	if m.runner.Helper() == privilege.HelperNone && recorded != api {
		return cjkerrors.NewEnvironmentError(
			errors.Wrapf(cjkerrors.ErrAPIMismatch, "recorded API %d, current API %d", recorded, api),
			"Uninstall the module completely, reboot, then reinstall",
		)
	}

	if !m.store.Exists() && m.priorOutputExists() {
		return cjkerrors.NewEnvironmentError(
			errors.Wrapf(cjkerrors.ErrMissingProvenance, "module output at %s", m.installedDir),
			"Uninstall the module completely, reboot, then reinstall",
		)
	}

	if m.dryRun {
		return nil
	}
	if err := m.store.Init(); err != nil {
		return err
	}
	return m.store.WriteAPILevel(api)
}

// priorOutputExists reports whether a previous install left output behind.
func (m *Migrator) priorOutputExists() bool {
	if m.installedDir == "" {
		return false
	}
	info, err := os.Stat(filepath.Join(m.installedDir, "system"))
	return err == nil && info.IsDir()
}

// Run executes both migration passes and returns a report.
func (m *Migrator) Run(ctx context.Context) (*Report, error) {
	report := &Report{}

	tr := fontxml.New(m.p, m.logger)

	for _, name := range m.p.TargetFiles {
		for _, dir := range m.p.SearchDirs {
			src := filepath.Join(dir, name)

			exists, err := m.runner.Exists(src)
			if err != nil {
				return nil, err
			}
			if !exists {
				m.logger.Debug("target absent", "path", src)
				report.Skipped = append(report.Skipped, src)
				continue
			}

			if err := m.migrateFile(ctx, src, tr.Apply); err != nil {
				return nil, err
			}
			report.Migrated = append(report.Migrated, src)
		}
	}

	applied, err := m.runCustomizationPass(ctx)
	if err != nil {
		return nil, err
	}
	report.CustomizationApplied = applied
	if cp := m.p.Customization.Path; cp != "" {
		if applied {
			report.Migrated = append(report.Migrated, cp)
		} else {
			report.Skipped = append(report.Skipped, cp)
		}
	}

	return report, nil
}

// migrateFile backs up src once, copies the pristine backup into the module
// output tree, and applies the transform in place.
func (m *Migrator) migrateFile(ctx context.Context, src string, apply func(string) (string, bool)) error {
	out := filepath.Join(m.modRoot, CanonicalTarget(src))

	if m.dryRun {
		m.logger.Info("would migrate", "src", src, "out", out)
		return nil
	}

	if err := m.store.Add(ctx, src, m.runner); err != nil {
		return err
	}
	if err := m.store.CopyOut(src, out); err != nil {
		return err
	}

	data, err := os.ReadFile(out)
	if err != nil {
		return errors.Wrapf(err, "reading %s", out)
	}

	content, changed := apply(string(data))
	if !changed {
		m.logger.Info("no legacy declarations", "path", src)
		return nil
	}

	info, err := os.Stat(out)
	if err != nil {
		return errors.Wrapf(err, "stat %s", out)
	}
	if err := fileutil.AtomicWriteFile(out, []byte(content), info.Mode().Perm()); err != nil {
		return errors.Wrapf(err, "writing %s", out)
	}

	m.logger.Info("transformed", "path", src)
	return nil
}

// runCustomizationPass handles the vendor customization file. The marker is
// checked against the live content first: without it the pass performs no
// file operations at all.
func (m *Migrator) runCustomizationPass(ctx context.Context) (bool, error) {
	c := m.p.Customization
	if c.Path == "" {
		return false, nil
	}

	exists, err := m.runner.Exists(c.Path)
	if err != nil {
		return false, err
	}
	if !exists {
		m.logger.Debug("customization file absent", "path", c.Path)
		return false, nil
	}

	data, err := m.runner.ReadFile(ctx, c.Path)
	if err != nil {
		return false, err
	}
	if !fontxml.HasCustomizationMarker(string(data), c) {
		m.logger.Info("customization marker absent, skipping", "path", c.Path)
		return false, nil
	}

	rewrite := func(content string) (string, bool) {
		return fontxml.RewriteCustomization(content, c, m.logger)
	}
	if err := m.migrateFile(ctx, c.Path, rewrite); err != nil {
		return false, err
	}
	return true, nil
}

// CanonicalTarget maps an absolute source path to its subpath in the module
// output tree: paths already under /system are used as-is, all others are
// prefixed with /system.
func CanonicalTarget(src string) string {
	clean := filepath.Clean(src)
	if clean == systemPrefix || strings.HasPrefix(clean, systemPrefix+"/") {
		return clean
	}
	return systemPrefix + clean
}
