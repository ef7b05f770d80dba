package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"cjkvf/internal/android"
	"cjkvf/internal/backup"
	"cjkvf/internal/errors"
	"cjkvf/internal/migrate"
	"cjkvf/internal/privilege"
)

// installAPI holds the value of the --api flag.
var installAPI int

// installModPath holds the value of the --modpath flag.
var installModPath string

// installBackupDir holds the value of the --backup-dir flag.
var installBackupDir string

// installDryRun holds the value of the --dry-run flag.
var installDryRun bool

func init() {
	rootCmd.AddCommand(installCmd)

	installCmd.Flags().IntVar(&installAPI, "api", 0,
		"device API level (default: $API, then getprop)")
	installCmd.Flags().StringVar(&installModPath, "modpath", "",
		"module install root (default: $MODPATH)")
	installCmd.Flags().StringVar(&installBackupDir, "backup-dir", "",
		"backup store directory (default: /data/adb/cjkvf/backup)")
	installCmd.Flags().BoolVar(&installDryRun, "dry-run", false,
		"report what would change without mutating anything")
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Run the font configuration migration",
	Long: `Install runs the full pipeline: verify the device API level, detect an
elevated-execution helper, reconcile the backup store with the current
environment, then back up, copy and transform each font configuration
file into the module install root.

Backups are taken exactly once per system file; later runs always
transform a fresh copy of the pristine original, never a previously
transformed output.`,
	Example: `  # As invoked by the module installer
  cjkvf install

  # Manual run against a scratch directory
  cjkvf install --api 34 --modpath /tmp/out --backup-dir /tmp/store

  See Also:
    cjkvf status  - Inspect the backup store
    cjkvf restore - Copy pristine backups back out`,
	RunE: runInstall,
}

func runInstall(cmd *cobra.Command, _ []string) error {
	return runInstallWithWriter(cmd, os.Stdout)
}

func runInstallWithWriter(cmd *cobra.Command, w io.Writer) error {
	if configLoadErr != nil {
		return errors.NewUserError(configLoadErr, "Check your config file syntax")
	}

	p, err := loadProfile()
	if err != nil {
		return errors.NewUserError(err, "Check the --profile file")
	}

	ctx := cmd.Context()

	// 1. Environment gate. Nothing may be written before this passes.
	api, err := android.DetectAPILevel(ctx, installAPI)
	if err != nil {
		return errors.NewSystemError(err, "Pass --api explicitly")
	}
	minAPI := p.MinAPI
	if cfg != nil && cfg.MinAPI > 0 {
		minAPI = cfg.MinAPI
	}
	if err := android.Gate(api, minAPI); err != nil {
		return err
	}
	fmt.Fprintf(w, "%s- Device API level: %d%s\n", colorGray, api, colorReset)

	modPath := resolveModPath()
	if modPath == "" {
		return errors.NewUserError(nil, "Set --modpath or the MODPATH environment variable")
	}

	// 2. Privilege helper detection.
	helper := privilege.Detect(ctx, p.SearchDirs[0], log)
	runner := privilege.NewRunner(helper, log)
	fmt.Fprintf(w, "%s- Privilege helper: %s%s\n", colorGray, helper, colorReset)

	// 3. Backup state reconciliation.
	store := backup.NewStore(resolveBackupDir(), log)
	m := migrate.New(migrate.Options{
		Profile:      p,
		Store:        store,
		Runner:       runner,
		Logger:       log,
		ModRoot:      modPath,
		InstalledDir: resolveInstalledDir(),
		DryRun:       installDryRun,
	})
	if err := m.EnsureCompatible(api); err != nil {
		return err
	}

	// 4. Migration passes.
	report, err := m.Run(ctx)
	if err != nil {
		return err
	}

	for _, path := range report.Migrated {
		fmt.Fprintf(w, "%s✓ %s%s\n", colorGreen, path, colorReset)
	}
	for _, path := range report.Skipped {
		fmt.Fprintf(w, "%s- skipped %s%s\n", colorGray, path, colorReset)
	}

	if len(report.Migrated) == 0 {
		fmt.Fprintf(w, "%sNo font configuration files found to migrate.%s\n", colorYellow, colorReset)
		return nil
	}

	verb := "Migrated"
	if installDryRun {
		verb = "Would migrate"
	}
	fmt.Fprintf(w, "%s%s %d file(s) into %s%s\n", colorBold, verb, len(report.Migrated), modPath, colorReset)
	return nil
}

// resolveModPath picks the module root: flag, then config, then MODPATH.
func resolveModPath() string {
	if installModPath != "" {
		return installModPath
	}
	if cfg != nil && cfg.ModPath != "" {
		return cfg.ModPath
	}
	return android.ModPath()
}

// resolveBackupDir picks the backup store root: flag, then config, then the
// fixed default.
func resolveBackupDir() string {
	if installBackupDir != "" {
		return installBackupDir
	}
	if cfg != nil && cfg.BackupDir != "" {
		return cfg.BackupDir
	}
	return backup.DefaultRoot()
}

// resolveInstalledDir picks the persisted module dir for the provenance check.
func resolveInstalledDir() string {
	if cfg != nil && cfg.InstalledDir != "" {
		return cfg.InstalledDir
	}
	return ""
}
