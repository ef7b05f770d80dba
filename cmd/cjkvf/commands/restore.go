package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"cjkvf/internal/backup"
	"cjkvf/internal/errors"
	"cjkvf/internal/logging"
	"cjkvf/internal/migrate"
)

// restoreDest holds the value of the --dest flag.
var restoreDest string

// restorePick holds the value of the --pick flag.
var restorePick bool

// restoreBackupDir holds the value of the --backup-dir flag.
var restoreBackupDir string

func init() {
	rootCmd.AddCommand(restoreCmd)

	restoreCmd.Flags().StringVar(&restoreDest, "dest", "",
		"directory to copy pristine files into (required)")
	restoreCmd.Flags().BoolVar(&restorePick, "pick", false,
		"interactively select which files to restore")
	restoreCmd.Flags().StringVar(&restoreBackupDir, "backup-dir", "",
		"backup store directory (default: /data/adb/cjkvf/backup)")
	_ = restoreCmd.MarkFlagRequired("dest")
}

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Copy pristine backups back out of the store",
	Long: `Restore verifies each backed-up file against its manifest hash and copies
the pristine content into the destination directory, laid out the same
way the module install root is. Overlaying the destination onto /system
(or deleting the module) returns the device to its original font
configuration.`,
	Example: `  # Restore everything
  cjkvf restore --dest /tmp/pristine

  # Choose specific files interactively
  cjkvf restore --dest /tmp/pristine --pick`,
	RunE: runRestore,
}

func runRestore(cmd *cobra.Command, _ []string) error {
	return runRestoreWithWriter(cmd, os.Stdout)
}

func runRestoreWithWriter(_ *cobra.Command, w io.Writer) error {
	dir := restoreBackupDir
	if dir == "" {
		dir = resolveBackupDir()
	}
	store := backup.NewStore(dir, log)

	if !store.Exists() {
		return errors.NewUserError(errors.ErrNotInstalled,
			"Run 'cjkvf install' before restoring")
	}

	m, err := store.Manifest()
	if err != nil {
		return errors.NewSystemError(err, "The store manifest may be damaged")
	}
	if len(m.Files) == 0 {
		fmt.Fprintf(w, "%sNothing to restore: the store holds no files.%s\n", colorYellow, colorReset)
		return nil
	}

	paths := make([]string, len(m.Files))
	for i, e := range m.Files {
		paths[i] = e.OriginalPath
	}

	if restorePick {
		paths, err = pickPaths(paths)
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			fmt.Fprintf(w, "%sNo files selected.%s\n", colorGray, colorReset)
			return nil
		}
	}

	bar := progressbar.NewOptions(len(paths),
		progressbar.OptionSetDescription("restoring"),
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetVisibility(logging.IsTTY(w)),
		progressbar.OptionClearOnFinish(),
	)

	for _, orig := range paths {
		if err := store.Verify(orig); err != nil {
			return errors.NewSystemError(err,
				"The backup store is damaged; do not overlay this restore onto the device")
		}
		dst := filepath.Join(restoreDest, migrate.CanonicalTarget(orig))
		if err := store.CopyOut(orig, dst); err != nil {
			return errors.NewSystemError(err, "")
		}
		log.Debug("restored", "path", orig, "dest", dst)
		_ = bar.Add(1)
	}

	fmt.Fprintf(w, "%sRestored %d file(s) into %s%s\n", colorGreen, len(paths), restoreDest, colorReset)
	return nil
}

// pickPaths presents an interactive multi-select over the backed-up paths.
func pickPaths(paths []string) ([]string, error) {
	idxs, err := fuzzyfinder.FindMulti(paths, func(i int) string {
		return paths[i]
	})
	if err != nil {
		if errors.Is(err, fuzzyfinder.ErrAbort) {
			return nil, nil
		}
		return nil, errors.NewUserError(err, "")
	}

	selected := make([]string, 0, len(idxs))
	for _, i := range idxs {
		selected = append(selected, paths[i])
	}
	return selected, nil
}
