package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"cjkvf/internal/backup"
	"cjkvf/internal/errors"
)

// statusYAML holds the value of the --yaml flag.
var statusYAML bool

// statusBackupDir holds the value of the --backup-dir flag.
var statusBackupDir string

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVar(&statusYAML, "yaml", false,
		"emit the report as YAML")
	statusCmd.Flags().StringVar(&statusBackupDir, "backup-dir", "",
		"backup store directory (default: /data/adb/cjkvf/backup)")
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Inspect the backup store",
	Long: `Status reports the state of the backup store: where it lives, the API
level recorded by the last install run, and every pristine file it holds
along with its integrity check result.`,
	Example: `  cjkvf status

  # Machine-readable output
  cjkvf status --yaml`,
	RunE: runStatus,
}

// statusReport is the machine-readable shape of the status output.
type statusReport struct {
	StoreDir    string             `yaml:"store_dir"`
	Initialized bool               `yaml:"initialized"`
	APILevel    int                `yaml:"api_level,omitempty"`
	Files       []statusFileReport `yaml:"files"`
}

type statusFileReport struct {
	Path     string `yaml:"path"`
	SHA256   string `yaml:"sha256"`
	Verified bool   `yaml:"verified"`
}

func runStatus(cmd *cobra.Command, _ []string) error {
	return runStatusWithWriter(cmd, os.Stdout)
}

func runStatusWithWriter(_ *cobra.Command, w io.Writer) error {
	dir := statusBackupDir
	if dir == "" {
		dir = resolveBackupDir()
	}
	store := backup.NewStore(dir, log)

	report := statusReport{
		StoreDir:    store.Root(),
		Initialized: store.Exists(),
	}

	if report.Initialized {
		api, err := store.ReadAPILevel(0)
		if err != nil {
			return errors.NewSystemError(err, "The store marker may be damaged; re-run install")
		}
		report.APILevel = api

		m, err := store.Manifest()
		if err != nil {
			return errors.NewSystemError(err, "The store manifest may be damaged; re-run install")
		}
		for _, e := range m.Files {
			report.Files = append(report.Files, statusFileReport{
				Path:     e.OriginalPath,
				SHA256:   e.SHA256Hash,
				Verified: store.Verify(e.OriginalPath) == nil,
			})
		}
	}

	if statusYAML {
		out, err := yaml.Marshal(report)
		if err != nil {
			return errors.NewSystemError(err, "")
		}
		fmt.Fprint(w, string(out))
		return nil
	}

	fmt.Fprintf(w, "%sBackup store:%s %s\n", colorBold, colorReset, report.StoreDir)
	if !report.Initialized {
		fmt.Fprintf(w, "%sNot initialized. Run 'cjkvf install' first.%s\n", colorYellow, colorReset)
		return nil
	}

	if report.APILevel > 0 {
		fmt.Fprintf(w, "%sRecorded API level:%s %d\n", colorBold, colorReset, report.APILevel)
	} else {
		fmt.Fprintf(w, "%sRecorded API level: none%s\n", colorGray, colorReset)
	}

	if len(report.Files) == 0 {
		fmt.Fprintf(w, "%sNo files backed up yet.%s\n", colorGray, colorReset)
		return nil
	}

	fmt.Fprintf(w, "%sFiles (%d):%s\n", colorBold, len(report.Files), colorReset)
	for _, f := range report.Files {
		mark := colorGreen + "✓" + colorReset
		if !f.Verified {
			mark = colorYellow + "✗" + colorReset
		}
		fmt.Fprintf(w, "  %s %s %s%s%s\n", mark, f.Path, colorGray, f.SHA256[:12], colorReset)
	}
	return nil
}
