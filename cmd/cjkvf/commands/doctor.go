package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"cjkvf/internal/backup"
	"cjkvf/internal/doctor"
	"cjkvf/internal/errors"
	"cjkvf/internal/privilege"
)

// doctorJSON holds the value of the --json flag.
var doctorJSON bool

// doctorAPI holds the value of the --api flag.
var doctorAPI int

func init() {
	rootCmd.AddCommand(doctorCmd)

	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false,
		"emit the report as JSON")
	doctorCmd.Flags().IntVar(&doctorAPI, "api", 0,
		"device API level (default: $API, then getprop)")
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose the device environment",
	Long: `Doctor runs every diagnostic check without mutating anything: the API
level gate, the elevated-execution probe, the presence of migratable font
configuration files, the integrity of the backup store, and the vendor
customization file.

It exits non-zero when any check reports an error.`,
	Example: `  cjkvf doctor

  # Machine-readable output
  cjkvf doctor --json`,
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	return runDoctorWithWriter(cmd, os.Stdout)
}

func runDoctorWithWriter(cmd *cobra.Command, w io.Writer) error {
	p, err := loadProfile()
	if err != nil {
		return errors.NewUserError(err, "Check the --profile file")
	}

	ctx := cmd.Context()
	helper := privilege.Detect(ctx, p.SearchDirs[0], log)
	runner := privilege.NewRunner(helper, log)
	store := backup.NewStore(resolveBackupDir(), log)

	r := doctor.NewRunner()
	r.AddCheck(&doctor.APILevelCheck{Override: doctorAPI, MinAPI: p.MinAPI})
	r.AddCheck(&doctor.PrivilegeCheck{ProbeDir: p.SearchDirs[0], Logger: log})
	r.AddCheck(&doctor.TargetsCheck{Profile: p})
	r.AddCheck(&doctor.StoreCheck{Store: store})
	r.AddCheck(&doctor.CustomizationCheck{Profile: p, Runner: runner})

	report := r.Run(ctx)

	if doctorJSON {
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return errors.NewSystemError(err, "")
		}
		fmt.Fprintln(w, string(out))
	} else {
		printDoctorReport(w, report)
	}

	if report.HasErrors() {
		return errors.NewEnvironmentError(
			fmt.Errorf("%d diagnostic check(s) failed", report.Summary.Errors),
			"See the report above")
	}
	return nil
}

func printDoctorReport(w io.Writer, report *doctor.Report) {
	for _, res := range report.Results {
		var mark string
		switch res.Status {
		case doctor.SeverityPass:
			mark = colorGreen + "✓" + colorReset
		case doctor.SeverityInfo:
			mark = colorGray + "·" + colorReset
		case doctor.SeverityWarning:
			mark = colorYellow + "!" + colorReset
		case doctor.SeverityError:
			mark = colorRed + "✗" + colorReset
		}
		fmt.Fprintf(w, "%s %s: %s\n", mark, res.Name, res.Message)
		if res.Hint != "" {
			fmt.Fprintf(w, "  %s%s%s\n", colorGray, res.Hint, colorReset)
		}
	}

	s := report.Summary
	fmt.Fprintf(w, "%s%d passed, %d info, %d warning(s), %d error(s)%s\n",
		colorBold, s.Passed, s.Info, s.Warnings, s.Errors, colorReset)
}
