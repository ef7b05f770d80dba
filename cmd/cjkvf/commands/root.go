// Package commands implements the CLI commands for cjkvf.
package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"cjkvf/internal/config"
	"cjkvf/internal/errors"
	"cjkvf/internal/logging"
	"cjkvf/internal/profile"
)

// version is set at build time via ldflags.
// Default to a development version for local builds.
const version = "1.3.0"

// cfgFile holds the value of the --config flag.
var cfgFile string

// verbosity holds the count of -v flags.
var verbosity int

// quiet holds the value of the -q/--quiet flag.
var quiet bool

// logFormat holds the value of the --log-format flag.
var logFormat string

// profileFlag holds the value of the --profile flag.
var profileFlag string

// cfg is the loaded configuration, populated by initConfig.
var cfg *config.Config

// configLoadErr holds any error that occurred during config loading.
var configLoadErr error

// log is the process-wide logger, configured by setupLogging.
var log *slog.Logger = logging.Default()

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: $XDG_CONFIG_HOME/cjkvf/config.yaml)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v",
		"increase verbosity level (e.g., -v, -vv)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false,
		"suppress non-error output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text",
		"log format: text, json")
	rootCmd.PersistentFlags().StringVar(&profileFlag, "profile", "",
		"font profile TOML file (default: embedded profile)")

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("cjkvf version {{.Version}}\n")

	// Silence errors and usage so we can control error output
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
}

func initConfig() {
	config.Init()
	cfg, configLoadErr = config.Load(cfgFile)
}

var rootCmd = &cobra.Command{
	Use:   "cjkvf",
	Short: "Noto CJK variable-font configuration installer",
	Long: `cjkvf installs variable-font declarations for the CJK system fonts on a
rooted Android device. It rewrites the system font configuration files
(fonts.xml and friends) to reference the Noto CJK variable containers,
keeping pristine backups so every install starts from the original files
and repeated runs are byte-for-byte idempotent.

It is normally invoked by the module installer with the API and MODPATH
environment variables set, but can also be run manually from an adb
shell for inspection and recovery.`,
	Example: `  # Run the full install pipeline
  cjkvf install

  # See what an install would change
  cjkvf install --dry-run --modpath /tmp/out

  # Inspect the backup store
  cjkvf status

  # Copy pristine backups back out
  cjkvf restore --dest /tmp/pristine`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging(cmd)
	},
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

// setupLogging configures the package logger from the verbosity flags.
func setupLogging(cmd *cobra.Command) error {
	if quiet && verbosity > 0 {
		return errors.NewUserError(nil, "cannot use --quiet and --verbose together")
	}

	var level slog.Level
	if quiet {
		level = slog.LevelError
	} else {
		v := verbosity
		if v == 0 {
			if val, ok := os.LookupEnv("CJKVF_DEBUG"); ok && (val == "1" || val == "true") {
				v = 1
			}
		}
		level = logging.LevelFromVerbosity(v)
	}

	log = logging.New(logging.Config{
		Level:  level,
		Format: logging.Format(logFormat),
		Output: cmd.ErrOrStderr(),
	})
	return nil
}

// loadProfile resolves the font profile: --profile flag, then config, then
// the embedded default.
func loadProfile() (*profile.Profile, error) {
	path := profileFlag
	if path == "" && cfg != nil {
		path = cfg.Profile
	}
	if path == "" {
		return profile.Default()
	}
	return profile.Load(path)
}

// Execute runs the root command and prints errors in the conventional
// format: a bordered abort banner for environment incompatibilities, a
// plain error line otherwise.
func Execute() error {
	err := rootCmd.Execute()
	if err == nil {
		return nil
	}

	var exitErr *errors.ExitError
	if errors.As(err, &exitErr) && exitErr.Code == errors.ExitEnvironment {
		errors.PrintAbort(os.Stderr, err)
		return err
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	if exitErr != nil && exitErr.Suggestion != "" {
		fmt.Fprintf(os.Stderr, "Suggestion: %s\n", exitErr.Suggestion)
	}
	return err
}

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return errors.ExitSuccess
	}
	var exitErr *errors.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return errors.ExitUser
}
