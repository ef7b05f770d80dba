// Package config provides configuration management for cjkvf using Viper.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"

	"cjkvf/internal/backup"
)

// AppName is the application name used for config file naming.
const AppName = "cjkvf"

// DefaultInstalledDir is where the module manager persists an installed copy
// of the module between reboots.
const DefaultInstalledDir = "/data/adb/modules/cjkvf"

// Config represents the top-level configuration structure.
type Config struct {
	// BackupDir is the backup store root.
	BackupDir string `mapstructure:"backup_dir" yaml:"backup_dir"`

	// ModPath is the module install root; usually supplied by the installer
	// framework through the MODPATH environment variable instead.
	ModPath string `mapstructure:"modpath" yaml:"modpath"`

	// InstalledDir is the persisted module directory checked by the
	// provenance rule.
	InstalledDir string `mapstructure:"installed_dir" yaml:"installed_dir"`

	// MinAPI overrides the profile's minimum API level when positive.
	MinAPI int `mapstructure:"min_api" yaml:"min_api"`

	// Profile is the path of an alternate font profile; empty uses the
	// embedded default.
	Profile string `mapstructure:"profile" yaml:"profile"`
}

// Init initializes Viper with default configuration.
// Call this once at application startup before accessing config values.
func Init() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Search paths (in order of precedence)
	viper.AddConfigPath(".")
	viper.AddConfigPath(filepath.Join(xdg.ConfigHome, AppName))

	viper.SetEnvPrefix("CJKVF")
	viper.AutomaticEnv()

	viper.SetDefault("backup_dir", backup.DefaultRoot())
	viper.SetDefault("installed_dir", DefaultInstalledDir)
}

// Load reads the configuration file.
// If path is provided, it reads from that specific file.
// If path is empty, it searches in the default locations.
// Returns the loaded configuration or default values if no file is found (when path is empty).
func Load(path string) (*Config, error) {
	if path != "" {
		viper.SetConfigFile(path)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// If the user specified a path, this is an error
			if path != "" {
				return nil, fmt.Errorf("config file not found at %s: %w", path, err)
			}
			// Otherwise defaults apply
		} else {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}
