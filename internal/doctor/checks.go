package doctor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"cjkvf/internal/android"
	"cjkvf/internal/backup"
	"cjkvf/internal/fontxml"
	"cjkvf/internal/privilege"
	"cjkvf/internal/profile"
)

// APILevelCheck verifies the device API level can be determined and meets
// the supported minimum.
type APILevelCheck struct {
	// Override is a caller-supplied API level, 0 to auto-detect.
	Override int

	// MinAPI is the lowest supported API level.
	MinAPI int
}

// Name returns the check identifier.
func (c *APILevelCheck) Name() string { return "api-level" }

// Category returns the check grouping.
func (c *APILevelCheck) Category() string { return "device" }

// Run executes the API level check.
func (c *APILevelCheck) Run(ctx context.Context) *CheckResult {
	result := &CheckResult{
		Name:     c.Name(),
		Category: c.Category(),
	}

	api, err := android.DetectAPILevel(ctx, c.Override)
	if err != nil {
		result.Status = SeverityError
		result.Message = "API level could not be determined"
		result.Hint = "Set the API environment variable or pass --api"
		return result
	}

	result.Details = map[string]any{"api_level": api, "min_api": c.MinAPI}
	if api < c.MinAPI {
		result.Status = SeverityError
		result.Message = fmt.Sprintf("API level %d is below the supported minimum %d", api, c.MinAPI)
		result.Hint = "This device cannot run the migration"
		return result
	}

	result.Status = SeverityPass
	result.Message = fmt.Sprintf("API level %d meets minimum %d", api, c.MinAPI)
	return result
}

// PrivilegeCheck probes for an elevated-execution helper.
type PrivilegeCheck struct {
	// ProbeDir is the directory listed during the probe.
	ProbeDir string

	// Logger receives probe traces.
	Logger *slog.Logger
}

// Name returns the check identifier.
func (c *PrivilegeCheck) Name() string { return "privilege-helper" }

// Category returns the check grouping.
func (c *PrivilegeCheck) Category() string { return "device" }

// Run executes the privilege helper probe.
func (c *PrivilegeCheck) Run(ctx context.Context) *CheckResult {
	result := &CheckResult{
		Name:     c.Name(),
		Category: c.Category(),
	}

	helper := privilege.Detect(ctx, c.ProbeDir, c.Logger)
	result.Details = map[string]any{"helper": helper.String()}

	if helper == privilege.HelperNone {
		result.Status = SeverityWarning
		result.Message = "no elevated-execution helper found"
		result.Hint = "Installs across OS upgrades need a working su binary"
		return result
	}

	result.Status = SeverityPass
	result.Message = fmt.Sprintf("elevated execution via %s", helper)
	return result
}

// TargetsCheck scans the profile's search directories for migratable files.
type TargetsCheck struct {
	// Profile supplies the search directories and target file names.
	Profile *profile.Profile
}

// Name returns the check identifier.
func (c *TargetsCheck) Name() string { return "target-files" }

// Category returns the check grouping.
func (c *TargetsCheck) Category() string { return "device" }

// Run scans for target files.
func (c *TargetsCheck) Run(_ context.Context) *CheckResult {
	result := &CheckResult{
		Name:     c.Name(),
		Category: c.Category(),
	}

	var found []string
	for _, dir := range c.Profile.SearchDirs {
		for _, name := range c.Profile.TargetFiles {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				found = append(found, path)
			}
		}
	}
	result.Details = map[string]any{"found": found}

	if len(found) == 0 {
		result.Status = SeverityWarning
		result.Message = "no font configuration files found in the search directories"
		result.Hint = "An install would change nothing on this device"
		return result
	}

	result.Status = SeverityPass
	result.Message = fmt.Sprintf("%d font configuration file(s) found", len(found))
	return result
}

// StoreCheck verifies the backup store and its manifest hashes.
type StoreCheck struct {
	// Store is the backup store to inspect.
	Store *backup.Store
}

// Name returns the check identifier.
func (c *StoreCheck) Name() string { return "backup-store" }

// Category returns the check grouping.
func (c *StoreCheck) Category() string { return "store" }

// Run verifies the store contents.
func (c *StoreCheck) Run(_ context.Context) *CheckResult {
	result := &CheckResult{
		Name:     c.Name(),
		Category: c.Category(),
		Details:  map[string]any{"store_dir": c.Store.Root()},
	}

	if !c.Store.Exists() {
		result.Status = SeverityInfo
		result.Message = "backup store not initialized"
		return result
	}

	m, err := c.Store.Manifest()
	if err != nil {
		result.Status = SeverityError
		result.Message = "backup store manifest is unreadable"
		result.Hint = "The store may be damaged; keep the pristine files safe before re-running install"
		return result
	}

	var corrupted []string
	for _, e := range m.Files {
		if err := c.Store.Verify(e.OriginalPath); err != nil {
			corrupted = append(corrupted, e.OriginalPath)
		}
	}

	result.Details["files"] = len(m.Files)
	if api, err := c.Store.ReadAPILevel(0); err == nil && api > 0 {
		result.Details["api_level"] = api
	}

	if len(corrupted) > 0 {
		result.Status = SeverityError
		result.Message = fmt.Sprintf("%d backed-up file(s) fail integrity verification", len(corrupted))
		result.Details["corrupted"] = corrupted
		result.Hint = "Do not restore from this store"
		return result
	}

	result.Status = SeverityPass
	result.Message = fmt.Sprintf("%d backed-up file(s) verified", len(m.Files))
	return result
}

// CustomizationCheck inspects the vendor customization file, if the profile
// declares one.
type CustomizationCheck struct {
	// Profile supplies the customization path and marker.
	Profile *profile.Profile

	// Runner performs the possibly privileged read.
	Runner *privilege.Runner
}

// Name returns the check identifier.
func (c *CustomizationCheck) Name() string { return "vendor-customization" }

// Category returns the check grouping.
func (c *CustomizationCheck) Category() string { return "device" }

// Run inspects the customization file.
func (c *CustomizationCheck) Run(ctx context.Context) *CheckResult {
	result := &CheckResult{
		Name:     c.Name(),
		Category: c.Category(),
	}

	custom := c.Profile.Customization
	if custom.Path == "" {
		result.Status = SeverityInfo
		result.Message = "profile declares no vendor customization file"
		return result
	}
	result.Details = map[string]any{"path": custom.Path}

	ok, err := c.Runner.Exists(custom.Path)
	if err != nil || !ok {
		result.Status = SeverityInfo
		result.Message = "vendor customization file not present"
		return result
	}

	data, err := c.Runner.ReadFile(ctx, custom.Path)
	if err != nil {
		result.Status = SeverityWarning
		result.Message = "vendor customization file exists but cannot be read"
		result.Hint = "Reading it needs an elevated-execution helper"
		return result
	}

	if !fontxml.HasCustomizationMarker(string(data), custom) {
		result.Status = SeverityInfo
		result.Message = "vendor customization file lacks the marker and will be left untouched"
		return result
	}

	result.Status = SeverityPass
	result.Message = "vendor customization file present and eligible for rewrite"
	return result
}
