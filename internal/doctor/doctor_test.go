package doctor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cjkvf/internal/backup"
	"cjkvf/internal/logging"
	"cjkvf/internal/privilege"
	"cjkvf/internal/profile"
)

type stubCheck struct {
	name   string
	status Severity
}

func (c *stubCheck) Name() string     { return c.name }
func (c *stubCheck) Category() string { return "test" }
func (c *stubCheck) Run(_ context.Context) *CheckResult {
	return &CheckResult{Name: c.name, Category: "test", Status: c.status}
}

func TestRunnerAggregatesSummary(t *testing.T) {
	r := NewRunner()
	r.AddCheck(&stubCheck{name: "a", status: SeverityPass})
	r.AddCheck(&stubCheck{name: "b", status: SeverityWarning})
	r.AddCheck(&stubCheck{name: "c", status: SeverityError})
	r.AddCheck(&stubCheck{name: "d", status: SeverityInfo})

	report := r.Run(context.Background())

	assert.Len(t, report.Results, 4)
	assert.Equal(t, 1, report.Summary.Passed)
	assert.Equal(t, 1, report.Summary.Warnings)
	assert.Equal(t, 1, report.Summary.Errors)
	assert.Equal(t, 1, report.Summary.Info)
	assert.True(t, report.HasErrors())
	assert.True(t, report.HasWarnings())
	assert.False(t, report.Timestamp.IsZero())
}

func TestAPILevelCheck(t *testing.T) {
	tests := []struct {
		name     string
		override int
		minAPI   int
		want     Severity
	}{
		{"meets minimum", 34, 31, SeverityPass},
		{"exactly minimum", 31, 31, SeverityPass},
		{"below minimum", 30, 31, SeverityError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &APILevelCheck{Override: tt.override, MinAPI: tt.minAPI}
			result := c.Run(context.Background())
			assert.Equal(t, tt.want, result.Status)
			assert.Equal(t, tt.override, result.Details["api_level"])
		})
	}
}

func TestTargetsCheck(t *testing.T) {
	p, err := profile.Default()
	require.NoError(t, err)

	dir := t.TempDir()
	p.SearchDirs = []string{dir}

	c := &TargetsCheck{Profile: p}

	result := c.Run(context.Background())
	assert.Equal(t, SeverityWarning, result.Status)

	require.NoError(t, os.WriteFile(filepath.Join(dir, p.TargetFiles[0]), []byte("<familyset/>"), 0o644))
	result = c.Run(context.Background())
	assert.Equal(t, SeverityPass, result.Status)
	assert.Contains(t, result.Message, "1 font configuration file(s)")
}

func TestStoreCheckUninitialized(t *testing.T) {
	store := backup.NewStore(filepath.Join(t.TempDir(), "absent"), logging.ForTest(t))
	c := &StoreCheck{Store: store}

	result := c.Run(context.Background())
	assert.Equal(t, SeverityInfo, result.Status)
}

func TestStoreCheckVerifiesFiles(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "fonts.xml")
	require.NoError(t, os.WriteFile(src, []byte("<familyset/>"), 0o644))

	store := backup.NewStore(filepath.Join(dir, "store"), logging.ForTest(t))
	require.NoError(t, store.Init())
	runner := privilege.NewRunner(privilege.HelperNone, logging.ForTest(t))
	require.NoError(t, store.Add(context.Background(), src, runner))

	c := &StoreCheck{Store: store}
	result := c.Run(context.Background())
	assert.Equal(t, SeverityPass, result.Status)
	assert.Equal(t, 1, result.Details["files"])

	// Corrupt the stored copy
	require.NoError(t, os.WriteFile(store.PathFor(src), []byte("tampered"), 0o644))
	result = c.Run(context.Background())
	assert.Equal(t, SeverityError, result.Status)
	assert.Contains(t, result.Details["corrupted"], src)
}

func TestCustomizationCheck(t *testing.T) {
	p, err := profile.Default()
	require.NoError(t, err)
	runner := privilege.NewRunner(privilege.HelperNone, logging.ForTest(t))

	t.Run("no path declared", func(t *testing.T) {
		q := *p
		q.Customization.Path = ""
		c := &CustomizationCheck{Profile: &q, Runner: runner}
		assert.Equal(t, SeverityInfo, c.Run(context.Background()).Status)
	})

	t.Run("file absent", func(t *testing.T) {
		q := *p
		q.Customization.Path = filepath.Join(t.TempDir(), "fonts_customization.xml")
		c := &CustomizationCheck{Profile: &q, Runner: runner}
		assert.Equal(t, SeverityInfo, c.Run(context.Background()).Status)
	})

	t.Run("marker present", func(t *testing.T) {
		q := *p
		q.Customization.Path = filepath.Join(t.TempDir(), "fonts_customization.xml")
		content := "<!-- " + q.Customization.Marker + " -->\n<fonts-modification/>\n"
		require.NoError(t, os.WriteFile(q.Customization.Path, []byte(content), 0o644))

		c := &CustomizationCheck{Profile: &q, Runner: runner}
		assert.Equal(t, SeverityPass, c.Run(context.Background()).Status)
	})

	t.Run("marker absent", func(t *testing.T) {
		q := *p
		q.Customization.Path = filepath.Join(t.TempDir(), "fonts_customization.xml")
		require.NoError(t, os.WriteFile(q.Customization.Path, []byte("<fonts-modification/>\n"), 0o644))

		c := &CustomizationCheck{Profile: &q, Runner: runner}
		assert.Equal(t, SeverityInfo, c.Run(context.Background()).Status)
	})
}
