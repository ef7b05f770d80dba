package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cjkvf/internal/logging"
	"cjkvf/internal/privilege"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "backup"), logging.ForTest(t))
}

func testRunner(t *testing.T) *privilege.Runner {
	t.Helper()
	return privilege.NewRunner(privilege.HelperNone, logging.ForTest(t))
}

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestStoreExistsAndInit(t *testing.T) {
	s := newTestStore(t)
	assert.False(t, s.Exists())

	require.NoError(t, s.Init())
	assert.True(t, s.Exists())

	// Init is idempotent
	require.NoError(t, s.Init())
}

func TestAddNeverOverwrites(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Init())

	srcDir := t.TempDir()
	src := writeSource(t, srcDir, "fonts.xml", "pristine")

	ctx := context.Background()
	runner := testRunner(t)

	require.NoError(t, s.Add(ctx, src, runner))
	assert.True(t, s.Has(src))

	// Mutate the source; a second Add must not pick up the change
	require.NoError(t, os.WriteFile(src, []byte("transformed"), 0o644))
	require.NoError(t, s.Add(ctx, src, runner))

	data, err := os.ReadFile(s.PathFor(src))
	require.NoError(t, err)
	assert.Equal(t, "pristine", string(data))
}

func TestAddRecordsManifestEntry(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Init())

	srcDir := t.TempDir()
	src := writeSource(t, srcDir, "etc/fonts.xml", "<familyset/>")

	require.NoError(t, s.Add(context.Background(), src, testRunner(t)))

	m, err := s.Manifest()
	require.NoError(t, err)
	require.Len(t, m.Files, 1)

	e, ok := m.Lookup(src)
	require.True(t, ok)
	assert.Equal(t, src, e.OriginalPath)
	assert.NotEmpty(t, e.SHA256Hash)
	assert.NoError(t, s.Verify(src))
}

func TestVerifyDetectsCorruption(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Init())

	srcDir := t.TempDir()
	src := writeSource(t, srcDir, "fonts.xml", "original")
	require.NoError(t, s.Add(context.Background(), src, testRunner(t)))

	require.NoError(t, os.WriteFile(s.PathFor(src), []byte("tampered"), 0o644))
	assert.ErrorIs(t, s.Verify(src), ErrStoreCorrupted)
}

func TestCopyOutUsesBackupNotLiveFile(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Init())

	srcDir := t.TempDir()
	src := writeSource(t, srcDir, "fonts.xml", "pristine")
	require.NoError(t, s.Add(context.Background(), src, testRunner(t)))

	// Live file changes after backup
	require.NoError(t, os.WriteFile(src, []byte("drifted"), 0o644))

	dst := filepath.Join(t.TempDir(), "out", "fonts.xml")
	require.NoError(t, s.CopyOut(src, dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "pristine", string(data))
}

func TestCopyOutMissingBackup(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Init())

	err := s.CopyOut("/system/etc/fonts.xml", filepath.Join(t.TempDir(), "fonts.xml"))
	assert.ErrorIs(t, err, ErrNotBackedUp)
}

func TestAPILevelMarker(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Init())

	// Absent marker falls back
	api, err := s.ReadAPILevel(34)
	require.NoError(t, err)
	assert.Equal(t, 34, api)

	require.NoError(t, s.WriteAPILevel(33))

	api, err = s.ReadAPILevel(34)
	require.NoError(t, err)
	assert.Equal(t, 33, api)

	// Marker is a single line of text
	data, err := os.ReadFile(filepath.Join(s.Root(), MarkerFile))
	require.NoError(t, err)
	assert.Equal(t, "33\n", string(data))
}

func TestAPILevelMarkerGarbage(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Init())
	require.NoError(t, os.WriteFile(filepath.Join(s.Root(), MarkerFile), []byte("banana"), 0o644))

	_, err := s.ReadAPILevel(34)
	assert.Error(t, err)
}

func TestPathForMirrorsAbsolutePath(t *testing.T) {
	s := NewStore("/data/adb/cjkvf/backup", logging.ForTest(t))
	got := s.PathFor("/system/etc/fonts.xml")
	assert.Equal(t, "/data/adb/cjkvf/backup/system/etc/fonts.xml", got)
}
