package backup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/cockroachdb/errors"

	"cjkvf/internal/privilege"
	"cjkvf/pkg/fileutil"
)

// androidRoot is the persistent store location on a rooted device.
const androidRoot = "/data/adb/cjkvf/backup"

// Store holds one pristine copy per migrated system file, mirrored by
// absolute path, plus the API level marker from the last install run.
type Store struct {
	root   string
	logger *slog.Logger
}

// DefaultRoot returns the store location: the fixed path under /data/adb on a
// device, or an XDG data directory when developing off-device.
func DefaultRoot() string {
	if _, err := os.Stat("/data/adb"); err == nil {
		return androidRoot
	}
	return filepath.Join(xdg.DataHome, "cjkvf", "backup")
}

// NewStore creates a Store rooted at dir. The directory is not created until
// Init is called; existence checks against an uninitialized store are part of
// the provenance rules.
func NewStore(dir string, logger *slog.Logger) *Store {
	return &Store{root: dir, logger: logger}
}

// Root returns the store's root directory.
func (s *Store) Root() string {
	return s.root
}

// Exists reports whether the store directory is present.
func (s *Store) Exists() bool {
	info, err := os.Stat(s.root)
	return err == nil && info.IsDir()
}

// Init creates the store directory tree.
func (s *Store) Init() error {
	return errors.Wrap(os.MkdirAll(s.root, 0o755), "creating backup store")
}

// PathFor returns the mirrored store path for an absolute source path.
func (s *Store) PathFor(src string) string {
	return filepath.Join(s.root, relPath(src))
}

// Has reports whether the source path already has a pristine copy.
func (s *Store) Has(src string) bool {
	_, err := os.Stat(s.PathFor(src))
	return err == nil
}

// Add copies src into the store, reading through the runner when direct
// access is denied. A path already in the store is never overwritten: the
// first copy ever taken is the pristine original all later runs build on.
func (s *Store) Add(ctx context.Context, src string, runner *privilege.Runner) error {
	if s.Has(src) {
		s.logger.Debug("already backed up", "path", src)
		return nil
	}

	data, err := runner.ReadFile(ctx, src)
	if err != nil {
		return errors.Wrapf(err, "backing up %s", src)
	}

	mode := fs.FileMode(0o644)
	if info, statErr := os.Stat(src); statErr == nil {
		mode = info.Mode().Perm()
	}

	dst := s.PathFor(src)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errors.Wrap(err, "creating backup directory")
	}
	if err := fileutil.AtomicWriteFile(dst, data, mode); err != nil {
		return errors.Wrapf(err, "writing backup of %s", src)
	}

	sum := sha256.Sum256(data)
	entry := Entry{
		OriginalPath: src,
		RelPath:      relPath(src),
		SHA256Hash:   hex.EncodeToString(sum[:]),
		Mode:         mode,
	}
	if err := s.appendEntry(entry); err != nil {
		return err
	}

	s.logger.Info("backed up", "path", src)
	return nil
}

// CopyOut copies the pristine backup of src to dst, creating parent
// directories as needed. The live system file is never consulted, so
// transformations always start from the original content.
func (s *Store) CopyOut(src, dst string) error {
	data, err := os.ReadFile(s.PathFor(src))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return errors.Wrapf(ErrNotBackedUp, "%s", src)
		}
		return errors.Wrapf(err, "reading backup of %s", src)
	}

	mode := fs.FileMode(0o644)
	if m, err := s.Manifest(); err == nil {
		if e, ok := m.Lookup(src); ok {
			mode = e.Mode
		}
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errors.Wrap(err, "creating output directory")
	}
	return errors.Wrapf(fileutil.AtomicWriteFile(dst, data, mode), "copying out %s", src)
}

// Verify checks the stored copy of src against its manifest hash.
func (s *Store) Verify(src string) error {
	m, err := s.Manifest()
	if err != nil {
		return err
	}
	e, ok := m.Lookup(src)
	if !ok {
		return errors.Wrapf(ErrNotBackedUp, "%s", src)
	}

	data, err := os.ReadFile(s.PathFor(src))
	if err != nil {
		return errors.Wrapf(err, "reading backup of %s", src)
	}
	sum := sha256.Sum256(data)
	if hex.EncodeToString(sum[:]) != e.SHA256Hash {
		return errors.Wrapf(ErrStoreCorrupted, "hash mismatch for %s", src)
	}
	return nil
}

// ReadAPILevel returns the recorded API level marker, or fallback when the
// marker does not exist yet.
func (s *Store) ReadAPILevel(fallback int) (int, error) {
	data, err := os.ReadFile(filepath.Join(s.root, MarkerFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fallback, nil
		}
		return 0, errors.Wrap(err, "reading api level marker")
	}
	api, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, errors.Wrapf(err, "parsing api level marker %q", strings.TrimSpace(string(data)))
	}
	return api, nil
}

// WriteAPILevel persists the current API level marker. Called once per
// install run, after the compatibility checks pass.
func (s *Store) WriteAPILevel(api int) error {
	path := filepath.Join(s.root, MarkerFile)
	return errors.Wrap(
		fileutil.AtomicWriteFile(path, []byte(strconv.Itoa(api)+"\n"), 0o644),
		"writing api level marker")
}

// Manifest loads the store manifest. A missing manifest yields an empty one.
func (s *Store) Manifest() (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(s.root, manifestFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Manifest{Version: ManifestVersion, CreatedAt: time.Now().UTC()}, nil
		}
		return nil, errors.Wrap(err, "reading manifest")
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, "parsing manifest")
	}
	return &m, nil
}

func (s *Store) appendEntry(entry Entry) error {
	m, err := s.Manifest()
	if err != nil {
		return err
	}
	if _, ok := m.Lookup(entry.OriginalPath); ok {
		return nil
	}
	m.Files = append(m.Files, entry)

	path := filepath.Join(s.root, manifestFile)
	return errors.Wrap(fileutil.AtomicWriteJSON(path, m), "writing manifest")
}

// relPath converts an absolute path to the mirrored path inside the store.
func relPath(absPath string) string {
	clean := filepath.Clean(absPath)
	if filepath.IsAbs(clean) && len(clean) > 0 && clean[0] == filepath.Separator {
		clean = clean[1:]
	}
	return clean
}
