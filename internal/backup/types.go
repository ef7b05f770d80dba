package backup

import (
	"io/fs"
	"time"

	"github.com/cockroachdb/errors"
)

// Manifest format version for forward compatibility.
const ManifestVersion = 1

// MarkerFile is the name of the single-line API level marker inside the store.
const MarkerFile = "api_level"

// manifestFile is the name of the JSON manifest inside the store.
const manifestFile = "manifest.json"

// Sentinel errors for store operations.
var (
	// ErrStoreCorrupted indicates a backed-up file failed integrity verification.
	ErrStoreCorrupted = errors.New("backup store corrupted")

	// ErrNotBackedUp indicates the requested source path has no backup entry.
	ErrNotBackedUp = errors.New("file not in backup store")
)

// Manifest records every file held by the store.
// It is stored as manifest.json at the store root.
type Manifest struct {
	// Version is the manifest format version for forward compatibility.
	Version int `json:"version"`

	// CreatedAt is when the store was first populated.
	CreatedAt time.Time `json:"created_at"`

	// Files contains metadata for each backed-up file.
	Files []Entry `json:"files"`
}

// Entry contains metadata for a single backed-up file.
type Entry struct {
	// OriginalPath is the absolute path the file was copied from.
	OriginalPath string `json:"original_path"`

	// RelPath is the mirrored path within the store.
	RelPath string `json:"rel_path"`

	// SHA256Hash is the hex-encoded SHA-256 of the pristine contents.
	SHA256Hash string `json:"sha256_hash"`

	// Mode is the file's permission bits at backup time.
	Mode fs.FileMode `json:"mode"`
}

// Lookup returns the entry for an original path, if present.
func (m *Manifest) Lookup(originalPath string) (*Entry, bool) {
	for i := range m.Files {
		if m.Files[i].OriginalPath == originalPath {
			return &m.Files[i], true
		}
	}
	return nil, false
}
