// Package profile defines the data-driven ruleset for the font migration.
//
// Everything the transformer and migrator consume (search directories, target
// file names, font container names, weight lists, the script-to-face-index
// table, and the vendor customization rules) comes from a TOML profile. A
// default profile is embedded in the binary; an alternate one can be supplied
// with --profile to track upstream font package layout changes without a
// rebuild.
package profile

import (
	_ "embed"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"

	cjkerrors "cjkvf/internal/errors"
)

//go:embed default.toml
var defaultTOML []byte

// Profile is the full migration ruleset.
type Profile struct {
	// MinAPI is the lowest Android API level the module supports.
	MinAPI int `toml:"min-api"`

	// SearchDirs are the directories probed for each target file.
	SearchDirs []string `toml:"search-dirs"`

	// TargetFiles are the font configuration file names to migrate.
	TargetFiles []string `toml:"target-files"`

	// Fonts names the shipped font containers and their declared weights.
	Fonts Fonts `toml:"fonts"`

	// Families maps language-family identifiers to face slots.
	Families []Family `toml:"families"`

	// SerifAliases are the alias lines inserted next to serif-bold.
	SerifAliases []Alias `toml:"serif-aliases"`

	// Customization describes the vendor-specific pass.
	Customization Customization `toml:"customization"`
}

// Fonts names the font containers referenced by generated declarations.
type Fonts struct {
	SansVariable  string `toml:"sans-variable"`
	SerifVariable string `toml:"serif-variable"`
	SansStatic    string `toml:"sans-static"`
	SerifStatic   string `toml:"serif-static"`
	SansWeights   []int  `toml:"sans-weights"`
	SerifWeights  []int  `toml:"serif-weights"`
}

// Family binds a language identifier to the face slot inside the shared
// multi-face font containers.
type Family struct {
	Lang  string `toml:"lang"`
	Index int    `toml:"index"`
}

// Alias is a named weight alias to the serif family.
type Alias struct {
	Name   string `toml:"name"`
	Weight int    `toml:"weight"`
}

// Customization describes the vendor customization file pass.
type Customization struct {
	// Path is the absolute path of the customization file.
	Path string `toml:"path"`

	// Marker gates the whole pass: the file must contain this string.
	Marker string `toml:"marker"`

	// Rules name the family blocks collapsed into single alias lines.
	Rules []CustomRule `toml:"rules"`
}

// CustomRule collapses one named family block into an alias declaration.
type CustomRule struct {
	Name   string `toml:"name"`
	To     string `toml:"to"`
	Weight int    `toml:"weight"`
}

// Default returns the embedded profile.
// The embedded document is validated at load, so an error here means the
// binary itself was built with a broken profile.
func Default() (*Profile, error) {
	return parse(defaultTOML)
}

// Load reads and validates a profile from path.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading profile")
	}
	return parse(data)
}

func parse(data []byte) (*Profile, error) {
	var p Profile
	if err := toml.Unmarshal(data, &p); err != nil {
		return nil, errors.Wrap(err, "parsing profile")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks the profile for values the migration cannot run without.
func (p *Profile) Validate() error {
	if p.MinAPI <= 0 {
		return errors.Wrap(cjkerrors.ErrInvalidProfile, "min-api must be positive")
	}
	if len(p.SearchDirs) == 0 {
		return errors.Wrap(cjkerrors.ErrInvalidProfile, "search-dirs is empty")
	}
	if len(p.TargetFiles) == 0 {
		return errors.Wrap(cjkerrors.ErrInvalidProfile, "target-files is empty")
	}
	if p.Fonts.SansVariable == "" || p.Fonts.SerifVariable == "" {
		return errors.Wrap(cjkerrors.ErrInvalidProfile, "variable font containers must be named")
	}
	if p.Fonts.SansStatic == "" || p.Fonts.SerifStatic == "" {
		return errors.Wrap(cjkerrors.ErrInvalidProfile, "static fallback containers must be named")
	}
	if len(p.Fonts.SansWeights) == 0 || len(p.Fonts.SerifWeights) == 0 {
		return errors.Wrap(cjkerrors.ErrInvalidProfile, "weight lists must not be empty")
	}
	if len(p.Families) == 0 {
		return errors.Wrap(cjkerrors.ErrInvalidProfile, "families is empty")
	}
	for _, f := range p.Families {
		if f.Lang == "" {
			return errors.Wrap(cjkerrors.ErrInvalidProfile, "family with empty lang")
		}
		if f.Index < 0 {
			return errors.Wrapf(cjkerrors.ErrInvalidProfile, "family %q has negative index", f.Lang)
		}
	}
	for _, a := range p.SerifAliases {
		if a.Name == "" || a.Weight <= 0 {
			return errors.Wrap(cjkerrors.ErrInvalidProfile, "serif alias with empty name or weight")
		}
	}
	if p.Customization.Path != "" && p.Customization.Marker == "" {
		return errors.Wrap(cjkerrors.ErrInvalidProfile, "customization pass needs a marker")
	}
	for _, r := range p.Customization.Rules {
		if r.Name == "" || r.To == "" || r.Weight <= 0 {
			return errors.Wrap(cjkerrors.ErrInvalidProfile, "customization rule missing name, target or weight")
		}
	}
	return nil
}

// IndexFor returns the face slot for a language identifier.
// The second return is false when the language is not part of the profile.
func (p *Profile) IndexFor(lang string) (int, bool) {
	for _, f := range p.Families {
		if f.Lang == lang {
			return f.Index, true
		}
	}
	return 0, false
}
