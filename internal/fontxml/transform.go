package fontxml

import (
	"fmt"
	"log/slog"
	"strings"

	"cjkvf/internal/profile"
)

// childIndentUnit matches the four-space indentation Android's font
// configuration files use for font entries.
const childIndentUnit = "    "

// Transformer applies the idempotent rewrite rules to font configuration
// content. It is stateless; the rules come entirely from the profile.
type Transformer struct {
	p      *profile.Profile
	logger *slog.Logger
}

// New creates a Transformer for the given profile.
func New(p *profile.Profile, logger *slog.Logger) *Transformer {
	return &Transformer{p: p, logger: logger}
}

// Apply runs the alias augmentation and family replacement rules over a
// font configuration document. It returns the rewritten content and whether
// anything changed.
func (t *Transformer) Apply(content string) (string, bool) {
	out, aliasChanged := t.ExpandSerifAliases(content)
	out, famChanged := t.ReplaceFamilies(out)
	return out, aliasChanged || famChanged
}

// ExpandSerifAliases inserts the profile's serif weight aliases as siblings
// of the canonical serif-bold line, leaving that line intact. The rule only
// fires when none of the expanded alias names is present yet, so applying it
// twice has no additional effect.
func (t *Transformer) ExpandSerifAliases(content string) (string, bool) {
	if len(t.p.SerifAliases) == 0 {
		return content, false
	}

	aliases := aliasTags(content)

	// Already expanded?
	for _, a := range aliases {
		for _, want := range t.p.SerifAliases {
			if a.attrs["name"] == want.Name {
				return content, false
			}
		}
	}

	for _, a := range aliases {
		if a.attrs["name"] != "serif-bold" || a.attrs["to"] != "serif" || a.attrs["weight"] != "700" {
			continue
		}

		var sb strings.Builder
		sb.WriteString(content[:a.end])
		for _, alias := range t.p.SerifAliases {
			sb.WriteString("\n")
			sb.WriteString(a.indent)
			fmt.Fprintf(&sb, `<alias name="%s" to="serif" weight="%d" />`, alias.Name, alias.Weight)
		}
		sb.WriteString(content[a.end:])

		t.logger.Debug("expanded serif aliases", "count", len(t.p.SerifAliases))
		return sb.String(), true
	}

	return content, false
}

// ReplaceFamilies replaces each legacy CJK family block with a variable-font
// declaration plus a static regular-weight fallback block. A block is legacy
// when its raw text contains both "Noto" and "CJK"; a language whose blocks
// already reference the variable container is skipped entirely, which keeps
// the rule a no-op on already-transformed content.
func (t *Transformer) ReplaceFamilies(content string) (string, bool) {
	changed := false

	for _, fam := range t.p.Families {
		out, ok := t.replaceFamily(content, fam.Lang, fam.Index)
		if ok {
			content = out
			changed = true
		}
	}

	return content, changed
}

func (t *Transformer) replaceFamily(content, lang string, index int) (string, bool) {
	blocks := familyBlocks(content)

	// Already transformed for this language
	for _, b := range blocks {
		if b.attrs["lang"] == lang && strings.Contains(b.text(content), t.p.Fonts.SansVariable) {
			return content, false
		}
	}

	for _, b := range blocks {
		if b.attrs["lang"] != lang {
			continue
		}
		raw := b.text(content)
		if !strings.Contains(raw, "Noto") || !strings.Contains(raw, "CJK") {
			// Not a legacy declaration; leave it alone
			continue
		}

		t.logger.Debug("replacing family block", "lang", lang, "index", index)
		replacement := t.renderFamilies(lang, index, b.indent)
		return content[:b.start] + replacement + content[b.end:], true
	}

	return content, false
}

// renderFamilies emits the two replacement blocks for a language: the
// multi-weight variable declaration and the static weight-400 fallback.
func (t *Transformer) renderFamilies(lang string, index int, indent string) string {
	child := indent + childIndentUnit
	axis := child + childIndentUnit

	var sb strings.Builder

	// Variable-font declaration
	fmt.Fprintf(&sb, `<family lang="%s">`, lang)
	sb.WriteString("\n")
	for _, w := range t.p.Fonts.SansWeights {
		fmt.Fprintf(&sb, `%s<font weight="%d" style="normal" index="%d">%s`, child, w, index, t.p.Fonts.SansVariable)
		sb.WriteString("\n")
		fmt.Fprintf(&sb, `%s<axis tag="wght" stylevalue="%d"/>`, axis, w)
		sb.WriteString("\n")
		fmt.Fprintf(&sb, "%s</font>\n", child)
	}
	for _, w := range t.p.Fonts.SerifWeights {
		fmt.Fprintf(&sb, `%s<font weight="%d" style="normal" index="%d" fallbackFor="serif">%s`, child, w, index, t.p.Fonts.SerifVariable)
		sb.WriteString("\n")
		fmt.Fprintf(&sb, `%s<axis tag="wght" stylevalue="%d"/>`, axis, w)
		sb.WriteString("\n")
		fmt.Fprintf(&sb, "%s</font>\n", child)
	}
	fmt.Fprintf(&sb, "%s</family>\n", indent)

	// Static regular-weight fallback
	fmt.Fprintf(&sb, `%s<family lang="%s">`, indent, lang)
	sb.WriteString("\n")
	fmt.Fprintf(&sb, `%s<font weight="400" style="normal" index="%d">%s</font>`, child, index, t.p.Fonts.SansStatic)
	sb.WriteString("\n")
	fmt.Fprintf(&sb, `%s<font weight="400" style="normal" index="%d" fallbackFor="serif">%s</font>`, child, index, t.p.Fonts.SerifStatic)
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "%s</family>", indent)

	return sb.String()
}
