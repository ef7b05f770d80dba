package fontxml

import (
	"fmt"
	"log/slog"
	"strings"

	"cjkvf/internal/profile"
)

// HasCustomizationMarker reports whether content carries the vendor marker
// that gates the customization pass.
func HasCustomizationMarker(content string, c profile.Customization) bool {
	return c.Marker != "" && strings.Contains(content, c.Marker)
}

// RewriteCustomization collapses each named customization family block into a
// single alias declaration with the rule's target and weight. Blocks already
// collapsed no longer exist by name, so re-running is a no-op.
func RewriteCustomization(content string, c profile.Customization, logger *slog.Logger) (string, bool) {
	changed := false

	for _, rule := range c.Rules {
		out, ok := collapseNamedFamily(content, rule)
		if ok {
			logger.Debug("collapsed customization family", "name", rule.Name, "weight", rule.Weight)
			content = out
			changed = true
		}
	}

	return content, changed
}

func collapseNamedFamily(content string, rule profile.CustomRule) (string, bool) {
	for _, b := range familyBlocks(content) {
		if b.attrs["name"] != rule.Name {
			continue
		}
		line := fmt.Sprintf(`<alias name="%s" to="%s" weight="%d" />`, rule.Name, rule.To, rule.Weight)
		return content[:b.start] + line + content[b.end:], true
	}
	return content, false
}
