// Package fontxml rewrites Android font configuration files to declare the
// Noto CJK variable fonts.
//
// The rewrite is textual pattern substitution over well-known block shapes,
// not schema-aware XML processing: the input files come from a bounded set of
// system images, and the rules must reproduce their formatting byte for byte.
// The block locator still parses opening-tag attributes properly so that
// lang="zh-Hant" never matches a lang="zh-Hant zh-Bopo" block.
//
// Three rule classes exist, all idempotent:
//
//   - alias augmentation next to the canonical serif-bold line,
//   - replacement of legacy CJK family blocks with variable-font declarations
//     plus a static regular-weight fallback,
//   - collapsing vendor customization families into single alias lines.
//
// A rule that finds no match is a no-op rather than an error; that, together
// with the copy-from-backup discipline in the migrator, is what makes
// repeated installs safe.
package fontxml
