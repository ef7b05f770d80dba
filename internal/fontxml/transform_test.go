package fontxml

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cjkvf/internal/logging"
	"cjkvf/internal/profile"
)

func newTransformer(t *testing.T) *Transformer {
	t.Helper()
	p, err := profile.Default()
	require.NoError(t, err)
	return New(p, logging.ForTest(t))
}

const legacyJA = `<?xml version="1.0" encoding="utf-8"?>
<familyset>
    <alias name="serif-bold" to="serif" weight="700" />
    <family lang="ja">
        <font weight="400" style="normal" index="2">NotoSansCJK-Regular.ttc</font>
        <font weight="400" style="normal" index="2" fallbackFor="serif">NotoSerifCJK-Regular.ttc</font>
    </family>
</familyset>
`

func TestExpandSerifAliases(t *testing.T) {
	tr := newTransformer(t)

	out, changed := tr.ExpandSerifAliases(legacyJA)
	require.True(t, changed)

	// The canonical line survives and five siblings join it: six alias lines total
	assert.Equal(t, 6, strings.Count(out, "<alias name=\"serif-"))
	for _, want := range []string{
		`<alias name="serif-bold" to="serif" weight="700" />`,
		`<alias name="serif-thin" to="serif" weight="100" />`,
		`<alias name="serif-light" to="serif" weight="300" />`,
		`<alias name="serif-medium" to="serif" weight="400" />`,
		`<alias name="serif-semi-bold" to="serif" weight="500" />`,
		`<alias name="serif-black" to="serif" weight="900" />`,
	} {
		assert.Contains(t, out, want)
	}

	// Inserted lines carry the same indentation as the canonical line
	assert.Contains(t, out, "\n    <alias name=\"serif-thin\"")
}

func TestExpandSerifAliasesIdempotent(t *testing.T) {
	tr := newTransformer(t)

	once, changed := tr.ExpandSerifAliases(legacyJA)
	require.True(t, changed)

	twice, changed := tr.ExpandSerifAliases(once)
	assert.False(t, changed)
	assert.Equal(t, once, twice)
}

func TestExpandSerifAliasesNoCanonicalLine(t *testing.T) {
	tr := newTransformer(t)

	in := "<familyset>\n    <alias name=\"sans-serif-thin\" to=\"sans-serif\" weight=\"100\" />\n</familyset>\n"
	out, changed := tr.ExpandSerifAliases(in)
	assert.False(t, changed)
	assert.Equal(t, in, out)
}

func TestReplaceFamilyJA(t *testing.T) {
	tr := newTransformer(t)

	out, changed := tr.ReplaceFamilies(legacyJA)
	require.True(t, changed)

	// Exactly two ja family blocks: variable declaration plus static fallback
	assert.Equal(t, 2, strings.Count(out, `<family lang="ja">`))

	// Variable sans entries for each weight, face slot 0
	for _, w := range []int{100, 300, 400, 500, 600, 700, 900} {
		assert.Contains(t, out,
			fmt.Sprintf(`<font weight="%d" style="normal" index="0">NotoSansCJK-VF.otf.ttc`, w))
	}
	// Variable serif fallback entries
	for _, w := range []int{200, 300, 400, 500, 600, 700, 900} {
		assert.Contains(t, out,
			fmt.Sprintf(`<font weight="%d" style="normal" index="0" fallbackFor="serif">NotoSerifCJK-VF.otf.ttc`, w))
	}
	// Explicit weight axis values
	assert.Contains(t, out, `<axis tag="wght" stylevalue="100"/>`)
	assert.Contains(t, out, `<axis tag="wght" stylevalue="900"/>`)

	// Static regular-weight fallback block
	assert.Contains(t, out, `<font weight="400" style="normal" index="0">NotoSansCJK-Regular.ttc</font>`)
	assert.Contains(t, out, `<font weight="400" style="normal" index="0" fallbackFor="serif">NotoSerifCJK-Regular.ttc</font>`)

	// The legacy declaration is gone
	assert.NotContains(t, out, `index="2">NotoSansCJK-Regular.ttc`)
}

func TestReplaceFamiliesIdempotent(t *testing.T) {
	tr := newTransformer(t)

	once, changed := tr.ReplaceFamilies(legacyJA)
	require.True(t, changed)

	twice, changed := tr.ReplaceFamilies(once)
	assert.False(t, changed)
	assert.Equal(t, once, twice)
}

func TestReplaceFamilyIndexPerLanguage(t *testing.T) {
	tr := newTransformer(t)

	tests := []struct {
		lang  string
		index int
	}{
		{"ja", 0},
		{"ko", 1},
		{"zh-Hans", 2},
		{"zh-Hant", 3},
		{"zh-Bopo", 3},
		{"zh-Hant zh-Bopo", 3},
		{"zh-Hant,zh-Bopo", 3},
	}

	for _, tt := range tests {
		t.Run(tt.lang, func(t *testing.T) {
			in := fmt.Sprintf(`<familyset>
    <family lang="%s">
        <font weight="400" style="normal">NotoSansCJK-Regular.ttc</font>
    </family>
</familyset>
`, tt.lang)

			out, changed := tr.ReplaceFamilies(in)
			require.True(t, changed)
			assert.Contains(t, out,
				fmt.Sprintf(`<font weight="400" style="normal" index="%d">NotoSansCJK-VF.otf.ttc`, tt.index))
		})
	}
}

func TestReplaceFamilyExactLangMatch(t *testing.T) {
	tr := newTransformer(t)

	// A combined-identifier block must not be consumed by the zh-Hant rule
	in := `<familyset>
    <family lang="zh-Hant zh-Bopo">
        <font weight="400" style="normal">NotoSansCJK-Regular.ttc</font>
    </family>
</familyset>
`
	out, changed := tr.ReplaceFamilies(in)
	require.True(t, changed)

	assert.Equal(t, 2, strings.Count(out, `<family lang="zh-Hant zh-Bopo">`))
	assert.NotContains(t, out, `<family lang="zh-Hant">`)
}

func TestReplaceFamilySkipsNonLegacyBlocks(t *testing.T) {
	tr := newTransformer(t)

	// A ja block without the legacy marker (a custom font) is left untouched
	in := `<familyset>
    <family lang="ja">
        <font weight="400" style="normal">SourceHanSans-Regular.otf</font>
    </family>
</familyset>
`
	out, changed := tr.ReplaceFamilies(in)
	assert.False(t, changed)
	assert.Equal(t, in, out)
}

func TestReplaceFamilyMissingLanguage(t *testing.T) {
	tr := newTransformer(t)

	in := "<familyset>\n</familyset>\n"
	out, changed := tr.ReplaceFamilies(in)
	assert.False(t, changed)
	assert.Equal(t, in, out)
}

func TestApplyFullDocumentTwice(t *testing.T) {
	tr := newTransformer(t)

	doc := `<?xml version="1.0" encoding="utf-8"?>
<familyset>
    <alias name="serif-bold" to="serif" weight="700" />
    <family lang="zh-Hans">
        <font weight="400" style="normal" index="2">NotoSansCJK-Regular.ttc</font>
    </family>
    <family lang="ko">
        <font weight="400" style="normal" index="1">NotoSansCJK-Regular.ttc</font>
    </family>
</familyset>
`

	once, changed := tr.Apply(doc)
	require.True(t, changed)

	twice, changed := tr.Apply(once)
	assert.False(t, changed)
	assert.Equal(t, once, twice)

	assert.Equal(t, 2, strings.Count(once, `<family lang="zh-Hans">`))
	assert.Equal(t, 2, strings.Count(once, `<family lang="ko">`))
	assert.Contains(t, once, `index="2">NotoSansCJK-VF.otf.ttc`)
	assert.Contains(t, once, `index="1">NotoSansCJK-VF.otf.ttc`)
}

func TestFamilyBlocksParsing(t *testing.T) {
	doc := `<familyset>
    <family lang="ja" variant="elegant">
        <font>A.ttf</font>
    </family>
    <family name="sans-serif">
        <font>B.ttf</font>
    </family>
</familyset>`

	blocks := familyBlocks(doc)
	require.Len(t, blocks, 2)

	assert.Equal(t, "ja", blocks[0].attrs["lang"])
	assert.Equal(t, "elegant", blocks[0].attrs["variant"])
	assert.Equal(t, "    ", blocks[0].indent)
	assert.Equal(t, "sans-serif", blocks[1].attrs["name"])

	assert.True(t, strings.HasPrefix(blocks[0].text(doc), `<family lang="ja"`))
	assert.True(t, strings.HasSuffix(blocks[0].text(doc), "</family>"))
}
