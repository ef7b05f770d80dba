package fontxml

import "strings"

// famBlock is one <family ...>...</family> span inside a document.
type famBlock struct {
	// start is the offset of the opening '<'; end is the offset just past
	// the closing </family> tag.
	start, end int

	// indent is the leading whitespace of the line the opening tag sits on.
	indent string

	// attrs are the parsed attributes of the opening tag.
	attrs map[string]string
}

// text returns the raw block text.
func (b famBlock) text(doc string) string {
	return doc[b.start:b.end]
}

const (
	openTag  = "<family"
	closeTag = "</family>"
)

// familyBlocks scans doc for family blocks. The scan is textual but scoped:
// an opening tag is only recognized when "<family" is followed by whitespace
// or '>', and the block extends to the next closing tag. Nested family
// elements do not occur in Android font configuration files.
func familyBlocks(doc string) []famBlock {
	var blocks []famBlock

	pos := 0
	for {
		i := strings.Index(doc[pos:], openTag)
		if i < 0 {
			break
		}
		i += pos

		// Reject <familyset> and similar
		next := i + len(openTag)
		if next >= len(doc) || !isTagBoundary(doc[next]) {
			pos = next
			continue
		}

		tagEnd := strings.IndexByte(doc[i:], '>')
		if tagEnd < 0 {
			break
		}
		tagEnd += i

		// Self-closing <family ... /> carries no content to rewrite
		if doc[tagEnd-1] == '/' {
			pos = tagEnd + 1
			continue
		}

		closeIdx := strings.Index(doc[tagEnd:], closeTag)
		if closeIdx < 0 {
			break
		}
		end := tagEnd + closeIdx + len(closeTag)

		blocks = append(blocks, famBlock{
			start:  i,
			end:    end,
			indent: lineIndent(doc, i),
			attrs:  parseAttrs(doc[i+len(openTag) : tagEnd]),
		})
		pos = end
	}

	return blocks
}

func isTagBoundary(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '>'
}

// lineIndent returns the whitespace prefix of the line containing offset.
func lineIndent(doc string, offset int) string {
	lineStart := strings.LastIndexByte(doc[:offset], '\n') + 1
	i := lineStart
	for i < offset && (doc[i] == ' ' || doc[i] == '\t') {
		i++
	}
	return doc[lineStart:i]
}

// parseAttrs extracts key="value" pairs from the inside of an opening tag.
func parseAttrs(tag string) map[string]string {
	attrs := make(map[string]string)

	i := 0
	for i < len(tag) {
		// Skip whitespace
		for i < len(tag) && isTagBoundary(tag[i]) {
			i++
		}
		// Read attribute name
		nameStart := i
		for i < len(tag) && tag[i] != '=' && !isTagBoundary(tag[i]) {
			i++
		}
		name := tag[nameStart:i]
		if name == "" || i >= len(tag) || tag[i] != '=' {
			break
		}
		i++ // '='
		if i >= len(tag) || tag[i] != '"' {
			break
		}
		i++ // opening quote
		valStart := i
		for i < len(tag) && tag[i] != '"' {
			i++
		}
		if i >= len(tag) {
			break
		}
		attrs[name] = tag[valStart:i]
		i++ // closing quote
	}

	return attrs
}

// aliasLines finds <alias .../> tags in doc and returns the offset and parsed
// attributes of each. Used to locate the canonical serif-bold line.
type aliasLine struct {
	start, end int
	indent     string
	attrs      map[string]string
}

func aliasTags(doc string) []aliasLine {
	var out []aliasLine

	const open = "<alias"
	pos := 0
	for {
		i := strings.Index(doc[pos:], open)
		if i < 0 {
			break
		}
		i += pos

		next := i + len(open)
		if next >= len(doc) || !isTagBoundary(doc[next]) {
			pos = next
			continue
		}

		tagEnd := strings.IndexByte(doc[i:], '>')
		if tagEnd < 0 {
			break
		}
		tagEnd += i

		out = append(out, aliasLine{
			start:  i,
			end:    tagEnd + 1,
			indent: lineIndent(doc, i),
			attrs:  parseAttrs(strings.TrimSuffix(doc[i+len(open):tagEnd], "/")),
		})
		pos = tagEnd + 1
	}

	return out
}
