package android

import (
	"regexp"
	"sort"
	"strings"
)

// escapeSteps run in order; each step sees the output of the previous one.
// The final step collapses the double backslash produced when a value
// already carried an escaped apostrophe or quote.
var escapeSteps = []struct{ from, to string }{
	{`'`, `\'`},
	{`"`, `\"`},
	{"&", "&amp;"},
	{"...", "&#8230;"},
	{`\\`, `\`},
}

// Escape makes a raw spreadsheet value safe for the text of a <string>
// element. Angle brackets are left alone so inline markup survives.
//
// Escape is a one-pass transformation. Applying it to its own output escapes
// ampersands a second time ("&amp;" becomes "&amp;amp;").
func Escape(s string) string {
	if s == "" {
		return s
	}
	for _, step := range escapeSteps {
		s = strings.ReplaceAll(s, step.from, step.to)
	}
	return s
}

// Span is a half-open byte range [Start, End) within a string.
type Span struct {
	Start, End int
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int { return s.End - s.Start }

// In returns the part of str covered by the span.
func (s Span) In(str string) string { return str[s.Start:s.End] }

// Shift moves the span by off bytes.
func (s Span) Shift(off int) Span { return Span{s.Start + off, s.End + off} }

// openTagRe matches an opening tag with a lowercase alphanumeric name.
// RE2 has no back-references, so the matching close tag is located by
// FindContent itself.
var openTagRe = regexp.MustCompile(`<([a-z][a-z0-9]*)\b[^>]*>`)

// FindContent locates the text between the first complete
// <tag …>…</tag> pair on a line. The content is the shortest one that ends
// at a matching close tag and does not span a newline. Scanning moves left to
// right one opening tag at a time, so the outermost tag on the line wins.
func FindContent(line string) (Span, bool) {
	for start := 0; start < len(line); {
		m := openTagRe.FindStringSubmatchIndex(line[start:])
		if m == nil {
			return Span{}, false
		}
		name := line[start+m[2] : start+m[3]]
		contentStart := start + m[1]
		if end := strings.Index(line[contentStart:], "</"+name+">"); end >= 0 {
			content := Span{contentStart, contentStart + end}
			if !strings.Contains(content.In(line), "\n") {
				return content, true
			}
		}
		start += m[0] + 1
	}
	return Span{}, false
}

// Zones describes a single level of inline markup inside element content.
// All spans are relative to the content string.
type Zones struct {
	Nested bool
	// Before is the text ahead of the inner opening tag.
	Before Span
	// Inside is the text between the inner opening and closing tags.
	Inside Span
	// After is the text following the inner closing tag.
	After Span
}

// DetectNested scans content for one inner tag pair: a '<', the next '>',
// the next '<' and the next '>'. Reaching all four marks reports nested
// content. Tag names are not checked, and only the first pair is reported
// even when several sibling tags follow; text after the first pair,
// including any further tags, lands in After.
func DetectNested(content string) Zones {
	want := [4]byte{'<', '>', '<', '>'}
	var marks [4]int
	phase := 0
	for i := 0; i < len(content) && phase < len(want); i++ {
		if content[i] == want[phase] {
			marks[phase] = i
			phase++
		}
	}
	if phase < len(want) {
		return Zones{}
	}
	return Zones{
		Nested: true,
		Before: Span{0, marks[0]},
		Inside: Span{marks[1] + 1, marks[2]},
		After:  Span{marks[3] + 1, len(content)},
	}
}

// Edit replaces the bytes covered by Span with Text.
type Edit struct {
	Span
	Text string
}

// Splice applies non-overlapping edits to s by offset. Edits may be given in
// any order; offsets always refer to the original s.
func Splice(s string, edits ...Edit) string {
	sorted := append([]Edit(nil), edits...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	var b strings.Builder
	b.Grow(len(s))
	pos := 0
	for _, e := range sorted {
		b.WriteString(s[pos:e.Start])
		b.WriteString(e.Text)
		pos = e.End
	}
	b.WriteString(s[pos:])
	return b.String()
}

// EscapeLine escapes the element text of one output line.
//
// A line without a complete outer tag is returned unchanged. When the
// content carries one inner tag, the text before, inside and after it is
// escaped zone by zone and the tag markers are kept verbatim; otherwise the
// whole content is escaped as a unit. Only the first inner tag pair is
// recognized, so a second sibling tag is escaped as part of After.
func EscapeLine(line string) string {
	content, ok := FindContent(line)
	if !ok {
		return line
	}
	text := content.In(line)

	z := DetectNested(text)
	if !z.Nested {
		return Splice(line, Edit{content, Escape(text)})
	}

	edits := make([]Edit, 0, 3)
	for _, zone := range []Span{z.Before, z.Inside, z.After} {
		if zone.Len() == 0 {
			continue
		}
		abs := zone.Shift(content.Start)
		edits = append(edits, Edit{abs, Escape(abs.In(line))})
	}
	return Splice(line, edits...)
}
