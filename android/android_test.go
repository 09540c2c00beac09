package android

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Parse tests
// ---------------------------------------------------------------------------

func TestParse_BasicString(t *testing.T) {
	xml := `<?xml version="1.0" encoding="utf-8"?>
<resources>
    <string name="app_name">My App</string>
    <string name="hello">Hello World</string>
</resources>`

	f, err := Parse([]byte(xml))
	require.NoError(t, err)
	require.Len(t, f.Entries, 2)

	v, ok := f.Get("app_name")
	require.True(t, ok)
	require.Equal(t, "My App", v)
	require.Equal(t, []string{"app_name", "hello"}, f.Keys())
}

func TestParse_CommentsAndTranslatable(t *testing.T) {
	xml := `<?xml version="1.0" encoding="utf-8"?>
<resources>
    <!-- General -->
    <string name="app_name" translatable="false">MyApp</string>
    <string name="greeting">Hello</string>
    <string-array name="ignored"><item>x</item></string-array>
</resources>`

	f, err := Parse([]byte(xml))
	require.NoError(t, err)
	require.Len(t, f.Entries, 3)
	require.True(t, f.Entries[0].IsComment())
	require.Equal(t, "General", f.Entries[0].Comment)
	require.False(t, f.GetEntry("app_name").Translatable)
	require.True(t, f.GetEntry("greeting").Translatable)
	require.Nil(t, f.GetEntry("ignored"))

	total, comments, nonTranslatable := f.Stats()
	require.Equal(t, 2, total)
	require.Equal(t, 1, comments)
	require.Equal(t, 1, nonTranslatable)
}

func TestParse_InlineMarkupAndEntities(t *testing.T) {
	xml := `<resources><string name="k">Tom\'s <b>big</b> &amp; co&#8230;</string></resources>`

	f, err := Parse([]byte(xml))
	require.NoError(t, err)
	v, ok := f.Get("k")
	require.True(t, ok)
	require.Equal(t, `Tom\'s <b>big</b> & co…`, v)
}

func TestParseFile_Missing(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "nope.xml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

// ---------------------------------------------------------------------------
// Locale helpers
// ---------------------------------------------------------------------------

func TestLocaleConversion(t *testing.T) {
	tests := []struct {
		in, qualifier, standard string
	}{
		{"ko", "ko", "ko"},
		{"pt-BR", "pt-rBR", "pt-BR"},
		{"zh-rCN", "zh-rCN", "zh-CN"},
		{"en", "en", "en"},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			require.Equal(t, tc.qualifier, ToQualifier(tc.in))
			require.Equal(t, tc.standard, ToStandard(tc.in))
			require.Equal(t, "values-"+tc.qualifier, DirName(tc.in))
		})
	}
}

func TestStringsXMLPaths(t *testing.T) {
	require.Equal(t, filepath.Join("out", "values-zh-rCN", "strings.xml"), StringsXMLPath("out", "zh-CN"))
	require.Equal(t, filepath.Join("out", "values", "strings.xml"), DefaultStringsXMLPath("out"))
}

func TestDetectLanguages(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"values", "values-ko", "values-zh-rCN", "values-empty"} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, name), 0755))
	}
	for _, name := range []string{"values", "values-ko", "values-zh-rCN"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name, "strings.xml"), []byte("<resources/>"), 0644))
	}

	require.Equal(t, []string{"ko", "zh-rCN"}, DetectLanguages(dir))
	require.Nil(t, DetectLanguages(filepath.Join(dir, "missing")))
}

// ---------------------------------------------------------------------------
// Writer
// ---------------------------------------------------------------------------

func TestRenderRow(t *testing.T) {
	tests := []struct {
		name   string
		row    []string
		column int
		want   string
	}{
		{"string element", []string{"greet", "안녕", "", "Hello"}, 3, `    <string name="greet">Hello</string>`},
		{"comment key", []string{"<!-- Menu -->"}, 3, `    <!-- Menu -->`},
		{"short row", []string{"greet", "안녕"}, 3, ""},
		{"empty row", nil, 1, ""},
		{"empty key", []string{"", "x"}, 1, ""},
		{"escaped value", []string{"q", `He said "it's" & left...`}, 1, `    <string name="q">He said \"it\'s\" &amp; left&#8230;</string>`},
		{"value whitespace trimmed at line edges only", []string{"w", " a "}, 1, `    <string name="w"> a </string>`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, RenderRow(tc.row, tc.column))
		})
	}
}

func TestWriteResources(t *testing.T) {
	rows := [][]string{
		{"greet", "안녕", "", "Hi's"},
		{"<!-- menu -->"},
		{"short", "x"},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteResources(&buf, rows, 3, "    <!-- kept -->\n"))

	want := `<?xml version="1.0" encoding="utf-8"?>
<resources>
    <!-- kept -->
    <string name="greet">Hi\'s</string>
    <!-- menu -->

</resources>
`
	require.Equal(t, want, buf.String())
}

func TestWriteResources_OneLinePerRow(t *testing.T) {
	rows := [][]string{
		{"a", "1"},
		{"<!-- section -->"},
		{"b"},
		{"c", "3 & 4"},
		{},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteResources(&buf, rows, 1, ""))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Equal(t, resourcesOpen, lines[1])
	require.Equal(t, resourcesClose, lines[len(lines)-1])

	body := lines[2 : len(lines)-1]
	require.Len(t, body, len(rows))
	require.Equal(t, `    <string name="a">1</string>`, body[0])
	require.Equal(t, `    <!-- section -->`, body[1])
	require.Equal(t, "", body[2])
	require.Equal(t, `    <string name="c">3 &amp; 4</string>`, body[3])
	require.Equal(t, "", body[4])
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "values-ko", "strings.xml")
	require.NoError(t, WriteFile(path, [][]string{{"k", "v"}}, 1, ""))

	f, err := ParseFile(path)
	require.NoError(t, err)
	v, ok := f.Get("k")
	require.True(t, ok)
	require.Equal(t, "v", v)
}
