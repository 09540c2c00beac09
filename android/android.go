// Package android implements reading and writing of Android strings.xml
// resource files as produced from a translation spreadsheet.
//
// Writing is line oriented: every spreadsheet row becomes exactly one line
// inside <resources>, either a comment copied from the key cell or a
// <string name="…"> element whose text is run through the escaping rules in
// escape.go. Reading uses encoding/xml and only understands <string> elements
// and comments, which is all the writer ever emits.
package android

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ---------------------------------------------------------------------------
// Data model
// ---------------------------------------------------------------------------

// EntryKind identifies the type of a resource entry.
type EntryKind int

const (
	// KindString is a plain <string> resource.
	KindString EntryKind = iota
	// KindComment is an XML comment (not a resource).
	KindComment
)

// Entry represents a single item in a strings.xml file.
type Entry struct {
	Kind EntryKind

	// Name is the resource name (attribute name="…"). Empty for comments.
	Name string
	// Translatable reflects the translatable="…" attribute. Defaults to true.
	Translatable bool
	// Value is the decoded element text. Inline child elements such as <b>
	// are reconstructed as raw markup.
	Value string

	// Comment is the raw comment text (without <!-- -->).
	Comment string
}

// IsComment reports whether this entry is an XML comment.
func (e *Entry) IsComment() bool { return e.Kind == KindComment }

// File represents a parsed strings.xml file.
type File struct {
	// Entries in document order (resources + comments).
	Entries []*Entry
	byName  map[string]int
}

// ---------------------------------------------------------------------------
// Parsing
// ---------------------------------------------------------------------------

// ParseFile reads and parses a strings.xml file.
func ParseFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses strings.xml data. Elements other than <string> are skipped.
// Parsing stops quietly at the first malformed token; everything decoded up
// to that point is returned.
func Parse(data []byte) (*File, error) {
	f := &File{byName: make(map[string]int)}

	dec := xml.NewDecoder(strings.NewReader(string(data)))
	inResources := false

	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "resources" {
				inResources = true
				continue
			}
			if !inResources {
				continue
			}
			if t.Name.Local != "string" {
				_ = dec.Skip()
				continue
			}
			e, err := parseStringElement(dec, t)
			if err != nil {
				return nil, err
			}
			f.addEntry(e)

		case xml.Comment:
			if !inResources {
				continue
			}
			if comment := strings.TrimSpace(string(t)); comment != "" {
				f.Entries = append(f.Entries, &Entry{Kind: KindComment, Comment: comment})
			}

		case xml.EndElement:
			if t.Name.Local == "resources" {
				inResources = false
			}
		}
	}

	return f, nil
}

func (f *File) addEntry(e *Entry) {
	f.byName[e.Name] = len(f.Entries)
	f.Entries = append(f.Entries, e)
}

func parseStringElement(dec *xml.Decoder, elem xml.StartElement) (*Entry, error) {
	e := &Entry{Kind: KindString, Translatable: true}
	for _, attr := range elem.Attr {
		switch attr.Name.Local {
		case "name":
			e.Name = attr.Value
		case "translatable":
			e.Translatable = !strings.EqualFold(attr.Value, "false")
		}
	}

	var inner strings.Builder
	if err := readElementContent(dec, &inner); err != nil {
		return nil, fmt.Errorf("reading <string name=%q>: %w", e.Name, err)
	}
	e.Value = inner.String()
	return e, nil
}

// readElementContent reads the inner content of an element up to its
// matching close tag, writing inline child elements back as raw markup.
func readElementContent(dec *xml.Decoder, b *strings.Builder) error {
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.CharData:
			b.Write(t)
		case xml.StartElement:
			depth++
			b.WriteString("<" + qualifiedName(t.Name))
			for _, attr := range t.Attr {
				fmt.Fprintf(b, ` %s="%s"`, attr.Name.Local, attr.Value)
			}
			b.WriteString(">")
		case xml.EndElement:
			depth--
			if depth > 0 {
				b.WriteString("</" + qualifiedName(t.Name) + ">")
			}
		}
	}
	return nil
}

func qualifiedName(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

// Keys returns all resource names in document order.
func (f *File) Keys() []string {
	var keys []string
	for _, e := range f.Entries {
		if e.Kind == KindString {
			keys = append(keys, e.Name)
		}
	}
	return keys
}

// Get returns the value of a string resource.
func (f *File) Get(name string) (string, bool) {
	e := f.GetEntry(name)
	if e == nil {
		return "", false
	}
	return e.Value, true
}

// GetEntry returns the entry for a resource name, or nil if not found.
func (f *File) GetEntry(name string) *Entry {
	idx, ok := f.byName[name]
	if !ok {
		return nil
	}
	return f.Entries[idx]
}

// Stats returns (strings, comments, nonTranslatable) counts.
func (f *File) Stats() (stringsCount, comments, nonTranslatable int) {
	for _, e := range f.Entries {
		switch {
		case e.IsComment():
			comments++
		case !e.Translatable:
			stringsCount++
			nonTranslatable++
		default:
			stringsCount++
		}
	}
	return
}

// ---------------------------------------------------------------------------
// Resource directory layout
// ---------------------------------------------------------------------------

const (
	// DefaultDirName is the unqualified values directory of the default language.
	DefaultDirName = "values"
	// StringsFileName is the resource file written into every values directory.
	StringsFileName = "strings.xml"
)

// DirName converts a language code to its values directory name
// (e.g. "pt-BR" -> "values-pt-rBR", "zh-rCN" -> "values-zh-rCN", "ko" -> "values-ko").
func DirName(lang string) string {
	return DefaultDirName + "-" + ToQualifier(lang)
}

// StringsXMLPath returns the path to strings.xml for a given language.
func StringsXMLPath(resDir, lang string) string {
	return filepath.Join(resDir, DirName(lang), StringsFileName)
}

// DefaultStringsXMLPath returns the path to the default values/strings.xml.
func DefaultStringsXMLPath(resDir string) string {
	return filepath.Join(resDir, DefaultDirName, StringsFileName)
}

// DetectLanguages scans a resource directory for values-XX/ directories
// that contain strings.xml and returns their qualifiers, sorted.
func DetectLanguages(resDir string) []string {
	entries, err := os.ReadDir(resDir)
	if err != nil {
		return nil
	}

	var langs []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		lang, ok := strings.CutPrefix(entry.Name(), DefaultDirName+"-")
		if !ok || lang == "" {
			continue
		}
		if _, err := os.Stat(filepath.Join(resDir, entry.Name(), StringsFileName)); err == nil {
			langs = append(langs, lang)
		}
	}
	sort.Strings(langs)
	return langs
}

// ToStandard converts an Android locale qualifier to BCP-47.
// e.g., "pt-rBR" -> "pt-BR", "zh-rCN" -> "zh-CN", "ru" -> "ru"
func ToStandard(qualifier string) string {
	if idx := strings.Index(qualifier, "-r"); idx >= 0 {
		return qualifier[:idx] + "-" + qualifier[idx+2:]
	}
	return qualifier
}

// ToQualifier converts a language code to an Android locale qualifier.
// Codes already in qualifier form are returned unchanged.
// e.g., "pt-BR" -> "pt-rBR", "zh-rCN" -> "zh-rCN", "ru" -> "ru"
func ToQualifier(lang string) string {
	parts := strings.SplitN(ToStandard(lang), "-", 2)
	if len(parts) == 2 && parts[1] != "" {
		return parts[0] + "-r" + parts[1]
	}
	return parts[0]
}
