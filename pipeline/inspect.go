package pipeline

import (
	"fmt"
	"slices"

	"github.com/minios-linux/sheetxml/android"
)

// LanguageStats describes one generated strings.xml file.
type LanguageStats struct {
	// Qualifier is the Android locale qualifier of the values directory.
	Qualifier string
	Path      string

	Strings         int
	Comments        int
	NonTranslatable int
	// Empty counts string resources whose value is blank.
	Empty int
	// Missing lists resources of the default file absent from this one.
	Missing []string
}

// Report is the result of Inspect.
type Report struct {
	// Default describes values/strings.xml; nil when it does not exist.
	Default   *LanguageStats
	Languages []LanguageStats
}

// Inspect reads the generated files in outputDir and compares every
// language against the default file.
func Inspect(outputDir string) (Report, error) {
	var rep Report

	var defaultKeys []string
	defaultPath := android.DefaultStringsXMLPath(outputDir)
	if f, err := android.ParseFile(defaultPath); err == nil {
		st := statsOf(f, "", defaultPath)
		rep.Default = &st
		defaultKeys = translatableKeys(f)
	}

	for _, q := range android.DetectLanguages(outputDir) {
		path := android.StringsXMLPath(outputDir, q)
		f, err := android.ParseFile(path)
		if err != nil {
			return rep, fmt.Errorf("inspecting %s: %w", q, err)
		}
		st := statsOf(f, q, path)
		for _, key := range defaultKeys {
			if _, ok := f.Get(key); !ok {
				st.Missing = append(st.Missing, key)
			}
		}
		rep.Languages = append(rep.Languages, st)
	}
	return rep, nil
}

func statsOf(f *android.File, qualifier, path string) LanguageStats {
	st := LanguageStats{Qualifier: qualifier, Path: path}
	st.Strings, st.Comments, st.NonTranslatable = f.Stats()
	for _, e := range f.Entries {
		if !e.IsComment() && e.Value == "" {
			st.Empty++
		}
	}
	return st
}

func translatableKeys(f *android.File) []string {
	var keys []string
	for _, key := range f.Keys() {
		if e := f.GetEntry(key); e != nil && e.Translatable && !slices.Contains(keys, key) {
			keys = append(keys, key)
		}
	}
	return keys
}
