// Package config holds the run configuration of sheetxml.
//
// A Config is built once at startup and passed by value to every component
// that needs it. Sources are layered, later ones winning:
//
//  1. built-in defaults (Default)
//  2. .sheetxml.yaml in the working directory (or --config)
//  3. SHEETXML_* environment variables
//  4. command-line flags (applied by the caller through With)
//
// Nothing in this package keeps state between calls; every step returns a
// new Config.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"

	"golang.org/x/text/language"

	"github.com/minios-linux/sheetxml/android"
)

// ErrUnknownLanguage is returned when a language code is not part of the
// configured language table.
var ErrUnknownLanguage = errors.New("unknown language")

// Language maps a language code to its column in the sheet.
type Language struct {
	// Code is a language code, either BCP-47 ("zh-CN") or an Android
	// qualifier ("zh-rCN"). It names the values-<code> output directory.
	Code string `yaml:"code"`
	// Column is the zero-based cell index of this language's values.
	// Column 0 holds the resource key.
	Column int `yaml:"column"`
}

// Config is the complete, immutable configuration of one run.
type Config struct {
	// SpreadsheetID identifies the Google spreadsheet to read.
	SpreadsheetID string `yaml:"spreadsheet_id"`
	// Range is the A1 range or sheet name to fetch.
	Range string `yaml:"range"`
	// OutputDir receives one values-<code> directory per language plus values/.
	OutputDir string `yaml:"output_dir"`
	// Languages is the language table, in output order.
	Languages []Language `yaml:"languages"`
	// DefaultLanguage selects the column written to values/strings.xml.
	DefaultLanguage string `yaml:"default_language"`
	// ProjectDir is the Android project whose existing strings are merged.
	ProjectDir string `yaml:"project_dir"`
	// ResDir is the resource directory relative to ProjectDir.
	ResDir string `yaml:"res_dir"`
	// ClientSecrets is the OAuth client secrets JSON of an installed app.
	ClientSecrets string `yaml:"client_secrets"`
	// TokenFile overrides the cached token location.
	TokenFile string `yaml:"token_file,omitempty"`
	// XLSXFile, when set, reads the table from a local workbook instead of
	// the Sheets API.
	XLSXFile string `yaml:"xlsx_file,omitempty"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		SpreadsheetID: "1OVRSEmBCXbEl52ZlBwA8_WVm0eiOSXZbJLmkiqf9h0g",
		Range:         "Android",
		OutputDir:     "./output/",
		Languages: []Language{
			{Code: "ko", Column: 1},
			{Code: "en", Column: 3},
			{Code: "zh", Column: 4},
			{Code: "ja", Column: 5},
			{Code: "zh-rCN", Column: 6},
			{Code: "fr", Column: 7},
		},
		DefaultLanguage: "en",
		ProjectDir:      ".",
		ResDir:          filepath.Join("app", "src", "main", "res"),
		ClientSecrets:   "credentials.json",
	}
}

func (c Config) clone() Config {
	c.Languages = slices.Clone(c.Languages)
	return c
}

// Codes returns the configured language codes in table order.
func (c Config) Codes() []string {
	codes := make([]string, len(c.Languages))
	for i, l := range c.Languages {
		codes[i] = l.Code
	}
	return codes
}

// Column returns the sheet column of a language.
func (c Config) Column(code string) (int, bool) {
	for _, l := range c.Languages {
		if l.Code == code {
			return l.Column, true
		}
	}
	return 0, false
}

// HasLanguage reports whether code is in the language table.
func (c Config) HasLanguage(code string) bool {
	_, ok := c.Column(code)
	return ok
}

// DefaultColumn returns the sheet column of the default language.
func (c Config) DefaultColumn() (int, error) {
	col, ok := c.Column(c.DefaultLanguage)
	if !ok {
		return 0, fmt.Errorf("default language %q: %w", c.DefaultLanguage, ErrUnknownLanguage)
	}
	return col, nil
}

// LegacyPath returns the existing default strings.xml inside the project.
func (c Config) LegacyPath() string {
	return android.DefaultStringsXMLPath(filepath.Join(c.ProjectDir, c.ResDir))
}

// Validate checks that the configuration can drive a run.
func (c Config) Validate() error {
	if c.SpreadsheetID == "" && c.XLSXFile == "" {
		return errors.New("spreadsheet_id or xlsx_file is required")
	}
	if c.Range == "" {
		return errors.New("range is required")
	}
	if c.OutputDir == "" {
		return errors.New("output_dir is required")
	}
	if len(c.Languages) == 0 {
		return errors.New("at least one language is required")
	}

	seen := make(map[string]bool, len(c.Languages))
	for i, l := range c.Languages {
		if l.Code == "" {
			return fmt.Errorf("language #%d has no code", i+1)
		}
		if seen[l.Code] {
			return fmt.Errorf("language %q is listed twice", l.Code)
		}
		seen[l.Code] = true

		if l.Column < 1 {
			return fmt.Errorf("language %q: column %d is invalid (column 0 holds the key)", l.Code, l.Column)
		}
		if _, err := language.Parse(android.ToStandard(l.Code)); err != nil {
			return fmt.Errorf("language %q: %w", l.Code, err)
		}
	}

	if _, err := c.DefaultColumn(); err != nil {
		return err
	}
	return nil
}

// Overrides carries optional replacements for scalar settings. Empty fields
// leave the current value alone. The env tags bind SHEETXML_* variables.
type Overrides struct {
	SpreadsheetID   string `env:"SPREADSHEET_ID"`
	Range           string `env:"RANGE"`
	OutputDir       string `env:"OUTPUT_DIR"`
	DefaultLanguage string `env:"DEFAULT_LANGUAGE"`
	ProjectDir      string `env:"PROJECT_DIR"`
	ResDir          string `env:"RES_DIR"`
	ClientSecrets   string `env:"CLIENT_SECRETS"`
	TokenFile       string `env:"TOKEN_FILE"`
	XLSXFile        string `env:"XLSX_FILE"`
}

// With returns a copy of c with the non-empty overrides applied.
func (c Config) With(o Overrides) Config {
	next := c.clone()
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&next.SpreadsheetID, o.SpreadsheetID)
	set(&next.Range, o.Range)
	set(&next.OutputDir, o.OutputDir)
	set(&next.DefaultLanguage, o.DefaultLanguage)
	set(&next.ProjectDir, o.ProjectDir)
	set(&next.ResDir, o.ResDir)
	set(&next.ClientSecrets, o.ClientSecrets)
	set(&next.TokenFile, o.TokenFile)
	set(&next.XLSXFile, o.XLSXFile)
	return next
}
