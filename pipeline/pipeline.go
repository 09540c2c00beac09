// Package pipeline drives one conversion run: fetch the sheet, write one
// strings.xml per language, then write the default values/strings.xml with
// the comments and non-translatable lines of the existing project merged in.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/minios-linux/sheetxml/android"
	"github.com/minios-linux/sheetxml/config"
	"github.com/minios-linux/sheetxml/sheet"
)

// Logger receives progress messages. The CLI renders them; library code
// never prints.
type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Successf(format string, args ...any)
}

// Result summarizes a run.
type Result struct {
	// Empty is set when the sheet returned no rows and nothing was written.
	Empty bool
	// Written lists the generated files in write order.
	Written []string
	// Merged is the number of legacy lines carried into the default file.
	Merged int
}

// Run executes one conversion. Any error aborts the run; files already
// written stay in place.
func Run(ctx context.Context, cfg config.Config, src sheet.Source, log Logger) (Result, error) {
	var res Result

	defaultColumn, err := cfg.DefaultColumn()
	if err != nil {
		return res, err
	}

	log.Infof("Loading sheet data...")
	table, err := src.Fetch(ctx)
	if err != nil {
		return res, err
	}
	if table.Empty() {
		log.Warnf("No data found.")
		res.Empty = true
		return res, nil
	}
	rows := table.Rows()

	log.Infof("Writing %d rows for %d languages...", len(rows), len(cfg.Languages))
	for _, lang := range cfg.Languages {
		path := android.StringsXMLPath(cfg.OutputDir, lang.Code)
		if err := android.WriteFile(path, rows, lang.Column, ""); err != nil {
			return res, err
		}
		res.Written = append(res.Written, path)
	}

	lines, err := legacyLines(cfg.LegacyPath(), log)
	if err != nil {
		return res, err
	}
	res.Merged = len(lines)

	path := android.DefaultStringsXMLPath(cfg.OutputDir)
	if err := android.WriteFile(path, rows, defaultColumn, android.TransformLegacy(lines)); err != nil {
		return res, err
	}
	res.Written = append(res.Written, path)

	log.Successf("All tasks are completed. You can find the output in %s", cfg.OutputDir)
	return res, nil
}

// legacyLines returns the lines to carry over from the project's default
// strings.xml. A missing project file is reported and yields no lines.
func legacyLines(path string, log Logger) ([]string, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Warnf("Android project file %s not found, skipping merge", path)
			return nil, nil
		}
		return nil, fmt.Errorf("checking %s: %w", path, err)
	}

	lines, err := android.ReadLegacyFile(path)
	if err != nil {
		return nil, err
	}
	log.Infof("Merging %d lines from %s", len(lines), path)
	return lines, nil
}
