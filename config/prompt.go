package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/minios-linux/sheetxml/i18n"
)

// Prompt asks for the default language and the Android project directory
// and returns cfg with the answers applied. Pressing Enter keeps the current
// value. An unknown language or a path that is not a directory is reported
// and ignored. cfg itself is never modified.
func Prompt(in io.Reader, out io.Writer, cfg Config) (Config, error) {
	next := cfg.clone()
	scanner := bufio.NewScanner(in)

	ask := func(question string) (string, error) {
		fmt.Fprint(out, question)
		if !scanner.Scan() {
			return "", scanner.Err()
		}
		return strings.TrimSpace(scanner.Text()), nil
	}

	fmt.Fprintln(out, i18n.T("Begin configuration. Press Enter to keep the default."))

	lang, err := ask(fmt.Sprintf(i18n.T("1. Default language (%s) [%s]: "),
		strings.Join(cfg.Codes(), ", "), cfg.DefaultLanguage))
	if err != nil {
		return cfg, fmt.Errorf("reading default language: %w", err)
	}
	switch {
	case lang == "":
	case next.HasLanguage(lang):
		next.DefaultLanguage = lang
	default:
		fmt.Fprintf(out, i18n.T("   %q is not a configured language, keeping %s\n"), lang, cfg.DefaultLanguage)
	}

	dir, err := ask(fmt.Sprintf(i18n.T("2. Android project directory [%s]: "), cfg.ProjectDir))
	if err != nil {
		return cfg, fmt.Errorf("reading project directory: %w", err)
	}
	if dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			next.ProjectDir = dir
		} else {
			fmt.Fprintf(out, i18n.T("   %s is not a directory, keeping %s\n"), dir, cfg.ProjectDir)
		}
	}

	return next, nil
}
