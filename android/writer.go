package android

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	xmlDeclaration = `<?xml version="1.0" encoding="utf-8"?>`
	resourcesOpen  = "<resources>"
	resourcesClose = "</resources>"
	indent         = "    "

	// CommentPrefix marks a key cell that is copied into the output as a comment.
	CommentPrefix = "<!--"
)

// WriteResources writes a complete strings.xml document to w.
//
// rows are the data rows of the sheet (header rows already removed); column
// selects the language cell of each row. prefix is copied verbatim right
// after <resources> and must carry its own line terminators.
func WriteResources(w io.Writer, rows [][]string, column int, prefix string) error {
	bw := bufio.NewWriter(w)

	bw.WriteString(xmlDeclaration + "\n")
	bw.WriteString(resourcesOpen + "\n")
	bw.WriteString(prefix)
	for _, row := range rows {
		bw.WriteString(RenderRow(row, column))
		bw.WriteByte('\n')
	}
	bw.WriteString(resourcesClose + "\n")

	return bw.Flush()
}

// RenderRow returns the output line for one data row, without a line
// terminator. A key starting with "<!--" is emitted as-is; any other key
// becomes a <string> element holding the cell at column. Rows without a key
// or without that cell render as an empty line.
func RenderRow(row []string, column int) string {
	if len(row) == 0 {
		return ""
	}
	key := row[0]
	if strings.HasPrefix(key, CommentPrefix) {
		return contentLine(key)
	}
	if key == "" || column < 1 || column >= len(row) {
		return ""
	}
	return contentLine(fmt.Sprintf(`<string name="%s">%s</string>`, key, row[column]))
}

func contentLine(s string) string {
	return indent + EscapeLine(strings.TrimSpace(s))
}

// WriteFile writes a strings.xml document to path, creating its directory.
// The file is closed before WriteFile returns.
func WriteFile(path string, rows [][]string, column int, prefix string) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("closing %s: %w", path, cerr))
		}
	}()

	if err := WriteResources(f, rows, column, prefix); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
