package android

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

const translatableFalse = `translatable="false"`

// ReadLegacy returns the lines of an existing strings.xml that must survive
// regeneration: comments, blank lines and resources marked
// translatable="false". Lines keep their terminators and file order.
// Everything else is dropped because it is regenerated from the sheet.
func ReadLegacy(r io.Reader) ([]string, error) {
	var kept []string
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" && keepLegacyLine(line) {
			kept = append(kept, line)
		}
		if err == io.EOF {
			return kept, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// ReadLegacyFile opens path and applies ReadLegacy. The caller decides what
// a missing file means; the error wraps fs.ErrNotExist in that case.
func ReadLegacyFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	lines, err := ReadLegacy(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return lines, nil
}

func keepLegacyLine(line string) bool {
	if strings.HasPrefix(line, resourcesOpen) {
		return false
	}
	return strings.Contains(line, translatableFalse) ||
		strings.Contains(line, CommentPrefix) ||
		strings.TrimRight(line, "\r\n") == ""
}

// TransformLegacy turns retained legacy lines into the prefix block of the
// default-language file. When a line starts with a <string opening tag, the
// block ends at the last such line, which gets an extra newline; trailing
// comments and blanks after it are dropped. Otherwise all lines are kept.
func TransformLegacy(lines []string) string {
	last := -1
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimLeft(line, " \t"), "<string") {
			last = i
		}
	}

	if last < 0 {
		return strings.Join(lines, "")
	}
	return strings.Join(lines[:last+1], "") + "\n"
}
