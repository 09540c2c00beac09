// Package sheet fetches the translation table: a 2D array of string cells
// whose first two rows are headers.
package sheet

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// HeaderRows is the number of leading rows that never reach the output.
const HeaderRows = 2

// Table is the fetched sheet: rows of cells, trailing empty cells trimmed.
type Table [][]string

// Empty reports whether the fetch returned no rows at all.
func (t Table) Empty() bool { return len(t) == 0 }

// Rows returns the data rows following the header rows.
func (t Table) Rows() [][]string {
	if len(t) <= HeaderRows {
		return nil
	}
	return t[HeaderRows:]
}

// Source produces the table for one run.
type Source interface {
	Fetch(ctx context.Context) (Table, error)
}

// ---------------------------------------------------------------------------
// Google Sheets
// ---------------------------------------------------------------------------

// GoogleSource reads one range of one spreadsheet through the Sheets API.
type GoogleSource struct {
	SpreadsheetID string
	Range         string
	// Options configure the API client, e.g. option.WithTokenSource.
	Options []option.ClientOption
}

// Fetch issues a single values.get call. An empty range yields an empty
// Table and no error.
func (s *GoogleSource) Fetch(ctx context.Context) (Table, error) {
	srv, err := sheets.NewService(ctx, s.Options...)
	if err != nil {
		return nil, fmt.Errorf("creating sheets client: %w", err)
	}

	resp, err := srv.Spreadsheets.Values.Get(s.SpreadsheetID, s.Range).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("fetching %s from spreadsheet %s: %w", s.Range, s.SpreadsheetID, err)
	}
	return fromValues(resp.Values), nil
}

func fromValues(values [][]interface{}) Table {
	if len(values) == 0 {
		return nil
	}
	t := make(Table, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, v := range row {
			if s, ok := v.(string); ok {
				cells[j] = s
			} else if v != nil {
				cells[j] = fmt.Sprint(v)
			}
		}
		t[i] = cells
	}
	return t
}

// ---------------------------------------------------------------------------
// Local workbook
// ---------------------------------------------------------------------------

// XLSXSource reads the table from a local .xlsx workbook, for offline runs.
type XLSXSource struct {
	Path string
	// Range selects the worksheet; an A1 suffix ("Android!A1:H") is ignored
	// and the whole sheet is read.
	Range string
}

// Fetch reads every row of the selected worksheet.
func (s *XLSXSource) Fetch(ctx context.Context) (Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", s.Path, err)
	}
	defer f.Close()

	name := SheetName(s.Range)
	rows, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q of %s: %w", name, s.Path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return Table(rows), nil
}

// SheetName extracts the worksheet name from an A1 range
// ("'My Sheet'!A1:C" -> "My Sheet", "Android" -> "Android").
func SheetName(a1 string) string {
	name, _, _ := strings.Cut(a1, "!")
	if len(name) >= 2 && strings.HasPrefix(name, "'") && strings.HasSuffix(name, "'") {
		name = strings.ReplaceAll(name[1:len(name)-1], "''", "'")
	}
	return name
}
