// Package sheet turns uploaded spreadsheet files into extract.Table values.
package sheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/shrimpsizemoose/dragning/internal/extract"
)

var (
	ErrParse             = errors.New("unable to parse spreadsheet")
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Format returns the normalised extension used to pick a reader.
func Format(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// Read parses the first (active) sheet of an xlsx workbook or a csv file.
// Any failure to make sense of the content is reported as ErrParse.
func Read(r io.Reader, filename string) (*extract.Table, error) {
	switch Format(filename) {
	case ".xlsx", ".xlsm":
		return readWorkbook(r)
	case ".csv":
		return readCSV(r)
	case ".xls":
		return nil, fmt.Errorf("%w: legacy .xls workbooks, save the file as .xlsx", ErrUnsupportedFormat)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

func readWorkbook(r io.Reader) (*extract.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	defer f.Close()

	name := f.GetSheetName(f.GetActiveSheetIndex())
	if name == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%w: workbook has no sheets", ErrParse)
		}
		name = sheets[0]
	}

	rows, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("%w: sheet %s: %v", ErrParse, name, err)
	}

	return toTable(rows), nil
}

func readCSV(r io.Reader) (*extract.Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	return toTable(rows), nil
}

func toTable(rows [][]string) *extract.Table {
	table := &extract.Table{}
	if len(rows) == 0 {
		return table
	}

	table.Header = rows[0]
	table.Rows = make([]extract.Row, 0, len(rows)-1)
	for _, raw := range rows[1:] {
		row := make(extract.Row, len(raw))
		for i, v := range raw {
			row[i] = extract.ParseCell(v)
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}
