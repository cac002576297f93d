package extract

import (
	"strconv"
	"strings"
	"unicode"
)

type CellKind int

const (
	Empty CellKind = iota
	Text
	Number
)

// Cell is a single spreadsheet value. Readers build cells, strategies only
// ever look at them through String.
type Cell struct {
	Kind CellKind
	text string
	num  float64
}

func EmptyCell() Cell {
	return Cell{Kind: Empty}
}

func TextCell(s string) Cell {
	return Cell{Kind: Text, text: s}
}

func NumberCell(f float64) Cell {
	return Cell{Kind: Number, num: f}
}

// ParseCell classifies a raw textual value as read from a csv file or a
// formatted xlsx cell.
func ParseCell(raw string) Cell {
	s := strings.TrimSpace(raw)
	if s == "" {
		return EmptyCell()
	}
	if strings.IndexFunc(s, unicode.IsDigit) >= 0 {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return NumberCell(f)
		}
	}
	return TextCell(raw)
}

// String is the one coercion used by every extraction strategy.
func (c Cell) String() string {
	switch c.Kind {
	case Text:
		return strings.TrimSpace(c.text)
	case Number:
		return strconv.FormatFloat(c.num, 'f', -1, 64)
	default:
		return ""
	}
}

type Row []Cell

// At returns the cell in column i, or an empty cell when the row is short.
func (r Row) At(i int) Cell {
	if i < 0 || i >= len(r) {
		return EmptyCell()
	}
	return r[i]
}

func (r Row) blank() bool {
	for _, c := range r {
		if c.String() != "" {
			return false
		}
	}
	return true
}

// Table is the first sheet of an uploaded file: one header row plus data rows.
type Table struct {
	Header []string
	Rows   []Row
}
