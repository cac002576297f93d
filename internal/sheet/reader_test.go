package sheet

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/shrimpsizemoose/dragning/internal/extract"
)

func buildWorkbook(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestRead_Workbook(t *testing.T) {
	buf := buildWorkbook(t, [][]interface{}{
		{"First Name", "Last Name", "Badge"},
		{"Jane", "Doe", 101},
		{"", "Smith", 102},
		{"John", "Smith", 103},
	})

	table, err := Read(buf, "roster.xlsx")
	require.NoError(t, err)

	assert.Equal(t, []string{"First Name", "Last Name", "Badge"}, table.Header)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, extract.Number, table.Rows[0].At(2).Kind)
	assert.Equal(t, "101", table.Rows[0].At(2).String())

	res := extract.Extract(*table)
	assert.Equal(t, []string{"Jane Doe", "John Smith"}, res.Candidates)
}

func TestRead_CSV(t *testing.T) {
	content := "\xEF\xBB\xBFEmployee Name,Department\n" +
		"\"Doe, Jane\",Ops\n" +
		"Maria Lopez,Care\n" +
		"short\n"

	table, err := Read(strings.NewReader(content), "ROSTER.CSV")
	require.NoError(t, err)

	assert.Equal(t, []string{"Employee Name", "Department"}, table.Header)
	require.Len(t, table.Rows, 3)
	assert.Len(t, table.Rows[2], 1)

	res := extract.Extract(*table)
	assert.Equal(t, []string{"Doe, Jane", "Maria Lopez", "short"}, res.Candidates)
	assert.Equal(t, []string{"Full Name (Column 1)"}, res.DetectedColumns)
}

func TestRead_Errors(t *testing.T) {
	t.Run("garbage workbook", func(t *testing.T) {
		_, err := Read(strings.NewReader("definitely not a zip"), "roster.xlsx")
		assert.ErrorIs(t, err, ErrParse)
	})

	t.Run("legacy xls", func(t *testing.T) {
		_, err := Read(strings.NewReader(""), "roster.xls")
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("unknown extension", func(t *testing.T) {
		_, err := Read(strings.NewReader(""), "roster.pdf")
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})
}

func TestRead_EmptyCSV(t *testing.T) {
	table, err := Read(strings.NewReader(""), "empty.csv")
	require.NoError(t, err)
	assert.Empty(t, table.Header)
	assert.Empty(t, table.Rows)
}
