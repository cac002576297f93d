package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textRow(values ...string) Row {
	row := make(Row, len(values))
	for i, v := range values {
		row[i] = ParseCell(v)
	}
	return row
}

func TestExtract_SplitColumns(t *testing.T) {
	table := Table{
		Header: []string{"ID", "First Name", "Last Name", "Dept"},
		Rows: []Row{
			textRow("1", "Jane", "Doe", "Ops"),
			textRow("2", "", "Smith", "Ops"),
			textRow("3", "John", "Smith", "HR"),
		},
	}

	res := Extract(table)

	assert.Equal(t, []string{"Jane Doe", "John Smith"}, res.Candidates)
	assert.Equal(t, []string{"First Name (Column 2)", "Last Name (Column 3)"}, res.DetectedColumns)
	assert.Equal(t, 3, res.TotalRows)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, 3, res.Skipped[0].Row)
	assert.Equal(t, "missing first name", res.Skipped[0].Reason)
}

func TestExtract_SplitColumnsTrimAndSentinels(t *testing.T) {
	table := Table{
		Header: []string{" first name ", "LAST NAME"},
		Rows: []Row{
			textRow("  Ada ", " Lovelace  "),
			textRow("None", "Hopper"),
			textRow("Grace", "null"),
			textRow("NaN", "NAN"),
			{EmptyCell(), EmptyCell()},
		},
	}

	res := Extract(table)

	assert.Equal(t, []string{"Ada Lovelace"}, res.Candidates)
	assert.Len(t, res.Skipped, 3, "all-empty row is not reported")
	assert.Equal(t, 5, res.TotalRows)
}

func TestExtract_SplitColumnsRequiresBoth(t *testing.T) {
	table := Table{
		Header: []string{"First Name", "Department"},
		Rows:   []Row{textRow("Jane", "Ops")},
	}

	res := Extract(table)

	// a lone first-name column falls through to the generic strategy
	assert.Equal(t, []string{"Name (Column 1: first name)"}, res.DetectedColumns)
	assert.Equal(t, []string{"Jane"}, res.Candidates)
}

func TestExtract_CombinedColumn(t *testing.T) {
	testCases := []struct {
		header string
	}{
		{"Full Name"},
		{"Employee Name"},
		{"Caregiver Name"},
		{"Staff Name"},
	}

	for _, tc := range testCases {
		t.Run(tc.header, func(t *testing.T) {
			table := Table{
				Header: []string{"Badge", tc.header},
				Rows: []Row{
					textRow("11", "Jane Doe"),
					textRow("12", "Jane Doe"),
					textRow("13", "Al"),
					textRow("14", "12345"),
				},
			}

			res := Extract(table)

			assert.Equal(t, []string{"Full Name (Column 2)"}, res.DetectedColumns)
			assert.Equal(t, []string{"Jane Doe"}, res.Candidates)
			assert.Len(t, res.Skipped, 2)
		})
	}
}

func TestExtract_CombinedPreferredOverGeneric(t *testing.T) {
	table := Table{
		Header: []string{"Nickname", "Employee Name"},
		Rows:   []Row{textRow("JD", "Jane Doe")},
	}

	res := Extract(table)

	assert.Equal(t, []string{"Full Name (Column 2)"}, res.DetectedColumns)
	assert.Equal(t, []string{"Jane Doe"}, res.Candidates)
}

func TestExtract_LastQualifyingHeaderWins(t *testing.T) {
	table := Table{
		Header: []string{"Full Name", "Preferred Full Name"},
		Rows:   []Row{textRow("Jonathan Smith", "John Smith")},
	}

	res := Extract(table)

	assert.Equal(t, []string{"Full Name (Column 2)"}, res.DetectedColumns)
	assert.Equal(t, []string{"John Smith"}, res.Candidates)
}

func TestExtract_GenericColumn(t *testing.T) {
	table := Table{
		Header: []string{"Shift", "Caregiver", "Hours"},
		Rows: []Row{
			textRow("AM", "Maria Lopez", "8"),
			textRow("PM", "", "8"),
		},
	}

	res := Extract(table)

	assert.Equal(t, []string{"Name (Column 2: caregiver)"}, res.DetectedColumns)
	assert.Equal(t, []string{"Maria Lopez"}, res.Candidates)
}

func TestExtract_FirstColumnFallback(t *testing.T) {
	table := Table{
		Header: []string{"Who", "Hours"},
		Rows: []Row{
			textRow("Sam Jones", "4"),
			textRow("Pat Kim", "6"),
			{NumberCell(42), NumberCell(1)},
		},
	}

	res := Extract(table)

	assert.Equal(t, []string{"First Column (assumed names)"}, res.DetectedColumns)
	assert.Equal(t, []string{"Pat Kim", "Sam Jones"}, res.Candidates)
}

func TestExtract_ShortRowsAndEmptyTable(t *testing.T) {
	t.Run("short rows", func(t *testing.T) {
		table := Table{
			Header: []string{"ID", "Full Name"},
			Rows:   []Row{textRow("1")},
		}
		res := Extract(table)
		assert.Empty(t, res.Candidates)
		assert.Equal(t, 1, res.TotalRows)
	})

	t.Run("empty table", func(t *testing.T) {
		res := Extract(Table{})
		assert.Empty(t, res.Candidates)
		assert.Equal(t, 0, res.TotalRows)
		assert.Equal(t, []string{"First Column (assumed names)"}, res.DetectedColumns)
	})
}

func TestExtract_CandidateInvariant(t *testing.T) {
	values := []string{
		"Jo", "Joe", "   ", "null", "NULL", "None", "123", "4 5 6", "Émile Zola",
		strings.Repeat("a", 99), strings.Repeat("a", 100), "O'Brien", "x1",
	}
	rows := make([]Row, 0, len(values))
	for _, v := range values {
		rows = append(rows, textRow(v))
	}

	res := Extract(Table{Header: []string{"Name"}, Rows: rows})

	for _, c := range res.Candidates {
		assert.Equal(t, strings.TrimSpace(c), c)
		assert.True(t, IsCandidateName(c), "candidate %q violates the name filter", c)
	}
	assert.Contains(t, res.Candidates, "Joe")
	assert.Contains(t, res.Candidates, "Émile Zola")
	assert.Contains(t, res.Candidates, strings.Repeat("a", 99))
	assert.NotContains(t, res.Candidates, strings.Repeat("a", 100))
	assert.NotContains(t, res.Candidates, "Jo")
	assert.NotContains(t, res.Candidates, "4 5 6")
}

func TestExtract_Deterministic(t *testing.T) {
	table := Table{
		Header: []string{"First Name", "Last Name"},
		Rows: []Row{
			textRow("Zed", "Alpha"),
			textRow("Amy", "Beta"),
			textRow("Zed", "Alpha"),
		},
	}

	first := Extract(table)
	second := Extract(table)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"Amy Beta", "Zed Alpha"}, first.Candidates)
}

func TestCellString(t *testing.T) {
	assert.Equal(t, "", EmptyCell().String())
	assert.Equal(t, "Jane", TextCell("  Jane ").String())
	assert.Equal(t, "42", NumberCell(42).String())
	assert.Equal(t, "1.5", NumberCell(1.5).String())
	assert.Equal(t, Number, ParseCell(" 17 ").Kind)
	assert.Equal(t, Text, ParseCell("Nan").Kind)
	assert.Equal(t, Empty, ParseCell("   ").Kind)
	assert.Equal(t, "", Row{}.At(3).String())
}
