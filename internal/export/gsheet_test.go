package export

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/dragning/internal/models"
	"github.com/shrimpsizemoose/dragning/internal/testutil"
)

type mockWriter struct {
	mock.Mock
}

func (m *mockWriter) Replace(ctx context.Context, sheetID, writeRange string, rows [][]interface{}) error {
	args := m.Called(sheetID, writeRange, rows)
	return args.Error(0)
}

func TestLeaderboardRows(t *testing.T) {
	sales := "Sales"
	now := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

	rows := leaderboardRows([]models.Employee{
		{Name: "John Smith", TotalEntries: 3, Department: &sales},
		{Name: "Jane Doe", TotalEntries: 1},
		{Name: "Idle Person"},
	}, now)

	require.Len(t, rows, 5)
	assert.Equal(t, []interface{}{"UPD: 1 May 09:30 UTC"}, rows[0])
	assert.Equal(t, []interface{}{"Rank", "Name", "Department", "Entries", "Chance %"}, rows[1])
	assert.Equal(t, []interface{}{1, "John Smith", "Sales", 3, 75.0}, rows[2])
	assert.Equal(t, []interface{}{2, "Jane Doe", "", 1, 25.0}, rows[3])
	assert.Equal(t, []interface{}{3, "Idle Person", "", 0, 0.0}, rows[4])
}

func TestExportLeaderboard(t *testing.T) {
	svc := testutil.NewService(t)
	svc.Config.Export.SheetID = "sheet-123"
	svc.Config.Export.SheetName = "Leaderboard"
	testutil.SeedRoster(t, svc, map[string]int{"Jane Doe": 1, "John Smith": 3})

	writer := &mockWriter{}
	writer.On("Replace", "sheet-123", "Leaderboard!A1:F", mock.MatchedBy(func(rows [][]interface{}) bool {
		return len(rows) == 4 && rows[2][1] == "John Smith" && rows[3][1] == "Jane Doe"
	})).Return(nil).Once()

	e, err := NewExporterWithWriter(svc, writer)
	require.NoError(t, err)

	require.NoError(t, e.ExportLeaderboard(context.Background()))
	writer.AssertExpectations(t)

	t.Run("writer failure", func(t *testing.T) {
		failing := &mockWriter{}
		failing.On("Replace", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("quota exceeded"))
		e, err := NewExporterWithWriter(svc, failing)
		require.NoError(t, err)
		assert.ErrorContains(t, e.ExportLeaderboard(context.Background()), "quota exceeded")
	})

	t.Run("no writer", func(t *testing.T) {
		e, err := NewExporterWithWriter(svc, nil)
		require.NoError(t, err)
		assert.Error(t, e.ExportLeaderboard(context.Background()))
	})
}

func TestScheduling(t *testing.T) {
	svc := testutil.NewService(t)
	svc.Config.Export.Schedule = "*/30 * * * *"
	svc.Config.Export.BackupSchedule = "0 3 * * *"

	e, err := NewExporterWithWriter(svc, &mockWriter{})
	require.NoError(t, err)
	assert.Equal(t, 2, e.Jobs())

	e, err = NewExporterWithWriter(svc, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, e.Jobs(), "no sheet means backups only")

	svc.Config.Export.BackupSchedule = "every full moon"
	_, err = NewExporterWithWriter(svc, nil)
	assert.Error(t, err)
}

func TestRunBackup(t *testing.T) {
	svc := testutil.NewService(t)
	e, err := NewExporterWithWriter(svc, nil)
	require.NoError(t, err)

	path, err := e.RunBackup(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, path)

	_, err = os.Stat(path)
	assert.NoError(t, err)
}
