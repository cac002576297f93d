package postgres

import (
	"context"
	"flag"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/shrimpsizemoose/dragning/internal/models"
	"github.com/shrimpsizemoose/dragning/internal/store"
)

// setupTestDB starts a throwaway Postgres container and applies migrations
func setupTestDB(t *testing.T) (*PostgresStore, func()) {
	ctx := context.Background()

	postgres, err := postgres.Run(
		ctx,
		"postgres:16-alpine",
		testcontainers.WithEnv(map[string]string{
			"POSTGRES_DB":       "testdb",
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
		}),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)

	dsn, err := postgres.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := NewPostgresStore(dsn, "../../../migrations")
	require.NoError(t, err, "Failed to create store")

	cleanup := func() {
		s.Close()
		postgres.Terminate(ctx)
	}

	return s, cleanup
}

type testData struct {
	store   *PostgresStore
	ctx     context.Context
	adminID int64
	jane    int64
	john    int64
}

func setupTestData(t *testing.T) (*testData, func()) {
	s, cleanup := setupTestDB(t)
	ctx := context.Background()

	adminID, err := s.CreateUser(ctx, &models.User{
		Email:        "admin@example.com",
		PasswordHash: "x",
		Role:         models.RoleAdmin,
		Name:         "Admin",
	})
	require.NoError(t, err, "Failed to create admin")

	_, err = s.ImportEmployees(ctx, []string{"Jane Doe", "John Smith"})
	require.NoError(t, err, "Failed to import employees")

	jane, err := s.FindActiveEmployeeByName(ctx, "Jane Doe")
	require.NoError(t, err)
	john, err := s.FindActiveEmployeeByName(ctx, "John Smith")
	require.NoError(t, err)

	return &testData{
		store:   s,
		ctx:     ctx,
		adminID: adminID,
		jane:    jane.ID,
		john:    john.ID,
	}, cleanup
}

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		log.Println("Skipping Postgres integration tests. Use -short=false to run them.")
		os.Exit(0)
	}
	log.Println("Starting Postgres store tests...")
	code := m.Run()
	log.Println("Finished Postgres store tests")
	os.Exit(code)
}

func TestPostgresStore(t *testing.T) {
	td, cleanup := setupTestData(t)
	defer cleanup()

	t.Run("migrations are idempotent", func(t *testing.T) {
		require.NoError(t, td.store.ApplyMigrations("../../../migrations"))
	})

	t.Run("reimport adds nothing", func(t *testing.T) {
		outcome, err := td.store.ImportEmployees(td.ctx, []string{"Jane Doe", "John Smith"})
		require.NoError(t, err)
		assert.Empty(t, outcome.Added)
		assert.Len(t, outcome.Skipped, 2)
	})

	t.Run("duplicate insert conflicts", func(t *testing.T) {
		_, err := td.store.InsertEmployee(td.ctx, &models.Employee{Name: "Jane Doe"})
		assert.ErrorIs(t, err, store.ErrConflict)
	})

	t.Run("award then reset", func(t *testing.T) {
		for _, want := range []int{5, 10} {
			total, err := td.store.RecordActivity(td.ctx, &models.Activity{
				EmployeeID:     td.jane,
				ActivityName:   "Extra shift",
				EntriesAwarded: 5,
				AwardedBy:      &td.adminID,
			})
			require.NoError(t, err)
			assert.Equal(t, want, total)
		}

		oldTotal, err := td.store.ResetEntries(td.ctx, td.jane, &td.adminID)
		require.NoError(t, err)
		assert.Equal(t, 10, oldTotal)

		activities, err := td.store.ListRecentActivities(td.ctx, 10)
		require.NoError(t, err)
		require.Len(t, activities[td.jane], 3)
		assert.Equal(t, -10, activities[td.jane][0].EntriesAwarded)
	})

	t.Run("raffle with invalid winner writes nothing", func(t *testing.T) {
		_, err := td.store.RecordActivity(td.ctx, &models.Activity{EmployeeID: td.john, ActivityName: "Help desk", EntriesAwarded: 2})
		require.NoError(t, err)

		_, err = td.store.RecordRaffle(td.ctx, func(pool []models.Employee) (*models.RaffleResult, error) {
			return &models.RaffleResult{WinnerID: 999999, Prize: "Gift card"}, nil
		})
		assert.ErrorIs(t, err, store.ErrNotFound)

		result, err := td.store.RecordRaffle(td.ctx, func(pool []models.Employee) (*models.RaffleResult, error) {
			require.Len(t, pool, 1)
			return &models.RaffleResult{
				WinnerID: td.john, Prize: "Gift card", TotalParticipants: 1, TotalEntries: 2, WinningChance: 100,
			}, nil
		})
		require.NoError(t, err)
		assert.Equal(t, "John Smith", result.WinnerName)

		history, err := td.store.ListRaffleHistory(td.ctx, 10)
		require.NoError(t, err)
		assert.Len(t, history, 1)
	})

	t.Run("dashboard", func(t *testing.T) {
		d, err := td.store.Dashboard(td.ctx, 5)
		require.NoError(t, err)
		assert.Equal(t, 2, d.TotalEmployees)
		assert.Equal(t, 2, d.TotalEntries)
		assert.Equal(t, 1, d.TotalRaffles)
		require.NotEmpty(t, d.DepartmentStats)
		assert.Equal(t, 1.0, d.DepartmentStats[0].AvgEntries)
	})

	t.Run("reset all", func(t *testing.T) {
		affected, err := td.store.ResetAll(td.ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, 2, affected)
	})

	t.Run("backup unsupported", func(t *testing.T) {
		_, err := td.store.Backup(td.ctx, t.TempDir())
		assert.ErrorIs(t, err, store.ErrBackupUnsupported)
	})
}
