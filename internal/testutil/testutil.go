// Package testutil builds services backed by an in-memory sqlite database.
package testutil

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/dragning/internal/app"
	"github.com/shrimpsizemoose/dragning/internal/models"
	"github.com/shrimpsizemoose/dragning/internal/raffle"
)

const testConfig = `
[server]
port = ":8080"

[auth]
jwt_secret = "test-secret"

[database]
dsn = ":memory:"

[telegram]
admin_ids = [1001]
`

// MigrationsDir points at the repository migrations regardless of which
// package the test runs from.
func MigrationsDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "migrations")
}

// NewService returns a Service on a fresh in-memory database, closed when
// the test ends.
func NewService(t *testing.T) *app.Service {
	t.Helper()

	cfg, err := app.ParseConfig([]byte(testConfig))
	require.NoError(t, err)
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Database.DSN = ":memory:"
	cfg.Database.MigrationsDir = MigrationsDir()
	cfg.Database.BackupDir = t.TempDir()

	st, err := app.NewStore(cfg.Database.DSN, cfg.Database.MigrationsDir)
	require.NoError(t, err)

	svc := &app.Service{
		Config:   cfg,
		Store:    st,
		Auth:     app.NewAuthWithRevoker(cfg.Auth.JWTSecret, time.Hour, nil),
		Selector: raffle.NewSelector(),
	}
	t.Cleanup(func() { svc.Close() })
	return svc
}

// SeedRoster adds employees by name and awards each the given entries.
// It returns the ids keyed by name.
func SeedRoster(t *testing.T, svc *app.Service, entries map[string]int) map[string]int64 {
	t.Helper()
	ctx := context.Background()

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	_, err := svc.Store.ImportEmployees(ctx, names)
	require.NoError(t, err)

	employees, err := svc.Store.ListActiveEmployees(ctx)
	require.NoError(t, err)

	ids := make(map[string]int64, len(employees))
	for _, e := range employees {
		ids[e.Name] = e.ID
		if n := entries[e.Name]; n > 0 {
			_, err := svc.Store.RecordActivity(ctx, &models.Activity{
				EmployeeID:     e.ID,
				ActivityName:   "Seed",
				EntriesAwarded: n,
			})
			require.NoError(t, err)
		}
	}
	return ids
}
