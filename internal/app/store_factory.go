package app

import (
	"fmt"
	"strings"

	"github.com/shrimpsizemoose/dragning/internal/store"
	"github.com/shrimpsizemoose/dragning/internal/store/postgres"
	"github.com/shrimpsizemoose/dragning/internal/store/sqlite"
)

func DatabaseTypeFor(dsn string) store.DatabaseType {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return store.DBTypePostgres
	}
	return store.DBTypeSQLite
}

func NewStore(dsn, migrationsDir string) (store.RaffleStore, error) {
	switch DatabaseTypeFor(dsn) {
	case store.DBTypePostgres:
		return postgres.NewPostgresStore(dsn, migrationsDir)
	case store.DBTypeSQLite:
		return sqlite.NewSQLiteStore(dsn, migrationsDir)
	default:
		return nil, fmt.Errorf("unable to determine database type from DSN: %s", dsn)
	}
}
