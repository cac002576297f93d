package store

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/shrimpsizemoose/dragning/internal/models"
)

type DatabaseType string

const (
	DBTypePostgres DatabaseType = "postgres"
	DBTypeSQLite   DatabaseType = "sqlite"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrConflict          = errors.New("record already exists")
	ErrBackupUnsupported = errors.New("backups are not supported for this database")
)

// InsertFunc runs an INSERT and returns the new row id. It returns
// sql.ErrNoRows when an ON CONFLICT DO NOTHING clause swallowed the row.
type InsertFunc func(ctx context.Context, q sqlx.ExtContext, query string, args ...interface{}) (int64, error)

// DrawFunc decides the outcome of a raffle round from the eligible pool as
// seen inside the recording transaction.
type DrawFunc func(pool []models.Employee) (*models.RaffleResult, error)

type ImportOutcome struct {
	Added   []string
	Skipped []string
}
