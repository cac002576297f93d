package export

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/shrimpsizemoose/trekker/logger"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/shrimpsizemoose/dragning/internal/app"
	"github.com/shrimpsizemoose/dragning/internal/models"
	"github.com/shrimpsizemoose/dragning/internal/raffle"
	"github.com/shrimpsizemoose/dragning/internal/store"
)

const jobTimeout = 2 * time.Minute

// SheetWriter replaces the contents of a range in a spreadsheet.
type SheetWriter interface {
	Replace(ctx context.Context, sheetID, writeRange string, rows [][]interface{}) error
}

type sheetsWriter struct {
	svc *sheets.Service
}

func NewSheetsWriter(ctx context.Context, credentialsPath string) (SheetWriter, error) {
	svc, err := sheets.NewService(ctx, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &sheetsWriter{svc: svc}, nil
}

func (w *sheetsWriter) Replace(ctx context.Context, sheetID, writeRange string, rows [][]interface{}) error {
	_, err := w.svc.Spreadsheets.Values.Clear(sheetID, writeRange, &sheets.ClearValuesRequest{}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to clear %s: %w", writeRange, err)
	}

	_, err = w.svc.Spreadsheets.Values.Update(sheetID, writeRange,
		&sheets.ValueRange{Values: rows}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", writeRange, err)
	}
	return nil
}

// Exporter runs the scheduled leaderboard export and database backups.
type Exporter struct {
	service   *app.Service
	writer    SheetWriter
	scheduler *gocron.Scheduler
	now       func() time.Time
}

func NewExporter(service *app.Service) (*Exporter, error) {
	var writer SheetWriter
	if service.Config.Export.SheetID != "" {
		var err error
		writer, err = NewSheetsWriter(context.Background(), service.Config.Export.CredentialsPath)
		if err != nil {
			return nil, err
		}
	}
	return NewExporterWithWriter(service, writer)
}

// NewExporterWithWriter schedules the leaderboard export when a writer is
// given and the backup job when a backup schedule is configured.
func NewExporterWithWriter(service *app.Service, writer SheetWriter) (*Exporter, error) {
	e := &Exporter{
		service:   service,
		writer:    writer,
		scheduler: gocron.NewScheduler(time.UTC),
		now:       time.Now,
	}
	cfg := service.Config.Export

	if writer != nil && cfg.Schedule != "" {
		_, err := e.scheduler.Cron(cfg.Schedule).Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
			defer cancel()
			if err := e.ExportLeaderboard(ctx); err != nil {
				logger.Error.Printf("Leaderboard export failed: %v", err)
			}
		})
		if err != nil {
			return nil, fmt.Errorf("failed to schedule leaderboard export: %w", err)
		}
	}

	if cfg.BackupSchedule != "" {
		_, err := e.scheduler.Cron(cfg.BackupSchedule).Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
			defer cancel()
			if _, err := e.RunBackup(ctx); err != nil {
				logger.Error.Printf("Scheduled backup failed: %v", err)
			}
		})
		if err != nil {
			return nil, fmt.Errorf("failed to schedule backup: %w", err)
		}
	}

	return e, nil
}

func (e *Exporter) Jobs() int {
	return e.scheduler.Len()
}

func (e *Exporter) Start() {
	e.scheduler.StartAsync()
}

func (e *Exporter) Stop() {
	e.scheduler.Stop()
}

// ExportLeaderboard overwrites the configured sheet with the active roster.
func (e *Exporter) ExportLeaderboard(ctx context.Context) error {
	if e.writer == nil {
		return fmt.Errorf("no spreadsheet configured")
	}

	employees, err := e.service.Store.ListActiveEmployees(ctx)
	if err != nil {
		return err
	}

	cfg := e.service.Config.Export
	rows := leaderboardRows(employees, e.now())
	if err := e.writer.Replace(ctx, cfg.SheetID, cfg.SheetName+"!A1:F", rows); err != nil {
		return err
	}

	logger.Info.Printf("Exported %d employees to sheet %s", len(employees), cfg.SheetName)
	return nil
}

// RunBackup snapshots the database. Databases without backup support are
// skipped quietly.
func (e *Exporter) RunBackup(ctx context.Context) (string, error) {
	path, err := e.service.Backup(ctx, app.Actor{UserAgent: "scheduler"})
	if errors.Is(err, store.ErrBackupUnsupported) {
		logger.Debug.Println("Skipping scheduled backup, database does not support it")
		return "", nil
	}
	if err != nil {
		return "", err
	}

	logger.Info.Printf("Backup written to %s", path)
	return path, nil
}

func leaderboardRows(employees []models.Employee, now time.Time) [][]interface{} {
	total := 0
	for _, e := range employees {
		total += e.TotalEntries
	}

	rows := make([][]interface{}, 0, len(employees)+3)
	rows = append(rows,
		[]interface{}{fmt.Sprintf("UPD: %s", now.UTC().Format("2 January 15:04 MST"))},
		[]interface{}{"Rank", "Name", "Department", "Entries", "Chance %"},
	)
	for i, e := range employees {
		department := ""
		if e.Department != nil {
			department = *e.Department
		}
		rows = append(rows, []interface{}{
			i + 1,
			e.Name,
			department,
			e.TotalEntries,
			raffle.Chance(e.TotalEntries, total),
		})
	}
	return rows
}
