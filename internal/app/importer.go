package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/dragning/internal/extract"
	"github.com/shrimpsizemoose/dragning/internal/metrics"
	"github.com/shrimpsizemoose/dragning/internal/sheet"
)

type FileInfo struct {
	Filename        string               `json:"filename"`
	TotalRows       int                  `json:"total_rows"`
	Columns         []string             `json:"columns"`
	DetectedColumns []string             `json:"detected_columns"`
	SkippedRows     []extract.SkippedRow `json:"skipped_rows"`
}

// ImportReport is the outcome of one upload. A file that cannot be read,
// or holds no names, is a report with Success false rather than an error.
type ImportReport struct {
	Success          bool     `json:"success"`
	Message          string   `json:"message,omitempty"`
	Error            string   `json:"error,omitempty"`
	BatchID          string   `json:"batch_id,omitempty"`
	EmployeesAdded   int      `json:"employees_added"`
	EmployeesSkipped int      `json:"employees_skipped"`
	NamesFound       int      `json:"names_found"`
	Errors           []string `json:"errors"`
	FileInfo         FileInfo `json:"file_info"`
}

func failedImport(info FileInfo, msg string) *ImportReport {
	metrics.ImportsTotal.WithLabelValues("rejected").Inc()
	return &ImportReport{
		Success:  false,
		Error:    msg,
		Errors:   []string{msg},
		FileInfo: info,
	}
}

// ImportSpreadsheet reads names from an uploaded file and merges them into
// the roster. The merge is all or nothing.
func (s *Service) ImportSpreadsheet(ctx context.Context, actor Actor, filename string, r io.Reader) (*ImportReport, error) {
	info := FileInfo{Filename: filepath.Base(filename), Columns: []string{}, DetectedColumns: []string{}}

	if !s.Config.ExtensionAllowed(sheet.Format(filename)) {
		return nil, fmt.Errorf("%w: file type %q is not allowed", ErrValidation, filepath.Ext(filename))
	}

	table, err := sheet.Read(r, filename)
	if errors.Is(err, sheet.ErrParse) || errors.Is(err, sheet.ErrUnsupportedFormat) {
		logger.Info.Printf("Rejected upload %s: %v", info.Filename, err)
		return failedImport(info, fmt.Sprintf("Could not read spreadsheet: %v", err)), nil
	}
	if err != nil {
		return nil, err
	}

	res := extract.Extract(*table)
	info.TotalRows = res.TotalRows
	info.Columns = table.Header
	if info.Columns == nil {
		info.Columns = []string{}
	}
	info.DetectedColumns = res.DetectedColumns
	info.SkippedRows = res.Skipped

	if len(res.Candidates) == 0 {
		return failedImport(info, "No employee names found in the file"), nil
	}

	outcome, err := s.Store.ImportEmployees(ctx, res.Candidates)
	if err != nil {
		metrics.ImportsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	batchID := uuid.NewString()
	metrics.ImportsTotal.WithLabelValues("succeeded").Inc()
	metrics.EmployeesImportedTotal.Add(float64(len(outcome.Added)))
	logger.Info.Printf("Import %s from %s: %d names, %d added, %d already present",
		batchID, info.Filename, len(res.Candidates), len(outcome.Added), len(outcome.Skipped))

	s.audit(ctx, actor, "IMPORT_EXCEL", "employees", nil, nil, map[string]interface{}{
		"batch_id":         batchID,
		"filename":         info.Filename,
		"employees_added":  outcome.Added,
		"detected_columns": res.DetectedColumns,
	})

	return &ImportReport{
		Success:          true,
		Message:          fmt.Sprintf("Imported %d new employees from %s", len(outcome.Added), info.Filename),
		BatchID:          batchID,
		EmployeesAdded:   len(outcome.Added),
		EmployeesSkipped: len(outcome.Skipped),
		NamesFound:       len(res.Candidates),
		Errors:           []string{},
		FileInfo:         info,
	}, nil
}
