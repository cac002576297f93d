package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/dragning/internal/metrics"
	"github.com/shrimpsizemoose/dragning/internal/models"
	"github.com/shrimpsizemoose/dragning/internal/store"
)

const ResetAllConfirmation = "RESET_ALL_DATA"

// ListEmployees returns the active roster, each with its newest activities.
func (s *Service) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	employees, err := s.Store.ListActiveEmployees(ctx)
	if err != nil {
		return nil, err
	}

	activities, err := s.Store.ListRecentActivities(ctx, recentActivitiesPerEmployee)
	if err != nil {
		return nil, err
	}

	for i := range employees {
		employees[i].Activities = activities[employees[i].ID]
		if employees[i].Activities == nil {
			employees[i].Activities = []models.Activity{}
		}
	}
	return employees, nil
}

func (s *Service) AddEmployee(ctx context.Context, actor Actor, req *models.NewEmployee) (*models.Employee, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}

	employee := &models.Employee{
		Name:       req.Name,
		Email:      optional(req.Email),
		Phone:      optional(req.Phone),
		Department: optional(req.Department),
		Position:   optional(req.Position),
		IsActive:   true,
	}
	if _, err := s.Store.InsertEmployee(ctx, employee); err != nil {
		return nil, err
	}

	s.audit(ctx, actor, "ADD_EMPLOYEE", "employees", &employee.ID, nil, req)
	return employee, nil
}

func (s *Service) DeleteEmployee(ctx context.Context, actor Actor, id int64) (*models.Employee, error) {
	before, err := s.Store.DeactivateEmployee(ctx, id)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, actor, "DELETE_EMPLOYEE", "employees", &id,
		map[string]interface{}{"name": before.Name, "total_entries": before.TotalEntries, "is_active": true},
		map[string]interface{}{"is_active": false},
	)
	return before, nil
}

// AwardEntries records an activity and returns the employee's new total.
func (s *Service) AwardEntries(ctx context.Context, actor Actor, employeeID int64, req *models.AwardRequest) (int, error) {
	req.ActivityName = strings.TrimSpace(req.ActivityName)
	if err := req.Validate(); err != nil {
		return 0, validationError(err)
	}

	activity := &models.Activity{
		EmployeeID:       employeeID,
		ActivityName:     req.ActivityName,
		ActivityCategory: req.ActivityCategory,
		EntriesAwarded:   req.EntriesAwarded,
		AwardedBy:        actor.UserID,
		Notes:            req.Notes,
	}

	newTotal, err := s.Store.RecordActivity(ctx, activity)
	if err != nil {
		return 0, err
	}

	metrics.EntriesAwardedTotal.WithLabelValues(categoryLabel(req.ActivityCategory)).Add(float64(req.EntriesAwarded))
	s.audit(ctx, actor, "ADD_ENTRY", "employees", &employeeID,
		map[string]interface{}{"total_entries": newTotal - req.EntriesAwarded},
		map[string]interface{}{"total_entries": newTotal, "activity": req.ActivityName, "entries_awarded": req.EntriesAwarded},
	)
	return newTotal, nil
}

// ResetEntries zeroes an employee's entries and returns the old total.
func (s *Service) ResetEntries(ctx context.Context, actor Actor, employeeID int64) (int, error) {
	oldTotal, err := s.Store.ResetEntries(ctx, employeeID, actor.UserID)
	if err != nil {
		return 0, err
	}

	if oldTotal > 0 {
		s.audit(ctx, actor, "RESET_POINTS", "employees", &employeeID,
			map[string]interface{}{"total_entries": oldTotal},
			map[string]interface{}{"total_entries": 0},
		)
	}
	return oldTotal, nil
}

type ResetAllReport struct {
	Deactivated int    `json:"employees_reset"`
	BackupPath  string `json:"backup_path,omitempty"`
}

// ResetAll takes a backup when the database supports it, then deactivates
// the whole roster with compensating activities.
func (s *Service) ResetAll(ctx context.Context, actor Actor, confirmation string) (*ResetAllReport, error) {
	if confirmation != ResetAllConfirmation {
		return nil, fmt.Errorf("%w: confirmation must be %s", ErrValidation, ResetAllConfirmation)
	}

	report := &ResetAllReport{}
	path, err := s.Store.Backup(ctx, s.Config.Database.BackupDir)
	switch {
	case errors.Is(err, store.ErrBackupUnsupported):
		logger.Info.Println("Skipping backup before reset, database does not support it")
	case err != nil:
		return nil, fmt.Errorf("backup before reset failed: %w", err)
	default:
		report.BackupPath = path
	}

	report.Deactivated, err = s.Store.ResetAll(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, actor, "RESET_ALL", "employees", nil, nil,
		map[string]interface{}{"employees_reset": report.Deactivated, "backup": report.BackupPath},
	)
	return report, nil
}

func (s *Service) Backup(ctx context.Context, actor Actor) (string, error) {
	path, err := s.Store.Backup(ctx, s.Config.Database.BackupDir)
	if err != nil {
		return "", err
	}
	s.audit(ctx, actor, "BACKUP", "", nil, nil, map[string]interface{}{"path": path})
	return path, nil
}

func (s *Service) Dashboard(ctx context.Context) (*models.Dashboard, error) {
	return s.Store.Dashboard(ctx, 10)
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func categoryLabel(category string) string {
	if category == "" {
		return "uncategorized"
	}
	return strings.ToLower(category)
}
