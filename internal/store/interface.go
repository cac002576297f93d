package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/dragning/internal/models"
)

const (
	resetAttempts     = 3
	employeeColumns   = "id, name, email, phone, department, position, total_entries, is_active, created_at, updated_at"
	activityColumns   = "id, employee_id, activity_name, activity_category, entries_awarded, awarded_by, notes, created_at"
	userColumns       = "id, email, password_hash, role, name, is_active, last_login, created_at"
	raffleResultQuery = `
		SELECT r.id, r.winner_id, e.name AS winner_name, r.prize, r.total_participants,
			r.total_entries, r.winning_chance, r.conducted_by, r.created_at
		FROM raffle_history r
		JOIN employees e ON e.id = r.winner_id`
)

type RaffleStore interface {
	Close() error
	ApplyMigrations(dir string) error

	CountUsers(ctx context.Context) (int, error)
	CreateUser(ctx context.Context, user *models.User) (int64, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	TouchLastLogin(ctx context.Context, userID int64) error

	FindActiveEmployeeByName(ctx context.Context, name string) (*models.Employee, error)
	GetActiveEmployee(ctx context.Context, id int64) (*models.Employee, error)
	ListActiveEmployees(ctx context.Context) ([]models.Employee, error)
	ListActiveEmployeesWithEntries(ctx context.Context) ([]models.Employee, error)
	ListRecentActivities(ctx context.Context, perEmployee int) (map[int64][]models.Activity, error)
	InsertEmployee(ctx context.Context, employee *models.Employee) (int64, error)
	ImportEmployees(ctx context.Context, names []string) (*ImportOutcome, error)
	DeactivateEmployee(ctx context.Context, id int64) (*models.Employee, error)

	RecordActivity(ctx context.Context, activity *models.Activity) (int, error)
	ResetEntries(ctx context.Context, employeeID int64, resetBy *int64) (int, error)
	ResetAll(ctx context.Context, resetBy *int64) (int, error)

	RecordRaffle(ctx context.Context, decide DrawFunc) (*models.RaffleResult, error)
	ListRaffleHistory(ctx context.Context, limit int) ([]models.RaffleResult, error)

	LogAudit(ctx context.Context, entry *models.AuditEntry) error
	Dashboard(ctx context.Context, limit int) (*models.Dashboard, error)
	Backup(ctx context.Context, dir string) (string, error)
}

// BaseStore provides common functionality for different DB implementations.
// Queries are written with ? placeholders and passed through Converter.
type BaseStore struct {
	DB        *sqlx.DB
	Converter func(string) string
	InsertID  InsertFunc
}

func (s *BaseStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// ApplyMigrations applies SQL migrations from a directory in file name
// order, translating dialect if needed. Migrations must be idempotent.
func (s *BaseStore) ApplyMigrations(dir string, translateSQL func(string) string) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	names := make([]string, 0, len(files))
	for _, file := range files {
		if strings.HasSuffix(file.Name(), ".sql") {
			names = append(names, file.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}

		sql := string(content)
		if translateSQL != nil {
			sql = translateSQL(sql)
		}

		if _, err := s.DB.Exec(sql); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", name, err)
		}
		logger.Debug.Printf("Applied migration %s", name)
	}

	return nil
}

// WithTx runs fn in a transaction, committing only when fn succeeds.
func (s *BaseStore) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error.Printf("Rollback failed: %v", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *BaseStore) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := s.DB.GetContext(ctx, &count, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// CreateUser returns ErrConflict when the email is already registered.
func (s *BaseStore) CreateUser(ctx context.Context, user *models.User) (int64, error) {
	id, err := s.InsertID(ctx, s.DB, s.Converter(`
		INSERT INTO users (email, password_hash, role, name, is_active)
		VALUES (?, ?, ?, ?, TRUE)
		ON CONFLICT (email) DO NOTHING
	`), user.Email, user.PasswordHash, string(user.Role), user.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrConflict
	}
	if err != nil {
		return 0, fmt.Errorf("failed to create user: %w", err)
	}
	user.ID = id
	return id, nil
}

func (s *BaseStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	query := s.Converter(`SELECT ` + userColumns + ` FROM users WHERE email = ?`)

	err := s.DB.GetContext(ctx, &user, query, email)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (s *BaseStore) TouchLastLogin(ctx context.Context, userID int64) error {
	_, err := s.DB.ExecContext(ctx, s.Converter(`
		UPDATE users SET last_login = CURRENT_TIMESTAMP WHERE id = ?
	`), userID)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

func (s *BaseStore) FindActiveEmployeeByName(ctx context.Context, name string) (*models.Employee, error) {
	return s.findActiveEmployeeByName(ctx, s.DB, name)
}

func (s *BaseStore) findActiveEmployeeByName(ctx context.Context, q sqlx.QueryerContext, name string) (*models.Employee, error) {
	var employee models.Employee
	query := s.Converter(`
		SELECT ` + employeeColumns + `
		FROM employees
		WHERE name = ? AND is_active = TRUE
	`)

	err := sqlx.GetContext(ctx, q, &employee, query, name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find employee %q: %w", name, err)
	}
	return &employee, nil
}

func (s *BaseStore) GetActiveEmployee(ctx context.Context, id int64) (*models.Employee, error) {
	return s.getActiveEmployee(ctx, s.DB, id)
}

func (s *BaseStore) getActiveEmployee(ctx context.Context, q sqlx.QueryerContext, id int64) (*models.Employee, error) {
	var employee models.Employee
	query := s.Converter(`
		SELECT ` + employeeColumns + `
		FROM employees
		WHERE id = ? AND is_active = TRUE
	`)

	err := sqlx.GetContext(ctx, q, &employee, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get employee %d: %w", id, err)
	}
	return &employee, nil
}

func (s *BaseStore) ListActiveEmployees(ctx context.Context) ([]models.Employee, error) {
	employees := []models.Employee{}
	err := s.DB.SelectContext(ctx, &employees, `
		SELECT `+employeeColumns+`
		FROM employees
		WHERE is_active = TRUE
		ORDER BY total_entries DESC, name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	return employees, nil
}

// ListActiveEmployeesWithEntries returns the eligible raffle pool.
func (s *BaseStore) ListActiveEmployeesWithEntries(ctx context.Context) ([]models.Employee, error) {
	return s.listPool(ctx, s.DB)
}

func (s *BaseStore) listPool(ctx context.Context, q sqlx.QueryerContext) ([]models.Employee, error) {
	pool := []models.Employee{}
	err := sqlx.SelectContext(ctx, q, &pool, `
		SELECT `+employeeColumns+`
		FROM employees
		WHERE is_active = TRUE AND total_entries > 0
		ORDER BY name, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list eligible employees: %w", err)
	}
	return pool, nil
}

// ListRecentActivities returns up to perEmployee newest activities for
// every active employee, keyed by employee id.
func (s *BaseStore) ListRecentActivities(ctx context.Context, perEmployee int) (map[int64][]models.Activity, error) {
	var rows []models.Activity
	query := s.Converter(`
		SELECT ` + activityColumns + `
		FROM (
			SELECT a.*, ROW_NUMBER() OVER (
				PARTITION BY a.employee_id
				ORDER BY a.created_at DESC, a.id DESC
			) AS rn
			FROM activities a
			JOIN employees e ON e.id = a.employee_id
			WHERE e.is_active = TRUE
		) ranked
		WHERE rn <= ?
		ORDER BY employee_id, created_at DESC, id DESC
	`)

	if err := s.DB.SelectContext(ctx, &rows, query, perEmployee); err != nil {
		return nil, fmt.Errorf("failed to list recent activities: %w", err)
	}

	byEmployee := make(map[int64][]models.Activity)
	for _, a := range rows {
		byEmployee[a.EmployeeID] = append(byEmployee[a.EmployeeID], a)
	}
	return byEmployee, nil
}

// InsertEmployee returns ErrConflict when an active employee already has the name.
func (s *BaseStore) InsertEmployee(ctx context.Context, employee *models.Employee) (int64, error) {
	id, err := s.InsertID(ctx, s.DB, s.Converter(`
		INSERT INTO employees (name, email, phone, department, position, total_entries, is_active)
		VALUES (?, ?, ?, ?, ?, 0, TRUE)
		ON CONFLICT (name) WHERE is_active DO NOTHING
	`), employee.Name, employee.Email, employee.Phone, employee.Department, employee.Position)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: employee %q", ErrConflict, employee.Name)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert employee: %w", err)
	}
	employee.ID = id
	return id, nil
}

// ImportEmployees merges names into the active roster in one transaction:
// either every new name is inserted or none is.
func (s *BaseStore) ImportEmployees(ctx context.Context, names []string) (*ImportOutcome, error) {
	outcome := &ImportOutcome{Added: []string{}, Skipped: []string{}}

	err := s.WithTx(ctx, func(tx *sqlx.Tx) error {
		insert := s.Converter(`
			INSERT INTO employees (name, total_entries, is_active)
			VALUES (?, 0, TRUE)
			ON CONFLICT (name) WHERE is_active DO NOTHING
		`)

		for _, name := range names {
			existing, err := s.findActiveEmployeeByName(ctx, tx, name)
			if err != nil {
				return err
			}
			if existing != nil {
				outcome.Skipped = append(outcome.Skipped, name)
				continue
			}

			_, err = s.InsertID(ctx, tx, insert, name)
			if errors.Is(err, sql.ErrNoRows) {
				outcome.Skipped = append(outcome.Skipped, name)
				continue
			}
			if err != nil {
				return fmt.Errorf("failed to insert employee %q: %w", name, err)
			}
			outcome.Added = append(outcome.Added, name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return outcome, nil
}

// DeactivateEmployee soft-deletes an employee and returns its prior state.
func (s *BaseStore) DeactivateEmployee(ctx context.Context, id int64) (*models.Employee, error) {
	var before *models.Employee

	err := s.WithTx(ctx, func(tx *sqlx.Tx) error {
		employee, err := s.getActiveEmployee(ctx, tx, id)
		if err != nil {
			return err
		}
		if employee == nil {
			return fmt.Errorf("%w: employee %d", ErrNotFound, id)
		}
		before = employee

		_, err = tx.ExecContext(ctx, s.Converter(`
			UPDATE employees
			SET is_active = FALSE, updated_at = CURRENT_TIMESTAMP
			WHERE id = ?
		`), id)
		if err != nil {
			return fmt.Errorf("failed to deactivate employee %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return before, nil
}

// RecordActivity adds the activity's entries to the employee total and
// appends the ledger row atomically. It returns the new total.
func (s *BaseStore) RecordActivity(ctx context.Context, activity *models.Activity) (int, error) {
	var newTotal int

	err := s.WithTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, s.Converter(`
			UPDATE employees
			SET total_entries = total_entries + ?, updated_at = CURRENT_TIMESTAMP
			WHERE id = ? AND is_active = TRUE
		`), activity.EntriesAwarded, activity.EmployeeID)
		if err != nil {
			return fmt.Errorf("failed to update employee total: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("failed to update employee total: %w", err)
		} else if n == 0 {
			return fmt.Errorf("%w: employee %d", ErrNotFound, activity.EmployeeID)
		}

		id, err := s.insertActivity(ctx, tx, activity)
		if err != nil {
			return err
		}
		activity.ID = id

		err = tx.GetContext(ctx, &newTotal, s.Converter(`
			SELECT total_entries FROM employees WHERE id = ?
		`), activity.EmployeeID)
		if err != nil {
			return fmt.Errorf("failed to read employee total: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return newTotal, nil
}

func (s *BaseStore) insertActivity(ctx context.Context, q sqlx.ExtContext, a *models.Activity) (int64, error) {
	id, err := s.InsertID(ctx, q, s.Converter(`
		INSERT INTO activities (employee_id, activity_name, activity_category, entries_awarded, awarded_by, notes)
		VALUES (?, ?, ?, ?, ?, ?)
	`), a.EmployeeID, a.ActivityName, a.ActivityCategory, a.EntriesAwarded, a.AwardedBy, a.Notes)
	if err != nil {
		return 0, fmt.Errorf("failed to record activity: %w", err)
	}
	return id, nil
}

var errTotalChanged = errors.New("employee total changed during reset")

// ResetEntries zeroes an employee's total and appends a compensating
// activity of -old_total, so the ledger still sums to the total. The old
// total is returned. Resetting an employee with no entries changes nothing.
func (s *BaseStore) ResetEntries(ctx context.Context, employeeID int64, resetBy *int64) (int, error) {
	for attempt := 1; ; attempt++ {
		oldTotal, err := s.resetOnce(ctx, employeeID, resetBy)
		if errors.Is(err, errTotalChanged) && attempt < resetAttempts {
			logger.Debug.Printf("Reset of employee %d raced with an award, retrying", employeeID)
			continue
		}
		if errors.Is(err, errTotalChanged) {
			return 0, fmt.Errorf("%w: employee %d kept changing", ErrConflict, employeeID)
		}
		return oldTotal, err
	}
}

func (s *BaseStore) resetOnce(ctx context.Context, employeeID int64, resetBy *int64) (int, error) {
	var oldTotal int

	err := s.WithTx(ctx, func(tx *sqlx.Tx) error {
		employee, err := s.getActiveEmployee(ctx, tx, employeeID)
		if err != nil {
			return err
		}
		if employee == nil {
			return fmt.Errorf("%w: employee %d", ErrNotFound, employeeID)
		}
		oldTotal = employee.TotalEntries
		if oldTotal == 0 {
			return nil
		}

		res, err := tx.ExecContext(ctx, s.Converter(`
			UPDATE employees
			SET total_entries = 0, updated_at = CURRENT_TIMESTAMP
			WHERE id = ? AND total_entries = ?
		`), employeeID, oldTotal)
		if err != nil {
			return fmt.Errorf("failed to reset employee total: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("failed to reset employee total: %w", err)
		} else if n == 0 {
			return errTotalChanged
		}

		_, err = s.insertActivity(ctx, tx, &models.Activity{
			EmployeeID:       employeeID,
			ActivityName:     "Points Reset",
			ActivityCategory: "system",
			EntriesAwarded:   -oldTotal,
			AwardedBy:        resetBy,
			Notes:            fmt.Sprintf("Reset by admin (was %d entries)", oldTotal),
		})
		return err
	})
	if err != nil {
		return 0, err
	}

	return oldTotal, nil
}

// ResetAll writes compensating activities for every active employee with
// entries, zeroes all totals and deactivates the whole roster. It returns
// the number of employees deactivated.
func (s *BaseStore) ResetAll(ctx context.Context, resetBy *int64) (int, error) {
	var affected int64

	err := s.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, s.Converter(`
			INSERT INTO activities (employee_id, activity_name, activity_category, entries_awarded, awarded_by, notes)
			SELECT id, 'System Reset', 'system', -total_entries, CAST(? AS BIGINT), 'All data reset'
			FROM employees
			WHERE is_active = TRUE AND total_entries > 0
		`), resetBy)
		if err != nil {
			return fmt.Errorf("failed to record reset activities: %w", err)
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE employees
			SET total_entries = 0, is_active = FALSE, updated_at = CURRENT_TIMESTAMP
			WHERE is_active = TRUE
		`)
		if err != nil {
			return fmt.Errorf("failed to deactivate employees: %w", err)
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}

	return int(affected), nil
}

// RecordRaffle reads the eligible pool, lets decide pick the outcome and
// stores it, all in one transaction. The winner must still be an active
// employee, otherwise nothing is written and ErrNotFound is returned.
func (s *BaseStore) RecordRaffle(ctx context.Context, decide DrawFunc) (*models.RaffleResult, error) {
	var result *models.RaffleResult

	err := s.WithTx(ctx, func(tx *sqlx.Tx) error {
		pool, err := s.listPool(ctx, tx)
		if err != nil {
			return err
		}

		result, err = decide(pool)
		if err != nil {
			return err
		}

		winner, err := s.getActiveEmployee(ctx, tx, result.WinnerID)
		if err != nil {
			return err
		}
		if winner == nil {
			return fmt.Errorf("%w: winner %d", ErrNotFound, result.WinnerID)
		}
		result.WinnerName = winner.Name

		id, err := s.InsertID(ctx, tx, s.Converter(`
			INSERT INTO raffle_history (winner_id, prize, total_participants, total_entries, winning_chance, conducted_by)
			VALUES (?, ?, ?, ?, ?, ?)
		`), result.WinnerID, result.Prize, result.TotalParticipants, result.TotalEntries, result.WinningChance, result.ConductedBy)
		if err != nil {
			return fmt.Errorf("failed to record raffle result: %w", err)
		}
		result.ID = id
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (s *BaseStore) ListRaffleHistory(ctx context.Context, limit int) ([]models.RaffleResult, error) {
	results := []models.RaffleResult{}
	query := s.Converter(raffleResultQuery + `
		ORDER BY r.created_at DESC, r.id DESC
		LIMIT ?
	`)

	if err := s.DB.SelectContext(ctx, &results, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list raffle history: %w", err)
	}
	return results, nil
}

func (s *BaseStore) LogAudit(ctx context.Context, entry *models.AuditEntry) error {
	_, err := s.DB.NamedExecContext(ctx, `
		INSERT INTO audit_log (user_id, action, table_name, record_id, old_values, new_values, ip_address, user_agent)
		VALUES (:user_id, :action, :table_name, :record_id, :old_values, :new_values, :ip_address, :user_agent)
	`, entry)
	if err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

// Dashboard aggregates the analytics view; limit caps the activity and
// top performer lists.
func (s *BaseStore) Dashboard(ctx context.Context, limit int) (*models.Dashboard, error) {
	d := &models.Dashboard{
		RecentActivities: []models.Activity{},
		TopPerformers:    []models.Employee{},
		DepartmentStats:  []models.DepartmentStat{},
	}

	err := s.DB.GetContext(ctx, &d.TotalEmployees, `SELECT COUNT(*) FROM employees WHERE is_active = TRUE`)
	if err != nil {
		return nil, fmt.Errorf("failed to count employees: %w", err)
	}

	err = s.DB.GetContext(ctx, &d.TotalEntries, `
		SELECT COALESCE(SUM(total_entries), 0) FROM employees WHERE is_active = TRUE
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to sum entries: %w", err)
	}

	if err := s.DB.GetContext(ctx, &d.TotalRaffles, `SELECT COUNT(*) FROM raffle_history`); err != nil {
		return nil, fmt.Errorf("failed to count raffles: %w", err)
	}

	err = s.DB.SelectContext(ctx, &d.RecentActivities, s.Converter(`
		SELECT a.id, a.employee_id, a.activity_name, a.activity_category, a.entries_awarded,
			a.awarded_by, a.notes, a.created_at, e.name AS employee_name
		FROM activities a
		JOIN employees e ON e.id = a.employee_id
		ORDER BY a.created_at DESC, a.id DESC
		LIMIT ?
	`), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent activities: %w", err)
	}

	err = s.DB.SelectContext(ctx, &d.TopPerformers, s.Converter(`
		SELECT `+employeeColumns+`
		FROM employees
		WHERE is_active = TRUE
		ORDER BY total_entries DESC, name
		LIMIT ?
	`), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list top performers: %w", err)
	}

	err = s.DB.SelectContext(ctx, &d.DepartmentStats, `
		SELECT
			COALESCE(department, 'Unassigned') AS department,
			COUNT(*) AS employee_count,
			COALESCE(SUM(total_entries), 0) AS total_entries,
			COALESCE(AVG(total_entries), 0) AS avg_entries
		FROM employees
		WHERE is_active = TRUE
		GROUP BY COALESCE(department, 'Unassigned')
		ORDER BY COALESCE(SUM(total_entries), 0) DESC, COALESCE(department, 'Unassigned')
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to compute department stats: %w", err)
	}

	return d, nil
}

func (s *BaseStore) Backup(ctx context.Context, dir string) (string, error) {
	return "", ErrBackupUnsupported
}
