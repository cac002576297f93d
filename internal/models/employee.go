package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	MinEntriesPerAward = 1
	MaxEntriesPerAward = 10
)

type Employee struct {
	ID           int64      `db:"id" json:"id"`
	Name         string     `db:"name" json:"name"`
	Email        *string    `db:"email" json:"email,omitempty"`
	Phone        *string    `db:"phone" json:"phone,omitempty"`
	Department   *string    `db:"department" json:"department,omitempty"`
	Position     *string    `db:"position" json:"position,omitempty"`
	TotalEntries int        `db:"total_entries" json:"total_entries"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
	Activities   []Activity `db:"-" json:"activities,omitempty"`
}

// Activity is an append-only ledger row. Resets are recorded as negative
// entries_awarded so the ledger always sums to the employee total.
type Activity struct {
	ID               int64     `db:"id" json:"id"`
	EmployeeID       int64     `db:"employee_id" json:"employee_id"`
	ActivityName     string    `db:"activity_name" json:"activity_name"`
	ActivityCategory string    `db:"activity_category" json:"activity_category"`
	EntriesAwarded   int       `db:"entries_awarded" json:"entries_awarded"`
	AwardedBy        *int64    `db:"awarded_by" json:"awarded_by,omitempty"`
	Notes            string    `db:"notes" json:"notes"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	EmployeeName     string    `db:"employee_name" json:"employee_name,omitempty"`
}

type NewEmployee struct {
	Name       string `json:"name" validate:"required,max=100"`
	Email      string `json:"email" validate:"omitempty,email"`
	Phone      string `json:"phone" validate:"omitempty,max=40"`
	Department string `json:"department" validate:"omitempty,max=100"`
	Position   string `json:"position" validate:"omitempty,max=100"`
}

func (e *NewEmployee) Validate() error {
	validate := validator.New()
	return validate.Struct(e)
}

type AwardRequest struct {
	ActivityName     string `json:"activity_name" validate:"required,max=200"`
	ActivityCategory string `json:"activity_category" validate:"max=100"`
	EntriesAwarded   int    `json:"entries_awarded" validate:"min=1,max=10"`
	Notes            string `json:"notes" validate:"max=1000"`
}

func (a *AwardRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(a)
}
