package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// RaffleResult is the immutable record of one round. The participant and
// entry counts are taken from the pool at the moment the winner is chosen.
type RaffleResult struct {
	ID                int64     `db:"id" json:"id"`
	WinnerID          int64     `db:"winner_id" json:"winner_id"`
	WinnerName        string    `db:"winner_name" json:"winner_name"`
	Prize             string    `db:"prize" json:"prize"`
	TotalParticipants int       `db:"total_participants" json:"total_participants"`
	TotalEntries      int       `db:"total_entries" json:"total_entries"`
	WinningChance     float64   `db:"winning_chance" json:"winning_chance"`
	ConductedBy       *int64    `db:"conducted_by" json:"conducted_by,omitempty"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}

type RecordWinnerRequest struct {
	WinnerID int64  `json:"winner_id" validate:"required,gt=0"`
	Prize    string `json:"prize" validate:"max=200"`
}

func (r *RecordWinnerRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

type DrawRequest struct {
	Prize string `json:"prize" validate:"max=200"`
}

func (r *DrawRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

type DepartmentStat struct {
	Department    string  `db:"department" json:"department"`
	EmployeeCount int     `db:"employee_count" json:"employee_count"`
	TotalEntries  int     `db:"total_entries" json:"total_entries"`
	AvgEntries    float64 `db:"avg_entries" json:"avg_entries"`
}

type Dashboard struct {
	TotalEmployees   int              `json:"total_employees"`
	TotalEntries     int              `json:"total_entries"`
	TotalRaffles     int              `json:"total_raffles"`
	RecentActivities []Activity       `json:"recent_activities"`
	TopPerformers    []Employee       `json:"top_performers"`
	DepartmentStats  []DepartmentStat `json:"department_stats"`
}
