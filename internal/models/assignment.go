package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// AssignmentRow is the flattened relational form of one task inside one
// cleaner's assignment. The current table is keyed by (work_date, task_id)
// and replaced wholesale on every save.
type AssignmentRow struct {
	WorkDate      string         `db:"work_date" json:"work_date"`
	CleanerID     int64          `db:"cleaner_id" json:"cleaner_id"`
	CleanerName   string         `db:"cleaner_name" json:"cleaner_name,omitempty"`
	TaskID        int64          `db:"task_id" json:"task_id"`
	LogisticCode  string         `db:"logistic_code" json:"logistic_code,omitempty"`
	Lat           *float64       `db:"lat" json:"lat,omitempty"`
	Lng           *float64       `db:"lng" json:"lng,omitempty"`
	CleaningTime  int            `db:"cleaning_time" json:"cleaning_time"`
	StartTime     string         `db:"start_time" json:"start_time,omitempty"`
	EndTime       string         `db:"end_time" json:"end_time,omitempty"`
	Sequence      int            `db:"sequence" json:"sequence"`
	TravelTime    int            `db:"travel_time" json:"travel_time"`
	Premium       bool           `db:"premium" json:"premium"`
	Straordinaria bool           `db:"straordinaria" json:"straordinaria"`
	Priority      string         `db:"priority" json:"priority,omitempty"`
	Reasons       types.JSONText `db:"reasons" json:"reasons,omitempty"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// HistoryRow is an AssignmentRow frozen inside a numbered revision. The
// history table is keyed by (work_date, revision, task_id) and append-only.
type HistoryRow struct {
	AssignmentRow
	Revision  int       `db:"revision" json:"revision"`
	CreatedBy string    `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// RevisionSummary aggregates one revision for listing.
type RevisionSummary struct {
	Revision  int       `db:"revision" json:"revision"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	CreatedBy string    `db:"created_by" json:"created_by"`
	TaskCount int       `db:"task_count" json:"task_count"`
}
