package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/vellari/cleanops-api/internal/models"
)

// AssignmentRepository persists the flattened timeline rows: the current
// table (replaced wholesale per WorkDate) and the append-only history table
// of numbered revisions.
type AssignmentRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB, logger *zap.Logger) *AssignmentRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentRepository{db: db, logger: logger}
}

const currentColumns = `work_date, cleaner_id, cleaner_name, task_id, logistic_code, lat, lng,
cleaning_time, start_time, end_time, sequence, travel_time, premium, straordinaria, priority, reasons, updated_at`

// SaveCurrent transactionally replaces every row for the WorkDate with the
// flattened timeline. An empty timeline still commits the delete, leaving an
// explicit "no assignments" state. Returns the number of rows written.
func (r *AssignmentRepository) SaveCurrent(ctx context.Context, workDate string, timeline *models.Timeline) (int, error) {
	rows := r.flatten(workDate, timeline)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin save current: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM timeline_current WHERE work_date = $1`, workDate); err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("clear current assignments: %w", err)
	}

	const insertQuery = `
INSERT INTO timeline_current (` + currentColumns + `)
VALUES (:work_date, :cleaner_id, :cleaner_name, :task_id, :logistic_code, :lat, :lng,
:cleaning_time, :start_time, :end_time, :sequence, :travel_time, :premium, :straordinaria, :priority, :reasons, :updated_at)`
	for i := range rows {
		if _, err := sqlx.NamedExecContext(ctx, tx, insertQuery, &rows[i]); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("insert current assignment row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit save current: %w", err)
	}
	return len(rows), nil
}

// GetCurrent returns the current rows ordered by cleaner then visit sequence.
func (r *AssignmentRepository) GetCurrent(ctx context.Context, workDate string) ([]models.AssignmentRow, error) {
	const query = `SELECT ` + currentColumns + ` FROM timeline_current
WHERE work_date = $1 ORDER BY cleaner_id, sequence`
	var rows []models.AssignmentRow
	if err := r.db.SelectContext(ctx, &rows, query, workDate); err != nil {
		return nil, fmt.Errorf("list current assignments: %w", err)
	}
	return rows, nil
}

// DeleteCurrent removes every current row for the WorkDate.
func (r *AssignmentRepository) DeleteCurrent(ctx context.Context, workDate string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM timeline_current WHERE work_date = $1`, workDate); err != nil {
		return fmt.Errorf("delete current assignments: %w", err)
	}
	return nil
}

// CountCurrent counts the current rows for the WorkDate.
func (r *AssignmentRepository) CountCurrent(ctx context.Context, workDate string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM timeline_current WHERE work_date = $1`, workDate); err != nil {
		return 0, fmt.Errorf("count current assignments: %w", err)
	}
	return count, nil
}

// NextRevision returns one plus the highest revision stored for the WorkDate,
// or 1 when no history exists.
func (r *AssignmentRepository) NextRevision(ctx context.Context, workDate string) (int, error) {
	var next int
	const query = `SELECT COALESCE(MAX(revision), 0) + 1 FROM timeline_revisions WHERE work_date = $1`
	if err := r.db.GetContext(ctx, &next, query, workDate); err != nil {
		return 0, fmt.Errorf("compute next revision: %w", err)
	}
	return next, nil
}

// SaveHistory snapshots the timeline into the next revision number. The
// advisory lock serialises concurrent snapshotters per WorkDate so the
// read-max-then-insert sequence cannot hand two writers the same number; the
// (work_date, revision, task_id) primary key backstops it. An empty timeline
// still consumes and commits a revision with zero rows.
func (r *AssignmentRepository) SaveHistory(ctx context.Context, workDate string, timeline *models.Timeline, createdBy string) (int, error) {
	rows := r.flatten(workDate, timeline)
	now := time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin save history: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, workDate); err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("acquire revision lock: %w", err)
	}

	var revision int
	const nextQuery = `SELECT COALESCE(MAX(revision), 0) + 1 FROM timeline_revisions WHERE work_date = $1`
	if err := tx.GetContext(ctx, &revision, nextQuery, workDate); err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("compute next revision: %w", err)
	}

	// The marker row records the revision itself, so an empty timeline still
	// consumes and commits a revision number with zero associated task rows.
	// It must exist before the task rows: timeline_history carries a
	// non-deferrable foreign key onto timeline_revisions.
	const markerQuery = `INSERT INTO timeline_revisions (work_date, revision, created_by, created_at)
VALUES ($1, $2, $3, $4)`
	if _, err := tx.ExecContext(ctx, markerQuery, workDate, revision, createdBy, now); err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("insert revision marker: %w", err)
	}

	const insertQuery = `
INSERT INTO timeline_history (` + currentColumns + `, revision, created_by, created_at)
VALUES (:work_date, :cleaner_id, :cleaner_name, :task_id, :logistic_code, :lat, :lng,
:cleaning_time, :start_time, :end_time, :sequence, :travel_time, :premium, :straordinaria, :priority, :reasons, :updated_at,
:revision, :created_by, :created_at)`
	for i := range rows {
		historyRow := models.HistoryRow{
			AssignmentRow: rows[i],
			Revision:      revision,
			CreatedBy:     createdBy,
			CreatedAt:     now,
		}
		if _, err := sqlx.NamedExecContext(ctx, tx, insertQuery, &historyRow); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("insert history row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit save history: %w", err)
	}
	return revision, nil
}

// ListRevisions returns one summary per revision, newest first.
func (r *AssignmentRepository) ListRevisions(ctx context.Context, workDate string) ([]models.RevisionSummary, error) {
	const query = `
SELECT rev.revision, rev.created_at, rev.created_by, COUNT(h.task_id) AS task_count
FROM timeline_revisions rev
LEFT JOIN timeline_history h ON h.work_date = rev.work_date AND h.revision = rev.revision
WHERE rev.work_date = $1
GROUP BY rev.revision, rev.created_at, rev.created_by
ORDER BY rev.revision DESC`
	var summaries []models.RevisionSummary
	if err := r.db.SelectContext(ctx, &summaries, query, workDate); err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	return summaries, nil
}

// GetRevision returns the rows frozen in one revision, ordered like GetCurrent.
func (r *AssignmentRepository) GetRevision(ctx context.Context, workDate string, revision int) ([]models.HistoryRow, error) {
	const query = `SELECT ` + currentColumns + `, revision, created_by, created_at FROM timeline_history
WHERE work_date = $1 AND revision = $2 ORDER BY cleaner_id, sequence`
	var rows []models.HistoryRow
	if err := r.db.SelectContext(ctx, &rows, query, workDate, revision); err != nil {
		return nil, fmt.Errorf("get revision rows: %w", err)
	}
	if len(rows) == 0 {
		var exists bool
		const existsQuery = `SELECT EXISTS (SELECT 1 FROM timeline_revisions WHERE work_date = $1 AND revision = $2)`
		if err := r.db.GetContext(ctx, &exists, existsQuery, workDate, revision); err != nil {
			return nil, fmt.Errorf("check revision marker: %w", err)
		}
		if !exists {
			return nil, sql.ErrNoRows
		}
	}
	return rows, nil
}

// flatten converts the timeline into relational rows. Tasks without an
// identity are skipped with a warning, never fatal.
func (r *AssignmentRepository) flatten(workDate string, timeline *models.Timeline) []models.AssignmentRow {
	if timeline == nil {
		return nil
	}
	now := time.Now().UTC()
	rows := make([]models.AssignmentRow, 0, timeline.TaskCount())
	for _, assignment := range timeline.CleanersAssignments {
		for _, task := range assignment.Tasks {
			if task.TaskID == 0 {
				r.logger.Warn("skipping task without identity",
					zap.String("work_date", workDate),
					zap.Int64("cleaner_id", assignment.Cleaner.ID))
				continue
			}
			rows = append(rows, models.AssignmentRow{
				WorkDate:      workDate,
				CleanerID:     assignment.Cleaner.ID,
				CleanerName:   assignment.Cleaner.Name,
				TaskID:        task.TaskID,
				LogisticCode:  task.LogisticCode,
				Lat:           task.Lat,
				Lng:           task.Lng,
				CleaningTime:  task.CleaningTime,
				StartTime:     task.StartTime,
				EndTime:       task.EndTime,
				Sequence:      task.Sequence,
				TravelTime:    task.TravelTime,
				Premium:       task.Premium,
				Straordinaria: task.Straordinaria,
				Priority:      string(task.Priority),
				Reasons:       marshalReasons(task.Reasons),
				UpdatedAt:     now,
			})
		}
	}
	return rows
}

func marshalReasons(reasons []string) types.JSONText {
	if len(reasons) == 0 {
		return types.JSONText(`[]`)
	}
	raw, err := json.Marshal(reasons)
	if err != nil {
		return types.JSONText(`[]`)
	}
	return types.JSONText(raw)
}
