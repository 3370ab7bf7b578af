package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vellari/cleanops-api/internal/models"
)

func newAssignmentRepoMock(t *testing.T) (*AssignmentRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	repo := NewAssignmentRepository(sqlx.NewDb(db, "sqlmock"), nil)
	return repo, mock, func() { db.Close() }
}

func twoCleanerTimeline() *models.Timeline {
	return &models.Timeline{
		CleanersAssignments: []models.CleanerAssignment{
			{
				Cleaner: models.Cleaner{ID: 1, Name: "Anna"},
				Tasks: []models.Task{
					{TaskID: 11, Sequence: 1, CleaningTime: 30},
					{TaskID: 12, Sequence: 2, CleaningTime: 45},
				},
			},
			{
				Cleaner: models.Cleaner{ID: 2, Name: "Marco"},
				Tasks: []models.Task{
					{TaskID: 21, Sequence: 1, Priority: models.PriorityEarlyOut},
				},
			},
		},
	}
}

func TestSaveCurrentReplacesAllRows(t *testing.T) {
	repo, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM timeline_current WHERE work_date = $1")).
		WithArgs("2025-01-15").
		WillReturnResult(sqlmock.NewResult(0, 3))
	for i := 0; i < 3; i++ {
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timeline_current")).
			WillReturnResult(sqlmock.NewResult(1, 1))
	}
	mock.ExpectCommit()

	written, err := repo.SaveCurrent(context.Background(), "2025-01-15", twoCleanerTimeline())
	require.NoError(t, err)
	assert.Equal(t, 3, written)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveCurrentEmptyTimelineStillCommitsDelete(t *testing.T) {
	repo, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM timeline_current WHERE work_date = $1")).
		WithArgs("2025-01-15").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	written, err := repo.SaveCurrent(context.Background(), "2025-01-15", &models.Timeline{})
	require.NoError(t, err)
	assert.Equal(t, 0, written)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveCurrentRollsBackOnInsertFailure(t *testing.T) {
	repo, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM timeline_current WHERE work_date = $1")).
		WithArgs("2025-01-15").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timeline_current")).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err := repo.SaveCurrent(context.Background(), "2025-01-15", twoCleanerTimeline())
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveCurrentSkipsTasksWithoutIdentity(t *testing.T) {
	repo, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()

	timeline := &models.Timeline{
		CleanersAssignments: []models.CleanerAssignment{
			{
				Cleaner: models.Cleaner{ID: 5},
				Tasks: []models.Task{
					{TaskID: 0, Sequence: 1}, // no identity, skipped
					{TaskID: 51, Sequence: 2},
				},
			},
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM timeline_current WHERE work_date = $1")).
		WithArgs("2025-01-15").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timeline_current")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	written, err := repo.SaveCurrent(context.Background(), "2025-01-15", timeline)
	require.NoError(t, err)
	assert.Equal(t, 1, written)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCurrentOrdersByCleanerThenSequence(t *testing.T) {
	repo, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()

	columns := []string{"work_date", "cleaner_id", "cleaner_name", "task_id", "logistic_code", "lat", "lng",
		"cleaning_time", "start_time", "end_time", "sequence", "travel_time", "premium", "straordinaria", "priority", "reasons", "updated_at"}
	rows := sqlmock.NewRows(columns).
		AddRow("2025-01-15", 1, "Anna", 11, "LC-1", nil, nil, 30, "08:00", "08:30", 1, 10, false, false, "", []byte(`[]`), time.Now()).
		AddRow("2025-01-15", 1, "Anna", 12, "LC-2", nil, nil, 45, "08:40", "09:25", 2, 10, true, false, "high_priority", []byte(`["window"]`), time.Now())
	mock.ExpectQuery("SELECT .+ FROM timeline_current\\s+WHERE work_date = \\$1 ORDER BY cleaner_id, sequence").
		WithArgs("2025-01-15").
		WillReturnRows(rows)

	result, err := repo.GetCurrent(context.Background(), "2025-01-15")
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.EqualValues(t, 11, result[0].TaskID)
	assert.True(t, result[1].Premium)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNextRevisionStartsAtOne(t *testing.T) {
	repo, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(revision), 0) + 1 FROM timeline_revisions WHERE work_date = $1")).
		WithArgs("2025-01-15").
		WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(1))

	next, err := repo.NextRevision(context.Background(), "2025-01-15")
	require.NoError(t, err)
	assert.Equal(t, 1, next)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveHistoryAssignsNextRevisionUnderLock(t *testing.T) {
	repo, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtext($1))")).
		WithArgs("2025-01-15").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(revision), 0) + 1 FROM timeline_revisions WHERE work_date = $1")).
		WithArgs("2025-01-15").
		WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(4))
	// The marker insert must precede the task rows: timeline_history's
	// foreign key onto timeline_revisions is checked per statement.
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timeline_revisions")).
		WithArgs("2025-01-15", 4, "scheduler", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	for i := 0; i < 3; i++ {
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timeline_history")).
			WillReturnResult(sqlmock.NewResult(1, 1))
	}
	mock.ExpectCommit()

	revision, err := repo.SaveHistory(context.Background(), "2025-01-15", twoCleanerTimeline(), "scheduler")
	require.NoError(t, err)
	assert.Equal(t, 4, revision)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveHistoryEmptyTimelineConsumesRevision(t *testing.T) {
	repo, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtext($1))")).
		WithArgs("2025-01-15").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(revision), 0) + 1 FROM timeline_revisions WHERE work_date = $1")).
		WithArgs("2025-01-15").
		WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timeline_revisions")).
		WithArgs("2025-01-15", 1, "scheduler", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	revision, err := repo.SaveHistory(context.Background(), "2025-01-15", &models.Timeline{}, "scheduler")
	require.NoError(t, err)
	assert.Equal(t, 1, revision)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveHistoryRollsBackOnInsertFailure(t *testing.T) {
	repo, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtext($1))")).
		WithArgs("2025-01-15").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(revision), 0) + 1 FROM timeline_revisions WHERE work_date = $1")).
		WithArgs("2025-01-15").
		WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(2))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timeline_revisions")).
		WithArgs("2025-01-15", 2, "scheduler", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timeline_history")).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err := repo.SaveHistory(context.Background(), "2025-01-15", twoCleanerTimeline(), "scheduler")
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRevisionsNewestFirst(t *testing.T) {
	repo, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"revision", "created_at", "created_by", "task_count"}).
		AddRow(2, time.Now(), "remix", 5).
		AddRow(1, time.Now(), "scheduler", 4)
	mock.ExpectQuery("SELECT rev.revision, rev.created_at, rev.created_by, COUNT").
		WithArgs("2025-01-15").
		WillReturnRows(rows)

	summaries, err := repo.ListRevisions(context.Background(), "2025-01-15")
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, 2, summaries[0].Revision)
	assert.Equal(t, 5, summaries[0].TaskCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRevisionUnknownReturnsNoRows(t *testing.T) {
	repo, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .+ FROM timeline_history").
		WithArgs("2025-01-15", 9).
		WillReturnRows(sqlmock.NewRows([]string{"work_date"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM timeline_revisions WHERE work_date = $1 AND revision = $2)")).
		WithArgs("2025-01-15", 9).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	_, err := repo.GetRevision(context.Background(), "2025-01-15", 9)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountCurrent(t *testing.T) {
	repo, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM timeline_current WHERE work_date = $1")).
		WithArgs("2025-01-15").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	count, err := repo.CountCurrent(context.Background(), "2025-01-15")
	require.NoError(t, err)
	assert.Equal(t, 7, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteCurrent(t *testing.T) {
	repo, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM timeline_current WHERE work_date = $1")).
		WithArgs("2025-01-15").
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, repo.DeleteCurrent(context.Background(), "2025-01-15"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
