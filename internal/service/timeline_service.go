package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/vellari/cleanops-api/internal/docstore"
	"github.com/vellari/cleanops-api/internal/models"
	appErrors "github.com/vellari/cleanops-api/pkg/errors"
)

type assignmentStore interface {
	SaveCurrent(ctx context.Context, workDate string, timeline *models.Timeline) (int, error)
	GetCurrent(ctx context.Context, workDate string) ([]models.AssignmentRow, error)
	DeleteCurrent(ctx context.Context, workDate string) error
	CountCurrent(ctx context.Context, workDate string) (int, error)
	NextRevision(ctx context.Context, workDate string) (int, error)
	SaveHistory(ctx context.Context, workDate string, timeline *models.Timeline, createdBy string) (int, error)
	ListRevisions(ctx context.Context, workDate string) ([]models.RevisionSummary, error)
	GetRevision(ctx context.Context, workDate string, revision int) ([]models.HistoryRow, error)
}

type documentStore interface {
	LoadTimeline(ctx context.Context, workDate string) *models.Timeline
	SaveTimeline(ctx context.Context, workDate string, doc *models.Timeline) error
	LoadSelectedCleaners(ctx context.Context, workDate string) *models.SelectedCleanersDocument
	SaveSelectedCleaners(ctx context.Context, workDate string, doc *models.SelectedCleanersDocument) error
	SaveContainers(ctx context.Context, workDate string, doc *models.ContainersDocument) error
	Delete(ctx context.Context, kind docstore.Kind, workDate string) error
}

// TimelineService owns the canonical timeline of one WorkDate: document and
// relational representations, revision snapshots, and rollback.
type TimelineService struct {
	docs   documentStore
	repo   assignmentStore
	logger *zap.Logger

	snapshotObserver func() // metrics hook, optional
}

// NewTimelineService constructs the service.
func NewTimelineService(docs documentStore, repo assignmentStore, logger *zap.Logger) *TimelineService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimelineService{docs: docs, repo: repo, logger: logger}
}

// SetSnapshotObserver installs a callback fired for every created revision.
func (s *TimelineService) SetSnapshotObserver(fn func()) {
	s.snapshotObserver = fn
}

// Get returns the canonical timeline, falling back to the recovery document
// when no valid copy exists.
func (s *TimelineService) Get(ctx context.Context, workDate string) *models.Timeline {
	return s.docs.LoadTimeline(ctx, workDate)
}

// Save replaces the canonical timeline: relational rows first (strict
// consistency, rolls back whole), then the document backends. The actor is
// appended to the modified_by audit trail.
func (s *TimelineService) Save(ctx context.Context, workDate string, doc *models.Timeline, actor string) (int, error) {
	if actor != "" {
		doc.Metadata.ModifiedBy = append(doc.Metadata.ModifiedBy, actor)
	}

	written, err := s.repo.SaveCurrent(ctx, workDate, doc)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist assignment rows")
	}
	if err := s.docs.SaveTimeline(ctx, workDate, doc); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist timeline document")
	}
	s.logger.Info("timeline saved",
		zap.String("work_date", workDate),
		zap.Int("rows", written),
		zap.String("actor", actor))
	return written, nil
}

// Rows returns the flattened current rows ordered by cleaner then sequence.
func (s *TimelineService) Rows(ctx context.Context, workDate string) ([]models.AssignmentRow, error) {
	rows, err := s.repo.GetCurrent(ctx, workDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment rows")
	}
	return rows, nil
}

// Snapshot freezes the canonical timeline into the next history revision.
func (s *TimelineService) Snapshot(ctx context.Context, workDate, createdBy string) (int, int, error) {
	doc := s.docs.LoadTimeline(ctx, workDate)
	revision, err := s.repo.SaveHistory(ctx, workDate, doc, createdBy)
	if err != nil {
		return 0, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to snapshot timeline")
	}
	if s.snapshotObserver != nil {
		s.snapshotObserver()
	}
	return revision, doc.TaskCount(), nil
}

// Revisions lists snapshot summaries, newest first.
func (s *TimelineService) Revisions(ctx context.Context, workDate string) ([]models.RevisionSummary, error) {
	summaries, err := s.repo.ListRevisions(ctx, workDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list revisions")
	}
	return summaries, nil
}

// Revision returns the rows frozen in one snapshot.
func (s *TimelineService) Revision(ctx context.Context, workDate string, revision int) ([]models.HistoryRow, error) {
	rows, err := s.repo.GetRevision(ctx, workDate, revision)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load revision")
	}
	return rows, nil
}

// Restore rebuilds the timeline document from a historical revision and makes
// it current again through the normal save path.
func (s *TimelineService) Restore(ctx context.Context, workDate string, revision int, actor string) (*models.Timeline, error) {
	rows, err := s.Revision(ctx, workDate, revision)
	if err != nil {
		return nil, err
	}
	doc := timelineFromHistory(workDate, rows)
	if _, err := s.Save(ctx, workDate, doc, actor); err != nil {
		return nil, err
	}
	s.logger.Info("timeline restored",
		zap.String("work_date", workDate),
		zap.Int("revision", revision),
		zap.String("actor", actor))
	return doc, nil
}

// SelectedCleaners returns the selected-cleaners document, or nil when absent.
func (s *TimelineService) SelectedCleaners(ctx context.Context, workDate string) *models.SelectedCleanersDocument {
	return s.docs.LoadSelectedCleaners(ctx, workDate)
}

// SaveSelectedCleaners persists the selected-cleaners document.
func (s *TimelineService) SaveSelectedCleaners(ctx context.Context, workDate string, doc *models.SelectedCleanersDocument) error {
	if err := s.docs.SaveSelectedCleaners(ctx, workDate, doc); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist selected cleaners")
	}
	return nil
}

// SaveContainers persists the leftover containers document delivered by the
// upstream extraction phase.
func (s *TimelineService) SaveContainers(ctx context.Context, workDate string, doc *models.ContainersDocument) error {
	if err := s.docs.SaveContainers(ctx, workDate, doc); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist containers")
	}
	return nil
}

// timelineFromHistory regroups flattened rows into per-cleaner structures.
// Rows arrive ordered by cleaner then sequence, so task order is visit order.
func timelineFromHistory(workDate string, rows []models.HistoryRow) *models.Timeline {
	doc := models.NewRecoveryTimeline(workDate)
	var current *models.CleanerAssignment
	for _, row := range rows {
		if current == nil || current.Cleaner.ID != row.CleanerID {
			doc.CleanersAssignments = append(doc.CleanersAssignments, models.CleanerAssignment{
				Cleaner: models.Cleaner{ID: row.CleanerID, Name: row.CleanerName},
			})
			current = &doc.CleanersAssignments[len(doc.CleanersAssignments)-1]
		}
		current.Tasks = append(current.Tasks, taskFromRow(row.AssignmentRow))
	}
	return doc
}

func taskFromRow(row models.AssignmentRow) models.Task {
	task := models.Task{
		TaskID:        row.TaskID,
		LogisticCode:  row.LogisticCode,
		Lat:           row.Lat,
		Lng:           row.Lng,
		CleaningTime:  row.CleaningTime,
		StartTime:     row.StartTime,
		EndTime:       row.EndTime,
		Sequence:      row.Sequence,
		TravelTime:    row.TravelTime,
		Premium:       row.Premium,
		Straordinaria: row.Straordinaria,
		Priority:      models.TaskPriority(row.Priority),
	}
	if len(row.Reasons) > 0 {
		var reasons []string
		if err := json.Unmarshal(row.Reasons, &reasons); err == nil {
			task.Reasons = reasons
		}
	}
	return task
}
