package service

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/vellari/cleanops-api/internal/dto"
	"github.com/vellari/cleanops-api/internal/models"
)

type documentReader interface {
	LoadTimeline(ctx context.Context, workDate string) *models.Timeline
	LoadContainers(ctx context.Context, workDate string) *models.ContainersDocument
}

// LeftoverService inspects the containers document and groups schedule state
// for the re-optimizer: tasks already assigned (by cleaner) and the leftover
// pool.
type LeftoverService struct {
	docs   documentReader
	logger *zap.Logger
}

// NewLeftoverService constructs the service.
func NewLeftoverService(docs documentReader, logger *zap.Logger) *LeftoverService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeftoverService{docs: docs, logger: logger}
}

// HasLeftovers reports whether any task sits in any containers bucket. A
// missing or unreadable containers document means "no leftovers" so the
// pipeline can finish instead of blocking on a remix with nothing to do.
func (s *LeftoverService) HasLeftovers(ctx context.Context, workDate string) bool {
	doc := s.docs.LoadContainers(ctx, workDate)
	if doc == nil {
		return false
	}
	return doc.Containers.TaskCount() > 0
}

// Summary exposes per-bucket counts for inspection endpoints.
func (s *LeftoverService) Summary(ctx context.Context, workDate string) dto.LeftoverSummary {
	doc := s.docs.LoadContainers(ctx, workDate)
	if doc == nil {
		return dto.LeftoverSummary{}
	}
	summary := dto.LeftoverSummary{
		EarlyOut:     len(doc.Containers.EarlyOut.Tasks),
		HighPriority: len(doc.Containers.HighPriority.Tasks),
		LowPriority:  len(doc.Containers.LowPriority.Tasks),
	}
	summary.Total = summary.EarlyOut + summary.HighPriority + summary.LowPriority
	summary.HasLeftovers = summary.Total > 0
	return summary
}

// AggregateAssigned groups the current timeline's tasks by cleaner. A missing
// or malformed timeline yields an empty mapping, never an error.
func (s *LeftoverService) AggregateAssigned(ctx context.Context, workDate string) map[string][]models.Task {
	timeline := s.docs.LoadTimeline(ctx, workDate)
	assigned := make(map[string][]models.Task, len(timeline.CleanersAssignments))
	for _, assignment := range timeline.CleanersAssignments {
		key := strconv.FormatInt(assignment.Cleaner.ID, 10)
		assigned[key] = append(assigned[key], assignment.Tasks...)
	}
	return assigned
}

// AggregateLeftovers flattens the three buckets into one pool under the "all"
// key, tagging each task with its originating priority. Pool order is bucket
// order (early_out, high_priority, low_priority) and the re-optimizer uses it
// as a tie-break, so it is preserved exactly.
func (s *LeftoverService) AggregateLeftovers(ctx context.Context, workDate string) map[string][]models.Task {
	pool := []models.Task{}
	doc := s.docs.LoadContainers(ctx, workDate)
	if doc != nil {
		for _, priority := range models.BucketOrder {
			for _, task := range doc.Containers.Bucket(priority).Tasks {
				task.Priority = priority
				pool = append(pool, task)
			}
		}
	}
	return map[string][]models.Task{dto.LeftoverPoolKey: pool}
}

// CleanerNames maps cleaner IDs to display names from the current timeline,
// used to re-attach names after the optimizer round-trip.
func (s *LeftoverService) CleanerNames(ctx context.Context, workDate string) map[string]string {
	timeline := s.docs.LoadTimeline(ctx, workDate)
	names := make(map[string]string, len(timeline.CleanersAssignments))
	for _, assignment := range timeline.CleanersAssignments {
		if assignment.Cleaner.Name != "" {
			names[strconv.FormatInt(assignment.Cleaner.ID, 10)] = assignment.Cleaner.Name
		}
	}
	return names
}
