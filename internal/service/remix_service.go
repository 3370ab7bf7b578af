package service

import (
	"context"
	"sort"
	"strconv"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/vellari/cleanops-api/internal/docstore"
	"github.com/vellari/cleanops-api/internal/dto"
	"github.com/vellari/cleanops-api/internal/models"
	appErrors "github.com/vellari/cleanops-api/pkg/errors"
)

type leftoverAggregator interface {
	HasLeftovers(ctx context.Context, workDate string) bool
	AggregateAssigned(ctx context.Context, workDate string) map[string][]models.Task
	AggregateLeftovers(ctx context.Context, workDate string) map[string][]models.Task
	CleanerNames(ctx context.Context, workDate string) map[string]string
}

type optimizerInvoker interface {
	Invoke(ctx context.Context, request dto.OptimizerRequest) (*dto.OptimizerResponse, error)
}

type timelinePersister interface {
	Save(ctx context.Context, workDate string, doc *models.Timeline, actor string) (int, error)
}

type containerRemover interface {
	Delete(ctx context.Context, kind docstore.Kind, workDate string) error
}

// RemixObserver receives counters from completed remix passes. Hooked up to
// Prometheus in production, no-op by default.
type RemixObserver interface {
	RemixPass(remixed bool)
	LeftoversRedistributed(count int)
}

type nopRemixObserver struct{}

func (nopRemixObserver) RemixPass(bool)             {}
func (nopRemixObserver) LeftoversRedistributed(int) {}

// RemixService orchestrates one re-optimization pass: detect leftovers, feed
// the current schedule plus the leftover pool to the external optimizer, and
// persist the merged timeline it returns. Any optimizer failure aborts the
// pass with the existing timeline untouched.
type RemixService struct {
	leftovers leftoverAggregator
	optimizer optimizerInvoker
	timelines timelinePersister
	docs      containerRemover
	dayStart  string
	validate  *validator.Validate
	observer  RemixObserver
	logger    *zap.Logger
}

// NewRemixService constructs the service. dayStart is the HH:MM the optimizer
// schedules the first visit from.
func NewRemixService(leftovers leftoverAggregator, optimizer optimizerInvoker, timelines timelinePersister, docs containerRemover, dayStart string, logger *zap.Logger) *RemixService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RemixService{
		leftovers: leftovers,
		optimizer: optimizer,
		timelines: timelines,
		docs:      docs,
		dayStart:  dayStart,
		validate:  validator.New(),
		observer:  nopRemixObserver{},
		logger:    logger,
	}
}

// SetObserver installs a metrics sink for completed passes.
func (s *RemixService) SetObserver(observer RemixObserver) {
	if observer != nil {
		s.observer = observer
	}
}

// Remix runs one pass for the command's WorkDate. When no leftovers exist
// the pass is a no-op: nothing is written, nothing is invoked.
func (s *RemixService) Remix(ctx context.Context, cmd dto.RemixCommand) (*dto.RemixResult, error) {
	if err := s.validate.Struct(cmd); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid remix command")
	}

	if !s.leftovers.HasLeftovers(ctx, cmd.WorkDate) {
		s.logger.Info("remix skipped, no leftovers", zap.String("work_date", cmd.WorkDate))
		s.observer.RemixPass(false)
		return &dto.RemixResult{Remixed: false, LeftoversCount: 0}, nil
	}

	assigned := s.leftovers.AggregateAssigned(ctx, cmd.WorkDate)
	leftovers := s.leftovers.AggregateLeftovers(ctx, cmd.WorkDate)
	pool := leftovers[dto.LeftoverPoolKey]
	if len(pool) == 0 {
		// Containers emptied between the check and the aggregation.
		s.observer.RemixPass(false)
		return &dto.RemixResult{Remixed: false, LeftoversCount: 0}, nil
	}

	response, err := s.optimizer.Invoke(ctx, dto.OptimizerRequest{
		DayStart:           s.dayStart,
		AssignedByCleaner:  assigned,
		LeftoversByCleaner: leftovers,
	})
	if err != nil {
		s.logger.Error("remix aborted, optimizer failed",
			zap.String("work_date", cmd.WorkDate),
			zap.Int("leftovers", len(pool)),
			zap.Error(err))
		return nil, err
	}

	mapping := response.TimelineByCleaner
	if len(mapping) == 0 {
		// Worker answered but proposed nothing; keep the current assignments.
		s.logger.Warn("optimizer returned empty mapping, keeping current assignments",
			zap.String("work_date", cmd.WorkDate))
		mapping = assigned
	}

	doc := s.buildTimeline(ctx, cmd.WorkDate, mapping)
	if _, err := s.timelines.Save(ctx, cmd.WorkDate, doc, cmd.Actor); err != nil {
		return nil, err
	}

	if s.docs != nil {
		if err := s.docs.Delete(ctx, docstore.KindContainers, cmd.WorkDate); err != nil {
			// The pool is stale but the timeline is already durable.
			s.logger.Warn("failed to clear containers after remix",
				zap.String("work_date", cmd.WorkDate),
				zap.Error(err))
		}
	}

	s.observer.RemixPass(true)
	s.observer.LeftoversRedistributed(len(pool))
	s.logger.Info("remix completed",
		zap.String("work_date", cmd.WorkDate),
		zap.Int("leftovers", len(pool)),
		zap.Int("cleaners", len(doc.CleanersAssignments)))
	return &dto.RemixResult{Remixed: true, LeftoversCount: len(pool)}, nil
}

// buildTimeline converts the optimizer's per-cleaner mapping back into a
// timeline document: cleaner sections ordered by numeric ID, sequences
// renumbered from 1 in visit order, display names re-attached.
func (s *RemixService) buildTimeline(ctx context.Context, workDate string, mapping map[string][]models.Task) *models.Timeline {
	names := s.leftovers.CleanerNames(ctx, workDate)

	keys := make([]string, 0, len(mapping))
	for key := range mapping {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.ParseInt(keys[i], 10, 64)
		b, errB := strconv.ParseInt(keys[j], 10, 64)
		if errA != nil || errB != nil {
			return keys[i] < keys[j]
		}
		return a < b
	})

	doc := models.NewRecoveryTimeline(workDate)
	for _, key := range keys {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			s.logger.Warn("dropping optimizer section with non-numeric cleaner id",
				zap.String("work_date", workDate),
				zap.String("cleaner_key", key))
			continue
		}
		tasks := make([]models.Task, len(mapping[key]))
		copy(tasks, mapping[key])
		for i := range tasks {
			tasks[i].Sequence = i + 1
		}
		doc.CleanersAssignments = append(doc.CleanersAssignments, models.CleanerAssignment{
			Cleaner: models.Cleaner{ID: id, Name: names[key]},
			Tasks:   tasks,
		})
	}
	return doc
}
