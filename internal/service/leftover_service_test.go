package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vellari/cleanops-api/internal/dto"
	"github.com/vellari/cleanops-api/internal/models"
)

type docsStub struct {
	timeline   *models.Timeline
	containers *models.ContainersDocument
}

func (s docsStub) LoadTimeline(ctx context.Context, workDate string) *models.Timeline {
	if s.timeline != nil {
		return s.timeline
	}
	return models.NewRecoveryTimeline(workDate)
}

func (s docsStub) LoadContainers(ctx context.Context, workDate string) *models.ContainersDocument {
	return s.containers
}

func containersWith(earlyOut, high, low []models.Task) *models.ContainersDocument {
	return &models.ContainersDocument{
		Containers: models.ContainerSet{
			EarlyOut:     models.Container{Tasks: earlyOut},
			HighPriority: models.Container{Tasks: high},
			LowPriority:  models.Container{Tasks: low},
		},
	}
}

func TestLeftoverServiceHasLeftoversMissingDocument(t *testing.T) {
	svc := NewLeftoverService(docsStub{}, zap.NewNop())
	assert.False(t, svc.HasLeftovers(context.Background(), "2026-03-02"))
}

func TestLeftoverServiceHasLeftoversEmptyBuckets(t *testing.T) {
	svc := NewLeftoverService(docsStub{containers: containersWith(nil, nil, nil)}, zap.NewNop())
	assert.False(t, svc.HasLeftovers(context.Background(), "2026-03-02"))
}

func TestLeftoverServiceHasLeftoversSingleTask(t *testing.T) {
	svc := NewLeftoverService(docsStub{
		containers: containersWith(nil, nil, []models.Task{{TaskID: 9}}),
	}, zap.NewNop())
	assert.True(t, svc.HasLeftovers(context.Background(), "2026-03-02"))
}

func TestLeftoverServiceAggregateLeftoversPreservesOrder(t *testing.T) {
	doc := containersWith(
		[]models.Task{{TaskID: 1}, {TaskID: 2}},
		[]models.Task{{TaskID: 3}},
		[]models.Task{{TaskID: 4}, {TaskID: 5}},
	)
	svc := NewLeftoverService(docsStub{containers: doc}, zap.NewNop())

	pools := svc.AggregateLeftovers(context.Background(), "2026-03-02")
	require.Len(t, pools, 1)
	pool := pools[dto.LeftoverPoolKey]
	require.Len(t, pool, 5)

	ids := make([]int64, 0, len(pool))
	for _, task := range pool {
		ids = append(ids, task.TaskID)
	}
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, ids)

	assert.Equal(t, models.PriorityEarlyOut, pool[0].Priority)
	assert.Equal(t, models.PriorityEarlyOut, pool[1].Priority)
	assert.Equal(t, models.PriorityHigh, pool[2].Priority)
	assert.Equal(t, models.PriorityLow, pool[3].Priority)
	assert.Equal(t, models.PriorityLow, pool[4].Priority)
}

func TestLeftoverServiceAggregateLeftoversMissingDocument(t *testing.T) {
	svc := NewLeftoverService(docsStub{}, zap.NewNop())
	pools := svc.AggregateLeftovers(context.Background(), "2026-03-02")
	require.Len(t, pools, 1)
	assert.Empty(t, pools[dto.LeftoverPoolKey])
}

func TestLeftoverServiceAggregateAssignedGroupsByCleaner(t *testing.T) {
	timeline := models.NewRecoveryTimeline("2026-03-02")
	timeline.CleanersAssignments = []models.CleanerAssignment{
		{Cleaner: models.Cleaner{ID: 7, Name: "Ada"}, Tasks: []models.Task{{TaskID: 1}, {TaskID: 2}}},
		{Cleaner: models.Cleaner{ID: 12, Name: "Bo"}, Tasks: []models.Task{{TaskID: 3}}},
	}
	svc := NewLeftoverService(docsStub{timeline: timeline}, zap.NewNop())

	assigned := svc.AggregateAssigned(context.Background(), "2026-03-02")
	require.Len(t, assigned, 2)
	assert.Len(t, assigned["7"], 2)
	assert.Len(t, assigned["12"], 1)
}

func TestLeftoverServiceSummary(t *testing.T) {
	doc := containersWith(
		[]models.Task{{TaskID: 1}},
		nil,
		[]models.Task{{TaskID: 2}, {TaskID: 3}},
	)
	svc := NewLeftoverService(docsStub{containers: doc}, zap.NewNop())

	summary := svc.Summary(context.Background(), "2026-03-02")
	assert.Equal(t, 1, summary.EarlyOut)
	assert.Equal(t, 0, summary.HighPriority)
	assert.Equal(t, 2, summary.LowPriority)
	assert.Equal(t, 3, summary.Total)
	assert.True(t, summary.HasLeftovers)
}

func TestLeftoverServiceCleanerNames(t *testing.T) {
	timeline := models.NewRecoveryTimeline("2026-03-02")
	timeline.CleanersAssignments = []models.CleanerAssignment{
		{Cleaner: models.Cleaner{ID: 7, Name: "Ada"}},
		{Cleaner: models.Cleaner{ID: 12}},
	}
	svc := NewLeftoverService(docsStub{timeline: timeline}, zap.NewNop())

	names := svc.CleanerNames(context.Background(), "2026-03-02")
	assert.Equal(t, map[string]string{"7": "Ada"}, names)
}
