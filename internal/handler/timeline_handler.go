package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vellari/cleanops-api/internal/dto"
	"github.com/vellari/cleanops-api/internal/models"
	"github.com/vellari/cleanops-api/internal/service"
	appErrors "github.com/vellari/cleanops-api/pkg/errors"
	"github.com/vellari/cleanops-api/pkg/response"
)

const workDateLayout = "2006-01-02"

// workDate extracts and validates the :date path parameter.
func workDate(c *gin.Context) (string, bool) {
	raw := c.Param("date")
	if _, err := time.Parse(workDateLayout, raw); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD"))
		return "", false
	}
	return raw, true
}

// TimelineHandler exposes the scheduling timeline endpoints.
type TimelineHandler struct {
	timelines *service.TimelineService
	leftovers *service.LeftoverService
	remix     *service.RemixService
}

// NewTimelineHandler constructs handler.
func NewTimelineHandler(timelines *service.TimelineService, leftovers *service.LeftoverService, remix *service.RemixService) *TimelineHandler {
	return &TimelineHandler{timelines: timelines, leftovers: leftovers, remix: remix}
}

// Get godoc
// @Summary Current timeline for a work date
// @Tags Timeline
// @Produce json
// @Param date path string true "Work date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /timeline/{date} [get]
func (h *TimelineHandler) Get(c *gin.Context) {
	date, ok := workDate(c)
	if !ok {
		return
	}
	doc := h.timelines.Get(c.Request.Context(), date)
	response.JSON(c, http.StatusOK, doc, nil)
}

// Put godoc
// @Summary Replace the timeline for a work date
// @Tags Timeline
// @Accept json
// @Produce json
// @Param date path string true "Work date (YYYY-MM-DD)"
// @Param actor query string false "Audit actor"
// @Param timeline body models.Timeline true "Timeline document"
// @Success 200 {object} response.Envelope
// @Router /timeline/{date} [put]
func (h *TimelineHandler) Put(c *gin.Context) {
	date, ok := workDate(c)
	if !ok {
		return
	}
	var doc models.Timeline
	if err := c.ShouldBindJSON(&doc); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	written, err := h.timelines.Save(c.Request.Context(), date, &doc, c.Query("actor"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"work_date": date, "rows": written}, nil)
}

// Rows godoc
// @Summary Flattened assignment rows for a work date
// @Tags Timeline
// @Produce json
// @Param date path string true "Work date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /timeline/{date}/rows [get]
func (h *TimelineHandler) Rows(c *gin.Context) {
	date, ok := workDate(c)
	if !ok {
		return
	}
	rows, err := h.timelines.Rows(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, map[string]interface{}{"count": len(rows)})
}

// Remix godoc
// @Summary Re-optimize leftover tasks into the timeline
// @Tags Timeline
// @Accept json
// @Produce json
// @Param date path string true "Work date (YYYY-MM-DD)"
// @Param command body dto.RemixCommand false "Remix options"
// @Success 200 {object} response.Envelope
// @Router /timeline/{date}/remix [post]
func (h *TimelineHandler) Remix(c *gin.Context) {
	date, ok := workDate(c)
	if !ok {
		return
	}
	var cmd dto.RemixCommand
	// The body is optional, and chunked requests report ContentLength -1,
	// so bind unconditionally and treat an empty body as no options.
	if err := c.ShouldBindJSON(&cmd); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	cmd.WorkDate = date
	result, err := h.remix.Remix(c.Request.Context(), cmd)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Snapshot godoc
// @Summary Freeze the current timeline into a new revision
// @Tags Revisions
// @Accept json
// @Produce json
// @Param date path string true "Work date (YYYY-MM-DD)"
// @Param request body dto.SnapshotRequest true "Snapshot request"
// @Success 201 {object} response.Envelope
// @Router /timeline/{date}/revisions [post]
func (h *TimelineHandler) Snapshot(c *gin.Context) {
	date, ok := workDate(c)
	if !ok {
		return
	}
	var req dto.SnapshotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	revision, tasks, err := h.timelines.Snapshot(c.Request.Context(), date, req.CreatedBy)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.SnapshotResponse{Revision: revision, TaskCount: tasks})
}

// Revisions godoc
// @Summary List timeline revisions, newest first
// @Tags Revisions
// @Produce json
// @Param date path string true "Work date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /timeline/{date}/revisions [get]
func (h *TimelineHandler) Revisions(c *gin.Context) {
	date, ok := workDate(c)
	if !ok {
		return
	}
	summaries, err := h.timelines.Revisions(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summaries, map[string]interface{}{"count": len(summaries)})
}

// Revision godoc
// @Summary Rows frozen in one revision
// @Tags Revisions
// @Produce json
// @Param date path string true "Work date (YYYY-MM-DD)"
// @Param rev path int true "Revision number"
// @Success 200 {object} response.Envelope
// @Router /timeline/{date}/revisions/{rev} [get]
func (h *TimelineHandler) Revision(c *gin.Context) {
	date, ok := workDate(c)
	if !ok {
		return
	}
	revision, ok := revisionParam(c)
	if !ok {
		return
	}
	rows, err := h.timelines.Revision(c.Request.Context(), date, revision)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, map[string]interface{}{"revision": revision})
}

// Restore godoc
// @Summary Roll the timeline back to a revision
// @Tags Revisions
// @Accept json
// @Produce json
// @Param date path string true "Work date (YYYY-MM-DD)"
// @Param rev path int true "Revision number"
// @Param request body dto.RestoreRequest true "Restore request"
// @Success 200 {object} response.Envelope
// @Router /timeline/{date}/revisions/{rev}/restore [post]
func (h *TimelineHandler) Restore(c *gin.Context) {
	date, ok := workDate(c)
	if !ok {
		return
	}
	revision, ok := revisionParam(c)
	if !ok {
		return
	}
	var req dto.RestoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	doc, err := h.timelines.Restore(c.Request.Context(), date, revision, req.RestoredBy)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, doc, map[string]interface{}{"restored_from": revision})
}

// Leftovers godoc
// @Summary Leftover bucket counts for a work date
// @Tags Containers
// @Produce json
// @Param date path string true "Work date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /containers/{date} [get]
func (h *TimelineHandler) Leftovers(c *gin.Context) {
	date, ok := workDate(c)
	if !ok {
		return
	}
	summary := h.leftovers.Summary(c.Request.Context(), date)
	response.JSON(c, http.StatusOK, summary, nil)
}

// PutContainers godoc
// @Summary Replace the leftover containers for a work date
// @Tags Containers
// @Accept json
// @Produce json
// @Param date path string true "Work date (YYYY-MM-DD)"
// @Param document body models.ContainersDocument true "Containers document"
// @Success 200 {object} response.Envelope
// @Router /containers/{date} [put]
func (h *TimelineHandler) PutContainers(c *gin.Context) {
	date, ok := workDate(c)
	if !ok {
		return
	}
	var doc models.ContainersDocument
	if err := c.ShouldBindJSON(&doc); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	if err := h.timelines.SaveContainers(c.Request.Context(), date, &doc); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"work_date": date, "tasks": doc.Containers.TaskCount()}, nil)
}

// SelectedCleaners godoc
// @Summary Cleaners selected for a work date
// @Tags Cleaners
// @Produce json
// @Param date path string true "Work date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /cleaners/{date} [get]
func (h *TimelineHandler) SelectedCleaners(c *gin.Context) {
	date, ok := workDate(c)
	if !ok {
		return
	}
	doc := h.timelines.SelectedCleaners(c.Request.Context(), date)
	if doc == nil {
		response.Error(c, appErrors.ErrNotFound)
		return
	}
	response.JSON(c, http.StatusOK, doc, nil)
}

// PutSelectedCleaners godoc
// @Summary Replace the selected cleaners for a work date
// @Tags Cleaners
// @Accept json
// @Produce json
// @Param date path string true "Work date (YYYY-MM-DD)"
// @Param document body models.SelectedCleanersDocument true "Selected cleaners"
// @Success 200 {object} response.Envelope
// @Router /cleaners/{date} [put]
func (h *TimelineHandler) PutSelectedCleaners(c *gin.Context) {
	date, ok := workDate(c)
	if !ok {
		return
	}
	var doc models.SelectedCleanersDocument
	if err := c.ShouldBindJSON(&doc); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	if err := h.timelines.SaveSelectedCleaners(c.Request.Context(), date, &doc); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"work_date": date, "cleaners": len(doc.Cleaners)}, nil)
}

func revisionParam(c *gin.Context) (int, bool) {
	revision, err := strconv.Atoi(c.Param("rev"))
	if err != nil || revision < 1 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "rev must be a positive integer"))
		return 0, false
	}
	return revision, true
}
