package handler

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/vellari/cleanops-api/internal/service"
	appErrors "github.com/vellari/cleanops-api/pkg/errors"
	"github.com/vellari/cleanops-api/pkg/response"
)

// ExportHandler exposes day-sheet export endpoints.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs handler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// Export godoc
// @Summary Render a downloadable day sheet for a work date
// @Tags Exports
// @Produce json
// @Param date path string true "Work date (YYYY-MM-DD)"
// @Param format query string false "csv or pdf" default(csv)
// @Success 201 {object} response.Envelope
// @Router /timeline/{date}/export [get]
func (h *ExportHandler) Export(c *gin.Context) {
	date, ok := workDate(c)
	if !ok {
		return
	}
	format := c.DefaultQuery("format", service.ExportFormatCSV)
	result, err := h.exports.Generate(c.Request.Context(), date, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Download godoc
// @Summary Stream a previously exported day sheet
// @Tags Exports
// @Produce octet-stream
// @Param token query string true "Signed download token"
// @Success 200 {file} binary
// @Router /exports/download [get]
func (h *ExportHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token required"))
		return
	}
	file, relPath, err := h.exports.ResolveDownload(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(relPath)))
	c.DataFromReader(http.StatusOK, info.Size(), "application/octet-stream", file, nil)
}
