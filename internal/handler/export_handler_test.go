package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vellari/cleanops-api/internal/service"
	"github.com/vellari/cleanops-api/pkg/storage"
)

func newExportHandlerForTest(t *testing.T, docs *docStoreStub) *ExportHandler {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	timelines := service.NewTimelineService(docs, &repoStub{}, zap.NewNop())
	exports := service.NewExportService(timelines, store, signer, zap.NewNop(), nil, nil)
	return NewExportHandler(exports)
}

func TestExportHandlerRejectsUnknownFormat(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newExportHandlerForTest(t, &docStoreStub{})

	c, w := newGinContext(http.MethodGet, "/timeline/2026-03-02/export?format=xlsx", nil)
	c.Params = gin.Params{{Key: "date", Value: "2026-03-02"}}

	handler.Export(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportHandlerCSVRoundTrip(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newExportHandlerForTest(t, &docStoreStub{})

	c, w := newGinContext(http.MethodGet, "/timeline/2026-03-02/export", nil)
	c.Params = gin.Params{{Key: "date", Value: "2026-03-02"}}

	handler.Export(c)
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestExportHandlerDownloadRequiresToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newExportHandlerForTest(t, &docStoreStub{})

	c, w := newGinContext(http.MethodGet, "/exports/download", nil)

	handler.Download(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportHandlerDownloadRejectsForgedToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newExportHandlerForTest(t, &docStoreStub{})

	c, w := newGinContext(http.MethodGet, "/exports/download?token=forged", nil)

	handler.Download(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
