package service

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vellari/cleanops-api/internal/models"
	appErrors "github.com/vellari/cleanops-api/pkg/errors"
	"github.com/vellari/cleanops-api/pkg/export"
	"github.com/vellari/cleanops-api/pkg/storage"
)

type timelineSourceStub struct {
	timeline *models.Timeline
}

func (s timelineSourceStub) Get(ctx context.Context, workDate string) *models.Timeline {
	if s.timeline != nil {
		return s.timeline
	}
	return models.NewRecoveryTimeline(workDate)
}

func newExportServiceForTest(t *testing.T, timeline *models.Timeline) (*ExportService, *storage.LocalStorage) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	svc := NewExportService(timelineSourceStub{timeline: timeline}, store, signer, zap.NewNop(), export.NewCSVExporter(), export.NewPDFExporter())
	return svc, store
}

func TestExportServiceGenerateCSV(t *testing.T) {
	svc, store := newExportServiceForTest(t, sampleTimeline("2026-03-02"))

	result, err := svc.Generate(context.Background(), "2026-03-02", ExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, ExportFormatCSV, result.Format)
	assert.NotEmpty(t, result.Token)
	assert.Contains(t, result.Filename, "2026-03-02")

	info, err := os.Stat(store.Path(result.Filename))
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))
}

func TestExportServiceGeneratePDF(t *testing.T) {
	svc, store := newExportServiceForTest(t, sampleTimeline("2026-03-02"))

	result, err := svc.Generate(context.Background(), "2026-03-02", ExportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, ExportFormatPDF, result.Format)

	info, err := os.Stat(store.Path(result.Filename))
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))
}

func TestExportServiceUnsupportedFormat(t *testing.T) {
	svc, _ := newExportServiceForTest(t, nil)

	_, err := svc.Generate(context.Background(), "2026-03-02", "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportServiceDownloadRoundTrip(t *testing.T) {
	svc, _ := newExportServiceForTest(t, sampleTimeline("2026-03-02"))

	result, err := svc.Generate(context.Background(), "2026-03-02", ExportFormatCSV)
	require.NoError(t, err)

	file, relPath, err := svc.ResolveDownload(result.Token)
	require.NoError(t, err)
	defer file.Close()
	assert.Equal(t, result.Filename, relPath)
}

func TestExportServiceDownloadRejectsTamperedToken(t *testing.T) {
	svc, _ := newExportServiceForTest(t, sampleTimeline("2026-03-02"))

	result, err := svc.Generate(context.Background(), "2026-03-02", ExportFormatCSV)
	require.NoError(t, err)

	_, _, err = svc.ResolveDownload(result.Token + "x")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportServiceEmptyTimelineStillRenders(t *testing.T) {
	svc, store := newExportServiceForTest(t, nil)

	result, err := svc.Generate(context.Background(), "2026-03-02", ExportFormatCSV)
	require.NoError(t, err)

	info, err := os.Stat(store.Path(result.Filename))
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))
}
