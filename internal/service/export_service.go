package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vellari/cleanops-api/internal/dto"
	"github.com/vellari/cleanops-api/internal/models"
	appErrors "github.com/vellari/cleanops-api/pkg/errors"
	"github.com/vellari/cleanops-api/pkg/export"
	"github.com/vellari/cleanops-api/pkg/storage"
)

// Supported day-sheet formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

type timelineReader interface {
	Get(ctx context.Context, workDate string) *models.Timeline
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportService renders a WorkDate's timeline into a downloadable day sheet.
type ExportService struct {
	timelines timelineReader
	storage   fileStorage
	csv       csvRenderer
	pdf       pdfRenderer
	signer    *storage.SignedURLSigner
	logger    *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(timelines timelineReader, store fileStorage, signer *storage.SignedURLSigner, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		timelines: timelines,
		storage:   store,
		csv:       csv,
		pdf:       pdf,
		signer:    signer,
		logger:    logger,
	}
}

// Generate renders the day sheet and returns a signed download reference.
func (s *ExportService) Generate(ctx context.Context, workDate, format string) (*dto.ExportResponse, error) {
	dataset := daySheetDataset(s.timelines.Get(ctx, workDate))
	title := fmt.Sprintf("Cleaning day sheet %s", workDate)

	var payload []byte
	var err error
	switch format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render day sheet")
	}

	exportID := uuid.NewString()
	filename := fmt.Sprintf("day-sheet-%s-%s.%s", workDate, exportID, format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store day sheet")
	}

	token, expiresAt, err := s.signer.Generate(exportID, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download token")
	}

	s.logger.Info("day sheet exported",
		zap.String("work_date", workDate),
		zap.String("format", format),
		zap.String("export_id", exportID))
	return &dto.ExportResponse{
		ExportID:  exportID,
		Filename:  filename,
		Format:    format,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// ResolveDownload validates a token and opens the file it points at.
func (s *ExportService) ResolveDownload(token string) (*os.File, string, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid download token")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", appErrors.ErrNotFound
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export")
	}
	return file, relPath, nil
}

// CleanupExpired removes day sheets older than ttl.
func (s *ExportService) CleanupExpired(ttl time.Duration) {
	removed, err := s.storage.CleanupOlderThan(ttl)
	if err != nil {
		s.logger.Warn("export cleanup failed", zap.Error(err))
		return
	}
	if len(removed) > 0 {
		s.logger.Info("expired exports removed", zap.Int("count", len(removed)))
	}
}

// daySheetDataset flattens the timeline into tabular rows, one per visit,
// in cleaner then sequence order.
func daySheetDataset(timeline *models.Timeline) export.Dataset {
	dataset := export.Dataset{
		Headers: []string{"Cleaner ID", "Cleaner", "Seq", "Task", "Logistic Code", "Start", "End", "Cleaning Min", "Travel Min", "Priority"},
	}
	for _, assignment := range timeline.CleanersAssignments {
		for _, task := range assignment.Tasks {
			dataset.Rows = append(dataset.Rows, map[string]string{
				"Cleaner ID":    strconv.FormatInt(assignment.Cleaner.ID, 10),
				"Cleaner":       assignment.Cleaner.Name,
				"Seq":           strconv.Itoa(task.Sequence),
				"Task":          strconv.FormatInt(task.TaskID, 10),
				"Logistic Code": task.LogisticCode,
				"Start":         task.StartTime,
				"End":           task.EndTime,
				"Cleaning Min":  strconv.Itoa(task.CleaningTime),
				"Travel Min":    strconv.Itoa(task.TravelTime),
				"Priority":      string(task.Priority),
			})
		}
	}
	return dataset
}
