package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MarivaldoDev/sistema-escolar/internal/models"
	appErrors "github.com/MarivaldoDev/sistema-escolar/pkg/errors"
)

type exportArchive interface {
	Save(relPath string, data []byte) (string, error)
	Open(relPath string) (io.ReadCloser, error)
}

type exportLinkSigner interface {
	Generate(exportID, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (exportID, relPath string, expiresAt time.Time, err error)
}

type reportExporter interface {
	ExportCSV(ctx context.Context, actor models.Actor, studentID string, year int) ([]byte, error)
	ExportPDF(ctx context.Context, actor models.Actor, studentID string, year int) ([]byte, error)
}

// ExportService archives rendered report cards on disk and hands out signed
// download links for them. Access control happens when the export is
// rendered; the link itself then works without an account.
type ExportService struct {
	archive exportArchive
	signer  exportLinkSigner
	reports reportExporter
	logger  *zap.Logger
}

// NewExportService constructs an ExportService instance.
func NewExportService(archive exportArchive, signer exportLinkSigner, reports reportExporter, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{archive: archive, signer: signer, reports: reports, logger: logger}
}

// Archive renders a report card in the requested format, stores the file and
// returns a signed download link.
func (s *ExportService) Archive(ctx context.Context, actor models.Actor, studentID string, year int, format string) (*models.ExportLink, error) {
	var (
		data []byte
		err  error
	)
	switch format {
	case "csv":
		data, err = s.reports.ExportCSV(ctx, actor, studentID, year)
	case "pdf":
		data, err = s.reports.ExportPDF(ctx, actor, studentID, year)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	relPath := fmt.Sprintf("boletins/%s/%d/%s.%s", studentID, year, id, format)
	if _, err := s.archive.Save(relPath, data); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to archive export")
	}

	token, expiresAt, err := s.signer.Generate(id, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}

	s.logger.Info("export archived",
		zap.String("export_id", id),
		zap.String("student_id", studentID),
		zap.String("format", format),
	)

	return &models.ExportLink{ID: id, Format: format, Token: token, ExpiresAt: expiresAt}, nil
}

// OpenDownload validates a signed token and opens the archived file. It
// returns the reader, the content type and a download filename.
func (s *ExportService) OpenDownload(token string) (io.ReadCloser, string, string, error) {
	exportID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download link")
	}

	file, err := s.archive.Open(relPath)
	if err != nil {
		return nil, "", "", appErrors.Clone(appErrors.ErrNotFound, "export no longer available")
	}

	contentType := "application/octet-stream"
	ext := "bin"
	switch {
	case strings.HasSuffix(relPath, ".csv"):
		contentType = "text/csv"
		ext = "csv"
	case strings.HasSuffix(relPath, ".pdf"):
		contentType = "application/pdf"
		ext = "pdf"
	}

	return file, contentType, fmt.Sprintf("boletim_%s.%s", exportID, ext), nil
}
