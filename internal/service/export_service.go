package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/result-ledger-api/internal/grading"
	"github.com/noah-isme/result-ledger-api/internal/models"
	"github.com/noah-isme/result-ledger-api/pkg/export"
	"github.com/noah-isme/result-ledger-api/pkg/storage"
)

type ledgerTableSource interface {
	Table(ctx context.Context, scope models.ResultScope, mode models.LedgerMode) (grading.Table, error)
}

type marksheetSource interface {
	Marksheets(ctx context.Context, scope models.ResultScope, studentID *string) ([]models.Marksheet, error)
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
	RenderSheets(sheets []export.Sheet) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
	// SchoolName heads marksheets whose school record carries no name.
	SchoolName string
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

// ExportService renders ledgers and marksheets and persists the files.
type ExportService struct {
	ledgers    ledgerTableSource
	marksheets marksheetSource
	storage    fileStorage
	csv        csvRenderer
	pdf        pdfRenderer
	signer     *storage.SignedURLSigner
	logger     *zap.Logger
	cfg        ExportConfig
	now        func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(ledgers ledgerTableSource, marksheets marksheetSource, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		ledgers:    ledgers,
		marksheets: marksheets,
		storage:    store,
		csv:        csv,
		pdf:        pdf,
		signer:     signer,
		logger:     logger,
		cfg:        cfg,
		now:        time.Now,
	}
}

// Generate renders the job's report, stores it and signs a download URL.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	payload, err := s.render(ctx, job)
	if err != nil {
		return nil, err
	}

	relPath, err := s.storage.Save(s.buildFilename(job), payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	s.logger.Debug("export generated", zap.String("job_id", job.ID), zap.String("path", relPath), zap.Int("bytes", len(payload)))
	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/export/%s", prefix, token),
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates a download token.
func (s *ExportService) ParseToken(token string, allowExpired bool) (storage.DownloadClaims, error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) render(ctx context.Context, job *models.ReportJob) ([]byte, error) {
	scope := job.Params.Scope()
	switch job.Type {
	case models.ReportTypeMarkLedger, models.ReportTypeGradeLedger:
		mode := models.LedgerModeMarks
		title := "Mark Ledger"
		if job.Type == models.ReportTypeGradeLedger {
			mode = models.LedgerModeGrades
			title = "Grade Ledger"
		}
		table, err := s.ledgers.Table(ctx, scope, mode)
		if err != nil {
			return nil, err
		}
		dataset := export.NewDataset(table.Headers, table.Rows)
		switch job.Params.Format {
		case models.ReportFormatCSV:
			return s.csv.Render(dataset)
		case models.ReportFormatPDF:
			return s.pdf.Render(dataset, fmt.Sprintf("%s grade %d (%s)", title, scope.Grade, scope.AcademicYear))
		}
		return nil, fmt.Errorf("unsupported format %s", job.Params.Format)
	case models.ReportTypeMarksheets:
		if job.Params.Format != models.ReportFormatPDF {
			return nil, fmt.Errorf("marksheets are only rendered as pdf")
		}
		sheets, err := s.marksheets.Marksheets(ctx, scope, job.Params.StudentID)
		if err != nil {
			return nil, err
		}
		if len(sheets) == 0 {
			return nil, fmt.Errorf("no students in scope")
		}
		pages := make([]export.Sheet, 0, len(sheets))
		for _, sheet := range sheets {
			pages = append(pages, s.marksheetPage(sheet))
		}
		return s.pdf.RenderSheets(pages)
	default:
		return nil, fmt.Errorf("unsupported report type %s", job.Type)
	}
}

func (s *ExportService) marksheetPage(sheet models.Marksheet) export.Sheet {
	title := s.cfg.SchoolName
	if sheet.School != nil && sheet.School.Name != "" {
		title = sheet.School.Name
	}
	table := grading.MarksheetTable(sheet)
	page := export.Sheet{
		Title:    title,
		Subtitle: "Grade Sheet",
		Info: []export.Field{
			{Label: "Name", Value: sheet.Student.FullName},
			{Label: "Roll No", Value: sheet.Student.RollNumber},
			{Label: "Symbol No", Value: sheet.Student.SymbolNumber},
			{Label: "Grade", Value: fmt.Sprintf("%d", sheet.Student.Grade)},
			{Label: "Academic Year", Value: sheet.Student.AcademicYear},
		},
		Table: export.NewDataset(table.Headers, table.Rows),
		Footer: []export.Field{
			{Label: "Grade Point Average (GPA)", Value: sheet.GPADisplay},
			{Label: "Final Grade", Value: sheet.FinalGrade},
		},
	}
	if sheet.Status != models.GradeStatusGraded {
		page.Footer = append(page.Footer, export.Field{Label: "Remarks", Value: string(sheet.Status)})
	}
	return page
}

func (s *ExportService) buildFilename(job *models.ReportJob) string {
	timestamp := s.now().UTC().Format("20060102_150405")
	scope := fmt.Sprintf("%s_%s_%d", job.Params.SchoolID, job.Params.AcademicYear, job.Params.Grade)
	if job.Params.StudentID != nil {
		scope += "_" + *job.Params.StudentID
	}
	return fmt.Sprintf("%s_%s_%s.%s", strings.ToLower(string(job.Type)), sanitizeFilename(scope), timestamp, job.Params.Format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
