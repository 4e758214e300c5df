package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edutrack/edutrack-api/internal/models"
	appErrors "github.com/edutrack/edutrack-api/pkg/errors"
	"github.com/edutrack/edutrack-api/pkg/export"
)

type exportAssessmentReader interface {
	ListByStudent(ctx context.Context, studentID int64) ([]models.Assessment, error)
}

type exportAttendanceReader interface {
	ListByStudentRange(ctx context.Context, studentID int64, from, to time.Time) ([]models.Attendance, error)
}

type exportUserReader interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

type exportStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type urlSigner interface {
	Generate(exportID, relPath string) (string, time.Time, error)
	Parse(token string) (exportID, relPath string, expiresAt time.Time, err error)
}

// Renderer turns a dataset into file bytes.
type Renderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportService renders student reports to CSV or PDF files and hands out
// signed, expiring download tokens for them.
type ExportService struct {
	assessments exportAssessmentReader
	attendance  exportAttendanceReader
	users       exportUserReader
	storage     exportStorage
	signer      urlSigner
	renderers   map[export.Format]Renderer
	retention   time.Duration
	audit       auditor
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewExportService constructs an ExportService instance.
func NewExportService(
	assessments exportAssessmentReader,
	attendance exportAttendanceReader,
	users exportUserReader,
	storage exportStorage,
	signer urlSigner,
	renderers map[export.Format]Renderer,
	retention time.Duration,
	audit auditor,
	validate *validator.Validate,
	logger *zap.Logger,
) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ExportService{
		assessments: assessments,
		attendance:  attendance,
		users:       users,
		storage:     storage,
		signer:      signer,
		renderers:   renderers,
		retention:   retention,
		audit:       audit,
		validator:   validate,
		logger:      logger,
		now:         time.Now,
	}
}

// Generate renders the requested report and returns a signed download token.
func (s *ExportService) Generate(ctx context.Context, actorID int64, req models.ExportRequest) (*models.ExportResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export payload")
	}

	format := export.Format(req.Format)
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", req.Format))
	}

	student, err := s.users.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	var dataset export.Dataset
	switch req.Report {
	case "assessments":
		dataset, err = s.assessmentDataset(ctx, student)
	case "attendance":
		dataset, err = s.attendanceDataset(ctx, student, req.DateFrom, req.DateTo)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported report %q", req.Report))
	}
	if err != nil {
		return nil, err
	}

	payload, err := renderer.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	exportID := uuid.NewString()
	fileName := fmt.Sprintf("%s-%s-%s.%s", req.Report, s.now().UTC().Format("20060102"), exportID, format.Extension())

	relPath, err := s.storage.Save(fileName, payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}

	s.reapExpired()

	token, expiresAt, err := s.signer.Generate(exportID, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download url")
	}

	s.record(&models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionExport,
		Resource:   "exports",
		ResourceID: &req.StudentID,
		NewValues:  []byte(fmt.Sprintf(`{"report":%q,"format":%q}`, req.Report, req.Format)),
	})

	return &models.ExportResult{
		ExportID:    exportID,
		FileName:    fileName,
		Format:      string(format),
		RowCount:    len(dataset.Rows),
		DownloadURL: fmt.Sprintf("/exports/download?token=%s", token),
		ExpiresAt:   expiresAt.UTC().Format(time.RFC3339),
	}, nil
}

// Resolve validates a signed token and opens the referenced file. Tampered
// or expired tokens fail with unauthorized.
func (s *ExportService) Resolve(token string) (*os.File, string, error) {
	_, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download token")
	}

	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "export file no longer available")
	}

	return file, relPath, nil
}

func (s *ExportService) assessmentDataset(ctx context.Context, student *models.User) (export.Dataset, error) {
	rows, err := s.assessments.ListByStudent(ctx, student.ID)
	if err != nil {
		return export.Dataset{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessments")
	}

	today := s.now()
	dataset := export.Dataset{
		Title:   fmt.Sprintf("Assessments - %s", student.FullName()),
		Headers: []string{"Title", "Subject", "Type", "Due Date", "Status"},
	}
	for _, a := range rows {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Title":    a.Title,
			"Subject":  a.Subject,
			"Type":     string(a.Type),
			"Due Date": a.DueDate.Format("2006-01-02"),
			"Status":   string(a.CurrentStatus(today)),
		})
	}
	return dataset, nil
}

func (s *ExportService) attendanceDataset(ctx context.Context, student *models.User, rawFrom, rawTo string) (export.Dataset, error) {
	from := time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	to := s.now().UTC()

	if rawFrom != "" {
		parsed, err := models.ParseDate(rawFrom)
		if err != nil {
			return export.Dataset{}, err
		}
		from = parsed
	}
	if rawTo != "" {
		parsed, err := models.ParseDate(rawTo)
		if err != nil {
			return export.Dataset{}, err
		}
		to = parsed
	}

	rows, err := s.attendance.ListByStudentRange(ctx, student.ID, from, to)
	if err != nil {
		return export.Dataset{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}

	dataset := export.Dataset{
		Title:   fmt.Sprintf("Attendance - %s", student.FullName()),
		Headers: []string{"Date", "Present", "Absent", "Late", "Excused", "Notes"},
	}
	for _, a := range rows {
		notes := ""
		if a.Notes != nil {
			notes = *a.Notes
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Date":    a.Date.Format("2006-01-02"),
			"Present": boolMark(a.Present),
			"Absent":  boolMark(a.Absent),
			"Late":    boolMark(a.Late),
			"Excused": boolMark(a.Excused),
			"Notes":   notes,
		})
	}
	return dataset, nil
}

// reapExpired removes export files past their retention window. Best effort;
// a failed sweep never fails the export that triggered it.
func (s *ExportService) reapExpired() {
	if s.retention <= 0 {
		return
	}
	removed, err := s.storage.CleanupOlderThan(s.retention)
	if err != nil {
		s.logger.Warn("export cleanup failed", zap.Error(err))
		return
	}
	if len(removed) > 0 {
		s.logger.Info("removed expired export files", zap.Int("count", len(removed)))
	}
}

func (s *ExportService) record(entry *models.AuditLog) {
	if s.audit == nil {
		return
	}
	s.audit.Record(entry)
}

func boolMark(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
