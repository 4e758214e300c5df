package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edutrack/edutrack-api/internal/models"
	appErrors "github.com/edutrack/edutrack-api/pkg/errors"
)

type attendanceRepository interface {
	FindByStudentAndDate(ctx context.Context, studentID int64, date time.Time) (*models.Attendance, error)
	Upsert(ctx context.Context, a *models.Attendance) (*models.Attendance, error)
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.Attendance, int, error)
	StudentSummary(ctx context.Context, studentID int64) (*models.AttendanceSummary, error)
}

// AttendanceService manages daily attendance records. Present, absent and
// excused are mutually exclusive; late is an independent flag that may
// combine with any of them.
type AttendanceService struct {
	repo       attendanceRepository
	cache      summaryCache
	metrics    cacheMetrics
	validator  *validator.Validate
	logger     *zap.Logger
	summaryTTL time.Duration
}

// NewAttendanceService constructs an AttendanceService instance.
func NewAttendanceService(repo attendanceRepository, cache summaryCache, metrics cacheMetrics, validate *validator.Validate, logger *zap.Logger, summaryTTL time.Duration) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if summaryTTL <= 0 {
		summaryTTL = 5 * time.Minute
	}
	return &AttendanceService{
		repo:       repo,
		cache:      cache,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
		summaryTTL: summaryTTL,
	}
}

// Mark sets one attendance flag for a student on a day, creating the record
// when none exists. The exclusion rule runs against the stored flags before
// the upsert, so prior state is preserved except where the new flag displaces
// it.
func (s *AttendanceService) Mark(ctx context.Context, req models.MarkAttendanceRequest) (*models.Attendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}

	date, err := models.ParseDate(req.Date)
	if err != nil {
		return nil, err
	}

	record, err := s.repo.FindByStudentAndDate(ctx, req.StudentID, date)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
		}
		record = &models.Attendance{StudentID: req.StudentID, Date: date}
	}

	record.ApplyFlag(req.Flag, req.Value)
	if req.Notes != nil {
		record.Notes = req.Notes
	}

	stored, err := s.repo.Upsert(ctx, record)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save attendance")
	}

	s.invalidateSummary(ctx, req.StudentID)

	return stored, nil
}

// Get returns the attendance record for a student on a day.
func (s *AttendanceService) Get(ctx context.Context, studentID int64, rawDate string) (*models.Attendance, error) {
	date, err := models.ParseDate(rawDate)
	if err != nil {
		return nil, err
	}

	record, err := s.repo.FindByStudentAndDate(ctx, studentID, date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}

	return record, nil
}

// List returns attendance records matching the filter with pagination
// metadata.
func (s *AttendanceService) List(ctx context.Context, filter models.AttendanceFilter) ([]models.Attendance, *models.Pagination, error) {
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 50
	}

	return rows, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Summary returns a student's aggregated attendance counts, cached per
// student with a short TTL.
func (s *AttendanceService) Summary(ctx context.Context, studentID int64) (*models.AttendanceSummary, error) {
	key := s.summaryKey(studentID)
	if s.cache != nil {
		var cached models.AttendanceSummary
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			s.recordCache(true)
			return &cached, nil
		} else if appErrors.HasCode(err, appErrors.ErrCacheMiss) {
			s.recordCache(false)
		} else {
			s.logger.Warn("attendance summary cache read failed", zap.Error(err))
		}
	}

	summary, err := s.repo.StudentSummary(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to summarise attendance")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, summary, s.summaryTTL); err != nil {
			s.logger.Warn("attendance summary cache write failed", zap.Error(err))
		}
	}

	return summary, nil
}

func (s *AttendanceService) recordCache(hit bool) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordCacheOperation(hit)
}

func (s *AttendanceService) summaryKey(studentID int64) string {
	return fmt.Sprintf("attendance:summary:%d", studentID)
}

func (s *AttendanceService) invalidateSummary(ctx context.Context, studentID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, s.summaryKey(studentID)); err != nil {
		s.logger.Warn("attendance summary cache invalidation failed", zap.Error(err))
	}
}
