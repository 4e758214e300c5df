package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edutrack/edutrack-api/internal/models"
	appErrors "github.com/edutrack/edutrack-api/pkg/errors"
)

type assessmentRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Assessment, error)
	Create(ctx context.Context, a *models.Assessment) error
	Update(ctx context.Context, a *models.Assessment) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter models.AssessmentFilter) ([]models.Assessment, int, error)
	ListByStudent(ctx context.Context, studentID int64) ([]models.Assessment, error)
}

type summaryCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type cacheMetrics interface {
	RecordCacheOperation(hit bool)
}

// AssessmentService manages assessment records and their lifecycle status.
// Status is classified once when the record is written; the stored value is
// deliberately left stale afterwards, and read paths that need freshness
// reclassify from the due date on demand.
type AssessmentService struct {
	repo       assessmentRepository
	cache      summaryCache
	metrics    cacheMetrics
	audit      auditor
	validator  *validator.Validate
	logger     *zap.Logger
	summaryTTL time.Duration
	now        func() time.Time
}

// NewAssessmentService constructs an AssessmentService instance.
func NewAssessmentService(repo assessmentRepository, cache summaryCache, metrics cacheMetrics, audit auditor, validate *validator.Validate, logger *zap.Logger, summaryTTL time.Duration) *AssessmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if summaryTTL <= 0 {
		summaryTTL = 5 * time.Minute
	}
	svc := &AssessmentService{
		repo:       repo,
		cache:      cache,
		metrics:    metrics,
		audit:      audit,
		validator:  validate,
		logger:     logger,
		summaryTTL: summaryTTL,
		now:        time.Now,
	}
	RegisterCustomValidations(svc.validator)
	return svc
}

// Create classifies the status against today and persists the record.
func (s *AssessmentService) Create(ctx context.Context, req models.CreateAssessmentRequest) (*models.Assessment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assessment payload")
	}

	due, err := models.ParseDate(req.DueDate)
	if err != nil {
		return nil, err
	}

	a := &models.Assessment{
		StudentID: req.StudentID,
		Title:     strings.TrimSpace(req.Title),
		Subject:   strings.TrimSpace(req.Subject),
		DueDate:   due,
		Status:    models.ClassifyStatus(due, s.now()),
		Type:      req.Type,
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assessment")
	}

	s.invalidateSummary(ctx, a.StudentID)

	return a, nil
}

// Get returns an assessment by identifier.
func (s *AssessmentService) Get(ctx context.Context, id int64) (*models.Assessment, error) {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assessment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessment")
	}
	return a, nil
}

// Update overwrites the mutable fields and reclassifies the stored status
// against today. Updating an identifier with no record fails with not found.
func (s *AssessmentService) Update(ctx context.Context, id int64, req models.UpdateAssessmentRequest) (*models.Assessment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assessment payload")
	}

	due, err := models.ParseDate(req.DueDate)
	if err != nil {
		return nil, err
	}

	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assessment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessment")
	}

	a.Title = strings.TrimSpace(req.Title)
	a.Subject = strings.TrimSpace(req.Subject)
	a.DueDate = due
	a.Type = req.Type
	a.Status = models.ClassifyStatus(due, s.now())

	if err := s.repo.Update(ctx, a); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assessment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update assessment")
	}

	s.invalidateSummary(ctx, a.StudentID)

	return a, nil
}

// Delete removes an assessment. Deleting an identifier with no record is a
// quiet no-op.
func (s *AssessmentService) Delete(ctx context.Context, id int64) error {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessment")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete assessment")
	}

	if a != nil {
		s.invalidateSummary(ctx, a.StudentID)
	}

	return nil
}

// List returns assessments matching the filter with pagination metadata.
func (s *AssessmentService) List(ctx context.Context, filter models.AssessmentFilter) ([]models.Assessment, *models.Pagination, error) {
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assessments")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	return rows, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Summary breaks down a student's assessments by their current status,
// reclassified from the due dates rather than read from the stored column.
// The result is cached per student with a short TTL.
func (s *AssessmentService) Summary(ctx context.Context, studentID int64) (*models.AssessmentSummary, error) {
	key := s.summaryKey(studentID)
	if s.cache != nil {
		var cached models.AssessmentSummary
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			s.recordCache(true)
			return &cached, nil
		} else if appErrors.HasCode(err, appErrors.ErrCacheMiss) {
			s.recordCache(false)
		} else {
			s.logger.Warn("assessment summary cache read failed", zap.Error(err))
		}
	}

	rows, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessments")
	}

	today := s.now()
	summary := &models.AssessmentSummary{Total: len(rows)}
	for _, a := range rows {
		switch a.CurrentStatus(today) {
		case models.AssessmentStatusDue:
			summary.Due++
		case models.AssessmentStatusOverdue:
			summary.Overdue++
		case models.AssessmentStatusClosed:
			summary.Closed++
		}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, summary, s.summaryTTL); err != nil {
			s.logger.Warn("assessment summary cache write failed", zap.Error(err))
		}
	}

	return summary, nil
}

// RefreshStatuses rewrites the stored status of a student's assessments from
// their due dates. Returns the number of records whose status changed.
func (s *AssessmentService) RefreshStatuses(ctx context.Context, studentID int64) (int, error) {
	rows, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessments")
	}

	today := s.now()
	changed := 0
	for i := range rows {
		current := rows[i].CurrentStatus(today)
		if current == rows[i].Status {
			continue
		}
		rows[i].Status = current
		if err := s.repo.Update(ctx, &rows[i]); err != nil {
			return changed, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to refresh assessment status")
		}
		changed++
	}

	if changed > 0 {
		s.invalidateSummary(ctx, studentID)
	}

	return changed, nil
}

func (s *AssessmentService) recordCache(hit bool) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordCacheOperation(hit)
}

func (s *AssessmentService) summaryKey(studentID int64) string {
	return fmt.Sprintf("assessments:summary:%d", studentID)
}

func (s *AssessmentService) invalidateSummary(ctx context.Context, studentID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, s.summaryKey(studentID)); err != nil {
		s.logger.Warn("assessment summary cache invalidation failed", zap.Error(err))
	}
}
