package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edutrack/edutrack-api/internal/models"
	appErrors "github.com/edutrack/edutrack-api/pkg/errors"
)

type fakeAssessmentRepo struct {
	items  map[int64]*models.Assessment
	nextID int64
}

func newFakeAssessmentRepo() *fakeAssessmentRepo {
	return &fakeAssessmentRepo{items: make(map[int64]*models.Assessment), nextID: 1}
}

func (f *fakeAssessmentRepo) FindByID(ctx context.Context, id int64) (*models.Assessment, error) {
	a, ok := f.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *a
	return &copied, nil
}

func (f *fakeAssessmentRepo) Create(ctx context.Context, a *models.Assessment) error {
	a.ID = f.nextID
	f.nextID++
	stored := *a
	f.items[a.ID] = &stored
	return nil
}

func (f *fakeAssessmentRepo) Update(ctx context.Context, a *models.Assessment) error {
	if _, ok := f.items[a.ID]; !ok {
		return sql.ErrNoRows
	}
	stored := *a
	f.items[a.ID] = &stored
	return nil
}

func (f *fakeAssessmentRepo) Delete(ctx context.Context, id int64) error {
	delete(f.items, id)
	return nil
}

func (f *fakeAssessmentRepo) List(ctx context.Context, filter models.AssessmentFilter) ([]models.Assessment, int, error) {
	out := make([]models.Assessment, 0, len(f.items))
	for _, a := range f.items {
		out = append(out, *a)
	}
	return out, len(out), nil
}

func (f *fakeAssessmentRepo) ListByStudent(ctx context.Context, studentID int64) ([]models.Assessment, error) {
	out := make([]models.Assessment, 0)
	for _, a := range f.items {
		if a.StudentID == studentID {
			out = append(out, *a)
		}
	}
	return out, nil
}

type fakeCache struct {
	values      map[string][]byte
	sets        int
	invalidated []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: make(map[string][]byte)}
}

func (f *fakeCache) Get(ctx context.Context, key string, dest interface{}) error {
	if _, ok := f.values[key]; !ok {
		return appErrors.ErrCacheMiss
	}
	return nil
}

func (f *fakeCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	f.values[key] = []byte("set")
	f.sets++
	return nil
}

func (f *fakeCache) DeleteByPattern(ctx context.Context, pattern string) error {
	delete(f.values, pattern)
	f.invalidated = append(f.invalidated, pattern)
	return nil
}

func newAssessmentService(repo *fakeAssessmentRepo, cache *fakeCache, today string) *AssessmentService {
	svc := NewAssessmentService(repo, cache, nil, nil, validator.New(), zap.NewNop(), time.Minute)
	fixed, err := time.Parse("2006-01-02", today)
	if err != nil {
		panic(err)
	}
	svc.now = func() time.Time { return fixed }
	return svc
}

func assessmentPayload(due string) models.CreateAssessmentRequest {
	return models.CreateAssessmentRequest{
		StudentID: 1,
		Title:     "Algebra homework",
		Subject:   "Math",
		DueDate:   due,
		Type:      models.AssessmentTypeReport,
	}
}

func TestAssessmentServiceCreateClassifiesAtWriteTime(t *testing.T) {
	repo := newFakeAssessmentRepo()
	svc := newAssessmentService(repo, newFakeCache(), "2026-03-10")

	future, err := svc.Create(context.Background(), assessmentPayload("2026-03-15"))
	require.NoError(t, err)
	assert.Equal(t, models.AssessmentStatusDue, future.Status)

	dueToday, err := svc.Create(context.Background(), assessmentPayload("2026-03-10"))
	require.NoError(t, err)
	assert.Equal(t, models.AssessmentStatusOverdue, dueToday.Status)

	old, err := svc.Create(context.Background(), assessmentPayload("2026-03-01"))
	require.NoError(t, err)
	assert.Equal(t, models.AssessmentStatusClosed, old.Status)
}

func TestAssessmentServiceCreateInvalidDate(t *testing.T) {
	repo := newFakeAssessmentRepo()
	svc := newAssessmentService(repo, newFakeCache(), "2026-03-10")

	_, err := svc.Create(context.Background(), assessmentPayload("15/03/2026"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidDate.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.items)
}

func TestAssessmentServiceStoredStatusGoesStale(t *testing.T) {
	repo := newFakeAssessmentRepo()
	svc := newAssessmentService(repo, newFakeCache(), "2026-03-01")

	created, err := svc.Create(context.Background(), assessmentPayload("2026-03-05"))
	require.NoError(t, err)
	assert.Equal(t, models.AssessmentStatusDue, created.Status)

	// A week later the stored value is untouched while reads reclassify.
	later, _ := time.Parse("2006-01-02", "2026-03-12")
	svc.now = func() time.Time { return later }

	loaded, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AssessmentStatusDue, loaded.Status)

	summary, err := svc.Summary(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Closed)
	assert.Zero(t, summary.Due)
}

func TestAssessmentServiceRefreshStatuses(t *testing.T) {
	repo := newFakeAssessmentRepo()
	svc := newAssessmentService(repo, newFakeCache(), "2026-03-01")

	created, err := svc.Create(context.Background(), assessmentPayload("2026-03-05"))
	require.NoError(t, err)

	later, _ := time.Parse("2006-01-02", "2026-03-12")
	svc.now = func() time.Time { return later }

	changed, err := svc.RefreshStatuses(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, changed)
	assert.Equal(t, models.AssessmentStatusClosed, repo.items[created.ID].Status)
}

func TestAssessmentServiceUpdateMissingIsNotFound(t *testing.T) {
	svc := newAssessmentService(newFakeAssessmentRepo(), newFakeCache(), "2026-03-10")

	_, err := svc.Update(context.Background(), 42, models.UpdateAssessmentRequest{
		Title: "x", Subject: "y", DueDate: "2026-03-15", Type: models.AssessmentTypeQuiz,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAssessmentServiceDeleteMissingIsNoop(t *testing.T) {
	svc := newAssessmentService(newFakeAssessmentRepo(), newFakeCache(), "2026-03-10")
	require.NoError(t, svc.Delete(context.Background(), 42))
}

func TestAssessmentServiceWritesInvalidateSummary(t *testing.T) {
	repo := newFakeAssessmentRepo()
	cache := newFakeCache()
	svc := newAssessmentService(repo, cache, "2026-03-10")

	created, err := svc.Create(context.Background(), assessmentPayload("2026-03-15"))
	require.NoError(t, err)
	assert.NotEmpty(t, cache.invalidated)

	_, err = svc.Summary(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets, "summary result must be cached")

	_, err = svc.Update(context.Background(), created.ID, models.UpdateAssessmentRequest{
		Title: "Algebra homework", Subject: "Math", DueDate: "2026-03-20", Type: models.AssessmentTypeReport,
	})
	require.NoError(t, err)
	assert.Contains(t, cache.invalidated, "assessments:summary:1")
}

type fakeCacheMetrics struct {
	hits   int
	misses int
}

func (f *fakeCacheMetrics) RecordCacheOperation(hit bool) {
	if hit {
		f.hits++
	} else {
		f.misses++
	}
}

func TestAssessmentServiceSummaryRecordsCacheMetrics(t *testing.T) {
	repo := newFakeAssessmentRepo()
	cache := newFakeCache()
	metrics := &fakeCacheMetrics{}
	svc := NewAssessmentService(repo, cache, metrics, nil, validator.New(), zap.NewNop(), time.Minute)
	fixed, err := time.Parse("2006-01-02", "2026-03-10")
	require.NoError(t, err)
	svc.now = func() time.Time { return fixed }

	_, err = svc.Summary(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, metrics.misses, "first read misses the cache")
	assert.Equal(t, 0, metrics.hits)

	_, err = svc.Summary(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, metrics.hits, "second read is served from cache")
	assert.Equal(t, 1, metrics.misses)
}
