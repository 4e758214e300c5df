package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edutrack/edutrack-api/internal/models"
	appErrors "github.com/edutrack/edutrack-api/pkg/errors"
)

type fakeAttendanceRepo struct {
	records map[string]*models.Attendance
	nextID  int64
}

func newFakeAttendanceRepo() *fakeAttendanceRepo {
	return &fakeAttendanceRepo{records: make(map[string]*models.Attendance), nextID: 1}
}

func attendanceKey(studentID int64, date time.Time) string {
	return fmt.Sprintf("%d/%s", studentID, date.Format("2006-01-02"))
}

func (f *fakeAttendanceRepo) FindByStudentAndDate(ctx context.Context, studentID int64, date time.Time) (*models.Attendance, error) {
	rec, ok := f.records[attendanceKey(studentID, date)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *rec
	return &copied, nil
}

func (f *fakeAttendanceRepo) Upsert(ctx context.Context, a *models.Attendance) (*models.Attendance, error) {
	key := attendanceKey(a.StudentID, a.Date)
	if existing, ok := f.records[key]; ok {
		a.ID = existing.ID
	} else {
		a.ID = f.nextID
		f.nextID++
	}
	stored := *a
	f.records[key] = &stored
	copied := stored
	return &copied, nil
}

func (f *fakeAttendanceRepo) List(ctx context.Context, filter models.AttendanceFilter) ([]models.Attendance, int, error) {
	out := make([]models.Attendance, 0, len(f.records))
	for _, rec := range f.records {
		out = append(out, *rec)
	}
	return out, len(out), nil
}

func (f *fakeAttendanceRepo) StudentSummary(ctx context.Context, studentID int64) (*models.AttendanceSummary, error) {
	summary := &models.AttendanceSummary{}
	for _, rec := range f.records {
		if rec.StudentID != studentID {
			continue
		}
		summary.Total++
		if rec.Present {
			summary.Present++
		}
		if rec.Absent {
			summary.Absent++
		}
		if rec.Late {
			summary.Late++
		}
		if rec.Excused {
			summary.Excused++
		}
	}
	if summary.Total > 0 {
		summary.Percent = float64(summary.Present) / float64(summary.Total) * 100
	}
	return summary, nil
}

func markPayload(flag models.AttendanceFlag, value bool) models.MarkAttendanceRequest {
	return models.MarkAttendanceRequest{StudentID: 1, Date: "2026-03-10", Flag: flag, Value: value}
}

func TestAttendanceServiceMarkCreatesRecord(t *testing.T) {
	repo := newFakeAttendanceRepo()
	svc := NewAttendanceService(repo, newFakeCache(), nil, validator.New(), zap.NewNop(), time.Minute)

	rec, err := svc.Mark(context.Background(), markPayload(models.FlagPresent, true))
	require.NoError(t, err)
	assert.True(t, rec.Present)
	assert.NotZero(t, rec.ID)
}

func TestAttendanceServiceMarkEnforcesExclusion(t *testing.T) {
	repo := newFakeAttendanceRepo()
	svc := NewAttendanceService(repo, newFakeCache(), nil, validator.New(), zap.NewNop(), time.Minute)

	_, err := svc.Mark(context.Background(), markPayload(models.FlagPresent, true))
	require.NoError(t, err)
	_, err = svc.Mark(context.Background(), markPayload(models.FlagLate, true))
	require.NoError(t, err)

	rec, err := svc.Mark(context.Background(), markPayload(models.FlagAbsent, true))
	require.NoError(t, err)
	assert.True(t, rec.Absent)
	assert.False(t, rec.Present, "absent must displace present")
	assert.True(t, rec.Late, "late survives the exclusion rule")
}

func TestAttendanceServiceMarkInvalidDate(t *testing.T) {
	svc := NewAttendanceService(newFakeAttendanceRepo(), newFakeCache(), nil, validator.New(), zap.NewNop(), time.Minute)

	req := markPayload(models.FlagPresent, true)
	req.Date = "10.03.2026"
	_, err := svc.Mark(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidDate.Code, appErrors.FromError(err).Code)
}

func TestAttendanceServiceMarkInvalidFlag(t *testing.T) {
	svc := NewAttendanceService(newFakeAttendanceRepo(), newFakeCache(), nil, validator.New(), zap.NewNop(), time.Minute)

	req := markPayload("sick", true)
	_, err := svc.Mark(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAttendanceServiceSummary(t *testing.T) {
	repo := newFakeAttendanceRepo()
	cache := newFakeCache()
	svc := NewAttendanceService(repo, cache, nil, validator.New(), zap.NewNop(), time.Minute)

	_, err := svc.Mark(context.Background(), markPayload(models.FlagPresent, true))
	require.NoError(t, err)
	req := markPayload(models.FlagAbsent, true)
	req.Date = "2026-03-11"
	_, err = svc.Mark(context.Background(), req)
	require.NoError(t, err)

	summary, err := svc.Summary(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Present)
	assert.Equal(t, 1, summary.Absent)
	assert.InDelta(t, 50.0, summary.Percent, 0.01)
	assert.Equal(t, 1, cache.sets)
}

func TestAttendanceServiceGetNotFound(t *testing.T) {
	svc := NewAttendanceService(newFakeAttendanceRepo(), newFakeCache(), nil, validator.New(), zap.NewNop(), time.Minute)

	_, err := svc.Get(context.Background(), 1, "2026-03-10")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
