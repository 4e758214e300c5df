package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/edutrack/edutrack-api/pkg/errors"
)

func day(raw string) time.Time {
	d, err := time.Parse("2006-01-02", raw)
	if err != nil {
		panic(err)
	}
	return d
}

func TestClassifyStatusBeforeDue(t *testing.T) {
	assert.Equal(t, AssessmentStatusDue, ClassifyStatus(day("2026-03-10"), day("2026-03-09")))
	assert.Equal(t, AssessmentStatusDue, ClassifyStatus(day("2026-03-10"), day("2025-01-01")))
}

func TestClassifyStatusDueDayIsOverdue(t *testing.T) {
	assert.Equal(t, AssessmentStatusOverdue, ClassifyStatus(day("2026-03-10"), day("2026-03-10")))
}

func TestClassifyStatusGraceWindow(t *testing.T) {
	assert.Equal(t, AssessmentStatusOverdue, ClassifyStatus(day("2026-03-10"), day("2026-03-11")))
	assert.Equal(t, AssessmentStatusOverdue, ClassifyStatus(day("2026-03-10"), day("2026-03-12")))
	assert.Equal(t, AssessmentStatusClosed, ClassifyStatus(day("2026-03-10"), day("2026-03-13")))
	assert.Equal(t, AssessmentStatusClosed, ClassifyStatus(day("2026-03-10"), day("2027-01-01")))
}

func TestClassifyStatusIgnoresTimeOfDay(t *testing.T) {
	due := time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC)
	today := time.Date(2026, 3, 10, 0, 1, 0, 0, time.UTC)
	assert.Equal(t, AssessmentStatusOverdue, ClassifyStatus(due, today))
}

func TestParseDate(t *testing.T) {
	parsed, err := ParseDate("2026-03-10")
	require.NoError(t, err)
	assert.Equal(t, day("2026-03-10"), parsed)
}

func TestParseDateInvalid(t *testing.T) {
	for _, raw := range []string{"", "10-03-2026", "2026-13-40", "not a date"} {
		_, err := ParseDate(raw)
		require.Error(t, err, raw)
		assert.Equal(t, appErrors.ErrInvalidDate.Code, appErrors.FromError(err).Code)
	}
}

func TestCurrentStatusLeavesStoredValue(t *testing.T) {
	a := Assessment{DueDate: day("2026-03-10"), Status: AssessmentStatusDue}
	assert.Equal(t, AssessmentStatusClosed, a.CurrentStatus(day("2026-03-20")))
	assert.Equal(t, AssessmentStatusDue, a.Status)
}
