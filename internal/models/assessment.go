package models

import (
	"time"

	appErrors "github.com/edutrack/edutrack-api/pkg/errors"
)

// AssessmentStatus is the lifecycle state derived from the due date.
type AssessmentStatus string

const (
	AssessmentStatusDue     AssessmentStatus = "DUE"
	AssessmentStatusOverdue AssessmentStatus = "OVERDUE"
	AssessmentStatusClosed  AssessmentStatus = "CLOSED"
)

// AssessmentType classifies the kind of assessment.
type AssessmentType string

const (
	AssessmentTypeReport AssessmentType = "REPORT"
	AssessmentTypeExam   AssessmentType = "EXAM"
	AssessmentTypeQuiz   AssessmentType = "QUIZ"
)

// Valid returns true when the type is a supported value.
func (t AssessmentType) Valid() bool {
	switch t {
	case AssessmentTypeReport, AssessmentTypeExam, AssessmentTypeQuiz:
		return true
	default:
		return false
	}
}

// overdueGraceDays is the window after the due date during which an
// assessment counts as overdue rather than closed.
const overdueGraceDays = 2

// ClassifyStatus derives the lifecycle status from the due date relative to
// today. Comparison is at date granularity: the due day itself is already
// Overdue (zero days late), and anything more than two days past due is
// Closed.
func ClassifyStatus(due, today time.Time) AssessmentStatus {
	d := dateOf(due)
	t := dateOf(today)

	if t.Before(d) {
		return AssessmentStatusDue
	}
	daysLate := int(t.Sub(d).Hours() / 24)
	if daysLate <= overdueGraceDays {
		return AssessmentStatusOverdue
	}
	return AssessmentStatusClosed
}

// ParseDate parses a YYYY-MM-DD string. Malformed input fails with the
// invalid-date error, never a silent default.
func ParseDate(raw string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, appErrors.Wrap(err, appErrors.ErrInvalidDate.Code, appErrors.ErrInvalidDate.Status, appErrors.ErrInvalidDate.Message)
	}
	return d, nil
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Assessment represents an assessment row. Status is computed once at write
// time and stored; it is not recomputed automatically and goes stale. Read
// paths that need the current status must reclassify from the due date.
type Assessment struct {
	ID        int64            `db:"id" json:"id"`
	StudentID int64            `db:"student_id" json:"student_id"`
	Title     string           `db:"title" json:"title"`
	Subject   string           `db:"subject" json:"subject"`
	DueDate   time.Time        `db:"due_date" json:"due_date"`
	Status    AssessmentStatus `db:"status" json:"status"`
	Type      AssessmentType   `db:"type" json:"type"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// CurrentStatus reclassifies against today without touching the stored value.
func (a Assessment) CurrentStatus(today time.Time) AssessmentStatus {
	return ClassifyStatus(a.DueDate, today)
}

// AssessmentFilter scopes listing queries.
type AssessmentFilter struct {
	StudentID int64
	Status    *AssessmentStatus
	Type      *AssessmentType
	DueFrom   *time.Time
	DueTo     *time.Time
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// AssessmentSummary breaks down a student's assessments by current status.
type AssessmentSummary struct {
	Due     int `json:"due"`
	Overdue int `json:"overdue"`
	Closed  int `json:"closed"`
	Total   int `json:"total"`
}
