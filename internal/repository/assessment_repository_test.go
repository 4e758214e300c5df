package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edutrack/edutrack-api/internal/models"
)

func newAssessmentMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func assessmentRows(id int64, status models.AssessmentStatus) *sqlmock.Rows {
	due := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	return sqlmock.NewRows([]string{"id", "student_id", "title", "subject", "due_date", "status", "type", "created_at", "updated_at"}).
		AddRow(id, int64(1), "Algebra homework", "Math", due, status, models.AssessmentTypeReport, time.Now(), time.Now())
}

func TestAssessmentRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newAssessmentMock(t)
	defer cleanup()
	repo := NewAssessmentRepository(db)

	mock.ExpectQuery(`INSERT INTO assessments .+ RETURNING id`).
		WithArgs(int64(1), "Algebra homework", "Math", sqlmock.AnyArg(), models.AssessmentStatusDue, models.AssessmentTypeReport, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(9)))

	a := &models.Assessment{
		StudentID: 1,
		Title:     "Algebra homework",
		Subject:   "Math",
		DueDate:   time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Status:    models.AssessmentStatusDue,
		Type:      models.AssessmentTypeReport,
	}
	require.NoError(t, repo.Create(context.Background(), a))
	assert.Equal(t, int64(9), a.ID)
	assert.False(t, a.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssessmentRepositoryFindByIDMissing(t *testing.T) {
	db, mock, cleanup := newAssessmentMock(t)
	defer cleanup()
	repo := NewAssessmentRepository(db)

	mock.ExpectQuery(`SELECT .+ FROM assessments WHERE id = \$1`).
		WithArgs(int64(42)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), 42)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestAssessmentRepositoryUpdateMissing(t *testing.T) {
	db, mock, cleanup := newAssessmentMock(t)
	defer cleanup()
	repo := NewAssessmentRepository(db)

	mock.ExpectExec(`UPDATE assessments SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.Assessment{ID: 42, Status: models.AssessmentStatusDue})
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestAssessmentRepositoryDeleteMissingIsNoop(t *testing.T) {
	db, mock, cleanup := newAssessmentMock(t)
	defer cleanup()
	repo := NewAssessmentRepository(db)

	mock.ExpectExec(`DELETE FROM assessments WHERE id = \$1`).
		WithArgs(int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), 42))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssessmentRepositoryListByStudent(t *testing.T) {
	db, mock, cleanup := newAssessmentMock(t)
	defer cleanup()
	repo := NewAssessmentRepository(db)

	mock.ExpectQuery(`SELECT .+ FROM assessments WHERE student_id = \$1 ORDER BY due_date ASC`).
		WithArgs(int64(1)).
		WillReturnRows(assessmentRows(3, models.AssessmentStatusOverdue))

	rows, err := repo.ListByStudent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, models.AssessmentStatusOverdue, rows[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssessmentRepositoryListWithFilters(t *testing.T) {
	db, mock, cleanup := newAssessmentMock(t)
	defer cleanup()
	repo := NewAssessmentRepository(db)

	status := models.AssessmentStatusDue
	mock.ExpectQuery(`SELECT .+ FROM assessments WHERE 1=1 AND student_id = \$1 AND status = \$2 ORDER BY due_date ASC LIMIT 20 OFFSET 0`).
		WithArgs(int64(1), status).
		WillReturnRows(assessmentRows(5, status))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM assessments WHERE 1=1 AND student_id = \$1 AND status = \$2`).
		WithArgs(int64(1), status).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	rows, total, err := repo.List(context.Background(), models.AssessmentFilter{StudentID: 1, Status: &status})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
