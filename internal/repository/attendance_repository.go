package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/edutrack/edutrack-api/internal/models"
)

// AttendanceRepository provides database access for attendance records.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository creates a new instance of AttendanceRepository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

const attendanceColumns = `id, student_id, date, present, absent, late, excused, notes, created_at, updated_at`

// FindByStudentAndDate returns the attendance record for a student on a day.
func (r *AttendanceRepository) FindByStudentAndDate(ctx context.Context, studentID int64, date time.Time) (*models.Attendance, error) {
	query := fmt.Sprintf(`SELECT %s FROM attendance WHERE student_id = $1 AND date = $2 LIMIT 1`, attendanceColumns)
	var a models.Attendance
	if err := r.db.GetContext(ctx, &a, query, studentID, date); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find attendance: %w", err)
	}
	return &a, nil
}

// Upsert inserts or updates the attendance record for (student, date) and
// returns the stored row.
func (r *AttendanceRepository) Upsert(ctx context.Context, a *models.Attendance) (*models.Attendance, error) {
	now := time.Now().UTC()
	const query = `INSERT INTO attendance (student_id, date, present, absent, late, excused, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		ON CONFLICT (student_id, date) DO UPDATE SET
			present = EXCLUDED.present,
			absent = EXCLUDED.absent,
			late = EXCLUDED.late,
			excused = EXCLUDED.excused,
			notes = EXCLUDED.notes,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + attendanceColumns
	var stored models.Attendance
	err := r.db.QueryRowxContext(ctx, query,
		a.StudentID, a.Date, a.Present, a.Absent, a.Late, a.Excused, a.Notes, now,
	).StructScan(&stored)
	if err != nil {
		return nil, fmt.Errorf("upsert attendance: %w", err)
	}
	return &stored, nil
}

// List returns attendance records based on filters with total count.
func (r *AttendanceRepository) List(ctx context.Context, filter models.AttendanceFilter) ([]models.Attendance, int, error) {
	baseQuery := `FROM attendance WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.StudentID != 0 {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	if sortBy != "date" && sortBy != "created_at" {
		sortBy = "date"
	}
	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 50
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", attendanceColumns, baseQuery, sortBy, sortOrder, pageSize, offset)

	var rows []models.Attendance
	if err := r.db.SelectContext(ctx, &rows, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list attendance: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count attendance: %w", err)
	}

	return rows, total, nil
}

// StudentSummary aggregates a student's attendance counts.
func (r *AttendanceRepository) StudentSummary(ctx context.Context, studentID int64) (*models.AttendanceSummary, error) {
	const query = `SELECT
		COUNT(*) FILTER (WHERE present) AS present,
		COUNT(*) FILTER (WHERE absent) AS absent,
		COUNT(*) FILTER (WHERE late) AS late,
		COUNT(*) FILTER (WHERE excused) AS excused,
		COUNT(*) AS total
		FROM attendance WHERE student_id = $1`
	var summary models.AttendanceSummary
	if err := r.db.GetContext(ctx, &summary, query, studentID); err != nil {
		return nil, fmt.Errorf("attendance summary: %w", err)
	}
	if summary.Total > 0 {
		summary.Percent = float64(summary.Present) / float64(summary.Total) * 100
	}
	return &summary, nil
}

// ListByStudentRange returns a student's records in a date range, oldest
// first. Used by exports.
func (r *AttendanceRepository) ListByStudentRange(ctx context.Context, studentID int64, from, to time.Time) ([]models.Attendance, error) {
	query := fmt.Sprintf(`SELECT %s FROM attendance WHERE student_id = $1 AND date >= $2 AND date <= $3 ORDER BY date ASC`, attendanceColumns)
	var rows []models.Attendance
	if err := r.db.SelectContext(ctx, &rows, query, studentID, from, to); err != nil {
		return nil, fmt.Errorf("list attendance range: %w", err)
	}
	return rows, nil
}
