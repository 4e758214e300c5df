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

// AssessmentRepository provides database access for assessment records.
type AssessmentRepository struct {
	db *sqlx.DB
}

// NewAssessmentRepository creates a new instance of AssessmentRepository.
func NewAssessmentRepository(db *sqlx.DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

const assessmentColumns = `id, student_id, title, subject, due_date, status, type, created_at, updated_at`

// FindByID returns an assessment by identifier.
func (r *AssessmentRepository) FindByID(ctx context.Context, id int64) (*models.Assessment, error) {
	query := fmt.Sprintf(`SELECT %s FROM assessments WHERE id = $1 LIMIT 1`, assessmentColumns)
	var a models.Assessment
	if err := r.db.GetContext(ctx, &a, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find assessment by id: %w", err)
	}
	return &a, nil
}

// Create inserts a new assessment and assigns the generated identifier.
func (r *AssessmentRepository) Create(ctx context.Context, a *models.Assessment) error {
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	const query = `INSERT INTO assessments (student_id, title, subject, due_date, status, type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	err := r.db.QueryRowxContext(ctx, query,
		a.StudentID, a.Title, a.Subject, a.DueDate, a.Status, a.Type, a.CreatedAt, a.UpdatedAt,
	).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("create assessment: %w", err)
	}
	return nil
}

// Update overwrites the mutable fields of an assessment located by
// identifier. Returns sql.ErrNoRows when no record has that identifier.
func (r *AssessmentRepository) Update(ctx context.Context, a *models.Assessment) error {
	a.UpdatedAt = time.Now().UTC()
	const query = `UPDATE assessments SET title = :title, subject = :subject, due_date = :due_date,
		status = :status, type = :type, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, a)
	if err != nil {
		return fmt.Errorf("update assessment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update assessment rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes an assessment. Deleting a non-existent identifier is a no-op.
func (r *AssessmentRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM assessments WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete assessment: %w", err)
	}
	return nil
}

// List returns assessments based on filters with total count.
func (r *AssessmentRepository) List(ctx context.Context, filter models.AssessmentFilter) ([]models.Assessment, int, error) {
	baseQuery := `FROM assessments WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.StudentID != 0 {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Type != nil {
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)+1))
		args = append(args, *filter.Type)
	}
	if filter.DueFrom != nil {
		conditions = append(conditions, fmt.Sprintf("due_date >= $%d", len(args)+1))
		args = append(args, *filter.DueFrom)
	}
	if filter.DueTo != nil {
		conditions = append(conditions, fmt.Sprintf("due_date <= $%d", len(args)+1))
		args = append(args, *filter.DueTo)
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "due_date"
	}
	allowedSorts := map[string]bool{
		"due_date":   true,
		"title":      true,
		"subject":    true,
		"created_at": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "due_date"
	}

	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", assessmentColumns, baseQuery, sortBy, sortOrder, pageSize, offset)

	var rows []models.Assessment
	if err := r.db.SelectContext(ctx, &rows, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list assessments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count assessments: %w", err)
	}

	return rows, total, nil
}

// ListByStudent returns all assessments owned by a student, ordered by due
// date. Used for status summaries and exports where the full set is needed.
func (r *AssessmentRepository) ListByStudent(ctx context.Context, studentID int64) ([]models.Assessment, error) {
	query := fmt.Sprintf(`SELECT %s FROM assessments WHERE student_id = $1 ORDER BY due_date ASC`, assessmentColumns)
	var rows []models.Assessment
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("list assessments by student: %w", err)
	}
	return rows, nil
}
