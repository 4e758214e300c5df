package models

// CreateAssessmentRequest holds the payload for creating an assessment. The
// due date travels as a YYYY-MM-DD string and is parsed before persistence.
type CreateAssessmentRequest struct {
	StudentID int64          `json:"student_id" validate:"required,gt=0"`
	Title     string         `json:"title" validate:"required,notblank"`
	Subject   string         `json:"subject" validate:"required,notblank"`
	DueDate   string         `json:"due_date" validate:"required"`
	Type      AssessmentType `json:"type" validate:"required,oneof=REPORT EXAM QUIZ"`
}

// UpdateAssessmentRequest overwrites the mutable fields of an assessment.
type UpdateAssessmentRequest struct {
	Title   string         `json:"title" validate:"required,notblank"`
	Subject string         `json:"subject" validate:"required,notblank"`
	DueDate string         `json:"due_date" validate:"required"`
	Type    AssessmentType `json:"type" validate:"required,oneof=REPORT EXAM QUIZ"`
}

// MarkAttendanceRequest sets a single attendance flag for a student on a day.
type MarkAttendanceRequest struct {
	StudentID int64          `json:"student_id" validate:"required,gt=0"`
	Date      string         `json:"date" validate:"required"`
	Flag      AttendanceFlag `json:"flag" validate:"required,oneof=present absent late excused"`
	Value     bool           `json:"value"`
	Notes     *string        `json:"notes,omitempty"`
}

// ExportRequest asks for a rendered report over a student's records.
type ExportRequest struct {
	StudentID int64  `json:"student_id" validate:"required,gt=0"`
	Report    string `json:"report" validate:"required,oneof=assessments attendance"`
	Format    string `json:"format" validate:"required,oneof=csv pdf"`
	DateFrom  string `json:"date_from,omitempty"`
	DateTo    string `json:"date_to,omitempty"`
}

// ExportResult describes a rendered report and its signed download token.
type ExportResult struct {
	ExportID    string `json:"export_id"`
	FileName    string `json:"file_name"`
	Format      string `json:"format"`
	RowCount    int    `json:"row_count"`
	DownloadURL string `json:"download_url"`
	ExpiresAt   string `json:"expires_at"`
}
