package models

import "time"

// AttendanceFlag identifies one of the attendance booleans.
type AttendanceFlag string

const (
	FlagPresent AttendanceFlag = "present"
	FlagAbsent  AttendanceFlag = "absent"
	FlagLate    AttendanceFlag = "late"
	FlagExcused AttendanceFlag = "excused"
)

// Valid returns true when the flag is a supported value.
func (f AttendanceFlag) Valid() bool {
	switch f {
	case FlagPresent, FlagAbsent, FlagLate, FlagExcused:
		return true
	default:
		return false
	}
}

// Attendance represents a student's attendance record for a day. At most one
// of present/absent/excused is true at any time; late is independent and may
// combine with any of them.
type Attendance struct {
	ID        int64     `db:"id" json:"id"`
	StudentID int64     `db:"student_id" json:"student_id"`
	Date      time.Time `db:"date" json:"date"`
	Present   bool      `db:"present" json:"present"`
	Absent    bool      `db:"absent" json:"absent"`
	Late      bool      `db:"late" json:"late"`
	Excused   bool      `db:"excused" json:"excused"`
	Notes     *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ApplyFlag sets one attendance flag, enforcing mutual exclusion among
// present/absent/excused. Setting any of those three true clears the other
// two. Late is never altered by the exclusion rule.
func (a *Attendance) ApplyFlag(flag AttendanceFlag, value bool) {
	switch flag {
	case FlagPresent:
		a.Present = value
		if value {
			a.Absent = false
			a.Excused = false
		}
	case FlagAbsent:
		a.Absent = value
		if value {
			a.Present = false
			a.Excused = false
		}
	case FlagExcused:
		a.Excused = value
		if value {
			a.Present = false
			a.Absent = false
		}
	case FlagLate:
		a.Late = value
	}
}

// AttendanceFilter scopes listing queries.
type AttendanceFilter struct {
	StudentID int64
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// AttendanceSummary counts a student's attendance records.
type AttendanceSummary struct {
	Present int     `json:"present"`
	Absent  int     `json:"absent"`
	Late    int     `json:"late"`
	Excused int     `json:"excused"`
	Total   int     `json:"total"`
	Percent float64 `json:"percent"`
}
