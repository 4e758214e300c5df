package models

import (
	"strings"
	"time"
)

// Role represents the account type attached to a user record.
type Role string

const (
	RoleTeacher Role = "TEACHER"
	RoleStudent Role = "STUDENT"
)

// Valid returns true when the role is a supported value.
func (r Role) Valid() bool {
	return r == RoleTeacher || r == RoleStudent
}

// User represents an application user stored in the users table. The ID is
// assigned by the store on creation; a zero ID means the record has not been
// persisted yet.
type User struct {
	ID           int64      `db:"id" json:"id"`
	FirstName    string     `db:"first_name" json:"first_name"`
	LastName     string     `db:"last_name" json:"last_name"`
	Email        string     `db:"email" json:"email"`
	Mobile       string     `db:"mobile" json:"mobile"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         Role       `db:"role" json:"role"`
	Grade        *string    `db:"grade" json:"grade,omitempty"`
	ClassName    *string    `db:"class_name" json:"class_name,omitempty"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Equal reports identity equality, defined solely by identifier. Two records
// that have not been persisted (ID zero) are never equal.
func (u User) Equal(other User) bool {
	return u.ID != 0 && u.ID == other.ID
}

// FullName joins the trimmed name parts.
func (u User) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role      *Role
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
