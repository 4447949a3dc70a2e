package models

import (
	"strings"
	"time"
)

// AccountRole is the closed set of roles an account can hold. Role checks
// happen once at the access-policy boundary, not ad hoc per call site.
type AccountRole string

const (
	RoleStudent AccountRole = "STUDENT"
	RoleTeacher AccountRole = "TEACHER"
	RoleAdmin   AccountRole = "ADMIN"
)

// Valid returns true when the role is a supported value.
func (r AccountRole) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	default:
		return false
	}
}

// Account represents a user of the school system. The registration number is
// assigned once at creation and never changes.
type Account struct {
	ID                 string      `db:"id" json:"id"`
	RegistrationNumber string      `db:"registration_number" json:"registration_number"`
	FirstName          string      `db:"first_name" json:"first_name"`
	LastName           string      `db:"last_name" json:"last_name"`
	Email              string      `db:"email" json:"email"`
	Role               AccountRole `db:"role" json:"role"`
	Superuser          bool        `db:"superuser" json:"superuser"`
	BirthDate          *time.Time  `db:"birth_date" json:"birth_date,omitempty"`
	PasswordHash       string      `db:"password_hash" json:"-"`
	Active             bool        `db:"active" json:"active"`
	CreatedAt          time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time   `db:"updated_at" json:"updated_at"`
}

// FullName joins first and last name for display.
func (a *Account) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// AccountFilter captures supported filters for listing accounts.
type AccountFilter struct {
	Role      *AccountRole
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Actor is the explicit policy context passed into every scoped operation.
// It replaces any ambient current-user state.
type Actor struct {
	AccountID string
	Role      AccountRole
	Superuser bool
}

// Bypasses reports whether the actor skips resource scoping entirely.
func (a Actor) Bypasses() bool {
	return a.Superuser || a.Role == RoleAdmin
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
