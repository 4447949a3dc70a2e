package models

import "time"

// Subject represents a course taught by one or more teachers and offered to
// one or more teams.
type Subject struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// SubjectFilter captures supported filters for listing subjects.
type SubjectFilter struct {
	TeamID    string
	TeacherID string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// SubjectTeacher is a teaching-set row joining teacher info.
type SubjectTeacher struct {
	SubjectID          string `db:"subject_id" json:"subject_id"`
	AccountID          string `db:"account_id" json:"account_id"`
	RegistrationNumber string `db:"registration_number" json:"registration_number"`
	FullName           string `db:"full_name" json:"full_name"`
}

// SubjectOffer links a subject to a team it is offered to.
type SubjectOffer struct {
	SubjectID string `db:"subject_id" json:"subject_id"`
	TeamID    string `db:"team_id" json:"team_id"`
}
