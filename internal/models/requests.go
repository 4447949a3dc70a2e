package models

import "time"

// CreateAccountRequest is the payload for registering a new account. The
// registration number is never part of the payload; it is assigned by the
// system.
type CreateAccountRequest struct {
	FirstName string      `json:"first_name" validate:"required,min=2,max=100"`
	LastName  string      `json:"last_name" validate:"required,min=2,max=100"`
	Email     string      `json:"email" validate:"required,email"`
	Password  string      `json:"password" validate:"required,min=8"`
	Role      AccountRole `json:"role" validate:"required"`
	BirthDate *time.Time  `json:"birth_date,omitempty"`
}

// UpdateAccountRequest carries the mutable account fields.
type UpdateAccountRequest struct {
	FirstName *string    `json:"first_name,omitempty" validate:"omitempty,min=2,max=100"`
	LastName  *string    `json:"last_name,omitempty" validate:"omitempty,min=2,max=100"`
	Email     *string    `json:"email,omitempty" validate:"omitempty,email"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
	Active    *bool      `json:"active,omitempty"`
}

// CreateTeamRequest is the payload for creating a team.
type CreateTeamRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
	Year int    `json:"year" validate:"required,min=2000,max=2100"`
}

// CreateSubjectRequest is the payload for creating a subject.
type CreateSubjectRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

// RecordGradeRequest is the payload for creating a grade entry. Scores are
// pointers so that an omitted score fails validation instead of silently
// reading as zero.
type RecordGradeRequest struct {
	StudentID     string   `json:"student_id" validate:"required,uuid4"`
	SubjectID     string   `json:"subject_id" validate:"required,uuid4"`
	TeamID        string   `json:"team_id" validate:"required,uuid4"`
	PeriodOrdinal int      `json:"period_ordinal" validate:"required,min=1,max=4"`
	PeriodYear    int      `json:"period_year" validate:"required,min=2000,max=2100"`
	ActivityScore *float64 `json:"activity_score" validate:"required"`
	ExamScore     *float64 `json:"exam_score" validate:"required"`
}

// UpdateGradeRequest rewrites the two scores of an existing entry. Identity
// fields are immutable and therefore absent.
type UpdateGradeRequest struct {
	ActivityScore *float64 `json:"activity_score" validate:"required"`
	ExamScore     *float64 `json:"exam_score" validate:"required"`
}

// OpenSessionRequest is the payload for opening an attendance session.
type OpenSessionRequest struct {
	TeamID    string `json:"team_id" validate:"required,uuid4"`
	SubjectID string `json:"subject_id" validate:"required,uuid4"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
}

// SetPresenceRequest marks one student present or absent in a session.
type SetPresenceRequest struct {
	StudentID string `json:"student_id" validate:"required,uuid4"`
	Present   *bool  `json:"present" validate:"required"`
}

// NotifyRequest is the payload for emitting a notification.
type NotifyRequest struct {
	Verb        string `json:"verb" validate:"required,min=1,max=100"`
	Description string `json:"description" validate:"required,min=1,max=500"`
	RecipientID string `json:"recipient_id" validate:"required,uuid4"`
}
