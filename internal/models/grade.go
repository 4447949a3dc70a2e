package models

import "time"

// Score bounds for activity and exam grades.
const (
	MinScore = 0.0
	MaxScore = 10.0
)

// ValidScore reports whether a score is inside the allowed range.
func ValidScore(value float64) bool {
	return value >= MinScore && value <= MaxScore
}

// GradeEntry records the activity and exam scores of one student for one
// subject, team and grading period. The average is derived and kept in sync
// with the two inputs; it is stored at full floating precision.
type GradeEntry struct {
	ID            string    `db:"id" json:"id"`
	StudentID     string    `db:"student_id" json:"student_id"`
	SubjectID     string    `db:"subject_id" json:"subject_id"`
	TeamID        string    `db:"team_id" json:"team_id"`
	PeriodID      string    `db:"period_id" json:"period_id"`
	ActivityScore float64   `db:"activity_score" json:"activity_score"`
	ExamScore     float64   `db:"exam_score" json:"exam_score"`
	Average       float64   `db:"average" json:"average"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// GradeEntryDetail extends a grade entry with period and subject metadata.
type GradeEntryDetail struct {
	GradeEntry
	PeriodOrdinal int    `db:"period_ordinal" json:"period_ordinal"`
	PeriodYear    int    `db:"period_year" json:"period_year"`
	SubjectName   string `db:"subject_name" json:"subject_name"`
}

// GradeFilter scopes grade listing queries.
type GradeFilter struct {
	StudentID string
	SubjectID string
	TeamID    string
	PeriodID  string
	Year      int
}

// ApprovalStatus is the outcome of evaluating a student's period averages
// for a subject.
type ApprovalStatus string

const (
	// StatusApproved means the record is complete and the mean passes.
	StatusApproved ApprovalStatus = "APPROVED"
	// StatusNotApproved means the record is complete but the mean fails,
	// or there is no evidence at all (empty record).
	StatusNotApproved ApprovalStatus = "NOT_APPROVED"
	// StatusIncomplete means not every expected period has an entry yet.
	StatusIncomplete ApprovalStatus = "INCOMPLETE"
)
