package models

import "time"

// PeriodAverage pairs a grading period with the stored average for it.
type PeriodAverage struct {
	PeriodOrdinal int     `json:"period_ordinal"`
	PeriodYear    int     `json:"period_year"`
	Average       float64 `json:"average"`
}

// ReportCardSubject summarises a student's performance in one subject.
type ReportCardSubject struct {
	SubjectID   string          `json:"subject_id"`
	SubjectName string          `json:"subject_name"`
	Averages    []PeriodAverage `json:"averages"`
	Status      ApprovalStatus  `json:"status"`
}

// ReportCard contains per-subject period averages and approval status for a
// student in a team and year.
type ReportCard struct {
	StudentID   string              `json:"student_id"`
	StudentName string              `json:"student_name"`
	TeamID      string              `json:"team_id"`
	Year        int                 `json:"year"`
	Subjects    []ReportCardSubject `json:"subjects"`
}

// ExportLink references an archived export and the signed token that
// authorises downloading it. The token is the only credential a download
// needs, so links can be shared with guardians.
type ExportLink struct {
	ID        string    `json:"id"`
	Format    string    `json:"format"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
