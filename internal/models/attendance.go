package models

import "time"

// AttendanceSession is one roll-call event: a teacher calling attendance for
// a team and subject on a date. At most one session exists per
// (teacher, team, subject, date) tuple.
type AttendanceSession struct {
	ID        string    `db:"id" json:"id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	TeamID    string    `db:"team_id" json:"team_id"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	Date      time.Time `db:"date" json:"date"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// AttendanceRecord marks one student present or absent within a session.
// Absent is the default when no record exists.
type AttendanceRecord struct {
	ID        string    `db:"id" json:"id"`
	SessionID string    `db:"session_id" json:"session_id"`
	StudentID string    `db:"student_id" json:"student_id"`
	Present   bool      `db:"present" json:"present"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// AbsenceRecord is an absence row joined with its session metadata.
type AbsenceRecord struct {
	AttendanceRecord
	SessionDate time.Time `db:"session_date" json:"session_date"`
	TeamID      string    `db:"team_id" json:"team_id"`
	SubjectID   string    `db:"subject_id" json:"subject_id"`
	SubjectName string    `db:"subject_name" json:"subject_name"`
}

// AbsenceFilter scopes absence listings. Month is a calendar month 1..12;
// zero means no month filter.
type AbsenceFilter struct {
	StudentID string
	SubjectID string
	Month     int
	Year      int
}
