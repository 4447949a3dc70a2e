package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/MarivaldoDev/sistema-escolar/internal/models"
)

// AttendanceRepository handles attendance session and record persistence.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository creates a new attendance repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// GetOrCreateSession returns the session for the exact tuple, creating it
// when missing. Idempotent: two calls with the same tuple return the same
// session row.
func (r *AttendanceRepository) GetOrCreateSession(ctx context.Context, teacherID, teamID, subjectID string, date time.Time) (*models.AttendanceSession, error) {
	const insert = `INSERT INTO attendance_sessions (id, teacher_id, team_id, subject_id, date, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (teacher_id, team_id, subject_id, date) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, insert, uuid.NewString(), teacherID, teamID, subjectID, date, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("create attendance session: %w", err)
	}
	var session models.AttendanceSession
	const query = `SELECT id, teacher_id, team_id, subject_id, date, created_at
        FROM attendance_sessions
        WHERE teacher_id = $1 AND team_id = $2 AND subject_id = $3 AND date = $4`
	if err := r.db.GetContext(ctx, &session, query, teacherID, teamID, subjectID, date); err != nil {
		return nil, fmt.Errorf("fetch attendance session: %w", err)
	}
	return &session, nil
}

// FindSession returns the session with the given id.
func (r *AttendanceRepository) FindSession(ctx context.Context, id string) (*models.AttendanceSession, error) {
	var session models.AttendanceSession
	const query = `SELECT id, teacher_id, team_id, subject_id, date, created_at FROM attendance_sessions WHERE id = $1`
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// UpsertRecord creates or overwrites the presence record for
// (session, student).
func (r *AttendanceRepository) UpsertRecord(ctx context.Context, record *models.AttendanceRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	const query = `INSERT INTO attendance_records (id, session_id, student_id, present, created_at, updated_at)
        VALUES (:id, :session_id, :student_id, :present, :created_at, :updated_at)
        ON CONFLICT (session_id, student_id)
        DO UPDATE SET present = EXCLUDED.present, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("upsert attendance record: %w", err)
	}
	return nil
}

// ListRecords returns all records of a session.
func (r *AttendanceRepository) ListRecords(ctx context.Context, sessionID string) ([]models.AttendanceRecord, error) {
	const query = `SELECT id, session_id, student_id, present, created_at, updated_at
        FROM attendance_records WHERE session_id = $1 ORDER BY created_at ASC`
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, sessionID); err != nil {
		return nil, fmt.Errorf("list attendance records: %w", err)
	}
	return records, nil
}

// ListAbsences returns the absence rows of a student ordered by session date
// ascending, optionally narrowed by subject and calendar month.
func (r *AttendanceRepository) ListAbsences(ctx context.Context, filter models.AbsenceFilter) ([]models.AbsenceRecord, error) {
	query := `SELECT ar.id, ar.session_id, ar.student_id, ar.present, ar.created_at, ar.updated_at,
        s.date AS session_date, s.team_id, s.subject_id, sub.name AS subject_name
        FROM attendance_records ar
        JOIN attendance_sessions s ON s.id = ar.session_id
        JOIN subjects sub ON sub.id = s.subject_id
        WHERE ar.present = FALSE AND ar.student_id = $1`
	args := []interface{}{filter.StudentID}
	if filter.SubjectID != "" {
		query += fmt.Sprintf(" AND s.subject_id = $%d", len(args)+1)
		args = append(args, filter.SubjectID)
	}
	if filter.Month != 0 {
		query += fmt.Sprintf(" AND EXTRACT(MONTH FROM s.date) = $%d", len(args)+1)
		args = append(args, filter.Month)
	}
	if filter.Year != 0 {
		query += fmt.Sprintf(" AND EXTRACT(YEAR FROM s.date) = $%d", len(args)+1)
		args = append(args, filter.Year)
	}
	query += " ORDER BY s.date ASC"

	var absences []models.AbsenceRecord
	if err := r.db.SelectContext(ctx, &absences, query, args...); err != nil {
		return nil, fmt.Errorf("list absences: %w", err)
	}
	return absences, nil
}

// DeleteBySubject removes the sessions and records of a subject. Called by
// the explicit subject-deletion cascade.
func (r *AttendanceRepository) DeleteBySubject(ctx context.Context, subjectID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM attendance_records WHERE session_id IN (SELECT id FROM attendance_sessions WHERE subject_id = $1)`, subjectID); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("delete attendance records by subject: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM attendance_sessions WHERE subject_id = $1`, subjectID); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("delete attendance sessions by subject: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit attendance delete: %w", err)
	}
	return nil
}
