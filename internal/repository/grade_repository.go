package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/MarivaldoDev/sistema-escolar/internal/models"
)

// GradeRepository handles grade entry persistence.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository creates a new grade repository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

const gradeDetailColumns = `g.id, g.student_id, g.subject_id, g.team_id, g.period_id,
        g.activity_score, g.exam_score, g.average, g.created_at, g.updated_at,
        p.ordinal AS period_ordinal, p.year AS period_year, s.name AS subject_name`

// Insert stores a new grade entry. The unique constraint on
// (student_id, subject_id, team_id, period_id) backs the application-level
// duplicate check; a concurrent duplicate surfaces as DUPLICATE_ENTRY.
func (r *GradeRepository) Insert(ctx context.Context, entry *models.GradeEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now
	const query = `INSERT INTO grade_entries (id, student_id, subject_id, team_id, period_id, activity_score, exam_score, average, created_at, updated_at)
        VALUES (:id, :student_id, :subject_id, :team_id, :period_id, :activity_score, :exam_score, :average, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("insert grade: %w", mapUniqueViolation(err))
	}
	return nil
}

// Exists reports whether an entry already exists for the exact tuple.
func (r *GradeRepository) Exists(ctx context.Context, studentID, subjectID, teamID, periodID string) (bool, error) {
	var exists bool
	const query = `SELECT EXISTS (SELECT 1 FROM grade_entries
        WHERE student_id = $1 AND subject_id = $2 AND team_id = $3 AND period_id = $4)`
	if err := r.db.GetContext(ctx, &exists, query, studentID, subjectID, teamID, periodID); err != nil {
		return false, fmt.Errorf("check grade entry: %w", err)
	}
	return exists, nil
}

// FindByID returns a grade entry with period and subject metadata.
func (r *GradeRepository) FindByID(ctx context.Context, id string) (*models.GradeEntryDetail, error) {
	var entry models.GradeEntryDetail
	query := fmt.Sprintf(`SELECT %s FROM grade_entries g
        JOIN periods p ON p.id = g.period_id
        JOIN subjects s ON s.id = g.subject_id
        WHERE g.id = $1`, gradeDetailColumns)
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// UpdateScores rewrites the two scores and the derived average. Identity
// fields (student, subject, team, period) are immutable.
func (r *GradeRepository) UpdateScores(ctx context.Context, id string, activity, exam, average float64) error {
	const query = `UPDATE grade_entries
        SET activity_score = $2, exam_score = $3, average = $4, updated_at = $5
        WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, activity, exam, average, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update grade scores: %w", err)
	}
	return requireRowAffected(res)
}

// ListFor returns the entries for a (student, subject, team) ordered by
// period ordinal ascending. The query is repeatable: identical persisted
// state yields identical sequences.
func (r *GradeRepository) ListFor(ctx context.Context, filter models.GradeFilter) ([]models.GradeEntryDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM grade_entries g
        JOIN periods p ON p.id = g.period_id
        JOIN subjects s ON s.id = g.subject_id
        WHERE 1=1`, gradeDetailColumns)
	var args []interface{}
	if filter.StudentID != "" {
		query += fmt.Sprintf(" AND g.student_id = $%d", len(args)+1)
		args = append(args, filter.StudentID)
	}
	if filter.SubjectID != "" {
		query += fmt.Sprintf(" AND g.subject_id = $%d", len(args)+1)
		args = append(args, filter.SubjectID)
	}
	if filter.TeamID != "" {
		query += fmt.Sprintf(" AND g.team_id = $%d", len(args)+1)
		args = append(args, filter.TeamID)
	}
	if filter.Year != 0 {
		query += fmt.Sprintf(" AND p.year = $%d", len(args)+1)
		args = append(args, filter.Year)
	}
	query += " ORDER BY p.year ASC, p.ordinal ASC"

	var entries []models.GradeEntryDetail
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list grades: %w", err)
	}
	return entries, nil
}

// DeleteBySubject removes every grade entry of a subject. Called by the
// explicit subject-deletion cascade.
func (r *GradeRepository) DeleteBySubject(ctx context.Context, subjectID string) error {
	const query = `DELETE FROM grade_entries WHERE subject_id = $1`
	if _, err := r.db.ExecContext(ctx, query, subjectID); err != nil {
		return fmt.Errorf("delete grades by subject: %w", err)
	}
	return nil
}
