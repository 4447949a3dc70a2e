package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/MarivaldoDev/sistema-escolar/internal/models"
)

// SubjectRepository handles subject, teaching-set and offer persistence.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository creates a new subject repository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// Create inserts a new subject row.
func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	if subject.ID == "" {
		subject.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	subject.CreatedAt = now
	subject.UpdatedAt = now
	const query = `INSERT INTO subjects (id, name, created_at, updated_at)
        VALUES (:id, :name, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, subject); err != nil {
		return fmt.Errorf("create subject: %w", err)
	}
	return nil
}

// FindByID returns the subject with the given id.
func (r *SubjectRepository) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	var subject models.Subject
	const query = `SELECT id, name, created_at, updated_at FROM subjects WHERE id = $1`
	if err := r.db.GetContext(ctx, &subject, query, id); err != nil {
		return nil, err
	}
	return &subject, nil
}

// List returns subjects matching the filter plus the total count.
func (r *SubjectRepository) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error) {
	base := "FROM subjects s WHERE 1=1"
	var args []interface{}
	if filter.TeamID != "" {
		base += fmt.Sprintf(" AND EXISTS (SELECT 1 FROM subject_teams st WHERE st.subject_id = s.id AND st.team_id = $%d)", len(args)+1)
		args = append(args, filter.TeamID)
	}
	if filter.TeacherID != "" {
		base += fmt.Sprintf(" AND EXISTS (SELECT 1 FROM subject_teachers su WHERE su.subject_id = s.id AND su.account_id = $%d)", len(args)+1)
		args = append(args, filter.TeacherID)
	}
	if filter.Search != "" {
		base += fmt.Sprintf(" AND s.name ILIKE $%d", len(args)+1)
		args = append(args, "%"+strings.TrimSpace(filter.Search)+"%")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count subjects: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	order := orderClause(filter.SortBy, filter.SortOrder, map[string]string{
		"name": "s.name",
	}, "s.name ASC")
	query := fmt.Sprintf("SELECT s.id, s.name, s.created_at, s.updated_at %s ORDER BY %s LIMIT %d OFFSET %d", base, order, pageSize, (page-1)*pageSize)

	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, total, nil
}

// AddTeacher adds an account to the subject's teaching set.
func (r *SubjectRepository) AddTeacher(ctx context.Context, subjectID, accountID string) error {
	const query = `INSERT INTO subject_teachers (subject_id, account_id) VALUES ($1, $2)`
	if _, err := r.db.ExecContext(ctx, query, subjectID, accountID); err != nil {
		return fmt.Errorf("add subject teacher: %w", mapUniqueViolation(err))
	}
	return nil
}

// RemoveTeacher removes an account from the subject's teaching set.
func (r *SubjectRepository) RemoveTeacher(ctx context.Context, subjectID, accountID string) error {
	const query = `DELETE FROM subject_teachers WHERE subject_id = $1 AND account_id = $2`
	res, err := r.db.ExecContext(ctx, query, subjectID, accountID)
	if err != nil {
		return fmt.Errorf("remove subject teacher: %w", err)
	}
	return requireRowAffected(res)
}

// ListTeachers returns the teaching set with teacher info.
func (r *SubjectRepository) ListTeachers(ctx context.Context, subjectID string) ([]models.SubjectTeacher, error) {
	const query = `SELECT su.subject_id, su.account_id, a.registration_number, a.first_name || ' ' || a.last_name AS full_name
        FROM subject_teachers su JOIN accounts a ON a.id = su.account_id
        WHERE su.subject_id = $1 ORDER BY a.first_name, a.last_name`
	var teachers []models.SubjectTeacher
	if err := r.db.SelectContext(ctx, &teachers, query, subjectID); err != nil {
		return nil, fmt.Errorf("list subject teachers: %w", err)
	}
	return teachers, nil
}

// Teaches reports whether the account appears in the subject's teaching set.
// Evaluated per request; never cached.
func (r *SubjectRepository) Teaches(ctx context.Context, subjectID, accountID string) (bool, error) {
	var exists bool
	const query = `SELECT EXISTS (SELECT 1 FROM subject_teachers WHERE subject_id = $1 AND account_id = $2)`
	if err := r.db.GetContext(ctx, &exists, query, subjectID, accountID); err != nil {
		return false, fmt.Errorf("check teaching set: %w", err)
	}
	return exists, nil
}

// Offer associates the subject with a team.
func (r *SubjectRepository) Offer(ctx context.Context, subjectID, teamID string) error {
	const query = `INSERT INTO subject_teams (subject_id, team_id) VALUES ($1, $2)
        ON CONFLICT (subject_id, team_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, subjectID, teamID); err != nil {
		return fmt.Errorf("offer subject: %w", err)
	}
	return nil
}

// RevokeOffer removes the association between subject and team.
func (r *SubjectRepository) RevokeOffer(ctx context.Context, subjectID, teamID string) error {
	const query = `DELETE FROM subject_teams WHERE subject_id = $1 AND team_id = $2`
	res, err := r.db.ExecContext(ctx, query, subjectID, teamID)
	if err != nil {
		return fmt.Errorf("revoke subject offer: %w", err)
	}
	return requireRowAffected(res)
}

// IsOffered reports whether the subject is offered to the team.
func (r *SubjectRepository) IsOffered(ctx context.Context, subjectID, teamID string) (bool, error) {
	var exists bool
	const query = `SELECT EXISTS (SELECT 1 FROM subject_teams WHERE subject_id = $1 AND team_id = $2)`
	if err := r.db.GetContext(ctx, &exists, query, subjectID, teamID); err != nil {
		return false, fmt.Errorf("check subject offer: %w", err)
	}
	return exists, nil
}

// Delete removes the subject row itself. Dependent grade entries and
// attendance sessions are removed explicitly by the service beforehand.
func (r *SubjectRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	for _, query := range []string{
		`DELETE FROM subject_teachers WHERE subject_id = $1`,
		`DELETE FROM subject_teams WHERE subject_id = $1`,
		`DELETE FROM subjects WHERE id = $1`,
	} {
		if _, err := tx.ExecContext(ctx, query, id); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("delete subject: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit subject delete: %w", err)
	}
	return nil
}
