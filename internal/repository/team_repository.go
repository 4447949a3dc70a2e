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

// TeamRepository handles team and membership persistence.
type TeamRepository struct {
	db *sqlx.DB
}

// NewTeamRepository creates a new team repository.
func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

// Create inserts a new team row.
func (r *TeamRepository) Create(ctx context.Context, team *models.Team) error {
	if team.ID == "" {
		team.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	team.CreatedAt = now
	team.UpdatedAt = now
	const query = `INSERT INTO teams (id, name, year, created_at, updated_at)
        VALUES (:id, :name, :year, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, team); err != nil {
		return fmt.Errorf("create team: %w", err)
	}
	return nil
}

// FindByID returns the team with the given id.
func (r *TeamRepository) FindByID(ctx context.Context, id string) (*models.Team, error) {
	var team models.Team
	const query = `SELECT id, name, year, created_at, updated_at FROM teams WHERE id = $1`
	if err := r.db.GetContext(ctx, &team, query, id); err != nil {
		return nil, err
	}
	return &team, nil
}

// List returns teams matching the filter plus the total count.
func (r *TeamRepository) List(ctx context.Context, filter models.TeamFilter) ([]models.Team, int, error) {
	base := "FROM teams WHERE 1=1"
	var args []interface{}
	if filter.Year != 0 {
		base += fmt.Sprintf(" AND year = $%d", len(args)+1)
		args = append(args, filter.Year)
	}
	if filter.Search != "" {
		base += fmt.Sprintf(" AND name ILIKE $%d", len(args)+1)
		args = append(args, "%"+strings.TrimSpace(filter.Search)+"%")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count teams: %w", err)
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
		"name": "name",
		"year": "year",
	}, "year DESC, name ASC")
	query := fmt.Sprintf("SELECT id, name, year, created_at, updated_at %s ORDER BY %s LIMIT %d OFFSET %d", base, order, pageSize, (page-1)*pageSize)

	var teams []models.Team
	if err := r.db.SelectContext(ctx, &teams, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list teams: %w", err)
	}
	return teams, total, nil
}

// ListForTeacher returns the teams a teacher reaches through subject offers.
func (r *TeamRepository) ListForTeacher(ctx context.Context, teacherID string) ([]models.Team, error) {
	const query = `SELECT DISTINCT t.id, t.name, t.year, t.created_at, t.updated_at
        FROM teams t
        JOIN subject_teams st ON st.team_id = t.id
        JOIN subject_teachers su ON su.subject_id = st.subject_id
        WHERE su.account_id = $1
        ORDER BY t.year DESC, t.name ASC`
	var teams []models.Team
	if err := r.db.SelectContext(ctx, &teams, query, teacherID); err != nil {
		return nil, fmt.Errorf("list teams for teacher: %w", err)
	}
	return teams, nil
}

// FindForStudent returns the team a student belongs to in the given year,
// or sql.ErrNoRows when there is none.
func (r *TeamRepository) FindForStudent(ctx context.Context, studentID string, year int) (*models.Team, error) {
	var team models.Team
	const query = `SELECT t.id, t.name, t.year, t.created_at, t.updated_at
        FROM teams t JOIN team_members m ON m.team_id = t.id
        WHERE m.account_id = $1 AND t.year = $2
        ORDER BY t.created_at ASC LIMIT 1`
	if err := r.db.GetContext(ctx, &team, query, studentID, year); err != nil {
		return nil, err
	}
	return &team, nil
}

// AddMember adds a student account to the team roster.
func (r *TeamRepository) AddMember(ctx context.Context, teamID, accountID string) error {
	const query = `INSERT INTO team_members (team_id, account_id) VALUES ($1, $2)`
	if _, err := r.db.ExecContext(ctx, query, teamID, accountID); err != nil {
		return fmt.Errorf("add team member: %w", mapUniqueViolation(err))
	}
	return nil
}

// RemoveMember removes a student account from the team roster.
func (r *TeamRepository) RemoveMember(ctx context.Context, teamID, accountID string) error {
	const query = `DELETE FROM team_members WHERE team_id = $1 AND account_id = $2`
	res, err := r.db.ExecContext(ctx, query, teamID, accountID)
	if err != nil {
		return fmt.Errorf("remove team member: %w", err)
	}
	return requireRowAffected(res)
}

// ListMembers returns the team roster with member info.
func (r *TeamRepository) ListMembers(ctx context.Context, teamID string) ([]models.TeamMember, error) {
	const query = `SELECT m.team_id, m.account_id, a.registration_number, a.first_name || ' ' || a.last_name AS full_name
        FROM team_members m JOIN accounts a ON a.id = m.account_id
        WHERE m.team_id = $1 ORDER BY a.first_name, a.last_name`
	var members []models.TeamMember
	if err := r.db.SelectContext(ctx, &members, query, teamID); err != nil {
		return nil, fmt.Errorf("list team members: %w", err)
	}
	return members, nil
}

// IsMember reports whether the account belongs to the team. Checked per
// request; membership is never cached.
func (r *TeamRepository) IsMember(ctx context.Context, teamID, accountID string) (bool, error) {
	var exists bool
	const query = `SELECT EXISTS (SELECT 1 FROM team_members WHERE team_id = $1 AND account_id = $2)`
	if err := r.db.GetContext(ctx, &exists, query, teamID, accountID); err != nil {
		return false, fmt.Errorf("check team membership: %w", err)
	}
	return exists, nil
}
