package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/MarivaldoDev/sistema-escolar/internal/models"
	appErrors "github.com/MarivaldoDev/sistema-escolar/pkg/errors"
)

type teamRepository interface {
	Create(ctx context.Context, team *models.Team) error
	FindByID(ctx context.Context, id string) (*models.Team, error)
	List(ctx context.Context, filter models.TeamFilter) ([]models.Team, int, error)
	ListForTeacher(ctx context.Context, teacherID string) ([]models.Team, error)
	AddMember(ctx context.Context, teamID, accountID string) error
	RemoveMember(ctx context.Context, teamID, accountID string) error
	ListMembers(ctx context.Context, teamID string) ([]models.TeamMember, error)
}

type teamAccountRepository interface {
	FindByID(ctx context.Context, id string) (*models.Account, error)
}

// TeamService provides roster use cases.
type TeamService struct {
	repo      teamRepository
	accounts  teamAccountRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeamService constructs a TeamService instance.
func NewTeamService(repo teamRepository, accounts teamAccountRepository, validate *validator.Validate, logger *zap.Logger) *TeamService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &TeamService{repo: repo, accounts: accounts, validator: validate, logger: logger}
}

// Create registers a new team.
func (s *TeamService) Create(ctx context.Context, actor models.Actor, req models.CreateTeamRequest) (*models.Team, error) {
	if !actor.Bypasses() {
		return nil, appErrors.Clone(appErrors.ErrAccessDenied, "administrator access required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid team payload")
	}

	team := &models.Team{Name: req.Name, Year: req.Year}
	if err := s.repo.Create(ctx, team); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create team")
	}
	return team, nil
}

// Get returns the team with the given id.
func (s *TeamService) Get(ctx context.Context, id string) (*models.Team, error) {
	team, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "team not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load team")
	}
	return team, nil
}

// List returns teams matching the filter. Teachers see only the teams their
// subjects are offered to.
func (s *TeamService) List(ctx context.Context, actor models.Actor, filter models.TeamFilter) ([]models.Team, *models.Pagination, error) {
	if !actor.Bypasses() && actor.Role == models.RoleTeacher {
		teams, err := s.repo.ListForTeacher(ctx, actor.AccountID)
		if err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teams")
		}
		return teams, &models.Pagination{Page: 1, PageSize: len(teams), TotalCount: len(teams)}, nil
	}
	if !actor.Bypasses() {
		return nil, nil, appErrors.Clone(appErrors.ErrAccessDenied, "staff access required")
	}

	teams, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teams")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	return teams, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// AddMember enrols a student in the team. Only accounts with the student
// role can join a roster; the role is verified before anything is written,
// so a rejected call leaves the roster untouched.
func (s *TeamService) AddMember(ctx context.Context, actor models.Actor, teamID, accountID string) error {
	if !actor.Bypasses() {
		return appErrors.Clone(appErrors.ErrAccessDenied, "administrator access required")
	}

	if _, err := s.repo.FindByID(ctx, teamID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "team not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load team")
	}

	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "account not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load account")
	}
	if account.Role != models.RoleStudent {
		return appErrors.Clone(appErrors.ErrRoleViolation, "only student accounts can join a team roster")
	}

	if err := s.repo.AddMember(ctx, teamID, accountID); err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) && appErr.Code == appErrors.ErrDuplicateEntry.Code {
			return appErrors.Clone(appErrors.ErrDuplicateEntry, "student is already on this roster")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add team member")
	}
	return nil
}

// RemoveMember removes a student from the team roster.
func (s *TeamService) RemoveMember(ctx context.Context, actor models.Actor, teamID, accountID string) error {
	if !actor.Bypasses() {
		return appErrors.Clone(appErrors.ErrAccessDenied, "administrator access required")
	}
	if err := s.repo.RemoveMember(ctx, teamID, accountID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "roster entry not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove team member")
	}
	return nil
}

// ListMembers returns the team roster.
func (s *TeamService) ListMembers(ctx context.Context, actor models.Actor, teamID string) ([]models.TeamMember, error) {
	if !actor.Bypasses() && actor.Role == models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrAccessDenied, "staff access required")
	}
	members, err := s.repo.ListMembers(ctx, teamID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list team members")
	}
	return members, nil
}
