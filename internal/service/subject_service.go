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

type subjectRepository interface {
	Create(ctx context.Context, subject *models.Subject) error
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error)
	AddTeacher(ctx context.Context, subjectID, accountID string) error
	RemoveTeacher(ctx context.Context, subjectID, accountID string) error
	ListTeachers(ctx context.Context, subjectID string) ([]models.SubjectTeacher, error)
	Offer(ctx context.Context, subjectID, teamID string) error
	RevokeOffer(ctx context.Context, subjectID, teamID string) error
	Delete(ctx context.Context, id string) error
}

type subjectAccountRepository interface {
	FindByID(ctx context.Context, id string) (*models.Account, error)
}

type subjectGradeRepository interface {
	DeleteBySubject(ctx context.Context, subjectID string) error
}

type subjectAttendanceRepository interface {
	DeleteBySubject(ctx context.Context, subjectID string) error
}

type reportInvalidator interface {
	InvalidateAll(ctx context.Context) error
}

// SubjectService provides subject, teaching-set and offer use cases.
type SubjectService struct {
	repo       subjectRepository
	accounts   subjectAccountRepository
	grades     subjectGradeRepository
	attendance subjectAttendanceRepository
	reports    reportInvalidator
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewSubjectService constructs a SubjectService instance.
func NewSubjectService(repo subjectRepository, accounts subjectAccountRepository, grades subjectGradeRepository, attendance subjectAttendanceRepository, reports reportInvalidator, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SubjectService{
		repo:       repo,
		accounts:   accounts,
		grades:     grades,
		attendance: attendance,
		reports:    reports,
		validator:  validate,
		logger:     logger,
	}
}

// Create registers a new subject.
func (s *SubjectService) Create(ctx context.Context, actor models.Actor, req models.CreateSubjectRequest) (*models.Subject, error) {
	if !actor.Bypasses() {
		return nil, appErrors.Clone(appErrors.ErrAccessDenied, "administrator access required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}

	subject := &models.Subject{Name: req.Name}
	if err := s.repo.Create(ctx, subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subject")
	}
	return subject, nil
}

// Get returns the subject with the given id.
func (s *SubjectService) Get(ctx context.Context, id string) (*models.Subject, error) {
	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	return subject, nil
}

// List returns subjects matching the filter. Teachers are scoped to their
// own teaching set.
func (s *SubjectService) List(ctx context.Context, actor models.Actor, filter models.SubjectFilter) ([]models.Subject, *models.Pagination, error) {
	if !actor.Bypasses() && actor.Role == models.RoleTeacher {
		filter.TeacherID = actor.AccountID
	}

	subjects, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	return subjects, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// AddTeacher adds an account to the subject's teaching set. Only accounts
// with the teacher role qualify; the role is verified before anything is
// written, so a rejected call leaves the teaching set untouched.
func (s *SubjectService) AddTeacher(ctx context.Context, actor models.Actor, subjectID, accountID string) error {
	if !actor.Bypasses() {
		return appErrors.Clone(appErrors.ErrAccessDenied, "administrator access required")
	}

	if _, err := s.repo.FindByID(ctx, subjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "account not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load account")
	}
	if account.Role != models.RoleTeacher {
		return appErrors.Clone(appErrors.ErrRoleViolation, "only teacher accounts can join a teaching set")
	}

	if err := s.repo.AddTeacher(ctx, subjectID, accountID); err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) && appErr.Code == appErrors.ErrDuplicateEntry.Code {
			return appErrors.Clone(appErrors.ErrDuplicateEntry, "account is already in this teaching set")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add subject teacher")
	}
	return nil
}

// RemoveTeacher removes an account from the subject's teaching set. Access
// checks are evaluated live, so the removed teacher loses scope immediately.
func (s *SubjectService) RemoveTeacher(ctx context.Context, actor models.Actor, subjectID, accountID string) error {
	if !actor.Bypasses() {
		return appErrors.Clone(appErrors.ErrAccessDenied, "administrator access required")
	}
	if err := s.repo.RemoveTeacher(ctx, subjectID, accountID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "teaching-set entry not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove subject teacher")
	}
	return nil
}

// ListTeachers returns the subject's teaching set.
func (s *SubjectService) ListTeachers(ctx context.Context, subjectID string) ([]models.SubjectTeacher, error) {
	teachers, err := s.repo.ListTeachers(ctx, subjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subject teachers")
	}
	return teachers, nil
}

// Offer associates the subject with a team. Offering twice is a no-op.
func (s *SubjectService) Offer(ctx context.Context, actor models.Actor, subjectID, teamID string) error {
	if !actor.Bypasses() {
		return appErrors.Clone(appErrors.ErrAccessDenied, "administrator access required")
	}
	if err := s.repo.Offer(ctx, subjectID, teamID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to offer subject")
	}
	return nil
}

// RevokeOffer removes the subject-team association.
func (s *SubjectService) RevokeOffer(ctx context.Context, actor models.Actor, subjectID, teamID string) error {
	if !actor.Bypasses() {
		return appErrors.Clone(appErrors.ErrAccessDenied, "administrator access required")
	}
	if err := s.repo.RevokeOffer(ctx, subjectID, teamID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "offer not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revoke subject offer")
	}
	return nil
}

// Delete removes the subject and its dependent records. The cascade is
// explicit: grade entries and attendance sessions go first, then the subject
// row. Cached report cards touching the subject are invalidated.
func (s *SubjectService) Delete(ctx context.Context, actor models.Actor, subjectID string) error {
	if !actor.Bypasses() {
		return appErrors.Clone(appErrors.ErrAccessDenied, "administrator access required")
	}

	if _, err := s.repo.FindByID(ctx, subjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	if err := s.grades.DeleteBySubject(ctx, subjectID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete subject grades")
	}
	if err := s.attendance.DeleteBySubject(ctx, subjectID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete subject attendance")
	}
	if err := s.repo.Delete(ctx, subjectID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete subject")
	}

	if s.reports != nil {
		if err := s.reports.InvalidateAll(ctx); err != nil {
			s.logger.Warn("report cache invalidation failed", zap.Error(err))
		}
	}
	return nil
}
