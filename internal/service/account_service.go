package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/MarivaldoDev/sistema-escolar/internal/models"
	appErrors "github.com/MarivaldoDev/sistema-escolar/pkg/errors"
	"github.com/MarivaldoDev/sistema-escolar/pkg/mailer"
)

type accountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	FindByID(ctx context.Context, id string) (*models.Account, error)
	List(ctx context.Context, filter models.AccountFilter) ([]models.Account, int, error)
	Update(ctx context.Context, account *models.Account) error
}

type registrationAssigner interface {
	Assign(ctx context.Context) (string, error)
}

// AccountService provides account lifecycle use cases.
type AccountService struct {
	repo         accountRepository
	registration registrationAssigner
	mailer       mailer.Mailer
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewAccountService constructs an AccountService instance.
func NewAccountService(repo accountRepository, registration registrationAssigner, m mailer.Mailer, validate *validator.Validate, logger *zap.Logger) *AccountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AccountService{repo: repo, registration: registration, mailer: m, validator: validate, logger: logger}
}

// Create registers a new account. The registration number is assigned here
// and never changes afterwards. The welcome mail is best effort: a delivery
// failure is logged and the account stands.
func (s *AccountService) Create(ctx context.Context, actor models.Actor, req models.CreateAccountRequest) (*models.Account, error) {
	if !actor.Bypasses() {
		return nil, appErrors.Clone(appErrors.ErrAccessDenied, "administrator access required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid account payload")
	}
	if !req.Role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown account role")
	}

	number, err := s.registration.Assign(ctx)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	account := &models.Account{
		RegistrationNumber: number,
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		Email:              req.Email,
		Role:               req.Role,
		BirthDate:          req.BirthDate,
		PasswordHash:       string(hash),
		Active:             true,
	}

	if err := s.repo.Create(ctx, account); err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) && appErr.Code == appErrors.ErrDuplicateEntry.Code {
			return nil, appErrors.Clone(appErrors.ErrDuplicateEntry, "an account with this email already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create account")
	}

	if s.mailer != nil {
		if err := s.mailer.SendWelcome(ctx, account.FullName(), account.Email, account.RegistrationNumber); err != nil {
			s.logger.Warn("welcome mail failed",
				zap.String("account_id", account.ID),
				zap.Error(err),
			)
		}
	}

	return account, nil
}

// Get returns the account with the given id. Students can only fetch their
// own account.
func (s *AccountService) Get(ctx context.Context, actor models.Actor, id string) (*models.Account, error) {
	if !actor.Bypasses() && actor.Role == models.RoleStudent && actor.AccountID != id {
		return nil, appErrors.Clone(appErrors.ErrAccessDenied, "cannot access another account")
	}

	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "account not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load account")
	}
	return account, nil
}

// List returns accounts matching the filter plus pagination metadata.
func (s *AccountService) List(ctx context.Context, actor models.Actor, filter models.AccountFilter) ([]models.Account, *models.Pagination, error) {
	if !actor.Bypasses() && actor.Role != models.RoleTeacher {
		return nil, nil, appErrors.Clone(appErrors.ErrAccessDenied, "staff access required")
	}

	accounts, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list accounts")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	return accounts, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Update changes mutable account fields. The registration number is not
// among them.
func (s *AccountService) Update(ctx context.Context, actor models.Actor, id string, req models.UpdateAccountRequest) (*models.Account, error) {
	if !actor.Bypasses() && actor.AccountID != id {
		return nil, appErrors.Clone(appErrors.ErrAccessDenied, "cannot modify another account")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid account payload")
	}

	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "account not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load account")
	}

	if req.FirstName != nil {
		account.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		account.LastName = *req.LastName
	}
	if req.Email != nil {
		account.Email = *req.Email
	}
	if req.BirthDate != nil {
		account.BirthDate = req.BirthDate
	}
	if req.Active != nil {
		if !actor.Bypasses() {
			return nil, appErrors.Clone(appErrors.ErrAccessDenied, "only administrators can change account status")
		}
		account.Active = *req.Active
	}

	if err := s.repo.Update(ctx, account); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "account not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update account")
	}
	return account, nil
}
