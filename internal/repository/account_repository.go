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

// AccountRepository handles account persistence.
type AccountRepository struct {
	db *sqlx.DB
}

// NewAccountRepository creates a new account repository.
func NewAccountRepository(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id, registration_number, first_name, last_name, email, role, superuser, birth_date, password_hash, active, created_at, updated_at`

// Create inserts a new account row.
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now
	const query = `INSERT INTO accounts (id, registration_number, first_name, last_name, email, role, superuser, birth_date, password_hash, active, created_at, updated_at)
        VALUES (:id, :registration_number, :first_name, :last_name, :email, :role, :superuser, :birth_date, :password_hash, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, account); err != nil {
		return fmt.Errorf("create account: %w", mapUniqueViolation(err))
	}
	return nil
}

// FindByID returns the account with the given id.
func (r *AccountRepository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	var account models.Account
	query := fmt.Sprintf("SELECT %s FROM accounts WHERE id = $1", accountColumns)
	if err := r.db.GetContext(ctx, &account, query, id); err != nil {
		return nil, err
	}
	return &account, nil
}

// FindByRegistrationNumber returns the account holding the given number.
func (r *AccountRepository) FindByRegistrationNumber(ctx context.Context, number string) (*models.Account, error) {
	var account models.Account
	query := fmt.Sprintf("SELECT %s FROM accounts WHERE registration_number = $1", accountColumns)
	if err := r.db.GetContext(ctx, &account, query, number); err != nil {
		return nil, err
	}
	return &account, nil
}

// RegistrationNumberExists is the uniqueness check used by the registration
// number retry loop.
func (r *AccountRepository) RegistrationNumberExists(ctx context.Context, number string) (bool, error) {
	var exists bool
	const query = `SELECT EXISTS (SELECT 1 FROM accounts WHERE registration_number = $1)`
	if err := r.db.GetContext(ctx, &exists, query, number); err != nil {
		return false, fmt.Errorf("check registration number: %w", err)
	}
	return exists, nil
}

// List returns accounts matching the filter plus the total count.
func (r *AccountRepository) List(ctx context.Context, filter models.AccountFilter) ([]models.Account, int, error) {
	base := "FROM accounts WHERE 1=1"
	var args []interface{}
	if filter.Role != nil {
		base += fmt.Sprintf(" AND role = $%d", len(args)+1)
		args = append(args, *filter.Role)
	}
	if filter.Active != nil {
		base += fmt.Sprintf(" AND active = $%d", len(args)+1)
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		base += fmt.Sprintf(" AND (first_name ILIKE $%d OR last_name ILIKE $%d OR registration_number ILIKE $%d)", len(args)+1, len(args)+1, len(args)+1)
		args = append(args, "%"+strings.TrimSpace(filter.Search)+"%")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count accounts: %w", err)
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
		"name":       "first_name",
		"created_at": "created_at",
	}, "first_name ASC")
	query := fmt.Sprintf("SELECT %s %s ORDER BY %s LIMIT %d OFFSET %d", accountColumns, base, order, pageSize, (page-1)*pageSize)

	var accounts []models.Account
	if err := r.db.SelectContext(ctx, &accounts, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, total, nil
}

// Update persists mutable account fields. The registration number is never
// part of the update set.
func (r *AccountRepository) Update(ctx context.Context, account *models.Account) error {
	account.UpdatedAt = time.Now().UTC()
	const query = `UPDATE accounts SET first_name = :first_name, last_name = :last_name, email = :email,
        birth_date = :birth_date, active = :active, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, account)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	return requireRowAffected(res)
}
