package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MarivaldoDev/sistema-escolar/internal/models"
	appErrors "github.com/MarivaldoDev/sistema-escolar/pkg/errors"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAccountRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	mock.ExpectExec("INSERT INTO accounts").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	account := &models.Account{
		RegistrationNumber: "12345678",
		FirstName:          "Maria",
		LastName:           "Silva",
		Email:              "maria@example.com",
		Role:               models.RoleStudent,
		PasswordHash:       "hash",
		Active:             true,
	}
	err := repo.Create(context.Background(), account)
	require.NoError(t, err)
	assert.NotEmpty(t, account.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepositoryCreateDuplicateEmail(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	mock.ExpectExec("INSERT INTO accounts").
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.Account{Email: "dup@example.com"})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrDuplicateEntry.Code, appErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepositoryRegistrationNumberExists(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("12345678").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.RegistrationNumberExists(context.Background(), "12345678")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepositoryFindByRegistrationNumber(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	rows := sqlmock.NewRows([]string{"id", "registration_number", "first_name", "last_name", "email", "role", "superuser", "birth_date", "password_hash", "active", "created_at", "updated_at"}).
		AddRow("acc-1", "12345678", "Maria", "Silva", "maria@example.com", "STUDENT", false, nil, "hash", true, time.Now(), time.Now())
	mock.ExpectQuery("SELECT .+ FROM accounts WHERE registration_number").
		WithArgs("12345678").
		WillReturnRows(rows)

	account, err := repo.FindByRegistrationNumber(context.Background(), "12345678")
	require.NoError(t, err)
	assert.Equal(t, "acc-1", account.ID)
	assert.Equal(t, models.RoleStudent, account.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	role := models.RoleTeacher
	mock.ExpectQuery("SELECT COUNT").
		WithArgs(role).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	rows := sqlmock.NewRows([]string{"id", "registration_number", "first_name", "last_name", "email", "role", "superuser", "birth_date", "password_hash", "active", "created_at", "updated_at"}).
		AddRow("acc-2", "87654321", "Joao", "Souza", "joao@example.com", "TEACHER", false, nil, "hash", true, time.Now(), time.Now())
	mock.ExpectQuery("SELECT .+ FROM accounts").
		WithArgs(role).
		WillReturnRows(rows)

	accounts, total, err := repo.List(context.Background(), models.AccountFilter{Role: &role})
	require.NoError(t, err)
	assert.Len(t, accounts, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepositoryUpdateMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	mock.ExpectExec("UPDATE accounts").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.Account{ID: "missing"})
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}
