package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/MarivaldoDev/sistema-escolar/internal/models"
	appErrors "github.com/MarivaldoDev/sistema-escolar/pkg/errors"
)

type mockAuthRepo struct {
	accounts map[string]*models.Account
}

func (m *mockAuthRepo) FindByRegistrationNumber(_ context.Context, number string) (*models.Account, error) {
	if a, ok := m.accounts[number]; ok {
		return a, nil
	}
	return nil, sql.ErrNoRows
}

func authTestConfig() AuthConfig {
	return AuthConfig{Secret: "test-secret", Expiration: time.Hour, Issuer: "sistema-escolar"}
}

func seedAuthRepo(t *testing.T, active bool) *mockAuthRepo {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3nh4forte"), bcrypt.MinCost)
	require.NoError(t, err)
	return &mockAuthRepo{accounts: map[string]*models.Account{
		"12345678": {
			ID:                 "acc-1",
			RegistrationNumber: "12345678",
			FirstName:          "Maria",
			LastName:           "Silva",
			Role:               models.RoleStudent,
			PasswordHash:       string(hash),
			Active:             active,
		},
	}}
}

func TestAuthServiceLogin(t *testing.T) {
	s := NewAuthService(seedAuthRepo(t, true), nil, nil, authTestConfig())

	resp, err := s.Login(context.Background(), models.LoginRequest{
		RegistrationNumber: "12345678",
		Password:           "s3nh4forte",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "acc-1", resp.Account.ID)
	assert.Equal(t, models.RoleStudent, resp.Account.Role)

	claims, err := s.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", claims.AccountID)
	assert.Equal(t, "12345678", claims.RegistrationNumber)

	actor := claims.Actor()
	assert.Equal(t, "acc-1", actor.AccountID)
	assert.False(t, actor.Bypasses())
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	s := NewAuthService(seedAuthRepo(t, true), nil, nil, authTestConfig())

	_, err := s.Login(context.Background(), models.LoginRequest{
		RegistrationNumber: "12345678",
		Password:           "wrongpassword",
	})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestAuthServiceLoginUnknownNumberSameError(t *testing.T) {
	s := NewAuthService(seedAuthRepo(t, true), nil, nil, authTestConfig())

	_, unknownErr := s.Login(context.Background(), models.LoginRequest{
		RegistrationNumber: "99999999",
		Password:           "s3nh4forte",
	})
	_, wrongErr := s.Login(context.Background(), models.LoginRequest{
		RegistrationNumber: "12345678",
		Password:           "wrongpassword",
	})

	var unknownAppErr, wrongAppErr *appErrors.Error
	require.True(t, errors.As(unknownErr, &unknownAppErr))
	require.True(t, errors.As(wrongErr, &wrongAppErr))
	assert.Equal(t, wrongAppErr.Code, unknownAppErr.Code)
	assert.Equal(t, wrongAppErr.Message, unknownAppErr.Message)
}

func TestAuthServiceLoginInactiveAccount(t *testing.T) {
	s := NewAuthService(seedAuthRepo(t, false), nil, nil, authTestConfig())

	_, err := s.Login(context.Background(), models.LoginRequest{
		RegistrationNumber: "12345678",
		Password:           "s3nh4forte",
	})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErr.Code)
}

func TestAuthServiceLoginValidatesPayload(t *testing.T) {
	s := NewAuthService(seedAuthRepo(t, true), nil, nil, authTestConfig())

	// Registration numbers are exactly eight digits.
	for _, number := range []string{"1234567", "123456789", "12a45678", ""} {
		_, err := s.Login(context.Background(), models.LoginRequest{
			RegistrationNumber: number,
			Password:           "s3nh4forte",
		})
		require.Error(t, err)

		var appErr *appErrors.Error
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	}
}

func TestAuthServiceValidateTokenRejectsTampering(t *testing.T) {
	s := NewAuthService(seedAuthRepo(t, true), nil, nil, authTestConfig())

	resp, err := s.Login(context.Background(), models.LoginRequest{
		RegistrationNumber: "12345678",
		Password:           "s3nh4forte",
	})
	require.NoError(t, err)

	other := NewAuthService(seedAuthRepo(t, true), nil, nil, AuthConfig{Secret: "other-secret", Expiration: time.Hour})
	_, err = other.ValidateToken(resp.AccessToken)
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}
