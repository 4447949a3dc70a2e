package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/MarivaldoDev/sistema-escolar/internal/models"
	appErrors "github.com/MarivaldoDev/sistema-escolar/pkg/errors"
)

type mockAccountRepo struct {
	accounts map[string]*models.Account
	created  []*models.Account
}

func (m *mockAccountRepo) Create(_ context.Context, account *models.Account) error {
	if account.ID == "" {
		account.ID = "acc-new"
	}
	if m.accounts == nil {
		m.accounts = make(map[string]*models.Account)
	}
	m.accounts[account.ID] = account
	m.created = append(m.created, account)
	return nil
}

func (m *mockAccountRepo) FindByID(_ context.Context, id string) (*models.Account, error) {
	if a, ok := m.accounts[id]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAccountRepo) List(_ context.Context, _ models.AccountFilter) ([]models.Account, int, error) {
	var out []models.Account
	for _, a := range m.accounts {
		out = append(out, *a)
	}
	return out, len(out), nil
}

func (m *mockAccountRepo) Update(_ context.Context, account *models.Account) error {
	if _, ok := m.accounts[account.ID]; !ok {
		return sql.ErrNoRows
	}
	m.accounts[account.ID] = account
	return nil
}

type mockAssigner struct {
	number string
	err    error
}

func (m *mockAssigner) Assign(_ context.Context) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.number, nil
}

type mockMailer struct {
	sent []string
	err  error
}

func (m *mockMailer) SendWelcome(_ context.Context, _, email, _ string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, email)
	return nil
}

func validCreateAccountRequest() models.CreateAccountRequest {
	return models.CreateAccountRequest{
		FirstName: "Maria",
		LastName:  "Silva",
		Email:     "maria@example.com",
		Password:  "s3nh4forte",
		Role:      models.RoleStudent,
	}
}

func TestAccountServiceCreateAssignsNumberAndHashesPassword(t *testing.T) {
	repo := &mockAccountRepo{}
	mail := &mockMailer{}
	s := NewAccountService(repo, &mockAssigner{number: "12345678"}, mail, nil, nil)

	account, err := s.Create(context.Background(), adminActor(), validCreateAccountRequest())
	require.NoError(t, err)

	assert.Equal(t, "12345678", account.RegistrationNumber)
	assert.True(t, account.Active)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte("s3nh4forte")))
	assert.NotEqual(t, "s3nh4forte", account.PasswordHash)
	assert.Equal(t, []string{"maria@example.com"}, mail.sent)
}

func TestAccountServiceCreateSurvivesMailFailure(t *testing.T) {
	repo := &mockAccountRepo{}
	mail := &mockMailer{err: errors.New("sendgrid unavailable")}
	s := NewAccountService(repo, &mockAssigner{number: "12345678"}, mail, nil, nil)

	account, err := s.Create(context.Background(), adminActor(), validCreateAccountRequest())
	require.NoError(t, err, "mail delivery is best effort")
	assert.NotEmpty(t, account.ID)
	assert.Len(t, repo.created, 1)
}

func TestAccountServiceCreateRejectsInvalidPayload(t *testing.T) {
	s := NewAccountService(&mockAccountRepo{}, &mockAssigner{number: "12345678"}, nil, nil, nil)

	req := validCreateAccountRequest()
	req.Password = "short"
	_, err := s.Create(context.Background(), adminActor(), req)
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestAccountServiceCreateRejectsUnknownRole(t *testing.T) {
	s := NewAccountService(&mockAccountRepo{}, &mockAssigner{number: "12345678"}, nil, nil, nil)

	req := validCreateAccountRequest()
	req.Role = models.AccountRole("PRINCIPAL")
	_, err := s.Create(context.Background(), adminActor(), req)
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestAccountServiceCreateRequiresAdmin(t *testing.T) {
	repo := &mockAccountRepo{}
	s := NewAccountService(repo, &mockAssigner{number: "12345678"}, nil, nil, nil)

	_, err := s.Create(context.Background(), teacherActor(), validCreateAccountRequest())
	assertAccessDenied(t, err)
	assert.Empty(t, repo.created)
}

func TestAccountServiceGetScopesStudents(t *testing.T) {
	repo := &mockAccountRepo{accounts: map[string]*models.Account{
		"stu-1": {ID: "stu-1", Role: models.RoleStudent},
		"stu-2": {ID: "stu-2", Role: models.RoleStudent},
	}}
	s := NewAccountService(repo, &mockAssigner{}, nil, nil, nil)

	student := models.Actor{AccountID: "stu-1", Role: models.RoleStudent}

	own, err := s.Get(context.Background(), student, "stu-1")
	require.NoError(t, err)
	assert.Equal(t, "stu-1", own.ID)

	_, err = s.Get(context.Background(), student, "stu-2")
	assertAccessDenied(t, err)
}

func TestAccountServiceUpdateKeepsRegistrationNumber(t *testing.T) {
	repo := &mockAccountRepo{accounts: map[string]*models.Account{
		"acc-1": {ID: "acc-1", RegistrationNumber: "12345678", FirstName: "Maria", Role: models.RoleStudent},
	}}
	s := NewAccountService(repo, &mockAssigner{}, nil, nil, nil)

	newName := "Mariana"
	updated, err := s.Update(context.Background(), adminActor(), "acc-1", models.UpdateAccountRequest{FirstName: &newName})
	require.NoError(t, err)
	assert.Equal(t, "Mariana", updated.FirstName)
	assert.Equal(t, "12345678", updated.RegistrationNumber)
}
