package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MarivaldoDev/sistema-escolar/internal/models"
	appErrors "github.com/MarivaldoDev/sistema-escolar/pkg/errors"
)

type mockSubjectRepo struct {
	subjects map[string]models.Subject
	teachers map[string][]string
	offers   map[string][]string
	deleted  []string
}

func (m *mockSubjectRepo) Create(_ context.Context, subject *models.Subject) error {
	if m.subjects == nil {
		m.subjects = make(map[string]models.Subject)
	}
	if subject.ID == "" {
		subject.ID = "sub-new"
	}
	m.subjects[subject.ID] = *subject
	return nil
}

func (m *mockSubjectRepo) FindByID(_ context.Context, id string) (*models.Subject, error) {
	if s, ok := m.subjects[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSubjectRepo) List(_ context.Context, _ models.SubjectFilter) ([]models.Subject, int, error) {
	var out []models.Subject
	for _, s := range m.subjects {
		out = append(out, s)
	}
	return out, len(out), nil
}

func (m *mockSubjectRepo) AddTeacher(_ context.Context, subjectID, accountID string) error {
	if m.teachers == nil {
		m.teachers = make(map[string][]string)
	}
	m.teachers[subjectID] = append(m.teachers[subjectID], accountID)
	return nil
}

func (m *mockSubjectRepo) RemoveTeacher(_ context.Context, subjectID, accountID string) error {
	for i, id := range m.teachers[subjectID] {
		if id == accountID {
			m.teachers[subjectID] = append(m.teachers[subjectID][:i], m.teachers[subjectID][i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *mockSubjectRepo) ListTeachers(_ context.Context, subjectID string) ([]models.SubjectTeacher, error) {
	var out []models.SubjectTeacher
	for _, id := range m.teachers[subjectID] {
		out = append(out, models.SubjectTeacher{SubjectID: subjectID, AccountID: id})
	}
	return out, nil
}

func (m *mockSubjectRepo) Offer(_ context.Context, subjectID, teamID string) error {
	if m.offers == nil {
		m.offers = make(map[string][]string)
	}
	for _, id := range m.offers[subjectID] {
		if id == teamID {
			return nil
		}
	}
	m.offers[subjectID] = append(m.offers[subjectID], teamID)
	return nil
}

func (m *mockSubjectRepo) RevokeOffer(_ context.Context, subjectID, teamID string) error {
	for i, id := range m.offers[subjectID] {
		if id == teamID {
			m.offers[subjectID] = append(m.offers[subjectID][:i], m.offers[subjectID][i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *mockSubjectRepo) Delete(_ context.Context, id string) error {
	delete(m.subjects, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type mockCascadeDeleter struct {
	subjects []string
}

func (m *mockCascadeDeleter) DeleteBySubject(_ context.Context, subjectID string) error {
	m.subjects = append(m.subjects, subjectID)
	return nil
}

type mockReportInvalidator struct {
	invalidated int
}

func (m *mockReportInvalidator) InvalidateAll(_ context.Context) error {
	m.invalidated++
	return nil
}

func TestSubjectServiceAddTeacherRejectsNonTeacherRoles(t *testing.T) {
	repo := &mockSubjectRepo{subjects: map[string]models.Subject{"sub-1": {ID: "sub-1", Name: "Matemática"}}}
	accounts := &mockAccountReader{accounts: map[string]*models.Account{
		"stu-1": {ID: "stu-1", Role: models.RoleStudent},
	}}
	s := NewSubjectService(repo, accounts, &mockCascadeDeleter{}, &mockCascadeDeleter{}, nil, nil, nil)

	err := s.AddTeacher(context.Background(), adminActor(), "sub-1", "stu-1")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrRoleViolation.Code, appErr.Code)
	assert.Empty(t, repo.teachers["sub-1"], "rejected adds must leave the teaching set unchanged")
}

func TestSubjectServiceAddTeacher(t *testing.T) {
	repo := &mockSubjectRepo{subjects: map[string]models.Subject{"sub-1": {ID: "sub-1"}}}
	accounts := &mockAccountReader{accounts: map[string]*models.Account{
		"tea-1": {ID: "tea-1", Role: models.RoleTeacher},
	}}
	s := NewSubjectService(repo, accounts, &mockCascadeDeleter{}, &mockCascadeDeleter{}, nil, nil, nil)

	err := s.AddTeacher(context.Background(), adminActor(), "sub-1", "tea-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"tea-1"}, repo.teachers["sub-1"])
}

func TestSubjectServiceOfferIdempotent(t *testing.T) {
	repo := &mockSubjectRepo{subjects: map[string]models.Subject{"sub-1": {ID: "sub-1"}}}
	s := NewSubjectService(repo, &mockAccountReader{}, &mockCascadeDeleter{}, &mockCascadeDeleter{}, nil, nil, nil)

	require.NoError(t, s.Offer(context.Background(), adminActor(), "sub-1", "team-1"))
	require.NoError(t, s.Offer(context.Background(), adminActor(), "sub-1", "team-1"))
	assert.Equal(t, []string{"team-1"}, repo.offers["sub-1"])
}

func TestSubjectServiceDeleteCascades(t *testing.T) {
	repo := &mockSubjectRepo{subjects: map[string]models.Subject{"sub-1": {ID: "sub-1"}}}
	grades := &mockCascadeDeleter{}
	attendance := &mockCascadeDeleter{}
	reports := &mockReportInvalidator{}
	s := NewSubjectService(repo, &mockAccountReader{}, grades, attendance, reports, nil, nil)

	err := s.Delete(context.Background(), adminActor(), "sub-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"sub-1"}, grades.subjects)
	assert.Equal(t, []string{"sub-1"}, attendance.subjects)
	assert.Equal(t, []string{"sub-1"}, repo.deleted)
	assert.Equal(t, 1, reports.invalidated)
}

func TestSubjectServiceDeleteMissing(t *testing.T) {
	s := NewSubjectService(&mockSubjectRepo{}, &mockAccountReader{}, &mockCascadeDeleter{}, &mockCascadeDeleter{}, nil, nil, nil)

	err := s.Delete(context.Background(), adminActor(), "missing")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestSubjectServiceDeleteRequiresAdmin(t *testing.T) {
	repo := &mockSubjectRepo{subjects: map[string]models.Subject{"sub-1": {ID: "sub-1"}}}
	grades := &mockCascadeDeleter{}
	s := NewSubjectService(repo, &mockAccountReader{}, grades, &mockCascadeDeleter{}, nil, nil, nil)

	err := s.Delete(context.Background(), models.Actor{AccountID: "tea-1", Role: models.RoleTeacher}, "sub-1")
	assertAccessDenied(t, err)
	assert.Empty(t, grades.subjects)
}
