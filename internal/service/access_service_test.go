package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MarivaldoDev/sistema-escolar/internal/models"
	appErrors "github.com/MarivaldoDev/sistema-escolar/pkg/errors"
)

type mockSubjectRelations struct {
	teaches map[string]bool
	offered map[string]bool
}

func (m *mockSubjectRelations) Teaches(_ context.Context, subjectID, accountID string) (bool, error) {
	return m.teaches[subjectID+"|"+accountID], nil
}

func (m *mockSubjectRelations) IsOffered(_ context.Context, subjectID, teamID string) (bool, error) {
	return m.offered[subjectID+"|"+teamID], nil
}

type mockTeamRelations struct {
	members map[string]bool
}

func (m *mockTeamRelations) IsMember(_ context.Context, teamID, accountID string) (bool, error) {
	return m.members[teamID+"|"+accountID], nil
}

func assertAccessDenied(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrAccessDenied.Code, appErr.Code)
}

func TestRequireSubjectTeacher(t *testing.T) {
	subjects := &mockSubjectRelations{
		teaches: map[string]bool{"sub-1|tea-1": true},
		offered: map[string]bool{"sub-1|team-1": true},
	}
	s := NewAccessService(subjects, &mockTeamRelations{}, nil)
	ctx := context.Background()

	teacher := models.Actor{AccountID: "tea-1", Role: models.RoleTeacher}
	assert.NoError(t, s.RequireSubjectTeacher(ctx, teacher, "sub-1", "team-1"))

	// Not in the teaching set.
	other := models.Actor{AccountID: "tea-2", Role: models.RoleTeacher}
	assertAccessDenied(t, s.RequireSubjectTeacher(ctx, other, "sub-1", "team-1"))

	// Teaches the subject but it is not offered to the team.
	assertAccessDenied(t, s.RequireSubjectTeacher(ctx, teacher, "sub-1", "team-2"))

	// Students never pass.
	student := models.Actor{AccountID: "stu-1", Role: models.RoleStudent}
	assertAccessDenied(t, s.RequireSubjectTeacher(ctx, student, "sub-1", "team-1"))

	// Admins and superusers bypass the relationship checks.
	admin := models.Actor{AccountID: "adm-1", Role: models.RoleAdmin}
	assert.NoError(t, s.RequireSubjectTeacher(ctx, admin, "sub-x", "team-x"))
	super := models.Actor{AccountID: "sup-1", Role: models.RoleTeacher, Superuser: true}
	assert.NoError(t, s.RequireSubjectTeacher(ctx, super, "sub-x", "team-x"))
}

func TestRequireSubjectTeacherEvaluatedLive(t *testing.T) {
	subjects := &mockSubjectRelations{
		teaches: map[string]bool{"sub-1|tea-1": true},
		offered: map[string]bool{"sub-1|team-1": true},
	}
	s := NewAccessService(subjects, &mockTeamRelations{}, nil)
	ctx := context.Background()
	teacher := models.Actor{AccountID: "tea-1", Role: models.RoleTeacher}

	require.NoError(t, s.RequireSubjectTeacher(ctx, teacher, "sub-1", "team-1"))

	// Revoking the teaching relationship takes effect on the next check.
	subjects.teaches["sub-1|tea-1"] = false
	assertAccessDenied(t, s.RequireSubjectTeacher(ctx, teacher, "sub-1", "team-1"))
}

func TestRequireSelf(t *testing.T) {
	s := NewAccessService(&mockSubjectRelations{}, &mockTeamRelations{}, nil)

	student := models.Actor{AccountID: "stu-1", Role: models.RoleStudent}
	assert.NoError(t, s.RequireSelf(student, "stu-1"))
	assertAccessDenied(t, s.RequireSelf(student, "stu-2"))

	admin := models.Actor{AccountID: "adm-1", Role: models.RoleAdmin}
	assert.NoError(t, s.RequireSelf(admin, "stu-2"))
}

func TestRequireStudentRecordAccess(t *testing.T) {
	subjects := &mockSubjectRelations{teaches: map[string]bool{"sub-1|tea-1": true}}
	s := NewAccessService(subjects, &mockTeamRelations{}, nil)
	ctx := context.Background()

	student := models.Actor{AccountID: "stu-1", Role: models.RoleStudent}
	assert.NoError(t, s.RequireStudentRecordAccess(ctx, student, "stu-1", "sub-1"))
	assertAccessDenied(t, s.RequireStudentRecordAccess(ctx, student, "stu-2", "sub-1"))

	teacher := models.Actor{AccountID: "tea-1", Role: models.RoleTeacher}
	assert.NoError(t, s.RequireStudentRecordAccess(ctx, teacher, "stu-1", "sub-1"))
	assertAccessDenied(t, s.RequireStudentRecordAccess(ctx, teacher, "stu-1", "sub-2"))
}

func TestRequireTeamMembership(t *testing.T) {
	teams := &mockTeamRelations{members: map[string]bool{"team-1|stu-1": true}}
	s := NewAccessService(&mockSubjectRelations{}, teams, nil)
	ctx := context.Background()

	assert.NoError(t, s.RequireTeamMembership(ctx, "team-1", "stu-1"))

	err := s.RequireTeamMembership(ctx, "team-1", "stu-2")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestRequireAdmin(t *testing.T) {
	s := NewAccessService(&mockSubjectRelations{}, &mockTeamRelations{}, nil)

	assert.NoError(t, s.RequireAdmin(models.Actor{Role: models.RoleAdmin}))
	assert.NoError(t, s.RequireAdmin(models.Actor{Role: models.RoleStudent, Superuser: true}))
	assertAccessDenied(t, s.RequireAdmin(models.Actor{Role: models.RoleTeacher}))
	assertAccessDenied(t, s.RequireAdmin(models.Actor{Role: models.RoleStudent}))
}
