package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MarivaldoDev/sistema-escolar/internal/models"
	appErrors "github.com/MarivaldoDev/sistema-escolar/pkg/errors"
)

type mockAttendanceRepo struct {
	sessions map[string]models.AttendanceSession
	records  map[string]models.AttendanceRecord
	absences []models.AbsenceRecord
	creates  int
}

func (m *mockAttendanceRepo) sessionKey(teacherID, teamID, subjectID string, date time.Time) string {
	return teacherID + "|" + teamID + "|" + subjectID + "|" + date.Format("2006-01-02")
}

func (m *mockAttendanceRepo) GetOrCreateSession(_ context.Context, teacherID, teamID, subjectID string, date time.Time) (*models.AttendanceSession, error) {
	if m.sessions == nil {
		m.sessions = make(map[string]models.AttendanceSession)
	}
	key := m.sessionKey(teacherID, teamID, subjectID, date)
	if s, ok := m.sessions[key]; ok {
		return &s, nil
	}
	m.creates++
	session := models.AttendanceSession{
		ID:        key,
		TeacherID: teacherID,
		TeamID:    teamID,
		SubjectID: subjectID,
		Date:      date,
	}
	m.sessions[key] = session
	return &session, nil
}

func (m *mockAttendanceRepo) FindSession(_ context.Context, id string) (*models.AttendanceSession, error) {
	for _, s := range m.sessions {
		if s.ID == id {
			return &s, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAttendanceRepo) UpsertRecord(_ context.Context, record *models.AttendanceRecord) error {
	if m.records == nil {
		m.records = make(map[string]models.AttendanceRecord)
	}
	m.records[record.SessionID+"|"+record.StudentID] = *record
	return nil
}

func (m *mockAttendanceRepo) ListRecords(_ context.Context, sessionID string) ([]models.AttendanceRecord, error) {
	var out []models.AttendanceRecord
	for _, r := range m.records {
		if r.SessionID == sessionID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockAttendanceRepo) ListAbsences(_ context.Context, filter models.AbsenceFilter) ([]models.AbsenceRecord, error) {
	var out []models.AbsenceRecord
	for _, a := range m.absences {
		if a.StudentID == filter.StudentID {
			out = append(out, a)
		}
	}
	return out, nil
}

func boolPtr(v bool) *bool { return &v }

const (
	testTeamID    = "c2b3a4d5-f6e7-4b8a-9d0c-1f2e3a4b5c6d"
	testSubjectID = "b1a2c3d4-e5f6-4a7b-8c9d-0e1f2a3b4c5d"
	testStudentID = "3f9c2d2e-9b3f-4f87-9e55-8a4c5d1e2f30"
)

func TestAttendanceServiceOpenSessionIdempotent(t *testing.T) {
	repo := &mockAttendanceRepo{}
	s := NewAttendanceService(repo, &mockAccessPolicy{}, nil, nil)

	req := models.OpenSessionRequest{TeamID: testTeamID, SubjectID: testSubjectID, Date: "2025-03-10"}

	first, err := s.OpenSession(context.Background(), teacherActor(), req)
	require.NoError(t, err)
	second, err := s.OpenSession(context.Background(), teacherActor(), req)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, repo.creates, "reopening the same session must not create a new one")
}

func TestAttendanceServiceOpenSessionRejectsBadDate(t *testing.T) {
	s := NewAttendanceService(&mockAttendanceRepo{}, &mockAccessPolicy{}, nil, nil)

	_, err := s.OpenSession(context.Background(), teacherActor(), models.OpenSessionRequest{
		TeamID: testTeamID, SubjectID: testSubjectID, Date: "10/03/2025",
	})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestAttendanceServiceOpenSessionDenied(t *testing.T) {
	s := NewAttendanceService(&mockAttendanceRepo{}, &mockAccessPolicy{denySubjectTeacher: true}, nil, nil)

	_, err := s.OpenSession(context.Background(), teacherActor(), models.OpenSessionRequest{
		TeamID: testTeamID, SubjectID: testSubjectID, Date: "2025-03-10",
	})
	assertAccessDenied(t, err)
}

func TestAttendanceServiceSetPresenceOverwrites(t *testing.T) {
	repo := &mockAttendanceRepo{}
	s := NewAttendanceService(repo, &mockAccessPolicy{}, nil, nil)

	session, err := s.OpenSession(context.Background(), teacherActor(), models.OpenSessionRequest{
		TeamID: testTeamID, SubjectID: testSubjectID, Date: "2025-03-10",
	})
	require.NoError(t, err)

	_, err = s.SetPresence(context.Background(), teacherActor(), session.ID, models.SetPresenceRequest{
		StudentID: testStudentID, Present: boolPtr(false),
	})
	require.NoError(t, err)

	_, err = s.SetPresence(context.Background(), teacherActor(), session.ID, models.SetPresenceRequest{
		StudentID: testStudentID, Present: boolPtr(true),
	})
	require.NoError(t, err)

	records, err := s.ListRecords(context.Background(), teacherActor(), session.ID)
	require.NoError(t, err)
	require.Len(t, records, 1, "a second mark overwrites, it does not append")
	assert.True(t, records[0].Present)
}

func TestAttendanceServiceSetPresenceRequiresMembership(t *testing.T) {
	repo := &mockAttendanceRepo{}
	s := NewAttendanceService(repo, &mockAccessPolicy{denyMembership: true}, nil, nil)

	session, openErr := NewAttendanceService(repo, &mockAccessPolicy{}, nil, nil).
		OpenSession(context.Background(), teacherActor(), models.OpenSessionRequest{
			TeamID: testTeamID, SubjectID: testSubjectID, Date: "2025-03-10",
		})
	require.NoError(t, openErr)

	_, err := s.SetPresence(context.Background(), teacherActor(), session.ID, models.SetPresenceRequest{
		StudentID: testStudentID, Present: boolPtr(true),
	})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Empty(t, repo.records)
}

func TestAttendanceServiceListAbsencesScopesStudents(t *testing.T) {
	repo := &mockAttendanceRepo{absences: []models.AbsenceRecord{
		{AttendanceRecord: models.AttendanceRecord{StudentID: "stu-1", Present: false}},
		{AttendanceRecord: models.AttendanceRecord{StudentID: "stu-2", Present: false}},
	}}
	s := NewAttendanceService(repo, &mockAccessPolicy{}, nil, nil)

	student := models.Actor{AccountID: "stu-1", Role: models.RoleStudent}

	absences, err := s.ListAbsences(context.Background(), student, models.AbsenceFilter{})
	require.NoError(t, err)
	require.Len(t, absences, 1)
	assert.Equal(t, "stu-1", absences[0].StudentID)

	_, err = s.ListAbsences(context.Background(), student, models.AbsenceFilter{StudentID: "stu-2"})
	assertAccessDenied(t, err)
}
