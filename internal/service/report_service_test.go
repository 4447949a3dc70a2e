package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MarivaldoDev/sistema-escolar/internal/models"
	appErrors "github.com/MarivaldoDev/sistema-escolar/pkg/errors"
)

type mockReportCache struct {
	store   map[string][]byte
	gets    int
	hits    int
	deleted []string
}

func (m *mockReportCache) Get(_ context.Context, key string, dest interface{}) error {
	m.gets++
	raw, ok := m.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	m.hits++
	return json.Unmarshal(raw, dest)
}

func (m *mockReportCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if m.store == nil {
		m.store = make(map[string][]byte)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.store[key] = raw
	return nil
}

func (m *mockReportCache) DeleteByPattern(_ context.Context, pattern string) error {
	m.deleted = append(m.deleted, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.store {
		if strings.HasPrefix(key, prefix) {
			delete(m.store, key)
		}
	}
	return nil
}

type mockReportTeams struct {
	team *models.Team
}

func (m *mockReportTeams) FindForStudent(_ context.Context, _ string, _ int) (*models.Team, error) {
	if m.team == nil {
		return nil, sql.ErrNoRows
	}
	return m.team, nil
}

type mockReportSubjects struct {
	subjects []models.Subject
}

func (m *mockReportSubjects) List(_ context.Context, _ models.SubjectFilter) ([]models.Subject, int, error) {
	return m.subjects, len(m.subjects), nil
}

type mockReportGrades struct {
	entries []models.GradeEntryDetail
}

func (m *mockReportGrades) ListFor(_ context.Context, _ models.GradeFilter) ([]models.GradeEntryDetail, error) {
	return m.entries, nil
}

func newReportFixture(cacheEnabled bool) (*ReportService, *mockReportCache) {
	cache := &mockReportCache{}
	teams := &mockReportTeams{team: &models.Team{ID: "team-1", Name: "3º Ano A", Year: 2025}}
	subjects := &mockReportSubjects{subjects: []models.Subject{
		{ID: "sub-1", Name: "Matemática"},
		{ID: "sub-2", Name: "História"},
	}}
	grades := &mockReportGrades{entries: []models.GradeEntryDetail{
		{GradeEntry: models.GradeEntry{SubjectID: "sub-1", StudentID: "stu-1", Average: 9.25}, PeriodOrdinal: 1, PeriodYear: 2025},
		{GradeEntry: models.GradeEntry{SubjectID: "sub-1", StudentID: "stu-1", Average: 7.0}, PeriodOrdinal: 2, PeriodYear: 2025},
		{GradeEntry: models.GradeEntry{SubjectID: "sub-1", StudentID: "stu-1", Average: 5.0}, PeriodOrdinal: 3, PeriodYear: 2025},
		{GradeEntry: models.GradeEntry{SubjectID: "sub-1", StudentID: "stu-1", Average: 6.0}, PeriodOrdinal: 4, PeriodYear: 2025},
	}}
	accounts := &mockAccountReader{accounts: map[string]*models.Account{
		"stu-1": {ID: "stu-1", FirstName: "Maria", LastName: "Silva", Role: models.RoleStudent},
	}}
	s := NewReportService(cache, teams, subjects, grades, accounts, nil, nil, ReportConfig{
		CacheEnabled: cacheEnabled,
		CacheTTL:     time.Minute,
	}, nil)
	return s, cache
}

func TestReportServiceGetReportCard(t *testing.T) {
	s, _ := newReportFixture(false)

	card, err := s.GetReportCard(context.Background(), adminActor(), "stu-1", 2025)
	require.NoError(t, err)
	assert.Equal(t, "Maria Silva", card.StudentName)
	assert.Equal(t, "team-1", card.TeamID)
	require.Len(t, card.Subjects, 2)

	// Sorted by subject name: História first.
	assert.Equal(t, "História", card.Subjects[0].SubjectName)
	assert.Equal(t, models.StatusNotApproved, card.Subjects[0].Status, "no entries at all reads as not approved")
	assert.Empty(t, card.Subjects[0].Averages)

	assert.Equal(t, "Matemática", card.Subjects[1].SubjectName)
	assert.Equal(t, models.StatusApproved, card.Subjects[1].Status)
	require.Len(t, card.Subjects[1].Averages, 4)
	assert.Equal(t, 9.25, card.Subjects[1].Averages[0].Average)
}

func TestReportServiceCacheRoundTrip(t *testing.T) {
	s, cache := newReportFixture(true)

	first, err := s.GetReportCard(context.Background(), adminActor(), "stu-1", 2025)
	require.NoError(t, err)
	assert.Equal(t, 0, cache.hits)

	second, err := s.GetReportCard(context.Background(), adminActor(), "stu-1", 2025)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits)
	assert.Equal(t, first.StudentName, second.StudentName)
	assert.Equal(t, len(first.Subjects), len(second.Subjects))
}

func TestReportServiceInvalidateStudent(t *testing.T) {
	s, cache := newReportFixture(true)

	_, err := s.GetReportCard(context.Background(), adminActor(), "stu-1", 2025)
	require.NoError(t, err)
	require.NotEmpty(t, cache.store)

	require.NoError(t, s.InvalidateStudent(context.Background(), "stu-1"))
	assert.Empty(t, cache.store)
}

func TestReportServiceStudentScope(t *testing.T) {
	s, _ := newReportFixture(false)

	student := models.Actor{AccountID: "stu-2", Role: models.RoleStudent}
	_, err := s.GetReportCard(context.Background(), student, "stu-1", 2025)
	assertAccessDenied(t, err)
}

func TestReportServiceStudentWithoutTeam(t *testing.T) {
	s, _ := newReportFixture(false)
	s.teams = &mockReportTeams{}

	_, err := s.GetReportCard(context.Background(), adminActor(), "stu-1", 2025)
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestReportServiceExportCSV(t *testing.T) {
	s, _ := newReportFixture(false)

	data, err := s.ExportCSV(context.Background(), adminActor(), "stu-1", 2025)
	require.NoError(t, err)

	content := string(data)
	assert.Contains(t, content, "Disciplina")
	assert.Contains(t, content, "Matemática")
	assert.Contains(t, content, "9.25")
	assert.Contains(t, content, string(models.StatusApproved))
}

func TestReportServiceExportPDF(t *testing.T) {
	s, _ := newReportFixture(false)

	data, err := s.ExportPDF(context.Background(), adminActor(), "stu-1", 2025)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"), "output is not a PDF document")
}
