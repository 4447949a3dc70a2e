package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MarivaldoDev/sistema-escolar/internal/models"
)

func TestAttendanceRepositoryGetOrCreateSession(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO attendance_sessions").
		WithArgs(sqlmock.AnyArg(), "tea-1", "team-1", "sub-1", date, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 0))
	rows := sqlmock.NewRows([]string{"id", "teacher_id", "team_id", "subject_id", "date", "created_at"}).
		AddRow("ses-1", "tea-1", "team-1", "sub-1", date, time.Now())
	mock.ExpectQuery("SELECT .+ FROM attendance_sessions").
		WithArgs("tea-1", "team-1", "sub-1", date).
		WillReturnRows(rows)

	session, err := repo.GetOrCreateSession(context.Background(), "tea-1", "team-1", "sub-1", date)
	require.NoError(t, err)
	assert.Equal(t, "ses-1", session.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryUpsertRecord(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectExec("INSERT INTO attendance_records").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	record := &models.AttendanceRecord{SessionID: "ses-1", StudentID: "stu-1", Present: false}
	err := repo.UpsertRecord(context.Background(), record)
	require.NoError(t, err)
	assert.NotEmpty(t, record.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryListAbsences(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	columns := []string{"id", "session_id", "student_id", "present", "created_at", "updated_at", "session_date", "team_id", "subject_id", "subject_name"}
	rows := sqlmock.NewRows(columns).
		AddRow("rec-1", "ses-1", "stu-1", false, time.Now(), time.Now(), time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), "team-1", "sub-1", "História")
	mock.ExpectQuery("SELECT .+ FROM attendance_records ar.+ORDER BY s.date ASC").
		WithArgs("stu-1", "sub-1", 3, 2025).
		WillReturnRows(rows)

	absences, err := repo.ListAbsences(context.Background(), models.AbsenceFilter{
		StudentID: "stu-1",
		SubjectID: "sub-1",
		Month:     3,
		Year:      2025,
	})
	require.NoError(t, err)
	require.Len(t, absences, 1)
	assert.False(t, absences[0].Present)
	assert.Equal(t, "História", absences[0].SubjectName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryDeleteBySubject(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM attendance_records").
		WithArgs("sub-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM attendance_sessions").
		WithArgs("sub-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.DeleteBySubject(context.Background(), "sub-1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
