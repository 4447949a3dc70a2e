package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/MarivaldoDev/sistema-escolar/internal/models"
	appErrors "github.com/MarivaldoDev/sistema-escolar/pkg/errors"
)

type attendanceRepository interface {
	GetOrCreateSession(ctx context.Context, teacherID, teamID, subjectID string, date time.Time) (*models.AttendanceSession, error)
	FindSession(ctx context.Context, id string) (*models.AttendanceSession, error)
	UpsertRecord(ctx context.Context, record *models.AttendanceRecord) error
	ListRecords(ctx context.Context, sessionID string) ([]models.AttendanceRecord, error)
	ListAbsences(ctx context.Context, filter models.AbsenceFilter) ([]models.AbsenceRecord, error)
}

type attendanceAccessPolicy interface {
	RequireSubjectTeacher(ctx context.Context, actor models.Actor, subjectID, teamID string) error
	RequireTeamMembership(ctx context.Context, teamID, studentID string) error
	RequireStudentRecordAccess(ctx context.Context, actor models.Actor, studentID, subjectID string) error
}

// AttendanceService provides roll-call use cases.
type AttendanceService struct {
	repo      attendanceRepository
	access    attendanceAccessPolicy
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs an AttendanceService instance.
func NewAttendanceService(repo attendanceRepository, access attendanceAccessPolicy, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AttendanceService{repo: repo, access: access, validator: validate, logger: logger}
}

// OpenSession returns the roll-call session for (actor, team, subject, date),
// creating it on first call. Opening the same session twice yields the same
// session, never a duplicate.
func (s *AttendanceService) OpenSession(ctx context.Context, actor models.Actor, req models.OpenSessionRequest) (*models.AttendanceSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session date")
	}

	if err := s.access.RequireSubjectTeacher(ctx, actor, req.SubjectID, req.TeamID); err != nil {
		return nil, err
	}

	session, err := s.repo.GetOrCreateSession(ctx, actor.AccountID, req.TeamID, req.SubjectID, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open attendance session")
	}
	return session, nil
}

// SetPresence marks a student present or absent in a session. Calling it
// again for the same student overwrites the previous mark.
func (s *AttendanceService) SetPresence(ctx context.Context, actor models.Actor, sessionID string, req models.SetPresenceRequest) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid presence payload")
	}

	session, err := s.repo.FindSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance session")
	}

	if err := s.access.RequireSubjectTeacher(ctx, actor, session.SubjectID, session.TeamID); err != nil {
		return nil, err
	}
	if err := s.access.RequireTeamMembership(ctx, session.TeamID, req.StudentID); err != nil {
		return nil, err
	}

	record := &models.AttendanceRecord{
		SessionID: sessionID,
		StudentID: req.StudentID,
		Present:   *req.Present,
	}
	if err := s.repo.UpsertRecord(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store presence")
	}
	return record, nil
}

// ListRecords returns all presence records of a session.
func (s *AttendanceService) ListRecords(ctx context.Context, actor models.Actor, sessionID string) ([]models.AttendanceRecord, error) {
	session, err := s.repo.FindSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance session")
	}

	if err := s.access.RequireSubjectTeacher(ctx, actor, session.SubjectID, session.TeamID); err != nil {
		return nil, err
	}

	records, err := s.repo.ListRecords(ctx, sessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance records")
	}
	return records, nil
}

// ListAbsences returns a student's absences ordered by session date. A
// student is always scoped to their own absences.
func (s *AttendanceService) ListAbsences(ctx context.Context, actor models.Actor, filter models.AbsenceFilter) ([]models.AbsenceRecord, error) {
	if !actor.Bypasses() && actor.Role == models.RoleStudent {
		if filter.StudentID != "" && filter.StudentID != actor.AccountID {
			return nil, appErrors.Clone(appErrors.ErrAccessDenied, "cannot access another account's records")
		}
		filter.StudentID = actor.AccountID
	}
	if filter.StudentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}
	if err := s.access.RequireStudentRecordAccess(ctx, actor, filter.StudentID, filter.SubjectID); err != nil {
		return nil, err
	}

	absences, err := s.repo.ListAbsences(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list absences")
	}
	return absences, nil
}
