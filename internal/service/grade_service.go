package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/MarivaldoDev/sistema-escolar/internal/models"
	appErrors "github.com/MarivaldoDev/sistema-escolar/pkg/errors"
)

type gradeRepository interface {
	Insert(ctx context.Context, entry *models.GradeEntry) error
	Exists(ctx context.Context, studentID, subjectID, teamID, periodID string) (bool, error)
	FindByID(ctx context.Context, id string) (*models.GradeEntryDetail, error)
	UpdateScores(ctx context.Context, id string, activity, exam, average float64) error
	ListFor(ctx context.Context, filter models.GradeFilter) ([]models.GradeEntryDetail, error)
}

type gradePeriodRepository interface {
	GetOrCreate(ctx context.Context, ordinal, year int) (*models.Period, error)
}

type gradeAccessPolicy interface {
	RequireSubjectTeacher(ctx context.Context, actor models.Actor, subjectID, teamID string) error
	RequireTeamMembership(ctx context.Context, teamID, studentID string) error
	RequireStudentRecordAccess(ctx context.Context, actor models.Actor, studentID, subjectID string) error
}

type gradeNotifier interface {
	Notify(ctx context.Context, senderID string, req models.NotifyRequest) error
}

type studentReportInvalidator interface {
	InvalidateStudent(ctx context.Context, studentID string) error
}

// GradeService provides grade ledger use cases.
type GradeService struct {
	repo       gradeRepository
	periods    gradePeriodRepository
	access     gradeAccessPolicy
	evaluation *EvaluationService
	notifier   gradeNotifier
	reports    studentReportInvalidator
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewGradeService constructs a GradeService instance.
func NewGradeService(repo gradeRepository, periods gradePeriodRepository, access gradeAccessPolicy, evaluation *EvaluationService, notifier gradeNotifier, reports studentReportInvalidator, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if evaluation == nil {
		evaluation = NewEvaluationService()
	}
	return &GradeService{
		repo:       repo,
		periods:    periods,
		access:     access,
		evaluation: evaluation,
		notifier:   notifier,
		reports:    reports,
		validator:  validate,
		logger:     logger,
	}
}

// Record creates a grade entry. One entry per (student, subject, team,
// period): a second attempt is rejected with DUPLICATE_ENTRY regardless of
// who makes it; corrections go through Update. The average is derived here
// and stored alongside the scores.
func (s *GradeService) Record(ctx context.Context, actor models.Actor, req models.RecordGradeRequest) (*models.GradeEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}
	if err := validateScores(*req.ActivityScore, *req.ExamScore); err != nil {
		return nil, err
	}

	if err := s.access.RequireSubjectTeacher(ctx, actor, req.SubjectID, req.TeamID); err != nil {
		return nil, err
	}
	if err := s.access.RequireTeamMembership(ctx, req.TeamID, req.StudentID); err != nil {
		return nil, err
	}

	period, err := s.periods.GetOrCreate(ctx, req.PeriodOrdinal, req.PeriodYear)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve grading period")
	}

	exists, err := s.repo.Exists(ctx, req.StudentID, req.SubjectID, req.TeamID, period.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing entry")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrDuplicateEntry, "a grade entry already exists for this period")
	}

	entry := &models.GradeEntry{
		StudentID:     req.StudentID,
		SubjectID:     req.SubjectID,
		TeamID:        req.TeamID,
		PeriodID:      period.ID,
		ActivityScore: *req.ActivityScore,
		ExamScore:     *req.ExamScore,
		Average:       s.evaluation.ComputeAverage(*req.ActivityScore, *req.ExamScore),
	}
	if err := s.repo.Insert(ctx, entry); err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) && appErr.Code == appErrors.ErrDuplicateEntry.Code {
			return nil, appErrors.Clone(appErrors.ErrDuplicateEntry, "a grade entry already exists for this period")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store grade entry")
	}

	s.emitGradeNotification(ctx, actor, entry, period, "grade recorded")
	s.invalidateReport(ctx, entry.StudentID)
	return entry, nil
}

// Update rewrites the two scores of an existing entry. The identity tuple is
// immutable; only scores and the derived average change.
func (s *GradeService) Update(ctx context.Context, actor models.Actor, id string, req models.UpdateGradeRequest) (*models.GradeEntryDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}
	if err := validateScores(*req.ActivityScore, *req.ExamScore); err != nil {
		return nil, err
	}

	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade entry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade entry")
	}

	if err := s.access.RequireSubjectTeacher(ctx, actor, entry.SubjectID, entry.TeamID); err != nil {
		return nil, err
	}

	entry.ActivityScore = *req.ActivityScore
	entry.ExamScore = *req.ExamScore
	entry.Average = s.evaluation.ComputeAverage(*req.ActivityScore, *req.ExamScore)

	if err := s.repo.UpdateScores(ctx, id, entry.ActivityScore, entry.ExamScore, entry.Average); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade entry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update grade entry")
	}

	period := &models.Period{Ordinal: entry.PeriodOrdinal, Year: entry.PeriodYear}
	s.emitGradeNotification(ctx, actor, &entry.GradeEntry, period, "grade updated")
	s.invalidateReport(ctx, entry.StudentID)
	return entry, nil
}

// List returns grade entries matching the filter, ordered by period. A
// student is always scoped to their own entries; a teacher must teach the
// subject being read.
func (s *GradeService) List(ctx context.Context, actor models.Actor, filter models.GradeFilter) ([]models.GradeEntryDetail, error) {
	if !actor.Bypasses() && actor.Role == models.RoleStudent {
		if filter.StudentID != "" && filter.StudentID != actor.AccountID {
			return nil, appErrors.Clone(appErrors.ErrAccessDenied, "cannot access another account's records")
		}
		filter.StudentID = actor.AccountID
	}
	if filter.StudentID != "" {
		if err := s.access.RequireStudentRecordAccess(ctx, actor, filter.StudentID, filter.SubjectID); err != nil {
			return nil, err
		}
	}

	entries, err := s.repo.ListFor(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grade entries")
	}
	return entries, nil
}

// EvaluateSubject fetches a student's averages for a subject in a year and
// classifies the record against the expected number of periods.
func (s *GradeService) EvaluateSubject(ctx context.Context, actor models.Actor, studentID, subjectID, teamID string, year int) (models.ApprovalStatus, []float64, error) {
	if err := s.access.RequireStudentRecordAccess(ctx, actor, studentID, subjectID); err != nil {
		return "", nil, err
	}

	entries, err := s.repo.ListFor(ctx, models.GradeFilter{
		StudentID: studentID,
		SubjectID: subjectID,
		TeamID:    teamID,
		Year:      year,
	})
	if err != nil {
		return "", nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grade entries")
	}

	averages := make([]float64, 0, len(entries))
	for _, entry := range entries {
		averages = append(averages, entry.Average)
	}
	return s.evaluation.Evaluate(averages, models.PeriodsPerYear), averages, nil
}

func validateScores(activity, exam float64) error {
	if !models.ValidScore(activity) || !models.ValidScore(exam) {
		return appErrors.Clone(appErrors.ErrScoreOutOfRange, "")
	}
	return nil
}

func (s *GradeService) emitGradeNotification(ctx context.Context, actor models.Actor, entry *models.GradeEntry, period *models.Period, verb string) {
	if s.notifier == nil {
		return
	}
	req := models.NotifyRequest{
		Verb:        verb,
		Description: fmt.Sprintf("Nota lançada: %s — média %.2f", period.Label(), entry.Average),
		RecipientID: entry.StudentID,
	}
	if err := s.notifier.Notify(ctx, actor.AccountID, req); err != nil {
		s.logger.Warn("grade notification failed",
			zap.String("student_id", entry.StudentID),
			zap.Error(err),
		)
	}
}

func (s *GradeService) invalidateReport(ctx context.Context, studentID string) {
	if s.reports == nil {
		return
	}
	if err := s.reports.InvalidateStudent(ctx, studentID); err != nil {
		s.logger.Warn("report cache invalidation failed",
			zap.String("student_id", studentID),
			zap.Error(err),
		)
	}
}
