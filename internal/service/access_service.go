package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/MarivaldoDev/sistema-escolar/internal/models"
	appErrors "github.com/MarivaldoDev/sistema-escolar/pkg/errors"
)

type accessSubjectRepository interface {
	Teaches(ctx context.Context, subjectID, accountID string) (bool, error)
	IsOffered(ctx context.Context, subjectID, teamID string) (bool, error)
}

type accessTeamRepository interface {
	IsMember(ctx context.Context, teamID, accountID string) (bool, error)
}

// AccessService centralises the scoping rules. Every decision is evaluated
// against the current state of the relationship tables on every call; results
// are never cached, so revoking a teacher or moving a student takes effect on
// the next request.
type AccessService struct {
	subjects accessSubjectRepository
	teams    accessTeamRepository
	logger   *zap.Logger
}

// NewAccessService constructs an AccessService instance.
func NewAccessService(subjects accessSubjectRepository, teams accessTeamRepository, logger *zap.Logger) *AccessService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccessService{subjects: subjects, teams: teams, logger: logger}
}

// RequireSubjectTeacher allows the action when the actor teaches the subject
// and the subject is offered to the team. Admins and superusers bypass the
// check entirely.
func (s *AccessService) RequireSubjectTeacher(ctx context.Context, actor models.Actor, subjectID, teamID string) error {
	if actor.Bypasses() {
		return nil
	}
	if actor.Role != models.RoleTeacher {
		return appErrors.Clone(appErrors.ErrAccessDenied, "only teachers can perform this action")
	}

	teaches, err := s.subjects.Teaches(ctx, subjectID, actor.AccountID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check teaching set")
	}
	if !teaches {
		s.logger.Debug("access denied: actor does not teach subject",
			zap.String("actor_id", actor.AccountID),
			zap.String("subject_id", subjectID),
		)
		return appErrors.Clone(appErrors.ErrAccessDenied, "actor does not teach this subject")
	}

	offered, err := s.subjects.IsOffered(ctx, subjectID, teamID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subject offer")
	}
	if !offered {
		return appErrors.Clone(appErrors.ErrAccessDenied, "subject is not offered to this team")
	}

	return nil
}

// RequireSelf allows the action only for the account itself, admins and
// superusers. Students never reach records that are not their own.
func (s *AccessService) RequireSelf(actor models.Actor, accountID string) error {
	if actor.Bypasses() {
		return nil
	}
	if actor.AccountID != accountID {
		return appErrors.Clone(appErrors.ErrAccessDenied, "cannot access another account's records")
	}
	return nil
}

// RequireStudentRecordAccess allows the student themself, any teacher of the
// subject, and staff. Used for reads of a single student's ledger slice.
func (s *AccessService) RequireStudentRecordAccess(ctx context.Context, actor models.Actor, studentID, subjectID string) error {
	if actor.Bypasses() {
		return nil
	}
	if actor.AccountID == studentID {
		return nil
	}
	if actor.Role == models.RoleTeacher && subjectID != "" {
		teaches, err := s.subjects.Teaches(ctx, subjectID, actor.AccountID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check teaching set")
		}
		if teaches {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrAccessDenied, "cannot access another account's records")
}

// RequireAdmin allows admins and superusers only.
func (s *AccessService) RequireAdmin(actor models.Actor) error {
	if actor.Bypasses() {
		return nil
	}
	return appErrors.Clone(appErrors.ErrAccessDenied, "administrator access required")
}

// RequireTeamMembership verifies the student belongs to the team.
func (s *AccessService) RequireTeamMembership(ctx context.Context, teamID, studentID string) error {
	member, err := s.teams.IsMember(ctx, teamID, studentID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check team membership")
	}
	if !member {
		return appErrors.Clone(appErrors.ErrValidation, "student is not a member of this team")
	}
	return nil
}
