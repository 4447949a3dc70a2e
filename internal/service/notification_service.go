package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MarivaldoDev/sistema-escolar/internal/models"
	appErrors "github.com/MarivaldoDev/sistema-escolar/pkg/errors"
	"github.com/MarivaldoDev/sistema-escolar/pkg/jobs"
)

const jobTypeNotification = "notification.persist"

type notificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListForRecipient(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, int, error)
	MarkRead(ctx context.Context, id, recipientID string) error
}

// NotificationService persists activity-stream notifications through an
// in-process queue. Emission is fire and forget: a queue or storage failure
// is logged and never surfaces to the caller, so ledger writes cannot fail
// because a notification did.
type NotificationService struct {
	repo      notificationRepository
	queue     *jobs.Queue
	validator *validator.Validate
	logger    *zap.Logger
}

// NewNotificationService constructs a NotificationService and its dispatch
// queue. Call Start before emitting and Stop on shutdown.
func NewNotificationService(repo notificationRepository, validate *validator.Validate, logger *zap.Logger, cfg jobs.QueueConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = logger
	}

	s := &NotificationService{repo: repo, validator: validate, logger: logger}
	s.queue = jobs.NewQueue("notifications", s.handleJob, cfg)
	return s
}

// Start begins queue consumption.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the queue workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// Notify emits a notification to a single recipient. Only payload validation
// can fail the caller; everything past that point is best effort.
func (s *NotificationService) Notify(ctx context.Context, senderID string, req models.NotifyRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid notification payload")
	}

	notification := &models.Notification{
		ID:          uuid.NewString(),
		SenderID:    senderID,
		Verb:        req.Verb,
		Description: req.Description,
		RecipientID: req.RecipientID,
	}

	job := jobs.Job{ID: notification.ID, Type: jobTypeNotification, Payload: notification}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("notification dropped",
			zap.String("recipient_id", req.RecipientID),
			zap.Error(err),
		)
	}
	return nil
}

// List returns the recipient's notifications, newest first. Recipients only
// ever see their own stream.
func (s *NotificationService) List(ctx context.Context, actor models.Actor, filter models.NotificationFilter) ([]models.Notification, *models.Pagination, error) {
	filter.RecipientID = actor.AccountID

	notifications, total, err := s.repo.ListForRecipient(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	return notifications, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// MarkRead flags one of the actor's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, actor models.Actor, id string) error {
	if err := s.repo.MarkRead(ctx, id, actor.AccountID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification read")
	}
	return nil
}

func (s *NotificationService) handleJob(ctx context.Context, job jobs.Job) error {
	notification, ok := job.Payload.(*models.Notification)
	if !ok {
		s.logger.Error("notification job with unexpected payload", zap.String("job_id", job.ID))
		return nil
	}
	return s.repo.Create(ctx, notification)
}
