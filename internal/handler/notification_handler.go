package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MarivaldoDev/sistema-escolar/internal/models"
	"github.com/MarivaldoDev/sistema-escolar/internal/service"
	appErrors "github.com/MarivaldoDev/sistema-escolar/pkg/errors"
	"github.com/MarivaldoDev/sistema-escolar/pkg/response"
)

// NotificationHandler exposes notification endpoints.
type NotificationHandler struct {
	notifications *service.NotificationService
	metrics       *service.MetricsService
}

// NewNotificationHandler constructs handler.
func NewNotificationHandler(notifications *service.NotificationService, metrics *service.MetricsService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, metrics: metrics}
}

// Notify godoc
// @Summary Emit a notification to a recipient
// @Tags Notifications
// @Accept json
// @Produce json
// @Param payload body models.NotifyRequest true "Notification"
// @Success 202 {object} response.Envelope
// @Security BearerAuth
// @Router /notifications [post]
func (h *NotificationHandler) Notify(c *gin.Context) {
	var req models.NotifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	actor := actorFromContext(c)
	if err := h.notifications.Notify(c.Request.Context(), actor.AccountID, req); err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordNotification()
	response.JSON(c, http.StatusAccepted, gin.H{"status": "accepted"}, nil)
}

// List godoc
// @Summary List the caller's notifications
// @Tags Notifications
// @Produce json
// @Param unread query bool false "Only unread"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	filter := models.NotificationFilter{
		UnreadOnly: c.Query("unread") == "true",
		Page:       queryInt(c, "page", 1),
		PageSize:   queryInt(c, "page_size", 20),
	}
	notifications, pagination, err := h.notifications.List(c.Request.Context(), actorFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notifications, pagination)
}

// MarkRead godoc
// @Summary Mark a notification as read
// @Tags Notifications
// @Produce json
// @Param id path string true "Notification ID"
// @Success 204 "No Content"
// @Security BearerAuth
// @Router /notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	if err := h.notifications.MarkRead(c.Request.Context(), actorFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
