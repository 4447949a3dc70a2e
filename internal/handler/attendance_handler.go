package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MarivaldoDev/sistema-escolar/internal/models"
	"github.com/MarivaldoDev/sistema-escolar/internal/service"
	appErrors "github.com/MarivaldoDev/sistema-escolar/pkg/errors"
	"github.com/MarivaldoDev/sistema-escolar/pkg/response"
)

// AttendanceHandler exposes attendance ledger endpoints.
type AttendanceHandler struct {
	attendance *service.AttendanceService
	metrics    *service.MetricsService
}

// NewAttendanceHandler constructs handler.
func NewAttendanceHandler(attendance *service.AttendanceService, metrics *service.MetricsService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance, metrics: metrics}
}

// OpenSession godoc
// @Summary Open (or fetch) the attendance session for a class day
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body models.OpenSessionRequest true "Session"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /attendance/sessions [post]
func (h *AttendanceHandler) OpenSession(c *gin.Context) {
	var req models.OpenSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	session, err := h.attendance.OpenSession(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// SetPresence godoc
// @Summary Mark a student present or absent in a session
// @Tags Attendance
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body models.SetPresenceRequest true "Presence mark"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /attendance/sessions/{id}/records [put]
func (h *AttendanceHandler) SetPresence(c *gin.Context) {
	var req models.SetPresenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.attendance.SetPresence(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordPresenceMark(record.Present)
	response.JSON(c, http.StatusOK, record, nil)
}

// ListRecords godoc
// @Summary List presence marks of a session
// @Tags Attendance
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /attendance/sessions/{id}/records [get]
func (h *AttendanceHandler) ListRecords(c *gin.Context) {
	records, err := h.attendance.ListRecords(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// ListAbsences godoc
// @Summary List a student's absences
// @Tags Attendance
// @Produce json
// @Param student_id query string true "Student ID"
// @Param subject_id query string false "Subject filter"
// @Param month query int false "Month (1-12)"
// @Param year query int false "Year"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /attendance/absences [get]
func (h *AttendanceHandler) ListAbsences(c *gin.Context) {
	filter := models.AbsenceFilter{
		StudentID: c.Query("student_id"),
		SubjectID: c.Query("subject_id"),
		Month:     queryInt(c, "month", 0),
		Year:      queryInt(c, "year", 0),
	}
	absences, err := h.attendance.ListAbsences(c.Request.Context(), actorFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, absences, nil)
}
