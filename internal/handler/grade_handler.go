package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MarivaldoDev/sistema-escolar/internal/models"
	"github.com/MarivaldoDev/sistema-escolar/internal/service"
	appErrors "github.com/MarivaldoDev/sistema-escolar/pkg/errors"
	"github.com/MarivaldoDev/sistema-escolar/pkg/response"
)

// GradeHandler exposes grade ledger endpoints.
type GradeHandler struct {
	grades  *service.GradeService
	metrics *service.MetricsService
}

// NewGradeHandler constructs handler.
func NewGradeHandler(grades *service.GradeService, metrics *service.MetricsService) *GradeHandler {
	return &GradeHandler{grades: grades, metrics: metrics}
}

type evaluationResponse struct {
	StudentID string                `json:"student_id"`
	SubjectID string                `json:"subject_id"`
	Year      int                   `json:"year"`
	Status    models.ApprovalStatus `json:"status"`
	Averages  []float64             `json:"averages"`
}

// Record godoc
// @Summary Record a grade entry for a period
// @Tags Grades
// @Accept json
// @Produce json
// @Param payload body models.RecordGradeRequest true "Grade entry"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /grades [post]
func (h *GradeHandler) Record(c *gin.Context) {
	var req models.RecordGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	entry, err := h.grades.Record(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordGradeEntry()
	response.Created(c, entry)
}

// Update godoc
// @Summary Correct the scores of an existing grade entry
// @Tags Grades
// @Accept json
// @Produce json
// @Param id path string true "Grade entry ID"
// @Param payload body models.UpdateGradeRequest true "New scores"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /grades/{id} [patch]
func (h *GradeHandler) Update(c *gin.Context) {
	var req models.UpdateGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	entry, err := h.grades.Update(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// List godoc
// @Summary List grade entries
// @Tags Grades
// @Produce json
// @Param student_id query string false "Student filter"
// @Param subject_id query string false "Subject filter"
// @Param team_id query string false "Team filter"
// @Param year query int false "School year"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /grades [get]
func (h *GradeHandler) List(c *gin.Context) {
	filter := models.GradeFilter{
		StudentID: c.Query("student_id"),
		SubjectID: c.Query("subject_id"),
		TeamID:    c.Query("team_id"),
		Year:      queryInt(c, "year", 0),
	}
	entries, err := h.grades.List(c.Request.Context(), actorFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Evaluate godoc
// @Summary Evaluate a student's approval status for a subject
// @Tags Grades
// @Produce json
// @Param student_id query string true "Student ID"
// @Param subject_id query string true "Subject ID"
// @Param team_id query string true "Team ID"
// @Param year query int true "School year"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /grades/evaluation [get]
func (h *GradeHandler) Evaluate(c *gin.Context) {
	studentID := c.Query("student_id")
	subjectID := c.Query("subject_id")
	teamID := c.Query("team_id")
	year := queryInt(c, "year", 0)
	if studentID == "" || subjectID == "" || teamID == "" || year == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "student_id, subject_id, team_id and year are required"))
		return
	}

	status, averages, err := h.grades.EvaluateSubject(c.Request.Context(), actorFromContext(c), studentID, subjectID, teamID, year)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, evaluationResponse{
		StudentID: studentID,
		SubjectID: subjectID,
		Year:      year,
		Status:    status,
		Averages:  averages,
	}, nil)
}
