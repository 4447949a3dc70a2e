package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MarivaldoDev/sistema-escolar/internal/models"
	"github.com/MarivaldoDev/sistema-escolar/internal/service"
	appErrors "github.com/MarivaldoDev/sistema-escolar/pkg/errors"
	"github.com/MarivaldoDev/sistema-escolar/pkg/response"
)

// SubjectHandler exposes subject, teaching-set and offer endpoints.
type SubjectHandler struct {
	subjects *service.SubjectService
}

// NewSubjectHandler constructs handler.
func NewSubjectHandler(subjects *service.SubjectService) *SubjectHandler {
	return &SubjectHandler{subjects: subjects}
}

type subjectTeacherRequest struct {
	AccountID string `json:"account_id" binding:"required,uuid4"`
}

type subjectOfferRequest struct {
	TeamID string `json:"team_id" binding:"required,uuid4"`
}

// Create godoc
// @Summary Create a subject
// @Tags Subjects
// @Accept json
// @Produce json
// @Param payload body models.CreateSubjectRequest true "Subject"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /subjects [post]
func (h *SubjectHandler) Create(c *gin.Context) {
	var req models.CreateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	subject, err := h.subjects.Create(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, subject)
}

// Get godoc
// @Summary Get a subject by id
// @Tags Subjects
// @Produce json
// @Param id path string true "Subject ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /subjects/{id} [get]
func (h *SubjectHandler) Get(c *gin.Context) {
	subject, err := h.subjects.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subject, nil)
}

// List godoc
// @Summary List subjects
// @Tags Subjects
// @Produce json
// @Param team_id query string false "Team filter"
// @Param search query string false "Name search"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /subjects [get]
func (h *SubjectHandler) List(c *gin.Context) {
	filter := models.SubjectFilter{
		TeamID:    c.Query("team_id"),
		Search:    c.Query("search"),
		Page:      queryInt(c, "page", 1),
		PageSize:  queryInt(c, "page_size", 20),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	subjects, pagination, err := h.subjects.List(c.Request.Context(), actorFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, pagination)
}

// AddTeacher godoc
// @Summary Add a teacher to the subject teaching set
// @Tags Subjects
// @Accept json
// @Produce json
// @Param id path string true "Subject ID"
// @Param payload body subjectTeacherRequest true "Teacher"
// @Success 204 "No Content"
// @Security BearerAuth
// @Router /subjects/{id}/teachers [post]
func (h *SubjectHandler) AddTeacher(c *gin.Context) {
	var req subjectTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.subjects.AddTeacher(c.Request.Context(), actorFromContext(c), c.Param("id"), req.AccountID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// RemoveTeacher godoc
// @Summary Remove a teacher from the subject teaching set
// @Tags Subjects
// @Produce json
// @Param id path string true "Subject ID"
// @Param accountId path string true "Account ID"
// @Success 204 "No Content"
// @Security BearerAuth
// @Router /subjects/{id}/teachers/{accountId} [delete]
func (h *SubjectHandler) RemoveTeacher(c *gin.Context) {
	if err := h.subjects.RemoveTeacher(c.Request.Context(), actorFromContext(c), c.Param("id"), c.Param("accountId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListTeachers godoc
// @Summary List the subject teaching set
// @Tags Subjects
// @Produce json
// @Param id path string true "Subject ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /subjects/{id}/teachers [get]
func (h *SubjectHandler) ListTeachers(c *gin.Context) {
	teachers, err := h.subjects.ListTeachers(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teachers, nil)
}

// Offer godoc
// @Summary Offer the subject to a team
// @Tags Subjects
// @Accept json
// @Produce json
// @Param id path string true "Subject ID"
// @Param payload body subjectOfferRequest true "Team"
// @Success 204 "No Content"
// @Security BearerAuth
// @Router /subjects/{id}/offers [post]
func (h *SubjectHandler) Offer(c *gin.Context) {
	var req subjectOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.subjects.Offer(c.Request.Context(), actorFromContext(c), c.Param("id"), req.TeamID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// RevokeOffer godoc
// @Summary Revoke a subject offer from a team
// @Tags Subjects
// @Produce json
// @Param id path string true "Subject ID"
// @Param teamId path string true "Team ID"
// @Success 204 "No Content"
// @Security BearerAuth
// @Router /subjects/{id}/offers/{teamId} [delete]
func (h *SubjectHandler) RevokeOffer(c *gin.Context) {
	if err := h.subjects.RevokeOffer(c.Request.Context(), actorFromContext(c), c.Param("id"), c.Param("teamId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Delete godoc
// @Summary Delete a subject and its dependent ledgers
// @Tags Subjects
// @Produce json
// @Param id path string true "Subject ID"
// @Success 204 "No Content"
// @Security BearerAuth
// @Router /subjects/{id} [delete]
func (h *SubjectHandler) Delete(c *gin.Context) {
	if err := h.subjects.Delete(c.Request.Context(), actorFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
