package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MarivaldoDev/sistema-escolar/internal/models"
	"github.com/MarivaldoDev/sistema-escolar/internal/service"
	appErrors "github.com/MarivaldoDev/sistema-escolar/pkg/errors"
	"github.com/MarivaldoDev/sistema-escolar/pkg/response"
)

// TeamHandler exposes class roster endpoints.
type TeamHandler struct {
	teams *service.TeamService
}

// NewTeamHandler constructs handler.
func NewTeamHandler(teams *service.TeamService) *TeamHandler {
	return &TeamHandler{teams: teams}
}

type teamMemberRequest struct {
	AccountID string `json:"account_id" binding:"required,uuid4"`
}

// Create godoc
// @Summary Create a team
// @Tags Teams
// @Accept json
// @Produce json
// @Param payload body models.CreateTeamRequest true "Team"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /teams [post]
func (h *TeamHandler) Create(c *gin.Context) {
	var req models.CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	team, err := h.teams.Create(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, team)
}

// Get godoc
// @Summary Get a team by id
// @Tags Teams
// @Produce json
// @Param id path string true "Team ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /teams/{id} [get]
func (h *TeamHandler) Get(c *gin.Context) {
	team, err := h.teams.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, team, nil)
}

// List godoc
// @Summary List teams
// @Tags Teams
// @Produce json
// @Param year query int false "School year"
// @Param search query string false "Name search"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /teams [get]
func (h *TeamHandler) List(c *gin.Context) {
	filter := models.TeamFilter{
		Year:      queryInt(c, "year", 0),
		Search:    c.Query("search"),
		Page:      queryInt(c, "page", 1),
		PageSize:  queryInt(c, "page_size", 20),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	teams, pagination, err := h.teams.List(c.Request.Context(), actorFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teams, pagination)
}

// AddMember godoc
// @Summary Add a student to the team roster
// @Tags Teams
// @Accept json
// @Produce json
// @Param id path string true "Team ID"
// @Param payload body teamMemberRequest true "Member"
// @Success 204 "No Content"
// @Security BearerAuth
// @Router /teams/{id}/members [post]
func (h *TeamHandler) AddMember(c *gin.Context) {
	var req teamMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.teams.AddMember(c.Request.Context(), actorFromContext(c), c.Param("id"), req.AccountID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// RemoveMember godoc
// @Summary Remove a student from the team roster
// @Tags Teams
// @Produce json
// @Param id path string true "Team ID"
// @Param accountId path string true "Account ID"
// @Success 204 "No Content"
// @Security BearerAuth
// @Router /teams/{id}/members/{accountId} [delete]
func (h *TeamHandler) RemoveMember(c *gin.Context) {
	if err := h.teams.RemoveMember(c.Request.Context(), actorFromContext(c), c.Param("id"), c.Param("accountId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListMembers godoc
// @Summary List the team roster
// @Tags Teams
// @Produce json
// @Param id path string true "Team ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /teams/{id}/members [get]
func (h *TeamHandler) ListMembers(c *gin.Context) {
	members, err := h.teams.ListMembers(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, members, nil)
}
