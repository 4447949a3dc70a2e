package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MarivaldoDev/sistema-escolar/internal/models"
	"github.com/MarivaldoDev/sistema-escolar/internal/service"
	appErrors "github.com/MarivaldoDev/sistema-escolar/pkg/errors"
	"github.com/MarivaldoDev/sistema-escolar/pkg/response"
)

// AccountHandler exposes account management endpoints.
type AccountHandler struct {
	accounts *service.AccountService
}

// NewAccountHandler constructs handler.
func NewAccountHandler(accounts *service.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// Create godoc
// @Summary Create an account and assign its registration number
// @Tags Accounts
// @Accept json
// @Produce json
// @Param payload body models.CreateAccountRequest true "Account"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /accounts [post]
func (h *AccountHandler) Create(c *gin.Context) {
	var req models.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	account, err := h.accounts.Create(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, account)
}

// Get godoc
// @Summary Get an account by id
// @Tags Accounts
// @Produce json
// @Param id path string true "Account ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /accounts/{id} [get]
func (h *AccountHandler) Get(c *gin.Context) {
	account, err := h.accounts.Get(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, account, nil)
}

// List godoc
// @Summary List accounts
// @Tags Accounts
// @Produce json
// @Param role query string false "Role filter"
// @Param search query string false "Name or registration number search"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /accounts [get]
func (h *AccountHandler) List(c *gin.Context) {
	filter := models.AccountFilter{
		Search:    c.Query("search"),
		Page:      queryInt(c, "page", 1),
		PageSize:  queryInt(c, "page_size", 20),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if raw := c.Query("role"); raw != "" {
		role := models.AccountRole(raw)
		filter.Role = &role
	}
	accounts, pagination, err := h.accounts.List(c.Request.Context(), actorFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, accounts, pagination)
}

// Update godoc
// @Summary Update account profile fields
// @Tags Accounts
// @Accept json
// @Produce json
// @Param id path string true "Account ID"
// @Param payload body models.UpdateAccountRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /accounts/{id} [patch]
func (h *AccountHandler) Update(c *gin.Context) {
	var req models.UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	account, err := h.accounts.Update(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, account, nil)
}
