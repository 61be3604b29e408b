package handlers

import (
	"net/http"

	"contactsapi/internal/admin"
	"contactsapi/internal/api/middleware"
	"contactsapi/internal/models"
	"contactsapi/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AdminHandler handles user management requests from administrators
type AdminHandler struct {
	adminService *admin.Service
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminService *admin.Service) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

type listUsersQuery struct {
	Skip   int    `form:"skip,default=0"`
	Limit  int    `form:"limit,default=50"`
	Role   string `form:"role"`
	Search string `form:"search"`
}

type updateRoleQuery struct {
	Reason *string `form:"reason" binding:"omitempty,max=500"`
}

type auditQuery struct {
	Limit int `form:"limit,default=50"`
}

func parseUserID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid user id"})
		return uuid.Nil, false
	}
	return id, true
}

// ListUsers godoc
// @Summary List users
// @Description Page through all users, optionally filtered by role or a username/email search
// @Tags admin
// @Produce json
// @Param skip query int false "Number of users to skip" default(0)
// @Param limit query int false "Maximum number of users to return (1-100)" default(50)
// @Param role query string false "Only users with this role" Enums(user, moderator, admin)
// @Param search query string false "Substring of username or email"
// @Success 200 {object} models.UserListResponse
// @Failure 400 {object} models.ErrorResponse "Invalid filter"
// @Failure 401 {object} models.ErrorResponse "Unauthorized"
// @Failure 403 {object} models.ErrorResponse "Not an administrator"
// @Security BearerAuth
// @Router /admin/users [get]
func (h *AdminHandler) ListUsers(c *gin.Context) {
	var q listUsersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	page, err := h.adminService.ListUsers(c.Request.Context(), repository.UserFilter{
		Role:   models.Role(q.Role),
		Search: q.Search,
		Offset: q.Skip,
		Limit:  q.Limit,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// GetUser godoc
// @Summary Get user
// @Tags admin
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse "Invalid user ID"
// @Failure 403 {object} models.ErrorResponse "Not an administrator"
// @Failure 404 {object} models.ErrorResponse "User not found"
// @Security BearerAuth
// @Router /admin/users/{id} [get]
func (h *AdminHandler) GetUser(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}

	user, err := h.adminService.GetUser(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateRole godoc
// @Summary Change user role
// @Description Admins cannot demote themselves. The change is written to the audit log.
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param reason query string false "Reason for the change"
// @Param request body models.UpdateRoleRequest true "New role"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse "Invalid role or self-demotion"
// @Failure 403 {object} models.ErrorResponse "Not an administrator"
// @Failure 404 {object} models.ErrorResponse "User not found"
// @Security BearerAuth
// @Router /admin/users/{id}/role [put]
func (h *AdminHandler) UpdateRole(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}

	var q updateRoleQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	var req models.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	actor := middleware.GetUserFromContext(c)
	user, err := h.adminService.UpdateRole(c.Request.Context(), actor, id, req.Role, q.Reason)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateStatus godoc
// @Summary Activate or deactivate user
// @Description Admins cannot deactivate themselves. The change is written to the audit log.
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body models.UpdateStatusRequest true "New status"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse "Validation error or self-deactivation"
// @Failure 403 {object} models.ErrorResponse "Not an administrator"
// @Failure 404 {object} models.ErrorResponse "User not found"
// @Security BearerAuth
// @Router /admin/users/{id}/status [put]
func (h *AdminHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}

	var req models.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	actor := middleware.GetUserFromContext(c)
	user, err := h.adminService.UpdateStatus(c.Request.Context(), actor, id, *req.IsActive, req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// Stats godoc
// @Summary System statistics
// @Description User counts by role and the attempt tracker state
// @Tags admin
// @Produce json
// @Success 200 {object} models.SystemStats
// @Failure 403 {object} models.ErrorResponse "Not an administrator"
// @Security BearerAuth
// @Router /admin/stats [get]
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.adminService.Stats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// AuditLog godoc
// @Summary Recent admin actions
// @Tags admin
// @Produce json
// @Param limit query int false "Maximum number of entries (1-100)" default(50)
// @Success 200 {array} models.AuditEntry
// @Failure 400 {object} models.ErrorResponse "Invalid limit"
// @Failure 403 {object} models.ErrorResponse "Not an administrator"
// @Security BearerAuth
// @Router /admin/audit [get]
func (h *AdminHandler) AuditLog(c *gin.Context) {
	var q auditQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	entries, err := h.adminService.AuditLog(c.Request.Context(), q.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, entries)
}
