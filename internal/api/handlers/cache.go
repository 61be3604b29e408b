package handlers

import (
	"net/http"

	"contactsapi/internal/api/middleware"
	"contactsapi/internal/models"

	"github.com/gin-gonic/gin"
)

// CacheHandler exposes the attempt tracker's cache state
type CacheHandler struct {
	tracker Tracker
}

func NewCacheHandler(tracker Tracker) *CacheHandler {
	return &CacheHandler{tracker: tracker}
}

// Stats godoc
// @Summary Cache statistics
// @Description Reports the attempt tracker backend and, in redis mode, server figures
// @Tags cache
// @Produce json
// @Success 200 {object} attempt.Stats
// @Failure 401 {object} models.ErrorResponse "Unauthorized"
// @Security BearerAuth
// @Router /cache/stats [get]
func (h *CacheHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.tracker.Stats(c.Request.Context()))
}

// Clear godoc
// @Summary Clear cached entries
// @Description Drops the caller's cached reset token. The stored token, if any, stays valid.
// @Tags cache
// @Produce json
// @Success 200 {object} models.SuccessResponse
// @Failure 401 {object} models.ErrorResponse "Unauthorized"
// @Security BearerAuth
// @Router /cache/clear [delete]
func (h *CacheHandler) Clear(c *gin.Context) {
	user := middleware.GetUserFromContext(c)
	if err := h.tracker.InvalidateResetToken(c.Request.Context(), user.ID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Message: "cache cleared"})
}
