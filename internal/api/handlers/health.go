package handlers

import (
	"context"
	"net/http"
	"time"

	"contactsapi/internal/attempt"
	"contactsapi/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Pinger is satisfied by *sql.DB
type Pinger interface {
	PingContext(ctx context.Context) error
}

// TrackerMode reports which backend the attempt tracker is using
type TrackerMode interface {
	Mode() attempt.Mode
}

// Tracker is the attempt tracker as seen by the HTTP layer
type Tracker interface {
	TrackerMode
	Stats(ctx context.Context) attempt.Stats
	InvalidateResetToken(ctx context.Context, userID uuid.UUID) error
}

type HealthHandler struct {
	db      Pinger
	tracker TrackerMode
}

func NewHealthHandler(db Pinger, tracker TrackerMode) *HealthHandler {
	return &HealthHandler{db: db, tracker: tracker}
}

// Health godoc
// @Summary Health check
// @Description Returns the health status of the API and its dependencies
// @Tags health
// @Produce json
// @Success 200 {object} models.HealthResponse
// @Failure 503 {object} models.ErrorResponse "Service unavailable"
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	if err := h.db.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: "database connection failed"})
		return
	}

	c.JSON(http.StatusOK, models.HealthResponse{
		Status:       "healthy",
		Database:     "connected",
		AttemptStore: string(h.tracker.Mode()),
		Time:         time.Now().UTC(),
	})
}
