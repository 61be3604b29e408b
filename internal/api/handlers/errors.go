package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"

	"contactsapi/internal/admin"
	"contactsapi/internal/auth"
	"contactsapi/internal/avatar"
	"contactsapi/internal/contacts"
	"contactsapi/internal/models"
	"contactsapi/internal/repository"

	"github.com/gin-gonic/gin"
)

// writeError maps service errors to status codes and an ErrorResponse body
func writeError(c *gin.Context, err error) {
	var rateErr *auth.RateLimitError
	switch {
	case errors.As(err, &rateErr):
		seconds := int(math.Ceil(rateErr.RetryAfter.Seconds()))
		if seconds < 1 {
			seconds = 1
		}
		c.Header("Retry-After", fmt.Sprintf("%d", seconds))
		c.JSON(http.StatusTooManyRequests, models.ErrorResponse{Error: rateErr.Error()})
	case errors.Is(err, auth.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, models.ErrorResponse{Error: auth.ErrRateLimited.Error()})
	case errors.Is(err, auth.ErrConflict):
		c.JSON(http.StatusConflict, models.ErrorResponse{Error: auth.ErrConflict.Error()})
	case errors.Is(err, auth.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "invalid credentials"})
	case errors.Is(err, auth.ErrInvalidToken):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: auth.ErrInvalidToken.Error()})
	case errors.Is(err, auth.ErrRegistrationClosed):
		c.JSON(http.StatusForbidden, models.ErrorResponse{Error: auth.ErrRegistrationClosed.Error()})
	case errors.Is(err, repository.ErrContactNotFound), errors.Is(err, repository.ErrUserNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: err.Error()})
	case errors.Is(err, contacts.ErrInvalidPagination),
		errors.Is(err, contacts.ErrInvalidDays),
		errors.Is(err, contacts.ErrEmptyQuery),
		errors.Is(err, contacts.ErrMissingBirthday),
		errors.Is(err, avatar.ErrUnsupportedType),
		errors.Is(err, admin.ErrInvalidPagination),
		errors.Is(err, admin.ErrInvalidRole),
		errors.Is(err, admin.ErrSelfDemotion),
		errors.Is(err, admin.ErrSelfDeactivation):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
	case errors.Is(err, avatar.ErrTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{Error: avatar.ErrTooLarge.Error()})
	case errors.Is(err, avatar.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: avatar.ErrNotConfigured.Error()})
	case errors.Is(err, auth.ErrUnavailable),
		errors.Is(err, repository.ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		slog.Warn("backend unavailable", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: auth.ErrUnavailable.Error()})
	default:
		slog.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "internal server error"})
	}
}

// badRequest writes a 400 for a binding or parameter error
func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
}
