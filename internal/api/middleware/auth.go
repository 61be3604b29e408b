package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"contactsapi/internal/auth"
	"contactsapi/internal/models"

	"github.com/gin-gonic/gin"
)

const userKey = "user"

// Authenticator resolves a session token to an active user
type Authenticator interface {
	Authenticate(ctx context.Context, sessionToken string) (*models.User, error)
}

type AuthMiddleware struct {
	authService Authenticator
}

func NewAuthMiddleware(authService Authenticator) *AuthMiddleware {
	return &AuthMiddleware{authService: authService}
}

// AuthRequired rejects requests without a valid bearer session token and
// stores the authenticated user in the context
func (m *AuthMiddleware) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "no authorization header"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "invalid authorization header"})
			return
		}

		user, err := m.authService.Authenticate(c.Request.Context(), parts[1])
		if err != nil {
			if errors.Is(err, auth.ErrUnavailable) {
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: auth.ErrUnavailable.Error()})
				return
			}
			c.Header("WWW-Authenticate", "Bearer")
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "could not validate credentials"})
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

// GetUserFromContext retrieves the authenticated user from the gin context
func GetUserFromContext(c *gin.Context) *models.User {
	user, exists := c.Get(userKey)
	if !exists {
		return nil
	}
	if u, ok := user.(*models.User); ok {
		return u
	}
	return nil
}

// RoleRequired rejects authenticated users whose role is not one of roles.
// It must run after AuthRequired.
func RoleRequired(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := GetUserFromContext(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "could not validate credentials"})
			return
		}
		for _, role := range roles {
			if user.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, models.ErrorResponse{Error: "insufficient permissions"})
	}
}

// AdminRequired allows only administrators
func AdminRequired() gin.HandlerFunc {
	return RoleRequired(models.RoleAdmin)
}
