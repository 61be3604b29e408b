package handlers

import (
	"errors"
	"net/http"

	"contactsapi/internal/api/middleware"
	"contactsapi/internal/auth"
	"contactsapi/internal/avatar"
	"contactsapi/internal/models"

	"github.com/gin-gonic/gin"
)

// Reset and resend requests always answer with these messages so that
// callers cannot tell whether an account exists.
const (
	resetRequestedMessage = "if the email is registered, a password reset link has been sent"
	resendMessage         = "if the email is registered and unverified, a verification link has been sent"
)

// multipartOverhead is allowed on top of the file size limit for form boundaries and headers
const multipartOverhead = 1 << 20

// AuthHandler handles HTTP requests for authentication and the user's own profile
type AuthHandler struct {
	authService   *auth.Service
	avatarService *avatar.Service
}

// NewAuthHandler creates a new authentication handler with the given dependencies
func NewAuthHandler(authService *auth.Service, avatarService *avatar.Service) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		avatarService: avatarService,
	}
}

// Register godoc
// @Summary Register new user
// @Description Register a new user account. A verification email is sent to the given address.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.CreateUserRequest true "User registration details"
// @Success 201 {object} models.User "User created successfully"
// @Failure 400 {object} models.ErrorResponse "Invalid request format or validation error"
// @Failure 403 {object} models.ErrorResponse "Registration is closed"
// @Failure 409 {object} models.ErrorResponse "Username or email already exists"
// @Failure 429 {object} models.ErrorResponse "Rate limit exceeded"
// @Failure 503 {object} models.ErrorResponse "Service unavailable"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.authService.Register(c.Request.Context(), auth.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	}, c.ClientIP())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// Login godoc
// @Summary User login
// @Description Authenticate user and return a bearer session token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Login credentials"
// @Success 200 {object} models.TokenResponse "Login successful"
// @Failure 400 {object} models.ErrorResponse "Invalid request format"
// @Failure 401 {object} models.ErrorResponse "Invalid credentials"
// @Failure 429 {object} models.ErrorResponse "Rate limit exceeded"
// @Failure 503 {object} models.ErrorResponse "Service unavailable"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.Username, req.Password, c.ClientIP())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.TokenResponse{
		AccessToken: result.AccessToken,
		TokenType:   "bearer",
		ExpiresIn:   int(result.ExpiresIn.Seconds()),
	})
}

// VerifyEmail godoc
// @Summary Verify email address
// @Description Verify a user's email address using the verification token
// @Tags auth
// @Produce json
// @Param token query string true "Email verification token"
// @Success 200 {object} models.SuccessResponse "Email verified successfully"
// @Failure 400 {object} models.ErrorResponse "Invalid, expired, or missing token"
// @Failure 429 {object} models.ErrorResponse "Rate limit exceeded"
// @Failure 503 {object} models.ErrorResponse "Service unavailable"
// @Router /auth/verify-email [get]
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "verification token is required"})
		return
	}

	if err := h.authService.VerifyEmail(c.Request.Context(), token, c.ClientIP()); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Message: "email verified successfully"})
}

// ResendVerification godoc
// @Summary Resend verification email
// @Description Send a new verification link. The response does not reveal whether the email is registered.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.ResendVerificationRequest true "Resend verification request"
// @Success 200 {object} models.SuccessResponse
// @Failure 400 {object} models.ErrorResponse "Invalid request format"
// @Failure 429 {object} models.ErrorResponse "Rate limit exceeded"
// @Failure 503 {object} models.ErrorResponse "Service unavailable"
// @Router /auth/resend-verification [post]
func (h *AuthHandler) ResendVerification(c *gin.Context) {
	var req models.ResendVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.authService.ResendVerification(c.Request.Context(), req.Email, c.ClientIP()); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Message: resendMessage})
}

// RequestPasswordReset godoc
// @Summary Request password reset
// @Description Email a password reset link. The response does not reveal whether the email is registered.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.PasswordResetRequest true "Password reset request"
// @Success 200 {object} models.SuccessResponse
// @Failure 400 {object} models.ErrorResponse "Invalid request format"
// @Failure 429 {object} models.ErrorResponse "Rate limit exceeded"
// @Failure 503 {object} models.ErrorResponse "Service unavailable"
// @Router /auth/password-reset [post]
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req models.PasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.authService.RequestPasswordReset(c.Request.Context(), req.Email, c.ClientIP()); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Message: resetRequestedMessage})
}

// ConfirmPasswordReset godoc
// @Summary Complete password reset
// @Description Set a new password using a reset token. Each token can be used once.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.CompleteResetRequest true "Reset token and new password"
// @Success 200 {object} models.SuccessResponse
// @Failure 400 {object} models.ErrorResponse "Invalid or expired token"
// @Failure 429 {object} models.ErrorResponse "Rate limit exceeded"
// @Failure 503 {object} models.ErrorResponse "Service unavailable"
// @Router /auth/password-reset/confirm [post]
func (h *AuthHandler) ConfirmPasswordReset(c *gin.Context) {
	var req models.CompleteResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.authService.ConfirmPasswordReset(c.Request.Context(), req.Token, req.NewPassword, c.ClientIP()); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Message: "password has been reset"})
}

// Me godoc
// @Summary Current user
// @Description Returns the authenticated user
// @Tags auth
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} models.ErrorResponse "Unauthorized"
// @Security BearerAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.GetUserFromContext(c))
}

// UploadAvatar godoc
// @Summary Upload avatar
// @Description Upload a JPEG, PNG, GIF or WebP image as the user's avatar
// @Tags auth
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Avatar image"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse "Missing file or unsupported type"
// @Failure 401 {object} models.ErrorResponse "Unauthorized"
// @Failure 413 {object} models.ErrorResponse "File too large"
// @Failure 503 {object} models.ErrorResponse "Avatar storage not configured"
// @Security BearerAuth
// @Router /auth/avatar [post]
func (h *AuthHandler) UploadAvatar(c *gin.Context) {
	user := middleware.GetUserFromContext(c)

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.avatarService.MaxSize()+multipartOverhead)
	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(c, avatar.ErrTooLarge)
			return
		}
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "file is required"})
		return
	}

	file, err := header.Open()
	if err != nil {
		writeError(c, err)
		return
	}
	defer file.Close()

	updated, err := h.avatarService.Set(c.Request.Context(), user.ID, file, header.Size)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeleteAvatar godoc
// @Summary Delete avatar
// @Description Remove the user's avatar
// @Tags auth
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} models.ErrorResponse "Unauthorized"
// @Security BearerAuth
// @Router /auth/avatar [delete]
func (h *AuthHandler) DeleteAvatar(c *gin.Context) {
	user := middleware.GetUserFromContext(c)

	updated, err := h.avatarService.Remove(c.Request.Context(), user.ID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}
