package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/Karol96S/budgetapp/internal/errors"
	"github.com/Karol96S/budgetapp/internal/logger"
	"github.com/Karol96S/budgetapp/internal/middleware"
	"github.com/Karol96S/budgetapp/internal/services"
	"github.com/Karol96S/budgetapp/internal/token"
)

const rememberCookieName = "remember_me"

// AuthHandler handles the account lifecycle endpoints.
type AuthHandler struct {
	userService  services.UserServicer
	auditService services.AuditServicer
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(userService services.UserServicer, auditService services.AuditServicer) *AuthHandler {
	return &AuthHandler{userService: userService, auditService: auditService}
}

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Username       string `json:"username" binding:"required,max=64"`
	Email          string `json:"email" binding:"required,email,max=255"`
	Password       string `json:"password" binding:"required,max=128"`
	RepeatPassword string `json:"repeat_password" binding:"required,max=128"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Remember bool   `json:"remember"`
}

// RefreshRequest represents the token refresh request payload
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// PasswordResetRequest asks for a reset email to be sent.
type PasswordResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// PasswordChangeRequest carries the current password alongside the new
// one and its confirmation.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password" binding:"required,max=128"`
	Password        string `json:"password" binding:"required,max=128"`
	RepeatPassword  string `json:"repeat_password" binding:"required,max=128"`
}

// ProfileUpdateRequest represents the profile update payload. Password is
// optional; when empty it is left unchanged.
type ProfileUpdateRequest struct {
	Username string `json:"username" binding:"required,max=64"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"omitempty,max=128"`
}

// UsernameChangeRequest represents the username change payload.
type UsernameChangeRequest struct {
	Username string `json:"username" binding:"required,max=64"`
}

// UserResponse represents the user data in the response
type UserResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsActive bool   `json:"is_active"`
}

// ErrorDetail represents the inner error object in an error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

func userJSON(id uint, username, email string, isActive bool) gin.H {
	return gin.H{
		"id":        id,
		"username":  username,
		"email":     email,
		"is_active": isActive,
	}
}

// Register handles user registration
// @Summary     Register a new user
// @Description Register a new user; the account stays pending until the emailed activation link is used
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body RegisterRequest true "User registration data"
// @Success     201 {object} UserResponse "User registered, activation email sent"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     422 {object} ErrorResponse "Validation failed"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	user, activation, err := h.userService.Register(services.RegisterInput{
		Username:       req.Username,
		Email:          req.Email,
		Password:       req.Password,
		RepeatPassword: req.RepeatPassword,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.userService.SendActivationEmail(c.Request.Context(), user, activation); err != nil {
		// The account exists; the user can request another email later.
		logger.Get().Errorw("failed to send activation email", "user_id", user.ID, "error", err)
	}

	h.auditService.Log(user.ID, "user.register", "user", user.ID, c.ClientIP(), nil)

	c.JSON(http.StatusCreated, gin.H{
		"user": userJSON(user.ID, user.Username, user.Email, user.IsActive),
	})
}

// Activate handles account activation links
// @Summary     Activate an account
// @Description Activate the account matching the token; the response does not reveal whether the token matched
// @Tags        auth
// @Produce     json
// @Param       token path string true "Raw activation token"
// @Success     200 {object} map[string]string "Processed"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/activate/{token} [get]
func (h *AuthHandler) Activate(c *gin.Context) {
	if err := h.userService.Activate(c.Param("token")); err != nil {
		respondWithError(c, err)
		return
	}

	// Same response whether or not the token matched anything.
	c.JSON(http.StatusOK, gin.H{
		"message": "If the token was valid, your account is now active. You can log in.",
	})
}

// Login handles user login
// @Summary     Login user
// @Description Authenticate an active user and issue access and refresh tokens
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body LoginRequest true "User login credentials"
// @Success     200 {object} map[string]interface{} "User authenticated and tokens generated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid credentials"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	user, err := h.userService.Authenticate(req.Email, req.Password)
	if err != nil {
		respondWithError(c, err)
		return
	}

	accessToken, err := middleware.GenerateAccessToken(user)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	refreshToken, err := middleware.GenerateRefreshToken(user)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	if err := h.userService.StoreRefreshTokenDigest(user.ID, token.HashString(refreshToken)); err != nil {
		respondWithError(c, err)
		return
	}

	if req.Remember {
		remember, expiresAt, err := h.userService.RememberLogin(user.ID)
		if err != nil {
			respondWithError(c, err)
			return
		}
		c.SetCookie(rememberCookieName, remember.String(), int(time.Until(expiresAt).Seconds()), "/", "", false, true)
	}

	h.auditService.Log(user.ID, "user.login", "user", user.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{
		"token":         accessToken,
		"refresh_token": refreshToken,
		"user":          userJSON(user.ID, user.Username, user.Email, user.IsActive),
	})
}

// RememberedLogin signs a user in from a remember-me cookie
// @Summary     Login via remember-me cookie
// @Description Issue a token pair from a valid remember-me cookie; the cookie token is rotated on use
// @Tags        auth
// @Produce     json
// @Success     200 {object} map[string]interface{} "User authenticated and tokens generated"
// @Failure     401 {object} ErrorResponse "Missing, invalid, or expired cookie"
// @Router      /auth/remember [post]
func (h *AuthHandler) RememberedLogin(c *gin.Context) {
	raw, err := c.Cookie(rememberCookieName)
	if err != nil || raw == "" {
		respondWithError(c, apperrors.ErrUnauthorized)
		return
	}

	user, err := h.userService.FindByRememberedLogin(raw)
	if err != nil {
		respondWithError(c, apperrors.ErrUnauthorized)
		return
	}

	accessToken, err := middleware.GenerateAccessToken(user)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}
	refreshToken, err := middleware.GenerateRefreshToken(user)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}
	if err := h.userService.StoreRefreshTokenDigest(user.ID, token.HashString(refreshToken)); err != nil {
		respondWithError(c, err)
		return
	}

	// Rotate the cookie token: the presented value is single-use.
	if err := h.userService.ForgetRememberedLogin(raw); err != nil {
		logger.Get().Errorw("failed to consume remember-me token", "user_id", user.ID, "error", err)
	}
	remember, expiresAt, err := h.userService.RememberLogin(user.ID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.SetCookie(rememberCookieName, remember.String(), int(time.Until(expiresAt).Seconds()), "/", "", false, true)

	h.auditService.Log(user.ID, "user.remember_login", "user", user.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{
		"token":         accessToken,
		"refresh_token": refreshToken,
		"user":          userJSON(user.ID, user.Username, user.Email, user.IsActive),
	})
}

// Refresh exchanges a valid refresh token for a new token pair
// @Summary     Refresh tokens
// @Description Exchange a refresh token for a new access/refresh token pair
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body RefreshRequest true "Refresh token"
// @Success     200 {object} map[string]interface{} "New token pair"
// @Failure     401 {object} ErrorResponse "Invalid refresh token"
// @Router      /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	claims, err := middleware.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		respondWithError(c, apperrors.ErrUnauthorized)
		return
	}

	storedDigest, err := h.userService.GetRefreshTokenDigest(claims.UserID)
	if err != nil || storedDigest == "" || storedDigest != token.HashString(req.RefreshToken) {
		respondWithError(c, apperrors.ErrUnauthorized)
		return
	}

	user, err := h.userService.GetUserByID(claims.UserID)
	if err != nil {
		respondWithError(c, apperrors.ErrUnauthorized)
		return
	}

	accessToken, err := middleware.GenerateAccessToken(user)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}
	refreshToken, err := middleware.GenerateRefreshToken(user)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}
	if err := h.userService.StoreRefreshTokenDigest(user.ID, token.HashString(refreshToken)); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":         accessToken,
		"refresh_token": refreshToken,
	})
}

// RequestPasswordReset starts the password reset flow
// @Summary     Request a password reset
// @Description Send a reset email when the address is registered; the response never reveals whether it is
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body PasswordResetRequest true "Account email"
// @Success     200 {object} map[string]string "Processed"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /auth/password-reset [post]
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req PasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	err := h.userService.StartPasswordReset(c.Request.Context(), req.Email)
	if err != nil && err != apperrors.ErrUserNotFound {
		respondWithError(c, err)
		return
	}

	// Unknown addresses get the same answer as known ones.
	c.JSON(http.StatusOK, gin.H{
		"message": "If the email is registered, reset instructions have been sent.",
	})
}

// ValidatePasswordReset checks a reset token before showing the form
// @Summary     Validate a password reset token
// @Tags        auth
// @Produce     json
// @Param       token path string true "Raw reset token"
// @Success     200 {object} map[string]bool "Token is valid"
// @Failure     404 {object} ErrorResponse "Invalid or expired token"
// @Router      /auth/password-reset/{token} [get]
func (h *AuthHandler) ValidatePasswordReset(c *gin.Context) {
	if _, err := h.userService.FindByPasswordReset(c.Param("token")); err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true})
}

// ResetPassword consumes a reset token and sets a new password
// @Summary     Reset a password
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       token path string true "Raw reset token"
// @Param       request body PasswordChangeRequest true "New password"
// @Success     200 {object} map[string]string "Password updated"
// @Failure     404 {object} ErrorResponse "Invalid or expired token"
// @Failure     422 {object} ErrorResponse "Validation failed"
// @Router      /auth/password-reset/{token} [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req PasswordChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	if err := h.userService.ResetPassword(c.Param("token"), req.Password, req.RepeatPassword); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password has been updated."})
}

// GetProfile returns the user's profile
// @Summary     Get user profile
// @Tags        user
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} UserResponse "User profile"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /profile [get]
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.userService.GetUserByID(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": userJSON(user.ID, user.Username, user.Email, user.IsActive),
	})
}

// UpdateProfile updates username, email, and optionally the password
// @Summary     Update user profile
// @Tags        user
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ProfileUpdateRequest true "Profile fields"
// @Success     200 {object} UserResponse "Updated profile"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     422 {object} ErrorResponse "Validation failed"
// @Router      /profile [put]
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ProfileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	user, err := h.userService.UpdateProfile(userID, services.ProfileUpdateInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "user.update_profile", "user", userID, c.ClientIP(), map[string]interface{}{
		"username":         req.Username,
		"email":            req.Email,
		"password_changed": req.Password != "",
	})

	c.JSON(http.StatusOK, gin.H{
		"user": userJSON(user.ID, user.Username, user.Email, user.IsActive),
	})
}

// ChangeUsername updates only the username
// @Summary     Change username
// @Tags        user
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body UsernameChangeRequest true "New username"
// @Success     200 {object} UserResponse "Updated profile"
// @Failure     422 {object} ErrorResponse "Validation failed"
// @Router      /profile/username [post]
func (h *AuthHandler) ChangeUsername(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UsernameChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	user, err := h.userService.ChangeUsername(userID, req.Username)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "user.change_username", "user", userID, c.ClientIP(), map[string]interface{}{
		"username": req.Username,
	})

	c.JSON(http.StatusOK, gin.H{
		"user": userJSON(user.ID, user.Username, user.Email, user.IsActive),
	})
}

// ChangePassword updates only the password
// @Summary     Change password
// @Tags        user
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body PasswordChangeRequest true "Current and new password"
// @Success     200 {object} map[string]string "Password updated"
// @Failure     401 {object} ErrorResponse "Wrong current password"
// @Failure     422 {object} ErrorResponse "Validation failed"
// @Router      /profile/password [post]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req PasswordChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	if err := h.userService.ChangePassword(userID, req.CurrentPassword, req.Password, req.RepeatPassword); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "user.change_password", "user", userID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Password has been updated."})
}
