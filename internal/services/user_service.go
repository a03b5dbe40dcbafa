package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Karol96S/budgetapp/internal/email"
	apperrors "github.com/Karol96S/budgetapp/internal/errors"
	"github.com/Karol96S/budgetapp/internal/models"
	"github.com/Karol96S/budgetapp/internal/token"
)

const (
	rememberLoginLifetime = 30 * 24 * time.Hour
	passwordResetLifetime = 2 * time.Hour
)

// userService handles the account lifecycle.
type userService struct {
	db      *gorm.DB
	sender  email.Sender
	baseURL string
}

// NewUserService creates a new UserServicer.
func NewUserService(db *gorm.DB, sender email.Sender, baseURL string) UserServicer {
	return &userService{db: db, sender: sender, baseURL: baseURL}
}

// Register validates the input and creates a new inactive user together
// with their starter categories and payment methods, all within a single
// transaction. The returned token is the raw activation value; only its
// digest is stored.
func (s *userService) Register(input RegisterInput) (*models.User, token.Token, error) {
	ve := apperrors.NewValidationError()
	validateUsername(ve, "username", input.Username)
	validateEmailFormat(ve, "email", input.Email)
	validatePassword(ve, "password", input.Password)
	validatePasswordConfirmation(ve, "repeatPassword", input.Password, input.RepeatPassword)

	emailAddr := strings.ToLower(input.Email)
	if ve.Fields["email"] == "" {
		var count int64
		if err := s.db.Model(&models.User{}).Where("email = ?", emailAddr).Count(&count).Error; err != nil {
			return nil, token.Token{}, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count > 0 {
			ve.Add("email", "Email is already taken")
		}
	}

	if ve.HasErrors() {
		return nil, token.Token{}, ve
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, token.Token{}, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	activation, err := token.Generate()
	if err != nil {
		return nil, token.Token{}, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	digest := activation.Digest()

	user := &models.User{
		Username:         input.Username,
		Email:            emailAddr,
		Password:         string(hashedPassword),
		IsActive:         false,
		ActivationDigest: &digest,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			// The unique index closes the window between the count
			// above and this insert.
			if isUniqueConstraintError(err) {
				return apperrors.ErrDuplicateEmail
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return provisionDefaults(tx, user.ID)
	})
	if err != nil {
		return nil, token.Token{}, err
	}

	return user, activation, nil
}

// provisionDefaults copies the default category and payment-method template
// rows for a freshly created user id.
func provisionDefaults(tx *gorm.DB, userID uint) error {
	var defaultCategories []models.DefaultCategory
	if err := tx.Find(&defaultCategories).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for _, dc := range defaultCategories {
		category := &models.Category{
			UserID:       userID,
			Name:         dc.Name,
			Type:         dc.Type,
			MonthlyLimit: dc.MonthlyLimit,
		}
		if err := tx.Create(category).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	var defaultMethods []models.DefaultPaymentMethod
	if err := tx.Find(&defaultMethods).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for _, dm := range defaultMethods {
		method := &models.PaymentMethod{UserID: userID, Name: dm.Name}
		if err := tx.Create(method).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return nil
}

// SendActivationEmail delivers the activation URL to the user. No stored
// state changes; the digest was set at registration.
func (s *userService) SendActivationEmail(ctx context.Context, user *models.User, raw token.Token) error {
	msg := email.ActivationMessage(user.Email, s.baseURL, raw.String())
	if err := s.sender.Send(ctx, msg); err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// Activate flips the user matching the token's digest to active and clears
// the digest. A token matching nothing is a silent no-op so responses never
// reveal whether a token ever existed.
func (s *userService) Activate(rawToken string) error {
	digest, err := token.DigestOf(rawToken)
	if err != nil {
		return nil
	}

	res := s.db.Model(&models.User{}).
		Where("activation_digest = ?", digest).
		Updates(map[string]interface{}{
			"is_active":         true,
			"activation_digest": nil,
		})
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	return nil
}

// Authenticate verifies the email/password pair for an active user.
// Unknown email, pending account, and wrong password are deliberately
// indistinguishable to the caller.
func (s *userService) Authenticate(emailAddr, password string) (*models.User, error) {
	var user models.User
	err := s.db.Where("email = ?", strings.ToLower(emailAddr)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if !user.IsActive {
		return nil, apperrors.ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	now := time.Now()
	if err := s.db.Model(&user).Update("last_login_at", &now).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return &user, nil
}

// RememberLogin issues a remember-me token with a 30-day expiry. Only the
// digest is persisted; the raw value is returned for cookie storage.
func (s *userService) RememberLogin(userID uint) (token.Token, time.Time, error) {
	remember, err := token.Generate()
	if err != nil {
		return token.Token{}, time.Time{}, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	expiresAt := time.Now().Add(rememberLoginLifetime)
	login := &models.RememberedLogin{
		TokenDigest: remember.Digest(),
		UserID:      userID,
		ExpiresAt:   expiresAt,
	}
	if err := s.db.Create(login).Error; err != nil {
		return token.Token{}, time.Time{}, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return remember, expiresAt, nil
}

// FindByRememberedLogin resolves a remember-me cookie value to its user,
// requiring an unexpired stored digest.
func (s *userService) FindByRememberedLogin(rawToken string) (*models.User, error) {
	digest, err := token.DigestOf(rawToken)
	if err != nil {
		return nil, apperrors.ErrTokenNotFound
	}

	var login models.RememberedLogin
	err = s.db.Where("token_digest = ? AND expires_at > ?", digest, time.Now()).First(&login).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTokenNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return s.GetUserByID(login.UserID)
}

// ForgetRememberedLogin deletes the stored digest for a remember-me token,
// invalidating the cookie holding its raw value. Unknown tokens are a no-op.
func (s *userService) ForgetRememberedLogin(rawToken string) error {
	digest, err := token.DigestOf(rawToken)
	if err != nil {
		return nil
	}

	err = s.db.Where("token_digest = ?", digest).Delete(&models.RememberedLogin{}).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// StartPasswordReset stores a reset digest with a 2-hour expiry for the
// user matching the email and sends the reset URL. Returns ErrUserNotFound
// on a miss; handlers respond identically either way to avoid revealing
// which emails are registered.
func (s *userService) StartPasswordReset(ctx context.Context, emailAddr string) error {
	var user models.User
	err := s.db.Where("email = ?", strings.ToLower(emailAddr)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrUserNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	reset, err := token.Generate()
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	digest := reset.Digest()
	expiresAt := time.Now().Add(passwordResetLifetime)
	err = s.db.Model(&user).Updates(map[string]interface{}{
		"password_reset_digest":     digest,
		"password_reset_expires_at": expiresAt,
	}).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	msg := email.PasswordResetMessage(user.Email, s.baseURL, reset.String())
	if err := s.sender.Send(ctx, msg); err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// FindByPasswordReset resolves a reset token to its user. The digest must
// match and the stored expiry must not have elapsed; both failures look
// the same to the caller.
func (s *userService) FindByPasswordReset(rawToken string) (*models.User, error) {
	digest, err := token.DigestOf(rawToken)
	if err != nil {
		return nil, apperrors.ErrTokenNotFound
	}

	var user models.User
	err = s.db.Where("password_reset_digest = ?", digest).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTokenNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if user.PasswordResetExpiresAt == nil || !user.PasswordResetExpiresAt.After(time.Now()) {
		return nil, apperrors.ErrTokenNotFound
	}

	return &user, nil
}

// ResetPassword consumes a reset token: the new password is re-validated,
// the stored digest is replaced, and the reset fields are cleared.
func (s *userService) ResetPassword(rawToken, password, repeatPassword string) error {
	user, err := s.FindByPasswordReset(rawToken)
	if err != nil {
		return err
	}

	ve := apperrors.NewValidationError()
	validatePassword(ve, "password", password)
	validatePasswordConfirmation(ve, "repeatPassword", password, repeatPassword)
	if ve.HasErrors() {
		return ve
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	err = s.db.Model(user).Updates(map[string]interface{}{
		"password":                  string(hashedPassword),
		"password_reset_digest":     nil,
		"password_reset_expires_at": nil,
	}).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetUserByID retrieves a user by ID
func (s *userService) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// UpdateProfile re-validates and persists username, email and, when a
// non-empty value is supplied, the password.
func (s *userService) UpdateProfile(userID uint, input ProfileUpdateInput) (*models.User, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	ve := apperrors.NewValidationError()
	validateUsername(ve, "username", input.Username)
	validateEmailFormat(ve, "email", input.Email)
	if input.Password != "" {
		validatePassword(ve, "password", input.Password)
	}

	emailAddr := strings.ToLower(input.Email)
	if ve.Fields["email"] == "" {
		var count int64
		err := s.db.Model(&models.User{}).
			Where("email = ? AND id <> ?", emailAddr, userID).
			Count(&count).Error
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count > 0 {
			ve.Add("email", "Email is already taken")
		}
	}

	if ve.HasErrors() {
		return nil, ve
	}

	updates := map[string]interface{}{
		"username": input.Username,
		"email":    emailAddr,
	}
	if input.Password != "" {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		updates["password"] = string(hashedPassword)
	}

	if err := s.db.Model(user).Updates(updates).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.ErrDuplicateEmail
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return user, nil
}

// ChangeUsername updates the username; the new value must pass the format
// rules and differ case-insensitively from the current one.
func (s *userService) ChangeUsername(userID uint, newUsername string) (*models.User, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	ve := apperrors.NewValidationError()
	validateUsername(ve, "username", newUsername)
	if strings.EqualFold(user.Username, newUsername) {
		ve.Add("username", "New username must differ from the current one")
	}
	if ve.HasErrors() {
		return nil, ve
	}

	if err := s.db.Model(user).Update("username", newUsername).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return user, nil
}

// ChangePassword updates the password. The caller must prove knowledge of
// the current password; the new value must pass the format rules, match
// its confirmation, and differ from the current one.
func (s *userService) ChangePassword(userID uint, currentPassword, newPassword, repeatPassword string) error {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}

	if !s.VerifyPassword(user, currentPassword) {
		return apperrors.ErrInvalidCredentials
	}

	ve := apperrors.NewValidationError()
	validatePassword(ve, "password", newPassword)
	validatePasswordConfirmation(ve, "repeatPassword", newPassword, repeatPassword)
	if s.VerifyPassword(user, newPassword) {
		ve.Add("password", "New password must differ from the current one")
	}
	if ve.HasErrors() {
		return ve
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.db.Model(user).Update("password", string(hashedPassword)).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// VerifyPassword checks if the provided password matches the stored hash
func (s *userService) VerifyPassword(user *models.User, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password))
	return err == nil
}

// StoreRefreshTokenDigest persists the digest of the user's current refresh token.
func (s *userService) StoreRefreshTokenDigest(userID uint, digest string) error {
	err := s.db.Model(&models.User{}).Where("id = ?", userID).
		Update("refresh_token_digest", digest).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetRefreshTokenDigest returns the stored refresh token digest for a user.
func (s *userService) GetRefreshTokenDigest(userID uint) (string, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperrors.ErrUserNotFound
		}
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return user.RefreshTokenDigest, nil
}

// isUniqueConstraintError checks if a GORM error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || // SQLite
		strings.Contains(msg, "duplicate key value violates unique constraint") // PostgreSQL
}
