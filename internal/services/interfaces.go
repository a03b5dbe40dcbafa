package services

import (
	"context"
	"time"

	"github.com/Karol96S/budgetapp/internal/models"
	"github.com/Karol96S/budgetapp/internal/pagination"
	"github.com/Karol96S/budgetapp/internal/token"
)

// RegisterInput holds the fields submitted at registration.
type RegisterInput struct {
	Username       string
	Email          string
	Password       string
	RepeatPassword string
}

// ProfileUpdateInput holds the fields submitted on a profile update.
// Password is only validated and updated when non-empty.
type ProfileUpdateInput struct {
	Username string
	Email    string
	Password string
}

// UserServicer defines the contract for the account lifecycle:
// registration, activation, authentication, password reset, and
// profile/credential changes.
type UserServicer interface {
	Register(input RegisterInput) (*models.User, token.Token, error)
	SendActivationEmail(ctx context.Context, user *models.User, raw token.Token) error
	Activate(rawToken string) error
	Authenticate(email, password string) (*models.User, error)
	RememberLogin(userID uint) (token.Token, time.Time, error)
	FindByRememberedLogin(rawToken string) (*models.User, error)
	ForgetRememberedLogin(rawToken string) error
	StartPasswordReset(ctx context.Context, email string) error
	FindByPasswordReset(rawToken string) (*models.User, error)
	ResetPassword(rawToken, password, repeatPassword string) error
	GetUserByID(id uint) (*models.User, error)
	UpdateProfile(userID uint, input ProfileUpdateInput) (*models.User, error)
	ChangeUsername(userID uint, newUsername string) (*models.User, error)
	ChangePassword(userID uint, currentPassword, newPassword, repeatPassword string) error
	VerifyPassword(user *models.User, password string) bool
	StoreRefreshTokenDigest(userID uint, digest string) error
	GetRefreshTokenDigest(userID uint) (string, error)
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(userID uint, name string, categoryType models.CategoryType, monthlyLimit int64) (*models.Category, error)
	GetUserCategories(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetUserCategoriesByType(userID uint, categoryType models.CategoryType, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetCategoryByID(userID, categoryID uint) (*models.Category, error)
	GetCategoryByName(userID uint, name string, categoryType models.CategoryType) (*models.Category, error)
	UpdateCategory(userID, categoryID uint, name string, monthlyLimit *int64) (*models.Category, error)
	DeleteCategory(userID, categoryID uint) error
}

// PaymentMethodServicer defines the contract for payment-method business logic.
type PaymentMethodServicer interface {
	CreatePaymentMethod(userID uint, name string) (*models.PaymentMethod, error)
	GetUserPaymentMethods(userID uint) ([]models.PaymentMethod, error)
	GetPaymentMethodByName(userID uint, name string) (*models.PaymentMethod, error)
}

// EntryInput holds the fields submitted when recording a ledger entry.
type EntryInput struct {
	Type          models.EntryType
	CategoryName  string
	PaymentMethod string
	Amount        int64
	Date          time.Time
	Comment       string
}

// CategorySum is the aggregate total for one category over a date range.
type CategorySum struct {
	CategoryName string `json:"category_name"`
	Total        int64  `json:"total"`
}

// EntryServicer defines the contract for ledger-entry business logic.
type EntryServicer interface {
	CreateEntry(userID uint, input EntryInput) (*models.Entry, error)
	GetCurrentMonthEntries(userID uint, entryType models.EntryType, page pagination.PageRequest) (*pagination.PageResponse[models.Entry], error)
	GetPreviousMonthEntries(userID uint, entryType models.EntryType, page pagination.PageRequest) (*pagination.PageResponse[models.Entry], error)
	GetEntriesInRange(userID uint, entryType models.EntryType, from, to time.Time, page pagination.PageRequest) (*pagination.PageResponse[models.Entry], error)
	GetCategorySums(userID uint, entryType models.EntryType, from, to time.Time) ([]CategorySum, error)
	GetExpenseSumForMonth(userID uint, date time.Time) (int64, error)
	GetExpenseLimit(userID uint, categoryName string) (int64, error)
	DeleteEntry(userID, entryID uint) error
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID uint, action, resourceType string, resourceID uint, ipAddress string, changes map[string]interface{})
}
