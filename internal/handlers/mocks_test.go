package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/Karol96S/budgetapp/internal/errors"
	"github.com/Karol96S/budgetapp/internal/models"
	"github.com/Karol96S/budgetapp/internal/pagination"
	"github.com/Karol96S/budgetapp/internal/services"
	"github.com/Karol96S/budgetapp/internal/token"
	"github.com/Karol96S/budgetapp/internal/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
}

// setAuthContext simulates the auth middleware for protected handlers.
func setAuthContext(userID uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", userID)
		c.Set("email", "test@example.com")
		c.Next()
	}
}

// mockUserService implements services.UserServicer via overridable functions.
// Unset functions return the zero value and no error.
type mockUserService struct {
	registerFn           func(services.RegisterInput) (*models.User, token.Token, error)
	activateFn           func(string) error
	authenticateFn       func(string, string) (*models.User, error)
	rememberLoginFn      func(uint) (token.Token, time.Time, error)
	findByRememberedFn   func(string) (*models.User, error)
	startPasswordResetFn func(context.Context, string) error
	findByResetFn        func(string) (*models.User, error)
	resetPasswordFn      func(string, string, string) error
	getUserByIDFn        func(uint) (*models.User, error)
	updateProfileFn      func(uint, services.ProfileUpdateInput) (*models.User, error)
	changeUsernameFn     func(uint, string) (*models.User, error)
	changePasswordFn     func(uint, string, string, string) error
	getRefreshDigestFn   func(uint) (string, error)

	sentEmails      int
	storedDigests   []string
	forgottenTokens []string
}

func (m *mockUserService) Register(input services.RegisterInput) (*models.User, token.Token, error) {
	if m.registerFn != nil {
		return m.registerFn(input)
	}
	return &models.User{}, token.Token{}, nil
}

func (m *mockUserService) SendActivationEmail(_ context.Context, _ *models.User, _ token.Token) error {
	m.sentEmails++
	return nil
}

func (m *mockUserService) Activate(rawToken string) error {
	if m.activateFn != nil {
		return m.activateFn(rawToken)
	}
	return nil
}

func (m *mockUserService) Authenticate(email, password string) (*models.User, error) {
	if m.authenticateFn != nil {
		return m.authenticateFn(email, password)
	}
	return &models.User{}, nil
}

func (m *mockUserService) RememberLogin(userID uint) (token.Token, time.Time, error) {
	if m.rememberLoginFn != nil {
		return m.rememberLoginFn(userID)
	}
	return token.Token{}, time.Now().Add(30 * 24 * time.Hour), nil
}

func (m *mockUserService) FindByRememberedLogin(rawToken string) (*models.User, error) {
	if m.findByRememberedFn != nil {
		return m.findByRememberedFn(rawToken)
	}
	return nil, apperrors.ErrTokenNotFound
}

func (m *mockUserService) ForgetRememberedLogin(rawToken string) error {
	m.forgottenTokens = append(m.forgottenTokens, rawToken)
	return nil
}

func (m *mockUserService) StartPasswordReset(ctx context.Context, email string) error {
	if m.startPasswordResetFn != nil {
		return m.startPasswordResetFn(ctx, email)
	}
	return nil
}

func (m *mockUserService) FindByPasswordReset(rawToken string) (*models.User, error) {
	if m.findByResetFn != nil {
		return m.findByResetFn(rawToken)
	}
	return &models.User{}, nil
}

func (m *mockUserService) ResetPassword(rawToken, password, repeatPassword string) error {
	if m.resetPasswordFn != nil {
		return m.resetPasswordFn(rawToken, password, repeatPassword)
	}
	return nil
}

func (m *mockUserService) GetUserByID(id uint) (*models.User, error) {
	if m.getUserByIDFn != nil {
		return m.getUserByIDFn(id)
	}
	return &models.User{}, nil
}

func (m *mockUserService) UpdateProfile(userID uint, input services.ProfileUpdateInput) (*models.User, error) {
	if m.updateProfileFn != nil {
		return m.updateProfileFn(userID, input)
	}
	return &models.User{}, nil
}

func (m *mockUserService) ChangeUsername(userID uint, newUsername string) (*models.User, error) {
	if m.changeUsernameFn != nil {
		return m.changeUsernameFn(userID, newUsername)
	}
	return &models.User{}, nil
}

func (m *mockUserService) ChangePassword(userID uint, currentPassword, newPassword, repeatPassword string) error {
	if m.changePasswordFn != nil {
		return m.changePasswordFn(userID, currentPassword, newPassword, repeatPassword)
	}
	return nil
}

func (m *mockUserService) VerifyPassword(*models.User, string) bool { return true }

func (m *mockUserService) StoreRefreshTokenDigest(_ uint, digest string) error {
	m.storedDigests = append(m.storedDigests, digest)
	return nil
}

func (m *mockUserService) GetRefreshTokenDigest(userID uint) (string, error) {
	if m.getRefreshDigestFn != nil {
		return m.getRefreshDigestFn(userID)
	}
	return "", nil
}

// mockAuditService records calls without touching a database.
type mockAuditService struct {
	actions []string
}

func (m *mockAuditService) Log(_ uint, action, _ string, _ uint, _ string, _ map[string]interface{}) {
	m.actions = append(m.actions, action)
}

// mockCategoryService implements services.CategoryServicer.
type mockCategoryService struct {
	createFn     func(uint, string, models.CategoryType, int64) (*models.Category, error)
	listFn       func(uint, pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	listByTypeFn func(uint, models.CategoryType, pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	getByIDFn    func(uint, uint) (*models.Category, error)
	getByNameFn  func(uint, string, models.CategoryType) (*models.Category, error)
	updateFn     func(uint, uint, string, *int64) (*models.Category, error)
	deleteFn     func(uint, uint) error
}

func (m *mockCategoryService) CreateCategory(userID uint, name string, categoryType models.CategoryType, monthlyLimit int64) (*models.Category, error) {
	if m.createFn != nil {
		return m.createFn(userID, name, categoryType, monthlyLimit)
	}
	return &models.Category{Name: name, Type: categoryType, MonthlyLimit: monthlyLimit}, nil
}

func (m *mockCategoryService) GetUserCategories(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
	if m.listFn != nil {
		return m.listFn(userID, page)
	}
	resp := pagination.NewPageResponse([]models.Category{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockCategoryService) GetUserCategoriesByType(userID uint, categoryType models.CategoryType, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
	if m.listByTypeFn != nil {
		return m.listByTypeFn(userID, categoryType, page)
	}
	resp := pagination.NewPageResponse([]models.Category{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockCategoryService) GetCategoryByID(userID, categoryID uint) (*models.Category, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(userID, categoryID)
	}
	return &models.Category{}, nil
}

func (m *mockCategoryService) GetCategoryByName(userID uint, name string, categoryType models.CategoryType) (*models.Category, error) {
	if m.getByNameFn != nil {
		return m.getByNameFn(userID, name, categoryType)
	}
	return &models.Category{Name: name, Type: categoryType}, nil
}

func (m *mockCategoryService) UpdateCategory(userID, categoryID uint, name string, monthlyLimit *int64) (*models.Category, error) {
	if m.updateFn != nil {
		return m.updateFn(userID, categoryID, name, monthlyLimit)
	}
	return &models.Category{}, nil
}

func (m *mockCategoryService) DeleteCategory(userID, categoryID uint) error {
	if m.deleteFn != nil {
		return m.deleteFn(userID, categoryID)
	}
	return nil
}

// mockEntryService implements services.EntryServicer.
type mockEntryService struct {
	createFn        func(uint, services.EntryInput) (*models.Entry, error)
	currentMonthFn  func(uint, models.EntryType, pagination.PageRequest) (*pagination.PageResponse[models.Entry], error)
	previousMonthFn func(uint, models.EntryType, pagination.PageRequest) (*pagination.PageResponse[models.Entry], error)
	inRangeFn       func(uint, models.EntryType, time.Time, time.Time, pagination.PageRequest) (*pagination.PageResponse[models.Entry], error)
	categorySumsFn  func(uint, models.EntryType, time.Time, time.Time) ([]services.CategorySum, error)
	expenseSumFn    func(uint, time.Time) (int64, error)
	expenseLimitFn  func(uint, string) (int64, error)
	deleteFn        func(uint, uint) error
}

func (m *mockEntryService) CreateEntry(userID uint, input services.EntryInput) (*models.Entry, error) {
	if m.createFn != nil {
		return m.createFn(userID, input)
	}
	return &models.Entry{Type: input.Type, Amount: input.Amount}, nil
}

func (m *mockEntryService) GetCurrentMonthEntries(userID uint, entryType models.EntryType, page pagination.PageRequest) (*pagination.PageResponse[models.Entry], error) {
	if m.currentMonthFn != nil {
		return m.currentMonthFn(userID, entryType, page)
	}
	resp := pagination.NewPageResponse([]models.Entry{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockEntryService) GetPreviousMonthEntries(userID uint, entryType models.EntryType, page pagination.PageRequest) (*pagination.PageResponse[models.Entry], error) {
	if m.previousMonthFn != nil {
		return m.previousMonthFn(userID, entryType, page)
	}
	resp := pagination.NewPageResponse([]models.Entry{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockEntryService) GetEntriesInRange(userID uint, entryType models.EntryType, from, to time.Time, page pagination.PageRequest) (*pagination.PageResponse[models.Entry], error) {
	if m.inRangeFn != nil {
		return m.inRangeFn(userID, entryType, from, to, page)
	}
	resp := pagination.NewPageResponse([]models.Entry{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockEntryService) GetCategorySums(userID uint, entryType models.EntryType, from, to time.Time) ([]services.CategorySum, error) {
	if m.categorySumsFn != nil {
		return m.categorySumsFn(userID, entryType, from, to)
	}
	return []services.CategorySum{}, nil
}

func (m *mockEntryService) GetExpenseSumForMonth(userID uint, date time.Time) (int64, error) {
	if m.expenseSumFn != nil {
		return m.expenseSumFn(userID, date)
	}
	return 0, nil
}

func (m *mockEntryService) GetExpenseLimit(userID uint, categoryName string) (int64, error) {
	if m.expenseLimitFn != nil {
		return m.expenseLimitFn(userID, categoryName)
	}
	return 0, nil
}

func (m *mockEntryService) DeleteEntry(userID, entryID uint) error {
	if m.deleteFn != nil {
		return m.deleteFn(userID, entryID)
	}
	return nil
}
