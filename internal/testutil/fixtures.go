package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Karol96S/budgetapp/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates an active user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates an active user with the given email.
// The fixture password is "password123".
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Username: fmt.Sprintf("user%d", nextID()),
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreatePendingTestUser creates a not-yet-activated user with the given
// activation digest.
func CreatePendingTestUser(t *testing.T, db *gorm.DB, activationDigest string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	n := nextID()
	user := &models.User{
		Username:         fmt.Sprintf("pending%d", n),
		Email:            fmt.Sprintf("pending%d@test.com", n),
		Password:         string(hash),
		IsActive:         false,
		ActivationDigest: &activationDigest,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create pending test user: %v", err)
	}
	return user
}

// CreateTestCategory creates a category of the given type with no limit.
func CreateTestCategory(t *testing.T, db *gorm.DB, userID uint, categoryType models.CategoryType) *models.Category {
	t.Helper()
	return CreateTestCategoryWithLimit(t, db, userID, categoryType, 0)
}

// CreateTestCategoryWithLimit creates a category with the given monthly limit (in cents).
func CreateTestCategoryWithLimit(t *testing.T, db *gorm.DB, userID uint, categoryType models.CategoryType, limit int64) *models.Category {
	t.Helper()

	category := &models.Category{
		UserID:       userID,
		Name:         fmt.Sprintf("Test Category %d", nextID()),
		Type:         categoryType,
		MonthlyLimit: limit,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestPaymentMethod creates a payment method for a user.
func CreateTestPaymentMethod(t *testing.T, db *gorm.DB, userID uint) *models.PaymentMethod {
	t.Helper()

	method := &models.PaymentMethod{
		UserID: userID,
		Name:   fmt.Sprintf("Test Method %d", nextID()),
	}
	if err := db.Create(method).Error; err != nil {
		t.Fatalf("failed to create test payment method: %v", err)
	}
	return method
}

// CreateTestEntry creates an entry of the given type and amount (in cents)
// dated now.
func CreateTestEntry(t *testing.T, db *gorm.DB, userID, categoryID uint, entryType models.EntryType, amount int64) *models.Entry {
	t.Helper()
	return CreateTestEntryOn(t, db, userID, categoryID, entryType, amount, time.Now().UTC())
}

// CreateTestEntryOn creates an entry with an explicit date.
func CreateTestEntryOn(t *testing.T, db *gorm.DB, userID, categoryID uint, entryType models.EntryType, amount int64, date time.Time) *models.Entry {
	t.Helper()

	entry := &models.Entry{
		UserID:     userID,
		CategoryID: categoryID,
		Type:       entryType,
		Amount:     amount,
		Date:       date,
	}
	if err := db.Create(entry).Error; err != nil {
		t.Fatalf("failed to create test entry: %v", err)
	}
	return entry
}

// SeedDefaultTemplates inserts default category and payment-method template
// rows, as the SQL migrations would in production.
func SeedDefaultTemplates(t *testing.T, db *gorm.DB) {
	t.Helper()

	// "Another" exists for both types, matching the production seed.
	defaults := []models.DefaultCategory{
		{Name: "Salary", Type: models.CategoryTypeIncome},
		{Name: "Interest", Type: models.CategoryTypeIncome},
		{Name: "Another", Type: models.CategoryTypeIncome},
		{Name: "Food", Type: models.CategoryTypeExpense, MonthlyLimit: 150000},
		{Name: "Transport", Type: models.CategoryTypeExpense},
		{Name: "Another", Type: models.CategoryTypeExpense},
	}
	for i := range defaults {
		if err := db.Create(&defaults[i]).Error; err != nil {
			t.Fatalf("failed to seed default category: %v", err)
		}
	}

	methods := []models.DefaultPaymentMethod{
		{Name: "Cash"},
		{Name: "Debit card"},
	}
	for i := range methods {
		if err := db.Create(&methods[i]).Error; err != nil {
			t.Fatalf("failed to seed default payment method: %v", err)
		}
	}
}
