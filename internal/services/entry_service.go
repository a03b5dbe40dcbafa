package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "github.com/Karol96S/budgetapp/internal/errors"
	"github.com/Karol96S/budgetapp/internal/models"
	"github.com/Karol96S/budgetapp/internal/pagination"
)

// Ledger entry bounds.
const (
	maxEntryAmount    = 999_999_999
	maxCommentLen     = 50
	minEntryDateYear  = 2000
	minEntryDateMonth = time.January
)

var minEntryDate = time.Date(minEntryDateYear, minEntryDateMonth, 1, 0, 0, 0, 0, time.UTC)

// entryService handles ledger-entry business logic.
type entryService struct {
	db              *gorm.DB
	categoryService CategoryServicer
	paymentMethods  PaymentMethodServicer
}

// NewEntryService creates a new EntryServicer.
func NewEntryService(db *gorm.DB, categoryService CategoryServicer, paymentMethods PaymentMethodServicer) EntryServicer {
	return &entryService{
		db:              db,
		categoryService: categoryService,
		paymentMethods:  paymentMethods,
	}
}

// CreateEntry validates and records a single income or expense. The
// category is resolved by name, owner, and type.
func (s *entryService) CreateEntry(userID uint, input EntryInput) (*models.Entry, error) {
	ve := apperrors.NewValidationError()

	if input.Amount <= 0 {
		ve.Add("amount", "Amount is required and must be positive")
	} else if input.Amount > maxEntryAmount {
		ve.Add("amount", "Amount exceeds the allowed maximum")
	}

	if input.Date.IsZero() {
		ve.Add("date", "Date is required")
	} else if input.Date.Before(minEntryDate) || input.Date.After(lastDayOfMonth(time.Now().UTC())) {
		ve.Add("date", "Date must be between 2000-01-01 and the last day of the current month")
	}

	if input.CategoryName == "" {
		ve.Add("category", "Category is required")
	}

	if len(input.Comment) > maxCommentLen {
		ve.Add("comment", "Comment cannot exceed 50 characters")
	}

	if ve.HasErrors() {
		return nil, ve
	}

	category, err := s.categoryService.GetCategoryByName(userID, input.CategoryName, models.CategoryType(input.Type))
	if err != nil {
		return nil, err
	}

	entry := &models.Entry{
		UserID:     userID,
		CategoryID: category.ID,
		Type:       input.Type,
		Amount:     input.Amount,
		Date:       input.Date,
		Comment:    input.Comment,
	}

	if input.PaymentMethod != "" {
		method, err := s.paymentMethods.GetPaymentMethodByName(userID, input.PaymentMethod)
		if err != nil {
			return nil, err
		}
		entry.PaymentMethodID = &method.ID
	}

	if err := s.db.Create(entry).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	entry.Category = *category
	return entry, nil
}

// GetCurrentMonthEntries lists the user's entries for the current month.
func (s *entryService) GetCurrentMonthEntries(userID uint, entryType models.EntryType, page pagination.PageRequest) (*pagination.PageResponse[models.Entry], error) {
	from, to := monthBounds(time.Now().UTC())
	return s.GetEntriesInRange(userID, entryType, from, to, page)
}

// GetPreviousMonthEntries lists the user's entries for the previous month.
func (s *entryService) GetPreviousMonthEntries(userID uint, entryType models.EntryType, page pagination.PageRequest) (*pagination.PageResponse[models.Entry], error) {
	now := time.Now().UTC()
	// Step through the first of the month so end-of-month dates cannot
	// normalize back into the current month.
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	from, to := monthBounds(firstOfMonth.AddDate(0, 0, -1))
	return s.GetEntriesInRange(userID, entryType, from, to, page)
}

// GetEntriesInRange lists the user's entries within an arbitrary date range.
func (s *entryService) GetEntriesInRange(userID uint, entryType models.EntryType, from, to time.Time, page pagination.PageRequest) (*pagination.PageResponse[models.Entry], error) {
	if to.Before(from) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "date range end precedes start")
	}

	page.Defaults()

	base := s.db.Model(&models.Entry{}).
		Where("user_id = ? AND type = ? AND date >= ? AND date <= ?", userID, entryType, from, to)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var entries []models.Entry
	if err := base.Preload("Category").Preload("PaymentMethod").
		Scopes(pagination.Paginate(page)).
		Order("date DESC").
		Find(&entries).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(entries, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetCategorySums aggregates totals per category for the user's entries
// within a date range.
func (s *entryService) GetCategorySums(userID uint, entryType models.EntryType, from, to time.Time) ([]CategorySum, error) {
	if to.Before(from) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "date range end precedes start")
	}

	var sums []CategorySum
	err := s.db.Model(&models.Entry{}).
		Select("categories.name AS category_name, SUM(entries.amount) AS total").
		Joins("JOIN categories ON categories.id = entries.category_id").
		Where("entries.user_id = ? AND entries.type = ? AND entries.date >= ? AND entries.date <= ?",
			userID, entryType, from, to).
		Group("categories.name").
		Order("total DESC").
		Scan(&sums).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if sums == nil {
		sums = []CategorySum{}
	}
	return sums, nil
}

// GetExpenseSumForMonth returns the user's total expenses for the month
// containing the given date.
func (s *entryService) GetExpenseSumForMonth(userID uint, date time.Time) (int64, error) {
	from, to := monthBounds(date)

	var total int64
	err := s.db.Model(&models.Entry{}).
		Where("user_id = ? AND type = ? AND date >= ? AND date <= ?",
			userID, models.EntryTypeExpense, from, to).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return total, nil
}

// GetExpenseLimit returns the monthly limit configured for one of the
// user's expense categories.
func (s *entryService) GetExpenseLimit(userID uint, categoryName string) (int64, error) {
	category, err := s.categoryService.GetCategoryByName(userID, categoryName, models.CategoryTypeExpense)
	if err != nil {
		return 0, err
	}
	return category.MonthlyLimit, nil
}

// DeleteEntry removes one of the user's entries.
func (s *entryService) DeleteEntry(userID, entryID uint) error {
	var entry models.Entry
	err := s.db.Where("id = ? AND user_id = ?", entryID, userID).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrEntryNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.db.Delete(&entry).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// monthBounds returns the first and last instant of the month containing t.
func monthBounds(t time.Time) (time.Time, time.Time) {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return first, last
}

// lastDayOfMonth returns the last instant of the month containing t.
func lastDayOfMonth(t time.Time) time.Time {
	_, last := monthBounds(t)
	return last
}
