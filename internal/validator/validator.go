// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// minEntryDate is the earliest date a ledger entry may carry.
var minEntryDate = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("entry_type", validateEntryType)
		_ = v.RegisterValidation("category_type", validateCategoryType)
		_ = v.RegisterValidation("entry_date", validateEntryDate)
	}
}

func validateEntryType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "income", "expense":
		return true
	}
	return false
}

func validateCategoryType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "income", "expense":
		return true
	}
	return false
}

// validateEntryDate accepts YYYY-MM-DD dates between 2000-01-01 and the
// last day of the current month.
func validateEntryDate(fl validator.FieldLevel) bool {
	d, err := time.Parse("2006-01-02", fl.Field().String())
	if err != nil {
		return false
	}
	return !d.Before(minEntryDate) && !d.After(LastDayOfCurrentMonth())
}

// LastDayOfCurrentMonth returns the latest date a ledger entry may carry.
func LastDayOfCurrentMonth() time.Time {
	now := time.Now().UTC()
	firstOfNext := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return firstOfNext.AddDate(0, 0, -1)
}
