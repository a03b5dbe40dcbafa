package models

import "time"

// EntryType represents the type of ledger entry
type EntryType string

const (
	EntryTypeIncome  EntryType = "income"
	EntryTypeExpense EntryType = "expense"
)

// Entry represents a single income or expense record in a user's ledger.
// Amounts are stored in cents.
type Entry struct {
	Base
	UserID          uint      `gorm:"not null;index" json:"user_id"`
	CategoryID      uint      `gorm:"not null" json:"category_id"`
	PaymentMethodID *uint     `json:"payment_method_id,omitempty"`
	Type            EntryType `gorm:"not null" json:"type"`
	Amount          int64     `gorm:"type:bigint;not null" json:"amount"`
	Date            time.Time `gorm:"not null" json:"date"`
	Comment         string    `gorm:"size:50" json:"comment"`

	Category      Category       `gorm:"foreignKey:CategoryID" json:"category"`
	PaymentMethod *PaymentMethod `gorm:"foreignKey:PaymentMethodID" json:"payment_method,omitempty"`
}
