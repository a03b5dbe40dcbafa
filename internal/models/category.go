package models

// CategoryType represents the type of category
type CategoryType string

const (
	CategoryTypeIncome  CategoryType = "income"
	CategoryTypeExpense CategoryType = "expense"
)

// Category represents an income or expense category owned by one user.
// MonthlyLimit only applies to expense categories; 0 means no limit.
type Category struct {
	Base
	UserID       uint         `gorm:"not null;index:idx_categories_user_name_type,unique" json:"user_id"`
	Name         string       `gorm:"not null;index:idx_categories_user_name_type,unique" json:"name"`
	Type         CategoryType `gorm:"not null;index:idx_categories_user_name_type,unique" json:"type"`
	MonthlyLimit int64        `gorm:"default:0" json:"monthly_limit"`

	Entries []Entry `gorm:"foreignKey:CategoryID" json:"entries,omitempty"`
}

// DefaultCategory is a template row copied into Category for every new user.
type DefaultCategory struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	Name         string       `gorm:"not null" json:"name"`
	Type         CategoryType `gorm:"not null" json:"type"`
	MonthlyLimit int64        `gorm:"default:0" json:"monthly_limit"`
}

// TableName overrides the default pluralization.
func (DefaultCategory) TableName() string { return "default_categories" }
