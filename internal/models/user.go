package models

import "time"

// User represents the user model in the database.
//
// A user starts out inactive with ActivationDigest set. Presenting the raw
// activation token flips IsActive and clears the digest. Password resets
// work the same way: only the digest of the reset token is stored, together
// with an expiry. Raw token values are never persisted.
type User struct {
	Base
	Username string `gorm:"size:20;not null" json:"username"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`
	IsActive bool   `gorm:"default:false" json:"is_active"`

	ActivationDigest       *string    `gorm:"size:64" json:"-"`
	PasswordResetDigest    *string    `gorm:"size:64" json:"-"`
	PasswordResetExpiresAt *time.Time `json:"-"`
	RefreshTokenDigest     string     `gorm:"size:64" json:"-"`
	LastLoginAt            *time.Time `json:"last_login_at,omitempty"`

	Categories       []Category        `gorm:"foreignKey:UserID" json:"categories,omitempty"`
	PaymentMethods   []PaymentMethod   `gorm:"foreignKey:UserID" json:"payment_methods,omitempty"`
	Entries          []Entry           `gorm:"foreignKey:UserID" json:"entries,omitempty"`
	RememberedLogins []RememberedLogin `gorm:"foreignKey:UserID" json:"-"`
}
