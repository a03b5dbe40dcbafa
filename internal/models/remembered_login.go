package models

import "time"

// RememberedLogin stores the digest of a remember-me token issued at login.
// The raw token lives only in the user's cookie; a row past ExpiresAt is
// unusable but not auto-cleared.
type RememberedLogin struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	TokenDigest string    `gorm:"size:64;uniqueIndex;not null" json:"-"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	ExpiresAt   time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
}
