package models

// PaymentMethod represents a payment method owned by one user.
type PaymentMethod struct {
	Base
	UserID uint   `gorm:"not null;index" json:"user_id"`
	Name   string `gorm:"not null" json:"name"`
}

// DefaultPaymentMethod is a template row copied into PaymentMethod for
// every new user.
type DefaultPaymentMethod struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"not null" json:"name"`
}

// TableName overrides the default pluralization.
func (DefaultPaymentMethod) TableName() string { return "default_payment_methods" }
