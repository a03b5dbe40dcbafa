package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "github.com/Karol96S/budgetapp/internal/errors"
	"github.com/Karol96S/budgetapp/internal/models"
)

// paymentMethodService handles payment-method business logic.
type paymentMethodService struct {
	db *gorm.DB
}

// NewPaymentMethodService creates a new PaymentMethodServicer.
func NewPaymentMethodService(db *gorm.DB) PaymentMethodServicer {
	return &paymentMethodService{db: db}
}

// CreatePaymentMethod creates a new payment method for a user.
func (s *paymentMethodService) CreatePaymentMethod(userID uint, name string) (*models.PaymentMethod, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "payment method name is required")
	}

	var count int64
	if err := s.db.Model(&models.PaymentMethod{}).
		Where("user_id = ? AND name = ?", userID, name).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "payment method with this name already exists")
	}

	method := &models.PaymentMethod{UserID: userID, Name: name}
	if err := s.db.Create(method).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return method, nil
}

// GetUserPaymentMethods lists all payment methods for a user.
func (s *paymentMethodService) GetUserPaymentMethods(userID uint) ([]models.PaymentMethod, error) {
	var methods []models.PaymentMethod
	if err := s.db.Where("user_id = ?", userID).Order("name ASC").Find(&methods).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return methods, nil
}

// GetPaymentMethodByName resolves a payment method by name and owner.
func (s *paymentMethodService) GetPaymentMethodByName(userID uint, name string) (*models.PaymentMethod, error) {
	var method models.PaymentMethod
	err := s.db.Where("user_id = ? AND name = ?", userID, name).First(&method).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPaymentMethodNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &method, nil
}
