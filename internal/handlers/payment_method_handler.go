package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/Karol96S/budgetapp/internal/errors"
	"github.com/Karol96S/budgetapp/internal/services"
)

// PaymentMethodHandler handles payment-method requests
type PaymentMethodHandler struct {
	paymentMethodService services.PaymentMethodServicer
}

// NewPaymentMethodHandler creates a new PaymentMethodHandler
func NewPaymentMethodHandler(paymentMethodService services.PaymentMethodServicer) *PaymentMethodHandler {
	return &PaymentMethodHandler{paymentMethodService: paymentMethodService}
}

// CreatePaymentMethodRequest represents the payment-method creation payload.
type CreatePaymentMethodRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

// CreatePaymentMethod creates a payment method
// @Summary     Create a payment method
// @Tags        payment-methods
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreatePaymentMethodRequest true "Payment method data"
// @Success     201 {object} models.PaymentMethod "Created payment method"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /payment-methods [post]
func (h *PaymentMethodHandler) CreatePaymentMethod(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreatePaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	method, err := h.paymentMethodService.CreatePaymentMethod(userID, req.Name)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"payment_method": method})
}

// GetUserPaymentMethods lists the user's payment methods
// @Summary     List payment methods
// @Tags        payment-methods
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} models.PaymentMethod "Payment methods"
// @Router      /payment-methods [get]
func (h *PaymentMethodHandler) GetUserPaymentMethods(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	methods, err := h.paymentMethodService.GetUserPaymentMethods(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payment_methods": methods})
}
