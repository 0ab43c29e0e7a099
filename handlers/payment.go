package handlers

import (
	"errors"
	"net/http"
	"strings"

	"storefront/middleware"
	"storefront/payment"
	"storefront/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type PaymentHandler struct {
	Processor payment.Processor
	Currency  string
}

// CreatePaymentIntent starts a card payment for amount (in major units) and
// hands the client secret to the browser.
func (h *PaymentHandler) CreatePaymentIntent(c *gin.Context) {
	ctx := c.Request.Context()
	if h.Processor == nil {
		respondError(c, http.StatusServiceUnavailable, "Payments are not configured")
		return
	}

	var req struct {
		Amount   float64 `json:"amount" binding:"required,gt=0"`
		Currency string  `json:"currency"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, utils.SanitizeValidationError(err))
		return
	}

	minor, err := payment.ToMinorUnits(decimal.NewFromFloat(req.Amount))
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	currency := strings.ToLower(req.Currency)
	if currency == "" {
		currency = h.Currency
	}

	id := middleware.GetIdentity(c)
	intent, err := h.Processor.CreateIntent(ctx, minor, currency, map[string]string{
		"user_id": id.UserID,
		"email":   id.Email,
	})
	if err != nil {
		requestLogger(c).ErrorContext(ctx, "creating payment intent failed", "amount_minor", minor, "error", err)
		var perr *payment.Error
		if errors.As(err, &perr) {
			respondError(c, http.StatusBadGateway, perr.Message)
			return
		}
		respondError(c, http.StatusBadGateway, "Failed to create payment intent")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"clientSecret":    intent.ClientSecret,
		"paymentIntentId": intent.ID,
	})
}
