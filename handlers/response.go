package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"storefront/logging"
	"storefront/models"
	"storefront/store"

	"github.com/gin-gonic/gin"
)

// Notifier emails customers about their orders. Implementations must not
// block the request.
type Notifier interface {
	SendOrderConfirmation(o *models.Order)
	SendOrderStatusUpdate(o *models.Order)
}

type noopNotifier struct{}

func (noopNotifier) SendOrderConfirmation(*models.Order) {}
func (noopNotifier) SendOrderStatusUpdate(*models.Order) {}

func respondError(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"success": false, "error": msg})
}

// respondStoreError maps store failures onto HTTP statuses. Unknown errors
// are logged and reported as a generic 500.
func respondStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrIdentityRequired):
		respondError(c, http.StatusBadRequest, "A session id or sign-in is required")
	case errors.Is(err, store.ErrInvalidQuantity):
		respondError(c, http.StatusBadRequest, "Quantity must be at least 1")
	case errors.Is(err, store.ErrProductNotFound):
		respondError(c, http.StatusNotFound, "Product not found")
	case errors.Is(err, store.ErrItemNotFound), errors.Is(err, store.ErrCartNotFound):
		respondError(c, http.StatusNotFound, "Item not found in cart")
	case errors.Is(err, store.ErrConflict):
		respondError(c, http.StatusConflict, "Cart item was changed by another request")
	case errors.Is(err, store.ErrMergeFailed):
		requestLogger(c).ErrorContext(c.Request.Context(), "cart merge failed", "error", err)
		respondError(c, http.StatusInternalServerError, "Failed to merge cart")
	case errors.Is(err, store.ErrOrderNotFound):
		respondError(c, http.StatusNotFound, "Order not found")
	case errors.Is(err, store.ErrAddressMissing):
		respondError(c, http.StatusNotFound, "No saved address")
	case errors.Is(err, store.ErrInvalidStatus):
		respondError(c, http.StatusBadRequest, "Invalid order status")
	case errors.Is(err, store.ErrIntentInUse):
		respondError(c, http.StatusConflict, "Payment has already been used for another order")
	case errors.Is(err, store.ErrEmptyOrder), errors.Is(err, store.ErrInvalidLine):
		respondError(c, http.StatusBadRequest, err.Error())
	default:
		requestLogger(c).ErrorContext(c.Request.Context(), "request failed", "error", err)
		respondError(c, http.StatusInternalServerError, "Internal server error")
	}
}

func requestLogger(c *gin.Context) *slog.Logger {
	return logging.FromContext(c.Request.Context())
}
