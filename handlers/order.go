package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"storefront/checkout"
	"storefront/events"
	"storefront/middleware"
	"storefront/models"
	"storefront/payment"
	"storefront/store"
	"storefront/utils"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	Orders *store.OrderStore
	// Payments verifies intents before an order is recorded. Nil skips the
	// check.
	Payments payment.Processor
	Events   events.Publisher
	Mailer   Notifier
}

func NewOrderHandler(orders *store.OrderStore, processor payment.Processor, pub events.Publisher, mailer Notifier) *OrderHandler {
	if pub == nil {
		pub = events.LogPublisher{}
	}
	if mailer == nil {
		mailer = noopNotifier{}
	}
	return &OrderHandler{Orders: orders, Payments: processor, Events: pub, Mailer: mailer}
}

type createOrderRequest struct {
	Items           []models.OrderItem      `json:"items" binding:"required,min=1"`
	Subtotal        float64                 `json:"subtotal"`
	Shipping        float64                 `json:"shipping"`
	Tax             float64                 `json:"tax"`
	Total           float64                 `json:"total"`
	PaymentIntentID string                  `json:"paymentIntentId" binding:"required"`
	ShippingAddress *models.ShippingAddress `json:"shippingAddress"`
}

type orderEventPayload struct {
	OrderID         uint               `json:"orderId,omitempty"`
	OrderNumber     string             `json:"orderNumber,omitempty"`
	UserID          string             `json:"userId"`
	Status          models.OrderStatus `json:"status,omitempty"`
	Total           float64            `json:"total"`
	PaymentIntentID string             `json:"paymentIntentId"`
	Items           []models.OrderItem `json:"items,omitempty"`
	ContactEmail    string             `json:"contactEmail,omitempty"`
	ContactPhone    string             `json:"contactPhone,omitempty"`
	Error           string             `json:"error,omitempty"`
}

// verifyPayment checks that the intent was paid in full. It returns the
// HTTP status and message to answer with when it was not.
func (h *OrderHandler) verifyPayment(ctx context.Context, intentID string, totals checkout.Totals) (int, string) {
	if h.Payments == nil {
		return 0, ""
	}
	intent, err := h.Payments.GetIntent(ctx, intentID)
	if err != nil {
		if errors.Is(err, payment.ErrProcessor) {
			return http.StatusBadGateway, "Payment processor unavailable"
		}
		return http.StatusPaymentRequired, "Payment could not be verified"
	}
	if !intent.Succeeded() {
		return http.StatusPaymentRequired, "Payment has not succeeded"
	}
	want, err := payment.ToMinorUnits(totals.TotalAmount())
	if err != nil || intent.Amount != want {
		return http.StatusPaymentRequired, "Payment amount does not match order total"
	}
	return 0, ""
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	ctx := c.Request.Context()
	log := requestLogger(c)
	id := middleware.GetIdentity(c)

	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, utils.SanitizeValidationError(err))
		return
	}

	lines := make([]checkout.Line, len(req.Items))
	for i, it := range req.Items {
		lines[i] = checkout.Line{Price: it.Price, Quantity: it.Quantity}
	}
	totals := checkout.ComputeTotals(lines)
	claimed := checkout.Totals{Subtotal: req.Subtotal, Shipping: req.Shipping, Tax: req.Tax, Total: req.Total}
	if !totals.Matches(claimed) {
		log.WarnContext(ctx, "client totals differ from server totals",
			"client_total", req.Total, "server_total", totals.Total, "payment_intent_id", req.PaymentIntentID)
	}

	if status, msg := h.verifyPayment(ctx, req.PaymentIntentID, totals); status != 0 {
		log.WarnContext(ctx, "order rejected by payment check", "payment_intent_id", req.PaymentIntentID, "reason", msg)
		respondError(c, status, msg)
		return
	}

	items := make([]models.OrderItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = models.OrderItem{
			ProductID: it.ProductID,
			Title:     it.Title,
			Price:     it.Price,
			Quantity:  it.Quantity,
			ImageURL:  it.ImageURL,
		}
	}
	order := &models.Order{
		UserID:          id.UserID,
		UserEmail:       id.Email,
		Subtotal:        totals.Subtotal,
		Shipping:        totals.Shipping,
		Tax:             totals.Tax,
		Total:           totals.Total,
		PaymentIntentID: req.PaymentIntentID,
		ShippingAddress: req.ShippingAddress,
		Items:           items,
	}

	saved, created, err := h.Orders.CreateOrder(ctx, order)
	if errors.Is(err, store.ErrEmptyOrder) || errors.Is(err, store.ErrInvalidLine) {
		respondStoreError(c, err)
		return
	}
	if errors.Is(err, store.ErrIntentInUse) {
		log.WarnContext(ctx, "payment intent reused by another user",
			"user_id", id.UserID, "payment_intent_id", req.PaymentIntentID)
		respondStoreError(c, err)
		return
	}
	if err != nil {
		// the payment has been taken, so the order must be reconciled by hand
		log.ErrorContext(ctx, "order persistence failed after payment",
			"user_id", id.UserID, "payment_intent_id", req.PaymentIntentID, "total", totals.Total, "error", err)
		payload := orderEventPayload{
			UserID:          id.UserID,
			Total:           totals.Total,
			PaymentIntentID: req.PaymentIntentID,
			Items:           items,
			ContactEmail:    id.Email,
			Error:           err.Error(),
		}
		if addr := req.ShippingAddress; addr != nil {
			payload.ContactPhone = checkout.FullPhone(*addr)
			if addr.Email != "" {
				payload.ContactEmail = addr.Email
			}
		}
		publish(ctx, h.Events, events.OrderPersistenceFailed, req.PaymentIntentID, payload)
		respondError(c, http.StatusInternalServerError, "Failed to create order")
		return
	}

	if !created {
		c.JSON(http.StatusOK, gin.H{"success": true, "order": saved, "orderNumber": saved.OrderNumber})
		return
	}

	publish(ctx, h.Events, events.OrderCreated, saved.OrderNumber, orderEventPayload{
		OrderID:         saved.ID,
		OrderNumber:     saved.OrderNumber,
		UserID:          saved.UserID,
		Status:          saved.Status,
		Total:           saved.Total,
		PaymentIntentID: saved.PaymentIntentID,
	})
	h.Mailer.SendOrderConfirmation(saved)
	log.InfoContext(ctx, "order created", "order_number", saved.OrderNumber, "total", saved.Total)

	c.JSON(http.StatusCreated, gin.H{"success": true, "order": saved, "orderNumber": saved.OrderNumber})
}

func (h *OrderHandler) GetOrders(c *gin.Context) {
	id := middleware.GetIdentity(c)
	orders, err := h.Orders.ListForUser(c.Request.Context(), id.UserID)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "orders": orders})
}

func parseOrderID(c *gin.Context) (uint, bool) {
	n, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || n == 0 {
		respondError(c, http.StatusBadRequest, "Invalid order ID")
		return 0, false
	}
	return uint(n), true
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}
	id := middleware.GetIdentity(c)
	order, err := h.Orders.GetForUser(c.Request.Context(), id.UserID, orderID)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
}

// GetAllOrders is the admin listing, optionally filtered with ?status=.
func (h *OrderHandler) GetAllOrders(c *gin.Context) {
	status := models.OrderStatus(c.Query("status"))
	if status != "" && !models.IsValidStatus(status) {
		respondStoreError(c, store.ErrInvalidStatus)
		return
	}
	orders, err := h.Orders.ListAll(c.Request.Context(), status)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "orders": orders})
}

// UpdateOrderStatus lets an admin set any of the known statuses, in any order.
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	ctx := c.Request.Context()
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	var req struct {
		Status models.OrderStatus `json:"status" binding:"required,oneof=processing shipping delivered"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, utils.SanitizeValidationError(err))
		return
	}

	order, err := h.Orders.UpdateStatus(ctx, orderID, req.Status)
	if err != nil {
		respondStoreError(c, err)
		return
	}

	publish(ctx, h.Events, events.OrderStatusChanged, order.OrderNumber, orderEventPayload{
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		UserID:          order.UserID,
		Status:          order.Status,
		Total:           order.Total,
		PaymentIntentID: order.PaymentIntentID,
	})
	h.Mailer.SendOrderStatusUpdate(order)
	requestLogger(c).InfoContext(ctx, "order status updated",
		"order_number", order.OrderNumber, "status", order.Status, "admin_id", middleware.GetIdentity(c).UserID)

	c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
}
