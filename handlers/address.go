package handlers

import (
	"net/http"

	"storefront/middleware"
	"storefront/models"
	"storefront/store"
	"storefront/utils"

	"github.com/gin-gonic/gin"
)

// AddressHandler keeps one saved shipping address per user so checkout can
// be prefilled.
type AddressHandler struct {
	Orders *store.OrderStore
}

func (h *AddressHandler) GetAddress(c *gin.Context) {
	id := middleware.GetIdentity(c)
	addr, err := h.Orders.GetAddress(c.Request.Context(), id.UserID)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "address": addr.Shipping()})
}

func (h *AddressHandler) SaveAddress(c *gin.Context) {
	var req models.ShippingAddress
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, utils.SanitizeValidationError(err))
		return
	}

	id := middleware.GetIdentity(c)
	addr, err := h.Orders.UpsertAddress(c.Request.Context(), id.UserID, req)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "address": addr.Shipping()})
}
