package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"storefront/cache"
	"storefront/checkout"
	"storefront/events"
	"storefront/logging"
	"storefront/middleware"
	"storefront/store"
	"storefront/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/singleflight"
)

type CartHandler struct {
	Carts  *store.CartStore
	Cache  cache.CartCache
	Events events.Publisher

	reads singleflight.Group
}

func NewCartHandler(carts *store.CartStore, c cache.CartCache, pub events.Publisher) *CartHandler {
	if c == nil {
		c = cache.NoopCache{}
	}
	if pub == nil {
		pub = events.LogPublisher{}
	}
	return &CartHandler{Carts: carts, Cache: c, Events: pub}
}

type cartResponse struct {
	Success   bool             `json:"success"`
	Items     []store.CartLine `json:"items"`
	CartCount int              `json:"cartCount"`
	checkout.Totals
}

func newCartResponse(lines []store.CartLine) cartResponse {
	if lines == nil {
		lines = []store.CartLine{}
	}
	return cartResponse{
		Success:   true,
		Items:     lines,
		CartCount: store.CartCount(lines),
		Totals:    checkout.ComputeTotals(checkout.LinesFromCart(lines)),
	}
}

// lines reads a cart through the cache. The cache holds which products are
// in the cart and how many; product data is always joined fresh. Concurrent
// misses for the same cart share one database read, which is detached from
// the first caller's cancellation.
func (h *CartHandler) lines(ctx context.Context, cartID uint) ([]store.CartLine, error) {
	log := logging.FromContext(ctx)

	cached, err := h.Cache.Get(ctx, cartID)
	if err == nil {
		return h.Carts.PriceLines(ctx, cached)
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		log.WarnContext(ctx, "cart cache read failed", "cart_id", cartID, "error", err)
	}

	v, err, _ := h.reads.Do(strconv.FormatUint(uint64(cartID), 10), func() (interface{}, error) {
		shared := context.WithoutCancel(ctx)
		lines, err := h.Carts.ListItems(shared, cartID)
		if err != nil {
			return nil, err
		}
		if err := h.Cache.Set(shared, cartID, lines); err != nil {
			log.WarnContext(ctx, "cart cache write failed", "cart_id", cartID, "error", err)
		}
		return lines, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]store.CartLine), nil
}

func (h *CartHandler) invalidate(ctx context.Context, cartIDs ...uint) {
	for _, id := range cartIDs {
		if err := h.Cache.Delete(context.WithoutCancel(ctx), id); err != nil {
			logging.FromContext(ctx).WarnContext(ctx, "cart cache invalidation failed", "cart_id", id, "error", err)
		}
	}
}

// GetCart never creates a cart: callers without one get an empty body.
func (h *CartHandler) GetCart(c *gin.Context) {
	ctx := c.Request.Context()
	id := middleware.GetIdentity(c)
	if id.Kind() == store.IdentityNone {
		c.JSON(http.StatusOK, newCartResponse(nil))
		return
	}

	cart, err := h.Carts.FindCart(ctx, id)
	if errors.Is(err, store.ErrCartNotFound) {
		c.JSON(http.StatusOK, newCartResponse(nil))
		return
	}
	if err != nil {
		respondStoreError(c, err)
		return
	}

	lines, err := h.lines(ctx, cart.ID)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCartResponse(lines))
}

func (h *CartHandler) AddToCart(c *gin.Context) {
	ctx := c.Request.Context()
	id := middleware.GetIdentity(c)
	if id.Kind() == store.IdentityNone {
		respondStoreError(c, store.ErrIdentityRequired)
		return
	}

	var req struct {
		ProductID uint `json:"productId" binding:"required"`
		Quantity  int  `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, utils.SanitizeValidationError(err))
		return
	}
	if req.Quantity < 1 {
		respondStoreError(c, store.ErrInvalidQuantity)
		return
	}

	cart, err := h.Carts.GetOrCreateCart(ctx, id)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	item, err := h.Carts.AddItem(ctx, cart.ID, req.ProductID, req.Quantity)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	h.invalidate(ctx, cart.ID)

	c.JSON(http.StatusCreated, gin.H{"success": true, "item": item})
}

func (h *CartHandler) UpdateCartItem(c *gin.Context) {
	ctx := c.Request.Context()
	id := middleware.GetIdentity(c)
	if id.Kind() == store.IdentityNone {
		respondStoreError(c, store.ErrIdentityRequired)
		return
	}

	var req struct {
		ItemID           uint `json:"itemId" binding:"required"`
		Quantity         int  `json:"quantity"`
		ExpectedQuantity *int `json:"expectedQuantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, utils.SanitizeValidationError(err))
		return
	}
	if req.Quantity < 1 {
		respondStoreError(c, store.ErrInvalidQuantity)
		return
	}

	cart, err := h.Carts.FindCart(ctx, id)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	item, err := h.Carts.SetItemQuantity(ctx, cart.ID, req.ItemID, req.Quantity, req.ExpectedQuantity)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	h.invalidate(ctx, cart.ID)

	c.JSON(http.StatusOK, gin.H{"success": true, "item": item})
}

// DeleteCartItem removes one item (?itemId=) or empties the cart (?clear=true).
func (h *CartHandler) DeleteCartItem(c *gin.Context) {
	ctx := c.Request.Context()
	id := middleware.GetIdentity(c)
	if id.Kind() == store.IdentityNone {
		respondStoreError(c, store.ErrIdentityRequired)
		return
	}

	clearAll := c.Query("clear") == "true"
	var itemID uint64
	if !clearAll {
		var err error
		itemID, err = strconv.ParseUint(c.Query("itemId"), 10, 64)
		if err != nil || itemID == 0 {
			respondError(c, http.StatusBadRequest, "itemId or clear=true is required")
			return
		}
	}

	cart, err := h.Carts.FindCart(ctx, id)
	if errors.Is(err, store.ErrCartNotFound) && clearAll {
		c.JSON(http.StatusOK, gin.H{"success": true})
		return
	}
	if err != nil {
		respondStoreError(c, err)
		return
	}

	if clearAll {
		err = h.Carts.ClearCart(ctx, cart.ID)
	} else {
		err = h.Carts.RemoveItem(ctx, cart.ID, uint(itemID))
	}
	if err != nil {
		respondStoreError(c, err)
		return
	}
	h.invalidate(ctx, cart.ID)

	c.JSON(http.StatusOK, gin.H{"success": true})
}

type cartMergedPayload struct {
	UserID      string `json:"userId"`
	CartID      uint   `json:"cartId"`
	MergedCount int    `json:"mergedCount"`
}

// MergeCart folds the guest cart of sessionId into the signed-in user's cart.
func (h *CartHandler) MergeCart(c *gin.Context) {
	ctx := c.Request.Context()
	id := middleware.GetIdentity(c)
	if id.Kind() != store.IdentityAuthenticated {
		respondError(c, http.StatusUnauthorized, "Sign-in required")
		return
	}

	var req struct {
		SessionID string `json:"sessionId" binding:"required,uuid"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, utils.SanitizeValidationError(err))
		return
	}

	guest := store.Identity{SessionID: req.SessionID}
	var stale []uint
	if anon, err := h.Carts.FindCart(ctx, guest); err == nil {
		stale = append(stale, anon.ID)
	}

	n, err := h.Carts.MergeCarts(ctx, req.SessionID, id.UserID)
	if err != nil {
		respondStoreError(c, err)
		return
	}

	if n > 0 {
		userCart, err := h.Carts.FindCart(ctx, store.Identity{UserID: id.UserID})
		if err == nil {
			stale = append(stale, userCart.ID)
			h.publish(ctx, events.CartMerged, strconv.FormatUint(uint64(userCart.ID), 10), cartMergedPayload{
				UserID: id.UserID, CartID: userCart.ID, MergedCount: n,
			})
		}
	}
	h.invalidate(ctx, stale...)

	logging.FromContext(ctx).InfoContext(ctx, "guest cart merged", "user_id", id.UserID, "merged", n)
	c.JSON(http.StatusOK, gin.H{"success": true, "mergedCount": n})
}

func (h *CartHandler) publish(ctx context.Context, eventType, key string, payload any) {
	publish(ctx, h.Events, eventType, key, payload)
}

// publish never fails the request; a lost event is only logged.
func publish(ctx context.Context, pub events.Publisher, eventType, key string, payload any) {
	log := logging.FromContext(ctx)
	e, err := events.New(eventType, key, payload)
	if err != nil {
		log.ErrorContext(ctx, "encoding event failed", "type", eventType, "error", err)
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := pub.Publish(pctx, e); err != nil {
		log.ErrorContext(ctx, "publishing event failed", "type", eventType, "key", key, "error", err)
	}
}
