package handlers

import (
	"net/http"
	"strconv"

	"storefront/store"

	"github.com/gin-gonic/gin"
)

type ProductHandler struct {
	Products *store.ProductStore
}

func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return n
}

// GetProducts lists the catalog newest first. Supports ?q=, ?limit= and ?offset=.
func (h *ProductHandler) GetProducts(c *gin.Context) {
	q := store.ProductQuery{
		Search: c.Query("q"),
		Limit:  queryInt(c, "limit"),
		Offset: queryInt(c, "offset"),
	}
	products, total, err := h.Products.List(c.Request.Context(), q)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "products": products, "total": total})
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, http.StatusBadRequest, "Invalid product ID")
		return
	}
	product, err := h.Products.Get(c.Request.Context(), uint(id))
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "product": product})
}
