package api

import (
	"net/http"

	"storefront-api/internal/service"

	"github.com/gin-gonic/gin"
)

// listCart returns the caller's cart items
func (h *Handler) listCart(c *gin.Context) {
	items, err := h.cart.List(c.Request.Context(), callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "cart retrieved", items)
}

// cartSummary returns priced totals for the caller's cart
func (h *Handler) cartSummary(c *gin.Context) {
	totals, err := h.cart.Summary(c.Request.Context(), callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "cart summary retrieved", totals)
}

// addToCart adds a product variant to the caller's cart
func (h *Handler) addToCart(c *gin.Context) {
	var req service.AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.cart.Add(c.Request.Context(), callerID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondCreated(c, "item added to cart", item)
}

// updateCartItem changes the quantity of a cart line
func (h *Handler) updateCartItem(c *gin.Context) {
	itemID, err := paramID(c, "itemId")
	if err != nil {
		respondFail(c, http.StatusBadRequest, "invalid cart item id")
		return
	}

	var req service.UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.cart.Update(c.Request.Context(), callerID(c), itemID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "cart item updated", item)
}

// removeCartItem deletes a single cart line
func (h *Handler) removeCartItem(c *gin.Context) {
	itemID, err := paramID(c, "itemId")
	if err != nil {
		respondFail(c, http.StatusBadRequest, "invalid cart item id")
		return
	}

	if err := h.cart.Remove(c.Request.Context(), callerID(c), itemID); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "cart item removed", nil)
}

// clearCart empties the caller's cart
func (h *Handler) clearCart(c *gin.Context) {
	if err := h.cart.Clear(c.Request.Context(), callerID(c)); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "cart cleared", nil)
}
