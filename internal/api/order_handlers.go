package api

import (
	"net/http"

	"storefront-api/internal/service"
	"storefront-api/internal/store"

	"github.com/gin-gonic/gin"
)

// placeOrder converts the caller's cart into an order
func (h *Handler) placeOrder(c *gin.Context) {
	var req service.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.orders.PlaceOrder(c.Request.Context(), callerID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondCreated(c, "order placed", order)
}

// listOrders returns the caller's order history
func (h *Handler) listOrders(c *gin.Context) {
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 20)

	orders, total, err := h.orders.ListOrders(c.Request.Context(), callerID(c), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	respondPage(c, "orders retrieved", orders, NewPagination(page, limit, total))
}

// getOrder returns a single order by id
func (h *Handler) getOrder(c *gin.Context) {
	orderID, err := paramID(c, "orderId")
	if err != nil {
		respondFail(c, http.StatusBadRequest, "invalid order id")
		return
	}

	claims, _ := ClaimsFromContext(c)
	order, err := h.orders.GetOrder(c.Request.Context(), orderID, claims.UserID, claims.IsAdmin)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "order retrieved", order)
}

// getOrderByNumber returns a single order by its human readable number
func (h *Handler) getOrderByNumber(c *gin.Context) {
	claims, _ := ClaimsFromContext(c)
	order, err := h.orders.GetOrderByNumber(c.Request.Context(), c.Param("orderNumber"), claims.UserID, claims.IsAdmin)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "order retrieved", order)
}

// cancelOrder cancels a pending or confirmed order and restores stock
func (h *Handler) cancelOrder(c *gin.Context) {
	orderID, err := paramID(c, "orderId")
	if err != nil {
		respondFail(c, http.StatusBadRequest, "invalid order id")
		return
	}

	order, err := h.orders.CancelOrder(c.Request.Context(), orderID, callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "order cancelled", order)
}

// listAllOrders returns every order, optionally filtered by status
func (h *Handler) listAllOrders(c *gin.Context) {
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 20)

	orders, total, err := h.orders.ListAllOrders(c.Request.Context(), c.Query("status"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	respondPage(c, "orders retrieved", orders, NewPagination(page, limit, total))
}

type statusUpdateRequest struct {
	Status         string `json:"status" binding:"required"`
	TrackingNumber string `json:"trackingNumber"`
	Notes          string `json:"notes"`
}

// updateOrderStatus moves an order along its fulfillment lifecycle
func (h *Handler) updateOrderStatus(c *gin.Context) {
	orderID, err := paramID(c, "orderId")
	if err != nil {
		respondFail(c, http.StatusBadRequest, "invalid order id")
		return
	}

	var req statusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.orders.UpdateStatus(c.Request.Context(), orderID, store.StatusUpdate{
		Status:         req.Status,
		TrackingNumber: req.TrackingNumber,
		Notes:          req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "order status updated", order)
}
