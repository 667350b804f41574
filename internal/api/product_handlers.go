package api

import (
	"net/http"
	"strconv"

	"storefront-api/internal/service"
	"storefront-api/internal/store"

	"github.com/gin-gonic/gin"
)

// listProducts returns a filtered, paginated catalog page
func (h *Handler) listProducts(c *gin.Context) {
	filter := store.ProductFilter{
		Category:    c.Query("category"),
		SubCategory: c.Query("subCategory"),
		Search:      c.Query("search"),
		Sort:        c.Query("sort"),
		InStock:     c.Query("inStock") == "true",
		Page:        queryInt(c, "page", 1),
		Limit:       queryInt(c, "limit", 20),
	}
	if v, err := strconv.ParseFloat(c.Query("minPrice"), 64); err == nil {
		filter.MinPrice = &v
	}
	if v, err := strconv.ParseFloat(c.Query("maxPrice"), 64); err == nil {
		filter.MaxPrice = &v
	}

	products, total, err := h.catalog.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	respondPage(c, "products retrieved", products, NewPagination(filter.Page, filter.Limit, total))
}

// allProducts returns the full catalog without pagination
func (h *Handler) allProducts(c *gin.Context) {
	products, err := h.catalog.All(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "products retrieved", products)
}

// productSections returns per-category storefront sections
func (h *Handler) productSections(c *gin.Context) {
	sections, err := h.catalog.Sections(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "sections retrieved", sections)
}

// topPicks returns the best selling products
func (h *Handler) topPicks(c *gin.Context) {
	products, err := h.catalog.TopPicks(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "top picks retrieved", products)
}

// suggest returns title suggestions for a search prefix
func (h *Handler) suggest(c *gin.Context) {
	var userID int64
	if claims, ok := ClaimsFromContext(c); ok {
		userID = claims.UserID
	}

	suggestions, err := h.catalog.Suggest(c.Request.Context(), c.Query("q"), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "suggestions retrieved", suggestions)
}

// getProduct returns a single product by id
func (h *Handler) getProduct(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		respondFail(c, http.StatusBadRequest, "invalid product id")
		return
	}

	product, err := h.catalog.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "product retrieved", product)
}

// createProduct adds a product to the catalog
func (h *Handler) createProduct(c *gin.Context) {
	var req service.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.catalog.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondCreated(c, "product created", product)
}

// updateProduct replaces a product's editable fields
func (h *Handler) updateProduct(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		respondFail(c, http.StatusBadRequest, "invalid product id")
		return
	}

	var req service.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.catalog.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "product updated", product)
}

// deleteProduct removes a product and its reviews
func (h *Handler) deleteProduct(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		respondFail(c, http.StatusBadRequest, "invalid product id")
		return
	}

	if err := h.catalog.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "product deleted", nil)
}

// listReviews returns all reviews for a product
func (h *Handler) listReviews(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		respondFail(c, http.StatusBadRequest, "invalid product id")
		return
	}

	reviews, err := h.reviews.List(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "reviews retrieved", reviews)
}

// submitReview creates or replaces the caller's review for a product
func (h *Handler) submitReview(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		respondFail(c, http.StatusBadRequest, "invalid product id")
		return
	}

	var req service.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	review, err := h.reviews.Submit(c.Request.Context(), id, callerID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondCreated(c, "review submitted", review)
}

// updateReview edits an existing review
func (h *Handler) updateReview(c *gin.Context) {
	reviewID, err := paramID(c, "reviewId")
	if err != nil {
		respondFail(c, http.StatusBadRequest, "invalid review id")
		return
	}

	var req service.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	claims, _ := ClaimsFromContext(c)
	review, err := h.reviews.Update(c.Request.Context(), reviewID, claims.UserID, claims.IsAdmin, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "review updated", review)
}

// deleteReview removes a review
func (h *Handler) deleteReview(c *gin.Context) {
	reviewID, err := paramID(c, "reviewId")
	if err != nil {
		respondFail(c, http.StatusBadRequest, "invalid review id")
		return
	}

	claims, _ := ClaimsFromContext(c)
	if err := h.reviews.Delete(c.Request.Context(), reviewID, claims.UserID, claims.IsAdmin); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "review deleted", nil)
}

// paramID parses a positive integer path parameter
func paramID(c *gin.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}

// queryInt parses an integer query parameter with a default
func queryInt(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
