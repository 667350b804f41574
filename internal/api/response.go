package api

import (
	"errors"
	"net/http"

	"storefront-api/internal/auth"
	"storefront-api/internal/models"
	"storefront-api/internal/service"

	"github.com/gin-gonic/gin"
)

// Envelope is the uniform response shape.
type Envelope struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Pagination describes a listing page.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// NewPagination computes the page count for a listing.
func NewPagination(page, limit, total int) *Pagination {
	pages := total / limit
	if total%limit != 0 {
		pages++
	}
	return &Pagination{Page: page, Limit: limit, Total: total, TotalPages: pages}
}

func respondOK(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

func respondCreated(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Message: message, Data: data})
}

func respondPage(c *gin.Context, message string, data interface{}, p *Pagination) {
	c.JSON(http.StatusOK, Envelope{Success: true, Message: message, Data: data, Pagination: p})
}

func respondFail(c *gin.Context, status int, message string) {
	c.JSON(status, Envelope{Success: false, Message: message, Data: nil})
}

// respondError maps domain errors to HTTP statuses.
func respondError(c *gin.Context, err error) {
	var stockErr *models.InsufficientStockError
	switch {
	case errors.Is(err, models.ErrNotFound):
		respondFail(c, http.StatusNotFound, "not found")
	case errors.Is(err, models.ErrInvalidCredentials):
		respondFail(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrExpiredToken), errors.Is(err, auth.ErrInvalidToken):
		respondFail(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, models.ErrForbidden):
		respondFail(c, http.StatusForbidden, err.Error())
	case errors.Is(err, models.ErrDuplicateEmail), errors.Is(err, models.ErrDuplicatePhone):
		respondFail(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, models.ErrCartEmpty),
		errors.Is(err, models.ErrInvalidOTP),
		errors.Is(err, models.ErrOrderNotCancellable),
		errors.Is(err, models.ErrInvalidTransition):
		respondFail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrTooManyRequests):
		respondFail(c, http.StatusTooManyRequests, err.Error())
	case errors.As(err, &stockErr):
		respondFail(c, http.StatusUnprocessableEntity, err.Error())
	default:
		respondFail(c, http.StatusInternalServerError, "internal server error")
	}
}
