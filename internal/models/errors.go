package models

import (
	"errors"
	"fmt"
)

// Domain errors shared by the store and service layers. The API layer maps
// them to HTTP statuses.
var (
	ErrNotFound           = errors.New("record not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrDuplicatePhone     = errors.New("phone number already registered")
	ErrForbidden          = errors.New("not allowed")
	ErrCartEmpty          = errors.New("cart is empty")
	ErrInvalidOTP         = errors.New("invalid or expired OTP")
	ErrOrderNotCancellable = errors.New("order can no longer be cancelled")
	ErrInvalidTransition  = errors.New("status transition not allowed")
	ErrTooManyRequests    = errors.New("too many requests, try again later")
)

// InsufficientStockError names the product that could not cover the
// requested quantity.
type InsufficientStockError struct {
	ProductID int64
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested=%d, available=%d",
		e.ProductID, e.Requested, e.Available)
}
