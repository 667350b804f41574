package service

import (
	"context"
	"fmt"

	"storefront-api/internal/models"
	"storefront-api/internal/util"

	"go.uber.org/zap"
)

// CartStore is the persistence surface the cart needs.
type CartStore interface {
	CartItemsByUser(ctx context.Context, userID int64) ([]models.CartItem, error)
	GetCartItem(ctx context.Context, itemID, userID int64) (*models.CartItem, error)
	AddCartItem(ctx context.Context, item *models.CartItem) error
	UpdateCartItem(ctx context.Context, itemID, userID int64, quantity int, attrs models.AttrMap) error
	DeleteCartItem(ctx context.Context, itemID, userID int64) error
	ClearCart(ctx context.Context, userID int64) error
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
}

// CartService handles per-user cart lines
type CartService struct {
	store  CartStore
	logger *zap.Logger
}

// NewCartService creates a new cart service
func NewCartService(store CartStore) *CartService {
	return &CartService{store: store, logger: util.GetLogger()}
}

// AddToCartRequest adds a product/variant line to the caller's cart.
type AddToCartRequest struct {
	ProductID     int64          `json:"productId" binding:"required"`
	Quantity      int            `json:"quantity" binding:"required,min=1"`
	Size          string         `json:"size,omitempty"`
	Color         string         `json:"color,omitempty"`
	SelectedAttrs models.AttrMap `json:"selectedAttributes,omitempty"`
}

// UpdateCartItemRequest changes a line's quantity or variant attributes.
type UpdateCartItemRequest struct {
	Quantity      int            `json:"quantity" binding:"required,min=1"`
	SelectedAttrs models.AttrMap `json:"selectedAttributes,omitempty"`
}

// Add snapshots the current effective price (salePrice override included)
// onto a new cart line, or bumps the quantity of an existing
// (product, size, color) line.
func (s *CartService) Add(ctx context.Context, userID int64, req *AddToCartRequest) (*models.CartItem, error) {
	product, err := s.store.GetProductByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if product.StockQuantity < req.Quantity {
		return nil, &models.InsufficientStockError{
			ProductID: product.ID,
			Requested: req.Quantity,
			Available: product.StockQuantity,
		}
	}

	price, original := snapshotPrice(product)
	item := &models.CartItem{
		UserID:        userID,
		ProductID:     req.ProductID,
		Quantity:      req.Quantity,
		Size:          req.Size,
		Color:         req.Color,
		Price:         price,
		OriginalPrice: original,
		SelectedAttrs: req.SelectedAttrs,
	}
	if err := s.store.AddCartItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to add cart item: %w", err)
	}

	item.ProductTitle = product.Title
	return item, nil
}

// List returns the caller's cart lines with product info joined in.
func (s *CartService) List(ctx context.Context, userID int64) ([]models.CartItem, error) {
	return s.store.CartItemsByUser(ctx, userID)
}

// Summary prices the cart with the same rules order placement uses.
func (s *CartService) Summary(ctx context.Context, userID int64) (CartTotals, error) {
	items, err := s.store.CartItemsByUser(ctx, userID)
	if err != nil {
		return CartTotals{}, err
	}
	totals, _ := PriceCart(items)
	return totals, nil
}

// Update changes quantity/attributes on a line the caller owns.
func (s *CartService) Update(ctx context.Context, userID, itemID int64, req *UpdateCartItemRequest) (*models.CartItem, error) {
	item, err := s.store.GetCartItem(ctx, itemID, userID)
	if err != nil {
		return nil, err
	}

	product, err := s.store.GetProductByID(ctx, item.ProductID)
	if err != nil {
		return nil, err
	}
	if product.StockQuantity < req.Quantity {
		return nil, &models.InsufficientStockError{
			ProductID: product.ID,
			Requested: req.Quantity,
			Available: product.StockQuantity,
		}
	}

	attrs := req.SelectedAttrs
	if attrs == nil {
		attrs = item.SelectedAttrs
	}
	if err := s.store.UpdateCartItem(ctx, itemID, userID, req.Quantity, attrs); err != nil {
		return nil, err
	}

	item.Quantity = req.Quantity
	item.SelectedAttrs = attrs
	return item, nil
}

// Remove deletes one line the caller owns.
func (s *CartService) Remove(ctx context.Context, userID, itemID int64) error {
	return s.store.DeleteCartItem(ctx, itemID, userID)
}

// Clear empties the caller's cart.
func (s *CartService) Clear(ctx context.Context, userID int64) error {
	return s.store.ClearCart(ctx, userID)
}
