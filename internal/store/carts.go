package store

import (
	"context"
	"database/sql"

	"storefront-api/internal/models"
)

// CartItemsByUser returns the user's cart lines with product title/image
// joined in, oldest first.
func (s *Store) CartItemsByUser(ctx context.Context, userID int64) ([]models.CartItem, error) {
	var items []models.CartItem
	err := s.db.SelectContext(ctx, &items, `
		SELECT ci.*, p.title AS product_title, p.images[1] AS product_image
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id = $1
		ORDER BY ci.created_at`, userID)
	return items, err
}

// GetCartItem retrieves one cart line owned by the user.
func (s *Store) GetCartItem(ctx context.Context, itemID, userID int64) (*models.CartItem, error) {
	var item models.CartItem
	err := s.db.GetContext(ctx, &item,
		"SELECT * FROM cart_items WHERE id = $1 AND user_id = $2", itemID, userID)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// AddCartItem adds a line to the cart. Re-adding the same
// (product, size, color) combination increments quantity instead of
// duplicating the line; the original price snapshot is kept.
func (s *Store) AddCartItem(ctx context.Context, item *models.CartItem) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var existingID int64
	err = tx.GetContext(ctx, &existingID, `
		SELECT id FROM cart_items
		WHERE user_id = $1 AND product_id = $2 AND size = $3 AND color = $4
		FOR UPDATE`,
		item.UserID, item.ProductID, item.Size, item.Color)
	switch err {
	case nil:
		item.ID = existingID
		err = tx.QueryRowxContext(ctx, `
			UPDATE cart_items SET quantity = quantity + $1, updated_at = NOW()
			WHERE id = $2
			RETURNING quantity, price, original_price, created_at, updated_at`,
			item.Quantity, existingID,
		).Scan(&item.Quantity, &item.Price, &item.OriginalPrice, &item.CreatedAt, &item.UpdatedAt)
	case sql.ErrNoRows:
		err = tx.QueryRowxContext(ctx, `
			INSERT INTO cart_items (user_id, product_id, quantity, size, color, price, original_price, selected_attributes)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id, created_at, updated_at`,
			item.UserID, item.ProductID, item.Quantity, item.Size, item.Color,
			item.Price, item.OriginalPrice, item.SelectedAttrs,
		).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	default:
		return err
	}
	if err != nil {
		return err
	}
	return tx.Commit()
}

// UpdateCartItem changes quantity and selected attributes on a line the user
// owns.
func (s *Store) UpdateCartItem(ctx context.Context, itemID, userID int64, quantity int, attrs models.AttrMap) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE cart_items SET quantity = $1, selected_attributes = $2, updated_at = NOW()
		WHERE id = $3 AND user_id = $4`,
		quantity, attrs, itemID, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// DeleteCartItem removes one line the user owns.
func (s *Store) DeleteCartItem(ctx context.Context, itemID, userID int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM cart_items WHERE id = $1 AND user_id = $2", itemID, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ClearCart removes all of the user's cart lines.
func (s *Store) ClearCart(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM cart_items WHERE user_id = $1", userID)
	return err
}
