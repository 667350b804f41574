package store

import (
	"context"
	"database/sql"
	"fmt"

	"storefront-api/internal/models"
)

const insertOrderSQL = `
	INSERT INTO orders (user_id, order_number, subtotal, shipping_fee, tax_amount,
	                    discount_amount, total_amount, status, payment_method, payment_status,
	                    shipping_address, billing_address, estimated_delivery, notes)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	RETURNING id, created_at, updated_at`

// PlaceOrder converts a cart into an order in a single transaction: product
// rows are locked, stock is checked per line, the order and its lines are
// inserted, stock/sold counters are moved, and the cart is cleared. Any
// failure rolls the whole sequence back.
func (s *Store) PlaceOrder(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Lock every product row up front so a concurrent placement cannot
	// oversell between the check and the decrement.
	for i := range items {
		var stock int
		err := tx.GetContext(ctx, &stock,
			"SELECT stock_quantity FROM products WHERE id = $1 FOR UPDATE", items[i].ProductID)
		if err == sql.ErrNoRows {
			return models.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock product %d: %w", items[i].ProductID, err)
		}
		if stock < items[i].Quantity {
			return &models.InsufficientStockError{
				ProductID: items[i].ProductID,
				Requested: items[i].Quantity,
				Available: stock,
			}
		}
	}

	err = tx.QueryRowxContext(ctx, insertOrderSQL,
		order.UserID, order.OrderNumber, order.Subtotal, order.ShippingFee, order.TaxAmount,
		order.DiscountAmount, order.TotalAmount, order.Status, order.PaymentMethod, order.PaymentStatus,
		order.ShippingAddress, order.BillingAddress, order.EstimatedDelivery, order.Notes,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "orders_order_number_key") {
			return fmt.Errorf("duplicate order number %s: %w", order.OrderNumber, err)
		}
		return fmt.Errorf("failed to create order: %w", err)
	}

	for i := range items {
		items[i].OrderID = order.ID
		err := tx.QueryRowxContext(ctx, `
			INSERT INTO order_items (order_id, product_id, quantity, price, original_price,
			                         size, color, selected_attributes, subtotal, tax_amount,
			                         discount_amount, total_amount)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING id`,
			items[i].OrderID, items[i].ProductID, items[i].Quantity, items[i].Price,
			items[i].OriginalPrice, items[i].Size, items[i].Color, items[i].SelectedAttrs,
			items[i].Subtotal, items[i].TaxAmount, items[i].DiscountAmount, items[i].TotalAmount,
		).Scan(&items[i].ID)
		if err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE products
			SET stock_quantity = stock_quantity - $1, sold_count = sold_count + $1, updated_at = NOW()
			WHERE id = $2`,
			items[i].Quantity, items[i].ProductID)
		if err != nil {
			return fmt.Errorf("failed to decrement stock: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM cart_items WHERE user_id = $1", order.UserID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	order.Items = items
	return nil
}

// CancelOrder cancels an order the user owns, restoring the stock and sold
// counters moved at placement. Only Pending and Confirmed orders may be
// cancelled. The whole sequence runs in one transaction.
func (s *Store) CancelOrder(ctx context.Context, orderID, userID int64) (*models.Order, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var order models.Order
	err = tx.GetContext(ctx, &order,
		"SELECT * FROM orders WHERE id = $1 FOR UPDATE", orderID)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, models.ErrForbidden
	}
	if order.Status != models.OrderStatusPending && order.Status != models.OrderStatusConfirmed {
		return nil, models.ErrOrderNotCancellable
	}

	var items []models.OrderItem
	if err := tx.SelectContext(ctx, &items,
		"SELECT * FROM order_items WHERE order_id = $1", orderID); err != nil {
		return nil, err
	}

	for _, item := range items {
		_, err := tx.ExecContext(ctx, `
			UPDATE products
			SET stock_quantity = stock_quantity + $1, sold_count = sold_count - $1, updated_at = NOW()
			WHERE id = $2`,
			item.Quantity, item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("failed to restore stock: %w", err)
		}
	}

	err = tx.QueryRowxContext(ctx,
		"UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2 RETURNING updated_at",
		models.OrderStatusCancelled, orderID,
	).Scan(&order.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	order.Status = models.OrderStatusCancelled
	order.Items = items
	return &order, nil
}

// StatusUpdate is an admin mutation of order fulfilment state.
type StatusUpdate struct {
	Status         string
	TrackingNumber string
	Notes          string
}

// UpdateOrderStatus applies an admin status update, enforcing the allowed
// transition table. Moving to Delivered stamps the actual delivery time.
// Returns the order with its previous status in the second value.
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID int64, upd StatusUpdate) (*models.Order, string, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, "", err
	}
	defer tx.Rollback()

	var order models.Order
	err = tx.GetContext(ctx, &order,
		"SELECT * FROM orders WHERE id = $1 FOR UPDATE", orderID)
	if err == sql.ErrNoRows {
		return nil, "", models.ErrNotFound
	}
	if err != nil {
		return nil, "", err
	}

	prev := order.Status
	if upd.Status != "" && upd.Status != prev {
		if !models.CanTransition(prev, upd.Status) {
			return nil, "", models.ErrInvalidTransition
		}
		order.Status = upd.Status
	}
	if upd.TrackingNumber != "" {
		order.TrackingNumber = sql.NullString{String: upd.TrackingNumber, Valid: true}
	}
	if upd.Notes != "" {
		order.Notes = upd.Notes
	}

	query := `
		UPDATE orders
		SET status = $1, tracking_number = $2, notes = $3, updated_at = NOW()`
	args := []interface{}{order.Status, order.TrackingNumber, order.Notes}
	if order.Status == models.OrderStatusDelivered && !order.ActualDelivery.Valid {
		query += ", actual_delivery = NOW()"
	}
	args = append(args, orderID)
	query += fmt.Sprintf(" WHERE id = $%d RETURNING actual_delivery, updated_at", len(args))

	err = tx.QueryRowxContext(ctx, query, args...).Scan(&order.ActualDelivery, &order.UpdatedAt)
	if err != nil {
		return nil, "", err
	}

	if err := tx.Commit(); err != nil {
		return nil, "", err
	}
	return &order, prev, nil
}

// GetOrderByID retrieves an order with its lines.
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.attachItems(ctx, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderByNumber retrieves an order by its human-readable number.
func (s *Store) GetOrderByNumber(ctx context.Context, number string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE order_number = $1", number)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.attachItems(ctx, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Store) attachItems(ctx context.Context, order *models.Order) error {
	return s.db.SelectContext(ctx, &order.Items,
		"SELECT * FROM order_items WHERE order_id = $1 ORDER BY id", order.ID)
}

// OrdersByUser returns a page of the user's orders, newest first, and the
// total count.
func (s *Store) OrdersByUser(ctx context.Context, userID int64, page, limit int) ([]models.Order, int, error) {
	var total int
	if err := s.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM orders WHERE user_id = $1", userID); err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3",
		userID, limit, (page-1)*limit)
	return orders, total, err
}

// AllOrders returns a page of every order, optionally filtered by status.
func (s *Store) AllOrders(ctx context.Context, status string, page, limit int) ([]models.Order, int, error) {
	var total int
	var orders []models.Order
	if status != "" {
		if err := s.db.GetContext(ctx, &total,
			"SELECT COUNT(*) FROM orders WHERE status = $1", status); err != nil {
			return nil, 0, err
		}
		err := s.db.SelectContext(ctx, &orders,
			"SELECT * FROM orders WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3",
			status, limit, (page-1)*limit)
		return orders, total, err
	}

	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM orders"); err != nil {
		return nil, 0, err
	}
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders ORDER BY created_at DESC LIMIT $1 OFFSET $2",
		limit, (page-1)*limit)
	return orders, total, err
}
