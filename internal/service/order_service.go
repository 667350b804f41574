package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"storefront-api/internal/broker"
	"storefront-api/internal/models"
	"storefront-api/internal/store"
	"storefront-api/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Pricing rules. Tax is a flat rate across all lines; shipping is free above
// the threshold.
const (
	TaxRate               = 0.18
	FreeShippingThreshold = 499.0
	ShippingFee           = 99.0

	orderNumberPrefix = "ORD"
	deliveryEstimate  = 72 * time.Hour
	defaultCountry    = "India"
)

// OrderStore is the persistence surface the order workflow needs.
type OrderStore interface {
	CartItemsByUser(ctx context.Context, userID int64) ([]models.CartItem, error)
	PlaceOrder(ctx context.Context, order *models.Order, items []models.OrderItem) error
	CancelOrder(ctx context.Context, orderID, userID int64) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, upd store.StatusUpdate) (*models.Order, string, error)
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	GetOrderByNumber(ctx context.Context, number string) (*models.Order, error)
	OrdersByUser(ctx context.Context, userID int64, page, limit int) ([]models.Order, int, error)
	AllOrders(ctx context.Context, status string, page, limit int) ([]models.Order, int, error)
	NextSequence(ctx context.Context, key string) (int64, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// OrderService handles the cart-to-order workflow
type OrderService struct {
	store          OrderStore
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(store OrderStore, eventPublisher *broker.EventPublisher) *OrderService {
	return &OrderService{
		store:          store,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// PlaceOrderRequest carries the checkout inputs: how to pay and where to
// ship. Line items come from the caller's cart, never from the request.
type PlaceOrderRequest struct {
	PaymentMethod   string         `json:"paymentMethod" binding:"required"`
	ShippingAddress models.Address `json:"shippingAddress" binding:"required"`
	BillingAddress  models.Address `json:"billingAddress" binding:"required"`
	Notes           string         `json:"notes,omitempty"`
}

// CartTotals is the priced view of a set of cart lines.
type CartTotals struct {
	Subtotal       float64 `json:"subtotal"`
	TaxAmount      float64 `json:"taxAmount"`
	DiscountAmount float64 `json:"discountAmount"`
	ShippingFee    float64 `json:"shippingFee"`
	TotalAmount    float64 `json:"totalAmount"`
	ItemCount      int     `json:"itemCount"`
}

// PriceCart turns cart lines into priced order lines and aggregate totals.
// Per line: subtotal = price*qty, tax = subtotal*TaxRate, discount =
// (originalPrice-price)*qty when an original price was snapshotted. Shipping
// is free when the subtotal exceeds the threshold.
func PriceCart(items []models.CartItem) (CartTotals, []models.OrderItem) {
	var totals CartTotals
	lines := make([]models.OrderItem, 0, len(items))

	for _, ci := range items {
		lineSubtotal := ci.Price * float64(ci.Quantity)
		lineTax := lineSubtotal * TaxRate
		var lineDiscount float64
		if ci.OriginalPrice.Valid && ci.OriginalPrice.Float64 > ci.Price {
			lineDiscount = (ci.OriginalPrice.Float64 - ci.Price) * float64(ci.Quantity)
		}

		lines = append(lines, models.OrderItem{
			ProductID:      ci.ProductID,
			Quantity:       ci.Quantity,
			Price:          ci.Price,
			OriginalPrice:  ci.OriginalPrice,
			Size:           ci.Size,
			Color:          ci.Color,
			SelectedAttrs:  ci.SelectedAttrs,
			Subtotal:       lineSubtotal,
			TaxAmount:      lineTax,
			DiscountAmount: lineDiscount,
			TotalAmount:    lineSubtotal + lineTax - lineDiscount,
		})

		totals.Subtotal += lineSubtotal
		totals.TaxAmount += lineTax
		totals.DiscountAmount += lineDiscount
		totals.ItemCount += ci.Quantity
	}

	if totals.Subtotal > FreeShippingThreshold {
		totals.ShippingFee = 0
	} else if len(items) > 0 {
		totals.ShippingFee = ShippingFee
	}
	totals.TotalAmount = totals.Subtotal + totals.TaxAmount + totals.ShippingFee - totals.DiscountAmount

	return totals, lines
}

// normalizeAddress applies the country default.
func normalizeAddress(a models.Address) models.Address {
	if a.Country == "" {
		a.Country = defaultCountry
	}
	return a
}

// PlaceOrder converts the caller's cart into an order. The store runs the
// stock check, inserts, counter moves and cart clear in one transaction.
func (s *OrderService) PlaceOrder(ctx context.Context, userID int64, req *PlaceOrderRequest) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.PlaceOrder")
	defer span.End()

	start := time.Now()
	defer func() {
		util.OrderPlacementLatency.Observe(time.Since(start).Seconds())
	}()

	if !models.ValidPaymentMethod(req.PaymentMethod) {
		util.OrdersFailedTotal.WithLabelValues("invalid_payment_method").Inc()
		return nil, fmt.Errorf("%w: unsupported payment method %q", ErrValidation, req.PaymentMethod)
	}

	cart, err := s.store.CartItemsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if len(cart) == 0 {
		util.OrdersFailedTotal.WithLabelValues("empty_cart").Inc()
		return nil, models.ErrCartEmpty
	}

	totals, lines := PriceCart(cart)
	now := time.Now()

	order := &models.Order{
		UserID:            userID,
		OrderNumber:       s.generateOrderNumber(ctx, now),
		Subtotal:          totals.Subtotal,
		ShippingFee:       totals.ShippingFee,
		TaxAmount:         totals.TaxAmount,
		DiscountAmount:    totals.DiscountAmount,
		TotalAmount:       totals.TotalAmount,
		Status:            models.OrderStatusPending,
		PaymentMethod:     req.PaymentMethod,
		PaymentStatus:     models.PaymentStatusPending,
		ShippingAddress:   normalizeAddress(req.ShippingAddress),
		BillingAddress:    normalizeAddress(req.BillingAddress),
		EstimatedDelivery: now.Add(deliveryEstimate),
		Notes:             req.Notes,
	}

	if err := s.store.PlaceOrder(ctx, order, lines); err != nil {
		util.OrdersFailedTotal.WithLabelValues("placement_failed").Inc()
		return nil, err
	}

	util.OrdersPlacedTotal.Inc()
	s.logger.Info("Order placed",
		zap.Int64("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.Float64("total", order.TotalAmount))

	s.publishOrderPlaced(ctx, order)
	return order, nil
}

// generateOrderNumber builds prefix + yymmdd + 4-digit daily sequence from
// the atomic counter, falling back to a timestamp-derived number when the
// counter is unreachable.
func (s *OrderService) generateOrderNumber(ctx context.Context, now time.Time) string {
	day := now.Format("060102")
	seq, err := s.store.NextSequence(ctx, "orders:"+day)
	if err != nil {
		s.logger.Warn("Order counter unavailable, using timestamp fallback", zap.Error(err))
		return fmt.Sprintf("%s%d", orderNumberPrefix, now.UnixNano())
	}
	return fmt.Sprintf("%s%s%04d", orderNumberPrefix, day, seq)
}

// CancelOrder cancels an order the caller owns. Stock restoration happens in
// the store transaction.
func (s *OrderService) CancelOrder(ctx context.Context, orderID, userID int64) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CancelOrder")
	defer span.End()

	order, err := s.store.CancelOrder(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}

	util.OrdersCancelledTotal.Inc()
	s.logger.Info("Order cancelled",
		zap.Int64("order_id", order.ID),
		zap.String("order_number", order.OrderNumber))

	s.publishOrderCancelled(ctx, order)
	return order, nil
}

// GetOrder returns an order visible to the caller: its owner, or any admin.
func (s *OrderService) GetOrder(ctx context.Context, orderID, callerID int64, isAdmin bool) (*models.Order, error) {
	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != callerID && !isAdmin {
		return nil, models.ErrForbidden
	}
	return order, nil
}

// GetOrderByNumber returns an order looked up by its human-readable number.
func (s *OrderService) GetOrderByNumber(ctx context.Context, number string, callerID int64, isAdmin bool) (*models.Order, error) {
	order, err := s.store.GetOrderByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if order.UserID != callerID && !isAdmin {
		return nil, models.ErrForbidden
	}
	return order, nil
}

// ListOrders returns a page of the caller's orders.
func (s *OrderService) ListOrders(ctx context.Context, userID int64, page, limit int) ([]models.Order, int, error) {
	page, limit = normalizePage(page, limit)
	return s.store.OrdersByUser(ctx, userID, page, limit)
}

// ListAllOrders returns a page of all orders for the admin dashboard.
func (s *OrderService) ListAllOrders(ctx context.Context, status string, page, limit int) ([]models.Order, int, error) {
	page, limit = normalizePage(page, limit)
	return s.store.AllOrders(ctx, status, page, limit)
}

// UpdateStatus applies an admin fulfilment update. Transitions are checked
// against the lifecycle table in the store.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID int64, upd store.StatusUpdate) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.UpdateStatus")
	defer span.End()

	if upd.Status != "" && !knownStatus(upd.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, upd.Status)
	}

	order, prev, err := s.store.UpdateOrderStatus(ctx, orderID, upd)
	if err != nil {
		return nil, err
	}

	if order.Status != prev {
		util.OrderStatusUpdatesTotal.WithLabelValues(order.Status).Inc()
		s.logger.Info("Order status updated",
			zap.Int64("order_id", order.ID),
			zap.String("from", prev),
			zap.String("to", order.Status))
		s.publishStatusChanged(ctx, order, prev)
	}
	return order, nil
}

func knownStatus(status string) bool {
	switch status {
	case models.OrderStatusPending, models.OrderStatusConfirmed, models.OrderStatusProcessing,
		models.OrderStatusShipped, models.OrderStatusOutForDeliv, models.OrderStatusDelivered,
		models.OrderStatusCancelled, models.OrderStatusReturned:
		return true
	}
	return false
}

func (s *OrderService) userEmail(ctx context.Context, userID int64) string {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		s.logger.Warn("Failed to resolve user for event", zap.Int64("user_id", userID), zap.Error(err))
		return ""
	}
	return user.Email
}

func (s *OrderService) publishOrderPlaced(ctx context.Context, order *models.Order) {
	if s.eventPublisher == nil {
		return
	}
	items := make([]models.OrderItemData, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, models.OrderItemData{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price,
		})
	}
	event := &models.OrderPlacedEvent{
		BaseEvent:   newBaseEvent(models.EventTypeOrderPlaced),
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		UserEmail:   s.userEmail(ctx, order.UserID),
		TotalAmount: order.TotalAmount,
		Items:       items,
	}
	if err := s.eventPublisher.PublishOrderPlaced(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderPlaced event", zap.Error(err))
	}
}

func (s *OrderService) publishOrderCancelled(ctx context.Context, order *models.Order) {
	if s.eventPublisher == nil {
		return
	}
	event := &models.OrderCancelledEvent{
		BaseEvent:   newBaseEvent(models.EventTypeOrderCancelled),
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		UserEmail:   s.userEmail(ctx, order.UserID),
	}
	if err := s.eventPublisher.PublishOrderCancelled(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderCancelled event", zap.Error(err))
	}
}

func (s *OrderService) publishStatusChanged(ctx context.Context, order *models.Order, prev string) {
	if s.eventPublisher == nil {
		return
	}
	event := &models.OrderStatusChangedEvent{
		BaseEvent:   newBaseEvent(models.EventTypeOrderStatusChanged),
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		UserEmail:   s.userEmail(ctx, order.UserID),
		FromStatus:  prev,
		ToStatus:    order.Status,
	}
	if err := s.eventPublisher.PublishOrderStatusChanged(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderStatusChanged event", zap.Error(err))
	}
}

func newBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}

// snapshotPrice picks the effective and original prices for a product at
// add-to-cart time: a salePrice attribute overrides the base price, which is
// then kept as the original for discount computation.
func snapshotPrice(p *models.Product) (price float64, original sql.NullFloat64) {
	price = p.Price
	if sale, ok := p.Attributes.SalePrice(); ok && sale < p.Price {
		price = sale
		original = sql.NullFloat64{Float64: p.Price, Valid: true}
	}
	return price, original
}

func normalizePage(page, limit int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return page, limit
}
