package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"storefront-api/internal/models"
	"storefront-api/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOrderStore struct {
	cart     []models.CartItem
	orders   map[int64]*models.Order
	users    map[int64]*models.User
	seq      map[string]int64
	seqErr   error
	placeErr error
	nextID   int64
	cleared  bool
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{
		orders: make(map[int64]*models.Order),
		users:  map[int64]*models.User{1: {ID: 1, Email: "buyer@example.com"}},
		seq:    make(map[string]int64),
	}
}

func (f *fakeOrderStore) CartItemsByUser(ctx context.Context, userID int64) ([]models.CartItem, error) {
	return f.cart, nil
}

func (f *fakeOrderStore) PlaceOrder(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	if f.placeErr != nil {
		return f.placeErr
	}
	f.nextID++
	order.ID = f.nextID
	order.Items = items
	f.orders[order.ID] = order
	f.cart = nil
	f.cleared = true
	return nil
}

func (f *fakeOrderStore) CancelOrder(ctx context.Context, orderID, userID int64) (*models.Order, error) {
	order, ok := f.orders[orderID]
	if !ok {
		return nil, models.ErrNotFound
	}
	if order.UserID != userID {
		return nil, models.ErrForbidden
	}
	if order.Status != models.OrderStatusPending && order.Status != models.OrderStatusConfirmed {
		return nil, models.ErrOrderNotCancellable
	}
	order.Status = models.OrderStatusCancelled
	return order, nil
}

func (f *fakeOrderStore) UpdateOrderStatus(ctx context.Context, orderID int64, upd store.StatusUpdate) (*models.Order, string, error) {
	order, ok := f.orders[orderID]
	if !ok {
		return nil, "", models.ErrNotFound
	}
	prev := order.Status
	if upd.Status != "" && upd.Status != prev {
		if !models.CanTransition(prev, upd.Status) {
			return nil, "", fmt.Errorf("%w: %s -> %s", models.ErrInvalidTransition, prev, upd.Status)
		}
		order.Status = upd.Status
	}
	return order, prev, nil
}

func (f *fakeOrderStore) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return order, nil
}

func (f *fakeOrderStore) GetOrderByNumber(ctx context.Context, number string) (*models.Order, error) {
	for _, o := range f.orders {
		if o.OrderNumber == number {
			return o, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeOrderStore) OrdersByUser(ctx context.Context, userID int64, page, limit int) ([]models.Order, int, error) {
	var out []models.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, len(out), nil
}

func (f *fakeOrderStore) AllOrders(ctx context.Context, status string, page, limit int) ([]models.Order, int, error) {
	var out []models.Order
	for _, o := range f.orders {
		if status == "" || o.Status == status {
			out = append(out, *o)
		}
	}
	return out, len(out), nil
}

func (f *fakeOrderStore) NextSequence(ctx context.Context, key string) (int64, error) {
	if f.seqErr != nil {
		return 0, f.seqErr
	}
	f.seq[key]++
	return f.seq[key], nil
}

func (f *fakeOrderStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return user, nil
}

func testAddress() models.Address {
	return models.Address{
		FullName:   "Asha Rao",
		Phone:      "9876543210",
		Line1:      "12 MG Road",
		City:       "Bengaluru",
		State:      "Karnataka",
		PostalCode: "560001",
	}
}

func TestPriceCartAboveFreeShippingThreshold(t *testing.T) {
	items := []models.CartItem{
		{ProductID: 1, Quantity: 2, Price: 250},
	}

	totals, lines := PriceCart(items)

	assert.Equal(t, 500.0, totals.Subtotal)
	assert.InDelta(t, 90.0, totals.TaxAmount, 1e-9)
	assert.Equal(t, 0.0, totals.ShippingFee)
	assert.InDelta(t, 590.0, totals.TotalAmount, 1e-9)
	assert.Equal(t, 2, totals.ItemCount)
	require.Len(t, lines, 1)
	assert.InDelta(t, 590.0, lines[0].TotalAmount, 1e-9)
}

func TestPriceCartBelowFreeShippingThreshold(t *testing.T) {
	items := []models.CartItem{
		{ProductID: 1, Quantity: 1, Price: 300},
	}

	totals, _ := PriceCart(items)

	assert.Equal(t, 300.0, totals.Subtotal)
	assert.InDelta(t, 54.0, totals.TaxAmount, 1e-9)
	assert.Equal(t, 99.0, totals.ShippingFee)
	assert.InDelta(t, 453.0, totals.TotalAmount, 1e-9)
}

func TestPriceCartAtThresholdChargesShipping(t *testing.T) {
	// 499 does not exceed the threshold, so shipping applies.
	items := []models.CartItem{
		{ProductID: 1, Quantity: 1, Price: 499},
	}

	totals, _ := PriceCart(items)

	assert.Equal(t, 99.0, totals.ShippingFee)
}

func TestPriceCartEmpty(t *testing.T) {
	totals, lines := PriceCart(nil)

	assert.Equal(t, 0.0, totals.Subtotal)
	assert.Equal(t, 0.0, totals.ShippingFee)
	assert.Equal(t, 0.0, totals.TotalAmount)
	assert.Empty(t, lines)
}

func TestPriceCartDiscountFromOriginalPrice(t *testing.T) {
	items := []models.CartItem{
		{
			ProductID:     1,
			Quantity:      2,
			Price:         400,
			OriginalPrice: sql.NullFloat64{Float64: 500, Valid: true},
		},
	}

	totals, lines := PriceCart(items)

	assert.Equal(t, 800.0, totals.Subtotal)
	assert.InDelta(t, 144.0, totals.TaxAmount, 1e-9)
	assert.Equal(t, 200.0, totals.DiscountAmount)
	assert.Equal(t, 0.0, totals.ShippingFee)
	assert.InDelta(t, 744.0, totals.TotalAmount, 1e-9)
	require.Len(t, lines, 1)
	assert.Equal(t, 200.0, lines[0].DiscountAmount)
}

func TestPlaceOrderFromCart(t *testing.T) {
	fs := newFakeOrderStore()
	fs.cart = []models.CartItem{
		{ProductID: 1, Quantity: 2, Price: 250},
		{ProductID: 2, Quantity: 1, Price: 100, Size: "M"},
	}
	svc := NewOrderService(fs, nil)

	order, err := svc.PlaceOrder(context.Background(), 1, &PlaceOrderRequest{
		PaymentMethod:   models.PaymentMethodUPI,
		ShippingAddress: testAddress(),
		BillingAddress:  testAddress(),
	})
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)
	assert.Equal(t, 600.0, order.Subtotal)
	assert.InDelta(t, 108.0, order.TaxAmount, 1e-9)
	assert.Equal(t, 0.0, order.ShippingFee)
	assert.Len(t, order.Items, 2)
	assert.True(t, fs.cleared, "cart should be emptied on placement")
	assert.Equal(t, "India", order.ShippingAddress.Country)

	day := time.Now().Format("060102")
	assert.Equal(t, "ORD"+day+"0001", order.OrderNumber)
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	fs := newFakeOrderStore()
	svc := NewOrderService(fs, nil)

	_, err := svc.PlaceOrder(context.Background(), 1, &PlaceOrderRequest{
		PaymentMethod:   models.PaymentMethodCOD,
		ShippingAddress: testAddress(),
		BillingAddress:  testAddress(),
	})
	assert.ErrorIs(t, err, models.ErrCartEmpty)
}

func TestPlaceOrderInvalidPaymentMethod(t *testing.T) {
	fs := newFakeOrderStore()
	fs.cart = []models.CartItem{{ProductID: 1, Quantity: 1, Price: 100}}
	svc := NewOrderService(fs, nil)

	_, err := svc.PlaceOrder(context.Background(), 1, &PlaceOrderRequest{
		PaymentMethod:   "Barter",
		ShippingAddress: testAddress(),
		BillingAddress:  testAddress(),
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestOrderNumberSequenceIncrements(t *testing.T) {
	fs := newFakeOrderStore()
	svc := NewOrderService(fs, nil)
	now := time.Now()

	first := svc.generateOrderNumber(context.Background(), now)
	second := svc.generateOrderNumber(context.Background(), now)

	day := now.Format("060102")
	assert.Equal(t, "ORD"+day+"0001", first)
	assert.Equal(t, "ORD"+day+"0002", second)
}

func TestOrderNumberCounterFallback(t *testing.T) {
	fs := newFakeOrderStore()
	fs.seqErr = fmt.Errorf("counter unavailable")
	svc := NewOrderService(fs, nil)

	number := svc.generateOrderNumber(context.Background(), time.Now())
	assert.Regexp(t, `^ORD\d+$`, number)
}

func TestCancelOrder(t *testing.T) {
	fs := newFakeOrderStore()
	fs.orders[1] = &models.Order{ID: 1, UserID: 1, OrderNumber: "ORD2608290001", Status: models.OrderStatusPending}
	svc := NewOrderService(fs, nil)

	order, err := svc.CancelOrder(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, order.Status)
}

func TestCancelOrderAlreadyShipped(t *testing.T) {
	fs := newFakeOrderStore()
	fs.orders[1] = &models.Order{ID: 1, UserID: 1, Status: models.OrderStatusShipped}
	svc := NewOrderService(fs, nil)

	_, err := svc.CancelOrder(context.Background(), 1, 1)
	assert.ErrorIs(t, err, models.ErrOrderNotCancellable)
}

func TestCancelOrderWrongOwner(t *testing.T) {
	fs := newFakeOrderStore()
	fs.orders[1] = &models.Order{ID: 1, UserID: 2, Status: models.OrderStatusPending}
	svc := NewOrderService(fs, nil)

	_, err := svc.CancelOrder(context.Background(), 1, 1)
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestGetOrderOwnerAndAdminVisibility(t *testing.T) {
	fs := newFakeOrderStore()
	fs.orders[1] = &models.Order{ID: 1, UserID: 2, Status: models.OrderStatusPending}
	svc := NewOrderService(fs, nil)
	ctx := context.Background()

	_, err := svc.GetOrder(ctx, 1, 2, false)
	assert.NoError(t, err)

	_, err = svc.GetOrder(ctx, 1, 1, false)
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = svc.GetOrder(ctx, 1, 1, true)
	assert.NoError(t, err)
}

func TestUpdateStatusValidTransition(t *testing.T) {
	fs := newFakeOrderStore()
	fs.orders[1] = &models.Order{ID: 1, UserID: 1, Status: models.OrderStatusPending}
	svc := NewOrderService(fs, nil)

	order, err := svc.UpdateStatus(context.Background(), 1, store.StatusUpdate{Status: models.OrderStatusConfirmed})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusConfirmed, order.Status)
}

func TestUpdateStatusInvalidTransition(t *testing.T) {
	fs := newFakeOrderStore()
	fs.orders[1] = &models.Order{ID: 1, UserID: 1, Status: models.OrderStatusPending}
	svc := NewOrderService(fs, nil)

	_, err := svc.UpdateStatus(context.Background(), 1, store.StatusUpdate{Status: models.OrderStatusDelivered})
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestUpdateStatusUnknownStatus(t *testing.T) {
	fs := newFakeOrderStore()
	svc := NewOrderService(fs, nil)

	_, err := svc.UpdateStatus(context.Background(), 1, store.StatusUpdate{Status: "Teleported"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSnapshotPrice(t *testing.T) {
	plain := &models.Product{Price: 500}
	price, original := snapshotPrice(plain)
	assert.Equal(t, 500.0, price)
	assert.False(t, original.Valid)

	onSale := &models.Product{Price: 500, Attributes: models.AttrMap{"salePrice": 400.0}}
	price, original = snapshotPrice(onSale)
	assert.Equal(t, 400.0, price)
	require.True(t, original.Valid)
	assert.Equal(t, 500.0, original.Float64)

	// A "sale" above the base price is ignored.
	badSale := &models.Product{Price: 500, Attributes: models.AttrMap{"salePrice": 600.0}}
	price, original = snapshotPrice(badSale)
	assert.Equal(t, 500.0, price)
	assert.False(t, original.Valid)
}
