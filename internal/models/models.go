package models

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// AttrMap is an open key/value bag stored as JSONB. Product attributes may
// carry a "salePrice" override used when snapshotting cart prices.
type AttrMap map[string]interface{}

func (m AttrMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *AttrMap) Scan(src interface{}) error {
	if src == nil {
		*m = AttrMap{}
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into AttrMap", src)
	}
	return json.Unmarshal(b, m)
}

// SalePrice returns the salePrice override if present and positive.
func (m AttrMap) SalePrice() (float64, bool) {
	v, ok := m["salePrice"]
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	if !ok || f <= 0 {
		return 0, false
	}
	return f, true
}

// Address is a postal address snapshot stored as JSONB on orders and users.
type Address struct {
	FullName   string `json:"fullName" binding:"required"`
	Phone      string `json:"phone" binding:"required"`
	Line1      string `json:"line1" binding:"required"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city" binding:"required"`
	State      string `json:"state" binding:"required"`
	PostalCode string `json:"postalCode" binding:"required"`
	Country    string `json:"country"`
}

func (a Address) Value() (driver.Value, error) {
	return json.Marshal(a)
}

func (a *Address) Scan(src interface{}) error {
	if src == nil {
		*a = Address{}
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into Address", src)
	}
	return json.Unmarshal(b, a)
}

// AddressList is a user's saved-address book, stored as a JSONB array.
type AddressList []Address

func (l AddressList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

func (l *AddressList) Scan(src interface{}) error {
	if src == nil {
		*l = AddressList{}
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into AddressList", src)
	}
	return json.Unmarshal(b, l)
}

// Product is a catalog entry. Rating and ReviewCount are cached aggregates
// maintained by the review store on every review write.
type Product struct {
	ID            int64          `db:"id" json:"id"`
	Title         string         `db:"title" json:"title"`
	Description   string         `db:"description" json:"description,omitempty"`
	Price         float64        `db:"price" json:"price"`
	Category      string         `db:"category" json:"category"`
	SubCategory   string         `db:"sub_category" json:"subCategory,omitempty"`
	Images        pq.StringArray `db:"images" json:"images"`
	StockQuantity int            `db:"stock_quantity" json:"stockQuantity"`
	SoldCount     int            `db:"sold_count" json:"soldCount"`
	Rating        float64        `db:"rating" json:"rating"`
	ReviewCount   int            `db:"review_count" json:"reviewCount"`
	Attributes    AttrMap        `db:"attributes" json:"attributes"`
	CreatedAt     time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updatedAt"`
}

// InStock is derived from stock, never stored.
func (p *Product) InStock() bool {
	return p.StockQuantity > 0
}

// MarshalJSON adds the derived inStock field to the wire form.
func (p Product) MarshalJSON() ([]byte, error) {
	type alias Product
	return json.Marshal(struct {
		alias
		InStock bool `json:"inStock"`
	}{alias(p), p.InStock()})
}

// Review is one user's review of a product.
type Review struct {
	ID          int64     `db:"id" json:"id"`
	ProductID   int64     `db:"product_id" json:"productId"`
	UserID      int64     `db:"user_id" json:"userId"`
	DisplayName string    `db:"display_name" json:"displayName,omitempty"`
	Rating      int       `db:"rating" json:"rating"`
	Title       string    `db:"title" json:"title,omitempty"`
	Comment     string    `db:"comment" json:"comment,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// CartItem is one user/product/variant line awaiting order conversion. Price
// and OriginalPrice are snapshotted at add time and never live-updated.
type CartItem struct {
	ID            int64           `db:"id" json:"id"`
	UserID        int64           `db:"user_id" json:"userId"`
	ProductID     int64           `db:"product_id" json:"productId"`
	Quantity      int             `db:"quantity" json:"quantity"`
	Size          string          `db:"size" json:"size,omitempty"`
	Color         string          `db:"color" json:"color,omitempty"`
	Price         float64         `db:"price" json:"price"`
	OriginalPrice sql.NullFloat64 `db:"original_price" json:"-"`
	SelectedAttrs AttrMap         `db:"selected_attributes" json:"selectedAttributes"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updatedAt"`

	// Joined from products for cart listings.
	ProductTitle string         `db:"product_title" json:"productTitle,omitempty"`
	ProductImage sql.NullString `db:"product_image" json:"-"`
}

// MarshalJSON flattens the nullable columns.
func (ci CartItem) MarshalJSON() ([]byte, error) {
	type alias CartItem
	out := struct {
		alias
		OriginalPrice *float64 `json:"originalPrice,omitempty"`
		ProductImage  string   `json:"productImage,omitempty"`
	}{alias: alias(ci)}
	if ci.OriginalPrice.Valid {
		out.OriginalPrice = &ci.OriginalPrice.Float64
	}
	if ci.ProductImage.Valid {
		out.ProductImage = ci.ProductImage.String
	}
	return json.Marshal(out)
}

// Order statuses
const (
	OrderStatusPending     = "Pending"
	OrderStatusConfirmed   = "Confirmed"
	OrderStatusProcessing  = "Processing"
	OrderStatusShipped     = "Shipped"
	OrderStatusOutForDeliv = "Out for Delivery"
	OrderStatusDelivered   = "Delivered"
	OrderStatusCancelled   = "Cancelled"
	OrderStatusReturned    = "Returned"
)

// Payment methods
const (
	PaymentMethodUPI        = "UPI"
	PaymentMethodCard       = "Card"
	PaymentMethodCOD        = "COD"
	PaymentMethodNetBanking = "Net Banking"
)

// Payment statuses. Recorded only; transitions come from outside this service.
const (
	PaymentStatusPending  = "Pending"
	PaymentStatusPaid     = "Paid"
	PaymentStatusFailed   = "Failed"
	PaymentStatusRefunded = "Refunded"
)

// OrderTransitions is the allowed status lifecycle. Cancelled and Returned
// are terminal.
var OrderTransitions = map[string][]string{
	OrderStatusPending:     {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:   {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing:  {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:     {OrderStatusOutForDeliv},
	OrderStatusOutForDeliv: {OrderStatusDelivered},
	OrderStatusDelivered:   {OrderStatusReturned},
}

// CanTransition reports whether an order may move between two statuses.
func CanTransition(from, to string) bool {
	for _, s := range OrderTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ValidPaymentMethod reports whether m is one of the accepted methods.
func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentMethodUPI, PaymentMethodCard, PaymentMethodCOD, PaymentMethodNetBanking:
		return true
	}
	return false
}

// Order is an immutable snapshot of a cart at placement time. Amounts are
// stored once and never recomputed from live product prices.
type Order struct {
	ID                int64          `db:"id" json:"id"`
	UserID            int64          `db:"user_id" json:"userId"`
	OrderNumber       string         `db:"order_number" json:"orderNumber"`
	Subtotal          float64        `db:"subtotal" json:"subtotal"`
	ShippingFee       float64        `db:"shipping_fee" json:"shippingFee"`
	TaxAmount         float64        `db:"tax_amount" json:"taxAmount"`
	DiscountAmount    float64        `db:"discount_amount" json:"discountAmount"`
	TotalAmount       float64        `db:"total_amount" json:"totalAmount"`
	Status            string         `db:"status" json:"status"`
	PaymentMethod     string         `db:"payment_method" json:"paymentMethod"`
	PaymentStatus     string         `db:"payment_status" json:"paymentStatus"`
	ShippingAddress   Address        `db:"shipping_address" json:"shippingAddress"`
	BillingAddress    Address        `db:"billing_address" json:"billingAddress"`
	EstimatedDelivery time.Time      `db:"estimated_delivery" json:"estimatedDelivery"`
	ActualDelivery    sql.NullTime   `db:"actual_delivery" json:"-"`
	TrackingNumber    sql.NullString `db:"tracking_number" json:"-"`
	Notes             string         `db:"notes" json:"notes,omitempty"`
	CreatedAt         time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updatedAt"`

	Items []OrderItem `db:"-" json:"items,omitempty"`
}

// MarshalJSON flattens the nullable columns.
func (o Order) MarshalJSON() ([]byte, error) {
	type alias Order
	out := struct {
		alias
		ActualDelivery *time.Time `json:"actualDelivery,omitempty"`
		TrackingNumber string     `json:"trackingNumber,omitempty"`
	}{alias: alias(o)}
	if o.ActualDelivery.Valid {
		out.ActualDelivery = &o.ActualDelivery.Time
	}
	if o.TrackingNumber.Valid {
		out.TrackingNumber = o.TrackingNumber.String
	}
	return json.Marshal(out)
}

// OrderItem is one immutable order line. TotalAmount = Subtotal + TaxAmount
// - DiscountAmount, enforced at write time.
type OrderItem struct {
	ID             int64           `db:"id" json:"id"`
	OrderID        int64           `db:"order_id" json:"orderId"`
	ProductID      int64           `db:"product_id" json:"productId"`
	Quantity       int             `db:"quantity" json:"quantity"`
	Price          float64         `db:"price" json:"price"`
	OriginalPrice  sql.NullFloat64 `db:"original_price" json:"-"`
	Size           string          `db:"size" json:"size,omitempty"`
	Color          string          `db:"color" json:"color,omitempty"`
	SelectedAttrs  AttrMap         `db:"selected_attributes" json:"selectedAttributes"`
	Subtotal       float64         `db:"subtotal" json:"subtotal"`
	TaxAmount      float64         `db:"tax_amount" json:"taxAmount"`
	DiscountAmount float64         `db:"discount_amount" json:"discountAmount"`
	TotalAmount    float64         `db:"total_amount" json:"totalAmount"`
}

func (oi OrderItem) MarshalJSON() ([]byte, error) {
	type alias OrderItem
	out := struct {
		alias
		OriginalPrice *float64 `json:"originalPrice,omitempty"`
	}{alias: alias(oi)}
	if oi.OriginalPrice.Valid {
		out.OriginalPrice = &oi.OriginalPrice.Float64
	}
	return json.Marshal(out)
}

// User is a storefront customer account.
type User struct {
	ID             int64          `db:"id" json:"id"`
	Email          string         `db:"email" json:"email"`
	PasswordHash   string         `db:"password_hash" json:"-"`
	FirstName      string         `db:"first_name" json:"firstName"`
	LastName       string         `db:"last_name" json:"lastName"`
	Phone          sql.NullString `db:"phone" json:"-"`
	IsAdmin        bool           `db:"is_admin" json:"isAdmin"`
	Addresses      AddressList    `db:"addresses" json:"addresses"`
	RecentSearches pq.StringArray `db:"recent_searches" json:"recentSearches"`
	ResetOTP       sql.NullString `db:"reset_otp" json:"-"`
	OTPExpiresAt   sql.NullTime   `db:"otp_expires_at" json:"-"`
	CreatedAt      time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updatedAt"`
}

func (u User) MarshalJSON() ([]byte, error) {
	type alias User
	out := struct {
		alias
		Phone string `json:"phone,omitempty"`
	}{alias: alias(u)}
	if u.Phone.Valid {
		out.Phone = u.Phone.String
	}
	return json.Marshal(out)
}

// Admin is a dashboard operator account, a separate record type from User.
type Admin struct {
	ID           int64          `db:"id" json:"id"`
	Email        string         `db:"email" json:"email"`
	PasswordHash string         `db:"password_hash" json:"-"`
	FirstName    string         `db:"first_name" json:"firstName"`
	LastName     string         `db:"last_name" json:"lastName"`
	ResetOTP     sql.NullString `db:"reset_otp" json:"-"`
	OTPExpiresAt sql.NullTime   `db:"otp_expires_at" json:"-"`
	CreatedAt    time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updatedAt"`
}

// Account is the credential view shared by the user and admin password-reset
// flows.
type Account struct {
	ID           int64
	Email        string
	PasswordHash string
	ResetOTP     sql.NullString
	OTPExpiresAt sql.NullTime
}
