package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/junaidrashid-git/storefront-api/pkg/apperr"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string
type PaymentStatus string

const (
	OrderStatusProcessing OrderStatus = "processing" // Paid, awaiting dispatch
	OrderStatusShipped    OrderStatus = "shipped"    // Out for delivery
	OrderStatusDelivered  OrderStatus = "delivered"  // Customer received the items
	OrderStatusCancelled  OrderStatus = "cancelled"  // Cancelled before shipping

	// The processor confirms payment before checkout, so orders are born completed.
	PaymentStatusCompleted PaymentStatus = "completed"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
	OrderStatusDelivered:  nil,
	OrderStatusCancelled:  nil,
}

func ParseOrderStatus(status string) (OrderStatus, error) {
	s := OrderStatus(strings.ToLower(strings.TrimSpace(status)))
	if _, ok := orderTransitions[s]; !ok {
		return "", apperr.InvalidArgument("invalid order status: " + status)
	}
	return s, nil
}

// CanTransitionTo reports whether next is reachable from s. Staying put is always allowed.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type ShippingAddress struct {
	Address string `json:"address" binding:"required"`
	City    string `json:"city" binding:"required"`
	State   string `json:"state" binding:"required"`
	ZipCode string `json:"zipCode" binding:"required"`
	Country string `json:"country" binding:"required"`
}

func (a ShippingAddress) Validate() error {
	fields := []struct{ name, value string }{
		{"address", a.Address}, {"city", a.City}, {"state", a.State}, {"zipCode", a.ZipCode}, {"country", a.Country},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return apperr.InvalidArgument("shippingAddress." + f.name + " is required")
		}
	}
	return nil
}

type Order struct {
	ID              string          `gorm:"primaryKey;type:varchar(36)" json:"_id"`
	UserID          string          `gorm:"type:varchar(36);not null;index" json:"user"` // lookup only, no FK
	Items           []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	TotalAmount     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"totalAmount"`
	ShippingAddress ShippingAddress `gorm:"embedded;embeddedPrefix:ship_" json:"shippingAddress"`
	PaymentIntentID string          `gorm:"uniqueIndex;not null" json:"paymentIntentId"`
	PaymentStatus   PaymentStatus   `gorm:"type:varchar(20);not null" json:"paymentStatus"`
	OrderStatus     OrderStatus     `gorm:"type:varchar(20);not null;index" json:"orderStatus"`
	CreatedAt       time.Time       `gorm:"index" json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// OrderItem is a frozen snapshot of a cart line at checkout time.
type OrderItem struct {
	ID        uint            `gorm:"primaryKey" json:"-"`
	OrderID   string          `gorm:"type:varchar(36);not null;index" json:"-"`
	ProductID string          `gorm:"type:varchar(36);not null" json:"product"`
	Name      string          `json:"name"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
}

// NewOrder builds a processing order; the total is computed here once and never again.
func NewOrder(userID string, items []OrderItem, addr ShippingAddress, paymentIntentID string) Order {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(LineTotal(item.UnitPrice, item.Quantity))
	}
	now := time.Now().UTC()
	return Order{
		ID:              uuid.NewString(),
		UserID:          userID,
		Items:           items,
		TotalAmount:     total,
		ShippingAddress: addr,
		PaymentIntentID: paymentIntentID,
		PaymentStatus:   PaymentStatusCompleted,
		OrderStatus:     OrderStatusProcessing,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}
