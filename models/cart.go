package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MaxLineQuantity caps a single cart line.
const MaxLineQuantity = 999

type Cart struct {
	ID        string     `gorm:"primaryKey;type:varchar(36)" json:"_id"`
	UserID    string     `gorm:"type:varchar(36);uniqueIndex;not null" json:"user"`
	Version   int64      `gorm:"not null;default:0" json:"-"` // bumped by every mutation, compared-and-swapped by checkout
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type CartItem struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	CartID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_cart_product" json:"-"`
	ProductID string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_cart_product" json:"productId"`
	Product   *Product  `gorm:"foreignKey:ProductID" json:"product"` // current catalog record, nil once deleted
	Quantity  int       `gorm:"not null" json:"quantity"`
	AddedAt   time.Time `json:"addedAt"`
}

func (c *Cart) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// Total prices the cart at current catalog prices. Lines without a product are skipped.
func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		if item.Product == nil {
			continue
		}
		total = total.Add(LineTotal(item.Product.Price, item.Quantity))
	}
	return total
}
