package models

import (
	"time"
)

// Cart is owned by exactly one of UserID or SessionHash. The raw anonymous
// session id never reaches the database, only its keyed digest.
type Cart struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      *string    `gorm:"uniqueIndex" json:"userId,omitempty"`
	SessionHash *string    `gorm:"uniqueIndex" json:"-"`
	Items       []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (c *Cart) IsAnonymous() bool {
	return c.UserID == nil && c.SessionHash != nil
}

// CartItem rows are hard deleted so the (cart_id, product_id) unique index
// stays the only arbiter for insert-or-increment.
type CartItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CartID    uint      `gorm:"not null;uniqueIndex:idx_cart_product" json:"cartId"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_cart_product" json:"productId"`
	Product   Product   `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
