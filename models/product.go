package models

import (
	"time"
)

type Product struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Title         string    `gorm:"not null;index" json:"title"`
	Price         float64   `gorm:"not null" json:"price"`
	OriginalPrice *float64  `json:"originalPrice,omitempty"` // pre-discount price, if discounted
	Description   string    `json:"description"`
	ImageURL      string    `json:"image"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// IsDiscounted reports whether the product is sold below its original price.
func (p *Product) IsDiscounted() bool {
	return p.OriginalPrice != nil && *p.OriginalPrice > p.Price
}
