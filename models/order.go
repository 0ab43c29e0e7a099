package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipping   OrderStatus = "shipping"
	OrderStatusDelivered  OrderStatus = "delivered"
)

// OrderStatuses is the fixed progression shown to customers.
var OrderStatuses = []OrderStatus{
	OrderStatusProcessing,
	OrderStatusShipping,
	OrderStatusDelivered,
}

// IsValidStatus only checks membership. Admins may move an order to any of
// the statuses at any time, including backwards.
func IsValidStatus(s OrderStatus) bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

type Order struct {
	ID              uint             `gorm:"primaryKey" json:"id"`
	UserID          string           `gorm:"not null;index" json:"userId"`
	UserEmail       string           `json:"userEmail"`
	OrderNumber     string           `gorm:"uniqueIndex;not null" json:"orderNumber"`
	Status          OrderStatus      `gorm:"default:processing" json:"status"`
	Subtotal        float64          `gorm:"not null" json:"subtotal"`
	Shipping        float64          `gorm:"not null;default:0" json:"shipping"`
	Tax             float64          `gorm:"not null;default:0" json:"tax"`
	Total           float64          `gorm:"not null" json:"total"`
	PaymentIntentID string           `gorm:"uniqueIndex;not null" json:"paymentIntentId"`
	ShippingAddress *ShippingAddress `gorm:"serializer:json" json:"shippingAddress,omitempty"`
	Items           []OrderItem      `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// OrderItem is a snapshot taken at checkout, independent of the live product row.
type OrderItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OrderID   uint      `gorm:"not null;index" json:"orderId"`
	ProductID uint      `gorm:"not null;index" json:"productId"`
	Title     string    `gorm:"not null" json:"title"`
	Price     float64   `gorm:"not null" json:"price"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	ImageURL  string    `json:"image,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.OrderNumber == "" {
		o.OrderNumber = NewOrderNumber(time.Now())
	}
	if o.Status == "" {
		o.Status = OrderStatusProcessing
	}
	return nil
}

// NewOrderNumber returns a human readable reference like ORD-20261016-9F86D081.
func NewOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return "ORD-" + now.UTC().Format("20060102") + "-" + suffix
}
