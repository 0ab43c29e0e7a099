package store

import (
	"context"
	"errors"
	"fmt"

	"storefront/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderStore struct {
	db *gorm.DB
}

func NewOrderStore(db *gorm.DB) *OrderStore {
	return &OrderStore{db: db}
}

// CreateOrder persists the order and its items in one transaction. Orders are
// keyed by payment intent: if the caller already has one for the intent it is
// returned with created=false and nothing is written. An intent recorded for
// another user fails with ErrIntentInUse.
func (s *OrderStore) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, bool, error) {
	if len(order.Items) == 0 {
		return nil, false, ErrEmptyOrder
	}
	for _, item := range order.Items {
		if item.Quantity < 1 || item.Price < 0 {
			return nil, false, ErrInvalidLine
		}
	}

	if existing, err := s.findByPaymentIntent(ctx, order.PaymentIntentID); err == nil {
		return ownedRepeat(existing, order.UserID)
	} else if !errors.Is(err, ErrOrderNotFound) {
		return nil, false, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(order).Error
	})
	if err != nil {
		// a concurrent request for the same intent may have won the unique index
		if existing, findErr := s.findByPaymentIntent(ctx, order.PaymentIntentID); findErr == nil {
			return ownedRepeat(existing, order.UserID)
		}
		return nil, false, fmt.Errorf("create order: %w", err)
	}
	return order, true, nil
}

func ownedRepeat(existing *models.Order, userID string) (*models.Order, bool, error) {
	if existing.UserID != userID {
		return nil, false, ErrIntentInUse
	}
	return existing, false, nil
}

func (s *OrderStore) findByPaymentIntent(ctx context.Context, intentID string) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Preload("Items").Where("payment_intent_id = ?", intentID).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (s *OrderStore) ListForUser(ctx context.Context, userID string) ([]models.Order, error) {
	orders := []models.Order{}
	err := s.db.WithContext(ctx).Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&orders).Error
	return orders, err
}

// ListAll returns every order, newest first, optionally filtered by status.
func (s *OrderStore) ListAll(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	q := s.db.WithContext(ctx).Preload("Items").Order("created_at DESC, id DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	orders := []models.Order{}
	err := q.Find(&orders).Error
	return orders, err
}

func (s *OrderStore) Get(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).Preload("Items").First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// GetForUser hides other users' orders behind ErrOrderNotFound.
func (s *OrderStore) GetForUser(ctx context.Context, userID string, id uint) (*models.Order, error) {
	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// UpdateStatus sets any known status regardless of the current one.
func (s *OrderStore) UpdateStatus(ctx context.Context, id uint, status models.OrderStatus) (*models.Order, error) {
	if !models.IsValidStatus(status) {
		return nil, ErrInvalidStatus
	}

	res := s.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrOrderNotFound
	}
	return s.Get(ctx, id)
}

func (s *OrderStore) UpsertAddress(ctx context.Context, userID string, addr models.ShippingAddress) (*models.UserAddress, error) {
	if userID == "" {
		return nil, ErrIdentityRequired
	}

	row := models.NewUserAddress(userID, addr)
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"full_name", "email", "phone_country_code", "phone", "address_line1", "address_line2",
			"city", "state", "postal_code", "country", "updated_at",
		}),
	}).Create(&row).Error
	if err != nil {
		return nil, err
	}
	return s.GetAddress(ctx, userID)
}

func (s *OrderStore) GetAddress(ctx context.Context, userID string) (*models.UserAddress, error) {
	var addr models.UserAddress
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&addr).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAddressMissing
		}
		return nil, err
	}
	return &addr, nil
}
