package store

import (
	"context"
	"errors"
	"fmt"

	"storefront/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MergeCarts folds the anonymous cart owned by sessionID into userID's cart
// and returns how many anonymous line items were merged. Quantities of
// products present in both carts are summed.
//
// The whole merge is one transaction. Deleting the anonymous cart is the
// completion marker: a second merge for the same session, concurrent or
// later, finds no anonymous cart and reports 0.
func (s *CartStore) MergeCarts(ctx context.Context, sessionID, userID string) (int, error) {
	if sessionID == "" || userID == "" {
		return 0, ErrIdentityRequired
	}

	merged := 0
	err := s.Atomically(ctx, func(tx *CartStore) error {
		anon, err := tx.lockAnonymousCart(sessionID)
		if err != nil {
			return err
		}
		if anon == nil {
			return nil
		}

		var items []models.CartItem
		if err := tx.db.Where("cart_id = ?", anon.ID).Order("id").Find(&items).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return tx.deleteCart(anon.ID)
		}

		userCart, err := tx.GetOrCreateCart(ctx, Identity{UserID: userID})
		if err != nil {
			return err
		}

		for _, item := range items {
			if err := tx.upsertItem(userCart.ID, item.ProductID, item.Quantity); err != nil {
				return fmt.Errorf("merge product %d: %w", item.ProductID, err)
			}
		}
		if err := tx.deleteCart(anon.ID); err != nil {
			return err
		}
		if err := tx.touch(userCart.ID); err != nil {
			return err
		}

		merged = len(items)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrMergeFailed, err)
	}
	return merged, nil
}

// lockAnonymousCart returns nil when the session has no cart. On postgres the
// row stays locked until the surrounding transaction ends.
func (s *CartStore) lockAnonymousCart(sessionID string) (*models.Cart, error) {
	q := s.db.Where("session_hash = ?", s.hasher.Hash(sessionID))
	if s.db.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var cart models.Cart
	if err := q.First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cart, nil
}

func (s *CartStore) deleteCart(cartID uint) error {
	if err := s.db.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	return s.db.Delete(&models.Cart{}, cartID).Error
}
