package store

import (
	"context"
	"time"

	"storefront/models"
)

// PruneAbandonedCarts deletes carts untouched since before cutoff that are
// either anonymous or empty. Signed-in users keep non-empty carts forever.
func (s *CartStore) PruneAbandonedCarts(ctx context.Context, cutoff time.Time) (int64, error) {
	var pruned int64
	err := s.Atomically(ctx, func(tx *CartStore) error {
		var ids []uint
		err := tx.db.Model(&models.Cart{}).
			Where("updated_at < ?", cutoff).
			Where("session_hash IS NOT NULL OR NOT EXISTS (SELECT 1 FROM cart_items WHERE cart_items.cart_id = carts.id)").
			Pluck("id", &ids).Error
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		if err := tx.db.Where("cart_id IN ?", ids).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		res := tx.db.Where("id IN ?", ids).Delete(&models.Cart{})
		if res.Error != nil {
			return res.Error
		}
		pruned = res.RowsAffected
		return nil
	})
	return pruned, err
}
