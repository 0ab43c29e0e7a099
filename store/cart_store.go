package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CartLine is a cart item joined with the live product it refers to.
type CartLine struct {
	ID            uint      `json:"id"`
	ProductID     uint      `json:"productId"`
	Title         string    `json:"title"`
	Price         float64   `json:"price"`
	OriginalPrice *float64  `json:"originalPrice,omitempty"`
	Image         string    `json:"image"`
	Quantity      int       `json:"quantity"`
	AddedAt       time.Time `json:"addedAt"`
}

// CartCount is the number shown on the cart badge: the sum of quantities.
func CartCount(lines []CartLine) int {
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}

type CartStore struct {
	db     *gorm.DB
	hasher *SessionHasher
}

func NewCartStore(db *gorm.DB, hasher *SessionHasher) *CartStore {
	if hasher == nil {
		hasher = NewSessionHasher("")
	}
	return &CartStore{db: db, hasher: hasher}
}

// Atomically runs fn inside a single database transaction. The CartStore
// passed to fn is bound to that transaction.
func (s *CartStore) Atomically(ctx context.Context, fn func(tx *CartStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&CartStore{db: tx, hasher: s.hasher})
	})
}

func (s *CartStore) ownerClause(id Identity) (string, string, error) {
	switch id.Kind() {
	case IdentityAuthenticated:
		return "user_id = ?", id.UserID, nil
	case IdentityAnonymous:
		return "session_hash = ?", s.hasher.Hash(id.SessionID), nil
	default:
		return "", "", ErrIdentityRequired
	}
}

func (s *CartStore) FindCart(ctx context.Context, id Identity) (*models.Cart, error) {
	where, owner, err := s.ownerClause(id)
	if err != nil {
		return nil, err
	}

	var cart models.Cart
	if err := s.db.WithContext(ctx).Where(where, owner).First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartNotFound
		}
		return nil, err
	}
	return &cart, nil
}

// GetOrCreateCart returns the identity's cart, creating it on first use.
// Concurrent first requests race on the owner unique index and converge on
// the same row.
func (s *CartStore) GetOrCreateCart(ctx context.Context, id Identity) (*models.Cart, error) {
	cart, err := s.FindCart(ctx, id)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, ErrCartNotFound) {
		return nil, err
	}

	fresh := models.Cart{}
	if id.Kind() == IdentityAuthenticated {
		fresh.UserID = &id.UserID
	} else {
		hash := s.hasher.Hash(id.SessionID)
		fresh.SessionHash = &hash
	}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&fresh).Error; err != nil {
		return nil, fmt.Errorf("create cart: %w", err)
	}

	return s.FindCart(ctx, id)
}

func (s *CartStore) ListItems(ctx context.Context, cartID uint) ([]CartLine, error) {
	lines := []CartLine{}
	err := s.db.WithContext(ctx).
		Table("cart_items").
		Select(`cart_items.id, cart_items.product_id, cart_items.quantity, cart_items.created_at AS added_at,
			products.title, products.price, products.original_price, products.image_url AS image`).
		Joins("JOIN products ON products.id = cart_items.product_id").
		Where("cart_items.cart_id = ?", cartID).
		Order("cart_items.created_at DESC, cart_items.id DESC").
		Scan(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// PriceLines refreshes product data on lines read from a cache, so carts
// always show current prices. Lines whose product no longer exists are
// dropped, matching ListItems.
func (s *CartStore) PriceLines(ctx context.Context, lines []CartLine) ([]CartLine, error) {
	if len(lines) == 0 {
		return lines, nil
	}
	ids := make([]uint, len(lines))
	for i, l := range lines {
		ids[i] = l.ProductID
	}
	var products []models.Product
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	out := make([]CartLine, 0, len(lines))
	for _, l := range lines {
		p, ok := byID[l.ProductID]
		if !ok {
			continue
		}
		l.Title = p.Title
		l.Price = p.Price
		l.OriginalPrice = p.OriginalPrice
		l.Image = p.ImageURL
		out = append(out, l)
	}
	return out, nil
}

// AddItem inserts the product or, when the cart already holds it, increments
// the existing quantity in the same statement.
func (s *CartStore) AddItem(ctx context.Context, cartID, productID uint, quantity int) (*models.CartItem, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	var item models.CartItem
	err := s.Atomically(ctx, func(tx *CartStore) error {
		var exists int64
		if err := tx.db.Model(&models.Product{}).Where("id = ?", productID).Count(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return ErrProductNotFound
		}

		if err := tx.upsertItem(cartID, productID, quantity); err != nil {
			return err
		}
		if err := tx.db.Where("cart_id = ? AND product_id = ?", cartID, productID).First(&item).Error; err != nil {
			return err
		}
		return tx.touch(cartID)
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *CartStore) upsertItem(cartID, productID uint, quantity int) error {
	now := time.Now()
	row := models.CartItem{
		CartID:    cartID,
		ProductID: productID,
		Quantity:  quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return s.db.Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":   gorm.Expr("cart_items.quantity + excluded.quantity"),
			"updated_at": now,
		}),
	}).Create(&row).Error
}

// SetItemQuantity overwrites an item's quantity. When expected is non-nil the
// write only happens if the stored quantity still equals it.
func (s *CartStore) SetItemQuantity(ctx context.Context, cartID, itemID uint, quantity int, expected *int) (*models.CartItem, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	var item models.CartItem
	err := s.Atomically(ctx, func(tx *CartStore) error {
		q := tx.db.Model(&models.CartItem{}).Where("id = ? AND cart_id = ?", itemID, cartID)
		if expected != nil {
			q = q.Where("quantity = ?", *expected)
		}
		res := q.Updates(map[string]interface{}{"quantity": quantity, "updated_at": time.Now()})
		if res.Error != nil {
			return res.Error
		}
		if err := tx.db.Where("id = ? AND cart_id = ?", itemID, cartID).First(&item).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrItemNotFound
			}
			return err
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}
		return tx.touch(cartID)
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *CartStore) RemoveItem(ctx context.Context, cartID, itemID uint) error {
	return s.Atomically(ctx, func(tx *CartStore) error {
		res := tx.db.Where("id = ? AND cart_id = ?", itemID, cartID).Delete(&models.CartItem{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrItemNotFound
		}
		return tx.touch(cartID)
	})
}

func (s *CartStore) ClearCart(ctx context.Context, cartID uint) error {
	return s.Atomically(ctx, func(tx *CartStore) error {
		if err := tx.db.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		return tx.touch(cartID)
	})
}

func (s *CartStore) touch(cartID uint) error {
	return s.db.Model(&models.Cart{}).Where("id = ?", cartID).Update("updated_at", time.Now()).Error
}
