package store

import (
	"context"
	"errors"
	"strings"

	"storefront/models"

	"gorm.io/gorm"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ProductQuery filters the catalog listing. Search matches titles,
// case-insensitively.
type ProductQuery struct {
	Search string
	Limit  int
	Offset int
}

func (q ProductQuery) normalized() ProductQuery {
	if q.Limit <= 0 {
		q.Limit = DefaultPageSize
	}
	if q.Limit > MaxPageSize {
		q.Limit = MaxPageSize
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	q.Search = strings.TrimSpace(q.Search)
	return q
}

type ProductStore struct {
	db *gorm.DB
}

func NewProductStore(db *gorm.DB) *ProductStore {
	return &ProductStore{db: db}
}

// List returns one page of products, newest first, and the total number of
// products matching the query.
func (s *ProductStore) List(ctx context.Context, q ProductQuery) ([]models.Product, int64, error) {
	q = q.normalized()

	base := s.db.WithContext(ctx).Model(&models.Product{})
	if q.Search != "" {
		base = base.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(q.Search)+"%")
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	products := []models.Product{}
	err := base.Order("created_at DESC, id DESC").Limit(q.Limit).Offset(q.Offset).Find(&products).Error
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (s *ProductStore) Get(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &p, nil
}
