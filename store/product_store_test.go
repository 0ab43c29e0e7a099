package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductListNewestFirst(t *testing.T) {
	db := freshDB(t)
	old := seedProduct(t, db, "Canvas Tote", 24.50)
	require.NoError(t, db.Model(&old).Update("created_at", time.Now().Add(-time.Hour)).Error)
	seedProduct(t, db, "Ceramic Mug", 19.99)

	products, total, err := NewProductStore(db).List(context.Background(), ProductQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, products, 2)
	assert.Equal(t, "Ceramic Mug", products[0].Title)
}

func TestProductListSearchAndPaging(t *testing.T) {
	db := freshDB(t)
	seedProduct(t, db, "Ceramic Mug", 19.99)
	seedProduct(t, db, "Travel Mug", 14.00)
	seedProduct(t, db, "Wool Throw", 49.99)
	s := NewProductStore(db)

	products, total, err := s.List(context.Background(), ProductQuery{Search: "  mug "})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, products, 2)

	page, total, err := s.List(context.Background(), ProductQuery{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, page, 1)

	empty, _, err := s.List(context.Background(), ProductQuery{Search: "lamp"})
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestProductQueryNormalized(t *testing.T) {
	q := ProductQuery{Limit: 1000, Offset: -5}.normalized()
	assert.Equal(t, MaxPageSize, q.Limit)
	assert.Zero(t, q.Offset)
	assert.Equal(t, DefaultPageSize, ProductQuery{}.normalized().Limit)
}

func TestProductGet(t *testing.T) {
	db := freshDB(t)
	p := seedProduct(t, db, "Ceramic Mug", 19.99)
	s := NewProductStore(db)

	got, err := s.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ceramic Mug", got.Title)

	_, err = s.Get(context.Background(), p.ID+100)
	assert.ErrorIs(t, err, ErrProductNotFound)
}
