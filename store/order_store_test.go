package store

import (
	"context"
	"testing"
	"time"

	"storefront/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleOrder(userID, intent string) *models.Order {
	return &models.Order{
		UserID:          userID,
		UserEmail:       userID + "@example.com",
		Subtotal:        19.99,
		Shipping:        9.99,
		Tax:             1.60,
		Total:           31.58,
		PaymentIntentID: intent,
		ShippingAddress: &models.ShippingAddress{FullName: "Ada", City: "Springfield"},
		Items: []models.OrderItem{
			{ProductID: 42, Title: "Ceramic Mug", Price: 19.99, Quantity: 1},
		},
	}
}

func TestCreateOrder(t *testing.T) {
	s := NewOrderStore(freshDB(t))
	order, created, err := s.CreateOrder(context.Background(), sampleOrder("u1", "pi_1"))
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotZero(t, order.ID)
	assert.Regexp(t, `^ORD-\d{8}-[0-9A-F]{8}$`, order.OrderNumber)
	assert.Equal(t, models.OrderStatusProcessing, order.Status)
}

func TestCreateOrderIdempotentOnPaymentIntent(t *testing.T) {
	db := freshDB(t)
	s := NewOrderStore(db)
	ctx := context.Background()

	first, _, err := s.CreateOrder(ctx, sampleOrder("u1", "pi_dup"))
	require.NoError(t, err)

	again, created, err := s.CreateOrder(ctx, sampleOrder("u1", "pi_dup"))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, first.OrderNumber, again.OrderNumber)
	assert.Len(t, again.Items, 1)

	var n int64
	db.Model(&models.Order{}).Count(&n)
	assert.EqualValues(t, 1, n)
}

func TestCreateOrderRejectsIntentOfAnotherUser(t *testing.T) {
	db := freshDB(t)
	s := NewOrderStore(db)
	ctx := context.Background()

	_, _, err := s.CreateOrder(ctx, sampleOrder("alice", "pi_alice"))
	require.NoError(t, err)

	order, created, err := s.CreateOrder(ctx, sampleOrder("mallory", "pi_alice"))
	assert.ErrorIs(t, err, ErrIntentInUse)
	assert.False(t, created)
	assert.Nil(t, order)

	var n int64
	db.Model(&models.Order{}).Count(&n)
	assert.EqualValues(t, 1, n)
}

func TestCreateOrderValidatesLines(t *testing.T) {
	s := NewOrderStore(freshDB(t))
	ctx := context.Background()

	empty := sampleOrder("u1", "pi_e")
	empty.Items = nil
	_, _, err := s.CreateOrder(ctx, empty)
	assert.ErrorIs(t, err, ErrEmptyOrder)

	bad := sampleOrder("u1", "pi_b")
	bad.Items[0].Quantity = 0
	_, _, err = s.CreateOrder(ctx, bad)
	assert.ErrorIs(t, err, ErrInvalidLine)
}

func TestCreateOrderFailureLeavesNoPartialRows(t *testing.T) {
	db := freshDB(t)
	s := NewOrderStore(db)
	require.NoError(t, db.Exec(`CREATE TRIGGER block_items BEFORE INSERT ON order_items
		BEGIN SELECT RAISE(ABORT, 'disk full'); END`).Error)

	_, _, err := s.CreateOrder(context.Background(), sampleOrder("u1", "pi_x"))
	require.Error(t, err)

	var n int64
	db.Model(&models.Order{}).Count(&n)
	assert.Zero(t, n)
}

func TestListForUserNewestFirst(t *testing.T) {
	db := freshDB(t)
	s := NewOrderStore(db)
	ctx := context.Background()

	older := sampleOrder("u1", "pi_old")
	older.CreatedAt = time.Now().Add(-time.Hour)
	_, _, err := s.CreateOrder(ctx, older)
	require.NoError(t, err)
	_, _, err = s.CreateOrder(ctx, sampleOrder("u1", "pi_new"))
	require.NoError(t, err)
	_, _, err = s.CreateOrder(ctx, sampleOrder("u2", "pi_other"))
	require.NoError(t, err)

	orders, err := s.ListForUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "pi_new", orders[0].PaymentIntentID)
	assert.Len(t, orders[0].Items, 1)
}

func TestGetForUserHidesOthers(t *testing.T) {
	s := NewOrderStore(freshDB(t))
	ctx := context.Background()
	order, _, err := s.CreateOrder(ctx, sampleOrder("u1", "pi_1"))
	require.NoError(t, err)

	_, err = s.GetForUser(ctx, "u2", order.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	got, err := s.GetForUser(ctx, "u1", order.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ShippingAddress)
	assert.Equal(t, "Springfield", got.ShippingAddress.City)
}

func TestUpdateStatusAllowsAnyKnownStatus(t *testing.T) {
	s := NewOrderStore(freshDB(t))
	ctx := context.Background()
	order, _, _ := s.CreateOrder(ctx, sampleOrder("u1", "pi_1"))

	updated, err := s.UpdateStatus(ctx, order.ID, models.OrderStatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusDelivered, updated.Status)

	// moving backwards is permitted
	updated, err = s.UpdateStatus(ctx, order.ID, models.OrderStatusProcessing)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusProcessing, updated.Status)

	_, err = s.UpdateStatus(ctx, order.ID, "cancelled")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = s.UpdateStatus(ctx, 999, models.OrderStatusShipping)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestListAllFiltersByStatus(t *testing.T) {
	s := NewOrderStore(freshDB(t))
	ctx := context.Background()
	a, _, _ := s.CreateOrder(ctx, sampleOrder("u1", "pi_a"))
	s.CreateOrder(ctx, sampleOrder("u2", "pi_b"))
	s.UpdateStatus(ctx, a.ID, models.OrderStatusShipping)

	all, err := s.ListAll(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	shipping, err := s.ListAll(ctx, models.OrderStatusShipping)
	require.NoError(t, err)
	require.Len(t, shipping, 1)
	assert.Equal(t, a.ID, shipping[0].ID)
}

func TestUpsertAddress(t *testing.T) {
	db := freshDB(t)
	s := NewOrderStore(db)
	ctx := context.Background()

	_, err := s.GetAddress(ctx, "u1")
	assert.ErrorIs(t, err, ErrAddressMissing)

	addr := models.ShippingAddress{
		FullName: "Ada", Email: "ada@example.com", Phone: "5550100",
		AddressLine1: "1 Main St", City: "Springfield", State: "IL", PostalCode: "62701",
	}
	saved, err := s.UpsertAddress(ctx, "u1", addr)
	require.NoError(t, err)
	assert.Equal(t, "US", saved.Country)

	addr.City = "Chicago"
	saved, err = s.UpsertAddress(ctx, "u1", addr)
	require.NoError(t, err)
	assert.Equal(t, "Chicago", saved.City)

	var n int64
	db.Model(&models.UserAddress{}).Count(&n)
	assert.EqualValues(t, 1, n)

	_, err = s.UpsertAddress(ctx, "", addr)
	assert.ErrorIs(t, err, ErrIdentityRequired)
}
