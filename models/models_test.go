package models

import (
	"regexp"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}

	tables := []string{
		`CREATE TABLE IF NOT EXISTS "orders" (
			"id" INTEGER PRIMARY KEY AUTOINCREMENT, "user_id" TEXT NOT NULL, "user_email" TEXT,
			"order_number" TEXT NOT NULL UNIQUE, "status" TEXT DEFAULT 'processing',
			"subtotal" REAL NOT NULL, "shipping" REAL NOT NULL DEFAULT 0, "tax" REAL NOT NULL DEFAULT 0,
			"total" REAL NOT NULL, "payment_intent_id" TEXT NOT NULL UNIQUE, "shipping_address" TEXT,
			"created_at" DATETIME, "updated_at" DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS "order_items" (
			"id" INTEGER PRIMARY KEY AUTOINCREMENT, "order_id" INTEGER NOT NULL, "product_id" INTEGER NOT NULL,
			"title" TEXT NOT NULL, "price" REAL NOT NULL, "quantity" INTEGER NOT NULL, "image_url" TEXT,
			"created_at" DATETIME
		)`,
	}

	for _, sql := range tables {
		if err := db.Exec(sql).Error; err != nil {
			t.Fatal(err)
		}
	}
	return db
}

var orderNumberPattern = regexp.MustCompile(`^ORD-\d{8}-[0-9A-F]{8}$`)

func TestNewOrderNumberFormat(t *testing.T) {
	now := time.Date(2026, 3, 9, 23, 0, 0, 0, time.UTC)
	n := NewOrderNumber(now)
	if !orderNumberPattern.MatchString(n) {
		t.Fatalf("unexpected order number %q", n)
	}
	if n[4:12] != "20260309" {
		t.Errorf("expected date segment 20260309, got %s", n[4:12])
	}
}

func TestOrderBeforeCreateAssignsNumberAndStatus(t *testing.T) {
	db := setupTestDB(t)
	order := Order{
		UserID:          "user-1",
		Subtotal:        19.99,
		Shipping:        9.99,
		Tax:             1.60,
		Total:           31.58,
		PaymentIntentID: "pi_123",
		Items:           []OrderItem{{ProductID: 1, Title: "Mug", Price: 19.99, Quantity: 1}},
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatal(err)
	}
	if !orderNumberPattern.MatchString(order.OrderNumber) {
		t.Errorf("order number not generated: %q", order.OrderNumber)
	}
	if order.Status != OrderStatusProcessing {
		t.Errorf("expected processing, got %s", order.Status)
	}
	if order.Items[0].OrderID != order.ID {
		t.Error("order items should be linked to the order")
	}
}

func TestOrderBeforeCreatePreservesNumber(t *testing.T) {
	db := setupTestDB(t)
	order := Order{UserID: "u", OrderNumber: "ORD-20260101-AAAAAAAA", Subtotal: 1, Total: 1, PaymentIntentID: "pi_1"}
	if err := db.Create(&order).Error; err != nil {
		t.Fatal(err)
	}
	if order.OrderNumber != "ORD-20260101-AAAAAAAA" {
		t.Error("order number should have been preserved")
	}
}

func TestShippingAddressSnapshotRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	addr := &ShippingAddress{FullName: "Ada", Email: "ada@example.com", Phone: "555", AddressLine1: "1 Main", City: "X", State: "CA", PostalCode: "90001", Country: "US"}
	order := Order{UserID: "u", Subtotal: 1, Total: 1, PaymentIntentID: "pi_2", ShippingAddress: addr}
	if err := db.Create(&order).Error; err != nil {
		t.Fatal(err)
	}

	var loaded Order
	if err := db.First(&loaded, order.ID).Error; err != nil {
		t.Fatal(err)
	}
	if loaded.ShippingAddress == nil || loaded.ShippingAddress.City != "X" {
		t.Errorf("shipping address not restored: %+v", loaded.ShippingAddress)
	}
}

func TestIsValidStatus(t *testing.T) {
	for _, s := range []OrderStatus{"processing", "shipping", "delivered"} {
		if !IsValidStatus(s) {
			t.Errorf("%s should be valid", s)
		}
	}
	for _, s := range []OrderStatus{"", "cancelled", "PROCESSING"} {
		if IsValidStatus(s) {
			t.Errorf("%q should be invalid", s)
		}
	}
}

func TestProductIsDiscounted(t *testing.T) {
	orig := 30.0
	p := Product{Price: 20, OriginalPrice: &orig}
	if !p.IsDiscounted() {
		t.Error("expected discounted")
	}
	p.OriginalPrice = nil
	if p.IsDiscounted() {
		t.Error("no original price means no discount")
	}
}

func TestNewUserAddressDefaultsCountry(t *testing.T) {
	a := NewUserAddress("u1", ShippingAddress{FullName: "Ada"})
	if a.Country != "US" {
		t.Errorf("expected US default, got %q", a.Country)
	}
	if a.Shipping().FullName != "Ada" {
		t.Error("round trip lost fields")
	}
}

func TestCartIsAnonymous(t *testing.T) {
	hash := "abc"
	user := "u1"
	if !(&Cart{SessionHash: &hash}).IsAnonymous() {
		t.Error("session-owned cart should be anonymous")
	}
	if (&Cart{UserID: &user}).IsAnonymous() {
		t.Error("user-owned cart should not be anonymous")
	}
}
