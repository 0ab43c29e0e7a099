package database

import (
	"path/filepath"
	"testing"

	"storefront/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}
	if err := Migrate(db); err != nil {
		t.Fatal(err)
	}
	return db
}

func TestSeedCatalogNew(t *testing.T) {
	db := setupTestDB(t)

	if err := SeedCatalog(db); err != nil {
		t.Fatal(err)
	}

	var count int64
	db.Model(&models.Product{}).Count(&count)
	if count != 3 {
		t.Errorf("expected 3 products, got %d", count)
	}
}

func TestSeedCatalogAlreadySeeded(t *testing.T) {
	db := setupTestDB(t)

	if err := SeedCatalog(db); err != nil {
		t.Fatal(err)
	}
	// Second call should skip
	if err := SeedCatalog(db); err != nil {
		t.Fatal(err)
	}

	var count int64
	db.Model(&models.Product{}).Count(&count)
	if count != 3 {
		t.Errorf("expected 3 products after reseed, got %d", count)
	}
}

func TestCartOwnerConstraint(t *testing.T) {
	db := setupTestDB(t)

	if err := db.Exec(`INSERT INTO carts (created_at, updated_at) VALUES (datetime('now'), datetime('now'))`).Error; err == nil {
		t.Error("cart without an owner should be rejected")
	}

	user, hash := "u1", "h1"
	if err := db.Create(&models.Cart{UserID: &user, SessionHash: &hash}).Error; err == nil {
		t.Error("cart with two owners should be rejected")
	}

	if err := db.Create(&models.Cart{UserID: &user}).Error; err != nil {
		t.Errorf("user cart should be accepted: %v", err)
	}
}

func TestCartItemQuantityConstraint(t *testing.T) {
	db := setupTestDB(t)
	SeedCatalog(db)

	user := "u1"
	cart := models.Cart{UserID: &user}
	db.Create(&cart)

	if err := db.Create(&models.CartItem{CartID: cart.ID, ProductID: 1, Quantity: 0}).Error; err == nil {
		t.Error("zero quantity should be rejected")
	}
}

func TestOpenSQLiteURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	db, err := Open("sqlite://" + path)
	if err != nil {
		t.Fatal(err)
	}
	if db.Dialector.Name() != "sqlite" {
		t.Errorf("expected sqlite dialector, got %s", db.Dialector.Name())
	}
	if !db.Migrator().HasTable("cart_items") {
		t.Error("schema should have been applied")
	}
}
