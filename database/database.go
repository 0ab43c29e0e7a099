package database

import (
	"fmt"
	"log"
	"os"
	"strings"

	"storefront/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const sqlitePrefix = "sqlite://"

// Connect opens the database named by DATABASE_URL. A sqlite:// URL opens a
// local SQLite file with the storefront schema applied, which is handy for
// development without a postgres instance.
func Connect() (*gorm.DB, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "host=localhost user=postgres password=postgres dbname=storefront port=5432 sslmode=disable"
	}
	return Open(dsn)
}

func Open(dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}

	if strings.HasPrefix(dsn, sqlitePrefix) {
		db, err := gorm.Open(sqlite.Open(strings.TrimPrefix(dsn, sqlitePrefix)), cfg)
		if err != nil {
			return nil, err
		}
		// sqlite has one writer, and each :memory: connection is its own database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
		if err := ApplySQLiteSchema(db); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := gorm.Open(postgres.Open(dsn), cfg)
	if err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if db.Dialector.Name() == "sqlite" {
		return ApplySQLiteSchema(db)
	}

	if err := db.AutoMigrate(
		&models.Product{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.UserAddress{},
	); err != nil {
		return err
	}

	// AutoMigrate does not manage CHECK constraints, so they are repaired here.
	if err := ensureCartConstraints(db); err != nil {
		return err
	}

	return nil
}

func ensureCartConstraints(db *gorm.DB) error {
	if err := db.Exec(`
DO $$
BEGIN
  IF to_regclass('public.carts') IS NULL THEN
    RETURN;
  END IF;

  IF NOT EXISTS (
    SELECT 1 FROM pg_constraint
     WHERE conrelid = 'carts'::regclass AND conname = 'carts_single_owner'
  ) THEN
    EXECUTE 'ALTER TABLE carts ADD CONSTRAINT carts_single_owner
             CHECK ((user_id IS NULL) <> (session_hash IS NULL))';
  END IF;
END $$;
	`).Error; err != nil {
		return fmt.Errorf("failed to ensure carts owner constraint: %w", err)
	}

	if err := db.Exec(`
DO $$
BEGIN
  IF to_regclass('public.cart_items') IS NULL THEN
    RETURN;
  END IF;

  IF NOT EXISTS (
    SELECT 1 FROM pg_constraint
     WHERE conrelid = 'cart_items'::regclass AND conname = 'cart_items_quantity_positive'
  ) THEN
    EXECUTE 'ALTER TABLE cart_items ADD CONSTRAINT cart_items_quantity_positive CHECK (quantity >= 1)';
  END IF;
END $$;
	`).Error; err != nil {
		return fmt.Errorf("failed to ensure cart_items quantity constraint: %w", err)
	}

	return nil
}

// SeedCatalog inserts a small demo catalog when the products table is empty.
// Catalog management happens outside this service, so this only exists to
// make a fresh environment usable.
func SeedCatalog(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Product{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	was := 59.99
	products := []models.Product{
		{Title: "Canvas Tote", Price: 24.50, Description: "Heavy cotton tote bag"},
		{Title: "Ceramic Mug", Price: 19.99, Description: "Stoneware mug, 350ml"},
		{Title: "Wool Throw", Price: 49.99, OriginalPrice: &was, Description: "Merino blend throw blanket"},
	}
	if err := db.Create(&products).Error; err != nil {
		return err
	}

	log.Printf("Seeded %d catalog products", len(products))
	return nil
}
