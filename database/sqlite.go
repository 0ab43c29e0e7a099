package database

import (
	"gorm.io/gorm"
)

// SQLiteSchema mirrors the postgres schema produced by Migrate, including the
// constraints that AutoMigrate cannot express.
var SQLiteSchema = []string{
	`CREATE TABLE IF NOT EXISTS "products" (
		"id" INTEGER PRIMARY KEY AUTOINCREMENT, "title" TEXT NOT NULL, "price" REAL NOT NULL,
		"original_price" REAL, "description" TEXT, "image_url" TEXT,
		"created_at" DATETIME, "updated_at" DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS "carts" (
		"id" INTEGER PRIMARY KEY AUTOINCREMENT, "user_id" TEXT UNIQUE, "session_hash" TEXT UNIQUE,
		"created_at" DATETIME, "updated_at" DATETIME,
		CONSTRAINT "carts_single_owner" CHECK (("user_id" IS NULL) <> ("session_hash" IS NULL))
	)`,
	`CREATE TABLE IF NOT EXISTS "cart_items" (
		"id" INTEGER PRIMARY KEY AUTOINCREMENT,
		"cart_id" INTEGER NOT NULL REFERENCES "carts"("id") ON DELETE CASCADE,
		"product_id" INTEGER NOT NULL REFERENCES "products"("id"),
		"quantity" INTEGER NOT NULL DEFAULT 1 CHECK ("quantity" >= 1),
		"created_at" DATETIME, "updated_at" DATETIME,
		UNIQUE ("cart_id", "product_id")
	)`,
	`CREATE TABLE IF NOT EXISTS "orders" (
		"id" INTEGER PRIMARY KEY AUTOINCREMENT, "user_id" TEXT NOT NULL, "user_email" TEXT,
		"order_number" TEXT NOT NULL UNIQUE, "status" TEXT DEFAULT 'processing',
		"subtotal" REAL NOT NULL, "shipping" REAL NOT NULL DEFAULT 0, "tax" REAL NOT NULL DEFAULT 0,
		"total" REAL NOT NULL, "payment_intent_id" TEXT NOT NULL UNIQUE, "shipping_address" TEXT,
		"created_at" DATETIME, "updated_at" DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS "order_items" (
		"id" INTEGER PRIMARY KEY AUTOINCREMENT,
		"order_id" INTEGER NOT NULL REFERENCES "orders"("id") ON DELETE CASCADE,
		"product_id" INTEGER NOT NULL, "title" TEXT NOT NULL, "price" REAL NOT NULL,
		"quantity" INTEGER NOT NULL, "image_url" TEXT, "created_at" DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS "user_addresses" (
		"id" INTEGER PRIMARY KEY AUTOINCREMENT, "user_id" TEXT NOT NULL UNIQUE,
		"full_name" TEXT NOT NULL, "email" TEXT NOT NULL, "phone_country_code" TEXT,
		"phone" TEXT NOT NULL, "address_line1" TEXT NOT NULL, "address_line2" TEXT,
		"city" TEXT NOT NULL, "state" TEXT NOT NULL, "postal_code" TEXT NOT NULL,
		"country" TEXT NOT NULL DEFAULT 'US', "created_at" DATETIME, "updated_at" DATETIME
	)`,
}

func ApplySQLiteSchema(db *gorm.DB) error {
	if err := db.Exec(`PRAGMA foreign_keys = ON`).Error; err != nil {
		return err
	}
	for _, stmt := range SQLiteSchema {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
