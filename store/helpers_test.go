package store

import (
	"testing"

	"storefront/database"
	"storefront/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func freshDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	// every connection to :memory: is a separate database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.ApplySQLiteSchema(db))
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, title string, price float64) models.Product {
	t.Helper()
	p := models.Product{Title: title, Price: price, ImageURL: "https://img.example.com/" + title + ".jpg"}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func newCartStore(db *gorm.DB) *CartStore {
	return NewCartStore(db, NewSessionHasher("test-key"))
}
