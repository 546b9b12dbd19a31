// Package testutil builds throwaway databases and fixtures for handler and service tests.
package testutil

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a migrated in-memory SQLite database. One connection keeps every
// statement on the same memory database and serializes transactions.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, models.Migrate(db))
	return db
}

func SeedUser(t *testing.T, db *gorm.DB, email string, role models.Role) models.User {
	t.Helper()
	u := models.User{Name: "Test " + email, Email: email, PasswordHash: "x", Role: role}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func SeedProduct(t *testing.T, db *gorm.DB, name, price string) models.Product {
	t.Helper()
	p := models.Product{Name: name, Price: decimal.RequireFromString(price), Image: "https://img.test/" + name + ".png"}
	require.NoError(t, db.Create(&p).Error)
	return p
}
