package models

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/junaidrashid-git/storefront-api/pkg/outbox"
	"gorm.io/gorm"
)

// Migrate creates or updates every table the storefront owns, the outbox included.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Product{},
		&Cart{},
		&CartItem{},
		&Order{},
		&OrderItem{},
		&outbox.Event{},
	)
}

// IsUniqueViolation reports whether err came from a unique index, on Postgres or SQLite.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint")
}
