package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/prep-service/internal/models"
)

// UserRepository interface for user lookups (read-only for this service)
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// ErrNotFound is returned by repositories that are not backed by gorm
var ErrNotFound = errors.New("record not found")

// IsNotFoundError reports whether err means the record does not exist
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, ErrNotFound)
}
