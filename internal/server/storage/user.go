package storage

import (
	"context"

	"github.com/iudanet/escrutinio/internal/models"
)

// UserStorage defines interface for user display data persistence.
// Accounts are issued by the external identity service; only the fields
// shown in audit projections are kept here.
type UserStorage interface {
	// CreateUser creates a new user in the storage
	// Returns ErrUserAlreadyExists if username already exists
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByID retrieves user by ID
	// Returns ErrUserNotFound if user doesn't exist
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
}
