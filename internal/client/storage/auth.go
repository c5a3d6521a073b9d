package storage

import (
	"context"
)

// AuthStorage defines interface for storing the device session.
// It works with raw data (token already sealed) and doesn't perform
// any encryption/decryption itself.
type AuthStorage interface {
	// SaveAuth stores session data as-is (token should already be sealed)
	SaveAuth(ctx context.Context, auth *AuthData) error

	// GetAuth retrieves stored session data as-is
	// Returns ErrAuthNotFound if no session exists
	GetAuth(ctx context.Context) (*AuthData, error)

	// DeleteAuth removes stored session data (logout)
	DeleteAuth(ctx context.Context) error

	// IsAuthenticated checks if a session exists and is not expired
	IsAuthenticated(ctx context.Context) (bool, error)
}

// AuthData represents the device session in storage.
// SealedToken is the access token encrypted with the PIN-derived key;
// the plaintext token never touches disk.
type AuthData struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	Role        string `json:"role"`
	SealedToken string `json:"sealed_token"`
	Salt        string `json:"salt"` // base64 соль для ключа устройства
	ExpiresAt   int64  `json:"expires_at"`
}
