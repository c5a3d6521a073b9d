package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/iudanet/escrutinio/internal/client/storage"
	"github.com/iudanet/escrutinio/internal/crypto"
)

// ErrWrongPIN возвращается, если токен не расшифровывается ключом из PIN
var ErrWrongPIN = errors.New("wrong PIN")

// AuthStore шифрующий слой между сессией и хранилищем.
// Токен запечатывается ключом, выведенным из PIN и device id;
// в storage попадает только шифротекст.
type AuthStore struct {
	storage storage.AuthStorage
}

// NewAuthStore creates a new AuthStore with encryption layer
func NewAuthStore(storage storage.AuthStorage) *AuthStore {
	return &AuthStore{storage: storage}
}

// Save запечатывает token и сохраняет сессию. Для каждой сессии генерируется новая соль.
func (s *AuthStore) Save(ctx context.Context, auth *storage.AuthData, token, pin, deviceID string) error {
	if auth == nil {
		return fmt.Errorf("auth data is nil")
	}

	salt, err := crypto.GenerateSalt()
	if err != nil {
		return err
	}

	key, err := crypto.DeriveDeviceKey(pin, deviceID, salt)
	if err != nil {
		return fmt.Errorf("failed to derive device key: %w", err)
	}

	sealed, err := crypto.Seal([]byte(token), key, []byte(deviceID))
	if err != nil {
		return fmt.Errorf("failed to seal token: %w", err)
	}

	authCopy := *auth // копируем структуру, чтобы не менять входящую
	authCopy.SealedToken = sealed
	authCopy.Salt = base64.StdEncoding.EncodeToString(salt)

	return s.storage.SaveAuth(ctx, &authCopy)
}

// Open загружает сессию и расшифровывает токен
func (s *AuthStore) Open(ctx context.Context, pin, deviceID string) (*storage.AuthData, string, error) {
	stored, err := s.storage.GetAuth(ctx)
	if err != nil {
		return nil, "", err
	}

	salt, err := base64.StdEncoding.DecodeString(stored.Salt)
	if err != nil {
		return nil, "", fmt.Errorf("failed to base64 decode salt: %w", err)
	}

	key, err := crypto.DeriveDeviceKey(pin, deviceID, salt)
	if err != nil {
		return nil, "", fmt.Errorf("failed to derive device key: %w", err)
	}

	token, err := crypto.Open(stored.SealedToken, key, []byte(deviceID))
	if err != nil {
		if errors.Is(err, crypto.ErrOpenFailed) {
			return nil, "", ErrWrongPIN
		}
		return nil, "", fmt.Errorf("failed to open token: %w", err)
	}

	return stored, string(token), nil
}

// Peek возвращает сессию без расшифровки (для отображения статуса)
func (s *AuthStore) Peek(ctx context.Context) (*storage.AuthData, error) {
	return s.storage.GetAuth(ctx)
}

// Delete удаляет сессию
func (s *AuthStore) Delete(ctx context.Context) error {
	return s.storage.DeleteAuth(ctx)
}

// IsAuthenticated проверяет наличие непросроченной сессии
func (s *AuthStore) IsAuthenticated(ctx context.Context) (bool, error) {
	return s.storage.IsAuthenticated(ctx)
}
