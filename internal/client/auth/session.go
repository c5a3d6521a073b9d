// Package auth хранит сессию оператора на полевом устройстве.
// Токен выдается внешним сервисом идентификации и вводится один раз
// командой login, дальше он открывается PIN-кодом.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/iudanet/escrutinio/internal/client/storage"
	"github.com/iudanet/escrutinio/internal/models"
	"github.com/iudanet/escrutinio/internal/validation"
)

// Ошибки сессии
var (
	ErrNotLoggedIn    = errors.New("not logged in")
	ErrSessionExpired = errors.New("session expired, login again")
	ErrInvalidToken   = errors.New("invalid access token")
)

// Service defines the device session operations used by the CLI
type Service interface {
	// Login проверяет формат токена и сохраняет его под PIN
	Login(ctx context.Context, token, pin string) (*storage.AuthData, error)

	// Token расшифровывает токен текущей сессии
	Token(ctx context.Context, pin string) (string, error)

	// Current возвращает сессию без расшифровки токена
	Current(ctx context.Context) (*storage.AuthData, error)

	// Logout удаляет сессию с устройства
	Logout(ctx context.Context) error
}

// tokenClaims поля access token, нужные устройству для отображения
type tokenClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwtlib.RegisteredClaims
}

// Session реализует Service поверх AuthStore
type Session struct {
	store  *AuthStore
	meta   storage.MetadataStorage
	logger *slog.Logger
}

var _ Service = (*Session)(nil)

// NewSession создает сервис сессии устройства
func NewSession(authStorage storage.AuthStorage, meta storage.MetadataStorage, logger *slog.Logger) *Session {
	return &Session{
		store:  NewAuthStore(authStorage),
		meta:   meta,
		logger: logger,
	}
}

// Login сохраняет токен, запечатанный ключом из PIN.
// Подпись токена здесь не проверяется: ее проверяет сервер на каждом запросе.
func (s *Session) Login(ctx context.Context, token, pin string) (*storage.AuthData, error) {
	if err := validation.ValidatePIN(pin); err != nil {
		return nil, models.NewValidationError("pin", err.Error())
	}

	var claims tokenClaims
	if _, _, err := jwtlib.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: user_id claim is missing", ErrInvalidToken)
	}

	deviceID, err := s.meta.GetDeviceID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get device id: %w", err)
	}

	auth := &storage.AuthData{
		UserID:   claims.UserID,
		Username: claims.Username,
		Role:     claims.Role,
	}
	if claims.ExpiresAt != nil {
		auth.ExpiresAt = claims.ExpiresAt.Unix()
	}

	if err := s.store.Save(ctx, auth, token, pin, deviceID); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	s.logger.Info("Session saved", "user_id", auth.UserID, "role", auth.Role, "device_id", deviceID)
	return auth, nil
}

// Token открывает токен текущей сессии
func (s *Session) Token(ctx context.Context, pin string) (string, error) {
	ok, err := s.store.IsAuthenticated(ctx)
	if err != nil {
		return "", err
	}
	if !ok {
		if _, err := s.store.Peek(ctx); errors.Is(err, storage.ErrAuthNotFound) {
			return "", ErrNotLoggedIn
		}
		return "", ErrSessionExpired
	}

	deviceID, err := s.meta.GetDeviceID(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get device id: %w", err)
	}

	_, token, err := s.store.Open(ctx, pin, deviceID)
	if err != nil {
		return "", err
	}
	return token, nil
}

// Current возвращает данные сессии без токена
func (s *Session) Current(ctx context.Context) (*storage.AuthData, error) {
	auth, err := s.store.Peek(ctx)
	if errors.Is(err, storage.ErrAuthNotFound) {
		return nil, ErrNotLoggedIn
	}
	return auth, err
}

// Logout удаляет сессию
func (s *Session) Logout(ctx context.Context) error {
	if err := s.store.Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return ErrNotLoggedIn
		}
		return fmt.Errorf("failed to delete session: %w", err)
	}
	s.logger.Info("Session removed")
	return nil
}
