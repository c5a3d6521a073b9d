// Package jwt resolves the acting user from access tokens issued by the
// external identity service.
package jwt

import (
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/iudanet/escrutinio/internal/models"
)

// DefaultIssuer издатель токенов по умолчанию
const DefaultIssuer = "escrutinio"

// ErrUnknownRole возвращается для токена с ролью вне списка
var ErrUnknownRole = errors.New("unknown role")

// Config содержит конфигурацию для JWT
type Config struct {
	Issuer string
	Secret []byte
	TTL    time.Duration
}

// Claims представляет JWT claims: кто действует и с какой ролью
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwtlib.RegisteredClaims
}

// Actor converts claims to the acting identity
func (c *Claims) Actor() models.Actor {
	return models.Actor{
		UserID:   c.UserID,
		Username: c.Username,
		Role:     c.Role,
	}
}

// Issue подписывает access token для пользователя.
// Используется для выдачи токенов устройствам операторов и в тестах.
func Issue(cfg Config, user *models.User) (string, time.Time, error) {
	if !validRole(user.Role) {
		return "", time.Time{}, fmt.Errorf("%w: %q", ErrUnknownRole, user.Role)
	}

	now := time.Now()
	expiresAt := now.Add(cfg.TTL)

	claims := Claims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwtlib.NewNumericDate(expiresAt),
			IssuedAt:  jwtlib.NewNumericDate(now),
			NotBefore: jwtlib.NewNumericDate(now),
			Issuer:    issuer(cfg),
		},
	}

	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	signed, err := token.SignedString(cfg.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, expiresAt, nil
}

// Validate проверяет подпись, срок действия, издателя и роль токена
func Validate(cfg Config, tokenString string) (*Claims, error) {
	token, err := jwtlib.ParseWithClaims(tokenString, &Claims{}, func(token *jwtlib.Token) (any, error) {
		// Проверяем что используется правильный алгоритм подписи
		if _, ok := token.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return cfg.Secret, nil
	}, jwtlib.WithIssuer(issuer(cfg)), jwtlib.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	if claims.UserID == "" {
		return nil, fmt.Errorf("token without user id")
	}
	if !validRole(claims.Role) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRole, claims.Role)
	}

	return claims, nil
}

func issuer(cfg Config) string {
	if cfg.Issuer == "" {
		return DefaultIssuer
	}
	return cfg.Issuer
}

func validRole(role string) bool {
	switch role {
	case models.RoleAdmin, models.RoleOperator, models.RoleObserver:
		return true
	}
	return false
}
