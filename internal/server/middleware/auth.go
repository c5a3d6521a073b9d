package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/iudanet/escrutinio/internal/server/handlers"
	"github.com/iudanet/escrutinio/internal/server/jwt"
)

// AuthMiddleware создает middleware для проверки JWT токена.
// Токены выпускает внешний сервис идентификации; здесь только
// проверка подписи и извлечение актора (id, username, роль).
func AuthMiddleware(logger *slog.Logger, jwtConfig jwt.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Извлекаем токен из заголовка Authorization
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn("Missing Authorization header", "path", r.URL.Path)
				writeError(w, http.StatusUnauthorized, "missing token")
				return
			}

			// Ожидаем формат: "Bearer <token>"
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
				logger.Warn("Invalid Authorization header format")
				writeError(w, http.StatusUnauthorized, "invalid token format")
				return
			}

			claims, err := jwt.Validate(jwtConfig, parts[1])
			if err != nil {
				logger.Warn("Invalid access token", "error", err)
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			actor := claims.Actor()
			actor.IPAddress = getClientIP(r)
			actor.UserAgent = r.UserAgent()

			logger.Debug("User authenticated", "user_id", actor.UserID, "role", actor.Role)

			next.ServeHTTP(w, r.WithContext(handlers.WithActor(r.Context(), actor)))
		})
	}
}
