package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/iudanet/escrutinio/pkg/api"
)

// Chain оборачивает handler в middleware; первый в списке - внешний
func Chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// writeError отвечает JSON ошибкой в формате API
func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(api.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}
