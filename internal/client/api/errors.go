package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/iudanet/escrutinio/internal/models"
)

// StatusError ответ сервера с кодом вне 2xx
type StatusError struct {
	Field      string
	Message    string
	Code       int
	RetryAfter time.Duration // только для 429
}

// Error implements error
func (e *StatusError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("server error (%d): %s: %s", e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("server error (%d): %s", e.Code, e.Message)
}

// Unwrap переводит HTTP статус обратно в доменную таксономию ошибок
func (e *StatusError) Unwrap() error {
	switch e.Code {
	case http.StatusBadRequest:
		return models.NewValidationError(e.Field, e.Message)
	case http.StatusConflict:
		return models.ErrStateConflict
	case http.StatusUnprocessableEntity:
		return models.ErrIntegrity
	case http.StatusForbidden:
		return models.ErrForbidden
	}
	return nil
}

// IsPermanent сообщает, что повтор запроса без изменений не поможет.
// Сетевые ошибки, 401, 429 и 5xx считаются временными.
func IsPermanent(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code {
	case http.StatusBadRequest,
		http.StatusForbidden,
		http.StatusNotFound,
		http.StatusConflict,
		http.StatusUnprocessableEntity:
		return true
	}
	return false
}

// RetryAfter возвращает подсказку сервера о паузе перед повтором
func RetryAfter(err error) time.Duration {
	var se *StatusError
	if errors.As(err, &se) {
		return se.RetryAfter
	}
	return 0
}
