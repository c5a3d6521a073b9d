package models

import (
	"errors"
	"fmt"
)

var (
	// ErrStateConflict indicates that an operation targets a ballot or
	// escrutinio that is not in the required state. Not retried.
	ErrStateConflict = errors.New("state conflict")

	// ErrIntegrity indicates an invariant violation detected inside an
	// apply transaction (for example a negative counter). The transaction
	// is aborted.
	ErrIntegrity = errors.New("integrity violation")

	// ErrForbidden indicates that the actor's role does not allow the operation.
	ErrForbidden = errors.New("forbidden")
)

// ValidationError описывает первое поле, не прошедшее проверку.
// Клиент должен исправить данные, повторная отправка без исправления бессмысленна.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements error
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

// NewValidationError создает ошибку валидации для поля
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// StateConflict оборачивает ErrStateConflict с описанием
func StateConflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrStateConflict, fmt.Sprintf(format, args...))
}

// IsPermanent reports whether err belongs to the non-retryable part of the
// taxonomy: validation failures and state conflicts.
func IsPermanent(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) || errors.Is(err, ErrStateConflict)
}
