package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/iudanet/escrutinio/internal/models"
	"github.com/iudanet/escrutinio/internal/server/storage"
	"github.com/iudanet/escrutinio/pkg/api"
)

// maxBodySize ограничение размера тела запроса
const maxBodySize = 1 << 20

// sendJSON отправляет JSON ответ
func sendJSON(logger *slog.Logger, w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

// sendError отправляет JSON ошибку
func sendError(logger *slog.Logger, w http.ResponseWriter, statusCode int, message, field string) {
	sendJSON(logger, w, api.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Field:   field,
	}, statusCode)
}

// sendDomainError переводит ошибку домена в HTTP статус
func sendDomainError(logger *slog.Logger, w http.ResponseWriter, err error) {
	var ve *models.ValidationError

	switch {
	case errors.As(err, &ve):
		sendError(logger, w, http.StatusBadRequest, ve.Message, ve.Field)
	case errors.Is(err, models.ErrStateConflict):
		sendError(logger, w, http.StatusConflict, err.Error(), "")
	case errors.Is(err, models.ErrForbidden):
		sendError(logger, w, http.StatusForbidden, err.Error(), "")
	case errors.Is(err, storage.ErrEscrutinioNotFound),
		errors.Is(err, storage.ErrPapeletaNotFound):
		sendError(logger, w, http.StatusNotFound, err.Error(), "")
	case errors.Is(err, models.ErrIntegrity):
		// Нарушение инварианта: транзакция откатана, сообщаем громко
		logger.Error("Integrity violation", "error", err)
		sendError(logger, w, http.StatusUnprocessableEntity, err.Error(), "")
	default:
		logger.Error("Internal error", "error", err)
		sendError(logger, w, http.StatusInternalServerError, "internal server error", "")
	}
}

// decodeJSON читает тело запроса. Пустое тело допустимо, если allowEmpty.
func decodeJSON(r *http.Request, w http.ResponseWriter, v any, allowEmpty bool) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return nil
		}
		return models.NewValidationError("body", fmt.Sprintf("invalid JSON: %v", err))
	}

	return nil
}

// requireActor извлекает актора или отвечает 401
func requireActor(logger *slog.Logger, w http.ResponseWriter, r *http.Request) (models.Actor, bool) {
	actor, ok := GetActor(r.Context())
	if !ok {
		logger.Error("Actor not found in context")
		sendError(logger, w, http.StatusUnauthorized, "missing identity", "")
	}
	return actor, ok
}
