package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iudanet/escrutinio/internal/models"
	"github.com/iudanet/escrutinio/internal/server/storage"
	"github.com/iudanet/escrutinio/pkg/api"
)

func TestSendDomainError(t *testing.T) {
	tests := []struct {
		err       error
		name      string
		wantField string
		wantCode  int
	}{
		{name: "validation", err: models.NewValidationError("votes[0].delta", "must be at most 1000"), wantCode: http.StatusBadRequest, wantField: "votes[0].delta"},
		{name: "wrapped validation", err: fmt.Errorf("apply: %w", models.NewValidationError("escrutinioId", "is required")), wantCode: http.StatusBadRequest, wantField: "escrutinioId"},
		{name: "state conflict", err: models.StateConflict("papeleta p1 is ANULADA"), wantCode: http.StatusConflict},
		{name: "forbidden", err: models.ErrForbidden, wantCode: http.StatusForbidden},
		{name: "escrutinio not found", err: storage.ErrEscrutinioNotFound, wantCode: http.StatusNotFound},
		{name: "papeleta not found", err: storage.ErrPapeletaNotFound, wantCode: http.StatusNotFound},
		{name: "integrity", err: fmt.Errorf("%w: negative counter", models.ErrIntegrity), wantCode: http.StatusUnprocessableEntity},
		{name: "unknown", err: errors.New("database is locked"), wantCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			sendDomainError(setupTestLogger(), w, tt.err)

			assert.Equal(t, tt.wantCode, w.Code)
			resp := decode[api.ErrorResponse](t, w)
			assert.Equal(t, http.StatusText(tt.wantCode), resp.Error)
			assert.Equal(t, tt.wantField, resp.Field)
		})
	}
}
