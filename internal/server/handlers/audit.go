package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/iudanet/escrutinio/internal/models"
	"github.com/iudanet/escrutinio/pkg/api"
)

// AuditService чтение журнала и раскрытие позиции
type AuditService interface {
	List(ctx context.Context, escrutinioID string) ([]*models.AuditView, error)
	RevealLocation(ctx context.Context, escrutinioID string, actor models.Actor) (*models.GPS, error)
}

// AuditHandler handles audit reads
type AuditHandler struct {
	logger *slog.Logger
	audit  AuditService
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(logger *slog.Logger, audit AuditService) *AuditHandler {
	return &AuditHandler{
		logger: logger,
		audit:  audit,
	}
}

// List обрабатывает GET /api/v1/escrutinios/{id}/audit
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireActor(h.logger, w, r); !ok {
		return
	}

	escrutinioID := r.PathValue("id")

	entries, err := h.audit.List(r.Context(), escrutinioID)
	if err != nil {
		sendDomainError(h.logger, w, err)
		return
	}

	resp := api.AuditListResponse{
		EscrutinioID: escrutinioID,
		Entries:      make([]api.AuditEntry, 0, len(entries)),
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, api.AuditEntry{
			ID:          e.ID,
			Action:      e.Action,
			Description: e.Description,
			ActorID:     e.ActorID,
			ActorName:   e.ActorName,
			ActorEmail:  e.ActorEmail,
			ActorRole:   e.ActorRole,
			Metadata:    e.Metadata,
			IPAddress:   e.IPAddress,
			UserAgent:   e.UserAgent,
			CreatedAt:   e.CreatedAt,
		})
	}

	sendJSON(h.logger, w, resp, http.StatusOK)
}

// Location обрабатывает GET /api/v1/escrutinios/{id}/location
// Только ADMIN; каждое раскрытие записывается в аудит
func (h *AuditHandler) Location(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(h.logger, w, r)
	if !ok {
		return
	}

	escrutinioID := r.PathValue("id")

	gps, err := h.audit.RevealLocation(r.Context(), escrutinioID, actor)
	if err != nil {
		sendDomainError(h.logger, w, err)
		return
	}

	resp := api.LocationResponse{EscrutinioID: escrutinioID}
	if gps != nil {
		resp.GPS = &api.GPS{
			Latitude:  gps.Latitude,
			Longitude: gps.Longitude,
			Accuracy:  gps.Accuracy,
		}
	}

	sendJSON(h.logger, w, resp, http.StatusOK)
}
