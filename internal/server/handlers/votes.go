package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/iudanet/escrutinio/internal/crypto"
	"github.com/iudanet/escrutinio/internal/models"
	"github.com/iudanet/escrutinio/internal/validation"
	"github.com/iudanet/escrutinio/pkg/api"
)

// TallyService применение пакетов и чтение счетчиков
type TallyService interface {
	Apply(ctx context.Context, payload *models.VotePayload, actor models.Actor) (*models.ApplyResult, error)
	Counters(ctx context.Context, escrutinioID string) (*models.Escrutinio, map[string]int64, error)
	Complete(ctx context.Context, escrutinioID, evidenceURL string, evidence []byte, actor models.Actor) (*models.Escrutinio, error)
}

// VotesHandler handles vote-delta batches of an escrutinio
type VotesHandler struct {
	logger *slog.Logger
	tally  TallyService
}

// NewVotesHandler creates a new votes handler
func NewVotesHandler(logger *slog.Logger, tally TallyService) *VotesHandler {
	return &VotesHandler{
		logger: logger,
		tally:  tally,
	}
}

// Submit обрабатывает POST /api/v1/escrutinios/{id}/votes
// Повтор уже примененного clientBatchId возвращает прежний результат с duplicate=true
func (h *VotesHandler) Submit(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(h.logger, w, r)
	if !ok {
		return
	}

	escrutinioID := r.PathValue("id")

	var req api.VotePayload
	if err := decodeJSON(r, w, &req, false); err != nil {
		sendDomainError(h.logger, w, err)
		return
	}

	// Идентификатор из пути обязателен и должен совпадать с телом
	if req.EscrutinioID == "" {
		req.EscrutinioID = escrutinioID
	}
	if req.EscrutinioID != escrutinioID {
		sendError(h.logger, w, http.StatusBadRequest, "does not match escrutinio in path", "escrutinioId")
		return
	}

	payload, err := validation.ValidateVotePayload(&req)
	if err != nil {
		h.logger.Warn("Invalid vote payload", "escrutinio_id", escrutinioID, "error", err)
		sendDomainError(h.logger, w, err)
		return
	}

	result, err := h.tally.Apply(r.Context(), payload, actor)
	if err != nil {
		sendDomainError(h.logger, w, err)
		return
	}

	sendJSON(h.logger, w, toVoteResponse(result), http.StatusOK)
}

// Counters обрабатывает GET /api/v1/escrutinios/{id}/counters
func (h *VotesHandler) Counters(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireActor(h.logger, w, r); !ok {
		return
	}

	e, counters, err := h.tally.Counters(r.Context(), r.PathValue("id"))
	if err != nil {
		sendDomainError(h.logger, w, err)
		return
	}

	sendJSON(h.logger, w, api.CountersResponse{
		EscrutinioID: e.ID,
		Status:       e.Status,
		Counters:     counters,
	}, http.StatusOK)
}

// Complete обрабатывает POST /api/v1/escrutinios/{id}/complete
func (h *VotesHandler) Complete(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(h.logger, w, r)
	if !ok {
		return
	}

	var req api.CompleteRequest
	if err := decodeJSON(r, w, &req, true); err != nil {
		sendDomainError(h.logger, w, err)
		return
	}
	if err := validation.Struct(&req); err != nil {
		sendDomainError(h.logger, w, err)
		return
	}
	// Фото могло быть повреждено при передаче
	if req.EvidenceHash != "" && len(req.Evidence) > 0 {
		if err := crypto.VerifyEvidence(req.Evidence, req.EvidenceHash); err != nil {
			sendDomainError(h.logger, w, models.NewValidationError("evidenceHash", err.Error()))
			return
		}
	}

	e, err := h.tally.Complete(r.Context(), r.PathValue("id"), req.EvidenceURL, req.Evidence, actor)
	if err != nil {
		sendDomainError(h.logger, w, err)
		return
	}

	sendJSON(h.logger, w, api.EscrutinioResponse{
		ID:            e.ID,
		MesaNumber:    e.MesaNumber,
		ElectionLevel: e.ElectionLevel,
		Status:        e.Status,
		EvidenceURL:   e.EvidenceURL,
		EvidenceHash:  e.EvidenceHash,
		CreatedAt:     e.CreatedAt,
		CompletedAt:   e.CompletedAt,
	}, http.StatusOK)
}

func toVoteResponse(result *models.ApplyResult) api.VoteResponse {
	applied := make([]api.CandidateDelta, 0, len(result.Applied))
	for _, d := range result.Applied {
		applied = append(applied, api.CandidateDelta{CandidateID: d.CandidateID, Delta: d.Delta})
	}

	counters := result.Counters
	if counters == nil {
		counters = map[string]int64{}
	}

	return api.VoteResponse{
		EscrutinioID:  result.EscrutinioID,
		ClientBatchID: result.ClientBatchID,
		Applied:       applied,
		Counters:      counters,
		Duplicate:     result.Duplicate,
	}
}
