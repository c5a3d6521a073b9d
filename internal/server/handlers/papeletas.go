package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/iudanet/escrutinio/internal/models"
	"github.com/iudanet/escrutinio/internal/validation"
	"github.com/iudanet/escrutinio/pkg/api"
)

// BallotService операции над бюллетенями
type BallotService interface {
	Start(ctx context.Context, escrutinioID, papeletaID string, actor models.Actor) (*models.Papeleta, error)
	Vote(ctx context.Context, papeletaID string, vote models.BufferedVote, actor models.Actor) (*models.Papeleta, error)
	VotesBatch(ctx context.Context, papeletaID string, votes []models.BufferedVote, actor models.Actor) (*models.Papeleta, error)
	Anular(ctx context.Context, papeletaID, reason string, actor models.Actor) (*models.Papeleta, int, error)
	Status(ctx context.Context, papeletaID string) (*models.Papeleta, error)
	Commit(ctx context.Context, papeletaID string, actor models.Actor) (*models.Papeleta, *models.ApplyResult, error)
}

// PapeletaHandler handles ballot operations
type PapeletaHandler struct {
	logger  *slog.Logger
	ballots BallotService
}

// NewPapeletaHandler creates a new ballot handler
func NewPapeletaHandler(logger *slog.Logger, ballots BallotService) *PapeletaHandler {
	return &PapeletaHandler{
		logger:  logger,
		ballots: ballots,
	}
}

// Start обрабатывает POST /api/v1/escrutinios/{id}/papeletas
func (h *PapeletaHandler) Start(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(h.logger, w, r)
	if !ok {
		return
	}

	var req api.StartPapeletaRequest
	if err := decodeJSON(r, w, &req, true); err != nil {
		sendDomainError(h.logger, w, err)
		return
	}
	if err := validation.Struct(&req); err != nil {
		sendDomainError(h.logger, w, err)
		return
	}

	p, err := h.ballots.Start(r.Context(), r.PathValue("id"), req.PapeletaID, actor)
	if err != nil {
		sendDomainError(h.logger, w, err)
		return
	}

	sendJSON(h.logger, w, toPapeletaResponse(p), http.StatusCreated)
}

// Status обрабатывает GET /api/v1/papeletas/{id}
func (h *PapeletaHandler) Status(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireActor(h.logger, w, r); !ok {
		return
	}

	p, err := h.ballots.Status(r.Context(), r.PathValue("id"))
	if err != nil {
		sendDomainError(h.logger, w, err)
		return
	}

	sendJSON(h.logger, w, toPapeletaResponse(p), http.StatusOK)
}

// Vote обрабатывает POST /api/v1/papeletas/{id}/votes
func (h *PapeletaHandler) Vote(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(h.logger, w, r)
	if !ok {
		return
	}

	var req api.PapeletaVoteRequest
	if err := decodeJSON(r, w, &req, false); err != nil {
		sendDomainError(h.logger, w, err)
		return
	}

	votes, err := validation.ValidateBallotVotes([]api.PapeletaVoteRequest{req})
	if err != nil {
		sendDomainError(h.logger, w, err)
		return
	}

	p, err := h.ballots.Vote(r.Context(), r.PathValue("id"), votes[0], actor)
	if err != nil {
		sendDomainError(h.logger, w, err)
		return
	}

	sendJSON(h.logger, w, toPapeletaResponse(p), http.StatusOK)
}

// VotesBatch обрабатывает PUT /api/v1/papeletas/{id}/votes
// Полностью заменяет буфер; при ошибке в любом элементе буфер не меняется
func (h *PapeletaHandler) VotesBatch(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(h.logger, w, r)
	if !ok {
		return
	}

	var req api.VotesBatchRequest
	if err := decodeJSON(r, w, &req, false); err != nil {
		sendDomainError(h.logger, w, err)
		return
	}

	votes, err := validation.ValidateBallotVotes(req.Votes)
	if err != nil {
		sendDomainError(h.logger, w, err)
		return
	}

	p, err := h.ballots.VotesBatch(r.Context(), r.PathValue("id"), votes, actor)
	if err != nil {
		sendDomainError(h.logger, w, err)
		return
	}

	sendJSON(h.logger, w, toPapeletaResponse(p), http.StatusOK)
}

// Anular обрабатывает POST /api/v1/papeletas/{id}/anular
func (h *PapeletaHandler) Anular(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(h.logger, w, r)
	if !ok {
		return
	}

	var req api.AnularRequest
	if err := decodeJSON(r, w, &req, true); err != nil {
		sendDomainError(h.logger, w, err)
		return
	}
	if err := validation.Struct(&req); err != nil {
		sendDomainError(h.logger, w, err)
		return
	}

	p, discarded, err := h.ballots.Anular(r.Context(), r.PathValue("id"), req.Reason, actor)
	if err != nil {
		sendDomainError(h.logger, w, err)
		return
	}

	sendJSON(h.logger, w, api.AnularResponse{
		PapeletaResponse: toPapeletaResponse(p),
		VotesDiscarded:   discarded,
	}, http.StatusOK)
}

// Commit обрабатывает POST /api/v1/papeletas/{id}/commit
func (h *PapeletaHandler) Commit(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(h.logger, w, r)
	if !ok {
		return
	}

	p, result, err := h.ballots.Commit(r.Context(), r.PathValue("id"), actor)
	if err != nil {
		sendDomainError(h.logger, w, err)
		return
	}

	sendJSON(h.logger, w, api.CommitResponse{
		Papeleta: toPapeletaResponse(p),
		Result:   toVoteResponse(result),
	}, http.StatusOK)
}

func toPapeletaResponse(p *models.Papeleta) api.PapeletaResponse {
	buffer := make([]api.BufferedVote, 0, len(p.VotesBuffer))
	for _, v := range p.VotesBuffer {
		buffer = append(buffer, api.BufferedVote{
			EntryID:       v.EntryID,
			PartyID:       v.PartyID,
			CasillaNumber: v.CasillaNumber,
			Timestamp:     v.Timestamp,
		})
	}

	return api.PapeletaResponse{
		ID:            p.ID,
		Status:        p.Status,
		EscrutinioID:  p.EscrutinioID,
		UserID:        p.UserID,
		AnuladaReason: p.AnuladaReason,
		VotesBuffer:   buffer,
		CreatedAt:     p.CreatedAt,
		AnuladaAt:     p.AnuladaAt,
	}
}
