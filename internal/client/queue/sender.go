package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/iudanet/escrutinio/internal/models"
	"github.com/iudanet/escrutinio/pkg/api"
)

//go:generate moq -out sender_mock.go . Sender

// Sender доставляет действия на сервер. Реализуется api.Client.
type Sender interface {
	Health(ctx context.Context) (*api.HealthResponse, error)
	SubmitVotes(ctx context.Context, payload api.VotePayload) (*api.VoteResponse, error)
	StartPapeleta(ctx context.Context, escrutinioID string, req api.StartPapeletaRequest) (*api.PapeletaResponse, error)
	PapeletaVote(ctx context.Context, papeletaID string, req api.PapeletaVoteRequest) (*api.PapeletaResponse, error)
	PapeletaVotesBatch(ctx context.Context, papeletaID string, req api.VotesBatchRequest) (*api.PapeletaResponse, error)
	AnularPapeleta(ctx context.Context, papeletaID string, req api.AnularRequest) (*api.AnularResponse, error)
	CommitPapeleta(ctx context.Context, papeletaID string) (*api.CommitResponse, error)
}

// BallotPayload полезная нагрузка действий над бюллетенем
type BallotPayload struct {
	Vote         *api.PapeletaVoteRequest  `json:"vote,omitempty"`
	EscrutinioID string                    `json:"escrutinioId,omitempty"`
	PapeletaID   string                    `json:"papeletaId"`
	Reason       string                    `json:"reason,omitempty"`
	Votes        []api.PapeletaVoteRequest `json:"votes,omitempty"`
}

// deliver отправляет одно действие в зависимости от его типа
func deliver(ctx context.Context, sender Sender, action *models.QueuedAction) error {
	if action.Kind == models.ActionSubmitVotes {
		var payload api.VotePayload
		if err := json.Unmarshal(action.Payload, &payload); err != nil {
			return models.NewValidationError("payload", "malformed vote payload: "+err.Error())
		}
		_, err := sender.SubmitVotes(ctx, payload)
		return err
	}

	var p BallotPayload
	if err := json.Unmarshal(action.Payload, &p); err != nil {
		return models.NewValidationError("payload", "malformed ballot payload: "+err.Error())
	}

	var err error
	switch action.Kind {
	case models.ActionPapeletaStart:
		_, err = sender.StartPapeleta(ctx, p.EscrutinioID, api.StartPapeletaRequest{PapeletaID: p.PapeletaID})
	case models.ActionPapeletaVote:
		if p.Vote == nil {
			return models.NewValidationError("vote", "is required")
		}
		_, err = sender.PapeletaVote(ctx, p.PapeletaID, *p.Vote)
	case models.ActionPapeletaVotesSync:
		_, err = sender.PapeletaVotesBatch(ctx, p.PapeletaID, api.VotesBatchRequest{Votes: p.Votes})
	case models.ActionPapeletaAnular:
		_, err = sender.AnularPapeleta(ctx, p.PapeletaID, api.AnularRequest{Reason: p.Reason})
	case models.ActionPapeletaCommit:
		_, err = sender.CommitPapeleta(ctx, p.PapeletaID)
	default:
		return models.NewValidationError("kind", fmt.Sprintf("unknown action kind %q", action.Kind))
	}
	return err
}
