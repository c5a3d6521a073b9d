package validation

import (
	"strings"

	"github.com/iudanet/escrutinio/internal/models"
	"github.com/iudanet/escrutinio/pkg/api"
)

// ValidateVotePayload проверяет входящий пакет изменений целиком.
// При первой ошибке весь пакет отклоняется, частичного применения нет.
// Возвращает нормализованный models.VotePayload.
func ValidateVotePayload(p *api.VotePayload) (*models.VotePayload, error) {
	if p == nil {
		return nil, models.NewValidationError("", "payload is empty")
	}

	// Пробелы не считаются идентификатором
	p.EscrutinioID = strings.TrimSpace(p.EscrutinioID)
	for i := range p.Votes {
		p.Votes[i].ClientBatchID = strings.TrimSpace(p.Votes[i].ClientBatchID)
		p.Votes[i].CandidateID = strings.TrimSpace(p.Votes[i].CandidateID)
	}

	// Ошибки приходят в порядке полей и элементов votes
	if err := Struct(p); err != nil {
		return nil, err
	}

	out := &models.VotePayload{
		EscrutinioID: p.EscrutinioID,
		DeviceID:     p.DeviceID,
		Votes:        make([]models.VoteDelta, 0, len(p.Votes)),
		Audit:        p.Audit,
	}

	for _, v := range p.Votes {
		out.Votes = append(out.Votes, models.VoteDelta{
			CandidateID:   v.CandidateID,
			ClientBatchID: v.ClientBatchID,
			Delta:         int64(v.Delta),
			Timestamp:     v.Timestamp,
		})
	}

	if p.GPS != nil {
		out.GPS = &models.GPS{
			Latitude:  p.GPS.Latitude,
			Longitude: p.GPS.Longitude,
			Accuracy:  p.GPS.Accuracy,
		}
	}

	return out, nil
}

// ValidateBallotVotes проверяет все выборы до принятия любого из них
func ValidateBallotVotes(votes []api.PapeletaVoteRequest) ([]models.BufferedVote, error) {
	req := api.VotesBatchRequest{Votes: votes}
	if err := Struct(&req); err != nil {
		return nil, err
	}

	out := make([]models.BufferedVote, 0, len(votes))
	for _, v := range votes {
		out = append(out, models.BufferedVote{
			EntryID:       v.EntryID,
			PartyID:       strings.TrimSpace(v.PartyID),
			CasillaNumber: v.CasillaNumber,
			Timestamp:     v.Timestamp,
		})
	}
	return out, nil
}
