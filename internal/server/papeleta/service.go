// Package papeleta implements the per-ballot workflow of ballot-scoped
// voting: selections are buffered on an OPEN ballot and then either
// committed into the tally as one batch or annulled as a whole.
package papeleta

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/escrutinio/internal/models"
	"github.com/iudanet/escrutinio/internal/server/audit"
	"github.com/iudanet/escrutinio/internal/server/reconciler"
	"github.com/iudanet/escrutinio/internal/server/storage"
)

// Service управляет жизненным циклом бюллетеней
type Service struct {
	logger      *slog.Logger
	store       storage.Transactor
	reconciler  *reconciler.Service
	audit       *audit.Correlator
	now         func() time.Time
	ballotLevel string
}

// NewService creates a ballot service. ballotLevel is the election level
// counted ballot by ballot.
func NewService(logger *slog.Logger, store storage.Transactor, rec *reconciler.Service, correlator *audit.Correlator, ballotLevel string) *Service {
	if ballotLevel == "" {
		ballotLevel = models.ElectionLevelLegislative
	}
	return &Service{
		logger:      logger,
		store:       store,
		reconciler:  rec,
		audit:       correlator,
		now:         time.Now,
		ballotLevel: ballotLevel,
	}
}

// Start opens a new ballot on a ballot-scoped escrutinio. papeletaID may be
// generated by the device so that a start replayed from the offline queue
// returns the ballot created by the first delivery.
func (s *Service) Start(ctx context.Context, escrutinioID, papeletaID string, actor models.Actor) (*models.Papeleta, error) {
	if papeletaID == "" {
		papeletaID = uuid.New().String()
	}

	var p *models.Papeleta
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		e, err := tx.GetEscrutinio(ctx, escrutinioID)
		if err != nil {
			return err
		}

		if !e.IsBallotScoped(s.ballotLevel) {
			return models.StateConflict("escrutinio %s (%s) is not counted by ballot", e.ID, e.ElectionLevel)
		}

		existing, err := tx.GetPapeleta(ctx, papeletaID)
		switch {
		case err == nil:
			if existing.EscrutinioID == e.ID && existing.UserID == actor.UserID {
				p = existing
				return nil
			}
			return models.StateConflict("papeleta %s already exists", papeletaID)
		case !errors.Is(err, storage.ErrPapeletaNotFound):
			return err
		}

		if !e.IsOpen() {
			return models.StateConflict("escrutinio %s is %s", e.ID, e.Status)
		}

		now := s.now()
		p = &models.Papeleta{
			ID:           papeletaID,
			EscrutinioID: e.ID,
			UserID:       actor.UserID,
			Status:       models.PapeletaStatusOpen,
			VotesBuffer:  []models.BufferedVote{},
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if err := tx.CreatePapeleta(ctx, p); err != nil {
			return err
		}

		return s.record(ctx, tx, actor, p, models.AuditPapeletaStarted,
			fmt.Sprintf("Papeleta iniciada en mesa %s", e.MesaNumber), nil)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Papeleta started", "papeleta_id", p.ID, "escrutinio_id", p.EscrutinioID)

	return p, nil
}

// Vote appends one selection to an OPEN ballot. A selection whose entryId
// is already buffered is not appended twice.
func (s *Service) Vote(ctx context.Context, papeletaID string, vote models.BufferedVote, actor models.Actor) (*models.Papeleta, error) {
	var p *models.Papeleta
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		if p, err = s.loadOwnedOpen(ctx, tx, papeletaID, actor); err != nil {
			return err
		}

		if p.HasEntry(vote.EntryID) {
			return nil
		}

		now := s.now()
		if vote.Timestamp == 0 {
			vote.Timestamp = now.UnixMilli()
		}
		p.VotesBuffer = append(p.VotesBuffer, vote)
		p.UpdatedAt = now

		if err := tx.UpdatePapeleta(ctx, p); err != nil {
			return err
		}

		return s.record(ctx, tx, actor, p, models.AuditPapeletaVote,
			fmt.Sprintf("Voto partido %s casilla %d", vote.PartyID, vote.CasillaNumber),
			map[string]any{
				"partyId":       vote.PartyID,
				"casillaNumber": vote.CasillaNumber,
				"entryId":       vote.EntryID,
				"votesCount":    len(p.VotesBuffer),
			})
	})
	if err != nil {
		return nil, err
	}

	return p, nil
}

// VotesBatch replaces the whole buffer of an OPEN ballot. votes must be
// validated by the caller; either all of them are stored or none.
func (s *Service) VotesBatch(ctx context.Context, papeletaID string, votes []models.BufferedVote, actor models.Actor) (*models.Papeleta, error) {
	var p *models.Papeleta
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		if p, err = s.loadOwnedOpen(ctx, tx, papeletaID, actor); err != nil {
			return err
		}

		previous := len(p.VotesBuffer)
		now := s.now()

		buffer := make([]models.BufferedVote, len(votes))
		for i, v := range votes {
			if v.Timestamp == 0 {
				v.Timestamp = now.UnixMilli()
			}
			buffer[i] = v
		}

		p.VotesBuffer = buffer
		p.UpdatedAt = now

		if err := tx.UpdatePapeleta(ctx, p); err != nil {
			return err
		}

		return s.record(ctx, tx, actor, p, models.AuditPapeletaVotesBatch,
			fmt.Sprintf("Buffer sincronizado: %d votos", len(buffer)),
			map[string]any{
				"votesCount":    len(buffer),
				"previousCount": previous,
			})
	})
	if err != nil {
		return nil, err
	}

	return p, nil
}

// Anular voids an OPEN ballot and reports how many buffered votes were
// discarded. Counters are never touched: buffered votes were never applied.
func (s *Service) Anular(ctx context.Context, papeletaID, reason string, actor models.Actor) (*models.Papeleta, int, error) {
	var p *models.Papeleta
	var discarded int

	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		if p, err = s.loadOwnedOpen(ctx, tx, papeletaID, actor); err != nil {
			return err
		}

		now := s.now()
		discarded = len(p.VotesBuffer)
		p.Status = models.PapeletaStatusAnulada
		p.AnuladaReason = reason
		p.AnuladaAt = &now
		p.UpdatedAt = now

		if err := tx.UpdatePapeleta(ctx, p); err != nil {
			return err
		}

		return s.record(ctx, tx, actor, p, models.AuditPapeletaAnulada,
			fmt.Sprintf("Papeleta anulada: %d votos descartados", discarded),
			map[string]any{
				"reason":         reason,
				"votesDiscarded": discarded,
			})
	})
	if err != nil {
		return nil, 0, err
	}

	s.logger.Info("Papeleta annulled",
		"papeleta_id", p.ID,
		"escrutinio_id", p.EscrutinioID,
		"votes_discarded", discarded,
	)

	return p, discarded, nil
}

// Status returns the current state of a ballot
func (s *Service) Status(ctx context.Context, papeletaID string) (*models.Papeleta, error) {
	var p *models.Papeleta
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		p, err = tx.GetPapeleta(ctx, papeletaID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Commit translates the buffer into one +1 delta per selection and applies
// them through the reconciler in the same transaction, under the batch id
// "papeleta:<id>". Committing an already committed ballot returns the
// stored result.
func (s *Service) Commit(ctx context.Context, papeletaID string, actor models.Actor) (*models.Papeleta, *models.ApplyResult, error) {
	var p *models.Papeleta
	var result *models.ApplyResult

	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		if p, err = s.loadOwned(ctx, tx, papeletaID, actor); err != nil {
			return err
		}

		if p.Status == models.PapeletaStatusCommitted {
			if result, err = tx.GetBatchResult(ctx, p.EscrutinioID, p.CommitBatchID()); err != nil {
				return err
			}
			result.Duplicate = true
			return nil
		}

		if !p.IsOpen() {
			return models.StateConflict("papeleta %s is %s", p.ID, p.Status)
		}
		if len(p.VotesBuffer) == 0 {
			return models.StateConflict("papeleta %s has no votes to commit", p.ID)
		}

		e, err := tx.GetEscrutinio(ctx, p.EscrutinioID)
		if err != nil {
			return err
		}

		payload := &models.VotePayload{
			EscrutinioID: p.EscrutinioID,
			Votes:        make([]models.VoteDelta, 0, len(p.VotesBuffer)),
		}
		for i, v := range p.VotesBuffer {
			candidateID, err := tx.ResolveCandidate(ctx, e.ElectionLevel, v.PartyID, v.CasillaNumber)
			if err != nil {
				if errors.Is(err, storage.ErrCandidateNotFound) {
					return models.NewValidationError(fmt.Sprintf("votesBuffer[%d]", i),
						fmt.Sprintf("no candidate for party %s casilla %d", v.PartyID, v.CasillaNumber))
				}
				return err
			}
			payload.Votes = append(payload.Votes, models.VoteDelta{
				CandidateID:   candidateID,
				ClientBatchID: p.CommitBatchID(),
				Delta:         1,
				Timestamp:     v.Timestamp,
			})
		}

		if result, err = s.reconciler.ApplyTx(ctx, tx, payload, actor); err != nil {
			return err
		}

		now := s.now()
		p.Status = models.PapeletaStatusCommitted
		p.CommittedAt = &now
		p.UpdatedAt = now

		if err := tx.UpdatePapeleta(ctx, p); err != nil {
			return err
		}

		return s.record(ctx, tx, actor, p, models.AuditPapeletaCommitted,
			fmt.Sprintf("Papeleta aplicada: %d votos", len(p.VotesBuffer)),
			map[string]any{
				audit.MetaClientBatchID: p.CommitBatchID(),
				"votesCount":            len(p.VotesBuffer),
			})
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("Papeleta committed",
		"papeleta_id", p.ID,
		"escrutinio_id", p.EscrutinioID,
		"duplicate", result.Duplicate,
	)

	return p, result, nil
}

// loadOwned загружает бюллетень и проверяет владельца
func (s *Service) loadOwned(ctx context.Context, tx storage.Tx, papeletaID string, actor models.Actor) (*models.Papeleta, error) {
	p, err := tx.GetPapeleta(ctx, papeletaID)
	if err != nil {
		return nil, err
	}

	if p.UserID != actor.UserID && !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: papeleta %s belongs to another user", models.ErrForbidden, p.ID)
	}

	return p, nil
}

// loadOwnedOpen дополнительно требует статус OPEN
func (s *Service) loadOwnedOpen(ctx context.Context, tx storage.Tx, papeletaID string, actor models.Actor) (*models.Papeleta, error) {
	p, err := s.loadOwned(ctx, tx, papeletaID, actor)
	if err != nil {
		return nil, err
	}

	if !p.IsOpen() {
		return nil, models.StateConflict("papeleta %s is %s", p.ID, p.Status)
	}

	return p, nil
}

func (s *Service) record(ctx context.Context, tx storage.Tx, actor models.Actor, p *models.Papeleta, action, description string, extra map[string]any) error {
	metadata := map[string]any{
		audit.MetaEscrutinioID: p.EscrutinioID,
		audit.MetaPapeletaID:   p.ID,
	}
	for k, v := range extra {
		metadata[k] = v
	}
	return s.audit.Record(ctx, tx, actor, action, description, metadata)
}
