// Package reconciler applies vote-delta batches to the authoritative
// per-candidate counters of an escrutinio, exactly once per clientBatchId.
package reconciler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/iudanet/escrutinio/internal/crypto"
	"github.com/iudanet/escrutinio/internal/models"
	"github.com/iudanet/escrutinio/internal/server/audit"
	"github.com/iudanet/escrutinio/internal/server/storage"
)

// Service применяет пакеты изменений к счетчикам
type Service struct {
	logger      *slog.Logger
	store       storage.TallyStorage
	audit       *audit.Correlator
	now         func() time.Time
	ballotLevel string // уровень, который считается только через бюллетени
}

// NewService creates a new tally reconciler. Escrutinios of ballotLevel
// accept deltas only from committed papeletas.
func NewService(logger *slog.Logger, store storage.TallyStorage, correlator *audit.Correlator, ballotLevel string) *Service {
	return &Service{
		logger:      logger,
		store:       store,
		audit:       correlator,
		now:         time.Now,
		ballotLevel: ballotLevel,
	}
}

// Apply applies one validated payload in its own transaction.
// A batch whose id is already recorded returns the stored result with
// Duplicate set and changes nothing.
func (s *Service) Apply(ctx context.Context, payload *models.VotePayload, actor models.Actor) (*models.ApplyResult, error) {
	var result *models.ApplyResult

	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		result, err = s.applyTx(ctx, tx, payload, actor, true)
		return err
	})
	if err != nil {
		s.logger.Warn("Batch rejected",
			"escrutinio_id", payload.EscrutinioID,
			"client_batch_id", payload.BatchID(),
			"error", err,
		)
		return nil, err
	}

	if result.Duplicate {
		s.logger.Info("Duplicate batch ignored",
			"escrutinio_id", result.EscrutinioID,
			"client_batch_id", result.ClientBatchID,
		)
	} else {
		s.logger.Info("Batch applied",
			"escrutinio_id", result.EscrutinioID,
			"client_batch_id", result.ClientBatchID,
			"candidates", len(result.Applied),
			"device_id", payload.DeviceID,
		)
	}

	return result, nil
}

// ApplyTx applies payload inside an already open transaction. The batch
// marker, counter updates and audit entry are written through the same tx,
// so they persist together or not at all.
func (s *Service) ApplyTx(ctx context.Context, tx storage.Tx, payload *models.VotePayload, actor models.Actor) (*models.ApplyResult, error) {
	return s.applyTx(ctx, tx, payload, actor, false)
}

// applyTx: direct - пакет пришел от устройства, а не из бюллетеня
func (s *Service) applyTx(ctx context.Context, tx storage.Tx, payload *models.VotePayload, actor models.Actor, direct bool) (*models.ApplyResult, error) {
	batchID := payload.BatchID()
	if payload.EscrutinioID == "" {
		return nil, models.NewValidationError("escrutinioId", "is required")
	}
	if batchID == "" {
		return nil, models.NewValidationError("votes[0].clientBatchId", "is required")
	}

	e, err := tx.GetEscrutinio(ctx, payload.EscrutinioID)
	if err != nil {
		return nil, err
	}

	// Check-and-set одним оператором: конкурирующий повтор увидит маркер
	marked, err := tx.MarkBatchApplied(ctx, e.ID, batchID, s.now())
	if err != nil {
		return nil, err
	}

	if !marked {
		prev, err := tx.GetBatchResult(ctx, e.ID, batchID)
		if err != nil {
			return nil, err
		}
		prev.Duplicate = true
		return prev, nil
	}

	if !e.IsOpen() {
		return nil, models.StateConflict("escrutinio %s is %s", e.ID, e.Status)
	}
	if direct && s.ballotLevel != "" && e.IsBallotScoped(s.ballotLevel) {
		return nil, models.StateConflict("escrutinio %s is counted per papeleta", e.ID)
	}
	if err := checkCandidates(ctx, tx, e, payload); err != nil {
		return nil, err
	}

	deltas := payload.SortedNetDeltas()
	for _, d := range deltas {
		votes, err := tx.AddToCounter(ctx, e.ID, d.CandidateID, d.Delta)
		if err != nil {
			return nil, err
		}
		if votes < 0 {
			return nil, fmt.Errorf("%w: counter of candidate %s would become %d", models.ErrIntegrity, d.CandidateID, votes)
		}
	}

	counters, err := tx.GetCounters(ctx, e.ID)
	if err != nil {
		return nil, err
	}

	result := &models.ApplyResult{
		EscrutinioID:  e.ID,
		ClientBatchID: batchID,
		Applied:       deltas,
		Counters:      counters,
	}

	if err := tx.SaveBatchResult(ctx, result); err != nil {
		return nil, err
	}

	if err := tx.UpdateEscrutinioGPS(ctx, e.ID, payload.GPS); err != nil {
		return nil, err
	}

	metadata := batchMetadata(e, payload, deltas)
	description := fmt.Sprintf("Aplicado lote %s en mesa %s (%d candidatos)", batchID, e.MesaNumber, len(deltas))
	if err := s.audit.Record(ctx, tx, actor, models.AuditVotesApplied, description, metadata); err != nil {
		return nil, err
	}

	return result, nil
}

// checkCandidates отклоняет дельты для кандидатов, не зарегистрированных
// на уровне выборов escrutinio
func checkCandidates(ctx context.Context, tx storage.Tx, e *models.Escrutinio, payload *models.VotePayload) error {
	known := make(map[string]bool, len(payload.Votes))
	for i, v := range payload.Votes {
		if _, checked := known[v.CandidateID]; !checked {
			ok, err := tx.CandidateExists(ctx, e.ElectionLevel, v.CandidateID)
			if err != nil {
				return err
			}
			known[v.CandidateID] = ok
		}
		if !known[v.CandidateID] {
			return models.NewValidationError(fmt.Sprintf("votes[%d].candidateId", i),
				fmt.Sprintf("unknown candidate %q for %s", v.CandidateID, e.ElectionLevel))
		}
	}
	return nil
}

func batchMetadata(e *models.Escrutinio, payload *models.VotePayload, deltas []models.CandidateDelta) map[string]any {
	candidates := make([]string, 0, len(deltas))
	for _, d := range deltas {
		candidates = append(candidates, d.CandidateID)
	}

	metadata := map[string]any{
		audit.MetaEscrutinioID:  e.ID,
		audit.MetaMesaNumber:    e.MesaNumber,
		audit.MetaClientBatchID: payload.BatchID(),
		"candidateIds":          candidates,
		"deltas":                deltas,
	}
	if payload.DeviceID != "" {
		metadata[audit.MetaDeviceID] = payload.DeviceID
	}
	if payload.GPS != nil {
		metadata[audit.MetaGPS] = payload.GPS
	}
	if len(payload.Audit) > 0 {
		// События устройства сохраняются как есть
		events := make([]json.RawMessage, len(payload.Audit))
		copy(events, payload.Audit)
		metadata["clientEvents"] = events
	}

	return metadata
}

// Counters returns the authoritative counters of an escrutinio
func (s *Service) Counters(ctx context.Context, escrutinioID string) (*models.Escrutinio, map[string]int64, error) {
	e, err := s.store.GetEscrutinio(ctx, escrutinioID)
	if err != nil {
		return nil, nil, err
	}

	counters, err := s.store.GetCounters(ctx, escrutinioID)
	if err != nil {
		return nil, nil, err
	}

	return e, counters, nil
}

// Complete marks an escrutinio as completed. Completion is terminal: later
// batches are rejected with a state conflict. Only the assigned user or an
// ADMIN may complete.
func (s *Service) Complete(ctx context.Context, escrutinioID, evidenceURL string, evidence []byte, actor models.Actor) (*models.Escrutinio, error) {
	var evidenceHash string
	if len(evidence) > 0 {
		var err error
		if evidenceHash, err = crypto.HashEvidence(evidence); err != nil {
			return nil, err
		}
	}

	var completed *models.Escrutinio
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		e, err := tx.GetEscrutinio(ctx, escrutinioID)
		if err != nil {
			return err
		}

		if !actor.IsAdmin() && e.UserID != actor.UserID {
			return fmt.Errorf("%w: escrutinio %s is assigned to another user", models.ErrForbidden, e.ID)
		}
		if !e.IsOpen() {
			return models.StateConflict("escrutinio %s is already %s", e.ID, e.Status)
		}

		now := s.now()
		if err := tx.CompleteEscrutinio(ctx, e.ID, now, evidenceURL, evidenceHash); err != nil {
			return err
		}

		counters, err := tx.GetCounters(ctx, e.ID)
		if err != nil {
			return err
		}

		metadata := map[string]any{
			audit.MetaEscrutinioID: e.ID,
			audit.MetaMesaNumber:   e.MesaNumber,
			"counters":             counters,
		}
		if evidenceHash != "" {
			metadata["evidenceHash"] = evidenceHash
		}
		if err := s.audit.Record(ctx, tx, actor, models.AuditEscrutinioComplete,
			fmt.Sprintf("Escrutinio de mesa %s completado", e.MesaNumber), metadata); err != nil {
			return err
		}

		e.Status = models.EscrutinioStatusCompleted
		e.CompletedAt = &now
		e.EvidenceURL = evidenceURL
		e.EvidenceHash = evidenceHash
		completed = e
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Escrutinio completed", "escrutinio_id", escrutinioID, "actor_id", actor.UserID)

	return completed, nil
}
