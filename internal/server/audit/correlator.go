// Package audit links every tally mutation, ballot transition and
// privileged read to an actor, a device and a batch or ballot identifier.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/escrutinio/internal/models"
	"github.com/iudanet/escrutinio/internal/server/storage"
)

// Метаданные, общие для всех записей
const (
	MetaEscrutinioID  = "escrutinioId"
	MetaMesaNumber    = "mesaNumber"
	MetaClientBatchID = "clientBatchId"
	MetaPapeletaID    = "papeletaId"
	MetaDeviceID      = "deviceId"
	MetaGPS           = "gps"
)

// Store объединяет транзакции и чтение журнала
type Store interface {
	storage.Transactor
	storage.AuditStorage
}

// Correlator append-only writer и reader журнала аудита
type Correlator struct {
	logger *slog.Logger
	store  Store
	now    func() time.Time
}

// NewCorrelator creates a new audit correlator
func NewCorrelator(logger *slog.Logger, store Store) *Correlator {
	return &Correlator{
		logger: logger,
		store:  store,
		now:    time.Now,
	}
}

// Record appends exactly one entry through tx. It must be called inside the
// same transaction as the mutation it describes, so that a rolled back
// mutation leaves no audit trace and a committed one always has one.
func (c *Correlator) Record(ctx context.Context, tx storage.Tx, actor models.Actor, action, description string, metadata map[string]any) error {
	if id, _ := metadata[MetaEscrutinioID].(string); id == "" {
		return fmt.Errorf("%w: audit entry %s without escrutinioId", models.ErrIntegrity, action)
	}

	entry := &models.AuditLogEntry{
		ID:          uuid.New().String(),
		Action:      action,
		Description: description,
		ActorID:     actor.UserID,
		Metadata:    metadata,
		IPAddress:   actor.IPAddress,
		UserAgent:   actor.UserAgent,
		CreatedAt:   c.now(),
	}

	if err := tx.AppendAudit(ctx, entry); err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}

	return nil
}

// RevealLocation returns the last GPS fix reported for an escrutinio.
// Location is hidden by default; only ADMIN may reveal it and every reveal
// is itself audited.
func (c *Correlator) RevealLocation(ctx context.Context, escrutinioID string, actor models.Actor) (*models.GPS, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only %s can reveal location", models.ErrForbidden, models.RoleAdmin)
	}

	var gps *models.GPS
	err := c.store.WithTx(ctx, func(tx storage.Tx) error {
		e, err := tx.GetEscrutinio(ctx, escrutinioID)
		if err != nil {
			return err
		}
		gps = e.LastGPS

		metadata := map[string]any{
			MetaEscrutinioID: e.ID,
			MetaMesaNumber:   e.MesaNumber,
			"hadLocation":    gps != nil,
		}
		return c.Record(ctx, tx, actor, models.AuditGPSRevealed,
			fmt.Sprintf("Ubicación revelada para mesa %s", e.MesaNumber), metadata)
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("GPS location revealed",
		"escrutinio_id", escrutinioID,
		"actor_id", actor.UserID,
	)

	return gps, nil
}

// List returns all entries of an escrutinio, newest first
func (c *Correlator) List(ctx context.Context, escrutinioID string) ([]*models.AuditView, error) {
	entries, err := c.store.ListAuditByEscrutinio(ctx, escrutinioID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	return entries, nil
}
