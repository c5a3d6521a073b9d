package storage

import (
	"context"
	"time"

	"github.com/iudanet/escrutinio/internal/models"
)

// Transactor runs fn inside one storage transaction.
// If fn returns an error (or panics) every write made through tx is rolled
// back; otherwise all of them are committed together.
type Transactor interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the set of primitives available inside a transaction.
// It is the only path through which counters, batch markers, ballots and
// audit entries are mutated.
type Tx interface {
	// GetEscrutinio retrieves tally record by ID
	// Returns ErrEscrutinioNotFound if it doesn't exist
	GetEscrutinio(ctx context.Context, id string) (*models.Escrutinio, error)

	// UpdateEscrutinioGPS stores the last reported device position
	UpdateEscrutinioGPS(ctx context.Context, id string, gps *models.GPS) error

	// CompleteEscrutinio marks tally record as completed (terminal)
	CompleteEscrutinio(ctx context.Context, id string, completedAt time.Time, evidenceURL, evidenceHash string) error

	// MarkBatchApplied atomically records (escrutinioID, batchID) in the
	// applied batch set. Returns false if the marker already existed.
	MarkBatchApplied(ctx context.Context, escrutinioID, batchID string, at time.Time) (bool, error)

	// GetBatchResult returns the result stored for an applied batch
	// Returns ErrBatchNotFound if marker doesn't exist
	GetBatchResult(ctx context.Context, escrutinioID, batchID string) (*models.ApplyResult, error)

	// SaveBatchResult stores the computed result next to the batch marker
	SaveBatchResult(ctx context.Context, result *models.ApplyResult) error

	// AddToCounter adds delta to candidate counter and returns the new value
	AddToCounter(ctx context.Context, escrutinioID, candidateID string, delta int64) (int64, error)

	// GetCounters returns all candidate counters of an escrutinio
	GetCounters(ctx context.Context, escrutinioID string) (map[string]int64, error)

	// CreatePapeleta inserts a new ballot
	// Returns ErrPapeletaExists if ID is taken
	CreatePapeleta(ctx context.Context, p *models.Papeleta) error

	// GetPapeleta retrieves ballot by ID
	// Returns ErrPapeletaNotFound if it doesn't exist
	GetPapeleta(ctx context.Context, id string) (*models.Papeleta, error)

	// UpdatePapeleta overwrites status, buffer and timestamps of a ballot
	UpdatePapeleta(ctx context.Context, p *models.Papeleta) error

	// ResolveCandidate finds candidate ID by party and casilla on an election level
	// Returns ErrCandidateNotFound if no candidate matches
	ResolveCandidate(ctx context.Context, electionLevel, partyID string, casillaNumber int) (string, error)

	// CandidateExists reports whether candidateID is registered on an election level
	CandidateExists(ctx context.Context, electionLevel, candidateID string) (bool, error)

	// AppendAudit appends an immutable audit entry
	AppendAudit(ctx context.Context, entry *models.AuditLogEntry) error
}
