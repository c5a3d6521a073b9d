package storage

import (
	"context"

	"github.com/iudanet/escrutinio/internal/models"
)

// TallyStorage defines read access to tally records outside of transactions
type TallyStorage interface {
	Transactor

	// CreateEscrutinio creates a new tally record
	// Returns ErrEscrutinioExists if mesa and level already have one
	CreateEscrutinio(ctx context.Context, e *models.Escrutinio) error

	// GetEscrutinio retrieves tally record by ID
	// Returns ErrEscrutinioNotFound if it doesn't exist
	GetEscrutinio(ctx context.Context, id string) (*models.Escrutinio, error)

	// GetCounters returns all candidate counters of an escrutinio
	// Returns empty map if no votes were applied
	GetCounters(ctx context.Context, escrutinioID string) (map[string]int64, error)

	// CreateCandidate registers a candidate (lookup collaborator)
	CreateCandidate(ctx context.Context, c *models.Candidate) error
}

// AuditStorage defines read access to the audit log
type AuditStorage interface {
	// ListAuditByEscrutinio returns all entries whose metadata.escrutinioId
	// matches, newest first, joined with actor display fields
	ListAuditByEscrutinio(ctx context.Context, escrutinioID string) ([]*models.AuditView, error)
}
