package storage

import (
	"context"

	"github.com/iudanet/escrutinio/internal/models"
)

// QueueStorage is the durable FIFO of offline actions.
// The head is the action with the lowest Seq.
type QueueStorage interface {
	// Enqueue appends an action and assigns its Seq
	Enqueue(ctx context.Context, action *models.QueuedAction) error

	// Head returns the oldest pending action
	// Returns ErrQueueEmpty if nothing is pending
	Head(ctx context.Context) (*models.QueuedAction, error)

	// UpdateAction stores delivery attempt bookkeeping of a pending action
	// Returns ErrActionNotFound if action is no longer queued
	UpdateAction(ctx context.Context, action *models.QueuedAction) error

	// RemoveAction deletes a delivered action
	RemoveAction(ctx context.Context, seq uint64) error

	// RejectAction atomically moves an action from the queue to the
	// rejected shelf with the reason
	RejectAction(ctx context.Context, action *models.QueuedAction, reason string) error

	// ListActions returns pending actions in delivery order
	ListActions(ctx context.Context) ([]*models.QueuedAction, error)

	// CountActions returns the number of pending actions
	CountActions(ctx context.Context) (int, error)

	// ClearQueue discards all pending actions without delivering them
	// and returns how many were discarded
	ClearQueue(ctx context.Context) (int, error)

	// ListRejected returns actions the server rejected permanently
	ListRejected(ctx context.Context) ([]*models.QueuedAction, error)
}
