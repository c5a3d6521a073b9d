package storage

import "errors"

// Common client storage errors
var (
	// ErrAuthNotFound indicates that no authentication data exists
	ErrAuthNotFound = errors.New("authentication data not found")

	// ErrQueueEmpty indicates that the action queue has no pending items
	ErrQueueEmpty = errors.New("action queue is empty")

	// ErrActionNotFound indicates that queued action was not found
	ErrActionNotFound = errors.New("queued action not found")

	// ErrStorageClosed indicates that storage is closed
	ErrStorageClosed = errors.New("storage is closed")
)
