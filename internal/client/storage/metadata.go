package storage

import "context"

// MetadataStorage defines interface for storing client metadata
type MetadataStorage interface {
	// GetDeviceID returns the persistent device ID, creating it on first use
	GetDeviceID(ctx context.Context) (string, error)

	// SetDeviceID overrides the device ID (provisioned devices)
	SetDeviceID(ctx context.Context, deviceID string) error

	// CurrentBatchID returns the clientBatchId new events are recorded under,
	// creating one if none exists yet
	CurrentBatchID(ctx context.Context) (string, error)

	// RotateBatchID replaces the current clientBatchId with a fresh one
	// and returns the previous value
	RotateBatchID(ctx context.Context) (string, error)

	// SaveLastSyncTimestamp saves the time of the last successful delivery
	SaveLastSyncTimestamp(ctx context.Context, timestamp int64) error

	// GetLastSyncTimestamp retrieves the time of the last successful delivery
	// Returns 0 if nothing was delivered yet
	GetLastSyncTimestamp(ctx context.Context) (int64, error)
}
