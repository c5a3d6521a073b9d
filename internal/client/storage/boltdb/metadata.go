package boltdb

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"
)

var (
	keyLastSyncTimestamp = []byte("last_sync_timestamp")
	keyDeviceID          = []byte("device_id")
	keyCurrentBatchID    = []byte("current_batch_id")
)

// GetDeviceID returns the persistent device ID, creating it on first use
func (s *Storage) GetDeviceID(ctx context.Context) (string, error) {
	return s.getOrCreate(keyDeviceID)
}

// SetDeviceID overrides the device ID
func (s *Storage) SetDeviceID(ctx context.Context, deviceID string) error {
	return s.update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketMetadata).Put(keyDeviceID, []byte(deviceID)); err != nil {
			return fmt.Errorf("failed to save device id: %w", err)
		}
		return nil
	})
}

// CurrentBatchID returns the clientBatchId new events are recorded under
func (s *Storage) CurrentBatchID(ctx context.Context) (string, error) {
	return s.getOrCreate(keyCurrentBatchID)
}

// RotateBatchID replaces the current clientBatchId and returns the previous one
func (s *Storage) RotateBatchID(ctx context.Context) (string, error) {
	var previous string

	err := s.update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketMetadata)
		previous = string(bucket.Get(keyCurrentBatchID))
		return bucket.Put(keyCurrentBatchID, []byte(uuid.NewString()))
	})
	if err != nil {
		return "", fmt.Errorf("failed to rotate batch id: %w", err)
	}

	return previous, nil
}

// getOrCreate атомарно читает значение или создает новый UUID
func (s *Storage) getOrCreate(key []byte) (string, error) {
	var value string

	err := s.update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketMetadata)
		if v := bucket.Get(key); v != nil {
			value = string(v)
			return nil
		}
		value = uuid.NewString()
		return bucket.Put(key, []byte(value))
	})
	if err != nil {
		return "", fmt.Errorf("failed to get %s: %w", key, err)
	}

	return value, nil
}

// SaveLastSyncTimestamp saves the time of the last successful delivery
func (s *Storage) SaveLastSyncTimestamp(ctx context.Context, timestamp int64) error {
	return s.update(func(tx *bbolt.Tx) error {
		// Конвертируем int64 в bytes
		timestampBytes := make([]byte, 8)
		binary.BigEndian.PutUint64(timestampBytes, uint64(timestamp))

		if err := tx.Bucket(bucketMetadata).Put(keyLastSyncTimestamp, timestampBytes); err != nil {
			return fmt.Errorf("failed to save last sync timestamp: %w", err)
		}
		return nil
	})
}

// GetLastSyncTimestamp retrieves the time of the last successful delivery
// Returns 0 if nothing was delivered yet
func (s *Storage) GetLastSyncTimestamp(ctx context.Context) (int64, error) {
	var timestamp int64

	err := s.view(func(tx *bbolt.Tx) error {
		if b := tx.Bucket(bucketMetadata).Get(keyLastSyncTimestamp); b != nil {
			timestamp = int64(binary.BigEndian.Uint64(b))
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get last sync timestamp: %w", err)
	}

	return timestamp, nil
}
