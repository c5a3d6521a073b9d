package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/escrutinio/internal/client/storage"
	"github.com/iudanet/escrutinio/internal/models"
)

// AppendEvent adds an event to the end of the buffer
func (s *Storage) AppendEvent(ctx context.Context, event *models.ClientAuditEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	return s.update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketEvents)
		seq, err := bucket.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to allocate event sequence: %w", err)
		}
		return bucket.Put(seqKey(seq), data)
	})
}

// DrainEvents empties the buffer and returns its events in order
func (s *Storage) DrainEvents(ctx context.Context) ([]*models.ClientAuditEvent, error) {
	var events []*models.ClientAuditEvent

	err := s.update(func(tx *bbolt.Tx) error {
		var err error
		events, err = drainEvents(tx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to drain events: %w", err)
	}

	return events, nil
}

// RestoreEvents puts drained events back in front of newer ones
func (s *Storage) RestoreEvents(ctx context.Context, restored []*models.ClientAuditEvent) error {
	if len(restored) == 0 {
		return nil
	}

	err := s.update(func(tx *bbolt.Tx) error {
		return restoreEvents(tx, restored)
	})
	if err != nil {
		return fmt.Errorf("failed to restore events: %w", err)
	}

	return nil
}

// DrainToQueue moves buffered events into the action queue in one transaction
func (s *Storage) DrainToQueue(ctx context.Context, plan storage.FlushPlan) error {
	err := s.update(func(tx *bbolt.Tx) error {
		drained, err := drainEvents(tx)
		if err != nil {
			return err
		}

		actions, keep, err := plan(drained)
		if err != nil {
			return err
		}

		queue := tx.Bucket(bucketQueue)
		for _, action := range actions {
			if err := enqueueAction(queue, action); err != nil {
				return err
			}
		}

		return restoreEvents(tx, keep)
	})
	if err != nil {
		return fmt.Errorf("failed to move events to queue: %w", err)
	}

	return nil
}

// ListEvents returns buffered events without removing them
func (s *Storage) ListEvents(ctx context.Context) ([]*models.ClientAuditEvent, error) {
	var events []*models.ClientAuditEvent

	err := s.view(func(tx *bbolt.Tx) error {
		var err error
		events, err = readEvents(tx.Bucket(bucketEvents))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	return events, nil
}

// CountEvents returns the number of buffered events
func (s *Storage) CountEvents(ctx context.Context) (int, error) {
	var n int
	err := s.view(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketEvents).Stats().KeyN
		return nil
	})
	return n, err
}

func drainEvents(tx *bbolt.Tx) ([]*models.ClientAuditEvent, error) {
	events, err := readEvents(tx.Bucket(bucketEvents))
	if err != nil {
		return nil, err
	}
	if err := resetBucket(tx, bucketEvents); err != nil {
		return nil, err
	}
	return events, nil
}

// restoreEvents перезаписывает журнал: сначала restored, затем более новые события
func restoreEvents(tx *bbolt.Tx, restored []*models.ClientAuditEvent) error {
	if len(restored) == 0 {
		return nil
	}

	newer, err := readEvents(tx.Bucket(bucketEvents))
	if err != nil {
		return err
	}
	if err := resetBucket(tx, bucketEvents); err != nil {
		return err
	}

	bucket := tx.Bucket(bucketEvents)
	for _, e := range append(append([]*models.ClientAuditEvent{}, restored...), newer...) {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to marshal event: %w", err)
		}
		seq, err := bucket.NextSequence()
		if err != nil {
			return err
		}
		if err := bucket.Put(seqKey(seq), data); err != nil {
			return err
		}
	}
	return nil
}

func readEvents(bucket *bbolt.Bucket) ([]*models.ClientAuditEvent, error) {
	events := []*models.ClientAuditEvent{}
	err := bucket.ForEach(func(k, v []byte) error {
		var e models.ClientAuditEvent
		if err := json.Unmarshal(v, &e); err != nil {
			return fmt.Errorf("failed to unmarshal event: %w", err)
		}
		events = append(events, &e)
		return nil
	})
	return events, err
}

// resetBucket удаляет и заново создает bucket (со сбросом sequence)
func resetBucket(tx *bbolt.Tx, name []byte) error {
	if err := tx.DeleteBucket(name); err != nil {
		return fmt.Errorf("failed to delete %s bucket: %w", name, err)
	}
	if _, err := tx.CreateBucket(name); err != nil {
		return fmt.Errorf("failed to create %s bucket: %w", name, err)
	}
	return nil
}
