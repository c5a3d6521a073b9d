package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/escrutinio/internal/client/storage"
	"github.com/iudanet/escrutinio/internal/models"
)

// Enqueue appends an action and assigns its Seq
func (s *Storage) Enqueue(ctx context.Context, action *models.QueuedAction) error {
	return s.update(func(tx *bbolt.Tx) error {
		return enqueueAction(tx.Bucket(bucketQueue), action)
	})
}

// Head returns the oldest pending action
func (s *Storage) Head(ctx context.Context) (*models.QueuedAction, error) {
	var action *models.QueuedAction

	err := s.view(func(tx *bbolt.Tx) error {
		k, v := tx.Bucket(bucketQueue).Cursor().First()
		if k == nil {
			return storage.ErrQueueEmpty
		}

		var err error
		action, err = decodeAction(v)
		return err
	})
	if err != nil {
		return nil, err
	}

	return action, nil
}

// UpdateAction stores delivery attempt bookkeeping
func (s *Storage) UpdateAction(ctx context.Context, action *models.QueuedAction) error {
	return s.update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketQueue)
		if bucket.Get(seqKey(action.Seq)) == nil {
			return storage.ErrActionNotFound
		}
		return putAction(bucket, action)
	})
}

// RemoveAction deletes a delivered action
func (s *Storage) RemoveAction(ctx context.Context, seq uint64) error {
	return s.update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketQueue)
		if bucket.Get(seqKey(seq)) == nil {
			return storage.ErrActionNotFound
		}
		return bucket.Delete(seqKey(seq))
	})
}

// RejectAction moves an action from the queue to the rejected shelf
func (s *Storage) RejectAction(ctx context.Context, action *models.QueuedAction, reason string) error {
	return s.update(func(tx *bbolt.Tx) error {
		queue := tx.Bucket(bucketQueue)
		if queue.Get(seqKey(action.Seq)) == nil {
			return storage.ErrActionNotFound
		}
		if err := queue.Delete(seqKey(action.Seq)); err != nil {
			return err
		}

		rejected := *action
		rejected.LastError = reason
		return putAction(tx.Bucket(bucketRejected), &rejected)
	})
}

// ListActions returns pending actions in delivery order
func (s *Storage) ListActions(ctx context.Context) ([]*models.QueuedAction, error) {
	return s.listBucket(bucketQueue)
}

// CountActions returns the number of pending actions
func (s *Storage) CountActions(ctx context.Context) (int, error) {
	var n int
	err := s.view(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketQueue).Stats().KeyN
		return nil
	})
	return n, err
}

// ClearQueue discards all pending actions.
// Sequence не сбрасывается: номера удаленных действий не переиспользуются.
func (s *Storage) ClearQueue(ctx context.Context) (int, error) {
	var n int

	err := s.update(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketQueue).Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.First() {
			if err := c.Delete(); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to clear queue: %w", err)
	}

	return n, nil
}

// ListRejected returns actions the server rejected permanently
func (s *Storage) ListRejected(ctx context.Context) ([]*models.QueuedAction, error) {
	return s.listBucket(bucketRejected)
}

func (s *Storage) listBucket(name []byte) ([]*models.QueuedAction, error) {
	actions := []*models.QueuedAction{}

	err := s.view(func(tx *bbolt.Tx) error {
		return tx.Bucket(name).ForEach(func(k, v []byte) error {
			a, err := decodeAction(v)
			if err != nil {
				return err
			}
			actions = append(actions, a)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", name, err)
	}

	return actions, nil
}

func enqueueAction(bucket *bbolt.Bucket, action *models.QueuedAction) error {
	seq, err := bucket.NextSequence()
	if err != nil {
		return fmt.Errorf("failed to allocate queue sequence: %w", err)
	}
	action.Seq = seq

	return putAction(bucket, action)
}

func putAction(bucket *bbolt.Bucket, action *models.QueuedAction) error {
	data, err := json.Marshal(action)
	if err != nil {
		return fmt.Errorf("failed to marshal action: %w", err)
	}
	return bucket.Put(seqKey(action.Seq), data)
}

func decodeAction(data []byte) (*models.QueuedAction, error) {
	var a models.QueuedAction
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to unmarshal action: %w", err)
	}
	return &a, nil
}
