package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/escrutinio/internal/models"
	"github.com/iudanet/escrutinio/internal/server/storage"
)

// GetCounters returns all candidate counters of an escrutinio
func (s *Storage) GetCounters(ctx context.Context, escrutinioID string) (map[string]int64, error) {
	return getCounters(ctx, s.db, escrutinioID)
}

// GetCounters returns counters inside the transaction
func (t *txStorage) GetCounters(ctx context.Context, escrutinioID string) (map[string]int64, error) {
	return getCounters(ctx, t.q, escrutinioID)
}

// MarkBatchApplied atomically inserts the batch marker.
// Проверка и запись выполняются одним оператором, поэтому два повтора
// одного батча не могут оба увидеть "еще не применен".
func (t *txStorage) MarkBatchApplied(ctx context.Context, escrutinioID, batchID string, at time.Time) (bool, error) {
	query := `
		INSERT INTO applied_batches (escrutinio_id, client_batch_id, applied_at)
		VALUES (?, ?, ?)
		ON CONFLICT (escrutinio_id, client_batch_id) DO NOTHING
	`

	result, err := t.q.ExecContext(ctx, query, escrutinioID, batchID, at.Unix())
	if err != nil {
		return false, fmt.Errorf("failed to mark batch applied: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows == 1, nil
}

// GetBatchResult returns the result stored for an applied batch
func (t *txStorage) GetBatchResult(ctx context.Context, escrutinioID, batchID string) (*models.ApplyResult, error) {
	query := `
		SELECT result FROM applied_batches
		WHERE escrutinio_id = ? AND client_batch_id = ?
	`

	var raw string
	err := t.q.QueryRowContext(ctx, query, escrutinioID, batchID).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrBatchNotFound
		}
		return nil, fmt.Errorf("failed to get batch result: %w", err)
	}

	result := &models.ApplyResult{}
	if raw == "" {
		// Маркер без результата: возвращаем только идентификаторы
		result.EscrutinioID = escrutinioID
		result.ClientBatchID = batchID
		return result, nil
	}

	if err := json.Unmarshal([]byte(raw), result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal batch result: %w", err)
	}

	return result, nil
}

// SaveBatchResult stores the computed result next to the batch marker
func (t *txStorage) SaveBatchResult(ctx context.Context, result *models.ApplyResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal batch result: %w", err)
	}

	query := `
		UPDATE applied_batches SET result = ?
		WHERE escrutinio_id = ? AND client_batch_id = ?
	`

	res, err := t.q.ExecContext(ctx, query, string(data), result.EscrutinioID, result.ClientBatchID)
	if err != nil {
		return fmt.Errorf("failed to save batch result: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrBatchNotFound
	}

	return nil
}

// AddToCounter adds delta to candidate counter and returns the new value
func (t *txStorage) AddToCounter(ctx context.Context, escrutinioID, candidateID string, delta int64) (int64, error) {
	query := `
		INSERT INTO tally_counters (escrutinio_id, candidate_id, votes, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (escrutinio_id, candidate_id)
		DO UPDATE SET votes = votes + excluded.votes, updated_at = excluded.updated_at
		RETURNING votes
	`

	var votes int64
	err := t.q.QueryRowContext(ctx, query, escrutinioID, candidateID, delta, time.Now().Unix()).Scan(&votes)
	if err != nil {
		return 0, fmt.Errorf("failed to update counter: %w", err)
	}

	return votes, nil
}

func getCounters(ctx context.Context, q querier, escrutinioID string) (counters map[string]int64, err error) {
	query := `
		SELECT candidate_id, votes
		FROM tally_counters
		WHERE escrutinio_id = ?
		ORDER BY candidate_id
	`

	rows, err := q.QueryContext(ctx, query, escrutinioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query counters: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	counters = make(map[string]int64)
	for rows.Next() {
		var candidateID string
		var votes int64
		if err := rows.Scan(&candidateID, &votes); err != nil {
			return nil, fmt.Errorf("failed to scan counter: %w", err)
		}
		counters[candidateID] = votes
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return counters, nil
}
