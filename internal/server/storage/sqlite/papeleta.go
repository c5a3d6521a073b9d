package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iudanet/escrutinio/internal/models"
	"github.com/iudanet/escrutinio/internal/server/storage"
)

// CreatePapeleta inserts a new ballot
func (t *txStorage) CreatePapeleta(ctx context.Context, p *models.Papeleta) error {
	buffer, err := marshalBuffer(p.VotesBuffer)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO papeletas (
			id, escrutinio_id, user_id, status, votes_buffer,
			anulada_reason, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = t.q.ExecContext(ctx, query,
		p.ID,
		p.EscrutinioID,
		p.UserID,
		p.Status,
		buffer,
		p.AnuladaReason,
		p.CreatedAt.Unix(),
		p.UpdatedAt.Unix(),
	)

	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrPapeletaExists
		}
		return fmt.Errorf("failed to insert papeleta: %w", err)
	}

	return nil
}

// GetPapeleta retrieves ballot by ID
func (t *txStorage) GetPapeleta(ctx context.Context, id string) (*models.Papeleta, error) {
	query := `
		SELECT id, escrutinio_id, user_id, status, votes_buffer, anulada_reason,
		       created_at, updated_at, anulada_at, committed_at
		FROM papeletas
		WHERE id = ?
	`

	p := &models.Papeleta{}
	var buffer string
	var createdAt, updatedAt int64
	var anuladaAt, committedAt sql.NullInt64

	err := t.q.QueryRowContext(ctx, query, id).Scan(
		&p.ID,
		&p.EscrutinioID,
		&p.UserID,
		&p.Status,
		&buffer,
		&p.AnuladaReason,
		&createdAt,
		&updatedAt,
		&anuladaAt,
		&committedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrPapeletaNotFound
		}
		return nil, fmt.Errorf("failed to get papeleta: %w", err)
	}

	if err := json.Unmarshal([]byte(buffer), &p.VotesBuffer); err != nil {
		return nil, fmt.Errorf("failed to unmarshal votes buffer: %w", err)
	}

	p.CreatedAt = unixToTime(createdAt)
	p.UpdatedAt = unixToTime(updatedAt)
	p.AnuladaAt = nullUnixToTime(anuladaAt)
	p.CommittedAt = nullUnixToTime(committedAt)

	return p, nil
}

// UpdatePapeleta overwrites status, buffer and timestamps of a ballot
func (t *txStorage) UpdatePapeleta(ctx context.Context, p *models.Papeleta) error {
	buffer, err := marshalBuffer(p.VotesBuffer)
	if err != nil {
		return err
	}

	query := `
		UPDATE papeletas
		SET status = ?, votes_buffer = ?, anulada_reason = ?,
		    updated_at = ?, anulada_at = ?, committed_at = ?
		WHERE id = ?
	`

	result, err := t.q.ExecContext(ctx, query,
		p.Status,
		buffer,
		p.AnuladaReason,
		p.UpdatedAt.Unix(),
		timeToNullUnix(p.AnuladaAt),
		timeToNullUnix(p.CommittedAt),
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update papeleta: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrPapeletaNotFound
	}

	return nil
}

func marshalBuffer(votes []models.BufferedVote) (string, error) {
	if votes == nil {
		votes = []models.BufferedVote{}
	}
	data, err := json.Marshal(votes)
	if err != nil {
		return "", fmt.Errorf("failed to marshal votes buffer: %w", err)
	}
	return string(data), nil
}
