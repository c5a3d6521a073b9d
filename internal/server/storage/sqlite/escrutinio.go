package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iudanet/escrutinio/internal/models"
	"github.com/iudanet/escrutinio/internal/server/storage"
)

// CreateEscrutinio creates a new tally record
func (s *Storage) CreateEscrutinio(ctx context.Context, e *models.Escrutinio) error {
	query := `
		INSERT INTO escrutinios (
			id, mesa_number, election_level, status, user_id,
			evidence_url, evidence_hash, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	status := e.Status
	if status == "" {
		status = models.EscrutinioStatusOpen
	}

	_, err := s.db.ExecContext(ctx, query,
		e.ID,
		e.MesaNumber,
		e.ElectionLevel,
		status,
		e.UserID,
		e.EvidenceURL,
		e.EvidenceHash,
		e.CreatedAt.Unix(),
	)

	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrEscrutinioExists
		}
		return fmt.Errorf("failed to insert escrutinio: %w", err)
	}

	return nil
}

// GetEscrutinio retrieves tally record by ID
func (s *Storage) GetEscrutinio(ctx context.Context, id string) (*models.Escrutinio, error) {
	return getEscrutinio(ctx, s.db, id)
}

// CreateCandidate registers a candidate
func (s *Storage) CreateCandidate(ctx context.Context, c *models.Candidate) error {
	query := `
		INSERT INTO candidates (id, party_id, name, election_level, casilla_number)
		VALUES (?, ?, ?, ?, ?)
	`

	if _, err := s.db.ExecContext(ctx, query, c.ID, c.PartyID, c.Name, c.ElectionLevel, c.CasillaNumber); err != nil {
		if isUniqueViolation(err) {
			return storage.ErrCandidateExists
		}
		return fmt.Errorf("failed to insert candidate: %w", err)
	}

	return nil
}

// GetEscrutinio retrieves tally record inside the transaction
func (t *txStorage) GetEscrutinio(ctx context.Context, id string) (*models.Escrutinio, error) {
	return getEscrutinio(ctx, t.q, id)
}

// UpdateEscrutinioGPS stores the last reported device position
func (t *txStorage) UpdateEscrutinioGPS(ctx context.Context, id string, gps *models.GPS) error {
	if gps == nil {
		return nil
	}

	data, err := json.Marshal(gps)
	if err != nil {
		return fmt.Errorf("failed to marshal gps: %w", err)
	}

	if _, err := t.q.ExecContext(ctx, `UPDATE escrutinios SET last_gps = ? WHERE id = ?`, string(data), id); err != nil {
		return fmt.Errorf("failed to update gps: %w", err)
	}

	return nil
}

// CompleteEscrutinio marks tally record as completed
func (t *txStorage) CompleteEscrutinio(ctx context.Context, id string, completedAt time.Time, evidenceURL, evidenceHash string) error {
	query := `
		UPDATE escrutinios
		SET status = ?, completed_at = ?, evidence_url = ?, evidence_hash = ?
		WHERE id = ?
	`

	result, err := t.q.ExecContext(ctx, query,
		models.EscrutinioStatusCompleted,
		completedAt.Unix(),
		evidenceURL,
		evidenceHash,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete escrutinio: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrEscrutinioNotFound
	}

	return nil
}

// ResolveCandidate finds candidate ID by party and casilla
func (t *txStorage) ResolveCandidate(ctx context.Context, electionLevel, partyID string, casillaNumber int) (string, error) {
	query := `
		SELECT id FROM candidates
		WHERE election_level = ? AND party_id = ? AND casilla_number = ?
	`

	var id string
	err := t.q.QueryRowContext(ctx, query, electionLevel, partyID, casillaNumber).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", storage.ErrCandidateNotFound
		}
		return "", fmt.Errorf("failed to resolve candidate: %w", err)
	}

	return id, nil
}

// CandidateExists reports whether candidate is registered on the election level
func (t *txStorage) CandidateExists(ctx context.Context, electionLevel, candidateID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM candidates WHERE id = ? AND election_level = ?)`

	var exists bool
	if err := t.q.QueryRowContext(ctx, query, candidateID, electionLevel).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check candidate: %w", err)
	}

	return exists, nil
}

func getEscrutinio(ctx context.Context, q querier, id string) (*models.Escrutinio, error) {
	query := `
		SELECT id, mesa_number, election_level, status, user_id,
		       evidence_url, evidence_hash, last_gps, created_at, completed_at
		FROM escrutinios
		WHERE id = ?
	`

	e := &models.Escrutinio{}
	var lastGPS sql.NullString
	var createdAt int64
	var completedAt sql.NullInt64

	err := q.QueryRowContext(ctx, query, id).Scan(
		&e.ID,
		&e.MesaNumber,
		&e.ElectionLevel,
		&e.Status,
		&e.UserID,
		&e.EvidenceURL,
		&e.EvidenceHash,
		&lastGPS,
		&createdAt,
		&completedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrEscrutinioNotFound
		}
		return nil, fmt.Errorf("failed to get escrutinio: %w", err)
	}

	e.CreatedAt = unixToTime(createdAt)
	e.CompletedAt = nullUnixToTime(completedAt)

	if lastGPS.Valid && lastGPS.String != "" {
		e.LastGPS = &models.GPS{}
		if err := json.Unmarshal([]byte(lastGPS.String), e.LastGPS); err != nil {
			return nil, fmt.Errorf("failed to unmarshal gps: %w", err)
		}
	}

	return e, nil
}

// isUniqueViolation проверяет нарушение UNIQUE/PRIMARY KEY ограничения
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
