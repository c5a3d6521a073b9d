package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/iudanet/escrutinio/internal/models"
)

// AppendAudit appends an immutable audit entry
func (t *txStorage) AppendAudit(ctx context.Context, entry *models.AuditLogEntry) error {
	metadata, err := entry.MetadataJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal audit metadata: %w", err)
	}

	query := `
		INSERT INTO audit_log (
			id, action, description, actor_id, escrutinio_id,
			metadata, ip_address, user_agent, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = t.q.ExecContext(ctx, query,
		entry.ID,
		entry.Action,
		entry.Description,
		entry.ActorID,
		entry.EscrutinioID(),
		string(metadata),
		entry.IPAddress,
		entry.UserAgent,
		entry.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}

	return nil
}

// ListAuditByEscrutinio returns audit entries of an escrutinio, newest first
func (s *Storage) ListAuditByEscrutinio(ctx context.Context, escrutinioID string) (entries []*models.AuditView, err error) {
	// rowid сохраняет порядок добавления внутри одной секунды
	query := `
		SELECT a.id, a.action, a.description, a.actor_id, a.metadata,
		       a.ip_address, a.user_agent, a.created_at,
		       COALESCE(u.name, ''), COALESCE(u.email, ''), COALESCE(u.role, '')
		FROM audit_log a
		LEFT JOIN users u ON u.id = a.actor_id
		WHERE a.escrutinio_id = ?
		ORDER BY a.created_at DESC, a.rowid DESC
	`

	rows, err := s.db.QueryContext(ctx, query, escrutinioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	entries = make([]*models.AuditView, 0)
	for rows.Next() {
		view := &models.AuditView{}
		var metadata string
		var createdAt int64

		if err := rows.Scan(
			&view.ID,
			&view.Action,
			&view.Description,
			&view.ActorID,
			&metadata,
			&view.IPAddress,
			&view.UserAgent,
			&createdAt,
			&view.ActorName,
			&view.ActorEmail,
			&view.ActorRole,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}

		if err := json.Unmarshal([]byte(metadata), &view.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal audit metadata: %w", err)
		}
		view.CreatedAt = unixToTime(createdAt)

		entries = append(entries, view)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return entries, nil
}
