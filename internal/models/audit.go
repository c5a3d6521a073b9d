package models

import (
	"encoding/json"
	"time"
)

// Действия аудита
const (
	AuditVotesApplied       = "VOTES_APPLIED"
	AuditPapeletaStarted    = "PAPELETA_STARTED"
	AuditPapeletaVote       = "PAPELETA_VOTE"
	AuditPapeletaVotesBatch = "PAPELETA_VOTES_BATCH"
	AuditPapeletaAnulada    = "PAPELETA_ANULADA"
	AuditPapeletaCommitted  = "PAPELETA_COMMITTED"
	AuditEscrutinioComplete = "ESCRUTINIO_COMPLETED"
	AuditGPSRevealed        = "GPS_REVEALED"
)

// AuditLogEntry неизменяемая запись журнала аудита.
// Только добавление, никогда не изменяется и не удаляется.
type AuditLogEntry struct {
	CreatedAt   time.Time      `json:"createdAt"`
	Metadata    map[string]any `json:"metadata"` // содержит escrutinioId и id батча/бюллетеня
	ID          string         `json:"id"`
	Action      string         `json:"action"`
	Description string         `json:"description"`
	ActorID     string         `json:"actorId"`
	IPAddress   string         `json:"ipAddress"`
	UserAgent   string         `json:"userAgent"`
}

// EscrutinioID извлекает escrutinioId из метаданных
func (e *AuditLogEntry) EscrutinioID() string {
	id, _ := e.Metadata["escrutinioId"].(string)
	return id
}

// MetadataJSON сериализует метаданные для хранения
func (e *AuditLogEntry) MetadataJSON() ([]byte, error) {
	if e.Metadata == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(e.Metadata)
}

// AuditView проекция записи аудита с полями автора для чтения
type AuditView struct {
	AuditLogEntry
	ActorName  string `json:"actorName"`
	ActorEmail string `json:"actorEmail"`
	ActorRole  string `json:"actorRole"`
}
