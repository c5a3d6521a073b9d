package api

import "time"

// AuditEntry проекция записи аудита с данными автора
type AuditEntry struct {
	CreatedAt   time.Time      `json:"createdAt"`
	Metadata    map[string]any `json:"metadata"`
	ID          string         `json:"id"`
	Action      string         `json:"action"`
	Description string         `json:"description"`
	ActorID     string         `json:"actorId"`
	ActorName   string         `json:"actorName"`
	ActorEmail  string         `json:"actorEmail"`
	ActorRole   string         `json:"actorRole"`
	IPAddress   string         `json:"ipAddress"`
	UserAgent   string         `json:"userAgent"`
}

// AuditListResponse записи аудита escrutinio, новые первыми
type AuditListResponse struct {
	EscrutinioID string       `json:"escrutinioId"`
	Entries      []AuditEntry `json:"entries"`
}
