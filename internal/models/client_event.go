package models

import (
	"encoding/json"
	"time"
)

// События клиентского журнала
const (
	ClientEventVoteDelta = "vote_delta"
	ClientEventFlush     = "flush"
	ClientEventRestore   = "restore"
)

// ClientAuditEvent локальное зеркало события аудита.
// Хранится на устройстве до подтверждения сервером.
type ClientAuditEvent struct {
	GPS           *GPS              `json:"gps,omitempty"`
	Delta         *int64            `json:"delta,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	ID            string            `json:"id"`
	Event         string            `json:"event"`
	UserID        string            `json:"userId,omitempty"`
	MesaID        string            `json:"mesaId,omitempty"`
	EscrutinioID  string            `json:"escrutinioId,omitempty"`
	CandidateID   string            `json:"candidateId,omitempty"`
	DeviceID      string            `json:"deviceId,omitempty"`
	ClientBatchID string            `json:"clientBatchId"`
	Timestamp     int64             `json:"timestamp"` // epoch millis
}

// Типы отложенных действий очереди
const (
	ActionSubmitVotes       = "votes.submit"
	ActionPapeletaStart     = "papeleta.start"
	ActionPapeletaVote      = "papeleta.vote"
	ActionPapeletaVotesSync = "papeleta.votes_batch"
	ActionPapeletaAnular    = "papeleta.anular"
	ActionPapeletaCommit    = "papeleta.commit"
)

// QueuedAction отложенное сетевое действие устройства
type QueuedAction struct {
	CreatedAt   time.Time       `json:"createdAt"`
	LastAttempt *time.Time      `json:"lastAttempt,omitempty"`
	ID          string          `json:"id"`
	Kind        string          `json:"kind"`
	LastError   string          `json:"lastError,omitempty"`
	Payload     json.RawMessage `json:"payload"`
	Seq         uint64          `json:"seq"` // позиция в очереди (FIFO)
	Attempts    int             `json:"attempts"`
}
