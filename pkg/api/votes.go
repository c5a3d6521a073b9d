package api

import (
	"encoding/json"
	"time"
)

// GPS позиция устройства (информационно, не проверяется)
type GPS struct {
	Accuracy  *float64 `json:"accuracy,omitempty"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
}

// VoteDelta одно знаковое изменение счетчика кандидата.
// Delta принимается как число JSON и должна быть целой.
type VoteDelta struct {
	CandidateID   string  `json:"candidateId" validate:"required"`
	ClientBatchID string  `json:"clientBatchId" validate:"required,samebatch"`
	Delta         float64 `json:"delta" validate:"integer,min=-1000,max=1000"`
	Timestamp     int64   `json:"timestamp" validate:"gt=0"`
}

// VotePayload пакет изменений для одного escrutinio
type VotePayload struct {
	GPS          *GPS              `json:"gps,omitempty"`
	EscrutinioID string            `json:"escrutinioId" validate:"required"`
	DeviceID     string            `json:"deviceId,omitempty" validate:"max=128"`
	Votes        []VoteDelta       `json:"votes" validate:"required,min=1,dive"`
	Audit        []json.RawMessage `json:"audit,omitempty"`
}

// CandidateDelta чистое изменение по кандидату
type CandidateDelta struct {
	CandidateID string `json:"candidateId"`
	Delta       int64  `json:"delta"`
}

// VoteResponse ответ на применение пакета
type VoteResponse struct {
	Counters      map[string]int64 `json:"counters"`
	EscrutinioID  string           `json:"escrutinioId"`
	ClientBatchID string           `json:"clientBatchId"`
	Applied       []CandidateDelta `json:"applied"`
	Duplicate     bool             `json:"duplicate"`
}

// CountersResponse текущие счетчики escrutinio
type CountersResponse struct {
	Counters     map[string]int64 `json:"counters"`
	EscrutinioID string           `json:"escrutinioId"`
	Status       string           `json:"status"`
}

// LocationResponse последняя известная позиция устройства участка
type LocationResponse struct {
	GPS          *GPS   `json:"gps"`
	EscrutinioID string `json:"escrutinioId"`
}

// CompleteRequest завершение escrutinio с фото акта
type CompleteRequest struct {
	EvidenceURL  string `json:"evidenceUrl,omitempty" validate:"omitempty,url,max=2048"`
	EvidenceHash string `json:"evidenceHash,omitempty" validate:"omitempty,len=64,hexadecimal"` // sha256, посчитанный устройством
	Evidence     []byte `json:"evidence,omitempty"`                                             // base64 в JSON
}

// EscrutinioResponse состояние escrutinio
type EscrutinioResponse struct {
	CreatedAt     time.Time  `json:"createdAt"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
	ID            string     `json:"id"`
	MesaNumber    string     `json:"mesaNumber"`
	ElectionLevel string     `json:"electionLevel"`
	Status        string     `json:"status"`
	EvidenceURL   string     `json:"evidenceUrl,omitempty"`
	EvidenceHash  string     `json:"evidenceHash,omitempty"`
}
