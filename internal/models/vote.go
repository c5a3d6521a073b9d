package models

import (
	"encoding/json"
	"sort"
)

// Границы одного изменения счетчика
const (
	MinDelta = -1000
	MaxDelta = 1000
)

// GPS позиция устройства. Носит информационный характер.
type GPS struct {
	Accuracy  *float64 `json:"accuracy,omitempty"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
}

// VoteDelta представляет знаковое изменение счетчика кандидата.
// Никогда не абсолютное значение.
type VoteDelta struct {
	CandidateID   string `json:"candidateId"`
	ClientBatchID string `json:"clientBatchId"`
	Delta         int64  `json:"delta"`
	Timestamp     int64  `json:"timestamp"` // epoch millis клиента, только для отображения
}

// VotePayload атомарная единица передачи по сети.
// Все дельты одного payload разделяют один clientBatchId.
type VotePayload struct {
	GPS          *GPS              `json:"gps,omitempty"`
	EscrutinioID string            `json:"escrutinioId"`
	DeviceID     string            `json:"deviceId,omitempty"`
	Votes        []VoteDelta       `json:"votes"`
	Audit        []json.RawMessage `json:"audit,omitempty"`
}

// BatchID возвращает clientBatchId payload (берется из первой дельты)
func (p *VotePayload) BatchID() string {
	if len(p.Votes) == 0 {
		return ""
	}
	return p.Votes[0].ClientBatchID
}

// NetDeltas суммирует дельты по кандидатам.
// Несколько дельт одного кандидата в одном payload применяются как сумма.
func (p *VotePayload) NetDeltas() map[string]int64 {
	net := make(map[string]int64, len(p.Votes))
	for _, v := range p.Votes {
		net[v.CandidateID] += v.Delta
	}
	return net
}

// CandidateDelta чистое изменение по одному кандидату
type CandidateDelta struct {
	CandidateID string `json:"candidateId"`
	Delta       int64  `json:"delta"`
}

// SortedNetDeltas возвращает NetDeltas в детерминированном порядке
// (по candidateId), чтобы порядок обновления строк не зависел от map.
func (p *VotePayload) SortedNetDeltas() []CandidateDelta {
	net := p.NetDeltas()
	out := make([]CandidateDelta, 0, len(net))
	for id, d := range net {
		out = append(out, CandidateDelta{CandidateID: id, Delta: d})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CandidateID < out[j].CandidateID })
	return out
}

// ApplyResult результат применения батча к счетчикам escrutinio
type ApplyResult struct {
	Counters      map[string]int64 `json:"counters"` // счетчики escrutinio после применения
	EscrutinioID  string           `json:"escrutinioId"`
	ClientBatchID string           `json:"clientBatchId"`
	Applied       []CandidateDelta `json:"applied"`   // чистые изменения батча
	Duplicate     bool             `json:"duplicate"` // батч уже был применен ранее
}
