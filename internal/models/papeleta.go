package models

import "time"

// Статусы бюллетеня
const (
	PapeletaStatusOpen      = "OPEN"
	PapeletaStatusAnulada   = "ANULADA"
	PapeletaStatusCommitted = "COMMITTED"
)

// BufferedVote один выбор в буфере бюллетеня
type BufferedVote struct {
	EntryID       string `json:"entryId,omitempty"` // клиентский id для идемпотентного добавления
	PartyID       string `json:"partyId"`
	CasillaNumber int    `json:"casillaNumber"`
	Timestamp     int64  `json:"timestamp"` // epoch millis
}

// Papeleta представляет физический бюллетень legislative уровня.
// Выборы накапливаются в буфере и затем применяются или аннулируются целиком.
type Papeleta struct {
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
	AnuladaAt     *time.Time     `json:"anuladaAt,omitempty"`
	CommittedAt   *time.Time     `json:"committedAt,omitempty"`
	ID            string         `json:"id"`
	EscrutinioID  string         `json:"escrutinioId"`
	UserID        string         `json:"userId"`
	Status        string         `json:"status"`
	AnuladaReason string         `json:"anuladaReason,omitempty"`
	VotesBuffer   []BufferedVote `json:"votesBuffer"`
}

// IsOpen сообщает, можно ли изменять буфер
func (p *Papeleta) IsOpen() bool {
	return p.Status == PapeletaStatusOpen
}

// HasEntry проверяет, есть ли в буфере запись с данным entryId
func (p *Papeleta) HasEntry(entryID string) bool {
	if entryID == "" {
		return false
	}
	for _, v := range p.VotesBuffer {
		if v.EntryID == entryID {
			return true
		}
	}
	return false
}

// CommitBatchID идемпотентный ключ применения бюллетеня
func (p *Papeleta) CommitBatchID() string {
	return "papeleta:" + p.ID
}
