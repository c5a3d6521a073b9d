package api

import "time"

// StartPapeletaRequest запрос на открытие бюллетеня.
// PapeletaID генерируется клиентом, чтобы старт можно было повторять офлайн.
type StartPapeletaRequest struct {
	PapeletaID string `json:"papeletaId,omitempty" validate:"omitempty,uuid"`
}

// PapeletaVoteRequest один выбор в бюллетене
type PapeletaVoteRequest struct {
	EntryID       string `json:"entryId,omitempty" validate:"omitempty,max=64"`
	PartyID       string `json:"partyId" validate:"required"`
	CasillaNumber int    `json:"casillaNumber" validate:"min=0,max=1000"`
	Timestamp     int64  `json:"timestamp,omitempty" validate:"min=0"`
}

// VotesBatchRequest полная замена буфера бюллетеня
type VotesBatchRequest struct {
	Votes []PapeletaVoteRequest `json:"votes" validate:"dive"`
}

// AnularRequest запрос на аннулирование бюллетеня
type AnularRequest struct {
	Reason string `json:"reason,omitempty" validate:"max=500"`
}

// BufferedVote выбор, сохраненный в буфере
type BufferedVote struct {
	EntryID       string `json:"entryId,omitempty"`
	PartyID       string `json:"partyId"`
	CasillaNumber int    `json:"casillaNumber"`
	Timestamp     int64  `json:"timestamp"`
}

// PapeletaResponse состояние бюллетеня
type PapeletaResponse struct {
	CreatedAt     time.Time      `json:"createdAt"`
	AnuladaAt     *time.Time     `json:"anuladaAt,omitempty"`
	ID            string         `json:"id"`
	Status        string         `json:"status"`
	EscrutinioID  string         `json:"escrutinioId"`
	UserID        string         `json:"userId"`
	AnuladaReason string         `json:"anuladaReason,omitempty"`
	VotesBuffer   []BufferedVote `json:"votesBuffer"`
}

// AnularResponse результат аннулирования
type AnularResponse struct {
	PapeletaResponse
	VotesDiscarded int `json:"votesDiscarded"`
}

// CommitResponse результат применения бюллетеня к счетчикам
type CommitResponse struct {
	Papeleta PapeletaResponse `json:"papeleta"`
	Result   VoteResponse     `json:"result"`
}
