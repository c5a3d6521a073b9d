package models

import "time"

// Статусы escrutinio
const (
	EscrutinioStatusOpen      = "OPEN"
	EscrutinioStatusCompleted = "COMPLETED"
)

// Уровни выборов. Legislative - единственный уровень с подсчетом по бюллетеням.
const (
	ElectionLevelPresidential = "PRESIDENCIAL"
	ElectionLevelLegislative  = "DIPUTADOS"
	ElectionLevelMunicipal    = "ALCALDES"
)

// Escrutinio представляет протокол подсчета для одного участка (mesa)
// и одного уровня выборов.
type Escrutinio struct {
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`  // время завершения (терминальное состояние)
	LastGPS       *GPS       `json:"last_gps,omitempty"`      // последняя известная позиция устройства (скрыта по умолчанию)
	ID            string     `json:"id"`                      // UUID
	MesaNumber    string     `json:"mesa_number"`             // номер участка
	ElectionLevel string     `json:"election_level"`          // уровень выборов
	Status        string     `json:"status"`                  // OPEN / COMPLETED
	UserID        string     `json:"user_id"`                 // назначенный пользователь участка
	EvidenceURL   string     `json:"evidence_url,omitempty"`  // ссылка на фото акта
	EvidenceHash  string     `json:"evidence_hash,omitempty"` // sha256 фото акта
}

// IsOpen сообщает, принимает ли escrutinio новые изменения
func (e *Escrutinio) IsOpen() bool {
	return e.Status == EscrutinioStatusOpen
}

// IsBallotScoped сообщает, ведется ли подсчет по отдельным бюллетеням
func (e *Escrutinio) IsBallotScoped(ballotLevel string) bool {
	return e.ElectionLevel == ballotLevel
}

// Candidate связывает кандидата с партией и номером клетки (casilla)
// в бюллетене legislative уровня.
type Candidate struct {
	ID            string `json:"id"`
	PartyID       string `json:"party_id"`
	Name          string `json:"name"`
	ElectionLevel string `json:"election_level"`
	CasillaNumber int    `json:"casilla_number"`
}
