package models

import "time"

// Роли пользователей
const (
	RoleAdmin    = "ADMIN"
	RoleOperator = "OPERATOR"
	RoleObserver = "OBSERVER"
)

// User представляет пользователя в системе.
// Учетные записи создаются внешним сервисом идентификации,
// здесь хранятся только поля для отображения в аудите.
type User struct {
	CreatedAt time.Time `json:"created_at"` // время создания
	ID        string    `json:"id"`         // UUID пользователя
	Username  string    `json:"username"`   // уникальный username
	Name      string    `json:"name"`       // отображаемое имя
	Email     string    `json:"email"`      // email
	Role      string    `json:"role"`       // роль: ADMIN, OPERATOR, OBSERVER
}

// Actor описывает автора операции: пользователя и источник запроса.
type Actor struct {
	UserID    string
	Username  string
	Role      string
	IPAddress string
	UserAgent string
}

// IsAdmin сообщает, обладает ли актор правами администратора
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
