package api

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`             // описание ошибки (текст HTTP статуса)
	Message string `json:"message,omitempty"` // дополнительное сообщение
	Field   string `json:"field,omitempty"`   // первое поле, не прошедшее валидацию
}

// HealthResponse представляет ответ health check
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}
