package handlers

import (
	"context"

	"github.com/iudanet/escrutinio/internal/models"
)

// contextKey тип для ключей контекста
type contextKey string

// ActorKey ключ для хранения актора в контексте (установлен AuthMiddleware)
const ActorKey contextKey = "actor"

// WithActor возвращает контекст с актором запроса
func WithActor(ctx context.Context, actor models.Actor) context.Context {
	return context.WithValue(ctx, ActorKey, actor)
}

// GetActor извлекает актора из контекста запроса
func GetActor(ctx context.Context) (models.Actor, bool) {
	actor, ok := ctx.Value(ActorKey).(models.Actor)
	return actor, ok && actor.UserID != ""
}
