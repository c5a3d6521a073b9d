package storage

import (
	"context"

	"github.com/iudanet/escrutinio/internal/models"
)

// FlushPlan делит выгруженные события на действия очереди и события,
// которые остаются в буфере. Вызывается внутри транзакции записи и не должен
// обращаться к хранилищу.
type FlushPlan func(drained []*models.ClientAuditEvent) (actions []*models.QueuedAction, keep []*models.ClientAuditEvent, err error)

// EventStorage is the durable local log of ClientAuditEvents awaiting
// server confirmation. Every method is one atomic read-modify-write.
type EventStorage interface {
	// AppendEvent adds an event to the end of the buffer
	AppendEvent(ctx context.Context, event *models.ClientAuditEvent) error

	// DrainEvents empties the buffer and returns its events in order
	DrainEvents(ctx context.Context) ([]*models.ClientAuditEvent, error)

	// RestoreEvents puts previously drained events back in front of
	// anything buffered since, keeping their original order
	RestoreEvents(ctx context.Context, events []*models.ClientAuditEvent) error

	// DrainToQueue drains the buffer, enqueues the actions built by plan and
	// restores the events plan keeps, all in one transaction. If plan or any
	// write fails, neither the buffer nor the queue changes.
	DrainToQueue(ctx context.Context, plan FlushPlan) error

	// ListEvents returns buffered events without removing them
	ListEvents(ctx context.Context) ([]*models.ClientAuditEvent, error)

	// CountEvents returns the number of buffered events
	CountEvents(ctx context.Context) (int, error)
}
