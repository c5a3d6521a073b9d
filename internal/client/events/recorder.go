// Package events буферизует локальные события устройства и превращает их
// в батчи дельт для очереди отложенных действий.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/escrutinio/internal/client/queue"
	"github.com/iudanet/escrutinio/internal/client/storage"
	"github.com/iudanet/escrutinio/internal/models"
	"github.com/iudanet/escrutinio/pkg/api"
)

// VoteInput изменение счетчика, введенное оператором
type VoteInput struct {
	GPS          *models.GPS
	EscrutinioID string
	CandidateID  string
	MesaID       string
	UserID       string
	Delta        int64
}

// FlushResult итог Flush
type FlushResult struct {
	BatchIDs []string // clientBatchId поставленных в очередь payload
	Events   int      // событий ушло в очередь
	Kept     int      // событий осталось в буфере
}

// Recorder пишет события в локальный журнал и собирает их в VotePayload
type Recorder struct {
	events storage.EventStorage
	meta   storage.MetadataStorage
	logger *slog.Logger
	now    func() time.Time
}

// NewRecorder creates a new event recorder
func NewRecorder(events storage.EventStorage, meta storage.MetadataStorage, logger *slog.Logger) *Recorder {
	return &Recorder{
		events: events,
		meta:   meta,
		logger: logger,
		now:    time.Now,
	}
}

// RecordVote записывает дельту голосов в журнал устройства
func (r *Recorder) RecordVote(ctx context.Context, in VoteInput) (*models.ClientAuditEvent, error) {
	if in.EscrutinioID == "" {
		return nil, models.NewValidationError("escrutinioId", "is required")
	}
	if in.CandidateID == "" {
		return nil, models.NewValidationError("candidateId", "is required")
	}
	if in.Delta < models.MinDelta || in.Delta > models.MaxDelta {
		return nil, models.NewValidationError("delta",
			fmt.Sprintf("must be between %d and %d", models.MinDelta, models.MaxDelta))
	}

	delta := in.Delta
	event := &models.ClientAuditEvent{
		Event:        models.ClientEventVoteDelta,
		EscrutinioID: in.EscrutinioID,
		CandidateID:  in.CandidateID,
		MesaID:       in.MesaID,
		UserID:       in.UserID,
		Delta:        &delta,
		GPS:          in.GPS,
	}
	if err := r.RecordEvent(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// RecordEvent дополняет событие id, batch id, устройством и временем и пишет в журнал
func (r *Recorder) RecordEvent(ctx context.Context, event *models.ClientAuditEvent) error {
	if event.Event == "" {
		return models.NewValidationError("event", "is required")
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.ClientBatchID == "" {
		batchID, err := r.meta.CurrentBatchID(ctx)
		if err != nil {
			return fmt.Errorf("failed to get current batch id: %w", err)
		}
		event.ClientBatchID = batchID
	}
	if event.DeviceID == "" {
		deviceID, err := r.meta.GetDeviceID(ctx)
		if err != nil {
			return fmt.Errorf("failed to get device id: %w", err)
		}
		event.DeviceID = deviceID
	}
	if event.Timestamp == 0 {
		event.Timestamp = r.now().UnixMilli()
	}

	if err := r.events.AppendEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}

	r.logger.Debug("Event recorded",
		"event_id", event.ID,
		"event", event.Event,
		"escrutinio_id", event.EscrutinioID,
		"client_batch_id", event.ClientBatchID)
	return nil
}

// Pending возвращает события, еще не переданные в очередь
func (r *Recorder) Pending(ctx context.Context) ([]*models.ClientAuditEvent, error) {
	return r.events.ListEvents(ctx)
}

// group события одного escrutinio и одного clientBatchId
type group struct {
	payload  *api.VotePayload
	events   []int // индексы в исходном порядке
	hasVotes bool
}

// Flush переносит журнал в очередь: один VotePayload на пару (escrutinio, batch).
// Текущий batch id сменяется до выгрузки, поэтому новые события
// попадают уже в следующий батч. События без дельт идут в audit первого
// payload своего escrutinio. Выгрузка и постановка в очередь происходят
// в одной транзакции: при ошибке журнал остается как был.
func (r *Recorder) Flush(ctx context.Context) (*FlushResult, error) {
	if _, err := r.meta.RotateBatchID(ctx); err != nil {
		return nil, fmt.Errorf("failed to rotate batch id: %w", err)
	}

	var (
		result  *FlushResult
		batches []*api.VotePayload
	)
	err := r.events.DrainToQueue(ctx, func(drained []*models.ClientAuditEvent) ([]*models.QueuedAction, []*models.ClientAuditEvent, error) {
		var (
			actions []*models.QueuedAction
			keep    []*models.ClientAuditEvent
			err     error
		)
		result, batches, actions, keep, err = r.plan(drained)
		return actions, keep, err
	})
	if err != nil {
		return &FlushResult{}, r.flushFailed(ctx, err)
	}

	for _, p := range batches {
		r.logger.Info("Batch queued",
			"escrutinio_id", p.EscrutinioID,
			"client_batch_id", p.Votes[0].ClientBatchID,
			"votes", len(p.Votes),
			"audit_events", len(p.Audit))
	}
	return result, nil
}

// plan строит payload для выгруженных событий. Не обращается к хранилищу.
func (r *Recorder) plan(drained []*models.ClientAuditEvent) (*FlushResult, []*api.VotePayload, []*models.QueuedAction, []*models.ClientAuditEvent, error) {
	result := &FlushResult{}
	if len(drained) == 0 {
		return result, nil, nil, nil, nil
	}

	groups := buildGroups(drained)

	// owner[i] - индекс группы, в audit которой едет событие i (-1: некуда)
	owner := make([]int, len(drained))
	firstByEscrutinio := map[string]int{}
	firstAny := -1
	for gi, g := range groups {
		if !g.hasVotes {
			continue
		}
		if _, ok := firstByEscrutinio[g.payload.EscrutinioID]; !ok {
			firstByEscrutinio[g.payload.EscrutinioID] = gi
		}
		if firstAny < 0 {
			firstAny = gi
		}
	}
	for gi, g := range groups {
		target := -1
		if g.hasVotes {
			target = gi
		} else if gi, ok := firstByEscrutinio[g.payload.EscrutinioID]; ok {
			target = gi
		} else if g.payload.EscrutinioID == "" {
			target = firstAny
		}
		for _, i := range g.events {
			owner[i] = target
		}
	}

	// Собираем audit в исходном порядке событий
	var keep []*models.ClientAuditEvent
	for i, e := range drained {
		if owner[i] < 0 {
			keep = append(keep, e)
			continue
		}
		raw, err := json.Marshal(e)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("failed to marshal event %s: %w", e.ID, err)
		}
		p := groups[owner[i]].payload
		p.Audit = append(p.Audit, raw)
		result.Events++
	}

	var (
		batches []*api.VotePayload
		actions []*models.QueuedAction
	)
	for _, g := range groups {
		if !g.hasVotes {
			continue
		}
		g.payload.Audit = append(g.payload.Audit, r.flushMarker(g.payload, len(g.payload.Audit)))

		action, err := queue.NewAction(models.ActionSubmitVotes, g.payload, r.now())
		if err != nil {
			return nil, nil, nil, nil, err
		}
		actions = append(actions, action)
		batches = append(batches, g.payload)
		result.BatchIDs = append(result.BatchIDs, g.payload.Votes[0].ClientBatchID)
	}

	// События без payload остаются в журнале до следующей выгрузки
	result.Kept = len(keep)
	return result, batches, actions, keep, nil
}

// flushFailed отмечает в журнале неудачную выгрузку
func (r *Recorder) flushFailed(ctx context.Context, cause error) error {
	marker := &models.ClientAuditEvent{
		Event:    models.ClientEventRestore,
		Metadata: map[string]string{"reason": cause.Error()},
	}
	if err := r.RecordEvent(ctx, marker); err != nil {
		r.logger.Warn("Failed to record restore event", "error", err)
	}

	r.logger.Warn("Flush failed, events kept in the buffer", "error", cause)
	return fmt.Errorf("failed to flush events: %w", cause)
}

func (r *Recorder) flushMarker(p *api.VotePayload, events int) json.RawMessage {
	marker := models.ClientAuditEvent{
		ID:            uuid.NewString(),
		Event:         models.ClientEventFlush,
		EscrutinioID:  p.EscrutinioID,
		DeviceID:      p.DeviceID,
		ClientBatchID: p.Votes[0].ClientBatchID,
		Timestamp:     r.now().UnixMilli(),
		Metadata:      map[string]string{"events": strconv.Itoa(events), "votes": strconv.Itoa(len(p.Votes))},
	}
	raw, _ := json.Marshal(marker)
	return raw
}

// buildGroups группирует события по (escrutinio, batch) в порядке первого появления
func buildGroups(drained []*models.ClientAuditEvent) []*group {
	var groups []*group
	byKey := map[string]*group{}

	for i, e := range drained {
		key := e.EscrutinioID + "\x00" + e.ClientBatchID
		g, ok := byKey[key]
		if !ok {
			g = &group{
				payload: &api.VotePayload{EscrutinioID: e.EscrutinioID, DeviceID: e.DeviceID},
			}
			byKey[key] = g
			groups = append(groups, g)
		}
		g.events = append(g.events, i)

		if e.Event != models.ClientEventVoteDelta || e.Delta == nil || e.EscrutinioID == "" {
			continue
		}
		g.hasVotes = true
		g.payload.Votes = append(g.payload.Votes, api.VoteDelta{
			CandidateID:   e.CandidateID,
			ClientBatchID: e.ClientBatchID,
			Delta:         float64(*e.Delta),
			Timestamp:     e.Timestamp,
		})
		if e.GPS != nil {
			g.payload.GPS = &api.GPS{
				Latitude:  e.GPS.Latitude,
				Longitude: e.GPS.Longitude,
				Accuracy:  e.GPS.Accuracy,
			}
		}
	}

	return groups
}
