package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	httpClient "github.com/iudanet/escrutinio/internal/client/api"
	"github.com/iudanet/escrutinio/internal/client/storage"
	"github.com/iudanet/escrutinio/internal/models"
)

var _ Sender = (*httpClient.Client)(nil)

// ErrBusy возвращается, если другая выгрузка очереди уже выполняется
var ErrBusy = errors.New("queue drain already in progress")

// Значения по умолчанию для задержки повторов
const (
	DefaultBaseBackoff = 2 * time.Second
	DefaultMaxBackoff  = 5 * time.Minute
)

// Options настройки повторной доставки
type Options struct {
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

// Result итог одной выгрузки очереди
type Result struct {
	Delivered int // доставлено и удалено из очереди
	Rejected  int // отклонено сервером и перенесено в rejected
	Remaining int // осталось в очереди
}

// Service доставляет отложенные действия устройства в порядке FIFO.
// Временная ошибка оставляет действие в голове очереди, постоянная
// переносит его в список отклоненных.
type Service struct {
	nextAttempt time.Time
	sender      Sender
	store       storage.QueueStorage
	meta        storage.MetadataStorage
	logger      *slog.Logger
	now         func() time.Time
	opts        Options
	mu          sync.Mutex
	failures    int
	processing  atomic.Bool
	online      atomic.Bool
}

// NewService creates a new queue service
func NewService(sender Sender, store storage.QueueStorage, meta storage.MetadataStorage, logger *slog.Logger, opts Options) *Service {
	if opts.BaseBackoff <= 0 {
		opts.BaseBackoff = DefaultBaseBackoff
	}
	if opts.MaxBackoff < opts.BaseBackoff {
		opts.MaxBackoff = max(DefaultMaxBackoff, opts.BaseBackoff)
	}
	return &Service{
		sender: sender,
		store:  store,
		meta:   meta,
		logger: logger,
		opts:   opts,
		now:    time.Now,
	}
}

// Enqueue сохраняет действие в очереди. Действие переживает перезапуск процесса.
func (s *Service) Enqueue(ctx context.Context, kind string, payload any) (*models.QueuedAction, error) {
	action, err := NewAction(kind, payload, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.store.Enqueue(ctx, action); err != nil {
		return nil, fmt.Errorf("failed to enqueue %s: %w", kind, err)
	}

	s.logger.Debug("Action enqueued", "action_id", action.ID, "kind", kind, "seq", action.Seq)
	return action, nil
}

// NewAction собирает действие очереди. Seq назначает хранилище при записи.
func NewAction(kind string, payload any, now time.Time) (*models.QueuedAction, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", kind, err)
	}

	return &models.QueuedAction{
		ID:        uuid.NewString(),
		Kind:      kind,
		Payload:   data,
		CreatedAt: now.UTC(),
	}, nil
}

// ProcessQueue выгружает очередь до пустой или до первой временной ошибки.
// Одновременно выполняется только одна выгрузка, остальные получают ErrBusy.
func (s *Service) ProcessQueue(ctx context.Context) (*Result, error) {
	if !s.processing.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer s.processing.Store(false)

	result := &Result{}
	defer func() {
		if n, err := s.store.CountActions(context.WithoutCancel(ctx)); err == nil {
			result.Remaining = n
		}
	}()

	for {
		// Между действиями проверяем отмену, текущая доставка не прерывается
		if err := ctx.Err(); err != nil {
			return result, err
		}

		action, err := s.store.Head(ctx)
		if errors.Is(err, storage.ErrQueueEmpty) {
			return result, nil
		}
		if err != nil {
			return result, fmt.Errorf("failed to read queue head: %w", err)
		}

		err = deliver(context.WithoutCancel(ctx), s.sender, action)
		switch {
		case err == nil:
			if err := s.delivered(ctx, action); err != nil {
				return result, err
			}
			result.Delivered++

		case httpClient.IsPermanent(err) || models.IsPermanent(err):
			s.logger.Warn("Action rejected by server",
				"action_id", action.ID,
				"kind", action.Kind,
				"seq", action.Seq,
				"error", err)
			if err := s.store.RejectAction(ctx, action, err.Error()); err != nil {
				return result, fmt.Errorf("failed to reject action %d: %w", action.Seq, err)
			}
			result.Rejected++

		default:
			s.failed(ctx, action, err)
			return result, fmt.Errorf("delivery of %s (seq %d) failed: %w", action.Kind, action.Seq, err)
		}
	}
}

func (s *Service) delivered(ctx context.Context, action *models.QueuedAction) error {
	if err := s.store.RemoveAction(ctx, action.Seq); err != nil {
		return fmt.Errorf("failed to remove delivered action %d: %w", action.Seq, err)
	}

	s.mu.Lock()
	s.failures = 0
	s.nextAttempt = time.Time{}
	s.mu.Unlock()
	s.online.Store(true)

	if err := s.meta.SaveLastSyncTimestamp(ctx, s.now().Unix()); err != nil {
		s.logger.Warn("Failed to save last sync timestamp", "error", err)
	}

	s.logger.Info("Action delivered",
		"action_id", action.ID,
		"kind", action.Kind,
		"seq", action.Seq,
		"attempts", action.Attempts+1)
	return nil
}

// failed фиксирует попытку и откладывает следующую выгрузку
func (s *Service) failed(ctx context.Context, action *models.QueuedAction, cause error) {
	now := s.now().UTC()
	action.Attempts++
	action.LastAttempt = &now
	action.LastError = cause.Error()
	if err := s.store.UpdateAction(ctx, action); err != nil {
		s.logger.Warn("Failed to record delivery attempt", "seq", action.Seq, "error", err)
	}

	s.mu.Lock()
	s.failures++
	delay := s.backoff(s.failures)
	if hint := httpClient.RetryAfter(cause); hint > delay {
		delay = hint
	}
	s.nextAttempt = now.Add(delay)
	s.mu.Unlock()

	s.logger.Warn("Action delivery failed, will retry",
		"action_id", action.ID,
		"kind", action.Kind,
		"seq", action.Seq,
		"attempts", action.Attempts,
		"retry_in", delay,
		"error", cause)
}

// backoff base·2^(n-1), не больше MaxBackoff
func (s *Service) backoff(failures int) time.Duration {
	delay := s.opts.BaseBackoff
	for i := 1; i < failures; i++ {
		delay *= 2
		if delay >= s.opts.MaxBackoff {
			return s.opts.MaxBackoff
		}
	}
	return delay
}

// due сообщает, истекла ли пауза после последней неудачи
func (s *Service) due() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.now().Before(s.nextAttempt)
}

// Run периодически проверяет связь и выгружает очередь, пока не отменен ctx
func (s *Service) Run(ctx context.Context, interval time.Duration) error {
	s.logger.Info("Queue drain loop started", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		s.tick(ctx)

		select {
		case <-ctx.Done():
			s.logger.Info("Queue drain loop stopped")
			return nil
		case <-ticker.C:
		}
	}
}

func (s *Service) tick(ctx context.Context) {
	if !s.due() {
		return
	}

	if _, err := s.sender.Health(ctx); err != nil {
		if s.online.Swap(false) {
			s.logger.Info("Server unreachable, going offline", "error", err)
		}
		return
	}
	if !s.online.Swap(true) {
		s.logger.Info("Server reachable, going online")
	}

	result, err := s.ProcessQueue(ctx)
	switch {
	case errors.Is(err, ErrBusy), errors.Is(err, context.Canceled):
	case err != nil:
		s.online.Store(false)
	case result.Delivered > 0 || result.Rejected > 0:
		s.logger.Info("Queue drained",
			"delivered", result.Delivered,
			"rejected", result.Rejected,
			"remaining", result.Remaining)
	}
}

// IsOnline сообщает результат последней проверки связи
func (s *Service) IsOnline() bool {
	return s.online.Load()
}

// IsProcessing сообщает, выполняется ли выгрузка
func (s *Service) IsProcessing() bool {
	return s.processing.Load()
}

// PendingItems возвращает число действий в очереди
func (s *Service) PendingItems(ctx context.Context) (int, error) {
	return s.store.CountActions(ctx)
}

// NextAttempt время, раньше которого цикл Run не будет пытаться доставить
func (s *Service) NextAttempt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextAttempt
}

// ClearQueue удаляет все действия без доставки
func (s *Service) ClearQueue(ctx context.Context) (int, error) {
	if !s.processing.CompareAndSwap(false, true) {
		return 0, ErrBusy
	}
	defer s.processing.Store(false)

	n, err := s.store.ClearQueue(ctx)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	s.failures = 0
	s.nextAttempt = time.Time{}
	s.mu.Unlock()

	s.logger.Warn("Queue cleared without delivery", "discarded", n)
	return n, nil
}

// Pending возвращает действия в очереди в порядке доставки
func (s *Service) Pending(ctx context.Context) ([]*models.QueuedAction, error) {
	return s.store.ListActions(ctx)
}

// Rejected возвращает действия, отклоненные сервером
func (s *Service) Rejected(ctx context.Context) ([]*models.QueuedAction, error) {
	return s.store.ListRejected(ctx)
}
