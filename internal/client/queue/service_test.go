package queue

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpClient "github.com/iudanet/escrutinio/internal/client/api"
	"github.com/iudanet/escrutinio/internal/client/storage/boltdb"
	"github.com/iudanet/escrutinio/internal/models"
	"github.com/iudanet/escrutinio/pkg/api"
)

var errOffline = errors.New("dial tcp: connection refused")

// fakeSender настраивает SenderMock: записывает доставленные действия
// и отдает заранее заданные ошибки
type fakeSender struct {
	*SenderMock
	failures  map[string][]error // batch/papeleta id -> ошибки по порядку попыток
	healthErr error
	block     chan struct{}
	delivered []string
	mu        sync.Mutex
}

func newFakeSender() *fakeSender {
	f := &fakeSender{failures: map[string][]error{}}
	f.SenderMock = &SenderMock{
		HealthFunc: func(ctx context.Context) (*api.HealthResponse, error) {
			if f.healthErr != nil {
				return nil, f.healthErr
			}
			return &api.HealthResponse{Status: "ok"}, nil
		},
		SubmitVotesFunc: func(ctx context.Context, payload api.VotePayload) (*api.VoteResponse, error) {
			if err := f.record(payload.Votes[0].ClientBatchID); err != nil {
				return nil, err
			}
			return &api.VoteResponse{EscrutinioID: payload.EscrutinioID}, nil
		},
		StartPapeletaFunc: func(ctx context.Context, escrutinioID string, req api.StartPapeletaRequest) (*api.PapeletaResponse, error) {
			return &api.PapeletaResponse{ID: req.PapeletaID}, f.record("start:" + req.PapeletaID)
		},
		PapeletaVoteFunc: func(ctx context.Context, papeletaID string, req api.PapeletaVoteRequest) (*api.PapeletaResponse, error) {
			return &api.PapeletaResponse{ID: papeletaID}, f.record("vote:" + papeletaID + ":" + req.PartyID)
		},
		PapeletaVotesBatchFunc: func(ctx context.Context, papeletaID string, req api.VotesBatchRequest) (*api.PapeletaResponse, error) {
			return &api.PapeletaResponse{ID: papeletaID}, f.record("batch:" + papeletaID)
		},
		AnularPapeletaFunc: func(ctx context.Context, papeletaID string, req api.AnularRequest) (*api.AnularResponse, error) {
			return &api.AnularResponse{}, f.record("anular:" + papeletaID)
		},
		CommitPapeletaFunc: func(ctx context.Context, papeletaID string) (*api.CommitResponse, error) {
			return &api.CommitResponse{}, f.record("commit:" + papeletaID)
		},
	}
	return f
}

func (f *fakeSender) failNext(id string, errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[id] = append(f.failures[id], errs...)
}

func (f *fakeSender) record(id string) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if errs := f.failures[id]; len(errs) > 0 {
		f.failures[id] = errs[1:]
		return errs[0]
	}
	f.delivered = append(f.delivered, id)
	return nil
}

func (f *fakeSender) Delivered() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.delivered...)
}

func setupService(t *testing.T, sender Sender) (*Service, *boltdb.Storage) {
	t.Helper()
	store, err := boltdb.New(context.Background(), filepath.Join(t.TempDir(), "queue.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(sender, store, store, logger, Options{BaseBackoff: time.Second, MaxBackoff: 8 * time.Second}), store
}

func enqueueVotes(t *testing.T, s *Service, batchID string) {
	t.Helper()
	_, err := s.Enqueue(context.Background(), models.ActionSubmitVotes, api.VotePayload{
		EscrutinioID: "E1",
		Votes:        []api.VoteDelta{{CandidateID: "C1", ClientBatchID: batchID, Delta: 1, Timestamp: 1}},
	})
	require.NoError(t, err)
}

// TestProcessQueue_OrderAfterFailure e1 повторяется до того, как пробуют e2
func TestProcessQueue_OrderAfterFailure(t *testing.T) {
	ctx := context.Background()
	sender := newFakeSender()
	s, store := setupService(t, sender)

	for _, id := range []string{"e1", "e2", "e3"} {
		enqueueVotes(t, s, id)
	}
	sender.failNext("e1", errOffline)

	result, err := s.ProcessQueue(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, errOffline)
	assert.Equal(t, 0, result.Delivered)
	assert.Equal(t, 3, result.Remaining)
	assert.Empty(t, sender.Delivered(), "e2 must not overtake e1")

	head, err := store.Head(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, head.Attempts)
	assert.Contains(t, head.LastError, "connection refused")
	assert.NotNil(t, head.LastAttempt)

	result, err = s.ProcessQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Delivered)
	assert.Equal(t, 0, result.Remaining)
	assert.Equal(t, []string{"e1", "e2", "e3"}, sender.Delivered())
	assert.Len(t, sender.SubmitVotesCalls(), 4, "e1 twice, e2 and e3 once")

	ts, err := store.GetLastSyncTimestamp(ctx)
	require.NoError(t, err)
	assert.NotZero(t, ts)
}

func TestProcessQueue_PermanentRejected(t *testing.T) {
	ctx := context.Background()
	sender := newFakeSender()
	s, _ := setupService(t, sender)

	enqueueVotes(t, s, "e1")
	enqueueVotes(t, s, "e2")
	sender.failNext("e1", &httpClient.StatusError{Code: http.StatusConflict, Message: "escrutinio is COMPLETED"})

	result, err := s.ProcessQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Delivered)
	assert.Equal(t, 1, result.Rejected)
	assert.Equal(t, []string{"e2"}, sender.Delivered())

	rejected, err := s.Rejected(ctx)
	require.NoError(t, err)
	require.Len(t, rejected, 1)
	assert.Contains(t, rejected[0].LastError, "COMPLETED")
}

func TestProcessQueue_ServerErrorIsTransient(t *testing.T) {
	ctx := context.Background()
	sender := newFakeSender()
	s, _ := setupService(t, sender)

	enqueueVotes(t, s, "e1")
	sender.failNext("e1", &httpClient.StatusError{Code: http.StatusServiceUnavailable})

	_, err := s.ProcessQueue(ctx)
	require.Error(t, err)

	rejected, err := s.Rejected(ctx)
	require.NoError(t, err)
	assert.Empty(t, rejected)

	n, err := s.PendingItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "transient failure keeps the action queued")
}

func TestProcessQueue_Busy(t *testing.T) {
	ctx := context.Background()
	sender := newFakeSender()
	sender.block = make(chan struct{})
	s, _ := setupService(t, sender)

	enqueueVotes(t, s, "e1")

	done := make(chan error, 1)
	go func() {
		_, err := s.ProcessQueue(ctx)
		done <- err
	}()

	require.Eventually(t, s.IsProcessing, time.Second, 5*time.Millisecond)

	_, err := s.ProcessQueue(ctx)
	assert.ErrorIs(t, err, ErrBusy)
	_, err = s.ClearQueue(ctx)
	assert.ErrorIs(t, err, ErrBusy)

	close(sender.block)
	require.NoError(t, <-done)
	assert.False(t, s.IsProcessing())
	assert.Equal(t, []string{"e1"}, sender.Delivered())
}

func TestProcessQueue_BallotActions(t *testing.T) {
	ctx := context.Background()
	sender := newFakeSender()
	s, _ := setupService(t, sender)

	steps := []struct {
		payload BallotPayload
		kind    string
	}{
		{kind: models.ActionPapeletaStart, payload: BallotPayload{EscrutinioID: "E1", PapeletaID: "PA1"}},
		{kind: models.ActionPapeletaVote, payload: BallotPayload{PapeletaID: "PA1", Vote: &api.PapeletaVoteRequest{PartyID: "P1", CasillaNumber: 1}}},
		{kind: models.ActionPapeletaVotesSync, payload: BallotPayload{PapeletaID: "PA1"}},
		{kind: models.ActionPapeletaAnular, payload: BallotPayload{PapeletaID: "PA1", Reason: "error"}},
		{kind: models.ActionPapeletaCommit, payload: BallotPayload{PapeletaID: "PA2"}},
	}
	for _, st := range steps {
		_, err := s.Enqueue(ctx, st.kind, st.payload)
		require.NoError(t, err)
	}

	result, err := s.ProcessQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, result.Delivered)
	assert.Equal(t, []string{"start:PA1", "vote:PA1:P1", "batch:PA1", "anular:PA1", "commit:PA2"}, sender.Delivered())
	require.Len(t, sender.StartPapeletaCalls(), 1)
	assert.Equal(t, "E1", sender.StartPapeletaCalls()[0].EscrutinioID)
	assert.Empty(t, sender.SubmitVotesCalls())
}

func TestProcessQueue_MalformedActionRejected(t *testing.T) {
	ctx := context.Background()
	sender := newFakeSender()
	s, store := setupService(t, sender)

	require.NoError(t, store.Enqueue(ctx, &models.QueuedAction{ID: "x", Kind: "unknown.kind", Payload: json.RawMessage(`{}`)}))
	require.NoError(t, store.Enqueue(ctx, &models.QueuedAction{ID: "y", Kind: models.ActionPapeletaVote, Payload: json.RawMessage(`{"papeletaId":"PA1"}`)}))

	result, err := s.ProcessQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Rejected)
	assert.Empty(t, sender.Delivered())
}

func TestBackoff(t *testing.T) {
	s, _ := setupService(t, newFakeSender())

	tests := []struct {
		failures int
		want     time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{10, 8 * time.Second},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, s.backoff(tt.failures), "failures=%d", tt.failures)
	}
}

func TestNextAttempt_RetryAfterHint(t *testing.T) {
	ctx := context.Background()
	sender := newFakeSender()
	s, _ := setupService(t, sender)

	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	enqueueVotes(t, s, "e1")
	sender.failNext("e1", &httpClient.StatusError{Code: http.StatusTooManyRequests, RetryAfter: 30 * time.Second})

	_, err := s.ProcessQueue(ctx)
	require.Error(t, err)
	assert.Equal(t, fixed.Add(30*time.Second), s.NextAttempt())
	assert.False(t, s.due())

	s.now = func() time.Time { return fixed.Add(31 * time.Second) }
	assert.True(t, s.due())
}

func TestRun_DrainsWhenOnline(t *testing.T) {
	sender := newFakeSender()
	s, _ := setupService(t, sender)
	enqueueVotes(t, s, "e1")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, 10*time.Millisecond) }()

	require.Eventually(t, func() bool { return len(sender.Delivered()) == 1 }, time.Second, 5*time.Millisecond)
	assert.True(t, s.IsOnline())

	cancel()
	require.NoError(t, <-done)
}

func TestRun_OfflineKeepsQueue(t *testing.T) {
	sender := newFakeSender()
	sender.healthErr = errOffline
	s, _ := setupService(t, sender)
	enqueueVotes(t, s, "e1")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, s.Run(ctx, 5*time.Millisecond))

	assert.False(t, s.IsOnline())
	assert.Empty(t, sender.Delivered())

	n, err := s.PendingItems(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestClearQueue(t *testing.T) {
	ctx := context.Background()
	s, _ := setupService(t, newFakeSender())

	enqueueVotes(t, s, "e1")
	enqueueVotes(t, s, "e2")

	pending, err := s.Pending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	n, err := s.ClearQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.PendingItems(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
