package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/escrutinio/internal/models"
	"github.com/iudanet/escrutinio/internal/server/config"
	"github.com/iudanet/escrutinio/internal/server/jwt"
	"github.com/iudanet/escrutinio/internal/server/middleware"
	"github.com/iudanet/escrutinio/pkg/api"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func setupServer(t *testing.T, mutate func(c *config.Config)) *Server {
	t.Helper()
	ctx := context.Background()

	cfg := config.Default()
	cfg.DBPath = ":memory:"
	cfg.JWT.Secret = testSecret
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, cfg.Validate())

	s, err := New(ctx, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), "test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Store().CreateUser(ctx, &models.User{ID: "u-op", Username: "operador", Name: "Operador", Role: models.RoleOperator, CreatedAt: time.Now()}))
	require.NoError(t, s.Store().CreateEscrutinio(ctx, &models.Escrutinio{ID: "E1", MesaNumber: "0042", ElectionLevel: models.ElectionLevelPresidential, UserID: "u-op", CreatedAt: time.Now()}))
	require.NoError(t, s.Store().CreateCandidate(ctx, &models.Candidate{ID: "C1", PartyID: "P1", ElectionLevel: models.ElectionLevelPresidential, CasillaNumber: 1}))

	return s
}

func token(t *testing.T, role string) string {
	t.Helper()
	tok, _, err := jwt.Issue(jwt.Config{Issuer: "escrutinio", Secret: []byte(testSecret), TTL: time.Hour},
		&models.User{ID: "u-op", Username: "operador", Role: role})
	require.NoError(t, err)
	return tok
}

func request(t *testing.T, h http.Handler, method, path, tok string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestServer_EndToEnd(t *testing.T) {
	s := setupServer(t, nil)
	h := s.Handler()
	tok := token(t, models.RoleOperator)

	w := request(t, h, http.MethodGet, "/api/v1/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	w = request(t, h, http.MethodGet, "/api/v1/escrutinios/E1/counters", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	payload := api.VotePayload{
		EscrutinioID: "E1",
		Votes:        []api.VoteDelta{{CandidateID: "C1", ClientBatchID: "B1", Delta: 2, Timestamp: 1}},
	}
	w = request(t, h, http.MethodPost, "/api/v1/escrutinios/E1/votes", tok, payload)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = request(t, h, http.MethodGet, "/api/v1/escrutinios/E1/audit", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list api.AuditListResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&list))
	require.Len(t, list.Entries, 1)
	assert.Equal(t, "Operador", list.Entries[0].ActorName)
	assert.Equal(t, "192.0.2.1", list.Entries[0].IPAddress)
}

func TestServer_RoleRateLimit(t *testing.T) {
	s := setupServer(t, func(c *config.Config) {
		c.RateLimits.Roles[models.RoleObserver] = config.Limit{Rate: 2, Window: time.Hour}
	})
	h := s.Handler()
	observer := token(t, models.RoleObserver)
	operatorTok := token(t, models.RoleOperator)

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, request(t, h, http.MethodGet, "/api/v1/escrutinios/E1/counters", observer, nil).Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, request(t, h, http.MethodGet, "/api/v1/escrutinios/E1/counters", observer, nil).Code)

	// Лимит оператора отдельный
	assert.Equal(t, http.StatusOK, request(t, h, http.MethodGet, "/api/v1/escrutinios/E1/counters", operatorTok, nil).Code)

	// Health не ограничивается
	for i := 0; i < 50; i++ {
		require.Equal(t, http.StatusOK, request(t, h, http.MethodGet, "/api/v1/health", "", nil).Code)
	}
}

func TestServer_RunShutdown(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	s := setupServer(t, func(c *config.Config) {
		c.Listen = addr
		c.ShutdownTimeout = time.Second
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/api/v1/health")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}
