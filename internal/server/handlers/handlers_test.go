package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iudanet/escrutinio/internal/models"
	"github.com/iudanet/escrutinio/internal/server/audit"
	"github.com/iudanet/escrutinio/internal/server/papeleta"
	"github.com/iudanet/escrutinio/internal/server/reconciler"
	"github.com/iudanet/escrutinio/internal/server/storage/sqlite"
)

var (
	operator = models.Actor{UserID: "u-op", Username: "operador", Role: models.RoleOperator}
	admin    = models.Actor{UserID: "u-admin", Username: "admin", Role: models.RoleAdmin}
)

// setupTestLogger creates a logger for testing
func setupTestLogger() *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelError, // Only show errors in tests
	}
	handler := slog.NewTextHandler(os.Stdout, opts)
	return slog.New(handler)
}

type testServer struct {
	mux   *http.ServeMux
	store *sqlite.Storage
}

// newTestServer собирает API поверх in-memory SQLite.
// Актор передается тестом через заголовки X-Test-User / X-Test-Role.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	logger := setupTestLogger()

	s, err := sqlite.New(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	correlator := audit.NewCorrelator(logger, s)
	rec := reconciler.NewService(logger, s, correlator, models.ElectionLevelLegislative)
	ballots := papeleta.NewService(logger, s, rec, correlator, models.ElectionLevelLegislative)

	router := Router{
		Health:    NewHealthHandler(logger, s, "test"),
		Votes:     NewVotesHandler(logger, rec),
		Papeletas: NewPapeletaHandler(logger, ballots),
		Audit:     NewAuditHandler(logger, correlator),
	}

	mux := http.NewServeMux()
	router.Register(mux, func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id := r.Header.Get("X-Test-User"); id != "" {
				actor := models.Actor{UserID: id, Role: r.Header.Get("X-Test-Role"), UserAgent: r.UserAgent()}
				r = r.WithContext(WithActor(r.Context(), actor))
			}
			next.ServeHTTP(w, r)
		})
	})

	for _, u := range []*models.User{
		{ID: operator.UserID, Username: operator.Username, Name: "Operador", Email: "op@example.org", Role: operator.Role, CreatedAt: time.Now()},
		{ID: admin.UserID, Username: admin.Username, Name: "Admin", Email: "admin@example.org", Role: admin.Role, CreatedAt: time.Now()},
	} {
		require.NoError(t, s.CreateUser(ctx, u))
	}

	for _, e := range []*models.Escrutinio{
		{ID: "E1", MesaNumber: "0042", ElectionLevel: models.ElectionLevelPresidential, UserID: operator.UserID, CreatedAt: time.Now()},
		{ID: "EL", MesaNumber: "0042", ElectionLevel: models.ElectionLevelLegislative, UserID: operator.UserID, CreatedAt: time.Now()},
	} {
		require.NoError(t, s.CreateEscrutinio(ctx, e))
	}

	for _, c := range []*models.Candidate{
		{ID: "C1", PartyID: "P1", CasillaNumber: 1, ElectionLevel: models.ElectionLevelPresidential},
		{ID: "P1-1", PartyID: "P1", CasillaNumber: 1, ElectionLevel: models.ElectionLevelLegislative},
		{ID: "P2-1", PartyID: "P2", CasillaNumber: 1, ElectionLevel: models.ElectionLevelLegislative},
	} {
		require.NoError(t, s.CreateCandidate(ctx, c))
	}

	return &testServer{mux: mux, store: s}
}

// do выполняет запрос от имени актора (пустой UserID - без идентификации)
func (ts *testServer) do(t *testing.T, actor models.Actor, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if actor.UserID != "" {
		req.Header.Set("X-Test-User", actor.UserID)
		req.Header.Set("X-Test-Role", actor.Role)
	}

	w := httptest.NewRecorder()
	ts.mux.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v), w.Body.String())
	return v
}
