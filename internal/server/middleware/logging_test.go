package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	}))

	t.Run("generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Len(t, seen, 36)
		assert.Equal(t, seen, w.Header().Get(RequestIDHeader))
	})

	t.Run("propagated from client", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "req-42")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, "req-42", seen)
		assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
	})
}

func TestLoggingMiddleware(t *testing.T) {
	tests := []struct {
		name      string
		wantLevel string
		status    int
	}{
		{name: "success logs info", status: http.StatusOK, wantLevel: "level=INFO"},
		{name: "client error logs warn", status: http.StatusConflict, wantLevel: "level=WARN"},
		{name: "server error logs error", status: http.StatusInternalServerError, wantLevel: "level=ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

			handler := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("body"))
			}), RequestIDMiddleware(), LoggingMiddleware(logger))

			req := httptest.NewRequest(http.MethodPost, "/api/v1/escrutinios/E1/votes", nil)
			req.Header.Set("Authorization", "Bearer secret-token")
			req.Header.Set(RequestIDHeader, "req-1")
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			out := buf.String()
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, out, tt.wantLevel)
			assert.Contains(t, out, "request_id=req-1")
			assert.Contains(t, out, "path=/api/v1/escrutinios/E1/votes")
			assert.Contains(t, out, "bytes_written=4")
			assert.NotContains(t, out, "secret-token")
		})
	}
}

func TestLoggingWithSkip(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	handler := LoggingWithSkip(logger, []string{"/api/v1/health"})(okHandler())

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Empty(t, buf.String())

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/papeletas/p1", nil))
	assert.Contains(t, buf.String(), "HTTP request")
}
