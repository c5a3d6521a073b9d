// Package server assembles the escrutinio HTTP API: storage, reconciler,
// ballot state machine, audit correlator and the middleware chain.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/iudanet/escrutinio/internal/server/audit"
	"github.com/iudanet/escrutinio/internal/server/config"
	"github.com/iudanet/escrutinio/internal/server/handlers"
	"github.com/iudanet/escrutinio/internal/server/jwt"
	"github.com/iudanet/escrutinio/internal/server/middleware"
	"github.com/iudanet/escrutinio/internal/server/papeleta"
	"github.com/iudanet/escrutinio/internal/server/reconciler"
	"github.com/iudanet/escrutinio/internal/server/storage/sqlite"
)

// healthPath путь health check (без логирования и лимитов)
const healthPath = "/api/v1/health"

// Server HTTP сервер escrutinio
type Server struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *sqlite.Storage
	limiter *middleware.RateLimiter
	handler http.Handler
}

// New открывает хранилище и собирает обработчики
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, version string) (*Server, error) {
	store, err := sqlite.New(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	return newWithStore(cfg, logger, store, version), nil
}

func newWithStore(cfg *config.Config, logger *slog.Logger, store *sqlite.Storage, version string) *Server {
	correlator := audit.NewCorrelator(logger, store)
	rec := reconciler.NewService(logger, store, correlator, cfg.BallotLevel)
	ballots := papeleta.NewService(logger, store, rec, correlator, cfg.BallotLevel)

	limits := make(map[string]middleware.Limit, len(cfg.RateLimits.Roles))
	for role, l := range cfg.RateLimits.Roles {
		limits[role] = middleware.Limit{Rate: l.Rate, Window: l.Window}
	}
	limiter := middleware.NewRateLimiter(
		middleware.NewMemoryBucketStore(),
		limits,
		middleware.Limit{Rate: cfg.RateLimits.Default.Rate, Window: cfg.RateLimits.Default.Window},
		logger,
	)

	jwtConfig := jwt.Config{
		Issuer: cfg.JWT.Issuer,
		Secret: []byte(cfg.JWT.Secret),
	}

	router := handlers.Router{
		Health:    handlers.NewHealthHandler(logger, store, version),
		Votes:     handlers.NewVotesHandler(logger, rec),
		Papeletas: handlers.NewPapeletaHandler(logger, ballots),
		Audit:     handlers.NewAuditHandler(logger, correlator),
	}

	// Идентификация, затем лимит по роли
	protect := func(h http.Handler) http.Handler {
		return middleware.Chain(h,
			middleware.AuthMiddleware(logger, jwtConfig),
			limiter.Middleware(),
		)
	}

	mux := http.NewServeMux()
	router.Register(mux, protect)

	handler := middleware.Chain(mux,
		middleware.RecoveryMiddleware(logger),
		middleware.RequestIDMiddleware(),
		middleware.LoggingWithSkip(logger, []string{healthPath}),
	)

	return &Server{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		limiter: limiter,
		handler: handler,
	}
}

// Handler возвращает корневой http.Handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Store возвращает хранилище сервера
func (s *Server) Store() *sqlite.Storage {
	return s.store
}

// Run обслуживает запросы до отмены ctx, затем корректно завершается
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	defer stopJanitor()
	go s.limiter.Run(janitorCtx, time.Minute)

	errC := make(chan error, 1)
	go func() {
		s.logger.Info("Server listening", "addr", s.cfg.Listen, "ballot_level", s.cfg.BallotLevel)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errC <- err
		}
		close(errC)
	}()

	select {
	case err := <-errC:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down", "timeout", s.cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown: %w", err)
	}
	return nil
}

// Close закрывает хранилище
func (s *Server) Close() error {
	return s.store.Close()
}
