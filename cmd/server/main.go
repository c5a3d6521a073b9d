package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iudanet/escrutinio/internal/models"
	"github.com/iudanet/escrutinio/internal/server"
	"github.com/iudanet/escrutinio/internal/server/config"
	"github.com/iudanet/escrutinio/internal/server/jwt"
	"github.com/iudanet/escrutinio/internal/server/seed"
	"github.com/iudanet/escrutinio/internal/server/storage/sqlite"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	args := os.Args[1:]

	// Подкоманда определяется первым аргументом, по умолчанию - serve
	command := "serve"
	if len(args) > 0 && (args[0] == "seed" || args[0] == "issue-token" || args[0] == "serve") {
		command, args = args[0], args[1:]
	}

	var err error
	switch command {
	case "seed":
		err = runSeed(args)
	case "issue-token":
		err = runIssueToken(args)
	default:
		err = runServe(args)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(args []string) error {
	cfg, err := config.Load(args, os.Getenv)
	if err != nil {
		return err
	}

	// Show version and exit if requested
	if cfg.ShowVersion {
		printVersion()
		return nil
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := cfg.Log.NewLogger(os.Stdout)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := server.New(ctx, cfg, logger, Version)
	if err != nil {
		return err
	}
	defer func() {
		if err := srv.Close(); err != nil {
			logger.Error("failed to close storage", "error", err)
		}
	}()

	logger.Info("Escrutinio server starting", "version", Version, "commit", GitCommit)
	return srv.Run(ctx)
}

// runSeed загружает справочные данные: seed [flags] <fixture.yaml>
func runSeed(args []string) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	dbPath := fs.String("db", envOr("ESCRUTINIO_DB", "escrutinio.db"), "Path to SQLite database")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: escrutinio-server seed [-db path] <fixture.yaml>")
	}

	fixture, err := seed.LoadFile(fs.Arg(0))
	if err != nil {
		return err
	}

	ctx := context.Background()
	store, err := sqlite.New(ctx, *dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	res, err := seed.Apply(ctx, slog.New(slog.NewTextHandler(os.Stderr, nil)), store, fixture)
	if err != nil {
		return err
	}

	fmt.Printf("Seeded: %d created, %d already present\n", res.Created, res.Skipped)
	return nil
}

// runIssueToken выпускает access token для устройства оператора.
// Секрет берется из ESCRUTINIO_JWT_SECRET.
func runIssueToken(args []string) error {
	fs := flag.NewFlagSet("issue-token", flag.ContinueOnError)
	userID := fs.String("user", "", "User ID")
	username := fs.String("username", "", "Username")
	role := fs.String("role", models.RoleOperator, "Role (ADMIN, OPERATOR, OBSERVER)")
	ttl := fs.Duration("ttl", 12*time.Hour, "Token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}

	secret := os.Getenv("ESCRUTINIO_JWT_SECRET")
	if len(secret) < config.MinSecretLen {
		return fmt.Errorf("ESCRUTINIO_JWT_SECRET must be at least %d bytes", config.MinSecretLen)
	}
	if *userID == "" {
		return fmt.Errorf("-user is required")
	}

	token, expiresAt, err := jwt.Issue(jwt.Config{
		Issuer: envOr("ESCRUTINIO_JWT_ISSUER", jwt.DefaultIssuer),
		Secret: []byte(secret),
		TTL:    *ttl,
	}, &models.User{ID: *userID, Username: *username, Role: *role})
	if err != nil {
		return err
	}

	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "Expires at: %s\n", expiresAt.Format(time.RFC3339))
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func printVersion() {
	fmt.Printf("Escrutinio Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
