package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/iudanet/escrutinio/internal/client/api"
	"github.com/iudanet/escrutinio/internal/client/auth"
	"github.com/iudanet/escrutinio/internal/client/cli"
	"github.com/iudanet/escrutinio/internal/client/events"
	"github.com/iudanet/escrutinio/internal/client/iocli"
	"github.com/iudanet/escrutinio/internal/client/queue"
	"github.com/iudanet/escrutinio/internal/client/storage/boltdb"
	"github.com/iudanet/escrutinio/internal/models"
	"github.com/iudanet/escrutinio/internal/validation"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Глобальные флаги
	showVersion := flag.Bool("version", false, "Show version information")
	serverURL := flag.String("server", "http://localhost:8080", "Server URL")
	dbPath := flag.String("db", "escrutinio-device.db", "Path to local database")
	deviceID := flag.String("device-id", "", "Override the generated device id")
	pollInterval := flag.Duration("poll-interval", 10*time.Second, "Connectivity poll interval for 'run'")
	maxBackoff := flag.Duration("max-backoff", queue.DefaultMaxBackoff, "Upper bound for retry delay")
	pin := flag.String("pin", "", "Device PIN (not recommended, use "+cli.PINEnv+" or --pin-file)")
	pinFile := flag.String("pin-file", "", "Path to file containing the device PIN")
	verbose := flag.Bool("v", false, "Verbose logging")

	flag.Parse()

	// Show version and exit if requested
	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx := context.Background()

	// Открываем BoltDB storage
	boltStorage, err := boltdb.New(ctx, *dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}

	if *deviceID != "" {
		if err := validation.ValidateDeviceID(*deviceID); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			_ = boltStorage.Close()
			os.Exit(1)
		}
		if err := boltStorage.SetDeviceID(ctx, *deviceID); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			_ = boltStorage.Close()
			os.Exit(1)
		}
	}

	apiClient := api.NewClient(*serverURL)
	queueService := queue.NewService(apiClient, boltStorage, boltStorage, logger, queue.Options{
		BaseBackoff: queue.DefaultBaseBackoff,
		MaxBackoff:  *maxBackoff,
	})

	app := cli.New(cli.Deps{
		IO:       iocli.NewStdio(),
		API:      apiClient,
		Session:  auth.NewSession(boltStorage, boltStorage, logger),
		Recorder: events.NewRecorder(boltStorage, boltStorage, logger),
		Queue:    queueService,
		Meta:     boltStorage,
		PIN: cli.PINSource{
			FromEnv:  os.Getenv(cli.PINEnv),
			FromFile: *pinFile,
			FromArgs: *pin,
		},
		PollInterval: *pollInterval,
	})

	runErr := app.Run(ctx, flag.Args())

	if err := boltStorage.Close(); err != nil {
		logger.Error("failed to close database", "error", err)
	}

	if runErr != nil {
		if !errors.Is(runErr, cli.ErrUsage) || flag.NArg() > 0 {
			fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		}
		os.Exit(exitCode(runErr))
	}
}

// exitCode различает ошибки, которые оператор должен исправить, и временные
func exitCode(err error) int {
	switch {
	case errors.Is(err, cli.ErrUsage):
		return 2
	case models.IsPermanent(err) || api.IsPermanent(err):
		return 3
	default:
		return 1
	}
}

func printVersion() {
	fmt.Printf("Escrutinio Client\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
