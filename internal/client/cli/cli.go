package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/iudanet/escrutinio/internal/client/api"
	"github.com/iudanet/escrutinio/internal/client/auth"
	"github.com/iudanet/escrutinio/internal/client/events"
	"github.com/iudanet/escrutinio/internal/client/iocli"
	"github.com/iudanet/escrutinio/internal/client/queue"
	"github.com/iudanet/escrutinio/internal/client/storage"
)

// PINEnv переменная окружения с PIN оператора
const PINEnv = "ESCRUTINIO_PIN"

// ErrUsage неверные аргументы команды
var ErrUsage = errors.New("invalid usage")

// PINSource источники PIN в порядке приоритета:
// переменная окружения, файл, флаг, интерактивный ввод
type PINSource struct {
	FromEnv  string
	FromFile string
	FromArgs string
}

// Deps зависимости CLI
type Deps struct {
	IO       iocli.IO
	API      *api.Client
	Session  auth.Service
	Recorder *events.Recorder
	Queue    *queue.Service
	Meta     storage.MetadataStorage
	PIN      PINSource
	// PollInterval период проверки связи в команде run
	PollInterval time.Duration
}

// Cli команды полевого устройства
type Cli struct {
	io           iocli.IO
	api          *api.Client
	session      auth.Service
	recorder     *events.Recorder
	queue        *queue.Service
	meta         storage.MetadataStorage
	pin          PINSource
	pollInterval time.Duration
}

// New создает CLI
func New(d Deps) *Cli {
	if d.PollInterval <= 0 {
		d.PollInterval = 10 * time.Second
	}
	return &Cli{
		io:           d.IO,
		api:          d.API,
		session:      d.Session,
		recorder:     d.Recorder,
		queue:        d.Queue,
		meta:         d.Meta,
		pin:          d.PIN,
		pollInterval: d.PollInterval,
	}
}

// Run выполняет команду
func (c *Cli) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		c.PrintUsage()
		return ErrUsage
	}

	command, rest := args[0], args[1:]
	switch command {
	case "login":
		return c.runLogin(ctx, rest)
	case "logout":
		return c.runLogout(ctx)
	case "status":
		return c.runStatus(ctx)
	case "vote":
		return c.runVote(ctx, rest)
	case "flush":
		return c.runFlush(ctx)
	case "sync":
		return c.runSync(ctx)
	case "run":
		return c.runLoop(ctx)
	case "counters":
		return c.runCounters(ctx, rest)
	case "pending":
		return c.runPending(ctx)
	case "rejected":
		return c.runRejected(ctx)
	case "clear-queue":
		return c.runClearQueue(ctx, rest)
	case "ballot":
		return c.runBallot(ctx, rest)
	case "help", "-h", "--help":
		c.PrintUsage()
		return nil
	default:
		c.io.Printf("Unknown command: %s\n\n", command)
		c.PrintUsage()
		return ErrUsage
	}
}

// unlock открывает токен сессии и передает его API клиенту
func (c *Cli) unlock(ctx context.Context) error {
	pin, err := c.readPIN()
	if err != nil {
		return err
	}

	token, err := c.session.Token(ctx, pin)
	if err != nil {
		if errors.Is(err, auth.ErrNotLoggedIn) {
			return fmt.Errorf("not authenticated. Please run 'escrutinio login --token <token>' first")
		}
		return err
	}

	c.api.SetToken(token)
	return nil
}

// readPIN получает PIN по приоритету источников
func (c *Cli) readPIN() (string, error) {
	if c.pin.FromEnv != "" {
		return c.pin.FromEnv, nil
	}

	if c.pin.FromFile != "" {
		content, err := os.ReadFile(c.pin.FromFile)
		if err != nil {
			return "", fmt.Errorf("failed to read PIN file: %w", err)
		}
		pin := strings.TrimSpace(string(content))
		if pin == "" {
			return "", fmt.Errorf("PIN file is empty")
		}
		return pin, nil
	}

	if c.pin.FromArgs != "" {
		return c.pin.FromArgs, nil
	}

	pin, err := c.io.ReadPassword("PIN: ")
	if err != nil {
		return "", fmt.Errorf("failed to read PIN: %w", err)
	}
	if pin == "" {
		return "", fmt.Errorf("PIN cannot be empty")
	}
	return pin, nil
}

// PrintUsage выводит справку
func (c *Cli) PrintUsage() {
	c.io.Println("Escrutinio field client")
	c.io.Println()
	c.io.Println("Usage:")
	c.io.Println("  escrutinio [OPTIONS] COMMAND [ARGS]")
	c.io.Println()
	c.io.Println("Options:")
	c.io.Println("  --version              Show version information")
	c.io.Println("  --server URL           Server URL (default: http://localhost:8080)")
	c.io.Println("  --db PATH              Path to local database (default: escrutinio-device.db)")
	c.io.Println("  --device-id ID         Override the generated device id")
	c.io.Println("  --poll-interval DUR    Connectivity poll interval for 'run' (default: 10s)")
	c.io.Println("  --max-backoff DUR      Upper bound for retry delay (default: 5m)")
	c.io.Println("  --pin PIN              Device PIN (not recommended, use env var or file)")
	c.io.Println("  --pin-file PATH        Path to file containing the device PIN")
	c.io.Println()
	c.io.Println("PIN priority (highest to lowest):")
	c.io.Println("  1. " + PINEnv + " environment variable")
	c.io.Println("  2. --pin-file")
	c.io.Println("  3. --pin")
	c.io.Println("  4. Interactive prompt")
	c.io.Println()
	c.io.Println("Commands:")
	c.io.Println("  login --token TOKEN                          Store access token sealed with the PIN")
	c.io.Println("  logout                                       Remove the session from this device")
	c.io.Println("  status                                       Session, buffer and queue status")
	c.io.Println("  vote ESCRUTINIO CANDIDATE DELTA              Record a vote delta (works offline)")
	c.io.Println("  flush                                        Move buffered events to the queue")
	c.io.Println("  sync                                         Flush and deliver the queue once")
	c.io.Println("  run                                          Flush and deliver until interrupted")
	c.io.Println("  counters ESCRUTINIO                          Show server counters")
	c.io.Println("  pending                                      List queued actions")
	c.io.Println("  rejected                                     List actions rejected by the server")
	c.io.Println("  clear-queue [--yes]                          Discard queued actions without delivery")
	c.io.Println("  ballot start ESCRUTINIO [PAPELETA_ID]        Queue a new ballot")
	c.io.Println("  ballot vote PAPELETA PARTY CASILLA           Queue a ballot selection")
	c.io.Println("  ballot sync PAPELETA [PARTY:CASILLA...]      Queue replacement of all ballot selections")
	c.io.Println("  ballot anular PAPELETA [REASON]              Queue ballot annulment")
	c.io.Println("  ballot commit PAPELETA                       Queue ballot commit")
	c.io.Println("  ballot status PAPELETA                       Show ballot state from the server")
	c.io.Println()
	c.io.Println("Examples:")
	c.io.Println("  export " + PINEnv + "=123456")
	c.io.Println("  escrutinio login --token eyJhbGciOi...")
	c.io.Println("  escrutinio vote 7f1c... C1 +3")
	c.io.Println("  escrutinio --server https://escrutinio.example.org run")
}
