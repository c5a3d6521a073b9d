// Package config loads the server configuration.
//
// Values are resolved in order: built-in defaults, YAML file
// (--config or ESCRUTINIO_CONFIG), ESCRUTINIO_* environment variables,
// explicitly set command line flags. Later sources win.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/iudanet/escrutinio/internal/models"
)

// EnvPrefix префикс переменных окружения сервера
const EnvPrefix = "ESCRUTINIO_"

// MinSecretLen минимальная длина секрета подписи JWT
const MinSecretLen = 32

// Config конфигурация сервера
type Config struct {
	// RateLimits лимиты запросов по ролям
	RateLimits RateLimitConfig `yaml:"rate_limits"`

	// Log настройки логирования
	Log LogConfig `yaml:"log"`

	// JWT настройки проверки токенов
	JWT JWTConfig `yaml:"jwt"`

	// Listen адрес HTTP сервера
	Listen string `yaml:"listen"`

	// DBPath путь к файлу SQLite
	DBPath string `yaml:"db_path"`

	// BallotLevel уровень выборов с подсчетом по бюллетеням
	BallotLevel string `yaml:"ballot_level"`

	// ShutdownTimeout время на завершение активных запросов
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// ShowVersion только вывести версию (флаг -version)
	ShowVersion bool `yaml:"-"`
}

// JWTConfig настройки JWT
type JWTConfig struct {
	Secret string        `yaml:"secret"`
	Issuer string        `yaml:"issuer"`
	TTL    time.Duration `yaml:"ttl"` // срок действия токенов, выпускаемых issue-token
}

// LogConfig настройки логирования
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Limit лимит запросов за окно
type Limit struct {
	Rate   int           `yaml:"rate"`
	Window time.Duration `yaml:"window"`
}

// RateLimitConfig лимиты по ролям
type RateLimitConfig struct {
	Roles   map[string]Limit `yaml:"roles"`
	Default Limit            `yaml:"default"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		Listen:          ":8080",
		DBPath:          "escrutinio.db",
		BallotLevel:     models.ElectionLevelLegislative,
		ShutdownTimeout: 15 * time.Second,
		JWT: JWTConfig{
			Issuer: "escrutinio",
			TTL:    12 * time.Hour,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		RateLimits: RateLimitConfig{
			Roles: map[string]Limit{
				models.RoleAdmin:    {Rate: 600, Window: time.Minute},
				models.RoleOperator: {Rate: 300, Window: time.Minute},
				models.RoleObserver: {Rate: 60, Window: time.Minute},
			},
			Default: Limit{Rate: 30, Window: time.Minute},
		},
	}
}

// Load собирает конфигурацию из файла, окружения и флагов
func Load(args []string, getenv func(string) string) (*Config, error) {
	cfg := Default()

	fs := flag.NewFlagSet("escrutinio-server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	configPath := fs.String("config", getenv(EnvPrefix+"CONFIG"), "Path to YAML config file")
	showVersion := fs.Bool("version", false, "Show version information")
	listen := fs.String("listen", cfg.Listen, "HTTP listen address")
	dbPath := fs.String("db", cfg.DBPath, "Path to SQLite database")
	logLevel := fs.String("log-level", cfg.Log.Level, "Log level (debug, info, warn, error)")
	logFormat := fs.String("log-format", cfg.Log.Format, "Log format (text, json)")
	ballotLevel := fs.String("ballot-level", cfg.BallotLevel, "Election level counted per ballot")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}

	if *configPath != "" {
		if err := cfg.loadFile(*configPath); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(getenv); err != nil {
		return nil, err
	}

	// Явно заданные флаги имеют наивысший приоритет
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "listen":
			cfg.Listen = *listen
		case "db":
			cfg.DBPath = *dbPath
		case "log-level":
			cfg.Log.Level = *logLevel
		case "log-format":
			cfg.Log.Format = *logFormat
		case "ballot-level":
			cfg.BallotLevel = *ballotLevel
		}
	})
	cfg.ShowVersion = *showVersion

	return cfg, nil
}

// LoadFile читает конфигурацию из YAML файла поверх значений по умолчанию
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	// Неизвестные ключи - ошибка, чтобы опечатки не проходили молча
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv(EnvPrefix + "LISTEN"); v != "" {
		c.Listen = v
	}
	if v := getenv(EnvPrefix + "DB"); v != "" {
		c.DBPath = v
	}
	if v := getenv(EnvPrefix + "JWT_SECRET"); v != "" {
		c.JWT.Secret = v
	}
	if v := getenv(EnvPrefix + "JWT_ISSUER"); v != "" {
		c.JWT.Issuer = v
	}
	if v := getenv(EnvPrefix + "LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getenv(EnvPrefix + "LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if v := getenv(EnvPrefix + "BALLOT_LEVEL"); v != "" {
		c.BallotLevel = v
	}
	if v := getenv(EnvPrefix + "SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %sSHUTDOWN_TIMEOUT: %w", EnvPrefix, err)
		}
		c.ShutdownTimeout = d
	}
	if v := getenv(EnvPrefix + "RATE_DEFAULT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sRATE_DEFAULT: %w", EnvPrefix, err)
		}
		c.RateLimits.Default.Rate = n
	}
	return nil
}

// Validate проверяет конфигурацию перед запуском
func (c *Config) Validate() error {
	var errs []error

	if c.Listen == "" {
		errs = append(errs, errors.New("listen address is required"))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("db path is required"))
	}
	if len(c.JWT.Secret) < MinSecretLen {
		errs = append(errs, fmt.Errorf("jwt secret must be at least %d bytes (set %sJWT_SECRET)", MinSecretLen, EnvPrefix))
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	switch c.BallotLevel {
	case models.ElectionLevelPresidential, models.ElectionLevelLegislative, models.ElectionLevelMunicipal:
	default:
		errs = append(errs, fmt.Errorf("unknown ballot level %q", c.BallotLevel))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("shutdown timeout must be positive"))
	}
	if err := c.RateLimits.Default.validate("default"); err != nil {
		errs = append(errs, err)
	}
	for role, l := range c.RateLimits.Roles {
		if err := l.validate(role); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (l Limit) validate(name string) error {
	if l.Rate <= 0 || l.Window <= 0 {
		return fmt.Errorf("rate limit %s: rate and window must be positive", name)
	}
	return nil
}

// NewLogger создает логгер по настройкам
func (l LogConfig) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(l.Level)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}
