// Package config loads process configuration from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"emittr/connectfour/internal/game"

	"github.com/caarlos0/env/v11"
)

// Server configures cmd/server.
type Server struct {
	// Port wins over Addr when set, for hosts that only hand out a port.
	Port     string `env:"PORT"`
	Addr     string `env:"ADDR" envDefault:":8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	BoardRows    int `env:"BOARD_ROWS" envDefault:"6"`
	BoardColumns int `env:"BOARD_COLUMNS" envDefault:"7"`
	WinLength    int `env:"WIN_LENGTH" envDefault:"4"`

	DropDelay          time.Duration `env:"DROP_DELAY" envDefault:"500ms"`
	SessionIdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"30m"`
	SweepInterval      time.Duration `env:"SWEEP_INTERVAL" envDefault:"1m"`
	DefaultLanguage    string        `env:"DEFAULT_LANGUAGE" envDefault:"en"`
	StaticDir          string        `env:"STATIC_DIR"`

	PostgresURL  string   `env:"POSTGRES_URL"`
	SQLitePath   string   `env:"SQLITE_PATH"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"game-events"`
}

// Consumer configures cmd/analytics.
type Consumer struct {
	Broker        string        `env:"KAFKA_BROKER" envDefault:"localhost:9092"`
	Topic         string        `env:"KAFKA_TOPIC" envDefault:"game-events"`
	GroupID       string        `env:"KAFKA_GROUP_ID" envDefault:"analytics-consumer"`
	StatsInterval time.Duration `env:"STATS_INTERVAL" envDefault:"30s"`
	LogLevel      string        `env:"LOG_LEVEL" envDefault:"info"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func LoadServer() (Server, error) {
	var cfg Server
	if err := ParseEnv(&cfg); err != nil {
		return cfg, err
	}
	if _, err := game.NewEngine(cfg.Board(), nil); err != nil {
		return cfg, err
	}
	if cfg.DropDelay < 0 {
		return cfg, fmt.Errorf("DROP_DELAY must not be negative")
	}
	return cfg, nil
}

func LoadConsumer() (Consumer, error) {
	var cfg Consumer
	if err := ParseEnv(&cfg); err != nil {
		return cfg, err
	}
	if cfg.StatsInterval <= 0 {
		return cfg, fmt.Errorf("STATS_INTERVAL must be positive")
	}
	return cfg, nil
}

// ListenAddr resolves the address to bind.
func (s Server) ListenAddr() string {
	if s.Port != "" {
		return ":" + s.Port
	}
	return s.Addr
}

func (s Server) Board() game.Options {
	return game.Options{Rows: s.BoardRows, Columns: s.BoardColumns, WinLength: s.WinLength}
}

// ParseLevel maps a LOG_LEVEL value to a slog level, defaulting to info.
func ParseLevel(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
