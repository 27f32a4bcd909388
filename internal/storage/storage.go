// Package storage archives the outcome of finished games. Games in
// progress are never stored.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"emittr/connectfour/internal/game"
)

var ErrNotConfigured = errors.New("storage is not configured")

// Result is one won game.
type Result struct {
	SessionID   string       `json:"sessionId"`
	Winner      game.Player  `json:"winner"`
	WinningLine []game.Coord `json:"winningLine"`
	Moves       int          `json:"moves"`
	StartedAt   time.Time    `json:"startedAt"`
	EndedAt     time.Time    `json:"endedAt"`
}

// WinTotals counts archived wins per player.
type WinTotals struct {
	Player1 int `json:"player1"`
	Player2 int `json:"player2"`
}

func (w *WinTotals) add(p game.Player, n int) {
	switch p {
	case game.Player1:
		w.Player1 += n
	case game.Player2:
		w.Player2 += n
	}
}

type Store interface {
	SaveResult(ctx context.Context, result Result) error
	RecentResults(ctx context.Context, limit int) ([]Result, error)
	WinTotals(ctx context.Context) (WinTotals, error)
	Close() error
}

type Config struct {
	PostgresURL string
	SQLitePath  string
}

// Open returns the configured store, preferring Postgres over SQLite. It
// returns ErrNotConfigured when neither is set.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PostgresURL != "" {
		pg, err := NewPostgresStore(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := pg.EnsureTables(ctx); err != nil {
			_ = pg.Close()
			return nil, fmt.Errorf("ensure postgres tables: %w", err)
		}
		logger.Info("results archive enabled", "backend", "postgres")
		return pg, nil
	}
	if cfg.SQLitePath != "" {
		lite, err := OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("results archive enabled", "backend", "sqlite", "path", cfg.SQLitePath)
		return lite, nil
	}
	return nil, ErrNotConfigured
}

func validate(result Result) error {
	if result.SessionID == "" {
		return fmt.Errorf("session id is required")
	}
	if result.Winner != game.Player1 && result.Winner != game.Player2 {
		return fmt.Errorf("winner %d is not a player", result.Winner)
	}
	return nil
}

func encodeLine(line []game.Coord) (string, error) {
	if line == nil {
		line = []game.Coord{}
	}
	data, err := json.Marshal(line)
	if err != nil {
		return "", fmt.Errorf("encode winning line: %w", err)
	}
	return string(data), nil
}

func decodeLine(data string) ([]game.Coord, error) {
	var line []game.Coord
	if data == "" {
		return line, nil
	}
	if err := json.Unmarshal([]byte(data), &line); err != nil {
		return nil, fmt.Errorf("decode winning line: %w", err)
	}
	return line, nil
}

func playerFromInt(v int) game.Player {
	switch game.Player(v) {
	case game.Player1, game.Player2:
		return game.Player(v)
	}
	return game.NoPlayer
}
