package config

import (
	"log/slog"
	"testing"
	"time"

	"emittr/connectfour/internal/game"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadServerDefaults(t *testing.T) {
	cfg, err := LoadServer()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr())
	assert.Equal(t, game.DefaultOptions(), cfg.Board())
	assert.Equal(t, 500*time.Millisecond, cfg.DropDelay)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdleTimeout)
	assert.Equal(t, "en", cfg.DefaultLanguage)
	assert.Equal(t, "game-events", cfg.KafkaTopic)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoadServerFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ADDR", ":1234")
	t.Setenv("DROP_DELAY", "250ms")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("BOARD_ROWS", "7")
	t.Setenv("BOARD_COLUMNS", "8")
	t.Setenv("WIN_LENGTH", "5")

	cfg, err := LoadServer()
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.ListenAddr())
	assert.Equal(t, 250*time.Millisecond, cfg.DropDelay)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, game.Options{Rows: 7, Columns: 8, WinLength: 5}, cfg.Board())
}

func TestLoadServerRejectsBadBoard(t *testing.T) {
	t.Setenv("WIN_LENGTH", "9")
	_, err := LoadServer()
	require.ErrorIs(t, err, game.ErrInvalidOptions)
}

func TestLoadServerRejectsBadDuration(t *testing.T) {
	t.Setenv("DROP_DELAY", "soon")
	_, err := LoadServer()
	require.Error(t, err)
}

func TestLoadConsumer(t *testing.T) {
	t.Setenv("KAFKA_BROKER", "broker:9092")
	cfg, err := LoadConsumer()
	require.NoError(t, err)
	assert.Equal(t, "broker:9092", cfg.Broker)
	assert.Equal(t, "analytics-consumer", cfg.GroupID)
	assert.Equal(t, 30*time.Second, cfg.StatsInterval)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}
