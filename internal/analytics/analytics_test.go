package analytics

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"emittr/connectfour/internal/game"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func TestNewProducerDisabledWithoutBrokers(t *testing.T) {
	assert.Nil(t, NewProducer(nil, "game-events", nil))
	assert.Nil(t, NewProducer([]string{"localhost:9092"}, "", nil))

	var p *Producer
	p.Publish(context.Background(), Event{Event: EventGameWon})
	require.NoError(t, p.Close())
}

func TestPublishWritesKeyedEvent(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w, logger: discardLogger()}

	p.Publish(context.Background(), Event{
		Event:     EventPieceDropped,
		SessionID: "s1",
		Player:    game.Player2,
		Row:       0,
		Column:    6,
		Moves:     42,
	})

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "s1", string(w.msgs[0].Key))
	e, err := DecodeEvent(w.msgs[0].Value)
	require.NoError(t, err)
	assert.Equal(t, EventPieceDropped, e.Event)
	assert.Equal(t, game.Player2, e.Player)
	assert.Equal(t, 6, e.Column)
	assert.Equal(t, 42, e.Moves)
	assert.False(t, e.Timestamp.IsZero())
}

func TestPublishSwallowsWriteErrors(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := &Producer{writer: w, logger: discardLogger()}

	p.Publish(context.Background(), Event{Event: EventGameReset, SessionID: "s1"})
	assert.Empty(t, w.msgs)
}

func TestLineAxis(t *testing.T) {
	tests := []struct {
		line []game.Coord
		want Axis
	}{
		{[]game.Coord{{Row: 5, Col: 3}, {Row: 5, Col: 4}}, AxisHorizontal},
		{[]game.Coord{{Row: 2, Col: 3}, {Row: 3, Col: 3}}, AxisVertical},
		{[]game.Coord{{Row: 2, Col: 2}, {Row: 3, Col: 3}}, AxisDiagonal},
		{[]game.Coord{{Row: 2, Col: 3}, {Row: 3, Col: 2}}, AxisAntiDiagonal},
	}
	for _, tt := range tests {
		got, ok := LineAxis(tt.line)
		require.True(t, ok)
		assert.Equal(t, tt.want, got)
	}
	_, ok := LineAxis([]game.Coord{{Row: 1, Col: 1}})
	assert.False(t, ok)
}

func TestStatsSummary(t *testing.T) {
	s := NewStats()
	ts := time.Date(2026, 5, 4, 13, 20, 0, 0, time.UTC)

	for i := 0; i < 7; i++ {
		s.Record(Event{Event: EventPieceDropped, SessionID: "a", Timestamp: ts})
	}
	s.Record(Event{
		Event: EventGameWon, SessionID: "a", Player: game.Player1, Moves: 7, Duration: 30,
		Line: []game.Coord{{Row: 5, Col: 3}, {Row: 5, Col: 4}, {Row: 5, Col: 2}, {Row: 5, Col: 1}}, Timestamp: ts,
	})
	s.Record(Event{
		Event: EventGameWon, SessionID: "b", Player: game.Player2, Moves: 11, Duration: 90,
		Line: []game.Coord{{Row: 2, Col: 0}, {Row: 3, Col: 0}, {Row: 4, Col: 0}, {Row: 5, Col: 0}}, Timestamp: ts.Add(time.Hour),
	})
	s.Record(Event{Event: EventGameReset, SessionID: "b", Timestamp: ts})

	sum := s.Summary()
	assert.Equal(t, 2, sum.Sessions)
	assert.Equal(t, 7, sum.Drops)
	assert.Equal(t, 1, sum.Resets)
	assert.Equal(t, 2, sum.GamesWon)
	assert.Equal(t, 1, sum.WinsPlayer1)
	assert.Equal(t, 1, sum.WinsPlayer2)
	assert.InDelta(t, 9.0, sum.AvgMovesToWin, 1e-9)
	assert.InDelta(t, 60.0, sum.AvgGameDuration, 1e-9)
	assert.Equal(t, map[Axis]int{AxisHorizontal: 1, AxisVertical: 1}, sum.WinsByAxis)
	assert.Equal(t, map[string]int{"2026-05-04": 2}, sum.GamesPerDay)
	assert.Len(t, sum.GamesPerHour, 2)

	s.Log(discardLogger())
}
