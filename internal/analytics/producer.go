// Package analytics streams game events to Kafka and aggregates them on
// the consumer side.
package analytics

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"emittr/connectfour/internal/game"

	"github.com/segmentio/kafka-go"
)

const (
	EventPieceDropped = "piece_dropped"
	EventGameWon      = "game_won"
	EventGameReset    = "game_reset"
)

// Event is the message written to the topic, one JSON object per message.
type Event struct {
	Event     string       `json:"event"`
	SessionID string       `json:"sessionId"`
	Player    game.Player  `json:"player,omitempty"`
	Row       int          `json:"row"`
	Column    int          `json:"column"`
	Moves     int          `json:"moves"`
	Line      []game.Coord `json:"winningLine,omitempty"`
	Duration  float64      `json:"duration,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// messageWriter is the part of kafka.Writer the producer uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	writer messageWriter
	logger *slog.Logger
}

func NewProducer(brokers []string, topic string, logger *slog.Logger) *Producer {
	if len(brokers) == 0 || topic == "" {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return &Producer{writer: writer, logger: logger}
}

// Publish writes e keyed by session so one session's events stay ordered.
// Failures are logged and dropped.
func (p *Producer) Publish(ctx context.Context, e Event) {
	if p == nil || p.writer == nil {
		return
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(e)
	if err != nil {
		p.logger.Error("encode analytics event", "event", e.Event, "error", err)
		return
	}
	msg := kafka.Message{Key: []byte(e.SessionID), Value: data}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Warn("kafka publish failed", "event", e.Event, "error", err)
	}
}

func (p *Producer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

// DecodeEvent parses a message value written by Publish.
func DecodeEvent(data []byte) (Event, error) {
	var e Event
	err := json.Unmarshal(data, &e)
	return e, err
}
