package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"emittr/connectfour/internal/analytics"
	"emittr/connectfour/internal/config"

	"github.com/segmentio/kafka-go"
)

func main() {
	if err := run(); err != nil {
		slog.Error("analytics consumer stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConsumer()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: config.ParseLevel(cfg.LogLevel)}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: []string{cfg.Broker},
		Topic:   cfg.Topic,
		GroupID: cfg.GroupID,
	})
	defer reader.Close()

	logger.Info("analytics consumer listening", "broker", cfg.Broker, "topic", cfg.Topic)

	stats := analytics.NewStats()
	go func() {
		ticker := time.NewTicker(cfg.StatsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stats.Log(logger)
			}
		}
	}()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			stats.Log(logger)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("read message: %w", err)
		}
		e, err := analytics.DecodeEvent(msg.Value)
		if err != nil {
			logger.Warn("failed to decode event", "offset", msg.Offset, "error", err)
			continue
		}
		stats.Record(e)
		logger.Debug("event", "event", e.Event, "session", e.SessionID, "player", e.Player.String())
	}
}
