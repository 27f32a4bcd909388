package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"emittr/connectfour/internal/analytics"
	"emittr/connectfour/internal/config"
	"emittr/connectfour/internal/server"
	"emittr/connectfour/internal/storage"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadServer()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: config.ParseLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store storage.Store
	st, err := storage.Open(ctx, storage.Config{PostgresURL: cfg.PostgresURL, SQLitePath: cfg.SQLitePath}, logger)
	switch {
	case errors.Is(err, storage.ErrNotConfigured):
		logger.Info("results archive disabled")
	case err != nil:
		logger.Warn("results archive disabled", "error", err)
	default:
		store = st
		defer st.Close()
	}

	producer := analytics.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
	if producer != nil {
		logger.Info("analytics enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
		defer producer.Close()
	}

	srv := server.New(server.Config{
		Board:           cfg.Board(),
		DropDelay:       cfg.DropDelay,
		IdleTimeout:     cfg.SessionIdleTimeout,
		SweepInterval:   cfg.SweepInterval,
		DefaultLanguage: cfg.DefaultLanguage,
		StaticDir:       cfg.StaticDir,
		Store:           store,
		Analytics:       producer,
		Logger:          logger,
	})

	addr := cfg.ListenAddr()
	logger.Info("server listening", "addr", addr)
	return srv.Run(ctx, addr)
}
