package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/at-ishikawa/offlinedict/internal/app"
	"github.com/at-ishikawa/offlinedict/internal/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: true,
		Level:     logLevel(),
	})))

	cfg, err := config.Load(os.Getenv("OFFLINEDICT_CONFIG"))
	if err != nil {
		return fmt.Errorf("config.Load() > %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a, err := app.New(cfg, app.Options{Registerer: registry})
	if err != nil {
		return fmt.Errorf("app.New() > %w", err)
	}
	defer func() {
		_ = a.Close()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return a.Serve(ctx, registry)
}

func logLevel() slog.Level {
	if os.Getenv("OFFLINEDICT_DEBUG") != "" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
