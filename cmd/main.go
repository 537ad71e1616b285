package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/moura95/limit-order-book/config"
	"github.com/moura95/limit-order-book/internal/console"
	"github.com/moura95/limit-order-book/internal/engine"
	"github.com/moura95/limit-order-book/internal/metrics"
	"github.com/moura95/limit-order-book/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	lg, err := logger.NewFromConfig(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer lg.Close()
	logger.SetDefault(lg)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	m, err := metrics.NewCollector(reg)
	if err != nil {
		logger.Errorf("Failed to register metrics: %v", err)
		os.Exit(1)
	}

	eng, err := engine.NewEngine(cfg.Book, lg, m)
	if err != nil {
		logger.Errorf("Failed to create engine: %v", err)
		os.Exit(1)
	}
	if err := eng.Seed(cfg.Seed); err != nil {
		logger.Errorf("Failed to load sample orders: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan error, 1)
	go func() {
		done <- console.NewConsole(cfg.Console, eng, m, os.Stdin, os.Stdout).Run(ctx)
	}()

	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Errorf("Console stopped: %v", err)
	}
	trades := eng.Ledger()
	logger.Info("shutting down",
		"trades", trades.Len(),
		"volume", trades.Volume().String(),
		"notional", trades.Notional().StringFixed(2),
	)
}
