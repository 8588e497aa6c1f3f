package main

import (
	"context"
	"os/signal"
	"syscall"

	"streamcache/config"
	"streamcache/internal/bybit/collector"
	"streamcache/logger"

	"go.uber.org/zap"
)

func main() {
	// viper config
	cfg, err := config.Load("")
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// zap logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// run collector until interrupted
	if err := collector.Start(ctx, cfg, log); err != nil {
		log.Fatal("collector failed", zap.Error(err))
	}
	log.Info("collector stopped")
}
