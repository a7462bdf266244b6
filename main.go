package main

import (
	"allowlist-bot/bot"
	"allowlist-bot/config"
	"allowlist-bot/handlers"
	"allowlist-bot/ops"
	"allowlist-bot/utils/database/applications"
	"context"

	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warnf("Invalid LOG_LEVEL %q, using info", cfg.LogLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	db, err := applications.Init(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Error initializing database: %v", err)
	}
	defer db.Close()

	b, err := bot.New(cfg, db)
	if err != nil {
		log.Fatalf("Error creating bot: %v", err)
	}
	defer b.Close()

	handlers.Register(b)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.MetricsAddr != "" {
		ops.Start(ctx, cfg.MetricsAddr, b.Tracker)
	}

	if err := b.Run(); err != nil {
		log.Errorf("Bot stopped: %v", err)
	}
}
