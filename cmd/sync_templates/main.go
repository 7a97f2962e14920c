package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"whatsapp-notify/internal/config"
	"whatsapp-notify/internal/database"
	"whatsapp-notify/internal/payload"
	"whatsapp-notify/internal/repository"
	"whatsapp-notify/internal/templates"
	"whatsapp-notify/internal/whatsapp"
)

// sync_templates pulls every template registered with the provider into the
// local database and exits.
func main() {
	cfg := config.LoadConfig()
	logger, err := zap.NewProduction()
	if err != nil {
		logger = zap.NewNop()
	}
	defer logger.Sync()

	db, err := database.Open(cfg, logger)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	if err := database.SyncConfig(db, cfg, logger); err != nil {
		logger.Fatal("sync settings", zap.Error(err))
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	svc := templates.NewService(
		repository.NewTemplateRepository(db),
		whatsapp.NewClient(cfg, logger),
		payload.NewBuilder(payload.WithLogger(logger), payload.WithSiteURL(cfg.SiteURL)),
		nil,
		logger,
	)
	res, err := svc.Sync(ctx)
	if err != nil {
		logger.Fatal("sync templates", zap.Error(err))
	}
	logger.Info("DONE",
		zap.Int("created", res.Created),
		zap.Int("updated", res.Updated),
		zap.Int("failed", res.Failed))
}
