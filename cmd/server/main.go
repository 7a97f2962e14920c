package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"whatsapp-notify/internal/api"
	"whatsapp-notify/internal/config"
	"whatsapp-notify/internal/database"
	"whatsapp-notify/internal/media"
	"whatsapp-notify/internal/metrics"
	"whatsapp-notify/internal/notify"
	"whatsapp-notify/internal/payload"
	"whatsapp-notify/internal/repository"
	"whatsapp-notify/internal/templates"
	"whatsapp-notify/internal/whatsapp"
	"whatsapp-notify/internal/ws"
)

func main() {
	cfg := config.LoadConfig()
	logger := newLogger(cfg.LogLevel)
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	whatsappClient := whatsapp.NewClient(cfg, logger)
	templateRepo := repository.NewTemplateRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	cacheOpts := []media.Option{media.WithRepository(templateRepo), media.WithLogger(logger)}
	if rdb := openRedis(ctx, cfg, logger); rdb != nil {
		defer rdb.Close()
		cacheOpts = append(cacheOpts, media.WithRedis(rdb, cfg.HandleTTL))
	}
	handles := media.NewHandleCache(media.NewFileLoader(nil, cfg.SitePath), whatsappClient, cacheOpts...)

	builder := payload.NewBuilder(
		payload.WithLogger(logger),
		payload.WithHandleStore(handles),
		payload.WithSiteURL(cfg.SiteURL),
	)

	hub := ws.NewHub(logger)
	go hub.Run(ctx)

	templateService := templates.NewService(templateRepo, whatsappClient, builder, hub, logger)
	notifyService := notify.NewService(notificationRepo, templateRepo, messageRepo, whatsappClient, builder, hub, cfg.SiteURL, logger)

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), api.CORS(), metrics.Middleware())

	api.Handlers{
		Templates:     api.NewTemplateHandler(templateService, notifyService),
		Notifications: api.NewNotificationHandler(notifyService),
		Messages:      api.NewMessageHandler(messageRepo),
		Media:         api.NewMediaHandler(whatsappClient, messageRepo, logger),
	}.Register(r)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/ws", func(c *gin.Context) {
		hub.ServeWs(c.Writer, c.Request)
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("server starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to run server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

func newLogger(level string) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if level == "debug" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// openRedis returns nil when no address is configured or the server is
// unreachable; handles are then cached in process and in the database only.
func openRedis(ctx context.Context, cfg *config.Config, logger *zap.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unavailable, continuing without it", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		_ = rdb.Close()
		return nil
	}
	logger.Info("redis connected", zap.String("addr", cfg.RedisAddr))
	return rdb
}
