package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"wordy/wordy/config"
	"wordy/wordy/controllers"
	"wordy/wordy/routes"
	"wordy/wordy/services/access"
	"wordy/wordy/services/attachments"
	"wordy/wordy/services/documents"
	"wordy/wordy/services/favorites"
	"wordy/wordy/services/realtime"
	"wordy/wordy/services/revisions"
	"wordy/wordy/services/settings"
	"wordy/wordy/services/writequeue"
	"wordy/wordy/sources/db"
	"wordy/wordy/sources/db/dao"
	"wordy/wordy/sources/storage"
	"wordy/wordy/utils/logging"

	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()
	logging.InitLogger(cfg.LogDir)
	defer logging.Sync()

	if cfg.JWTSecret == "" {
		logging.AppLogger.Error("JWT_SECRET is not set")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	database, err := db.NewDatabase(ctx, cfg)
	if err != nil {
		logging.ErrorLogger.Error("database connection error", zap.Error(err))
		os.Exit(1)
	}
	defer database.Close()

	store, err := storage.NewContentStore(ctx, cfg)
	if err != nil {
		logging.ErrorLogger.Error("content store error", zap.Error(err))
		os.Exit(1)
	}

	acc := access.NewService(database.DB)
	hub := realtime.NewHub(acc.AuthorizeRoom)

	runCtx, stop := context.WithCancel(context.Background())
	defer stop()
	// sockets get their own context so shutdown can close them while REST
	// requests drain
	socketCtx, closeSockets := context.WithCancel(context.Background())
	defer closeSockets()

	var events realtime.Broadcaster = hub
	if cfg.RedisURL != "" {
		rb, err := realtime.NewRedisBroadcaster(cfg.RedisURL, cfg.RedisChannel, hub)
		if err != nil {
			logging.ErrorLogger.Error("redis connection error", zap.Error(err))
			os.Exit(1)
		}
		if err := rb.Start(runCtx); err != nil {
			logging.ErrorLogger.Error("redis subscribe error", zap.Error(err))
			os.Exit(1)
		}
		defer rb.Close()
		events = rb
		logging.AppLogger.Info("Broadcasting through redis", zap.String("channel", cfg.RedisChannel))
	}

	locks := writequeue.NewKeyedMutex()
	docs := documents.NewService(database.DB, store, locks, events)
	revs := revisions.NewService(database.DB, store, locks, events)
	userDAO := dao.NewUserDAO(database.DB)

	sqlDB, err := database.DB.DB()
	if err != nil {
		logging.ErrorLogger.Error("database handle error", zap.Error(err))
		os.Exit(1)
	}

	handler := routes.NewRouter(cfg, routes.Controllers{
		Health:     controllers.NewHealthController(sqlDB.PingContext),
		Auth:       controllers.NewAuthController(userDAO, cfg),
		User:       controllers.NewUserController(userDAO),
		Document:   controllers.NewDocumentController(acc, docs, revs),
		Attachment: controllers.NewAttachmentController(acc, attachments.NewService(store, cfg.MaxUploadBytes)),
		Revision:   controllers.NewRevisionController(acc, revs),
		Favorite:   controllers.NewFavoriteController(acc, favorites.NewService(database.DB, events)),
		Settings:   controllers.NewSettingsController(settings.NewService(database.DB)),
		Realtime:   controllers.NewRealtimeController(hub, socketCtx),
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}
	// hijacked websocket connections are not tracked by Shutdown
	srv.RegisterOnShutdown(closeSockets)
	go func() {
		logging.AppLogger.Info("Server starting", zap.String("port", cfg.Port), zap.String("environment", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.ErrorLogger.Error("server listen error", zap.Error(err))
			stop()
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-runCtx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.ErrorLogger.Error("server shutdown error", zap.Error(err))
	}
	stop()
	logging.AppLogger.Info("Server shutdown complete")
}
