package main

import (
	"log"
	"log/slog"
	"net/http"
	"time"

	"luxsync/internal/app"
	"luxsync/internal/config"
	"luxsync/internal/ratelimit"
	"luxsync/internal/server"
	"luxsync/internal/util"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)
	sessionTTL, err := config.ParseSessionTTL(cfg.SessionTTL)
	if err != nil {
		log.Fatalf("failed to parse session ttl: %v", err)
	}

	appCore, err := app.New(app.Config{
		DatabaseURL:      cfg.DatabaseURL,
		StorageEndpoint:  cfg.StorageEndpoint,
		StorageRegion:    cfg.StorageRegion,
		StorageAccessKey: cfg.StorageAccessKey,
		StorageSecretKey: cfg.StorageSecretKey,
		StorageBucket:    cfg.StorageBucket,
		StorageBasePath:  cfg.StorageBasePath,
		StorageUseSSL:    cfg.StorageUseSSL,
		PublicBaseURL:    cfg.PublicBaseURL,
		AdminPassword:    cfg.AdminPassword,
		SessionSecret:    cfg.SessionSecret,
		SessionTTL:       sessionTTL,
		ListLimit:        cfg.ListLimit,
		OptimizeMaxWidth: cfg.OptimizeMaxWidth,
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	var loginLimiter *ratelimit.FixedWindowLimiter
	if cfg.RedisAddr != "" && cfg.LoginRateLimitPerMinute > 0 {
		loginLimiter, err = ratelimit.NewRedisFixedWindowLimiter(
			cfg.RedisAddr, cfg.RedisPassword, "luxsync:login",
			cfg.LoginRateLimitPerMinute, time.Minute,
		)
		if err != nil {
			log.Fatalf("failed to init login rate limiter: %v", err)
		}
	}

	httpServer := server.New(server.Config{
		App:            appCore,
		LoginLimiter:   loginLimiter,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("gallery server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}
