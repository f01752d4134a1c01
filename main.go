package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bugtrack/config"
	"bugtrack/database"
	"bugtrack/logger"
	"bugtrack/memstore"
	"bugtrack/mongostore"
	"bugtrack/ratelimit"
	"bugtrack/server"
	"bugtrack/service"
	"bugtrack/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}

	log := logger.Init(cfg.Log)
	defer log.Sync()

	gin.SetMode(cfg.Server.GinMode)

	// Create context with timeout for initial connections
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	st, err := openStore(ctx, cfg.Storage, log)
	if err != nil {
		log.Fatal("failed to open store", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}
	defer st.Close()

	limiter := authLimiter(ctx, cfg, log)

	svc := service.New(st, cfg.Auth, log)
	router := server.NewRouter(server.Deps{
		Service:     svc,
		Store:       st,
		AuthLimiter: limiter,
		Logger:      log,
	})
	srv := server.New(cfg.Server, router)

	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr), zap.String("storage", cfg.Storage.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}

func openStore(ctx context.Context, cfg config.StorageConfig, log *zap.Logger) (store.Store, error) {
	switch cfg.Driver {
	case config.DriverMongo:
		return mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, log)
	case config.DriverMemory:
		log.Warn("using in-memory store; data is lost on restart")
		return memstore.New(), nil
	default:
		return database.Connect(ctx, cfg.DatabaseURL, log)
	}
}

// authLimiter uses Redis when configured so limits hold across instances,
// falling back to per-process counting whenever Redis is unavailable.
func authLimiter(ctx context.Context, cfg *config.Config, log *zap.Logger) ratelimit.Limiter {
	memory := ratelimit.NewMemoryLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	if cfg.Redis.URL == "" {
		return memory
	}

	client, err := ratelimit.Connect(ctx, cfg.Redis.URL)
	if err != nil {
		log.Warn("redis unavailable, rate limiting in process", zap.Error(err))
		return memory
	}

	redisLimiter := ratelimit.NewRedisLimiter(client, "bugtrack:ratelimit:auth", cfg.RateLimit.Requests, cfg.RateLimit.Window)
	return ratelimit.NewFallback(redisLimiter, memory, log)
}
