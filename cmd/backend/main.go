package main

import (
	"context"
	"fmt"
	lg "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"flyra-backend/internal/auth"
	"flyra-backend/internal/cache"
	"flyra-backend/internal/config"
	"flyra-backend/internal/database"
	httpHandler "flyra-backend/internal/handler/http"
	"flyra-backend/internal/repository/postgres"
	"flyra-backend/internal/service"
	"flyra-backend/pkg/logger"
	"flyra-backend/pkg/useragent"
)

func main() {
	cfg := config.MustLoad()
	log := logger.New(cfg.Env)
	defer func() {
		if err := log.Sync(); err != nil {
			lg.Printf("ERROR: failed to sync zap logger: %v\n", err)
		}
	}()

	log.Info("starting flyra link resolution service", zap.String("env", cfg.Env))

	// Durable record store
	db, err := database.NewConnection(&cfg.Database, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db, log); err != nil {
			log.Error("failed to close database connection", zap.Error(err))
		}
	}()

	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(db, log); err != nil {
			log.Fatal("failed to run database migrations", zap.Error(err))
		}
	} else {
		log.Info("skipping database migrations (auto_migrate: false)")
	}

	// Fast cache: Redis when configured, in-process LRU otherwise
	var cacheBackend cache.Cache
	if cfg.Redis.Addr != "" {
		redisCache, err := cache.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log)
		if err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer func() {
			if err := redisCache.Close(); err != nil {
				log.Error("failed to close redis client", zap.Error(err))
			}
		}()
		cacheBackend = redisCache
	} else {
		log.Info("redis not configured, using in-process LRU cache", zap.Int("size", cfg.Redis.LRUSize))
		lruCache, err := cache.NewLRU(cfg.Redis.LRUSize)
		if err != nil {
			log.Fatal("failed to create LRU cache", zap.Error(err))
		}
		cacheBackend = lruCache
	}

	// Services
	storage := postgres.New(db, log)
	passwords := auth.NewPasswordServiceWithCost(cfg.Shortener.BcryptCost)
	resolver := service.NewResolver(storage, cacheBackend, log, cfg.Resolver.CacheTTL)
	verifier := service.NewPasswordVerifier(storage, passwords, log)
	shortener := service.NewShortener(storage, cacheBackend, passwords, &cfg.Shortener, log)
	uaParser := useragent.NewParser(log)

	// HTTP server
	apiServer := httpHandler.NewServer(storage, cacheBackend, resolver, verifier, shortener, uaParser, log)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPServer.Port),
		Handler:      apiServer.SetupRoutes(),
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	log.Info("starting HTTP server", zap.String("address", httpServer.Addr))

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server failed", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shutdown HTTP server", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}

	// Drain best-effort cache fills before closing the cache client
	resolver.Wait()
}
