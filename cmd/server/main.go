package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/slotswap/slotswap_api/internal/app"
	"github.com/slotswap/slotswap_api/internal/config"
	"github.com/slotswap/slotswap_api/internal/controller"
	"github.com/slotswap/slotswap_api/internal/repository"
	"github.com/slotswap/slotswap_api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("Failed to create connection pool", zap.Error(err))
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath, logger)
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	if err := migrator.Close(); err != nil {
		logger.Warn("Failed to close migrator", zap.Error(err))
	}

	userRepo := repository.NewPostgresUserRepository(pool)
	slotRepo := repository.NewPostgresSlotRepository(pool)
	swapRepo := repository.NewPostgresSwapRequestRepository(pool)
	txManager := repository.NewPgxTxManager(pool)

	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL, logger)
	slotService := service.NewSlotService(txManager, slotRepo, logger)
	swapService := service.NewSwapService(txManager, slotRepo, swapRepo, userRepo, logger)

	handlers := controller.NewHandlers(authService, slotService, swapService, logger)
	router := controller.NewRouter(handlers)

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("environment", cfg.Environment),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Ждём сигнал остановки и гасим сервер, давая дорешать текущие запросы
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}

	logger.Info("Server stopped")
}
