package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"hospital-management-backend/internal/config"
	"hospital-management-backend/internal/database"
	"hospital-management-backend/internal/handler"
	"hospital-management-backend/internal/logging"
	"hospital-management-backend/internal/metrics"
	"hospital-management-backend/internal/repository"
	"hospital-management-backend/internal/service"
	"hospital-management-backend/pkg/utils"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// 2. Initialize logger
	logger, err := logging.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	// 3. Initialize database connection and schema
	db, err := database.Connect(cfg, logger)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	// 4. Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// 5. Initialize repositories
	hospitalRepo := repository.NewHospitalRepo(db)
	userRepo := repository.NewUserRepo(db)
	auditRepo := repository.NewAuditRepo(db)

	// 6. Initialize services
	hasher := utils.NewBcryptHasher(cfg.Auth.BcryptCost)
	tokens := utils.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Expiry, time.Now)

	authService := service.NewAuthService(service.AuthDeps{
		DB:             db,
		Hospitals:      hospitalRepo,
		Users:          userRepo,
		Audit:          auditRepo,
		Hasher:         hasher,
		Tokens:         tokens,
		Metrics:        m,
		Logger:         logger,
		RegisterSecret: cfg.Auth.RegisterSecret,
	})
	userService := service.NewUserService(userRepo, hasher, m, logger)

	// 7. Setup Gin router
	gin.SetMode(cfg.Server.GinMode)
	r, err := handler.NewRouter(handler.RouterDeps{
		Config:  cfg,
		Logger:  logger,
		Metrics: m,
		DB:      db,
		Tokens:  tokens,
		Auth:    authService,
		Users:   userService,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 8. Serve until interrupted, then drain in-flight requests
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", zap.String("port", cfg.Server.Port), zap.String("db_driver", cfg.Database.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return fmt.Errorf("listening: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}

	logger.Info("Server exited")
	return nil
}
