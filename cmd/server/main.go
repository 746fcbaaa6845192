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

	"github.com/muk2/SagaApi/internal/config"
	"github.com/muk2/SagaApi/internal/domain/messaging"
	"github.com/muk2/SagaApi/internal/infrastructure/database"
	"github.com/muk2/SagaApi/internal/infrastructure/gateway/north"
	httpServer "github.com/muk2/SagaApi/internal/infrastructure/http"
	"github.com/muk2/SagaApi/internal/infrastructure/mail"
	infraMessaging "github.com/muk2/SagaApi/internal/infrastructure/messaging"
	"github.com/muk2/SagaApi/internal/usecase"
	"github.com/muk2/SagaApi/pkg/logger"
	pkgMessaging "github.com/muk2/SagaApi/pkg/messaging"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	zapLogger, err := logger.NewZapLogger(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Output:      cfg.Log.Output,
		Development: cfg.Log.Development,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	// Initialize database connection
	db, err := database.NewConnection(&cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db, zapLogger); err != nil {
			zapLogger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	// Run database migrations
	if err := database.Migrate(db, zapLogger); err != nil {
		zapLogger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Initialize repositories
	repos := database.NewRepositories(db, zapLogger)

	// Payment event publisher; the service runs without one when Redis is
	// not configured.
	var publisher messaging.EventPublisher = infraMessaging.NopEventPublisher{}
	if cfg.Redis.Enabled {
		redisClient, err := pkgMessaging.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			zapLogger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		publisher = infraMessaging.NewRedisEventPublisher(redisClient, zapLogger)
	}

	gatewayClient := north.NewClient(cfg.Gateway, zapLogger)
	receiptSender := mail.NewSMTPReceiptSender(cfg.SMTP, zapLogger)

	paymentService := usecase.NewPaymentService(
		repos.Payment,
		gatewayClient,
		receiptSender,
		publisher,
		zapLogger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	httpSrv := httpServer.NewServer(cfg, zapLogger, paymentService)

	go func() {
		// Start returns http.ErrServerClosed after a graceful Shutdown;
		// only an actual startup failure is fatal. Exiting here would race
		// the receipt drain and the deferred closes below.
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	zapLogger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 10*time.Second)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Failed to shutdown HTTP server", zap.Error(err))
	}

	// Let in-flight receipt emails finish before exit.
	paymentService.WaitForReceipts()

	zapLogger.Info("Server shut down successfully")
}
