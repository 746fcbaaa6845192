package database

import (
	"github.com/muk2/SagaApi/internal/domain/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Migrate runs database migrations
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	logger.Info("Running database migrations...")

	if err := db.AutoMigrate(&model.Payment{}); err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return err
	}

	// The idempotency guarantee lives in this index; AutoMigrate creates it
	// from the model tag, this keeps older databases in line.
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_payments_idempotency_key ON payments (idempotency_key)`).Error; err != nil {
		logger.Error("Failed to create idempotency index", zap.Error(err))
		return err
	}

	logger.Info("Database migrations completed successfully")
	return nil
}
