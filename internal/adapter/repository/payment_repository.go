package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/muk2/SagaApi/internal/domain/entity"
	domainErrors "github.com/muk2/SagaApi/internal/domain/errors"
	"github.com/muk2/SagaApi/internal/domain/model"
	"github.com/muk2/SagaApi/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type paymentRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB, logger *zap.Logger) repository.PaymentRepository {
	return &paymentRepository{
		db:     db,
		logger: logger,
	}
}

// CreatePending inserts a new pending payment record. The unique index on
// idempotency_key makes the insert-or-fetch race safe: the loser of a
// concurrent duplicate submission gets ErrDuplicateIdempotencyKey.
func (r *paymentRepository) CreatePending(ctx context.Context, payment *entity.Payment) error {
	row := entityToModel(payment)
	row.Status = string(entity.PaymentStatusPending)

	err := r.db.WithContext(ctx).Create(row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domainErrors.ErrDuplicateIdempotencyKey
		}
		r.logger.Error("Failed to create payment record",
			zap.String("subject_reference", payment.SubjectReference),
			zap.Error(err))
		return fmt.Errorf("failed to create payment: %w", err)
	}

	payment.ID = row.ID
	payment.Status = entity.PaymentStatusPending
	payment.CreatedAt = row.CreatedAt
	payment.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *paymentRepository) GetByID(ctx context.Context, id int64) (*entity.Payment, error) {
	var row model.Payment

	err := r.db.WithContext(ctx).First(&row, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.ErrPaymentNotFound
		}
		r.logger.Error("Failed to get payment by ID",
			zap.Int64("payment_id", id),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	return modelToEntity(&row), nil
}

func (r *paymentRepository) GetByIdempotencyKey(ctx context.Context, key string) (*entity.Payment, error) {
	var row model.Payment

	err := r.db.WithContext(ctx).
		Where("idempotency_key = ?", key).
		First(&row).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get payment by idempotency key", zap.Error(err))
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	return modelToEntity(&row), nil
}

func (r *paymentRepository) GetBySubjectReference(ctx context.Context, subject string) ([]*entity.Payment, error) {
	var rows []model.Payment

	err := r.db.WithContext(ctx).
		Where("subject_reference = ?", subject).
		Order("created_at DESC").
		Find(&rows).Error

	if err != nil {
		r.logger.Error("Failed to list payments by subject",
			zap.String("subject_reference", subject),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}

	payments := make([]*entity.Payment, 0, len(rows))
	for i := range rows {
		payments = append(payments, modelToEntity(&rows[i]))
	}
	return payments, nil
}

// UpdateOutcome persists the terminal state of a charge, refund or void.
func (r *paymentRepository) UpdateOutcome(ctx context.Context, payment *entity.Payment) error {
	updates := map[string]interface{}{
		"status":     string(payment.Status),
		"updated_at": time.Now(),
	}

	if payment.GatewayToken != "" {
		updates["gateway_token"] = payment.GatewayToken
	}
	if payment.TransactionID != "" {
		updates["transaction_id"] = payment.TransactionID
	}
	if payment.DeclineCode != "" {
		updates["decline_code"] = payment.DeclineCode
	}
	if payment.CardLastFour != "" {
		updates["card_last_four"] = payment.CardLastFour
	}
	if payment.GatewayResponse != nil {
		updates["gateway_response"] = model.JSONB(payment.GatewayResponse)
	}
	if payment.RefundedAt != nil {
		updates["refunded_at"] = *payment.RefundedAt
	}

	result := r.db.WithContext(ctx).
		Model(&model.Payment{}).
		Where("id = ?", payment.ID).
		Updates(updates)

	if result.Error != nil {
		r.logger.Error("Failed to update payment outcome",
			zap.Int64("payment_id", payment.ID),
			zap.String("status", string(payment.Status)),
			zap.Error(result.Error))
		return fmt.Errorf("failed to update payment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainErrors.ErrPaymentNotFound
	}

	return nil
}

func (r *paymentRepository) List(ctx context.Context, limit, offset int) ([]*entity.Payment, error) {
	var rows []model.Payment

	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error

	if err != nil {
		r.logger.Error("Failed to list payments", zap.Error(err))
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}

	payments := make([]*entity.Payment, 0, len(rows))
	for i := range rows {
		payments = append(payments, modelToEntity(&rows[i]))
	}
	return payments, nil
}

func entityToModel(p *entity.Payment) *model.Payment {
	row := &model.Payment{
		ID:               p.ID,
		PaymentType:      string(p.PaymentType),
		SubjectReference: p.SubjectReference,
		Amount:           p.Amount,
		Currency:         p.Currency,
		Status:           string(p.Status),
		IdempotencyKey:   p.IdempotencyKey,
		RefundedAt:       p.RefundedAt,
	}

	if p.GatewayToken != "" {
		row.GatewayToken = &p.GatewayToken
	}
	if p.TransactionID != "" {
		row.TransactionID = &p.TransactionID
	}
	if p.DeclineCode != "" {
		row.DeclineCode = &p.DeclineCode
	}
	if p.CardLastFour != "" {
		row.CardLastFour = &p.CardLastFour
	}
	if p.GatewayResponse != nil {
		row.GatewayResponse = model.JSONB(p.GatewayResponse)
	}

	return row
}

func modelToEntity(row *model.Payment) *entity.Payment {
	p := &entity.Payment{
		ID:               row.ID,
		PaymentType:      entity.PaymentType(row.PaymentType),
		SubjectReference: row.SubjectReference,
		Amount:           row.Amount,
		Currency:         row.Currency,
		Status:           entity.PaymentStatus(row.Status),
		IdempotencyKey:   row.IdempotencyKey,
		RefundedAt:       row.RefundedAt,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}

	if row.GatewayToken != nil {
		p.GatewayToken = *row.GatewayToken
	}
	if row.TransactionID != nil {
		p.TransactionID = *row.TransactionID
	}
	if row.DeclineCode != nil {
		p.DeclineCode = *row.DeclineCode
	}
	if row.CardLastFour != nil {
		p.CardLastFour = *row.CardLastFour
	}
	if row.GatewayResponse != nil {
		p.GatewayResponse = map[string]interface{}(row.GatewayResponse)
	}

	return p
}
