package repository

import (
	"context"

	"github.com/muk2/SagaApi/internal/domain/entity"
)

// PaymentRepository persists payment records. The idempotency key carries a
// storage-level unique constraint; CreatePending surfaces a violation as
// domain errors.ErrDuplicateIdempotencyKey so concurrent duplicate
// submissions collapse onto a single record.
type PaymentRepository interface {
	CreatePending(ctx context.Context, payment *entity.Payment) error
	GetByID(ctx context.Context, id int64) (*entity.Payment, error)
	// GetByIdempotencyKey returns (nil, nil) when no record carries the key.
	GetByIdempotencyKey(ctx context.Context, key string) (*entity.Payment, error)
	GetBySubjectReference(ctx context.Context, subject string) ([]*entity.Payment, error)
	UpdateOutcome(ctx context.Context, payment *entity.Payment) error
	List(ctx context.Context, limit, offset int) ([]*entity.Payment, error)
}
