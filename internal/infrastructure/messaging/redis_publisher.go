package messaging

import (
	"context"

	domainMessaging "github.com/muk2/SagaApi/internal/domain/messaging"
	"github.com/muk2/SagaApi/pkg/messaging"
	"go.uber.org/zap"
)

const paymentEventsChannel = "payments.events"

// RedisEventPublisher publishes payment events over Redis pub/sub for the
// notification and reporting services.
type RedisEventPublisher struct {
	client messaging.RedisClient
	logger *zap.Logger
}

// NewRedisEventPublisher creates a Redis-backed event publisher.
func NewRedisEventPublisher(client messaging.RedisClient, logger *zap.Logger) *RedisEventPublisher {
	return &RedisEventPublisher{
		client: client,
		logger: logger,
	}
}

// PublishPaymentEvent publishes the event to the payment events channel.
func (p *RedisEventPublisher) PublishPaymentEvent(ctx context.Context, event domainMessaging.PaymentEvent) error {
	if err := p.client.Publish(ctx, paymentEventsChannel, event); err != nil {
		p.logger.Error("Failed to publish payment event",
			zap.String("event_type", event.EventType),
			zap.Int64("payment_id", event.PaymentID),
			zap.Error(err))
		return err
	}

	p.logger.Debug("Published payment event",
		zap.String("event_type", event.EventType),
		zap.Int64("payment_id", event.PaymentID))
	return nil
}

// NopEventPublisher discards events. Used when Redis is not configured.
type NopEventPublisher struct{}

func (NopEventPublisher) PublishPaymentEvent(ctx context.Context, event domainMessaging.PaymentEvent) error {
	return nil
}
