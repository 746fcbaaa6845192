package messaging

import (
	"context"
	"time"
)

// Payment event types published after a payment reaches a terminal state.
const (
	EventPaymentApproved = "payment.approved"
	EventPaymentDeclined = "payment.declined"
	EventPaymentRefunded = "payment.refunded"
	EventPaymentVoided   = "payment.voided"
)

// PaymentEvent is the message published to interested services
// (notifications, reporting) after a payment decision is persisted.
type PaymentEvent struct {
	EventID       string    `json:"event_id"`
	EventType     string    `json:"event_type"`
	PaymentID     int64     `json:"payment_id"`
	PaymentType   string    `json:"payment_type"`
	Subject       string    `json:"subject_reference"`
	Amount        string    `json:"amount"`
	Currency      string    `json:"currency"`
	Status        string    `json:"status"`
	TransactionID string    `json:"transaction_id,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// EventPublisher publishes payment events. Publishing is best-effort and
// must never affect the payment outcome.
type EventPublisher interface {
	PublishPaymentEvent(ctx context.Context, event PaymentEvent) error
}
