package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment represents a single charge attempt and its outcome.
type Payment struct {
	ID               int64                  `json:"id"`
	PaymentType      PaymentType            `json:"payment_type"`
	SubjectReference string                 `json:"subject_reference"`
	Amount           decimal.Decimal        `json:"amount"`
	Currency         string                 `json:"currency"`
	Status           PaymentStatus          `json:"status"`
	GatewayToken     string                 `json:"-"`
	TransactionID    string                 `json:"transaction_id,omitempty"`
	DeclineCode      string                 `json:"decline_code,omitempty"`
	CardLastFour     string                 `json:"card_last_four,omitempty"`
	IdempotencyKey   string                 `json:"idempotency_key"`
	GatewayResponse  map[string]interface{} `json:"-"`
	RefundedAt       *time.Time             `json:"refunded_at,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusApproved PaymentStatus = "approved"
	PaymentStatusDeclined PaymentStatus = "declined"
	PaymentStatusRefunded PaymentStatus = "refunded"
	PaymentStatusVoided   PaymentStatus = "voided"
	PaymentStatusError    PaymentStatus = "error"
)

// IsTerminal reports whether no further charge attempt may occur for a
// record in this status.
func (s PaymentStatus) IsTerminal() bool {
	return s != PaymentStatusPending
}

type PaymentType string

const (
	PaymentTypeEventRegistration PaymentType = "event_registration"
	PaymentTypeMembership        PaymentType = "membership"
)
