package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment represents a payment record
type Payment struct {
	ID               int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	PaymentType      string          `gorm:"size:50;not null;default:'event_registration'" json:"payment_type"`
	SubjectReference string          `gorm:"column:subject_reference;size:255;not null;index" json:"subject_reference"`
	Amount           decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	Currency         string          `gorm:"size:3;not null;default:'USD'" json:"currency"`
	Status           string          `gorm:"size:30;not null;default:'pending'" json:"status"`
	GatewayToken     *string         `gorm:"column:gateway_token;size:255" json:"gateway_token,omitempty"`
	TransactionID    *string         `gorm:"column:transaction_id;size:255" json:"transaction_id,omitempty"`
	DeclineCode      *string         `gorm:"size:100" json:"decline_code,omitempty"`
	CardLastFour     *string         `gorm:"size:4" json:"card_last_four,omitempty"`
	IdempotencyKey   string          `gorm:"column:idempotency_key;size:255;not null;uniqueIndex" json:"idempotency_key"`
	GatewayResponse  JSONB           `gorm:"column:gateway_response;type:jsonb" json:"gateway_response,omitempty"`
	RefundedAt       *time.Time      `json:"refunded_at,omitempty"`
	CreatedAt        time.Time       `gorm:"default:now()" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Payment) TableName() string {
	return "payments"
}
