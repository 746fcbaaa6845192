package gateway

import (
	"context"

	"github.com/shopspring/decimal"
)

// Decline codes synthesized by the client for network-level failures. The
// gateway itself returns its own decline codes for rejected cards.
const (
	DeclineCodeTimeout      = "TIMEOUT"
	DeclineCodeNetworkError = "NETWORK_ERROR"
)

// PaymentGateway is the card processor interface. Implementations never
// return errors: every failure mode, including network failures, is
// represented in the result value.
type PaymentGateway interface {
	// Charge executes a one-time sale using a pre-tokenized card reference.
	Charge(ctx context.Context, token string, amount decimal.Decimal, currency string) ChargeResult

	// Refund refunds a previous transaction using its stored gateway token.
	Refund(ctx context.Context, gatewayToken string, amount decimal.Decimal) RefundResult

	// Void voids a same-day transaction. The same-day restriction is
	// enforced by the gateway, not the client.
	Void(ctx context.Context, gatewayToken string) VoidResult
}

// ChargeResult is the normalized outcome of a charge attempt.
type ChargeResult struct {
	Approved      bool
	TransactionID string
	// Token is a reusable gateway token for later refund/void.
	Token        string
	DeclineCode  string
	CardLastFour string
	RawResponse  map[string]interface{}
}

// RefundResult is the normalized outcome of a refund attempt.
type RefundResult struct {
	Approved      bool
	TransactionID string
	RawResponse   map[string]interface{}
}

// VoidResult is the normalized outcome of a void attempt.
type VoidResult struct {
	Approved      bool
	TransactionID string
	RawResponse   map[string]interface{}
}
