package errors

import "github.com/muk2/SagaApi/pkg/errors"

// Workflow sentinels. Each carries a stable code so transport layers can map
// it to a status without string matching.
var (
	// ErrPaymentNotFound indicates that the requested payment record does not exist
	ErrPaymentNotFound = errors.NewAppError(errors.ErrNotFound, "payment not found", nil)

	// ErrCardDeclined indicates that the gateway rejected the charge
	ErrCardDeclined = errors.NewAppError(errors.ErrDeclined, "card declined", nil)

	// ErrGatewayTimeout indicates that the gateway did not respond within the configured timeout
	ErrGatewayTimeout = errors.NewAppError(errors.ErrTimeout, "payment gateway timed out", nil)

	// ErrGatewayUnavailable indicates a network-level failure reaching the gateway
	ErrGatewayUnavailable = errors.NewAppError(errors.ErrUnavailable, "payment gateway unreachable", nil)

	// ErrDuplicateIdempotencyKey indicates a concurrent insert with the same idempotency key
	ErrDuplicateIdempotencyKey = errors.NewAppError(errors.ErrConflict, "duplicate idempotency key", nil)

	// ErrChargeInProgress indicates another charge attempt with the same key has not finished
	ErrChargeInProgress = errors.NewAppError(errors.ErrConflict, "charge already in progress for this idempotency key", nil)

	// ErrNotRefundable indicates the payment is not in a refundable state
	ErrNotRefundable = errors.NewAppError(errors.ErrConflict, "payment is not refundable", nil)

	// ErrNotVoidable indicates the payment is not in a voidable state
	ErrNotVoidable = errors.NewAppError(errors.ErrConflict, "payment is not voidable", nil)

	// ErrRefundDeclined indicates the gateway rejected the refund
	ErrRefundDeclined = errors.NewAppError(errors.ErrDeclined, "refund declined by gateway", nil)

	// ErrVoidDeclined indicates the gateway rejected the void
	ErrVoidDeclined = errors.NewAppError(errors.ErrDeclined, "void declined by gateway", nil)
)
