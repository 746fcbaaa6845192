package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/muk2/SagaApi/internal/domain/entity"
	domainErrors "github.com/muk2/SagaApi/internal/domain/errors"
	"github.com/muk2/SagaApi/internal/domain/gateway"
	domainMail "github.com/muk2/SagaApi/internal/domain/mail"
	"github.com/muk2/SagaApi/internal/domain/messaging"
	"github.com/muk2/SagaApi/internal/domain/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ChargeRequest describes a single logical charge. The idempotency key is
// chosen by the caller before the attempt; retrying with the same key
// returns the stored outcome instead of contacting the gateway again.
type ChargeRequest struct {
	CardToken        string
	Amount           decimal.Decimal
	Currency         string
	IdempotencyKey   string
	PaymentType      entity.PaymentType
	SubjectReference string
	Receipt          ReceiptDetails
}

// ReceiptDetails carries the fields needed to render the payer's receipt.
type ReceiptDetails struct {
	Email          string
	EventName      string
	EventDate      string
	RegistrationID int64
	TierName       string
	SeasonYear     int
}

// PaymentService orchestrates the charge/refund/void workflow around the
// gateway, the payment store, receipt email and event publishing.
type PaymentService struct {
	repo      repository.PaymentRepository
	gateway   gateway.PaymentGateway
	mailer    domainMail.ReceiptMailer
	publisher messaging.EventPublisher
	logger    *zap.Logger

	receiptWg sync.WaitGroup
}

func NewPaymentService(
	repo repository.PaymentRepository,
	gw gateway.PaymentGateway,
	mailer domainMail.ReceiptMailer,
	publisher messaging.EventPublisher,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		repo:      repo,
		gateway:   gw,
		mailer:    mailer,
		publisher: publisher,
		logger:    logger,
	}
}

// Charge runs one payment attempt through the state machine:
//
//	[no record] -> pending -> approved | declined | error
//
// The returned bool reports an idempotent replay: the stored record was
// returned without a second gateway call.
func (s *PaymentService) Charge(ctx context.Context, req ChargeRequest) (*entity.Payment, bool, error) {
	if req.IdempotencyKey == "" {
		return nil, false, errors.New("idempotency key is required")
	}
	if !req.Amount.IsPositive() {
		return nil, false, errors.New("invalid payment amount")
	}
	if req.Currency == "" {
		return nil, false, errors.New("currency is required")
	}
	if req.CardToken == "" {
		return nil, false, errors.New("card token is required")
	}

	existing, err := s.repo.GetByIdempotencyKey(ctx, req.IdempotencyKey)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return s.replay(existing)
	}

	payment := &entity.Payment{
		PaymentType:      req.PaymentType,
		SubjectReference: req.SubjectReference,
		Amount:           req.Amount,
		Currency:         req.Currency,
		IdempotencyKey:   req.IdempotencyKey,
	}

	if err := s.repo.CreatePending(ctx, payment); err != nil {
		if errors.Is(err, domainErrors.ErrDuplicateIdempotencyKey) {
			// Lost the insert race to a concurrent duplicate submission.
			winner, fetchErr := s.repo.GetByIdempotencyKey(ctx, req.IdempotencyKey)
			if fetchErr != nil {
				return nil, false, fetchErr
			}
			if winner == nil {
				return nil, false, domainErrors.ErrChargeInProgress
			}
			return s.replay(winner)
		}
		return nil, false, err
	}

	result := s.gateway.Charge(ctx, req.CardToken, req.Amount, req.Currency)

	chargeErr := s.applyChargeResult(payment, result)

	if err := s.repo.UpdateOutcome(ctx, payment); err != nil {
		// The gateway outcome is known but not recorded. Surface the
		// storage failure; the transaction ID in the log is the support
		// trail for reconciliation.
		s.logger.Error("Failed to persist charge outcome",
			zap.Int64("payment_id", payment.ID),
			zap.String("status", string(payment.Status)),
			zap.String("transaction_id", payment.TransactionID),
			zap.Error(err))
		return nil, false, err
	}

	s.publishEvent(ctx, payment)

	// Receipt goes out only after the approved outcome is persisted, and
	// its result never affects the charge response.
	if payment.Status == entity.PaymentStatusApproved {
		s.dispatchReceipt(payment, req.Receipt)
	}

	return payment, false, chargeErr
}

// replay returns the stored outcome for a repeated idempotency key.
func (s *PaymentService) replay(p *entity.Payment) (*entity.Payment, bool, error) {
	if !p.Status.IsTerminal() {
		return nil, false, domainErrors.ErrChargeInProgress
	}

	s.logger.Info("Idempotent replay, returning stored outcome",
		zap.Int64("payment_id", p.ID),
		zap.String("status", string(p.Status)))
	return p, true, nil
}

// applyChargeResult maps a normalized gateway result onto the payment and
// returns the caller-facing error for non-approved outcomes.
func (s *PaymentService) applyChargeResult(payment *entity.Payment, result gateway.ChargeResult) error {
	payment.TransactionID = result.TransactionID
	payment.GatewayToken = result.Token
	payment.CardLastFour = result.CardLastFour
	payment.GatewayResponse = result.RawResponse

	if result.Approved {
		payment.Status = entity.PaymentStatusApproved
		return nil
	}

	payment.DeclineCode = result.DeclineCode

	switch result.DeclineCode {
	case gateway.DeclineCodeTimeout:
		payment.Status = entity.PaymentStatusError
		return domainErrors.ErrGatewayTimeout
	case gateway.DeclineCodeNetworkError:
		payment.Status = entity.PaymentStatusError
		return domainErrors.ErrGatewayUnavailable
	default:
		payment.Status = entity.PaymentStatusDeclined
		return domainErrors.ErrCardDeclined
	}
}

// Refund refunds an approved payment in full. On gateway approval the
// record transitions approved -> refunded.
func (s *PaymentService) Refund(ctx context.Context, paymentID int64) (*entity.Payment, error) {
	payment, err := s.repo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status != entity.PaymentStatusApproved || payment.GatewayToken == "" {
		return nil, domainErrors.ErrNotRefundable
	}

	result := s.gateway.Refund(ctx, payment.GatewayToken, payment.Amount)
	if !result.Approved {
		return nil, classifyFailure(result.RawResponse, domainErrors.ErrRefundDeclined)
	}

	now := time.Now()
	payment.Status = entity.PaymentStatusRefunded
	payment.RefundedAt = &now
	payment.GatewayResponse = result.RawResponse
	if result.TransactionID != "" {
		payment.TransactionID = result.TransactionID
	}

	if err := s.repo.UpdateOutcome(ctx, payment); err != nil {
		s.logger.Error("Failed to persist refund",
			zap.Int64("payment_id", payment.ID),
			zap.String("transaction_id", payment.TransactionID),
			zap.Error(err))
		return nil, err
	}

	s.publishEvent(ctx, payment)
	return payment, nil
}

// Void voids an approved same-day payment. On gateway approval the record
// transitions approved -> voided.
func (s *PaymentService) Void(ctx context.Context, paymentID int64) (*entity.Payment, error) {
	payment, err := s.repo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status != entity.PaymentStatusApproved || payment.GatewayToken == "" {
		return nil, domainErrors.ErrNotVoidable
	}

	result := s.gateway.Void(ctx, payment.GatewayToken)
	if !result.Approved {
		return nil, classifyFailure(result.RawResponse, domainErrors.ErrVoidDeclined)
	}

	payment.Status = entity.PaymentStatusVoided
	payment.GatewayResponse = result.RawResponse
	if result.TransactionID != "" {
		payment.TransactionID = result.TransactionID
	}

	if err := s.repo.UpdateOutcome(ctx, payment); err != nil {
		s.logger.Error("Failed to persist void",
			zap.Int64("payment_id", payment.ID),
			zap.String("transaction_id", payment.TransactionID),
			zap.Error(err))
		return nil, err
	}

	s.publishEvent(ctx, payment)
	return payment, nil
}

// GetPayment fetches a single payment record.
func (s *PaymentService) GetPayment(ctx context.Context, id int64) (*entity.Payment, error) {
	return s.repo.GetByID(ctx, id)
}

// GetPaymentsBySubject returns every charge attempt recorded against one
// subject reference (an event registration or membership), newest first.
func (s *PaymentService) GetPaymentsBySubject(ctx context.Context, subject string) ([]*entity.Payment, error) {
	return s.repo.GetBySubjectReference(ctx, subject)
}

// ListPayments returns recent payment records for admin review, including
// declined and errored attempts.
func (s *PaymentService) ListPayments(ctx context.Context, limit, offset int) ([]*entity.Payment, error) {
	if limit < 1 {
		limit = 20
	} else if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, limit, offset)
}

// classifyFailure distinguishes transient gateway failures from actual
// declines on refund/void results, which carry no decline code.
func classifyFailure(raw map[string]interface{}, declined error) error {
	msg, _ := raw["error"].(string)
	if msg == "" {
		return declined
	}
	if strings.Contains(strings.ToLower(msg), "timed out") {
		return domainErrors.ErrGatewayTimeout
	}
	return domainErrors.ErrGatewayUnavailable
}

func (s *PaymentService) dispatchReceipt(payment *entity.Payment, details ReceiptDetails) {
	if details.Email == "" {
		return
	}

	p := *payment
	s.receiptWg.Add(1)
	go func() {
		defer s.receiptWg.Done()

		var sent bool
		switch p.PaymentType {
		case entity.PaymentTypeMembership:
			sent = s.mailer.SendMembershipReceipt(domainMail.MembershipReceipt{
				To:           details.Email,
				TierName:     details.TierName,
				SeasonYear:   details.SeasonYear,
				Amount:       p.Amount,
				CardLastFour: p.CardLastFour,
			})
		default:
			registrationID := details.RegistrationID
			if registrationID == 0 {
				registrationID = p.ID
			}
			sent = s.mailer.SendRegistrationReceipt(domainMail.RegistrationReceipt{
				To:             details.Email,
				EventName:      details.EventName,
				EventDate:      details.EventDate,
				Amount:         p.Amount,
				CardLastFour:   p.CardLastFour,
				RegistrationID: registrationID,
			})
		}

		if !sent {
			s.logger.Error("Receipt email not delivered",
				zap.Int64("payment_id", p.ID),
				zap.String("payment_type", string(p.PaymentType)))
		}
	}()
}

// publishEvent publishes the payment's terminal state. Best-effort: a
// publish failure is logged and otherwise ignored.
func (s *PaymentService) publishEvent(ctx context.Context, payment *entity.Payment) {
	if s.publisher == nil {
		return
	}

	var eventType string
	switch payment.Status {
	case entity.PaymentStatusApproved:
		eventType = messaging.EventPaymentApproved
	case entity.PaymentStatusDeclined, entity.PaymentStatusError:
		eventType = messaging.EventPaymentDeclined
	case entity.PaymentStatusRefunded:
		eventType = messaging.EventPaymentRefunded
	case entity.PaymentStatusVoided:
		eventType = messaging.EventPaymentVoided
	default:
		return
	}

	event := messaging.PaymentEvent{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		PaymentID:     payment.ID,
		PaymentType:   string(payment.PaymentType),
		Subject:       payment.SubjectReference,
		Amount:        payment.Amount.String(),
		Currency:      payment.Currency,
		Status:        string(payment.Status),
		TransactionID: payment.TransactionID,
		OccurredAt:    time.Now(),
	}

	if err := s.publisher.PublishPaymentEvent(ctx, event); err != nil {
		s.logger.Warn("Payment event not published",
			zap.Int64("payment_id", payment.ID),
			zap.String("event_type", eventType))
	}
}

// WaitForReceipts blocks until in-flight receipt sends finish. Used on
// shutdown so pending receipts are not dropped.
func (s *PaymentService) WaitForReceipts() {
	s.receiptWg.Wait()
}
