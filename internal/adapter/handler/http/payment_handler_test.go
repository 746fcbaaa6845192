package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/muk2/SagaApi/internal/domain/entity"
	domainErrors "github.com/muk2/SagaApi/internal/domain/errors"
	"github.com/muk2/SagaApi/internal/domain/gateway"
	domainMail "github.com/muk2/SagaApi/internal/domain/mail"
	"github.com/muk2/SagaApi/internal/middleware/auth"
	"github.com/muk2/SagaApi/internal/usecase"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubRepo is an in-memory PaymentRepository for handler tests.
type stubRepo struct {
	byKey  map[string]*entity.Payment
	byID   map[int64]*entity.Payment
	nextID int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		byKey:  map[string]*entity.Payment{},
		byID:   map[int64]*entity.Payment{},
		nextID: 1,
	}
}

func (r *stubRepo) CreatePending(_ context.Context, p *entity.Payment) error {
	if _, exists := r.byKey[p.IdempotencyKey]; exists {
		return domainErrors.ErrDuplicateIdempotencyKey
	}
	p.ID = r.nextID
	r.nextID++
	p.Status = entity.PaymentStatusPending
	r.byKey[p.IdempotencyKey] = p
	r.byID[p.ID] = p
	return nil
}

func (r *stubRepo) GetByID(_ context.Context, id int64) (*entity.Payment, error) {
	p, ok := r.byID[id]
	if !ok {
		return nil, domainErrors.ErrPaymentNotFound
	}
	return p, nil
}

func (r *stubRepo) GetByIdempotencyKey(_ context.Context, key string) (*entity.Payment, error) {
	return r.byKey[key], nil
}

func (r *stubRepo) GetBySubjectReference(_ context.Context, subject string) ([]*entity.Payment, error) {
	var out []*entity.Payment
	for _, p := range r.byID {
		if p.SubjectReference == subject {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *stubRepo) UpdateOutcome(_ context.Context, p *entity.Payment) error {
	if _, ok := r.byID[p.ID]; !ok {
		return domainErrors.ErrPaymentNotFound
	}
	r.byID[p.ID] = p
	r.byKey[p.IdempotencyKey] = p
	return nil
}

func (r *stubRepo) List(_ context.Context, limit, offset int) ([]*entity.Payment, error) {
	var out []*entity.Payment
	for _, p := range r.byID {
		out = append(out, p)
	}
	return out, nil
}

// stubGateway returns a canned result for every call.
type stubGateway struct {
	charge gateway.ChargeResult
	refund gateway.RefundResult
	void   gateway.VoidResult
}

func (g *stubGateway) Charge(context.Context, string, decimal.Decimal, string) gateway.ChargeResult {
	return g.charge
}

func (g *stubGateway) Refund(context.Context, string, decimal.Decimal) gateway.RefundResult {
	return g.refund
}

func (g *stubGateway) Void(context.Context, string) gateway.VoidResult {
	return g.void
}

type stubMailer struct{}

func (stubMailer) SendRegistrationReceipt(domainMail.RegistrationReceipt) bool { return true }
func (stubMailer) SendMembershipReceipt(domainMail.MembershipReceipt) bool     { return true }

func newHandler(gw *stubGateway) (*PaymentHandler, *usecase.PaymentService, *stubRepo) {
	repo := newStubRepo()
	svc := usecase.NewPaymentService(repo, gw, stubMailer{}, nil, zap.NewNop())
	return NewPaymentHandler(svc, zap.NewNop()), svc, repo
}

func chargeBody() string {
	return `{
		"card_token": "card-token-abc",
		"amount": "75.00",
		"idempotency_key": "idem-1",
		"payment_type": "event_registration",
		"subject_reference": "event:42",
		"receipt": {"email": "member@example.org", "event_name": "Spring Open", "event_date": "2026-04-18"}
	}`
}

func doCharge(t *testing.T, h *PaymentHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/charge", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("authenticated_user", auth.AuthUser{UserID: "user-1", Email: "member@example.org", Role: "member"})
	require.NoError(t, h.Charge(c))
	return rec
}

func TestChargeHandler_Approved(t *testing.T) {
	h, svc, _ := newHandler(&stubGateway{charge: gateway.ChargeResult{
		Approved:      true,
		TransactionID: "txn-001",
		Token:         "gw-token-001",
		CardLastFour:  "4242",
	}})

	rec := doCharge(t, h, chargeBody())
	svc.WaitForReceipts()

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"approved"`)
	assert.Contains(t, rec.Body.String(), `"transaction_id":"txn-001"`)
	// Tokens and raw gateway data never leave the API.
	assert.NotContains(t, rec.Body.String(), "gw-token-001")
}

func TestChargeHandler_Replay(t *testing.T) {
	h, svc, _ := newHandler(&stubGateway{charge: gateway.ChargeResult{
		Approved:      true,
		TransactionID: "txn-001",
		Token:         "gw-token-001",
	}})

	first := doCharge(t, h, chargeBody())
	svc.WaitForReceipts()
	assert.Equal(t, http.StatusCreated, first.Code)

	second := doCharge(t, h, chargeBody())
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Contains(t, second.Body.String(), `"transaction_id":"txn-001"`)
}

func TestChargeHandler_Declined(t *testing.T) {
	h, _, _ := newHandler(&stubGateway{charge: gateway.ChargeResult{
		Approved:    false,
		DeclineCode: "INSUFFICIENT_FUNDS",
	}})

	rec := doCharge(t, h, chargeBody())

	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Contains(t, rec.Body.String(), "CARD_DECLINED")
	assert.Contains(t, rec.Body.String(), "INSUFFICIENT_FUNDS")
}

func TestChargeHandler_GatewayTimeout(t *testing.T) {
	h, _, _ := newHandler(&stubGateway{charge: gateway.ChargeResult{
		Approved:    false,
		DeclineCode: gateway.DeclineCodeTimeout,
		RawResponse: map[string]interface{}{"error": "Request timed out"},
	}})

	rec := doCharge(t, h, chargeBody())

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Contains(t, rec.Body.String(), "GATEWAY_TIMEOUT")
}

func TestChargeHandler_GatewayUnavailable(t *testing.T) {
	h, _, _ := newHandler(&stubGateway{charge: gateway.ChargeResult{
		Approved:    false,
		DeclineCode: gateway.DeclineCodeNetworkError,
		RawResponse: map[string]interface{}{"error": "connection refused"},
	}})

	rec := doCharge(t, h, chargeBody())

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "GATEWAY_UNAVAILABLE")
}

func TestChargeHandler_Unauthenticated(t *testing.T) {
	h, _, _ := newHandler(&stubGateway{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/charge", strings.NewReader(chargeBody()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.Charge(c)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestChargeHandler_InvalidBody(t *testing.T) {
	h, _, _ := newHandler(&stubGateway{})

	tests := []struct {
		name string
		body string
	}{
		{"not json", "not-json"},
		{"missing card token", `{"amount":"10","idempotency_key":"k","payment_type":"membership","subject_reference":"m:1"}`},
		{"bad payment type", `{"card_token":"t","amount":"10","idempotency_key":"k","payment_type":"donation","subject_reference":"d:1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doCharge(t, h, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestGetPaymentHandler(t *testing.T) {
	h, svc, _ := newHandler(&stubGateway{charge: gateway.ChargeResult{
		Approved:      true,
		TransactionID: "txn-001",
	}})

	rec := doCharge(t, h, chargeBody())
	svc.WaitForReceipts()
	require.Equal(t, http.StatusCreated, rec.Code)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/1", nil)
	getRec := httptest.NewRecorder()
	c := e.NewContext(req, getRec)
	c.SetParamNames("id")
	c.SetParamValues("1")
	c.Set("authenticated_user", auth.AuthUser{UserID: "user-1", Role: "member"})

	require.NoError(t, h.GetPayment(c))
	assert.Equal(t, http.StatusOK, getRec.Code)
	assert.Contains(t, getRec.Body.String(), `"transaction_id":"txn-001"`)
}

func TestGetPaymentHandler_NotFound(t *testing.T) {
	h, _, _ := newHandler(&stubGateway{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/999", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("999")
	c.Set("authenticated_user", auth.AuthUser{UserID: "user-1", Role: "member"})

	require.NoError(t, h.GetPayment(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
