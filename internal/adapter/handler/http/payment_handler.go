package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/muk2/SagaApi/internal/domain/entity"
	domainErrors "github.com/muk2/SagaApi/internal/domain/errors"
	"github.com/muk2/SagaApi/internal/middleware/auth"
	"github.com/muk2/SagaApi/internal/usecase"
	pkgErrors "github.com/muk2/SagaApi/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	service  *usecase.PaymentService
	validate *validator.Validate
	logger   *zap.Logger
}

func NewPaymentHandler(service *usecase.PaymentService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		service:  service,
		validate: validator.New(),
		logger:   logger,
	}
}

type chargeRequest struct {
	CardToken        string          `json:"card_token" validate:"required"`
	Amount           decimal.Decimal `json:"amount" validate:"required"`
	Currency         string          `json:"currency"`
	IdempotencyKey   string          `json:"idempotency_key" validate:"required"`
	PaymentType      string          `json:"payment_type" validate:"required,oneof=event_registration membership"`
	SubjectReference string          `json:"subject_reference" validate:"required"`
	Receipt          receiptRequest  `json:"receipt"`
}

type receiptRequest struct {
	Email          string `json:"email" validate:"omitempty,email"`
	EventName      string `json:"event_name"`
	EventDate      string `json:"event_date"`
	RegistrationID int64  `json:"registration_id"`
	TierName       string `json:"tier_name"`
	SeasonYear     int    `json:"season_year"`
}

// Charge handles POST /api/v1/payments/charge.
func (h *PaymentHandler) Charge(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}

	var req chargeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request body",
		})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": err.Error(),
		})
	}

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	h.logger.Info("Charge requested",
		zap.String("user_id", user.UserID),
		zap.String("payment_type", req.PaymentType),
		zap.String("subject_reference", req.SubjectReference),
		zap.String("amount", req.Amount.String()))

	payment, replayed, err := h.service.Charge(c.Request().Context(), usecase.ChargeRequest{
		CardToken:        req.CardToken,
		Amount:           req.Amount,
		Currency:         currency,
		IdempotencyKey:   req.IdempotencyKey,
		PaymentType:      entity.PaymentType(req.PaymentType),
		SubjectReference: req.SubjectReference,
		Receipt: usecase.ReceiptDetails{
			Email:          req.Receipt.Email,
			EventName:      req.Receipt.EventName,
			EventDate:      req.Receipt.EventDate,
			RegistrationID: req.Receipt.RegistrationID,
			TierName:       req.Receipt.TierName,
			SeasonYear:     req.Receipt.SeasonYear,
		},
	})

	if err != nil {
		return h.chargeError(c, payment, err)
	}

	if replayed {
		return c.JSON(http.StatusOK, payment)
	}
	return c.JSON(http.StatusCreated, payment)
}

// chargeError translates workflow errors into responses. A declined card is
// user-actionable; a gateway timeout or network error is transient and safe
// to retry with the same idempotency key.
func (h *PaymentHandler) chargeError(c echo.Context, payment *entity.Payment, err error) error {
	switch {
	case errors.Is(err, domainErrors.ErrCardDeclined):
		resp := echo.Map{
			"error": "Card declined",
			"code":  "CARD_DECLINED",
		}
		if payment != nil && payment.DeclineCode != "" {
			resp["decline_code"] = payment.DeclineCode
		}
		return c.JSON(http.StatusPaymentRequired, resp)
	case errors.Is(err, domainErrors.ErrGatewayTimeout):
		return c.JSON(http.StatusGatewayTimeout, echo.Map{
			"error": "Payment gateway timed out, please retry",
			"code":  "GATEWAY_TIMEOUT",
		})
	case errors.Is(err, domainErrors.ErrGatewayUnavailable):
		return c.JSON(http.StatusBadGateway, echo.Map{
			"error": "Payment gateway unreachable, please retry",
			"code":  "GATEWAY_UNAVAILABLE",
		})
	case errors.Is(err, domainErrors.ErrChargeInProgress):
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "A charge with this idempotency key is already in progress",
			"code":  "CHARGE_IN_PROGRESS",
		})
	default:
		pkgErrors.LogError(h.logger, err, "Charge failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to process payment",
		})
	}
}

// GetPayment handles GET /api/v1/payments/:id.
func (h *PaymentHandler) GetPayment(c echo.Context) error {
	if _, err := auth.RequireAuth(c); err != nil {
		return err
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid payment ID",
		})
	}

	payment, err := h.service.GetPayment(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, domainErrors.ErrPaymentNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{
				"error": "Payment not found",
			})
		}
		h.logger.Error("Failed to get payment", zap.Int64("payment_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to get payment",
		})
	}

	return c.JSON(http.StatusOK, payment)
}
