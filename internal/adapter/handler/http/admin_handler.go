package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	domainErrors "github.com/muk2/SagaApi/internal/domain/errors"
	"github.com/muk2/SagaApi/internal/usecase"
	"go.uber.org/zap"
)

// AdminPaymentHandler exposes the admin-only refund/void and review
// endpoints. Routes are mounted behind the admin role middleware.
type AdminPaymentHandler struct {
	service *usecase.PaymentService
	logger  *zap.Logger
}

func NewAdminPaymentHandler(service *usecase.PaymentService, logger *zap.Logger) *AdminPaymentHandler {
	return &AdminPaymentHandler{
		service: service,
		logger:  logger,
	}
}

// ListPayments handles GET /api/v1/payments. Failed attempts are included
// so support staff can see declined and errored charges. A subject_reference
// query param narrows the result to one registration or membership.
func (h *AdminPaymentHandler) ListPayments(c echo.Context) error {
	if subject := c.QueryParam("subject_reference"); subject != "" {
		payments, err := h.service.GetPaymentsBySubject(c.Request().Context(), subject)
		if err != nil {
			h.logger.Error("Failed to list payments by subject",
				zap.String("subject_reference", subject),
				zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"error": "Failed to list payments",
			})
		}
		return c.JSON(http.StatusOK, echo.Map{
			"payments": payments,
		})
	}

	limit := 20
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "Invalid limit parameter",
			})
		}
		limit = parsed
	}

	offset := 0
	if offsetStr := c.QueryParam("offset"); offsetStr != "" {
		parsed, err := strconv.Atoi(offsetStr)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "Invalid offset parameter",
			})
		}
		offset = parsed
	}

	payments, err := h.service.ListPayments(c.Request().Context(), limit, offset)
	if err != nil {
		h.logger.Error("Failed to list payments", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to list payments",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"payments": payments,
	})
}

// RefundPayment handles POST /api/v1/admin/payments/:id/refund.
func (h *AdminPaymentHandler) RefundPayment(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid payment ID",
		})
	}

	payment, err := h.service.Refund(c.Request().Context(), id)
	if err != nil {
		return h.adminError(c, id, "refund", err)
	}

	h.logger.Info("Payment refunded",
		zap.Int64("payment_id", payment.ID),
		zap.String("transaction_id", payment.TransactionID))
	return c.JSON(http.StatusOK, payment)
}

// VoidPayment handles POST /api/v1/admin/payments/:id/void.
func (h *AdminPaymentHandler) VoidPayment(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid payment ID",
		})
	}

	payment, err := h.service.Void(c.Request().Context(), id)
	if err != nil {
		return h.adminError(c, id, "void", err)
	}

	h.logger.Info("Payment voided",
		zap.Int64("payment_id", payment.ID),
		zap.String("transaction_id", payment.TransactionID))
	return c.JSON(http.StatusOK, payment)
}

func (h *AdminPaymentHandler) adminError(c echo.Context, id int64, op string, err error) error {
	switch {
	case errors.Is(err, domainErrors.ErrPaymentNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Payment not found",
		})
	case errors.Is(err, domainErrors.ErrNotRefundable), errors.Is(err, domainErrors.ErrNotVoidable):
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "Payment is not in a refundable or voidable state",
		})
	case errors.Is(err, domainErrors.ErrRefundDeclined), errors.Is(err, domainErrors.ErrVoidDeclined):
		return c.JSON(http.StatusPaymentRequired, echo.Map{
			"error": "Gateway declined the " + op,
		})
	case errors.Is(err, domainErrors.ErrGatewayTimeout):
		return c.JSON(http.StatusGatewayTimeout, echo.Map{
			"error": "Payment gateway timed out, please retry",
		})
	case errors.Is(err, domainErrors.ErrGatewayUnavailable):
		return c.JSON(http.StatusBadGateway, echo.Map{
			"error": "Payment gateway unreachable, please retry",
		})
	default:
		h.logger.Error("Admin payment operation failed",
			zap.Int64("payment_id", id),
			zap.String("operation", op),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Operation failed",
		})
	}
}
