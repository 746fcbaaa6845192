// Package north implements the PaymentGateway interface against North's
// transaction API. All failure modes are normalized into result values;
// callers never see an error from a charge, refund or void.
package north

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/muk2/SagaApi/internal/config"
	"github.com/muk2/SagaApi/internal/domain/gateway"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const defaultTimeout = 30 * time.Second

// Client talks to North's payment gateway. Merchant credentials are held
// privately and must never appear in logs; only transaction identifiers,
// approval booleans and amounts are logged.
type Client struct {
	merchantID   string
	developerKey string
	password     string
	baseURL      string
	timeout      time.Duration
	httpClient   *http.Client
	logger       *zap.Logger
}

// NewClient creates a gateway client. A trailing slash on the configured
// base URL is stripped so endpoint paths concatenate correctly.
func NewClient(cfg config.GatewayConfig, logger *zap.Logger) *Client {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	return &Client{
		merchantID:   cfg.MerchantID,
		developerKey: cfg.DeveloperKey,
		password:     cfg.Password,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		timeout:      timeout,
		httpClient:   &http.Client{Timeout: timeout},
		logger:       logger,
	}
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Charge executes a one-time sale using a North card token.
func (c *Client) Charge(ctx context.Context, token string, amount decimal.Decimal, currency string) gateway.ChargeResult {
	payload := map[string]interface{}{
		"type":     "sale",
		"token":    token,
		"amount":   amount.String(),
		"currency": currency,
		"mid":      c.merchantID,
		"password": c.password,
	}

	data, err := c.post(ctx, "/transactions/charge", payload)
	if err != nil {
		if isTimeout(err) {
			c.logger.Error("North charge timeout", zap.String("amount", amount.String()))
			return gateway.ChargeResult{
				Approved:    false,
				DeclineCode: gateway.DeclineCodeTimeout,
				RawResponse: map[string]interface{}{"error": "Request timed out"},
			}
		}
		c.logger.Error("North charge network error", zap.String("amount", amount.String()))
		return gateway.ChargeResult{
			Approved:    false,
			DeclineCode: gateway.DeclineCodeNetworkError,
			RawResponse: map[string]interface{}{"error": err.Error()},
		}
	}

	approved := isApproved(data)

	// Log without sensitive data
	c.logger.Info("North charge",
		zap.Bool("approved", approved),
		zap.String("transaction_id", getString(data, "transaction_id")),
		zap.String("amount", amount.String()))

	result := gateway.ChargeResult{
		Approved:      approved,
		TransactionID: getString(data, "transaction_id"),
		Token:         getString(data, "token"),
		CardLastFour:  getString(data, "card_last_four"),
		RawResponse:   data,
	}
	if !approved {
		result.DeclineCode = getString(data, "decline_code")
	}
	return result
}

// Refund refunds a previous transaction using its stored gateway token.
func (c *Client) Refund(ctx context.Context, gatewayToken string, amount decimal.Decimal) gateway.RefundResult {
	payload := map[string]interface{}{
		"type":     "refund",
		"token":    gatewayToken,
		"amount":   amount.String(),
		"mid":      c.merchantID,
		"password": c.password,
	}

	data, err := c.post(ctx, "/transactions/refund", payload)
	if err != nil {
		if isTimeout(err) {
			c.logger.Error("North refund timeout", zap.String("amount", amount.String()))
			return gateway.RefundResult{
				Approved:    false,
				RawResponse: map[string]interface{}{"error": "Request timed out"},
			}
		}
		c.logger.Error("North refund network error", zap.String("amount", amount.String()))
		return gateway.RefundResult{
			Approved:    false,
			RawResponse: map[string]interface{}{"error": err.Error()},
		}
	}

	approved := isApproved(data)

	c.logger.Info("North refund",
		zap.Bool("approved", approved),
		zap.String("transaction_id", getString(data, "transaction_id")),
		zap.String("amount", amount.String()))

	return gateway.RefundResult{
		Approved:      approved,
		TransactionID: getString(data, "transaction_id"),
		RawResponse:   data,
	}
}

// Void voids a same-day transaction.
func (c *Client) Void(ctx context.Context, gatewayToken string) gateway.VoidResult {
	payload := map[string]interface{}{
		"type":     "void",
		"token":    gatewayToken,
		"mid":      c.merchantID,
		"password": c.password,
	}

	data, err := c.post(ctx, "/transactions/void", payload)
	if err != nil {
		if isTimeout(err) {
			c.logger.Error("North void timeout")
			return gateway.VoidResult{
				Approved:    false,
				RawResponse: map[string]interface{}{"error": "Request timed out"},
			}
		}
		c.logger.Error("North void network error")
		return gateway.VoidResult{
			Approved:    false,
			RawResponse: map[string]interface{}{"error": err.Error()},
		}
	}

	approved := isApproved(data)

	c.logger.Info("North void",
		zap.Bool("approved", approved),
		zap.String("transaction_id", getString(data, "transaction_id")))

	return gateway.VoidResult{
		Approved:      approved,
		TransactionID: getString(data, "transaction_id"),
		RawResponse:   data,
	}
}

// post sends a JSON request and decodes the JSON response body. The
// response is decoded regardless of HTTP status; the gateway reports
// declines in the body, not the status line.
func (c *Client) post(ctx context.Context, path string, payload map[string]interface{}) (map[string]interface{}, error) {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-MID", c.merchantID)
	req.Header.Set("X-Developer-Key", c.developerKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var data map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return data, nil
}

// isApproved checks both approval representations the gateway is known to
// return: an explicit approved flag or status == "approved".
func isApproved(data map[string]interface{}) bool {
	if approved, ok := data["approved"].(bool); ok && approved {
		return true
	}
	return getString(data, "status") == "approved"
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func getString(data map[string]interface{}, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}
