package north

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/muk2/SagaApi/internal/config"
	"github.com/muk2/SagaApi/internal/domain/gateway"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const (
	testMerchantID   = "test-mid-123"
	testDeveloperKey = "test-dev-key-456"
	testPassword     = "test-password-789"
)

func testClient(baseURL string, timeoutSeconds int) *Client {
	return NewClient(config.GatewayConfig{
		MerchantID:     testMerchantID,
		DeveloperKey:   testDeveloperKey,
		Password:       testPassword,
		BaseURL:        baseURL,
		TimeoutSeconds: timeoutSeconds,
	}, zap.NewNop())
}

func TestNewClient_BaseURLNormalization(t *testing.T) {
	tests := []struct {
		name     string
		baseURL  string
		expected string
	}{
		{
			name:     "trailing slash stripped",
			baseURL:  "https://api.x.com/v1/",
			expected: "https://api.x.com/v1",
		},
		{
			name:     "no trailing slash unchanged",
			baseURL:  "https://api.x.com/v1",
			expected: "https://api.x.com/v1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := testClient(tt.baseURL, 10)
			assert.Equal(t, tt.expected, client.BaseURL())
		})
	}
}

func TestCharge_Approved(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transactions/charge", r.URL.Path)
		assert.Equal(t, testMerchantID, r.Header.Get("X-MID"))
		assert.Equal(t, testDeveloperKey, r.Header.Get("X-Developer-Key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "sale", payload["type"])
		assert.Equal(t, "card-token-xyz", payload["token"])
		assert.Equal(t, "49.99", payload["amount"])
		assert.Equal(t, "USD", payload["currency"])

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"approved":       true,
			"transaction_id": "txn-001",
			"token":          "reuse-token-abc",
			"card_last_four": "4242",
		})
	}))
	defer server.Close()

	client := testClient(server.URL, 10)
	result := client.Charge(context.Background(), "card-token-xyz", decimal.RequireFromString("49.99"), "USD")

	assert.True(t, result.Approved)
	assert.Equal(t, "txn-001", result.TransactionID)
	assert.Equal(t, "reuse-token-abc", result.Token)
	assert.Equal(t, "4242", result.CardLastFour)
	assert.Empty(t, result.DeclineCode)
}

func TestCharge_ApprovedViaStatusField(t *testing.T) {
	// The gateway is inconsistent: some responses carry status=approved
	// without the approved flag.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":         "approved",
			"transaction_id": "txn-003",
			"token":          "reuse-token-def",
			"card_last_four": "5678",
		})
	}))
	defer server.Close()

	client := testClient(server.URL, 10)
	result := client.Charge(context.Background(), "card-token-xyz", decimal.RequireFromString("25.00"), "USD")

	assert.True(t, result.Approved)
	assert.Equal(t, "txn-003", result.TransactionID)
}

func TestCharge_Declined(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"approved":       false,
			"transaction_id": "txn-002",
			"decline_code":   "INSUFFICIENT_FUNDS",
			"card_last_four": "1234",
		})
	}))
	defer server.Close()

	client := testClient(server.URL, 10)
	result := client.Charge(context.Background(), "card-token-xyz", decimal.RequireFromString("100.00"), "USD")

	assert.False(t, result.Approved)
	assert.Equal(t, "INSUFFICIENT_FUNDS", result.DeclineCode)
	assert.Equal(t, "txn-002", result.TransactionID)
}

func TestCharge_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := testClient(server.URL, 1)
	result := client.Charge(context.Background(), "card-token-xyz", decimal.RequireFromString("10.00"), "USD")

	assert.False(t, result.Approved)
	assert.Equal(t, gateway.DeclineCodeTimeout, result.DeclineCode)
	assert.Equal(t, "Request timed out", result.RawResponse["error"])
}

func TestCharge_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	serverURL := server.URL
	server.Close()

	client := testClient(serverURL, 1)
	result := client.Charge(context.Background(), "card-token-xyz", decimal.RequireFromString("10.00"), "USD")

	assert.False(t, result.Approved)
	assert.Equal(t, gateway.DeclineCodeNetworkError, result.DeclineCode)
	assert.Contains(t, result.RawResponse, "error")
}

func TestRefund_Approved(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transactions/refund", r.URL.Path)

		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "refund", payload["type"])
		assert.Equal(t, "stored-token-abc", payload["token"])
		assert.Equal(t, "75", payload["amount"])

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":         "approved",
			"transaction_id": "rfnd-001",
		})
	}))
	defer server.Close()

	client := testClient(server.URL, 10)
	result := client.Refund(context.Background(), "stored-token-abc", decimal.NewFromInt(75))

	assert.True(t, result.Approved)
	assert.Equal(t, "rfnd-001", result.TransactionID)
}

func TestRefund_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer server.Close()

	client := testClient(server.URL, 1)
	result := client.Refund(context.Background(), "stored-token-abc", decimal.NewFromInt(75))

	assert.False(t, result.Approved)
	errMsg, _ := result.RawResponse["error"].(string)
	assert.Contains(t, strings.ToLower(errMsg), "timed out")
}

func TestVoid_Approved(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transactions/void", r.URL.Path)

		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "void", payload["type"])
		assert.NotContains(t, payload, "amount")

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"approved":       true,
			"transaction_id": "void-001",
		})
	}))
	defer server.Close()

	client := testClient(server.URL, 10)
	result := client.Void(context.Background(), "stored-token-abc")

	assert.True(t, result.Approved)
	assert.Equal(t, "void-001", result.TransactionID)
}

func TestVoid_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer server.Close()

	client := testClient(server.URL, 1)
	result := client.Void(context.Background(), "stored-token-abc")

	assert.False(t, result.Approved)
	errMsg, _ := result.RawResponse["error"].(string)
	assert.Contains(t, strings.ToLower(errMsg), "timed out")
}

// TestNoSecretsInLogs verifies the non-leakage contract: no log line from
// charge, refund or void may contain the merchant password, developer key
// or any card/gateway token.
func TestNoSecretsInLogs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"approved":       true,
			"transaction_id": "txn-900",
			"token":          "gateway-token-secret",
			"card_last_four": "4242",
		})
	}))
	defer server.Close()

	core, logs := observer.New(zapcore.DebugLevel)
	client := NewClient(config.GatewayConfig{
		MerchantID:     testMerchantID,
		DeveloperKey:   testDeveloperKey,
		Password:       testPassword,
		BaseURL:        server.URL,
		TimeoutSeconds: 10,
	}, zap.New(core))

	ctx := context.Background()
	client.Charge(ctx, "card-token-secret", decimal.NewFromInt(50), "USD")
	client.Refund(ctx, "gateway-token-secret", decimal.NewFromInt(50))
	client.Void(ctx, "gateway-token-secret")

	secrets := []string{
		testPassword,
		testDeveloperKey,
		"card-token-secret",
		"gateway-token-secret",
	}

	for _, entry := range logs.All() {
		line := entry.Message
		for key, value := range entry.ContextMap() {
			line += fmt.Sprintf(" %s=%v", key, value)
		}
		for _, secret := range secrets {
			assert.NotContains(t, line, secret,
				"log entry %q leaks a secret", entry.Message)
		}
	}
	assert.NotZero(t, logs.Len())
}
