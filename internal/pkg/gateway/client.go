package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds payment gateway API configuration
type Config struct {
	BaseURL    string
	MerchantID string
	SecretKey  string
	Timeout    time.Duration
}

// Client represents the card-payment gateway client
type Client struct {
	httpClient *http.Client
	config     Config
}

// ChargeRequest represents a charge request
type ChargeRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	ReferenceID string          `json:"reference_id"`
	Method      string          `json:"method"`
	Description string          `json:"description"`
}

// ChargeResult represents the gateway's charge outcome
type ChargeResult struct {
	Success      bool   `json:"success"`
	ExternalTxID string `json:"external_tx_id"`
	Reason       string `json:"reason,omitempty"`
}

// NewClient creates a new gateway client
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		config:     cfg,
	}
}

// Charge submits a charge to the gateway and returns its outcome.
// A declined charge is not an error: the result carries success=false
// and the decline reason.
func (c *Client) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("validation error: amount must be > 0")
	}
	if strings.TrimSpace(req.ReferenceID) == "" {
		return nil, fmt.Errorf("validation error: reference_id must be non-empty")
	}
	if c == nil || c.httpClient == nil {
		return nil, fmt.Errorf("gateway client is not initialized")
	}
	if strings.TrimSpace(c.config.BaseURL) == "" {
		return nil, fmt.Errorf("gateway config error: base_url is empty")
	}
	if strings.TrimSpace(c.config.MerchantID) == "" {
		return nil, fmt.Errorf("gateway config error: merchant_id is empty")
	}

	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode gateway request: %w", err)
	}

	base := strings.TrimRight(c.config.BaseURL, "/")
	url := base + "/api/v1/charges"

	timeout := c.config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("gateway api call failed: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.MerchantID)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gateway api call failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("gateway api call failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("gateway api returned non-2xx status: %d, body: %s", resp.StatusCode, string(body))
	}

	var out ChargeResult
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to parse gateway response: %w", err)
	}

	return &out, nil
}
