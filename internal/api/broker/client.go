// Package broker submits market orders to an HTTP broker gateway.
package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	httpClient "github.com/Alias1177/SignalLab/internal/platform/http"
)

// quantityPlaces is the precision orders are sent with.
const quantityPlaces = 8

// Client posts orders to {BaseURL}/orders.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *httpClient.Client
	newID      func() uuid.UUID
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a broker client
type ClientOptions struct {
	BaseURL        string
	APIKey         string
	RequestTimeout time.Duration
	RequestsPerSec int
	MaxRetries     int
}

// NewClient creates a broker client
func NewClient(options ClientOptions) *Client {
	return &Client{
		baseURL: strings.TrimRight(options.BaseURL, "/"),
		apiKey:  options.APIKey,
		httpClient: httpClient.NewClient(httpClient.ClientOptions{
			Timeout:        options.RequestTimeout,
			RequestsPerSec: options.RequestsPerSec,
			MaxRetries:     options.MaxRetries,
		}),
		newID:  uuid.New,
		logger: log.With().Str("component", "broker_client").Logger(),
	}
}

type orderRequest struct {
	ClientOrderID string          `json:"client_order_id"`
	Symbol        string          `json:"symbol"`
	Side          string          `json:"side"`
	Quantity      decimal.Decimal `json:"quantity"`
}

type orderResponse struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// SubmitOrder places a market order and returns the broker's order id.
// The client order id is reused across retries so the gateway can
// deduplicate them.
func (c *Client) SubmitOrder(ctx context.Context, symbol, side string, quantity float64) (string, error) {
	side = strings.ToUpper(side)
	if side != "BUY" && side != "SELL" {
		return "", fmt.Errorf("unsupported order side %q", side)
	}
	qty := decimal.NewFromFloat(quantity).Round(quantityPlaces)
	if !qty.IsPositive() {
		return "", fmt.Errorf("order quantity must be positive, got %s", qty)
	}

	payload, err := json.Marshal(orderRequest{
		ClientOrderID: c.newID().String(),
		Symbol:        symbol,
		Side:          side,
		Quantity:      qty,
	})
	if err != nil {
		return "", fmt.Errorf("encoding order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.DoRequest(ctx, req)
	if err != nil {
		return "", fmt.Errorf("submitting order: %w", err)
	}
	defer resp.Body.Close()

	var out orderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding order response: %w", err)
	}
	if out.OrderID == "" {
		return "", fmt.Errorf("broker returned no order id (status %q)", out.Status)
	}

	c.logger.Info().Str("symbol", symbol).Str("side", side).Str("quantity", qty.String()).Str("order_id", out.OrderID).Msg("order submitted")
	return out.OrderID, nil
}
