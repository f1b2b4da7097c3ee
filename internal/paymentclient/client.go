// Package paymentclient talks to the external payment collaborator. The
// engine treats it as an opaque call: success confirms the checkout, any
// failure aborts it before a booking exists.
package paymentclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(paymentURL string) *Client {
	return &Client{
		baseURL: paymentURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

type chargeRequest struct {
	AmountMinor int64  `json:"amount_minor"`
	Currency    string `json:"currency"`
	Reference   string `json:"reference"`
}

type chargeResponse struct {
	Status string `json:"status"`
}

func (c *Client) Charge(ctx context.Context, amount int64, currency, reference string) error {
	body, err := json.Marshal(chargeRequest{
		AmountMinor: amount,
		Currency:    currency,
		Reference:   reference,
	})
	if err != nil {
		return fmt.Errorf("marshal charge: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/charge", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("charge failed with status: %d", resp.StatusCode)
	}

	var result chargeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if result.Status != "succeeded" {
		return fmt.Errorf("charge declined: %s", result.Status)
	}

	return nil
}
