// Package payments talks to the hosted payment processor: outbound
// checkout-session creation and inbound signed webhook verification.
package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// LineItem is the processor's per-line wire shape. Amounts are in
// currency minor units (cents).
type LineItem struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Images      []string `json:"images,omitempty"`
	UnitAmount  int64    `json:"unit_amount"`
	Quantity    int      `json:"quantity"`
}

type CreateSessionParams struct {
	LineItems         []LineItem        `json:"line_items"`
	SuccessURL        string            `json:"success_url"`
	CancelURL         string            `json:"cancel_url"`
	Metadata          map[string]string `json:"metadata,omitempty"`
	ShippingCountries []string          `json:"shipping_countries,omitempty"`
	CollectPhone      bool              `json:"collect_phone"`
	AutomaticTax      bool              `json:"automatic_tax"`
	CustomerEmail     string            `json:"customer_email,omitempty"`
}

// Session is the processor's opaque handle plus the hosted-page redirect.
type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type Client struct {
	baseURL   string
	secretKey string
	http      *http.Client
}

func NewClient(baseURL, secretKey string) *Client {
	return &Client{
		baseURL:   baseURL,
		secretKey: secretKey,
		http:      &http.Client{Timeout: 15 * time.Second},
	}
}

// CreateSession requests a hosted payment page for the given line items.
func (c *Client) CreateSession(ctx context.Context, p CreateSessionParams) (*Session, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/checkout/sessions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payment processor unreachable: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("payment processor returned %d: %s", resp.StatusCode, raw)
	}

	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode session response: %w", err)
	}
	if s.ID == "" || s.URL == "" {
		return nil, fmt.Errorf("payment processor returned incomplete session")
	}
	return &s, nil
}
