package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-faster/errors"
)

var _ Gateway = (*HostedClient)(nil)

// HostedClient talks to a hosted checkout provider over HTTP.
type HostedClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHostedClient creates a client for the provider at baseURL.
func NewHostedClient(baseURL, apiKey string, timeout time.Duration) *HostedClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HostedClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type sessionPayload struct {
	OrderID    string `json:"order_id"`
	Amount     string `json:"amount"`
	Currency   string `json:"currency"`
	SuccessURL string `json:"success_url"`
	CancelURL  string `json:"cancel_url"`
}

type sessionResponse struct {
	ID          string `json:"id"`
	RedirectURL string `json:"redirect_url"`
}

// CreateSession creates a hosted checkout session for the order.
func (c *HostedClient) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	var resp sessionResponse
	err := c.post(ctx, "/v1/checkout/sessions", sessionPayload{
		OrderID:    req.OrderID,
		Amount:     req.Amount.StringFixed(2),
		Currency:   req.Currency,
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
	}, &resp)
	if err != nil {
		return nil, errors.Wrap(err, "create session")
	}
	return &Session{ID: resp.ID, RedirectURL: resp.RedirectURL}, nil
}

type intentPayload struct {
	OrderID  string `json:"order_id"`
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type intentResponse struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

// CreateIntent creates an embedded-form payment intent for the order.
func (c *HostedClient) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	var resp intentResponse
	err := c.post(ctx, "/v1/payment/intents", intentPayload{
		OrderID:  req.OrderID,
		Amount:   req.Amount.StringFixed(2),
		Currency: req.Currency,
	}, &resp)
	if err != nil {
		return nil, errors.Wrap(err, "create intent")
	}
	return &Intent{ID: resp.ID, ClientSecret: resp.ClientSecret}, nil
}

func (c *HostedClient) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Errorf("gateway returned %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}
