package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// CheckoutOptions controls how the checkout client is configured.
type CheckoutOptions struct {
	BaseURL    string
	SecretKey  string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// CheckoutClient talks to the external checkout service. It is stateless;
// session creation is a single network call and settlement arrives later via
// webhook.
type CheckoutClient struct {
	httpClient *http.Client
	baseURL    string
	secretKey  string
}

// NewCheckoutClient builds a checkout client with sane defaults.
func NewCheckoutClient(opts CheckoutOptions) *CheckoutClient {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = "https://api.stripe.com"
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &CheckoutClient{
		httpClient: client,
		baseURL:    base,
		secretKey:  strings.TrimSpace(opts.SecretKey),
	}
}

// SessionRequest describes a hosted checkout session to create.
type SessionRequest struct {
	AmountCents int64
	Currency    string
	ProductName string
	SuccessURL  string
	CancelURL   string
	Metadata    map[string]string
}

// Session is the created checkout session: the id comes back later on the
// settlement webhook, the URL is where the buyer is redirected.
type Session struct {
	ID  string
	URL string
}

type sessionPayload struct {
	Mode       string            `json:"mode"`
	Amount     int64             `json:"amount_total"`
	Currency   string            `json:"currency"`
	Name       string            `json:"product_name"`
	SuccessURL string            `json:"success_url"`
	CancelURL  string            `json:"cancel_url"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

type sessionResp struct {
	ID      string `json:"id"`
	URL     string `json:"url"`
	Message string `json:"message"`
}

// CreateSession creates a hosted checkout session.
func (c *CheckoutClient) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	if c == nil {
		return nil, errors.New("checkout: client not configured")
	}
	if c.secretKey == "" {
		return nil, errors.New("checkout: secret key is missing")
	}
	if req.AmountCents <= 0 {
		return nil, errors.New("checkout: amount must be positive")
	}
	payload := sessionPayload{
		Mode:       "payment",
		Amount:     req.AmountCents,
		Currency:   req.Currency,
		Name:       req.ProductName,
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
		Metadata:   req.Metadata,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/checkout/sessions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out sessionResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, fmt.Errorf("checkout: http %d", resp.StatusCode)
		}
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		if out.Message != "" {
			return nil, fmt.Errorf("checkout error: %s", out.Message)
		}
		return nil, fmt.Errorf("checkout: http %d", resp.StatusCode)
	}
	if out.ID == "" || out.URL == "" {
		return nil, errors.New("checkout: response missing session id or url")
	}
	return &Session{ID: out.ID, URL: out.URL}, nil
}
