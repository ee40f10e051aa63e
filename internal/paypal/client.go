// Package paypal is a minimal client for the PayPal REST payments API:
// create a redirect-based payment and later execute (capture) it once the
// buyer approved. The gateway is treated as an opaque call/response contract.
package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	sandboxBase = "https://api.sandbox.paypal.com"
	liveBase    = "https://api.paypal.com"

	currency = "USD"
)

// ErrNotApproved is returned when the gateway accepted the execute call but
// did not settle the payment.
var ErrNotApproved = errors.New("paypal: payment not approved")

// Client encapsulates HTTP interaction with the PayPal gateway.
type Client struct {
	baseURL    string
	clientID   string
	secret     string
	httpClient *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewClient builds a client for the given mode ("sandbox" or "live").
func NewClient(mode, clientID, secret string) *Client {
	base := sandboxBase
	if mode == "live" {
		base = liveBase
	}
	return NewClientWithBase(base, clientID, secret)
}

// NewClientWithBase builds a client against an explicit API base URL.
// Used by tests to point at a stub gateway.
func NewClientWithBase(baseURL, clientID, secret string) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		clientID: clientID,
		secret:   secret,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// CreatePayment registers a redirect-based payment for the order and returns
// the gateway payment id plus the approval URL the buyer must visit.
func (c *Client) CreatePayment(ctx context.Context, orderID string, total float64, returnURL, cancelURL string) (paymentID, approvalURL string, err error) {
	body := map[string]interface{}{
		"intent": "sale",
		"payer":  map[string]string{"payment_method": "paypal"},
		"redirect_urls": map[string]string{
			"return_url": returnURL,
			"cancel_url": cancelURL,
		},
		"transactions": []map[string]interface{}{{
			"amount": map[string]string{
				"currency": currency,
				"total":    fmt.Sprintf("%.2f", total),
			},
			"description": fmt.Sprintf("Payment for order %s", orderID),
		}},
	}

	var resp struct {
		ID    string `json:"id"`
		State string `json:"state"`
		Links []struct {
			Href string `json:"href"`
			Rel  string `json:"rel"`
		} `json:"links"`
	}

	if err := c.post(ctx, "/v1/payments/payment", body, &resp); err != nil {
		return "", "", fmt.Errorf("create payment: %w", err)
	}

	for _, link := range resp.Links {
		if link.Rel == "approval_url" {
			return resp.ID, link.Href, nil
		}
	}
	return "", "", fmt.Errorf("create payment: no approval_url in gateway response")
}

// ExecutePayment captures an approved payment. The amount is always the
// order's persisted total, never a client-supplied value.
func (c *Client) ExecutePayment(ctx context.Context, paymentID, payerID string, total float64) error {
	body := map[string]interface{}{
		"payer_id": payerID,
		"transactions": []map[string]interface{}{{
			"amount": map[string]string{
				"currency": currency,
				"total":    fmt.Sprintf("%.2f", total),
			},
		}},
	}

	var resp struct {
		State string `json:"state"`
	}

	path := fmt.Sprintf("/v1/payments/payment/%s/execute", url.PathEscape(paymentID))
	if err := c.post(ctx, path, body, &resp); err != nil {
		return fmt.Errorf("execute payment: %w", err)
	}

	if resp.State != "approved" {
		return fmt.Errorf("%w: state %q", ErrNotApproved, resp.State)
	}
	return nil
}

// post sends an authenticated JSON request and decodes the response.
func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// token returns a valid OAuth2 access token, refreshing it when close to
// expiry.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	form := strings.NewReader("grant_type=client_credentials")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/oauth2/token", form)
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	req.SetBasicAuth(c.clientID, c.secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("do token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token: unexpected status: %d", resp.StatusCode)
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("token: empty access_token")
	}

	c.accessToken = tok.AccessToken
	// Refresh one minute early.
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn)*time.Second - time.Minute)

	return c.accessToken, nil
}
