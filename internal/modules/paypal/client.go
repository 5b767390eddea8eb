package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"learnport.com/app/internal/modules/payments"
)

const (
	sandboxBaseURL = "https://api-m.sandbox.paypal.com"
	liveBaseURL    = "https://api-m.paypal.com"

	// Outbound calls are unbounded outside production.
	productionTimeout = 10 * time.Second
)

type Config struct {
	ClientID     string
	ClientSecret string
	Environment  string // sandbox | live
	Production   bool   // app environment, not the PayPal one
}

// Client implements payments.Gateway against the PayPal REST API.
type Client struct {
	cfg     Config
	baseURL string
	httpc   *http.Client
	logger  *slog.Logger
	verbose bool
}

var _ payments.Gateway = (*Client)(nil)

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	base := sandboxBaseURL
	if cfg.Environment == "live" {
		base = liveBaseURL
	}
	var timeout time.Duration
	if cfg.Production {
		timeout = productionTimeout
	}
	return &Client{
		cfg:     cfg,
		baseURL: base,
		httpc:   &http.Client{Timeout: timeout},
		logger:  logger,
		verbose: !cfg.Production,
	}
}

func (c *Client) Name() string { return "paypal" }

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// GetAccessToken obtains a short-lived client-credentials token.
func (c *Client) GetAccessToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/oauth2/token",
		strings.NewReader("grant_type=client_credentials"))
	if err != nil {
		return "", fmt.Errorf("paypal: access token error: %w", err)
	}
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var tok tokenResponse
	if err := c.do(req, &tok); err != nil {
		return "", wrapNonProvider(err, "paypal: access token error")
	}
	if c.verbose {
		c.logger.DebugContext(ctx, "paypal access token obtained", "expires_in", tok.ExpiresIn)
	}
	return tok.AccessToken, nil
}

type orderAmount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type purchaseUnit struct {
	ReferenceID string      `json:"reference_id,omitempty"`
	Amount      orderAmount `json:"amount"`
}

type orderRequest struct {
	Intent        string         `json:"intent"`
	PurchaseUnits []purchaseUnit `json:"purchase_units"`
}

type orderLink struct {
	Href string `json:"href"`
	Rel  string `json:"rel"`
}

type orderResponse struct {
	ID     string      `json:"id"`
	Status string      `json:"status"`
	Links  []orderLink `json:"links"`
}

// CreateOrder opens a CAPTURE-intent order for the given amount.
func (c *Client) CreateOrder(ctx context.Context, in payments.CreateOrderRequest) (payments.CreateOrderResult, error) {
	token, err := c.GetAccessToken(ctx)
	if err != nil {
		return payments.CreateOrderResult{}, err
	}

	body := orderRequest{
		Intent: "CAPTURE",
		PurchaseUnits: []purchaseUnit{{
			ReferenceID: in.ReferenceID,
			Amount: orderAmount{
				CurrencyCode: in.Currency,
				Value:        in.Amount.StringFixed(2),
			},
		}},
	}

	var out orderResponse
	if err := c.postJSON(ctx, "/v2/checkout/orders", token, body, &out); err != nil {
		return payments.CreateOrderResult{}, wrapNonProvider(err, "paypal: order creation failed")
	}

	res := payments.CreateOrderResult{OrderID: out.ID}
	for _, l := range out.Links {
		if l.Rel == "approve" || l.Rel == "payer-action" {
			res.ApproveURL = l.Href
			break
		}
	}
	if c.verbose {
		c.logger.DebugContext(ctx, "paypal order created", "order_id", out.ID, "status", out.Status)
	}
	return res, nil
}

type captureResponse struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	PurchaseUnits []struct {
		Payments struct {
			Captures []struct {
				ID     string `json:"id"`
				Status string `json:"status"`
			} `json:"captures"`
		} `json:"payments"`
	} `json:"purchase_units"`
}

// CaptureOrder collects the funds for a previously approved order.
func (c *Client) CaptureOrder(ctx context.Context, orderID string) (payments.CaptureResult, error) {
	token, err := c.GetAccessToken(ctx)
	if err != nil {
		return payments.CaptureResult{}, err
	}

	var out captureResponse
	path := fmt.Sprintf("/v2/checkout/orders/%s/capture", orderID)
	if err := c.postJSON(ctx, path, token, struct{}{}, &out); err != nil {
		return payments.CaptureResult{}, wrapNonProvider(err, "paypal: order capture failed")
	}

	res := payments.CaptureResult{OrderID: out.ID, Status: out.Status}
	if len(out.PurchaseUnits) > 0 && len(out.PurchaseUnits[0].Payments.Captures) > 0 {
		res.CaptureID = out.PurchaseUnits[0].Payments.Captures[0].ID
	}
	if c.verbose {
		c.logger.DebugContext(ctx, "paypal order captured",
			"order_id", out.ID, "capture_id", res.CaptureID, "status", out.Status)
	}
	return res, nil
}

type verifyRequest struct {
	AuthAlgo         string          `json:"auth_algo"`
	CertURL          string          `json:"cert_url"`
	TransmissionID   string          `json:"transmission_id"`
	TransmissionSig  string          `json:"transmission_sig"`
	TransmissionTime string          `json:"transmission_time"`
	WebhookID        string          `json:"webhook_id"`
	WebhookEvent     json.RawMessage `json:"webhook_event"`
}

type verifyResponse struct {
	VerificationStatus string `json:"verification_status"`
}

// VerifyWebhookSignature asks PayPal whether the delivery is authentic.
// Only an explicit SUCCESS counts.
func (c *Client) VerifyWebhookSignature(ctx context.Context, accessToken string, in payments.VerifySignatureRequest) (bool, error) {
	body := verifyRequest{
		AuthAlgo:         in.AuthAlgo,
		CertURL:          in.CertURL,
		TransmissionID:   in.TransmissionID,
		TransmissionSig:  in.TransmissionSig,
		TransmissionTime: in.TransmissionTime,
		WebhookID:        in.WebhookID,
		WebhookEvent:     in.Event,
	}

	var out verifyResponse
	if err := c.postJSON(ctx, "/v1/notifications/verify-webhook-signature", accessToken, body, &out); err != nil {
		return false, wrapNonProvider(err, "paypal: webhook verification error")
	}
	if c.verbose {
		c.logger.DebugContext(ctx, "paypal webhook verification",
			"transmission_id", in.TransmissionID, "status", out.VerificationStatus)
	}
	return out.VerificationStatus == "SUCCESS", nil
}

func (c *Client) postJSON(ctx context.Context, path, token string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

// do executes the request. A non-2xx status becomes a *ProviderError built
// from the provider's own error body; everything else returns unwrapped for
// the caller to tag with its operation message.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseProviderError(resp.StatusCode, raw)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}

// parseProviderError handles both PayPal error shapes: the REST one
// ({name, message, debug_id}) and the oauth one ({error, error_description}).
func parseProviderError(statusCode int, body []byte) *payments.ProviderError {
	var pe struct {
		Name             string `json:"name"`
		Message          string `json:"message"`
		DebugID          string `json:"debug_id"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	_ = json.Unmarshal(body, &pe)

	name := pe.Name
	if name == "" {
		name = pe.Error
	}
	msg := pe.Message
	if msg == "" {
		msg = pe.ErrorDescription
	}
	if name == "" && msg == "" {
		msg = strings.TrimSpace(string(body))
	}
	return &payments.ProviderError{StatusCode: statusCode, Name: name, Message: msg, DebugID: pe.DebugID}
}

// wrapNonProvider keeps provider-reported errors verbatim and tags everything
// else with the operation message.
func wrapNonProvider(err error, opMsg string) error {
	if err == nil {
		return nil
	}
	var pe *payments.ProviderError
	if errors.As(err, &pe) {
		return err
	}
	return fmt.Errorf("%s: %w", opMsg, err)
}
