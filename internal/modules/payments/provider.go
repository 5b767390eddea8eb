package payments

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"
)

type Buyer struct {
	Email     string
	GivenName string
	Surname   string
}

type CreateOrderRequest struct {
	ReferenceID string // our purchase id, echoed back by the provider
	Currency    string
	Amount      decimal.Decimal
	Buyer       *Buyer
}

type CreateOrderResult struct {
	OrderID    string
	ApproveURL string
}

type CaptureResult struct {
	OrderID   string
	CaptureID string
	Status    string
}

// VerifySignatureRequest mirrors the provider's webhook verification payload:
// the transmission headers of the inbound delivery plus the raw event body.
type VerifySignatureRequest struct {
	AuthAlgo         string
	CertURL          string
	TransmissionID   string
	TransmissionSig  string
	TransmissionTime string
	WebhookID        string
	Event            json.RawMessage
}

// Gateway is one payment provider integration. Provider-reported API errors
// surface as *ProviderError untouched; any other failure is wrapped with an
// operation-specific message by the implementation.
type Gateway interface {
	Name() string
	CreateOrder(ctx context.Context, req CreateOrderRequest) (CreateOrderResult, error)
	CaptureOrder(ctx context.Context, orderID string) (CaptureResult, error)
	GetAccessToken(ctx context.Context) (string, error)
	VerifyWebhookSignature(ctx context.Context, accessToken string, req VerifySignatureRequest) (bool, error)
}
