package webhooks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"learnport.com/app/internal/modules/payments"
	"learnport.com/app/internal/modules/purchases"
)

// Provider webhook event types handled by reconciliation.
const (
	EventOrderApproved    = "CHECKOUT.ORDER.APPROVED"
	EventOrderDeclined    = "CHECKOUT.ORDER.DECLINED"
	EventCaptureCompleted = "PAYMENT.CAPTURE.COMPLETED"
	EventCaptureDenied    = "PAYMENT.CAPTURE.DENIED"
	EventCaptureCancelled = "PAYMENT.CAPTURE.CANCELLED"
)

// Transmission headers the provider signs each delivery with.
const (
	HeaderAuthAlgo         = "Paypal-Auth-Algo"
	HeaderCertURL          = "Paypal-Cert-Url"
	HeaderTransmissionID   = "Paypal-Transmission-Id"
	HeaderTransmissionSig  = "Paypal-Transmission-Sig"
	HeaderTransmissionTime = "Paypal-Transmission-Time"
)

// PurchaseStore is the slice of the purchase store reconciliation needs.
type PurchaseStore interface {
	GetByPaymentOrderID(ctx context.Context, orderID string) (*purchases.Purchase, error)
	Save(ctx context.Context, p *purchases.Purchase) error
}

type Service struct {
	db        *gorm.DB
	store     PurchaseStore
	gateway   payments.Gateway
	webhookID string
	logger    *slog.Logger
}

func NewService(db *gorm.DB, store PurchaseStore, gw payments.Gateway, webhookID string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, store: store, gateway: gw, webhookID: webhookID, logger: logger}
}

// VerifyWebhook asks the provider whether the delivery's signature matches
// the raw body, using a fresh access token.
func (s *Service) VerifyWebhook(ctx context.Context, headers http.Header, body []byte) (bool, error) {
	token, err := s.gateway.GetAccessToken(ctx)
	if err != nil {
		return false, err
	}
	return s.gateway.VerifyWebhookSignature(ctx, token, payments.VerifySignatureRequest{
		AuthAlgo:         headers.Get(HeaderAuthAlgo),
		CertURL:          headers.Get(HeaderCertURL),
		TransmissionID:   headers.Get(HeaderTransmissionID),
		TransmissionSig:  headers.Get(HeaderTransmissionSig),
		TransmissionTime: headers.Get(HeaderTransmissionTime),
		WebhookID:        s.webhookID,
		Event:            json.RawMessage(body),
	})
}

type Outcome struct {
	Message   string           `json:"message"`
	Processed bool             `json:"processed"`
	Status    purchases.Status `json:"status,omitempty"`
}

// eventResource is the subset of the provider resource we act on. For order
// events the id is the order id; for capture events the id is the capture id
// and the order id sits in supplementary_data.
type eventResource struct {
	ID                string `json:"id"`
	SupplementaryData struct {
		RelatedIDs struct {
			OrderID string `json:"order_id"`
		} `json:"related_ids"`
	} `json:"supplementary_data"`
}

// ProcessDelivery records the delivery in the audit log and applies the event.
func (s *Service) ProcessDelivery(ctx context.Context, eventID, eventType string, resource, rawBody []byte) (Outcome, error) {
	audit := s.recordDelivery(ctx, eventID, eventType, rawBody)

	outcome, err := s.ProcessEvent(ctx, eventType, resource)
	s.finishDelivery(ctx, audit, err)
	if err != nil {
		s.logger.ErrorContext(ctx, "webhook event apply failed",
			"event_id", eventID, "type", eventType, "err", err)
		return Outcome{}, err
	}

	s.logger.InfoContext(ctx, "webhook event processed",
		"event_id", eventID, "type", eventType, "processed", outcome.Processed, "status", string(outcome.Status))
	return outcome, nil
}

// ProcessEvent maps a verified provider event to a purchase mutation. Writes
// are unconditional overwrites: replaying the same event lands on the same
// row state, and the explicit-update transition table is deliberately not
// consulted on this path.
func (s *Service) ProcessEvent(ctx context.Context, eventType string, resource []byte) (Outcome, error) {
	var res eventResource
	if err := json.Unmarshal(resource, &res); err != nil {
		return Outcome{}, fmt.Errorf("webhooks: malformed event resource: %w", err)
	}

	switch eventType {
	case EventOrderApproved:
		// Capture as a side effect; the purchase row stays PENDING until the
		// capture outcome arrives as its own event.
		if _, err := s.gateway.CaptureOrder(ctx, res.ID); err != nil {
			return Outcome{}, err
		}
		return Outcome{Message: "order approved, capture requested", Processed: true, Status: purchases.StatusPending}, nil

	case EventOrderDeclined:
		return s.overwrite(ctx, res.ID, purchases.StatusFailed, nil, "order declined")

	case EventCaptureCompleted:
		return s.overwrite(ctx, res.SupplementaryData.RelatedIDs.OrderID, purchases.StatusCompleted, &res.ID, "payment captured")

	case EventCaptureDenied:
		return s.overwrite(ctx, res.SupplementaryData.RelatedIDs.OrderID, purchases.StatusFailed, &res.ID, "capture denied")

	case EventCaptureCancelled:
		return s.overwrite(ctx, res.SupplementaryData.RelatedIDs.OrderID, purchases.StatusCancelled, &res.ID, "capture cancelled")

	default:
		return Outcome{Message: "unhandled event type " + eventType, Processed: false}, nil
	}
}

func (s *Service) overwrite(ctx context.Context, orderID string, status purchases.Status, captureID *string, msg string) (Outcome, error) {
	p, err := s.store.GetByPaymentOrderID(ctx, orderID)
	if err != nil {
		return Outcome{}, err
	}

	p.Status = status
	if captureID != nil {
		p.PaymentTransactionID = captureID
	}
	if err := s.store.Save(ctx, p); err != nil {
		return Outcome{}, err
	}
	return Outcome{Message: msg, Processed: true, Status: status}, nil
}

// recordDelivery is best effort; a broken audit trail must not bounce the
// provider's delivery.
func (s *Service) recordDelivery(ctx context.Context, eventID, eventType string, rawBody []byte) *payments.ProviderEvent {
	if s.db == nil {
		return nil
	}
	pe := &payments.ProviderEvent{
		ID:          uuid.NewString(),
		Provider:    s.gateway.Name(),
		EventID:     eventID,
		EventType:   eventType,
		PayloadJSON: datatypes.JSON(rawBody),
		ReceivedAt:  time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(pe).Error; err != nil {
		s.logger.ErrorContext(ctx, "failed to persist provider event",
			"event_id", eventID, "type", eventType, "err", err)
		return nil
	}
	return pe
}

func (s *Service) finishDelivery(ctx context.Context, pe *payments.ProviderEvent, applyErr error) {
	if pe == nil || s.db == nil {
		return
	}
	now := time.Now()
	updates := map[string]any{"processed_at": &now, "process_error": nil}
	if applyErr != nil {
		updates = map[string]any{"process_error": truncate(applyErr.Error(), 250)}
	}
	if err := s.db.WithContext(ctx).Model(&payments.ProviderEvent{}).
		Where("id = ?", pe.ID).
		Updates(updates).Error; err != nil {
		s.logger.ErrorContext(ctx, "failed to update provider event", "event_id", pe.EventID, "err", err)
	}
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}
