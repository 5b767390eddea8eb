package webhooks

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"learnport.com/app/internal/modules/payments"
	"learnport.com/app/internal/modules/purchases"
	"learnport.com/app/internal/shared/apperr"
)

type fakeGateway struct {
	captureOrderFn    func(ctx context.Context, orderID string) (payments.CaptureResult, error)
	getAccessTokenFn  func(ctx context.Context) (string, error)
	verifySignatureFn func(ctx context.Context, token string, req payments.VerifySignatureRequest) (bool, error)
}

func (f *fakeGateway) Name() string { return "paypal" }

func (f *fakeGateway) CreateOrder(_ context.Context, _ payments.CreateOrderRequest) (payments.CreateOrderResult, error) {
	return payments.CreateOrderResult{}, nil
}

func (f *fakeGateway) CaptureOrder(ctx context.Context, orderID string) (payments.CaptureResult, error) {
	if f.captureOrderFn != nil {
		return f.captureOrderFn(ctx, orderID)
	}
	return payments.CaptureResult{OrderID: orderID, Status: "COMPLETED"}, nil
}

func (f *fakeGateway) GetAccessToken(ctx context.Context) (string, error) {
	if f.getAccessTokenFn != nil {
		return f.getAccessTokenFn(ctx)
	}
	return "token-1", nil
}

func (f *fakeGateway) VerifyWebhookSignature(ctx context.Context, token string, req payments.VerifySignatureRequest) (bool, error) {
	if f.verifySignatureFn != nil {
		return f.verifySignatureFn(ctx, token, req)
	}
	return true, nil
}

// fakeStore keys purchases by their provider order id.
type fakeStore struct {
	byOrderID map[string]*purchases.Purchase
	saves     int
}

func newFakeStore(ps ...*purchases.Purchase) *fakeStore {
	s := &fakeStore{byOrderID: map[string]*purchases.Purchase{}}
	for _, p := range ps {
		s.byOrderID[*p.PaymentOrderID] = p
	}
	return s
}

func (s *fakeStore) GetByPaymentOrderID(_ context.Context, orderID string) (*purchases.Purchase, error) {
	p, ok := s.byOrderID[orderID]
	if !ok {
		return nil, apperr.NotFoundErr("purchase with payment order " + orderID + " not found")
	}
	cp := *p
	return &cp, nil
}

func (s *fakeStore) Save(_ context.Context, p *purchases.Purchase) error {
	s.saves++
	cp := *p
	s.byOrderID[*p.PaymentOrderID] = &cp
	return nil
}

func pendingPurchase(orderID string) *purchases.Purchase {
	return &purchases.Purchase{
		ID:             "p-1",
		UserID:         "u-1",
		CourseID:       "c-1",
		Status:         purchases.StatusPending,
		PaymentOrderID: &orderID,
	}
}

func captureResource(captureID, orderID string) []byte {
	return []byte(`{"id":"` + captureID + `","supplementary_data":{"related_ids":{"order_id":"` + orderID + `"}}}`)
}

func TestProcessEventCaptureCompleted(t *testing.T) {
	store := newFakeStore(pendingPurchase("ORDER-1"))
	svc := NewService(nil, store, &fakeGateway{}, "WH-1", nil)

	out, err := svc.ProcessEvent(context.Background(), EventCaptureCompleted, captureResource("CAP-1", "ORDER-1"))
	if err != nil {
		t.Fatalf("ProcessEvent: %v", err)
	}
	if !out.Processed || out.Status != purchases.StatusCompleted {
		t.Fatalf("outcome = %+v, want processed COMPLETED", out)
	}

	p := store.byOrderID["ORDER-1"]
	if p.Status != purchases.StatusCompleted {
		t.Errorf("status = %s, want COMPLETED", p.Status)
	}
	if p.PaymentTransactionID == nil || *p.PaymentTransactionID != "CAP-1" {
		t.Errorf("transaction id = %v, want CAP-1", p.PaymentTransactionID)
	}
}

func TestProcessEventOrderApprovedCapturesWithoutStoreWrite(t *testing.T) {
	store := newFakeStore(pendingPurchase("ORDER-1"))
	var captured string
	gw := &fakeGateway{
		captureOrderFn: func(_ context.Context, orderID string) (payments.CaptureResult, error) {
			captured = orderID
			return payments.CaptureResult{OrderID: orderID, CaptureID: "CAP-1", Status: "COMPLETED"}, nil
		},
	}
	svc := NewService(nil, store, gw, "WH-1", nil)

	out, err := svc.ProcessEvent(context.Background(), EventOrderApproved, []byte(`{"id":"ORDER-1"}`))
	if err != nil {
		t.Fatalf("ProcessEvent: %v", err)
	}
	if captured != "ORDER-1" {
		t.Errorf("captured order = %q, want ORDER-1", captured)
	}
	if !out.Processed {
		t.Error("outcome should be processed")
	}
	if store.saves != 0 {
		t.Errorf("saves = %d, want 0 (row waits for the capture event)", store.saves)
	}
	if store.byOrderID["ORDER-1"].Status != purchases.StatusPending {
		t.Errorf("status = %s, want still PENDING", store.byOrderID["ORDER-1"].Status)
	}
}

func TestProcessEventOrderApprovedCaptureFailure(t *testing.T) {
	store := newFakeStore(pendingPurchase("ORDER-1"))
	gw := &fakeGateway{
		captureOrderFn: func(_ context.Context, _ string) (payments.CaptureResult, error) {
			return payments.CaptureResult{}, &payments.ProviderError{StatusCode: 422, Name: "ORDER_NOT_APPROVED", Message: "payer has not approved"}
		},
	}
	svc := NewService(nil, store, gw, "WH-1", nil)

	_, err := svc.ProcessEvent(context.Background(), EventOrderApproved, []byte(`{"id":"ORDER-1"}`))
	var pe *payments.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want *ProviderError", err)
	}
	if pe.Name != "ORDER_NOT_APPROVED" {
		t.Errorf("name = %s, want ORDER_NOT_APPROVED", pe.Name)
	}
}

func TestProcessEventOrderDeclined(t *testing.T) {
	store := newFakeStore(pendingPurchase("ORDER-1"))
	svc := NewService(nil, store, &fakeGateway{}, "WH-1", nil)

	out, err := svc.ProcessEvent(context.Background(), EventOrderDeclined, []byte(`{"id":"ORDER-1"}`))
	if err != nil {
		t.Fatalf("ProcessEvent: %v", err)
	}
	if out.Status != purchases.StatusFailed {
		t.Errorf("status = %s, want FAILED", out.Status)
	}
	if p := store.byOrderID["ORDER-1"]; p.PaymentTransactionID != nil {
		t.Errorf("transaction id = %q, want unset for an order-level event", *p.PaymentTransactionID)
	}
}

func TestProcessEventCaptureDenied(t *testing.T) {
	store := newFakeStore(pendingPurchase("ORDER-1"))
	svc := NewService(nil, store, &fakeGateway{}, "WH-1", nil)

	out, err := svc.ProcessEvent(context.Background(), EventCaptureDenied, captureResource("CAP-1", "ORDER-1"))
	if err != nil {
		t.Fatalf("ProcessEvent: %v", err)
	}
	if out.Status != purchases.StatusFailed {
		t.Errorf("status = %s, want FAILED", out.Status)
	}
	p := store.byOrderID["ORDER-1"]
	if p.PaymentTransactionID == nil || *p.PaymentTransactionID != "CAP-1" {
		t.Errorf("transaction id = %v, want CAP-1 recorded even on denial", p.PaymentTransactionID)
	}
}

func TestProcessEventCaptureCancelled(t *testing.T) {
	store := newFakeStore(pendingPurchase("ORDER-1"))
	svc := NewService(nil, store, &fakeGateway{}, "WH-1", nil)

	out, err := svc.ProcessEvent(context.Background(), EventCaptureCancelled, captureResource("CAP-1", "ORDER-1"))
	if err != nil {
		t.Fatalf("ProcessEvent: %v", err)
	}
	if out.Status != purchases.StatusCancelled {
		t.Errorf("status = %s, want CANCELLED", out.Status)
	}
}

func TestProcessEventIdempotentRedelivery(t *testing.T) {
	store := newFakeStore(pendingPurchase("ORDER-1"))
	svc := NewService(nil, store, &fakeGateway{}, "WH-1", nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.ProcessEvent(ctx, EventCaptureCompleted, captureResource("CAP-1", "ORDER-1")); err != nil {
			t.Fatalf("delivery %d: %v", i, err)
		}
	}

	p := store.byOrderID["ORDER-1"]
	if p.Status != purchases.StatusCompleted || *p.PaymentTransactionID != "CAP-1" {
		t.Errorf("after redelivery: status=%s txn=%v, want COMPLETED CAP-1", p.Status, p.PaymentTransactionID)
	}
}

func TestProcessEventOverwritesTerminalStatus(t *testing.T) {
	// Reconciliation trusts the provider: a completed row moves to FAILED on a
	// later denial event even though explicit updates would reject that.
	p := pendingPurchase("ORDER-1")
	p.Status = purchases.StatusCompleted
	store := newFakeStore(p)
	svc := NewService(nil, store, &fakeGateway{}, "WH-1", nil)

	out, err := svc.ProcessEvent(context.Background(), EventCaptureDenied, captureResource("CAP-2", "ORDER-1"))
	if err != nil {
		t.Fatalf("ProcessEvent: %v", err)
	}
	if out.Status != purchases.StatusFailed {
		t.Errorf("status = %s, want FAILED", out.Status)
	}
	if store.byOrderID["ORDER-1"].Status != purchases.StatusFailed {
		t.Errorf("stored status = %s, want FAILED", store.byOrderID["ORDER-1"].Status)
	}
}

func TestProcessEventUnknownOrder(t *testing.T) {
	svc := NewService(nil, newFakeStore(), &fakeGateway{}, "WH-1", nil)

	_, err := svc.ProcessEvent(context.Background(), EventCaptureCompleted, captureResource("CAP-1", "ORDER-missing"))
	ae, ok := apperr.As(err)
	if !ok || ae.Kind != apperr.NotFound {
		t.Fatalf("err = %v, want not_found", err)
	}
}

func TestProcessEventUnknownType(t *testing.T) {
	store := newFakeStore(pendingPurchase("ORDER-1"))
	svc := NewService(nil, store, &fakeGateway{}, "WH-1", nil)

	out, err := svc.ProcessEvent(context.Background(), "PAYMENT.SALE.COMPLETED", []byte(`{"id":"X"}`))
	if err != nil {
		t.Fatalf("ProcessEvent: %v", err)
	}
	if out.Processed {
		t.Error("unknown event types must be acknowledged without processing")
	}
	if store.saves != 0 {
		t.Errorf("saves = %d, want 0", store.saves)
	}
}

func TestProcessEventMalformedResource(t *testing.T) {
	svc := NewService(nil, newFakeStore(), &fakeGateway{}, "WH-1", nil)

	if _, err := svc.ProcessEvent(context.Background(), EventCaptureCompleted, []byte(`{`)); err == nil {
		t.Fatal("want error for malformed resource")
	}
}

func TestVerifyWebhookAssemblesRequest(t *testing.T) {
	body := []byte(`{"id":"WH-EVT-1","event_type":"PAYMENT.CAPTURE.COMPLETED"}`)
	var got payments.VerifySignatureRequest
	var gotToken string
	gw := &fakeGateway{
		getAccessTokenFn: func(_ context.Context) (string, error) { return "token-xyz", nil },
		verifySignatureFn: func(_ context.Context, token string, req payments.VerifySignatureRequest) (bool, error) {
			gotToken = token
			got = req
			return true, nil
		},
	}
	svc := NewService(nil, newFakeStore(), gw, "WH-123", nil)

	headers := http.Header{}
	headers.Set(HeaderAuthAlgo, "SHA256withRSA")
	headers.Set(HeaderCertURL, "https://api.paypal.com/cert")
	headers.Set(HeaderTransmissionID, "tid-1")
	headers.Set(HeaderTransmissionSig, "sig-1")
	headers.Set(HeaderTransmissionTime, "2026-01-02T03:04:05Z")

	ok, err := svc.VerifyWebhook(context.Background(), headers, body)
	if err != nil || !ok {
		t.Fatalf("VerifyWebhook = %v, %v; want true, nil", ok, err)
	}
	if gotToken != "token-xyz" {
		t.Errorf("token = %q, want token-xyz", gotToken)
	}
	if got.WebhookID != "WH-123" {
		t.Errorf("webhook id = %q, want WH-123", got.WebhookID)
	}
	if got.AuthAlgo != "SHA256withRSA" || got.TransmissionID != "tid-1" || got.TransmissionSig != "sig-1" {
		t.Errorf("header mapping wrong: %+v", got)
	}
	if string(got.Event) != string(body) {
		t.Errorf("event body = %s, want the raw delivery body", got.Event)
	}
}

func TestVerifyWebhookTokenFailure(t *testing.T) {
	gw := &fakeGateway{
		getAccessTokenFn: func(_ context.Context) (string, error) {
			return "", &payments.ProviderError{StatusCode: 401, Name: "invalid_client", Message: "client authentication failed"}
		},
	}
	svc := NewService(nil, newFakeStore(), gw, "WH-1", nil)

	ok, err := svc.VerifyWebhook(context.Background(), http.Header{}, []byte(`{}`))
	if ok || err == nil {
		t.Fatalf("VerifyWebhook = %v, %v; want false with the token error", ok, err)
	}
}

func TestProcessDeliveryOutcomeSerialization(t *testing.T) {
	store := newFakeStore(pendingPurchase("ORDER-1"))
	svc := NewService(nil, store, &fakeGateway{}, "WH-1", nil)

	out, err := svc.ProcessDelivery(context.Background(), "WH-EVT-1", EventCaptureCompleted,
		captureResource("CAP-1", "ORDER-1"), []byte(`{}`))
	if err != nil {
		t.Fatalf("ProcessDelivery: %v", err)
	}

	raw, err := json.Marshal(out)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["processed"] != true || m["status"] != "COMPLETED" {
		t.Errorf("outcome json = %s", raw)
	}
}
