package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// Sends a PayPal-shaped webhook delivery to a local server. The transmission
// headers are placeholders: useful against a dev server whose gateway is
// stubbed or whose verification is pointed at the sandbox simulator.

type resourcePayload struct {
	ID                string `json:"id"`
	SupplementaryData *struct {
		RelatedIDs struct {
			OrderID string `json:"order_id"`
		} `json:"related_ids"`
	} `json:"supplementary_data,omitempty"`
}

type webhookPayload struct {
	ID        string          `json:"id"`
	EventType string          `json:"event_type"`
	Resource  resourcePayload `json:"resource"`
}

func main() {
	url := flag.String("url", "http://localhost:8080/api/webhooks/paypal", "Webhook URL")
	eventID := flag.String("event-id", "WH-"+randomHex(12), "Event ID")
	eventType := flag.String("type", "PAYMENT.CAPTURE.COMPLETED",
		"Event type (CHECKOUT.ORDER.APPROVED, CHECKOUT.ORDER.DECLINED, PAYMENT.CAPTURE.COMPLETED, PAYMENT.CAPTURE.DENIED, PAYMENT.CAPTURE.CANCELLED)")
	orderID := flag.String("order-id", "", "PayPal order id the purchase is linked to")
	captureID := flag.String("capture-id", "CAP-"+randomHex(8), "Capture id (for capture events)")
	dryRun := flag.Bool("dry-run", false, "Only print the payload, don't send")

	flag.Parse()

	if *orderID == "" {
		fmt.Fprintln(os.Stderr, "Error: -order-id is required")
		os.Exit(1)
	}

	payload := webhookPayload{ID: *eventID, EventType: *eventType}
	switch *eventType {
	case "CHECKOUT.ORDER.APPROVED", "CHECKOUT.ORDER.DECLINED":
		payload.Resource.ID = *orderID
	default:
		payload.Resource.ID = *captureID
		payload.Resource.SupplementaryData = &struct {
			RelatedIDs struct {
				OrderID string `json:"order_id"`
			} `json:"related_ids"`
		}{}
		payload.Resource.SupplementaryData.RelatedIDs.OrderID = *orderID
	}

	body, err := json.Marshal(payload)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling payload: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Body: %s\n", string(body))
	if *dryRun {
		fmt.Println("\n[DRY RUN] Not sending request")
		return
	}

	fmt.Printf("\nSending to %s...\n", *url)
	req, err := http.NewRequest(http.MethodPost, *url, bytes.NewReader(body))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating request: %v\n", err)
		os.Exit(1)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Paypal-Auth-Algo", "SHA256withRSA")
	req.Header.Set("Paypal-Cert-Url", "https://api.sandbox.paypal.com/v1/notifications/certs/CERT-mock")
	req.Header.Set("Paypal-Transmission-Id", "tx-"+randomHex(8))
	req.Header.Set("Paypal-Transmission-Sig", "sig-"+randomHex(16))
	req.Header.Set("Paypal-Transmission-Time", time.Now().UTC().Format(time.RFC3339))

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error sending request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	fmt.Printf("Status: %d\n", resp.StatusCode)
	fmt.Printf("Response: %s\n", string(respBody))

	if resp.StatusCode != http.StatusOK {
		os.Exit(1)
	}
}

func randomHex(n int) string {
	const digits = "0123456789abcdef"
	b := make([]byte, n)
	seed := time.Now().UnixNano()
	for i := 0; i < n; i++ {
		seed = seed*6364136223846793005 + 1442695040888963407
		b[i] = digits[uint64(seed)%16]
	}
	return string(b)
}
