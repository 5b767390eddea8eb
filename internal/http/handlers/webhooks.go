package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"learnport.com/app/internal/http/middleware"
	"learnport.com/app/internal/modules/payments"
	"learnport.com/app/internal/modules/webhooks"
	"learnport.com/app/internal/shared/apperr"
)

type WebhookHandler struct {
	Webhooks *webhooks.Service
}

func NewWebhookHandler(svc *webhooks.Service) *WebhookHandler {
	return &WebhookHandler{Webhooks: svc}
}

type webhookEventBody struct {
	ID        string          `json:"id"`
	EventType string          `json:"event_type"`
	Resource  json.RawMessage `json:"resource"`
}

// POST /api/webhooks/paypal
// Signature already checked by the WebhookGuard middleware.
func (h *WebhookHandler) HandlePayPal(c *gin.Context) {
	body := middleware.RawBody(c)

	var ev webhookEventBody
	if err := json.Unmarshal(body, &ev); err != nil || ev.EventType == "" {
		middleware.Fail(c, apperr.InvalidErr("invalid webhook payload", nil))
		return
	}

	outcome, err := h.Webhooks.ProcessDelivery(c.Request.Context(), ev.ID, ev.EventType, ev.Resource, body)
	if err != nil {
		var provider *payments.ProviderError
		switch {
		case errors.As(err, &provider):
			middleware.Fail(c, &apperr.AppError{Kind: apperr.Internal, PublicMsg: provider.Error(), Err: err})
		default:
			if _, ok := apperr.As(err); ok {
				middleware.Fail(c, err)
				return
			}
			// 500 so the provider retries the delivery.
			middleware.Fail(c, apperr.Wrap(err))
		}
		return
	}

	c.JSON(http.StatusOK, outcome)
}
