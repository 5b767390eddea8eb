package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"learnport.com/app/internal/shared/apperr"
)

const CtxKeyRawBody = "raw_body"

type WebhookVerifier interface {
	VerifyWebhook(ctx context.Context, headers http.Header, body []byte) (bool, error)
}

// WebhookGuard gates the webhook route on the provider's signature check.
// It is the route's only authentication: the caller is the payment provider,
// not a bearer-token user.
func WebhookGuard(v WebhookVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			Fail(c, apperr.InvalidErr("invalid body", nil))
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		ok, err := v.VerifyWebhook(c.Request.Context(), c.Request.Header, body)
		if err != nil {
			Fail(c, apperr.Wrap(err))
			return
		}
		if !ok {
			Fail(c, apperr.ForbiddenErr("invalid webhook"))
			return
		}

		c.Set(CtxKeyRawBody, body)
		c.Next()
	}
}

func RawBody(c *gin.Context) []byte {
	if v, ok := c.Get(CtxKeyRawBody); ok {
		if b, ok := v.([]byte); ok {
			return b
		}
	}
	return nil
}
