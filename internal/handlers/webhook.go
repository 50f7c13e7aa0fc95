package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"storefront_backend/internal/apperr"
)

// maxWebhookBody caps processor payloads; anything larger is malformed.
const maxWebhookBody = int64(65536)

// EventProcessor verifies and applies one raw webhook delivery; the
// reconciler service implements it.
type EventProcessor interface {
	Process(ctx context.Context, payload []byte, sigHeader string) error
}

type WebhookHandler struct {
	reconciler EventProcessor
	log        *logrus.Logger
}

func NewWebhookHandler(reconciler EventProcessor, logger *logrus.Logger) *WebhookHandler {
	return &WebhookHandler{reconciler: reconciler, log: logger}
}

// HandleStripe ingests one webhook delivery. Signature verification runs
// against the raw body, so nothing may consume or reframe it first. Every
// path answers definitively: 2xx acknowledges (including no-ops), 400 tells
// the processor to stop retrying, 404/500 invite a redelivery.
func (h *WebhookHandler) HandleStripe(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody)
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondError(c, h.log, apperr.InvalidArgument("failed to read request body"))
		return
	}

	err = h.reconciler.Process(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusOK)
}
