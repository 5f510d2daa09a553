/**
 * @description
 * This file contains the HTTP handler for processing incoming webhooks from the
 * payment processor. It acts as the entry point for all real-time payment
 * notifications.
 *
 * Key features:
 * - Security: Verifies the processor's signature before touching the payload.
 * - Delegation: Hands the verified event to the webhook reconciler; a non-200
 *   response makes the processor redeliver, so transient failures self-heal.
 *
 * @dependencies
 * - github.com/stripe/stripe-go/v76/webhook: Signature verification and event
 *   construction.
 * - internal/payment/app: The webhook reconciler.
 */
package api

import (
	"io"
	"log"
	"net/http"

	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/fitlink/fitlink-backend/internal/payment/app"
)

// Processor webhook payloads are small; anything larger is not a real event.
const maxWebhookBodyBytes = 64 * 1024

// WebhookHandler verifies and processes payment processor webhooks.
type WebhookHandler struct {
	processor *app.WebhookProcessor
	secret    string
}

// NewWebhookHandler creates a new handler for the webhook endpoint.
func NewWebhookHandler(processor *app.WebhookProcessor, secret string) *WebhookHandler {
	return &WebhookHandler{processor: processor, secret: secret}
}

// ServeHTTP implements the http.Handler interface.
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Printf("level=warn component=webhook msg=\"failed to read webhook body\" err=%v", err)
		http.Error(w, "Cannot read request body", http.StatusBadRequest)
		return
	}

	event, err := webhook.ConstructEvent(body, r.Header.Get("Stripe-Signature"), h.secret)
	if err != nil {
		log.Printf("level=warn component=webhook msg=\"signature verification failed\" remote=%s err=%v", r.RemoteAddr, err)
		http.Error(w, "Invalid signature", http.StatusBadRequest)
		return
	}

	if err := h.processor.ProcessEvent(r.Context(), event); err != nil {
		log.Printf("level=error component=webhook msg=\"event processing failed\" event_id=%s type=%s err=%v", event.ID, event.Type, err)
		http.Error(w, "Event processing failed", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}
