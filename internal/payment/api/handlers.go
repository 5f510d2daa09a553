/**
 * @description
 * This file contains the HTTP handlers for the payment-service's API endpoints.
 * Handlers parse incoming requests, call the billing service, and write the
 * HTTP response. They act as the bridge between the web layer and the business
 * logic layer.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - internal/payment/app: Billing service logic and sentinel errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/fitlink/fitlink-backend/internal/payment/app"
	authmw "github.com/fitlink/fitlink-backend/pkg/middleware"
	"github.com/fitlink/fitlink-backend/pkg/stripegateway"
)

// BillingHandlers holds the billing service that handlers will use.
type BillingHandlers struct {
	service *app.Service
}

// NewBillingHandlers creates a new instance of BillingHandlers.
func NewBillingHandlers(service *app.Service) *BillingHandlers {
	return &BillingHandlers{service: service}
}

type subscribeRequest struct {
	PlanID string `json:"plan_id"`
	Email  string `json:"email"`
}

type bookSessionRequest struct {
	SessionID string `json:"session_id"`
	Email     string `json:"email"`
}

type connectedAccountRequest struct {
	Email string `json:"email"`
}

// SubscribeHandler creates a subscription checkout session for the
// authenticated customer and returns the redirect URL.
func (h *BillingHandlers) SubscribeHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := authmw.UserFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not get user ID from context")
		return
	}

	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.PlanID == "" {
		h.writeError(w, http.StatusBadRequest, "plan_id is required")
		return
	}

	intent, err := h.service.Subscribe(r.Context(), userID, req.Email, req.PlanID)
	if err != nil {
		if errors.Is(err, app.ErrPlanNotBillable) {
			h.writeError(w, http.StatusNotFound, "Plan is not available for billing yet")
			return
		}
		log.Printf("level=error component=api endpoint=subscribe msg=\"checkout creation failed\" customer_id=%s plan_id=%s err=%v", userID, req.PlanID, err)
		h.writeError(w, http.StatusBadGateway, "Failed to create checkout session")
		return
	}

	h.writeJSON(w, http.StatusCreated, intent)
}

// BookSessionHandler creates a one-off payment checkout for a trainer session.
func (h *BillingHandlers) BookSessionHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := authmw.UserFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not get user ID from context")
		return
	}

	var req bookSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.SessionID == "" {
		h.writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	intent, err := h.service.BookSession(r.Context(), userID, req.Email, req.SessionID)
	if err != nil {
		if errors.Is(err, app.ErrSessionNotBillable) {
			h.writeError(w, http.StatusNotFound, "Session is not available for booking yet")
			return
		}
		log.Printf("level=error component=api endpoint=book_session msg=\"checkout creation failed\" customer_id=%s session_id=%s err=%v", userID, req.SessionID, err)
		h.writeError(w, http.StatusBadGateway, "Failed to create checkout session")
		return
	}

	h.writeJSON(w, http.StatusCreated, intent)
}

// CancelSubscriptionHandler cancels the authenticated customer's subscription
// at the payment processor.
func (h *BillingHandlers) CancelSubscriptionHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := authmw.UserFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not get user ID from context")
		return
	}

	if err := h.service.Cancel(r.Context(), userID); err != nil {
		if errors.Is(err, app.ErrNoSubscription) {
			h.writeError(w, http.StatusNotFound, "No subscription to cancel")
			return
		}
		log.Printf("level=error component=api endpoint=cancel msg=\"cancellation failed\" customer_id=%s err=%v", userID, err)
		h.writeError(w, http.StatusBadGateway, "Failed to cancel subscription")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "canceled"})
}

// GetSubscriptionHandler returns the customer's current subscription state
// from the billing mirror.
func (h *BillingHandlers) GetSubscriptionHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := authmw.UserFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not get user ID from context")
		return
	}

	sub, err := h.service.GetSubscription(r.Context(), userID)
	if err != nil {
		if errors.Is(err, app.ErrNoSubscription) {
			h.writeError(w, http.StatusNotFound, "No subscription found")
			return
		}
		log.Printf("level=error component=api endpoint=get_subscription msg=\"lookup failed\" customer_id=%s err=%v", userID, err)
		h.writeError(w, http.StatusInternalServerError, "Failed to fetch subscription")
		return
	}

	h.writeJSON(w, http.StatusOK, sub)
}

// ListInvoicesHandler returns the customer's invoices from the processor.
func (h *BillingHandlers) ListInvoicesHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := authmw.UserFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not get user ID from context")
		return
	}

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			h.writeError(w, http.StatusBadRequest, "limit must be an integer between 1 and 100")
			return
		}
		limit = parsed
	}

	invoices, err := h.service.GetInvoices(r.Context(), userID, limit)
	if err != nil {
		log.Printf("level=error component=api endpoint=list_invoices msg=\"invoice fetch failed\" customer_id=%s err=%v", userID, err)
		h.writeError(w, http.StatusBadGateway, "Failed to fetch invoices")
		return
	}
	if invoices == nil {
		invoices = []stripegateway.Invoice{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"invoices": invoices})
}

// CreateConnectedAccountHandler registers a payout account for a gym owner or
// trainer. Calling it again returns the existing account.
func (h *BillingHandlers) CreateConnectedAccountHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := authmw.UserFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not get user ID from context")
		return
	}

	var req connectedAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	rec, err := h.service.CreateConnectedAccount(r.Context(), userID, req.Email)
	if err != nil {
		log.Printf("level=error component=api endpoint=create_account msg=\"connected account creation failed\" user_id=%s err=%v", userID, err)
		h.writeError(w, http.StatusBadGateway, "Failed to create payout account")
		return
	}

	h.writeJSON(w, http.StatusCreated, rec)
}

// writeJSON is a helper for writing JSON responses.
func (h *BillingHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("level=error component=api msg=\"failed to encode response\" err=%v", err)
	}
}

// writeError is a helper for writing JSON error responses.
func (h *BillingHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
