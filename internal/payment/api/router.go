/**
 * @description
 * This file sets up the HTTP router for the payment-service. It defines the API
 * endpoints, associates them with their corresponding handlers, and applies any
 * necessary middleware, such as for authentication.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 * - github.com/go-chi/cors: CORS middleware for browser clients.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	authmw "github.com/fitlink/fitlink-backend/pkg/middleware"
)

// PaymentRoutes creates and returns the router for the payment service.
// The webhook endpoint is authenticated by signature, not by JWT, so it sits
// outside the auth group.
func PaymentRoutes(h *BillingHandlers, wh *WebhookHandler, jwksURL string) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// Processor webhooks are verified by signature inside the handler.
	r.Post("/webhook", wh.ServeHTTP)

	// Group routes that require authentication.
	r.Route("/billing", func(r chi.Router) {
		r.Use(authmw.AuthMiddleware(jwksURL))

		r.Post("/subscribe", h.SubscribeHandler)
		r.Post("/sessions/book", h.BookSessionHandler)
		r.Post("/cancel", h.CancelSubscriptionHandler)
		r.Post("/accounts", h.CreateConnectedAccountHandler)
		r.Get("/subscription", h.GetSubscriptionHandler)
		r.Get("/invoices", h.ListInvoicesHandler)
	})

	return r
}
