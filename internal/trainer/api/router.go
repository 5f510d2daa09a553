/**
 * @description
 * This file sets up the HTTP router for the trainer-service.
 *
 * @dependencies
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
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

// TrainerRoutes creates and returns the router for the trainer service.
func TrainerRoutes(h *SessionHandlers, jwksURL string) http.Handler {
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

	// Session reads are public; creation requires an authenticated trainer.
	r.Get("/sessions/{sessionID}", h.GetSessionHandler)

	r.Group(func(r chi.Router) {
		r.Use(authmw.AuthMiddleware(jwksURL))

		r.Get("/sessions", h.ListSessionsHandler)
		r.Post("/sessions", h.CreateSessionHandler)
	})

	return r
}
