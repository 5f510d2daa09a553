/**
 * @description
 * This file sets up the HTTP router for the gym-service. It defines the API
 * endpoints, associates them with their corresponding handlers, and applies any
 * necessary middleware, such as for authentication.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
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

// GymRoutes creates and returns the router for the gym service.
func GymRoutes(h *PlanHandlers, jwksURL string) http.Handler {
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

	// Plan reads are public; mutations require an authenticated gym owner.
	r.Get("/plans/{planID}", h.GetPlanHandler)

	r.Group(func(r chi.Router) {
		r.Use(authmw.AuthMiddleware(jwksURL))

		r.Get("/plans", h.ListPlansHandler)
		r.Post("/plans", h.CreatePlanHandler)
		r.Put("/plans/{planID}", h.UpdatePlanHandler)
		r.Delete("/plans/{planID}", h.DeletePlanHandler)
	})

	return r
}
