/**
 * @description
 * HTTP handlers for the trainer-service session catalog endpoints.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fitlink/fitlink-backend/internal/trainer/app"
	"github.com/fitlink/fitlink-backend/internal/trainer/store"
	authmw "github.com/fitlink/fitlink-backend/pkg/middleware"
)

// SessionHandlers holds the catalog service that handlers will use.
type SessionHandlers struct {
	service *app.Service
}

// NewSessionHandlers creates a new instance of SessionHandlers.
func NewSessionHandlers(service *app.Service) *SessionHandlers {
	return &SessionHandlers{service: service}
}

type createSessionRequest struct {
	Title    string    `json:"title"`
	Price    int64     `json:"price"`
	StartsAt time.Time `json:"starts_at"`
}

// CreateSessionHandler commits a new bookable session for the authenticated
// trainer.
func (h *SessionHandlers) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	trainerID, ok := authmw.UserFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not get user ID from context")
		return
	}

	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, err := h.service.CreateSession(r.Context(), trainerID, req.Title, req.Price, req.StartsAt)
	if err != nil {
		if session != nil {
			log.Printf("level=warn component=api endpoint=create_session msg=\"returning committed session despite publish failure\" session_id=%s", session.ID)
			h.writeJSON(w, http.StatusCreated, map[string]interface{}{"session": session, "warning": "session saved; propagation delayed"})
			return
		}
		if errors.Is(err, app.ErrInvalidInput) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("level=error component=api endpoint=create_session msg=\"creation failed\" err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	h.writeJSON(w, http.StatusCreated, session)
}

// GetSessionHandler fetches a single session.
func (h *SessionHandlers) GetSessionHandler(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			h.writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		log.Printf("level=error component=api endpoint=get_session msg=\"lookup failed\" err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to fetch session")
		return
	}
	h.writeJSON(w, http.StatusOK, session)
}

// ListSessionsHandler returns the authenticated trainer's sessions.
func (h *SessionHandlers) ListSessionsHandler(w http.ResponseWriter, r *http.Request) {
	trainerID, ok := authmw.UserFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not get user ID from context")
		return
	}

	sessions, err := h.service.ListSessions(r.Context(), trainerID)
	if err != nil {
		log.Printf("level=error component=api endpoint=list_sessions msg=\"listing failed\" trainer_id=%s err=%v", trainerID, err)
		h.writeError(w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
}

// writeJSON is a helper for writing JSON responses.
func (h *SessionHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("level=error component=api msg=\"failed to encode response\" err=%v", err)
	}
}

// writeError is a helper for writing JSON error responses.
func (h *SessionHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
