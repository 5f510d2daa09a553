/**
 * @description
 * HTTP handlers for the gym-service plan catalog endpoints.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fitlink/fitlink-backend/internal/gym/app"
	"github.com/fitlink/fitlink-backend/internal/gym/store"
	authmw "github.com/fitlink/fitlink-backend/pkg/middleware"
)

// PlanHandlers holds the catalog service that handlers will use.
type PlanHandlers struct {
	service *app.Service
}

// NewPlanHandlers creates a new instance of PlanHandlers.
func NewPlanHandlers(service *app.Service) *PlanHandlers {
	return &PlanHandlers{service: service}
}

type createPlanRequest struct {
	Title    string `json:"title"`
	Price    int64  `json:"price"`
	Duration int    `json:"duration"`
}

type updatePlanRequest struct {
	Price    int64 `json:"price"`
	Duration int   `json:"duration"`
}

// CreatePlanHandler commits a new plan for the authenticated gym.
func (h *PlanHandlers) CreatePlanHandler(w http.ResponseWriter, r *http.Request) {
	gymID, ok := authmw.UserFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not get user ID from context")
		return
	}

	var req createPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	plan, err := h.service.CreatePlan(r.Context(), gymID, req.Title, req.Price, req.Duration)
	if err != nil {
		if plan != nil {
			// Committed but not announced; the client gets the plan and a hint
			// that propagation is delayed.
			log.Printf("level=warn component=api endpoint=create_plan msg=\"returning committed plan despite publish failure\" plan_id=%s", plan.ID)
			h.writeJSON(w, http.StatusCreated, map[string]interface{}{"plan": plan, "warning": "plan saved; propagation delayed"})
			return
		}
		if errors.Is(err, app.ErrInvalidInput) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("level=error component=api endpoint=create_plan msg=\"creation failed\" err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to create plan")
		return
	}

	h.writeJSON(w, http.StatusCreated, plan)
}

// GetPlanHandler fetches a single plan.
func (h *PlanHandlers) GetPlanHandler(w http.ResponseWriter, r *http.Request) {
	plan, err := h.service.GetPlan(r.Context(), chi.URLParam(r, "planID"))
	if err != nil {
		if errors.Is(err, store.ErrPlanNotFound) {
			h.writeError(w, http.StatusNotFound, "Plan not found")
			return
		}
		log.Printf("level=error component=api endpoint=get_plan msg=\"lookup failed\" err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to fetch plan")
		return
	}
	h.writeJSON(w, http.StatusOK, plan)
}

// ListPlansHandler returns the authenticated gym's plans.
func (h *PlanHandlers) ListPlansHandler(w http.ResponseWriter, r *http.Request) {
	gymID, ok := authmw.UserFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not get user ID from context")
		return
	}

	plans, err := h.service.ListPlans(r.Context(), gymID)
	if err != nil {
		log.Printf("level=error component=api endpoint=list_plans msg=\"listing failed\" gym_id=%s err=%v", gymID, err)
		h.writeError(w, http.StatusInternalServerError, "Failed to list plans")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"plans": plans})
}

// UpdatePlanHandler changes a plan's price and duration.
func (h *PlanHandlers) UpdatePlanHandler(w http.ResponseWriter, r *http.Request) {
	var req updatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	plan, err := h.service.UpdatePlanPrice(r.Context(), chi.URLParam(r, "planID"), req.Price, req.Duration)
	if err != nil {
		if errors.Is(err, store.ErrPlanNotFound) {
			h.writeError(w, http.StatusNotFound, "Plan not found")
			return
		}
		if plan != nil {
			log.Printf("level=warn component=api endpoint=update_plan msg=\"returning updated plan despite publish failure\" plan_id=%s", plan.ID)
			h.writeJSON(w, http.StatusOK, map[string]interface{}{"plan": plan, "warning": "plan saved; propagation delayed"})
			return
		}
		if errors.Is(err, app.ErrInvalidInput) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("level=error component=api endpoint=update_plan msg=\"update failed\" err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to update plan")
		return
	}

	h.writeJSON(w, http.StatusOK, plan)
}

// DeletePlanHandler removes a plan.
func (h *PlanHandlers) DeletePlanHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeletePlan(r.Context(), chi.URLParam(r, "planID")); err != nil {
		if errors.Is(err, store.ErrPlanNotFound) {
			h.writeError(w, http.StatusNotFound, "Plan not found")
			return
		}
		log.Printf("level=error component=api endpoint=delete_plan msg=\"deletion failed\" err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to delete plan")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// writeJSON is a helper for writing JSON responses.
func (h *PlanHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("level=error component=api msg=\"failed to encode response\" err=%v", err)
	}
}

// writeError is a helper for writing JSON error responses.
func (h *PlanHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
