/**
 * @description
 * Domain models and event contracts for the gym-service. The service owns the
 * plan catalog and announces every committed change on the shared topic
 * exchange so downstream services (billing first among them) can react.
 */
package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventsExchange is the shared topic exchange for domain events.
const EventsExchange = "fitlink.events"

// Routing keys for plan lifecycle events.
const (
	TopicPlanCreated = "gym_plan_created"
	TopicPlanDeleted = "gym_plan_deleted"
	TopicPlanUpdated = "gym_plan_updated"
)

// Plan is a gym membership plan. Price is in the smallest currency unit,
// Duration is the billing period in days.
type Plan struct {
	ID        uuid.UUID `json:"id"`
	GymID     string    `json:"gym_id"`
	Title     string    `json:"title"`
	Price     int64     `json:"price"`
	Duration  int       `json:"duration"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PlanCreatedEvent announces a newly committed plan.
type PlanCreatedEvent struct {
	PlanID    string    `json:"planId"`
	Title     string    `json:"title"`
	Price     int64     `json:"price"`
	Duration  int       `json:"duration"`
	CreatedAt time.Time `json:"createdAt"`
}

// PlanDeletedEvent announces a plan deletion.
type PlanDeletedEvent struct {
	PlanID    string    `json:"planId"`
	CreatedAt time.Time `json:"createdAt"`
}

// PlanUpdatedEvent announces a price or duration change.
type PlanUpdatedEvent struct {
	PlanID    string    `json:"planId"`
	Price     int64     `json:"price"`
	Duration  int       `json:"duration"`
	UpdatedAt time.Time `json:"updatedAt"`
}
