/**
 * @description
 * Event contracts consumed and produced by the payment-service. Catalog
 * services publish the gym/trainer topics; the payment-service publishes
 * billing notifications after webhook reconciliation.
 */
package domain

import "time"

// EventsExchange is the shared topic exchange for domain events.
const EventsExchange = "fitlink.events"

// Routing keys for catalog events consumed by the billing event consumer.
const (
	TopicGymPlanCreated        = "gym_plan_created"
	TopicGymPlanDeleted        = "gym_plan_deleted"
	TopicGymPlanUpdated        = "gym_plan_updated"
	TopicTrainerSessionCreated = "trainer_session_created"
)

// Routing keys for notifications published after webhook reconciliation.
const (
	TopicSubscriptionConfirmed   = "billing.subscription.confirmed"
	TopicSessionBookingConfirmed = "billing.session.confirmed"
)

// GymPlanCreatedEvent announces a newly committed gym plan.
type GymPlanCreatedEvent struct {
	PlanID    string    `json:"planId"`
	Title     string    `json:"title"`
	Price     int64     `json:"price"`
	Duration  int       `json:"duration"`
	CreatedAt time.Time `json:"createdAt"`
}

// GymPlanDeletedEvent announces a gym plan deletion.
type GymPlanDeletedEvent struct {
	PlanID    string    `json:"planId"`
	CreatedAt time.Time `json:"createdAt"`
}

// GymPlanUpdatedEvent announces a price or duration change on a gym plan.
type GymPlanUpdatedEvent struct {
	PlanID    string    `json:"planId"`
	Price     int64     `json:"price"`
	Duration  int       `json:"duration"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TrainerSessionCreatedEvent announces a bookable trainer session.
type TrainerSessionCreatedEvent struct {
	SessionID string    `json:"session_id"`
	Price     int64     `json:"price"`
	CreatedAt time.Time `json:"createdAt"`
}

// SubscriptionConfirmedEvent is published once per completed subscription
// checkout so the notification pipeline can send the confirmation.
type SubscriptionConfirmedEvent struct {
	CustomerID              string    `json:"customer_id"`
	PlanID                  string    `json:"plan_id"`
	ProcessorSubscriptionID string    `json:"processor_subscription_id"`
	ConfirmedAt             time.Time `json:"confirmed_at"`
}

// SessionBookingConfirmedEvent is published once per completed one-time
// checkout for a trainer session.
type SessionBookingConfirmedEvent struct {
	CustomerID  string    `json:"customer_id"`
	SessionID   string    `json:"session_id"`
	PriceID     string    `json:"price_id"`
	ProductID   string    `json:"product_id"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}
