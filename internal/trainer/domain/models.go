/**
 * @description
 * Domain models and event contracts for the trainer-service. The service owns
 * the bookable session catalog and announces new sessions on the shared topic
 * exchange.
 */
package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventsExchange is the shared topic exchange for domain events.
const EventsExchange = "fitlink.events"

// TopicSessionCreated is the routing key for new bookable sessions.
const TopicSessionCreated = "trainer_session_created"

// Session is a bookable one-on-one training session. Price is in the smallest
// currency unit.
type Session struct {
	ID        uuid.UUID `json:"id"`
	TrainerID string    `json:"trainer_id"`
	Title     string    `json:"title"`
	Price     int64     `json:"price"`
	StartsAt  time.Time `json:"starts_at"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionCreatedEvent announces a bookable session.
type SessionCreatedEvent struct {
	SessionID string    `json:"session_id"`
	Price     int64     `json:"price"`
	CreatedAt time.Time `json:"createdAt"`
}
