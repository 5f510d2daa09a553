/**
 * @description
 * Billing event consumers: the handlers behind the payment-service queues that
 * keep the billing mirror and the payment processor in sync with catalog
 * state. Each handler moves one message through
 * Received -> Validated -> Applied, returning nil to acknowledge, a terminal
 * error to dead-end, or a transient error to trigger redelivery.
 *
 * Processing is idempotent under at-least-once delivery: mirror writes are
 * keyed upserts and gateway calls carry idempotency keys derived from the
 * catalog entity id, so a redelivered event cannot create a second processor
 * object.
 *
 * @notes
 * - A crash between the gateway call succeeding and the mirror write leaves an
 *   orphaned processor object; the retried event recreates the same object via
 *   its idempotency key and completes the mirror write.
 * - Deletion wins over stale updates: an update arriving after the record was
 *   deleted is parked, never applied.
 */
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/fitlink/fitlink-backend/internal/payment/domain"
)

// PlanEventConsumer processes gym plan lifecycle events.
type PlanEventConsumer struct {
	store   MirrorStore
	gateway PaymentGateway
}

// NewPlanEventConsumer creates a consumer for the gym plan topics.
func NewPlanEventConsumer(store MirrorStore, gateway PaymentGateway) *PlanEventConsumer {
	return &PlanEventConsumer{store: store, gateway: gateway}
}

// HandlePlanCreated creates the processor product and price for a new plan and
// records the mapping. A duplicate delivery finds the existing record and is a
// no-op success.
func (c *PlanEventConsumer) HandlePlanCreated(ctx context.Context, body []byte) error {
	var event domain.GymPlanCreatedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return &MalformedEventError{Topic: domain.TopicGymPlanCreated, Err: err}
	}
	if event.PlanID == "" {
		return &MalformedEventError{Topic: domain.TopicGymPlanCreated, Err: errors.New("missing planId")}
	}
	if event.Price <= 0 || event.Duration <= 0 {
		return &MalformedEventError{Topic: domain.TopicGymPlanCreated, Err: fmt.Errorf("invalid price %d or duration %d", event.Price, event.Duration)}
	}

	existing, err := c.store.FindPlanRecord(ctx, event.PlanID)
	if err != nil {
		return fmt.Errorf("lookup plan record: %w", err)
	}
	if existing != nil {
		log.Printf("level=info component=plan-consumer msg=\"duplicate plan_created; already billable\" plan_id=%s", event.PlanID)
		return nil
	}

	productID, priceID, err := c.gateway.CreatePlanProduct(ctx, event.PlanID, event.Title, event.Price, event.Duration)
	if err != nil {
		return err
	}

	if err := c.store.UpsertPlanRecord(ctx, domain.PlanBillingRecord{
		PlanID:       event.PlanID,
		ProductID:    productID,
		PriceID:      priceID,
		DurationDays: event.Duration,
	}); err != nil {
		return fmt.Errorf("record plan billing: %w", err)
	}

	log.Printf("level=info component=plan-consumer msg=\"plan billable\" plan_id=%s product_id=%s price_id=%s", event.PlanID, productID, priceID)
	return nil
}

// HandlePlanDeleted removes the plan mapping. An absent record means the plan
// was already deleted; that is a success.
func (c *PlanEventConsumer) HandlePlanDeleted(ctx context.Context, body []byte) error {
	var event domain.GymPlanDeletedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return &MalformedEventError{Topic: domain.TopicGymPlanDeleted, Err: err}
	}
	if event.PlanID == "" {
		return &MalformedEventError{Topic: domain.TopicGymPlanDeleted, Err: errors.New("missing planId")}
	}

	if err := c.store.DeletePlanRecord(ctx, event.PlanID); err != nil {
		return fmt.Errorf("delete plan record: %w", err)
	}

	log.Printf("level=info component=plan-consumer msg=\"plan billing removed\" plan_id=%s", event.PlanID)
	return nil
}

// HandlePlanUpdated replaces the plan's price object and updates the mapping
// in place. An update for a plan with no record is an ordering anomaly: the
// event is parked for operators and dead-ended, so a stale update can never
// resurrect a deleted plan.
func (c *PlanEventConsumer) HandlePlanUpdated(ctx context.Context, body []byte) error {
	var event domain.GymPlanUpdatedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return &MalformedEventError{Topic: domain.TopicGymPlanUpdated, Err: err}
	}
	if event.PlanID == "" {
		return &MalformedEventError{Topic: domain.TopicGymPlanUpdated, Err: errors.New("missing planId")}
	}

	rec, err := c.store.FindPlanRecord(ctx, event.PlanID)
	if err != nil {
		return fmt.Errorf("lookup plan record: %w", err)
	}
	if rec == nil {
		if err := c.store.ParkEvent(ctx, domain.ParkedEvent{
			EventType: domain.TopicGymPlanUpdated,
			EntityID:  event.PlanID,
			Payload:   body,
			Reason:    "price update for plan with no billing record",
			ParkedAt:  time.Now().UTC(),
		}); err != nil {
			return fmt.Errorf("park anomalous event: %w", err)
		}
		return &OrderingAnomalyError{Topic: domain.TopicGymPlanUpdated, EntityID: event.PlanID}
	}

	newPriceID, err := c.gateway.ReplacePlanPrice(ctx, event.PlanID, rec.ProductID, rec.PriceID, event.Price, event.Duration)
	if err != nil {
		return err
	}

	rec.PriceID = newPriceID
	rec.DurationDays = event.Duration
	if err := c.store.UpsertPlanRecord(ctx, *rec); err != nil {
		return fmt.Errorf("record replaced price: %w", err)
	}

	log.Printf("level=info component=plan-consumer msg=\"plan price replaced\" plan_id=%s price_id=%s", event.PlanID, newPriceID)
	return nil
}

// SessionEventConsumer processes trainer session events.
type SessionEventConsumer struct {
	store   MirrorStore
	gateway PaymentGateway
}

// NewSessionEventConsumer creates a consumer for the trainer session topic.
func NewSessionEventConsumer(store MirrorStore, gateway PaymentGateway) *SessionEventConsumer {
	return &SessionEventConsumer{store: store, gateway: gateway}
}

// HandleSessionCreated creates the one-off processor price for a bookable
// session and records the correlation used to resolve its completed checkout.
func (c *SessionEventConsumer) HandleSessionCreated(ctx context.Context, body []byte) error {
	var event domain.TrainerSessionCreatedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return &MalformedEventError{Topic: domain.TopicTrainerSessionCreated, Err: err}
	}
	if event.SessionID == "" {
		return &MalformedEventError{Topic: domain.TopicTrainerSessionCreated, Err: errors.New("missing session_id")}
	}
	if event.Price <= 0 {
		return &MalformedEventError{Topic: domain.TopicTrainerSessionCreated, Err: fmt.Errorf("invalid price %d", event.Price)}
	}

	existing, err := c.store.FindCheckoutSession(ctx, event.SessionID)
	if err != nil {
		return fmt.Errorf("lookup checkout session: %w", err)
	}
	if existing != nil {
		log.Printf("level=info component=session-consumer msg=\"duplicate session_created; already billable\" session_id=%s", event.SessionID)
		return nil
	}

	productID, priceID, err := c.gateway.CreateSessionPrice(ctx, event.SessionID, event.Price)
	if err != nil {
		return err
	}

	if err := c.store.UpsertCheckoutSession(ctx, domain.CheckoutSessionRecord{
		SessionID: event.SessionID,
		PriceID:   priceID,
		ProductID: productID,
	}); err != nil {
		return fmt.Errorf("record checkout session: %w", err)
	}

	log.Printf("level=info component=session-consumer msg=\"session billable\" session_id=%s price_id=%s", event.SessionID, priceID)
	return nil
}
