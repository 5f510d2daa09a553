/**
 * @description
 * Webhook reconciliation logic. The processor is the source of truth for
 * subscriptions and charges; this component applies its view back into the
 * billing mirror and triggers the confirmation notifications.
 *
 * Idempotency: events are deduplicated by the processor event id, and the id
 * is only marked processed after all side effects succeed. A redelivered event
 * is a no-op; a half-processed event is redelivered and the keyed upserts make
 * the replayed writes harmless.
 */
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/stripe/stripe-go/v76"

	"github.com/fitlink/fitlink-backend/internal/payment/domain"
)

// Processor event types the reconciler dispatches on.
const (
	eventCheckoutCompleted   = "checkout.session.completed"
	eventSubscriptionDeleted = "customer.subscription.deleted"
	eventInvoiceFailed       = "invoice.payment_failed"
)

// WebhookProcessor applies verified processor events to the billing mirror.
type WebhookProcessor struct {
	store     MirrorStore
	publisher EventPublisher
	deduper   EventDeduper
}

// NewWebhookProcessor creates the reconciler with its dependencies.
func NewWebhookProcessor(store MirrorStore, publisher EventPublisher, deduper EventDeduper) *WebhookProcessor {
	return &WebhookProcessor{store: store, publisher: publisher, deduper: deduper}
}

// ProcessEvent handles one signature-verified processor event. Returning an
// error signals the HTTP layer to respond non-200 so the processor redelivers.
func (p *WebhookProcessor) ProcessEvent(ctx context.Context, event stripe.Event) error {
	seen, err := p.deduper.Seen(ctx, event.ID)
	if err != nil {
		// Fail open: the keyed mirror writes are idempotent, only the
		// notification publish relies on dedup and a rare double send beats
		// dropping the event.
		log.Printf("level=warn component=webhook msg=\"dedup lookup failed; processing anyway\" event_id=%s err=%v", event.ID, err)
	}
	if seen {
		log.Printf("level=info component=webhook msg=\"duplicate event ignored\" event_id=%s type=%s", event.ID, event.Type)
		return nil
	}

	switch string(event.Type) {
	case eventCheckoutCompleted:
		if err := p.handleCheckoutCompleted(ctx, event); err != nil {
			return err
		}
	case eventSubscriptionDeleted:
		if err := p.handleSubscriptionDeleted(ctx, event); err != nil {
			return err
		}
	case eventInvoiceFailed:
		if err := p.handleInvoiceFailed(ctx, event); err != nil {
			return err
		}
	default:
		log.Printf("level=info component=webhook msg=\"unhandled event type\" event_id=%s type=%s", event.ID, event.Type)
		return nil
	}

	if err := p.deduper.MarkProcessed(ctx, event.ID); err != nil {
		log.Printf("level=warn component=webhook msg=\"failed to mark event processed\" event_id=%s err=%v", event.ID, err)
	}
	return nil
}

func (p *WebhookProcessor) handleCheckoutCompleted(ctx context.Context, event stripe.Event) error {
	var cs stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
		// A payload we cannot decode will not improve on redelivery.
		log.Printf("level=error component=webhook msg=\"undecodable checkout session\" event_id=%s err=%v", event.ID, err)
		return nil
	}

	switch cs.Mode {
	case stripe.CheckoutSessionModeSubscription:
		return p.activateSubscription(ctx, event.ID, cs)
	case stripe.CheckoutSessionModePayment:
		return p.confirmSessionBooking(ctx, event.ID, cs)
	default:
		log.Printf("level=warn component=webhook msg=\"unhandled checkout mode\" event_id=%s mode=%s", event.ID, cs.Mode)
		return nil
	}
}

func (p *WebhookProcessor) activateSubscription(ctx context.Context, eventID string, cs stripe.CheckoutSession) error {
	customerID := cs.Metadata["customer_id"]
	planID := cs.Metadata["plan_id"]
	if customerID == "" || planID == "" {
		log.Printf("level=error component=webhook msg=\"checkout metadata missing customer_id or plan_id\" event_id=%s checkout=%s", eventID, cs.ID)
		return nil
	}

	var processorSubID string
	if cs.Subscription != nil {
		processorSubID = cs.Subscription.ID
	}

	// The period end comes from the plan's billing duration; the lapse sweep
	// depends on it being set for every activated subscription.
	var periodEnd *time.Time
	plan, err := p.store.FindPlanRecord(ctx, planID)
	if err != nil {
		return fmt.Errorf("resolve plan for activation: %w", err)
	}
	if plan != nil && plan.DurationDays > 0 {
		end := time.Now().UTC().AddDate(0, 0, plan.DurationDays)
		periodEnd = &end
	} else {
		log.Printf("level=warn component=webhook msg=\"activating subscription without period end\" event_id=%s plan_id=%s", eventID, planID)
	}

	if err := p.store.UpsertSubscription(ctx, domain.Subscription{
		CustomerID:              customerID,
		PlanID:                  planID,
		ProcessorSubscriptionID: processorSubID,
		Status:                  domain.SubscriptionActive,
		CurrentPeriodEnd:        periodEnd,
	}); err != nil {
		return fmt.Errorf("activate subscription: %w", err)
	}

	if err := p.publisher.Publish(ctx, domain.EventsExchange, domain.TopicSubscriptionConfirmed, domain.SubscriptionConfirmedEvent{
		CustomerID:              customerID,
		PlanID:                  planID,
		ProcessorSubscriptionID: processorSubID,
		ConfirmedAt:             time.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("publish subscription confirmation: %w", err)
	}

	log.Printf("level=info component=webhook msg=\"subscription activated\" customer_id=%s plan_id=%s", customerID, planID)
	return nil
}

func (p *WebhookProcessor) confirmSessionBooking(ctx context.Context, eventID string, cs stripe.CheckoutSession) error {
	customerID := cs.Metadata["customer_id"]
	sessionID := cs.Metadata["session_id"]
	if sessionID == "" {
		log.Printf("level=error component=webhook msg=\"checkout metadata missing session_id\" event_id=%s checkout=%s", eventID, cs.ID)
		return nil
	}

	rec, err := p.store.FindCheckoutSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("resolve checkout session: %w", err)
	}
	if rec == nil {
		log.Printf("level=error component=webhook msg=\"completed checkout for unknown session\" event_id=%s session_id=%s", eventID, sessionID)
		return nil
	}

	if err := p.publisher.Publish(ctx, domain.EventsExchange, domain.TopicSessionBookingConfirmed, domain.SessionBookingConfirmedEvent{
		CustomerID:  customerID,
		SessionID:   rec.SessionID,
		PriceID:     rec.PriceID,
		ProductID:   rec.ProductID,
		ConfirmedAt: time.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("publish booking confirmation: %w", err)
	}

	log.Printf("level=info component=webhook msg=\"session booking confirmed\" session_id=%s customer_id=%s", sessionID, customerID)
	return nil
}

func (p *WebhookProcessor) handleSubscriptionDeleted(ctx context.Context, event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		log.Printf("level=error component=webhook msg=\"undecodable subscription\" event_id=%s err=%v", event.ID, err)
		return nil
	}

	if err := p.store.UpdateSubscriptionStatusByProcessorID(ctx, sub.ID, domain.SubscriptionInactive); err != nil {
		return fmt.Errorf("deactivate subscription: %w", err)
	}

	log.Printf("level=info component=webhook msg=\"subscription deactivated\" processor_subscription_id=%s", sub.ID)
	return nil
}

func (p *WebhookProcessor) handleInvoiceFailed(ctx context.Context, event stripe.Event) error {
	var inv stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
		log.Printf("level=error component=webhook msg=\"undecodable invoice\" event_id=%s err=%v", event.ID, err)
		return nil
	}
	if inv.Subscription == nil {
		log.Printf("level=info component=webhook msg=\"payment failure without subscription; ignoring\" event_id=%s invoice=%s", event.ID, inv.ID)
		return nil
	}

	if err := p.store.UpdateSubscriptionStatusByProcessorID(ctx, inv.Subscription.ID, domain.SubscriptionPastDue); err != nil {
		return fmt.Errorf("mark subscription past due: %w", err)
	}

	log.Printf("level=info component=webhook msg=\"subscription past due\" processor_subscription_id=%s", inv.Subscription.ID)
	return nil
}
