package app

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v76"

	"github.com/fitlink/fitlink-backend/internal/payment/domain"
)

func stripeEvent(t *testing.T, id, eventType string, payload interface{}) stripe.Event {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return stripe.Event{
		ID:   id,
		Type: stripe.EventType(eventType),
		Data: &stripe.EventData{Raw: raw},
	}
}

func subscriptionCheckoutPayload(customerID, planID string) map[string]interface{} {
	return map[string]interface{}{
		"id":           "cs_test_1",
		"mode":         "subscription",
		"subscription": map[string]interface{}{"id": "sub_123"},
		"metadata": map[string]string{
			"customer_id": customerID,
			"plan_id":     planID,
		},
	}
}

func TestWebhookActivatesSubscription(t *testing.T) {
	store := newFakeMirrorStore()
	store.plans["plan-1"] = domain.PlanBillingRecord{PlanID: "plan-1", ProductID: "prod_1", PriceID: "price_1", DurationDays: 30}
	publisher := &fakePublisher{}
	processor := NewWebhookProcessor(store, publisher, NewMemoryEventDeduper(time.Hour))

	event := stripeEvent(t, "evt_1", "checkout.session.completed", subscriptionCheckoutPayload("cust-1", "plan-1"))
	if err := processor.ProcessEvent(context.Background(), event); err != nil {
		t.Fatalf("ProcessEvent: %v", err)
	}

	sub, _ := store.FindSubscriptionByCustomerID(context.Background(), "cust-1")
	if sub == nil {
		t.Fatal("expected subscription record")
	}
	if sub.Status != domain.SubscriptionActive {
		t.Fatalf("expected active, got %q", sub.Status)
	}
	if sub.ProcessorSubscriptionID != "sub_123" {
		t.Fatalf("expected processor sub id, got %q", sub.ProcessorSubscriptionID)
	}
	if publisher.count(domain.TopicSubscriptionConfirmed) != 1 {
		t.Fatal("expected one confirmation notification")
	}
}

// The lapse sweep only sees subscriptions with a period end; activation must
// always derive one from the plan's billing duration.
func TestWebhookActivationSetsPeriodEndFromPlanDuration(t *testing.T) {
	store := newFakeMirrorStore()
	store.plans["plan-1"] = domain.PlanBillingRecord{PlanID: "plan-1", ProductID: "prod_1", PriceID: "price_1", DurationDays: 30}
	processor := NewWebhookProcessor(store, &fakePublisher{}, NewMemoryEventDeduper(time.Hour))

	before := time.Now().UTC()
	event := stripeEvent(t, "evt_1", "checkout.session.completed", subscriptionCheckoutPayload("cust-1", "plan-1"))
	if err := processor.ProcessEvent(context.Background(), event); err != nil {
		t.Fatalf("ProcessEvent: %v", err)
	}
	after := time.Now().UTC()

	sub, _ := store.FindSubscriptionByCustomerID(context.Background(), "cust-1")
	if sub == nil || sub.CurrentPeriodEnd == nil {
		t.Fatal("activation must set the subscription's period end")
	}
	lo := before.AddDate(0, 0, 30)
	hi := after.AddDate(0, 0, 30)
	if sub.CurrentPeriodEnd.Before(lo) || sub.CurrentPeriodEnd.After(hi) {
		t.Fatalf("period end %v outside [%v, %v]", sub.CurrentPeriodEnd, lo, hi)
	}
}

func TestWebhookActivationWithoutPlanRecordStillActivates(t *testing.T) {
	store := newFakeMirrorStore()
	processor := NewWebhookProcessor(store, &fakePublisher{}, NewMemoryEventDeduper(time.Hour))

	event := stripeEvent(t, "evt_1", "checkout.session.completed", subscriptionCheckoutPayload("cust-1", "plan-gone"))
	if err := processor.ProcessEvent(context.Background(), event); err != nil {
		t.Fatalf("ProcessEvent: %v", err)
	}

	sub, _ := store.FindSubscriptionByCustomerID(context.Background(), "cust-1")
	if sub == nil || sub.Status != domain.SubscriptionActive {
		t.Fatal("a paid checkout must activate even when the plan record is gone")
	}
	if sub.CurrentPeriodEnd != nil {
		t.Fatal("no period end can be derived without a plan record")
	}
}

func TestWebhookDoubleDeliverySendsOneNotification(t *testing.T) {
	store := newFakeMirrorStore()
	publisher := &fakePublisher{}
	processor := NewWebhookProcessor(store, publisher, NewMemoryEventDeduper(time.Hour))

	event := stripeEvent(t, "evt_1", "checkout.session.completed", subscriptionCheckoutPayload("cust-1", "plan-1"))
	if err := processor.ProcessEvent(context.Background(), event); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if err := processor.ProcessEvent(context.Background(), event); err != nil {
		t.Fatalf("second delivery: %v", err)
	}

	if got := publisher.count(domain.TopicSubscriptionConfirmed); got != 1 {
		t.Fatalf("expected exactly one notification, got %d", got)
	}
}

func TestWebhookFailedActivationIsNotMarkedProcessed(t *testing.T) {
	store := newFakeMirrorStore()
	store.upsertSubErr = contextDeadlineErr{}
	publisher := &fakePublisher{}
	deduper := NewMemoryEventDeduper(time.Hour)
	processor := NewWebhookProcessor(store, publisher, deduper)

	event := stripeEvent(t, "evt_1", "checkout.session.completed", subscriptionCheckoutPayload("cust-1", "plan-1"))
	if err := processor.ProcessEvent(context.Background(), event); err == nil {
		t.Fatal("expected error")
	}

	// The processor will redeliver; the retry must not be treated as a dup.
	store.upsertSubErr = nil
	if err := processor.ProcessEvent(context.Background(), event); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if sub, _ := store.FindSubscriptionByCustomerID(context.Background(), "cust-1"); sub == nil {
		t.Fatal("redelivery should complete the activation")
	}
}

func TestWebhookPaymentModeConfirmsBooking(t *testing.T) {
	store := newFakeMirrorStore()
	store.sessions["sess-1"] = domain.CheckoutSessionRecord{SessionID: "sess-1", PriceID: "price_1", ProductID: "prod_1"}
	publisher := &fakePublisher{}
	processor := NewWebhookProcessor(store, publisher, NewMemoryEventDeduper(time.Hour))

	event := stripeEvent(t, "evt_2", "checkout.session.completed", map[string]interface{}{
		"id":   "cs_test_2",
		"mode": "payment",
		"metadata": map[string]string{
			"customer_id": "cust-1",
			"session_id":  "sess-1",
		},
	})
	if err := processor.ProcessEvent(context.Background(), event); err != nil {
		t.Fatalf("ProcessEvent: %v", err)
	}

	if publisher.count(domain.TopicSessionBookingConfirmed) != 1 {
		t.Fatal("expected one booking confirmation")
	}
}

func TestWebhookSubscriptionDeletedDeactivates(t *testing.T) {
	store := newFakeMirrorStore()
	store.subs["cust-1"] = domain.Subscription{
		CustomerID:              "cust-1",
		PlanID:                  "plan-1",
		ProcessorSubscriptionID: "sub_123",
		Status:                  domain.SubscriptionActive,
	}
	processor := NewWebhookProcessor(store, &fakePublisher{}, NewMemoryEventDeduper(time.Hour))

	event := stripeEvent(t, "evt_3", "customer.subscription.deleted", map[string]interface{}{"id": "sub_123"})
	if err := processor.ProcessEvent(context.Background(), event); err != nil {
		t.Fatalf("ProcessEvent: %v", err)
	}

	sub, _ := store.FindSubscriptionByCustomerID(context.Background(), "cust-1")
	if sub.Status != domain.SubscriptionInactive {
		t.Fatalf("expected inactive, got %q", sub.Status)
	}
}

func TestWebhookInvoiceFailedMarksPastDue(t *testing.T) {
	store := newFakeMirrorStore()
	store.subs["cust-1"] = domain.Subscription{
		CustomerID:              "cust-1",
		ProcessorSubscriptionID: "sub_123",
		Status:                  domain.SubscriptionActive,
	}
	processor := NewWebhookProcessor(store, &fakePublisher{}, NewMemoryEventDeduper(time.Hour))

	event := stripeEvent(t, "evt_4", "invoice.payment_failed", map[string]interface{}{
		"id":           "in_1",
		"subscription": map[string]interface{}{"id": "sub_123"},
	})
	if err := processor.ProcessEvent(context.Background(), event); err != nil {
		t.Fatalf("ProcessEvent: %v", err)
	}

	sub, _ := store.FindSubscriptionByCustomerID(context.Background(), "cust-1")
	if sub.Status != domain.SubscriptionPastDue {
		t.Fatalf("expected past_due, got %q", sub.Status)
	}
}

func TestWebhookUnhandledTypeIsAccepted(t *testing.T) {
	processor := NewWebhookProcessor(newFakeMirrorStore(), &fakePublisher{}, NewMemoryEventDeduper(time.Hour))

	event := stripeEvent(t, "evt_5", "charge.refunded", map[string]interface{}{"id": "ch_1"})
	if err := processor.ProcessEvent(context.Background(), event); err != nil {
		t.Fatalf("unhandled types must be accepted, got %v", err)
	}
}

func TestWebhookMissingMetadataIsAccepted(t *testing.T) {
	store := newFakeMirrorStore()
	publisher := &fakePublisher{}
	processor := NewWebhookProcessor(store, publisher, NewMemoryEventDeduper(time.Hour))

	event := stripeEvent(t, "evt_6", "checkout.session.completed", map[string]interface{}{
		"id":   "cs_test_3",
		"mode": "subscription",
	})
	if err := processor.ProcessEvent(context.Background(), event); err != nil {
		t.Fatalf("metadata gaps cannot be fixed by redelivery, got %v", err)
	}
	if len(publisher.published) != 0 {
		t.Fatal("no notification may be sent without metadata")
	}
}

// contextDeadlineErr is a plain transient error stand-in.
type contextDeadlineErr struct{}

func (contextDeadlineErr) Error() string { return "context deadline exceeded" }
