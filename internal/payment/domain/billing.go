/**
 * @description
 * Domain models owned by the payment-service. The four billing mirror records
 * map catalog entity ids to payment processor object ids; the mirror is a
 * cache/index over processor ids, never the source of monetary truth.
 */
package domain

import "time"

// PlanBillingRecord links a catalog plan to its processor product and price.
// At most one record exists per plan; absence means the plan is not yet
// billable. DurationDays is the plan's billing period, used to compute the
// period end of subscriptions activated against it.
type PlanBillingRecord struct {
	PlanID       string `json:"plan_id"`
	ProductID    string `json:"product_id"`
	PriceID      string `json:"price_id"`
	DurationDays int    `json:"duration_days"`
}

// CustomerBillingRecord links a catalog customer to the processor customer
// object. Created lazily on the first billing interaction, never deleted by
// normal flows.
type CustomerBillingRecord struct {
	CustomerID          string `json:"customer_id"`
	ProcessorCustomerID string `json:"processor_customer_id"`
}

// ConnectedAccountRecord is the payout-receiving identity of a trainer or gym
// owner registered with the processor.
type ConnectedAccountRecord struct {
	UserID    string    `json:"user_id"`
	AccountID string    `json:"account_id"`
	CreatedAt time.Time `json:"created_at"`
}

// CheckoutSessionRecord correlates a trainer catalog session with the one-off
// processor price/product created for it. Used to resolve a completed checkout
// back to the catalog session.
type CheckoutSessionRecord struct {
	SessionID string `json:"session_id"`
	PriceID   string `json:"price_id"`
	ProductID string `json:"product_id"`
}

// Subscription statuses tracked by the payment-service.
const (
	SubscriptionActive   = "active"
	SubscriptionInactive = "inactive"
	SubscriptionPastDue  = "past_due"
	SubscriptionCanceled = "canceled"
	SubscriptionLapsed   = "lapsed"
)

// Subscription is the payment-service view of a customer's plan subscription,
// reconciled from processor webhooks.
type Subscription struct {
	CustomerID              string     `json:"customer_id"`
	PlanID                  string     `json:"plan_id"`
	ProcessorSubscriptionID string     `json:"processor_subscription_id"`
	Status                  string     `json:"status"`
	CurrentPeriodEnd        *time.Time `json:"current_period_end,omitempty"`
	UpdatedAt               time.Time  `json:"updated_at"`
}

// ParkedEvent is a billing event that arrived against a missing prerequisite
// record (ordering anomaly). Parked events are the audit trail for operators;
// they are never replayed automatically.
type ParkedEvent struct {
	EventType string    `json:"event_type"`
	EntityID  string    `json:"entity_id"`
	Payload   []byte    `json:"payload"`
	Reason    string    `json:"reason"`
	ParkedAt  time.Time `json:"parked_at"`
}
