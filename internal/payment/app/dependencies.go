/**
 * @description
 * Dependency contracts for the payment-service application layer. The consumer
 * and webhook logic depend on these interfaces rather than on the concrete pgx
 * repository or Stripe client, so they are testable with fakes.
 */
package app

import (
	"context"

	"github.com/fitlink/fitlink-backend/internal/payment/domain"
	"github.com/fitlink/fitlink-backend/pkg/stripegateway"
)

// MirrorStore is the billing mirror: keyed upsert storage mapping catalog ids
// to processor object ids. Reads return (nil, nil) when absent.
type MirrorStore interface {
	UpsertPlanRecord(ctx context.Context, rec domain.PlanBillingRecord) error
	DeletePlanRecord(ctx context.Context, planID string) error
	FindPlanRecord(ctx context.Context, planID string) (*domain.PlanBillingRecord, error)

	UpsertCustomerRecord(ctx context.Context, rec domain.CustomerBillingRecord) error
	FindCustomerRecord(ctx context.Context, customerID string) (*domain.CustomerBillingRecord, error)

	UpsertConnectedAccount(ctx context.Context, rec domain.ConnectedAccountRecord) error
	FindConnectedAccount(ctx context.Context, userID string) (*domain.ConnectedAccountRecord, error)

	UpsertCheckoutSession(ctx context.Context, rec domain.CheckoutSessionRecord) error
	FindCheckoutSession(ctx context.Context, sessionID string) (*domain.CheckoutSessionRecord, error)

	ParkEvent(ctx context.Context, ev domain.ParkedEvent) error

	UpsertSubscription(ctx context.Context, sub domain.Subscription) error
	UpdateSubscriptionStatusByProcessorID(ctx context.Context, processorSubscriptionID, status string) error
	FindSubscriptionByCustomerID(ctx context.Context, customerID string) (*domain.Subscription, error)
	LapseExpiredSubscriptions(ctx context.Context) (int64, error)
}

// PaymentGateway is the processor adapter. Every call is idempotent on the
// processor side via keys derived from catalog ids.
type PaymentGateway interface {
	CreatePlanProduct(ctx context.Context, planID, title string, amount int64, durationDays int) (productID, priceID string, err error)
	ReplacePlanPrice(ctx context.Context, planID, productID, oldPriceID string, amount int64, durationDays int) (string, error)
	CreateSessionPrice(ctx context.Context, sessionID string, amount int64) (productID, priceID string, err error)
	CreateCustomer(ctx context.Context, customerID, email string) (string, error)
	CreateCheckoutSession(ctx context.Context, p stripegateway.CheckoutParams) (sessionID, url string, err error)
	CreateConnectedAccount(ctx context.Context, userID, email string) (string, error)
	CancelSubscription(ctx context.Context, subscriptionID string) error
	ListInvoices(ctx context.Context, processorCustomerID string, limit int) ([]stripegateway.Invoice, error)
}

// EventPublisher publishes domain events to the broker.
type EventPublisher interface {
	Publish(ctx context.Context, exchange, routingKey string, payload interface{}) error
}

// EventDeduper tracks processor webhook event ids so a redelivered webhook
// causes no double side effects.
type EventDeduper interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, eventID string) error
}
