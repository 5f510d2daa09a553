/**
 * @description
 * This file implements the billing mirror store: the persistent mapping between
 * catalog entity identifiers and payment processor object identifiers. Pure
 * keyed storage; every write is a single-row upsert or delete keyed by the
 * natural business key, which is what makes consumer-side idempotency possible.
 *
 * Reads return (nil, nil) when the record is absent; absence is a normal state
 * of the mirror, not a failure.
 */
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fitlink/fitlink-backend/internal/payment/domain"
)

// Repository handles database operations for the billing mirror.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new mirror store repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// UpsertPlanRecord writes the plan-to-processor mapping, replacing the price
// and product ids if a record for the plan already exists.
func (r *Repository) UpsertPlanRecord(ctx context.Context, rec domain.PlanBillingRecord) error {
	query := `
        INSERT INTO plan_billing_records (plan_id, product_id, price_id, duration_days)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (plan_id) DO UPDATE SET
            product_id = EXCLUDED.product_id,
            price_id = EXCLUDED.price_id,
            duration_days = EXCLUDED.duration_days,
            updated_at = NOW()
    `
	if _, err := r.db.Exec(ctx, query, rec.PlanID, rec.ProductID, rec.PriceID, rec.DurationDays); err != nil {
		return fmt.Errorf("upsert plan record: %w", err)
	}
	return nil
}

// DeletePlanRecord removes the mapping for a plan. Deleting an absent record
// is a no-op success.
func (r *Repository) DeletePlanRecord(ctx context.Context, planID string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM plan_billing_records WHERE plan_id = $1`, planID); err != nil {
		return fmt.Errorf("delete plan record: %w", err)
	}
	return nil
}

// FindPlanRecord returns the mapping for a plan, or nil when the plan is not
// yet billable.
func (r *Repository) FindPlanRecord(ctx context.Context, planID string) (*domain.PlanBillingRecord, error) {
	var rec domain.PlanBillingRecord
	query := `SELECT plan_id, product_id, price_id, duration_days FROM plan_billing_records WHERE plan_id = $1`
	err := r.db.QueryRow(ctx, query, planID).Scan(&rec.PlanID, &rec.ProductID, &rec.PriceID, &rec.DurationDays)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find plan record: %w", err)
	}
	return &rec, nil
}

// UpsertCustomerRecord writes the customer-to-processor mapping.
func (r *Repository) UpsertCustomerRecord(ctx context.Context, rec domain.CustomerBillingRecord) error {
	query := `
        INSERT INTO customer_billing_records (customer_id, processor_customer_id)
        VALUES ($1, $2)
        ON CONFLICT (customer_id) DO UPDATE SET
            processor_customer_id = EXCLUDED.processor_customer_id,
            updated_at = NOW()
    `
	if _, err := r.db.Exec(ctx, query, rec.CustomerID, rec.ProcessorCustomerID); err != nil {
		return fmt.Errorf("upsert customer record: %w", err)
	}
	return nil
}

// FindCustomerRecord returns the processor mapping for a catalog customer, or
// nil when the customer has had no billing interaction yet.
func (r *Repository) FindCustomerRecord(ctx context.Context, customerID string) (*domain.CustomerBillingRecord, error) {
	var rec domain.CustomerBillingRecord
	query := `SELECT customer_id, processor_customer_id FROM customer_billing_records WHERE customer_id = $1`
	err := r.db.QueryRow(ctx, query, customerID).Scan(&rec.CustomerID, &rec.ProcessorCustomerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find customer record: %w", err)
	}
	return &rec, nil
}

// UpsertConnectedAccount writes the payout account mapping for a trainer or
// gym owner.
func (r *Repository) UpsertConnectedAccount(ctx context.Context, rec domain.ConnectedAccountRecord) error {
	query := `
        INSERT INTO connected_accounts (user_id, account_id, created_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT (user_id) DO UPDATE SET
            account_id = EXCLUDED.account_id
    `
	if _, err := r.db.Exec(ctx, query, rec.UserID, rec.AccountID); err != nil {
		return fmt.Errorf("upsert connected account: %w", err)
	}
	return nil
}

// FindConnectedAccount returns the payout account for a user, or nil.
func (r *Repository) FindConnectedAccount(ctx context.Context, userID string) (*domain.ConnectedAccountRecord, error) {
	var rec domain.ConnectedAccountRecord
	query := `SELECT user_id, account_id, created_at FROM connected_accounts WHERE user_id = $1`
	err := r.db.QueryRow(ctx, query, userID).Scan(&rec.UserID, &rec.AccountID, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find connected account: %w", err)
	}
	return &rec, nil
}

// UpsertCheckoutSession writes the session-to-price correlation record.
func (r *Repository) UpsertCheckoutSession(ctx context.Context, rec domain.CheckoutSessionRecord) error {
	query := `
        INSERT INTO checkout_sessions (session_id, price_id, product_id)
        VALUES ($1, $2, $3)
        ON CONFLICT (session_id) DO UPDATE SET
            price_id = EXCLUDED.price_id,
            product_id = EXCLUDED.product_id,
            updated_at = NOW()
    `
	if _, err := r.db.Exec(ctx, query, rec.SessionID, rec.PriceID, rec.ProductID); err != nil {
		return fmt.Errorf("upsert checkout session: %w", err)
	}
	return nil
}

// FindCheckoutSession returns the correlation record for a catalog session, or
// nil.
func (r *Repository) FindCheckoutSession(ctx context.Context, sessionID string) (*domain.CheckoutSessionRecord, error) {
	var rec domain.CheckoutSessionRecord
	query := `SELECT session_id, price_id, product_id FROM checkout_sessions WHERE session_id = $1`
	err := r.db.QueryRow(ctx, query, sessionID).Scan(&rec.SessionID, &rec.PriceID, &rec.ProductID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find checkout session: %w", err)
	}
	return &rec, nil
}

// ParkEvent records an event that hit an ordering anomaly so operators can
// audit and replay it manually.
func (r *Repository) ParkEvent(ctx context.Context, ev domain.ParkedEvent) error {
	query := `
        INSERT INTO parked_billing_events (event_type, entity_id, payload, reason, parked_at)
        VALUES ($1, $2, $3, $4, NOW())
    `
	if _, err := r.db.Exec(ctx, query, ev.EventType, ev.EntityID, ev.Payload, ev.Reason); err != nil {
		return fmt.Errorf("park event: %w", err)
	}
	return nil
}

// UpsertSubscription writes the reconciled subscription state for a customer.
func (r *Repository) UpsertSubscription(ctx context.Context, sub domain.Subscription) error {
	query := `
        INSERT INTO subscriptions (customer_id, plan_id, processor_subscription_id, status, current_period_end)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (customer_id) DO UPDATE SET
            plan_id = EXCLUDED.plan_id,
            processor_subscription_id = EXCLUDED.processor_subscription_id,
            status = EXCLUDED.status,
            current_period_end = EXCLUDED.current_period_end,
            updated_at = NOW()
    `
	if _, err := r.db.Exec(ctx, query,
		sub.CustomerID,
		sub.PlanID,
		sub.ProcessorSubscriptionID,
		sub.Status,
		sub.CurrentPeriodEnd,
	); err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}
	return nil
}

// UpdateSubscriptionStatusByProcessorID applies the processor's view of a
// subscription's state, keyed by the processor subscription id carried on the
// webhook. Updating an unknown subscription is a no-op.
func (r *Repository) UpdateSubscriptionStatusByProcessorID(ctx context.Context, processorSubscriptionID, status string) error {
	query := `
        UPDATE subscriptions
        SET status = $2, updated_at = NOW()
        WHERE processor_subscription_id = $1
    `
	if _, err := r.db.Exec(ctx, query, processorSubscriptionID, status); err != nil {
		return fmt.Errorf("update subscription status: %w", err)
	}
	return nil
}

// FindSubscriptionByCustomerID returns the customer's subscription record, or
// nil.
func (r *Repository) FindSubscriptionByCustomerID(ctx context.Context, customerID string) (*domain.Subscription, error) {
	var sub domain.Subscription
	query := `
        SELECT customer_id, plan_id, processor_subscription_id, status, current_period_end, updated_at
        FROM subscriptions
        WHERE customer_id = $1
    `
	err := r.db.QueryRow(ctx, query, customerID).Scan(
		&sub.CustomerID,
		&sub.PlanID,
		&sub.ProcessorSubscriptionID,
		&sub.Status,
		&sub.CurrentPeriodEnd,
		&sub.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find subscription: %w", err)
	}
	return &sub, nil
}

// LapseExpiredSubscriptions marks active subscriptions whose period has ended
// as lapsed. Returns the number of rows affected.
func (r *Repository) LapseExpiredSubscriptions(ctx context.Context) (int64, error) {
	query := `
        UPDATE subscriptions
        SET status = $1, updated_at = NOW()
        WHERE status = $2 AND current_period_end IS NOT NULL AND current_period_end < NOW()
    `
	tag, err := r.db.Exec(ctx, query, domain.SubscriptionLapsed, domain.SubscriptionActive)
	if err != nil {
		return 0, fmt.Errorf("lapse expired subscriptions: %w", err)
	}
	return tag.RowsAffected(), nil
}
