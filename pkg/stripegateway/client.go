/**
 * @description
 * This package is the payment processor gateway: a thin adapter over the Stripe
 * API used by the payment-service. Every operation is a synchronous call with
 * an idempotency key derived from the catalog entity id plus the operation, so
 * a redelivered event can never create a duplicate processor object.
 *
 * Failures surface as *Error with a Kind from the gateway taxonomy; callers and
 * the consumer supervisor branch on Retryable()/Terminal() instead of sniffing
 * status codes out of error strings.
 *
 * @dependencies
 * - github.com/stripe/stripe-go/v76: Stripe SDK (products, prices, checkout
 *   sessions, customers, connected accounts, subscriptions, invoices).
 */
package stripegateway

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// Client wraps an authenticated Stripe API client.
type Client struct {
	api      *client.API
	currency string
}

// NewClient builds a gateway client. currency is the ISO code used for every
// price object, e.g. "usd".
func NewClient(apiKey, currency string) *Client {
	api := &client.API{}
	api.Init(apiKey, nil)
	if currency == "" {
		currency = "usd"
	}
	return &Client{api: api, currency: currency}
}

// CheckoutParams describes a checkout session to create. Metadata is echoed
// back on the completed-checkout webhook and is how the reconciler resolves
// processor state to catalog entities.
type CheckoutParams struct {
	ProcessorCustomerID string
	PriceID             string
	Mode                string // "subscription" or "payment"
	SuccessURL          string
	CancelURL           string
	Metadata            map[string]string
	IdempotencyKey      string
}

// Invoice is the trimmed invoice view returned to REST callers.
type Invoice struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	Currency   string `json:"currency"`
	AmountDue  int64  `json:"amount_due"`
	AmountPaid int64  `json:"amount_paid"`
	HostedURL  string `json:"hosted_invoice_url,omitempty"`
	CreatedAt  int64  `json:"created_at"`
}

// CreatePlanProduct creates the product and its recurring price for a catalog
// plan. The idempotency keys make replays of the same plan_created event return
// the already-created objects.
func (c *Client) CreatePlanProduct(ctx context.Context, planID, title string, amount int64, durationDays int) (productID, priceID string, err error) {
	productParams := &stripe.ProductParams{
		Params: stripe.Params{Context: ctx},
		Name:   stripe.String(title),
	}
	productParams.AddMetadata("plan_id", planID)
	productParams.SetIdempotencyKey(fmt.Sprintf("plan-%s-product", planID))

	prod, err := c.api.Products.New(productParams)
	if err != nil {
		return "", "", classify("create_plan_product", err)
	}

	newPriceID, err := c.createRecurringPrice(ctx, planID, prod.ID, amount, durationDays)
	if err != nil {
		return "", "", err
	}
	return prod.ID, newPriceID, nil
}

// ReplacePlanPrice creates a new price for an existing product and archives the
// old one. Processor price objects are immutable, so an amount change is always
// a new object.
func (c *Client) ReplacePlanPrice(ctx context.Context, planID, productID, oldPriceID string, amount int64, durationDays int) (string, error) {
	newPriceID, err := c.createRecurringPrice(ctx, planID, productID, amount, durationDays)
	if err != nil {
		return "", err
	}

	if oldPriceID != "" && oldPriceID != newPriceID {
		archiveParams := &stripe.PriceParams{
			Params: stripe.Params{Context: ctx},
			Active: stripe.Bool(false),
		}
		if _, err := c.api.Prices.Update(oldPriceID, archiveParams); err != nil {
			// The new price exists; a retried event recreates it via the same
			// idempotency key and attempts the archive again.
			return "", classify("archive_plan_price", err)
		}
	}
	return newPriceID, nil
}

func (c *Client) createRecurringPrice(ctx context.Context, planID, productID string, amount int64, durationDays int) (string, error) {
	interval, intervalCount := recurrenceFor(durationDays)
	priceParams := &stripe.PriceParams{
		Params:     stripe.Params{Context: ctx},
		Product:    stripe.String(productID),
		Currency:   stripe.String(c.currency),
		UnitAmount: stripe.Int64(amount),
		Recurring: &stripe.PriceRecurringParams{
			Interval:      stripe.String(interval),
			IntervalCount: stripe.Int64(intervalCount),
		},
	}
	priceParams.AddMetadata("plan_id", planID)
	priceParams.SetIdempotencyKey(fmt.Sprintf("plan-%s-price-%d-%d", planID, amount, durationDays))

	pr, err := c.api.Prices.New(priceParams)
	if err != nil {
		return "", classify("create_plan_price", err)
	}
	// When a plan's price reverts to an earlier (amount, duration), the
	// idempotency key replays the original creation and returns a price that a
	// later update archived. The mapping must always point at an active price.
	if !pr.Active {
		reactivate := &stripe.PriceParams{
			Params: stripe.Params{Context: ctx},
			Active: stripe.Bool(true),
		}
		pr, err = c.api.Prices.Update(pr.ID, reactivate)
		if err != nil {
			return "", classify("reactivate_plan_price", err)
		}
	}
	return pr.ID, nil
}

// CreateSessionPrice creates the product and one-off price backing a trainer
// session booking.
func (c *Client) CreateSessionPrice(ctx context.Context, sessionID string, amount int64) (productID, priceID string, err error) {
	productParams := &stripe.ProductParams{
		Params: stripe.Params{Context: ctx},
		Name:   stripe.String(fmt.Sprintf("Training session %s", sessionID)),
	}
	productParams.AddMetadata("session_id", sessionID)
	productParams.SetIdempotencyKey(fmt.Sprintf("session-%s-product", sessionID))

	prod, err := c.api.Products.New(productParams)
	if err != nil {
		return "", "", classify("create_session_product", err)
	}

	priceParams := &stripe.PriceParams{
		Params:     stripe.Params{Context: ctx},
		Product:    stripe.String(prod.ID),
		Currency:   stripe.String(c.currency),
		UnitAmount: stripe.Int64(amount),
	}
	priceParams.AddMetadata("session_id", sessionID)
	priceParams.SetIdempotencyKey(fmt.Sprintf("session-%s-price-%d", sessionID, amount))

	pr, err := c.api.Prices.New(priceParams)
	if err != nil {
		return "", "", classify("create_session_price", err)
	}
	return prod.ID, pr.ID, nil
}

// CreateCustomer registers a catalog customer with the processor. Called lazily
// on the first billing interaction for a customer.
func (c *Client) CreateCustomer(ctx context.Context, customerID, email string) (string, error) {
	params := &stripe.CustomerParams{
		Params: stripe.Params{Context: ctx},
	}
	if email != "" {
		params.Email = stripe.String(email)
	}
	params.AddMetadata("customer_id", customerID)
	params.SetIdempotencyKey(fmt.Sprintf("customer-%s", customerID))

	cust, err := c.api.Customers.New(params)
	if err != nil {
		return "", classify("create_customer", err)
	}
	return cust.ID, nil
}

// CreateCheckoutSession creates a hosted checkout session and returns its id
// and redirect URL.
func (c *Client) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (sessionID, url string, err error) {
	mode := stripe.CheckoutSessionModePayment
	if p.Mode == "subscription" {
		mode = stripe.CheckoutSessionModeSubscription
	}

	params := &stripe.CheckoutSessionParams{
		Params:     stripe.Params{Context: ctx},
		Customer:   stripe.String(p.ProcessorCustomerID),
		Mode:       stripe.String(string(mode)),
		SuccessURL: stripe.String(p.SuccessURL),
		CancelURL:  stripe.String(p.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(p.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}
	if p.IdempotencyKey != "" {
		params.SetIdempotencyKey(p.IdempotencyKey)
	}

	cs, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return "", "", classify("create_checkout_session", err)
	}
	return cs.ID, cs.URL, nil
}

// CreateConnectedAccount creates an Express connected account, the
// payout-receiving identity for a trainer or gym owner.
func (c *Client) CreateConnectedAccount(ctx context.Context, userID, email string) (string, error) {
	params := &stripe.AccountParams{
		Params: stripe.Params{Context: ctx},
		Type:   stripe.String(string(stripe.AccountTypeExpress)),
	}
	if email != "" {
		params.Email = stripe.String(email)
	}
	params.AddMetadata("user_id", userID)
	params.SetIdempotencyKey(fmt.Sprintf("account-%s", userID))

	acct, err := c.api.Accounts.New(params)
	if err != nil {
		return "", classify("create_connected_account", err)
	}
	return acct.ID, nil
}

// CancelSubscription cancels the processor subscription immediately.
func (c *Client) CancelSubscription(ctx context.Context, subscriptionID string) error {
	params := &stripe.SubscriptionCancelParams{
		Params: stripe.Params{Context: ctx},
	}
	if _, err := c.api.Subscriptions.Cancel(subscriptionID, params); err != nil {
		return classify("cancel_subscription", err)
	}
	return nil
}

// ListInvoices returns up to limit invoices for a processor customer, newest
// first.
func (c *Client) ListInvoices(ctx context.Context, processorCustomerID string, limit int) ([]Invoice, error) {
	if limit <= 0 {
		limit = 20
	}
	params := &stripe.InvoiceListParams{
		ListParams: stripe.ListParams{Context: ctx, Limit: stripe.Int64(int64(limit))},
		Customer:   stripe.String(processorCustomerID),
	}

	invoices := make([]Invoice, 0, limit)
	iter := c.api.Invoices.List(params)
	for iter.Next() {
		inv := iter.Invoice()
		invoices = append(invoices, Invoice{
			ID:         inv.ID,
			Status:     string(inv.Status),
			Currency:   string(inv.Currency),
			AmountDue:  inv.AmountDue,
			AmountPaid: inv.AmountPaid,
			HostedURL:  inv.HostedInvoiceURL,
			CreatedAt:  inv.Created,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, classify("list_invoices", err)
	}
	return invoices, nil
}

// recurrenceFor maps a catalog plan duration in days onto a processor billing
// interval.
func recurrenceFor(durationDays int) (string, int64) {
	switch {
	case durationDays <= 0:
		return "month", 1
	case durationDays == 365:
		return "year", 1
	case durationDays%30 == 0:
		return "month", int64(durationDays / 30)
	case durationDays%7 == 0:
		return "week", int64(durationDays / 7)
	default:
		return "day", int64(durationDays)
	}
}
