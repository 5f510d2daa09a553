/**
 * @description
 * Billing service for the REST surface: checkout creation, cancellation,
 * connected accounts, subscription and invoice reads. These are the
 * synchronous triggers of the billing core; the consumers and the webhook
 * reconciler do the asynchronous work.
 */
package app

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/fitlink/fitlink-backend/internal/payment/domain"
	"github.com/fitlink/fitlink-backend/pkg/stripegateway"
)

// Sentinel errors surfaced to the HTTP layer.
var (
	ErrPlanNotBillable    = errors.New("plan has no billing record yet")
	ErrSessionNotBillable = errors.New("session has no billing record yet")
	ErrNoSubscription     = errors.New("no subscription for customer")
)

// Service provides the billing operations behind the REST handlers.
type Service struct {
	store      MirrorStore
	gateway    PaymentGateway
	successURL string
	cancelURL  string
}

// NewService creates the billing service.
func NewService(store MirrorStore, gateway PaymentGateway, successURL, cancelURL string) *Service {
	return &Service{store: store, gateway: gateway, successURL: successURL, cancelURL: cancelURL}
}

// CheckoutIntent is the redirect handed back to the client.
type CheckoutIntent struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// Subscribe creates a subscription-mode checkout session for a billable plan.
// The checkout metadata carries the catalog ids the webhook reconciler needs.
func (s *Service) Subscribe(ctx context.Context, customerID, email, planID string) (*CheckoutIntent, error) {
	plan, err := s.store.FindPlanRecord(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, ErrPlanNotBillable
	}

	processorCustomerID, err := s.ensureProcessorCustomer(ctx, customerID, email)
	if err != nil {
		return nil, err
	}

	sessionID, url, err := s.gateway.CreateCheckoutSession(ctx, stripegateway.CheckoutParams{
		ProcessorCustomerID: processorCustomerID,
		PriceID:             plan.PriceID,
		Mode:                "subscription",
		SuccessURL:          s.successURL,
		CancelURL:           s.cancelURL,
		Metadata: map[string]string{
			"customer_id": customerID,
			"plan_id":     planID,
		},
		IdempotencyKey: fmt.Sprintf("checkout-subscription-%s-%s", customerID, planID),
	})
	if err != nil {
		return nil, err
	}

	log.Printf("level=info component=billing msg=\"subscription checkout created\" customer_id=%s plan_id=%s checkout=%s", customerID, planID, sessionID)
	return &CheckoutIntent{SessionID: sessionID, URL: url}, nil
}

// BookSession creates a payment-mode checkout session for a trainer session.
func (s *Service) BookSession(ctx context.Context, customerID, email, sessionID string) (*CheckoutIntent, error) {
	rec, err := s.store.FindCheckoutSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrSessionNotBillable
	}

	processorCustomerID, err := s.ensureProcessorCustomer(ctx, customerID, email)
	if err != nil {
		return nil, err
	}

	checkoutID, url, err := s.gateway.CreateCheckoutSession(ctx, stripegateway.CheckoutParams{
		ProcessorCustomerID: processorCustomerID,
		PriceID:             rec.PriceID,
		Mode:                "payment",
		SuccessURL:          s.successURL,
		CancelURL:           s.cancelURL,
		Metadata: map[string]string{
			"customer_id": customerID,
			"session_id":  sessionID,
		},
		IdempotencyKey: fmt.Sprintf("checkout-payment-%s-%s", customerID, sessionID),
	})
	if err != nil {
		return nil, err
	}

	log.Printf("level=info component=billing msg=\"session checkout created\" customer_id=%s session_id=%s checkout=%s", customerID, sessionID, checkoutID)
	return &CheckoutIntent{SessionID: checkoutID, URL: url}, nil
}

// Cancel cancels the customer's processor subscription. The mirror is updated
// optimistically; the authoritative inactive state arrives on the webhook.
func (s *Service) Cancel(ctx context.Context, customerID string) error {
	sub, err := s.store.FindSubscriptionByCustomerID(ctx, customerID)
	if err != nil {
		return err
	}
	if sub == nil || sub.ProcessorSubscriptionID == "" {
		return ErrNoSubscription
	}

	if err := s.gateway.CancelSubscription(ctx, sub.ProcessorSubscriptionID); err != nil {
		return err
	}

	if err := s.store.UpdateSubscriptionStatusByProcessorID(ctx, sub.ProcessorSubscriptionID, domain.SubscriptionCanceled); err != nil {
		log.Printf("level=warn component=billing msg=\"cancel recorded at processor but mirror update failed\" customer_id=%s err=%v", customerID, err)
	}
	return nil
}

// GetSubscription returns the customer's reconciled subscription state.
func (s *Service) GetSubscription(ctx context.Context, customerID string) (*domain.Subscription, error) {
	sub, err := s.store.FindSubscriptionByCustomerID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, ErrNoSubscription
	}
	return sub, nil
}

// GetInvoices lists the customer's processor invoices. A customer with no
// billing history has no invoices.
func (s *Service) GetInvoices(ctx context.Context, customerID string, limit int) ([]stripegateway.Invoice, error) {
	rec, err := s.store.FindCustomerRecord(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return []stripegateway.Invoice{}, nil
	}
	return s.gateway.ListInvoices(ctx, rec.ProcessorCustomerID, limit)
}

// CreateConnectedAccount registers a payout account for a trainer or gym
// owner. Idempotent: an existing account is returned as-is.
func (s *Service) CreateConnectedAccount(ctx context.Context, userID, email string) (*domain.ConnectedAccountRecord, error) {
	existing, err := s.store.FindConnectedAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	accountID, err := s.gateway.CreateConnectedAccount(ctx, userID, email)
	if err != nil {
		return nil, err
	}

	rec := domain.ConnectedAccountRecord{UserID: userID, AccountID: accountID}
	if err := s.store.UpsertConnectedAccount(ctx, rec); err != nil {
		return nil, fmt.Errorf("record connected account: %w", err)
	}

	log.Printf("level=info component=billing msg=\"connected account created\" user_id=%s account_id=%s", userID, accountID)
	return &rec, nil
}

// ensureProcessorCustomer returns the processor customer id for a catalog
// customer, creating it lazily on the first billing interaction.
func (s *Service) ensureProcessorCustomer(ctx context.Context, customerID, email string) (string, error) {
	rec, err := s.store.FindCustomerRecord(ctx, customerID)
	if err != nil {
		return "", err
	}
	if rec != nil {
		return rec.ProcessorCustomerID, nil
	}

	processorCustomerID, err := s.gateway.CreateCustomer(ctx, customerID, email)
	if err != nil {
		return "", err
	}

	if err := s.store.UpsertCustomerRecord(ctx, domain.CustomerBillingRecord{
		CustomerID:          customerID,
		ProcessorCustomerID: processorCustomerID,
	}); err != nil {
		return "", fmt.Errorf("record processor customer: %w", err)
	}
	return processorCustomerID, nil
}
