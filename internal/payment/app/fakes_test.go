package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/fitlink/fitlink-backend/internal/payment/domain"
	"github.com/fitlink/fitlink-backend/pkg/stripegateway"
)

// fakeMirrorStore is an in-memory MirrorStore with per-method error injection.
type fakeMirrorStore struct {
	mu sync.Mutex

	plans     map[string]domain.PlanBillingRecord
	customers map[string]domain.CustomerBillingRecord
	accounts  map[string]domain.ConnectedAccountRecord
	sessions  map[string]domain.CheckoutSessionRecord
	subs      map[string]domain.Subscription
	parked    []domain.ParkedEvent

	findPlanErr   error
	upsertPlanErr error
	parkErr       error
	upsertSubErr  error
	updateSubErr  error
	lapsedCount   int64
	lapseErr      error
}

func newFakeMirrorStore() *fakeMirrorStore {
	return &fakeMirrorStore{
		plans:     make(map[string]domain.PlanBillingRecord),
		customers: make(map[string]domain.CustomerBillingRecord),
		accounts:  make(map[string]domain.ConnectedAccountRecord),
		sessions:  make(map[string]domain.CheckoutSessionRecord),
		subs:      make(map[string]domain.Subscription),
	}
}

func (s *fakeMirrorStore) UpsertPlanRecord(_ context.Context, rec domain.PlanBillingRecord) error {
	if s.upsertPlanErr != nil {
		return s.upsertPlanErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[rec.PlanID] = rec
	return nil
}

func (s *fakeMirrorStore) DeletePlanRecord(_ context.Context, planID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.plans, planID)
	return nil
}

func (s *fakeMirrorStore) FindPlanRecord(_ context.Context, planID string) (*domain.PlanBillingRecord, error) {
	if s.findPlanErr != nil {
		return nil, s.findPlanErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.plans[planID]; ok {
		return &rec, nil
	}
	return nil, nil
}

func (s *fakeMirrorStore) UpsertCustomerRecord(_ context.Context, rec domain.CustomerBillingRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers[rec.CustomerID] = rec
	return nil
}

func (s *fakeMirrorStore) FindCustomerRecord(_ context.Context, customerID string) (*domain.CustomerBillingRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.customers[customerID]; ok {
		return &rec, nil
	}
	return nil, nil
}

func (s *fakeMirrorStore) UpsertConnectedAccount(_ context.Context, rec domain.ConnectedAccountRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[rec.UserID] = rec
	return nil
}

func (s *fakeMirrorStore) FindConnectedAccount(_ context.Context, userID string) (*domain.ConnectedAccountRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.accounts[userID]; ok {
		return &rec, nil
	}
	return nil, nil
}

func (s *fakeMirrorStore) UpsertCheckoutSession(_ context.Context, rec domain.CheckoutSessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[rec.SessionID] = rec
	return nil
}

func (s *fakeMirrorStore) FindCheckoutSession(_ context.Context, sessionID string) (*domain.CheckoutSessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.sessions[sessionID]; ok {
		return &rec, nil
	}
	return nil, nil
}

func (s *fakeMirrorStore) ParkEvent(_ context.Context, ev domain.ParkedEvent) error {
	if s.parkErr != nil {
		return s.parkErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parked = append(s.parked, ev)
	return nil
}

func (s *fakeMirrorStore) UpsertSubscription(_ context.Context, sub domain.Subscription) error {
	if s.upsertSubErr != nil {
		return s.upsertSubErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[sub.CustomerID] = sub
	return nil
}

func (s *fakeMirrorStore) UpdateSubscriptionStatusByProcessorID(_ context.Context, processorSubscriptionID, status string) error {
	if s.updateSubErr != nil {
		return s.updateSubErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for customerID, sub := range s.subs {
		if sub.ProcessorSubscriptionID == processorSubscriptionID {
			sub.Status = status
			s.subs[customerID] = sub
		}
	}
	return nil
}

func (s *fakeMirrorStore) FindSubscriptionByCustomerID(_ context.Context, customerID string) (*domain.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub, ok := s.subs[customerID]; ok {
		return &sub, nil
	}
	return nil, nil
}

func (s *fakeMirrorStore) LapseExpiredSubscriptions(_ context.Context) (int64, error) {
	if s.lapseErr != nil {
		return 0, s.lapseErr
	}
	return s.lapsedCount, nil
}

// fakeGateway counts processor calls and returns deterministic ids.
type fakeGateway struct {
	mu sync.Mutex

	createPlanCalls    int
	replacePriceCalls  int
	sessionPriceCalls  int
	customerCalls      int
	checkoutCalls      int
	accountCalls       int
	cancelCalls        int
	archivedPriceID    string
	lastCheckoutParams stripegateway.CheckoutParams

	createPlanErr   error
	replaceErr      error
	sessionPriceErr error
	checkoutErr     error
	cancelErr       error
}

func (g *fakeGateway) CreatePlanProduct(_ context.Context, planID, _ string, _ int64, _ int) (string, string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.createPlanCalls++
	if g.createPlanErr != nil {
		return "", "", g.createPlanErr
	}
	return "prod_" + planID, "price_" + planID, nil
}

func (g *fakeGateway) ReplacePlanPrice(_ context.Context, planID, _ string, oldPriceID string, _ int64, _ int) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.replacePriceCalls++
	if g.replaceErr != nil {
		return "", g.replaceErr
	}
	g.archivedPriceID = oldPriceID
	return fmt.Sprintf("price_%s_v%d", planID, g.replacePriceCalls+1), nil
}

func (g *fakeGateway) CreateSessionPrice(_ context.Context, sessionID string, _ int64) (string, string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sessionPriceCalls++
	if g.sessionPriceErr != nil {
		return "", "", g.sessionPriceErr
	}
	return "prod_sess_" + sessionID, "price_sess_" + sessionID, nil
}

func (g *fakeGateway) CreateCustomer(_ context.Context, customerID, _ string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.customerCalls++
	return "cus_" + customerID, nil
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, p stripegateway.CheckoutParams) (string, string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.checkoutCalls++
	if g.checkoutErr != nil {
		return "", "", g.checkoutErr
	}
	g.lastCheckoutParams = p
	return "cs_test_1", "https://checkout.example/cs_test_1", nil
}

func (g *fakeGateway) CreateConnectedAccount(_ context.Context, userID, _ string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.accountCalls++
	return "acct_" + userID, nil
}

func (g *fakeGateway) CancelSubscription(_ context.Context, _ string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cancelCalls++
	return g.cancelErr
}

func (g *fakeGateway) ListInvoices(_ context.Context, _ string, _ int) ([]stripegateway.Invoice, error) {
	return []stripegateway.Invoice{{ID: "in_1", Status: "paid"}}, nil
}

// fakePublisher records published events.
type fakePublisher struct {
	mu        sync.Mutex
	published []publishedEvent
	err       error
}

type publishedEvent struct {
	exchange   string
	routingKey string
	payload    interface{}
}

func (p *fakePublisher) Publish(_ context.Context, exchange, routingKey string, payload interface{}) error {
	if p.err != nil {
		return p.err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, publishedEvent{exchange: exchange, routingKey: routingKey, payload: payload})
	return nil
}

func (p *fakePublisher) count(routingKey string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, ev := range p.published {
		if ev.routingKey == routingKey {
			n++
		}
	}
	return n
}
