package app

import (
	"context"
	"errors"
	"testing"

	"github.com/fitlink/fitlink-backend/internal/payment/domain"
)

func TestSubscribeCreatesProcessorCustomerLazily(t *testing.T) {
	store := newFakeMirrorStore()
	store.plans["plan-1"] = domain.PlanBillingRecord{PlanID: "plan-1", ProductID: "prod_1", PriceID: "price_1"}
	gateway := &fakeGateway{}
	svc := NewService(store, gateway, "https://app/success", "https://app/cancel")

	intent, err := svc.Subscribe(context.Background(), "cust-1", "a@b.c", "plan-1")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if intent.URL == "" || intent.SessionID == "" {
		t.Fatalf("incomplete intent: %+v", intent)
	}
	if gateway.customerCalls != 1 {
		t.Fatalf("expected lazy customer creation, got %d calls", gateway.customerCalls)
	}
	if rec, _ := store.FindCustomerRecord(context.Background(), "cust-1"); rec == nil {
		t.Fatal("customer mapping must be recorded")
	}

	// Second checkout reuses the mapping.
	if _, err := svc.Subscribe(context.Background(), "cust-1", "a@b.c", "plan-1"); err != nil {
		t.Fatalf("second Subscribe: %v", err)
	}
	if gateway.customerCalls != 1 {
		t.Fatalf("customer must be created once, got %d calls", gateway.customerCalls)
	}
}

func TestSubscribeCarriesReconciliationMetadata(t *testing.T) {
	store := newFakeMirrorStore()
	store.plans["plan-1"] = domain.PlanBillingRecord{PlanID: "plan-1", PriceID: "price_1"}
	gateway := &fakeGateway{}
	svc := NewService(store, gateway, "https://app/success", "https://app/cancel")

	if _, err := svc.Subscribe(context.Background(), "cust-1", "a@b.c", "plan-1"); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	md := gateway.lastCheckoutParams.Metadata
	if md["customer_id"] != "cust-1" || md["plan_id"] != "plan-1" {
		t.Fatalf("checkout metadata must carry catalog ids: %v", md)
	}
	if gateway.lastCheckoutParams.Mode != "subscription" {
		t.Fatalf("expected subscription mode, got %q", gateway.lastCheckoutParams.Mode)
	}
}

func TestSubscribeUnbillablePlan(t *testing.T) {
	svc := NewService(newFakeMirrorStore(), &fakeGateway{}, "s", "c")

	_, err := svc.Subscribe(context.Background(), "cust-1", "a@b.c", "plan-404")
	if !errors.Is(err, ErrPlanNotBillable) {
		t.Fatalf("expected ErrPlanNotBillable, got %v", err)
	}
}

func TestBookSessionUnbillableSession(t *testing.T) {
	svc := NewService(newFakeMirrorStore(), &fakeGateway{}, "s", "c")

	_, err := svc.BookSession(context.Background(), "cust-1", "a@b.c", "sess-404")
	if !errors.Is(err, ErrSessionNotBillable) {
		t.Fatalf("expected ErrSessionNotBillable, got %v", err)
	}
}

func TestCancelWithoutSubscription(t *testing.T) {
	svc := NewService(newFakeMirrorStore(), &fakeGateway{}, "s", "c")

	if err := svc.Cancel(context.Background(), "cust-1"); !errors.Is(err, ErrNoSubscription) {
		t.Fatalf("expected ErrNoSubscription, got %v", err)
	}
}

func TestCancelUpdatesMirrorOptimistically(t *testing.T) {
	store := newFakeMirrorStore()
	store.subs["cust-1"] = domain.Subscription{
		CustomerID:              "cust-1",
		ProcessorSubscriptionID: "sub_123",
		Status:                  domain.SubscriptionActive,
	}
	gateway := &fakeGateway{}
	svc := NewService(store, gateway, "s", "c")

	if err := svc.Cancel(context.Background(), "cust-1"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if gateway.cancelCalls != 1 {
		t.Fatalf("expected 1 processor cancel, got %d", gateway.cancelCalls)
	}
	sub, _ := store.FindSubscriptionByCustomerID(context.Background(), "cust-1")
	if sub.Status != domain.SubscriptionCanceled {
		t.Fatalf("expected canceled, got %q", sub.Status)
	}
}

func TestGetInvoicesWithoutBillingHistory(t *testing.T) {
	svc := NewService(newFakeMirrorStore(), &fakeGateway{}, "s", "c")

	invoices, err := svc.GetInvoices(context.Background(), "cust-1", 10)
	if err != nil {
		t.Fatalf("GetInvoices: %v", err)
	}
	if len(invoices) != 0 {
		t.Fatalf("expected empty invoice list, got %d", len(invoices))
	}
}

func TestCreateConnectedAccountIsIdempotent(t *testing.T) {
	store := newFakeMirrorStore()
	gateway := &fakeGateway{}
	svc := NewService(store, gateway, "s", "c")

	first, err := svc.CreateConnectedAccount(context.Background(), "trainer-1", "t@b.c")
	if err != nil {
		t.Fatalf("first CreateConnectedAccount: %v", err)
	}
	second, err := svc.CreateConnectedAccount(context.Background(), "trainer-1", "t@b.c")
	if err != nil {
		t.Fatalf("second CreateConnectedAccount: %v", err)
	}

	if gateway.accountCalls != 1 {
		t.Fatalf("expected 1 processor account creation, got %d", gateway.accountCalls)
	}
	if first.AccountID != second.AccountID {
		t.Fatalf("expected same account, got %q and %q", first.AccountID, second.AccountID)
	}
}
