/**
 * @description
 * Plan catalog service for the gym-service. Every mutation commits to the
 * catalog first and then publishes the corresponding domain event. If the
 * publish fails the mutation stays committed and the error is surfaced to the
 * caller; the catalog is the source of truth and the billing mirror converges
 * once the event is republished.
 */
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/fitlink/fitlink-backend/internal/gym/domain"
)

// ErrInvalidInput marks request validation failures so the HTTP layer can
// separate them from infrastructure errors.
var ErrInvalidInput = errors.New("invalid input")

// PlanStore is the persistence surface the service needs.
type PlanStore interface {
	CreatePlan(ctx context.Context, plan *domain.Plan) error
	GetPlan(ctx context.Context, id string) (*domain.Plan, error)
	ListPlansByGym(ctx context.Context, gymID string) ([]domain.Plan, error)
	UpdatePlanPrice(ctx context.Context, id string, price int64, duration int) (*domain.Plan, error)
	DeletePlan(ctx context.Context, id string) error
}

// EventPublisher publishes domain events to the broker.
type EventPublisher interface {
	Publish(ctx context.Context, exchange, routingKey string, payload interface{}) error
}

// Service implements the gym plan catalog operations.
type Service struct {
	store     PlanStore
	publisher EventPublisher
}

// NewService creates the plan catalog service.
func NewService(store PlanStore, publisher EventPublisher) *Service {
	return &Service{store: store, publisher: publisher}
}

// CreatePlan commits a new plan and announces it.
func (s *Service) CreatePlan(ctx context.Context, gymID, title string, price int64, duration int) (*domain.Plan, error) {
	if title == "" {
		return nil, fmt.Errorf("%w: plan title is required", ErrInvalidInput)
	}
	if price <= 0 {
		return nil, fmt.Errorf("%w: plan price must be positive", ErrInvalidInput)
	}
	if duration <= 0 {
		return nil, fmt.Errorf("%w: plan duration must be positive", ErrInvalidInput)
	}

	plan := &domain.Plan{
		ID:       uuid.New(),
		GymID:    gymID,
		Title:    title,
		Price:    price,
		Duration: duration,
	}
	if err := s.store.CreatePlan(ctx, plan); err != nil {
		return nil, err
	}

	if err := s.publisher.Publish(ctx, domain.EventsExchange, domain.TopicPlanCreated, domain.PlanCreatedEvent{
		PlanID:    plan.ID.String(),
		Title:     plan.Title,
		Price:     plan.Price,
		Duration:  plan.Duration,
		CreatedAt: plan.CreatedAt,
	}); err != nil {
		// The plan is committed; only the announcement failed.
		log.Printf("level=error component=plans msg=\"plan committed but event publish failed\" plan_id=%s err=%v", plan.ID, err)
		return plan, fmt.Errorf("publish plan created event: %w", err)
	}

	log.Printf("level=info component=plans msg=\"plan created\" plan_id=%s gym_id=%s price=%d duration=%d", plan.ID, gymID, price, duration)
	return plan, nil
}

// GetPlan fetches a plan by id.
func (s *Service) GetPlan(ctx context.Context, id string) (*domain.Plan, error) {
	return s.store.GetPlan(ctx, id)
}

// ListPlans returns all plans owned by a gym.
func (s *Service) ListPlans(ctx context.Context, gymID string) ([]domain.Plan, error) {
	return s.store.ListPlansByGym(ctx, gymID)
}

// UpdatePlanPrice changes a plan's price and duration and announces it.
func (s *Service) UpdatePlanPrice(ctx context.Context, id string, price int64, duration int) (*domain.Plan, error) {
	if price <= 0 {
		return nil, fmt.Errorf("%w: plan price must be positive", ErrInvalidInput)
	}
	if duration <= 0 {
		return nil, fmt.Errorf("%w: plan duration must be positive", ErrInvalidInput)
	}

	plan, err := s.store.UpdatePlanPrice(ctx, id, price, duration)
	if err != nil {
		return nil, err
	}

	if err := s.publisher.Publish(ctx, domain.EventsExchange, domain.TopicPlanUpdated, domain.PlanUpdatedEvent{
		PlanID:    plan.ID.String(),
		Price:     plan.Price,
		Duration:  plan.Duration,
		UpdatedAt: plan.UpdatedAt,
	}); err != nil {
		log.Printf("level=error component=plans msg=\"plan updated but event publish failed\" plan_id=%s err=%v", plan.ID, err)
		return plan, fmt.Errorf("publish plan updated event: %w", err)
	}

	log.Printf("level=info component=plans msg=\"plan price updated\" plan_id=%s price=%d duration=%d", plan.ID, price, duration)
	return plan, nil
}

// DeletePlan removes a plan and announces the deletion.
func (s *Service) DeletePlan(ctx context.Context, id string) error {
	if err := s.store.DeletePlan(ctx, id); err != nil {
		return err
	}

	if err := s.publisher.Publish(ctx, domain.EventsExchange, domain.TopicPlanDeleted, domain.PlanDeletedEvent{
		PlanID:    id,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		log.Printf("level=error component=plans msg=\"plan deleted but event publish failed\" plan_id=%s err=%v", id, err)
		return fmt.Errorf("publish plan deleted event: %w", err)
	}

	log.Printf("level=info component=plans msg=\"plan deleted\" plan_id=%s", id)
	return nil
}
