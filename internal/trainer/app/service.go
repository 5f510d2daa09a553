/**
 * @description
 * Session catalog service for the trainer-service. A new session commits to
 * the catalog first and is then announced; if the announcement fails the
 * session stays committed and the error is surfaced to the caller.
 */
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/fitlink/fitlink-backend/internal/trainer/domain"
)

// ErrInvalidInput marks request validation failures so the HTTP layer can
// separate them from infrastructure errors.
var ErrInvalidInput = errors.New("invalid input")

// SessionStore is the persistence surface the service needs.
type SessionStore interface {
	CreateSession(ctx context.Context, session *domain.Session) error
	GetSession(ctx context.Context, id string) (*domain.Session, error)
	ListSessionsByTrainer(ctx context.Context, trainerID string) ([]domain.Session, error)
}

// EventPublisher publishes domain events to the broker.
type EventPublisher interface {
	Publish(ctx context.Context, exchange, routingKey string, payload interface{}) error
}

// Service implements the trainer session catalog operations.
type Service struct {
	store     SessionStore
	publisher EventPublisher
}

// NewService creates the session catalog service.
func NewService(store SessionStore, publisher EventPublisher) *Service {
	return &Service{store: store, publisher: publisher}
}

// CreateSession commits a new bookable session and announces it.
func (s *Service) CreateSession(ctx context.Context, trainerID, title string, price int64, startsAt time.Time) (*domain.Session, error) {
	if title == "" {
		return nil, fmt.Errorf("%w: session title is required", ErrInvalidInput)
	}
	if price <= 0 {
		return nil, fmt.Errorf("%w: session price must be positive", ErrInvalidInput)
	}
	if startsAt.Before(time.Now()) {
		return nil, fmt.Errorf("%w: session start must be in the future", ErrInvalidInput)
	}

	session := &domain.Session{
		ID:        uuid.New(),
		TrainerID: trainerID,
		Title:     title,
		Price:     price,
		StartsAt:  startsAt,
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	if err := s.publisher.Publish(ctx, domain.EventsExchange, domain.TopicSessionCreated, domain.SessionCreatedEvent{
		SessionID: session.ID.String(),
		Price:     session.Price,
		CreatedAt: session.CreatedAt,
	}); err != nil {
		log.Printf("level=error component=sessions msg=\"session committed but event publish failed\" session_id=%s err=%v", session.ID, err)
		return session, fmt.Errorf("publish session created event: %w", err)
	}

	log.Printf("level=info component=sessions msg=\"session created\" session_id=%s trainer_id=%s price=%d", session.ID, trainerID, price)
	return session, nil
}

// GetSession fetches a session by id.
func (s *Service) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	return s.store.GetSession(ctx, id)
}

// ListSessions returns the trainer's sessions.
func (s *Service) ListSessions(ctx context.Context, trainerID string) ([]domain.Session, error) {
	return s.store.ListSessionsByTrainer(ctx, trainerID)
}
