package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fitlink/fitlink-backend/internal/trainer/domain"
	"github.com/fitlink/fitlink-backend/internal/trainer/store"
)

type sessionStoreStub struct {
	mu       sync.Mutex
	sessions map[string]domain.Session

	createErr error
}

func newSessionStoreStub() *sessionStoreStub {
	return &sessionStoreStub{sessions: make(map[string]domain.Session)}
}

func (s *sessionStoreStub) CreateSession(_ context.Context, session *domain.Session) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID.String()] = *session
	return nil
}

func (s *sessionStoreStub) GetSession(_ context.Context, id string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[id]; ok {
		return &session, nil
	}
	return nil, store.ErrSessionNotFound
}

func (s *sessionStoreStub) ListSessionsByTrainer(_ context.Context, trainerID string) ([]domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Session{}
	for _, session := range s.sessions {
		if session.TrainerID == trainerID {
			out = append(out, session)
		}
	}
	return out, nil
}

type publisherStub struct {
	mu        sync.Mutex
	published []string
	err       error
}

func (p *publisherStub) Publish(_ context.Context, _, routingKey string, _ interface{}) error {
	if p.err != nil {
		return p.err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, routingKey)
	return nil
}

func TestCreateSessionPublishesAfterCommit(t *testing.T) {
	st := newSessionStoreStub()
	pub := &publisherStub{}
	svc := NewService(st, pub)

	session, err := svc.CreateSession(context.Background(), "trainer-1", "HIIT 1:1", 2500, time.Now().Add(48*time.Hour))
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if _, err := st.GetSession(context.Background(), session.ID.String()); err != nil {
		t.Fatalf("session must be committed: %v", err)
	}
	if len(pub.published) != 1 || pub.published[0] != domain.TopicSessionCreated {
		t.Fatalf("expected one %s event, got %v", domain.TopicSessionCreated, pub.published)
	}
}

func TestCreateSessionValidation(t *testing.T) {
	svc := NewService(newSessionStoreStub(), &publisherStub{})

	future := time.Now().Add(24 * time.Hour)
	cases := []struct {
		name     string
		title    string
		price    int64
		startsAt time.Time
	}{
		{"empty title", "", 2500, future},
		{"zero price", "HIIT", 0, future},
		{"past start", "HIIT", 2500, time.Now().Add(-time.Hour)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.CreateSession(context.Background(), "trainer-1", tc.title, tc.price, tc.startsAt); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestCreateSessionPublishFailureKeepsCommit(t *testing.T) {
	st := newSessionStoreStub()
	pub := &publisherStub{err: errors.New("broker unreachable")}
	svc := NewService(st, pub)

	session, err := svc.CreateSession(context.Background(), "trainer-1", "HIIT 1:1", 2500, time.Now().Add(48*time.Hour))
	if err == nil {
		t.Fatal("publish failure must surface to the caller")
	}
	if session == nil {
		t.Fatal("committed session must still be returned")
	}
	if _, getErr := st.GetSession(context.Background(), session.ID.String()); getErr != nil {
		t.Fatal("session must stay committed despite the failed publish")
	}
}
