/**
 * @description
 * PostgreSQL persistence for the trainer session catalog.
 */
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fitlink/fitlink-backend/internal/trainer/domain"
)

// ErrSessionNotFound is returned when a session does not exist.
var ErrSessionNotFound = errors.New("session not found")

// SessionRepository provides access to the trainer_sessions table.
type SessionRepository struct {
	db *pgxpool.Pool
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(db *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{db: db}
}

// CreateSession inserts a new session and returns it with the DB-assigned
// creation timestamp.
func (r *SessionRepository) CreateSession(ctx context.Context, session *domain.Session) error {
	query := `
		INSERT INTO trainer_sessions (id, trainer_id, title, price, starts_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	err := r.db.QueryRow(ctx, query, session.ID, session.TrainerID, session.Title, session.Price, session.StartsAt).
		Scan(&session.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// GetSession fetches a single session by id.
func (r *SessionRepository) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	query := `
		SELECT id, trainer_id, title, price, starts_at, created_at
		FROM trainer_sessions
		WHERE id = $1
	`
	var session domain.Session
	err := r.db.QueryRow(ctx, query, id).Scan(
		&session.ID, &session.TrainerID, &session.Title, &session.Price,
		&session.StartsAt, &session.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to fetch session: %w", err)
	}
	return &session, nil
}

// ListSessionsByTrainer returns all sessions owned by a trainer, soonest first.
func (r *SessionRepository) ListSessionsByTrainer(ctx context.Context, trainerID string) ([]domain.Session, error) {
	query := `
		SELECT id, trainer_id, title, price, starts_at, created_at
		FROM trainer_sessions
		WHERE trainer_id = $1
		ORDER BY starts_at ASC
	`
	rows, err := r.db.Query(ctx, query, trainerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	sessions := []domain.Session{}
	for rows.Next() {
		var session domain.Session
		if err := rows.Scan(
			&session.ID, &session.TrainerID, &session.Title, &session.Price,
			&session.StartsAt, &session.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}
