/**
 * @description
 * PostgreSQL persistence for the gym plan catalog.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5: High-performance PostgreSQL driver.
 */
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fitlink/fitlink-backend/internal/gym/domain"
)

// ErrPlanNotFound is returned when a plan does not exist.
var ErrPlanNotFound = errors.New("plan not found")

// PlanRepository provides access to the gym_plans table.
type PlanRepository struct {
	db *pgxpool.Pool
}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository(db *pgxpool.Pool) *PlanRepository {
	return &PlanRepository{db: db}
}

// CreatePlan inserts a new plan and returns it with DB-assigned timestamps.
func (r *PlanRepository) CreatePlan(ctx context.Context, plan *domain.Plan) error {
	query := `
		INSERT INTO gym_plans (id, gym_id, title, price, duration)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, plan.ID, plan.GymID, plan.Title, plan.Price, plan.Duration).
		Scan(&plan.CreatedAt, &plan.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert plan: %w", err)
	}
	return nil
}

// GetPlan fetches a single plan by id.
func (r *PlanRepository) GetPlan(ctx context.Context, id string) (*domain.Plan, error) {
	query := `
		SELECT id, gym_id, title, price, duration, created_at, updated_at
		FROM gym_plans
		WHERE id = $1
	`
	var plan domain.Plan
	err := r.db.QueryRow(ctx, query, id).Scan(
		&plan.ID, &plan.GymID, &plan.Title, &plan.Price, &plan.Duration,
		&plan.CreatedAt, &plan.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("failed to fetch plan: %w", err)
	}
	return &plan, nil
}

// ListPlansByGym returns all plans owned by a gym, newest first.
func (r *PlanRepository) ListPlansByGym(ctx context.Context, gymID string) ([]domain.Plan, error) {
	query := `
		SELECT id, gym_id, title, price, duration, created_at, updated_at
		FROM gym_plans
		WHERE gym_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, gymID)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	plans := []domain.Plan{}
	for rows.Next() {
		var plan domain.Plan
		if err := rows.Scan(
			&plan.ID, &plan.GymID, &plan.Title, &plan.Price, &plan.Duration,
			&plan.CreatedAt, &plan.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan plan row: %w", err)
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

// UpdatePlanPrice changes a plan's price and duration and returns the updated
// row.
func (r *PlanRepository) UpdatePlanPrice(ctx context.Context, id string, price int64, duration int) (*domain.Plan, error) {
	query := `
		UPDATE gym_plans
		SET price = $2, duration = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING id, gym_id, title, price, duration, created_at, updated_at
	`
	var plan domain.Plan
	err := r.db.QueryRow(ctx, query, id, price, duration).Scan(
		&plan.ID, &plan.GymID, &plan.Title, &plan.Price, &plan.Duration,
		&plan.CreatedAt, &plan.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("failed to update plan: %w", err)
	}
	return &plan, nil
}

// DeletePlan removes a plan by id.
func (r *PlanRepository) DeletePlan(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM gym_plans WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete plan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPlanNotFound
	}
	return nil
}
