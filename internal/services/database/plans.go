package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"roomy-ai-core/internal/models"
)

// PlanRepository reads match plans.
type PlanRepository struct {
	db *DB
}

// NewPlanRepository creates a new plan repository.
func NewPlanRepository(db *DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// GetActivePlan returns the latest active, unexpired plan of a student, or nil.
func (r *PlanRepository) GetActivePlan(ctx context.Context, studentID string, now time.Time) (*models.MatchPlan, error) {
	query := `
		SELECT id::text, student_id::text, plan_type, status, expires_at
		FROM match_plans
		WHERE student_id::text = $1 AND status = 'active' AND expires_at > $2
		ORDER BY expires_at DESC
		LIMIT 1`

	var plan models.MatchPlan
	var tier string
	err := r.db.QueryRowContext(ctx, query, studentID, now).Scan(
		&plan.ID,
		&plan.StudentID,
		&tier,
		&plan.Status,
		&plan.ExpiresAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active plan: %w", err)
	}

	plan.Tier = models.PlanTier(tier)
	return &plan, nil
}
