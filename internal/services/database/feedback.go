package database

import (
	"context"
	"fmt"
	"time"

	"roomy-ai-core/internal/models"
)

// FeedbackRepository handles ai_feedback rows. Rows are append-only.
type FeedbackRepository struct {
	db *DB
}

// NewFeedbackRepository creates a new feedback repository.
func NewFeedbackRepository(db *DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// Insert appends a feedback row and returns its ID.
func (r *FeedbackRepository) Insert(ctx context.Context, f *models.FeedbackCreate) (string, error) {
	query := `
		INSERT INTO ai_feedback (user_id, ai_action, target_id, helpful_score, feedback_text, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)
		RETURNING id::text`

	var id string
	err := r.db.QueryRowContext(ctx, query,
		f.UserID,
		f.AIAction,
		f.TargetID,
		f.HelpfulScore,
		f.FeedbackText,
		time.Now().UTC(),
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to insert feedback: %w", err)
	}
	return id, nil
}

// HelpfulScores returns the helpful scores recorded for one target across all actions.
func (r *FeedbackRepository) HelpfulScores(ctx context.Context, targetID string) ([]int, error) {
	query := `
		SELECT helpful_score
		FROM ai_feedback
		WHERE target_id = $1 AND helpful_score IS NOT NULL`

	rows, err := r.db.QueryContext(ctx, query, targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer rows.Close()

	var scores []int
	for rows.Next() {
		var score int
		if err := rows.Scan(&score); err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		scores = append(scores, score)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate feedback: %w", err)
	}
	return scores, nil
}

// ListAll returns every feedback row, oldest first.
func (r *FeedbackRepository) ListAll(ctx context.Context) ([]*models.Feedback, error) {
	query := `
		SELECT id::text, user_id::text, ai_action, target_id, helpful_score, COALESCE(feedback_text, ''), created_at
		FROM ai_feedback
		WHERE helpful_score IS NOT NULL
		ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer rows.Close()

	var feedback []*models.Feedback
	for rows.Next() {
		var f models.Feedback
		err := rows.Scan(
			&f.ID,
			&f.UserID,
			&f.AIAction,
			&f.TargetID,
			&f.HelpfulScore,
			&f.FeedbackText,
			&f.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		feedback = append(feedback, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate feedback: %w", err)
	}
	return feedback, nil
}
