package database

import (
	"context"
	"encoding/json"
	"fmt"

	"roomy-ai-core/internal/models"
)

// MatchLogRepository appends ai_match_logs rows.
type MatchLogRepository struct {
	db *DB
}

// NewMatchLogRepository creates a new match log repository.
func NewMatchLogRepository(db *DB) *MatchLogRepository {
	return &MatchLogRepository{db: db}
}

// RecordMatch inserts one request log row.
func (r *MatchLogRepository) RecordMatch(ctx context.Context, entry *models.MatchLog) error {
	rejections, err := json.Marshal(entry.Rejections)
	if err != nil {
		return fmt.Errorf("failed to marshal rejections: %w", err)
	}

	query := `
		INSERT INTO ai_match_logs (request_id, student_id, mode, tier, match_count, fallback_type, rejections, duration_ms, error, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, NULLIF($9, ''), $10)
		ON CONFLICT (request_id) DO NOTHING`

	_, err = r.db.ExecContext(ctx, query,
		entry.RequestID,
		entry.StudentID,
		entry.Mode,
		string(entry.Tier),
		entry.MatchCount,
		entry.FallbackType,
		rejections,
		entry.DurationMs,
		entry.Error,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert match log: %w", err)
	}
	return nil
}
