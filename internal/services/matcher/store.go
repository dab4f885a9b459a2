// Package matcher implements the candidate fetchers, the relaxed fallback
// search and the request orchestrator of the matching engine.
package matcher

import (
	"context"
	"time"

	"roomy-ai-core/internal/models"
)

// StudentStore reads student profiles.
type StudentStore interface {
	// GetByUserID returns models.ErrStudentNotFound when no profile exists.
	GetByUserID(ctx context.Context, userID string) (*models.Student, error)
	ListRoommateCandidates(ctx context.Context, q models.RoommateQuery) ([]*models.Student, error)
}

// DormStore reads dorm and room listings. GetDorm and GetRoom return nil
// without error when the record does not exist.
type DormStore interface {
	ListDorms(ctx context.Context, q models.DormQuery) ([]*models.Dorm, error)
	GetDorm(ctx context.Context, id string) (*models.Dorm, error)
	ListRooms(ctx context.Context, dormID string) ([]*models.Room, error)
	GetRoom(ctx context.Context, id string) (*models.Room, error)
	ListRoomsWithDorm(ctx context.Context, q models.DormQuery) ([]*models.RoomWithDorm, error)
}

// PlanStore reads match plans.
type PlanStore interface {
	// GetActivePlan returns nil without error when the student has no active plan.
	GetActivePlan(ctx context.Context, studentID string, now time.Time) (*models.MatchPlan, error)
}

// FeedbackStore reads and appends ai_feedback rows.
type FeedbackStore interface {
	// HelpfulScores returns every helpful score recorded for targetID, whatever the ai_action.
	HelpfulScores(ctx context.Context, targetID string) ([]int, error)
	Insert(ctx context.Context, f *models.FeedbackCreate) (string, error)
	ListAll(ctx context.Context) ([]*models.Feedback, error)
}

// LogSink persists request logs. Failures are ignored by the caller.
type LogSink interface {
	RecordMatch(ctx context.Context, entry *models.MatchLog) error
}

// Authenticator resolves bearer tokens to user ids.
type Authenticator interface {
	UserIDFromToken(ctx context.Context, token string) (string, error)
}

// RateLimiter decides whether a caller key has exceeded its quota.
type RateLimiter interface {
	IsRateLimited(ctx context.Context, key string) (bool, error)
}
