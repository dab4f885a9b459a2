package matcher

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"roomy-ai-core/internal/models"
	"roomy-ai-core/internal/services/scoring"
)

// FetchRoomMatches returns individual free rooms of verified dorms, scored
// with the additive per-room formula.
func (f *Fetcher) FetchRoomMatches(ctx context.Context, student *models.Student, rc *models.RequestContext, excludeIDs []string, limit int) (*FetchResult, error) {
	c := newCriteria(student, rc, excludeIDs, f.weights.Thresholds.PrimaryBudgetTolerance)
	return f.fetchRooms(ctx, student, c, limit, false)
}

func (f *Fetcher) fetchRooms(ctx context.Context, student *models.Student, c criteria, limit int, fallback bool) (*FetchResult, error) {
	rows, err := f.dorms.ListRoomsWithDorm(ctx, c.dormQuery(student.Gender))
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}

	result := &FetchResult{}
	for _, rw := range rows {
		result.add(f.evaluateRoom(student, c, rw, fallback))
	}
	result.sortAndLimit(limit)

	f.logger.Debug("Room fetch complete",
		zap.String("student_id", student.ID),
		zap.Bool("fallback", fallback),
		zap.Int("listed", len(rows)),
		zap.Int("accepted", len(result.Matches)),
		zap.Int("rejected", len(result.Rejections)),
	)
	return result, nil
}

func (f *Fetcher) evaluateRoom(student *models.Student, c criteria, rw *models.RoomWithDorm, fallback bool) scoring.Outcome {
	if rw.Dorm == nil {
		return scoring.Reject(rw.ID, scoring.RejectNotListed)
	}
	price := rw.Price
	if price <= 0 {
		price = rw.Dorm.Price()
	}
	if reason := c.checkListing(rw.ID, rw.Dorm, price, student.Gender); reason != "" {
		return scoring.Reject(rw.ID, reason)
	}
	if reason := c.checkRoom(&rw.Room, student.PreferredRoomTypes); reason != "" {
		return scoring.Reject(rw.ID, reason)
	}

	m := &models.ScoredMatch{
		Type:        models.MatchTypeRoom,
		CandidateID: rw.ID,
		Room:        rw,
		SpotsLeft:   rw.FreeSpots(),
		PlaceName:   rw.Dorm.Name,
		Fallback:    fallback,
	}
	if fallback {
		m.Score = f.weights.Thresholds.FallbackDormScore
		m.SubScores = fallbackSubScores(f.weights, price, c.budget)
	} else {
		m.Score, m.SubScores = f.weights.ScoreRoom(scoring.RoomInput{
			Price:              price,
			Budget:             c.budget,
			RoomType:           rw.Type,
			DormArea:           rw.Dorm.Area,
			DormUniversity:     rw.Dorm.University,
			TargetUniversity:   c.targetUniversity,
			FavoriteAreas:      c.favoriteAreas,
			PreferredRoomTypes: student.PreferredRoomTypes,
		})
	}
	m.BudgetWarning = budgetWarning(price, c.budget)
	return scoring.Accept(m)
}
